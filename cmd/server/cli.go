package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/knowledge"
	"github.com/phrazzld/scry-engine/internal/pipeline"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/platform/postgres"
	"github.com/phrazzld/scry-engine/internal/service/auth"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "scry-engine",
		Usage:   "Flashcard generation and spaced repetition service",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (default ./config.yaml when present)",
				EnvVars: []string{"SCRY_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			generateCmd(),
			approveCmd(),
			reviewCmd(),
			cacheCmd(),
			kbCmd(),
			tokenCmd(),
		},
	}
	// Errors are returned to main instead of exiting inside the library.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// env is the per-invocation configuration and logger.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.LoadFrom(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return &env{cfg: cfg, logger: l}, nil
}

func (e *env) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := postgres.Open(ctx, e.cfg.Database, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withStoreApp runs fn against the store-only application.
func withStoreApp(c *cli.Context, fn func(ctx context.Context, app *application) error) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	db, err := e.openDB(ctx)
	if err != nil {
		return err
	}
	app, err := newStoreApplication(ctx, e.cfg, e.logger, db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer app.cleanup(ctx)
	return fn(ctx, app)
}

// withFullApp runs fn against the fully wired application.
func withFullApp(c *cli.Context, fn func(ctx context.Context, app *application) error) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	db, err := e.openDB(ctx)
	if err != nil {
		return err
	}
	app, err := newApplication(ctx, e.cfg, e.logger, db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer app.cleanup(ctx)
	return fn(ctx, app)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the cache sweeper",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := e.openDB(ctx)
			if err != nil {
				return err
			}
			app, err := newApplication(ctx, e.cfg, e.logger, db)
			if err != nil {
				_ = db.Close()
				return err
			}
			return app.serve(ctx)
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Run database migrations",
		ArgsUsage: "<up|down|status|version|reset|redo|up-to|down-to> [version]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("migrate requires a command")
			}
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			db, err := e.openDB(c.Context)
			if err != nil {
				return err
			}
			defer db.Close()

			args := c.Args().Slice()
			return postgres.Migrate(c.Context, db, args[0], e.logger, args[1:]...)
		},
	}
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate flashcards from a file or stdin and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "Owner UUID (default: a new one)"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: string(domain.ContentTypeText), Usage: "Content type: text|pdf|image|topic"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "-", Usage: "Input file, - for stdin"},
			&cli.StringFlag{Name: "mime-type", Usage: "MIME type of image input"},
			&cli.StringFlag{Name: "format", Usage: "Set to markdown to flatten markdown input"},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Number of flashcards"},
			&cli.StringFlag{Name: "difficulty", Usage: "beginner|intermediate|advanced"},
			&cli.StringSliceFlag{Name: "subject", Usage: "Subject hint (repeatable)"},
			&cli.StringSliceFlag{Name: "focus", Usage: "Focus area (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			ownerID, err := uuidFlag(c, "owner", true)
			if err != nil {
				return err
			}
			content, err := readInput(c.String("file"), c.App.Reader)
			if err != nil {
				return err
			}

			src := domain.ContentSource{
				Type:     domain.ContentType(c.String("type")),
				Content:  content,
				Metadata: map[string]any{},
			}
			if mt := c.String("mime-type"); mt != "" {
				src.Metadata[domain.MetadataMIMEType] = mt
			}
			if f := c.String("format"); f != "" {
				src.Metadata[domain.MetadataFormat] = f
			}
			opts := pipeline.Options{
				Count:      c.Int("count"),
				Difficulty: domain.Difficulty(c.String("difficulty")),
				Subjects:   c.StringSlice("subject"),
				FocusAreas: c.StringSlice("focus"),
			}

			return withFullApp(c, func(ctx context.Context, app *application) error {
				result, err := app.pipeline.Generate(ctx, ownerID, src, opts)
				if err != nil {
					return err
				}
				return outputJSON(c.App.Writer, result)
			})
		},
	}
}

func approveCmd() *cli.Command {
	return &cli.Command{
		Name:  "approve",
		Usage: "Save a generated session's candidates as reviewable cards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Required: true, Usage: "Owner UUID"},
			&cli.StringFlag{Name: "session", Required: true, Usage: "Generation session UUID"},
			&cli.StringSliceFlag{Name: "card", Usage: "Candidate UUID to keep (repeatable, default all)"},
		},
		Action: func(c *cli.Context) error {
			ownerID, err := uuidFlag(c, "owner", false)
			if err != nil {
				return err
			}
			sessionID, err := uuidFlag(c, "session", false)
			if err != nil {
				return err
			}
			var cardIDs []uuid.UUID
			for _, raw := range c.StringSlice("card") {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid --card %q: %w", raw, err)
				}
				cardIDs = append(cardIDs, id)
			}

			return withStoreApp(c, func(ctx context.Context, app *application) error {
				cards, err := app.cardReviewService.ApproveCards(ctx, ownerID, sessionID, cardIDs)
				if err != nil {
					return err
				}
				return outputJSON(c.App.Writer, cards)
			})
		},
	}
}

func reviewCmd() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Record a study event for a card and print its new schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Required: true, Usage: "Owner UUID"},
			&cli.StringFlag{Name: "card", Required: true, Usage: "Card UUID"},
			&cli.StringFlag{Name: "result", Required: true, Usage: "correct|incorrect"},
			&cli.DurationFlag{Name: "time-spent", Usage: "Time spent answering"},
		},
		Action: func(c *cli.Context) error {
			ownerID, err := uuidFlag(c, "owner", false)
			if err != nil {
				return err
			}
			cardID, err := uuidFlag(c, "card", false)
			if err != nil {
				return err
			}
			event, err := parseReviewEvent(c.String("result"), c.Duration("time-spent"))
			if err != nil {
				return err
			}

			return withStoreApp(c, func(ctx context.Context, app *application) error {
				result, err := app.cardReviewService.Review(ctx, ownerID, cardID, event)
				if err != nil {
					return err
				}
				return outputJSON(c.App.Writer, result)
			})
		},
	}
}

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Context cache maintenance",
		Subcommands: []*cli.Command{
			{
				Name:  "sweep",
				Usage: "Delete expired cache entries once",
				Action: func(c *cli.Context) error {
					return withStoreApp(c, func(ctx context.Context, app *application) error {
						removed, err := cache.Sweep(ctx, app.cacheStore, app.logger)
						if err != nil {
							return err
						}
						return outputJSON(c.App.Writer, map[string]int64{"removed": removed})
					})
				},
			},
		},
	}
}

func kbCmd() *cli.Command {
	return &cli.Command{
		Name:  "kb",
		Usage: "Knowledge base maintenance",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import a cleaned question-bank JSON export",
				ArgsUsage: "<file|->",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("kb import requires exactly one file argument")
					}
					raw, err := readInput(c.Args().First(), c.App.Reader)
					if err != nil {
						return err
					}
					items, skipped, err := knowledge.DecodeExport(bytes.NewReader(raw))
					if err != nil {
						return err
					}

					return withStoreApp(c, func(ctx context.Context, app *application) error {
						imported, err := app.knowledgeStore.Import(ctx, items)
						if err != nil {
							return fmt.Errorf("import stopped after %d items: %w", imported, err)
						}
						app.logger.Info("knowledge base imported",
							slog.Int("imported", imported),
							slog.Int("skipped", skipped))
						return outputJSON(c.App.Writer, map[string]int{
							"read":     len(items) + skipped,
							"imported": imported,
							"skipped":  skipped,
						})
					})
				},
			},
		},
	}
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue an access token for an owner",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "Owner UUID (default: a new one)"},
		},
		Action: func(c *cli.Context) error {
			ownerID, err := uuidFlag(c, "owner", true)
			if err != nil {
				return err
			}
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			svc, err := auth.NewJWTService(e.cfg.Auth)
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(c.Context, ownerID)
			if err != nil {
				return err
			}
			return outputJSON(c.App.Writer, map[string]string{
				"owner_id":     ownerID.String(),
				"access_token": token,
				"expires_at": time.Now().Add(time.Duration(e.cfg.Auth.TokenLifetimeMinutes) * time.Minute).
					UTC().Format(time.RFC3339),
			})
		},
	}
}

// uuidFlag parses a UUID flag. When allowNew is set an absent flag yields
// a fresh UUID.
func uuidFlag(c *cli.Context, name string, allowNew bool) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.String(name))
	if raw == "" {
		if allowNew {
			return uuid.New(), nil
		}
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return id, nil
}

func parseReviewEvent(result string, spent time.Duration) (domain.ReviewEvent, error) {
	if spent < 0 {
		return domain.ReviewEvent{}, fmt.Errorf("--time-spent cannot be negative")
	}
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "correct":
		return domain.ReviewEvent{Correct: true, TimeSpent: spent}, nil
	case "incorrect":
		return domain.ReviewEvent{Correct: false, TimeSpent: spent}, nil
	default:
		return domain.ReviewEvent{}, fmt.Errorf("--result must be correct or incorrect, got %q", result)
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func outputJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
