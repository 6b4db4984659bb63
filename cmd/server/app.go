package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-engine/internal/analytics"
	"github.com/phrazzld/scry-engine/internal/api"
	"github.com/phrazzld/scry-engine/internal/cache"
	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/srs"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/knowledge"
	"github.com/phrazzld/scry-engine/internal/pipeline"
	"github.com/phrazzld/scry-engine/internal/platform/gemini"
	"github.com/phrazzld/scry-engine/internal/platform/postgres"
	"github.com/phrazzld/scry-engine/internal/platform/redis"
	"github.com/phrazzld/scry-engine/internal/service/auth"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
	"github.com/phrazzld/scry-engine/internal/service/tutor"
	"github.com/phrazzld/scry-engine/internal/store"
)

// maxRetryDelay caps a single generator backoff.
const maxRetryDelay = 30 * time.Second

// application holds the wired dependencies shared by the commands.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	// Stores
	sessionStore   store.SessionStore
	candidateStore store.CandidateStore
	cardStore      store.CardStore
	knowledgeStore store.KnowledgeStore
	cacheStore     cache.Store

	// Services
	recorder          analytics.Recorder
	asyncRecorder     *analytics.AsyncRecorder
	jwtService        auth.JWTService
	generator         generation.Generator
	pipeline          *pipeline.Service
	cardReviewService card_review.CardReviewService
	tutor             *tutor.Service
}

// newStoreApplication wires the database-backed stores and the services
// that need nothing else: approval, review and the cache.
func newStoreApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		sessionStore:   postgres.NewPostgresSessionStore(db, logger),
		candidateStore: postgres.NewPostgresCandidateStore(db, logger),
		cardStore:      postgres.NewPostgresCardStore(db, logger),
		knowledgeStore: postgres.NewPostgresKnowledgeStore(db, logger),
		recorder:       analytics.Noop{},
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	switch cfg.Cache.Backend {
	case "redis":
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = rdb
		app.cacheStore = redis.NewCacheStore(rdb, cache.SystemClock, logger)
	default:
		app.cacheStore = postgres.NewPostgresCacheStore(db, cache.SystemClock, logger)
	}
	logger.Info("context cache initialized", slog.String("backend", cfg.Cache.Backend))

	if cfg.Analytics.Enabled {
		app.asyncRecorder = analytics.NewAsyncRecorder(postgres.NewPostgresAnalyticsStore(db, logger), cfg.Analytics, logger)
		app.recorder = app.asyncRecorder
	}

	srsService := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:      cfg.SRS.MinEaseFactor,
		CorrectEaseDelta:   cfg.SRS.CorrectEaseDelta,
		IncorrectEaseDelta: cfg.SRS.IncorrectEaseDelta,
	}))
	app.cardReviewService = card_review.NewCardReviewService(
		app.cardStore,
		app.sessionStore,
		app.candidateStore,
		store.NewSQLTransactor(db),
		srsService,
		app.recorder,
		card_review.Config{MaxUpdateAttempts: cfg.SRS.MaxUpdateAttempts},
		logger,
	)

	return app, nil
}

// newApplication wires everything, including the generative model and the
// pipeline.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app, err := newStoreApplication(ctx, cfg, logger, db)
	if err != nil {
		return nil, err
	}

	llm, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	app.generator = generation.NewRetryingGenerator(llm, generation.RetryConfig{
		MaxRetries:     cfg.LLM.MaxRetries,
		BaseDelay:      cfg.LLM.RetryDelay(),
		MaxDelay:       maxRetryDelay,
		AttemptTimeout: cfg.LLM.RequestTimeout(),
	}, logger)
	logger.Info("generator initialized",
		slog.String("model", cfg.LLM.ModelName),
		slog.Int("max_retries", cfg.LLM.MaxRetries))

	prompts := pipeline.MustLoadPrompts()
	if dir := cfg.LLM.PromptTemplateDir; dir != "" {
		if prompts, err = pipeline.LoadPrompts(dir); err != nil {
			app.cleanup(ctx)
			return nil, fmt.Errorf("failed to load prompt templates: %w", err)
		}
	}

	thresholds := knowledge.Thresholds{
		MinConfidence:    cfg.Knowledge.MinConfidence,
		MinContextLength: cfg.Knowledge.MinContextLength,
	}
	source := app.knowledgeSource()

	normalizer := pipeline.NewNormalizer(app.generator, prompts, pipeline.NormalizeParams{
		MinContentLength: cfg.Pipeline.MinContentLength,
		MaxConcepts:      cfg.Pipeline.MaxConcepts,
		MinConceptLength: cfg.Pipeline.MinConceptLength,
	}, logger)
	analyzer := pipeline.NewAnalyzer(app.generator, prompts,
		cache.NewJSONCache(app.cacheStore, domain.CacheTypeAnalysis, cfg.Cache.TTL(), logger), logger)
	orchestrator := pipeline.NewOrchestrator(source, app.generator, prompts, thresholds, cfg.Knowledge.ResultLimit, logger)
	ledger := pipeline.NewStoreLedger(app.sessionStore, app.candidateStore, store.NewSQLTransactor(db), logger)

	svcCfg := pipeline.DefaultServiceConfig()
	svcCfg.DefaultCount = cfg.Pipeline.DefaultCount
	svcCfg.MaxCount = cfg.Pipeline.MaxCount
	app.pipeline = pipeline.NewService(normalizer, analyzer, orchestrator, ledger, app.recorder, svcCfg, logger)

	app.tutor = tutor.NewService(app.generator, knowledge.NewRetriever(source, thresholds), prompts, app.recorder,
		time.Duration(cfg.Pipeline.TutorTimeoutSeconds)*time.Second, logger)

	logger.Info("application initialized",
		slog.String("knowledge_backend", cfg.Knowledge.Backend),
		slog.Bool("analytics", cfg.Analytics.Enabled))
	return app, nil
}

// knowledgeSource selects the knowledge backend and wraps it with the
// read-through context cache.
func (app *application) knowledgeSource() knowledge.Source {
	cfg := app.config.Knowledge

	var src knowledge.Source
	switch cfg.Backend {
	case "none":
		return knowledge.NoSource{}
	case "http":
		src = knowledge.NewHTTPSource(cfg.BaseURL, cfg.Timeout(), app.logger)
	default:
		src = postgres.NewPostgresKnowledgeStore(app.db, app.logger)
	}
	return knowledge.NewCachingSource(src,
		cache.NewJSONCache(app.cacheStore, domain.CacheTypeKnowledge, app.config.Cache.TTL(), app.logger),
		app.logger)
}

// router builds the HTTP handler over the wired services.
func (app *application) router() (http.Handler, error) {
	if app.pipeline == nil || app.tutor == nil {
		return nil, fmt.Errorf("application was built without the generation pipeline")
	}
	return api.NewRouter(api.RouterDeps{
		Logger:         app.logger,
		JWT:            app.jwtService,
		Generations:    app.pipeline,
		Reviews:        app.cardReviewService,
		Tutor:          app.tutor,
		Quiz:           app.knowledgeStore,
		DB:             app.db,
		RequestTimeout: time.Duration(app.config.Server.WriteTimeoutSeconds) * time.Second,
	}), nil
}

// cleanup flushes analytics and closes connections.
func (app *application) cleanup(ctx context.Context) {
	if app.asyncRecorder != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := app.asyncRecorder.Close(flushCtx); err != nil {
			app.logger.Error("failed to flush analytics", slog.String("error", err.Error()))
		}
		cancel()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
