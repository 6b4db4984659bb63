package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry defaults.
const (
	DefaultMaxRetries     = 3
	DefaultBaseDelay      = 2 * time.Second
	DefaultMaxDelay       = 30 * time.Second
	DefaultAttemptTimeout = 30 * time.Second
)

// RetryConfig bounds the retry policy.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the first backoff delay; each retry doubles it.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff delay.
	MaxDelay time.Duration
	// AttemptTimeout bounds each individual call.
	AttemptTimeout time.Duration
}

// RetryingGenerator decorates a Generator with per-attempt timeouts and
// exponential backoff with jitter. Permanent errors are returned immediately.
type RetryingGenerator struct {
	next   Generator
	cfg    RetryConfig
	logger *slog.Logger
}

var _ Generator = (*RetryingGenerator)(nil)

// NewRetryingGenerator wraps next. Invalid config values fall back to defaults.
func NewRetryingGenerator(next Generator, cfg RetryConfig, logger *slog.Logger) *RetryingGenerator {
	if next == nil {
		panic("next generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		logger.Warn("invalid max retries value, using default", "max_retries", DefaultMaxRetries)
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = DefaultMaxDelay
		if cfg.MaxDelay < cfg.BaseDelay {
			cfg.MaxDelay = cfg.BaseDelay
		}
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}

	return &RetryingGenerator{
		next:   next,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "generation_retry")),
	}
}

func (g *RetryingGenerator) backoff() retry.Backoff {
	b := retry.NewExponential(g.cfg.BaseDelay)
	b = retry.WithJitterPercent(50, b)
	b = retry.WithCappedDuration(g.cfg.MaxDelay, b)
	return retry.WithMaxRetries(uint64(g.cfg.MaxRetries), b)
}

// Generate implements Generator.
func (g *RetryingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var (
		out     string
		attempt int
	)

	err := retry.Do(ctx, g.backoff(), func(ctx context.Context) error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		defer cancel()

		text, err := g.next.Generate(attemptCtx, req)
		if err == nil {
			text, err = CheckOutput(text)
		}
		if err == nil {
			out = text
			if attempt > 1 {
				g.logger.InfoContext(ctx, "generation succeeded after retry",
					"attempt", attempt,
					"task_type", req.TaskType)
			}
			return nil
		}

		if IsPermanent(err) {
			g.logger.WarnContext(ctx, "permanent generation error, not retrying",
				"attempt", attempt,
				"task_type", req.TaskType,
				"error", err)
			return err
		}

		// A parent cancellation is final; a per-attempt deadline is not.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		g.logger.WarnContext(ctx, "transient generation error",
			"attempt", attempt,
			"max_attempts", g.cfg.MaxRetries+1,
			"task_type", req.TaskType,
			"error", err)
		return retry.RetryableError(err)
	})

	switch {
	case err == nil:
		return out, nil
	case IsPermanent(err):
		return "", err
	case ctx.Err() != nil:
		g.logger.WarnContext(ctx, "generation cancelled", "attempt", attempt, "ctx_err", ctx.Err())
		return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
	default:
		g.logger.ErrorContext(ctx, "maximum retry attempts reached",
			"attempts", attempt,
			"task_type", req.TaskType)
		if errors.Is(err, ErrTransientFailure) {
			return "", fmt.Errorf("exceeded maximum retry attempts (%d): %w", g.cfg.MaxRetries, err)
		}
		return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
			ErrTransientFailure, g.cfg.MaxRetries, err)
	}
}
