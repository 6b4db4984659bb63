package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/scry-engine/internal/cache"
)

// serve runs the HTTP server and the cache sweeper until ctx is cancelled
// or either of them fails.
func (app *application) serve(ctx context.Context) error {
	handler, err := app.router()
	if err != nil {
		return err
	}

	cfg := app.config.Server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", slog.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := cache.RunSweeper(gctx, app.cacheStore, app.config.Cache.SweepInterval(), app.logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("cache sweeper failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	app.cleanup(ctx)
	return err
}
