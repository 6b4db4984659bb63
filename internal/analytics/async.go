package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// AsyncRecorder is a Recorder backed by a Queue and a WorkerPool.
type AsyncRecorder struct {
	queue  *Queue
	pool   *WorkerPool
	now    func() time.Time
	logger *slog.Logger
}

var _ Recorder = (*AsyncRecorder)(nil)

// NewAsyncRecorder creates a recorder writing to sink and starts its workers.
func NewAsyncRecorder(sink Sink, cfg config.AnalyticsConfig, l *slog.Logger) *AsyncRecorder {
	if sink == nil {
		panic("analytics sink cannot be nil")
	}
	if l == nil {
		l = slog.Default()
	}
	l = l.With(slog.String("component", "analytics"))

	queue := NewQueue(cfg.QueueSize, l)
	pool := NewWorkerPool(queue, sink, WorkerPoolConfig{
		WorkerCount:  cfg.WorkerCount,
		WriteTimeout: cfg.WriteTimeout(),
	}, l)
	pool.Start()

	return &AsyncRecorder{
		queue:  queue,
		pool:   pool,
		now:    time.Now,
		logger: l,
	}
}

// Track implements Recorder. Missing ids and timestamps are filled in.
func (r *AsyncRecorder) Track(ctx context.Context, event domain.AnalyticsEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}
	if event.ID == "" {
		event.ID = NewEventID(event.OccurredAt)
	}

	if err := r.queue.Enqueue(&event); err != nil {
		log := logger.FromContextOrDefault(ctx, r.logger)
		if errors.Is(err, ErrQueueFull) {
			log.WarnContext(ctx, "analytics queue full, dropping event",
				"event_type", string(event.Type))
			return
		}
		log.DebugContext(ctx, "analytics event rejected",
			"event_type", string(event.Type),
			"error", err)
	}
}

// Close stops accepting events and waits for queued events to be written.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.queue.Close()
	return r.pool.Wait(ctx)
}
