package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// DefaultWriteTimeout bounds a single sink write.
const DefaultWriteTimeout = 5 * time.Second

// WorkerPool drains a Queue into a Sink with a fixed number of workers.
type WorkerPool struct {
	queue        *Queue
	sink         Sink
	workerCount  int
	writeTimeout time.Duration
	wg           sync.WaitGroup
	logger       *slog.Logger
	errorHandler func(event *domain.AnalyticsEvent, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount is the number of workers; zero or negative means 1.
	WorkerCount int
	// WriteTimeout bounds each sink write; zero or negative means
	// DefaultWriteTimeout.
	WriteTimeout time.Duration
}

// NewWorkerPool creates a pool; call Start to launch the workers.
func NewWorkerPool(queue *Queue, sink Sink, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		workerCount = 1
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WorkerPool{
		queue:        queue,
		sink:         sink,
		workerCount:  workerCount,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// SetErrorHandler sets a callback for failed writes. Failures are always logged.
func (p *WorkerPool) SetErrorHandler(handler func(event *domain.AnalyticsEvent, err error)) {
	p.errorHandler = handler
}

// Start launches the workers. They exit once the queue is closed and drained.
func (p *WorkerPool) Start() {
	p.logger.Info("starting analytics workers", "worker_count", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Wait blocks until every worker has exited or ctx is done.
func (p *WorkerPool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	log := p.logger.With("worker_id", id)

	for event := range p.queue.Channel() {
		p.write(log, event)
	}
	log.Debug("analytics worker stopped")
}

func (p *WorkerPool) write(log *slog.Logger, event *domain.AnalyticsEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("analytics sink panicked", "event_id", event.ID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	if err := p.sink.InsertEvents(ctx, []*domain.AnalyticsEvent{event}); err != nil {
		log.Warn("failed to write analytics event",
			"event_id", event.ID,
			"event_type", string(event.Type),
			"error", err)
		if p.errorHandler != nil {
			p.errorHandler(event, err)
		}
	}
}
