package analytics

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("analytics queue is closed")
	ErrQueueFull   = errors.New("analytics queue is full")
)

// Queue is a bounded buffer of pending events.
type Queue struct {
	mu     sync.RWMutex
	events chan *domain.AnalyticsEvent
	logger *slog.Logger
	closed bool
}

// NewQueue creates a queue holding at most size events.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		events: make(chan *domain.AnalyticsEvent, size),
		logger: logger,
	}
}

// Enqueue adds an event without blocking.
// Returns ErrQueueFull or ErrQueueClosed when the event cannot be accepted.
func (q *Queue) Enqueue(event *domain.AnalyticsEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.events <- event:
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.events))
	}
}

// Close stops accepting events. Events already queued remain readable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.events)
		q.logger.Info("analytics queue closed", "pending", len(q.events))
	}
}

// Channel returns the read side of the queue.
func (q *Queue) Channel() <-chan *domain.AnalyticsEvent {
	return q.events
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}
