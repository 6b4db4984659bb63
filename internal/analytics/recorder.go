package analytics

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// Recorder tracks analytics events. Track never fails from the caller's
// point of view.
type Recorder interface {
	Track(ctx context.Context, event domain.AnalyticsEvent)
}

// Noop discards every event.
type Noop struct{}

// Track implements Recorder.
func (Noop) Track(context.Context, domain.AnalyticsEvent) {}

// NewEventID returns a ULID for an event that occurred at t.
func NewEventID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// NewEvent creates an event of the given type stamped with now.
func NewEvent(typ domain.AnalyticsEventType, now time.Time) domain.AnalyticsEvent {
	now = now.UTC()
	return domain.AnalyticsEvent{
		ID:         NewEventID(now),
		Type:       typ,
		OccurredAt: now,
	}
}

// Sink persists events.
type Sink interface {
	InsertEvents(ctx context.Context, events []*domain.AnalyticsEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, events []*domain.AnalyticsEvent) error

// InsertEvents implements Sink.
func (f SinkFunc) InsertEvents(ctx context.Context, events []*domain.AnalyticsEvent) error {
	return f(ctx, events)
}
