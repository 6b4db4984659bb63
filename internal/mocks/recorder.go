package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-engine/internal/analytics"
	"github.com/phrazzld/scry-engine/internal/domain"
)

// MockRecorder collects tracked analytics events
type MockRecorder struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

var _ analytics.Recorder = (*MockRecorder)(nil)

// Track implements analytics.Recorder
func (m *MockRecorder) Track(_ context.Context, ev domain.AnalyticsEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of the tracked events
func (m *MockRecorder) Events() []domain.AnalyticsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AnalyticsEvent(nil), m.events...)
}

// Types returns the event types in tracking order
func (m *MockRecorder) Types() []domain.AnalyticsEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AnalyticsEventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}
