package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsEventType names a tracked event.
type AnalyticsEventType string

const (
	EventGenerationStarted   AnalyticsEventType = "generation_started"
	EventGenerationCompleted AnalyticsEventType = "generation_completed"
	EventGenerationFailed    AnalyticsEventType = "generation_failed"
	EventCardsApproved       AnalyticsEventType = "cards_approved"
	EventCardReviewed        AnalyticsEventType = "card_reviewed"
	EventTutorFallback       AnalyticsEventType = "tutor_fallback"
)

// AnalyticsEvent is a fire-and-forget usage record. ID is a ULID string so
// events sort by creation time.
type AnalyticsEvent struct {
	ID         string             `json:"id"`
	Type       AnalyticsEventType `json:"type"`
	OwnerID    uuid.UUID          `json:"ownerId,omitempty"`
	SessionID  uuid.UUID          `json:"sessionId,omitempty"`
	CardID     uuid.UUID          `json:"cardId,omitempty"`
	Properties map[string]any     `json:"properties,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}
