package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
)

var ErrNilCard = errors.New("reviewable card cannot be nil")

// Service schedules the next review of a card.
type Service interface {
	// Schedule returns the card's state after event at now. The input card
	// is not modified.
	Schedule(card *domain.ReviewableCard, event domain.ReviewEvent, now time.Time) (*domain.ReviewableCard, error)
}

type scheduler struct {
	params *Params
}

// NewDefaultService schedules with NewDefaultParams.
func NewDefaultService() Service {
	return NewServiceWithParams(nil)
}

// NewServiceWithParams schedules with params, or the defaults when nil.
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return scheduler{params: params}
}

func (s scheduler) Schedule(card *domain.ReviewableCard, event domain.ReviewEvent, now time.Time) (*domain.ReviewableCard, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	return calculateNextCard(card, event, now.UTC(), s.params), nil
}
