package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/service/card_review"
	"github.com/phrazzld/scry-engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReview(t *testing.T) {
	ts := newTestServer(t)

	cardID := uuid.New()
	next := time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	ts.reviews.On("Review", mock.Anything, ts.ownerID, cardID,
		domain.ReviewEvent{Correct: true, TimeSpent: 4500 * time.Millisecond},
	).Return(&domain.ReviewResult{CardID: cardID, NextReviewDate: next, Interval: 6, EaseFactor: 2.6, RepetitionCount: 2}, nil).Once()

	rec := ts.do(t, http.MethodPost, "/api/cards/"+cardID.String()+"/review",
		map[string]any{"correct": true, "time_spent_ms": 4500})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[domain.ReviewResult](t, rec)
	assert.Equal(t, 6, got.Interval)
	assert.InDelta(t, 2.6, got.EaseFactor, 1e-9)
	assert.True(t, next.Equal(got.NextReviewDate))
}

func TestReview_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		call       bool
		wantStatus int
		wantMsg    string
	}{
		{name: "missing correct", body: map[string]any{"time_spent_ms": 10}, wantStatus: http.StatusBadRequest, wantMsg: "Invalid Correct: required field"},
		{name: "negative time", body: map[string]any{"correct": false, "time_spent_ms": -1}, wantStatus: http.StatusBadRequest, wantMsg: "Invalid TimeSpentMillis"},
		{name: "time beyond a day", body: map[string]any{"correct": true, "time_spent_ms": int64(9223372036854775)}, wantStatus: http.StatusBadRequest, wantMsg: "Invalid TimeSpentMillis: too large"},
		{name: "not found", body: map[string]any{"correct": true}, call: true, err: store.ErrCardNotFound, wantStatus: http.StatusNotFound, wantMsg: "Card not found"},
		{name: "not owned", body: map[string]any{"correct": true}, call: true, err: store.ErrCardNotOwned, wantStatus: http.StatusForbidden, wantMsg: "You do not own this card"},
		{
			name: "concurrent", body: map[string]any{"correct": true}, call: true,
			err:        card_review.NewReviewError("retries exhausted", card_review.ErrConcurrentUpdate),
			wantStatus: http.StatusConflict, wantMsg: "updated concurrently",
		},
		{name: "store failure", body: map[string]any{"correct": true}, call: true, err: errors.New("pq: broken pipe"), wantStatus: http.StatusInternalServerError, wantMsg: "Failed to record review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			cardID := uuid.New()
			if tt.call {
				ts.reviews.On("Review", mock.Anything, ts.ownerID, cardID, mock.Anything).Return(nil, tt.err).Once()
			}

			rec := ts.do(t, http.MethodPost, "/api/cards/"+cardID.String()+"/review", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

func TestDueCards(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		ts := newTestServer(t)
		cards := []*domain.ReviewableCard{{ID: uuid.New(), OwnerID: ts.ownerID}, {ID: uuid.New(), OwnerID: ts.ownerID}}
		ts.reviews.On("DueCards", mock.Anything, ts.ownerID, mock.AnythingOfType("time.Time"), DefaultDueLimit).Return(cards, nil).Once()

		rec := ts.do(t, http.MethodGet, "/api/cards/due", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decodeBody[CardsResponse](t, rec).Count)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		ts := newTestServer(t)
		ts.reviews.On("DueCards", mock.Anything, ts.ownerID, mock.Anything, MaxDueLimit).Return(nil, nil).Once()

		rec := ts.do(t, http.MethodGet, "/api/cards/due?limit=5000", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[CardsResponse](t, rec)
		assert.Equal(t, 0, got.Count)
		assert.NotNil(t, got.Cards)
	})

	t.Run("invalid limit", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/api/cards/due?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteCard(t *testing.T) {
	ts := newTestServer(t)

	cardID := uuid.New()
	ts.reviews.On("DeleteCard", mock.Anything, ts.ownerID, cardID).Return(nil).Once()
	rec := ts.do(t, http.MethodDelete, "/api/cards/"+cardID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	other := uuid.New()
	ts.reviews.On("DeleteCard", mock.Anything, ts.ownerID, other).
		Return(fmt.Errorf("delete card: %w", store.ErrCardNotOwned)).Once()
	rec = ts.do(t, http.MethodDelete, "/api/cards/"+other.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
