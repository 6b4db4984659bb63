package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// calculateNewEaseFactor applies the outcome adjustment to the current ease
// factor and clamps the result at params.MinEaseFactor.
//
// A correct answer makes the card easier (intervals grow faster); an
// incorrect answer makes it harder. There is no upper bound.
func calculateNewEaseFactor(currentEF float64, correct bool, params *Params) float64 {
	delta := params.IncorrectEaseDelta
	if correct {
		delta = params.CorrectEaseDelta
	}

	return math.Max(params.MinEaseFactor, currentEF+delta)
}

// calculateNewInterval determines the number of days until the next review.
//
// Parameters:
//   - previousInterval: the interval before this review
//   - repetitionCount: the repetition count after this review was counted
//   - easeFactor: the ease factor before this review adjusted it
//   - correct: whether the answer was correct
//
// Algorithm behavior:
//   - Incorrect: hard reset to params.LapseInterval regardless of history
//   - First repetition: params.FirstInterval
//   - Second repetition: params.SecondInterval
//   - Later repetitions: round(previousInterval * easeFactor)
//
// The result is never below one day.
func calculateNewInterval(
	previousInterval int,
	repetitionCount int,
	easeFactor float64,
	correct bool,
	params *Params,
) int {
	var interval int
	switch {
	case !correct:
		interval = params.LapseInterval
	case repetitionCount <= 1:
		interval = params.FirstInterval
	case repetitionCount == 2:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(previousInterval) * easeFactor))
	}

	if interval < 1 {
		return 1
	}
	return interval
}

// calculateNextReviewDate converts an interval in days into a due date.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return now.AddDate(0, 0, interval)
}

// calculateNextCard returns a new card with the scheduling state that
// follows from event. The input card is not modified.
//
// The repetition count increments on every review, correct or not; only
// the interval and ease factor distinguish the two outcomes.
func calculateNextCard(
	card *domain.ReviewableCard,
	event domain.ReviewEvent,
	now time.Time,
	params *Params,
) *domain.ReviewableCard {
	next := *card

	reviewedAt := now
	next.RepetitionCount = card.RepetitionCount + 1
	next.LastReviewedAt = &reviewedAt

	next.Interval = calculateNewInterval(
		card.Interval,
		next.RepetitionCount,
		card.EaseFactor,
		event.Correct,
		params,
	)
	next.EaseFactor = calculateNewEaseFactor(card.EaseFactor, event.Correct, params)
	next.NextReviewDate = calculateNextReviewDate(next.Interval, now)
	next.UpdatedAt = now

	return &next
}
