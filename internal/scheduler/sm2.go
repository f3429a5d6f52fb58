// Package scheduler implements the SM-2 spaced-repetition algorithm as a
// pure state transformation. It owns no I/O and has no error path: Apply is
// total over valid ratings, and callers validate the rating enum before
// invoking it.
package scheduler

import (
	"math"
	"time"

	"github.com/mbaxter/flashdeck/internal/models"
)

// Params are the tunable constants of the scheduler. The zero value is not
// usable; start from DefaultParams.
type Params struct {
	// MinEase is the ease-factor floor.
	MinEase float64
	// HardIntervalMult multiplies the previous interval on a Hard rating.
	HardIntervalMult float64
	// EasyBonus further multiplies the interval on an Easy rating.
	EasyBonus float64
	// AgainDelay is how long after an Again rating the card comes back.
	AgainDelay time.Duration
	// HardQuality is the 0-5 quality score used for the ease adjustment on
	// a Hard rating. SM-2 as published has no separate Hard outcome; this
	// implementation gives Hard its own interval multiplier and applies the
	// ease formula with a sub-Good quality. Raise or lower it to taste.
	HardQuality int
}

// DefaultParams returns the standard SM-2 constants used throughout the app.
func DefaultParams() Params {
	return Params{
		MinEase:          models.MinEaseFactor,
		HardIntervalMult: 1.2,
		EasyBonus:        1.3,
		AgainDelay:       10 * time.Minute,
		HardQuality:      3,
	}
}

// quality maps a rating to the 0-5 quality scale of the SM-2 ease formula.
func (p Params) quality(r models.Rating) int {
	switch r {
	case models.Again:
		return 0
	case models.Hard:
		return p.HardQuality
	case models.Easy:
		return 5
	default:
		return 4
	}
}

// nextEase applies the SM-2 ease-factor formula for quality q, clamped to
// the floor: ef' = ef + 0.1 - (5-q)*(0.08 + (5-q)*0.02).
func (p Params) nextEase(ease float64, q int) float64 {
	d := float64(5 - q)
	ease += 0.1 - d*(0.08+d*0.02)
	if ease < p.MinEase {
		ease = p.MinEase
	}
	return ease
}

// roundHalfUp rounds to the nearest integer, halves away from zero.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Apply returns the card's next scheduling state after being rated r at
// time now. The input card is not modified and no review event is appended;
// that is the caller's decision (see NewReviewEvent).
func (p Params) Apply(card models.Card, r models.Rating, now time.Time) models.Card {
	next := card

	switch r {
	case models.Again:
		next.EaseFactor = p.nextEase(card.EaseFactor, p.quality(r))
		next.Interval = 0
		next.Repetitions = 0
		next.Lapses = card.Lapses + 1
		next.DueAt = now.Add(p.AgainDelay)

	case models.Hard:
		next.EaseFactor = p.nextEase(card.EaseFactor, p.quality(r))
		next.Interval = atLeastOneDay(roundHalfUp(float64(card.Interval) * p.HardIntervalMult))
		next.Repetitions = card.Repetitions + 1
		next.DueAt = now.AddDate(0, 0, next.Interval)

	case models.Good:
		// The interval grows by the ease factor in effect before this
		// review; the ease adjustment applies from the next review on.
		next.EaseFactor = p.nextEase(card.EaseFactor, p.quality(r))
		next.Interval = atLeastOneDay(roundHalfUp(float64(card.Interval) * card.EaseFactor))
		next.Repetitions = card.Repetitions + 1
		next.DueAt = now.AddDate(0, 0, next.Interval)

	case models.Easy:
		next.EaseFactor = p.nextEase(card.EaseFactor, p.quality(r))
		next.Interval = atLeastOneDay(roundHalfUp(float64(card.Interval) * card.EaseFactor * p.EasyBonus))
		next.Repetitions = card.Repetitions + 1
		next.DueAt = now.AddDate(0, 0, next.Interval)
	}

	next.LastReviewed = now
	return next
}

// atLeastOneDay enforces the one-day minimum for successful reviews. Even a
// multiplied interval that rounds to zero schedules at least a day out.
func atLeastOneDay(days int) int {
	if days < 1 {
		return 1
	}
	return days
}

// NewReviewEvent captures the before/after scheduling state of a review as
// an immutable history entry.
func NewReviewEvent(before, after models.Card, r models.Rating, now time.Time) models.ReviewEvent {
	return models.ReviewEvent{
		Timestamp:      now,
		Rating:         r,
		IntervalBefore: before.Interval,
		IntervalAfter:  after.Interval,
		EaseBefore:     before.EaseFactor,
		EaseAfter:      after.EaseFactor,
	}
}
