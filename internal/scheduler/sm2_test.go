package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/scheduler"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func card(interval int, ease float64) models.Card {
	c := models.NewCard("front", "back")
	c.Interval = interval
	c.EaseFactor = ease
	return c
}

func TestApply_Good(t *testing.T) {
	p := scheduler.DefaultParams()

	next := p.Apply(card(10, 2.5), models.Good, now)

	assert.Equal(t, 25, next.Interval, "round(10*2.5)")
	assert.InDelta(t, 2.5, next.EaseFactor, 1e-9, "q=4 leaves ease unchanged")
	assert.Equal(t, 1, next.Repetitions)
	assert.Equal(t, now.AddDate(0, 0, 25), next.DueAt)
}

func TestApply_Easy(t *testing.T) {
	p := scheduler.DefaultParams()

	next := p.Apply(card(25, 2.5), models.Easy, now)

	assert.Equal(t, 81, next.Interval, "round(25*2.5*1.3)")
	assert.InDelta(t, 2.6, next.EaseFactor, 1e-9, "q=5 adds 0.1")
}

func TestApply_Hard(t *testing.T) {
	p := scheduler.DefaultParams()

	next := p.Apply(card(10, 2.5), models.Hard, now)

	assert.Equal(t, 12, next.Interval, "round(10*1.2)")
	assert.Less(t, next.EaseFactor, 2.5, "ease decreases on hard")
	assert.Equal(t, 1, next.Repetitions)
}

func TestApply_Again(t *testing.T) {
	p := scheduler.DefaultParams()
	c := card(0, 2.5)
	c.Repetitions = 3

	next := p.Apply(c, models.Again, now)

	assert.Equal(t, 0, next.Interval)
	assert.Equal(t, 0, next.Repetitions, "repetitions reset")
	assert.Equal(t, 1, next.Lapses, "lapses increment by exactly one")
	assert.Equal(t, now.Add(10*time.Minute), next.DueAt, "card comes back in 10 minutes")
	assert.Less(t, next.EaseFactor, 2.5)
}

func TestApply_NewCardFirstSuccess(t *testing.T) {
	p := scheduler.DefaultParams()

	next := p.Apply(card(0, 2.5), models.Good, now)

	assert.Equal(t, 1, next.Interval, "first success establishes a one-day interval")
	assert.Equal(t, now.AddDate(0, 0, 1), next.DueAt)
}

func TestApply_MinimumOneDayInterval(t *testing.T) {
	p := scheduler.DefaultParams()

	tests := []struct {
		name   string
		rating models.Rating
	}{
		{"hard from zero", models.Hard},
		{"good from zero", models.Good},
		{"easy from zero", models.Easy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := p.Apply(card(0, 1.3), tt.rating, now)
			assert.GreaterOrEqual(t, next.Interval, 1, "non-Again ratings schedule at least a day out")
		})
	}
}

func TestApply_EaseFloor(t *testing.T) {
	p := scheduler.DefaultParams()
	c := card(10, 1.35)

	// Repeated failures must never push ease below the floor.
	for i := 0; i < 10; i++ {
		c = p.Apply(c, models.Again, now)
		assert.GreaterOrEqual(t, c.EaseFactor, models.MinEaseFactor)
	}
	assert.Equal(t, 10, c.Lapses)
}

func TestApply_EaseFormula(t *testing.T) {
	p := scheduler.DefaultParams()

	tests := []struct {
		name     string
		rating   models.Rating
		ease     float64
		expected float64
	}{
		{"again drops by 0.8", models.Again, 2.5, 1.7},
		{"hard drops by 0.14", models.Hard, 2.5, 2.36},
		{"good holds", models.Good, 2.5, 2.5},
		{"easy gains 0.1", models.Easy, 2.5, 2.6},
		{"again clamps at floor", models.Again, 1.4, 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := p.Apply(card(5, tt.ease), tt.rating, now)
			assert.InDelta(t, tt.expected, next.EaseFactor, 1e-9)
		})
	}
}

func TestApply_RoundHalfUp(t *testing.T) {
	p := scheduler.DefaultParams()

	// 3 * 1.5 = 4.5 rounds up to 5.
	next := p.Apply(card(3, 1.5), models.Good, now)
	assert.Equal(t, 5, next.Interval)
}

func TestApply_UsesEaseBeforeAdjustment(t *testing.T) {
	p := scheduler.DefaultParams()

	// Easy: the new interval grows by the pre-review ease (2.5), not the
	// increased one, so 25 * 2.5 * 1.3 = 81 rather than 85.
	next := p.Apply(card(25, 2.5), models.Easy, now)
	assert.Equal(t, 81, next.Interval)
}

func TestApply_HardQualityConfigurable(t *testing.T) {
	p := scheduler.DefaultParams()
	p.HardQuality = 2

	next := p.Apply(card(10, 2.5), models.Hard, now)

	// q=2: 2.5 + 0.1 - 3*(0.08+3*0.02) = 2.18
	assert.InDelta(t, 2.18, next.EaseFactor, 1e-9)
}

func TestApply_PureFunction(t *testing.T) {
	p := scheduler.DefaultParams()
	c := card(10, 2.5)

	first := p.Apply(c, models.Good, now)
	second := p.Apply(c, models.Good, now)

	require.Equal(t, first, second, "deterministic for identical inputs")
	assert.Equal(t, 10, c.Interval, "input card is not mutated")
}

func TestNewReviewEvent(t *testing.T) {
	p := scheduler.DefaultParams()
	before := card(10, 2.5)

	after := p.Apply(before, models.Easy, now)
	ev := scheduler.NewReviewEvent(before, after, models.Easy, now)

	assert.Equal(t, now, ev.Timestamp)
	assert.Equal(t, models.Easy, ev.Rating)
	assert.Equal(t, 10, ev.IntervalBefore)
	assert.Equal(t, after.Interval, ev.IntervalAfter)
	assert.InDelta(t, 2.5, ev.EaseBefore, 1e-9)
	assert.InDelta(t, after.EaseFactor, ev.EaseAfter, 1e-9)
}
