package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinEaseFactor is the floor for a card's ease factor. Updates that would
// go below it are clamped, never rejected.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor assigned to cards that have never
// been reviewed.
const DefaultEaseFactor = 2.5

// Rating is the user's answer to "how well did you remember this card?".
type Rating int

const (
	Again Rating = iota // complete blackout
	Hard                // serious difficulty
	Good                // some hesitation
	Easy                // perfect recall
)

func (r Rating) String() string {
	switch r {
	case Again:
		return "Again"
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Easy:
		return "Easy"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of the four defined ratings.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

// ParseRating parses a rating name, case-insensitively.
func ParseRating(s string) (Rating, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again":
		return Again, true
	case "hard":
		return Hard, true
	case "good":
		return Good, true
	case "easy":
		return Easy, true
	}
	return 0, false
}

// ReviewEvent is one entry in a card's append-only review history.
// Events are immutable once recorded.
type ReviewEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	Rating         Rating    `json:"rating"`
	IntervalBefore int       `json:"interval_before"`
	IntervalAfter  int       `json:"interval_after"`
	EaseBefore     float64   `json:"ease_before"`
	EaseAfter      float64   `json:"ease_after"`
}

// Card is a single flashcard with its SM-2 scheduling state.
type Card struct {
	ID    string   `json:"id"`
	Front string   `json:"front" validate:"required"`
	Back  string   `json:"back" validate:"required"`
	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`

	EaseFactor  float64 `json:"ease_factor"`
	Interval    int     `json:"interval"`
	Repetitions int     `json:"repetitions"`
	Lapses      int     `json:"lapses"`

	DueAt         time.Time     `json:"due_at"`
	LastReviewed  time.Time     `json:"last_reviewed,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ReviewHistory []ReviewEvent `json:"review_history,omitempty"`
}

// NewCard creates a card in the default (never reviewed) scheduling state.
func NewCard(front, back string) Card {
	return Card{
		ID:         newID(),
		Front:      front,
		Back:       back,
		EaseFactor: DefaultEaseFactor,
		CreatedAt:  time.Now(),
	}
}

// newID returns a short random identifier. The original ids are the first
// eight hex digits of a UUID; collisions within a personal collection are
// not a practical concern.
func newID() string {
	return uuid.NewString()[:8]
}

// IsNew reports whether the card has never been successfully reviewed.
func (c *Card) IsNew() bool {
	return c.Repetitions == 0
}

// IsDue reports whether the card should be shown at time now.
// A card with a zero due date has never been scheduled and is always due.
func (c *Card) IsDue(now time.Time) bool {
	return c.DueAt.IsZero() || !now.Before(c.DueAt)
}

// ClampEase enforces the ease-factor floor in place and returns the
// resulting value.
func (c *Card) ClampEase() float64 {
	if c.EaseFactor < MinEaseFactor {
		c.EaseFactor = MinEaseFactor
	}
	return c.EaseFactor
}

// AppendReview records a review event. History is append-only: events are
// never reordered or truncated by any operation other than deleting the
// card itself.
func (c *Card) AppendReview(ev ReviewEvent) {
	c.ReviewHistory = append(c.ReviewHistory, ev)
	c.LastReviewed = ev.Timestamp
}

// HasTag reports whether the card carries the given tag. Tag order is not
// significant.
func (c *Card) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ResetProgress returns the card to a fresh scheduling state, keeping
// content and tags. Used when installing bundled decks.
func (c *Card) ResetProgress() {
	c.EaseFactor = DefaultEaseFactor
	c.Interval = 0
	c.Repetitions = 0
	c.Lapses = 0
	c.DueAt = time.Time{}
	c.LastReviewed = time.Time{}
	c.ReviewHistory = nil
}
