package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbaxter/flashdeck/internal/models"
)

func TestNewCard_Defaults(t *testing.T) {
	card := models.NewCard("Bonjour", "Hello")

	require.NotEmpty(t, card.ID)
	assert.Equal(t, "Bonjour", card.Front)
	assert.Equal(t, "Hello", card.Back)
	assert.InDelta(t, models.DefaultEaseFactor, card.EaseFactor, 1e-9)
	assert.Equal(t, 0, card.Interval)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 0, card.Lapses)
	assert.True(t, card.IsNew())
	assert.True(t, card.IsDue(time.Now()), "unscheduled cards are always due")
}

func TestCard_IDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		card := models.NewCard("f", "b")
		assert.False(t, seen[card.ID], "duplicate id %s", card.ID)
		seen[card.ID] = true
	}
}

func TestCard_ClampEase(t *testing.T) {
	card := models.NewCard("f", "b")
	card.EaseFactor = 0.9

	assert.InDelta(t, models.MinEaseFactor, card.ClampEase(), 1e-9)

	card.EaseFactor = 2.2
	assert.InDelta(t, 2.2, card.ClampEase(), 1e-9, "values above the floor pass through")
}

func TestCard_AppendReview(t *testing.T) {
	card := models.NewCard("f", "b")
	ts := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	card.AppendReview(models.ReviewEvent{Timestamp: ts, Rating: models.Good})
	card.AppendReview(models.ReviewEvent{Timestamp: ts.Add(time.Hour), Rating: models.Easy})

	require.Len(t, card.ReviewHistory, 2)
	assert.Equal(t, models.Good, card.ReviewHistory[0].Rating, "history keeps insertion order")
	assert.Equal(t, ts.Add(time.Hour), card.LastReviewed)
}

func TestCard_ResetProgress(t *testing.T) {
	card := models.NewCard("f", "b")
	card.Interval = 30
	card.Repetitions = 5
	card.Lapses = 2
	card.EaseFactor = 1.9
	card.AppendReview(models.ReviewEvent{Timestamp: time.Now(), Rating: models.Good})

	card.ResetProgress()

	assert.Equal(t, 0, card.Interval)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 0, card.Lapses)
	assert.InDelta(t, models.DefaultEaseFactor, card.EaseFactor, 1e-9)
	assert.Empty(t, card.ReviewHistory)
	assert.Equal(t, "f", card.Front, "content survives a reset")
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want models.Rating
		ok   bool
	}{
		{"again", models.Again, true},
		{"Hard", models.Hard, true},
		{"GOOD", models.Good, true},
		{" easy ", models.Easy, true},
		{"meh", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := models.ParseRating(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDeck_CardOperations(t *testing.T) {
	deck := models.NewDeck("French")

	id := deck.AddCard("Bonjour", "Hello")
	require.NotEmpty(t, id)
	require.Len(t, deck.Cards, 1)

	card := deck.Card(id)
	require.NotNil(t, card)
	assert.Equal(t, "Bonjour", card.Front)

	updated := *card
	updated.Back = "Hello there"
	require.True(t, deck.UpdateCard(updated))
	assert.Equal(t, "Hello there", deck.Card(id).Back)

	require.True(t, deck.RemoveCard(id))
	assert.Nil(t, deck.Card(id))
	assert.False(t, deck.RemoveCard(id), "double delete reports absence")
}

func TestDeck_UpdateCardClampsInvariants(t *testing.T) {
	deck := models.NewDeck("French")
	id := deck.AddCard("f", "b")

	bad := *deck.Card(id)
	bad.EaseFactor = 0.5
	bad.Interval = -3

	require.True(t, deck.UpdateCard(bad))
	got := deck.Card(id)
	assert.InDelta(t, models.MinEaseFactor, got.EaseFactor, 1e-9, "ease clamps, never errors")
	assert.Equal(t, 0, got.Interval)
}

func TestDeck_Stats(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	deck := models.NewDeck("Mixed")

	// New card.
	deck.AddCard("new", "card")

	// Learning card, due.
	learning := models.NewCard("learning", "card")
	learning.Repetitions = 2
	learning.Interval = 5
	learning.DueAt = now.AddDate(0, 0, -1)
	deck.Cards = append(deck.Cards, learning)

	// Mature card, not due.
	mature := models.NewCard("mature", "card")
	mature.Repetitions = 9
	mature.Interval = 40
	mature.DueAt = now.AddDate(0, 0, 20)
	deck.Cards = append(deck.Cards, mature)

	stats := deck.Stats(now)
	assert.Equal(t, 3, stats.TotalCards)
	assert.Equal(t, 1, stats.NewCards)
	assert.Equal(t, 1, stats.DueCards)
	assert.Equal(t, 1, stats.LearningCards)
	assert.Equal(t, 1, stats.MatureCards)
}

func TestCollection_Lookups(t *testing.T) {
	french := models.NewDeck("French")
	french.AddCard("Bonjour", "Hello")
	spanish := models.NewDeck("Spanish")

	col := models.NewCollection([]models.Deck{french, spanish})

	assert.Equal(t, models.BackupVersion, col.Version)
	assert.Equal(t, 1, col.CardCount())
	require.NotNil(t, col.DeckByName("Spanish"))
	assert.Nil(t, col.DeckByName("German"))
	require.NotNil(t, col.Deck(french.ID))
}
