package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/store"
)

// NewTestStore creates an empty store over a temp directory. The bundled
// starter deck is not installed so tests start from a clean slate.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	return s
}

// SampleCollection builds a two-deck collection with a mix of new and
// reviewed cards, including review history, for codec round-trip tests.
// All timestamps are fixed UTC instants so equality assertions are not
// tripped up by monotonic clock readings.
func SampleCollection() models.Collection {
	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

	reviewed := models.NewCard("Bonjour", "Hello")
	reviewed.ID = "card0001"
	reviewed.CreatedAt = created
	reviewed.Tags = []string{"french", "greetings"}
	reviewed.EaseFactor = 2.35
	reviewed.Interval = 12
	reviewed.Repetitions = 4
	reviewed.Lapses = 1
	reviewed.DueAt = time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)
	reviewed.AppendReview(models.ReviewEvent{
		Timestamp:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Rating:         models.Good,
		IntervalBefore: 0,
		IntervalAfter:  1,
		EaseBefore:     2.5,
		EaseAfter:      2.5,
	})
	reviewed.AppendReview(models.ReviewEvent{
		Timestamp:      time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		Rating:         models.Hard,
		IntervalBefore: 1,
		IntervalAfter:  1,
		EaseBefore:     2.5,
		EaseAfter:      2.35,
	})

	fresh := models.NewCard("Merci", "Thank you")
	fresh.ID = "card0002"
	fresh.CreatedAt = created

	french := models.NewDeck("French")
	french.ID = "deck0001"
	french.Description = "Basic French vocabulary"
	french.CreatedAt = created
	french.Cards = []models.Card{reviewed, fresh}

	capitals := models.NewDeck("Capitals")
	capitals.ID = "deck0002"
	capitals.CreatedAt = created
	geo := models.NewCard("France", "Paris")
	geo.ID = "card0003"
	geo.CreatedAt = created
	capitals.Cards = []models.Card{geo}

	col := models.NewCollection([]models.Deck{french, capitals})
	col.CreatedAt = created
	return col
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	t.Helper()
	require.NoError(t, closer.Close())
}
