package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/scheduler"
	"github.com/mbaxter/flashdeck/internal/services"
	"github.com/mbaxter/flashdeck/internal/store"
	"github.com/mbaxter/flashdeck/internal/testutil"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func seedDeck(t *testing.T, s *store.Store) (string, string) {
	t.Helper()
	deck := models.NewDeck("French")
	cardID := deck.AddCard("Bonjour", "Hello")
	require.NoError(t, s.Save(&deck))
	return deck.ID, cardID
}

func TestReviewCard_AppliesSchedulerAndAppendsHistory(t *testing.T) {
	s := testutil.NewTestStore(t)
	deckID, cardID := seedDeck(t, s)
	svc := services.NewReviewService(s, scheduler.DefaultParams(), services.DefaultSessionLimits())
	ctx := context.Background()

	card, err := svc.ReviewCard(ctx, deckID, cardID, models.Good, now)
	require.NoError(t, err)

	assert.Equal(t, 1, card.Interval)
	assert.Equal(t, 1, card.Repetitions)
	require.Len(t, card.ReviewHistory, 1)
	ev := card.ReviewHistory[0]
	assert.Equal(t, models.Good, ev.Rating)
	assert.Equal(t, 0, ev.IntervalBefore)
	assert.Equal(t, 1, ev.IntervalAfter)

	// The review persisted, including deck-level bookkeeping.
	deck, err := s.Load(deckID)
	require.NoError(t, err)
	assert.Equal(t, 1, deck.Card(cardID).Interval)
	assert.Equal(t, now, deck.LastStudied.UTC())
}

func TestReviewCard_AgainIncrementsLapses(t *testing.T) {
	s := testutil.NewTestStore(t)
	deckID, cardID := seedDeck(t, s)
	svc := services.NewReviewService(s, scheduler.DefaultParams(), services.DefaultSessionLimits())
	ctx := context.Background()

	_, err := svc.ReviewCard(ctx, deckID, cardID, models.Good, now)
	require.NoError(t, err)
	card, err := svc.ReviewCard(ctx, deckID, cardID, models.Again, now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 1, card.Lapses)
	require.Len(t, card.ReviewHistory, 2, "history is append-only")
	assert.Equal(t, models.Good, card.ReviewHistory[0].Rating)
}

func TestReviewCard_InvalidRating(t *testing.T) {
	s := testutil.NewTestStore(t)
	deckID, cardID := seedDeck(t, s)
	svc := services.NewReviewService(s, scheduler.DefaultParams(), services.DefaultSessionLimits())

	_, err := svc.ReviewCard(context.Background(), deckID, cardID, models.Rating(9), now)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestReviewCard_MissingCard(t *testing.T) {
	s := testutil.NewTestStore(t)
	deckID, _ := seedDeck(t, s)
	svc := services.NewReviewService(s, scheduler.DefaultParams(), services.DefaultSessionLimits())

	_, err := svc.ReviewCard(context.Background(), deckID, "missing1", models.Good, now)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestNextDue(t *testing.T) {
	s := testutil.NewTestStore(t)
	deckID, cardID := seedDeck(t, s)
	svc := services.NewReviewService(s, scheduler.DefaultParams(), services.DefaultSessionLimits())
	ctx := context.Background()

	card, err := svc.NextDue(ctx, deckID, now)
	require.NoError(t, err)
	require.NotNil(t, card, "new cards are due immediately")
	assert.Equal(t, cardID, card.ID)

	// After an Easy review the card is scheduled out and nothing is due.
	_, err = svc.ReviewCard(ctx, deckID, cardID, models.Easy, now)
	require.NoError(t, err)

	card, err = svc.NextDue(ctx, deckID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestSessionQueue_RespectsLimits(t *testing.T) {
	s := testutil.NewTestStore(t)
	deck := models.NewDeck("Big")
	for i := 0; i < 10; i++ {
		deck.AddCard("front", "back")
	}
	overdue := models.NewCard("overdue", "card")
	overdue.Repetitions = 1
	overdue.Interval = 1
	overdue.DueAt = now.AddDate(0, 0, -2)
	deck.Cards = append(deck.Cards, overdue)
	require.NoError(t, s.Save(&deck))

	limits := services.SessionLimits{NewCards: 3, Reviews: 5}
	svc := services.NewReviewService(s, scheduler.DefaultParams(), limits)

	queue, err := svc.SessionQueue(context.Background(), deck.ID, now)
	require.NoError(t, err)
	require.Len(t, queue, 4, "one due review plus three capped new cards")
	assert.Equal(t, "overdue", queue[0].Front, "due reviews come before new cards")
}

func TestDeckStats(t *testing.T) {
	s := testutil.NewTestStore(t)
	deckID, cardID := seedDeck(t, s)
	svc := services.NewReviewService(s, scheduler.DefaultParams(), services.DefaultSessionLimits())
	ctx := context.Background()

	stats, err := svc.DeckStats(ctx, deckID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCards)
	assert.Equal(t, 1, stats.NewCards)

	_, err = svc.ReviewCard(ctx, deckID, cardID, models.Good, now)
	require.NoError(t, err)

	stats, err = svc.DeckStats(ctx, deckID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NewCards)
	assert.Equal(t, 1, stats.LearningCards)
}
