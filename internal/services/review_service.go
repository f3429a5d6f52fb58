package services

import (
	"context"
	"time"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/scheduler"
	"github.com/mbaxter/flashdeck/internal/store"
)

// SessionLimits caps how much a single study session queues up.
type SessionLimits struct {
	NewCards int // new cards introduced per session
	Reviews  int // due reviews per session
}

// DefaultSessionLimits returns the standard session caps.
func DefaultSessionLimits() SessionLimits {
	return SessionLimits{NewCards: 20, Reviews: 200}
}

// ReviewService drives study sessions: picking due cards and applying
// ratings through the scheduler.
type ReviewService interface {
	NextDue(ctx context.Context, deckID string, now time.Time) (*models.Card, error)
	SessionQueue(ctx context.Context, deckID string, now time.Time) ([]models.Card, error)
	ReviewCard(ctx context.Context, deckID, cardID string, rating models.Rating, now time.Time) (*models.Card, error)
	DeckStats(ctx context.Context, deckID string, now time.Time) (*models.DeckStats, error)
}

type reviewService struct {
	store  *store.Store
	params scheduler.Params
	limits SessionLimits
}

// NewReviewService creates a new ReviewService.
func NewReviewService(s *store.Store, params scheduler.Params, limits SessionLimits) ReviewService {
	return &reviewService{store: s, params: params, limits: limits}
}

func (s *reviewService) NextDue(ctx context.Context, deckID string, now time.Time) (*models.Card, error) {
	deck, err := s.store.Load(deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apperr.NotFound("deck", deckID)
	}

	due := deck.DueCards(now)
	if len(due) == 0 {
		logger.FromContext(ctx).Debug("no cards due: deck=%s", deckID)
		return nil, nil
	}
	card := deck.Card(due[0])
	copied := *card
	return &copied, nil
}

// SessionQueue returns the cards for one study session: due reviews first,
// then new cards, each capped by the session limits.
func (s *reviewService) SessionQueue(ctx context.Context, deckID string, now time.Time) ([]models.Card, error) {
	deck, err := s.store.Load(deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apperr.NotFound("deck", deckID)
	}

	var reviews, fresh []models.Card
	for i := range deck.Cards {
		c := &deck.Cards[i]
		switch {
		case c.IsNew():
			if len(fresh) < s.limits.NewCards {
				fresh = append(fresh, *c)
			}
		case c.IsDue(now):
			if len(reviews) < s.limits.Reviews {
				reviews = append(reviews, *c)
			}
		}
	}

	queue := append(reviews, fresh...)
	logger.FromContext(ctx).Debug("session queue: deck=%s reviews=%d new=%d", deckID, len(reviews), len(fresh))
	return queue, nil
}

func (s *reviewService) ReviewCard(ctx context.Context, deckID, cardID string, rating models.Rating, now time.Time) (*models.Card, error) {
	log := logger.FromContext(ctx)

	if !rating.Valid() {
		return nil, apperr.Validation("rating", "must be one of Again, Hard, Good, Easy")
	}

	deck, err := s.store.Load(deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apperr.NotFound("deck", deckID)
	}
	card := deck.Card(cardID)
	if card == nil {
		return nil, apperr.NotFound("card", cardID)
	}

	before := *card
	next := s.params.Apply(before, rating, now)
	next.AppendReview(scheduler.NewReviewEvent(before, next, rating, now))

	if !deck.UpdateCard(next) {
		return nil, apperr.NotFound("card", cardID)
	}
	deck.LastStudied = now

	if err := s.store.Save(deck); err != nil {
		log.Error("failed to persist review: deck=%s card=%s: %v", deckID, cardID, err)
		return nil, err
	}
	log.Debug("reviewed card: card=%s rating=%s interval=%d ease=%.3f",
		cardID, rating, next.Interval, next.EaseFactor)
	return &next, nil
}

func (s *reviewService) DeckStats(ctx context.Context, deckID string, now time.Time) (*models.DeckStats, error) {
	deck, err := s.store.Load(deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, apperr.NotFound("deck", deckID)
	}
	stats := deck.Stats(now)
	return &stats, nil
}
