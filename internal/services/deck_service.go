package services

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/store"
)

// DeckService handles deck and card lifecycle operations.
type DeckService interface {
	CreateDeck(ctx context.Context, name, description string) (*models.Deck, error)
	RenameDeck(ctx context.Context, id, name string) error
	DeleteDeck(ctx context.Context, id string) error
	ListDecks(ctx context.Context) ([]store.DeckInfo, error)
	AddCard(ctx context.Context, deckID, front, back string, tags []string) (string, error)
	UpdateCard(ctx context.Context, deckID string, card models.Card) error
	DeleteCard(ctx context.Context, deckID, cardID string) error
}

type deckService struct {
	store    *store.Store
	validate *validator.Validate
}

// NewDeckService creates a new DeckService.
func NewDeckService(s *store.Store) DeckService {
	return &deckService{
		store:    s,
		validate: validator.New(),
	}
}

func (s *deckService) CreateDeck(ctx context.Context, name, description string) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	deck := models.NewDeck(name)
	deck.Description = description
	if err := s.validate.Struct(deck); err != nil {
		return nil, apperr.Validation("deck", err.Error())
	}
	if s.store.NameExists(name) {
		return nil, apperr.Validation("name", "a deck with this name already exists")
	}

	if err := s.store.Save(&deck); err != nil {
		log.Error("failed to save deck %q: %v", name, err)
		return nil, err
	}
	log.Info("created deck: id=%s name=%q", deck.ID, deck.Name)
	return &deck, nil
}

func (s *deckService) RenameDeck(ctx context.Context, id, name string) error {
	deck, err := s.store.Load(id)
	if err != nil {
		return err
	}
	if deck == nil {
		return apperr.NotFound("deck", id)
	}
	if name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	deck.Name = name
	return s.store.Save(deck)
}

func (s *deckService) DeleteDeck(ctx context.Context, id string) error {
	ok, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("deck", id)
	}
	logger.FromContext(ctx).Info("deleted deck: id=%s", id)
	return nil
}

func (s *deckService) ListDecks(ctx context.Context) ([]store.DeckInfo, error) {
	return s.store.List()
}

func (s *deckService) AddCard(ctx context.Context, deckID, front, back string, tags []string) (string, error) {
	deck, err := s.store.Load(deckID)
	if err != nil {
		return "", err
	}
	if deck == nil {
		return "", apperr.NotFound("deck", deckID)
	}

	card := models.NewCard(front, back)
	card.Tags = tags
	if err := s.validate.Struct(card); err != nil {
		return "", apperr.Validation("card", err.Error())
	}

	deck.Cards = append(deck.Cards, card)
	if err := s.store.Save(deck); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Debug("added card: deck=%s card=%s", deckID, card.ID)
	return card.ID, nil
}

func (s *deckService) UpdateCard(ctx context.Context, deckID string, card models.Card) error {
	deck, err := s.store.Load(deckID)
	if err != nil {
		return err
	}
	if deck == nil {
		return apperr.NotFound("deck", deckID)
	}
	if err := s.validate.Struct(card); err != nil {
		return apperr.Validation("card", err.Error())
	}

	// UpdateCard clamps scheduling fields back inside their invariants.
	if !deck.UpdateCard(card) {
		return apperr.NotFound("card", card.ID)
	}
	return s.store.Save(deck)
}

func (s *deckService) DeleteCard(ctx context.Context, deckID, cardID string) error {
	deck, err := s.store.Load(deckID)
	if err != nil {
		return err
	}
	if deck == nil {
		return apperr.NotFound("deck", deckID)
	}
	if !deck.RemoveCard(cardID) {
		return apperr.NotFound("card", cardID)
	}
	return s.store.Save(deck)
}
