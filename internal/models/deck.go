package models

import "time"

// MatureIntervalDays is the interval at which a card counts as mature
// rather than learning.
const MatureIntervalDays = 21

// Deck is a named collection of cards. A card belongs to exactly one deck;
// moving a card between decks is a delete followed by a recreate.
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Cards       []Card    `json:"cards"`
	CreatedAt   time.Time `json:"created_at"`
	LastStudied time.Time `json:"last_studied,omitempty"`
}

// DeckStats summarizes the scheduling state of a deck's cards.
type DeckStats struct {
	TotalCards    int `json:"total_cards"`
	NewCards      int `json:"new_cards"`
	DueCards      int `json:"due_cards"`
	LearningCards int `json:"learning_cards"`
	MatureCards   int `json:"mature_cards"`
}

// NewDeck creates an empty deck.
func NewDeck(name string) Deck {
	return Deck{
		ID:        newID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// AddCard creates a card from front/back text and appends it to the deck,
// returning its id.
func (d *Deck) AddCard(front, back string) string {
	card := NewCard(front, back)
	d.Cards = append(d.Cards, card)
	return card.ID
}

// Card returns a pointer to the card with the given id, or nil.
func (d *Deck) Card(id string) *Card {
	for i := range d.Cards {
		if d.Cards[i].ID == id {
			return &d.Cards[i]
		}
	}
	return nil
}

// UpdateCard replaces the card with the same id. Scheduling invariants are
// enforced by clamping rather than erroring. Returns false if no card with
// that id exists.
func (d *Deck) UpdateCard(card Card) bool {
	for i := range d.Cards {
		if d.Cards[i].ID == card.ID {
			card.ClampEase()
			if card.Interval < 0 {
				card.Interval = 0
			}
			d.Cards[i] = card
			return true
		}
	}
	return false
}

// RemoveCard deletes the card with the given id, returning false if absent.
func (d *Deck) RemoveCard(id string) bool {
	for i := range d.Cards {
		if d.Cards[i].ID == id {
			d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// DueCards returns the ids of cards due at time now, in deck order.
func (d *Deck) DueCards(now time.Time) []string {
	var ids []string
	for i := range d.Cards {
		if d.Cards[i].IsDue(now) {
			ids = append(ids, d.Cards[i].ID)
		}
	}
	return ids
}

// NewCards returns the ids of cards that have never been reviewed.
func (d *Deck) NewCards() []string {
	var ids []string
	for i := range d.Cards {
		if d.Cards[i].IsNew() {
			ids = append(ids, d.Cards[i].ID)
		}
	}
	return ids
}

// Stats computes deck statistics at time now.
func (d *Deck) Stats(now time.Time) DeckStats {
	stats := DeckStats{TotalCards: len(d.Cards)}
	for i := range d.Cards {
		c := &d.Cards[i]
		if c.IsNew() {
			stats.NewCards++
		} else if c.IsDue(now) {
			stats.DueCards++
		}
		if c.IsNew() {
			continue
		}
		if c.Interval < MatureIntervalDays {
			stats.LearningCards++
		} else {
			stats.MatureCards++
		}
	}
	return stats
}
