package models

import "time"

// BackupVersion is the current native backup format version.
const BackupVersion = 1

// Collection is the top-level interchange unit: every deck fully expanded
// with cards and review histories. It is what codecs produce and consume
// and what the store loads and saves.
type Collection struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Decks     []Deck    `json:"decks"`
}

// NewCollection wraps decks in a current-version collection stamped now.
func NewCollection(decks []Deck) Collection {
	return Collection{
		Version:   BackupVersion,
		CreatedAt: time.Now(),
		Decks:     decks,
	}
}

// Deck returns a pointer to the deck with the given id, or nil.
func (c *Collection) Deck(id string) *Deck {
	for i := range c.Decks {
		if c.Decks[i].ID == id {
			return &c.Decks[i]
		}
	}
	return nil
}

// DeckByName returns a pointer to the first deck with the given name,
// or nil. Name lookups scan; the model keeps no indexes.
func (c *Collection) DeckByName(name string) *Deck {
	for i := range c.Decks {
		if c.Decks[i].Name == name {
			return &c.Decks[i]
		}
	}
	return nil
}

// CardCount returns the total number of cards across all decks.
func (c *Collection) CardCount() int {
	n := 0
	for i := range c.Decks {
		n += len(c.Decks[i].Cards)
	}
	return n
}
