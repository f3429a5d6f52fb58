// Package store persists decks on disk as one JSON file per deck. It is the
// single owner of the collection between sessions; callers exchange whole
// decks and collections with it, never raw file handles.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
)

//go:embed bundled/*.json
var bundledFS embed.FS

// DeckInfo is a summary row for deck listings.
type DeckInfo struct {
	ID          string
	Name        string
	Description string
	CardCount   int
}

// Store reads and writes decks under a single directory.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates a store over dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.IO(dir, err)
	}
	log := logger.Default().WithPrefix("store")
	log.Debug("store ready: dir=%s", dir)
	return &Store{dir: dir, log: log}, nil
}

// Open creates a store and installs the bundled starter deck on first run.
func Open(dir string) (*Store, error) {
	s, err := New(dir)
	if err != nil {
		return nil, err
	}
	s.installBundled()
	return s, nil
}

// installBundled seeds the deck directory for first-time users. If any deck
// file already exists the user has used the app before and nothing happens.
func (s *Store) installBundled() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			return
		}
	}

	bundled, err := bundledFS.ReadDir("bundled")
	if err != nil {
		return
	}
	for _, e := range bundled {
		data, err := bundledFS.ReadFile("bundled/" + e.Name())
		if err != nil {
			continue
		}
		var deck models.Deck
		if err := json.Unmarshal(data, &deck); err != nil {
			continue
		}
		for i := range deck.Cards {
			deck.Cards[i].ResetProgress()
		}
		if err := s.Save(&deck); err != nil {
			s.log.Warn("failed to install bundled deck %q: %v", deck.Name, err)
		}
	}
}

func (s *Store) deckPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes a deck to disk atomically: the JSON is staged in a temp file
// and renamed over the destination.
func (s *Store) Save(deck *models.Deck) error {
	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return apperr.IO(deck.ID, err)
	}

	path := s.deckPath(deck.ID)
	tmp, err := os.CreateTemp(s.dir, ".deck-*")
	if err != nil {
		return apperr.IO(path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperr.IO(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apperr.IO(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return apperr.IO(path, err)
	}
	s.log.Debug("saved deck: id=%s cards=%d", deck.ID, len(deck.Cards))
	return nil
}

// Load reads the deck with the given id, or nil if it does not exist.
func (s *Store) Load(id string) (*models.Deck, error) {
	data, err := os.ReadFile(s.deckPath(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.IO(s.deckPath(id), err)
	}

	var deck models.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, apperr.CorruptData(s.deckPath(id), 0, err.Error())
	}
	return &deck, nil
}

// Delete removes a deck file, reporting whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	err := os.Remove(s.deckPath(id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, apperr.IO(s.deckPath(id), err)
	}
	s.log.Debug("deleted deck: id=%s", id)
	return true, nil
}

// List returns summaries of all stored decks, sorted by name. Unreadable
// files are skipped rather than failing the whole listing.
func (s *Store) List() ([]DeckInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperr.IO(s.dir, err)
	}

	var infos []DeckInfo
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var deck models.Deck
		if err := json.Unmarshal(data, &deck); err != nil {
			s.log.Warn("skipping unreadable deck file: %s", e.Name())
			continue
		}
		infos = append(infos, DeckInfo{
			ID:          deck.ID,
			Name:        deck.Name,
			Description: deck.Description,
			CardCount:   len(deck.Cards),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// NameExists reports whether any stored deck has the given name,
// case-insensitively.
func (s *Store) NameExists(name string) bool {
	infos, err := s.List()
	if err != nil {
		return false
	}
	for _, info := range infos {
		if strings.EqualFold(info.Name, name) {
			return true
		}
	}
	return false
}

// LoadAll reads every stored deck into a collection.
func (s *Store) LoadAll(ctx context.Context) (*models.Collection, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}

	var decks []models.Deck
	for _, info := range infos {
		deck, err := s.Load(info.ID)
		if err != nil {
			return nil, err
		}
		if deck != nil {
			decks = append(decks, *deck)
		}
	}
	col := models.NewCollection(decks)
	logger.FromContext(ctx).WithPrefix("store").Debug("loaded collection: decks=%d cards=%d", len(col.Decks), col.CardCount())
	return &col, nil
}
