package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbaxter/flashdeck/internal/anki"
	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/codec"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/store"
)

// ErrDeckExists reports an import skipped because a deck with the same name
// (or, for backups, the same id) is already stored.
var ErrDeckExists = &apperr.Error{
	Code:    apperr.CodeValidation,
	Message: "deck already exists",
}

// ImportResult summarizes a multi-deck import.
type ImportResult struct {
	Imported []store.DeckInfo
	Skipped  []string
}

// TransferService moves whole deck collections in and out of the store
// through the codecs. Imports merge with a skip-existing policy; exports
// are written atomically by the codecs themselves.
type TransferService interface {
	ImportCSVFile(ctx context.Context, path, deckName string) (*models.Deck, error)
	ImportCSVFolder(ctx context.Context, dir string) (*ImportResult, error)
	ImportAnkiFile(ctx context.Context, path, deckName string) (*ImportResult, error)
	ImportBackupFile(ctx context.Context, path string) (imported, skipped int, err error)
	ExportBackupFile(ctx context.Context, path string) (int, error)
	ExportAnkiFile(ctx context.Context, path string) (int, error)
}

type transferService struct {
	store *store.Store
}

// NewTransferService creates a new TransferService.
func NewTransferService(s *store.Store) TransferService {
	return &transferService{store: s}
}

func (s *transferService) ImportCSVFile(ctx context.Context, path, deckName string) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	if s.store.NameExists(deckName) {
		return nil, ErrDeckExists
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.IO(path, err)
	}
	defer f.Close()

	deck, err := codec.ImportCSV(ctx, f, deckName)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(&deck); err != nil {
		return nil, err
	}
	log.Info("imported csv: path=%s deck=%q cards=%d", path, deckName, len(deck.Cards))
	return &deck, nil
}

func (s *transferService) ImportCSVFolder(ctx context.Context, dir string) (*ImportResult, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.IO(dir, err)
	}

	result := &ImportResult{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		name := filenameToTitle(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))

		deck, err := s.ImportCSVFile(ctx, filepath.Join(dir, e.Name()), name)
		if err == ErrDeckExists {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if err != nil {
			log.Warn("failed to import %s: %v", e.Name(), err)
			continue
		}
		if len(deck.Cards) == 0 {
			// An empty csv makes no deck; drop the file we just wrote.
			_, _ = s.store.Delete(deck.ID)
			continue
		}
		result.Imported = append(result.Imported, store.DeckInfo{
			ID:        deck.ID,
			Name:      deck.Name,
			CardCount: len(deck.Cards),
		})
	}
	return result, nil
}

// ImportAnkiFile detects the Anki interchange flavor from the extension:
// .apkg packages carry scheduling state, text exports are content-only.
func (s *transferService) ImportAnkiFile(ctx context.Context, path, deckName string) (*ImportResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".apkg":
		return s.importPackage(ctx, path)
	case ".txt", ".tsv":
		return s.importAnkiText(ctx, path, deckName)
	default:
		// Sniff: tab or semicolon separated content is a text export.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperr.IO(path, err)
		}
		if strings.ContainsAny(string(data), "\t;") {
			return s.importAnkiText(ctx, path, deckName)
		}
		return nil, apperr.Format(path, nil)
	}
}

func (s *transferService) importPackage(ctx context.Context, path string) (*ImportResult, error) {
	log := logger.FromContext(ctx)

	col, err := anki.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i := range col.Decks {
		deck := &col.Decks[i]
		if s.store.NameExists(deck.Name) {
			result.Skipped = append(result.Skipped, deck.Name)
			continue
		}
		if err := s.store.Save(deck); err != nil {
			return nil, err
		}
		result.Imported = append(result.Imported, store.DeckInfo{
			ID:        deck.ID,
			Name:      deck.Name,
			CardCount: len(deck.Cards),
		})
	}
	log.Info("imported package: path=%s decks=%d skipped=%d", path, len(result.Imported), len(result.Skipped))
	return result, nil
}

func (s *transferService) importAnkiText(ctx context.Context, path, deckName string) (*ImportResult, error) {
	if deckName == "" {
		deckName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.store.NameExists(deckName) {
		return &ImportResult{Skipped: []string{deckName}}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.IO(path, err)
	}
	defer f.Close()

	deck, err := codec.ImportText(ctx, f, deckName)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(&deck); err != nil {
		return nil, err
	}
	return &ImportResult{Imported: []store.DeckInfo{{
		ID:        deck.ID,
		Name:      deck.Name,
		CardCount: len(deck.Cards),
	}}}, nil
}

// ImportBackupFile merges a native backup, skipping decks whose id is
// already stored. Returns counts of imported and skipped decks.
func (s *transferService) ImportBackupFile(ctx context.Context, path string) (int, int, error) {
	col, err := codec.ReadBackupFile(ctx, path)
	if err != nil {
		return 0, 0, err
	}

	existing := make(map[string]bool)
	infos, err := s.store.List()
	if err != nil {
		return 0, 0, err
	}
	for _, info := range infos {
		existing[info.ID] = true
	}

	imported, skipped := 0, 0
	for i := range col.Decks {
		if existing[col.Decks[i].ID] {
			skipped++
			continue
		}
		if err := s.store.Save(&col.Decks[i]); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	logger.FromContext(ctx).Info("imported backup: path=%s imported=%d skipped=%d", path, imported, skipped)
	return imported, skipped, nil
}

// ExportBackupFile writes every stored deck to a native backup file,
// returning the number of decks written.
func (s *transferService) ExportBackupFile(ctx context.Context, path string) (int, error) {
	col, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := codec.WriteBackupFile(ctx, col, path); err != nil {
		return 0, err
	}
	return len(col.Decks), nil
}

// ExportAnkiFile writes every stored deck to an .apkg package, returning
// the number of cards written.
func (s *transferService) ExportAnkiFile(ctx context.Context, path string) (int, error) {
	col, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(col.Decks) == 0 {
		return 0, apperr.NotFound("decks", "no decks to export")
	}
	if err := anki.EncodeFile(ctx, col, path); err != nil {
		return 0, err
	}
	return col.CardCount(), nil
}

// filenameToTitle converts snake_case or kebab-case file stems to a
// Title Case deck name.
func filenameToTitle(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	if len(words) == 0 {
		return "Imported Deck"
	}
	return strings.Join(words, " ")
}
