// Package anki reads and writes Anki .apkg package archives: zip containers
// embedding a SQLite snapshot of notes, cards, decks, and per-card
// scheduling state. Decoding projects the snapshot into canonical decks;
// encoding synthesizes a snapshot that Anki itself can reopen.
package anki

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
)

// Decode reads an .apkg archive into a canonical collection. It either
// yields a fully valid collection or an error; it never partially
// populates the result.
func Decode(ctx context.Context, data []byte) (*models.Collection, error) {
	return decode(ctx, data, "apkg archive")
}

// DecodeFile reads an .apkg file from disk.
func DecodeFile(ctx context.Context, path string) (*models.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.IO(path, err)
	}
	return decode(ctx, data, path)
}

func decode(ctx context.Context, data []byte, source string) (*models.Collection, error) {
	log := logger.FromContext(ctx).WithPrefix("anki")
	log.Debug("decoding package: source=%s size=%d", source, len(data))

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.Format(source, err)
	}

	dbPath, err := extractSnapshot(zr, source)
	if err != nil {
		return nil, err
	}
	defer os.Remove(dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, apperr.Format(source, err)
	}
	defer db.Close()

	snap, err := readSnapshot(ctx, db, source)
	if err != nil {
		return nil, err
	}

	col, err := project(snap, source, time.Now())
	if err != nil {
		return nil, err
	}
	log.Info("decoded package: decks=%d cards=%d", len(col.Decks), col.CardCount())
	return col, nil
}

// extractSnapshot locates the embedded SQLite snapshot and copies it to a
// temp file the sqlite driver can open. The caller removes the file.
func extractSnapshot(zr *zip.Reader, source string) (string, error) {
	// Prefer the 2.1 scheduler snapshot when both are present.
	var snapFile *zip.File
	for _, name := range []string{snapshotName21, snapshotName} {
		for _, f := range zr.File {
			if f.Name == name {
				snapFile = f
				break
			}
		}
		if snapFile != nil {
			break
		}
	}
	if snapFile == nil {
		return "", apperr.Format(source, nil)
	}

	rc, err := snapFile.Open()
	if err != nil {
		return "", apperr.Format(source, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "flashdeck-anki-*.db")
	if err != nil {
		return "", apperr.IO(source, err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", apperr.Format(source, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", apperr.IO(source, err)
	}
	return tmp.Name(), nil
}

// project turns the flat snapshot tables into canonical decks. Foreign
// records with unsupported queue or type values import with best-effort
// defaults rather than being dropped.
func project(snap *snapshot, source string, now time.Time) (*models.Collection, error) {
	cardsByDeck := make(map[int64][]models.Card)
	usedIDs := make(map[string]bool)

	for i, cr := range snap.cards {
		note, ok := snap.notes[cr.NoteID]
		if !ok {
			return nil, apperr.CorruptData(source, i, "card references a missing note")
		}

		front, back := "", ""
		if len(note.Fields) > 0 {
			front = stripHTML(note.Fields[0])
		}
		if len(note.Fields) > 1 {
			back = stripHTML(note.Fields[1])
		}
		if front == "" && back == "" {
			continue
		}

		card := models.NewCard(front, back)
		if note.GUID != "" && !usedIDs[note.GUID] {
			card.ID = note.GUID
		}
		usedIDs[card.ID] = true

		if tags := strings.Fields(note.Tags); len(tags) > 0 {
			card.Tags = tags
		}
		card.Notes = note.Data

		// Negative intervals are seconds (sub-day learning steps); the
		// canonical model treats those as due within the current day.
		if cr.Ivl > 0 {
			card.Interval = cr.Ivl
		}
		if cr.Factor > 0 {
			card.EaseFactor = float64(cr.Factor) / easeScale
		}
		if cr.Reps > 0 {
			card.Repetitions = cr.Reps
		}
		if cr.Lapses > 0 {
			card.Lapses = cr.Lapses
		}
		// Review-queue due is days since col.crt, learning due is an epoch
		// timestamp. Anything else falls back to the interval.
		switch {
		case cr.Queue == 2 && cr.Due >= 0 && snap.crt > 0:
			card.DueAt = time.Unix(snap.crt, 0).AddDate(0, 0, int(cr.Due))
		case cr.Queue == 1 && cr.Due > 0:
			card.DueAt = time.Unix(cr.Due, 0)
		case card.Interval > 0:
			card.DueAt = now.AddDate(0, 0, card.Interval)
		}

		attachHistory(&card, snap.revlog[cr.ID])

		cardsByDeck[cr.DeckID] = append(cardsByDeck[cr.DeckID], card)
	}

	var decks []models.Deck
	for _, did := range snap.deckOrder() {
		rec := snap.decks[did]
		cards := cardsByDeck[did]
		delete(cardsByDeck, did)
		// Anki's built-in Default deck is omitted when empty.
		if len(cards) == 0 && did == 1 {
			continue
		}
		deck := models.NewDeck(rec.Name)
		if rec.CanonicalID != "" {
			deck.ID = rec.CanonicalID
		}
		deck.Description = rec.Desc
		deck.Cards = cards
		decks = append(decks, deck)
	}

	// Cards whose deck record is absent from col.decks still import.
	for did, cards := range cardsByDeck {
		deck := models.NewDeck(importedDeckName(did))
		deck.Cards = cards
		decks = append(decks, deck)
	}

	col := models.NewCollection(decks)
	return &col, nil
}

// attachHistory reconstructs the review history from revlog rows. The
// foreign log stores the resulting ease only, so each event's prior ease is
// taken from the previous event.
func attachHistory(card *models.Card, log []revlogRec) {
	easeBefore := models.DefaultEaseFactor
	for _, r := range log {
		ev := models.ReviewEvent{
			Timestamp:  time.UnixMilli(r.ID),
			Rating:     ratingFromEase(r.Ease),
			EaseBefore: easeBefore,
			EaseAfter:  models.DefaultEaseFactor,
		}
		if r.Factor > 0 {
			ev.EaseAfter = float64(r.Factor) / easeScale
		}
		if r.Ivl > 0 {
			ev.IntervalAfter = r.Ivl
		}
		if r.LastIvl > 0 {
			ev.IntervalBefore = r.LastIvl
		}
		card.AppendReview(ev)
		easeBefore = ev.EaseAfter
	}
}

// ratingFromEase maps Anki's 1-4 answer ease onto the canonical ratings.
func ratingFromEase(ease int) models.Rating {
	switch ease {
	case 1:
		return models.Again
	case 2:
		return models.Hard
	case 4:
		return models.Easy
	default:
		return models.Good
	}
}

func importedDeckName(did int64) string {
	return "Imported Deck " + strconv.FormatInt(did, 10)
}
