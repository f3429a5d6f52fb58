package anki

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
)

// Encode writes the collection as an .apkg archive. Canonical scheduling
// fields convert to foreign units: ease factor permille, interval in days,
// review history as revlog rows.
func Encode(ctx context.Context, col *models.Collection) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("anki")
	log.Debug("encoding package: decks=%d cards=%d", len(col.Decks), col.CardCount())

	dbPath, err := buildSnapshot(ctx, col)
	if err != nil {
		return nil, err
	}
	defer os.Remove(dbPath)

	dbBytes, err := os.ReadFile(dbPath)
	if err != nil {
		return nil, apperr.IO(dbPath, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(snapshotName)
	if err != nil {
		return nil, apperr.IO(snapshotName, err)
	}
	if _, err := w.Write(dbBytes); err != nil {
		return nil, apperr.IO(snapshotName, err)
	}

	// Empty media manifest: text-only cards, no attachments synthesized.
	w, err = zw.Create(mediaName)
	if err != nil {
		return nil, apperr.IO(mediaName, err)
	}
	if _, err := w.Write([]byte("{}")); err != nil {
		return nil, apperr.IO(mediaName, err)
	}

	if err := zw.Close(); err != nil {
		return nil, apperr.IO("apkg archive", err)
	}
	log.Info("encoded package: bytes=%d", buf.Len())
	return buf.Bytes(), nil
}

// EncodeFile writes the collection to an .apkg file. The archive is staged
// in a temp file and renamed into place so a failed encode never clobbers
// an existing file.
func EncodeFile(ctx context.Context, col *models.Collection, path string) error {
	data, err := Encode(ctx, col)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".apkg-*")
	if err != nil {
		return apperr.IO(path, err)
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
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
	return nil
}

// buildSnapshot synthesizes the relational snapshot in a temp SQLite file
// and returns its path. The caller removes the file.
func buildSnapshot(ctx context.Context, col *models.Collection) (string, error) {
	tmp, err := os.CreateTemp("", "flashdeck-anki-export-*.db")
	if err != nil {
		return "", apperr.IO("snapshot", err)
	}
	tmp.Close()
	dbPath := tmp.Name()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		os.Remove(dbPath)
		return "", apperr.IO(dbPath, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		os.Remove(dbPath)
		return "", apperr.IO(dbPath, err)
	}

	if err := writeSnapshot(ctx, db, col); err != nil {
		os.Remove(dbPath)
		return "", err
	}
	return dbPath, nil
}

func writeSnapshot(ctx context.Context, db *sql.DB, col *models.Collection) error {
	now := time.Now().Unix()
	nowMillis := now * 1000
	crt := time.Unix(now, 0)

	decksJSON := map[string]any{
		"1": deckJSON(1, "Default", "", "", now),
	}
	for i, deck := range col.Decks {
		id := exportDeckID(i)
		decksJSON[fmt.Sprintf("%d", id)] = deckJSON(id, deck.Name, deck.Description, deck.ID, now)
	}

	modelsJSON := map[string]any{
		fmt.Sprintf("%d", basicModelID): basicModelJSON(now),
	}

	decksBlob, err := json.Marshal(decksJSON)
	if err != nil {
		return apperr.IO("snapshot", err)
	}
	modelsBlob, err := json.Marshal(modelsJSON)
	if err != nil {
		return apperr.IO("snapshot", err)
	}
	dconfBlob, err := json.Marshal(defaultDconfJSON())
	if err != nil {
		return apperr.IO("snapshot", err)
	}

	_, err = sq.Insert("col").
		Columns("id", "crt", "mod", "scm", "ver", "dty", "usn", "ls", "conf", "models", "decks", "dconf", "tags").
		Values(1, now, now, nowMillis, schemaVersion, 0, -1, 0, "{}", string(modelsBlob), string(decksBlob), string(dconfBlob), "{}").
		RunWith(db).ExecContext(ctx)
	if err != nil {
		return apperr.IO("snapshot", err)
	}

	noteID := nowMillis
	cardID := nowMillis
	usedRevlogIDs := make(map[int64]bool)

	for deckIdx, deck := range col.Decks {
		deckID := exportDeckID(deckIdx)

		for i := range deck.Cards {
			card := &deck.Cards[i]
			noteID++
			cardID++

			flds := joinFields([]string{card.Front, card.Back})
			tags := strings.Join(card.Tags, " ")

			_, err = sq.Insert("notes").
				Columns("id", "guid", "mid", "mod", "usn", "tags", "flds", "sfld", "csum", "flags", "data").
				Values(noteID, card.ID, basicModelID, now, -1, tags, flds, card.Front, fieldChecksum(card.Front), 0, card.Notes).
				RunWith(db).ExecContext(ctx)
			if err != nil {
				return apperr.IO("snapshot", err)
			}

			cardType, queue, due := exportQueue(card, noteID, now, crt)

			_, err = sq.Insert("cards").
				Columns("id", "nid", "did", "ord", "mod", "usn", "type", "queue", "due",
					"ivl", "factor", "reps", "lapses", "left", "odue", "odid", "flags", "data").
				Values(cardID, noteID, deckID, 0, now, -1, cardType, queue, due,
					card.Interval, permille(card.EaseFactor), card.Repetitions, card.Lapses, 0, 0, 0, 0, "").
				RunWith(db).ExecContext(ctx)
			if err != nil {
				return apperr.IO("snapshot", err)
			}

			for _, ev := range card.ReviewHistory {
				// Revlog ids are the review's epoch milliseconds and must be
				// unique across the whole table. Only same-millisecond
				// collisions shift forward; ids of unrelated cards written
				// earlier must not push later rows around.
				id := ev.Timestamp.UnixMilli()
				for usedRevlogIDs[id] {
					id++
				}
				usedRevlogIDs[id] = true

				_, err = sq.Insert("revlog").
					Columns("id", "cid", "usn", "ease", "ivl", "lastIvl", "factor", "time", "type").
					Values(id, cardID, -1, easeFromRating(ev.Rating), ev.IntervalAfter, ev.IntervalBefore,
						permille(ev.EaseAfter), 0, revlogType(ev)).
					RunWith(db).ExecContext(ctx)
				if err != nil {
					return apperr.IO("snapshot", err)
				}
			}
		}
	}
	return nil
}

// exportDeckID assigns stable snapshot deck ids; id 1 is Anki's built-in
// Default deck.
func exportDeckID(idx int) int64 {
	return (int64(idx)+2)*1_000_000_000_000 + 1
}

// exportQueue classifies the card for Anki's scheduler: new, learning, or
// review, with the matching due encoding.
func exportQueue(card *models.Card, noteID, now int64, crt time.Time) (cardType, queue int, due int64) {
	switch {
	case card.Repetitions == 0:
		return 0, 0, noteID // new; due orders by note id
	case card.Interval == 0:
		return 1, 1, now // learning; due is an epoch timestamp
	default:
		return 2, 2, dueDays(card, crt) // review; due is days since col.crt
	}
}

// dueDays converts the card's due date into the review-queue encoding, days
// since collection creation. Overdue cards encode as 0 (due today); a card
// with no due date falls back to its interval.
func dueDays(card *models.Card, crt time.Time) int64 {
	if card.DueAt.IsZero() {
		return int64(card.Interval)
	}
	days := int64(math.Round(card.DueAt.Sub(crt).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days
}

// fieldChecksum is the integrity checksum stored alongside the sort field.
func fieldChecksum(front string) int64 {
	var sum int64
	for _, b := range []byte(front) {
		sum += int64(b)
	}
	return sum % math.MaxInt32
}

// permille converts a canonical ease factor to Anki's integer encoding,
// rounded to the nearest integer so 2.35 encodes as exactly 2350.
func permille(ease float64) int64 {
	return int64(math.Round(ease * easeScale))
}

// easeFromRating maps canonical ratings onto Anki's 1-4 answer ease.
func easeFromRating(r models.Rating) int {
	switch r {
	case models.Again:
		return 1
	case models.Hard:
		return 2
	case models.Easy:
		return 4
	default:
		return 3
	}
}

// revlogType distinguishes learning reviews from scheduled ones.
func revlogType(ev models.ReviewEvent) int {
	if ev.IntervalBefore == 0 {
		return 0 // learn
	}
	return 1 // review
}
