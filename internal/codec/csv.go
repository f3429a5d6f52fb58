// Package codec implements the flat interchange formats: CSV and
// tab-separated text for content-only import, and the native JSON backup
// for full-fidelity collection round trips.
package codec

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
)

// ImportCSV reads front,back rows into a new deck with the given name.
// A leading header row ("front,back" in any casing) is skipped. CSV carries
// no scheduling state, so every card starts in the default state.
func ImportCSV(ctx context.Context, r io.Reader, deckName string) (models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("codec")

	deck := models.NewDeck(deckName)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Deck{}, apperr.CorruptData("csv", row, err.Error())
		}
		row++

		if len(record) < 2 {
			continue
		}
		front := strings.TrimSpace(record[0])
		back := strings.TrimSpace(record[1])

		if row == 1 && strings.EqualFold(front, "front") {
			continue
		}
		if front == "" || back == "" {
			continue
		}
		deck.AddCard(front, back)
	}

	log.Debug("csv import: deck=%q cards=%d", deckName, len(deck.Cards))
	return deck, nil
}

// ExportCSV writes the deck's cards as front,back rows with a header.
// Scheduling state does not survive this format.
func ExportCSV(ctx context.Context, deck *models.Deck, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"front", "back"}); err != nil {
		return apperr.IO("csv", err)
	}
	for i := range deck.Cards {
		c := &deck.Cards[i]
		if err := cw.Write([]string{c.Front, c.Back}); err != nil {
			return apperr.IO("csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperr.IO("csv", err)
	}
	logger.FromContext(ctx).WithPrefix("codec").Debug("csv export: deck=%q cards=%d", deck.Name, len(deck.Cards))
	return nil
}
