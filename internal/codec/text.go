package codec

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
)

// ImportText reads an Anki text export: front<TAB>back with an optional
// third column of space-separated tags. Lines without tabs fall back to
// semicolon separation. Blank lines and # comments are skipped. Like CSV,
// this format carries no scheduling state.
func ImportText(ctx context.Context, r io.Reader, deckName string) (models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("codec")

	deck := models.NewDeck(deckName)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var parts []string
		if strings.Contains(line, "\t") {
			parts = strings.Split(line, "\t")
		} else {
			parts = strings.Split(line, ";")
		}
		if len(parts) < 2 {
			continue
		}

		front := strings.TrimSpace(parts[0])
		back := strings.TrimSpace(parts[1])
		if front == "" || back == "" {
			continue
		}

		id := deck.AddCard(front, back)
		if len(parts) >= 3 {
			deck.Card(id).Tags = strings.Fields(parts[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return models.Deck{}, apperr.IO("text import", err)
	}

	log.Debug("text import: deck=%q cards=%d", deckName, len(deck.Cards))
	return deck, nil
}
