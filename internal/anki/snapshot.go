package anki

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"github.com/mbaxter/flashdeck/internal/apperr"
)

// The snapshot is read once into flat in-memory tables joined by id
// lookups, then projected into canonical decks. No live relational access
// happens after readSnapshot returns.

type deckRec struct {
	ID          int64
	Name        string
	Desc        string
	CanonicalID string
}

type noteRec struct {
	ID     int64
	GUID   string
	Tags   string
	Fields []string
	Data   string
}

type cardRec struct {
	ID     int64
	NoteID int64
	DeckID int64
	Type   int
	Queue  int
	Due    int64
	Ivl    int
	Factor int
	Reps   int
	Lapses int
}

type revlogRec struct {
	ID      int64 // epoch milliseconds of the review
	CardID  int64
	Ease    int
	Ivl     int
	LastIvl int
	Factor  int
}

type snapshot struct {
	crt    int64 // collection creation, epoch seconds; review due is days from here
	decks  map[int64]deckRec
	notes  map[int64]noteRec
	cards  []cardRec
	revlog map[int64][]revlogRec // keyed by card id, ordered by time
}

// readSnapshot loads the relational snapshot into flat tables.
func readSnapshot(ctx context.Context, db *sql.DB, source string) (*snapshot, error) {
	snap := &snapshot{
		decks:  make(map[int64]deckRec),
		notes:  make(map[int64]noteRec),
		revlog: make(map[int64][]revlogRec),
	}

	if err := snap.readDecks(ctx, db, source); err != nil {
		return nil, err
	}
	if err := snap.readNotes(ctx, db, source); err != nil {
		return nil, err
	}
	if err := snap.readCards(ctx, db, source); err != nil {
		return nil, err
	}
	if err := snap.readRevlog(ctx, db, source); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *snapshot) readDecks(ctx context.Context, db *sql.DB, source string) error {
	var decksBlob string
	err := sq.Select("crt", "decks").From("col").
		RunWith(db).QueryRowContext(ctx).Scan(&s.crt, &decksBlob)
	if err != nil {
		// A snapshot without a col table is not an Anki collection.
		return apperr.Format(source, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(decksBlob), &raw); err != nil {
		return apperr.CorruptData(source, 0, "col.decks is not valid JSON")
	}

	for _, blob := range raw {
		var d struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			Desc        string `json:"desc"`
			CanonicalID string `json:"flashdeckId"`
		}
		if err := json.Unmarshal(blob, &d); err != nil {
			continue // tolerate odd deck entries, no data rides on them
		}
		s.decks[d.ID] = deckRec{ID: d.ID, Name: d.Name, Desc: d.Desc, CanonicalID: d.CanonicalID}
	}
	return nil
}

func (s *snapshot) readNotes(ctx context.Context, db *sql.DB, source string) error {
	rows, err := sq.Select("id", "guid", "tags", "flds", "data").From("notes").
		RunWith(db).QueryContext(ctx)
	if err != nil {
		return apperr.Format(source, err)
	}
	defer rows.Close()

	for rows.Next() {
		var n noteRec
		var flds string
		if err := rows.Scan(&n.ID, &n.GUID, &n.Tags, &flds, &n.Data); err != nil {
			return apperr.CorruptData(source, len(s.notes), "unreadable note row")
		}
		n.Fields = splitFields(flds)
		s.notes[n.ID] = n
	}
	return rows.Err()
}

func (s *snapshot) readCards(ctx context.Context, db *sql.DB, source string) error {
	rows, err := sq.Select("id", "nid", "did", "type", "queue", "due", "ivl", "factor", "reps", "lapses").
		From("cards").OrderBy("id").
		RunWith(db).QueryContext(ctx)
	if err != nil {
		return apperr.Format(source, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c cardRec
		if err := rows.Scan(&c.ID, &c.NoteID, &c.DeckID, &c.Type, &c.Queue, &c.Due, &c.Ivl, &c.Factor, &c.Reps, &c.Lapses); err != nil {
			return apperr.CorruptData(source, len(s.cards), "unreadable card row")
		}
		s.cards = append(s.cards, c)
	}
	return rows.Err()
}

func (s *snapshot) readRevlog(ctx context.Context, db *sql.DB, source string) error {
	rows, err := sq.Select("id", "cid", "ease", "ivl", "lastIvl", "factor").
		From("revlog").OrderBy("id").
		RunWith(db).QueryContext(ctx)
	if err != nil {
		// Old exports may omit revlog entirely; scheduling state still
		// imports without history.
		return nil
	}
	defer rows.Close()

	for rows.Next() {
		var r revlogRec
		if err := rows.Scan(&r.ID, &r.CardID, &r.Ease, &r.Ivl, &r.LastIvl, &r.Factor); err != nil {
			return apperr.CorruptData(source, 0, "unreadable revlog row")
		}
		s.revlog[r.CardID] = append(s.revlog[r.CardID], r)
	}
	return rows.Err()
}

// deckOrder returns deck ids sorted ascending for deterministic projection.
func (s *snapshot) deckOrder() []int64 {
	ids := make([]int64, 0, len(s.decks))
	for id := range s.decks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
