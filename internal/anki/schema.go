package anki

// Anki package archive layout: a zip containing a SQLite snapshot named
// collection.anki2 (collection.anki21 for the 2.1 scheduler) plus a media
// manifest. The snapshot schema below is the stable schema 11 subset that
// every Anki release since 2.0 can open.

const (
	snapshotName   = "collection.anki2"
	snapshotName21 = "collection.anki21"
	mediaName      = "media"

	// Anki separates note fields with the unit separator control byte.
	fieldSep = "\x1f"

	// Ease factors are stored permille: 2500 means 2.5.
	easeScale = 1000

	// schemaVersion is the value Anki expects in col.ver.
	schemaVersion = 11
)

const snapshotSchema = `
CREATE TABLE col (
    id INTEGER PRIMARY KEY,
    crt INTEGER NOT NULL,
    mod INTEGER NOT NULL,
    scm INTEGER NOT NULL,
    ver INTEGER NOT NULL,
    dty INTEGER NOT NULL,
    usn INTEGER NOT NULL,
    ls INTEGER NOT NULL,
    conf TEXT NOT NULL,
    models TEXT NOT NULL,
    decks TEXT NOT NULL,
    dconf TEXT NOT NULL,
    tags TEXT NOT NULL
);
CREATE TABLE notes (
    id INTEGER PRIMARY KEY,
    guid TEXT NOT NULL,
    mid INTEGER NOT NULL,
    mod INTEGER NOT NULL,
    usn INTEGER NOT NULL,
    tags TEXT NOT NULL,
    flds TEXT NOT NULL,
    sfld TEXT NOT NULL,
    csum INTEGER NOT NULL,
    flags INTEGER NOT NULL,
    data TEXT NOT NULL
);
CREATE TABLE cards (
    id INTEGER PRIMARY KEY,
    nid INTEGER NOT NULL,
    did INTEGER NOT NULL,
    ord INTEGER NOT NULL,
    mod INTEGER NOT NULL,
    usn INTEGER NOT NULL,
    type INTEGER NOT NULL,
    queue INTEGER NOT NULL,
    due INTEGER NOT NULL,
    ivl INTEGER NOT NULL,
    factor INTEGER NOT NULL,
    reps INTEGER NOT NULL,
    lapses INTEGER NOT NULL,
    left INTEGER NOT NULL,
    odue INTEGER NOT NULL,
    odid INTEGER NOT NULL,
    flags INTEGER NOT NULL,
    data TEXT NOT NULL
);
CREATE TABLE revlog (
    id INTEGER PRIMARY KEY,
    cid INTEGER NOT NULL,
    usn INTEGER NOT NULL,
    ease INTEGER NOT NULL,
    ivl INTEGER NOT NULL,
    lastIvl INTEGER NOT NULL,
    factor INTEGER NOT NULL,
    time INTEGER NOT NULL,
    type INTEGER NOT NULL
);
CREATE TABLE graves (
    usn INTEGER NOT NULL,
    oid INTEGER NOT NULL,
    type INTEGER NOT NULL
);
`

// deckIDKey is an extra key stashed in each synthesized deck JSON object so
// our own deck ids survive a round trip. Anki ignores unknown deck keys.
const deckIDKey = "flashdeckId"

// basicModelID identifies the synthesized Basic (front/back) note type.
const basicModelID int64 = 1000000000001

// deckJSON builds an Anki deck object for the col.decks map.
func deckJSON(id int64, name, desc, canonicalID string, now int64) map[string]any {
	m := map[string]any{
		"id":        id,
		"name":      name,
		"mod":       now,
		"usn":       -1,
		"lrnToday":  []int{0, 0},
		"revToday":  []int{0, 0},
		"newToday":  []int{0, 0},
		"timeToday": []int{0, 0},
		"collapsed": false,
		"desc":      desc,
		"dyn":       0,
		"conf":      1,
		"extendNew": 10,
		"extendRev": 50,
	}
	if canonicalID != "" {
		m[deckIDKey] = canonicalID
	}
	return m
}

// basicModelJSON builds the one note type we export: two fields, one
// template, rendered front over back.
func basicModelJSON(now int64) map[string]any {
	id := basicModelID
	return map[string]any{
		"id":    id,
		"name":  "Basic",
		"type":  0,
		"mod":   now,
		"usn":   -1,
		"sortf": 0,
		"did":   1,
		"tmpls": []map[string]any{{
			"name":  "Card 1",
			"ord":   0,
			"qfmt":  "{{Front}}",
			"afmt":  "{{FrontSide}}<hr id=answer>{{Back}}",
			"did":   nil,
			"bqfmt": "",
			"bafmt": "",
		}},
		"flds": []map[string]any{
			{"name": "Front", "ord": 0, "sticky": false, "rtl": false, "font": "Arial", "size": 20, "media": []string{}},
			{"name": "Back", "ord": 1, "sticky": false, "rtl": false, "font": "Arial", "size": 20, "media": []string{}},
		},
		"css":       ".card { font-family: arial; font-size: 20px; text-align: center; color: black; background-color: white; }",
		"latexPre":  "",
		"latexPost": "",
		"latexsvg":  false,
		"req":       []any{[]any{0, "all", []int{0}}},
	}
}

// defaultDconfJSON builds the default deck options group Anki requires.
func defaultDconfJSON() map[string]any {
	return map[string]any{
		"1": map[string]any{
			"id":      1,
			"name":    "Default",
			"replayq": true,
			"lapse":   map[string]any{"leechFails": 8, "minInt": 1, "delays": []int{10}, "leechAction": 0, "mult": 0},
			"rev":     map[string]any{"perDay": 200, "fuzz": 0.05, "ivlFct": 1, "maxIvl": 36500, "ease4": 1.3, "bury": false, "hardFactor": 1.2},
			"new":     map[string]any{"perDay": 20, "delays": []int{1, 10}, "separate": true, "ints": []int{1, 4, 7}, "initialFactor": 2500, "bury": false, "order": 1},
			"maxTaken": 60,
			"timer":    0,
			"autoplay": true,
			"mod":      0,
			"usn":      0,
		},
	}
}
