package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbaxter/flashdeck/internal/anki"
	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/models"
	"github.com/mbaxter/flashdeck/internal/services"
	"github.com/mbaxter/flashdeck/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCSVFile(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "french.csv", "front,back\nBonjour,Hello\nMerci,Thanks\n")

	deck, err := svc.ImportCSVFile(ctx, path, "French")
	require.NoError(t, err)
	assert.Len(t, deck.Cards, 2)

	got, err := s.Load(deck.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "imported deck is persisted")

	// Importing into an existing name is refused, not merged.
	_, err = svc.ImportCSVFile(ctx, path, "French")
	assert.ErrorIs(t, err, services.ErrDeckExists)
}

func TestImportCSVFile_MissingFile(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)

	_, err := svc.ImportCSVFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "X")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeIO, apperr.CodeOf(err))
}

func TestImportCSVFolder(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)
	ctx := context.Background()

	dir := t.TempDir()
	writeFile(t, dir, "world_capitals.csv", "Paris,France\nTokyo,Japan\n")
	writeFile(t, dir, "basic-math.csv", "2+2,4\n")
	writeFile(t, dir, "empty.csv", "front,back\n")
	writeFile(t, dir, "notes.txt", "not a csv")

	result, err := svc.ImportCSVFolder(ctx, dir)
	require.NoError(t, err)
	require.Len(t, result.Imported, 2)

	names := []string{result.Imported[0].Name, result.Imported[1].Name}
	assert.Contains(t, names, "World Capitals")
	assert.Contains(t, names, "Basic Math")

	// The empty csv left no deck behind.
	infos, err := s.List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	// A second pass skips everything already present.
	result, err = svc.ImportCSVFolder(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.Skipped, 2)
}

func TestImportAnkiFile_Package(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)
	ctx := context.Background()

	col := testutil.SampleCollection()
	path := filepath.Join(t.TempDir(), "sample.apkg")
	require.NoError(t, anki.EncodeFile(ctx, &col, path))

	result, err := svc.ImportAnkiFile(ctx, path, "")
	require.NoError(t, err)
	assert.Len(t, result.Imported, len(col.Decks))
	assert.Empty(t, result.Skipped)

	// Re-importing the same package skips every deck by name.
	result, err = svc.ImportAnkiFile(ctx, path, "")
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.Skipped, len(col.Decks))
}

func TestImportAnkiFile_TextExport(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "verbs.txt", "aller\tto go\netre\tto be\n")

	result, err := svc.ImportAnkiFile(ctx, path, "")
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "verbs", result.Imported[0].Name, "deck name defaults to the file stem")
	assert.Equal(t, 2, result.Imported[0].CardCount)

	got, err := s.Load(result.Imported[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "aller", got.Cards[0].Front)
}

func TestImportAnkiFile_UnknownFormat(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)

	path := writeFile(t, t.TempDir(), "mystery.dat", "no separators here at all")

	_, err := svc.ImportAnkiFile(context.Background(), path, "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeFormat, apperr.CodeOf(err))
}

func TestBackupExportImport(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)
	ctx := context.Background()

	deck := models.NewDeck("French")
	deck.AddCard("Bonjour", "Hello")
	require.NoError(t, s.Save(&deck))

	path := filepath.Join(t.TempDir(), "backup.json")
	count, err := svc.ExportBackupFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Restoring into a fresh store imports everything.
	s2 := testutil.NewTestStore(t)
	svc2 := services.NewTransferService(s2)
	imported, skipped, err := svc2.ImportBackupFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 0, skipped)

	// Restoring into the origin store skips by deck id.
	imported, skipped, err = svc.ImportBackupFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 1, skipped)
}

func TestImportBackupFile_WrongVersion(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)

	path := writeFile(t, t.TempDir(), "backup.json", `{"version": 99, "decks": []}`)

	_, _, err := svc.ImportBackupFile(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnsupportedVersion, apperr.CodeOf(err))
}

func TestExportAnkiFile(t *testing.T) {
	s := testutil.NewTestStore(t)
	svc := services.NewTransferService(s)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "export.apkg")
	_, err := svc.ExportAnkiFile(ctx, path)
	require.Error(t, err, "nothing to export from an empty store")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	deck := models.NewDeck("French")
	deck.AddCard("Bonjour", "Hello")
	deck.AddCard("Merci", "Thanks")
	require.NoError(t, s.Save(&deck))

	count, err := svc.ExportAnkiFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := anki.DecodeFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CardCount())
}
