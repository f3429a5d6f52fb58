package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/mbaxter/flashdeck/internal/apperr"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/models"
)

// EncodeBackup writes the native JSON backup: a full-fidelity serialization
// of the collection including review histories. Unlike the Anki package
// format, no unit conversion happens, so round trips are exact.
func EncodeBackup(ctx context.Context, col *models.Collection, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(col); err != nil {
		return apperr.IO("backup", err)
	}
	logger.FromContext(ctx).WithPrefix("codec").Debug("backup encoded: decks=%d", len(col.Decks))
	return nil
}

// DecodeBackup reads a native JSON backup. An unknown version fails with
// UNSUPPORTED_VERSION; the codec never guesses forward compatibility.
func DecodeBackup(ctx context.Context, r io.Reader) (*models.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.IO("backup", err)
	}

	// Probe the version before committing to the full decode.
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, apperr.Format("backup", err)
	}
	if probe.Version != models.BackupVersion {
		return nil, apperr.UnsupportedVersion("backup", probe.Version)
	}

	var col models.Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, apperr.CorruptData("backup", 0, err.Error())
	}
	logger.FromContext(ctx).WithPrefix("codec").Debug("backup decoded: decks=%d", len(col.Decks))
	return &col, nil
}

// WriteBackupFile writes the backup to path via a temp file and rename, so
// a failed encode leaves any prior file untouched.
func WriteBackupFile(ctx context.Context, col *models.Collection, path string) error {
	var buf bytes.Buffer
	if err := EncodeBackup(ctx, col, &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return apperr.IO(path, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
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

// ReadBackupFile reads a backup file from disk.
func ReadBackupFile(ctx context.Context, path string) (*models.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.IO(path, err)
	}
	defer f.Close()
	return DecodeBackup(ctx, f)
}
