// Package snapshot persists run snapshots to disk.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mext-feed/internal/domain/entity"
	"mext-feed/internal/observability/logging"
	"mext-feed/internal/usecase/fetch"
)

// FileWriter writes a snapshot as indented UTF-8 JSON to Path.
//
// The document is written to a temporary file in the same directory and then
// renamed over Path, so readers never observe a half-written snapshot.
type FileWriter struct {
	Path string
}

// NewFileWriter returns a FileWriter for path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{Path: path}
}

// Write implements fetch.SnapshotWriter. Every failure wraps fetch.ErrSnapshotWrite.
func (w *FileWriter) Write(ctx context.Context, snap entity.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", fetch.ErrSnapshotWrite, err)
	}

	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", fetch.ErrSnapshotWrite, err)
	}

	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", fetch.ErrSnapshotWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", fetch.ErrSnapshotWrite, err)
	}
	tmpName := tmp.Name()

	// 失敗時は一時ファイルを残さない
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write temp file: %v", fetch.ErrSnapshotWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp file: %v", fetch.ErrSnapshotWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", fetch.ErrSnapshotWrite, err)
	}
	// #nosec G302 -- snapshot is public output for a static site
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod temp file: %v", fetch.ErrSnapshotWrite, err)
	}
	if err := os.Rename(tmpName, w.Path); err != nil {
		return fmt.Errorf("%w: rename to %s: %v", fetch.ErrSnapshotWrite, w.Path, err)
	}
	committed = true

	logging.FromContext(ctx).Debug("snapshot written",
		slog.String("path", w.Path),
		slog.Int("items", len(snap.Items)),
		slog.Int("bytes", len(data)))
	return nil
}

// Encode renders snap as 2-space indented JSON without HTML escaping, so
// Japanese text and "&" in URLs stay readable.
func Encode(snap entity.Snapshot) ([]byte, error) {
	if snap.Items == nil {
		snap.Items = []entity.NewsItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
