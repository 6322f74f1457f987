// Package archive keeps zstd-compressed copies of deck records that admin
// saves overwrite, so a fat-fingered edit can be recovered by an operator.
// This is a backup of replaced records, not a per-draw audit trail.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

type Meta struct {
	CreatedAt string `json:"created_at"`
	RawBytes  int    `json:"raw_bytes"`
	Record    string `json:"record"`
}

type DeckArchiver struct {
	dir string
}

func New(dir string) *DeckArchiver {
	return &DeckArchiver{dir: dir}
}

// ArchiveReplaced writes the raw record being replaced into
// `<dir>/<stamp>/deck.json.zst` alongside a meta.json. It returns the
// directory the record was archived into.
func (a *DeckArchiver) ArchiveReplaced(raw []byte) (string, error) {
	if a == nil || len(raw) == 0 {
		return "", nil
	}
	now := time.Now().UTC()
	entryDir := filepath.Join(a.dir, now.Format("20060102T150405.000000000"))
	if err := os.MkdirAll(entryDir, 0o755); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	dst := filepath.Join(entryDir, "deck.json.zst")
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return "", err
	}

	meta := Meta{
		CreatedAt: now.Format(time.RFC3339Nano),
		RawBytes:  len(raw),
		Record:    filepath.Base(dst),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(entryDir, "meta.json"), b, 0o644)
	}
	return entryDir, nil
}

// ReadArchived decompresses an archived record back to raw JSON.
func ReadArchived(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(dec.IOReadCloser()); err != nil {
		return nil, fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
	}
	return out.Bytes(), nil
}
