// Package deckfile owns the on-disk deck record: a single pretty-printed JSON
// document, read fully before each mutation and overwritten fully after.
package deckfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"lixi.vn/internal/deck"
)

//go:embed schema.json
var schemaJSON string

var deckSchema = jsonschema.MustCompileString("deck.schema.json", schemaJSON)

// ErrReseedRequired marks a missing or corrupt record. The store resolves it
// by rewriting the default deck; it is never surfaced to callers.
var ErrReseedRequired = errors.New("deck record needs reseed")

// Decode validates a raw record (structure via JSON Schema, then the semantic
// deck contract) and returns the decoded state.
func Decode(raw []byte) (deck.State, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return deck.State{}, fmt.Errorf("parse deck record: %w", err)
	}
	if err := deckSchema.Validate(doc); err != nil {
		return deck.State{}, fmt.Errorf("deck record schema: %w", err)
	}
	var st deck.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return deck.State{}, fmt.Errorf("decode deck record: %w", err)
	}
	if err := st.Validate(); err != nil {
		return deck.State{}, fmt.Errorf("deck record contract: %w", err)
	}
	return st, nil
}

// Load reads and validates the persisted record. A missing file or one that
// fails to parse/validate is reported as ErrReseedRequired (wrapping the
// cause); only genuine IO failures come back as plain errors.
func Load(path string) (deck.State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return deck.State{}, fmt.Errorf("%w: %v", ErrReseedRequired, err)
		}
		return deck.State{}, fmt.Errorf("read deck record: %w", err)
	}
	st, err := Decode(raw)
	if err != nil {
		return deck.State{}, fmt.Errorf("%w: %v", ErrReseedRequired, err)
	}
	return st, nil
}

// Write replaces the record with the given state, pretty-printed for easy
// operator inspection.
func Write(path string, st deck.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("encode deck record: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
