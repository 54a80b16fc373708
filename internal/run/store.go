package run

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFormat marks a run file whose content is not a valid run document.
var ErrFormat = errors.New("invalid run document")

// ErrIO marks a run file that could not be read or written.
var ErrIO = errors.New("run file I/O failed")

// Load reads and parses a run definition from path. Missing fields fall back
// to the defaults ("Game", "Any%"), and an empty segment list is replaced by
// a single placeholder segment: a loaded Run always has at least one segment.
//
// Read failures wrap ErrIO; content that is not a JSON object (or has
// wrong-typed fields) wraps ErrFormat.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: root is not an object", ErrFormat)
	}

	r := Run{Game: "Game", Category: "Any%"}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if len(r.Segments) == 0 {
		r.Segments = []string{"Split 1"}
	}
	return &r, nil
}

// Save writes the run to path as pretty-printed JSON, creating parent
// directories as needed. Failures wrap ErrIO.
func Save(path string, r *Run) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: create directory %s: %v", ErrIO, dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(r.JSON()+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	return nil
}
