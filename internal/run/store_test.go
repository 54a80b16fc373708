package run

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestNewDefault(t *testing.T) {
	r := NewDefault()
	if r.Game != "Game" || r.Category != "Any%" {
		t.Errorf("unexpected defaults: %q / %q", r.Game, r.Category)
	}
	want := []string{"Split 1", "Split 2", "Split 3"}
	if !reflect.DeepEqual(r.Segments, want) {
		t.Errorf("unexpected default segments: %v", r.Segments)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Run
	}{
		{
			name:    "full document",
			content: `{"game":"Celeste","category":"100%","segments":["Prologue","Forsaken City"]}`,
			want:    Run{Game: "Celeste", Category: "100%", Segments: []string{"Prologue", "Forsaken City"}},
		},
		{
			name:    "missing fields fall back to defaults",
			content: `{}`,
			want:    Run{Game: "Game", Category: "Any%", Segments: []string{"Split 1"}},
		},
		{
			name:    "empty segments get a placeholder",
			content: `{"game":"Celeste","category":"Any%","segments":[]}`,
			want:    Run{Game: "Celeste", Category: "Any%", Segments: []string{"Split 1"}},
		},
		{
			name:    "duplicate segment names are preserved",
			content: `{"segments":["Boss","Boss"]}`,
			want:    Run{Game: "Game", Category: "Any%", Segments: []string{"Boss", "Boss"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeTemp(t, tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, ErrIO) {
			t.Errorf("expected ErrIO, got %v", err)
		}
	})

	formatCases := map[string]string{
		"not json":          `not json at all`,
		"root is an array":  `["Split 1"]`,
		"root is a string":  `"hello"`,
		"root is null":      `null`,
		"empty file":        ``,
		"wrong field type":  `{"game":42}`,
		"non-string splits": `{"segments":[1,2,3]}`,
	}
	for name, content := range formatCases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeTemp(t, content))
			if !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	orig := &Run{
		Game:     `Game "with" quotes \ and control` + "\t" + `chars`,
		Category: "Any%",
		Segments: []string{"Split 1", "Split 2"},
	}
	path := filepath.Join(t.TempDir(), "nested", "dir", "run.json")

	if err := Save(path, orig); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("round trip changed the run: got %+v, want %+v", got, orig)
	}
}

func TestSaveIntoUnwritableDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root, directory permissions are not enforced")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	defer os.Chmod(dir, 0o700)

	err := Save(filepath.Join(dir, "run.json"), NewDefault())
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestRunJSON(t *testing.T) {
	var nilRun *Run
	if got := nilRun.JSON(); got != "{}" {
		t.Errorf("nil run: expected {}, got %q", got)
	}

	out := NewDefault().JSON()
	// Pretty-printed with the documented key order.
	gameIdx := strings.Index(out, `"game"`)
	catIdx := strings.Index(out, `"category"`)
	segIdx := strings.Index(out, `"segments"`)
	if gameIdx < 0 || catIdx < 0 || segIdx < 0 {
		t.Fatalf("missing keys in output: %s", out)
	}
	if !(gameIdx < catIdx && catIdx < segIdx) {
		t.Errorf("unexpected key order in output: %s", out)
	}
	if !strings.Contains(out, "\n") {
		t.Errorf("expected pretty-printed output, got %q", out)
	}
}
