package motion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLibrarySaveAndReload(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)

	m := scenarioMove(t)
	path, err := lib.Save(m, FormatJSON)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "scenario.json" {
		t.Errorf("path = %s", path)
	}
	if _, err := lib.Save(m.Renamed("Wave Hello!"), FormatYAML); err != nil {
		t.Fatal(err)
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	fresh := NewLibrary(dir)
	n, err := fresh.LoadDir()
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 || fresh.Count() != 2 {
		t.Fatalf("loaded %d moves, count %d", n, fresh.Count())
	}
	got, err := fresh.Get("Wave Hello!")
	if err != nil {
		t.Fatal(err)
	}
	assertSameMove(t, m.Renamed("Wave Hello!"), got)

	if names := fresh.Search("WAVE"); len(names) != 1 || names[0] != "Wave Hello!" {
		t.Errorf("Search = %v", names)
	}
	if names := fresh.List(); len(names) != 2 || names[0] != "Wave Hello!" || names[1] != "scenario" {
		t.Errorf("List = %v", names)
	}

	fresh.Remove("scenario")
	if _, err := fresh.Get("scenario"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove err = %v", err)
	}
}

func TestLibraryMissingDir(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "nope"))
	n, err := lib.LoadDir()
	if err != nil || n != 0 {
		t.Errorf("LoadDir = %d, %v", n, err)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"wave":        "wave.json",
		"Wave Hello!": "Wave_Hello.json",
		"../../etc":   "etc.json",
		"???":         "move.json",
	}
	for in, want := range tests {
		if got := FileName(in, FormatJSON); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}
