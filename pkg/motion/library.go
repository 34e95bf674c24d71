package motion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Library is a directory-backed collection of moves keyed by name.
type Library struct {
	dir string

	mu    sync.RWMutex
	moves map[string]*Move
}

// NewLibrary creates an empty library stored under dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir, moves: make(map[string]*Move)}
}

// Dir returns the storage directory.
func (l *Library) Dir() string { return l.dir }

// LoadDir loads every .json, .yaml and .yml move in the directory. A
// missing directory is not an error.
func (l *Library) LoadDir() (int, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list moves: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatFromPath(e.Name()); err != nil {
			continue
		}
		m, err := Load(filepath.Join(l.dir, e.Name()))
		if err != nil {
			return n, fmt.Errorf("load %s: %w", e.Name(), err)
		}
		l.Register(m)
		n++
	}
	return n, nil
}

// Register adds or replaces a move in memory.
func (l *Library) Register(m *Move) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.moves[m.Name()] = m
}

// Save registers m and writes it to <dir>/<name>.<format>.
func (l *Library) Save(m *Move, f Format) (string, error) {
	path := filepath.Join(l.dir, FileName(m.Name(), f))
	if err := Save(m, path); err != nil {
		return "", err
	}
	l.Register(m)
	return path, nil
}

// Get retrieves a move by name.
func (l *Library) Get(name string) (*Move, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.moves[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m, nil
}

// Remove drops a move from memory. Files on disk are left alone.
func (l *Library) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.moves, name)
}

// List returns all move names, sorted.
func (l *Library) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.moves))
	for name := range l.moves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Search returns the sorted names containing query, case-insensitive.
func (l *Library) Search(query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, name := range l.List() {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	return out
}

// Count returns the number of moves.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.moves)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName turns a move name into a safe file name.
func FileName(name string, f Format) string {
	base := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "move"
	}
	return base + "." + string(f)
}
