package officemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an on-disk encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

type mapFile struct {
	Width     int        `json:"width" yaml:"width"`
	Height    int        `json:"height" yaml:"height"`
	CellSize  float64    `json:"cell_size" yaml:"cell_size"`
	Rows      []string   `json:"rows" yaml:"rows"`
	Locations []Location `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// Encode writes m to w.
func (m *Map) Encode(w io.Writer, f Format) error {
	mf := mapFile{
		Width:     m.width,
		Height:    m.height,
		CellSize:  m.cellSize,
		Rows:      m.Rows(),
		Locations: m.Locations(),
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(mf)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(mf); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Decode reads a map from r.
func Decode(r io.Reader, f Format) (*Map, error) {
	var mf mapFile
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&mf); err != nil {
			return nil, fmt.Errorf("decode map: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&mf); err != nil {
			return nil, fmt.Errorf("decode map: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}

	if len(mf.Rows) != mf.Height {
		return nil, fmt.Errorf("%w: height %d but %d rows", ErrInvalidMap, mf.Height, len(mf.Rows))
	}
	if mf.Height > 0 && len(mf.Rows[0]) != mf.Width {
		return nil, fmt.Errorf("%w: width %d but row has %d cells", ErrInvalidMap, mf.Width, len(mf.Rows[0]))
	}
	return FromRows(mf.Rows, mf.CellSize, mf.Locations)
}

// Load reads a map file. The format follows the extension.
func Load(path string) (*Map, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	m, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path in the format implied by its extension.
func (m *Map) Save(path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := m.Encode(&buf, f); err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create map dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
