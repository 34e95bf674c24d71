package motion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Format is an on-disk encoding for moves.
type Format string

// Supported formats. Both are plain text and diff cleanly.
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

type moveFile struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Duration  float64        `json:"duration" yaml:"duration"`
	Samples   []sampleRecord `json:"samples" yaml:"samples"`
}

type sampleRecord struct {
	Time     float64            `json:"time" yaml:"time"`
	Joints   map[string]float64 `json:"joints" yaml:"joints"`
	Head     *pose.HeadPose     `json:"head,omitempty" yaml:"head,omitempty"`
	Antennas [2]float64         `json:"antennas" yaml:"antennas,flow"`
	BodyYaw  float64            `json:"body_yaw" yaml:"body_yaw"`
}

func (m *Move) toFile() moveFile {
	mf := moveFile{
		ID:        m.id,
		Name:      m.name,
		CreatedAt: m.createdAt,
		Duration:  m.Duration(),
		Samples:   make([]sampleRecord, len(m.samples)),
	}
	for i, s := range m.samples {
		rec := sampleRecord{
			Time:     s.Time,
			Joints:   s.Config.Joints,
			Antennas: s.Config.Antennas,
			BodyYaw:  s.Config.BodyYaw,
		}
		if rec.Joints == nil {
			rec.Joints = map[string]float64{}
		}
		if !s.Config.Head.IsZero() {
			h := s.Config.Head
			rec.Head = &h
		}
		mf.Samples[i] = rec
	}
	return mf
}

func (mf moveFile) toMove() (*Move, error) {
	samples := make([]Sample, len(mf.Samples))
	for i, rec := range mf.Samples {
		cfg := pose.JointConfiguration{
			Joints:   rec.Joints,
			Antennas: rec.Antennas,
			BodyYaw:  rec.BodyYaw,
		}
		if cfg.Joints == nil {
			cfg.Joints = map[string]float64{}
		}
		if rec.Head != nil {
			cfg.Head = *rec.Head
		}
		samples[i] = Sample{Time: rec.Time, Config: cfg}
	}
	m, err := NewMove(mf.ID, mf.Name, mf.CreatedAt, samples)
	if err != nil {
		return nil, err
	}
	if m.Duration() != mf.Duration {
		return nil, fmt.Errorf("%w: duration %v does not match samples (%v)", ErrInvalidTrajectory, mf.Duration, m.Duration())
	}
	return m, nil
}

// MarshalJSON implements json.Marshaler.
func (m *Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toFile())
}

// UnmarshalJSON implements json.Unmarshaler. The result is validated.
func (m *Move) UnmarshalJSON(data []byte) error {
	var mf moveFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return err
	}
	out, err := mf.toMove()
	if err != nil {
		return err
	}
	*m = *out
	return nil
}

// Encode writes m to w.
func (m *Move) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m.toFile())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m.toFile()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Decode reads and validates a move from r.
func Decode(r io.Reader, f Format) (*Move, error) {
	var mf moveFile
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&mf); err != nil {
			return nil, fmt.Errorf("decode move: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&mf); err != nil {
			return nil, fmt.Errorf("decode move: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return mf.toMove()
}

// Save writes m to path in the format implied by its extension.
func Save(m *Move, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := m.Encode(&buf, f); err != nil {
		return fmt.Errorf("encode move %q: %w", m.Name(), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create move dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Load reads a move file. The format follows the extension.
func Load(path string) (*Move, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read move: %w", err)
	}
	m, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
