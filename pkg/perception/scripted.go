package perception

import (
	"context"
	"sync"
)

// BlankSource returns the same frame every time. Useful with Scripted when
// no camera is attached.
type BlankSource struct {
	Data []byte
}

func (s BlankSource) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Data, nil
}

// Scripted is a Detector that replays a fixed sequence of detection sets,
// looping at the end.
type Scripted struct {
	mu     sync.Mutex
	script [][]Detection
	next   int
	closed bool
}

// NewScripted creates a scripted detector.
func NewScripted(script ...[]Detection) *Scripted {
	return &Scripted{script: script}
}

func (s *Scripted) Detect([]byte) ([]Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return nil, nil
	}
	out := s.script[s.next%len(s.script)]
	s.next++
	return append([]Detection(nil), out...), nil
}

func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Scripted) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
