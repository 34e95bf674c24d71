package perception

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-reachy-office/internal/log"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name      string
		dets      []Detection
		expectIdx int // -1 for nil
	}{
		{"empty", nil, -1},
		{"single", []Detection{{X: 0.4, Y: 0.4, W: 0.2, H: 0.2, Confidence: 0.9}}, 0},
		{
			"high confidence beats larger area",
			[]Detection{
				{W: 0.4, H: 0.4, Confidence: 0.5},
				{X: 0.3, Y: 0.3, W: 0.2, H: 0.2, Confidence: 0.95},
			},
			1,
		},
		{
			"same confidence picks larger",
			[]Detection{
				{W: 0.5, H: 0.5, Confidence: 0.8},
				{X: 0.3, Y: 0.3, W: 0.1, H: 0.1, Confidence: 0.8},
			},
			0,
		},
		{"zero area boxes", []Detection{{Confidence: 0.2}, {Confidence: 0.6}}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			best := SelectBest(tc.dets)
			if tc.expectIdx < 0 {
				if best != nil {
					t.Errorf("SelectBest = %+v, want nil", best)
				}
				return
			}
			if best != &tc.dets[tc.expectIdx] {
				t.Errorf("SelectBest = %+v, want %+v", best, tc.dets[tc.expectIdx])
			}
		})
	}
}

func TestDetectionCenter(t *testing.T) {
	x, y := Detection{X: 0.8, Y: 0.8, W: 0.2, H: 0.2}.Center()
	if x != 0.9 || y != 0.9 {
		t.Errorf("Center = (%v, %v)", x, y)
	}
}

func face(conf float64) []Detection {
	return []Detection{{X: 0.25, Y: 0.25, W: 0.5, H: 0.5, Confidence: conf}}
}

func newWorker(src FrameSource, det Detector, buffer int, clk clock.Clock) *Worker {
	return NewWorker(src, det, Config{Interval: 100 * time.Millisecond, Buffer: buffer}, clk, log.Discard())
}

func TestPollReturnsLatestAndDropsOldest(t *testing.T) {
	det := NewScripted(face(0.1), face(0.2), face(0.3), face(0.4), face(0.5))
	w := newWorker(BlankSource{}, det, 2, clock.NewMock())

	_, ok := w.Poll()
	assert.False(t, ok, "empty worker must not report a result")

	for i := 0; i < 5; i++ {
		w.Step(context.Background())
	}
	assert.Equal(t, uint64(3), w.Dropped())

	res, ok := w.Poll()
	require.True(t, ok)
	assert.Equal(t, uint64(5), res.Seq)
	assert.Equal(t, 0.5, res.Best().Confidence)

	_, ok = w.Poll()
	assert.False(t, ok, "Poll drains the queue")
}

type failingSource struct{ err error }

func (s failingSource) Frame(context.Context) ([]byte, error) { return nil, s.err }

func TestSourceErrorsArePublished(t *testing.T) {
	boom := errors.New("camera unplugged")
	w := newWorker(failingSource{boom}, NewScripted(), 1, clock.NewMock())
	w.Step(context.Background())

	res, ok := w.Poll()
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, boom)
	assert.Nil(t, res.Best())
}

// stalledDetector blocks until released.
type stalledDetector struct{ release chan struct{} }

func (d stalledDetector) Detect([]byte) ([]Detection, error) {
	<-d.release
	return face(1), nil
}

func (d stalledDetector) Close() error { return nil }

func TestStalledDetectorNeverBlocksPoll(t *testing.T) {
	det := stalledDetector{release: make(chan struct{})}
	w := newWorker(BlankSource{}, det, 1, clock.NewMock())

	done := make(chan struct{})
	go func() {
		w.Step(context.Background())
		close(done)
	}()

	start := time.Now()
	for i := 0; i < 100; i++ {
		_, ok := w.Poll()
		assert.False(t, ok)
	}
	assert.Less(t, time.Since(start), time.Second)

	close(det.release)
	<-done
	res, ok := w.Poll()
	require.True(t, ok)
	assert.Len(t, res.Detections, 1)
}

func TestRunTicksOnClock(t *testing.T) {
	mock := clock.NewMock()
	det := NewScripted(face(0.9))
	w := newWorker(BlankSource{Data: []byte{0xff, 0xd8}}, det, 4, mock)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		return len(w.Results()) > 0
	}, 2*time.Second, 5*time.Millisecond)

	res, ok := w.Poll()
	require.True(t, ok)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0.9, res.Best().Confidence)

	cancel()
	require.NoError(t, <-errc)
	assert.True(t, det.Closed())
}

func TestScriptedLoops(t *testing.T) {
	s := NewScripted(face(0.1), nil)
	a, _ := s.Detect(nil)
	b, _ := s.Detect(nil)
	c, _ := s.Detect(nil)
	assert.Len(t, a, 1)
	assert.Empty(t, b)
	assert.Equal(t, a, c)
}
