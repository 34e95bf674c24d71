package motion

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// DefaultSampleRate is the recording rate in Hz.
const DefaultSampleRate = 50.0

// Recorder buffers joint samples at a fixed rate. Time only advances
// through Tick, so recordings are reproducible.
type Recorder struct {
	clock    clock.Clock
	interval float64

	active  bool
	id      string
	name    string
	started time.Time
	elapsed float64
	next    float64
	samples []Sample
}

// NewRecorder creates a recorder sampling at hz (DefaultSampleRate if <= 0).
// clk stamps each Move's creation time; nil uses the wall clock.
func NewRecorder(hz float64, clk clock.Clock) *Recorder {
	if hz <= 0 {
		hz = DefaultSampleRate
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Recorder{clock: clk, interval: 1 / hz}
}

// Interval returns the sampling period in seconds.
func (r *Recorder) Interval() float64 { return r.interval }

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool { return r.active }

// Len returns the number of buffered samples.
func (r *Recorder) Len() int { return len(r.samples) }

// Elapsed returns the recording time so far, in seconds.
func (r *Recorder) Elapsed() float64 { return r.elapsed }

// Start begins a recording and captures cfg as the sample at t=0. An empty
// name is replaced by a generated one.
func (r *Recorder) Start(name string, cfg pose.JointConfiguration) error {
	if r.active {
		return ErrAlreadyRecording
	}
	r.id = uuid.NewString()
	if name == "" {
		name = "recording-" + r.id[:8]
	}
	r.active = true
	r.name = name
	r.started = r.clock.Now()
	r.elapsed = 0
	r.samples = append(r.samples[:0], Sample{Time: 0, Config: cfg.Clone()})
	r.next = r.interval
	return nil
}

// Tick advances recording time by dt and captures cfg if a sample is due.
// Non-positive dt is ignored.
func (r *Recorder) Tick(dt float64, cfg pose.JointConfiguration) {
	if !r.active || dt <= 0 {
		return
	}
	r.elapsed += dt
	// small slack so accumulated float error does not skip a sample
	if r.elapsed+1e-9 < r.next {
		return
	}
	r.samples = append(r.samples, Sample{Time: r.elapsed, Config: cfg.Clone()})
	for r.next <= r.elapsed+1e-9 {
		r.next += r.interval
	}
}

// Stop finalizes the buffer into a Move. Recordings with fewer than two
// samples or zero duration are rejected with ErrInvalidTrajectory; the
// recorder is idle afterwards either way.
func (r *Recorder) Stop() (*Move, error) {
	if !r.active {
		return nil, ErrNotRecording
	}
	samples := r.samples
	id, name, created := r.id, r.name, r.started
	r.reset()

	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: recording %q captured %d sample(s)", ErrInvalidTrajectory, name, len(samples))
	}
	return NewMove(id, name, created, samples)
}

// Discard abandons the current recording.
func (r *Recorder) Discard() {
	r.reset()
}

func (r *Recorder) reset() {
	r.active = false
	r.samples = nil
	r.elapsed = 0
	r.next = 0
	r.started = time.Time{}
}
