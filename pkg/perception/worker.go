package perception

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-reachy-office/internal/log"
)

// Result is the outcome of one detection pass.
type Result struct {
	Seq        uint64
	At         time.Time
	Detections []Detection
	Err        error
}

// Best returns the preferred detection, or nil.
func (r Result) Best() *Detection {
	return SelectBest(r.Detections)
}

// Config tunes a Worker.
type Config struct {
	Interval time.Duration // time between detection passes
	Buffer   int           // result channel capacity
}

// DefaultConfig returns 5 Hz detection with a 4-result buffer.
func DefaultConfig() Config {
	return Config{Interval: 200 * time.Millisecond, Buffer: 4}
}

// Worker runs detection in the background.
type Worker struct {
	source   FrameSource
	detector Detector
	cfg      Config
	clock    clock.Clock
	logger   *slog.Logger

	results chan Result
	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewWorker creates a worker. A nil clock uses the wall clock.
func NewWorker(source FrameSource, detector Detector, cfg Config, clk clock.Clock, logger *slog.Logger) *Worker {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = log.Component("perception")
	}
	return &Worker{
		source:   source,
		detector: detector,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
		results:  make(chan Result, cfg.Buffer),
	}
}

// Run detects on every interval until ctx is done. It closes the detector
// on return.
func (w *Worker) Run(ctx context.Context) error {
	ticker := w.clock.Ticker(w.cfg.Interval)
	defer ticker.Stop()
	defer w.detector.Close()

	w.logger.Info("perception started", "interval", w.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("perception stopped", "dropped", w.dropped.Load())
			return nil
		case <-ticker.C:
			w.Step(ctx)
		}
	}
}

// Step runs a single detection pass and publishes its result.
func (w *Worker) Step(ctx context.Context) {
	res := Result{Seq: w.seq.Add(1), At: w.clock.Now()}

	frame, err := w.source.Frame(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		res.Err = err
		w.logger.Debug("frame unavailable", "error", err)
		w.publish(res)
		return
	}

	res.Detections, res.Err = w.detector.Detect(frame)
	if res.Err != nil {
		w.logger.Debug("detection failed", "error", res.Err)
	}
	w.publish(res)
}

// publish enqueues res, dropping the oldest queued result when full. Only
// the worker sends, so the loop ends after at most one drop per consumer
// race.
func (w *Worker) publish(res Result) {
	for {
		select {
		case w.results <- res:
			return
		default:
		}
		select {
		case <-w.results:
			w.dropped.Add(1)
		default:
		}
	}
}

// Poll returns the most recent queued result without blocking, discarding
// older ones. ok is false when nothing new arrived.
func (w *Worker) Poll() (res Result, ok bool) {
	for {
		select {
		case r := <-w.results:
			res, ok = r, true
		default:
			return res, ok
		}
	}
}

// Results exposes the result channel for consumers that want to block.
func (w *Worker) Results() <-chan Result { return w.results }

// Dropped returns how many results were discarded unread.
func (w *Worker) Dropped() uint64 { return w.dropped.Load() }
