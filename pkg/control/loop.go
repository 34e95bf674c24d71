// Package control drives the robot from a single clock. Each step polls
// perception without waiting, optionally steers the gaze toward the best
// detection, advances the robot by a fixed dt and hands a state summary to
// a publisher.
package control

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/perception"
	"github.com/teslashibe/go-reachy-office/pkg/robot"
)

// Robot is what the loop needs from the robot.
type Robot interface {
	robot.Ticker
	robot.Gaze
	robot.StateReader
	State() robot.State
	IMU() (hardware.IMU, error)
}

// Publisher receives state summaries. Publish must not block.
type Publisher interface {
	Publish(s robot.Summary)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(robot.Summary)

func (f PublisherFunc) Publish(s robot.Summary) { f(s) }

// Config tunes the loop.
type Config struct {
	Hz              float64      // steps per second
	TrackFaces      bool         // gaze at the best detection while idle
	GazeMinInterval float64      // simulated seconds between gaze commands
	Camera          robot.Camera // maps normalized detections to pixels
	IMUEvery        int          // read the IMU every N steps (0 disables)
	PublishEvery    int          // publish every N steps
	ErrorLogEvery   uint64       // log one of every N tick errors
}

// DefaultConfig returns a 50 Hz loop publishing at 10 Hz.
func DefaultConfig() Config {
	return Config{
		Hz:              50,
		TrackFaces:      true,
		GazeMinInterval: 1.0,
		Camera:          robot.DefaultCamera(),
		IMUEvery:        10,
		PublishEvery:    5,
		ErrorLogEvery:   100,
	}
}

// Stats counts loop activity.
type Stats struct {
	Steps   uint64  `json:"steps"`
	Errors  uint64  `json:"errors"`
	Gazes   uint64  `json:"gazes"`
	Elapsed float64 `json:"elapsed"`
}

// Loop is the single driver of robot time.
type Loop struct {
	robot  Robot
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	mu        sync.Mutex
	worker    *perception.Worker
	publisher Publisher
	stats     Stats
	lastGaze  float64
	gazed     bool
}

// New creates a loop. A nil clock uses the wall clock.
func New(r Robot, cfg Config, clk clock.Clock, logger *slog.Logger) *Loop {
	def := DefaultConfig()
	if cfg.Hz <= 0 {
		cfg.Hz = def.Hz
	}
	if cfg.PublishEvery <= 0 {
		cfg.PublishEvery = 1
	}
	if cfg.ErrorLogEvery == 0 {
		cfg.ErrorLogEvery = def.ErrorLogEvery
	}
	if cfg.Camera == (robot.Camera{}) {
		cfg.Camera = def.Camera
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = log.Component("control")
	}
	return &Loop{robot: r, cfg: cfg, clock: clk, logger: logger}
}

// SetPerception attaches a perception worker. Run starts it.
func (l *Loop) SetPerception(w *perception.Worker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.worker = w
}

// SetPublisher attaches a summary publisher.
func (l *Loop) SetPublisher(p Publisher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publisher = p
}

// Interval returns the wall-clock step period.
func (l *Loop) Interval() time.Duration {
	return time.Duration(float64(time.Second) / l.cfg.Hz)
}

// Dt returns the simulated step length in seconds.
func (l *Loop) Dt() float64 { return 1 / l.cfg.Hz }

// Stats returns a copy of the counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Step runs one control cycle of dt seconds. A robot tick error is
// returned after the summary is published.
func (l *Loop) Step(dt float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.worker != nil {
		if res, ok := l.worker.Poll(); ok {
			l.react(res)
		}
	}

	err := l.robot.Tick(dt)
	l.stats.Steps++
	l.stats.Elapsed += dt
	if err != nil {
		l.stats.Errors++
		if l.stats.Errors%l.cfg.ErrorLogEvery == 1 {
			l.logger.Warn("tick failed", "error", err, "errors", l.stats.Errors)
		}
	}

	if l.cfg.IMUEvery > 0 && l.stats.Steps%uint64(l.cfg.IMUEvery) == 0 {
		if _, ierr := l.robot.IMU(); ierr != nil {
			l.logger.Debug("imu read failed", "error", ierr)
		}
	}
	if l.publisher != nil && l.stats.Steps%uint64(l.cfg.PublishEvery) == 0 {
		l.publisher.Publish(l.robot.Summary())
	}
	return err
}

// react turns a perception result into a gaze command when the robot is
// idle and the last gaze is old enough.
func (l *Loop) react(res perception.Result) {
	if !l.cfg.TrackFaces || res.Err != nil {
		return
	}
	best := res.Best()
	if best == nil || l.robot.State() != robot.AwakeIdle {
		return
	}
	if l.gazed && l.stats.Elapsed-l.lastGaze < l.cfg.GazeMinInterval {
		return
	}

	cx, cy := best.Center()
	u, v := cx*float64(l.cfg.Camera.Width), cy*float64(l.cfg.Camera.Height)
	if err := l.robot.LookAtImage(u, v); err != nil {
		l.logger.Debug("gaze failed", "error", err)
		return
	}
	l.gazed = true
	l.lastGaze = l.stats.Elapsed
	l.stats.Gazes++
	l.logger.Debug("gaze toward face", "u", u, "v", v, "confidence", best.Confidence)
}

// Run steps at the configured rate until ctx is done, starting the
// perception worker alongside. Every step advances the robot by exactly
// Dt regardless of scheduling jitter.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	worker := l.worker
	l.mu.Unlock()

	var wg sync.WaitGroup
	if worker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				l.logger.Error("perception worker failed", "error", err)
			}
		}()
	}
	defer wg.Wait()

	ticker := l.clock.Ticker(l.Interval())
	defer ticker.Stop()

	l.logger.Info("control loop started", "hz", l.cfg.Hz)
	dt := l.Dt()
	for {
		select {
		case <-ctx.Done():
			st := l.Stats()
			l.logger.Info("control loop stopped", "steps", st.Steps, "errors", st.Errors)
			return nil
		case <-ticker.C:
			_ = l.Step(dt)
		}
	}
}
