// Package daemon drives a physical Reachy Mini through its daemon's HTTP
// API, with an optional websocket state stream for sensor readings and an
// optional chassis for the mobile base.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"

	"github.com/teslashibe/go-reachy-office/internal/httpc"
	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/hardware/chassis"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Daemon API paths.
const (
	PathStatus      = "/api/daemon/status"
	PathSetTarget   = "/api/move/set_target"
	PathWakeUp      = "/api/move/play/wake_up"
	PathGotoSleep   = "/api/move/play/goto_sleep"
	PathMotorMode   = "/api/motors/set_mode/"
	PathState       = "/api/state/full"
	PathStateStream = "/api/state/ws/full"
)

// Motor modes accepted by PathMotorMode.
const (
	ModeEnabled             = "enabled"
	ModeDisabled            = "disabled"
	ModeGravityCompensation = "gravity_compensation"
)

// Config configures the daemon backend.
type Config struct {
	BaseURL     string        // e.g. http://192.168.1.50:8000
	Timeout     time.Duration // per request
	StateStream bool          // subscribe to the websocket state stream
	CellSize    float64       // metres per grid cell, for chassis commands
	Chassis     chassis.Chassis
	HTTPClient  *http.Client
}

// DefaultConfig returns defaults for a daemon at baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Timeout:  2 * time.Second,
		CellSize: 0.5,
	}
}

// Backend implements hardware.Backend against the Reachy daemon.
type Backend struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu       sync.Mutex
	motors   map[string]bool
	gravity  bool
	lastSent *setTargetRequest
	lastVel  *pose.Twist
	closed   bool

	stateMu sync.RWMutex
	state   *stateMessage

	ws   *websocket.Conn
	done chan struct{}
}

var _ hardware.Backend = (*Backend)(nil)

// Connect checks that the daemon answers and returns a backend. An
// unreachable daemon fails with hardware.ErrNotConnected.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = log.Component("daemon")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = 0.5
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	client := cfg.HTTPClient
	if client == nil {
		client = httpc.NewClient(cfg.Timeout)
	}

	b := &Backend{
		cfg:    cfg,
		client: client,
		logger: logger,
		motors: make(map[string]bool, len(pose.MotorNames)),
	}

	status, err := b.status(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", hardware.ErrNotConnected, cfg.BaseURL, err)
	}
	logger.Info("connected to daemon", "url", cfg.BaseURL, "state", status)

	if cfg.StateStream {
		if err := b.subscribe(ctx); err != nil {
			// sensors fall back to polling
			logger.Warn("state stream unavailable", "error", err)
		}
	}
	return b, nil
}

func (b *Backend) Name() string { return "daemon" }

func (b *Backend) Motors() []string { return slices.Clone(pose.MotorNames) }

func (b *Backend) url(path string) string { return b.cfg.BaseURL + path }

func (b *Backend) post(path string, in any) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
	defer cancel()
	if err := httpc.PostJSON(ctx, b.client, b.url(path), in, nil); err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return nil
}

// status returns the daemon state string.
func (b *Backend) status(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()
	var st struct {
		State string `json:"state"`
	}
	if err := httpc.GetJSON(ctx, b.client, b.url(PathStatus), &st); err != nil {
		return "", err
	}
	return st.State, nil
}

// Status queries the daemon state.
func (b *Backend) Status(ctx context.Context) (string, error) {
	return b.status(ctx)
}

type xyzrpy struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type setTargetRequest struct {
	Head     *xyzrpy     `json:"target_head_pose,omitempty"`
	Antennas *[2]float64 `json:"target_antennas,omitempty"`
	BodyYaw  *float64    `json:"target_body_yaw,omitempty"`
}

// Dead-zone thresholds: targets closer than this to the last one sent are
// skipped to keep the daemon from being flooded while idle.
const (
	DeadZoneHeadRad    = 0.005
	DeadZoneHeadM      = 0.0005
	DeadZoneAntennaRad = 0.009
	DeadZoneBodyRad    = 0.009
)

func (r *setTargetRequest) withinDeadZone(last *setTargetRequest) bool {
	if last == nil {
		return false
	}
	if (r.Head == nil) != (last.Head == nil) {
		return false
	}
	if r.Head != nil {
		a, b := r.Head, last.Head
		if maxAbs(a.Roll-b.Roll, a.Pitch-b.Pitch, a.Yaw-b.Yaw) >= DeadZoneHeadRad ||
			maxAbs(a.X-b.X, a.Y-b.Y, a.Z-b.Z) >= DeadZoneHeadM {
			return false
		}
	}
	return maxAbs(r.Antennas[0]-last.Antennas[0], r.Antennas[1]-last.Antennas[1]) < DeadZoneAntennaRad &&
		maxAbs(*r.BodyYaw-*last.BodyYaw) < DeadZoneBodyRad
}

func maxAbs(vs ...float64) float64 {
	m := 0.0
	for _, v := range vs {
		m = max(m, math.Abs(v))
	}
	return m
}

func newSetTarget(cfg pose.JointConfiguration) *setTargetRequest {
	antennas, yaw := cfg.Antennas, cfg.BodyYaw
	req := &setTargetRequest{Antennas: &antennas, BodyYaw: &yaw}
	if !cfg.Head.IsZero() {
		t := cfg.Head.Translation()
		roll, pitch, hy := cfg.Head.Euler()
		req.Head = &xyzrpy{X: t[0], Y: t[1], Z: t[2], Roll: roll, Pitch: pitch, Yaw: hy}
	}
	return req
}

// ApplyTarget sends cfg to the daemon. A configuration within the dead zone
// of the last one sent is skipped. Extra named joints are not supported by the
// daemon and are ignored.
func (b *Backend) ApplyTarget(cfg pose.JointConfiguration) error {
	req := newSetTarget(cfg)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return hardware.ErrNotConnected
	}
	if req.withinDeadZone(b.lastSent) {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.post(PathSetTarget, req); err != nil {
		return err
	}

	b.mu.Lock()
	b.lastSent = req
	b.mu.Unlock()
	return nil
}

// Drive forwards the base command to the chassis, converting cells/s to
// m/s. Without a chassis the command is dropped.
func (b *Backend) Drive(cmd pose.Twist, dt float64) error {
	if b.cfg.Chassis == nil {
		return nil
	}
	b.mu.Lock()
	same := b.lastVel != nil && *b.lastVel == cmd
	b.mu.Unlock()
	if same {
		return nil
	}

	var err error
	if cmd.IsZero() {
		err = b.cfg.Chassis.Stop()
	} else {
		err = b.cfg.Chassis.SetVelocity(cmd.Linear*b.cfg.CellSize, cmd.Angular)
	}
	if err != nil {
		return fmt.Errorf("chassis: %w", err)
	}

	b.mu.Lock()
	b.lastVel = &cmd
	b.mu.Unlock()
	return nil
}

func (b *Backend) WakeUp() error {
	if err := b.post(PathWakeUp, nil); err != nil {
		return err
	}
	b.setAll(true)
	return nil
}

func (b *Backend) Sleep() error {
	var err error
	if b.cfg.Chassis != nil {
		err = multierr.Append(err, b.Drive(pose.Twist{}, 0))
	}
	if perr := b.post(PathGotoSleep, nil); perr != nil {
		return multierr.Append(err, perr)
	}
	b.setAll(false)
	return err
}

func (b *Backend) setAll(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range pose.MotorNames {
		b.motors[name] = enabled
	}
	b.lastSent = nil
}

// SetMotorEnabled records the motor state and switches the daemon's motor
// mode. The daemon controls motors as a group, so torque stays on while any
// motor is enabled.
func (b *Backend) SetMotorEnabled(name string, enabled bool) error {
	if err := hardware.CheckMotor(pose.MotorNames, name); err != nil {
		return err
	}

	b.mu.Lock()
	b.motors[name] = enabled
	anyOn := false
	for _, on := range b.motors {
		anyOn = anyOn || on
	}
	gravity := b.gravity
	b.mu.Unlock()

	mode := ModeDisabled
	switch {
	case gravity:
		mode = ModeGravityCompensation
	case anyOn:
		mode = ModeEnabled
	}
	return b.post(PathMotorMode+mode, nil)
}

func (b *Backend) SetGravityCompensation(enabled bool) error {
	mode := ModeEnabled
	if enabled {
		mode = ModeGravityCompensation
	}
	if err := b.post(PathMotorMode+mode, nil); err != nil {
		return err
	}
	b.mu.Lock()
	b.gravity = enabled
	b.mu.Unlock()
	return nil
}

// IMU returns the latest streamed reading, or polls the daemon when no
// stream is active.
func (b *Backend) IMU() (hardware.IMU, error) {
	b.stateMu.RLock()
	st := b.state
	b.stateMu.RUnlock()
	if st != nil && st.IMU != nil {
		return *st.IMU, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
	defer cancel()
	var polled stateMessage
	if err := httpc.GetJSON(ctx, b.client, b.url(PathState)+"?with_imu=true", &polled); err != nil {
		return hardware.IMU{}, fmt.Errorf("%w: %v", hardware.ErrNotConnected, err)
	}
	if polled.IMU == nil {
		return hardware.RestingIMU(), nil
	}
	return *polled.IMU, nil
}

// Close stops the chassis and the state stream. Safe to call twice.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var err error
	if b.cfg.Chassis != nil {
		err = multierr.Append(err, b.cfg.Chassis.Stop())
		err = multierr.Append(err, b.cfg.Chassis.Close())
	}
	if b.ws != nil {
		err = multierr.Append(err, b.ws.Close())
		<-b.done
	}
	return err
}
