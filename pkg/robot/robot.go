package robot

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/teslashibe/go-reachy-office/internal/log"
	"github.com/teslashibe/go-reachy-office/pkg/hardware"
	"github.com/teslashibe/go-reachy-office/pkg/interp"
	"github.com/teslashibe/go-reachy-office/pkg/motion"
	"github.com/teslashibe/go-reachy-office/pkg/nav"
	"github.com/teslashibe/go-reachy-office/pkg/officemap"
	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// Config configures a Robot.
type Config struct {
	Start       pose.Pose2D
	StartAsleep bool

	Nav    nav.Config
	Limits pose.Limits
	Camera Camera

	SampleHz       float64       // recording rate
	PlaybackMethod interp.Method // blend between recorded keyframes
	GazeDuration   float64       // seconds per gaze shift
	GazeMethod     interp.Method

	// Clock stamps recordings. Nil uses the wall clock.
	Clock clock.Clock
}

// DefaultConfig returns the default robot configuration, awake at start.
func DefaultConfig() Config {
	return Config{
		Nav:            nav.DefaultConfig(),
		Limits:         pose.DefaultLimits(),
		Camera:         DefaultCamera(),
		SampleHz:       motion.DefaultSampleRate,
		PlaybackMethod: interp.Linear,
		GazeDuration:   0.5,
		GazeMethod:     interp.MinimumJerk,
	}
}

// Robot is the single owner of the robot state. All methods are safe for
// concurrent use; state changes only happen through them.
type Robot struct {
	cfg     Config
	backend hardware.Backend
	logger  *slog.Logger

	mu        sync.Mutex
	navigator *nav.Navigator
	animator  interp.Animator
	recorder  *motion.Recorder
	player    *motion.Player

	state   State
	joints  pose.JointConfiguration
	motors  map[string]bool
	gravity bool
	imu     hardware.IMU
	closed  bool
}

// New creates a robot on m driving backend. Unless cfg.StartAsleep is set
// the backend is woken up; a failure there is returned and the robot is not
// usable.
func New(m *officemap.Map, backend hardware.Backend, cfg Config, logger *slog.Logger) (*Robot, error) {
	if m == nil {
		return nil, errors.New("robot: nil map")
	}
	if backend == nil {
		return nil, fmt.Errorf("robot: %w: nil backend", hardware.ErrNotConnected)
	}
	if logger == nil {
		logger = log.Component("robot")
	}
	if cfg.Camera == (Camera{}) {
		cfg.Camera = DefaultCamera()
	}
	if cfg.Limits.Joints == nil {
		cfg.Limits.Joints = map[string]pose.Range{}
	}

	r := &Robot{
		cfg:       cfg,
		backend:   backend,
		logger:    logger,
		navigator: nav.New(m, cfg.Nav, cfg.Start, logger.With("component", "nav")),
		recorder:  motion.NewRecorder(cfg.SampleHz, cfg.Clock),
		player:    motion.NewPlayer(cfg.PlaybackMethod),
		state:     Asleep,
		joints:    pose.Neutral(),
		motors:    make(map[string]bool),
		imu:       hardware.RestingIMU(),
	}
	for _, name := range backend.Motors() {
		r.motors[name] = false
	}

	if !cfg.StartAsleep {
		if err := r.wakeLocked(); err != nil {
			return nil, fmt.Errorf("wake %s backend: %w", backend.Name(), err)
		}
	}
	logger.Info("robot ready", "backend", backend.Name(), "state", r.state.String(), "pose", cfg.Start.String())
	return r, nil
}

// Backend returns the hardware backend.
func (r *Robot) Backend() hardware.Backend { return r.backend }

// Map returns the office map.
func (r *Robot) Map() *officemap.Map { return r.navigator.Map() }

// State returns the lifecycle state.
func (r *Robot) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// WakeUp moves ASLEEP to AWAKE_IDLE and enables all motors. It is a no-op
// when already awake.
func (r *Robot) WakeUp() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.state.Awake() {
		return nil
	}
	return r.wakeLocked()
}

func (r *Robot) wakeLocked() error {
	if err := r.backend.WakeUp(); err != nil {
		return err
	}
	for name := range r.motors {
		r.motors[name] = true
	}
	r.transition(AwakeIdle)
	return nil
}

// GotoSleep moves any awake state to ASLEEP and disables all motors. An
// active navigation is cancelled. Recording or playback must be stopped
// first.
func (r *Robot) GotoSleep() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	switch r.state {
	case Asleep:
		return nil
	case Recording, PlayingMotion:
		return fmt.Errorf("%w: cannot sleep while %s", ErrInvalidStateTransition, r.state)
	}

	var err error
	if r.state == AwakeMoving {
		r.navigator.Cancel()
		err = multierr.Append(err, r.backend.Drive(pose.Twist{}, 0))
	}
	r.animator.Cancel()
	if serr := r.backend.Sleep(); serr != nil {
		return multierr.Append(err, serr)
	}
	for name := range r.motors {
		r.motors[name] = false
	}
	r.transition(Asleep)
	return err
}

func (r *Robot) transition(to State) {
	if r.state == to {
		return
	}
	r.logger.Info("state changed", "from", r.state.String(), "to", to.String())
	r.state = to
}

// exclusive checks that a navigation, recording or playback can start.
// Navigation may supersede itself when allowMoving is set.
func (r *Robot) exclusive(op string, allowMoving bool) error {
	if r.closed {
		return ErrClosed
	}
	switch r.state {
	case Asleep:
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidStateTransition, op, r.state)
	case AwakeIdle:
		return nil
	case AwakeMoving:
		if allowMoving {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrBusy, op, r.state)
}

// Pose returns the chassis pose in grid cells.
func (r *Robot) Pose() pose.Pose2D {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigator.Pose()
}

// MoveTo plans from the current pose to the walkable cell nearest (x, y)
// and starts following the path. A navigation in progress is superseded.
func (r *Robot) MoveTo(x, y float64) (*nav.Path, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.exclusive("navigate", true); err != nil {
		return nil, err
	}
	path, err := r.navigator.MoveTo(x, y)
	if err != nil {
		return nil, err
	}
	r.startedMoving()
	return path, nil
}

// NavigateTo is MoveTo toward a named map location.
func (r *Robot) NavigateTo(location string) (*nav.Path, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.exclusive("navigate", true); err != nil {
		return nil, err
	}
	path, err := r.navigator.NavigateTo(location)
	if err != nil {
		return nil, err
	}
	r.startedMoving()
	return path, nil
}

func (r *Robot) startedMoving() {
	if r.navigator.IsNavigating() {
		r.transition(AwakeMoving)
		return
	}
	// already at the goal
	r.transition(AwakeIdle)
}

// CancelNavigation stops the chassis and returns to AWAKE_IDLE. It is a
// no-op when not navigating.
func (r *Robot) CancelNavigation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != AwakeMoving {
		return
	}
	r.navigator.Cancel()
	if err := r.backend.Drive(pose.Twist{}, 0); err != nil {
		r.logger.Warn("stop chassis failed", "error", err)
	}
	r.transition(AwakeIdle)
}

// StartMotionRecording begins sampling the joint configuration on every
// tick. An empty name is replaced by a generated one.
func (r *Robot) StartMotionRecording(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.exclusive("record", false); err != nil {
		return err
	}
	if err := r.recorder.Start(name, r.joints); err != nil {
		return err
	}
	r.transition(Recording)
	return nil
}

// StopMotionRecording finalizes the recording. The robot returns to
// AWAKE_IDLE even when the recording is rejected as too short.
func (r *Robot) StopMotionRecording() (*motion.Move, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if r.state != Recording {
		return nil, fmt.Errorf("%w: not recording (%s)", ErrInvalidStateTransition, r.state)
	}
	m, err := r.recorder.Stop()
	r.transition(AwakeIdle)
	if err != nil {
		return nil, err
	}
	r.logger.Info("recording finished", "move", m.String())
	return m, nil
}

// PlayMotion replays m at speed (1 is real time). Any running joint
// trajectory is abandoned.
func (r *Robot) PlayMotion(m *motion.Move, speed float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.exclusive("play", false); err != nil {
		return err
	}
	if err := r.player.Play(m, speed); err != nil {
		return err
	}
	r.animator.Cancel()
	r.transition(PlayingMotion)
	r.logger.Info("playing move", "move", m.String(), "speed", speed)
	return nil
}

// StopMotion ends playback, keeping the last pushed configuration.
func (r *Robot) StopMotion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != PlayingMotion {
		return
	}
	r.player.Stop()
	r.transition(AwakeIdle)
}

// IsMotionPlaying reports whether a move is being played.
func (r *Robot) IsMotionPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == PlayingMotion
}

// SetTarget applies t immediately, cancelling any joint trajectory. It is
// silently skipped while asleep.
func (r *Robot) SetTarget(t pose.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if !r.state.Awake() {
		r.logger.Debug("set_target skipped while asleep")
		return nil
	}
	r.animator.Cancel()
	return r.applyLocked(t.Apply(r.joints))
}

// GotoTarget moves smoothly to t over duration seconds. It is silently
// skipped while asleep and refused while a move is playing.
func (r *Robot) GotoTarget(t pose.Target, duration float64, method interp.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gotoLocked(t, duration, method)
}

func (r *Robot) gotoLocked(t pose.Target, duration float64, method interp.Method) error {
	if r.closed {
		return ErrClosed
	}
	if !r.state.Awake() {
		r.logger.Debug("goto_target skipped while asleep")
		return nil
	}
	if r.state == PlayingMotion {
		return fmt.Errorf("%w: cannot goto target while %s", ErrBusy, r.state)
	}

	end := r.clamp(t.Apply(r.joints))
	traj, err := interp.NewTrajectory(r.joints, end, duration, method)
	if err != nil {
		return err
	}
	r.animator.Start(traj)
	return nil
}

// CurrentJointPositions returns a copy of the current configuration.
func (r *Robot) CurrentJointPositions() pose.JointConfiguration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joints.Clone()
}

// clamp restricts cfg to the joint limits, warning when a value had to be
// moved.
func (r *Robot) clamp(cfg pose.JointConfiguration) pose.JointConfiguration {
	clamped, err := r.cfg.Limits.Clamp(cfg)
	var le *pose.LimitError
	if errors.As(err, &le) {
		r.logger.Warn("joint limit exceeded, clamped", "joints", le.Joints)
	}
	return clamped
}

// applyLocked clamps cfg, makes it current and sends it to the backend.
func (r *Robot) applyLocked(cfg pose.JointConfiguration) error {
	r.joints = r.clamp(cfg)
	if err := r.backend.ApplyTarget(r.joints); err != nil {
		return fmt.Errorf("apply target: %w", err)
	}
	return nil
}

// Tick advances the robot by dt seconds: chassis first, then the joint
// trajectory, then playback, then recording. Backend failures are returned
// but do not stop the other sub-updates.
func (r *Robot) Tick(dt float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if dt <= 0 || !r.state.Awake() {
		return nil
	}

	var err error
	if r.state == AwakeMoving {
		moving := r.navigator.UpdatePosition(dt)
		err = multierr.Append(err, r.backend.Drive(r.navigator.Command(), dt))
		if !moving {
			err = multierr.Append(err, r.backend.Drive(pose.Twist{}, 0))
			r.transition(AwakeIdle)
		}
	}

	if cfg, ok := r.animator.Tick(dt); ok {
		err = multierr.Append(err, r.applyLocked(cfg))
	}

	if r.state == PlayingMotion {
		if cfg, ok := r.player.Tick(dt); ok {
			err = multierr.Append(err, r.applyLocked(cfg))
		}
		if !r.player.Playing() {
			r.logger.Info("playback finished")
			r.transition(AwakeIdle)
		}
	}

	if r.state == Recording {
		r.recorder.Tick(dt, r.joints)
	}
	return err
}

// SetMotorEnabled enables or disables one motor.
func (r *Robot) SetMotorEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, ok := r.motors[name]; !ok {
		return fmt.Errorf("%w: %q", hardware.ErrUnknownMotor, name)
	}
	if err := r.backend.SetMotorEnabled(name, enabled); err != nil {
		return err
	}
	r.motors[name] = enabled
	return nil
}

// MotorEnabled reports whether a motor is enabled.
func (r *Robot) MotorEnabled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.motors[name]
}

// EnabledMotors returns the enabled motor names, sorted.
func (r *Robot) EnabledMotors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabledLocked()
}

func (r *Robot) enabledLocked() []string {
	var out []string
	for name, on := range r.motors {
		if on {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// SetGravityCompensation toggles gravity compensation.
func (r *Robot) SetGravityCompensation(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.backend.SetGravityCompensation(enabled); err != nil {
		return err
	}
	r.gravity = enabled
	return nil
}

// GravityCompensation reports whether gravity compensation is on.
func (r *Robot) GravityCompensation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gravity
}

// IMU reads the inertial sensor and caches the reading for summaries.
func (r *Robot) IMU() (hardware.IMU, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return hardware.IMU{}, ErrClosed
	}
	m, err := r.backend.IMU()
	if err != nil {
		return hardware.IMU{}, err
	}
	r.imu = m
	return m, nil
}

// Close stops any activity and releases the backend. It is idempotent.
func (r *Robot) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	switch r.state {
	case AwakeMoving:
		r.navigator.Cancel()
		err = multierr.Append(err, r.backend.Drive(pose.Twist{}, 0))
	case Recording:
		r.recorder.Discard()
	case PlayingMotion:
		r.player.Stop()
	}
	r.animator.Cancel()
	err = multierr.Append(err, r.backend.Close())
	r.logger.Info("robot closed", "state", r.state.String())
	return err
}
