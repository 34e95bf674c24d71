// Package config loads runtime configuration for the office simulator.
//
// Values come from built-in defaults, an optional YAML file and environment
// variables prefixed with REACHY_ (for example REACHY_MODE=real or
// REACHY_NAV_SPEED=2). ROBOT_IP is honoured for the robot address.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend modes.
const (
	ModeMock = "mock"
	ModeReal = "real"
)

// DefaultRobotPort is the Reachy daemon HTTP port.
const DefaultRobotPort = 8000

// Config holds application configuration.
type Config struct {
	Mode       string           `mapstructure:"mode"`
	LogLevel   string           `mapstructure:"log_level"`
	Tick       TickConfig       `mapstructure:"tick"`
	Map        MapConfig        `mapstructure:"map"`
	Nav        NavConfig        `mapstructure:"nav"`
	Motion     MotionConfig     `mapstructure:"motion"`
	Robot      RobotConfig      `mapstructure:"robot"`
	Chassis    ChassisConfig    `mapstructure:"chassis"`
	Perception PerceptionConfig `mapstructure:"perception"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// TickConfig sets the simulation clock rate.
type TickConfig struct {
	Hz float64 `mapstructure:"hz"`
}

// Interval returns the tick period.
func (t TickConfig) Interval() time.Duration {
	if t.Hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / t.Hz)
}

// MapConfig locates the office map. An empty path selects the built-in office.
type MapConfig struct {
	Path string `mapstructure:"path"`
}

// NavConfig holds path follower settings. Distances are in grid cells.
type NavConfig struct {
	Speed            float64 `mapstructure:"speed"`
	MaxAngularSpeed  float64 `mapstructure:"max_angular_speed"`
	ArrivalTolerance float64 `mapstructure:"arrival_tolerance"`
	HeadingTolerance float64 `mapstructure:"heading_tolerance"`
}

// MotionConfig holds recording and playback settings.
type MotionConfig struct {
	Dir            string  `mapstructure:"dir"`
	SampleHz       float64 `mapstructure:"sample_hz"`
	PlaybackMethod string  `mapstructure:"playback_method"`
	GazeMethod     string  `mapstructure:"gaze_method"`
	GazeDuration   float64 `mapstructure:"gaze_duration"`
}

// RobotConfig holds the physical robot address and the starting pose.
type RobotConfig struct {
	IP           string  `mapstructure:"ip"`
	Port         int     `mapstructure:"port"`
	StartX       float64 `mapstructure:"start_x"`
	StartY       float64 `mapstructure:"start_y"`
	StartHeading float64 `mapstructure:"start_heading"`
	StartAsleep  bool    `mapstructure:"start_asleep"`
	StateStream  bool    `mapstructure:"state_stream"`
}

// APIURL returns the robot HTTP API base URL.
func (r RobotConfig) APIURL() string {
	port := r.Port
	if port == 0 {
		port = DefaultRobotPort
	}
	return fmt.Sprintf("http://%s:%d", r.IP, port)
}

// ChassisConfig selects the serial chassis. An empty port means no chassis.
type ChassisConfig struct {
	Port string `mapstructure:"port"`
	Baud uint   `mapstructure:"baud"`
}

// PerceptionConfig controls the background detection worker.
type PerceptionConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Device    string        `mapstructure:"device"`
	ModelPath string        `mapstructure:"model_path"`
	Interval  time.Duration `mapstructure:"interval"`
	Buffer    int           `mapstructure:"buffer"`
}

// TelemetryConfig controls the HTTP/websocket state publisher.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeMock)
	v.SetDefault("log_level", "info")
	v.SetDefault("tick.hz", 50.0)
	v.SetDefault("map.path", "")
	v.SetDefault("nav.speed", 2.0)
	v.SetDefault("nav.max_angular_speed", 2.0)
	v.SetDefault("nav.arrival_tolerance", 0.05)
	v.SetDefault("nav.heading_tolerance", 0.02)
	v.SetDefault("motion.dir", "moves")
	v.SetDefault("motion.sample_hz", 50.0)
	v.SetDefault("motion.playback_method", "linear")
	v.SetDefault("motion.gaze_method", "minimum_jerk")
	v.SetDefault("motion.gaze_duration", 0.5)
	v.SetDefault("robot.ip", "")
	v.SetDefault("robot.port", DefaultRobotPort)
	v.SetDefault("robot.start_x", 2.0)
	v.SetDefault("robot.start_y", 9.0)
	v.SetDefault("robot.start_heading", 0.0)
	v.SetDefault("robot.start_asleep", false)
	v.SetDefault("robot.state_stream", true)
	v.SetDefault("chassis.port", "")
	v.SetDefault("chassis.baud", 115200)
	v.SetDefault("perception.enabled", false)
	v.SetDefault("perception.device", "0")
	v.SetDefault("perception.model_path", "models/face_detection_yunet_2023mar.onnx")
	v.SetDefault("perception.interval", 200*time.Millisecond)
	v.SetDefault("perception.buffer", 4)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.addr", ":8080")
}

// Load reads configuration from file and env. The file is REACHY_CONFIG if
// set, otherwise officesim.yaml in the working directory when present.
func Load() (Config, error) {
	return LoadFile(os.Getenv("REACHY_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path falls
// back to an optional officesim.yaml.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("officesim")
	}

	v.SetEnvPrefix("REACHY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("robot.ip", "REACHY_ROBOT_IP", "ROBOT_IP"); err != nil {
		return Config{}, fmt.Errorf("bind robot ip: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit path must exist; the implicit one is optional.
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeMock:
	case ModeReal:
		if c.Robot.IP == "" {
			return fmt.Errorf("config: mode %q requires robot.ip (or ROBOT_IP)", c.Mode)
		}
	default:
		return fmt.Errorf("config: unknown mode %q (want %q or %q)", c.Mode, ModeMock, ModeReal)
	}
	if c.Tick.Hz <= 0 {
		return fmt.Errorf("config: tick.hz must be positive, got %v", c.Tick.Hz)
	}
	if c.Nav.Speed <= 0 {
		return fmt.Errorf("config: nav.speed must be positive, got %v", c.Nav.Speed)
	}
	if c.Motion.SampleHz <= 0 {
		return fmt.Errorf("config: motion.sample_hz must be positive, got %v", c.Motion.SampleHz)
	}
	return nil
}
