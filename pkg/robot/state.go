package robot

// State is the lifecycle state of the robot.
type State int

const (
	Asleep State = iota
	AwakeIdle
	AwakeMoving
	Recording
	PlayingMotion
)

var stateNames = [...]string{
	Asleep:        "ASLEEP",
	AwakeIdle:     "AWAKE_IDLE",
	AwakeMoving:   "AWAKE_MOVING",
	Recording:     "RECORDING",
	PlayingMotion: "PLAYING_MOTION",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Awake reports whether s is one of the awake states.
func (s State) Awake() bool { return s != Asleep }

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
