package chassis

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

// DefaultBaudRate is used when no baud rate is configured.
const DefaultBaudRate = 115200

// request is one command line sent to the base controller.
type request struct {
	Cmd     string  `json:"cmd"`
	Linear  float64 `json:"linear,omitempty"`
	Angular float64 `json:"angular,omitempty"`
}

// reply is the controller's one-line answer to every request.
type reply struct {
	OK      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Serial talks to a base controller over a line-oriented JSON protocol:
//
//	-> {"cmd":"vel","linear":0.5,"angular":0.1}
//	<- {"ok":true}
//	-> {"cmd":"odom"}
//	<- {"ok":true,"x":1.2,"y":3.4,"heading":0.5}
type Serial struct {
	mu     sync.Mutex
	port   io.ReadWriteCloser
	r      *bufio.Reader
	closed bool
}

var _ Chassis = (*Serial)(nil)

// NewSerial wraps an open port.
func NewSerial(port io.ReadWriteCloser) *Serial {
	return &Serial{port: port, r: bufio.NewReader(port)}
}

// OpenSerial opens the serial device at path.
func OpenSerial(path string, baud uint) (*Serial, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(serial.OpenOptions{
		PortName:        path,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("open chassis port %s: %w", path, err)
	}
	return NewSerial(port), nil
}

func (s *Serial) SetVelocity(linear, angular float64) error {
	_, err := s.roundTrip(request{Cmd: "vel", Linear: linear, Angular: angular})
	return err
}

func (s *Serial) Stop() error {
	_, err := s.roundTrip(request{Cmd: "stop"})
	return err
}

func (s *Serial) Odometry() (pose.Pose2D, error) {
	rep, err := s.roundTrip(request{Cmd: "odom"})
	if err != nil {
		return pose.Pose2D{}, err
	}
	return pose.Pose2D{X: rep.X, Y: rep.Y, Heading: rep.Heading}, nil
}

// Close stops the base (best effort) and closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

func (s *Serial) roundTrip(req request) (reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return reply{}, ErrClosed
	}

	line, err := json.Marshal(req)
	if err != nil {
		return reply{}, err
	}
	if _, err := s.port.Write(append(line, '\n')); err != nil {
		return reply{}, fmt.Errorf("write %s: %w", req.Cmd, err)
	}

	resp, err := s.r.ReadBytes('\n')
	if err != nil {
		return reply{}, fmt.Errorf("read %s reply: %w", req.Cmd, err)
	}
	var rep reply
	if err := json.Unmarshal(resp, &rep); err != nil {
		return reply{}, fmt.Errorf("decode %s reply %q: %w", req.Cmd, resp, err)
	}
	if !rep.OK {
		return rep, fmt.Errorf("%w: %s: %s", ErrCommandFailed, req.Cmd, rep.Error)
	}
	return rep, nil
}
