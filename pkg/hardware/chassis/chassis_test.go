package chassis

import (
	"bufio"
	"encoding/json"
	"errors"
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

func TestSimStraightAndTurn(t *testing.T) {
	s := NewSim(pose.Pose2D{X: 1, Y: 2})

	require.NoError(t, s.SetVelocity(0.5, 0))
	for i := 0; i < 10; i++ {
		s.Advance(0.2)
	}
	p, err := s.Odometry()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, p.X, 1e-9)
	assert.InDelta(t, 2.0, p.Y, 1e-9)

	require.NoError(t, s.SetVelocity(0, math.Pi/2))
	s.Advance(1)
	p, _ = s.Odometry()
	assert.InDelta(t, math.Pi/2, p.Heading, 1e-9)
	assert.InDelta(t, 2.0, p.X, 1e-9, "turning in place must not translate")
}

func TestSimArc(t *testing.T) {
	// Quarter circle of radius 1 starting at the origin facing +x.
	s := NewSim(pose.Pose2D{})
	require.NoError(t, s.SetVelocity(math.Pi/2, math.Pi/2))
	for i := 0; i < 4; i++ {
		s.Advance(0.25)
	}
	p, _ := s.Odometry()
	assert.InDelta(t, 1.0, p.X, 1e-9)
	assert.InDelta(t, 1.0, p.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, p.Heading, 1e-9)
}

func TestSimClose(t *testing.T) {
	s := NewSim(pose.Pose2D{})
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SetVelocity(1, 0), ErrClosed)
	_, err := s.Odometry()
	assert.ErrorIs(t, err, ErrClosed)
}

// fakeBase answers the line protocol on conn until it is closed.
func fakeBase(t *testing.T, conn net.Conn) <-chan request {
	t.Helper()
	seen := make(chan request, 16)
	go func() {
		defer close(seen)
		var x, heading, v, w float64
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			var req request
			if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
				return
			}
			seen <- req

			rep := reply{OK: true}
			switch req.Cmd {
			case "vel":
				v, w = req.Linear, req.Angular
				x += v
				heading += w
			case "stop":
				v, w = 0, 0
			case "odom":
				rep.X, rep.Heading = x, heading
			default:
				rep = reply{Error: "unknown command " + req.Cmd}
			}
			data, _ := json.Marshal(rep)
			if _, err := conn.Write(append(data, '\n')); err != nil {
				return
			}
		}
	}()
	return seen
}

func TestSerialProtocol(t *testing.T) {
	host, device := net.Pipe()
	seen := fakeBase(t, device)
	c := NewSerial(host)

	require.NoError(t, c.SetVelocity(0.5, 0.25))
	require.NoError(t, c.SetVelocity(0.5, 0.25))
	p, err := c.Odometry()
	require.NoError(t, err)
	assert.Equal(t, pose.Pose2D{X: 1, Heading: 0.5}, p)
	require.NoError(t, c.Stop())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close is idempotent")
	assert.ErrorIs(t, c.Stop(), ErrClosed)

	var cmds []string
	for req := range seen {
		cmds = append(cmds, req.Cmd)
	}
	assert.Equal(t, []string{"vel", "vel", "odom", "stop"}, cmds)
}

func TestSerialRejectedCommand(t *testing.T) {
	host, device := net.Pipe()
	fakeBase(t, device)
	c := NewSerial(host)
	defer c.Close()

	_, err := c.roundTrip(request{Cmd: "dance"})
	assert.True(t, errors.Is(err, ErrCommandFailed), "err = %v", err)
}
