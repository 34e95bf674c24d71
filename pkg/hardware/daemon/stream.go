package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-reachy-office/pkg/hardware"
)

// stateMessage is one frame of the daemon's full state.
type stateMessage struct {
	HeadPose         map[string]float64 `json:"head_pose,omitempty"`
	AntennasPosition []float64          `json:"antennas_position,omitempty"`
	BodyYaw          *float64           `json:"body_yaw,omitempty"`
	IMU              *hardware.IMU      `json:"imu,omitempty"`
	Timestamp        string             `json:"timestamp,omitempty"`
}

func (b *Backend) streamURL() string {
	u := b.cfg.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + PathStateStream + "?with_imu=true"
}

// subscribe dials the state stream and caches every frame until Close.
func (b *Backend) subscribe(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: b.cfg.Timeout}
	conn, _, err := dialer.DialContext(ctx, b.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("dial state stream: %w", err)
	}
	b.ws = conn
	b.done = make(chan struct{})
	go b.readLoop()
	return nil
}

func (b *Backend) readLoop() {
	defer close(b.done)
	for {
		b.ws.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, data, err := b.ws.ReadMessage()
		if err != nil {
			b.mu.Lock()
			closed := b.closed
			b.mu.Unlock()
			if !closed {
				b.logger.Warn("state stream ended", "error", err)
			}
			return
		}

		var msg stateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Debug("bad state frame", "error", err)
			continue
		}
		b.stateMu.Lock()
		b.state = &msg
		b.stateMu.Unlock()
	}
}

// Streaming reports whether a state frame has been received.
func (b *Backend) Streaming() bool {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state != nil
}
