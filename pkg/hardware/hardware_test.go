package hardware

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-reachy-office/pkg/pose"
)

func TestCheckMotor(t *testing.T) {
	if err := CheckMotor(pose.MotorNames, pose.BodyYaw); err != nil {
		t.Errorf("body_yaw: %v", err)
	}
	if err := CheckMotor(pose.MotorNames, "left_wheel"); !errors.Is(err, ErrUnknownMotor) {
		t.Errorf("err = %v, want ErrUnknownMotor", err)
	}
}

func TestTilt(t *testing.T) {
	tests := []struct {
		name string
		imu  IMU
		want float64
	}{
		{"level", RestingIMU(), 0},
		{"on its side", IMU{Accelerometer: [3]float64{Gravity, 0, 0}}, math.Pi / 2},
		{"upside down", IMU{Accelerometer: [3]float64{0, 0, -Gravity}}, math.Pi},
		{"free fall", IMU{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.imu.Tilt(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Tilt() = %v, want %v", got, tt.want)
			}
		})
	}
}
