// Package perception runs detection off the simulation tick. A Worker polls
// a FrameSource and a Detector on its own ticker and publishes results into
// a bounded channel; the tick loop reads them with Poll, which never blocks.
package perception

import "context"

// Detection is one detected face. Coordinates are normalized to [0, 1]
// with the origin at the top-left of the image.
type Detection struct {
	X, Y       float64 // top-left corner
	W, H       float64
	Confidence float64
}

// Center returns the centre of the box.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the box area.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Detector finds faces in an encoded image.
type Detector interface {
	Detect(jpeg []byte) ([]Detection, error)
	Close() error
}

// FrameSource supplies encoded camera frames.
type FrameSource interface {
	Frame(ctx context.Context) ([]byte, error)
}

// SelectBest picks the detection with the highest
// 0.7*confidence + 0.3*relative area, or nil.
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	maxArea := 0.0
	for _, d := range dets {
		maxArea = max(maxArea, d.Area())
	}

	var best *Detection
	bestScore := -1.0
	for i := range dets {
		score := dets[i].Confidence * 0.7
		if maxArea > 0 {
			score += dets[i].Area() / maxArea * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}
	return best
}
