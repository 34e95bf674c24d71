// Package yunet detects faces with OpenCV's YuNet model through gocv, and
// reads frames from a local camera.
package yunet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-reachy-office/pkg/perception"
)

// Config holds detector settings.
type Config struct {
	ModelPath        string  // ONNX model
	ConfidenceThresh float64 // minimum face score
	InputWidth       int
	InputHeight      int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// Detector wraps gocv.FaceDetectorYN.
type Detector struct {
	mu       sync.Mutex
	detector gocv.FaceDetectorYN
	closed   bool
}

var _ perception.Detector = (*Detector)(nil)

// New loads the model at cfg.ModelPath.
func New(cfg Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yunet model: %w", err)
	}

	det := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	return &Detector{detector: det}, nil
}

// Detect decodes jpeg and returns normalized face boxes.
func (d *Detector) Detect(jpeg []byte) ([]perception.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("yunet: detector closed")
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, errors.New("decode image: empty")
	}

	w, h := float64(img.Cols()), float64(img.Rows())
	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(img, &faces)

	// Each row: x, y, w, h, five landmark pairs, score.
	dets := make([]perception.Detection, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		dets = append(dets, perception.Detection{
			X:          float64(faces.GetFloatAt(r, 0)) / w,
			Y:          float64(faces.GetFloatAt(r, 1)) / h,
			W:          float64(faces.GetFloatAt(r, 2)) / w,
			H:          float64(faces.GetFloatAt(r, 3)) / h,
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}
	return dets, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}

// Camera reads frames from a local capture device and encodes them as JPEG.
type Camera struct {
	mu  sync.Mutex
	cap *gocv.VideoCapture
	mat gocv.Mat
}

var _ perception.FrameSource = (*Camera)(nil)

// OpenCamera opens a device id ("0") or a stream URL.
func OpenCamera(device string) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", device, err)
	}
	return &Camera{cap: vc, mat: gocv.NewMat()}, nil
}

func (c *Camera) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, errors.New("camera: no frame")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.mat.Close(), c.cap.Close())
}
