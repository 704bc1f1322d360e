// Package video wraps gocv video decode/encode so the cipher pipeline
// deals only in raw BGR frame.Frame values and never touches gocv.Mat
// directly.
package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/pixelguard/videocrypt/pkg/frame"
)

// Source streams decoded BGR frames from a video container.
type Source struct {
	cap *gocv.VideoCapture

	H, W int
	FPS  float64
}

// OpenSource opens path for frame-by-frame decoding via FFmpeg-backed
// gocv, capturing its frame rate and dimensions so a Sink can mirror
// them exactly.
func OpenSource(path string) (*Source, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("video: opening source %q: %w", path, err)
	}

	src := &Source{
		cap: cap,
		H:   int(cap.Get(gocv.VideoCaptureFrameHeight)),
		W:   int(cap.Get(gocv.VideoCaptureFrameWidth)),
		FPS: cap.Get(gocv.VideoCaptureFPS),
	}
	if src.H == 0 || src.W == 0 {
		cap.Close()
		return nil, fmt.Errorf("video: source %q reports zero-sized frames", path)
	}
	return src, nil
}

// Next decodes the next frame as a BGR frame.Frame. It returns (nil,
// nil) at end of stream.
func (s *Source) Next() (*frame.Frame, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	ok := s.cap.Read(&mat)
	if !ok || mat.Empty() {
		return nil, nil
	}

	f, err := frame.FromBytes(mat.Rows(), mat.Cols(), append([]byte(nil), mat.ToBytes()...))
	if err != nil {
		return nil, fmt.Errorf("video: decoding frame: %w", err)
	}
	return f, nil
}

// Close releases the underlying capture handle.
func (s *Source) Close() error {
	return s.cap.Close()
}
