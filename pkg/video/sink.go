package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/pixelguard/videocrypt/pkg/frame"
)

// Codec names the fourccs the pipeline writes with. HFYU (Huffman
// lossless) is always used for encrypted output: ciphertext bytes must
// survive container re-encoding exactly or the cipher's per-frame
// hash/seed keys stop matching. Decrypted output defaults to the same
// lossless treatment but may use mp4v instead, a smaller and directly
// playable container for callers who only need the recovered video to
// look right, not match the source byte for byte.
type Codec string

const (
	CodecLosslessHFYU Codec = "HFYU"
	CodecMP4V         Codec = "mp4v"
)

// Sink writes BGR frame.Frame values to a video container.
type Sink struct {
	writer *gocv.VideoWriter
}

// OpenSink creates path for writing h x w BGR frames at fps, encoded
// with codec.
func OpenSink(path string, codec Codec, fps float64, h, w int) (*Sink, error) {
	writer, err := gocv.VideoWriterFile(path, string(codec), fps, w, h, true)
	if err != nil {
		return nil, fmt.Errorf("video: opening sink %q: %w", path, err)
	}
	return &Sink{writer: writer}, nil
}

// Write encodes one BGR frame and appends it to the container.
func (s *Sink) Write(f *frame.Frame) error {
	mat, err := gocv.NewMatFromBytes(f.H, f.W, gocv.MatTypeCV8UC3, f.Data)
	if err != nil {
		return fmt.Errorf("video: wrapping frame for encode: %w", err)
	}
	defer mat.Close()

	if err := s.writer.Write(mat); err != nil {
		return fmt.Errorf("video: writing frame: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
