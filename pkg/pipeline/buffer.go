package pipeline

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pixelguard/videocrypt/pkg/frame"
)

// frameBuffer holds every ciphered frame of a Scheme-B run until the
// whole-video frame-order shuffle can be applied, since that shuffle
// needs the complete frame count before it writes anything out. By
// default it keeps frames in memory; when spillDir is non-empty it
// writes each frame to its own file under a uniquely-named
// subdirectory instead, trading memory for disk I/O on long videos.
type frameBuffer struct {
	mem []*frame.Frame
	dir string
}

// newFrameBuffer allocates a buffer for n frames. If spillDir is empty,
// frames are kept in memory.
func newFrameBuffer(n int, spillDir string) (*frameBuffer, error) {
	if spillDir == "" {
		return &frameBuffer{mem: make([]*frame.Frame, n)}, nil
	}

	dir := filepath.Join(spillDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("pipeline: creating spill directory: %w", err)
	}
	return &frameBuffer{dir: dir}, nil
}

func (b *frameBuffer) spilling() bool { return b.dir != "" }

// Put stores the frame at index i.
func (b *frameBuffer) Put(i int, f *frame.Frame) error {
	if !b.spilling() {
		b.mem[i] = f
		return nil
	}

	path := b.spillPath(i)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pipeline: spilling frame %d: %w", i, err)
	}
	defer out.Close()

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(f.H))
	binary.LittleEndian.PutUint32(header[4:8], uint32(f.W))
	if _, err := out.Write(header[:]); err != nil {
		return fmt.Errorf("pipeline: spilling frame %d: %w", i, err)
	}
	if _, err := out.Write(f.Data); err != nil {
		return fmt.Errorf("pipeline: spilling frame %d: %w", i, err)
	}
	return nil
}

// Get retrieves the frame stored at index i.
func (b *frameBuffer) Get(i int) (*frame.Frame, error) {
	if !b.spilling() {
		return b.mem[i], nil
	}

	raw, err := os.ReadFile(b.spillPath(i))
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading spilled frame %d: %w", i, err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("pipeline: spilled frame %d is truncated", i)
	}

	h := int(binary.LittleEndian.Uint32(raw[0:4]))
	w := int(binary.LittleEndian.Uint32(raw[4:8]))
	return frame.FromBytes(h, w, raw[8:])
}

func (b *frameBuffer) spillPath(i int) string {
	return filepath.Join(b.dir, fmt.Sprintf("frame_%d.bin", i))
}

// Close releases in-memory frames and removes any spill directory,
// aggregating every cleanup failure rather than stopping at the first.
func (b *frameBuffer) Close() error {
	b.mem = nil
	if !b.spilling() {
		return nil
	}

	var err error
	if rmErr := os.RemoveAll(b.dir); rmErr != nil {
		err = multierr.Append(err, fmt.Errorf("pipeline: removing spill directory %q: %w", b.dir, rmErr))
	}
	return err
}
