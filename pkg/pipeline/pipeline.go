// Package pipeline wires video I/O, both frame ciphers, and the key-file
// envelope into the two end-to-end workflows the command line exposes:
// encrypting a plaintext video into a ciphered container plus a sealed
// key file, and reversing that given the sealed key file and password.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/multierr"

	"github.com/pixelguard/videocrypt/pkg/cipher/cosine3d"
	"github.com/pixelguard/videocrypt/pkg/cipher/fishyates"
	"github.com/pixelguard/videocrypt/pkg/entropy"
	"github.com/pixelguard/videocrypt/pkg/frame"
	"github.com/pixelguard/videocrypt/pkg/keyfile"
	"github.com/pixelguard/videocrypt/pkg/metrics"
	"github.com/pixelguard/videocrypt/pkg/vcerr"
	"github.com/pixelguard/videocrypt/pkg/video"
)

// Direction selects which half of a scheme's cipher contract a run
// performs.
type Direction int

const (
	DirEncrypt Direction = iota
	DirDecrypt
)

func (d Direction) String() string {
	if d == DirDecrypt {
		return "decrypt"
	}
	return "encrypt"
}

// Options configures one pipeline run. Logger, Entropy, Metrics, and
// Emitter are all optional: a nil Logger discards log output, a nil
// Entropy falls back to entropy.CSPRNG{}, and a nil Metrics/Emitter
// simply isn't notified.
type Options struct {
	Direction Direction
	Scheme    keyfile.Scheme

	InputPath  string
	OutputPath string
	KeyPath    string
	Password   string

	KDFIterations int
	MaxFrames     int
	Concurrency   int
	DiskSpillDir  string

	// DecryptCodec is the fourcc the decrypted-output sink encodes
	// with. Encrypted output is always lossless HFYU regardless of
	// this field, since ciphertext bytes must survive container
	// re-encoding exactly. Zero value defaults to CodecLosslessHFYU.
	DecryptCodec video.Codec

	Entropy entropy.Source
	Metrics *metrics.Recorder
	Logger  *zerolog.Logger
	Emitter *Emitter
}

// nopLogger backs every run that doesn't supply its own Logger, so
// pipeline code can log unconditionally without a nil check at each
// call site.
var nopLogger = zerolog.Nop()

func logger(opts Options) *zerolog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return &nopLogger
}

func (o Options) concurrency() int {
	if o.Concurrency < 1 {
		return 1
	}
	return o.Concurrency
}

func (o Options) entropySource() entropy.Source {
	if o.Entropy == nil {
		return entropy.CSPRNG{}
	}
	return o.Entropy
}

// decryptCodec returns the fourcc the decrypted-output sink should
// encode with, defaulting to lossless HFYU when opts.DecryptCodec is
// unset.
func decryptCodec(opts Options) video.Codec {
	if opts.DecryptCodec == "" {
		return video.CodecLosslessHFYU
	}
	return opts.DecryptCodec
}

// Result summarizes a completed run.
type Result struct {
	FramesProcessed int
	OutputPath      string
	KeyPath         string

	// FrameDurations holds each frame's cipher wall-clock duration, in
	// plaintext frame-index order — the side channel an external timing
	// log can be fed from.
	FrameDurations []time.Duration
}

// Run dispatches to the encrypt or decrypt workflow for opts.Scheme. On
// any failure it deletes the run's own partial output video and, for an
// encrypt run, the unsealed partial key file — per spec.md §7, a key
// file supplied as decrypt input is never touched, since its loss is
// unrecoverable.
func Run(ctx context.Context, opts Options) (*Result, error) {
	result, err := dispatch(ctx, opts)
	if err != nil {
		cleanupPartialOutputs(opts)
	}
	return result, err
}

func dispatch(ctx context.Context, opts Options) (*Result, error) {
	switch opts.Direction {
	case DirEncrypt:
		switch opts.Scheme {
		case keyfile.SchemeA:
			return runEncryptSchemeA(ctx, opts)
		case keyfile.SchemeB:
			return runEncryptSchemeB(ctx, opts)
		}
	case DirDecrypt:
		switch opts.Scheme {
		case keyfile.SchemeA:
			return runDecryptSchemeA(ctx, opts)
		case keyfile.SchemeB:
			return runDecryptSchemeB(ctx, opts)
		}
	}
	return nil, fmt.Errorf("pipeline: unsupported direction/scheme combination (%s, %s)", opts.Direction, opts.Scheme)
}

// cleanupPartialOutputs removes whatever artifacts this failed run may
// have created. Removal failures (most commonly "file never created")
// are deliberately ignored.
func cleanupPartialOutputs(opts Options) {
	if opts.OutputPath != "" {
		_ = os.Remove(opts.OutputPath)
	}
	if opts.Direction == DirEncrypt && opts.KeyPath != "" {
		_ = os.Remove(opts.KeyPath)
	}
}

// forEachIndexed runs work(i) for every i in [0, n). With concurrency <= 1
// it runs sequentially in order; otherwise it fans out across at most
// concurrency goroutines via conc's ordered iterator, stopping at the
// first error once every goroutine has returned.
func forEachIndexed(n, concurrency int, work func(i int) error) error {
	if concurrency < 2 || n < 2 {
		for i := 0; i < n; i++ {
			if err := work(i); err != nil {
				return err
			}
		}
		return nil
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	errs := make([]error, n)
	iter.Iterator[int]{MaxGoroutines: concurrency}.ForEachIdx(indices, func(idx int, _ *int) {
		errs[idx] = work(idx)
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", vcerr.ErrCancelled, err)
	}
	return nil
}

// abortState reports StateAborted for a cancellation and StateFailed for
// every other error, so the state machine's terminal branch reflects why
// the run stopped.
func abortState(err error) State {
	if errors.Is(err, vcerr.ErrCancelled) {
		return StateAborted
	}
	return StateFailed
}

func recordError(opts Options, stage string) {
	if opts.Metrics != nil {
		opts.Metrics.ObserveError(stage)
	}
}

func observeFrame(opts Options, scheme, direction string, d time.Duration) {
	if opts.Metrics != nil {
		opts.Metrics.ObserveFrame(scheme, direction, d)
	}
}

func emitFrameDone(opts Options, index int) {
	if opts.Emitter != nil {
		opts.Emitter.emitFrameDone(index)
	}
}

func sealAndWriteKeyFile(opts Options, plaintext string) error {
	env := keyfile.NewEnvelope(opts.KDFIterations)
	sealed, err := env.Seal([]byte(plaintext), opts.Password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.KeyPath, []byte(sealed), 0o600); err != nil {
		return fmt.Errorf("%w: %v", vcerr.ErrKeyFileIO, err)
	}
	return nil
}

func readSealedKeyFile(opts Options) (string, error) {
	blob, err := os.ReadFile(opts.KeyPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vcerr.ErrKeyFileIO, err)
	}
	plaintext, err := keyfile.NewEnvelope(opts.KDFIterations).Open(string(blob), opts.Password)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// runEncryptSchemeA streams the source frame by frame, since Scheme A
// writes each ciphered frame in its original position and needs no
// whole-video buffering.
func runEncryptSchemeA(ctx context.Context, opts Options) (result *Result, runErr error) {
	sm := NewStateMachine(opts.Emitter)
	logger(opts).Info().Str("scheme", "A").Str("input", opts.InputPath).Msg("encrypting video")

	src, err := video.OpenSource(opts.InputPath)
	if err != nil {
		recordError(opts, "open-source")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
	}
	defer func() { runErr = multierr.Append(runErr, src.Close()) }()
	if err := sm.Transition(StateOpened); err != nil {
		return nil, err
	}

	sink, err := video.OpenSink(opts.OutputPath, video.CodecLosslessHFYU, src.FPS, src.H, src.W)
	if err != nil {
		recordError(opts, "open-sink")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
	}
	sinkClosed := false
	defer func() {
		if !sinkClosed {
			runErr = multierr.Append(runErr, sink.Close())
		}
	}()

	if err := sm.Transition(StateCiphering); err != nil {
		return nil, err
	}

	var hashes []string
	var durations []time.Duration
	frameCount := 0
	batchSize := opts.concurrency() * 4
	if batchSize < 1 {
		batchSize = 1
	}

	for opts.MaxFrames <= 0 || frameCount < opts.MaxFrames {
		want := batchSize
		if opts.MaxFrames > 0 && opts.MaxFrames-frameCount < want {
			want = opts.MaxFrames - frameCount
		}

		batch, err := readBatch(src, want)
		if err != nil {
			recordError(opts, "decode")
			sm.Transition(StateFailed)
			return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
		}
		if len(batch) == 0 {
			break
		}

		ciphered := make([]*frame.Frame, len(batch))
		batchHashes := make([]string, len(batch))
		batchDurs := make([]time.Duration, len(batch))
		err = forEachIndexed(len(batch), opts.concurrency(), func(i int) error {
			if err := checkCancelled(ctx); err != nil {
				return err
			}
			start := time.Now()
			out, hash, err := fishyates.Encrypt(batch[i])
			batchDurs[i] = time.Since(start)
			observeFrame(opts, "A", "encrypt", batchDurs[i])
			if err != nil {
				return fmt.Errorf("pipeline: ciphering frame %d: %w", frameCount+i, err)
			}
			logger(opts).Debug().Int("frame", frameCount+i).Str("hash", hash).Msg("frame ciphered")
			ciphered[i] = out
			batchHashes[i] = hash
			return nil
		})
		if err != nil {
			recordError(opts, "cipher")
			sm.Transition(abortState(err))
			return nil, err
		}

		for i, f := range ciphered {
			if err := sink.Write(f); err != nil {
				recordError(opts, "encode")
				sm.Transition(StateFailed)
				return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
			}
			emitFrameDone(opts, frameCount+i)
		}

		hashes = append(hashes, batchHashes...)
		durations = append(durations, batchDurs...)
		frameCount += len(batch)
	}

	if err := sm.Transition(StateFinalising); err != nil {
		return nil, err
	}

	// The output container must be finalised before the key file is
	// sealed, so an abort between the two leaves recoverable artifacts.
	sinkClosed = true
	if err := sink.Close(); err != nil {
		recordError(opts, "encode")
		sm.Transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
	}

	if err := checkCancelled(ctx); err != nil {
		sm.Transition(StateAborted)
		return nil, err
	}
	if err := sealAndWriteKeyFile(opts, keyfile.FormatFYKeyFile(hashes)); err != nil {
		recordError(opts, "seal-key")
		sm.Transition(StateFailed)
		return nil, err
	}
	if err := sm.Transition(StateSealed); err != nil {
		return nil, err
	}
	if err := sm.Transition(StateDone); err != nil {
		return nil, err
	}

	logger(opts).Info().Int("frames", frameCount).Msg("encryption complete")
	return &Result{FramesProcessed: frameCount, OutputPath: opts.OutputPath, KeyPath: opts.KeyPath, FrameDurations: durations}, nil
}

func runDecryptSchemeA(ctx context.Context, opts Options) (result *Result, runErr error) {
	sm := NewStateMachine(opts.Emitter)
	logger(opts).Info().Str("scheme", "A").Str("input", opts.InputPath).Msg("decrypting video")

	plaintext, err := readSealedKeyFile(opts)
	if err != nil {
		recordError(opts, "open-key")
		return nil, err
	}
	firstLine := splitFirstLine(plaintext)
	if err := keyfile.Gate(firstLine, keyfile.SchemeA); err != nil {
		recordError(opts, "scheme-gate")
		return nil, err
	}
	hashes, err := keyfile.ParseFYKeyFile(plaintext)
	if err != nil {
		recordError(opts, "parse-key")
		return nil, err
	}

	src, err := video.OpenSource(opts.InputPath)
	if err != nil {
		recordError(opts, "open-source")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
	}
	defer func() { runErr = multierr.Append(runErr, src.Close()) }()
	if err := sm.Transition(StateOpened); err != nil {
		return nil, err
	}

	sink, err := video.OpenSink(opts.OutputPath, decryptCodec(opts), src.FPS, src.H, src.W)
	if err != nil {
		recordError(opts, "open-sink")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
	}
	defer func() { runErr = multierr.Append(runErr, sink.Close()) }()

	if err := sm.Transition(StateCiphering); err != nil {
		return nil, err
	}

	n := len(hashes)
	if opts.MaxFrames > 0 && opts.MaxFrames < n {
		n = opts.MaxFrames
	}

	var durations []time.Duration
	frameCount := 0
	batchSize := opts.concurrency() * 4
	if batchSize < 1 {
		batchSize = 1
	}

	for frameCount < n {
		want := batchSize
		if n-frameCount < want {
			want = n - frameCount
		}

		batch, err := readBatch(src, want)
		if err != nil {
			recordError(opts, "decode")
			sm.Transition(StateFailed)
			return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
		}
		if len(batch) == 0 {
			break
		}

		deciphered := make([]*frame.Frame, len(batch))
		batchDurs := make([]time.Duration, len(batch))
		err = forEachIndexed(len(batch), opts.concurrency(), func(i int) error {
			if err := checkCancelled(ctx); err != nil {
				return err
			}
			start := time.Now()
			out, err := fishyates.Decrypt(batch[i], hashes[frameCount+i])
			batchDurs[i] = time.Since(start)
			observeFrame(opts, "A", "decrypt", batchDurs[i])
			if err != nil {
				return fmt.Errorf("pipeline: deciphering frame %d: %w", frameCount+i, err)
			}
			logger(opts).Debug().Int("frame", frameCount+i).Msg("frame deciphered")
			deciphered[i] = out
			return nil
		})
		if err != nil {
			recordError(opts, "cipher")
			sm.Transition(abortState(err))
			return nil, err
		}

		for i, f := range deciphered {
			if err := sink.Write(f); err != nil {
				recordError(opts, "encode")
				sm.Transition(StateFailed)
				return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
			}
			emitFrameDone(opts, frameCount+i)
		}

		durations = append(durations, batchDurs...)
		frameCount += len(batch)
	}
	if frameCount < n {
		recordError(opts, "decode")
		sm.Transition(StateFailed)
		return nil, fmt.Errorf("%w: key file describes %d frames but container has %d", vcerr.ErrInputUnreadable, n, frameCount)
	}

	if err := sm.Transition(StateFinalising); err != nil {
		return nil, err
	}
	if err := sm.Transition(StateSealed); err != nil {
		return nil, err
	}
	if err := sm.Transition(StateDone); err != nil {
		return nil, err
	}

	logger(opts).Info().Int("frames", frameCount).Msg("decryption complete")
	return &Result{FramesProcessed: frameCount, OutputPath: opts.OutputPath, KeyPath: opts.KeyPath, FrameDurations: durations}, nil
}

// runEncryptSchemeB must hold every ciphered frame until the whole-video
// frame order is drawn, so (unlike Scheme A) it buffers the entire run
// through a frameBuffer rather than streaming batches straight to the
// sink.
func runEncryptSchemeB(ctx context.Context, opts Options) (result *Result, runErr error) {
	sm := NewStateMachine(opts.Emitter)
	logger(opts).Info().Str("scheme", "B").Str("input", opts.InputPath).Msg("encrypting video")

	src, err := video.OpenSource(opts.InputPath)
	if err != nil {
		recordError(opts, "open-source")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
	}
	defer func() { runErr = multierr.Append(runErr, src.Close()) }()
	if err := sm.Transition(StateOpened); err != nil {
		return nil, err
	}

	var plain []*frame.Frame
	for opts.MaxFrames <= 0 || len(plain) < opts.MaxFrames {
		f, err := src.Next()
		if err != nil {
			recordError(opts, "decode")
			sm.Transition(StateFailed)
			return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
		}
		if f == nil {
			break
		}
		plain = append(plain, f)
	}
	n := len(plain)
	if n == 0 {
		sm.Transition(StateFailed)
		return nil, fmt.Errorf("%w: source contains no frames", vcerr.ErrInputUnreadable)
	}

	if err := sm.Transition(StateCiphering); err != nil {
		return nil, err
	}

	outBuf, err := newFrameBuffer(n, opts.DiskSpillDir)
	if err != nil {
		recordError(opts, "buffer")
		sm.Transition(StateFailed)
		return nil, err
	}
	defer func() { runErr = multierr.Append(runErr, outBuf.Close()) }()

	keys := make([]keyfile.CosKey, n)
	durations := make([]time.Duration, n)
	src1 := opts.entropySource()
	err = forEachIndexed(n, opts.concurrency(), func(i int) error {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		start := time.Now()
		out, key, err := cosine3d.Encrypt(plain[i], src1)
		durations[i] = time.Since(start)
		observeFrame(opts, "B", "encrypt", durations[i])
		if err != nil {
			return fmt.Errorf("pipeline: ciphering frame %d: %w", i, err)
		}
		logger(opts).Debug().Int("frame", i).Msg("frame ciphered")
		keys[i] = key
		if err := outBuf.Put(i, out); err != nil {
			return err
		}
		emitFrameDone(opts, i)
		return nil
	})
	if err != nil {
		recordError(opts, "cipher")
		sm.Transition(abortState(err))
		return nil, err
	}

	order := cosine3d.ShuffleOrder(opts.entropySource(), n)

	if err := sm.Transition(StateFinalising); err != nil {
		return nil, err
	}

	// Scheme B's cipher rotates each frame 90 degrees, so the ciphered
	// container's dimensions are the plaintext's transposed.
	sink, err := video.OpenSink(opts.OutputPath, video.CodecLosslessHFYU, src.FPS, plain[0].W, plain[0].H)
	if err != nil {
		recordError(opts, "open-sink")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
	}
	sinkClosed := false
	defer func() {
		if !sinkClosed {
			runErr = multierr.Append(runErr, sink.Close())
		}
	}()

	for _, idx := range order {
		f, err := outBuf.Get(idx)
		if err != nil {
			recordError(opts, "buffer")
			sm.Transition(StateFailed)
			return nil, err
		}
		if err := sink.Write(f); err != nil {
			recordError(opts, "encode")
			sm.Transition(StateFailed)
			return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
		}
	}

	// Finalise the output container before sealing the key file, so an
	// abort between the two leaves recoverable artifacts.
	sinkClosed = true
	if err := sink.Close(); err != nil {
		recordError(opts, "encode")
		sm.Transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
	}

	if err := checkCancelled(ctx); err != nil {
		sm.Transition(StateAborted)
		return nil, err
	}
	if err := sealAndWriteKeyFile(opts, keyfile.FormatSchemeBKeyFile(keys, order)); err != nil {
		recordError(opts, "seal-key")
		sm.Transition(StateFailed)
		return nil, err
	}
	if err := sm.Transition(StateSealed); err != nil {
		return nil, err
	}
	if err := sm.Transition(StateDone); err != nil {
		return nil, err
	}

	logger(opts).Info().Int("frames", n).Msg("encryption complete")
	return &Result{FramesProcessed: n, OutputPath: opts.OutputPath, KeyPath: opts.KeyPath, FrameDurations: durations}, nil
}

// runDecryptSchemeB reads the FrameOrder permutation back out of the key
// file to re-sort container-order frames into the plaintext slots each
// CosKey was derived for, before inverting the cipher.
func runDecryptSchemeB(ctx context.Context, opts Options) (result *Result, runErr error) {
	sm := NewStateMachine(opts.Emitter)
	logger(opts).Info().Str("scheme", "B").Str("input", opts.InputPath).Msg("decrypting video")

	plaintext, err := readSealedKeyFile(opts)
	if err != nil {
		recordError(opts, "open-key")
		return nil, err
	}
	if err := keyfile.Gate(splitFirstLine(plaintext), keyfile.SchemeB); err != nil {
		recordError(opts, "scheme-gate")
		return nil, err
	}
	keys, order, err := keyfile.ParseSchemeBKeyFile(plaintext)
	if err != nil {
		recordError(opts, "parse-key")
		return nil, err
	}
	n := len(keys)

	src, err := video.OpenSource(opts.InputPath)
	if err != nil {
		recordError(opts, "open-source")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
	}
	defer func() { runErr = multierr.Append(runErr, src.Close()) }()
	if err := sm.Transition(StateOpened); err != nil {
		return nil, err
	}

	containerFrames := make([]*frame.Frame, 0, n)
	for len(containerFrames) < n {
		f, err := src.Next()
		if err != nil {
			recordError(opts, "decode")
			sm.Transition(StateFailed)
			return nil, fmt.Errorf("%w: %v", vcerr.ErrInputUnreadable, err)
		}
		if f == nil {
			break
		}
		containerFrames = append(containerFrames, f)
	}
	if len(containerFrames) != n {
		sm.Transition(StateFailed)
		return nil, fmt.Errorf("pipeline: key file describes %d frames but container has %d", n, len(containerFrames))
	}

	if err := sm.Transition(StateCiphering); err != nil {
		return nil, err
	}

	plainSlots := make([]*frame.Frame, n)
	for containerPos, plainIdx := range order {
		plainSlots[plainIdx] = containerFrames[containerPos]
	}

	outBuf, err := newFrameBuffer(n, opts.DiskSpillDir)
	if err != nil {
		recordError(opts, "buffer")
		sm.Transition(StateFailed)
		return nil, err
	}
	defer func() { runErr = multierr.Append(runErr, outBuf.Close()) }()

	durations := make([]time.Duration, n)
	err = forEachIndexed(n, opts.concurrency(), func(i int) error {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		start := time.Now()
		out, err := cosine3d.Decrypt(plainSlots[i], keys[i])
		durations[i] = time.Since(start)
		observeFrame(opts, "B", "decrypt", durations[i])
		if err != nil {
			return fmt.Errorf("pipeline: deciphering frame %d: %w", i, err)
		}
		logger(opts).Debug().Int("frame", i).Msg("frame deciphered")
		if err := outBuf.Put(i, out); err != nil {
			return err
		}
		emitFrameDone(opts, i)
		return nil
	})
	if err != nil {
		recordError(opts, "cipher")
		sm.Transition(abortState(err))
		return nil, err
	}

	if err := sm.Transition(StateFinalising); err != nil {
		return nil, err
	}

	first, err := outBuf.Get(0)
	if err != nil {
		return nil, err
	}
	sink, err := video.OpenSink(opts.OutputPath, decryptCodec(opts), src.FPS, first.H, first.W)
	if err != nil {
		recordError(opts, "open-sink")
		return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
	}
	defer func() { runErr = multierr.Append(runErr, sink.Close()) }()

	for i := 0; i < n; i++ {
		f, err := outBuf.Get(i)
		if err != nil {
			recordError(opts, "buffer")
			sm.Transition(StateFailed)
			return nil, err
		}
		if err := sink.Write(f); err != nil {
			recordError(opts, "encode")
			sm.Transition(StateFailed)
			return nil, fmt.Errorf("%w: %v", vcerr.ErrOutputUnwritable, err)
		}
	}

	if err := sm.Transition(StateSealed); err != nil {
		return nil, err
	}
	if err := sm.Transition(StateDone); err != nil {
		return nil, err
	}

	logger(opts).Info().Int("frames", n).Msg("decryption complete")
	return &Result{FramesProcessed: n, OutputPath: opts.OutputPath, KeyPath: opts.KeyPath, FrameDurations: durations}, nil
}

func readBatch(src *video.Source, want int) ([]*frame.Frame, error) {
	batch := make([]*frame.Frame, 0, want)
	for len(batch) < want {
		f, err := src.Next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			break
		}
		batch = append(batch, f)
	}
	return batch, nil
}

func splitFirstLine(content string) string {
	for i, r := range content {
		if r == '\n' {
			return content[:i]
		}
	}
	return content
}
