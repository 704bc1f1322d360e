package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelguard/videocrypt/pkg/entropy"
	"github.com/pixelguard/videocrypt/pkg/frame"
	"github.com/pixelguard/videocrypt/pkg/keyfile"
	"github.com/pixelguard/videocrypt/pkg/metrics"
	"github.com/pixelguard/videocrypt/pkg/vcerr"
	"github.com/pixelguard/videocrypt/pkg/video"
)

// writeSyntheticVideo builds a small lossless test video so pipeline
// tests don't depend on a fixture asset. Skipped, not failed, when the
// host's gocv build has no usable video backend.
func writeSyntheticVideo(t *testing.T, path string, h, w, n int) {
	t.Helper()

	sink, err := video.OpenSink(path, video.CodecLosslessHFYU, 24, h, w)
	if err != nil {
		t.Skipf("video backend unavailable: %v", err)
	}
	defer sink.Close()

	for i := 0; i < n; i++ {
		f := frame.New(h, w)
		for j := range f.Data {
			f.Data[j] = byte((i*7 + j*3) % 256)
		}
		require.NoError(t, sink.Write(f))
	}
}

func countFrames(t *testing.T, path string) (count, h, w int) {
	t.Helper()
	src, err := video.OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	h, w = src.H, src.W
	for {
		f, err := src.Next()
		require.NoError(t, err)
		if f == nil {
			break
		}
		count++
	}
	return
}

func TestSchemeAEncryptProducesValidKeyFileAndCipherVideo(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 12, 16, 4)

	outputPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")

	rec := metrics.NewRecorder(prometheus.NewRegistry())
	emitter := NewEmitter()
	var doneIndices []int
	emitter.OnFrameDone(func(i int) { doneIndices = append(doneIndices, i) })

	result, err := Run(context.Background(), Options{
		Direction:     DirEncrypt,
		Scheme:        keyfile.SchemeA,
		InputPath:     inputPath,
		OutputPath:    outputPath,
		KeyPath:       keyPath,
		Password:      "correct horse battery staple",
		KDFIterations: keyfile.DefaultKDFIterations,
		Metrics:       rec,
		Emitter:       emitter,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.FramesProcessed)
	assert.Len(t, result.FrameDurations, 4)

	sealed, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	plaintext, err := keyfile.NewEnvelope(keyfile.DefaultKDFIterations).Open(string(sealed), "correct horse battery staple")
	require.NoError(t, err)

	hashes, err := keyfile.ParseFYKeyFile(string(plaintext))
	require.NoError(t, err)
	assert.Len(t, hashes, 4)

	count, h, w := countFrames(t, outputPath)
	assert.Equal(t, 4, count)
	assert.Equal(t, 12, h)
	assert.Equal(t, 16, w)

	assert.Len(t, doneIndices, 4)
}

func TestSchemeARoundTripRecoversOriginalFrameCountAndShape(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 10, 10, 3)

	cipherPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")
	decryptedPath := filepath.Join(dir, "decrypted.avi")
	password := "scheme-a-round-trip"

	_, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  inputPath,
		OutputPath: cipherPath,
		KeyPath:    keyPath,
		Password:   password,
	})
	require.NoError(t, err)

	result, err := Run(context.Background(), Options{
		Direction:  DirDecrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  cipherPath,
		OutputPath: decryptedPath,
		KeyPath:    keyPath,
		Password:   password,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.FramesProcessed)

	count, h, w := countFrames(t, decryptedPath)
	assert.Equal(t, 3, count)
	assert.Equal(t, 10, h)
	assert.Equal(t, 10, w)
}

func TestSchemeADecryptHonorsConfiguredCodec(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 10, 10, 3)

	cipherPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")
	decryptedPath := filepath.Join(dir, "decrypted.mp4")
	password := "scheme-a-codec-wiring"

	_, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  inputPath,
		OutputPath: cipherPath,
		KeyPath:    keyPath,
		Password:   password,
	})
	require.NoError(t, err)

	result, err := Run(context.Background(), Options{
		Direction:    DirDecrypt,
		Scheme:       keyfile.SchemeA,
		InputPath:    cipherPath,
		OutputPath:   decryptedPath,
		KeyPath:      keyPath,
		Password:     password,
		DecryptCodec: video.CodecMP4V,
	})
	if err != nil {
		t.Skipf("mp4v backend unavailable: %v", err)
	}
	assert.Equal(t, 3, result.FramesProcessed)

	count, h, w := countFrames(t, decryptedPath)
	assert.Equal(t, 3, count)
	assert.Equal(t, 10, h)
	assert.Equal(t, 10, w)
}

func TestSchemeADecryptRejectsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 8, 8, 2)

	cipherPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")

	_, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  inputPath,
		OutputPath: cipherPath,
		KeyPath:    keyPath,
		Password:   "right-password",
	})
	require.NoError(t, err)

	_, err = Run(context.Background(), Options{
		Direction:  DirDecrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  cipherPath,
		OutputPath: filepath.Join(dir, "decrypted.avi"),
		KeyPath:    keyPath,
		Password:   "wrong-password",
	})
	assert.ErrorIs(t, err, vcerr.ErrWrongPasswordOrTampered)
}

func TestSchemeBDecryptRejectsSchemeAKeyFile(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 9, 9, 2)

	cipherPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")

	_, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  inputPath,
		OutputPath: cipherPath,
		KeyPath:    keyPath,
		Password:   "p",
	})
	require.NoError(t, err)

	_, err = Run(context.Background(), Options{
		Direction:  DirDecrypt,
		Scheme:     keyfile.SchemeB,
		InputPath:  cipherPath,
		OutputPath: filepath.Join(dir, "decrypted.avi"),
		KeyPath:    keyPath,
		Password:   "p",
	})
	assert.ErrorIs(t, err, vcerr.ErrSchemeMismatch)
}

func TestSchemeBEncryptWritesShuffledFrameOrderAndSeeds(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 9, 12, 5)

	outputPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")
	password := "scheme-b-seeds"

	result, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeB,
		InputPath:  inputPath,
		OutputPath: outputPath,
		KeyPath:    keyPath,
		Password:   password,
		Entropy:    entropy.NewDeterministic(1, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.FramesProcessed)

	sealed, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	plaintext, err := keyfile.NewEnvelope(keyfile.DefaultKDFIterations).Open(string(sealed), password)
	require.NoError(t, err)

	keys, order, err := keyfile.ParseSchemeBKeyFile(string(plaintext))
	require.NoError(t, err)
	assert.Len(t, keys, 5)
	require.NoError(t, keyfile.ValidateFrameOrder(order, 5))

	// Scheme B's cipher rotates each frame 90 degrees, so the ciphered
	// container's dimensions are transposed relative to the plaintext.
	count, h, w := countFrames(t, outputPath)
	assert.Equal(t, 5, count)
	assert.Equal(t, 12, h)
	assert.Equal(t, 9, w)
}

func TestSchemeBRoundTripRecoversOriginalFrameCountAndShape(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 9, 9, 4)

	cipherPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")
	decryptedPath := filepath.Join(dir, "decrypted.avi")
	password := "scheme-b-round-trip"

	_, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeB,
		InputPath:  inputPath,
		OutputPath: cipherPath,
		KeyPath:    keyPath,
		Password:   password,
		Entropy:    entropy.NewDeterministic(7, 9),
	})
	require.NoError(t, err)

	result, err := Run(context.Background(), Options{
		Direction:  DirDecrypt,
		Scheme:     keyfile.SchemeB,
		InputPath:  cipherPath,
		OutputPath: decryptedPath,
		KeyPath:    keyPath,
		Password:   password,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.FramesProcessed)

	count, h, w := countFrames(t, decryptedPath)
	assert.Equal(t, 4, count)
	assert.Equal(t, 9, h)
	assert.Equal(t, 9, w)
}

func TestSchemeAEncryptRespectsMaxFrames(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 8, 8, 10)

	outputPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")

	result, err := Run(context.Background(), Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  inputPath,
		OutputPath: outputPath,
		KeyPath:    keyPath,
		Password:   "p",
		MaxFrames:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.FramesProcessed)

	count, _, _ := countFrames(t, outputPath)
	assert.Equal(t, 3, count)
}

func TestSchemeAEncryptWithConcurrencyMatchesSequentialFrameCount(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 8, 8, 6)

	outputPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")

	result, err := Run(context.Background(), Options{
		Direction:   DirEncrypt,
		Scheme:      keyfile.SchemeA,
		InputPath:   inputPath,
		OutputPath:  outputPath,
		KeyPath:     keyPath,
		Password:    "p",
		Concurrency: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result.FramesProcessed)
}

func TestRunObservesCancellationAndDeletesPartialOutputs(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "plain.avi")
	writeSyntheticVideo(t, inputPath, 8, 8, 4)

	outputPath := filepath.Join(dir, "cipher.avi")
	keyPath := filepath.Join(dir, "key.bin")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{
		Direction:  DirEncrypt,
		Scheme:     keyfile.SchemeA,
		InputPath:  inputPath,
		OutputPath: outputPath,
		KeyPath:    keyPath,
		Password:   "p",
	})
	assert.ErrorIs(t, err, vcerr.ErrCancelled)
	assert.NoFileExists(t, outputPath)
	assert.NoFileExists(t, keyPath)
}

func TestRunRejectsUnknownSchemeDirectionCombination(t *testing.T) {
	_, err := Run(context.Background(), Options{Direction: DirEncrypt, Scheme: keyfile.Scheme(99)})
	assert.Error(t, err)
}

// A failed run deletes its own partial output, and an encrypt run's own
// partial key file — but never a decrypt run's key file, since that's
// the caller's unrecoverable input, not an artifact this run created.
func TestCleanupPartialOutputsRespectsDirection(t *testing.T) {
	dir := t.TempDir()

	encOut := filepath.Join(dir, "enc-out.avi")
	encKey := filepath.Join(dir, "enc-key.bin")
	require.NoError(t, os.WriteFile(encOut, []byte("partial"), 0o600))
	require.NoError(t, os.WriteFile(encKey, []byte("partial"), 0o600))

	cleanupPartialOutputs(Options{Direction: DirEncrypt, OutputPath: encOut, KeyPath: encKey})
	assert.NoFileExists(t, encOut)
	assert.NoFileExists(t, encKey)

	decOut := filepath.Join(dir, "dec-out.avi")
	decKey := filepath.Join(dir, "dec-key.bin")
	require.NoError(t, os.WriteFile(decOut, []byte("partial"), 0o600))
	require.NoError(t, os.WriteFile(decKey, []byte("sealed key material"), 0o600))

	cleanupPartialOutputs(Options{Direction: DirDecrypt, OutputPath: decOut, KeyPath: decKey})
	assert.NoFileExists(t, decOut)
	assert.FileExists(t, decKey)
}
