package cosine3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelguard/videocrypt/pkg/chaos"
	"github.com/pixelguard/videocrypt/pkg/entropy"
	"github.com/pixelguard/videocrypt/pkg/frame"
	"github.com/pixelguard/videocrypt/pkg/keyfile"
)

func sequentialFrame(h, w int) *frame.Frame {
	f := frame.New(h, w)
	for i := range f.Data {
		f.Data[i] = byte(i % 256)
	}
	return f
}

// S3: a 9x9x3 frame with block_size=3 round-trips under fixed seeds.
func TestScheme3RoundTripFixedSeeds(t *testing.T) {
	src := entropy.NewDeterministic(1, 2)
	f := sequentialFrame(9, 9)

	ciphered, key, err := Encrypt(f, src)
	require.NoError(t, err)
	assert.Equal(t, f.W, ciphered.H)
	assert.Equal(t, f.H, ciphered.W)

	recovered, err := Decrypt(ciphered, key)
	require.NoError(t, err)
	assert.Equal(t, f.H, recovered.H)
	assert.Equal(t, f.W, recovered.W)
	assert.Equal(t, f.Data, recovered.Data)
}

func TestRoundTripNonSquareFrame(t *testing.T) {
	src := entropy.NewDeterministic(7, 42)
	f := sequentialFrame(12, 16)

	ciphered, key, err := Encrypt(f, src)
	require.NoError(t, err)

	recovered, err := Decrypt(ciphered, key)
	require.NoError(t, err)
	assert.Equal(t, f.Data, recovered.Data)
}

func TestEncryptProducesDistinctCiphertext(t *testing.T) {
	src := entropy.NewDeterministic(3, 4)
	f := sequentialFrame(10, 10)

	ciphered, _, err := Encrypt(f, src)
	require.NoError(t, err)

	assert.NotEqual(t, f.Data, ciphered.Data)
}

func TestDecryptWrongSeedDivergesFromPlaintext(t *testing.T) {
	src := entropy.NewDeterministic(5, 6)
	f := sequentialFrame(9, 9)

	ciphered, key, err := Encrypt(f, src)
	require.NoError(t, err)

	wrongKey := key
	// Seeds are on the order of 1e75, so only a relative change alters
	// the float64 value.
	wrongKey.DiffSeed *= 2

	recovered, err := Decrypt(ciphered, wrongKey)
	require.NoError(t, err)
	assert.NotEqual(t, f.Data, recovered.Data)
}

func TestMinimalFrameRoundTrips(t *testing.T) {
	src := entropy.NewDeterministic(1, 1)
	f := sequentialFrame(2, 2)

	ciphered, key, err := Encrypt(f, src)
	require.NoError(t, err)

	recovered, err := Decrypt(ciphered, key)
	require.NoError(t, err)
	assert.Equal(t, f.Data, recovered.Data)
}

// TestFixedSeedDecryptRecoversHandCipheredFrame drives the forward
// stages directly with the literal seed pair (0.3, 0.7) on a 9x9 frame
// (block_size 3), then checks Decrypt inverts the result. Any deviation
// in the ILM recurrence or table construction fails this, independent
// of the entropy source.
func TestFixedSeedDecryptRecoversHandCipheredFrame(t *testing.T) {
	f := sequentialFrame(9, 9)
	key := keyfile.CosKey{PermSeed: 0.3, DiffSeed: 0.7}

	blockSize := blockSizeFor(f.H, f.W)
	require.Equal(t, 3, blockSize)
	tables := buildBlockTables(blockSize, key.PermSeed)

	blue, green, red := f.SplitBGR()
	for _, plane := range []*frame.Plane{blue, green, red} {
		permuteBlocks(plane, blockSize, tables, false)
	}

	ilmSeq := chaos.ILMCosine(f.H*f.W, key.DiffSeed)
	aFlat, bFlat := diffusionTables(f.H, f.W, ilmSeq)

	ciphered, err := frame.MergeBGR(
		diffuse(blue.Rot90CCW(), aFlat, bFlat),
		diffuse(green.Rot90CCW(), aFlat, bFlat),
		diffuse(red.Rot90CCW(), aFlat, bFlat),
	)
	require.NoError(t, err)

	recovered, err := Decrypt(ciphered, key)
	require.NoError(t, err)
	assert.Equal(t, f.Data, recovered.Data)
}

func TestShuffleOrderIsBijection(t *testing.T) {
	src := entropy.NewDeterministic(9, 10)
	order := ShuffleOrder(src, 20)

	seen := make(map[int]bool, len(order))
	for _, v := range order {
		assert.False(t, seen[v], "duplicate value %d in frame order", v)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 20)
		seen[v] = true
	}
	assert.Len(t, seen, 20)
}
