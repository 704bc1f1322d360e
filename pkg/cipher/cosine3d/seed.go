// Package cosine3d implements Scheme B: nondeterministic ILM-cosine
// seeded block permutation, modular additive diffusion, and the
// whole-video frame-order shuffle.
package cosine3d

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pixelguard/videocrypt/pkg/entropy"
)

// seedSampleCount is the number of entropy draws ("L") consumed per seed.
const seedSampleCount = 360

// generateSeed draws seedSampleCount uniform doubles from src, SHA-256
// hashes each as a big-endian 8-byte packing, XOR-accumulates the first
// half of the resulting 256-bit digests and sums the second half, and
// scales the total by 2^-12. The result is intentionally a very large
// floating-point value; the ILM-cosine recurrence's mod-1 operations
// bring it back into a bounded range.
func generateSeed(src entropy.Source) float64 {
	samples := src.Float64s(seedSampleCount)

	digests := make([]*big.Int, seedSampleCount)
	for i, s := range samples {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(s))
		sum := sha256.Sum256(buf[:])
		digests[i] = new(big.Int).SetBytes(sum[:])
	}

	half := seedSampleCount / 2

	a := new(big.Int)
	for i := 0; i < half; i++ {
		a.Xor(a, digests[i])
	}

	s := new(big.Int)
	for i := half; i < seedSampleCount; i++ {
		s.Add(s, digests[i])
	}

	total := new(big.Int).Add(a, s)

	seedFloat := new(big.Float).SetInt(total)
	seedFloat.Quo(seedFloat, big.NewFloat(4096))

	seed, _ := seedFloat.Float64()
	return seed
}
