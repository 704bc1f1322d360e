// Package entropy provides the injectable, capability-typed entropy
// source that Scheme B's nondeterministic seed generation draws from.
//
// The reference implementation reads from an unseeded, process-wide
// PRNG, which makes its encryption step untestable deterministically and
// non-cryptographic in production. This package replaces the global
// with an explicit Source the caller threads through, defaulting to a
// CSPRNG (crypto/rand) and letting tests substitute a fixed sequence.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
)

// Source draws uniform doubles in [0, 1) and uniform permutations. It is
// the only entry point Scheme B's seed generation and frame-order
// shuffle use for randomness.
type Source interface {
	// Float64s fills out with n independent uniform samples in [0, 1).
	Float64s(n int) []float64
	// Permutation returns a uniformly random permutation of [0, n).
	Permutation(n int) []int
}

// CSPRNG is the production Source, backed by crypto/rand.
type CSPRNG struct{}

var _ Source = CSPRNG{}

func (CSPRNG) Float64s(n int) []float64 {
	out := make([]float64, n)
	var buf [8]byte
	for i := range out {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("entropy: crypto/rand unavailable: " + err.Error())
		}
		// 53 bits of the random 64-bit word give a uniform double in
		// [0, 1), the standard construction for float64 PRNGs.
		u := binary.BigEndian.Uint64(buf[:]) >> 11
		out[i] = float64(u) / (1 << 53)
	}
	return out
}

func (CSPRNG) Permutation(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := cryptoIntn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func cryptoIntn(n int) int {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("entropy: crypto/rand unavailable: " + err.Error())
		}
		v := binary.BigEndian.Uint64(buf[:])
		// Rejection sampling to avoid modulo bias.
		max := (^uint64(0) / uint64(n)) * uint64(n)
		if v < max {
			return int(v % uint64(n))
		}
	}
}

// Deterministic is a test-only Source driven by a seeded, non-cryptographic
// PRNG so encryption runs can be reproduced exactly across test executions.
// It is not safe for concurrent use; drive it only from serial runs.
type Deterministic struct {
	rng *mathrand.Rand
}

var _ Source = (*Deterministic)(nil)

// NewDeterministic returns a Source seeded from the two given words. It
// must never be used outside of tests.
func NewDeterministic(seed1, seed2 uint64) *Deterministic {
	return &Deterministic{rng: mathrand.New(mathrand.NewPCG(seed1, seed2))}
}

func (d *Deterministic) Float64s(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.rng.Float64()
	}
	return out
}

func (d *Deterministic) Permutation(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	d.rng.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
