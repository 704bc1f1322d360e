// Package chaos implements the two chaotic-map generators the frame
// ciphers are built on: the 1-D logistic map used by the Fisher-Yates
// scheme, and the 3-D ILM-cosine recurrence used by the block-permutation
// scheme.
package chaos

import "math"

// Logistic iterates x <- r*x*(1-x) in double precision. It is chaotic
// for r in [3.57, 4.00).
type Logistic struct {
	r float64
	x float64
}

// NewLogistic seeds a logistic-map stream at x0 with control parameter r.
func NewLogistic(x0, r float64) *Logistic {
	return &Logistic{r: r, x: x0}
}

// Next advances the map one step and returns the new value.
func (l *Logistic) Next() float64 {
	l.x = l.r * l.x * (1 - l.x)
	return l.x
}

// FisherYatesSwaps regenerates the sequence of Fisher-Yates swap partners
// for an axis of the given size, seeded at (x0, r). Element k of the
// returned slice is the partner index j for i = size-1-k, i.e. the
// sequence is produced (and must be consumed) from i = size-1 down to 1.
//
// This mirrors the reference implementation's quirk of re-seeding the
// map fresh for both the row and the column shuffle rather than carrying
// a single stream across both axes.
func FisherYatesSwaps(size int, x0, r float64) []int {
	if size <= 1 {
		return nil
	}
	lm := NewLogistic(x0, r)
	cur := lm.Next()
	swaps := make([]int, 0, size-1)
	for i := size - 1; i >= 1; i-- {
		j := int(math.Ceil(float64(i) * cur))
		cur = lm.Next()
		swaps = append(swaps, j)
	}
	return swaps
}

// Keystream runs the logistic map seeded at (x0, r) for 2000+3*n-1
// additional steps beyond the seed, discards the first 2000 samples of
// the resulting 2000+3*n-length trajectory, and quantises the remaining
// 3*n doubles into a byte keystream via floor(sample*1e16) mod 256.
func Keystream(n int, x0, r float64) []byte {
	total := 2000 + 3*n
	traj := make([]float64, 0, total)
	traj = append(traj, x0)
	lm := NewLogistic(x0, r)
	for i := 0; i < total-1; i++ {
		traj = append(traj, lm.Next())
	}
	trimmed := traj[2000:]
	out := make([]byte, len(trimmed))
	for i, v := range trimmed {
		q := int64(math.Floor(v * 1e16))
		out[i] = byte(((q % 256) + 256) % 256)
	}
	return out
}

// KeystreamBGR generates a diffusion keystream of n pixels (3*n bytes)
// and lays it out ready to XOR against a row-major B,G,R-interleaved
// frame buffer.
//
// The reference implementation does not consume Keystream's flat 3*n
// bytes sequentially: it splits them into three contiguous n-length
// thirds (kr, kg, kb, in that order) and re-gathers a (B,G,R) triplet
// per pixel i as (kb[i], kg[i], kr[i]) before XOR-ing — i.e. the third
// order is reversed relative to how it was produced. KeystreamBGR does
// that split-and-gather so callers can XOR the result directly.
func KeystreamBGR(n int, x0, r float64) []byte {
	return gatherBGR(Keystream(n, x0, r), n)
}

// gatherBGR splits a flat 3*n keystream into three contiguous n-length
// thirds (third0, third1, third2, in production order) and interleaves
// them per pixel i as (third2[i], third1[i], third0[i]) — the B,G,R
// triplet order the reference implementation's
// np.vstack((kb, kg, kr)).T produces.
func gatherBGR(flat []byte, n int) []byte {
	third0, third1, third2 := flat[0:n], flat[n:2*n], flat[2*n:3*n]

	out := make([]byte, 3*n)
	for i := 0; i < n; i++ {
		out[i*3+0] = third2[i]
		out[i*3+1] = third1[i]
		out[i*3+2] = third0[i]
	}
	return out
}
