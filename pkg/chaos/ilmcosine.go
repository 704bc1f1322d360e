package chaos

import "math"

// ILM recurrence constants. These are fixed chaotic-regime controls, not
// tunables: n in [0,4), omega > 33.5, theta > 37.9, kappa > 35.7.
const (
	ilmN     = 2.24
	ilmOmega = 34.2
	ilmTheta = 38.23
	ilmKappa = 36.79
)

// floorMod1 implements Python's "% 1" semantics: the result always has
// the sign of the modulus (here always in [0, 1)), unlike math.Mod which
// keeps the sign of x. The ILM recurrence relies on this to stay bounded.
func floorMod1(x float64) float64 {
	m := math.Mod(x, 1)
	if m < 0 {
		m += 1
	}
	return m
}

// ILMCosine generates a length-ℓ sequence from seed S using the coupled
// 3-term ILM recurrence, returning cos(pi*ILM[c]) for each step c. The
// recurrence's two-slot buffer (note (i) in the design docs) is
// preserved exactly: S for the next iteration is the *previous*
// iteration's ILM total, not the freshly computed one.
func ILMCosine(length int, seed float64) []float64 {
	a1 := ilmN * ilmOmega
	a2 := ilmN * ilmTheta
	b1 := ilmN
	b2 := ilmKappa

	s := seed
	ilm := seed

	out := make([]float64, length)
	for c := 0; c < length; c++ {
		ilm0 := floorMod1(a1*s*(1-s) + s)
		ilm1 := floorMod1(a2*s + s/(1+ilm0*ilm0))
		ilm2 := floorMod1(b1 * (ilm0 + ilm1 + b2) * math.Sin(s))

		s = ilm
		ilm = ilm0 + ilm1 + ilm2

		out[c] = math.Cos(math.Pi * ilm)
	}
	return out
}
