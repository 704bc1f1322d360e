package cosine3d

import (
	"math"

	"github.com/pixelguard/videocrypt/pkg/frame"
)

// diffusionModulus is the modulus for 8-bit pixel arithmetic.
const diffusionModulus = 256

var twoPow32 = math.Pow(2, 32)

// pymodFloat is Python's float %: the result always takes the sign of m.
func pymodFloat(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	return r
}

// diffusionKeyByte quantises one chaotic magnitude into the additive
// keystream value for its scatter position: (2^32 * a) mod 256, floored
// to an integer so the modular chain below is exact and invertible.
func diffusionKeyByte(a float64) int {
	return int(math.Floor(pymodFloat(twoPow32*a, diffusionModulus)))
}

// diffuse walks the plane in raster order, chaining each output pixel
// onto the previously diffused one and adding a 2^32-scaled chaotic
// magnitude, all modulo 256. The origin has no diffused predecessor and
// chains on the plaintext of the final raster position instead. Source
// and destination are both addressed through the scatter-index grid
// bFlat rather than directly by (row, col); the raster predecessor of a
// row's first position is the previous row's last, so flat index i-1
// covers the row wrap.
func diffuse(plane *frame.Plane, aFlat []float64, bFlat []int) *frame.Plane {
	total := plane.H * plane.W
	out := frame.NewPlane(plane.H, plane.W)

	for i := 0; i < total; i++ {
		bIdx := bFlat[i]

		var prev int
		if i == 0 {
			prev = int(plane.Data[bFlat[total-1]])
		} else {
			prev = int(out.Data[bFlat[i-1]])
		}

		out.Data[bIdx] = byte((int(plane.Data[bIdx]) + prev + diffusionKeyByte(aFlat[bIdx])) % diffusionModulus)
	}
	return out
}

// antidiffuse inverts diffuse. Every position except the origin chained
// on a ciphered value, so those subtract directly in any order; the
// origin chained on the plaintext of the final raster position, so it
// is recovered last, from the already-recovered plaintext. Requires at
// least two pixels (the callers reject smaller planes).
func antidiffuse(plane *frame.Plane, aFlat []float64, bFlat []int) *frame.Plane {
	total := plane.H * plane.W
	out := frame.NewPlane(plane.H, plane.W)

	sub := func(bIdx, prev int) byte {
		v := (int(plane.Data[bIdx]) - prev - diffusionKeyByte(aFlat[bIdx])) % diffusionModulus
		if v < 0 {
			v += diffusionModulus
		}
		return byte(v)
	}

	for i := 1; i < total; i++ {
		out.Data[bFlat[i]] = sub(bFlat[i], int(plane.Data[bFlat[i-1]]))
	}
	out.Data[bFlat[0]] = sub(bFlat[0], int(out.Data[bFlat[total-1]]))
	return out
}
