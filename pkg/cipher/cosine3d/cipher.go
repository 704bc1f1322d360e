package cosine3d

import (
	"fmt"
	"math"

	"github.com/pixelguard/videocrypt/pkg/chaos"
	"github.com/pixelguard/videocrypt/pkg/entropy"
	"github.com/pixelguard/videocrypt/pkg/frame"
	"github.com/pixelguard/videocrypt/pkg/keyfile"
)

// blockSizeFor chooses the block edge length from the smaller frame
// dimension, as the reference implementation does, so the block region
// always fits inside both axes.
func blockSizeFor(h, w int) int {
	minDim := h
	if w < minDim {
		minDim = w
	}
	return int(math.Floor(math.Sqrt(float64(minDim))))
}

func buildBlockTables(blockSize int, seed float64) blockTables {
	m := blockSize * blockSize
	seq := chaos.ILMCosine(4*m, seed)

	p := argsortFloat(seq[0:m])
	q := argsortFloat(seq[m : 2*m])
	r := argsortFloat(seq[2*m : 3*m])
	s := argsortFloat(seq[3*m : 4*m])

	return buildTablesFromQuarters(blockSize, p, q, r, s)
}

// Encrypt ciphers one BGR frame under Scheme B: block permutation seeded
// by a fresh nondeterministic perm_seed, a 90-degree counter-clockwise
// plane rotation, then modular diffusion seeded by a fresh diff_seed.
// The returned frame has transposed H/W relative to the input.
func Encrypt(f *frame.Frame, src entropy.Source) (*frame.Frame, keyfile.CosKey, error) {
	blockSize := blockSizeFor(f.H, f.W)
	if blockSize < 1 || f.H*f.W < 2 {
		return nil, keyfile.CosKey{}, fmt.Errorf("cosine3d: frame %dx%d too small to cipher", f.H, f.W)
	}

	blue, green, red := f.SplitBGR()

	permSeed := generateSeed(src)
	tables := buildBlockTables(blockSize, permSeed)

	for _, plane := range []*frame.Plane{blue, green, red} {
		permuteBlocks(plane, blockSize, tables, false)
	}

	rotBlue := blue.Rot90CCW()
	rotGreen := green.Rot90CCW()
	rotRed := red.Rot90CCW()

	diffSeed := generateSeed(src)
	ilmSeq := chaos.ILMCosine(f.H*f.W, diffSeed)
	aFlat, bFlat := diffusionTables(f.H, f.W, ilmSeq)

	dBlue := diffuse(rotBlue, aFlat, bFlat)
	dGreen := diffuse(rotGreen, aFlat, bFlat)
	dRed := diffuse(rotRed, aFlat, bFlat)

	merged, err := frame.MergeBGR(dBlue, dGreen, dRed)
	if err != nil {
		return nil, keyfile.CosKey{}, fmt.Errorf("cosine3d: %w", err)
	}

	return merged, keyfile.CosKey{PermSeed: permSeed, DiffSeed: diffSeed}, nil
}

// Decrypt inverts Encrypt: anti-diffuse, rotate 270 degrees
// counter-clockwise (back to the original orientation), then inverse
// block permutation.
func Decrypt(ciphered *frame.Frame, key keyfile.CosKey) (*frame.Frame, error) {
	origH, origW := ciphered.W, ciphered.H
	if origH*origW < 2 {
		return nil, fmt.Errorf("cosine3d: frame %dx%d too small to cipher", ciphered.H, ciphered.W)
	}

	blue, green, red := ciphered.SplitBGR()

	ilmSeq := chaos.ILMCosine(origH*origW, key.DiffSeed)
	aFlat, bFlat := diffusionTables(origH, origW, ilmSeq)

	adBlue := antidiffuse(blue, aFlat, bFlat)
	adGreen := antidiffuse(green, aFlat, bFlat)
	adRed := antidiffuse(red, aFlat, bFlat)

	rBlue := adBlue.Rot270CCW()
	rGreen := adGreen.Rot270CCW()
	rRed := adRed.Rot270CCW()

	blockSize := blockSizeFor(rBlue.H, rBlue.W)
	if blockSize < 1 {
		return nil, fmt.Errorf("cosine3d: frame %dx%d too small for block permutation", rBlue.H, rBlue.W)
	}
	tables := buildBlockTables(blockSize, key.PermSeed)

	for _, plane := range []*frame.Plane{rBlue, rGreen, rRed} {
		permuteBlocks(plane, blockSize, tables, true)
	}

	merged, err := frame.MergeBGR(rBlue, rGreen, rRed)
	if err != nil {
		return nil, fmt.Errorf("cosine3d: %w", err)
	}
	return merged, nil
}

// ShuffleOrder draws a uniform random permutation of [0, n) from src —
// the whole-video frame-order shuffle applied once per encrypted video,
// not per frame.
func ShuffleOrder(src entropy.Source, n int) []int {
	return src.Permutation(n)
}
