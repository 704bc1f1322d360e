package cosine3d

import "github.com/pixelguard/videocrypt/pkg/frame"

// permuteBlocks swaps pixel (x, y) with its block-mapped partner (r, c)
// for every coordinate in the M x M block region, in place. Forward
// permutation walks (x, y) ascending from (1, 1); the inverse walks
// descending from (M, M) — outer loop on x, inner loop on y in both
// directions, matching the reference implementation's literal loop nest.
func permuteBlocks(p *frame.Plane, blockSize int, t blockTables, inverse bool) {
	m := blockSize * blockSize

	swap := func(x, y int) {
		i := t.L[x-1][y-1]

		row := i - 1
		if row < 0 {
			row += m
		}
		j := t.Mhat[row][y-1]

		c1 := floorDivPos(i-1, blockSize)
		d1 := pymodPos(i-1, blockSize)
		c2 := floorDivPos(j-1, blockSize) + 1
		d2 := pymodPos(j-1, blockSize) + 1

		r := c1*blockSize + c2
		c := d1*blockSize + d2

		xi, yi := wrapIndex(x, p.H), wrapIndex(y, p.W)
		ri, ci := wrapIndex(r, p.H), wrapIndex(c, p.W)

		v1, v2 := p.At(ri, ci), p.At(xi, yi)
		p.Set(ri, ci, v2)
		p.Set(xi, yi, v1)
	}

	if !inverse {
		for x := 1; x <= m; x++ {
			for y := 1; y <= m; y++ {
				swap(x, y)
			}
		}
		return
	}

	for x := m; x >= 1; x-- {
		for y := m; y >= 1; y-- {
			swap(x, y)
		}
	}
}
