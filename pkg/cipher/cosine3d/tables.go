package cosine3d

import "sort"

// argsortFloat returns the permutation of indices that would sort vals
// in ascending order, mirroring numpy.argsort's stable tie-breaking.
func argsortFloat(vals []float64) []int {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })
	return idx
}

// rotateGridCW rotates a row-major h x w grid 90 degrees clockwise,
// returning the data for a new w x h grid.
func rotateGridCW(h, w int, data []float64) []float64 {
	out := make([]float64, h*w)
	newW := h
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			out[col*newW+(h-1-row)] = data[row*w+col]
		}
	}
	return out
}

func rotateGridCWInt(h, w int, data []int) []int {
	out := make([]int, h*w)
	newW := h
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			out[col*newW+(h-1-row)] = data[row*w+col]
		}
	}
	return out
}

// diffusionTables builds the magnitude grid A and scatter-index grid B
// shared by diffuse and antidiffuse. Both are returned flattened in the
// shape (origW, origH) — the shape of the already block-rotated plane
// they will be applied to.
func diffusionTables(origH, origW int, ilmSeq []float64) (aFlat []float64, bFlat []int) {
	aFlat = rotateGridCW(origH, origW, ilmSeq)

	inA := argsortFloat(aFlat)

	bFlat = rotateGridCWInt(origH, origW, inA)

	return aFlat, bFlat
}

// blockTables holds the L and M-hat index tables the block permutation
// reads from; both are M x M, addressed [x-1][y-1].
type blockTables struct {
	L, Mhat [][]int
}

// buildTablesFromQuarters constructs L and M-hat from the four
// argsort-derived index permutations (In_P, In_Q, In_R, In_S), each of
// length M = blockSize^2.
//
// c and d are computed mod (M+1); when that yields 0, the resulting
// c-1/d-1 lookup is -1, which indexes the last element of In_P/In_R —
// a deliberate quirk of the reference implementation, preserved here via
// pyIndex rather than treated as an error.
func buildTablesFromQuarters(blockSize int, inP, inQ, inR, inS []int) blockTables {
	m := blockSize * blockSize

	l := make([][]int, m)
	mhat := make([][]int, m)
	for i := range l {
		l[i] = make([]int, m)
		mhat[i] = make([]int, m)
	}

	for y := 1; y <= m; y++ {
		for x := 1; x <= m; x++ {
			c := pymodPos(x+inQ[y-1]-1, m+1)
			d := pymodPos(x+inS[y-1]-1, m+1)

			l[x-1][y-1] = pyIndex(inP, c-1)
			mhat[x-1][y-1] = pyIndex(inR, d-1)
		}
	}

	return blockTables{L: l, Mhat: mhat}
}

// pyIndex indexes arr the way Python does: a negative idx counts back
// from the end.
func pyIndex(arr []int, idx int) int {
	if idx < 0 {
		idx += len(arr)
	}
	return arr[idx]
}

// floorDivPos is Python's floor division for a positive divisor b.
func floorDivPos(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// pymodPos is Python's modulo for a positive divisor b: the result
// always has the sign of b (here always non-negative).
func pymodPos(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// wrapIndex generalises Python's single-step negative array indexing to
// a full modular wraparound, so that block-address arithmetic landing
// exactly on (or beyond) an axis boundary degrades gracefully instead of
// panicking — the reference implementation would raise IndexError on
// these frame-dimension edge cases (e.g. a perfect-square block count
// equal to a full axis length).
func wrapIndex(idx, length int) int {
	idx %= length
	if idx < 0 {
		idx += length
	}
	return idx
}
