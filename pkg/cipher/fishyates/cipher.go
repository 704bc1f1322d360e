// Package fishyates implements Scheme A: the deterministic SHA-512 to
// logistic-map seeded row/column Fisher-Yates shuffle, followed by XOR
// diffusion with a second logistic-map keystream.
package fishyates

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/pixelguard/videocrypt/pkg/chaos"
	"github.com/pixelguard/videocrypt/pkg/frame"
	"github.com/pixelguard/videocrypt/pkg/keyfile"
)

// seeds are the four logistic-map control parameters derived from a
// frame's SHA-512 hash: (permR, permX0) seed the Fisher-Yates shuffle,
// (diffR, diffX0) seed the XOR keystream.
type seeds struct {
	permR, permX0 float64
	diffR, diffX0 float64
}

// HashFrame computes the SHA-512 hex digest of a frame's raw BGR bytes —
// the per-frame FYKey.
func HashFrame(f *frame.Frame) string {
	sum := sha512.Sum512(f.Data)
	return hex.EncodeToString(sum[:])
}

// deriveSeeds splits a 128-hex-digit FYKey into four equal quarters,
// interprets each as a big-endian unsigned integer, and rescales
// even-indexed quarters into the chaotic regime [3.57, 4.00) and
// odd-indexed quarters into a fractional seed in (0, 1).
func deriveSeeds(hash string) (seeds, error) {
	if err := keyfile.ValidateFYKey(hash); err != nil {
		return seeds{}, fmt.Errorf("fishyates: %w", err)
	}

	quarter := len(hash) / 4
	var vals [4]float64
	for i := 0; i < 4; i++ {
		part := hash[i*quarter : (i+1)*quarter]

		n := new(big.Int)
		if _, ok := n.SetString(part, 16); !ok {
			return seeds{}, fmt.Errorf("fishyates: quarter %d of key is not valid hex: %q", i, part)
		}

		frac, err := strconv.ParseFloat("0."+n.String(), 64)
		if err != nil {
			return seeds{}, fmt.Errorf("fishyates: quarter %d decimal fraction: %w", i, err)
		}

		if i%2 == 0 {
			vals[i] = frac*0.43 + 3.57
		} else {
			vals[i] = frac
		}
	}

	return seeds{permR: vals[0], permX0: vals[1], diffR: vals[2], diffX0: vals[3]}, nil
}

// Encrypt ciphers a plaintext frame and returns the hex FYKey that must
// accompany it in the key file for decryption.
func Encrypt(f *frame.Frame) (*frame.Frame, string, error) {
	hash := HashFrame(f)
	s, err := deriveSeeds(hash)
	if err != nil {
		return nil, "", err
	}

	out := f.Clone()
	permute(out, s.permX0, s.permR)

	ks := chaos.KeystreamBGR(out.H*out.W, s.diffX0, s.diffR)
	if err := out.XORKeystream(ks); err != nil {
		return nil, "", fmt.Errorf("fishyates: %w", err)
	}

	return out, hash, nil
}

// Decrypt inverts Encrypt given the ciphered frame and its FYKey.
func Decrypt(ciphered *frame.Frame, hash string) (*frame.Frame, error) {
	s, err := deriveSeeds(hash)
	if err != nil {
		return nil, err
	}

	out := ciphered.Clone()

	ks := chaos.KeystreamBGR(out.H*out.W, s.diffX0, s.diffR)
	if err := out.XORKeystream(ks); err != nil {
		return nil, fmt.Errorf("fishyates: %w", err)
	}

	unpermute(out, s.permX0, s.permR)

	return out, nil
}

// permute applies the row shuffle then the column shuffle, both seeded
// fresh at (x0, r) — the reference implementation resets the logistic
// stream between axes rather than carrying it across both.
func permute(f *frame.Frame, x0, r float64) {
	rowSwaps := chaos.FisherYatesSwaps(f.H, x0, r)
	for idx, i := 0, f.H-1; i >= 1; i, idx = i-1, idx+1 {
		f.SwapRows(i, rowSwaps[idx])
	}

	colSwaps := chaos.FisherYatesSwaps(f.W, x0, r)
	for idx, i := 0, f.W-1; i >= 1; i, idx = i-1, idx+1 {
		f.SwapCols(i, colSwaps[idx])
	}
}

// unpermute undoes permute: column inverse first, then row inverse, each
// regenerating the same swap sequence and replaying it in reverse order.
func unpermute(f *frame.Frame, x0, r float64) {
	colSwaps := chaos.FisherYatesSwaps(f.W, x0, r)
	for idx, i := 0, 1; i <= f.W-1; i, idx = i+1, idx+1 {
		j := colSwaps[len(colSwaps)-1-idx]
		f.SwapCols(i, j)
	}

	rowSwaps := chaos.FisherYatesSwaps(f.H, x0, r)
	for idx, i := 0, 1; i <= f.H-1; i, idx = i+1, idx+1 {
		j := rowSwaps[len(rowSwaps)-1-idx]
		f.SwapRows(i, j)
	}
}
