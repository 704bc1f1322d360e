package keyfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CosKey is the Scheme-B per-frame key: the ordered pair of chaotic
// seeds driving block permutation and modular diffusion.
type CosKey struct {
	PermSeed float64
	DiffSeed float64
}

// formatSeed renders a float64 as a decimal literal that round-trips
// exactly. shopspring/decimal builds its value from strconv's shortest
// round-tripping representation, so parsing it back with parseSeed
// recovers the identical float64 bit pattern.
func formatSeed(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseSeed(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("keyfile: invalid decimal seed %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// FormatSchemeBKeyFile renders the 2N+1 line Scheme-B key file: for
// each frame, perm_seed then diff_seed as decimal text, followed by the
// bracketed FrameOrder list as the final line.
func FormatSchemeBKeyFile(keys []CosKey, frameOrder []int) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(formatSeed(k.PermSeed))
		b.WriteByte('\n')
		b.WriteString(formatSeed(k.DiffSeed))
		b.WriteByte('\n')
	}
	b.WriteString(FormatFrameOrder(frameOrder))
	return b.String()
}

// ParseSchemeBKeyFile parses a Scheme-B key file into its per-frame
// CosKeys (in plaintext frame-index order) and its FrameOrder.
func ParseSchemeBKeyFile(content string) ([]CosKey, []int, error) {
	lines := splitNonEmptyLines(content)
	if len(lines) < 1 {
		return nil, nil, fmt.Errorf("keyfile: empty scheme-B key file")
	}

	frameOrder, err := ParseFrameOrder(lines[len(lines)-1])
	if err != nil {
		return nil, nil, err
	}

	seedLines := lines[:len(lines)-1]
	if len(seedLines)%2 != 0 {
		return nil, nil, fmt.Errorf("keyfile: scheme-B key file has an odd number of seed lines (%d)", len(seedLines))
	}

	keys := make([]CosKey, 0, len(seedLines)/2)
	for i := 0; i < len(seedLines); i += 2 {
		perm, err := parseSeed(seedLines[i])
		if err != nil {
			return nil, nil, fmt.Errorf("keyfile: frame %d perm_seed: %w", i/2, err)
		}
		diff, err := parseSeed(seedLines[i+1])
		if err != nil {
			return nil, nil, fmt.Errorf("keyfile: frame %d diff_seed: %w", i/2, err)
		}
		keys = append(keys, CosKey{PermSeed: perm, DiffSeed: diff})
	}

	if err := ValidateFrameOrder(frameOrder, len(keys)); err != nil {
		return nil, nil, err
	}

	return keys, frameOrder, nil
}

// FormatFrameOrder renders a permutation as a bracketed, comma-separated
// integer list, e.g. "[3, 0, 2, 1]".
func FormatFrameOrder(order []int) string {
	parts := make([]string, len(order))
	for i, v := range order {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParseFrameOrder is a strict parser for a bracketed, comma-separated
// integer list. It replaces the reference implementation's use of the
// host language's expression evaluator (eval()) on this field, which
// would execute arbitrary code from untrusted key-file content; anything
// that isn't exactly "[int, int, ...]" is rejected.
func ParseFrameOrder(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("keyfile: frame order must be a bracketed integer list, got %q", s)
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("keyfile: invalid frame order element %q: %w", p, err)
		}
		out[i] = n
	}
	return out, nil
}

// ValidateFrameOrder checks that order is a bijection on [0, n).
func ValidateFrameOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("keyfile: frame order has %d entries, expected %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n {
			return fmt.Errorf("keyfile: frame order entry %d out of range [0, %d)", v, n)
		}
		if seen[v] {
			return fmt.Errorf("keyfile: frame order entry %d appears more than once", v)
		}
		seen[v] = true
	}
	return nil
}
