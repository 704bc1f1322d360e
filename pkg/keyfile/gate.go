package keyfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pixelguard/videocrypt/pkg/vcerr"
)

// Scheme identifies which frame cipher a key file's content belongs to.
type Scheme int

const (
	SchemeA Scheme = iota + 1 // Fisher-Yates / logistic-map
	SchemeB                   // 3D ILM-cosine
)

func (s Scheme) String() string {
	switch s {
	case SchemeA:
		return "A (Fisher-Yates)"
	case SchemeB:
		return "B (3D-Cosine)"
	default:
		return "unknown"
	}
}

// DetectScheme classifies a key file from its first plaintext line: a
// value that parses as a floating-point literal is a Scheme-B seed,
// otherwise it is a Scheme-A SHA-512 hex digest.
func DetectScheme(firstLine string) Scheme {
	if _, err := strconv.ParseFloat(strings.TrimSpace(firstLine), 64); err == nil {
		return SchemeB
	}
	return SchemeA
}

// Gate enforces the scheme-compatibility contract: a key file must be
// classified as the scheme the caller requested before any frame work
// begins.
func Gate(firstLine string, want Scheme) error {
	got := DetectScheme(firstLine)
	if got != want {
		return fmt.Errorf("%w: key file looks like scheme %s, requested scheme %s", vcerr.ErrSchemeMismatch, got, want)
	}
	return nil
}
