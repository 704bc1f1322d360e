package keyfile

import (
	"fmt"
	"strings"
)

// FYKeyLength is the fixed hex-digest length of a Scheme-A per-frame key
// (SHA-512 hex encoding: 512 bits / 4 bits-per-hex-digit).
const FYKeyLength = 128

// ValidateFYKey checks that a Scheme-A per-frame key is exactly
// FYKeyLength lowercase hex characters.
func ValidateFYKey(key string) error {
	if len(key) != FYKeyLength {
		return fmt.Errorf("keyfile: fisher-yates key must be %d hex chars, got %d", FYKeyLength, len(key))
	}
	for _, r := range key {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return fmt.Errorf("keyfile: fisher-yates key contains non-hex-lowercase character %q", r)
		}
	}
	return nil
}

// FormatFYKeyFile renders a Scheme-A key file: one 128-hex-digit line
// per frame, in plaintext frame-index order.
func FormatFYKeyFile(keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseFYKeyFile splits a Scheme-A key file into its per-frame hashes,
// validating each line.
func ParseFYKeyFile(content string) ([]string, error) {
	lines := splitNonEmptyLines(content)
	for i, l := range lines {
		if err := ValidateFYKey(l); err != nil {
			return nil, fmt.Errorf("keyfile: line %d: %w", i, err)
		}
	}
	return lines, nil
}

func splitNonEmptyLines(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
