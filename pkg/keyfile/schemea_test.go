package keyfile

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha512Hex(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

func TestValidateFYKey(t *testing.T) {
	good := sha512Hex([]byte("frame bytes"))
	require.NoError(t, ValidateFYKey(good))
	assert.Len(t, good, FYKeyLength)

	assert.Error(t, ValidateFYKey("too-short"))
	assert.Error(t, ValidateFYKey(good[:len(good)-1]+"Z"))
}

func TestFYKeyFileRoundTrip(t *testing.T) {
	keys := []string{
		sha512Hex([]byte("frame 0")),
		sha512Hex([]byte("frame 1")),
		sha512Hex([]byte("frame 2")),
	}
	content := FormatFYKeyFile(keys)

	parsed, err := ParseFYKeyFile(content)
	require.NoError(t, err)
	assert.Equal(t, keys, parsed)
}

func TestParseFYKeyFileRejectsScheme(t *testing.T) {
	_, err := ParseFYKeyFile("0.123\n0.456\n")
	assert.Error(t, err)
}
