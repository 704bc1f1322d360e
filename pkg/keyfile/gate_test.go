package keyfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixelguard/videocrypt/pkg/vcerr"
)

func TestDetectScheme(t *testing.T) {
	assert.Equal(t, SchemeB, DetectScheme("0.3"))
	assert.Equal(t, SchemeB, DetectScheme("123.456e-2"))
	assert.Equal(t, SchemeA, DetectScheme("abef0123456789"))
	assert.Equal(t, SchemeA, DetectScheme("deadbeef"))
}

func TestGateMismatch(t *testing.T) {
	err := Gate("0.42", SchemeA)
	assert.True(t, errors.Is(err, vcerr.ErrSchemeMismatch))

	err = Gate("deadbeef", SchemeB)
	assert.True(t, errors.Is(err, vcerr.ErrSchemeMismatch))
}

func TestGateMatch(t *testing.T) {
	assert.NoError(t, Gate("0.42", SchemeB))
	assert.NoError(t, Gate("deadbeefcafebabe", SchemeA))
}
