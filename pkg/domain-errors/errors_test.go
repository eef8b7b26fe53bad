package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeUnauthorized, "token expired")
	assert.True(t, HasCode(err, CodeUnauthorized))
	assert.False(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(errors.New("plain"), CodeUnauthorized))
	assert.False(t, HasCode(nil, CodeUnauthorized))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "user not found")
	outer := fmt.Errorf("resolving principal: %w", inner)
	assert.True(t, HasCode(outer, CodeNotFound))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "revocation check failed")

	require.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
