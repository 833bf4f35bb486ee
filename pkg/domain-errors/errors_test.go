package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped coded errors", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "session not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, CodeUnavailable, "backend unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "backend unavailable: dial tcp: refused", err.Error())
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}
