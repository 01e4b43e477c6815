package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("work order %d not found", 7)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "work order 7 not found", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("list projects: %w", Wrap(KindUnavailable, cause, "store unavailable"))

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, "store unavailable", Message(err))
}

func TestUnclassified(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal error", Message(err))
}

func TestSentinelMessage(t *testing.T) {
	assert.Equal(t, "conflict", ErrConflict.Error())
	assert.Equal(t, "conflict", Message(ErrConflict))
}
