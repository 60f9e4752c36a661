package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatchingWithErrorsIs(t *testing.T) {
	err := Conflict("already enrolled")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "already enrolled", err.Error())
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("enrolling: %w", NotFound("course not found"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWrapKeepsBothKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrInvalidState, "attempt transition failed", cause)

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
