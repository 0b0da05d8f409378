package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictIsPersistence(t *testing.T) {
	wrapped := fmt.Errorf("commit version: %w", ErrConflict)

	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.ErrorIs(t, wrapped, ErrPersistence)
	assert.False(t, errors.Is(ErrPersistence, ErrConflict))
}

func TestValidation(t *testing.T) {
	err := Validation("name is required")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: name is required", err.Error())
}
