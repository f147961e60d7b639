package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestUnknownEntityError verifies the error reports every id and matches
// the sentinel through errors.Is.
func TestUnknownEntityError(t *testing.T) {
	err := NewUnknownEntityError([]int{99, 100})

	assert.True(t, errors.Is(err, ErrUnknownEntity))
	assert.Equal(t, "unknown entity ids: 99, 100", err.Error())

	var uee *UnknownEntityError
	assert.True(t, errors.As(error(err), &uee))
	assert.Equal(t, []int{99, 100}, uee.IDs)
}
