package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := NotFound("booking %d not found", 7)
	assert.EqualError(t, err, "booking 7 not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidState)

	wrapped := fmt.Errorf("lookup: %w", NotAvailable("item is not available"))
	assert.ErrorIs(t, wrapped, ErrNotAvailable)
	assert.Equal(t, ErrNotAvailable, KindOf(wrapped))

	assert.ErrorIs(t, ErrConcurrentModification, ErrInvalidState)
	assert.Equal(t, ErrInvalidState, KindOf(InvalidState("bad")))
	assert.Nil(t, KindOf(errors.New("disk full")))
}
