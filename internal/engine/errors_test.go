package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	unknown := NewUnknownSeatError("A1")
	invalid := NewInvalidStateError("A1", "Hovering")
	config := NewConfigError("stability_window", "must be positive")

	assert.True(t, IsUnknownSeat(unknown))
	assert.False(t, IsUnknownSeat(invalid))
	assert.True(t, IsInvalidState(invalid))
	assert.True(t, IsBadConfig(config))
	assert.False(t, IsBadConfig(errors.New("plain")))
}

func TestErrorPredicates_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("handling request: %w", NewUnknownSeatError("B2"))
	assert.True(t, IsUnknownSeat(wrapped))
	assert.False(t, IsInvalidState(wrapped))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "UNKNOWN_SEAT: seat is not registered (seat=A1)",
		NewUnknownSeatError("A1").Error())
	assert.Equal(t, `INVALID_STATE: invalid occupancy state "Hovering" (seat=A1)`,
		NewInvalidStateError("A1", "Hovering").Error())
	assert.Equal(t, "BAD_CONFIG: stability_window: must be positive",
		NewConfigError("stability_window", "must be positive").Error())
}
