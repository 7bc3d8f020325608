package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelClosedIsIOFailure(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, ErrChannelClosed, ErrIOFailure)
	assert.ErrorIs(t, fmt.Errorf("receive: %w", ErrChannelClosed), ErrIOFailure)
	assert.NotErrorIs(t, ErrIOFailure, ErrChannelClosed)
}

func TestIsRecoverable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"channel unavailable", ErrChannelUnavailable, true},
		{"wrapped queue full", fmt.Errorf("send: %w", ErrQueueFull), true},
		{"would block", ErrWouldBlock, true},
		{"payload too large", ErrPayloadTooLarge, false},
		{"message too long", ErrMessageTooLong, false},
		{"io failure", ErrIOFailure, false},
		{"channel closed", ErrChannelClosed, false},
		{"unrelated", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(tt.err))
		})
	}
}
