package envelope

import (
	"bytes"
	"testing"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	sender := &Identity{ID: 7, Name: "coffeePowderDispenser"}

	t.Run("every payload size with and without sender", func(t *testing.T) {
		for _, withSender := range []bool{false, true} {
			limit := MaxMessageSize - LengthPrefixSize
			if withSender {
				limit = MaxPayloadSize
			}
			for n := 0; n <= limit; n += 37 {
				payload := bytes.Repeat([]byte{0xA5}, n)
				var s *Identity
				if withSender {
					s = sender
				}

				data, err := Encode(payload, s)
				require.NoError(t, err)
				assert.Len(t, data, Size(n, withSender))

				env, err := Decode(data, MaxMessageSize)
				require.NoError(t, err)
				assert.Equal(t, payload, env.Payload)
				if withSender {
					assert.False(t, env.Anonymous)
					assert.Equal(t, *sender, env.Sender)
				} else {
					assert.True(t, env.Anonymous)
					assert.Equal(t, UnknownSender, env.Sender)
					assert.True(t, env.Sender.IsUnknown())
				}
			}
		}
	})

	t.Run("largest payload with sender fits exactly", func(t *testing.T) {
		data, err := Encode(make([]byte, MaxPayloadSize), sender)
		require.NoError(t, err)
		assert.Len(t, data, MaxMessageSize)
	})

	t.Run("name of maximum length survives", func(t *testing.T) {
		id := &Identity{ID: 1, Name: string(bytes.Repeat([]byte("n"), MaxNameLength))}
		data, err := Encode([]byte("x"), id)
		require.NoError(t, err)

		env, err := Decode(data, 16)
		require.NoError(t, err)
		assert.Equal(t, *id, env.Sender)
	})
}

func TestEncodeRejectsOversize(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		data, err := Encode(make([]byte, MaxMessageSize-LengthPrefixSize+1), nil)
		require.ErrorIs(t, err, errz.ErrPayloadTooLarge)
		assert.Nil(t, data)
	})

	t.Run("sender block pushes over the limit", func(t *testing.T) {
		data, err := Encode(make([]byte, MaxPayloadSize+1), &Identity{Name: "a"})
		require.ErrorIs(t, err, errz.ErrPayloadTooLarge)
		assert.Nil(t, data)
	})

	t.Run("invalid sender name", func(t *testing.T) {
		_, err := Encode([]byte("x"), &Identity{Name: ""})
		require.ErrorIs(t, err, errz.ErrInvalidName)
	})
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	valid, err := Encode([]byte("hello"), &Identity{ID: 3, Name: "ui"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		capacity int
		want     error
	}{
		{"shorter than prefix", []byte{1, 2, 3}, 10, errz.ErrMalformedEnvelope},
		{"payload longer than capacity", valid, 4, errz.ErrMessageTooLong},
		{"truncated payload", valid[:LengthPrefixSize+2], 10, errz.ErrMalformedEnvelope},
		{"partial sender block", valid[:len(valid)-1], 10, errz.ErrMalformedEnvelope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.capacity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateName("motorController"))
	assert.ErrorIs(t, ValidateName(""), errz.ErrInvalidName)
	assert.ErrorIs(t, ValidateName(string(make([]byte, MaxNameLength+1))), errz.ErrInvalidName)
	assert.ErrorIs(t, ValidateName("a\x00b"), errz.ErrInvalidName)
}
