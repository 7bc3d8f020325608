package message

import (
	"testing"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	Seq  int    `json:"seq"`
	Note string `json:"note"`
}

func (ping) MessageType() Type { return 1 }

type pong struct {
	Seq int `json:"seq"`
}

func (*pong) MessageType() Type { return 2 }

type reserved struct{}

func (reserved) MessageType() Type { return 0 }

func TestCatalogDecode(t *testing.T) {
	t.Parallel()

	catalog, err := NewCatalog(ping{}, &pong{})
	require.NoError(t, err)

	t.Run("value variant", func(t *testing.T) {
		data, err := Encode(ping{Seq: 4, Note: "grind"})
		require.NoError(t, err)
		assert.Equal(t, byte(1), data[0])

		msg, err := catalog.Decode(data)
		require.NoError(t, err)

		p, ok := As[ping](msg)
		require.True(t, ok)
		assert.Equal(t, ping{Seq: 4, Note: "grind"}, p)

		_, ok = As[*pong](msg)
		assert.False(t, ok)
	})

	t.Run("pointer receiver variant", func(t *testing.T) {
		data, err := Encode(&pong{Seq: 9})
		require.NoError(t, err)

		msg, err := catalog.Decode(data)
		require.NoError(t, err)

		p, ok := As[*pong](msg)
		require.True(t, ok)
		assert.Equal(t, 9, p.Seq)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := catalog.Decode([]byte{42, '{', '}'})
		assert.ErrorIs(t, err, errz.ErrUnknownMessageType)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := catalog.Decode(nil)
		assert.ErrorIs(t, err, errz.ErrMalformedEnvelope)
	})

	t.Run("corrupt body", func(t *testing.T) {
		_, err := catalog.Decode([]byte{1, '{'})
		assert.ErrorIs(t, err, errz.ErrMalformedEnvelope)
	})
}

func TestCatalogRegister(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(ping{}, ping{})
	require.Error(t, err)

	_, err = NewCatalog(reserved{})
	require.ErrorIs(t, err, errz.ErrUnknownMessageType)

	_, err = Encode(reserved{})
	require.ErrorIs(t, err, errz.ErrUnknownMessageType)

	_, err = Encode(nil)
	require.ErrorIs(t, err, errz.ErrUnknownMessageType)

	assert.Panics(t, func() { MustCatalog(ping{}, ping{}) })
}
