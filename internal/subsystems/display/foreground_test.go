package display

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/device"
	"github.com/atlanticdynamic/coffeemaker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowText(t *testing.T) {
	t.Parallel()
	io := device.NewMemory()
	logs := &testutil.ThreadSafeBuffer{}

	result, err := ShowText(t.Context(), Config{IO: io}, "Descaling needed", slog.NewTextHandler(logs, nil))
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, "Descaling needed", io.Value(device.Display))
	assert.Contains(t, logs.String(), "Terminated.")
}

func TestShowTextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	// The display is stuck writing, so only cancellation ends the wait.
	_, err := ShowText(ctx, Config{IO: stuckIO{}}, "hello", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type stuckIO struct{}

func (stuckIO) Read(string) (int, error) { return 0, nil }

func (stuckIO) Write(string, string, device.WriteMode, bool) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}
