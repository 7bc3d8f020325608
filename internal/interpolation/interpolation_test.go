package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	t.Parallel()
	env := map[string]string{"BROKER_HOST": "broker.local", "EMPTY": "", "device_root": "/dev/coffee"}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{"empty string", "", "", false},
		{"no references", "/dev", "/dev", false},
		{"single reference", "${BROKER_HOST}", "broker.local", false},
		{"embedded reference", "tcp://${BROKER_HOST}:1883", "tcp://broker.local:1883", false},
		{"default used", "tcp://${MISSING:localhost}:${PORT:1883}", "tcp://localhost:1883", false},
		{"empty default", "${MISSING:}", "", false},
		{"set but empty wins over default", "${EMPTY:x}", "", false},
		{"undefined", "${MISSING}/dev", "${MISSING}/dev", true},
		{"lowercase reference", "${device_root}/hmi", "/dev/coffee/hmi", false},
		{"undefined lowercase", "${var}", "${var}", true},
		{"bare dollar is not a reference", "$BROKER_HOST", "$BROKER_HOST", false},
		{"digit first is not a reference", "${1VAR}", "${1VAR}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expand(tt.input, lookup)
			if tt.expectError {
				require.ErrorIs(t, err, ErrUndefinedVariable)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("COFFEEMAKER_TEST_ROOT", "/tmp/devices")
	got, err := ExpandEnvVars("${COFFEEMAKER_TEST_ROOT}/display")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/devices/display", got)
}

type service struct {
	Broker string `env_interpolation:"yes"`
	Topic  string
}

type settings struct {
	Root    string  `env_interpolation:"yes"`
	Level   string  `env_interpolation:"no"`
	Service service `env_interpolation:"yes"`
	Skipped service
	count   int
}

func TestInterpolateStruct(t *testing.T) {
	t.Setenv("COFFEEMAKER_TEST_HOST", "kitchen")

	s := &settings{
		Root:    "/srv/${COFFEEMAKER_TEST_HOST}",
		Level:   "${COFFEEMAKER_TEST_HOST}",
		Service: service{Broker: "tcp://${COFFEEMAKER_TEST_HOST}:1883", Topic: "${COFFEEMAKER_TEST_HOST}"},
		Skipped: service{Broker: "${COFFEEMAKER_TEST_HOST}"},
	}
	require.NoError(t, InterpolateStruct(s))
	assert.Equal(t, "/srv/kitchen", s.Root)
	assert.Equal(t, "${COFFEEMAKER_TEST_HOST}", s.Level)
	assert.Equal(t, "tcp://kitchen:1883", s.Service.Broker)
	assert.Equal(t, "${COFFEEMAKER_TEST_HOST}", s.Service.Topic)
	assert.Equal(t, "${COFFEEMAKER_TEST_HOST}", s.Skipped.Broker)
	assert.Zero(t, s.count)
}

func TestInterpolateStructErrors(t *testing.T) {
	t.Parallel()

	t.Run("not a pointer", func(t *testing.T) {
		require.Error(t, InterpolateStruct(settings{}))
	})
	t.Run("nil pointer", func(t *testing.T) {
		require.Error(t, InterpolateStruct((*settings)(nil)))
	})
	t.Run("undefined variable names the field", func(t *testing.T) {
		s := &settings{Service: service{Broker: "${COFFEEMAKER_TEST_UNSET_VARIABLE}"}}
		err := InterpolateStruct(s)
		require.ErrorIs(t, err, ErrUndefinedVariable)
		assert.Contains(t, err.Error(), "Service.Broker")
	})
}
