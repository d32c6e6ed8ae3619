package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	tn, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), tn)

	tn, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), tn)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world_width: 128\nseed: 99\nlog_level: debug\n"), 0644))

	tn, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, tn.WorldWidth)
	assert.Equal(t, int64(99), tn.Seed)
	assert.Equal(t, "debug", tn.LogLevel)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().WorldHeight, tn.WorldHeight)
	assert.Equal(t, Default().TicksPerDay, tn.TicksPerDay)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world_width: [not a number"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"tiny world", "world_width: 8"},
		{"zero ticks", "ticks_per_day: 0"},
		{"inverted macro band", "macro_enter_pop: 100\nmacro_exit_pop: 200"},
		{"zero stride", "macro_day_stride: 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
