package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadKeepsDefaults(t *testing.T) {
	c, err := Load(writeFile(t, "num_leds: 120\nspi:\n  inter_word_delay_us: 15\n  flush_long_chains: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 120, c.NumLEDs)
	assert.Equal(t, 120, c.BufferSize())
	assert.Equal(t, 15*time.Microsecond, c.InterWordDelay())
	assert.True(t, c.SPI.FlushLongChains)
	assert.Equal(t, int64(1000000), c.SPI.SpeedHz)
	assert.Equal(t, "rainbow", c.Effect)
	assert.Equal(t, 30, c.FPS)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"capacity", "num_leds: 10\ncapacity: 5\n"},
		{"brightness", "brightness: 1.5\n"},
		{"mode", "mode: party\n"},
		{"negative", "num_leds: -1\n"},
		{"delay", "spi:\n  inter_word_delay_us: -3\n"},
		{"speed zero", "spi:\n  speed_hz: 0\n"},
		{"speed negative", "spi:\n  speed_hz: -1\n"},
		{"yaml", "num_leds: [\n"},
	}
	for _, test := range tests {
		_, err := Load(writeFile(t, test.body))
		assert.Error(t, err, test.name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.Capacity = 64
	c.Mode = "serve"
	require.NoError(t, Save(p, c))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.Equal(t, 64, got.BufferSize())
}

func TestLoadIntoKeepsCallerSettings(t *testing.T) {
	c := Default()
	c.NumLEDs = 7
	c.SimOnly = true
	c.Mode = "serve"
	c.LogLevel = "debug"
	c.SPI.FlushLongChains = true

	require.NoError(t, LoadInto(writeFile(t, "num_leds: 3\nfps: 5\n"), c))
	assert.Equal(t, 3, c.NumLEDs)
	assert.Equal(t, 5, c.FPS)
	assert.True(t, c.SimOnly)
	assert.Equal(t, "serve", c.Mode)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.SPI.FlushLongChains)
	assert.Equal(t, int64(1000000), c.SPI.SpeedHz)
}

func TestLoadIntoLeavesConfigOnError(t *testing.T) {
	c := Default()
	c.NumLEDs = 7
	assert.Error(t, LoadInto(writeFile(t, "num_leds: 3\nbrightness: 2\n"), c))
	assert.Equal(t, 7, c.NumLEDs)

	assert.ErrorIs(t, LoadInto(filepath.Join(t.TempDir(), "nope.yaml"), c), os.ErrNotExist)
	assert.Equal(t, 7, c.NumLEDs)
}

func TestValidateSpeed(t *testing.T) {
	c := Default()
	c.SPI.SpeedHz = 0
	assert.Error(t, c.Validate())
	c.SPI.SpeedHz = 2000000
	assert.NoError(t, c.Validate())
}
