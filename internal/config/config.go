package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Port             string `yaml:"port"`                // periph.io port name, e.g. "SPI0.0"; empty picks the first
	SpeedHz          int64  `yaml:"speed_hz"`            // e.g. 1000000
	InterWordDelayUs int    `yaml:"inter_word_delay_us"` // pause after each LED word
	FlushLongChains  bool   `yaml:"flush_long_chains"`
}

type Config struct {
	Mode       string  `yaml:"mode"` // "effect" | "serve"
	NumLEDs    int     `yaml:"num_leds"`
	Capacity   int     `yaml:"capacity"` // pixel buffer size; defaults to num_leds
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`
	Effect     string  `yaml:"effect"`
	Addr       string  `yaml:"addr"`
	SimOnly    bool    `yaml:"sim_only"`
	LogLevel   string  `yaml:"log_level"`

	SPI SPI `yaml:"spi"`
}

func Default() *Config {
	return &Config{
		Mode:       "effect",
		NumLEDs:    50,
		Brightness: 1,
		FPS:        30,
		Effect:     "rainbow",
		Addr:       ":8080",
		LogLevel:   "info",
		SPI: SPI{
			SpeedHz: 1000000,
		},
	}
}

// Load reads path over the defaults, so missing keys keep their default.
func Load(path string) (*Config, error) {
	c := Default()
	if err := LoadInto(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadInto reads path over c. Keys the file leaves out keep the value c
// already had, so flag-built settings survive a partial config file. c is
// left untouched when the file is missing or unparsable.
func LoadInto(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next := *c
	if err := yaml.Unmarshal(b, &next); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	*c = next
	return nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.NumLEDs < 0:
		return fmt.Errorf("num_leds must not be negative, got %d", c.NumLEDs)
	case c.Capacity != 0 && c.Capacity < c.NumLEDs:
		return fmt.Errorf("capacity %d is smaller than num_leds %d", c.Capacity, c.NumLEDs)
	case c.Brightness < 0 || c.Brightness > 1:
		return fmt.Errorf("brightness must be within [0,1], got %v", c.Brightness)
	case c.FPS < 0:
		return fmt.Errorf("fps must not be negative, got %d", c.FPS)
	case c.SPI.SpeedHz <= 0:
		return fmt.Errorf("spi.speed_hz must be positive, got %d", c.SPI.SpeedHz)
	case c.SPI.InterWordDelayUs < 0:
		return fmt.Errorf("spi.inter_word_delay_us must not be negative, got %d", c.SPI.InterWordDelayUs)
	}
	switch c.Mode {
	case "", "effect", "serve":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

// BufferSize is the number of words to allocate for the pixel buffer.
func (c *Config) BufferSize() int {
	if c.Capacity > c.NumLEDs {
		return c.Capacity
	}
	return c.NumLEDs
}

func (c *Config) InterWordDelay() time.Duration {
	return time.Duration(c.SPI.InterWordDelayUs) * time.Microsecond
}
