// Package config provides the JSON simulation configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Config holds simulation settings shared by the CLI, the monitor and the
// akita-driven core.
type Config struct {
	// ClockFreqMHz is the core clock used when the core runs on an akita
	// engine. One pipeline tick is one clock cycle. Default: 1000 MHz.
	ClockFreqMHz float64 `json:"clock_freq_mhz"`

	// MaxTicks bounds a run-to-completion. 0 means unlimited. Default: 0.
	MaxTicks uint64 `json:"max_ticks"`

	// Trace logs every tick. Default: false.
	Trace bool `json:"trace"`

	// LogLevel is a logrus level name ("debug", "info", "warning", ...).
	// Default: "warning".
	LogLevel string `json:"log_level"`

	// RegisterDumpWidth is the number of registers per line in the monitor's
	// register dump. Default: 10.
	RegisterDumpWidth int `json:"register_dump_width"`

	// QueueDumpWidth is the number of instructions per line in the monitor's
	// instruction memory dump. Default: 5.
	QueueDumpWidth int `json:"queue_dump_width"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ClockFreqMHz:      1000,
		MaxTicks:          0,
		Trace:             false,
		LogLevel:          "warning",
		RegisterDumpWidth: 10,
		QueueDumpWidth:    5,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.ClockFreqMHz <= 0 {
		return fmt.Errorf("clock_freq_mhz must be > 0")
	}
	if c.RegisterDumpWidth <= 0 {
		return fmt.Errorf("register_dump_width must be > 0")
	}
	if c.QueueDumpWidth <= 0 {
		return fmt.Errorf("queue_dump_width must be > 0")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLogger returns a logger writing to stderr at the configured level.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	return logger, nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
