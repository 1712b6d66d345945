// File: stress/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stress

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/ring"
)

var (
	ErrSizesMissing        = errors.New("sizes must not be empty")
	ErrMessagesInvalid     = errors.New("messages must not be negative")
	ErrMessagesPerByte     = errors.New("messages_per_byte must be positive when messages is 0")
	ErrOutboxDepthInvalid  = errors.New("outbox_depth must be positive")
	ErrTimeoutInvalid      = errors.New("timeout must not be negative")
	ErrBackoffSleepInvalid = errors.New("backoff min_sleep must not exceed max_sleep")
)

// Config controls a stress run.
type Config struct {
	// Sizes are the requested ring capacities, one run each.
	Sizes []uint64 `yaml:"sizes"`

	// Messages is the number of frames per run. When 0, each run sends
	// capacity*MessagesPerByte frames.
	Messages        int `yaml:"messages"`
	MessagesPerByte int `yaml:"messages_per_byte"`

	// Seed feeds the frame generator. 0 picks a time-based seed.
	Seed uint32 `yaml:"seed"`

	// Pin locks the producer and consumer to distinct CPUs.
	Pin bool `yaml:"pin"`

	// OutboxDepth is how many frames the producer generates ahead.
	OutboxDepth int `yaml:"outbox_depth"`

	// Timeout bounds each run; 0 means no limit.
	Timeout time.Duration `yaml:"timeout"`

	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig paces retries after would-block.
type BackoffConfig struct {
	Spins    int           `yaml:"spins"`
	Yields   int           `yaml:"yields"`
	MinSleep time.Duration `yaml:"min_sleep"`
	MaxSleep time.Duration `yaml:"max_sleep"`
}

// DefaultConfig mirrors the classic ring stress test: capacities from 1 KiB
// to 16 KiB, doubling, with 1024 frames per byte of capacity.
func DefaultConfig() Config {
	return Config{
		Sizes:           []uint64{1 << 10, 2 << 10, 4 << 10, 8 << 10, 16 << 10},
		MessagesPerByte: 1024,
		OutboxDepth:     16,
		Backoff: BackoffConfig{
			Spins:    64,
			Yields:   16,
			MinSleep: time.Microsecond,
			MaxSleep: 100 * time.Microsecond,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("stress: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("stress: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// MessagesFor returns the number of frames a run on a ring of capacity sends.
func (c Config) MessagesFor(capacity uint64) int {
	if c.Messages > 0 {
		return c.Messages
	}
	return int(capacity) * c.MessagesPerByte
}

// Validate reports every problem in c as one api.ErrInvalidArgument error
// wrapping a multierror.
func (c Config) Validate() error {
	var result error

	if len(c.Sizes) == 0 {
		result = multierror.Append(result, ErrSizesMissing)
	}
	for i, size := range c.Sizes {
		if size == 0 || size > ring.MaxCapacity {
			result = multierror.Append(result, fmt.Errorf("size %d (%d) must be in [1, %d]", i, size, uint64(ring.MaxCapacity)))
		}
	}
	if c.Messages < 0 {
		result = multierror.Append(result, ErrMessagesInvalid)
	}
	if c.Messages == 0 && c.MessagesPerByte <= 0 {
		result = multierror.Append(result, ErrMessagesPerByte)
	}
	if c.OutboxDepth <= 0 {
		result = multierror.Append(result, ErrOutboxDepthInvalid)
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, ErrTimeoutInvalid)
	}
	if err := c.Backoff.validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid backoff config: %w", err))
	}
	if result != nil {
		return api.NewError(api.ErrCodeInvalidArgument, "stress: invalid config").WithCause(result)
	}
	return nil
}

func (c BackoffConfig) validate() error {
	var result error
	if c.Spins < 0 || c.Yields < 0 {
		result = multierror.Append(result, errors.New("spins and yields must not be negative"))
	}
	if c.MinSleep < 0 || c.MaxSleep < 0 {
		result = multierror.Append(result, errors.New("sleeps must not be negative"))
	}
	if c.MaxSleep > 0 && c.MinSleep > c.MaxSleep {
		result = multierror.Append(result, ErrBackoffSleepInvalid)
	}
	return result
}
