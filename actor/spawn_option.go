// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"time"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/internal/validation"
)

const (
	// DefaultMailboxSize is the default mailbox bound
	DefaultMailboxSize = 100
	// DefaultMaxRestarts is the default number of restarts granted after a panic
	DefaultMaxRestarts = 5
	// DefaultInitMaxRetries is the default number of attempts to create an instance
	DefaultInitMaxRetries = 5
	// DefaultInitTimeout is the default longest delay between two creation attempts
	DefaultInitTimeout = time.Second
)

// spawnConfig defines the configuration to apply when spawning a pool
type spawnConfig struct {
	name            string
	mailboxSize     int
	maxRestarts     int
	concurrentSpawn bool
	initMaxRetries  int
	initTimeout     time.Duration
	recreateOnReset bool
}

var _ validation.Validator = (*spawnConfig)(nil)

// newSpawnConfig creates an instance of spawnConfig
func newSpawnConfig(opts ...SpawnOption) *spawnConfig {
	config := &spawnConfig{
		mailboxSize:    DefaultMailboxSize,
		maxRestarts:    DefaultMaxRestarts,
		initMaxRetries: DefaultInitMaxRetries,
		initTimeout:    DefaultInitTimeout,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Validate implements validation.Validator
func (c *spawnConfig) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddAssertion(c.mailboxSize > 0, "mailbox size must be greater than zero").
		AddAssertion(c.maxRestarts >= 0, "max restarts must not be negative").
		AddAssertion(c.initMaxRetries > 0, "init max retries must be greater than zero").
		AddAssertion(c.initTimeout > 0, "init timeout must be greater than zero")
	if c.name != "" {
		chain.AddValidator(validation.NewNameValidator(c.name, errors.ErrInvalidName))
	}
	return chain.Validate()
}

// SpawnOption is the interface that applies to a spawn configuration
type SpawnOption interface {
	// Apply sets the Option value of a config.
	Apply(config *spawnConfig)
}

var _ SpawnOption = spawnOption(nil)

// spawnOption implements the SpawnOption interface.
type spawnOption func(config *spawnConfig)

// Apply sets the Option value of a config.
func (f spawnOption) Apply(c *spawnConfig) {
	f(c)
}

// WithName names the broker. Names are unique per stage.
func WithName(name string) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.name = name
	})
}

// WithMailboxSize sets the bound of the mailbox shared by the pool
func WithMailboxSize(size int) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.mailboxSize = size
	})
}

// WithMaxRestarts sets how many times an instance is restarted after a panic
// over its whole life. Zero means the first panic is terminal.
func WithMaxRestarts(restarts int) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.maxRestarts = restarts
	})
}

// WithConcurrentSpawn creates every instance concurrently before starting any of them.
// By default instances are created and started one at a time.
func WithConcurrentSpawn() SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.concurrentSpawn = true
	})
}

// WithInitMaxRetries sets the number of attempts to create an instance
func WithInitMaxRetries(retries int) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.initMaxRetries = retries
	})
}

// WithInitTimeout sets the longest backoff between two creation attempts
func WithInitTimeout(timeout time.Duration) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.initTimeout = timeout
	})
}

// WithRecreateOnReset replaces the instance through its factory after every Reset hook
func WithRecreateOnReset() SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.recreateOnReset = true
	})
}
