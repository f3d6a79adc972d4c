// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"log/slog"
	"time"
)

// Hooks receive driver events as they happen. Any field may be nil.
// Hooks run with the driver lock held and must not call back into the Radar.
type Hooks struct {
	// OnEvent is called for every completed frame
	OnEvent func(Event)

	// OnFrameError is called for every discarded frame
	OnFrameError func(error)

	// OnCommand is called once per command request with its outcome and
	// the time spent waiting for the acknowledgement
	OnCommand func(cmd Command, err error, latency time.Duration)
}

// Config holds the driver configuration.
type Config struct {
	// AckTimeout bounds the wait for each acknowledgement
	AckTimeout time.Duration

	// StrictConfigMode makes entering and leaving configuration mode fail
	// when the radar does not acknowledge it
	StrictConfigMode bool

	// Logger receives debug and warning records (optional)
	Logger *slog.Logger

	// Clock is the monotonic time source for the ack wait
	Clock func() time.Time

	Hooks Hooks
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		AckTimeout: DefaultAckTimeout,
		Logger:     slog.New(slog.DiscardHandler),
		Clock:      time.Now,
	}
}

// Option is a functional option for configuring the Radar.
type Option func(*Config)

// WithAckTimeout sets how long a command waits for its acknowledgement.
// Default is 100ms.
//
// Example:
//
//	radar := ld2410.New(port, ld2410.WithAckTimeout(250*time.Millisecond))
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.AckTimeout = timeout
		}
	}
}

// WithStrictConfigMode makes configuration mode entry and exit ack-checked.
// By default both are assumed to succeed.
func WithStrictConfigMode(strict bool) Option {
	return func(c *Config) {
		c.StrictConfigMode = strict
	}
}

// WithLogger sets the logger for driver diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithClock replaces time.Now as the ack timeout time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithHooks installs instrumentation callbacks.
//
// Example:
//
//	radar := ld2410.New(port, ld2410.WithHooks(ld2410.Hooks{
//	    OnFrameError: func(err error) { log.Println(err) },
//	}))
func WithHooks(hooks Hooks) Option {
	return func(c *Config) {
		c.Hooks = hooks
	}
}
