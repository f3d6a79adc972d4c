// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlags() (*pflag.FlagSet, *int, *time.Duration, *bool) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	baud := fs.Int("baud", 256000, "")
	ack := fs.Duration("ack-timeout", 100*time.Millisecond, "")
	strict := fs.Bool("strict-config", false, "")
	return fs, baud, ack, strict
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "LD2410_ACK_TIMEOUT", envName("LD2410", "ack-timeout"))
	assert.Equal(t, "LD2410_PORT", envName("LD2410", "port"))
}

func TestApplyEnvOverrides_Basic(t *testing.T) {
	fs, baud, ack, strict := newTestFlags()
	require.NoError(t, fs.Parse(nil))

	t.Setenv("LD2410_BAUD", "115200")
	t.Setenv("LD2410_ACK_TIMEOUT", "250ms")
	t.Setenv("LD2410_STRICT_CONFIG", "true")

	require.NoError(t, applyEnvOverrides(fs, "LD2410"))
	assert.Equal(t, 115200, *baud)
	assert.Equal(t, 250*time.Millisecond, *ack)
	assert.True(t, *strict)
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	fs, baud, _, _ := newTestFlags()
	require.NoError(t, fs.Parse([]string{"--baud", "57600"}))

	t.Setenv("LD2410_BAUD", "115200")

	require.NoError(t, applyEnvOverrides(fs, "LD2410"))
	assert.Equal(t, 57600, *baud)
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	fs, baud, ack, _ := newTestFlags()
	require.NoError(t, fs.Parse(nil))

	t.Setenv("LD2410_BAUD", "fast")
	t.Setenv("LD2410_ACK_TIMEOUT", "1s")
	t.Setenv("LD2410_STRICT_CONFIG", " ")

	err := applyEnvOverrides(fs, "LD2410")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LD2410_BAUD")
	assert.Equal(t, 256000, *baud)
	assert.Equal(t, time.Second, *ack, "valid overrides still apply")
}

func TestValidateConfig(t *testing.T) {
	reset := func() {
		portName, wsURL, simulate = "", "", false
		baudRate = 256000
		readTimeout = 20 * time.Millisecond
		ackTimeout = 100 * time.Millisecond
		logFormat, logLevel = "text", "warn"
	}
	t.Cleanup(reset)

	tests := []struct {
		name    string
		mutate  func()
		wantErr bool
	}{
		{"defaults", func() {}, false},
		{"port and simulate", func() { portName = "/dev/ttyUSB0"; simulate = true }, true},
		{"url alone", func() { wsURL = "ws://bridge/radar" }, false},
		{"odd baud", func() { baudRate = 12345 }, true},
		{"zero ack timeout", func() { ackTimeout = 0 }, true},
		{"bad log format", func() { logFormat = "xml" }, true},
		{"bad log level", func() { logLevel = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			tt.mutate()
			err := validateConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
