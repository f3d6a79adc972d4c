// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var (
	// Serial connection flags
	portName    string
	baudRate    int
	readTimeout time.Duration

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Driver flags
	simulate     bool
	ackTimeout   time.Duration
	strictConfig bool

	// Logging flags
	logFormat string
	logLevel  string
)

const envPrefix = "LD2410"

var rootCmd = &cobra.Command{
	Use:   "ld2410",
	Short: "LD2410 presence radar tool",
	Long: `ld2410 - A CLI tool for monitoring and configuring HLK-LD2410 mmWave
presence radars.

Provides commands for raw frame logging, live monitoring, a terminal
dashboard and the radar's configuration commands.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 256000]
  WebSocket: --url ws://host/path [--username user]
  Simulated: --simulate

Every flag not given on the command line may be set through an
LD2410_<FLAG> environment variable, for example LD2410_PORT or
LD2410_ACK_TIMEOUT.

For WebSocket authentication, the password is read from the LD2410_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "0.3.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyEnvOverrides(cmd.Flags(), envPrefix); err != nil {
			return err
		}
		if err := validateConfig(); err != nil {
			return err
		}
		return setupLogger(logFormat, logLevel)
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", ld2410.DefaultBaudRate, "Baud rate (serial only)")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "read-timeout", 20*time.Millisecond, "Serial read timeout")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Driver flags
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Talk to an in-process simulated radar")
	rootCmd.PersistentFlags().DurationVar(&ackTimeout, "ack-timeout", ld2410.DefaultAckTimeout, "Time to wait for a command acknowledgement")
	rootCmd.PersistentFlags().BoolVar(&strictConfig, "strict-config", false, "Fail commands whose config mode enter/exit is not acknowledged")

	// Logging flags
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
}

func validateConfig() error {
	sources := 0
	for _, set := range []bool{portName != "", wsURL != "", simulate} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("--port, --url and --simulate are mutually exclusive")
	}
	if _, ok := ld2410.BaudRateFromRate(baudRate); !ok {
		return fmt.Errorf("unsupported baud rate: %d", baudRate)
	}
	if readTimeout <= 0 {
		return fmt.Errorf("read-timeout must be > 0")
	}
	if ackTimeout <= 0 {
		return fmt.Errorf("ack-timeout must be > 0")
	}
	switch logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", logFormat)
	}
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", logLevel)
	}
	return nil
}

// Execute runs the root command until it returns or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
