// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var (
	rangeMovingGate     uint8
	rangeStationaryGate uint8
	rangeDuration       uint16
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or change the radar configuration",
	Long: `Send configuration commands to the radar.

Every command is wrapped in its own configuration mode session: the radar is
switched into configuration mode, the command is sent and acknowledged, and
configuration mode is left again (restart excepted).

By default a missing acknowledgement for entering or leaving configuration
mode is logged and ignored. Use --strict-config to fail instead.`,
}

var configReadParamsCmd = &cobra.Command{
	Use:   "read-params",
	Short: "Read the stored gate and timeout parameters",
	Args:  cobra.NoArgs,
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		if err := r.ReadParameters(ctx); err != nil {
			return err
		}
		fmt.Fprint(out, ld2410.FormatParameters(r.Parameters()))
		return nil
	}),
}

var configFirmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Read the firmware version",
	Args:  cobra.NoArgs,
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		if err := r.ReadFirmwareVersion(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Firmware: %s\n", ld2410.FormatFirmware(r.Firmware()))
		return nil
	}),
}

var configSetRangeCmd = &cobra.Command{
	Use:   "set-range",
	Short: "Set the farthest moving and stationary gates and the no-one duration",
	Args:  cobra.NoArgs,
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		if err := r.SetMaxDistanceAndDuration(ctx, rangeMovingGate, rangeStationaryGate, rangeDuration); err != nil {
			return err
		}
		return printParameters(ctx, r, out)
	}),
}

var configSetSensitivityCmd = &cobra.Command{
	Use:   "set-sensitivity <gate> <moving> <stationary>",
	Short: "Set the moving and stationary sensitivity of one gate",
	Args:  cobra.ExactArgs(3),
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		values, err := parseUint8Args(args)
		if err != nil {
			return err
		}
		if err := r.SetGateSensitivity(ctx, values[0], values[1], values[2]); err != nil {
			return err
		}
		return printParameters(ctx, r, out)
	}),
}

var configEngineeringCmd = &cobra.Command{
	Use:       "engineering on|off",
	Short:     "Switch engineering mode reports on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		enable, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		if err := r.SetEngineeringMode(ctx, enable); err != nil {
			return err
		}
		fmt.Fprintf(out, "Engineering mode: %s\n", args[0])
		return nil
	}),
}

var configBaudCmd = &cobra.Command{
	Use:   "baud <rate>",
	Short: "Set the radar's serial baud rate (applies after restart)",
	Args:  cobra.ExactArgs(1),
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		rate, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid baud rate %q: %w", args[0], err)
		}
		idx, ok := ld2410.BaudRateFromRate(rate)
		if !ok {
			return fmt.Errorf("%w: unsupported baud rate %d", ld2410.ErrInvalidArgument, rate)
		}
		if err := r.SetBaudRate(ctx, idx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Baud rate set to %s, restart the radar to apply\n", idx)
		return nil
	}),
}

var configFactoryResetCmd = &cobra.Command{
	Use:   "factory-reset",
	Short: "Restore factory parameters (applies after restart)",
	Args:  cobra.NoArgs,
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		if err := r.FactoryReset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Factory settings restored, restart the radar to apply")
		return nil
	}),
}

var configRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the radar",
	Args:  cobra.NoArgs,
	RunE: radarCommand(func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error {
		if err := r.Restart(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Restarting")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(
		configReadParamsCmd,
		configFirmwareCmd,
		configSetRangeCmd,
		configSetSensitivityCmd,
		configEngineeringCmd,
		configBaudCmd,
		configFactoryResetCmd,
		configRestartCmd,
	)

	configSetRangeCmd.Flags().Uint8Var(&rangeMovingGate, "moving-gate", ld2410.MaxGate, "Farthest moving target gate (0-8)")
	configSetRangeCmd.Flags().Uint8Var(&rangeStationaryGate, "stationary-gate", ld2410.MaxGate, "Farthest stationary target gate (2-8)")
	configSetRangeCmd.Flags().Uint16Var(&rangeDuration, "duration", 5, "Seconds without presence before reporting no target")
}

// radarCommand opens the radar for the duration of fn.
func radarCommand(fn func(ctx context.Context, r *ld2410.Radar, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		link, err := openRadar()
		if err != nil {
			return err
		}
		defer link.Close()
		return fn(cmd.Context(), link.radar, cmd.OutOrStdout(), args)
	}
}

func printParameters(ctx context.Context, r *ld2410.Radar, out io.Writer) error {
	if err := r.ReadParameters(ctx); err != nil {
		return fmt.Errorf("read back parameters: %w", err)
	}
	fmt.Fprint(out, ld2410.FormatParameters(r.Parameters()))
	return nil
}

func parseUint8Args(args []string) ([]uint8, error) {
	values := make([]uint8, len(args))
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", arg, err)
		}
		values[i] = uint8(v)
	}
	return values, nil
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
