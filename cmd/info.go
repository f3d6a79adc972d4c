// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show firmware version and stored configuration",
	Long: `Read the firmware version and the stored parameters from the radar.

Both reads run inside their own configuration mode session. The radar keeps
streaming reports afterwards.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	link, err := openRadar()
	if err != nil {
		return err
	}
	defer link.Close()
	radar := link.radar

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "LD2410 - Device Info\n")
	fmt.Fprintf(out, "Connection: %s\n\n", link.info)

	if err := radar.Begin(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Firmware: %s\n", ld2410.FormatFirmware(radar.Firmware()))
	fmt.Fprintf(out, "Parameters:\n%s", ld2410.FormatParameters(radar.Parameters()))
	return nil
}
