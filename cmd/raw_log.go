// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/internal/logging"
	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously decode and display LD2410 frames as they arrive.

Every completed report and acknowledgement is printed with a timestamp, and
framing errors are shown inline. No commands are sent to the radar.

Supports serial, WebSocket and simulated connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "LD2410 - Raw Frame Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	return rawLog(cmd.Context(), conn, out)
}

// rawLog decodes frames from r until it fails or ctx is done.
func rawLog(ctx context.Context, r io.Reader, out io.Writer) error {
	parser := ld2410.NewParser(nil)
	buf := make([]byte, 128)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.Read(buf)
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				logging.L().Info("connection_closed")
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		for i := 0; i < n; i++ {
			ev, err := parser.DecodeByte(buf[i])
			if err != nil {
				fmt.Fprintf(out, "[ERROR] %v\n", err)
				continue
			}
			if ev.Kind != ld2410.EventNone {
				fmt.Fprint(out, formatEventLine(time.Now(), ev, parser.State()))
			}
		}
	}
}

// formatEventLine renders one decoded frame with the state it updated.
func formatEventLine(ts time.Time, ev ld2410.Event, s *ld2410.State) string {
	line := fmt.Sprintf("[%s] %s\n", ts.Format("15:04:05.000"), ld2410.FormatEvent(ev))
	switch ev.Kind {
	case ld2410.EventReport:
		line += "  " + ld2410.FormatReport(s.Report) + "\n"
		if s.Report.Engineering {
			line += ld2410.FormatEngineering(s.Engineering)
		}
	case ld2410.EventAck:
		if ev.Failed {
			break
		}
		switch ev.Command {
		case ld2410.CmdReadParameters:
			line += ld2410.FormatParameters(s.Parameters)
		case ld2410.CmdReadFirmwareVersion:
			line += "  Firmware: " + ld2410.FormatFirmware(s.Firmware) + "\n"
		}
	}
	return line
}
