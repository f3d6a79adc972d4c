// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid LD2410 frame",
	Long: `Wait for a valid LD2410 frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any valid
report or acknowledgement frame. Noise and malformed frames are skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking wiring and baud rate before running other commands.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

// errFrameTimeout is returned by waitForFrame when no frame arrived in time
var errFrameTimeout = errors.New("no valid frame received")

// frameResult is the first valid frame seen on a connection
type frameResult struct {
	event    ld2410.Event
	state    ld2410.State
	consumed int // bytes read up to and including the frame
}

// waitForFrame reads r until one frame decodes or timeout expires.
func waitForFrame(r io.Reader, timeout time.Duration) (frameResult, error) {
	resultChan := make(chan frameResult, 1)
	errChan := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		parser := ld2410.NewParser(nil)
		buf := make([]byte, 128)
		consumed := 0
		for {
			select {
			case <-stop:
				return
			default:
			}

			n, err := r.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}

			for i := 0; i < n; i++ {
				consumed++
				ev, decodeErr := parser.DecodeByte(buf[i])
				if decodeErr != nil || ev.Kind == ld2410.EventNone {
					continue
				}
				resultChan <- frameResult{event: ev, state: *parser.State(), consumed: consumed}
				return
			}
		}
	}()

	select {
	case res := <-resultChan:
		return res, nil
	case err := <-errChan:
		return frameResult{}, err
	case <-time.After(timeout):
		return frameResult{}, errFrameTimeout
	}
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("LD2410 - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid LD2410 frame...\n\n")

	res, err := waitForFrame(conn, time.Duration(packetTestTimeout)*time.Second)
	switch {
	case err == nil:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Event: %s (code 0x%04X)\n", ld2410.FormatEvent(res.event), res.event.Code())
		if res.event.Kind == ld2410.EventReport {
			fmt.Printf("  Report: %s\n", ld2410.FormatReport(res.state.Report))
		}
		fmt.Printf("  Bytes read: %d\n", res.consumed)
		conn.Close()
		os.Exit(0)

	case errors.Is(err, errFrameTimeout):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", packetTestTimeout)
		conn.Close()
		os.Exit(1)

	default:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		conn.Close()
		os.Exit(2)
	}

	return nil
}
