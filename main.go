// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// ld2410 - HLK-LD2410 presence radar tool
//
// A CLI tool for monitoring, logging and configuring LD2410 mmWave radars
// over a serial port or a serial-over-WebSocket bridge.

package main

import (
	"os"

	"github.com/Thermoquad/ld2410/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
