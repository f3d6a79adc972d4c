// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/Thermoquad/ld2410/internal/logging"
)

func setupLogger(format, level string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logging.Set(logging.New(format, lvl, os.Stderr).With("app", "ld2410"))
	return nil
}
