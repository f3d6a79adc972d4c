// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// envName maps a flag name to its environment variable, e.g. ack-timeout
// becomes LD2410_ACK_TIMEOUT.
func envName(prefix, flag string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnvOverrides sets every flag that was not given on the command line
// from its environment variable. Empty values are ignored. The first invalid
// value is returned after all other overrides were applied.
func applyEnvOverrides(fs *pflag.FlagSet, prefix string) error {
	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" || f.Name == "version" {
			return
		}
		key := envName(prefix, f.Name)
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if err := f.Value.Set(v); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("invalid %s: %w", key, err)
		}
	})
	return firstErr
}
