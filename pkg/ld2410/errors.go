// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"errors"
	"fmt"
)

// Framing errors. The parser has already resynchronised when it returns one.
var (
	ErrLengthOverflow  = errors.New("ld2410: frame length exceeds receive capacity")
	ErrTailMismatch    = errors.New("ld2410: frame tail mismatch")
	ErrReportHeader    = errors.New("ld2410: report head marker mismatch")
	ErrReportTail      = errors.New("ld2410: report tail marker mismatch")
	ErrReportTruncated = errors.New("ld2410: report payload truncated")
	ErrParameterHeader = errors.New("ld2410: parameter head marker mismatch")
	ErrAckTruncated    = errors.New("ld2410: acknowledgement payload truncated")
)

// Command errors
var (
	ErrCommandFailed   = errors.New("ld2410: command rejected by radar")
	ErrAckTimeout      = errors.New("ld2410: timed out waiting for acknowledgement")
	ErrInvalidArgument = errors.New("ld2410: invalid argument")
)

// IsFramingError reports whether err is one of the parser's framing errors.
func IsFramingError(err error) bool {
	for _, target := range []error{
		ErrLengthOverflow, ErrTailMismatch, ErrReportHeader, ErrReportTail,
		ErrReportTruncated, ErrParameterHeader, ErrAckTruncated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CommandError is returned when the radar acknowledges a command with a
// non-zero status.
type CommandError struct {
	Command Command
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%v: %s (0x%04X)", ErrCommandFailed, FormatCommand(e.Command), uint16(e.Command))
}

// Unwrap makes errors.Is(err, ErrCommandFailed) hold.
func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}
