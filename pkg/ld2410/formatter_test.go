// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CmdEnableConfig, "ENABLE_CONFIG"},
		{CmdReadParameters, "READ_PARAMETER"},
		{CmdReadFirmwareVersion, "READ_FW_VERSION"},
		{CmdRestart, "RESTART"},
		{Command(0x1234), "UNKNOWN_0x1234"},
	}

	for _, tt := range tests {
		if got := FormatCommand(tt.cmd); got != tt.want {
			t.Errorf("FormatCommand(0x%04X) = %q, want %q", uint16(tt.cmd), got, tt.want)
		}
	}
}

func TestEnumStrings(t *testing.T) {
	if got := TargetMovingAndStationary.String(); got != "MOVING_AND_STATIONARY" {
		t.Errorf("target state: %q", got)
	}
	if got := TargetState(7).String(); got != "UNKNOWN(7)" {
		t.Errorf("unknown target state: %q", got)
	}
	if got := Baud115200.String(); got != "115200" {
		t.Errorf("baud rate: %q", got)
	}
	if got := fmt.Sprint(EventAck); got != "ACK" {
		t.Errorf("event kind: %q", got)
	}
}

func TestBaudRateFromRate(t *testing.T) {
	for idx, rate := range baudRates {
		got, ok := BaudRateFromRate(rate)
		if !ok || got != idx {
			t.Errorf("BaudRateFromRate(%d) = %d, %v", rate, got, ok)
		}
	}
	if _, ok := BaudRateFromRate(12345); ok {
		t.Error("12345 should not map to an index")
	}
	if DefaultBaudRate != Baud256000.Rate() {
		t.Errorf("default baud rate mismatch")
	}
}

func TestFormatReport(t *testing.T) {
	got := FormatReport(CyclicReport{
		TargetState:       TargetMoving,
		MovingDistance:    120,
		MovingEnergy:      45,
		DetectionDistance: 120,
	})
	want := "MOVING mode=basic moving=120cm/45 stationary=0cm/0 detection=120cm"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestFormatFirmware(t *testing.T) {
	got := FormatFirmware(FirmwareVersion{Major: 1, Minor: 2, Patch: 0x22062416})
	if got != "V1.02.22062416" {
		t.Errorf("got %q", got)
	}
}

func TestFormatTables(t *testing.T) {
	params := FormatParameters(Parameters{Duration: 5, MovingSensitivity: [GateCount]uint8{50}})
	if !strings.Contains(params, "no-one duration:     5s") {
		t.Errorf("parameters table missing duration:\n%s", params)
	}
	if strings.Count(params, "\n") != 5+GateCount {
		t.Errorf("parameters table should list every gate:\n%s", params)
	}

	eng := FormatEngineering(EngineeringData{MaxMovingGate: 8})
	if strings.Count(eng, "\n") != 3+GateCount {
		t.Errorf("engineering table should list every gate:\n%s", eng)
	}
}

func TestCommandError(t *testing.T) {
	var err error = &CommandError{Command: CmdSetBaudRate}
	if !errors.Is(err, ErrCommandFailed) {
		t.Error("CommandError should unwrap to ErrCommandFailed")
	}
	if !strings.Contains(err.Error(), "SET_BAUDRATE") {
		t.Errorf("error should name the command: %s", err)
	}
}

// ============================================================
// Validator Tests
// ============================================================

func TestValidateReport(t *testing.T) {
	tests := []struct {
		name  string
		r     CyclicReport
		e     EngineeringData
		types []AnomalyType
	}{
		{
			name: "plausible",
			r:    CyclicReport{TargetState: TargetMoving, MovingEnergy: 100},
		},
		{
			name:  "unknown target",
			r:     CyclicReport{TargetState: 4},
			types: []AnomalyType{AnomalyInvalidTarget},
		},
		{
			name:  "energy above 100",
			r:     CyclicReport{MovingEnergy: 101, StationaryEnergy: 200},
			types: []AnomalyType{AnomalyEnergyRange, AnomalyEnergyRange},
		},
		{
			name:  "gate data ignored in basic mode",
			r:     CyclicReport{},
			e:     EngineeringData{MaxMovingGate: 12},
			types: nil,
		},
		{
			name: "engineering gate and energy",
			r:    CyclicReport{Engineering: true},
			e: EngineeringData{
				MaxMovingGate:    12,
				MovingEnergy:     [GateCount]uint8{0, 0, 0, 150},
				StationaryEnergy: [GateCount]uint8{0, 0, 0, 0, 0, 0, 0, 0, 101},
			},
			types: []AnomalyType{AnomalyGateRange, AnomalyEnergyRange, AnomalyEnergyRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateReport(tt.r, tt.e)
			if len(errs) != len(tt.types) {
				t.Fatalf("expected %d anomalies, got %v", len(tt.types), errs)
			}
			for i, want := range tt.types {
				if errs[i].Type != want {
					t.Errorf("anomaly %d: expected %s, got %s (%s)", i, want, errs[i].Type, errs[i].Message)
				}
			}
		})
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Record(t *testing.T) {
	s := NewStatistics()

	s.RecordEvent(Event{Kind: EventReport})
	s.RecordEvent(Event{Kind: EventAck, Command: CmdRestart})
	s.RecordEvent(Event{Kind: EventAck, Command: CmdRestart, Failed: true})
	s.RecordFrameError(fmt.Errorf("%w: 99", ErrLengthOverflow))
	s.RecordFrameError(ErrTailMismatch)
	s.RecordFrameError(ErrReportHeader)
	s.RecordFrameError(ErrParameterHeader)
	s.RecordFrameError(ErrAckTruncated)
	s.RecordAnomalies([]ValidationError{{Type: AnomalyEnergyRange}, {Type: AnomalyGateRange}})
	s.RecordAnomalies(nil)
	s.RecordCommand(nil)
	s.RecordCommand(&CommandError{Command: CmdRestart})
	s.RecordCommand(fmt.Errorf("%w: RESTART", ErrAckTimeout))

	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"total", s.TotalFrames, 8},
		{"reports", s.Reports, 1},
		{"acks", s.Acks, 2},
		{"failed acks", s.FailedAcks, 1},
		{"overflow", s.LengthOverflow, 1},
		{"tail", s.TailMismatch, 1},
		{"markers", s.MarkerErrors, 2},
		{"truncated", s.Truncated, 1},
		{"frame errors", s.FrameErrors(), 5},
		{"anomalous reports", s.AnomalousReports, 1},
		{"energy range", s.EnergyRange, 1},
		{"gate range", s.GateRange, 1},
		{"commands ok", s.CommandsOK, 1},
		{"commands failed", s.CommandsFailed, 1},
		{"commands timed out", s.CommandsTimedOut, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}

	summary := s.String()
	for _, want := range []string{"Total Frames:", "Length Overflow:", "Commands:"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	s.Reset()
	if s.TotalFrames != 0 || s.CommandsOK != 0 {
		t.Errorf("Reset should clear counters: %+v", s)
	}
}
