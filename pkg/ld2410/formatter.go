// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"fmt"
	"strings"
)

// FormatCommand returns the human-readable name for a command word
func FormatCommand(cmd Command) string {
	switch cmd {
	case CmdEnableConfig:
		return "ENABLE_CONFIG"
	case CmdDisableConfig:
		return "DISABLE_CONFIG"
	case CmdSetMaxDistanceAndDuration:
		return "SET_MAX_DIST_AND_DUR"
	case CmdReadParameters:
		return "READ_PARAMETER"
	case CmdEnableEngineering:
		return "ENABLE_ENG_MODE"
	case CmdDisableEngineering:
		return "DISABLE_ENG_MODE"
	case CmdSetGateSensitivity:
		return "SET_GATE_SENS"
	case CmdReadFirmwareVersion:
		return "READ_FW_VERSION"
	case CmdSetBaudRate:
		return "SET_BAUDRATE"
	case CmdFactoryReset:
		return "FACTORY_RESET"
	case CmdRestart:
		return "RESTART"
	default:
		return fmt.Sprintf("UNKNOWN_0x%04X", uint16(cmd))
	}
}

func (c Command) String() string {
	return FormatCommand(c)
}

func (t TargetState) String() string {
	switch t {
	case TargetNone:
		return "NO_TARGET"
	case TargetMoving:
		return "MOVING"
	case TargetStationary:
		return "STATIONARY"
	case TargetMovingAndStationary:
		return "MOVING_AND_STATIONARY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

func (b BaudRate) String() string {
	if rate := b.Rate(); rate != 0 {
		return fmt.Sprintf("%d", rate)
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(b))
}

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "NONE"
	case EventReport:
		return "REPORT"
	case EventAck:
		return "ACK"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// FormatReport formats a cyclic report on one line
func FormatReport(r CyclicReport) string {
	mode := "basic"
	if r.Engineering {
		mode = "engineering"
	}
	return fmt.Sprintf("%s mode=%s moving=%dcm/%d stationary=%dcm/%d detection=%dcm",
		r.TargetState, mode,
		r.MovingDistance, r.MovingEnergy,
		r.StationaryDistance, r.StationaryEnergy,
		r.DetectionDistance)
}

// FormatEngineering formats per-gate energies as a table
func FormatEngineering(e EngineeringData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  max gate:   moving=%d stationary=%d\n", e.MaxMovingGate, e.MaxStationaryGate)
	fmt.Fprintf(&sb, "  max energy: moving=%d stationary=%d\n", e.MaxMovingEnergy, e.MaxStationaryEnergy)
	sb.WriteString("  gate  moving  stationary\n")
	for gate := range GateCount {
		fmt.Fprintf(&sb, "  %4d  %6d  %10d\n", gate, e.MovingEnergy[gate], e.StationaryEnergy[gate])
	}
	return sb.String()
}

// FormatParameters formats the radar configuration as a table
func FormatParameters(p Parameters) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  max gate:            %d\n", p.MaxGate)
	fmt.Fprintf(&sb, "  max moving gate:     %d\n", p.MaxMovingGate)
	fmt.Fprintf(&sb, "  max stationary gate: %d\n", p.MaxStationaryGate)
	fmt.Fprintf(&sb, "  no-one duration:     %ds\n", p.Duration)
	sb.WriteString("  gate  moving  stationary\n")
	for gate := range GateCount {
		fmt.Fprintf(&sb, "  %4d  %6d  %10d\n", gate, p.MovingSensitivity[gate], p.StationarySensitivity[gate])
	}
	return sb.String()
}

// FormatFirmware formats a firmware version the way the vendor tool shows it
func FormatFirmware(v FirmwareVersion) string {
	return fmt.Sprintf("V%d.%02d.%08X", v.Major, v.Minor, v.Patch)
}

// FormatEvent formats a parser event for logs
func FormatEvent(ev Event) string {
	switch ev.Kind {
	case EventAck:
		status := "ok"
		if ev.Failed {
			status = "failed"
		}
		return fmt.Sprintf("ACK %s %s", ev.Command, status)
	default:
		return ev.Kind.String()
	}
}
