// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"encoding/binary"
	"fmt"
)

// decodeReport decodes a data frame payload into the cyclic report and
// engineering records of s. Fields are written as they are decoded, so a
// payload that fails a later marker check leaves the earlier fields updated.
func decodeReport(payload []byte, s *State) error {
	if len(payload) < 2 {
		return fmt.Errorf("%w: %d bytes", ErrReportTruncated, len(payload))
	}

	s.Report.Engineering = payload[0] == engineeringFlag

	if payload[1] != reportHead {
		return fmt.Errorf("%w: 0x%02X", ErrReportHeader, payload[1])
	}

	if len(payload) < 11 {
		return fmt.Errorf("%w: %d bytes", ErrReportTruncated, len(payload))
	}
	s.Report.TargetState = TargetState(payload[2])
	s.Report.MovingDistance = binary.LittleEndian.Uint16(payload[3:5])
	s.Report.MovingEnergy = payload[5]
	s.Report.StationaryDistance = binary.LittleEndian.Uint16(payload[6:8])
	s.Report.StationaryEnergy = payload[8]
	s.Report.DetectionDistance = binary.LittleEndian.Uint16(payload[9:11])

	if !s.Report.Engineering {
		// stale gate data must not outlive engineering mode
		s.Engineering = EngineeringData{}
		if len(payload) < reportBasicSize {
			return fmt.Errorf("%w: %d bytes", ErrReportTruncated, len(payload))
		}
		return checkReportTail(payload[11], payload[12])
	}

	if len(payload) < reportEngineeringSize {
		return fmt.Errorf("%w: %d bytes in engineering mode", ErrReportTruncated, len(payload))
	}
	e := &s.Engineering
	e.MaxMovingGate = payload[11]
	e.MaxStationaryGate = payload[12]
	copy(e.MovingEnergy[:], payload[13:13+GateCount])
	copy(e.StationaryEnergy[:], payload[22:22+GateCount])
	e.MaxMovingEnergy = payload[31]
	e.MaxStationaryEnergy = payload[32]

	return checkReportTail(payload[33], payload[34])
}

func checkReportTail(tail, check byte) error {
	if tail != reportTail || check != reportCheck {
		return fmt.Errorf("%w: 0x%02X 0x%02X", ErrReportTail, tail, check)
	}
	return nil
}

// decodeAck decodes a command frame payload. The radar echoes the command
// word high byte first as command+1, followed by a little-endian status.
// Reply data is decoded into s for the two commands that carry any.
func decodeAck(payload []byte, s *State) (Command, bool, error) {
	if len(payload) < ackStatusSize {
		return 0, false, fmt.Errorf("%w: %d bytes", ErrAckTruncated, len(payload))
	}

	cmd := Command(uint16(payload[0])<<8|uint16(payload[1])) - 1
	failed := binary.LittleEndian.Uint16(payload[2:4]) != 0
	if failed {
		return cmd, true, nil
	}

	switch cmd {
	case CmdReadParameters:
		if len(payload) < 5 || payload[4] != parameterHead {
			return 0, false, fmt.Errorf("%w: % X", ErrParameterHeader, payload[min(4, len(payload)):min(5, len(payload))])
		}
		if len(payload) < ackParameterSize {
			return 0, false, fmt.Errorf("%w: %d bytes for %s", ErrAckTruncated, len(payload), FormatCommand(cmd))
		}
		prm := &s.Parameters
		prm.MaxGate = payload[5]
		prm.MaxMovingGate = payload[6]
		prm.MaxStationaryGate = payload[7]
		copy(prm.MovingSensitivity[:], payload[8:8+GateCount])
		copy(prm.StationarySensitivity[:], payload[17:17+GateCount])
		prm.Duration = binary.LittleEndian.Uint16(payload[26:28])

	case CmdReadFirmwareVersion:
		if len(payload) < ackFirmwareSize {
			return 0, false, fmt.Errorf("%w: %d bytes for %s", ErrAckTruncated, len(payload), FormatCommand(cmd))
		}
		s.Firmware.Minor = payload[6]
		s.Firmware.Major = payload[7]
		s.Firmware.Patch = binary.LittleEndian.Uint32(payload[8:12])

	default:
		// status only
	}

	return cmd, false, nil
}
