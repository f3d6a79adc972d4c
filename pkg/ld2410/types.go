// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

// CyclicReport is the latest presence reading streamed by the radar.
type CyclicReport struct {
	Engineering        bool        `json:"engineering"`
	TargetState        TargetState `json:"target_state"`
	MovingDistance     uint16      `json:"moving_distance_cm"`
	MovingEnergy       uint8       `json:"moving_energy"`
	StationaryDistance uint16      `json:"stationary_distance_cm"`
	StationaryEnergy   uint8       `json:"stationary_energy"`
	DetectionDistance  uint16      `json:"detection_distance_cm"`
}

// EngineeringData carries the per-gate energies appended to reports while
// engineering mode is on. It is zero otherwise.
type EngineeringData struct {
	MaxMovingGate       uint8            `json:"max_moving_gate"`
	MaxStationaryGate   uint8            `json:"max_stationary_gate"`
	MaxMovingEnergy     uint8            `json:"max_moving_energy"`
	MaxStationaryEnergy uint8            `json:"max_stationary_energy"`
	MovingEnergy        [GateCount]uint8 `json:"moving_energy"`
	StationaryEnergy    [GateCount]uint8 `json:"stationary_energy"`
}

// Parameters is the radar configuration returned by CmdReadParameters.
type Parameters struct {
	MaxGate               uint8            `json:"max_gate"`
	MaxMovingGate         uint8            `json:"max_moving_gate"`
	MaxStationaryGate     uint8            `json:"max_stationary_gate"`
	MovingSensitivity     [GateCount]uint8 `json:"moving_sensitivity"`
	StationarySensitivity [GateCount]uint8 `json:"stationary_sensitivity"`
	Duration              uint16           `json:"duration_s"` // no-one timeout in seconds
}

// FirmwareVersion is returned by CmdReadFirmwareVersion.
type FirmwareVersion struct {
	Major uint8  `json:"major"`
	Minor uint8  `json:"minor"`
	Patch uint32 `json:"patch"`
}

// State is the sensor state store. The parser overwrites its records in
// place as frames arrive.
type State struct {
	Report      CyclicReport
	Engineering EngineeringData
	Parameters  Parameters
	Firmware    FirmwareVersion
}

// EventKind classifies what a completed frame produced.
type EventKind uint8

// Event kinds
const (
	EventNone EventKind = iota
	EventReport
	EventAck
)

// Event is the outcome of feeding a byte to the Parser.
type Event struct {
	Kind    EventKind
	Command Command // acknowledged command, EventAck only
	Failed  bool    // radar reported a non-zero status, EventAck only
}

// Code packs the event the way the radar protocol reports it: 0 for no
// event, 1 for a new report and command+failFlag for an acknowledgement.
func (e Event) Code() uint16 {
	switch e.Kind {
	case EventReport:
		return 1
	case EventAck:
		if e.Failed {
			return uint16(e.Command) + 1
		}
		return uint16(e.Command)
	}
	return 0
}
