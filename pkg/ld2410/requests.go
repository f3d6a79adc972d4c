// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"context"
	"fmt"
)

// Parameter word identifiers used by the setter payloads
const (
	wordMaxMovingGate     uint16 = 0x0000
	wordMaxStationaryGate uint16 = 0x0001
	wordDuration          uint16 = 0x0002
	wordGate              uint16 = 0x0000
	wordMovingSens        uint16 = 0x0001
	wordStationarySens    uint16 = 0x0002
)

const (
	minStationaryGate = 2
	maxSensitivity    = 100
	wordPayloadSize   = 18
)

// NewMaxDistanceAndDurationPayload builds the payload of
// CmdSetMaxDistanceAndDuration.
func NewMaxDistanceAndDurationPayload(movingGate, stationaryGate uint8, seconds uint16) ([]byte, error) {
	if movingGate > MaxGate {
		return nil, fmt.Errorf("%w: moving gate %d outside 0..%d", ErrInvalidArgument, movingGate, MaxGate)
	}
	if stationaryGate < minStationaryGate || stationaryGate > MaxGate {
		return nil, fmt.Errorf("%w: stationary gate %d outside %d..%d", ErrInvalidArgument, stationaryGate, minStationaryGate, MaxGate)
	}

	payload := make([]byte, wordPayloadSize)
	putWord(payload[0:6], wordMaxMovingGate, uint32(movingGate))
	putWord(payload[6:12], wordMaxStationaryGate, uint32(stationaryGate))
	putWord(payload[12:18], wordDuration, uint32(seconds))
	return payload, nil
}

// NewGateSensitivityPayload builds the payload of CmdSetGateSensitivity.
func NewGateSensitivityPayload(gate, moving, stationary uint8) ([]byte, error) {
	if gate > MaxGate {
		return nil, fmt.Errorf("%w: gate %d outside 0..%d", ErrInvalidArgument, gate, MaxGate)
	}
	if moving > maxSensitivity || stationary > maxSensitivity {
		return nil, fmt.Errorf("%w: sensitivity %d/%d above %d", ErrInvalidArgument, moving, stationary, maxSensitivity)
	}

	payload := make([]byte, wordPayloadSize)
	putWord(payload[0:6], wordGate, uint32(gate))
	putWord(payload[6:12], wordMovingSens, uint32(moving))
	putWord(payload[12:18], wordStationarySens, uint32(stationary))
	return payload, nil
}

// NewBaudRatePayload builds the payload of CmdSetBaudRate.
func NewBaudRatePayload(rate BaudRate) ([]byte, error) {
	if !rate.Valid() {
		return nil, fmt.Errorf("%w: baud rate index %d", ErrInvalidArgument, rate)
	}
	return []byte{byte(rate), 0x00}, nil
}

// SetMaxDistanceAndDuration sets the farthest moving and stationary
// detection gates and how long presence is held after the last detection.
func (r *Radar) SetMaxDistanceAndDuration(ctx context.Context, movingGate, stationaryGate uint8, seconds uint16) error {
	payload, err := NewMaxDistanceAndDurationPayload(movingGate, stationaryGate, seconds)
	if err != nil {
		return err
	}
	return r.sendCommand(ctx, CmdSetMaxDistanceAndDuration, payload)
}

// ReadParameters reads the stored configuration into Parameters.
func (r *Radar) ReadParameters(ctx context.Context) error {
	return r.sendCommand(ctx, CmdReadParameters, nil)
}

// SetEngineeringMode turns per-gate energy reporting on or off.
func (r *Radar) SetEngineeringMode(ctx context.Context, enable bool) error {
	if enable {
		return r.sendCommand(ctx, CmdEnableEngineering, nil)
	}
	return r.sendCommand(ctx, CmdDisableEngineering, nil)
}

// SetGateSensitivity sets the moving and stationary thresholds of one gate.
func (r *Radar) SetGateSensitivity(ctx context.Context, gate, moving, stationary uint8) error {
	payload, err := NewGateSensitivityPayload(gate, moving, stationary)
	if err != nil {
		return err
	}
	return r.sendCommand(ctx, CmdSetGateSensitivity, payload)
}

// SetBaudRate changes the radar's serial speed. It takes effect after the
// next restart.
func (r *Radar) SetBaudRate(ctx context.Context, rate BaudRate) error {
	payload, err := NewBaudRatePayload(rate)
	if err != nil {
		return err
	}
	return r.sendCommand(ctx, CmdSetBaudRate, payload)
}

// FactoryReset restores factory configuration. It takes effect after the
// next restart.
func (r *Radar) FactoryReset(ctx context.Context) error {
	return r.sendCommand(ctx, CmdFactoryReset, nil)
}

// Restart reboots the radar. Configuration mode is not exited explicitly.
func (r *Radar) Restart(ctx context.Context) error {
	return r.sendCommand(ctx, CmdRestart, nil)
}

// ReadFirmwareVersion reads the firmware version into Firmware.
func (r *Radar) ReadFirmwareVersion(ctx context.Context) error {
	return r.sendCommand(ctx, CmdReadFirmwareVersion, nil)
}
