// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"encoding/binary"
	"fmt"
)

// EncodeCommandFrame builds a complete host command frame.
// The command word is written high byte first, ahead of the payload.
func EncodeCommandFrame(cmd Command, payload []byte) ([]byte, error) {
	length := 2 + len(payload)
	if length > MaxPayloadSize {
		return nil, fmt.Errorf("command payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize-2)
	}

	frame := make([]byte, 0, headerSize+lengthSize+length+tailSize)
	frame = append(frame, commandHeader[:]...)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(length))
	frame = append(frame, byte(cmd>>8), byte(cmd&0xFF))
	frame = append(frame, payload...)
	frame = append(frame, commandTail[:]...)

	return frame, nil
}

// EncodeAckFrame builds the radar's acknowledgement for cmd. A non-zero
// status marks the command as failed; data follows the status word.
func EncodeAckFrame(cmd Command, status uint16, data []byte) ([]byte, error) {
	payload := make([]byte, 0, ackStatusSize+len(data))
	ack := uint16(cmd) + 1
	payload = append(payload, byte(ack>>8), byte(ack&0xFF))
	payload = binary.LittleEndian.AppendUint16(payload, status)
	payload = append(payload, data...)
	return wrapFrame(commandHeader, commandTail, payload)
}

// EncodeReportFrame builds a data frame carrying r, and e when
// r.Engineering is set.
func EncodeReportFrame(r CyclicReport, e EngineeringData) ([]byte, error) {
	payload := make([]byte, 0, reportEngineeringSize)
	if r.Engineering {
		payload = append(payload, engineeringFlag)
	} else {
		payload = append(payload, 0x02)
	}
	payload = append(payload, reportHead, byte(r.TargetState))
	payload = binary.LittleEndian.AppendUint16(payload, r.MovingDistance)
	payload = append(payload, r.MovingEnergy)
	payload = binary.LittleEndian.AppendUint16(payload, r.StationaryDistance)
	payload = append(payload, r.StationaryEnergy)
	payload = binary.LittleEndian.AppendUint16(payload, r.DetectionDistance)

	if r.Engineering {
		payload = append(payload, e.MaxMovingGate, e.MaxStationaryGate)
		payload = append(payload, e.MovingEnergy[:]...)
		payload = append(payload, e.StationaryEnergy[:]...)
		payload = append(payload, e.MaxMovingEnergy, e.MaxStationaryEnergy)
	}
	payload = append(payload, reportTail, reportCheck)

	return wrapFrame(dataHeader, dataTail, payload)
}

// EncodeParametersData lays out p the way the radar returns it after the
// status word of a CmdReadParameters acknowledgement.
func EncodeParametersData(p Parameters) []byte {
	data := make([]byte, 0, ackParameterSize-ackStatusSize)
	data = append(data, parameterHead, p.MaxGate, p.MaxMovingGate, p.MaxStationaryGate)
	data = append(data, p.MovingSensitivity[:]...)
	data = append(data, p.StationarySensitivity[:]...)
	return binary.LittleEndian.AppendUint16(data, p.Duration)
}

// EncodeFirmwareData lays out v the way the radar returns it after the
// status word of a CmdReadFirmwareVersion acknowledgement.
func EncodeFirmwareData(firmwareType uint16, v FirmwareVersion) []byte {
	data := make([]byte, 0, ackFirmwareSize-ackStatusSize)
	data = binary.LittleEndian.AppendUint16(data, firmwareType)
	data = append(data, v.Minor, v.Major)
	return binary.LittleEndian.AppendUint32(data, v.Patch)
}

func wrapFrame(header [headerSize]byte, tail [tailSize]byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}
	frame := make([]byte, 0, headerSize+lengthSize+len(payload)+tailSize)
	frame = append(frame, header[:]...)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	return append(frame, tail[:]...), nil
}
