// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ld2410 is a driver for the HLK-LD2410 24 GHz presence radar.
//
// The radar streams cyclic report frames over its UART and answers
// configuration commands with acknowledgement frames that share the same
// envelope. This package parses that byte stream, decodes report and
// acknowledgement payloads into sensor state, and runs the configuration
// mode request/response protocol on top of a caller supplied Transport.
package ld2410

import "time"

// Frame envelope
const (
	headerSize = 4
	tailSize   = 4
	lengthSize = 2
)

// MaxPayloadSize is the receive capacity for the bytes between length field
// and tail. Frames declaring more are discarded.
const MaxPayloadSize = 40

// GateCount is the number of distance gates the radar reports per frame.
const GateCount = 9

// MaxGate is the highest gate index.
const MaxGate = GateCount - 1

var (
	dataHeader    = [headerSize]byte{0xF4, 0xF3, 0xF2, 0xF1}
	dataTail      = [tailSize]byte{0xF8, 0xF7, 0xF6, 0xF5}
	commandHeader = [headerSize]byte{0xFD, 0xFC, 0xFB, 0xFA}
	commandTail   = [tailSize]byte{0x04, 0x03, 0x02, 0x01}
)

// Report payload markers
const (
	reportHead      = 0xAA
	reportTail      = 0x55
	reportCheck     = 0x00
	engineeringFlag = 0x01
	parameterHead   = 0xAA
)

// Report payload sizes
const (
	reportBasicSize       = 13 // flag, head, 9 data bytes, tail, check
	reportEngineeringSize = 35
	ackStatusSize         = 4 // command word + status word
	ackParameterSize      = 28
	ackFirmwareSize       = 12
)

// DefaultAckTimeout bounds the wait for a command acknowledgement.
const DefaultAckTimeout = 100 * time.Millisecond

// Parser states (internal)
const (
	stateFindHeader = iota
	stateReceiveLength
	stateReceivePayload
)

// frameKind selects the decode path once a frame is complete.
type frameKind int

const (
	kindData frameKind = iota
	kindCommand
)

// Command is a radar configuration command word.
type Command uint16

// Radar commands. The radar acknowledges command X by echoing X+1.
const (
	CmdEnableConfig              Command = 0xFF00
	CmdDisableConfig             Command = 0xFE00
	CmdSetMaxDistanceAndDuration Command = 0x6000
	CmdReadParameters            Command = 0x6100
	CmdEnableEngineering         Command = 0x6200
	CmdDisableEngineering        Command = 0x6300
	CmdSetGateSensitivity        Command = 0x6400
	CmdReadFirmwareVersion       Command = 0xA000
	CmdSetBaudRate               Command = 0xA100
	CmdFactoryReset              Command = 0xA200
	CmdRestart                   Command = 0xA300
)

// TargetState is the presence classification of a cyclic report.
type TargetState uint8

// Target state values
const (
	TargetNone                TargetState = 0x00
	TargetMoving              TargetState = 0x01
	TargetStationary          TargetState = 0x02
	TargetMovingAndStationary TargetState = 0x03
)

// BaudRate is the radar's serial speed index.
type BaudRate uint8

// Baud rate index values
const (
	Baud9600   BaudRate = 0x01
	Baud19200  BaudRate = 0x02
	Baud38400  BaudRate = 0x03
	Baud57600  BaudRate = 0x04
	Baud115200 BaudRate = 0x05
	Baud230400 BaudRate = 0x06
	Baud256000 BaudRate = 0x07 // factory default
	Baud460800 BaudRate = 0x08
)

// DefaultBaudRate is the radar's factory serial speed in bits per second.
const DefaultBaudRate = 256000

var baudRates = map[BaudRate]int{
	Baud9600:   9600,
	Baud19200:  19200,
	Baud38400:  38400,
	Baud57600:  57600,
	Baud115200: 115200,
	Baud230400: 230400,
	Baud256000: 256000,
	Baud460800: 460800,
}

// Rate returns the speed in bits per second, or 0 for an unknown index.
func (b BaudRate) Rate() int {
	return baudRates[b]
}

// Valid reports whether b is a known index.
func (b BaudRate) Valid() bool {
	_, ok := baudRates[b]
	return ok
}

// BaudRateFromRate maps a speed in bits per second to its index.
func BaudRateFromRate(rate int) (BaudRate, bool) {
	for idx, r := range baudRates {
		if r == rate {
			return idx, true
		}
	}
	return 0, false
}
