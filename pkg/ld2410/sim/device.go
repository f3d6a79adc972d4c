// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sim provides an in-process LD2410 that speaks the radar's wire
// protocol. It implements ld2410.Transport.
package sim

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var (
	commandHeader = []byte{0xFD, 0xFC, 0xFB, 0xFA}
	commandTail   = []byte{0x04, 0x03, 0x02, 0x01}
)

const (
	statusOK     uint16 = 0x0000
	statusFailed uint16 = 0x0001

	protocolVersion uint16 = 0x0001
	bufferSize      uint16 = 0x0040
)

// DefaultParameters is the factory configuration.
func DefaultParameters() ld2410.Parameters {
	return ld2410.Parameters{
		MaxGate:               ld2410.MaxGate,
		MaxMovingGate:         ld2410.MaxGate,
		MaxStationaryGate:     ld2410.MaxGate,
		MovingSensitivity:     [ld2410.GateCount]uint8{50, 50, 40, 30, 20, 15, 15, 15, 15},
		StationarySensitivity: [ld2410.GateCount]uint8{0, 0, 40, 40, 30, 30, 20, 20, 20},
		Duration:              5,
	}
}

// DefaultFirmware is the firmware version the device reports.
var DefaultFirmware = ld2410.FirmwareVersion{Major: 1, Minor: 2, Patch: 0x22062416}

// Generator produces the report sent on auto-report tick number step.
type Generator func(step int) (ld2410.CyclicReport, ld2410.EngineeringData)

// Device is a simulated radar. Bytes written to it are parsed as host
// command frames and answered with acknowledgement frames; reports are
// queued explicitly or generated on a timer.
type Device struct {
	mu sync.Mutex

	out []byte // device to host
	in  []byte // host to device, not yet framed

	configMode  bool
	engineering bool
	baud        ld2410.BaudRate
	params      ld2410.Parameters
	firmware    ld2410.FirmwareVersion
	restarts    int

	reject   map[ld2410.Command]bool
	silent   map[ld2410.Command]bool
	received []ld2410.Command

	autoInterval time.Duration
	lastAuto     time.Time
	step         int
	generate     Generator
	clock        func() time.Time
}

// Option configures a Device.
type Option func(*Device)

// WithAutoReport emits one generated report every interval.
func WithAutoReport(interval time.Duration) Option {
	return func(d *Device) {
		d.autoInterval = interval
	}
}

// WithGenerator replaces the synthetic report generator.
func WithGenerator(g Generator) Option {
	return func(d *Device) {
		if g != nil {
			d.generate = g
		}
	}
}

// WithParameters sets the stored configuration.
func WithParameters(p ld2410.Parameters) Option {
	return func(d *Device) {
		d.params = p
	}
}

// WithFirmware sets the reported firmware version.
func WithFirmware(v ld2410.FirmwareVersion) Option {
	return func(d *Device) {
		d.firmware = v
	}
}

// WithClock replaces time.Now for auto-report pacing.
func WithClock(clock func() time.Time) Option {
	return func(d *Device) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New creates a simulated radar in its factory state.
func New(opts ...Option) *Device {
	d := &Device{
		baud:     ld2410.Baud256000,
		params:   DefaultParameters(),
		firmware: DefaultFirmware,
		reject:   make(map[ld2410.Command]bool),
		silent:   make(map[ld2410.Command]bool),
		generate: Synthetic,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.lastAuto = d.clock()
	return d
}

// Available reports whether a byte is waiting for the host.
func (d *Device) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.out) == 0 && d.autoInterval > 0 {
		if now := d.clock(); now.Sub(d.lastAuto) >= d.autoInterval {
			d.lastAuto = now
			r, e := d.generate(d.step)
			r.Engineering = d.engineering
			d.step++
			d.queueReport(r, e)
		}
	}
	return len(d.out) > 0
}

// ReadByte returns the next byte for the host, or io.EOF when none is queued.
func (d *Device) ReadByte() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.out) == 0 {
		return 0, io.EOF
	}
	b := d.out[0]
	d.out = d.out[1:]
	return b, nil
}

// Write accepts host bytes and answers every complete command frame.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.in = append(d.in, p...)
	d.process()
	return len(p), nil
}

// Flush is a no-op; writes are processed synchronously.
func (d *Device) Flush() error {
	return nil
}

// Read implements io.Reader over the queued device bytes, so the device
// can stand behind ld2410.StreamTransport as well.
func (d *Device) Read(p []byte) (int, error) {
	if !d.Available() {
		return 0, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

// Close implements io.Closer.
func (d *Device) Close() error {
	return nil
}

// QueueReport queues one report frame for the host. e is sent only when
// r.Engineering is set.
func (d *Device) QueueReport(r ld2410.CyclicReport, e ld2410.EngineeringData) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queueReport(r, e)
}

// QueueBytes queues raw bytes for the host.
func (d *Device) QueueBytes(b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out = append(d.out, b...)
}

// Reject makes the device answer cmds with a failure status.
func (d *Device) Reject(cmds ...ld2410.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cmds {
		d.reject[c] = true
	}
}

// Silence makes the device ignore cmds.
func (d *Device) Silence(cmds ...ld2410.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cmds {
		d.silent[c] = true
	}
}

// Received returns every command the device has parsed, in order.
func (d *Device) Received() []ld2410.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ld2410.Command(nil), d.received...)
}

// ConfigMode reports whether the device is in configuration mode.
func (d *Device) ConfigMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configMode
}

// EngineeringMode reports whether engineering reports are on.
func (d *Device) EngineeringMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engineering
}

// BaudRate returns the configured serial speed.
func (d *Device) BaudRate() ld2410.BaudRate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baud
}

// Parameters returns the stored configuration.
func (d *Device) Parameters() ld2410.Parameters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

// Restarts returns how many restart commands were executed.
func (d *Device) Restarts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.restarts
}

func (d *Device) queueReport(r ld2410.CyclicReport, e ld2410.EngineeringData) {
	frame, err := ld2410.EncodeReportFrame(r, e)
	if err != nil {
		return
	}
	d.out = append(d.out, frame...)
}

// process frames and handles buffered host bytes.
func (d *Device) process() {
	for {
		start := bytes.Index(d.in, commandHeader)
		if start < 0 {
			if keep := len(commandHeader) - 1; len(d.in) > keep {
				d.in = d.in[len(d.in)-keep:]
			}
			return
		}
		d.in = d.in[start:]

		if len(d.in) < len(commandHeader)+2 {
			return
		}
		length := int(binary.LittleEndian.Uint16(d.in[4:6]))
		end := 6 + length + len(commandTail)
		if len(d.in) < end {
			return
		}

		frame := d.in[:end]
		d.in = d.in[end:]

		if length < 2 || !bytes.Equal(frame[6+length:], commandTail) {
			continue
		}
		body := frame[6 : 6+length]
		cmd := ld2410.Command(uint16(body[0])<<8 | uint16(body[1]))
		d.handle(cmd, body[2:])
	}
}

func (d *Device) handle(cmd ld2410.Command, data []byte) {
	d.received = append(d.received, cmd)

	if d.silent[cmd] {
		return
	}
	if d.reject[cmd] || (!d.configMode && cmd != ld2410.CmdEnableConfig) {
		d.ack(cmd, statusFailed, nil)
		return
	}

	var reply []byte
	status := statusOK

	switch cmd {
	case ld2410.CmdEnableConfig:
		d.configMode = true
		reply = binary.LittleEndian.AppendUint16(reply, protocolVersion)
		reply = binary.LittleEndian.AppendUint16(reply, bufferSize)

	case ld2410.CmdDisableConfig:
		d.configMode = false

	case ld2410.CmdSetMaxDistanceAndDuration:
		words, ok := parseWords(data)
		if !ok || words[0] > ld2410.MaxGate || words[1] < 2 || words[1] > ld2410.MaxGate {
			status = statusFailed
			break
		}
		d.params.MaxMovingGate = uint8(words[0])
		d.params.MaxStationaryGate = uint8(words[1])
		d.params.Duration = uint16(words[2])

	case ld2410.CmdReadParameters:
		reply = ld2410.EncodeParametersData(d.params)

	case ld2410.CmdEnableEngineering:
		d.engineering = true

	case ld2410.CmdDisableEngineering:
		d.engineering = false

	case ld2410.CmdSetGateSensitivity:
		words, ok := parseWords(data)
		if !ok || words[0] > ld2410.MaxGate || words[1] > 100 || words[2] > 100 {
			status = statusFailed
			break
		}
		d.params.MovingSensitivity[words[0]] = uint8(words[1])
		d.params.StationarySensitivity[words[0]] = uint8(words[2])

	case ld2410.CmdReadFirmwareVersion:
		reply = ld2410.EncodeFirmwareData(0x0000, d.firmware)

	case ld2410.CmdSetBaudRate:
		if len(data) < 2 || !ld2410.BaudRate(data[0]).Valid() {
			status = statusFailed
			break
		}
		d.baud = ld2410.BaudRate(data[0])

	case ld2410.CmdFactoryReset:
		d.params = DefaultParameters()
		d.baud = ld2410.Baud256000

	case ld2410.CmdRestart:
		d.restarts++
		d.configMode = false
		d.engineering = false

	default:
		status = statusFailed
	}

	d.ack(cmd, status, reply)
}

func (d *Device) ack(cmd ld2410.Command, status uint16, data []byte) {
	frame, err := ld2410.EncodeAckFrame(cmd, status, data)
	if err != nil {
		return
	}
	d.out = append(d.out, frame...)
}

// parseWords decodes three (id LE16, value LE32) parameter words.
func parseWords(data []byte) ([3]uint32, bool) {
	var words [3]uint32
	if len(data) < 18 {
		return words, false
	}
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*6+2 : i*6+6])
	}
	return words, true
}
