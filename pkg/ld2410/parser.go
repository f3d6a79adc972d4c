// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"encoding/binary"
	"fmt"
)

// Parser implements the radar frame parser state machine. It consumes one
// byte at a time and keeps all working state on itself, so a frame split
// across any number of reads is resumed where it stopped.
//
// Decoded payloads are written into the State the parser was created with.
type Parser struct {
	state    int
	kind     frameKind
	window   [headerSize]byte
	length   int
	received int
	buffer   [MaxPayloadSize + tailSize]byte
	store    *State
}

// NewParser creates a parser that decodes into store. A nil store gets a
// private one, reachable through State.
func NewParser(store *State) *Parser {
	if store == nil {
		store = &State{}
	}
	return &Parser{
		state: stateFindHeader,
		store: store,
	}
}

// State returns the store the parser decodes into.
func (p *Parser) State() *State {
	return p.store
}

// Reset drops any partial frame and returns to header search.
func (p *Parser) Reset() {
	p.state = stateFindHeader
	p.window = [headerSize]byte{}
	p.length = 0
	p.received = 0
}

// Synchronizing reports whether the parser is searching for a header.
func (p *Parser) Synchronizing() bool {
	return p.state == stateFindHeader
}

// DecodeByte processes a single byte through the state machine.
// It returns EventNone until a frame completes. A non-nil error describes a
// frame that was discarded; the parser is already back in header search.
func (p *Parser) DecodeByte(b byte) (Event, error) {
	switch p.state {
	case stateFindHeader:
		copy(p.window[:], p.window[1:])
		p.window[headerSize-1] = b

		switch p.window {
		case dataHeader:
			p.begin(kindData)
		case commandHeader:
			p.begin(kindCommand)
		}
		return Event{}, nil

	case stateReceiveLength:
		p.buffer[p.received] = b
		p.received++
		if p.received < lengthSize {
			return Event{}, nil
		}

		length := int(binary.LittleEndian.Uint16(p.buffer[:lengthSize]))
		if length > MaxPayloadSize {
			p.Reset()
			return Event{}, fmt.Errorf("%w: %d (max %d)", ErrLengthOverflow, length, MaxPayloadSize)
		}
		p.length = length
		p.received = 0
		p.state = stateReceivePayload
		return Event{}, nil

	case stateReceivePayload:
		p.buffer[p.received] = b
		p.received++
		if p.received < p.length+tailSize {
			return Event{}, nil
		}
		return p.complete()

	default:
		p.Reset()
		return Event{}, fmt.Errorf("ld2410: invalid parser state %d", p.state)
	}
}

func (p *Parser) begin(kind frameKind) {
	p.kind = kind
	p.window = [headerSize]byte{}
	p.received = 0
	p.state = stateReceiveLength
}

// complete validates the tail of a fully received frame and hands the
// payload to its decoder.
func (p *Parser) complete() (Event, error) {
	defer p.Reset()

	payload := p.buffer[:p.length]
	tail := [tailSize]byte(p.buffer[p.length : p.length+tailSize])

	if p.kind == kindData {
		if tail != dataTail {
			return Event{}, fmt.Errorf("%w: data frame ends % X", ErrTailMismatch, tail)
		}
		if err := decodeReport(payload, p.store); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventReport}, nil
	}

	if tail != commandTail {
		return Event{}, fmt.Errorf("%w: command frame ends % X", ErrTailMismatch, tail)
	}
	cmd, failed, err := decodeAck(payload, p.store)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: EventAck, Command: cmd, Failed: failed}, nil
}
