// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"errors"
	"io"
	"sync"

	"github.com/ansel1/merry/v2"
)

// Transport is the byte link to the radar. The Radar borrows it and never
// closes it.
type Transport interface {
	// Available reports whether ReadByte can return a byte without blocking
	// for longer than the link's read timeout.
	Available() bool
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	// Flush blocks until written bytes have physically left the host.
	Flush() error
}

type drainer interface {
	Drain() error
}

type flusher interface {
	Flush() error
}

// StreamTransport adapts a read timeout bounded io.ReadWriter, such as a
// serial port, to Transport. Available performs at most one Read, so the
// underlying reader must return (0, nil) or an error once its timeout expires.
type StreamTransport struct {
	rw io.ReadWriter

	mu   sync.Mutex
	buf  [256]byte
	head int
	tail int
	err  error
}

// NewStreamTransport wraps rw.
func NewStreamTransport(rw io.ReadWriter) *StreamTransport {
	return &StreamTransport{rw: rw}
}

// Available reports whether a buffered byte is ready, reading from the
// stream when the buffer is empty.
func (t *StreamTransport) Available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.head < t.tail {
		return true
	}
	if t.err != nil {
		return false
	}

	n, err := t.rw.Read(t.buf[:])
	t.head, t.tail = 0, n
	if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
		t.err = merry.Wrap(err)
	}
	return n > 0
}

// ReadByte returns the next buffered byte.
func (t *StreamTransport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.head >= t.tail {
		if t.err != nil {
			return 0, t.err
		}
		return 0, io.ErrNoProgress
	}
	b := t.buf[t.head]
	t.head++
	return b, nil
}

// Write writes p to the stream.
func (t *StreamTransport) Write(p []byte) (n int, err error) {
	defer deferWrap(&err)
	return t.rw.Write(p)
}

// Flush drains the stream when it supports Drain or Flush.
func (t *StreamTransport) Flush() (err error) {
	defer deferWrap(&err)
	switch w := t.rw.(type) {
	case drainer:
		return w.Drain()
	case flusher:
		return w.Flush()
	}
	return nil
}

// Err returns the read error that stopped the stream, if any.
func (t *StreamTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
