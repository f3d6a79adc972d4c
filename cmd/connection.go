// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/ld2410/internal/logging"
	"github.com/Thermoquad/ld2410/pkg/ld2410"
	"github.com/Thermoquad/ld2410/pkg/ld2410/sim"
)

// Connection provides a common interface for reading/writing bytes from
// serial, WebSocket or the simulator. Read returns (0, nil) when no byte
// arrived within the read timeout.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Drain blocks until all written bytes have been transmitted.
func (s *SerialConnection) Drain() error {
	return s.port.Drain()
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection wraps a WebSocket connection to a serial bridge for
// byte-level reading. Binary messages carry raw UART bytes.
type WebSocketConnection struct {
	conn    *websocket.Conn
	timeout time.Duration

	messages chan []byte
	done     chan struct{}
	once     sync.Once

	buf       []byte
	bufOffset int
	err       error
}

func newWebSocketConnection(conn *websocket.Conn, timeout time.Duration) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:     conn,
		timeout:  timeout,
		messages: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	go w.pump()
	return w
}

// pump moves binary messages to the channel until the socket fails.
func (w *WebSocketConnection) pump() {
	defer close(w.messages)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			logging.L().Debug("websocket_read_error", "error", err)
			return
		}
		// Only binary messages carry radar bytes
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.messages <- data:
		case <-w.done:
			return
		}
	}
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		if !ok {
			w.err = ErrConnectionClosed
			return 0, w.err
		}
		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	case <-timer.C:
		return 0, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	w.once.Do(func() { close(w.done) })
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port connection with 8N1 framing
func OpenSerialConnection(portName string, baudRate int, timeout time.Duration) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConnection(conn, timeout), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(envPrefix + "_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if stdin is not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens a serial, WebSocket or simulated connection based on flags
func OpenConnection() (Connection, string, error) {
	if simulate {
		dev := sim.New(sim.WithAutoReport(100 * time.Millisecond))
		return dev, "Simulated LD2410", nil
	}

	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify, readTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := OpenSerialConnection(portName, baudRate, readTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url or --simulate must be specified")
}

// radarLink is a driver bound to an open connection.
type radarLink struct {
	radar     *ld2410.Radar
	transport *ld2410.StreamTransport
	conn      Connection
	info      string
}

// Close closes the underlying connection.
func (l *radarLink) Close() error {
	return l.conn.Close()
}

// openRadar opens the connection and builds a driver on top of it.
func openRadar(extra ...ld2410.Option) (*radarLink, error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, err
	}

	opts := append([]ld2410.Option{
		ld2410.WithAckTimeout(ackTimeout),
		ld2410.WithStrictConfigMode(strictConfig),
		ld2410.WithLogger(logging.L()),
	}, extra...)

	transport := ld2410.NewStreamTransport(conn)
	return &radarLink{
		radar:     ld2410.New(transport, opts...),
		transport: transport,
		conn:      conn,
		info:      connInfo,
	}, nil
}

// reconnect reopens a lost link with exponential backoff. It returns when
// open succeeds or ctx is done.
func reconnect(ctx context.Context, open func() (*radarLink, error), backoff, maxBackoff time.Duration) (*radarLink, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		link, err := open()
		if err == nil {
			logging.L().Info("reconnected", "connection", link.info)
			return link, nil
		}

		backoff = min(backoff*2, maxBackoff)
		logging.L().Warn("reconnect_failed", "error", err, "retry_in", backoff)
	}
}
