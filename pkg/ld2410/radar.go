// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Radar drives one LD2410 over a Transport. It owns the parser and the
// sensor state; all methods are safe for concurrent use.
type Radar struct {
	mu        sync.Mutex
	transport Transport
	parser    *Parser
	state     State
	stats     *Statistics
	config    Config
	logger    *slog.Logger
}

// New creates a radar driver on t.
func New(t Transport, opts ...Option) *Radar {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	r := &Radar{
		transport: t,
		config:    config,
		logger:    config.Logger,
		stats:     NewStatistics(),
	}
	r.parser = NewParser(&r.state)
	return r
}

// Begin reads the firmware version and then the stored parameters.
func (r *Radar) Begin(ctx context.Context) error {
	if err := r.ReadFirmwareVersion(ctx); err != nil {
		return fmt.Errorf("read firmware version: %w", err)
	}
	if err := r.ReadParameters(ctx); err != nil {
		return fmt.Errorf("read parameters: %w", err)
	}
	return nil
}

// Poll drains available bytes until a frame completes or the transport
// runs dry. It reports whether a new cyclic report was decoded.
func (r *Radar) Poll() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, err := r.parse()
	if err != nil {
		r.logger.Debug("poll_read_failed", slog.Any("error", err))
		return false
	}
	return ev.Kind == EventReport
}

// Report returns a copy of the latest cyclic report.
func (r *Radar) Report() CyclicReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Report
}

// Engineering returns a copy of the latest engineering data.
func (r *Radar) Engineering() EngineeringData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Engineering
}

// Parameters returns a copy of the parameters last read from the radar.
func (r *Radar) Parameters() Parameters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Parameters
}

// Firmware returns a copy of the firmware version last read from the radar.
func (r *Radar) Firmware() FirmwareVersion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Firmware
}

// State returns a copy of the whole sensor state.
func (r *Radar) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Statistics returns a snapshot of the frame and command counters.
func (r *Radar) Statistics() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *r.stats
	s.CalculateRates()
	return s
}

// parse feeds bytes to the parser while the transport has them and returns
// at the first frame boundary. Discarded frames yield an empty event. Once
// the transport runs dry, a latched read error is returned.
// Must be called with r.mu held.
func (r *Radar) parse() (Event, error) {
	for r.transport.Available() {
		b, err := r.transport.ReadByte()
		if err != nil {
			return Event{}, err
		}

		ev, err := r.parser.DecodeByte(b)
		if err != nil {
			r.stats.RecordFrameError(err)
			r.logger.Debug("frame_error", slog.Any("error", err))
			if r.config.Hooks.OnFrameError != nil {
				r.config.Hooks.OnFrameError(err)
			}
			return Event{}, nil
		}
		if ev.Kind == EventNone {
			continue
		}

		r.stats.RecordEvent(ev)
		if ev.Kind == EventReport {
			r.stats.RecordAnomalies(ValidateReport(r.state.Report, r.state.Engineering))
		}
		if r.config.Hooks.OnEvent != nil {
			r.config.Hooks.OnEvent(ev)
		}
		return ev, nil
	}
	if t, ok := r.transport.(interface{ Err() error }); ok {
		if err := t.Err(); err != nil {
			return Event{}, err
		}
	}
	return Event{}, nil
}

// sendCommand runs cmd inside a configuration mode session.
func (r *Radar) sendCommand(ctx context.Context, cmd Command, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enterConfigMode(ctx); err != nil {
		return err
	}

	err := r.request(ctx, cmd, data)

	if cmd == CmdRestart && err == nil {
		// the radar reboots without leaving configuration mode
		return nil
	}
	// cancellation ends the wait for cmd, never the exit
	if exitErr := r.exitConfigMode(context.WithoutCancel(ctx)); exitErr != nil && err == nil {
		err = exitErr
	}
	return err
}

func (r *Radar) enterConfigMode(ctx context.Context) error {
	err := r.request(ctx, CmdEnableConfig, []byte{0x01, 0x00})
	return r.configModeResult("enter", err)
}

func (r *Radar) exitConfigMode(ctx context.Context) error {
	err := r.request(ctx, CmdDisableConfig, nil)
	return r.configModeResult("exit", err)
}

func (r *Radar) configModeResult(action string, err error) error {
	if err == nil {
		return nil
	}
	if r.config.StrictConfigMode || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s configuration mode: %w", action, err)
	}
	r.logger.Warn("config_mode_unacknowledged", slog.String("action", action), slog.Any("error", err))
	return nil
}

// request writes one command frame and waits for its acknowledgement.
// Must be called with r.mu held.
func (r *Radar) request(ctx context.Context, cmd Command, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame, err := EncodeCommandFrame(cmd, data)
	if err != nil {
		return err
	}

	sent := r.config.Clock()
	defer func() {
		latency := r.config.Clock().Sub(sent)
		r.stats.RecordCommand(err)
		if r.config.Hooks.OnCommand != nil {
			r.config.Hooks.OnCommand(cmd, err, latency)
		}
	}()

	r.logger.Debug("command_sent", slog.String("command", FormatCommand(cmd)), logHex("frame", frame))

	if _, err := r.transport.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", FormatCommand(cmd), err)
	}
	if err := r.transport.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", FormatCommand(cmd), err)
	}

	start := r.config.Clock()

	for r.config.Clock().Sub(start) < r.config.AckTimeout {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, err := r.parse()
		if err != nil {
			return fmt.Errorf("read acknowledgement of %s: %w", FormatCommand(cmd), err)
		}
		if ev.Kind != EventAck || ev.Command != cmd {
			continue
		}
		if ev.Failed {
			return &CommandError{Command: cmd}
		}
		r.logger.Debug("command_acknowledged", slog.String("command", FormatCommand(cmd)))
		return nil
	}

	return fmt.Errorf("%w: %s after %v", ErrAckTimeout, FormatCommand(cmd), r.config.AckTimeout)
}
