// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/ld2410/pkg/ld2410"
	"github.com/Thermoquad/ld2410/pkg/ld2410/sim"
)

// stepClock advances by step on every reading
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Unix(0, 0), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Advance moves the clock forward by d
func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// hookedDevice intercepts writes and flushes to a simulated radar
type hookedDevice struct {
	*sim.Device
	onWrite func(p []byte)
	onFlush func()
}

func (h *hookedDevice) Write(p []byte) (int, error) {
	if h.onWrite != nil {
		h.onWrite(p)
	}
	return h.Device.Write(p)
}

func (h *hookedDevice) Flush() error {
	if h.onFlush != nil {
		h.onFlush()
	}
	return h.Device.Flush()
}

// scriptedTransport replays canned device bytes and records host writes
type scriptedTransport struct {
	rx      []byte
	written bytes.Buffer
	flushes int
	onWrite func(p []byte) []byte
}

func (s *scriptedTransport) Available() bool { return len(s.rx) > 0 }

func (s *scriptedTransport) ReadByte() (byte, error) {
	if len(s.rx) == 0 {
		return 0, errors.New("empty")
	}
	b := s.rx[0]
	s.rx = s.rx[1:]
	return b, nil
}

func (s *scriptedTransport) Write(p []byte) (int, error) {
	s.written.Write(p)
	if s.onWrite != nil {
		s.rx = append(s.rx, s.onWrite(p)...)
	}
	return len(p), nil
}

func (s *scriptedTransport) Flush() error {
	s.flushes++
	return nil
}

func newRadar(t *testing.T, dev ld2410.Transport, opts ...ld2410.Option) *ld2410.Radar {
	t.Helper()
	clock := newStepClock(time.Millisecond)
	return ld2410.New(dev, append([]ld2410.Option{ld2410.WithClock(clock.Now)}, opts...)...)
}

// ============================================================
// Command Round Trip
// ============================================================

func TestRadar_FirmwareScenario(t *testing.T) {
	ackFrame := []byte{
		0xFD, 0xFC, 0xFB, 0xFA, 0x0C, 0x00,
		0xA0, 0x01, 0x00, 0x00, 0x00, 0x01, 0x02, 0x01, 0x05, 0x00, 0x00, 0x00,
		0x04, 0x03, 0x02, 0x01,
	}
	enableAck, err := ld2410.EncodeAckFrame(ld2410.CmdEnableConfig, 0, []byte{0x01, 0x00, 0x40, 0x00})
	require.NoError(t, err)
	disableAck, err := ld2410.EncodeAckFrame(ld2410.CmdDisableConfig, 0, nil)
	require.NoError(t, err)

	calls := 0
	tr := &scriptedTransport{onWrite: func([]byte) []byte {
		calls++
		switch calls {
		case 1:
			return enableAck
		case 2:
			return ackFrame
		default:
			return disableAck
		}
	}}

	radar := newRadar(t, tr)
	require.NoError(t, radar.ReadFirmwareVersion(context.Background()))
	assert.Equal(t, ld2410.FirmwareVersion{Major: 1, Minor: 2, Patch: 5}, radar.Firmware())
	assert.Equal(t, 3, tr.flushes)

	request, err := ld2410.EncodeCommandFrame(ld2410.CmdReadFirmwareVersion, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFD, 0xFC, 0xFB, 0xFA, 0x02, 0x00, 0xA0, 0x00, 0x04, 0x03, 0x02, 0x01}, request)
	assert.True(t, bytes.Contains(tr.written.Bytes(), request))
}

func TestRadar_CommandSequence(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)

	require.NoError(t, radar.SetEngineeringMode(context.Background(), true))
	assert.Equal(t, []ld2410.Command{
		ld2410.CmdEnableConfig, ld2410.CmdEnableEngineering, ld2410.CmdDisableConfig,
	}, dev.Received())
	assert.True(t, dev.EngineeringMode())
	assert.False(t, dev.ConfigMode())
}

func TestRadar_CommandFailure(t *testing.T) {
	dev := sim.New()
	dev.Reject(ld2410.CmdSetBaudRate)
	radar := newRadar(t, dev)

	err := radar.SetBaudRate(context.Background(), ld2410.Baud115200)
	require.Error(t, err)
	assert.ErrorIs(t, err, ld2410.ErrCommandFailed)

	var cmdErr *ld2410.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, ld2410.CmdSetBaudRate, cmdErr.Command)

	// configuration mode is still left after a failed command
	assert.Equal(t, ld2410.CmdDisableConfig, dev.Received()[2])
	assert.False(t, dev.ConfigMode())
}

func TestRadar_CommandTimeout(t *testing.T) {
	dev := sim.New()
	dev.Silence(ld2410.CmdFactoryReset)
	clock := newStepClock(10 * time.Millisecond)
	radar := ld2410.New(dev, ld2410.WithClock(clock.Now))

	err := radar.FactoryReset(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ld2410.ErrAckTimeout)
	assert.False(t, dev.ConfigMode())

	stats := radar.Statistics()
	assert.Equal(t, uint64(1), stats.CommandsTimedOut)
	assert.Equal(t, uint64(2), stats.CommandsOK)
}

func TestRadar_OptimisticConfigMode(t *testing.T) {
	dev := sim.New()
	dev.Silence(ld2410.CmdEnableConfig)
	radar := newRadar(t, dev)

	// entry is assumed to succeed, so the command itself reaches the radar
	// and fails there
	err := radar.ReadParameters(context.Background())
	assert.ErrorIs(t, err, ld2410.ErrCommandFailed)
	assert.Equal(t, []ld2410.Command{
		ld2410.CmdEnableConfig, ld2410.CmdReadParameters, ld2410.CmdDisableConfig,
	}, dev.Received())
}

func TestRadar_StrictConfigMode(t *testing.T) {
	dev := sim.New()
	dev.Silence(ld2410.CmdEnableConfig)
	radar := newRadar(t, dev, ld2410.WithStrictConfigMode(true))

	err := radar.ReadParameters(context.Background())
	assert.ErrorIs(t, err, ld2410.ErrAckTimeout)
	assert.Equal(t, []ld2410.Command{ld2410.CmdEnableConfig}, dev.Received())
}

func TestRadar_StrictConfigModeExit(t *testing.T) {
	dev := sim.New()
	dev.Reject(ld2410.CmdDisableConfig)
	radar := newRadar(t, dev, ld2410.WithStrictConfigMode(true))

	err := radar.ReadFirmwareVersion(context.Background())
	assert.ErrorIs(t, err, ld2410.ErrCommandFailed)
	assert.Equal(t, sim.DefaultFirmware, radar.Firmware())
}

func TestRadar_RestartSkipsExit(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)

	require.NoError(t, radar.Restart(context.Background()))
	assert.Equal(t, []ld2410.Command{ld2410.CmdEnableConfig, ld2410.CmdRestart}, dev.Received())
	assert.Equal(t, 1, dev.Restarts())
}

func TestRadar_RestartFailureExitsConfig(t *testing.T) {
	dev := sim.New()
	dev.Reject(ld2410.CmdRestart)
	radar := newRadar(t, dev)

	err := radar.Restart(context.Background())
	assert.ErrorIs(t, err, ld2410.ErrCommandFailed)
	assert.Equal(t, []ld2410.Command{
		ld2410.CmdEnableConfig, ld2410.CmdRestart, ld2410.CmdDisableConfig,
	}, dev.Received())
	assert.False(t, dev.ConfigMode())
	assert.Equal(t, 0, dev.Restarts())
}

func TestRadar_AckWindowStartsAfterFlush(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	dev := &hookedDevice{Device: sim.New()}
	// a slow link spends longer transmitting than the whole ack window
	dev.onFlush = func() { clock.Advance(120 * time.Millisecond) }

	radar := ld2410.New(dev,
		ld2410.WithClock(clock.Now),
		ld2410.WithStrictConfigMode(true),
	)

	require.NoError(t, radar.FactoryReset(context.Background()))
	assert.Equal(t, []ld2410.Command{
		ld2410.CmdEnableConfig, ld2410.CmdFactoryReset, ld2410.CmdDisableConfig,
	}, dev.Received())
}

func TestRadar_CancelDuringAckExitsConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := &hookedDevice{Device: sim.New()}
	dev.Silence(ld2410.CmdReadParameters)
	dev.onWrite = func(p []byte) {
		if len(p) > 7 && ld2410.Command(uint16(p[6])<<8|uint16(p[7])) == ld2410.CmdReadParameters {
			cancel()
		}
	}
	radar := newRadar(t, dev)

	err := radar.ReadParameters(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []ld2410.Command{
		ld2410.CmdEnableConfig, ld2410.CmdReadParameters, ld2410.CmdDisableConfig,
	}, dev.Received())
	assert.False(t, dev.ConfigMode())
}

func TestRadar_ContextCanceled(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := radar.ReadParameters(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dev.Received())
}

// ============================================================
// Facade
// ============================================================

func TestRadar_Begin(t *testing.T) {
	params := sim.DefaultParameters()
	params.Duration = 42
	dev := sim.New(sim.WithParameters(params))
	radar := newRadar(t, dev)

	require.NoError(t, radar.Begin(context.Background()))
	assert.Equal(t, sim.DefaultFirmware, radar.Firmware())
	assert.Equal(t, params, radar.Parameters())
}

func TestRadar_Setters(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)
	ctx := context.Background()

	require.NoError(t, radar.SetMaxDistanceAndDuration(ctx, 6, 4, 30))
	require.NoError(t, radar.SetGateSensitivity(ctx, 3, 77, 66))
	require.NoError(t, radar.SetBaudRate(ctx, ld2410.Baud460800))
	require.NoError(t, radar.ReadParameters(ctx))

	p := radar.Parameters()
	assert.Equal(t, uint8(6), p.MaxMovingGate)
	assert.Equal(t, uint8(4), p.MaxStationaryGate)
	assert.Equal(t, uint16(30), p.Duration)
	assert.Equal(t, uint8(77), p.MovingSensitivity[3])
	assert.Equal(t, uint8(66), p.StationarySensitivity[3])
	assert.Equal(t, ld2410.Baud460800, dev.BaudRate())

	require.NoError(t, radar.FactoryReset(ctx))
	require.NoError(t, radar.ReadParameters(ctx))
	assert.Equal(t, sim.DefaultParameters(), radar.Parameters())
	assert.Equal(t, ld2410.Baud256000, dev.BaudRate())
}

func TestRadar_InvalidArguments(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)
	ctx := context.Background()

	assert.ErrorIs(t, radar.SetMaxDistanceAndDuration(ctx, 9, 4, 5), ld2410.ErrInvalidArgument)
	assert.ErrorIs(t, radar.SetMaxDistanceAndDuration(ctx, 8, 1, 5), ld2410.ErrInvalidArgument)
	assert.ErrorIs(t, radar.SetGateSensitivity(ctx, 9, 10, 10), ld2410.ErrInvalidArgument)
	assert.ErrorIs(t, radar.SetGateSensitivity(ctx, 0, 101, 10), ld2410.ErrInvalidArgument)
	assert.ErrorIs(t, radar.SetBaudRate(ctx, ld2410.BaudRate(0)), ld2410.ErrInvalidArgument)
	assert.Empty(t, dev.Received(), "nothing may be written for an invalid argument")
}

func TestRadar_Poll(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)

	assert.False(t, radar.Poll(), "no bytes, no report")

	want := ld2410.CyclicReport{
		TargetState:       ld2410.TargetMoving,
		MovingDistance:    180,
		MovingEnergy:      55,
		DetectionDistance: 180,
	}
	dev.QueueBytes([]byte{0x01, 0x02, 0x03})
	dev.QueueReport(want, ld2410.EngineeringData{})

	assert.True(t, radar.Poll())
	assert.Equal(t, want, radar.Report())
	assert.False(t, radar.Poll())
}

func TestRadar_PollStopsAtDiscardedFrame(t *testing.T) {
	dev := sim.New()
	var frameErrs []error
	radar := newRadar(t, dev, ld2410.WithHooks(ld2410.Hooks{
		OnFrameError: func(err error) { frameErrs = append(frameErrs, err) },
	}))

	dev.QueueBytes([]byte{0xF4, 0xF3, 0xF2, 0xF1, 0xFF, 0x00})
	dev.QueueReport(ld2410.CyclicReport{TargetState: ld2410.TargetStationary}, ld2410.EngineeringData{})

	assert.False(t, radar.Poll())
	require.Len(t, frameErrs, 1)
	assert.ErrorIs(t, frameErrs[0], ld2410.ErrLengthOverflow)
	assert.True(t, radar.Poll())
	assert.Equal(t, uint64(1), radar.Statistics().LengthOverflow)
}

func TestRadar_EngineeringModeClears(t *testing.T) {
	dev := sim.New()
	radar := newRadar(t, dev)

	r, e := sim.Synthetic(3)
	r.Engineering = true
	dev.QueueReport(r, e)
	require.True(t, radar.Poll())
	assert.Equal(t, e, radar.Engineering())

	r.Engineering = false
	dev.QueueReport(r, e)
	require.True(t, radar.Poll())
	assert.Equal(t, ld2410.EngineeringData{}, radar.Engineering())
}

func TestRadar_Hooks(t *testing.T) {
	dev := sim.New()
	var events []ld2410.Event
	var commands []ld2410.Command
	radar := newRadar(t, dev, ld2410.WithHooks(ld2410.Hooks{
		OnEvent: func(ev ld2410.Event) { events = append(events, ev) },
		OnCommand: func(cmd ld2410.Command, err error, latency time.Duration) {
			assert.NoError(t, err)
			assert.Positive(t, latency)
			commands = append(commands, cmd)
		},
	}))

	require.NoError(t, radar.ReadFirmwareVersion(context.Background()))
	assert.Equal(t, []ld2410.Command{
		ld2410.CmdEnableConfig, ld2410.CmdReadFirmwareVersion, ld2410.CmdDisableConfig,
	}, commands)
	require.Len(t, events, 3)
	assert.Equal(t, ld2410.EventAck, events[1].Kind)
	assert.Equal(t, uint16(ld2410.CmdReadFirmwareVersion), events[1].Code())
}

func TestRadar_ConcurrentPollAndCommand(t *testing.T) {
	dev := sim.New(sim.WithAutoReport(time.Millisecond))
	radar := ld2410.New(dev, ld2410.WithAckTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			radar.Poll()
		}
	}()

	for range 5 {
		require.NoError(t, radar.ReadParameters(context.Background()))
	}
	cancel()
	wg.Wait()
	assert.Equal(t, sim.DefaultParameters(), radar.Parameters())
}
