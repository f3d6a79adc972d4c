// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ld2410/internal/export"
	"github.com/Thermoquad/ld2410/internal/logging"
	"github.com/Thermoquad/ld2410/internal/metrics"
	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

var (
	monitorFormat        string
	monitorStatsInterval int
	monitorMetricsAddr   string
	monitorValidate      bool
	monitorEngineering   bool
	monitorReconnect     bool
)

// errLinkLost wraps the transport error that ended a monitor run
var errLinkLost = errors.New("radar link lost")

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream radar reports",
	Long: `Poll the radar and write every cyclic report to stdout.

Output formats:
  text - one line per report, with the gate table in engineering mode
  json - one JSON object per line
  cbor - a CBOR sequence of samples

With --validate, reports with out-of-range values are flagged on stderr.
With --metrics-addr, Prometheus metrics are served on /metrics and a
readiness probe on /ready (ready once the first report arrived).`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorFormat, "format", export.FormatText, "Output format (text|json|cbor)")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 0, "Print link statistics every N seconds (0 disables)")
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9110)")
	monitorCmd.Flags().BoolVar(&monitorValidate, "validate", false, "Flag reports with out-of-range values")
	monitorCmd.Flags().BoolVar(&monitorEngineering, "engineering", false, "Switch engineering mode on before streaming")
	monitorCmd.Flags().BoolVar(&monitorReconnect, "reconnect", false, "Reopen the connection with backoff when it is lost")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	enc, err := export.NewEncoder(monitorFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	open := func() (*radarLink, error) {
		return openRadar(ld2410.WithHooks(metrics.Hooks()))
	}
	link, err := open()
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "LD2410 - Monitor\n")
	fmt.Fprintf(errOut, "Connection: %s\n", link.info)
	fmt.Fprintf(errOut, "Press Ctrl+C to exit\n\n")

	m := &monitor{
		link:     link,
		enc:      enc,
		errOut:   errOut,
		validate: monitorValidate,
		clock:    time.Now,
	}
	defer func() { m.link.Close() }()
	if monitorStatsInterval > 0 {
		m.statsEvery = time.Duration(monitorStatsInterval) * time.Second
	}

	if monitorMetricsAddr != "" {
		metrics.SetReadinessFunc(func() bool { return m.ready() })
		srv := metrics.StartHTTP(monitorMetricsAddr)
		defer srv.Close()
	}

	ctx := cmd.Context()
	for {
		if monitorEngineering {
			if err := m.link.radar.SetEngineeringMode(ctx, true); err != nil {
				return fmt.Errorf("enable engineering mode: %w", err)
			}
		}

		err := m.run(ctx)
		if err == nil || !monitorReconnect || !errors.Is(err, errLinkLost) {
			return err
		}

		logging.L().Warn("link_lost", "error", err)
		m.link.Close()
		next, err := reconnect(ctx, open, time.Second, 30*time.Second)
		if err != nil {
			return nil
		}
		m.swap(next)
	}
}

// monitor streams reports from a radar link to an encoder.
type monitor struct {
	mu         sync.Mutex
	link       *radarLink
	enc        export.Encoder
	errOut     io.Writer
	validate   bool
	statsEvery time.Duration
	clock      func() time.Time
}

func (m *monitor) run(ctx context.Context) error {
	var statsC <-chan time.Time
	if m.statsEvery > 0 {
		ticker := time.NewTicker(m.statsEvery)
		defer ticker.Stop()
		statsC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			m.printStats()
			return nil
		case <-statsC:
			m.printStats()
		default:
		}

		if !m.link.radar.Poll() {
			if err := m.link.transport.Err(); err != nil {
				m.printStats()
				return fmt.Errorf("%w: %w", errLinkLost, err)
			}
			time.Sleep(time.Millisecond)
			continue
		}

		if err := m.emit(); err != nil {
			return err
		}
	}
}

// emit encodes the latest report and flags anomalies.
func (m *monitor) emit() error {
	state := m.link.radar.State()
	metrics.ObserveReport(state.Report)

	if err := m.enc.Encode(export.NewSample(m.clock(), state.Report, state.Engineering)); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	if m.validate {
		for _, anomaly := range ld2410.ValidateReport(state.Report, state.Engineering) {
			fmt.Fprintf(m.errOut, "[ANOMALY] %s: %s\n", anomaly.Type, anomaly.Message)
		}
	}
	return nil
}

// ready reports whether the current link has delivered a report.
func (m *monitor) ready() bool {
	m.mu.Lock()
	link := m.link
	m.mu.Unlock()
	return link.radar.Statistics().Reports > 0
}

func (m *monitor) swap(link *radarLink) {
	m.mu.Lock()
	m.link = link
	m.mu.Unlock()
}

func (m *monitor) printStats() {
	if m.statsEvery == 0 {
		return
	}
	stats := m.link.radar.Statistics()
	fmt.Fprint(m.errOut, stats.String())

	snap := metrics.Snap()
	logging.L().Info("link_stats",
		"reports", snap.Reports,
		"acks", snap.Acks,
		"frame_errors", snap.FrameErrors,
		"commands_ok", snap.CommandsOK,
		"commands_err", snap.CommandsErr,
	)
}
