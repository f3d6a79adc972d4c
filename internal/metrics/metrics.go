// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes radar link counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/ld2410/internal/logging"
	"github.com/Thermoquad/ld2410/pkg/ld2410"
)

// Prometheus collectors
var (
	Frames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ld2410_frames_total",
		Help: "Frames decoded from the radar link by kind.",
	}, []string{"kind"})
	FrameErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ld2410_frame_errors_total",
		Help: "Frames discarded by the parser by reason.",
	}, []string{"reason"})
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ld2410_commands_total",
		Help: "Command requests by command and result.",
	}, []string{"command", "result"})
	AckLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ld2410_ack_latency_seconds",
		Help:    "Time from command write to acknowledgement.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
	TargetDistance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ld2410_target_distance_cm",
		Help: "Latest reported target distance by target type.",
	}, []string{"target"})
	TargetEnergy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ld2410_target_energy",
		Help: "Latest reported target energy by target type.",
	}, []string{"target"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Label values
const (
	KindReport = "report"
	KindAck    = "ack"

	ReasonOverflow  = "length_overflow"
	ReasonTail      = "tail_mismatch"
	ReasonMarker    = "marker"
	ReasonTruncated = "truncated"

	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultTimeout = "timeout"
)

// Local mirrored counters for logging without scraping
var (
	localReports     uint64
	localAcks        uint64
	localFrameErrors uint64
	localCommandsOK  uint64
	localCommandsErr uint64
)

// Snapshot is a copy of the local counters.
type Snapshot struct {
	Reports     uint64
	Acks        uint64
	FrameErrors uint64
	CommandsOK  uint64
	CommandsErr uint64
}

// Snap returns the current local counters.
func Snap() Snapshot {
	return Snapshot{
		Reports:     atomic.LoadUint64(&localReports),
		Acks:        atomic.LoadUint64(&localAcks),
		FrameErrors: atomic.LoadUint64(&localFrameErrors),
		CommandsOK:  atomic.LoadUint64(&localCommandsOK),
		CommandsErr: atomic.LoadUint64(&localCommandsErr),
	}
}

// ObserveEvent counts a completed frame.
func ObserveEvent(ev ld2410.Event) {
	switch ev.Kind {
	case ld2410.EventReport:
		Frames.WithLabelValues(KindReport).Inc()
		atomic.AddUint64(&localReports, 1)
	case ld2410.EventAck:
		Frames.WithLabelValues(KindAck).Inc()
		atomic.AddUint64(&localAcks, 1)
	}
}

// ObserveFrameError counts a discarded frame.
func ObserveFrameError(err error) {
	FrameErrors.WithLabelValues(frameErrorReason(err)).Inc()
	atomic.AddUint64(&localFrameErrors, 1)
}

// ObserveCommand counts one command request and its latency.
func ObserveCommand(cmd ld2410.Command, err error, latency time.Duration) {
	result := ResultOK
	switch {
	case err == nil:
		AckLatency.Observe(latency.Seconds())
		atomic.AddUint64(&localCommandsOK, 1)
	case errors.Is(err, ld2410.ErrAckTimeout):
		result = ResultTimeout
		atomic.AddUint64(&localCommandsErr, 1)
	default:
		result = ResultFailed
		atomic.AddUint64(&localCommandsErr, 1)
	}
	Commands.WithLabelValues(ld2410.FormatCommand(cmd), result).Inc()
}

// ObserveReport publishes the latest target readings.
func ObserveReport(r ld2410.CyclicReport) {
	TargetDistance.WithLabelValues("moving").Set(float64(r.MovingDistance))
	TargetDistance.WithLabelValues("stationary").Set(float64(r.StationaryDistance))
	TargetDistance.WithLabelValues("detection").Set(float64(r.DetectionDistance))
	TargetEnergy.WithLabelValues("moving").Set(float64(r.MovingEnergy))
	TargetEnergy.WithLabelValues("stationary").Set(float64(r.StationaryEnergy))
}

// Hooks returns driver hooks that feed these collectors.
func Hooks() ld2410.Hooks {
	return ld2410.Hooks{
		OnEvent:      ObserveEvent,
		OnFrameError: ObserveFrameError,
		OnCommand:    ObserveCommand,
	}
}

func frameErrorReason(err error) string {
	switch {
	case errors.Is(err, ld2410.ErrLengthOverflow):
		return ReasonOverflow
	case errors.Is(err, ld2410.ErrTailMismatch):
		return ReasonTail
	case errors.Is(err, ld2410.ErrReportHeader), errors.Is(err, ld2410.ErrReportTail), errors.Is(err, ld2410.ErrParameterHeader):
		return ReasonMarker
	default:
		return ReasonTruncated
	}
}

// Handler serves /metrics and /ready.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})
	return mux
}

// StartHTTP serves Handler on addr in the background.
func StartHTTP(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
