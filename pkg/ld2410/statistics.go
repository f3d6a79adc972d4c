// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame and command counters and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Frames
	TotalFrames    uint64
	Reports        uint64
	Acks           uint64
	FailedAcks     uint64
	LengthOverflow uint64
	TailMismatch   uint64
	MarkerErrors   uint64
	Truncated      uint64

	// Report anomalies
	AnomalousReports uint64
	InvalidTarget    uint64
	EnergyRange      uint64
	GateRange        uint64

	// Commands
	CommandsOK       uint64
	CommandsFailed   uint64
	CommandsTimedOut uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// FrameErrors returns the number of discarded frames
func (s *Statistics) FrameErrors() uint64 {
	return s.LengthOverflow + s.TailMismatch + s.MarkerErrors + s.Truncated
}

// RecordEvent counts a completed frame
func (s *Statistics) RecordEvent(ev Event) {
	s.TotalFrames++
	switch ev.Kind {
	case EventReport:
		s.Reports++
	case EventAck:
		s.Acks++
		if ev.Failed {
			s.FailedAcks++
		}
	}
	s.LastUpdateTime = time.Now()
}

// RecordFrameError counts a discarded frame by its framing error class
func (s *Statistics) RecordFrameError(err error) {
	s.TotalFrames++
	switch {
	case errors.Is(err, ErrLengthOverflow):
		s.LengthOverflow++
	case errors.Is(err, ErrTailMismatch):
		s.TailMismatch++
	case errors.Is(err, ErrReportHeader), errors.Is(err, ErrReportTail), errors.Is(err, ErrParameterHeader):
		s.MarkerErrors++
	default:
		s.Truncated++
	}
	s.LastUpdateTime = time.Now()
}

// RecordAnomalies counts validation errors of a decoded report
func (s *Statistics) RecordAnomalies(anomalies []ValidationError) {
	if len(anomalies) == 0 {
		return
	}
	s.AnomalousReports++
	for _, a := range anomalies {
		switch a.Type {
		case AnomalyInvalidTarget:
			s.InvalidTarget++
		case AnomalyEnergyRange:
			s.EnergyRange++
		case AnomalyGateRange:
			s.GateRange++
		}
	}
}

// RecordCommand counts the outcome of one command request
func (s *Statistics) RecordCommand(err error) {
	switch {
	case err == nil:
		s.CommandsOK++
	case errors.Is(err, ErrAckTimeout):
		s.CommandsTimedOut++
	default:
		s.CommandsFailed++
	}
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.FrameErrors()+s.AnomalousReports) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, errorPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.Reports+s.Acks) * 100.0 / float64(s.TotalFrames)
		errorPercent = float64(s.FrameErrors()) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.Reports+s.Acks, validPercent)
	result += fmt.Sprintf("  Reports:          %5d\n", s.Reports)
	result += fmt.Sprintf("  Acks:             %5d\n", s.Acks)

	if errs := s.FrameErrors(); errs > 0 {
		result += fmt.Sprintf("Frame Errors:    %8d (%.1f%%)\n", errs, errorPercent)
		if s.LengthOverflow > 0 {
			result += fmt.Sprintf("  Length Overflow:  %5d\n", s.LengthOverflow)
		}
		if s.TailMismatch > 0 {
			result += fmt.Sprintf("  Tail Mismatch:    %5d\n", s.TailMismatch)
		}
		if s.MarkerErrors > 0 {
			result += fmt.Sprintf("  Marker Errors:    %5d\n", s.MarkerErrors)
		}
		if s.Truncated > 0 {
			result += fmt.Sprintf("  Truncated:        %5d\n", s.Truncated)
		}
	}
	if s.AnomalousReports > 0 {
		result += fmt.Sprintf("Anomalous Rpts:  %8d\n", s.AnomalousReports)
		if s.InvalidTarget > 0 {
			result += fmt.Sprintf("  Invalid Target:   %5d\n", s.InvalidTarget)
		}
		if s.EnergyRange > 0 {
			result += fmt.Sprintf("  Energy > 100:     %5d\n", s.EnergyRange)
		}
		if s.GateRange > 0 {
			result += fmt.Sprintf("  Gate > 8:         %5d\n", s.GateRange)
		}
	}
	if total := s.CommandsOK + s.CommandsFailed + s.CommandsTimedOut; total > 0 {
		result += fmt.Sprintf("Commands:        %8d (ok %d, failed %d, timed out %d)\n",
			total, s.CommandsOK, s.CommandsFailed, s.CommandsTimedOut)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
