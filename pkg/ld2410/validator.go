// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import "fmt"

// AnomalyType represents the kinds of implausible report values
type AnomalyType int

const (
	AnomalyInvalidTarget AnomalyType = iota
	AnomalyEnergyRange
	AnomalyGateRange
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyInvalidTarget:
		return "invalid_target"
	case AnomalyEnergyRange:
		return "energy_range"
	case AnomalyGateRange:
		return "gate_range"
	default:
		return fmt.Sprintf("anomaly_%d", int(a))
	}
}

// ValidationError represents a report that decoded but carries values the
// radar should never produce
type ValidationError struct {
	Type    AnomalyType
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

const maxEnergy = 100

// ValidateReport checks a decoded report for anomalies.
// Returns a slice of validation errors (empty if the report is plausible)
func ValidateReport(r CyclicReport, e EngineeringData) []ValidationError {
	errors := []ValidationError{}

	if r.TargetState > TargetMovingAndStationary {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidTarget,
			Message: fmt.Sprintf("Invalid target state=%d (max %d)", r.TargetState, TargetMovingAndStationary),
		})
	}

	errors = append(errors, checkEnergy("moving energy", r.MovingEnergy)...)
	errors = append(errors, checkEnergy("stationary energy", r.StationaryEnergy)...)

	if !r.Engineering {
		return errors
	}

	if e.MaxMovingGate > MaxGate || e.MaxStationaryGate > MaxGate {
		errors = append(errors, ValidationError{
			Type:    AnomalyGateRange,
			Message: fmt.Sprintf("Max gate moving=%d stationary=%d (max %d)", e.MaxMovingGate, e.MaxStationaryGate, MaxGate),
		})
	}
	for gate := range GateCount {
		errors = append(errors, checkEnergy(fmt.Sprintf("gate %d moving energy", gate), e.MovingEnergy[gate])...)
		errors = append(errors, checkEnergy(fmt.Sprintf("gate %d stationary energy", gate), e.StationaryEnergy[gate])...)
	}

	return errors
}

func checkEnergy(name string, value uint8) []ValidationError {
	if value <= maxEnergy {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyEnergyRange,
		Message: fmt.Sprintf("%s=%d (max %d)", name, value, maxEnergy),
	}}
}
