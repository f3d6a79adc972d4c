// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import "github.com/Thermoquad/ld2410/pkg/ld2410"

const (
	gateWidth  = 75 // cm per gate
	walkPeriod = 40 // reports per walk in and out
)

// Synthetic walks a target from the radar out to gate 8 and back while a
// stationary target sits at gate 2.
func Synthetic(step int) (ld2410.CyclicReport, ld2410.EngineeringData) {
	pos := step % walkPeriod
	if pos >= walkPeriod/2 {
		pos = walkPeriod - pos
	}
	moving := uint16(pos * ld2410.MaxGate * gateWidth / (walkPeriod / 2))
	const stationary = 2 * gateWidth

	movingGate := int(moving) / gateWidth
	movingEnergy := uint8(90 - movingGate*8)

	r := ld2410.CyclicReport{
		TargetState:        ld2410.TargetMovingAndStationary,
		MovingDistance:     moving,
		MovingEnergy:       movingEnergy,
		StationaryDistance: stationary,
		StationaryEnergy:   60,
		DetectionDistance:  max(moving, stationary),
	}

	var e ld2410.EngineeringData
	e.MaxMovingGate = ld2410.MaxGate
	e.MaxStationaryGate = ld2410.MaxGate
	for gate := range ld2410.GateCount {
		e.MovingEnergy[gate] = uint8(5 + (step+gate)%7)
		e.StationaryEnergy[gate] = uint8(3 + (step*3+gate)%5)
	}
	e.MovingEnergy[movingGate] = movingEnergy
	e.StationaryEnergy[2] = 60
	e.MaxMovingEnergy = movingEnergy
	e.MaxStationaryEnergy = 60

	return r, e
}
