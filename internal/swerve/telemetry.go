// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package swerve

// Swerve telemetry, all angular values in degrees and all speeds normalized.

// ModuleState is one wheel module's normalized speed and steering angle.
type ModuleState struct {
	Speed float64 `json:"speed"` // [-1, 1], sign is direction of travel
	Angle float64 `json:"angle"` // degrees, unwrapped
}

// ChassisSpeed is the robot's translational and rotational velocity.
type ChassisSpeed struct {
	Speed float64 `json:"speed"` // [-1, 1], currently never negative
	Angle float64 `json:"angle"` // direction of travel, degrees
	Omega float64 `json:"omega"` // [-359, 359]
}

// Telemetry is one decoded frame. Absent fields are nil.
type Telemetry struct {
	Rotation      *float64      `json:"rotation,omitempty"` // robot heading, degrees
	CurrentStates []ModuleState `json:"currentStates,omitempty"`
	DesiredStates []ModuleState `json:"desiredStates,omitempty"`
	CurrentSpeeds *ChassisSpeed `json:"currentSpeeds,omitempty"`
	DesiredSpeeds *ChassisSpeed `json:"desiredSpeeds,omitempty"`
}

// RotationOrZero returns the heading, or 0 when absent.
func (t *Telemetry) RotationOrZero() float64 {
	if t == nil || t.Rotation == nil {
		return 0
	}
	return *t.Rotation
}

// Raw struct layouts, as published by the robot.

// Rotation2dStruct is an angle in radians.
type Rotation2dStruct struct {
	Value float64 `json:"value"`
}

// ModuleStateStruct is a raw module state: speed in m/s, angle in radians.
type ModuleStateStruct struct {
	Speed float64          `json:"speed"`
	Angle Rotation2dStruct `json:"angle"`
}

// ChassisSpeedsStruct is a raw chassis velocity: m/s and rad/s.
type ChassisSpeedsStruct struct {
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Omega float64 `json:"omega"`
}

// TelemetryStruct is the raw full telemetry frame.
type TelemetryStruct struct {
	Rotation      Rotation2dStruct    `json:"rotation"`
	CurrentStates []ModuleStateStruct `json:"currentStates"`
	DesiredStates []ModuleStateStruct `json:"desiredStates"`
	CurrentSpeeds ChassisSpeedsStruct `json:"currentSpeeds"`
	DesiredSpeeds ChassisSpeedsStruct `json:"desiredSpeeds"`
}
