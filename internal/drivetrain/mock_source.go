// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package drivetrain

import (
	"math"
	"time"

	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// Mock robot geometry and motion.
const (
	mockHalfTrack = 0.3 // m
	mockLead      = 0.2 // s the setpoint runs ahead of the measured state
)

type mockSource struct {
	start   time.Time
	modules []ModulePosition
}

// NewMockSource creates a mock swerve source that drives a slow figure
// eight while yawing back and forth.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), modules: SquareChassis(mockHalfTrack)}
}

func (m *mockSource) Next() (swerve.TelemetryStruct, error) {
	return MockFrame(time.Since(m.start).Seconds(), m.modules), nil
}

// MockFrame is the mock robot's frame at elapsed seconds.
func MockFrame(elapsed float64, modules []ModulePosition) swerve.TelemetryStruct {
	current := mockSpeeds(elapsed)
	desired := mockSpeeds(elapsed + mockLead)

	return swerve.TelemetryStruct{
		Rotation:      swerve.Rotation2dStruct{Value: mockHeading(elapsed)},
		CurrentStates: ModuleStates(current, modules),
		DesiredStates: ModuleStates(desired, modules),
		CurrentSpeeds: current,
		DesiredSpeeds: desired,
	}
}

func mockSpeeds(t float64) swerve.ChassisSpeedsStruct {
	return swerve.ChassisSpeedsStruct{
		Vx:    2 * math.Cos(0.5*t),
		Vy:    1.5 * math.Sin(t),
		Omega: 1.2 * math.Sin(0.3*t),
	}
}

// mockHeading integrates mockSpeeds' omega, wrapped to [-pi, pi).
func mockHeading(t float64) float64 {
	heading := 4 * (1 - math.Cos(0.3*t))
	return math.Mod(heading+math.Pi, 2*math.Pi) - math.Pi
}
