// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package drivetrain

import (
	"math"

	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// Source is anything that can provide raw swerve frames over time: the mock
// robot, a replay file, a live link.
type Source interface {
	Next() (swerve.TelemetryStruct, error)
}

// ModulePosition is a module's location on the chassis in metres, x forward
// and y to the left of the robot centre.
type ModulePosition struct {
	X, Y float64
}

// SquareChassis returns module positions for a square frame with the given
// half track, ordered front-left, front-right, back-left, back-right.
func SquareChassis(half float64) []ModulePosition {
	return []ModulePosition{
		{X: half, Y: half},
		{X: half, Y: -half},
		{X: -half, Y: half},
		{X: -half, Y: -half},
	}
}

// ModuleStates runs swerve inverse kinematics: the wheel state each module
// needs so the chassis moves at (vx, vy) m/s while turning at omega rad/s.
//
//	vx_i = vx - omega*y_i
//	vy_i = vy + omega*x_i
//
// A module asked for zero velocity reports angle 0.
func ModuleStates(c swerve.ChassisSpeedsStruct, modules []ModulePosition) []swerve.ModuleStateStruct {
	states := make([]swerve.ModuleStateStruct, len(modules))
	for i, m := range modules {
		vx := c.Vx - c.Omega*m.Y
		vy := c.Vy + c.Omega*m.X
		speed := math.Hypot(vx, vy)
		angle := 0.0
		if speed > 0 {
			angle = math.Atan2(vy, vx)
		}
		states[i] = swerve.ModuleStateStruct{
			Speed: speed,
			Angle: swerve.Rotation2dStruct{Value: angle},
		}
	}
	return states
}
