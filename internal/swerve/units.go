// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package swerve

import "math"

// ToDegrees converts radians to degrees. The result is not wrapped.
func ToDegrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// CartesianToPolar converts a 2D velocity vector to its magnitude (always
// >= 0) and direction in radians, in (-π, π]. A zero vector has angle 0.
func CartesianToPolar(vx, vy float64) (magnitude, angleRadians float64) {
	return math.Hypot(vx, vy), math.Atan2(vy, vx)
}
