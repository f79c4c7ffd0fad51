// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package swerve

import (
	"fmt"
	"math"
)

// MaxOmega caps normalized rotation just under a full turn so 360 never
// renders as 0.
const MaxOmega = 359

// Normalizer maps physical speeds into the bounded display range.
type Normalizer interface {
	// NormalizeLinear maps a linear speed to [-1, 1].
	NormalizeLinear(v float64) float64
	// NormalizeAngular maps an angular speed in degrees/s to [-359, 359].
	NormalizeAngular(v float64) float64
}

// SpeedScale is the Normalizer configured by the widget's maximum speeds.
type SpeedScale struct {
	maxLinear  float64
	maxAngular float64
}

// NewSpeedScale builds a SpeedScale. Both maxima must be positive and finite.
func NewSpeedScale(maxLinear, maxAngular float64) (SpeedScale, error) {
	if !positiveFinite(maxLinear) {
		return SpeedScale{}, fmt.Errorf("%w: max linear speed must be positive, got %v", ErrInvalidConfig, maxLinear)
	}
	if !positiveFinite(maxAngular) {
		return SpeedScale{}, fmt.Errorf("%w: max angular speed must be positive, got %v", ErrInvalidConfig, maxAngular)
	}
	return SpeedScale{maxLinear: maxLinear, maxAngular: maxAngular}, nil
}

// MaxLinear returns the linear speed that saturates to ±1.
func (s SpeedScale) MaxLinear() float64 { return s.maxLinear }

// MaxAngular returns the angular speed that maps to a full turn.
func (s SpeedScale) MaxAngular() float64 { return s.maxAngular }

// NormalizeLinear returns sign(v) * clamp(|v| / maxLinear, 0, 1).
func (s SpeedScale) NormalizeLinear(v float64) float64 {
	return signedClamp(v, math.Abs(v)/s.maxLinear, 1)
}

// NormalizeAngular returns sign(v) * clamp(360 * |v| / maxAngular, 0, 359).
func (s SpeedScale) NormalizeAngular(v float64) float64 {
	return signedClamp(v, 360*math.Abs(v)/s.maxAngular, MaxOmega)
}

func signedClamp(v, magnitude, limit float64) float64 {
	if v == 0 || math.IsNaN(v) {
		return 0
	}
	m := math.Min(magnitude, limit)
	if v < 0 {
		return -m
	}
	return m
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
