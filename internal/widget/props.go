// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package widget

import (
	"fmt"
	"math"

	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// Default prop values.
const (
	DefaultMaxLinearSpeed  = 5.0   // m/s
	DefaultMaxAngularSpeed = 360.0 // deg/s

	// minEditorSpeed is the lowest maximum the editor lets users enter.
	minEditorSpeed = 1.0
)

// Props configures one swerve widget instance.
type Props struct {
	Title                string  `json:"title,omitempty" yaml:"title,omitempty"`
	ChassisRotation      bool    `json:"chassisRotation" yaml:"chassisRotation"`
	ChassisSpeedsVisible bool    `json:"chassisSpeedsVisible" yaml:"chassisSpeedsVisible"`
	MaxLinearSpeed       float64 `json:"maxLinearSpeed" yaml:"maxLinearSpeed"`
	MaxAngularSpeed      float64 `json:"maxAngularSpeed" yaml:"maxAngularSpeed"`
}

// DefaultProps returns the props a new widget starts with.
func DefaultProps() Props {
	return Props{
		ChassisRotation:      true,
		ChassisSpeedsVisible: true,
		MaxLinearSpeed:       DefaultMaxLinearSpeed,
		MaxAngularSpeed:      DefaultMaxAngularSpeed,
	}
}

// Validate checks the props against their schema: maxima must be finite and
// not negative. A zero maximum passes here and is rejected by Normalizer.
func (p Props) Validate() error {
	if math.IsNaN(p.MaxLinearSpeed) || math.IsInf(p.MaxLinearSpeed, 0) || p.MaxLinearSpeed < 0 {
		return fmt.Errorf("%w: maxLinearSpeed must be >= 0, got %v", swerve.ErrInvalidConfig, p.MaxLinearSpeed)
	}
	if math.IsNaN(p.MaxAngularSpeed) || math.IsInf(p.MaxAngularSpeed, 0) || p.MaxAngularSpeed < 0 {
		return fmt.Errorf("%w: maxAngularSpeed must be >= 0, got %v", swerve.ErrInvalidConfig, p.MaxAngularSpeed)
	}
	return nil
}

// Sanitize applies the editor's input rules: non-finite maxima fall back to
// the defaults and anything below 1 is raised to 1.
func (p Props) Sanitize() Props {
	p.MaxLinearSpeed = sanitizeMax(p.MaxLinearSpeed, DefaultMaxLinearSpeed)
	p.MaxAngularSpeed = sanitizeMax(p.MaxAngularSpeed, DefaultMaxAngularSpeed)
	return p
}

func sanitizeMax(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return math.Max(v, minEditorSpeed)
}

// Normalizer builds the speed scale for these props.
func (p Props) Normalizer() (swerve.SpeedScale, error) {
	return swerve.NewSpeedScale(p.MaxLinearSpeed, p.MaxAngularSpeed)
}
