// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package swerve

import "errors"

var (
	// ErrInvalidConfig is returned when a normalization bound is not positive.
	ErrInvalidConfig = errors.New("invalid swerve config")

	// ErrMalformedPayload is returned when a value tagged with a known layout
	// does not have that layout's fields.
	ErrMalformedPayload = errors.New("malformed swerve payload")
)
