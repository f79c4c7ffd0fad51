// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package swerve

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
)

// Struct names understood by Decode.
const (
	ModuleStateStructName = "SwerveModuleState"
	TelemetryStructName   = "SwerveTelemetry"
)

// Layout identifies which raw shape a structured type describes.
type Layout int

const (
	LayoutUnknown      Layout = iota
	LayoutModuleStates        // array of SwerveModuleState
	LayoutTelemetry           // SwerveTelemetry
)

func (l Layout) String() string {
	switch l {
	case LayoutModuleStates:
		return "module-states"
	case LayoutTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// LayoutOf maps a structured type descriptor to a Layout.
func LayoutOf(st datachannel.StructuredType) Layout {
	if st.Format != datachannel.FormatStruct {
		return LayoutUnknown
	}
	switch {
	case st.Name == ModuleStateStructName && st.IsArray:
		return LayoutModuleStates
	case st.Name == TelemetryStructName:
		return LayoutTelemetry
	default:
		return LayoutUnknown
	}
}

// ModuleStatesType is the descriptor of a bare module state array.
var ModuleStatesType = datachannel.StructuredType{Format: datachannel.FormatStruct, Name: ModuleStateStructName, IsArray: true}

// TelemetryType is the descriptor of a full telemetry frame.
var TelemetryType = datachannel.StructuredType{Format: datachannel.FormatStruct, Name: TelemetryStructName}

// Decode builds a Telemetry from a raw value described by st.
//
// A nil value, a nil descriptor or a descriptor that matches neither known
// layout yields (nil, nil): there is nothing to draw. A value that claims a
// known layout but does not have its fields yields an error wrapping
// ErrMalformedPayload. Decode never returns a partially filled Telemetry.
//
// value may be the generic form produced by encoding/json (map[string]any,
// []any, float64 or json.Number) or the typed raw structs of this package.
func Decode(value any, st *datachannel.StructuredType, n Normalizer) (*Telemetry, error) {
	if value == nil || st == nil {
		return nil, nil
	}

	switch LayoutOf(*st) {
	case LayoutModuleStates:
		states, err := parseModuleStates(value, "$", n)
		if err != nil {
			return nil, err
		}
		rotation := 0.0
		return &Telemetry{Rotation: &rotation, CurrentStates: states}, nil

	case LayoutTelemetry:
		return parseTelemetry(value, n)

	default:
		return nil, nil
	}
}

func parseTelemetry(value any, n Normalizer) (*Telemetry, error) {
	if raw, ok := value.(TelemetryStruct); ok {
		value = &raw
	}
	if raw, ok := value.(*TelemetryStruct); ok {
		if raw == nil {
			return nil, nil
		}
		return telemetryFromStruct(raw, n)
	}

	obj, err := asObject(value, "$")
	if err != nil {
		return nil, err
	}

	rotationRad, err := rotationField(obj, "rotation", "$")
	if err != nil {
		return nil, err
	}
	current, err := parseModuleStates(obj["currentStates"], "$.currentStates", n)
	if err != nil {
		return nil, err
	}
	desired, err := parseModuleStates(obj["desiredStates"], "$.desiredStates", n)
	if err != nil {
		return nil, err
	}
	currentSpeeds, err := parseChassisSpeed(obj["currentSpeeds"], "$.currentSpeeds", n)
	if err != nil {
		return nil, err
	}
	desiredSpeeds, err := parseChassisSpeed(obj["desiredSpeeds"], "$.desiredSpeeds", n)
	if err != nil {
		return nil, err
	}

	rotation := ToDegrees(rotationRad)
	return &Telemetry{
		Rotation:      &rotation,
		CurrentStates: current,
		DesiredStates: desired,
		CurrentSpeeds: &currentSpeeds,
		DesiredSpeeds: &desiredSpeeds,
	}, nil
}

func telemetryFromStruct(raw *TelemetryStruct, n Normalizer) (*Telemetry, error) {
	if err := finite("$.rotation.value", raw.Rotation.Value); err != nil {
		return nil, err
	}
	current, err := statesFromStructs(raw.CurrentStates, "$.currentStates", n)
	if err != nil {
		return nil, err
	}
	desired, err := statesFromStructs(raw.DesiredStates, "$.desiredStates", n)
	if err != nil {
		return nil, err
	}
	currentSpeeds, err := chassisFromStruct(raw.CurrentSpeeds, "$.currentSpeeds", n)
	if err != nil {
		return nil, err
	}
	desiredSpeeds, err := chassisFromStruct(raw.DesiredSpeeds, "$.desiredSpeeds", n)
	if err != nil {
		return nil, err
	}

	rotation := ToDegrees(raw.Rotation.Value)
	return &Telemetry{
		Rotation:      &rotation,
		CurrentStates: current,
		DesiredStates: desired,
		CurrentSpeeds: &currentSpeeds,
		DesiredSpeeds: &desiredSpeeds,
	}, nil
}

func parseModuleStates(value any, path string, n Normalizer) ([]ModuleState, error) {
	switch raw := value.(type) {
	case []ModuleStateStruct:
		return statesFromStructs(raw, path, n)
	case []any:
		states := make([]ModuleState, len(raw))
		for i, item := range raw {
			s, err := parseModuleState(item, fmt.Sprintf("%s[%d]", path, i), n)
			if err != nil {
				return nil, err
			}
			states[i] = s
		}
		return states, nil
	case nil:
		return nil, malformed(path, "missing")
	default:
		return nil, malformed(path, "expected array, got %T", value)
	}
}

func parseModuleState(value any, path string, n Normalizer) (ModuleState, error) {
	if raw, ok := value.(ModuleStateStruct); ok {
		return stateFromStruct(raw, path, n)
	}

	obj, err := asObject(value, path)
	if err != nil {
		return ModuleState{}, err
	}
	speed, err := numberField(obj, "speed", path)
	if err != nil {
		return ModuleState{}, err
	}
	angle, err := rotationField(obj, "angle", path)
	if err != nil {
		return ModuleState{}, err
	}
	return ModuleState{
		Speed: n.NormalizeLinear(speed),
		Angle: ToDegrees(angle),
	}, nil
}

func statesFromStructs(raw []ModuleStateStruct, path string, n Normalizer) ([]ModuleState, error) {
	if raw == nil {
		return nil, nil
	}
	states := make([]ModuleState, len(raw))
	for i, r := range raw {
		s, err := stateFromStruct(r, fmt.Sprintf("%s[%d]", path, i), n)
		if err != nil {
			return nil, err
		}
		states[i] = s
	}
	return states, nil
}

func stateFromStruct(raw ModuleStateStruct, path string, n Normalizer) (ModuleState, error) {
	if err := finite(path+".speed", raw.Speed); err != nil {
		return ModuleState{}, err
	}
	if err := finite(path+".angle.value", raw.Angle.Value); err != nil {
		return ModuleState{}, err
	}
	return ModuleState{
		Speed: n.NormalizeLinear(raw.Speed),
		Angle: ToDegrees(raw.Angle.Value),
	}, nil
}

func parseChassisSpeed(value any, path string, n Normalizer) (ChassisSpeed, error) {
	if raw, ok := value.(ChassisSpeedsStruct); ok {
		return chassisFromStruct(raw, path, n)
	}

	obj, err := asObject(value, path)
	if err != nil {
		return ChassisSpeed{}, err
	}
	var raw ChassisSpeedsStruct
	if raw.Vx, err = numberField(obj, "vx", path); err != nil {
		return ChassisSpeed{}, err
	}
	if raw.Vy, err = numberField(obj, "vy", path); err != nil {
		return ChassisSpeed{}, err
	}
	if raw.Omega, err = numberField(obj, "omega", path); err != nil {
		return ChassisSpeed{}, err
	}
	return chassisSpeed(raw, n), nil
}

func chassisFromStruct(raw ChassisSpeedsStruct, path string, n Normalizer) (ChassisSpeed, error) {
	if err := finite(path+".vx", raw.Vx); err != nil {
		return ChassisSpeed{}, err
	}
	if err := finite(path+".vy", raw.Vy); err != nil {
		return ChassisSpeed{}, err
	}
	if err := finite(path+".omega", raw.Omega); err != nil {
		return ChassisSpeed{}, err
	}
	return chassisSpeed(raw, n), nil
}

// chassisSpeed converts a finite raw chassis velocity. The speed is the
// vector magnitude, so it is never negative; direction is carried by Angle.
func chassisSpeed(raw ChassisSpeedsStruct, n Normalizer) ChassisSpeed {
	mag, angle := CartesianToPolar(raw.Vx, raw.Vy)
	return ChassisSpeed{
		Speed: n.NormalizeLinear(mag),
		Angle: ToDegrees(angle),
		Omega: n.NormalizeAngular(ToDegrees(raw.Omega)),
	}
}

func rotationField(obj map[string]any, key, path string) (float64, error) {
	p := path + "." + key
	rot, err := asObject(obj[key], p)
	if err != nil {
		return 0, err
	}
	return numberField(rot, "value", p)
}

func asObject(value any, path string) (map[string]any, error) {
	switch obj := value.(type) {
	case map[string]any:
		return obj, nil
	case nil:
		return nil, malformed(path, "missing")
	default:
		return nil, malformed(path, "expected object, got %T", value)
	}
}

func numberField(obj map[string]any, key, path string) (float64, error) {
	p := path + "." + key
	raw, ok := obj[key]
	if !ok || raw == nil {
		return 0, malformed(p, "missing")
	}

	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int8:
		v = float64(x)
	case int16:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint8:
		v = float64(x)
	case uint16:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, malformed(p, "invalid number %q", x.String())
		}
		v = f
	default:
		return 0, malformed(p, "expected number, got %T", raw)
	}

	if err := finite(p, v); err != nil {
		return 0, err
	}
	return v, nil
}

func finite(path string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return malformed(path, "not a finite number: %v", v)
	}
	return nil
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedPayload, path, fmt.Sprintf(format, args...))
}
