// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package widget

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// Mode is the rendering mode requested by the dashboard host.
type Mode string

const (
	ModeTemplate Mode = "template" // widget gallery / drag preview
	ModeDesign   Mode = "design"
	ModeView     Mode = "view"
)

// Size is a widget size in grid cells.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Descriptor registers a widget type with the dashboard.
type Descriptor struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Size        Size     `json:"size"`
	MinSize     Size     `json:"minSize"`
	Accepts     []string `json:"accepts"` // struct names the slot accepts
	Defaults    Props    `json:"defaults"`
}

// Accept reports whether the widget can draw a channel of type st.
func (d Descriptor) Accept(st datachannel.StructuredType) bool {
	if st.Format != datachannel.FormatStruct {
		return false
	}
	for _, name := range d.Accepts {
		if name == st.Name {
			return true
		}
	}
	return false
}

// SwerveType is the widget type key.
const SwerveType = "swerve"

// SwerveDescriptor describes the swerve drivetrain widget.
var SwerveDescriptor = Descriptor{
	Type:        SwerveType,
	Name:        "Swerve",
	Icon:        "square-swerve",
	Description: "Swerve drivetrain",
	Size:        Size{Width: 10, Height: 11},
	MinSize:     Size{Width: 5, Height: 6},
	Accepts:     []string{swerve.TelemetryStructName, swerve.ModuleStateStructName},
	Defaults:    DefaultProps(),
}

// Lookup returns the descriptor registered for a widget type.
func Lookup(widgetType string) (Descriptor, bool) {
	switch widgetType {
	case SwerveType:
		return SwerveDescriptor, true
	default:
		return Descriptor{}, false
	}
}

// Transform turns the channel's records into the snapshot to draw. It uses
// only the most recent record, decoded with the type that record arrived
// with. No records means there is nothing to draw and yields (nil, nil).
func Transform(records []datachannel.Record, props Props) (*swerve.Telemetry, error) {
	if len(records) == 0 {
		return nil, nil
	}
	return TransformRecord(records[len(records)-1], props)
}

// TransformRecord decodes a single record. An untyped record yields (nil, nil).
func TransformRecord(rec datachannel.Record, props Props) (*swerve.Telemetry, error) {
	if rec.Type == nil {
		return nil, nil
	}
	n, err := props.Normalizer()
	if err != nil {
		return nil, err
	}
	return swerve.Decode(rec.Value, rec.Type, n)
}

// TransformChannel decodes the channel's newest record.
func TransformChannel(ch *datachannel.Channel, props Props) (*swerve.Telemetry, error) {
	rec, ok := ch.Latest()
	if !ok {
		return nil, nil
	}
	return TransformRecord(rec, props)
}

// Preview returns the placeholder snapshot shown before real data arrives.
func Preview() *swerve.Telemetry {
	states := make([]swerve.ModuleState, 4)
	for i := range states {
		states[i] = swerve.ModuleState{Speed: 0.5, Angle: -45}
	}
	return &swerve.Telemetry{
		CurrentStates: states,
		CurrentSpeeds: &swerve.ChassisSpeed{Speed: 0.5, Angle: -45, Omega: 0},
	}
}

// WithPreview picks the data to render: the preview in template mode or when
// data is nil. The flag reports whether the preview was chosen.
func WithPreview(mode Mode, data *swerve.Telemetry) (*swerve.Telemetry, bool) {
	if mode == ModeTemplate || data == nil {
		return Preview(), true
	}
	return data, false
}

// View is a snapshot with the display props applied.
type View struct {
	Title     string            `json:"title,omitempty"`
	Rotation  float64           `json:"rotation"` // degrees to rotate the chassis drawing
	Preview   bool              `json:"preview"`
	Telemetry *swerve.Telemetry `json:"telemetry"`
}

// NewView applies props to t for a widget bound to slot: chassis speeds are
// hidden unless ChassisSpeedsVisible, and the drawing counter-rotates by the
// robot heading when ChassisRotation is set. t is not modified.
func NewView(mode Mode, slot string, t *swerve.Telemetry, preview bool, props Props) View {
	v := View{Title: Title(mode, slot, props), Preview: preview}
	if t == nil {
		return v
	}

	shown := *t
	if !props.ChassisSpeedsVisible {
		shown.CurrentSpeeds = nil
		shown.DesiredSpeeds = nil
	}
	if props.ChassisRotation && t.Rotation != nil {
		v.Rotation = -*t.Rotation
	}
	v.Telemetry = &shown
	return v
}

// Title is the widget heading: "Preview" in template mode, otherwise the
// configured title or, when that is empty, the slot formatted as a title.
func Title(mode Mode, slot string, props Props) string {
	switch {
	case mode == ModeTemplate:
		return "Preview"
	case props.Title != "":
		return props.Title
	default:
		return SlotTitle(slot)
	}
}

// SlotTitle turns a slot name such as "robot/swerve_drive" into
// "Robot Swerve Drive".
func SlotTitle(slot string) string {
	words := strings.FieldsFunc(slot, func(r rune) bool {
		return r == '/' || r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
	// A Caser is stateful, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
