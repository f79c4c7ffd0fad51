// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

// Layout lists the widgets shown on the dashboard.
type Layout struct {
	Widgets []Widget `yaml:"widgets" json:"widgets"`
}

// Widget is one widget instance bound to a data channel slot.
type Widget struct {
	ID    string       `yaml:"id" json:"id"`
	Type  string       `yaml:"type" json:"type"`
	Slot  string       `yaml:"slot" json:"slot"` // MQTT topic
	Props widget.Props `yaml:"props" json:"props"`
}

// Load reads a YAML layout file. Props omitted in the file keep their defaults.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML layout. Widget props go through
// widget.Props.Sanitize, so a zero maximum in the file becomes the minimum.
func Parse(data []byte) (*Layout, error) {
	var raw struct {
		Widgets []struct {
			ID    string        `yaml:"id"`
			Type  string        `yaml:"type"`
			Slot  string        `yaml:"slot"`
			Props yaml.MapSlice `yaml:"props"`
		} `yaml:"widgets"`
	}
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dashboard: %w", err)
	}

	layout := &Layout{}
	for _, w := range raw.Widgets {
		props := widget.DefaultProps()
		if len(w.Props) > 0 {
			// Re-encode the props block over the defaults so omitted keys keep them.
			block, err := yaml.Marshal(w.Props)
			if err != nil {
				return nil, fmt.Errorf("widget %q: %w", w.ID, err)
			}
			if err := yaml.UnmarshalStrict(block, &props); err != nil {
				return nil, fmt.Errorf("widget %q props: %w", w.ID, err)
			}
		}
		// Out-of-schema values are errors; in-schema maxima below the editor
		// minimum are raised to it.
		if err := props.Validate(); err != nil {
			return nil, fmt.Errorf("widget %q: %w", w.ID, err)
		}
		props = props.Sanitize()
		layout.Widgets = append(layout.Widgets, Widget{ID: w.ID, Type: w.Type, Slot: w.Slot, Props: props})
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// Default is a single swerve widget bound to slot.
func Default(slot string, props widget.Props) *Layout {
	return &Layout{Widgets: []Widget{{
		ID:    widget.SwerveType,
		Type:  widget.SwerveType,
		Slot:  slot,
		Props: props,
	}}}
}

// Validate checks widget ids, types, slots and props.
func (l *Layout) Validate() error {
	if len(l.Widgets) == 0 {
		return fmt.Errorf("dashboard has no widgets")
	}
	seen := make(map[string]bool, len(l.Widgets))
	for i, w := range l.Widgets {
		if w.ID == "" {
			return fmt.Errorf("widget %d: id is required", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("widget %q: duplicate id", w.ID)
		}
		seen[w.ID] = true

		if _, ok := widget.Lookup(w.Type); !ok {
			return fmt.Errorf("widget %q: unknown type %q", w.ID, w.Type)
		}
		if w.Slot == "" {
			return fmt.Errorf("widget %q: slot is required", w.ID)
		}
		if err := w.Props.Validate(); err != nil {
			return fmt.Errorf("widget %q: %w", w.ID, err)
		}
	}
	return nil
}

// Find returns the widget with the given id.
func (l *Layout) Find(id string) (Widget, bool) {
	for _, w := range l.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// Slots returns the distinct slots in layout order.
func (l *Layout) Slots() []string {
	var slots []string
	seen := make(map[string]bool)
	for _, w := range l.Widgets {
		if !seen[w.Slot] {
			seen[w.Slot] = true
			slots = append(slots, w.Slot)
		}
	}
	return slots
}
