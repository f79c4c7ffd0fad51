// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmeaswerve carries raw swerve frames over a serial link as
// proprietary NMEA 0183 sentences:
//
//	$PSWMS,<n>,<speed_0>,<angle_0>,...,<speed_n-1>,<angle_n-1>*hh
//	$PSWTL,<rotation>,<n>,<current n pairs>,<desired n pairs>,<cvx>,<cvy>,<comega>,<dvx>,<dvy>,<domega>*hh
//
// Speeds are m/s, angles radians, omega rad/s.
package nmeaswerve

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// Sentence data types (the part after the proprietary "P" talker).
const (
	TypeModuleStates = "SWMS"
	TypeTelemetry    = "SWTL"
)

// maxModules bounds the module count field so a corrupt line cannot
// allocate a huge slice.
const maxModules = 16

// ModuleStatesSentence is a bare module state array.
type ModuleStatesSentence struct {
	nmea.BaseSentence
	States []swerve.ModuleStateStruct
}

// TelemetrySentence is a full telemetry frame.
type TelemetrySentence struct {
	nmea.BaseSentence
	Telemetry swerve.TelemetryStruct
}

var parser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeModuleStates: newModuleStates,
		TypeTelemetry:    newTelemetry,
	},
}

// Parse decodes one sentence into the structured type and raw value to
// publish on a data channel.
func Parse(line string) (datachannel.StructuredType, any, error) {
	s, err := parser.Parse(strings.TrimSpace(line))
	if err != nil {
		return datachannel.StructuredType{}, nil, err
	}
	switch m := s.(type) {
	case ModuleStatesSentence:
		return swerve.ModuleStatesType, m.States, nil
	case TelemetrySentence:
		return swerve.TelemetryType, m.Telemetry, nil
	default:
		return datachannel.StructuredType{}, nil, fmt.Errorf("unsupported sentence %s", s.Prefix())
	}
}

func newModuleStates(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	n := moduleCount(p, 0)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if want := 1 + 2*n; len(s.Fields) != want {
		return nil, fmt.Errorf("nmea: %s has %d fields, want %d", s.Prefix(), len(s.Fields), want)
	}
	m := ModuleStatesSentence{
		BaseSentence: s,
		States:       parseStates(p, 1, n),
	}
	return m, p.Err()
}

func newTelemetry(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	n := moduleCount(p, 1)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if want := 2 + 4*n + 6; len(s.Fields) != want {
		return nil, fmt.Errorf("nmea: %s has %d fields, want %d", s.Prefix(), len(s.Fields), want)
	}

	i := 2 + 4*n
	m := TelemetrySentence{
		BaseSentence: s,
		Telemetry: swerve.TelemetryStruct{
			Rotation:      swerve.Rotation2dStruct{Value: p.Float64(0, "rotation")},
			CurrentStates: parseStates(p, 2, n),
			DesiredStates: parseStates(p, 2+2*n, n),
			CurrentSpeeds: swerve.ChassisSpeedsStruct{
				Vx:    p.Float64(i, "current vx"),
				Vy:    p.Float64(i+1, "current vy"),
				Omega: p.Float64(i+2, "current omega"),
			},
			DesiredSpeeds: swerve.ChassisSpeedsStruct{
				Vx:    p.Float64(i+3, "desired vx"),
				Vy:    p.Float64(i+4, "desired vy"),
				Omega: p.Float64(i+5, "desired omega"),
			},
		},
	}
	return m, p.Err()
}

func moduleCount(p *nmea.Parser, i int) int {
	n := p.Int64(i, "module count")
	if n < 0 || n > maxModules {
		p.SetErr("module count", strconv.FormatInt(n, 10))
		return 0
	}
	return int(n)
}

func parseStates(p *nmea.Parser, start, n int) []swerve.ModuleStateStruct {
	states := make([]swerve.ModuleStateStruct, n)
	for k := range states {
		i := start + 2*k
		states[k] = swerve.ModuleStateStruct{
			Speed: p.Float64(i, "speed"),
			Angle: swerve.Rotation2dStruct{Value: p.Float64(i+1, "angle")},
		}
	}
	return states
}

// FormatModuleStates builds a $PSWMS sentence.
func FormatModuleStates(states []swerve.ModuleStateStruct) string {
	fields := []string{strconv.Itoa(len(states))}
	fields = appendStates(fields, states)
	return sentence(TypeModuleStates, fields)
}

// FormatTelemetry builds a $PSWTL sentence. Both state arrays must have the
// same length.
func FormatTelemetry(t swerve.TelemetryStruct) (string, error) {
	if len(t.CurrentStates) != len(t.DesiredStates) {
		return "", fmt.Errorf("current and desired states differ in length: %d != %d",
			len(t.CurrentStates), len(t.DesiredStates))
	}
	fields := []string{formatFloat(t.Rotation.Value), strconv.Itoa(len(t.CurrentStates))}
	fields = appendStates(fields, t.CurrentStates)
	fields = appendStates(fields, t.DesiredStates)
	for _, c := range []swerve.ChassisSpeedsStruct{t.CurrentSpeeds, t.DesiredSpeeds} {
		fields = append(fields, formatFloat(c.Vx), formatFloat(c.Vy), formatFloat(c.Omega))
	}
	return sentence(TypeTelemetry, fields), nil
}

func appendStates(fields []string, states []swerve.ModuleStateStruct) []string {
	for _, s := range states {
		fields = append(fields, formatFloat(s.Speed), formatFloat(s.Angle.Value))
	}
	return fields
}

func sentence(dataType string, fields []string) string {
	body := "P" + dataType + "," + strings.Join(fields, ",")
	return "$" + body + "*" + nmea.Checksum(body)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
