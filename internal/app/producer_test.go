// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/drivetrain"
	"github.com/relabs-tech/swerve_dashboard/internal/nmeaswerve"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

type fixedSource struct {
	frame swerve.TelemetryStruct
	err   error
}

func (s fixedSource) Next() (swerve.TelemetryStruct, error) { return s.frame, s.err }

func TestPayloadFor(t *testing.T) {
	frame := sampleFrame()

	st, value := payloadFor(config.LayoutTelemetry, frame)
	assert.Equal(t, swerve.TelemetryType, st)
	assert.Equal(t, frame, value)

	st, value = payloadFor(config.LayoutStates, frame)
	assert.Equal(t, swerve.ModuleStatesType, st)
	assert.Equal(t, frame.CurrentStates, value)
}

func TestSentenceForRoundTrip(t *testing.T) {
	frame := sampleFrame()
	frame.DesiredSpeeds = swerve.ChassisSpeedsStruct{Vx: -1, Omega: 0.5}

	for _, layout := range []string{config.LayoutTelemetry, config.LayoutStates} {
		t.Run(layout, func(t *testing.T) {
			line, err := sentenceFor(layout, frame)
			require.NoError(t, err)

			st, value, err := nmeaswerve.Parse(line)
			require.NoError(t, err)
			wantType, wantValue := payloadFor(layout, frame)
			assert.Equal(t, wantType, st)
			if diff := cmp.Diff(wantValue, value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProduceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{onPub: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	err := produce(ctx, fixedSource{frame: sampleFrame()}, pub, testSlot, config.LayoutStates, time.Millisecond)
	require.NoError(t, err)

	msgs := pub.messages()
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, swerve.ModuleStatesType, msgs[0].Type)
}

func TestProduceSkipsSourceErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	pub := &fakePublisher{}
	err := produce(ctx, fixedSource{err: errors.New("no frame")}, pub, testSlot, config.LayoutTelemetry, time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, pub.messages())
}

func TestMockStep(t *testing.T) {
	props := widget.DefaultProps()
	for _, layout := range []string{config.LayoutTelemetry, config.LayoutStates} {
		t.Run(layout, func(t *testing.T) {
			ch := datachannel.NewChannel("mock", 2)
			got, err := mockStep(drivetrain.NewMockSource(), ch, layout, props)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got.CurrentStates, 4)
			require.NotNil(t, got.Rotation)
			if layout == config.LayoutStates {
				assert.Zero(t, *got.Rotation)
				assert.Nil(t, got.CurrentSpeeds)
			} else {
				assert.NotNil(t, got.CurrentSpeeds)
			}
			assert.Len(t, ch.Records(), 1)
		})
	}
}
