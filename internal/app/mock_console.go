// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/drivetrain"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

// RunMockConsole runs the mock robot through the full envelope and decode
// path without a broker and prints each snapshot.
func RunMockConsole(ctx context.Context, layout string) error {
	cfg := config.Get()
	src := drivetrain.NewMockSource()
	ch := datachannel.NewChannel("mock", cfg.ChannelHistory)
	props := cfg.WidgetProps()

	ticker := time.NewTicker(cfg.PublishEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t, err := mockStep(src, ch, layout, props)
			if err != nil {
				return err
			}
			printSnapshot(os.Stdout, t)
		}
	}
}

// mockStep moves one frame from src through an envelope into ch and decodes
// the result.
func mockStep(src drivetrain.Source, ch *datachannel.Channel, layout string, props widget.Props) (*swerve.Telemetry, error) {
	frame, err := src.Next()
	if err != nil {
		return nil, err
	}
	st, value := payloadFor(layout, frame)
	payload, err := datachannel.EncodeEnvelope(st, value, 0)
	if err != nil {
		return nil, err
	}
	if err := datachannel.Ingest(ch, payload); err != nil {
		return nil, err
	}
	return widget.TransformChannel(ch, props)
}

func printSnapshot(w io.Writer, t *swerve.Telemetry) {
	if t == nil {
		fmt.Fprintln(w, "(no data)")
		return
	}
	fmt.Fprint(w, formatSnapshot("mock", t))
}
