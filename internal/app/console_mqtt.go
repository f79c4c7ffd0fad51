// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/dashboard"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

// RunConsoleMQTT prints every decoded snapshot of every dashboard widget.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}

	sub, client, err := datachannel.ConnectSubscriber(cfg.MQTTBroker, cfg.MQTTClientIDConsole, cfg.ChannelHistory)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	for _, wd := range layout.Widgets {
		ch, err := sub.Watch(wd.Slot)
		if err != nil {
			return err
		}
		records := ch.Subscribe()
		defer ch.Unsubscribe(records)
		go printRecords(os.Stdout, wd, records)
		log.Printf("console: widget %s watching %s", wd.ID, wd.Slot)
	}

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func printRecords(w io.Writer, wd dashboard.Widget, records <-chan datachannel.Record) {
	for rec := range records {
		t, err := widget.TransformRecord(rec, wd.Props)
		if err != nil {
			if errors.Is(err, swerve.ErrMalformedPayload) {
				fmt.Fprintf(w, "[%s] malformed: %v\n", wd.ID, err)
				continue
			}
			log.Printf("console: %s: %v", wd.ID, err)
			continue
		}
		if t == nil {
			continue
		}
		fmt.Fprint(w, formatSnapshot(wd.ID, t))
	}
}

// formatSnapshot renders a snapshot as console lines.
func formatSnapshot(label string, t *swerve.Telemetry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ROT=%7.2f°\n", label, t.RotationOrZero())
	writeStates(&b, "CUR", t.CurrentStates)
	writeStates(&b, "DES", t.DesiredStates)
	writeChassis(&b, "CUR", t.CurrentSpeeds)
	writeChassis(&b, "DES", t.DesiredSpeeds)
	return b.String()
}

func writeStates(b *strings.Builder, tag string, states []swerve.ModuleState) {
	if len(states) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s modules:", tag)
	for _, s := range states {
		fmt.Fprintf(b, "  %5.2f@%7.2f°", s.Speed, s.Angle)
	}
	b.WriteString("\n")
}

func writeChassis(b *strings.Builder, tag string, c *swerve.ChassisSpeed) {
	if c == nil {
		return
	}
	fmt.Fprintf(b, "  %s chassis: speed=%5.2f angle=%7.2f° omega=%7.2f°\n", tag, c.Speed, c.Angle, c.Omega)
}
