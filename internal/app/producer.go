// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/drivetrain"
	"github.com/relabs-tech/swerve_dashboard/internal/nmeaswerve"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// publisher is the part of datachannel.Publisher the loops need.
type publisher interface {
	Publish(topic string, st datachannel.StructuredType, value any) error
}

// RunProducer publishes mock swerve frames to TOPIC_SWERVE every
// PUBLISH_INTERVAL until ctx is done. layout is config.LayoutTelemetry or
// config.LayoutStates.
func RunProducer(ctx context.Context, layout string) error {
	cfg := config.Get()
	log.Printf("producer: starting mock swerve producer (%s layout)", layout)

	client, err := datachannel.Connect(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	return produce(ctx, drivetrain.NewMockSource(), datachannel.NewPublisher(client), cfg.TopicSwerve, layout, cfg.PublishEvery())
}

func produce(ctx context.Context, src drivetrain.Source, pub publisher, topic, layout string, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("producer: shutting down")
			return nil
		case t := <-ticker.C:
			frame, err := src.Next()
			if err != nil {
				log.Printf("producer: error from swerve source: %v", err)
				continue
			}
			st, value := payloadFor(layout, frame)
			if err := pub.Publish(topic, st, value); err != nil {
				log.Printf("producer: %v", err)
				continue
			}
			log.Printf("%s published %s: rot=%.2f vx=%.2f vy=%.2f omega=%.2f",
				t.Format(time.RFC3339), st, frame.Rotation.Value,
				frame.CurrentSpeeds.Vx, frame.CurrentSpeeds.Vy, frame.CurrentSpeeds.Omega)
		}
	}
}

// RunSentenceEmitter writes the mock frames as NMEA sentences to w, emulating
// the robot end of the serial link.
func RunSentenceEmitter(ctx context.Context, layout string, w io.Writer) error {
	cfg := config.Get()
	src := drivetrain.NewMockSource()

	ticker := time.NewTicker(cfg.PublishEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame, err := src.Next()
			if err != nil {
				log.Printf("producer: error from swerve source: %v", err)
				continue
			}
			line, err := sentenceFor(layout, frame)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\r\n", line); err != nil {
				return err
			}
		}
	}
}

func payloadFor(layout string, frame swerve.TelemetryStruct) (datachannel.StructuredType, any) {
	if layout == config.LayoutStates {
		return swerve.ModuleStatesType, frame.CurrentStates
	}
	return swerve.TelemetryType, frame
}

func sentenceFor(layout string, frame swerve.TelemetryStruct) (string, error) {
	if layout == config.LayoutStates {
		return nmeaswerve.FormatModuleStates(frame.CurrentStates), nil
	}
	return nmeaswerve.FormatTelemetry(frame)
}
