// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/nmeaswerve"
)

// RunSerialBridge reads swerve sentences from the robot's serial link and
// republishes each frame as an envelope on TOPIC_SWERVE.
func RunSerialBridge(ctx context.Context) error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := datachannel.Connect(cfg.MQTTBroker, cfg.MQTTClientIDBridge)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("bridge: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	log.Printf("bridge: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// Closing the port unblocks the pending read.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	err = forwardSentences(port, datachannel.NewPublisher(client), cfg.TopicSwerve)
	if ctx.Err() != nil {
		log.Println("bridge: shutting down")
		return nil
	}
	return err
}

// forwardSentences publishes every valid swerve sentence read from r. Noise
// and partial lines are skipped; it returns when r fails or hits EOF.
func forwardSentences(r io.Reader, pub publisher, topic string) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			forwardLine(line, pub, topic)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			log.Printf("bridge: serial read error: %v", err)
			return err
		}
	}
}

func forwardLine(line string, pub publisher, topic string) {
	// Sentences start with '$'; anything else is line noise.
	if !strings.HasPrefix(line, "$") {
		return
	}
	st, value, err := nmeaswerve.Parse(line)
	if err != nil {
		log.Printf("bridge: skipping sentence: %v", err)
		return
	}
	if err := pub.Publish(topic, st, value); err != nil {
		log.Printf("bridge: %v", err)
	}
}
