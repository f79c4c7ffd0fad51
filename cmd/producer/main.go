// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/swerve_dashboard/internal/app"
	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/monitoring"
)

func main() {
	configPath := flag.String("config", "./swerve_config.txt", "path to configuration file")
	layout := flag.String("layout", "", "payload layout: telemetry or states (default SWERVE_LAYOUT)")
	nmea := flag.Bool("nmea", false, "write NMEA sentences to stdout instead of publishing to MQTT")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if path := config.Get().LogFile; path != "" {
		defer monitoring.TeeToFile(path).Close()
	}

	if *layout == "" {
		*layout = config.Get().SwerveLayout
	}
	if *layout != config.LayoutTelemetry && *layout != config.LayoutStates {
		log.Fatalf("unknown layout %q", *layout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *nmea {
		// Logs go to stderr, sentences to stdout.
		err = app.RunSentenceEmitter(ctx, *layout, os.Stdout)
	} else {
		log.Println("starting swerve-dashboard mock producer (mock → MQTT)")
		err = app.RunProducer(ctx, *layout)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
