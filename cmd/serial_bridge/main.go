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
	flag.Parse()

	log.Println("starting swerve-dashboard serial bridge (serial → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if path := config.Get().LogFile; path != "" {
		defer monitoring.TeeToFile(path).Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunSerialBridge(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
