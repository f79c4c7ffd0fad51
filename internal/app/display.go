// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/swerve_dashboard/internal/config"
	"github.com/relabs-tech/swerve_dashboard/internal/dashboard"
	"github.com/relabs-tech/swerve_dashboard/internal/datachannel"
	"github.com/relabs-tech/swerve_dashboard/internal/render"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

// addressedBus sends every transaction to a fixed I²C address, so the
// display can sit on an address other than the driver's 0x3C.
type addressedBus struct {
	i2c.Bus
	addr uint16
}

func (b addressedBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// RunDisplay draws the first dashboard widget on an SSD1306 OLED: the
// diagram on the left half, chassis numbers on the right.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}
	wd := layout.Widgets[0]

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(addressedBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), splashFrame(dev.Bounds(), wd), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	sub, client, err := datachannel.ConnectSubscriber(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, cfg.ChannelHistory)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	ch, err := sub.Watch(wd.Slot)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(cfg.DisplayEvery())
	defer ticker.Stop()

	log.Println("display: starting update loop")
	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			log.Println("display: shutting down")
			return nil
		case <-ticker.C:
		}

		rec, ok := ch.Latest()
		if !ok || rec.Seq == lastSeq {
			continue
		}
		lastSeq = rec.Seq

		t, err := widget.TransformRecord(rec, wd.Props)
		if err != nil {
			log.Printf("display: %v", err)
			continue
		}
		frame := displayFrame(dev.Bounds(), widget.NewView(widget.ModeView, wd.Slot, t, false, wd.Props))
		if err := dev.Draw(dev.Bounds(), frame, image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}

// displayFrame lays out a view on a 1-bit frame.
func displayFrame(bounds image.Rectangle, v widget.View) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(bounds)

	side := bounds.Dy()
	diagram := image.NewGray(image.Rect(0, 0, side, side))
	render.Draw(diagram, v.Telemetry, render.Options{
		Rotation: v.Rotation,
		Palette:  render.MonochromePalette,
	})
	draw.Draw(img, diagram.Bounds(), diagram, image.Point{}, draw.Src)

	lines := statusLines(v.Telemetry)
	if v.Title != "" {
		lines = append([]string{v.Title}, lines...)
	}
	drawLines(img, side+2, lines)
	return img
}

func splashFrame(bounds image.Rectangle, wd dashboard.Widget) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(bounds)
	drawLines(img, 4, []string{"Swerve", "waiting for", wd.Slot})
	return img
}

// statusLines are the numbers printed next to the diagram.
func statusLines(t *swerve.Telemetry) []string {
	if t == nil {
		return []string{"no data"}
	}
	lines := []string{fmt.Sprintf("R %4.0f", t.RotationOrZero())}
	if c := t.CurrentSpeeds; c != nil {
		lines = append(lines,
			fmt.Sprintf("V %4.2f", c.Speed),
			fmt.Sprintf("A %4.0f", c.Angle),
			fmt.Sprintf("W %4.0f", c.Omega),
		)
	}
	return lines
}

func drawLines(img draw.Image, x int, lines []string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(x, 12+13*i)
		drawer.DrawString(line)
	}
}
