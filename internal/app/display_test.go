// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/swerve_dashboard/internal/dashboard"
	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
	"github.com/relabs-tech/swerve_dashboard/internal/widget"
)

type recordingBus struct {
	addrs []uint16
}

func (b *recordingBus) String() string                    { return "fake" }
func (b *recordingBus) SetSpeed(physic.Frequency) error   { return nil }
func (b *recordingBus) Tx(addr uint16, _, _ []byte) error { b.addrs = append(b.addrs, addr); return nil }

func TestAddressedBus(t *testing.T) {
	raw := &recordingBus{}
	bus := addressedBus{Bus: raw, addr: 0x3D}
	assert.NoError(t, bus.Tx(0x3C, []byte{0}, nil))
	assert.Equal(t, []uint16{0x3D}, raw.addrs)
}

func TestStatusLines(t *testing.T) {
	assert.Equal(t, []string{"no data"}, statusLines(nil))

	rotation := 12.0
	lines := statusLines(&swerve.Telemetry{
		Rotation:      &rotation,
		CurrentSpeeds: &swerve.ChassisSpeed{Speed: 0.5, Angle: -90, Omega: 45},
	})
	assert.Equal(t, []string{"R   12", "V 0.50", "A  -90", "W   45"}, lines)
}

func countLit(img *image1bit.VerticalLSB, r image.Rectangle) int {
	lit := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.BitAt(x, y) == image1bit.On {
				lit++
			}
		}
	}
	return lit
}

func TestDisplayFrame(t *testing.T) {
	bounds := image.Rect(0, 0, 128, 64)
	v := widget.NewView(widget.ModeDesign, testSlot, widget.Preview(), true, widget.Props{Title: "Drive", ChassisSpeedsVisible: true})
	img := displayFrame(bounds, v)

	assert.Equal(t, bounds, img.Bounds())
	assert.Positive(t, countLit(img, image.Rect(0, 0, 64, 64)), "diagram")
	assert.Positive(t, countLit(img, image.Rect(64, 0, 128, 64)), "text")
}

func TestSplashFrame(t *testing.T) {
	img := splashFrame(image.Rect(0, 0, 128, 64), dashboard.Widget{Slot: testSlot})
	assert.Positive(t, countLit(img, img.Bounds()))
}
