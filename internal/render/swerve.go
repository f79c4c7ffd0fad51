// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/relabs-tech/swerve_dashboard/internal/swerve"
)

// The diagram is laid out on a 100x100 view box.
const (
	viewBox = 100.0

	maxArrowLength     = 32.0
	minSpeedThreshold  = 0.01
	minOmegaThreshold  = 1.0
	wheelW, wheelH     = 9.0, 23.0
	arcRadius          = 25.0
	previewOpacity     = 0.25
	titleHeight        = 13
	strokeWidth        = 1.0
	vectorStrokeWidth  = 1.5
	circleSegments     = 32
	arcDegreesPerPoint = 6.0
)

// moduleOrigins are the top-left corners of the four wheel modules, in
// wheel index order: front-left, front-right, back-left, back-right.
var moduleOrigins = [4]f64.Vec2{{8, 1}, {83, 1}, {8, 76}, {83, 76}}

// Palette holds the colors used to draw the diagram.
type Palette struct {
	Background     color.Color // nil leaves the destination untouched
	Chassis        color.Color
	Outline        color.Color
	CurrentModule  color.Color
	DesiredModule  color.Color
	CurrentChassis color.Color
	DesiredChassis color.Color
}

// ColorPalette is used for the web dashboard.
var ColorPalette = Palette{
	Chassis:        color.RGBA{0x1f, 0x29, 0x37, 0xff},
	Outline:        color.RGBA{0x71, 0x71, 0x7a, 0xff},
	CurrentModule:  color.RGBA{0xdc, 0x26, 0x26, 0xff},
	DesiredModule:  color.RGBA{0x02, 0x84, 0xc7, 0xff},
	CurrentChassis: color.RGBA{0x16, 0xa3, 0x4a, 0xff},
	DesiredChassis: color.RGBA{0x02, 0x84, 0xc7, 0xff},
}

// MonochromePalette suits 1-bit displays.
var MonochromePalette = Palette{
	Background:     color.Black,
	Chassis:        color.Black,
	Outline:        color.White,
	CurrentModule:  color.White,
	DesiredModule:  color.White,
	CurrentChassis: color.White,
	DesiredChassis: color.White,
}

// Options controls how a snapshot is drawn.
type Options struct {
	Rotation float64 // degrees; the whole chassis is rotated by this amount
	Preview  bool    // draw dimmed
	Title    string
	Palette  Palette
}

type canvas struct {
	dst     draw.Image
	z       *vector.Rasterizer
	root    f64.Aff3 // view box to pixel coordinates
	unit    float64  // pixels per view box unit
	preview bool
}

// Draw renders t onto dst. A nil t draws only the chassis.
func Draw(dst draw.Image, t *swerve.Telemetry, opts Options) {
	pal := opts.Palette
	if pal.Outline == nil {
		pal = ColorPalette
	}

	b := dst.Bounds()
	if pal.Background != nil {
		draw.Draw(dst, b, image.NewUniform(pal.Background), image.Point{}, draw.Src)
	}

	top := 0
	if opts.Title != "" {
		drawTitle(dst, opts.Title, pal.Outline)
		top = titleHeight
	}

	side := math.Min(float64(b.Dx()), float64(b.Dy()-top))
	if side <= 0 {
		return
	}
	unit := side / viewBox
	ox := (float64(b.Dx()) - side) / 2
	oy := float64(top) + (float64(b.Dy()-top)-side)/2

	c := &canvas{
		dst:     dst,
		z:       vector.NewRasterizer(b.Dx(), b.Dy()),
		unit:    unit,
		preview: opts.Preview,
		root: mul(translate(ox, oy), mul(scale(unit),
			rotateAbout(opts.Rotation, viewBox/2, viewBox/2))),
	}

	c.drawChassis(pal)
	if t == nil {
		return
	}

	for i, origin := range moduleOrigins {
		m := mul(c.root, translate(origin[0], origin[1]))
		var current, desired *swerve.ModuleState
		if i < len(t.CurrentStates) {
			current = &t.CurrentStates[i]
		}
		if i < len(t.DesiredStates) {
			desired = &t.DesiredStates[i]
		}
		c.drawModule(m, current, desired, pal)
	}

	centre := mul(c.root, translate(viewBox/2, viewBox/2))
	c.drawChassisSpeed(centre, t.DesiredSpeeds, pal.DesiredChassis)
	c.drawChassisSpeed(centre, t.CurrentSpeeds, pal.CurrentChassis)
}

// PNG renders t into a size x size RGBA image and encodes it.
func PNG(w io.Writer, t *swerve.Telemetry, opts Options, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid image size %d", size)
	}
	height := size
	if opts.Title != "" {
		height += titleHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, size, height))
	Draw(img, t, opts)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawTitle(dst draw.Image, title string, c color.Color) {
	b := dst.Bounds()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(b.Min.X+2, b.Min.Y+titleHeight-3)
	d.DrawString(title)
}

func (c *canvas) drawChassis(pal Palette) {
	m := c.root
	frame := roundedRect(0.5, 0.5, 99, 99, 12)
	c.fill(m, frame, pal.Chassis)
	c.stroke(m, closed(frame), strokeWidth, pal.Outline)

	// Bumper corners.
	for _, p := range [][2]float64{{12.5, 12.5}, {87.5, 12.5}, {12.5, 87.5}, {87.5, 87.5}} {
		pts := circle(p[0], p[1], 12, circleSegments)
		c.fill(m, pts, pal.Chassis)
		c.stroke(m, closed(pts), strokeWidth, pal.Outline)
	}

	// Centre line ticks.
	for _, seg := range [][2]f64.Vec2{
		{{1, 50}, {12, 50}},
		{{88, 50}, {99, 50}},
		{{50, 1}, {50, 12}},
		{{50, 88}, {50, 99}},
	} {
		c.stroke(m, seg[:], strokeWidth, pal.Outline)
	}

	// Forward marker.
	chevron := []f64.Vec2{{50, 31}, {65.5, 58}, {50, 48.5}, {34.5, 58}}
	c.stroke(m, closed(chevron), strokeWidth, pal.Outline)
}

func (c *canvas) drawModule(m f64.Aff3, current, desired *swerve.ModuleState, pal Palette) {
	if desired != nil && math.Abs(desired.Speed) >= minSpeedThreshold {
		c.drawWheelVector(mul(m, rotateAbout(-desired.Angle, wheelW/2, wheelH/2)), desired.Speed, pal.DesiredModule)
	}

	angle := 0.0
	if current != nil {
		angle = current.Angle
	}
	wm := mul(m, rotateAbout(-angle, wheelW/2, wheelH/2))
	wheel := roundedRect(1, 1, 7, 21, 2)
	c.fill(wm, wheel, pal.Chassis)
	c.stroke(wm, closed(wheel), strokeWidth, pal.Outline)
	for _, y := range []float64{3, 5, 7.5, 10, 13, 15.5, 18, 20} {
		c.stroke(wm, []f64.Vec2{{1, y}, {8, y}}, strokeWidth/2, pal.Outline)
	}

	if current != nil && math.Abs(current.Speed) >= minSpeedThreshold {
		c.drawWheelVector(wm, current.Speed, pal.CurrentModule)
	}
}

// drawWheelVector draws a speed arrow leaving the front of the wheel, or the
// back when the speed is negative.
func (c *canvas) drawWheelVector(m f64.Aff3, speed float64, col color.Color) {
	if speed < 0 {
		m = mul(m, mul(translate(wheelW/2, wheelH), rotate(-180)))
	} else {
		m = mul(m, translate(wheelW/2, 0))
	}
	c.drawArrow(m, maxArrowLength*math.Abs(speed), col)
}

func (c *canvas) drawChassisSpeed(m f64.Aff3, s *swerve.ChassisSpeed, col color.Color) {
	if s == nil {
		return
	}
	if math.Abs(s.Speed) >= minSpeedThreshold {
		vm := mul(m, rotate(-s.Angle))
		if s.Speed < 0 {
			vm = mul(vm, rotate(-180))
		}
		c.drawArrow(vm, maxArrowLength*math.Abs(s.Speed), col)
	}
	if math.Abs(s.Omega) >= minOmegaThreshold {
		c.drawArc(m, -s.Omega, arcRadius, col)
	}
}

// drawArrow draws an arrow from the origin pointing up with the given length.
func (c *canvas) drawArrow(m f64.Aff3, length float64, col color.Color) {
	tip := f64.Vec2{0, -length}
	c.stroke(m, []f64.Vec2{{0, 0}, tip}, vectorStrokeWidth, col)
	c.stroke(m, []f64.Vec2{tip, {-3, -length + 2.5}}, vectorStrokeWidth, col)
	c.stroke(m, []f64.Vec2{tip, {3, -length + 2.5}}, vectorStrokeWidth, col)
}

// drawArc draws a rotation arc starting at the top of a circle of radius r
// and sweeping angle degrees (clockwise when positive), with the arrow head
// at the end of the sweep.
func (c *canvas) drawArc(m f64.Aff3, angle, r float64, col color.Color) {
	steps := int(math.Ceil(math.Abs(angle) / arcDegreesPerPoint))
	if steps < 1 {
		steps = 1
	}
	pts := make([]f64.Vec2, steps+1)
	for i := range pts {
		pts[i] = arcPoint(r, angle*float64(i)/float64(steps))
	}
	c.stroke(m, pts, vectorStrokeWidth, col)

	head := mul(m, rotate(angle))
	dx := -2.5
	if angle < 0 {
		dx = 2.5
	}
	start := f64.Vec2{0, -r}
	c.stroke(head, []f64.Vec2{start, {dx, -r - 3}}, vectorStrokeWidth, col)
	c.stroke(head, []f64.Vec2{start, {dx, -r + 3}}, vectorStrokeWidth, col)
}

func (c *canvas) fill(m f64.Aff3, pts []f64.Vec2, col color.Color) {
	if len(pts) < 3 || col == nil {
		return
	}
	c.z.Reset(c.z.Size().X, c.z.Size().Y)
	for i, p := range pts {
		q := apply(m, p)
		if i == 0 {
			c.z.MoveTo(float32(q[0]), float32(q[1]))
		} else {
			c.z.LineTo(float32(q[0]), float32(q[1]))
		}
	}
	c.z.ClosePath()
	c.paint(col)
}

// stroke draws a polyline of the given width (in view box units). Each
// segment is rasterized on its own so overlapping segments never cancel out.
func (c *canvas) stroke(m f64.Aff3, pts []f64.Vec2, width float64, col color.Color) {
	if col == nil {
		return
	}
	half := math.Max(width*c.unit, 1) / 2
	for i := 1; i < len(pts); i++ {
		a, b := apply(m, pts[i-1]), apply(m, pts[i])
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		// Unit direction and normal, scaled to half the stroke width.
		ux, uy := dx/l*half, dy/l*half
		nx, ny := -uy, ux

		c.z.Reset(c.z.Size().X, c.z.Size().Y)
		c.z.MoveTo(float32(a[0]-ux+nx), float32(a[1]-uy+ny))
		c.z.LineTo(float32(b[0]+ux+nx), float32(b[1]+uy+ny))
		c.z.LineTo(float32(b[0]+ux-nx), float32(b[1]+uy-ny))
		c.z.LineTo(float32(a[0]-ux-nx), float32(a[1]-uy-ny))
		c.z.ClosePath()
		c.paint(col)
	}
}

func (c *canvas) paint(col color.Color) {
	if c.preview {
		r, g, b, a := col.RGBA()
		col = color.RGBA64{
			R: uint16(float64(r) * previewOpacity),
			G: uint16(float64(g) * previewOpacity),
			B: uint16(float64(b) * previewOpacity),
			A: uint16(float64(a) * previewOpacity),
		}
	}
	bounds := c.dst.Bounds()
	c.z.Draw(c.dst, bounds, image.NewUniform(col), image.Point{})
}

func closed(pts []f64.Vec2) []f64.Vec2 {
	if len(pts) == 0 {
		return pts
	}
	out := make([]f64.Vec2, len(pts)+1)
	copy(out, pts)
	out[len(pts)] = pts[0]
	return out
}
