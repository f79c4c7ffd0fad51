// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine transforms in screen coordinates (y grows downwards), so a positive
// rotation turns clockwise on screen.

func translate(tx, ty float64) f64.Aff3 {
	return f64.Aff3{1, 0, tx, 0, 1, ty}
}

func scale(s float64) f64.Aff3 {
	return f64.Aff3{s, 0, 0, 0, s, 0}
}

func rotate(deg float64) f64.Aff3 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return f64.Aff3{cos, -sin, 0, sin, cos, 0}
}

// rotateAbout rotates by deg around (cx, cy).
func rotateAbout(deg, cx, cy float64) f64.Aff3 {
	return mul(translate(cx, cy), mul(rotate(deg), translate(-cx, -cy)))
}

// mul returns m∘n: n is applied first.
func mul(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3],
		m[0]*n[1] + m[1]*n[4],
		m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3],
		m[3]*n[1] + m[4]*n[4],
		m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

func apply(m f64.Aff3, p f64.Vec2) f64.Vec2 {
	return f64.Vec2{
		m[0]*p[0] + m[1]*p[1] + m[2],
		m[3]*p[0] + m[4]*p[1] + m[5],
	}
}

// arcPoint returns the point at radius r and angle deg measured clockwise
// from straight up.
func arcPoint(r, deg float64) f64.Vec2 {
	sin, cos := math.Sincos((deg - 90) * math.Pi / 180)
	return f64.Vec2{r * cos, r * sin}
}

// circle approximates a circle with n points.
func circle(cx, cy, r float64, n int) []f64.Vec2 {
	pts := make([]f64.Vec2, n)
	for i := range pts {
		p := arcPoint(r, 360*float64(i)/float64(n))
		pts[i] = f64.Vec2{cx + p[0], cy + p[1]}
	}
	return pts
}

// roundedRect approximates a rectangle with corner radius rx.
func roundedRect(x, y, w, h, rx float64) []f64.Vec2 {
	const steps = 6
	corners := []struct{ cx, cy, start float64 }{
		{x + w - rx, y + rx, 0},
		{x + w - rx, y + h - rx, 90},
		{x + rx, y + h - rx, 180},
		{x + rx, y + rx, 270},
	}
	pts := make([]f64.Vec2, 0, 4*(steps+1))
	for _, c := range corners {
		for i := 0; i <= steps; i++ {
			p := arcPoint(rx, c.start+90*float64(i)/steps)
			pts = append(pts, f64.Vec2{c.cx + p[0], c.cy + p[1]})
		}
	}
	return pts
}
