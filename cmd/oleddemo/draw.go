// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"

	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/GermanBionicSystems/oled/ssd1306/image1bit"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	// lineHeight is the advance between two lines of text.
	lineHeight = 10
	glyphWidth = 7
)

var face = basicfont.Face7x13

// text draws s with its top left corner at (x, y).
func text(img *image1bit.VerticalLSB, s string, x, y int, b image1bit.Bit) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: b},
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return len(s) * glyphWidth
}

// centered draws s horizontally centered on line y.
func centered(img *image1bit.VerticalLSB, s string, y int) {
	text(img, s, (img.Rect.Dx()-textWidth(s))/2, y, image1bit.On)
}

// smallText draws s with the proggy bitmap font, y being the baseline.
func smallText(dev *ssd1306.Dev, s string, x, y int) {
	tinyfont.WriteLine(dev.Displayer(), &proggy.TinySZ8pt7b, int16(x), int16(y), s, color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

func fillRect(img *image1bit.VerticalLSB, r image.Rectangle, b image1bit.Bit) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.DrawHLine(r.Min.X, r.Max.X, y, b)
	}
}

// rect draws the outline of r.
func rect(img *image1bit.VerticalLSB, r image.Rectangle, b image1bit.Bit) {
	if r.Empty() {
		return
	}
	img.DrawHLine(r.Min.X, r.Max.X, r.Min.Y, b)
	img.DrawHLine(r.Min.X, r.Max.X, r.Max.Y-1, b)
	img.DrawVLine(r.Min.Y, r.Max.Y, r.Min.X, b)
	img.DrawVLine(r.Min.Y, r.Max.Y, r.Max.X-1, b)
}

// line draws from (x0, y0) to (x1, y1), both ends included.
func line(img *image1bit.VerticalLSB, x0, y0, x1, y1 int, b image1bit.Bit) {
	dx, sx := abs(x1-x0), 1
	if x0 > x1 {
		sx = -1
	}
	dy, sy := -abs(y1-y0), 1
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetBit(x0, y0, b)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
