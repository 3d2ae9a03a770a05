// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"image/color"

	"github.com/GermanBionicSystems/oled/ssd1306/image1bit"
	"tinygo.org/x/drivers"
)

// Displayer returns a view of d implementing the TinyGo drivers.Displayer
// interface, so packages like tinyfont can draw in the frame buffer.
//
// Pixels with a luma of at least 50% are On. Display() calls Show().
func (d *Dev) Displayer() drivers.Displayer {
	return tinyDisplay{d: d}
}

type tinyDisplay struct {
	d *Dev
}

func (t tinyDisplay) Size() (x, y int16) {
	r := t.d.Bounds()
	return int16(r.Dx()), int16(r.Dy())
}

func (t tinyDisplay) SetPixel(x, y int16, c color.RGBA) {
	t.d.SetPixel(int(x), int(y), image1bit.BitModel.Convert(c).(image1bit.Bit))
}

func (t tinyDisplay) Display() error {
	return t.d.Show()
}
