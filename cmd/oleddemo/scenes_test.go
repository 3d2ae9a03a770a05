// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"image"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/oled/oledsim"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/GermanBionicSystems/oled/ssd1306/image1bit"
	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

func testRunner(t *testing.T, variant ssd1306.Variant, w, h int) (*runner, clockwork.FakeClock, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	c := &config{sim: true, opts: ssd1306.Opts{W: w, H: h, Variant: variant}}
	b, sim, err := openBus(c, out)
	assert.NilError(t, err)
	dev, err := ssd1306.NewI2C(b, &c.opts)
	assert.NilError(t, err)
	clock := clockwork.NewFakeClock()
	r := &runner{
		dev:    dev,
		sim:    sim,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(1)),
		stop:   make(chan struct{}),
		period: 100 * time.Millisecond,
	}
	return r, clock, out
}

// drive advances the clock once per frame until run returns.
func drive(t *testing.T, clock clockwork.FakeClock, frames int, p time.Duration, done <-chan error) error {
	t.Helper()
	for i := 0; i < frames; i++ {
		clock.BlockUntil(1)
		clock.Advance(p)
	}
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not finish")
	}
	return nil
}

func lit(img *image1bit.VerticalLSB) int {
	n := 0
	for _, b := range img.Pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestSelectScenes(t *testing.T) {
	all, err := selectScenes(nil)
	assert.NilError(t, err)
	assert.Equal(t, len(all), len(sceneFactories))

	some, err := selectScenes([]string{"vector", "ball"})
	assert.NilError(t, err)
	assert.Equal(t, len(some), 2)
	// Play order is kept.
	assert.Equal(t, some[0].name, "ball")
	assert.Equal(t, some[1].name, "vector")

	_, err = selectScenes([]string{"ball", "nope"})
	assert.ErrorContains(t, err, `unknown scene "nope"`)
}

func TestScenes_Draw(t *testing.T) {
	for _, size := range []image.Point{{X: 128, Y: 64}, {X: 128, Y: 32}, {X: 96, Y: 16}} {
		r, _, _ := testRunner(t, ssd1306.SH1106, size.X, size.Y)
		scenes, err := selectScenes(nil)
		assert.NilError(t, err)
		for _, s := range scenes {
			for i := 0; i < 3; i++ {
				r.dev.Fill(image1bit.Off)
				s.draw(r, i)
				assert.Assert(t, lit(r.buf()) > 0, "%s %v frame %d is blank", s.name, size, i)
				assert.NilError(t, r.show())
				assert.DeepEqual(t, r.sim.Image().Pix, r.buf().Pix)
			}
		}
	}
}

func TestClockScene(t *testing.T) {
	r, clock, _ := testRunner(t, ssd1306.SSD1306, 128, 64)
	s, err := clockScene()
	assert.NilError(t, err)
	s.draw(r, 0)
	before := append([]byte(nil), r.buf().Pix...)

	r.dev.Fill(image1bit.Off)
	s.draw(r, 1)
	assert.DeepEqual(t, r.buf().Pix, before)

	clock.Advance(time.Second)
	r.dev.Fill(image1bit.Off)
	s.draw(r, 2)
	assert.Assert(t, !bytes.Equal(r.buf().Pix, before), "the clock did not tick")
}

func TestBallScene_StaysInside(t *testing.T) {
	r, _, _ := testRunner(t, ssd1306.SH1106, 128, 64)
	s, err := ballScene()
	assert.NilError(t, err)
	for i := 0; i < 300; i++ {
		r.dev.Fill(image1bit.Off)
		s.draw(r, i)
		// Border, title and a 3x3 ball inside the border.
		inside := 0
		for y := 13; y < 63; y++ {
			for x := 1; x < 127; x++ {
				if r.dev.Pixel(x, y) {
					inside++
				}
			}
		}
		assert.Equal(t, inside, 9, "frame %d", i)
	}
}

func TestRunner_Paces(t *testing.T) {
	r, clock, out := testRunner(t, ssd1306.SH1106, 128, 32)
	r.frames = 4
	scenes, err := selectScenes([]string{"bars", "menu"})
	assert.NilError(t, err)
	done := make(chan error, 1)
	go func() {
		done <- r.run(scenes)
	}()
	assert.NilError(t, drive(t, clock, 8, r.period, done))
	assert.Equal(t, r.shown, 8)
	assert.Equal(t, strings.Count(out.String(), "\033[32A"), 7)
}

func TestRunner_Stop(t *testing.T) {
	r, clock, _ := testRunner(t, ssd1306.SH1106, 128, 64)
	stop := make(chan struct{})
	r.stop = stop
	scenes, err := selectScenes([]string{"ball"})
	assert.NilError(t, err)
	done := make(chan error, 1)
	go func() {
		done <- r.run(scenes)
	}()
	clock.BlockUntil(1)
	close(stop)
	select {
	case err := <-done:
		assert.Equal(t, err, errStopped)
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, r.shown, 1)
}

// flakyBus fails every write once broken.
type flakyBus struct {
	*oledsim.Dev
	broken bool
}

func (f *flakyBus) Tx(addr uint16, w, r []byte) error {
	if f.broken {
		return errors.New("bus: arbitration lost")
	}
	return f.Dev.Tx(addr, w, r)
}

func TestRunner_ShowFailure(t *testing.T) {
	r, _, _ := testRunner(t, ssd1306.SH1106, 128, 64)
	bus := &flakyBus{Dev: r.sim}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: 128, H: 64})
	assert.NilError(t, err)
	r.dev = dev
	bus.broken = true
	scenes, err := selectScenes([]string{"graph", "ball"})
	assert.NilError(t, err)
	err = r.run(scenes)
	var te *ssd1306.TransportError
	assert.Assert(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, r.shown, 0)
}

func TestDrawHelpers(t *testing.T) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 16, 16))
	line(img, 0, 0, 15, 15, image1bit.On)
	assert.Equal(t, lit(img), 16)
	assert.Equal(t, img.BitAt(7, 7), image1bit.On)

	img.Fill(image1bit.Off)
	line(img, 15, 3, 0, 3, image1bit.On)
	assert.Equal(t, lit(img), 16)

	img.Fill(image1bit.Off)
	line(img, 2, 0, 5, 10, image1bit.On)
	assert.Equal(t, img.BitAt(2, 0), image1bit.On)
	assert.Equal(t, img.BitAt(5, 10), image1bit.On)
	assert.Equal(t, lit(img), 11)

	img.Fill(image1bit.Off)
	rect(img, image.Rect(2, 2, 6, 6), image1bit.On)
	assert.Equal(t, lit(img), 12)
	fillRect(img, image.Rect(-4, -4, 3, 3), image1bit.On)
	assert.Equal(t, img.BitAt(0, 0), image1bit.On)

	img.Fill(image1bit.Off)
	text(img, "A", 0, 0, image1bit.On)
	assert.Assert(t, lit(img) > 0)
	assert.Equal(t, textWidth("abc"), 21)
	assert.Equal(t, clamp(-3, 0, 5), 0)
	assert.Equal(t, clamp(9, 0, 5), 5)
}
