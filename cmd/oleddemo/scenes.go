// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/GermanBionicSystems/oled/oledsim"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/GermanBionicSystems/oled/ssd1306/image1bit"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/jonboulle/clockwork"
	"golang.org/x/image/font/gofont/goregular"
)

var errStopped = errors.New("stopped")

// scene is an animation. draw renders frame i in the cleared frame buffer.
type scene struct {
	name   string
	frames int
	period time.Duration
	draw   func(r *runner, i int)
}

// sceneFactories lists the scenes in play order.
var sceneFactories = []struct {
	name string
	new  func() (scene, error)
}{
	{"clock", clockScene},
	{"dashboard", dashboardScene},
	{"ball", ballScene},
	{"scroll", scrollScene},
	{"bars", barsScene},
	{"menu", menuScene},
	{"graph", graphScene},
	{"vector", vectorScene},
}

func sceneNames() []string {
	out := make([]string, 0, len(sceneFactories))
	for _, f := range sceneFactories {
		out = append(out, f.name)
	}
	return out
}

// selectScenes returns the named scenes, or all of them when names is empty.
func selectScenes(names []string) ([]scene, error) {
	var out []scene
	for _, f := range sceneFactories {
		if len(names) != 0 && !contains(names, f.name) {
			continue
		}
		s, err := f.new()
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", f.name, err)
		}
		out = append(out, s)
	}
	for _, n := range names {
		if !contains(sceneNames(), n) {
			return nil, fmt.Errorf("unknown scene %q", n)
		}
	}
	return out, nil
}

func contains(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// runner plays scenes on a panel, one Show() per frame.
type runner struct {
	dev *ssd1306.Dev
	// sim is rendered after each frame when set.
	sim    *oledsim.Dev
	clock  clockwork.Clock
	rnd    *rand.Rand
	stop   <-chan struct{}
	frames int
	period time.Duration

	shown int
}

func (r *runner) run(scenes []scene) error {
	for _, s := range scenes {
		log.Printf("playing %s", s.name)
		if err := r.play(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) play(s scene) error {
	n, p := s.frames, s.period
	if r.frames != 0 {
		n = r.frames
	}
	if r.period != 0 {
		p = r.period
	}
	for i := 0; i < n; i++ {
		r.dev.Fill(image1bit.Off)
		s.draw(r, i)
		if err := r.show(); err != nil {
			return err
		}
		select {
		case <-r.stop:
			return errStopped
		case <-r.clock.After(p):
		}
	}
	return nil
}

func (r *runner) show() error {
	if err := r.dev.Show(); err != nil {
		return err
	}
	r.shown++
	if r.sim != nil {
		return r.sim.Render()
	}
	return nil
}

func (r *runner) buf() *image1bit.VerticalLSB {
	return r.dev.Buffer()
}

func (r *runner) size() (int, int) {
	b := r.dev.Bounds()
	return b.Dx(), b.Dy()
}

func clockScene() (scene, error) {
	return scene{
		name:   "clock",
		frames: 30,
		period: time.Second,
		draw: func(r *runner, i int) {
			w, h := r.size()
			now := r.clock.Now()
			centered(r.buf(), "Digital Clock", 0)
			s := now.Format("15:04:05")
			x := (w - 6*len(s)) / 2
			smallText(r.dev, s, x, h/2+4)
			if h >= 48 {
				centered(r.buf(), now.Format("Jan 2"), h-lineHeight-3)
			}
		},
	}, nil
}

func dashboardScene() (scene, error) {
	return scene{
		name:   "dashboard",
		frames: 20,
		period: 2 * time.Second,
		draw: func(r *runner, i int) {
			temp := 20 + r.rnd.Intn(21) - 5
			humidity := 45 + r.rnd.Intn(31) - 10
			pressure := 1013 + r.rnd.Intn(41) - 20
			img := r.buf()
			centered(img, "Sensor Data", 0)
			text(img, fmt.Sprintf("Temp: %dC", temp), 0, 13, image1bit.On)
			text(img, fmt.Sprintf("Hum: %d%%", humidity), 0, 23, image1bit.On)
			text(img, fmt.Sprintf("%dhPa", pressure), 0, 33, image1bit.On)
			text(img, fmt.Sprintf("Reading #%d", i+1), 0, 48, image1bit.On)
		},
	}, nil
}

func ballScene() (scene, error) {
	x, y, dx, dy := -1, -1, 2, 1
	return scene{
		name:   "ball",
		frames: 100,
		period: 50 * time.Millisecond,
		draw: func(r *runner, i int) {
			w, h := r.size()
			if x < 0 {
				x, y = w/2, h/2
			}
			img := r.buf()
			top := 0
			if h > 32 {
				centered(img, "Bouncing Ball", 0)
				top = lineHeight + 2
			}
			rect(img, image.Rect(0, top, w, h), image1bit.On)
			x += dx
			y += dy
			if x <= 2 || x >= w-3 {
				dx = -dx
			}
			if y <= top+2 || y >= h-3 {
				dy = -dy
			}
			x, y = clamp(x, 1, w-4), clamp(y, top+1, h-4)
			fillRect(img, image.Rect(x, y, x+3, y+3), image1bit.On)
		},
	}, nil
}

const banner = "   Hello World! Your OLED display is working perfectly with periph!   "

func scrollScene() (scene, error) {
	return scene{
		name:   "scroll",
		frames: textWidth(banner),
		period: 20 * time.Millisecond,
		draw: func(r *runner, i int) {
			w, h := r.size()
			img := r.buf()
			text(img, "Scrolling Text:", 0, 0, image1bit.On)
			mid := h / 2
			img.DrawHLine(0, w, mid-8, image1bit.On)
			img.DrawHLine(0, w, mid+8, image1bit.On)
			text(img, banner, w-i%textWidth(banner), mid-6, image1bit.On)
		},
	}, nil
}

func barsScene() (scene, error) {
	return scene{
		name:   "bars",
		frames: 50,
		period: 500 * time.Millisecond,
		draw: func(r *runner, i int) {
			w, h := r.size()
			img := r.buf()
			centered(img, "Bar Graph", 0)
			const bars = 4
			spacing := w / bars
			base := h - lineHeight
			highest := base - lineHeight - 2
			if highest < 1 {
				highest = 1
			}
			for j := 0; j < bars; j++ {
				v := 1 + r.rnd.Intn(highest)
				x := spacing/4 + j*spacing
				fillRect(img, image.Rect(x, base-v, x+spacing*2/3, base), image1bit.On)
				smallText(r.dev, strconv.Itoa(v), x, h-1)
			}
		},
	}, nil
}

var menuItems = []string{"Clock", "Sensors", "Animation", "Graph", "Exit"}

func menuScene() (scene, error) {
	return scene{
		name:   "menu",
		frames: 2 * len(menuItems),
		period: time.Second,
		draw: func(r *runner, i int) {
			w, h := r.size()
			img := r.buf()
			centered(img, "Main Menu", 0)
			img.DrawHLine(0, w, 12, image1bit.On)
			selected := i % len(menuItems)
			// Scroll so the selection is visible.
			visible := (h - 14) / lineHeight
			if visible < 1 {
				visible = 1
			}
			first := 0
			if selected >= visible {
				first = selected - visible + 1
			}
			for j := first; j < len(menuItems); j++ {
				y := 14 + (j-first)*lineHeight
				if j == selected {
					fillRect(img, image.Rect(0, y, w, y+lineHeight), image1bit.On)
					text(img, "> "+menuItems[j], 5, y-1, image1bit.Off)
				} else {
					text(img, "  "+menuItems[j], 5, y-1, image1bit.On)
				}
			}
		},
	}, nil
}

func graphScene() (scene, error) {
	var history []float64
	return scene{
		name:   "graph",
		frames: 64,
		period: 500 * time.Millisecond,
		draw: func(r *runner, i int) {
			w, h := r.size()
			temp := 22 + 5*(0.5-r.rnd.Float64()) + 2*float64(i%10-5)/5
			history = append(history, temp)
			if len(history) > w {
				history = history[1:]
			}
			img := r.buf()
			centered(img, "Temperature", 0)
			top, bottom := 15, h-14
			if bottom <= top {
				top, bottom = 0, h-1
			}
			// 15°C to 30°C over the plot height.
			scale := func(t float64) int {
				return clamp(bottom-int((t-15)*float64(bottom-top)/15), top, bottom)
			}
			for j := 1; j < len(history); j++ {
				line(img, j-1, scale(history[j-1]), j, scale(history[j]), image1bit.On)
			}
			line(img, 0, bottom, w-1, bottom, image1bit.On)
			line(img, 0, top, 0, bottom, image1bit.On)
			text(img, fmt.Sprintf("Now: %.1fC", temp), 0, h-12, image1bit.On)
		},
	}, nil
}

func vectorScene() (scene, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return scene{}, err
	}
	return scene{
		name:   "vector",
		frames: 90,
		period: 50 * time.Millisecond,
		draw: func(r *runner, i int) {
			w, h := r.size()
			dc := gg.NewContext(w, h)
			dc.SetRGB(0, 0, 0)
			dc.Clear()
			dc.SetRGB(1, 1, 1)
			size := math.Max(8, float64(h)/5)
			dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
			dc.DrawStringAnchored("periph", float64(w)/2, size/2, 0.5, 0.5)
			cy := (float64(h) + size) / 2
			radius := (float64(h) - size) / 2.5
			angle := gg.Radians(float64(4 * i))
			dc.DrawRegularPolygon(5, float64(w)/4, cy, radius, angle)
			dc.Stroke()
			dc.DrawCircle(float64(w)*3/4, cy, radius*(0.5+0.5*math.Abs(math.Sin(angle))))
			dc.Fill()
			img := r.buf()
			draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
		},
	}, nil
}
