// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oledsim emulates a SSD1306 or SH1106 OLED panel behind an I²C bus
// and renders it to a terminal using ANSI color codes.
//
// Useful while you are waiting for your panel to come by mail, and as a bus
// double that checks what the driver actually lights up.
//
// The emulator decodes the I²C control bytes, the addressing commands and the
// commands changing what is visible: display on/off, invert, contrast, segment
// remap, COM scan direction, start line and display offset. Timing and power
// commands are accepted and ignored.
//
// The panel is assumed to be mounted so that the segment remap (0xA1) and the
// reversed COM scan (0xC8) give the upright image, as every driver init does.
package oledsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/GermanBionicSystems/oled/ssd1306/image1bit"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// ramRows is the number of COM lines of the controller RAM: 8 pages.
const ramRows = 64

// ErrNack is returned for a transaction to another address than the panel's.
var ErrNack = errors.New("oledsim: no device at address")

// ErrScrolling is returned for RAM data sent while a hardware scroll is
// active. A real controller may corrupt its RAM in that case.
var ErrScrolling = errors.New("oledsim: RAM written while scrolling")

// Opts represents the options available for the emulated panel.
type Opts struct {
	W int
	H int
	// Addr defaults to 0x3C.
	Addr uint16
	// RAMWidth is the number of columns of the controller RAM. Defaults to 128;
	// it is 132 for a SH1106.
	RAMWidth int
	// ColumnOffset is the first RAM column wired to the panel. It is 2 for a
	// 128 columns panel on a SH1106.
	ColumnOffset int
	// Out receives Render() output. Defaults to a colorable stdout.
	Out io.Writer
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// On is the color of a lit pixel at full contrast. Defaults to white.
	On color.NRGBA

	_ struct{}
}

// Dev is an OLED panel emulator. It implements i2c.Bus.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	on      color.NRGBA
	addr    uint16
	width   int
	height  int
	ramW    int
	offset  int
	speed   physic.Frequency

	ram []byte

	// Addressing state.
	horizontal bool
	page       int
	col        int
	colStart   int
	colEnd     int
	pageStart  int
	pageEnd    int

	// Pending multi-byte command, kept across transactions.
	pending []byte
	want    int

	// Visible state.
	displayOn  bool
	allOn      bool
	inverted   bool
	contrast   byte
	segRemap   bool
	comScanDec bool
	startLine  int
	dispOffset int

	// Last scroll setup, opcode included.
	scroll    []byte
	scrolling bool

	txCount  int
	rendered bool
	buf      bytes.Buffer
}

// New returns a Dev emulating a W×H panel.
func New(opts *Opts) (*Dev, error) {
	if opts.W < 1 || opts.H < 8 || opts.H > ramRows || opts.H&7 != 0 {
		return nil, fmt.Errorf("oledsim: invalid size %dx%d", opts.W, opts.H)
	}
	ramW := opts.RAMWidth
	if ramW == 0 {
		ramW = 128
	}
	if opts.ColumnOffset < 0 || opts.ColumnOffset+opts.W > ramW {
		return nil, fmt.Errorf("oledsim: %d columns at offset %d do not fit in a %d columns RAM", opts.W, opts.ColumnOffset, ramW)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	on := opts.On
	if on == (color.NRGBA{}) {
		on = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	addr := opts.Addr
	if addr == 0 {
		addr = 0x3c
	}
	d := &Dev{
		w:       w,
		palette: *p,
		on:      on,
		addr:    addr,
		width:   opts.W,
		height:  opts.H,
		ramW:    ramW,
		offset:  opts.ColumnOffset,
		ram:     make([]byte, ramRows/8*ramW),
	}
	d.reset()
	return d, nil
}

// reset sets the power on register values.
func (d *Dev) reset() {
	d.horizontal = false
	d.page, d.col = 0, 0
	d.colStart, d.colEnd = 0, d.ramW-1
	d.pageStart, d.pageEnd = 0, ramRows/8-1
	d.pending, d.want = nil, 0
	d.displayOn = false
	d.allOn = false
	d.inverted = false
	d.contrast = 0x7F
	d.segRemap = false
	d.comScanDec = false
	d.startLine = 0
	d.dispOffset = 0
	d.scroll, d.scrolling = nil, false
}

func (d *Dev) String() string {
	return fmt.Sprintf("oledsim{%#x, %dx%d}", d.addr, d.width, d.height)
}

// Tx implements i2c.Bus.
//
// Writes are decoded as a stream of control bytes each followed by either one
// byte (continuation bit set) or the rest of the transaction.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if addr != d.addr {
		return fmt.Errorf("%w %#x", ErrNack, addr)
	}
	if len(r) != 0 {
		return errors.New("oledsim: reads are not supported")
	}
	d.txCount++
	for len(w) != 0 {
		control := w[0]
		w = w[1:]
		if control&^0xC0 != 0 {
			return fmt.Errorf("oledsim: invalid control byte %#x", control)
		}
		isData := control&0x40 != 0
		payload := w
		if control&0x80 != 0 {
			if len(w) == 0 {
				return fmt.Errorf("oledsim: control byte %#x without payload", control)
			}
			payload = w[:1]
		}
		w = w[len(payload):]
		for _, b := range payload {
			if isData {
				if d.scrolling {
					return ErrScrolling
				}
				d.data(b)
			} else if err := d.command(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = f
	return nil
}

// Close implements i2c.BusCloser.
func (d *Dev) Close() error {
	return d.Halt()
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Transactions returns the number of accepted I²C transactions.
func (d *Dev) Transactions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txCount
}

// DisplayOn reports whether the panel was turned on.
func (d *Dev) DisplayOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.displayOn
}

// Contrast returns the last contrast set.
func (d *Dev) Contrast() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contrast
}

// Scrolling reports whether a hardware scroll is active.
func (d *Dev) Scrolling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrolling
}

// ScrollSetup returns the last scroll setup command with its operands, nil if
// none was received.
func (d *Dev) ScrollSetup() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.scroll...)
}

// argCount returns the number of parameter bytes following cmd.
func argCount(cmd byte) int {
	switch cmd {
	case 0x26, 0x27:
		return 6
	case 0x29, 0x2A:
		return 5
	case 0x21, 0x22, 0xA3:
		return 2
	case 0x20, 0x81, 0x8D, 0xA8, 0xAD, 0xD3, 0xD5, 0xD9, 0xDA, 0xDB:
		return 1
	default:
		return 0
	}
}

func (d *Dev) command(b byte) error {
	if d.want != 0 {
		d.pending = append(d.pending, b)
		if len(d.pending) == d.want+1 {
			d.apply(d.pending)
			d.pending, d.want = d.pending[:0], 0
		}
		return nil
	}
	if n := argCount(b); n != 0 {
		d.pending = append(d.pending[:0], b)
		d.want = n
		return nil
	}
	switch {
	case b <= 0x0F:
		d.col = d.col&0xF0 | int(b)
	case b <= 0x1F:
		d.col = d.col&0x0F | int(b&0x0F)<<4
	case b == 0x2E:
		d.scrolling = false
	case b == 0x2F:
		if d.scroll == nil {
			return errors.New("oledsim: scroll activated without setup")
		}
		d.scrolling = true
	case b >= 0x40 && b <= 0x7F:
		d.startLine = int(b & 0x3F)
	case b == 0xA0, b == 0xA1:
		d.segRemap = b == 0xA1
	case b == 0xA4, b == 0xA5:
		d.allOn = b == 0xA5
	case b == 0xA6, b == 0xA7:
		d.inverted = b == 0xA7
	case b == 0xAE, b == 0xAF:
		d.displayOn = b == 0xAF
	case b >= 0xB0 && b <= 0xB7:
		d.page = int(b & 7)
	case b == 0xC0, b == 0xC8:
		d.comScanDec = b == 0xC8
	default:
		return fmt.Errorf("oledsim: unknown command %#x", b)
	}
	return nil
}

func (d *Dev) apply(c []byte) {
	switch c[0] {
	case 0x20:
		d.horizontal = c[1]&3 == 0
	case 0x21:
		d.colStart, d.colEnd = int(c[1]), int(c[2])
		d.col = d.colStart
	case 0x22:
		d.pageStart, d.pageEnd = int(c[1]&7), int(c[2]&7)
		d.page = d.pageStart
	case 0x26, 0x27, 0x29, 0x2A:
		d.scroll = append(d.scroll[:0], c...)
	case 0x81:
		d.contrast = c[1]
	case 0xD3:
		d.dispOffset = int(c[1] & 0x3F)
	}
}

func (d *Dev) data(b byte) {
	if d.col < d.ramW {
		d.ram[d.page*d.ramW+d.col] = b
	}
	d.col++
	if !d.horizontal {
		return
	}
	if d.col > d.colEnd {
		d.col = d.colStart
		d.page++
		if d.page > d.pageEnd {
			d.page = d.pageStart
		}
	}
}

// Pixel returns whether the pixel at (x, y) of the panel is lit.
func (d *Dev) Pixel(x, y int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pixel(x, y)
}

func (d *Dev) pixel(x, y int) bool {
	if !d.displayOn {
		return false
	}
	if d.allOn {
		return true
	}
	if !d.segRemap {
		x = d.width - 1 - x
	}
	if !d.comScanDec {
		y = d.height - 1 - y
	}
	row := (y + d.startLine + d.dispOffset) % ramRows
	col := d.offset + x
	lit := d.ram[row/8*d.ramW+col]&(1<<uint(row&7)) != 0
	return lit != d.inverted
}

// Image returns what the panel shows.
func (d *Dev) Image() *image1bit.VerticalLSB {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, d.width, d.height))
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			if d.pixel(x, y) {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return img
}

// RAM returns a copy of the controller RAM, one byte per column and page.
func (d *Dev) RAM() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.ram...)
}

// Render writes the panel to the output, one ANSI block per pixel.
//
// Each call after the first moves the cursor back up so the panel is redrawn
// in place.
func (d *Dev) Render() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Lit pixels dim with the contrast but stay visible at 0.
	level := func(v uint8) uint8 {
		return uint8((uint(v) * (64 + uint(d.contrast)*3/4)) / 255)
	}
	on := color.NRGBA{R: level(d.on.R), G: level(d.on.G), B: level(d.on.B), A: 255}
	off := color.NRGBA{A: 255}
	onBlock, offBlock := d.palette.Block(on), d.palette.Block(off)
	d.buf.Reset()
	if d.rendered {
		_, _ = fmt.Fprintf(&d.buf, "\033[%dA", d.height)
	}
	d.rendered = true
	_, _ = d.buf.WriteString("\033[0m")
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			if d.pixel(x, y) {
				_, _ = d.buf.WriteString(onBlock)
			} else {
				_, _ = d.buf.WriteString(offBlock)
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ i2c.BusCloser = &Dev{}
var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
