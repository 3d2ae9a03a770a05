// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// The SSD1306 and SH1106 are a family of OLED displays.
//
// https://hallard.me/adafruit-oled-display-driver-for-pi/
//
// https://learn.adafruit.com/ssd1306-oled-displays-with-raspberry-pi-and-beaglebone-black?view=all

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"

	"github.com/GermanBionicSystems/oled/ssd1306/image1bit"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

// ErrInvalidDimension is returned when the panel size cannot be driven.
var ErrInvalidDimension = errors.New("ssd1306: invalid dimension")

// ErrNotInitialized is returned by a Dev that was not created by NewI2C or
// whose initialization failed.
var ErrNotInitialized = errors.New("ssd1306: device not initialized")

// ErrUnsupported is returned for a feature the controller family lacks.
var ErrUnsupported = errors.New("ssd1306: not supported by the controller")

// State is the lifecycle state of a Dev.
type State uint8

// Possible states.
const (
	Uninitialized State = iota
	Initializing
	Active
	PoweredOff
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Active:
		return "Active"
	case PoweredOff:
		return "PoweredOff"
	default:
		return "Uninitialized"
	}
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:       128,
	H:       64,
	Variant: SH1106,
	Addr:    0x3c,
}

// Opts defines the options for the device.
type Opts struct {
	W int
	// H must be a multiple of 8.
	H int
	// Variant is the controller family. Defaults to SH1106.
	Variant Variant
	// The I2C address of the display. Defaults to 0x3C.
	Addr uint16
	// ExternalVCC must be set when the panel is powered externally instead
	// of through the controller charge pump.
	ExternalVCC bool
	// MaxTransfer is the largest I²C write accepted by the bus, control byte
	// included. When 0, the bus conn.Limits is used if implemented, otherwise
	// DefaultMaxTransfer.
	MaxTransfer int
	// Logger receives diagnostics, like a panel size missing from the
	// profile table. Defaults to log.Default().
	Logger *log.Logger
}

// Dev is an open handle to the display controller.
//
// It is not safe for concurrent use; the caller must serialize access.
type Dev struct {
	f       *framer
	profile Profile
	state   State
	// buffer is the full frame. Every Show() sends all of it.
	buffer   *image1bit.VerticalLSB
	rotated  bool
	scrolled bool
}

// NewI2C returns a Dev object that communicates over I²C to a SSD1306 or
// SH1106 display controller.
//
// The controller is initialized and its RAM cleared before returning.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := validate(opts); err != nil {
		return nil, err
	}
	v := opts.Variant
	if v == "" {
		v = DefaultOpts.Variant
	}
	if v != SSD1306 && v != SH1106 {
		return nil, fmt.Errorf("ssd1306: unsupported variant %q", v)
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultOpts.Addr
	}
	f, err := newFramer(b, addr, opts.MaxTransfer)
	if err != nil {
		return nil, err
	}
	p, ok := ResolveProfile(opts.W, opts.H, v, opts.ExternalVCC)
	if !ok {
		l := opts.Logger
		if l == nil {
			l = log.Default()
		}
		l.Printf("%v; using the default profile", &UnknownVariantError{W: opts.W, H: opts.H, Variant: v})
	}
	d := &Dev{
		f:       f,
		profile: p,
		buffer:  image1bit.NewVerticalLSB(image.Rect(0, 0, opts.W, opts.H)),
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// validate checks the rules shared by the SSD1306 and SH1106.
func validate(opts *Opts) error {
	if opts.W < 1 || opts.W > 128 {
		return fmt.Errorf("%w: width %d must be between 1 and 128", ErrInvalidDimension, opts.W)
	}
	if opts.H < 8 || opts.H > 64 || opts.H&7 != 0 {
		return fmt.Errorf("%w: height %d must be a multiple of 8 between 8 and 64", ErrInvalidDimension, opts.H)
	}
	return nil
}

func (d *Dev) init() error {
	d.state = Initializing
	if err := d.f.write(initSequence(&d.profile)); err != nil {
		d.state = Uninitialized
		return err
	}
	d.state = Active
	// The RAM content is random at power up.
	if err := d.Show(); err != nil {
		d.state = Uninitialized
		return err
	}
	return nil
}

func (d *Dev) String() string {
	if d.f == nil {
		return "ssd1306.Dev{}"
	}
	return fmt.Sprintf("%s.Dev{%s, %#x, %dx%d}", d.profile.Variant, d.f.bus, d.f.addr, d.profile.W, d.profile.H)
}

// Profile returns the configuration resolved for the panel.
func (d *Dev) Profile() Profile {
	return d.profile
}

// State returns the lifecycle state.
func (d *Dev) State() State {
	return d.state
}

// Buffer returns the frame buffer. Drawing code mutates it in place and
// calls Show() to push it to the panel.
//
// It is nil on a Dev not created by NewI2C.
func (d *Dev) Buffer() *image1bit.VerticalLSB {
	return d.buffer
}

// Fill sets every pixel of the frame buffer to c. It does not update the
// panel.
func (d *Dev) Fill(c image1bit.Bit) {
	if d.buffer != nil {
		d.buffer.Fill(c)
	}
}

// SetPixel sets one pixel of the frame buffer.
//
// Coordinates outside the panel are silently ignored, which lets drawing
// code clip at the edges.
func (d *Dev) SetPixel(x, y int, c image1bit.Bit) {
	if d.buffer != nil {
		d.buffer.SetBit(x, y, c)
	}
}

// Pixel returns one pixel of the frame buffer, Off outside the panel.
func (d *Dev) Pixel(x, y int) image1bit.Bit {
	if d.buffer == nil {
		return image1bit.Off
	}
	return d.buffer.BitAt(x, y)
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
//
// It is empty on a Dev not created by NewI2C.
func (d *Dev) Bounds() image.Rectangle {
	if d.buffer == nil {
		return image.Rectangle{}
	}
	return d.buffer.Rect
}

// Draw implements display.Drawer.
//
// It draws src in the frame buffer then sends the whole frame. It draws
// synchronously: once this function returns, the display is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.ready(); err != nil {
		return err
	}
	draw.Src.Draw(d.buffer, r, src, sp)
	return d.Show()
}

// Write replaces the frame buffer with pixels and sends it.
//
// The format is unusual as each byte represent 8 vertical pixels at a time.
// This function accepts the content of image1bit.VerticalLSB.Pix.
func (d *Dev) Write(pixels []byte) (int, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	if len(pixels) != len(d.buffer.Pix) {
		return 0, fmt.Errorf("ssd1306: invalid pixel stream length; expected %d bytes, got %d bytes", len(d.buffer.Pix), len(pixels))
	}
	copy(d.buffer.Pix, pixels)
	if err := d.Show(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Show sends the whole frame buffer to the panel.
//
// On a TransportError the panel keeps the pages that were sent before the
// failure.
//
// An active hardware scroll is stopped first, since the controller corrupts
// its RAM when written while scrolling.
func (d *Dev) Show() error {
	if err := d.ready(); err != nil {
		return err
	}
	s := updateSequence(&d.profile, d.buffer.Pix)
	if d.scrolled {
		s = append(stopScrollSequence(), s...)
	}
	if err := d.send(s); err != nil {
		return err
	}
	d.scrolled = false
	return nil
}

// PowerOff turns the panel off. The RAM content is retained.
func (d *Dev) PowerOff() error {
	if err := d.send(powerOffSequence()); err != nil {
		return err
	}
	d.state = PoweredOff
	return nil
}

// PowerOn turns the panel back on.
func (d *Dev) PowerOn() error {
	if err := d.send(powerOnSequence()); err != nil {
		return err
	}
	d.state = Active
	return nil
}

// Halt implements conn.Resource. It turns the panel off.
func (d *Dev) Halt() error {
	return d.PowerOff()
}

// SetContrast changes the screen contrast.
func (d *Dev) SetContrast(level byte) error {
	return d.send(contrastSequence(level))
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(blackOnWhite bool) error {
	return d.send(invertSequence(blackOnWhite))
}

// Rotate turns the display by 180° when rotated is true and back to the
// normal orientation otherwise.
func (d *Dev) Rotate(rotated bool) error {
	if err := d.send(rotateSequence(rotated)); err != nil {
		return err
	}
	d.rotated = rotated
	return nil
}

// Rotated reports whether the display is turned by 180°.
func (d *Dev) Rotated() bool {
	return d.rotated
}

// SetDisplayStartLine causes the display to start from startLine, effectively
// scrolling the screen to that position.
//
// startLine must be lower than the panel height.
func (d *Dev) SetDisplayStartLine(startLine byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	if int(startLine) >= d.profile.H {
		return fmt.Errorf("ssd1306: invalid startLine %d", startLine)
	}
	return d.send(startLineSequence(startLine))
}

// Scroll starts a continuous hardware scroll of the rows from startLine to
// endLine. endLine -1 means the bottom of the panel. Both must be multiples
// of 8.
//
// The scroll runs on the controller until StopScroll() or the next Show().
// Only the SSD1306 has scrolling; the SH1106 returns ErrUnsupported.
func (d *Dev) Scroll(o Orientation, rate FrameRate, startLine, endLine int) error {
	if err := d.ready(); err != nil {
		return err
	}
	if _, ok := d.profile.Mode.(HorizontalAutoIncrement); !ok {
		return fmt.Errorf("%w: %s has no hardware scrolling", ErrUnsupported, d.profile.Variant)
	}
	if endLine == -1 {
		endLine = d.profile.H
	}
	if startLine >= endLine {
		return fmt.Errorf("ssd1306: startLine (%d) must be lower than endLine (%d)", startLine, endLine)
	}
	if startLine&7 != 0 || startLine < 0 || startLine >= d.profile.H {
		return fmt.Errorf("ssd1306: invalid startLine %d", startLine)
	}
	if endLine&7 != 0 || endLine > d.profile.H {
		return fmt.Errorf("ssd1306: invalid endLine %d", endLine)
	}
	if err := validScroll(o, rate); err != nil {
		return err
	}
	if err := d.send(scrollSequence(o, rate, byte(startLine/8), byte(endLine/8))); err != nil {
		return err
	}
	d.scrolled = true
	return nil
}

// StopScroll stops any hardware scroll. The panel content is left where the
// scroll put it; call Show() to restore the frame buffer.
func (d *Dev) StopScroll() error {
	if err := d.send(stopScrollSequence()); err != nil {
		return err
	}
	d.scrolled = false
	return nil
}

// Scrolling reports whether a hardware scroll was started and not stopped
// since.
func (d *Dev) Scrolling() bool {
	return d.scrolled
}

// ready returns ErrNotInitialized unless d was successfully set up by NewI2C.
func (d *Dev) ready() error {
	if d.f == nil || d.buffer == nil || d.state == Uninitialized {
		return ErrNotInitialized
	}
	return nil
}

// send writes s. Commands are still sent while the panel is powered off;
// they take visible effect once powered on.
func (d *Dev) send(s Sequence) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.f.write(s)
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
