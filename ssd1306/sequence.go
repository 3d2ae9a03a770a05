// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"
	"strings"
)

const (
	_ACTIVATE_SCROLL     = 0x2F
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_COMSCANINC          = 0xC0
	_DEACTIVATE_SCROLL   = 0x2E
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_PAGESTARTADDRESS    = 0xB0
	_SEGREMAP            = 0xA0
	_SETCOMPINS          = 0xDA
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETHIGHCOLUMN       = 0x10
	_SETLOWCOLUMN        = 0x00
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSEGMENTREMAP     = 0xA1
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

const (
	clockDivideRatio   = 0x80
	horizontalAddrMode = 0x00
)

// FrameRate determines scrolling speed.
type FrameRate byte

// Possible frame rates. The value represents the number of refresh cycles
// between each scrolling step.
const (
	FrameRate2   FrameRate = 7
	FrameRate3   FrameRate = 4
	FrameRate4   FrameRate = 5
	FrameRate5   FrameRate = 0
	FrameRate25  FrameRate = 6
	FrameRate64  FrameRate = 1
	FrameRate128 FrameRate = 2
	FrameRate256 FrameRate = 3
)

// Orientation is used for scrolling.
type Orientation byte

// Possible orientations for scrolling.
const (
	Left    Orientation = 0x27
	Right   Orientation = 0x26
	UpRight Orientation = 0x29
	UpLeft  Orientation = 0x2A
)

func (o Orientation) String() string {
	switch o {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case UpRight:
		return "UpRight"
	case UpLeft:
		return "UpLeft"
	default:
		return fmt.Sprintf("Orientation(%#x)", byte(o))
	}
}

// Kind tags an Element of a Sequence.
type Kind uint8

// Element kinds.
const (
	// Command is a single command or operand byte.
	Command Kind = iota
	// DataRun is a run of GDDRAM bytes.
	DataRun
)

func (k Kind) String() string {
	if k == DataRun {
		return "DataRun"
	}
	return "Command"
}

// Element is one step of a Sequence.
type Element struct {
	Kind Kind
	// Cmd is valid for Command.
	Cmd byte
	// Data is valid for DataRun. It may alias the frame buffer.
	Data []byte
}

// Sequence is an ordered list of commands and data runs, as sent to the
// controller.
type Sequence []Element

// cmd appends each byte as its own Command element. Multi bytes commands are
// written as the opcode followed by its operands.
func (s *Sequence) cmd(c ...byte) {
	for _, b := range c {
		*s = append(*s, Element{Kind: Command, Cmd: b})
	}
}

func (s *Sequence) data(d []byte) {
	*s = append(*s, Element{Kind: DataRun, Data: d})
}

// Commands returns the command bytes of the sequence in order, skipping the
// data runs.
func (s Sequence) Commands() []byte {
	var out []byte
	for _, e := range s {
		if e.Kind == Command {
			out = append(out, e.Cmd)
		}
	}
	return out
}

func (s Sequence) String() string {
	var b strings.Builder
	for i, e := range s {
		if i != 0 {
			b.WriteByte(' ')
		}
		if e.Kind == Command {
			fmt.Fprintf(&b, "%02X", e.Cmd)
		} else {
			fmt.Fprintf(&b, "[%d]", len(e.Data))
		}
	}
	return b.String()
}

// initSequence returns the commands that fully reset the controller
// configuration.
//
// Page 64 of the SSD1306 datasheet has the full recommended flow.
func initSequence(p *Profile) Sequence {
	_, horizontal := p.Mode.(HorizontalAutoIncrement)
	var s Sequence
	s.cmd(_DISPLAYOFF)
	s.cmd(_SETDISPLAYCLOCKDIV, clockDivideRatio)
	s.cmd(_SETMULTIPLEX, p.MuxRatio)
	s.cmd(_SETDISPLAYOFFSET, 0x00)
	s.cmd(_SETSTARTLINE | 0x00)
	s.cmd(_CHARGEPUMP, p.ChargePump)
	if horizontal {
		s.cmd(_MEMORYMODE, horizontalAddrMode)
	}
	// Column 127 is mapped to SEG0 and COM scans from COM[N-1] to COM0; this
	// is how the common modules are wired.
	s.cmd(_SETSEGMENTREMAP)
	s.cmd(_COMSCANDEC)
	s.cmd(_SETCOMPINS, p.COMPins)
	s.cmd(_SETCONTRAST, p.Contrast)
	s.cmd(_SETPRECHARGE, p.Precharge)
	s.cmd(_SETVCOMDETECT, p.VCOMHDeselect)
	s.cmd(_DISPLAYALLON_RESUME)
	s.cmd(_NORMALDISPLAY)
	if horizontal {
		s.cmd(_DEACTIVATE_SCROLL)
	}
	s.cmd(_DISPLAYON)
	return s
}

// updateSequence returns the commands and data pushing the whole frame pix.
func updateSequence(p *Profile, pix []byte) Sequence {
	return p.Mode.update(p, pix)
}

func (m PagedWithColumnOffset) update(p *Profile, pix []byte) Sequence {
	s := make(Sequence, 0, 4*p.Pages)
	for page := 0; page < p.Pages; page++ {
		// The column must be set after the page and before its data.
		s.cmd(
			_PAGESTARTADDRESS|byte(page),
			_SETLOWCOLUMN|(m.ColumnOffset&0x0F),
			_SETHIGHCOLUMN|(m.ColumnOffset>>4),
		)
		s.data(pix[page*p.W : (page+1)*p.W])
	}
	return s
}

func (HorizontalAutoIncrement) update(p *Profile, pix []byte) Sequence {
	var s Sequence
	s.cmd(_COLUMNADDR, 0, byte(p.W-1))
	s.cmd(_PAGEADDR, 0, byte(p.Pages-1))
	s.data(pix[:p.Pages*p.W])
	return s
}

func powerOffSequence() Sequence {
	return Sequence{{Kind: Command, Cmd: _DISPLAYOFF}}
}

func powerOnSequence() Sequence {
	return Sequence{{Kind: Command, Cmd: _DISPLAYON}}
}

func contrastSequence(level byte) Sequence {
	var s Sequence
	s.cmd(_SETCONTRAST, level)
	return s
}

func invertSequence(blackOnWhite bool) Sequence {
	c := byte(_NORMALDISPLAY)
	if blackOnWhite {
		c |= 0x01
	}
	return Sequence{{Kind: Command, Cmd: c}}
}

// rotateSequence flips both axis. The COM scan direction and the segment
// remap must always change together, otherwise the image is mirrored on a
// single axis.
func rotateSequence(rotated bool) Sequence {
	var s Sequence
	if rotated {
		s.cmd(_COMSCANINC, _SEGREMAP)
	} else {
		s.cmd(_COMSCANDEC, _SETSEGMENTREMAP)
	}
	return s
}

func startLineSequence(line byte) Sequence {
	return Sequence{{Kind: Command, Cmd: _SETSTARTLINE | line}}
}

func validScroll(o Orientation, rate FrameRate) error {
	switch o {
	case Left, Right, UpRight, UpLeft:
	default:
		return fmt.Errorf("ssd1306: invalid scroll orientation %s", o)
	}
	if rate > FrameRate2 {
		return fmt.Errorf("ssd1306: invalid scroll frame rate %d", rate)
	}
	return nil
}

// scrollSequence sets up and activates a scroll of pages [startPage,
// endPage). The running scroll is deactivated first, the controller ignores
// new parameters otherwise.
func scrollSequence(o Orientation, rate FrameRate, startPage, endPage byte) Sequence {
	var s Sequence
	s.cmd(_DEACTIVATE_SCROLL)
	if o == Left || o == Right {
		s.cmd(byte(o), 0x00, startPage, byte(rate), endPage-1, 0x00, 0xFF)
	} else {
		// The last operand is the vertical offset in rows per step.
		s.cmd(byte(o), 0x00, startPage, byte(rate), endPage-1, 0x01)
	}
	s.cmd(_ACTIVATE_SCROLL)
	return s
}

func stopScrollSequence() Sequence {
	return Sequence{{Kind: Command, Cmd: _DEACTIVATE_SCROLL}}
}
