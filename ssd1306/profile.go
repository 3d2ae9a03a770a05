// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"
	"strings"
)

// Variant is the controller family driving the panel.
type Variant string

// Supported controller families.
const (
	// SSD1306 supports horizontal addressing mode: the column and page ranges
	// are set once and the whole frame is streamed in one data run.
	SSD1306 Variant = "SSD1306"
	// SH1106 only supports page addressing. Its RAM is 132 columns wide, so a
	// 128 columns panel is wired with a column offset of 2.
	SH1106 Variant = "SH1106"
)

// ParseVariant returns the Variant named by s, case insensitive.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(s) {
	case string(SSD1306):
		return SSD1306, nil
	case string(SH1106):
		return SH1106, nil
	}
	return "", fmt.Errorf("ssd1306: unknown variant %q", s)
}

// AddressingMode describes how a frame update addresses the controller RAM.
//
// It is either PagedWithColumnOffset or HorizontalAutoIncrement.
type AddressingMode interface {
	fmt.Stringer
	// update returns the command sequence that pushes pix to the controller.
	update(p *Profile, pix []byte) Sequence
}

// PagedWithColumnOffset selects page and column before each page of data.
type PagedWithColumnOffset struct {
	// ColumnOffset is added to the column address because the visible columns
	// do not start at RAM column 0.
	ColumnOffset byte
}

func (m PagedWithColumnOffset) String() string {
	return fmt.Sprintf("PagedWithColumnOffset{%d}", m.ColumnOffset)
}

// HorizontalAutoIncrement sets the column and page ranges once; the
// controller advances the address after each data byte.
type HorizontalAutoIncrement struct{}

func (HorizontalAutoIncrement) String() string {
	return "HorizontalAutoIncrement"
}

// Profile is the electrical and addressing configuration of one panel.
//
// It is resolved once at construction and never modified afterward.
type Profile struct {
	Variant     Variant
	W, H        int
	Pages       int
	Mode        AddressingMode
	ExternalVCC bool

	COMPins       byte
	Contrast      byte
	ChargePump    byte
	Precharge     byte
	MuxRatio      byte
	VCOMHDeselect byte
}

func (p Profile) String() string {
	return fmt.Sprintf("%s %dx%d %s", p.Variant, p.W, p.H, p.Mode)
}

// UnknownVariantError reports a panel size missing from the profile table.
//
// It is not fatal: the default row of the table is used instead.
type UnknownVariantError struct {
	W, H    int
	Variant Variant
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("ssd1306: no %s profile for %dx%d", e.Variant, e.W, e.H)
}

// panelRow is one line of the per size tables.
type panelRow struct {
	variant Variant
	// w == 0 matches any size.
	w, h        int
	comPins     byte
	contrast    byte
	contrastExt byte
}

// panelTable lists the known panel geometries.
//
// The SSD1306 rows come from the Adafruit driver and were never validated
// on real hardware by this package; treat them as a starting point.
var panelTable = []panelRow{
	{variant: SSD1306, w: 128, h: 64, comPins: 0x12, contrast: 0xCF, contrastExt: 0x9F},
	{variant: SSD1306, w: 128, h: 32, comPins: 0x02, contrast: 0x8F, contrastExt: 0x8F},
	{variant: SSD1306, w: 96, h: 16, comPins: 0x02, contrast: 0xAF, contrastExt: 0x10},
	{variant: SSD1306, w: 64, h: 32, comPins: 0x12, contrast: 0xCF, contrastExt: 0x10},
	// The SH1106 uses the same settings for every size.
	{variant: SH1106, comPins: 0x12, contrast: 0x80, contrastExt: 0x80},
}

// defaultRow is used for SSD1306 panels missing from panelTable.
var defaultRow = panelRow{variant: SSD1306, comPins: 0x02, contrast: 0x8F, contrastExt: 0x8F}

const (
	chargePumpInternal = 0x14
	chargePumpExternal = 0x10
	prechargeInternal  = 0xF1
	prechargeExternal  = 0x22
	vcomhDeselect      = 0x40
)

// ResolveProfile returns the configuration for a w×h panel driven by a v
// controller.
//
// It never fails: ok is false when the size is not in the table, in which
// case the default profile is returned. It is the caller's job to report it.
func ResolveProfile(w, h int, v Variant, externalVCC bool) (p Profile, ok bool) {
	row, ok := lookup(w, h, v)
	p = Profile{
		Variant:       v,
		W:             w,
		H:             h,
		Pages:         h / 8,
		ExternalVCC:   externalVCC,
		COMPins:       row.comPins,
		Contrast:      row.contrast,
		ChargePump:    chargePumpInternal,
		Precharge:     prechargeInternal,
		MuxRatio:      byte(h - 1),
		VCOMHDeselect: vcomhDeselect,
	}
	if externalVCC {
		p.Contrast = row.contrastExt
		p.ChargePump = chargePumpExternal
		p.Precharge = prechargeExternal
	}
	if v == SH1106 {
		var offset byte
		if w == 128 {
			offset = 2
		}
		p.Mode = PagedWithColumnOffset{ColumnOffset: offset}
	} else {
		p.Mode = HorizontalAutoIncrement{}
	}
	return p, ok
}

func lookup(w, h int, v Variant) (panelRow, bool) {
	for _, r := range panelTable {
		if r.variant != v {
			continue
		}
		if r.w == 0 || (r.w == w && r.h == h) {
			return r, true
		}
	}
	return defaultRow, false
}
