// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display via a SSD1306 or SH1106
// controller over I²C.
//
// The driver keeps the whole frame in an image1bit.VerticalLSB and every
// Show() sends all of it; there are no differential updates. The two
// controller families differ in how the frame reaches the RAM:
//
// The SSD1306 supports horizontal addressing: the column and page windows
// are set once and the frame is streamed as one run of data.
//
// The SH1106 only supports page addressing: each page is selected, then the
// column, then the page data is sent. Its RAM is 132 columns wide and 128
// columns panels are wired starting at column 2, so the column address is
// offset by 2 for these.
//
// Init parameters (COM pins, contrast, precharge, charge pump) depend on the
// panel size and on whether VCC is supplied externally; they are resolved
// from a static table by ResolveProfile.
//
// # Bus framing
//
// Each command byte is sent in its own I²C write prefixed with the 0x80
// control byte. Data is split in writes of at most Opts.MaxTransfer bytes,
// each prefixed with the 0x40 control byte. A failed write aborts the
// operation and is returned as a *TransportError; nothing is retried.
//
// # Datasheets
//
// SSD1306
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// SH1106
//
// https://cdn.velleman.eu/downloads/29/infosheets/sh1106_datasheet.pdf
package ssd1306
