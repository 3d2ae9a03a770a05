// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	i2cCmd  = 0x80 // I²C transaction has a single command byte
	i2cData = 0x40 // I²C transaction has stream of data bytes
)

// DefaultMaxTransfer is the largest I²C write used when neither Opts nor the
// bus specify one: 32 bytes of data plus the control byte.
const DefaultMaxTransfer = 33

// TransportError is returned when a bus transaction fails.
//
// The panel may be left partially updated; the frame buffer still holds the
// full frame and the next Show() sends it again.
type TransportError struct {
	Addr uint16
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ssd1306: write to %#x failed: %v", e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// framer frames a Sequence into I²C transactions.
//
// Each command byte is its own transaction prefixed with i2cCmd. Data runs
// are split so that every transaction, control byte included, fits in maxTx
// bytes; each chunk gets its own i2cData prefix.
type framer struct {
	bus   i2c.Bus
	addr  uint16
	maxTx int
	// buf is reused across writes to stage [control, payload...].
	buf []byte
}

func newFramer(b i2c.Bus, addr uint16, maxTx int) (*framer, error) {
	if maxTx == 0 {
		maxTx = DefaultMaxTransfer
		if l, ok := b.(conn.Limits); ok && l.MaxTxSize() > 0 {
			maxTx = l.MaxTxSize()
		}
	}
	if maxTx < 2 {
		return nil, fmt.Errorf("ssd1306: max transfer size must be at least 2, got %d", maxTx)
	}
	return &framer{bus: b, addr: addr, maxTx: maxTx, buf: make([]byte, maxTx)}, nil
}

// chunkSize returns the largest data payload of one transaction.
func (f *framer) chunkSize() int {
	return f.maxTx - 1
}

// write sends s in order. It stops at the first failed transaction.
func (f *framer) write(s Sequence) error {
	for _, e := range s {
		var err error
		if e.Kind == Command {
			err = f.tx(i2cCmd, []byte{e.Cmd})
		} else {
			err = f.writeData(e.Data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *framer) writeData(d []byte) error {
	n := f.chunkSize()
	for len(d) > 0 {
		if n > len(d) {
			n = len(d)
		}
		if err := f.tx(i2cData, d[:n]); err != nil {
			return err
		}
		d = d[n:]
	}
	return nil
}

func (f *framer) tx(control byte, payload []byte) error {
	f.buf = append(f.buf[:0], control)
	f.buf = append(f.buf, payload...)
	if err := f.bus.Tx(f.addr, f.buf, nil); err != nil {
		return &TransportError{Addr: f.addr, Err: err}
	}
	return nil
}
