// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled is a container for the monochrome OLED panel driver.
//
// Package ssd1306 drives SSD1306 and SH1106 controllers over I²C, package
// oledsim emulates such a panel in the terminal and cmd/oleddemo plays demo
// scenes on either.
package oled
