// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// oleddemo plays demo scenes on a SSD1306 or SH1106 OLED panel.
//
// With -sim, the panel is emulated and rendered in the terminal, so the
// scenes can be tried without hardware.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/GermanBionicSystems/oled/oledsim"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/jonboulle/clockwork"
	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

type config struct {
	opts    ssd1306.Opts
	bus     string
	hz      physic.Frequency
	sim     bool
	frames  int
	fps     int
	scenes  []string
	logFile string
	seed    int64
}

func parseFlags(args []string, out io.Writer) (*config, error) {
	c := &config{}
	fs := flag.NewFlagSet("oleddemo", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.IntVar(&c.opts.W, "width", ssd1306.DefaultOpts.W, "display width")
	fs.IntVar(&c.opts.H, "height", ssd1306.DefaultOpts.H, "display height, multiple of 8")
	variant := fs.String("variant", string(ssd1306.DefaultOpts.Variant), "controller: SSD1306 or SH1106")
	addr := fs.Uint("addr", uint(ssd1306.DefaultOpts.Addr), "I²C address")
	fs.BoolVar(&c.opts.ExternalVCC, "extvcc", false, "panel powered by an external VCC")
	fs.IntVar(&c.opts.MaxTransfer, "maxtx", 0, "largest I²C write in bytes, 0 for the bus default")
	fs.StringVar(&c.bus, "bus", "", "I²C bus to use")
	fs.Var(&c.hz, "hz", "I²C bus speed")
	fs.BoolVar(&c.sim, "sim", false, "emulate the panel in the terminal")
	fs.IntVar(&c.frames, "frames", 0, "frames per scene, 0 for the scene default")
	fs.IntVar(&c.fps, "fps", 0, "frames per second, 0 for the scene default")
	list := fs.String("scenes", "", "comma separated scenes to play, all by default: "+strings.Join(sceneNames(), ","))
	fs.StringVar(&c.logFile, "logfile", "", "log to this file, rotated, instead of stderr")
	fs.Int64Var(&c.seed, "seed", 0, "random seed, 0 to use the time")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Args())
	}
	v, err := ssd1306.ParseVariant(*variant)
	if err != nil {
		return nil, err
	}
	c.opts.Variant = v
	if *addr == 0 || *addr > 0x7F {
		return nil, fmt.Errorf("invalid I²C address %#x", *addr)
	}
	c.opts.Addr = uint16(*addr)
	if c.frames < 0 || c.fps < 0 {
		return nil, errors.New("-frames and -fps must be positive")
	}
	if *list != "" {
		c.scenes = strings.Split(*list, ",")
	}
	return c, nil
}

// openBus returns the bus the panel is on and, with -sim, the emulated panel.
func openBus(c *config, out io.Writer) (i2c.BusCloser, *oledsim.Dev, error) {
	if c.sim {
		opts := oledsim.Opts{W: c.opts.W, H: c.opts.H, Addr: c.opts.Addr, Out: out}
		if c.opts.Variant == ssd1306.SH1106 {
			opts.RAMWidth = 132
			if c.opts.W == 128 {
				opts.ColumnOffset = 2
			}
		}
		s, err := oledsim.New(&opts)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	b, err := i2creg.Open(c.bus)
	if err != nil {
		return nil, nil, err
	}
	if c.hz != 0 {
		if err := b.SetSpeed(c.hz); err != nil {
			b.Close()
			return nil, nil, err
		}
	}
	return b, nil, nil
}

func mainImpl() error {
	c, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}
	if c.logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   c.logFile,
			MaxSize:    1,
			MaxBackups: 3,
			MaxAge:     28,
		})
	} else if c.sim {
		// The terminal shows the panel.
		log.SetOutput(io.Discard)
	}
	scenes, err := selectScenes(c.scenes)
	if err != nil {
		return err
	}

	b, sim, err := openBus(c, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	c.opts.Logger = log.Default()
	dev, err := ssd1306.NewI2C(b, &c.opts)
	if err != nil {
		return err
	}
	log.Printf("%s: %s", dev, dev.Profile())

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		close(stop)
	}()

	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &runner{
		dev:    dev,
		sim:    sim,
		clock:  clockwork.NewRealClock(),
		rnd:    rand.New(rand.NewSource(seed)),
		stop:   stop,
		frames: c.frames,
	}
	if c.fps != 0 {
		r.period = time.Second / time.Duration(c.fps)
	}
	err = r.run(scenes)
	if errors.Is(err, errStopped) {
		err = nil
	}
	if err2 := dev.Halt(); err == nil {
		err = err2
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "oleddemo: %s.\n", err)
		}
		os.Exit(1)
	}
}
