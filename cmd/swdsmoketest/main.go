// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command swdsmoketest wires a real swd.Phy (selected by -backend: bitbang
// or mpsse) to a session and runs SWD_CONNECT followed by a memory round
// trip against real hardware, in the shape of ftdi/ftdismoketest.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/d2xx"
	_ "periph.io/x/host/v3" // registers the Linux sysfs/gpioioctl/allwinner/nanopi/orangepi pin drivers gpioreg.ByName looks up

	"github.com/usbdm-project/goswd/dispatch"
	"github.com/usbdm-project/goswd/swd"
	"github.com/usbdm-project/goswd/swdhal/bitbang"
	"github.com/usbdm-project/goswd/swdhal/mpsse"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "swdsmoketest: %s\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	backend := flag.String("backend", "bitbang", "Phy backend to use: bitbang or mpsse")
	clkName := flag.String("clk", "", "gpioreg name of the SWCLK pin (bitbang backend)")
	dioName := flag.String("dio", "", "gpioreg name of the SWDIO pin (bitbang backend)")
	mpsseDev := flag.Int("mpsse-dev", 0, "d2xx device index to open (mpsse backend)")
	mpsseFreq := flag.Int("mpsse-freq-hz", 1000000, "MPSSE clock frequency, in Hz (mpsse backend)")
	addr := flag.Uint("addr", 0x20000000, "target RAM address to exercise the memory round trip on")
	flag.Parse()

	phy, err := openPhy(*backend, *clkName, *dioName, *mpsseDev, *mpsseFreq)
	if err != nil {
		return err
	}
	line := swd.NewLine(phy, swd.DefaultConfig())
	session := swd.NewSession(line)

	buf := make([]byte, dispatch.MaxCommandSize)
	buf[0] = byte(dispatch.CmdConnect)
	dispatch.Dispatch(session, buf)
	if swd.Status(buf[0]) != swd.OK {
		return fmt.Errorf("connect: %s", swd.Status(buf[0]))
	}
	fmt.Println("connected")

	write := make([]byte, dispatch.MaxCommandSize)
	write[0] = byte(dispatch.CmdWriteMem)
	write[2] = byte(swd.SizeWord)
	write[3] = 4
	a := uint32(*addr)
	write[4], write[5], write[6], write[7] = byte(a>>24), byte(a>>16), byte(a>>8), byte(a)
	write[8], write[9], write[10], write[11] = 0xde, 0xad, 0xbe, 0xef
	dispatch.Dispatch(session, write)
	if swd.Status(write[0]) != swd.OK {
		return fmt.Errorf("write_mem: %s", swd.Status(write[0]))
	}

	read := make([]byte, dispatch.MaxCommandSize)
	read[0] = byte(dispatch.CmdReadMem)
	read[2] = byte(swd.SizeWord)
	read[3] = 4
	copy(read[4:8], write[4:8])
	dispatch.Dispatch(session, read)
	if swd.Status(read[0]) != swd.OK {
		return fmt.Errorf("read_mem: %s", swd.Status(read[0]))
	}
	fmt.Printf("memory round trip: wrote %x, read %x\n", write[8:12], read[1:5])
	return nil
}

// openPhy builds the requested swd.Phy backend: bitbang drives two named
// periph GPIO pins directly, mpsse opens an FT232H/FT2232H's MPSSE engine
// via d2xx.
func openPhy(backend, clkName, dioName string, mpsseDev, mpsseFreqHz int) (swd.Phy, error) {
	switch backend {
	case "bitbang":
		if clkName == "" || dioName == "" {
			return nil, fmt.Errorf("both -clk and -dio are required for the bitbang backend")
		}
		if _, err := driverreg.Init(); err != nil {
			log.Printf("driverreg.Init: %v", err)
		}
		clk := gpioreg.ByName(clkName)
		if clk == nil {
			return nil, fmt.Errorf("no such pin %q", clkName)
		}
		dio := gpioreg.ByName(dioName)
		if dio == nil {
			return nil, fmt.Errorf("no such pin %q", dioName)
		}
		return bitbang.New(clk, dio, time.Microsecond), nil
	case "mpsse":
		h, e := d2xx.Open(mpsseDev)
		if e != 0 {
			return nil, fmt.Errorf("d2xx.Open(%d): %w", mpsseDev, e)
		}
		return mpsse.Open(h, physic.Frequency(mpsseFreqHz)*physic.Hertz)
	default:
		return nil, fmt.Errorf("unrecognized -backend %q, only bitbang and mpsse are supported", backend)
	}
}
