// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package swdprobe registers a probe's SWCLK/SWDIO pins with periph's
// host-wide registries, grounded in periph.io/x/host/v3/ftdi's registerDev.
// It has no protocol semantics of its own: it is pure host-side wiring so
// other periph-aware tools can discover and name a probe's lines the way
// they discover an FTDI adapter's.
package swdprobe

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/pin/pinreg"
)

// Register exposes clk/dio under gpioreg by their own Name()s (they are not
// renamed) and the probe itself as a two-pin header named name under pinreg.
func Register(name string, clk, dio gpio.PinIO) error {
	for _, p := range []gpio.PinIO{clk, dio} {
		if err := gpioreg.Register(p); err != nil {
			return fmt.Errorf("swdprobe: %w", err)
		}
	}
	raw := [][]pin.Pin{{clk}, {dio}}
	if err := pinreg.Register(name, raw); err != nil {
		return fmt.Errorf("swdprobe: %w", err)
	}
	return nil
}
