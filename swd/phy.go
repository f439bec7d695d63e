// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import "time"

// Phy is the hardware-abstraction trait the Line Driver is built on top of
// (spec.md §9): a concrete backend drives real SWCLK/SWDIO pins (package
// swdhal/bitbang) or an FTDI MPSSE engine (package swdhal/mpsse); tests
// substitute a fake target (package swdtest) that decodes the framed
// command/data phases against a modelled register file, the same way ftdi's tests substitute a d2xxtest.Fake handle.
//
// All methods operate LSB-first, matching the wire order spec.md §6.2
// specifies. Implementations are not expected to be safe for concurrent
// use; Session serializes all access with a mutex (spec.md §5).
type Phy interface {
	// Init sets pin directions/pull-ups and any once-off setup. Idempotent.
	Init() error

	// Idle drives SWDIO to tri-state, SWCLK high, and disables the
	// peripheral. Must be callable from any state.
	Idle() error

	// DriveOnes emits n clocks with SWDIO held at logic 1.
	DriveOnes(clocks int) error

	// TxIdle emits n clocks with SWDIO held at logic 0.
	TxIdle(clocks int) error

	// TurnAround emits exactly one clock with SWDIO tri-stated.
	TurnAround() error

	// TxBits drives n bits of v (LSB-first, n<=32) onto SWDIO.
	TxBits(v uint32, n int) error

	// RxBits samples n bits (LSB-first, n<=32) from SWDIO.
	RxBits(n int) (uint32, error)

	// String identifies the underlying transport for logging/errors.
	String() string
}

// Config carries the Line Driver's timing and retry-budget knobs. Per
// spec.md §9 these were hard-coded in the original; they are exposed here
// as configuration with the spec's own defaults.
type Config struct {
	// BitDelay is the per-half-clock spin/sleep duration. Line does not read
	// it and does not pass it to the Phy: each backend takes its own timing
	// when it is built (bitbang.New's halfClock, mpsse.Open's frequency).
	BitDelay time.Duration

	// WaitRetries bounds the number of WAIT-triggered command retries
	// (spec.md §4.1 "up to 20 times").
	WaitRetries int

	// RegReadyPolls bounds the number of DHCSR.S_REGRDY polls (spec.md
	// §4.4, "bounded to 40 attempts").
	RegReadyPolls int
}

// DefaultConfig returns the spec's documented retry budgets.
func DefaultConfig() Config {
	return Config{
		WaitRetries:   20,
		RegReadyPolls: 40,
	}
}
