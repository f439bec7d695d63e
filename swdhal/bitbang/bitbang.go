// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitbang implements swd.Phy by driving two periph.io/x/conn/v3/gpio
// pins (SWCLK, SWDIO) directly, the way gpioioctl/sysfs drive raw lines: no
// chip-specific acceleration, just a clocked GPIO.Out/In loop. It is the
// baseline backend, always available on any host with two free GPIOs.
package bitbang

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Phy drives SWCLK/SWDIO as plain GPIO pins. SWDIO direction switches
// between Out (during command/data transmission) and In (during ack/data
// reception and turn-around), matching the half-duplex nature of the wire
// protocol (spec.md §4.1).
type Phy struct {
	clk gpio.PinIO
	dio gpio.PinIO

	// halfClock is spent twice per bit (clock low, then clock high), so one
	// bit period is 2*halfClock.
	halfClock time.Duration
}

// New wires a Phy to the given SWCLK/SWDIO pins. halfClock is the per-edge
// spin duration (spec.md §4.1 "bit_delay"); zero selects a conservative
// default suitable for a lightly loaded host GPIO.
func New(clk, dio gpio.PinIO, halfClock time.Duration) *Phy {
	if halfClock <= 0 {
		halfClock = time.Microsecond
	}
	return &Phy{clk: clk, dio: dio, halfClock: halfClock}
}

func (p *Phy) String() string {
	return "swdhal/bitbang.Phy(" + p.clk.Name() + "," + p.dio.Name() + ")"
}

// Init sets SWCLK as a driven output idling high and SWDIO as an output
// idling high, the power-on-reset line state (spec.md §4.1 init()).
func (p *Phy) Init() error {
	if err := p.clk.Out(gpio.High); err != nil {
		return err
	}
	return p.dio.Out(gpio.High)
}

// Idle drives SWCLK high and releases SWDIO to input (tri-state equivalent
// on a GPIO-only backend), per spec.md §4.1 idle().
func (p *Phy) Idle() error {
	if err := p.clk.Out(gpio.High); err != nil {
		return err
	}
	return p.dio.In(gpio.PullUp, gpio.NoEdge)
}

func (p *Phy) clockPulse() {
	p.clk.Out(gpio.Low)
	time.Sleep(p.halfClock)
	p.clk.Out(gpio.High)
	time.Sleep(p.halfClock)
}

// driveBit asserts v on SWDIO and pulses SWCLK once. The caller must have
// already put SWDIO in output mode.
func (p *Phy) driveBit(v int) {
	if v != 0 {
		p.dio.Out(gpio.High)
	} else {
		p.dio.Out(gpio.Low)
	}
	p.clockPulse()
}

// sampleBit pulses SWCLK and samples SWDIO. The caller must have already
// put SWDIO in input mode.
func (p *Phy) sampleBit() int {
	p.clk.Out(gpio.Low)
	time.Sleep(p.halfClock)
	v := p.dio.Read()
	p.clk.Out(gpio.High)
	time.Sleep(p.halfClock)
	if v == gpio.High {
		return 1
	}
	return 0
}

// DriveOnes emits clocks bit periods with SWDIO held high.
func (p *Phy) DriveOnes(clocks int) error {
	if err := p.dio.Out(gpio.High); err != nil {
		return err
	}
	for i := 0; i < clocks; i++ {
		p.clockPulse()
	}
	return nil
}

// TxIdle emits clocks bit periods with SWDIO held low.
func (p *Phy) TxIdle(clocks int) error {
	if err := p.dio.Out(gpio.Low); err != nil {
		return err
	}
	for i := 0; i < clocks; i++ {
		p.clockPulse()
	}
	return nil
}

// TurnAround emits exactly one clock with SWDIO released to input.
func (p *Phy) TurnAround() error {
	if err := p.dio.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return err
	}
	p.clockPulse()
	return nil
}

// TxBits drives the low n bits of v onto SWDIO, LSB-first.
func (p *Phy) TxBits(v uint32, n int) error {
	if n < 0 || n > 32 {
		return errors.New("swdhal/bitbang: TxBits width out of range")
	}
	if err := p.dio.Out(gpio.Low); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		p.driveBit(int((v >> uint(i)) & 1))
	}
	return nil
}

// RxBits samples n bits from SWDIO, LSB-first.
func (p *Phy) RxBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, errors.New("swdhal/bitbang: RxBits width out of range")
	}
	if err := p.dio.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(p.sampleBit()) << uint(i)
	}
	return v, nil
}
