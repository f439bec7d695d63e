// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// fakePin is a minimal gpio.PinIO that just remembers the last driven level
// and lets a test preset the level Read() returns, in the spirit of
// ftdi/ftdismoketest's loggingPin wrapper.
type fakePin struct {
	name string

	dir   bool // true once Out has been called more recently than In
	level gpio.Level
}

func (p *fakePin) String() string   { return p.name }
func (p *fakePin) Halt() error      { return nil }
func (p *fakePin) Name() string     { return p.name }
func (p *fakePin) Number() int      { return -1 }
func (p *fakePin) Function() string { return "" }

func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.dir = false
	return nil
}

func (p *fakePin) Read() gpio.Level { return p.level }

func (p *fakePin) WaitForEdge(timeout time.Duration) bool { return false }

func (p *fakePin) Pull() gpio.Pull        { return gpio.PullNoChange }
func (p *fakePin) DefaultPull() gpio.Pull { return gpio.PullNoChange }

func (p *fakePin) Out(l gpio.Level) error {
	p.dir = true
	p.level = l
	return nil
}

func (p *fakePin) PWM(gpio.Duty, physic.Frequency) error { return nil }

func TestInitIdlesHigh(t *testing.T) {
	clk := &fakePin{name: "CLK"}
	dio := &fakePin{name: "DIO"}
	p := New(clk, dio, time.Microsecond)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if clk.level != gpio.High {
		t.Fatalf("SWCLK = %v, want High", clk.level)
	}
}

func TestTxBitsDrivesLSBFirst(t *testing.T) {
	clk := &fakePin{name: "CLK"}
	dio := &fakePin{name: "DIO"}
	p := New(clk, dio, 0)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// 0b0101 LSB-first means the sequence of driven levels is 1,0,1,0; the
	// last level left on the pin after TxBits is the top bit, 0.
	if err := p.TxBits(0x5, 4); err != nil {
		t.Fatalf("TxBits: %v", err)
	}
	if dio.level != gpio.Low {
		t.Fatalf("final SWDIO level = %v, want Low (bit 3 of 0x5 is 0)", dio.level)
	}
}

func TestRxBitsSamplesLSBFirst(t *testing.T) {
	clk := &fakePin{name: "CLK"}
	dio := &fakePin{name: "DIO", level: gpio.High}
	p := New(clk, dio, 0)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// dio.level is fixed at High for the whole call (the fake doesn't change
	// it), so every sampled bit is 1.
	v, err := p.RxBits(3)
	if err != nil {
		t.Fatalf("RxBits: %v", err)
	}
	if v != 0x7 {
		t.Fatalf("RxBits = %#x, want 0x7", v)
	}
}
