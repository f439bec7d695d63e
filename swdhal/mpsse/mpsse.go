// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mpsse implements swd.Phy on top of an FT232H/FT2232H's MPSSE
// engine via periph.io/x/d2xx, reusing the GPIO-op and clocked-burst
// opcodes periph.io/x/host/v3's ftdi package defines (ftdi/mpsse.go,
// ftdi/spi.go) to drive SWCLK/SWDIO instead of SCK/MOSI/MISO/CS.
//
// SWCLK/SWDIO are driven through the 8-bit "set/read data bits low byte"
// GPIO opcodes one bit at a time for the irregular-width command/ack/parity
// phases, and through the byte-oriented clock-data opcode for the 32-bit
// payload phases, matching the allowance that the 32-bit data phases may be
// clocked in byte-multiple bursts for throughput.
package mpsse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/d2xx"
)

// MPSSE opcodes, the subset ftdi/mpsse.go defines that this backend needs.
const (
	dataOutFall byte = 0x01
	dataInFall  byte = 0x04
	dataLSBF    byte = 0x08
	dataOut     byte = 0x10
	dataIn      byte = 0x20
	dataBit     byte = 0x02

	gpioSetD  byte = 0x80
	gpioReadD byte = 0x81

	clock30MHz  byte = 0x8A
	clockNormal byte = 0x97
	clock2Phase byte = 0x8D

	clockSetDivisor byte = 0x86
	flush           byte = 0x87
)

// swclkBit/swdioBit are the ADBus bit positions this backend
// assigns to the two signals; D0 and D1 are the lowest, least contended
// pins on a typical FT232H breakout.
const (
	swclkBit = 1 << 0
	swdioBit = 1 << 1
)

// Phy drives SWCLK/SWDIO through an FT232H's MPSSE GPIO/clock-data engine.
type Phy struct {
	h d2xx.Handle

	// dir is the last direction byte written via gpioSetD; bit 1 (SWDIO)
	// toggles between output (transmit phases) and input (receive phases).
	dir byte
}

// Open puts the already opened d2xx handle h into MPSSE mode and wraps it as
// a Phy. freq selects the MPSSE clock.
func Open(h d2xx.Handle, freq physic.Frequency) (*Phy, error) {
	p := &Phy{h: h, dir: swclkBit} // SWCLK out, SWDIO in by default
	cmd := []byte{clock30MHz, clockNormal, clock2Phase, gpioSetD, 0x01, p.dir}
	if _, err := p.write(cmd); err != nil {
		return nil, fmt.Errorf("swdhal/mpsse: init: %w", err)
	}
	if err := p.setClock(freq); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Phy) String() string { return "swdhal/mpsse.Phy" }

func (p *Phy) write(b []byte) (int, error) {
	n, e := p.h.Write(b)
	if e != 0 {
		return n, fmt.Errorf("swdhal/mpsse: write: %w", e)
	}
	return n, nil
}

func (p *Phy) readAll(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	buf := make([]byte, n)
	for len(out) < n {
		select {
		case <-ctx.Done():
			return out, errors.New("swdhal/mpsse: read timeout")
		default:
		}
		avail, e := p.h.GetQueueStatus()
		if e != 0 {
			return out, fmt.Errorf("swdhal/mpsse: GetQueueStatus: %w", e)
		}
		if avail == 0 {
			continue
		}
		want := int(avail)
		if want > n-len(out) {
			want = n - len(out)
		}
		got, e := p.h.Read(buf[:want])
		if e != 0 {
			return out, fmt.Errorf("swdhal/mpsse: read: %w", e)
		}
		out = append(out, buf[:got]...)
	}
	return out, nil
}

// setClock mirrors ftdi's MPSSEClock: the base clock is 30MHz/2 after
// clock30MHz, further divided by (1+divisor).
func (p *Phy) setClock(f physic.Frequency) error {
	if f <= 0 {
		f = 1 * physic.MegaHertz
	}
	base := physic.Frequency(15 * physic.MegaHertz)
	div := uint16(base/f) - 1
	cmd := []byte{clockSetDivisor, byte(div), byte(div >> 8)}
	_, err := p.write(cmd)
	return err
}

func (p *Phy) setDIODir(out bool) error {
	dir := p.dir &^ swdioBit
	if out {
		dir |= swdioBit
	}
	if dir == p.dir {
		return nil
	}
	p.dir = dir
	_, err := p.write([]byte{gpioSetD, 0x00, p.dir})
	return err
}

// driveBit drives SWDIO to the given level and pulses SWCLK low then
// high, the one-GPIO-op-per-edge pattern gpioSetD/gpioReadD implements.
func (p *Phy) driveBit(v int) error {
	val := byte(0)
	if v != 0 {
		val = swdioBit
	}
	cmds := []byte{
		gpioSetD, val, p.dir, // SWCLK (bit 0) low, SWDIO = v
		gpioSetD, val | swclkBit, p.dir,
	}
	_, err := p.write(cmds)
	return err
}

func (p *Phy) sampleBit() (int, error) {
	cmds := []byte{
		gpioSetD, 0x00, p.dir,
		gpioReadD,
		gpioSetD, swclkBit, p.dir,
	}
	if _, err := p.write(cmds); err != nil {
		return 0, err
	}
	b, err := p.readAll(1)
	if err != nil {
		return 0, err
	}
	if b[0]&swdioBit != 0 {
		return 1, nil
	}
	return 0, nil
}

// Init idles the lines, matching spec.md §4.1 init() (pin directions were
// already set by Open).
func (p *Phy) Init() error {
	return p.Idle()
}

// Idle drives SWCLK high and releases SWDIO to input.
func (p *Phy) Idle() error {
	if err := p.setDIODir(false); err != nil {
		return err
	}
	_, err := p.write([]byte{gpioSetD, swclkBit, p.dir})
	return err
}

// DriveOnes emits clocks bit periods with SWDIO held high.
func (p *Phy) DriveOnes(clocks int) error {
	if err := p.setDIODir(true); err != nil {
		return err
	}
	for i := 0; i < clocks; i++ {
		if err := p.driveBit(1); err != nil {
			return err
		}
	}
	return nil
}

// TxIdle emits clocks bit periods with SWDIO held low.
func (p *Phy) TxIdle(clocks int) error {
	if err := p.setDIODir(true); err != nil {
		return err
	}
	for i := 0; i < clocks; i++ {
		if err := p.driveBit(0); err != nil {
			return err
		}
	}
	return nil
}

// TurnAround emits one clock with SWDIO released to input.
func (p *Phy) TurnAround() error {
	if err := p.setDIODir(false); err != nil {
		return err
	}
	_, err := p.sampleBit()
	return err
}

// TxBits drives the low n bits of v onto SWDIO, LSB-first. Byte-multiple
// widths (8, 16, 32 — command, JTAG magic, data) use the MPSSE's
// synchronous clock-data-out opcode for a single-transaction burst rather
// than one GPIO op per bit, per spec.md §4.1's allowance; the remaining
// odd widths (1 parity bit, 3-bit ack) fall back to per-bit GPIO clocking.
func (p *Phy) TxBits(v uint32, n int) error {
	if n < 0 || n > 32 {
		return errors.New("swdhal/mpsse: TxBits width out of range")
	}
	if err := p.setDIODir(true); err != nil {
		return err
	}
	if n%8 == 0 && n > 0 {
		return p.clockOutBytes(v, n/8)
	}
	for i := 0; i < n; i++ {
		if err := p.driveBit(int((v >> uint(i)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

// RxBits samples n bits from SWDIO, LSB-first; see TxBits for the
// byte-multiple burst fast path.
func (p *Phy) RxBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, errors.New("swdhal/mpsse: RxBits width out of range")
	}
	if err := p.setDIODir(false); err != nil {
		return 0, err
	}
	if n%8 == 0 && n > 0 {
		return p.clockInBytes(n / 8)
	}
	var v uint32
	for i := 0; i < n; i++ {
		bit, err := p.sampleBit()
		if err != nil {
			return 0, err
		}
		v |= uint32(bit) << uint(i)
	}
	return v, nil
}

// clockOutBytes/clockInBytes issue one MPSSE clock-data opcode for nBytes
// bytes of v (LSB-first byte order, LSB-first bit order within each byte),
// the same "<op>, <LengthLow-1>, <LengthHigh-1>, <data...>" shape
// ftdi/mpsse.go's dataOut/dataIn opcodes define.
func (p *Phy) clockOutBytes(v uint32, nBytes int) error {
	data := make([]byte, nBytes)
	for i := 0; i < nBytes; i++ {
		data[i] = byte(v >> uint(8*i))
	}
	length := nBytes - 1
	cmd := append([]byte{dataOut | dataOutFall | dataLSBF, byte(length), byte(length >> 8)}, data...)
	_, err := p.write(cmd)
	return err
}

func (p *Phy) clockInBytes(nBytes int) (uint32, error) {
	length := nBytes - 1
	cmd := []byte{dataIn | dataLSBF, byte(length), byte(length >> 8), flush}
	if _, err := p.write(cmd); err != nil {
		return 0, err
	}
	data, err := p.readAll(nBytes)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i, b := range data {
		v |= uint32(b) << uint(8*i)
	}
	return v, nil
}
