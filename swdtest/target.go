// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package swdtest provides a fake SWD target that implements swd.Phy, in
// the spirit of periph.io/x/d2xx/d2xxtest's Fake handle: it lets swd and
// dispatch tests drive a full line-protocol/DP/AP/memory round trip
// without real hardware, including deliberate WAIT/FAULT/parity-error
// injection for the boundary-behaviour cases spec.md §8 calls for.
package swdtest

import (
	"errors"
	"sync"
)

// Target is a fake single-AP Cortex-M-shaped SWD target.
type Target struct {
	mu sync.Mutex

	idcode uint32

	// Per-command scratch, set when the 8-bit command is clocked in and
	// consumed by the following data phase.
	pendingAPnDP bool
	pendingRnW   bool
	pendingA23   uint8
	pendingWrite uint32 // accumulates the 32-bit write word before its parity bit commits it
	replyWord    uint32 // data phase reply, computed when the command lands
	parityBad    bool   // inject on this reply's parity bit only
	ack          uint8  // 3-bit ack for the command currently in flight

	// Debug Port state.
	dpSelect  uint32
	control   uint32
	stickyErr bool
	lastReply uint32

	// AHB-AP (AP #0) state.
	apCSW        uint32
	apTAR        uint32
	postedAPData uint32 // latched "previous read" value (posted-read rule)

	mem map[uint32]byte

	// Fault injection, consumed one-shot unless noted.
	waitCount int // number of WAIT acks to return before OK
	faultOnce bool
	noAckOnce bool
}

// NewTarget returns a fake target that reports the given IDCODE.
func NewTarget(idcode uint32) *Target {
	return &Target{idcode: idcode, mem: make(map[uint32]byte)}
}

// SetWaitCount makes the next n commands return WAIT before the (n+1)th
// returns OK (or whatever the command would otherwise resolve to).
func (t *Target) SetWaitCount(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waitCount = n
}

// ForceFaultOnce makes the next command return FAULT.
func (t *Target) ForceFaultOnce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faultOnce = true
}

// ForceNoAckOnce makes the next command return an unrecognized ack
// pattern (simulating no connection).
func (t *Target) ForceNoAckOnce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.noAckOnce = true
}

// ForceBadParityOnce corrupts the parity bit of the next read's reply.
func (t *Target) ForceBadParityOnce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parityBad = true
}

// WriteMem seeds target RAM for read-side tests.
func (t *Target) WriteMem(addr uint32, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, b := range data {
		t.mem[addr+uint32(i)] = b
	}
}

// ReadMem inspects target RAM for write-side test assertions.
func (t *Target) ReadMem(addr uint32, n int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = t.mem[addr+uint32(i)]
	}
	return out
}

// StickyError reports whether the fake DP currently has a latched sticky
// error (set by ForceFaultOnce until a ClearSticky/ABORT write lands).
func (t *Target) StickyError() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stickyErr
}

func (t *Target) String() string { return "swdtest.Target" }

// Init/Idle/DriveOnes/TxIdle/TurnAround are all no-ops for the fake: it
// only cares about the framed command/data phases, not the idle-line
// bit-banging around them.
func (t *Target) Init() error                { return nil }
func (t *Target) Idle() error                { return nil }
func (t *Target) DriveOnes(clocks int) error { return nil }
func (t *Target) TxIdle(clocks int) error    { return nil }
func (t *Target) TurnAround() error          { return nil }

// TxBits receives the command byte (n==8), the JTAG-to-SWD magic word
// (n==16, ignored), a write data word (n==32), or a write's parity bit
// (n==1, which commits the write's effect on the fake target state).
func (t *Target) TxBits(v uint32, n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch n {
	case 16:
		// JTAG-to-SWD magic word; the fake doesn't model JTAG state.
		return nil
	case 8:
		t.landCommand(byte(v))
		return nil
	case 32:
		t.pendingWrite = v
		return nil
	case 1:
		t.commitWrite()
		return nil
	}
	return errors.New("swdtest: unexpected TxBits width")
}

// RxBits returns the 3-bit ack (n==3), the 32-bit read reply (n==32), or
// the read reply's parity bit (n==1).
func (t *Target) RxBits(n int) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch n {
	case 3:
		return uint32(t.ack), nil
	case 32:
		return t.replyWord, nil
	case 1:
		want := parityBit(t.replyWord)
		if t.parityBad {
			t.parityBad = false
			want ^= 1
		}
		return want, nil
	}
	return 0, errors.New("swdtest: unexpected RxBits width")
}

func parityBit(v uint32) uint32 {
	v ^= v >> 16
	v ^= v >> 8
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	if v&1 == 0 {
		return 1
	}
	return 0
}
