// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swdtest

// Ack values, mirrored from the wire-level encoding spec.md §3 defines
// (the swd package keeps its own `ack` type unexported, so the fake target
// re-states the three legal codes plus one illegal pattern for injection).
const (
	ackOK      uint8 = 0b001
	ackWait    uint8 = 0b010
	ackFault   uint8 = 0b100
	ackNoConn  uint8 = 0b111
)

// AP register indices within the currently selected bank, matching the
// AHB-AP layout the swd package's mem.go addresses (CSW=0, TAR=1, DRW=3).
const (
	apRegCSW = 0
	apRegTAR = 1
	apRegDRW = 3
)

// landCommand decodes the just-clocked-in command byte, resolves the ack
// (applying any pending fault injection), and — for reads — computes the
// reply word immediately so RxBits(32) has data ready.
func (t *Target) landCommand(cmd byte) {
	// Decoded locally (same bit positions as swd.EncodeCommand) rather than
	// via swd.DecodeCommand: importing swd here would make swd's own tests,
	// which import swdtest, an import cycle.
	apnDP := cmd&(1<<1) != 0
	rnw := cmd&(1<<2) != 0
	a23 := (cmd >> 3) & 0x3
	t.pendingAPnDP, t.pendingRnW, t.pendingA23 = apnDP, rnw, a23

	switch {
	case t.noAckOnce:
		t.noAckOnce = false
		t.ack = ackNoConn
		return
	case t.faultOnce:
		t.faultOnce = false
		t.ack = ackFault
		t.stickyErr = true
		return
	case t.waitCount > 0:
		t.waitCount--
		t.ack = ackWait
		return
	}
	t.ack = ackOK
	if rnw {
		t.replyWord = t.computeReadReply(apnDP, a23)
	}
}

// computeReadReply implements the posted-read pipeline: an AP register
// read returns the previously latched value and immediately samples the
// live register (advancing TAR if it was a DRW access) for the *next*
// request; a DP register read (other than RDBUFF) returns live data
// directly; RDBUFF drains the AP latch without touching AP state.
func (t *Target) computeReadReply(apnDP bool, a23 uint8) uint32 {
	if !apnDP {
		switch a23 {
		case 0: // IDCODE
			return t.idcode
		case 1: // STATUS
			var b uint32
			if t.stickyErr {
				b = 1 << (1 + 24) // arbitrary non-zero sticky-error marker
			}
			return b
		case 2: // RESEND
			return t.lastReply
		case 3: // RDBUFF
			return t.postedAPData
		}
		return 0
	}
	prev := t.postedAPData
	var live uint32
	switch a23 {
	case apRegCSW:
		live = t.apCSW
	case apRegTAR:
		live = t.apTAR
	case apRegDRW:
		live = t.readDRW()
		t.advanceTAR()
	}
	t.postedAPData = live
	t.lastReply = prev
	return prev
}

// commitWrite applies the write whose data word TxBits(32) already
// deposited in t.pendingWrite; called when the parity bit (TxBits(1))
// lands, mirroring the point in the real wire protocol where the full
// write is known to have landed.
func (t *Target) commitWrite() {
	if t.ack != ackOK {
		return
	}
	v := t.pendingWrite
	if !t.pendingAPnDP {
		switch t.pendingA23 {
		case 0: // ABORT
			if v != 0 {
				t.stickyErr = false
			}
		case 1: // CONTROL
			t.control = v
		case 2: // SELECT
			t.dpSelect = v
		}
		return
	}
	switch t.pendingA23 {
	case apRegCSW:
		t.apCSW = v
	case apRegTAR:
		t.apTAR = v
	case apRegDRW:
		t.writeDRW(v)
		t.advanceTAR()
	}
}

// elementSizeBytes recovers the AP auto-increment step from CSW[1:0],
// matching swd.cswControlByte's sizeField encoding (0=byte,1=half,2=word).
func (t *Target) elementSizeBytes() uint32 {
	switch t.apCSW & 0x3 {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

func (t *Target) advanceTAR() {
	t.apTAR += t.elementSizeBytes()
}

// readDRW/writeDRW move data between the fake (flat, byte-addressed) memory
// map and the 32-bit DRW wire word, routing through the byte lane(s) that
// real AHB-AP hardware would place a sub-word access on: a byte access at
// TAR only ever touches the one byte at TAR, carried on bits
// [8*(TAR&3)+7 : 8*(TAR&3)], never the other three lanes of the word.
func (t *Target) readDRW() uint32 {
	addr := t.apTAR
	switch t.elementSizeBytes() {
	case 1:
		shift := 8 * (addr & 3)
		return uint32(t.mem[addr]) << shift
	case 2:
		shift := 8 * (addr & 3) // 0 or 16
		return uint32(t.mem[addr])<<shift | uint32(t.mem[addr+1])<<(shift+8)
	default:
		return uint32(t.mem[addr]) | uint32(t.mem[addr+1])<<8 | uint32(t.mem[addr+2])<<16 | uint32(t.mem[addr+3])<<24
	}
}

func (t *Target) writeDRW(v uint32) {
	addr := t.apTAR
	switch t.elementSizeBytes() {
	case 1:
		shift := 8 * (addr & 3)
		t.mem[addr] = byte(v >> shift)
	case 2:
		shift := 8 * (addr & 3)
		t.mem[addr] = byte(v >> shift)
		t.mem[addr+1] = byte(v >> (shift + 8))
	default:
		t.mem[addr] = byte(v)
		t.mem[addr+1] = byte(v >> 8)
		t.mem[addr+2] = byte(v >> 16)
		t.mem[addr+3] = byte(v >> 24)
	}
}
