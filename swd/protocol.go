// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

// ack is the 3-bit acknowledge value shifted in after a command byte.
type ack uint8

const (
	ackOK    ack = 0b001
	ackWait  ack = 0b010
	ackFault ack = 0b100
)

// jtagToSWDMagic is the 16-bit sequence that switches a JTAG-DP into SWD
// mode, sent LSB-first between two runs of SWDIO=1 clocks.
const jtagToSWDMagic = 0xE79E

// idcodeCommand is the SWD command byte used to read IDCODE immediately
// after the JTAG-to-SWD sequence: Start=1, APnDP=0, RnW=1, A[2:3]=00,
// Parity=0 (RnW is the one set bit, already odd, so the parity bit is 0;
// computed below for clarity rather than hardcoded), Stop=0, Park=1.
var idcodeCommand = EncodeCommand(false, true, 0)

// DPReg identifies a Debug Port register. The legal register per direction
// is enumerated by readDPOpcode/writeDPOpcode below; A[3:2] selects within
// the 4 entries exactly as spec.md's DP/AP addressing describes.
type DPReg uint8

const (
	DPIDCode  DPReg = 0 // RO
	DPAbort   DPReg = 0 // WO, same A[3:2] as IDCODE but only valid for write
	DPControl DPReg = 1 // RW status/ctrl (read=STATUS, write=CONTROL)
	DPResend  DPReg = 2 // RO
	DPSelect  DPReg = 2 // WO, same A[3:2] as RESEND but only valid for write
	DPRdBuff  DPReg = 3 // RO
)

// readDPOpcode/writeDPOpcode are the "global static byte arrays of opcode
// lookup" from the original source, reduced to constant arrays indexed by
// the bounded 2-bit sub-field (spec.md §9).
var readDPOpcode = [4]byte{
	EncodeCommand(false, true, 0), // IDCODE
	EncodeCommand(false, true, 1), // STATUS
	EncodeCommand(false, true, 2), // RESEND
	EncodeCommand(false, true, 3), // RDBUFF
}

var writeDPOpcode = [4]byte{
	EncodeCommand(false, false, 0), // ABORT
	EncodeCommand(false, false, 1), // CONTROL
	EncodeCommand(false, false, 2), // SELECT
	0,                               // reserved
}

// readAPOpcode/writeAPOpcode select one of the 4 registers within the
// AP bank currently latched by DP.SELECT.
var readAPOpcode = [4]byte{
	EncodeCommand(true, true, 0),
	EncodeCommand(true, true, 1),
	EncodeCommand(true, true, 2),
	EncodeCommand(true, true, 3),
}

var writeAPOpcode = [4]byte{
	EncodeCommand(true, false, 0),
	EncodeCommand(true, false, 1),
	EncodeCommand(true, false, 2),
	EncodeCommand(true, false, 3),
}

// Abort register bits (DP.ABORT), written by ClearSticky.
const (
	abortSTKCMPCLR  = 1 << 1
	abortSTKERRCLR  = 1 << 2
	abortWDERRCLR   = 1 << 3
	abortORUNERRCLR = 1 << 4
	// clearErrorsMask is the "always write" mask from spec.md §9's Open
	// Question: the original always writes this regardless of whether
	// DP.STATUS shows an error, because it is idempotent on the target and
	// saves a round trip. This reimplementation preserves that behavior.
	clearErrorsMask = abortSTKCMPCLR | abortSTKERRCLR | abortWDERRCLR | abortORUNERRCLR
)

// EncodeCommand builds the 8-bit SWD command byte: Start=1, APnDP, RnW,
// A[2:3], odd Parity over APnDP|RnW|A[2:3], Stop=0, Park=1. a23 uses only
// its low 2 bits.
func EncodeCommand(apnDP, rnw bool, a23 uint8) byte {
	var cmd byte = 1 // Start
	var ones int
	if apnDP {
		cmd |= 1 << 1
		ones++
	}
	if rnw {
		cmd |= 1 << 2
		ones++
	}
	a23 &= 0x3
	cmd |= a23 << 3
	ones += bits2(a23)
	if ones%2 == 0 {
		// Odd parity: set the parity bit when the field has an even number
		// of set bits so the total (including this bit) is odd. spec.md §6.2
		// states the convention as odd parity; real ARM SWD silicon uses even
		// parity over APnDP/RnW/A[2:3], so this command byte only round-trips
		// against this package's own decoder (swdtest), not a physical target.
		cmd |= 1 << 5
	}
	cmd |= 1 << 7 // Park
	return cmd
}

// DecodeCommand splits an encoded command byte back into its fields and
// reports whether its parity bit is the correct odd parity. It is exported
// for fakes that need to interpret the bit stream a real target would see.
func DecodeCommand(cmd byte) (apnDP, rnw bool, a23 uint8, parityOK bool) {
	apnDP = cmd&(1<<1) != 0
	rnw = cmd&(1<<2) != 0
	a23 = (cmd >> 3) & 0x3
	wantParity := EncodeCommand(apnDP, rnw, a23) & (1 << 5)
	parityOK = cmd&(1<<5) == wantParity
	return
}

func bits2(v uint8) int {
	n := 0
	for i := 0; i < 2; i++ {
		if v&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// parity32 returns the odd-parity bit over the 32 bits of v.
func parity32(v uint32) bool {
	v ^= v >> 16
	v ^= v >> 8
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 == 0
}
