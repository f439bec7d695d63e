// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

// Line drives one SWD transaction at a time over a Phy. It never retains
// state between calls beyond what Phy itself retains. Every non-OK Status a
// method returns comes after the line has been driven back to Idle; a
// successful SendCommand leaves the line ready for the TxData/RxData phase
// that follows, and a Phy error is returned without idling the line.
type Line struct {
	phy Phy
	cfg Config
}

// NewLine wires a Phy to a Line Driver with the given retry/timing budget.
func NewLine(phy Phy, cfg Config) *Line {
	return &Line{phy: phy, cfg: cfg}
}

// Init forwards to the Phy's idempotent setup.
func (l *Line) Init() error {
	return l.phy.Init()
}

// Idle returns the line to its resting state.
func (l *Line) Idle() error {
	return l.phy.Idle()
}

// JTAGToSWD emits the JTAG-to-SWD line-reset/magic-word sequence (spec.md
// §4.1, §6.2): 64 ones, the 0xE79E magic word LSB-first, 64 more ones.
func (l *Line) JTAGToSWD() error {
	if err := l.phy.DriveOnes(64); err != nil {
		return err
	}
	if err := l.phy.TxBits(jtagToSWDMagic, 16); err != nil {
		return err
	}
	return l.phy.DriveOnes(64)
}

// TxIdle emits n clocks with SWDIO=0.
func (l *Line) TxIdle(n int) error {
	return l.phy.TxIdle(n)
}

// SendCommand transmits the 8-bit command and reads back the 3-bit ack,
// retrying on WAIT up to cfg.WaitRetries times (spec.md §4.1). Exactly one
// turn-around clock separates the command from the ack, and one more is
// inserted before any retry or after any non-OK ack.
func (l *Line) SendCommand(cmd byte) (Status, error) {
	retries := l.cfg.WaitRetries
	if retries <= 0 {
		retries = DefaultConfig().WaitRetries
	}
	for attempt := 0; ; attempt++ {
		if err := l.phy.TxBits(uint32(cmd), 8); err != nil {
			return 0, err
		}
		if err := l.phy.TurnAround(); err != nil {
			return 0, err
		}
		bits, err := l.phy.RxBits(3)
		if err != nil {
			return 0, err
		}
		a := ack(bits)
		logf("swd: cmd=%#02x ack=%03b attempt=%d", cmd, bits, attempt)
		if a == ackOK {
			return OK, nil
		}
		// Every non-OK ack (and every retry) gets one turn-around clock
		// before the line moves on, per spec.md §4.1/§8 invariant 7.
		if err := l.phy.TurnAround(); err != nil {
			return 0, err
		}
		if a == ackWait && attempt < retries {
			continue
		}
		if err := l.phy.Idle(); err != nil {
			return 0, err
		}
		switch a {
		case ackWait:
			return AckTimeout, nil
		case ackFault:
			return ArmFaultError, nil
		default:
			return NoConnection, nil
		}
	}
}

// TxData writes the 32-bit payload word and its odd-parity bit after an OK
// write-ack, followed by 8 idle clocks.
func (l *Line) TxData(word [4]byte) error {
	v := decodeWord(word)
	logf("swd: tx data=%#08x", v)
	if err := l.phy.TurnAround(); err != nil {
		return err
	}
	if err := l.phy.TxBits(v, 32); err != nil {
		return err
	}
	p := uint32(0)
	if parity32(v) {
		p = 1
	}
	if err := l.phy.TxBits(p, 1); err != nil {
		return err
	}
	return l.phy.TxIdle(8)
}

// RxData reads the 32-bit payload and its parity bit after an OK read-ack,
// followed by a turn-around and 8 idle clocks. Reports ArmParityError if
// the received parity bit does not make the total odd.
func (l *Line) RxData() ([4]byte, Status, error) {
	var out [4]byte
	v, err := l.phy.RxBits(32)
	if err != nil {
		return out, 0, err
	}
	p, err := l.phy.RxBits(1)
	if err != nil {
		return out, 0, err
	}
	if err := l.phy.TurnAround(); err != nil {
		return out, 0, err
	}
	if err := l.phy.TxIdle(8); err != nil {
		return out, 0, err
	}
	want := uint32(0)
	if parity32(v) {
		want = 1
	}
	out = encodeWord(v)
	logf("swd: rx data=%#08x parity=%d want=%d", v, p, want)
	if p != want {
		if err := l.phy.Idle(); err != nil {
			return out, 0, err
		}
		return out, ArmParityError, nil
	}
	return out, OK, nil
}

// decodeWord turns the MS-byte-first on-host buffer layout (spec.md §3,
// byte index 3 == bits[7:0]) into a little-endian uint32 for bit shifting.
func decodeWord(b [4]byte) uint32 {
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

func encodeWord(v uint32) [4]byte {
	return [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
