// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

// APAddr is the 16-bit AP target address described in spec.md §3:
// A[15:8] selects the AP number, A[7:4] the bank within DP.SELECT, A[3:2]
// the register within the bank. A[1:0] must be zero.
type APAddr uint16

func (a APAddr) selectValue() [4]byte {
	return [4]byte{byte(a >> 8), 0, 0, byte(a) & 0xF0}
}

func (a APAddr) regIndex() uint8 {
	return uint8(a>>2) & 0x3
}

// ReadDP reads a Debug Port register. Legal regs: DPIDCode, DPControl
// (read=STATUS), DPResend, DPRdBuff.
func (s *Session) ReadDP(reg DPReg) ([4]byte, Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOpcode(readDPOpcode[reg&0x3])
}

// readDPLocked issues a DP read and reports only the status, discarding
// the data. Used where the caller only needs to observe success (e.g.
// Connect's IDCODE read).
func (s *Session) readDPLocked(reg DPReg) (Status, error) {
	_, st, err := s.readOpcode(readDPOpcode[reg&0x3])
	return st, err
}

// readOpcode sends the given pre-encoded command byte and, on an OK ack,
// clocks in the 32-bit reply.
func (s *Session) readOpcode(cmd byte) ([4]byte, Status, error) {
	var z [4]byte
	st, err := s.line.SendCommand(cmd)
	if err != nil {
		return z, 0, err
	}
	if st != OK {
		return z, st, nil
	}
	data, rst, err := s.line.RxData()
	if err != nil {
		return z, 0, err
	}
	return data, rst, nil
}

// WriteDP writes a Debug Port register. Legal regs: DPAbort, DPControl,
// DPSelect.
func (s *Session) WriteDP(reg DPReg, val [4]byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeDPLocked(reg, val)
}

func (s *Session) writeDPLocked(reg DPReg, val [4]byte) (Status, error) {
	return s.writeOpcode(writeDPOpcode[reg&0x3], val)
}

func (s *Session) writeOpcode(cmd byte, val [4]byte) (Status, error) {
	st, err := s.line.SendCommand(cmd)
	if err != nil {
		return 0, err
	}
	if st != OK {
		return st, nil
	}
	if err := s.line.TxData(val); err != nil {
		return 0, err
	}
	return OK, nil
}

// ReadAP selects the AP's bank, issues the posted AP read, then drains
// DP.RDBUFF to obtain the true result (spec.md §4.2).
func (s *Session) ReadAP(addr APAddr) ([4]byte, Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var z [4]byte
	st, err := s.writeDPLocked(DPSelect, addr.selectValue())
	if err != nil || st != OK {
		return z, st, err
	}
	if _, st, err = s.readOpcode(readAPOpcode[addr.regIndex()]); err != nil || st != OK {
		return z, st, err
	}
	return s.readOpcode(readDPOpcode[DPRdBuff])
}

// WriteAP selects the AP's bank, issues the AP write, then reads
// DP.RDBUFF to drain any stall/status response (spec.md §4.2).
func (s *Session) WriteAP(addr APAddr, val [4]byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.writeDPLocked(DPSelect, addr.selectValue())
	if err != nil || st != OK {
		return st, err
	}
	if st, err = s.writeOpcode(writeAPOpcode[addr.regIndex()], val); err != nil || st != OK {
		return st, err
	}
	_, st, err = s.readOpcode(readDPOpcode[DPRdBuff])
	return st, err
}

// ClearSticky writes DP.ABORT with the four error-clear bits. Per spec.md
// §9's Open Question, this is always issued, never conditioned on first
// reading DP.STATUS: it is idempotent on the target and saves a round
// trip.
func (s *Session) ClearSticky() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearStickyLocked()
}

func (s *Session) clearStickyLocked() (Status, error) {
	return s.writeDPLocked(DPAbort, [4]byte{0, 0, 0, clearErrorsMask})
}
