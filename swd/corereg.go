// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

// Cortex-M debug register addresses (spec.md §4.4).
var (
	dhcsrAddr = [4]byte{0xE0, 0x00, 0xED, 0xF0}
	dcrsrAddr = [4]byte{0xE0, 0x00, 0xED, 0xF4}
	dcrdrAddr = [4]byte{0xE0, 0x00, 0xED, 0xF8}
)

// DHCSR bits. DHCSR_S_RESET_ST is bit 25 of the register: per spec.md §9
// the original macro is missing a closing parenthesis; this defines the
// bit directly rather than reproducing the bug.
const (
	dhcsrDbgKeyB0  = 0xA0 // byte 0 (bits 31:24)
	dhcsrDbgKeyB1  = 0x5F // byte 1 (bits 23:16)
	dhcsrSResetST  = 1 << (25 - 24) // within byte 0 (bits 31:24)
	dhcsrSRetireST = 1 << (24 - 24)
	dhcsrSLockup   = 1 << (19 - 16)
	dhcsrSSleep    = 1 << (18 - 16)
	dhcsrSHalt     = 1 << (17 - 16)
	dhcsrSRegRdy   = 1 << (16 - 16) // byte 1, bit 0: S_REGRDY

	dhcsrCSnapstall = 1 << 5 // byte 3
	dhcsrCMaskints  = 1 << 3
	dhcsrCStep      = 1 << 2
	dhcsrCHalt      = 1 << 1
	dhcsrCDebugen   = 1 << 0
)

const (
	dcrsrWrite    = 1 // byte 1 bit 0: direction=write
	dcrsrRead     = 0
	dcrsrRegMask  = 0x7F
)

// coreRegOperation writes DCRSR to start a register transfer and polls
// DHCSR.S_REGRDY, bounded to cfg.RegReadyPolls attempts (spec.md §4.4).
func (s *Session) coreRegOperation(dcrsr [4]byte) (Status, error) {
	if st, err := s.memWriteLocked(dcrsrAddr, dcrsr); err != nil || st != OK {
		return st, err
	}
	polls := s.line.cfg.RegReadyPolls
	if polls <= 0 {
		polls = DefaultConfig().RegReadyPolls
	}
	for i := 0; i < polls; i++ {
		dhcsr, st, err := s.memReadLocked(dhcsrAddr)
		if err != nil || st != OK {
			return st, err
		}
		if dhcsr[1]&dhcsrSRegRdy != 0 {
			return OK, nil
		}
	}
	return ArmAccessError, nil
}

// ReadCoreReg reads Cortex-M core register n (r0-r15, xPSR, special) via
// DCRSR/DCRDR (spec.md §4.4).
func (s *Session) ReadCoreReg(n uint8) ([4]byte, Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dcrsr := [4]byte{0, dcrsrRead, 0, n & dcrsrRegMask}
	if st, err := s.coreRegOperation(dcrsr); err != nil || st != OK {
		var z [4]byte
		return z, st, err
	}
	return s.memReadLocked(dcrdrAddr)
}

// WriteCoreReg writes val to Cortex-M core register n via DCRDR/DCRSR
// (spec.md §4.4).
func (s *Session) WriteCoreReg(n uint8, val [4]byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, err := s.memWriteLocked(dcrdrAddr, val); err != nil || st != OK {
		return st, err
	}
	dcrsr := [4]byte{0, dcrsrWrite, 0, n & dcrsrRegMask}
	return s.coreRegOperation(dcrsr)
}

// Halt writes DHCSR with the debug key and C_HALT|C_DEBUGEN.
func (s *Session) Halt() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := [4]byte{dhcsrDbgKeyB0, dhcsrDbgKeyB1, 0, dhcsrCHalt | dhcsrCDebugen}
	return s.memWriteLocked(dhcsrAddr, v)
}

// Go writes DHCSR with the debug key and C_DEBUGEN only (resumes
// execution).
func (s *Session) Go() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := [4]byte{dhcsrDbgKeyB0, dhcsrDbgKeyB1, 0, dhcsrCDebugen}
	return s.memWriteLocked(dhcsrAddr, v)
}

// Step reads DHCSR, preserves C_MASKINTS, and writes back the debug key
// with C_STEP|C_DEBUGEN set (spec.md §4.4).
func (s *Session) Step() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, st, err := s.memReadLocked(dhcsrAddr)
	if err != nil || st != OK {
		return st, err
	}
	v := [4]byte{
		dhcsrDbgKeyB0,
		dhcsrDbgKeyB1,
		0,
		(cur[3] & dhcsrCMaskints) | dhcsrCStep | dhcsrCDebugen,
	}
	return s.memWriteLocked(dhcsrAddr, v)
}
