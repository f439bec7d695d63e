// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import "fmt"

// ElementSize is the AHB-AP transfer width for a memory block operation.
type ElementSize uint8

const (
	SizeByte ElementSize = 1
	SizeHalf ElementSize = 2
	SizeWord ElementSize = 4
)

// cswAutoIncPacked/cswIncSingle/ahbAPBank0 mirror the original source's
// cswValues[] lookup and SWD_AHB_AP_BANK0 constant.
const (
	cswAutoIncPacked = 0x40
	cswIncSingle     = 0x10 // AddrInc[5:4] = 01: auto-increment single
	ahbAPNum         = 0x00 // AP #0: AHB-AP, per spec.md's worked examples
)

const (
	ahbAPBank0 = APAddr(ahbAPNum) << 8 // DP.SELECT[31:24]=AP#, bank 0

	ahbCSW = ahbAPBank0 + (0x00 << 2)
	ahbTAR = ahbAPBank0 + (0x01 << 2)
	ahbDRW = ahbAPBank0 + (0x03 << 2)
)

func cswControlByte(size ElementSize) byte {
	var sizeField byte
	switch size {
	case SizeByte:
		sizeField = 0
	case SizeHalf:
		sizeField = 1
	case SizeWord:
		sizeField = 2
	}
	return cswAutoIncPacked | cswIncSingle | sizeField
}

// ensureCSWBaseline samples AP.CSW's device-dependent low byte the first
// time it is needed per connection (spec.md §4.3 "First-use baseline
// read"), via a posted read followed by a DP.RDBUFF drain. The caller is
// responsible for DP.SELECT already pointing at ahbAPBank0.
func (s *Session) ensureCSWBaseline() (Status, error) {
	if s.cswB0 != nil {
		return OK, nil
	}
	if _, st, err := s.readOpcode(readAPOpcode[ahbCSW.regIndex()]); err != nil || st != OK {
		return st, err
	}
	data, st, err := s.readOpcode(readDPOpcode[DPRdBuff])
	if err != nil || st != OK {
		return st, err
	}
	b := data[0]
	s.cswB0 = &b
	return OK, nil
}

func (s *Session) setupMemAccess(size ElementSize, addr [4]byte) (Status, error) {
	if st, err := s.writeDPLocked(DPSelect, ahbAPBank0.selectValue()); err != nil || st != OK {
		return st, err
	}
	if st, err := s.ensureCSWBaseline(); err != nil || st != OK {
		return st, err
	}
	csw := [4]byte{*s.cswB0, 0, 0, cswControlByte(size)}
	if st, err := s.writeOpcode(writeAPOpcode[ahbCSW.regIndex()], csw); err != nil || st != OK {
		return st, err
	}
	return s.writeOpcode(writeAPOpcode[ahbTAR.regIndex()], addr)
}

// WriteWord writes a single 32-bit value to target memory at addr.
func (s *Session) WriteWord(addr, data [4]byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memWriteLocked(addr, data)
}

// ReadWord reads a single 32-bit value from target memory at addr.
func (s *Session) ReadWord(addr [4]byte) ([4]byte, Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memReadLocked(addr)
}

// memWriteLocked/memReadLocked implement the single-word transfer
// (spec.md §4.3 write_word/read_word), callable with s.mu already held so
// the core-register engine (spec.md §4.4) can reuse them for DCRSR/DCRDR/
// DHCSR access without a second lock acquisition.
func (s *Session) memWriteLocked(addr, data [4]byte) (Status, error) {
	if st, err := s.setupMemAccess(SizeWord, addr); err != nil || st != OK {
		return st, err
	}
	return s.writeOpcode(writeAPOpcode[ahbDRW.regIndex()], data)
}

func (s *Session) memReadLocked(addr [4]byte) ([4]byte, Status, error) {
	var z [4]byte
	if st, err := s.setupMemAccess(SizeWord, addr); err != nil || st != OK {
		return z, st, err
	}
	// Discard the posted (dummy) read, then drain the real value from
	// DP.RDBUFF.
	if _, st, err := s.readOpcode(readAPOpcode[ahbDRW.regIndex()]); err != nil || st != OK {
		return z, st, err
	}
	return s.readOpcode(readDPOpcode[DPRdBuff])
}

// byteLane returns the buffer position (spec.md §4.3 byte-lane routing)
// for a byte written/read at address a.
func byteLane(a byte) int { return 3 - int(a&3) }

// halfLanes returns the two buffer positions, low byte first, for a
// halfword at address a&^1.
func halfLanes(a byte) (lo, hi int) {
	base := 3 - int(a&2)
	return base, base - 1
}

// WriteBlock writes count bytes from data to target memory starting at
// addr, using the given element size (spec.md §4.3).
func (s *Session) WriteBlock(size ElementSize, count int, addr [4]byte, data []byte) (Status, error) {
	if size == SizeHalf && addr[3]&1 != 0 {
		// spec.md §9: halfword accesses to an odd address are undefined in
		// the original and must be rejected here instead.
		return IllegalParams, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, err := s.setupMemAccess(size, addr); err != nil || st != OK {
		return st, err
	}
	a := addr[3]
	switch size {
	case SizeByte:
		for i := 0; i < count; i++ {
			var word [4]byte
			word[byteLane(a)] = data[i]
			if st, err := s.writeOpcode(writeAPOpcode[ahbDRW.regIndex()], word); err != nil || st != OK {
				return st, err
			}
			a++
		}
	case SizeHalf:
		n := count / 2
		for i := 0; i < n; i++ {
			var word [4]byte
			lo, hi := halfLanes(a)
			word[lo] = data[2*i]
			word[hi] = data[2*i+1]
			if st, err := s.writeOpcode(writeAPOpcode[ahbDRW.regIndex()], word); err != nil || st != OK {
				return st, err
			}
			a += 2
		}
	case SizeWord:
		n := count / 4
		for i := 0; i < n; i++ {
			var word [4]byte
			copy(word[:], data[4*i:4*i+4])
			if st, err := s.writeOpcode(writeAPOpcode[ahbDRW.regIndex()], word); err != nil || st != OK {
				return st, err
			}
			// All four lanes are always written for word size, so there is
			// no lane selector to advance (spec.md §9).
		}
	default:
		return 0, fmt.Errorf("swd: unknown element size %d", size)
	}
	return OK, nil
}

// ReadBlock reads count bytes of target memory starting at addr into out
// (len(out) must be >= count), using the given element size (spec.md
// §4.3). It enforces the count+1 <= MaxBufferElements bound before
// touching the wire.
func (s *Session) ReadBlock(size ElementSize, count int, addr [4]byte, out []byte, maxBufferElements int) (Status, error) {
	if count+1 > maxBufferElements {
		return IllegalParams, nil
	}
	if size == SizeHalf && addr[3]&1 != 0 {
		return IllegalParams, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, err := s.setupMemAccess(size, addr); err != nil || st != OK {
		return st, err
	}
	// First (posted) read is always discarded.
	if _, st, err := s.readOpcode(readAPOpcode[ahbDRW.regIndex()]); err != nil || st != OK {
		return st, err
	}
	a := addr[3]
	switch size {
	case SizeByte:
		for i := 0; i < count; i++ {
			word, st, err := s.readBlockElement(i == count-1)
			if err != nil || st != OK {
				return st, err
			}
			out[i] = word[byteLane(a)]
			a++
		}
	case SizeHalf:
		n := count / 2
		for i := 0; i < n; i++ {
			word, st, err := s.readBlockElement(i == n-1)
			if err != nil || st != OK {
				return st, err
			}
			lo, hi := halfLanes(a)
			out[2*i] = word[lo]
			out[2*i+1] = word[hi]
			a += 2
		}
	case SizeWord:
		n := count / 4
		for i := 0; i < n; i++ {
			word, st, err := s.readBlockElement(i == n-1)
			if err != nil || st != OK {
				return st, err
			}
			copy(out[4*i:4*i+4], word[:])
		}
	default:
		return 0, fmt.Errorf("swd: unknown element size %d", size)
	}
	return OK, nil
}

// readBlockElement reads one element of the pipeline: every element but
// the last is a DRW read that returns the previous element's data; the
// last comes from DP.RDBUFF (spec.md §4.3 "Read pipelining").
func (s *Session) readBlockElement(last bool) ([4]byte, Status, error) {
	if last {
		return s.readOpcode(readDPOpcode[DPRdBuff])
	}
	return s.readOpcode(readAPOpcode[ahbDRW.regIndex()])
}
