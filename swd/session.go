// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import "sync"

// Session is the per-connection state the original source kept in a global
// mutable csw_b0 byte (spec.md §9). Its lifetime is one `connect` through
// the next `connect` or `off`; the zero-sentinel for "not yet sampled" is
// replaced here by an explicit *byte.
type Session struct {
	mu   sync.Mutex
	line *Line

	enabled bool
	cswB0   *byte // nil until the memory engine samples it
}

// NewSession wires a Line Driver into a fresh, unconnected Session.
func NewSession(line *Line) *Session {
	return &Session{line: line}
}

// Connect performs the JTAG-to-SWD sequence, 8 idle clocks, reads IDCODE,
// clears sticky errors, and resets the csw_b0 cache (spec.md §3, §6.1
// SWD_CONNECT). IDCODE's value is discarded by design: spec.md only
// requires the read to succeed, it does not surface IDCODE to the caller
// of Connect (SWD_READ_DREG does that on demand).
func (s *Session) Connect() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cswB0 = nil
	if err := s.line.Init(); err != nil {
		return 0, err
	}
	if err := s.line.JTAGToSWD(); err != nil {
		return 0, err
	}
	if err := s.line.TxIdle(8); err != nil {
		return 0, err
	}
	st, err := s.readDPLocked(DPIDCode)
	if err != nil {
		return 0, err
	}
	if st != OK {
		return st, nil
	}
	s.enabled = true
	// clear_sticky is issued on every connect whose IDCODE read succeeded,
	// without first checking DP.STATUS; a failed IDCODE read returns above
	// before any ABORT write.
	return s.clearStickyLocked()
}

// Off discards all per-connection state and idles the line (spec.md §3
// Lifecycle: "implicitly discarded by ... `off`").
func (s *Session) Off() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.cswB0 = nil
	return s.line.Idle()
}
