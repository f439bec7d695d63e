// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import (
	"testing"

	"github.com/usbdm-project/goswd/swdtest"
)

func newConnectedSession(t *testing.T, target *swdtest.Target) *Session {
	t.Helper()
	s := NewSession(NewLine(target, DefaultConfig()))
	st, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if st != OK {
		t.Fatalf("Connect status = %v, want OK", st)
	}
	return s
}

func TestConnectReadIDCode(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	data, st, err := s.ReadDP(DPIDCode)
	if err != nil {
		t.Fatalf("ReadDP: %v", err)
	}
	if st != OK {
		t.Fatalf("ReadDP status = %v, want OK", st)
	}
	if got := decodeWord(data); got != 0x2ba01477 {
		t.Fatalf("IDCODE = %#x, want 0x2ba01477", got)
	}
}

func TestConnectClearsStickyAfterFault(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	target.ForceFaultOnce()
	s := NewSession(NewLine(target, DefaultConfig()))
	// The IDCODE read itself reports the fault...
	st, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if st != ArmFaultError {
		t.Fatalf("Connect status = %v, want ArmFaultError", st)
	}
	if !target.StickyError() {
		t.Fatalf("target should have a latched sticky error after FAULT")
	}
	// ... so the caller retries Connect, which unconditionally clears it.
	st, err = s.Connect()
	if err != nil {
		t.Fatalf("Connect (retry): %v", err)
	}
	if st != OK {
		t.Fatalf("Connect (retry) status = %v, want OK", st)
	}
	if target.StickyError() {
		t.Fatalf("sticky error should be cleared after a clean Connect")
	}
}

func TestOffIdlesLine(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	if err := s.Off(); err != nil {
		t.Fatalf("Off: %v", err)
	}
}
