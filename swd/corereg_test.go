// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import (
	"testing"

	"github.com/usbdm-project/goswd/swdtest"
)

func TestHaltThenReadPC(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	if st, err := s.Halt(); err != nil || st != OK {
		t.Fatalf("Halt: %v, %v", st, err)
	}
	const pcRegNum = 15
	want := [4]byte{0x00, 0x00, 0x10, 0x08}
	if st, err := s.WriteCoreReg(pcRegNum, want); err != nil || st != OK {
		t.Fatalf("WriteCoreReg: %v, %v", st, err)
	}
	got, st, err := s.ReadCoreReg(pcRegNum)
	if err != nil {
		t.Fatalf("ReadCoreReg: %v", err)
	}
	if st != OK {
		t.Fatalf("ReadCoreReg status = %v, want OK", st)
	}
	if got != want {
		t.Fatalf("ReadCoreReg = %v, want %v", got, want)
	}
}

func TestStepPreservesMaskints(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	if st, err := s.Halt(); err != nil || st != OK {
		t.Fatalf("Halt: %v, %v", st, err)
	}
	dhcsr, st, err := s.ReadWord(dhcsrAddr)
	if err != nil || st != OK {
		t.Fatalf("ReadWord(DHCSR): %v, %v", st, err)
	}
	dhcsr[3] |= dhcsrCMaskints
	if st, err := s.WriteWord(dhcsrAddr, dhcsr); err != nil || st != OK {
		t.Fatalf("WriteWord(DHCSR): %v, %v", st, err)
	}
	if st, err := s.Step(); err != nil || st != OK {
		t.Fatalf("Step: %v, %v", st, err)
	}
	after, st, err := s.ReadWord(dhcsrAddr)
	if err != nil || st != OK {
		t.Fatalf("ReadWord(DHCSR) after Step: %v, %v", st, err)
	}
	if after[3]&dhcsrCMaskints == 0 {
		t.Fatalf("Step cleared C_MASKINTS, want it preserved")
	}
	if after[3]&dhcsrCStep == 0 {
		t.Fatalf("Step did not set C_STEP")
	}
}

func TestReadCoreRegNeverReadyIsArmAccessError(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	// Clear S_REGRDY so the poll loop in coreRegOperation never sees the
	// register transfer complete, exercising the bounded-retry exhaustion
	// path (spec.md §4.4, "bounded to 40 attempts").
	notReady := [4]byte{dhcsrDbgKeyB0, dhcsrDbgKeyB1 &^ dhcsrSRegRdy, 0, dhcsrCDebugen}
	if st, err := s.WriteWord(dhcsrAddr, notReady); err != nil || st != OK {
		t.Fatalf("WriteWord(DHCSR): %v, %v", st, err)
	}
	_, st, err := s.ReadCoreReg(0)
	if err != nil {
		t.Fatalf("ReadCoreReg: %v", err)
	}
	if st != ArmAccessError {
		t.Fatalf("ReadCoreReg status = %v, want ArmAccessError", st)
	}
}
