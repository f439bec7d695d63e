// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dispatch

import (
	"testing"

	"github.com/usbdm-project/goswd/swd"
	"github.com/usbdm-project/goswd/swdtest"
)

func newSession(idcode uint32) (*swd.Session, *swdtest.Target) {
	target := swdtest.NewTarget(idcode)
	s := swd.NewSession(swd.NewLine(target, swd.DefaultConfig()))
	return s, target
}

func connect(t *testing.T, s *swd.Session) {
	t.Helper()
	buf := make([]byte, MaxCommandSize)
	buf[0] = byte(CmdConnect)
	n := Dispatch(s, buf)
	if n != 1 || buf[0] != byte(swd.OK) {
		t.Fatalf("CmdConnect: n=%d status=%d, want OK", n, buf[0])
	}
}

func TestDispatchConnectAndReadIDCode(t *testing.T) {
	s, _ := newSession(0x2ba01477)
	connect(t, s)

	buf := make([]byte, MaxCommandSize)
	buf[0] = byte(CmdReadDReg)
	buf[3] = 0 // IDCODE
	n := Dispatch(s, buf)
	if n != 5 {
		t.Fatalf("CmdReadDReg reply length = %d, want 5", n)
	}
	if buf[0] != byte(swd.OK) {
		t.Fatalf("CmdReadDReg status = %d, want OK", buf[0])
	}
	got := uint32(buf[1])<<24 | uint32(buf[2])<<16 | uint32(buf[3])<<8 | uint32(buf[4])
	if got != 0x2ba01477 {
		t.Fatalf("IDCODE = %#x, want 0x2ba01477", got)
	}
}

func TestDispatchMemoryWriteThenRead(t *testing.T) {
	s, _ := newSession(0x2ba01477)
	connect(t, s)

	write := make([]byte, MaxCommandSize)
	write[0] = byte(CmdWriteMem)
	write[2] = byte(swd.SizeWord)
	write[3] = 4
	copy(write[4:8], []byte{0x20, 0x00, 0x00, 0x00})
	copy(write[8:12], []byte{0xca, 0xfe, 0xba, 0xbe})
	if n := Dispatch(s, write); n != 1 || write[0] != byte(swd.OK) {
		t.Fatalf("CmdWriteMem: n=%d status=%d, want OK", n, write[0])
	}

	read := make([]byte, MaxCommandSize)
	read[0] = byte(CmdReadMem)
	read[2] = byte(swd.SizeWord)
	read[3] = 4
	copy(read[4:8], []byte{0x20, 0x00, 0x00, 0x00})
	n := Dispatch(s, read)
	if read[0] != byte(swd.OK) {
		t.Fatalf("CmdReadMem status = %d, want OK", read[0])
	}
	if n != 5 {
		t.Fatalf("CmdReadMem reply length = %d, want 5", n)
	}
	want := []byte{0xca, 0xfe, 0xba, 0xbe}
	for i, b := range want {
		if read[1+i] != b {
			t.Fatalf("CmdReadMem data[%d] = %#x, want %#x", i, read[1+i], b)
		}
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s, _ := newSession(0x2ba01477)
	buf := make([]byte, MaxCommandSize)
	buf[0] = 0xff
	n := Dispatch(s, buf)
	if n != 1 || buf[0] != byte(swd.IllegalParams) {
		t.Fatalf("unknown command: n=%d status=%d, want IllegalParams", n, buf[0])
	}
}

func TestDispatchHaltGoStep(t *testing.T) {
	s, _ := newSession(0x2ba01477)
	connect(t, s)

	for _, cmd := range []Command{CmdTargetHalt, CmdTargetStep, CmdTargetGo} {
		buf := make([]byte, MaxCommandSize)
		buf[0] = byte(cmd)
		if n := Dispatch(s, buf); n != 1 || buf[0] != byte(swd.OK) {
			t.Fatalf("command %d: n=%d status=%d, want OK", cmd, n, buf[0])
		}
	}
}
