// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import (
	"bytes"
	"testing"

	"github.com/usbdm-project/goswd/swdtest"
)

func TestWriteReadWord(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	addr := [4]byte{0x20, 0x00, 0x00, 0x10}
	want := [4]byte{0xde, 0xad, 0xbe, 0xef}
	if st, err := s.WriteWord(addr, want); err != nil || st != OK {
		t.Fatalf("WriteWord: %v, %v", st, err)
	}
	got, st, err := s.ReadWord(addr)
	if err != nil || st != OK {
		t.Fatalf("ReadWord: %v, %v", st, err)
	}
	if got != want {
		t.Fatalf("ReadWord = %v, want %v", got, want)
	}
}

func TestWriteBlockByteLaneRouting(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	addr := [4]byte{0x20, 0x00, 0x00, 0x11}
	data := []byte{0xaa, 0xbb, 0xcc}
	if st, err := s.WriteBlock(SizeByte, len(data), addr, data); err != nil || st != OK {
		t.Fatalf("WriteBlock: %v, %v", st, err)
	}
	got := target.ReadMem(0x20000011, 3)
	if !bytes.Equal(got, data) {
		t.Fatalf("target mem = %v, want %v", got, data)
	}
}

func TestWriteBlockHalfwordOddAddress(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	addr := [4]byte{0x20, 0x00, 0x00, 0x01}
	st, err := s.WriteBlock(SizeHalf, 2, addr, []byte{0, 0})
	if err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if st != IllegalParams {
		t.Fatalf("WriteBlock status = %v, want IllegalParams", st)
	}
}

func TestReadBlockWordSixteenBytes(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	seed := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c,
		0x0d, 0x0e, 0x0f, 0x10,
	}
	target.WriteMem(0x20000000, seed)
	s := newConnectedSession(t, target)
	addr := [4]byte{0x20, 0x00, 0x00, 0x00}
	out := make([]byte, 16)
	st, err := s.ReadBlock(SizeWord, 16, addr, out, 64)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if st != OK {
		t.Fatalf("ReadBlock status = %v, want OK", st)
	}
	// Each word comes back MS-byte-first (byte index 3 == bits[7:0]), so the
	// little-endian memory bytes of every word appear reversed.
	want := []byte{
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05,
		0x0c, 0x0b, 0x0a, 0x09,
		0x10, 0x0f, 0x0e, 0x0d,
	}
	if !bytes.Equal(out, want) {
		t.Fatalf("ReadBlock = %v, want %v", out, want)
	}
}

func TestReadBlockExceedsBuffer(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	addr := [4]byte{0x20, 0x00, 0x00, 0x00}
	out := make([]byte, 64)
	st, err := s.ReadBlock(SizeByte, 64, addr, out, 64)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if st != IllegalParams {
		t.Fatalf("ReadBlock status = %v, want IllegalParams (count+1 > max)", st)
	}
}

func TestReadBlockAtBufferBoundary(t *testing.T) {
	target := swdtest.NewTarget(0x2ba01477)
	s := newConnectedSession(t, target)
	addr := [4]byte{0x20, 0x00, 0x00, 0x00}
	out := make([]byte, 63)
	st, err := s.ReadBlock(SizeByte, 63, addr, out, 64)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if st != OK {
		t.Fatalf("ReadBlock status = %v, want OK (count+1 == max)", st)
	}
}
