// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dispatch implements the Command Dispatcher Facade (spec.md §4.5,
// §6.1): it unmarshals the fixed-layout command buffer the outer,
// out-of-scope USB command loop hands it, invokes the swd package, and
// marshals the reply back into the same buffer.
package dispatch

import "github.com/usbdm-project/goswd/swd"

// Command identifies the operation requested in buf[0].
type Command byte

// The command set from spec.md §6.1, in the order the original
// CmdProcessingSWD.c defines its f_CMD_SWD_* handlers.
const (
	CmdConnect Command = iota + 1
	CmdWriteDReg
	CmdReadDReg
	CmdWriteCReg
	CmdReadCReg
	CmdWriteMem
	CmdReadMem
	CmdReadReg
	CmdWriteReg
	CmdTargetHalt
	CmdTargetGo
	CmdTargetStep
)

// MaxCommandSize bounds the command buffer (spec.md §4.3 "Upper bound"),
// sized to a realistic USB full-speed control/bulk transfer.
const MaxCommandSize = 64

// Dispatch is the single entry point the outer command loop calls: buf[0]
// selects the handler, buf[1] is reserved for the outer dispatcher (not
// read here). It returns the reply length; per spec.md §3 invariant,
// reply_length (and any reply payload) is only meaningful when buf[0] on
// return is swd.OK.
func Dispatch(s *swd.Session, buf []byte) int {
	if len(buf) < 4 {
		buf[0] = byte(swd.IllegalParams)
		return 1
	}
	cmd := Command(buf[0])
	h, ok := handlers[cmd]
	if !ok {
		buf[0] = byte(swd.IllegalParams)
		return 1
	}
	n, st, err := h(s, buf)
	if err != nil {
		buf[0] = byte(swd.NoConnection)
		return 1
	}
	buf[0] = byte(st)
	if st != swd.OK {
		return 1
	}
	return n
}

// handlerFunc unmarshals buf, invokes s, and marshals the reply payload
// starting at buf[1]. It returns the total reply length (status byte
// included) to use on an OK outcome.
type handlerFunc func(s *swd.Session, buf []byte) (replyLen int, st swd.Status, err error)

var handlers = map[Command]handlerFunc{
	CmdConnect:    handleConnect,
	CmdWriteDReg:  handleWriteDReg,
	CmdReadDReg:   handleReadDReg,
	CmdWriteCReg:  handleWriteCReg,
	CmdReadCReg:   handleReadCReg,
	CmdWriteMem:   handleWriteMem,
	CmdReadMem:    handleReadMem,
	CmdReadReg:    handleReadReg,
	CmdWriteReg:   handleWriteReg,
	CmdTargetHalt: handleTargetHalt,
	CmdTargetGo:   handleTargetGo,
	CmdTargetStep: handleTargetStep,
}

func handleConnect(s *swd.Session, buf []byte) (int, swd.Status, error) {
	st, err := s.Connect()
	return 1, st, err
}

// readDPOrder/writeDPOrder map the 2-bit buf[3] register selector onto
// swd.DPReg exactly as the original's local writeDP[]/readDP[] arrays do.
var readDPOrder = [4]swd.DPReg{swd.DPIDCode, swd.DPControl, swd.DPResend, swd.DPRdBuff}
var writeDPOrder = [4]swd.DPReg{swd.DPAbort, swd.DPControl, swd.DPSelect, swd.DPSelect}

func handleWriteDReg(s *swd.Session, buf []byte) (int, swd.Status, error) {
	if len(buf) < 8 {
		return 1, swd.IllegalParams, nil
	}
	reg := writeDPOrder[buf[3]&0x3]
	var val [4]byte
	copy(val[:], buf[4:8])
	st, err := s.WriteDP(reg, val)
	return 1, st, err
}

func handleReadDReg(s *swd.Session, buf []byte) (int, swd.Status, error) {
	reg := readDPOrder[buf[3]&0x3]
	val, st, err := s.ReadDP(reg)
	if err != nil || st != swd.OK {
		return 1, st, err
	}
	copy(buf[1:5], val[:])
	return 5, st, err
}

// apAddr decodes the 16-bit AP address from buf[2:4), high byte first, as
// swd_writeAPReg/swd_readAPReg's `address` pointer does.
func apAddr(buf []byte) swd.APAddr {
	return swd.APAddr(buf[2])<<8 | swd.APAddr(buf[3])
}

func handleWriteCReg(s *swd.Session, buf []byte) (int, swd.Status, error) {
	if len(buf) < 8 {
		return 1, swd.IllegalParams, nil
	}
	var val [4]byte
	copy(val[:], buf[4:8])
	st, err := s.WriteAP(apAddr(buf), val)
	return 1, st, err
}

func handleReadCReg(s *swd.Session, buf []byte) (int, swd.Status, error) {
	val, st, err := s.ReadAP(apAddr(buf))
	if err != nil || st != swd.OK {
		return 1, st, err
	}
	copy(buf[1:5], val[:])
	return 5, st, err
}

func handleWriteMem(s *swd.Session, buf []byte) (int, swd.Status, error) {
	if len(buf) < 8 {
		return 1, swd.IllegalParams, nil
	}
	size := swd.ElementSize(buf[2])
	count := int(buf[3])
	var addr [4]byte
	copy(addr[:], buf[4:8])
	if len(buf) < 8+count {
		return 1, swd.IllegalParams, nil
	}
	st, err := s.WriteBlock(size, count, addr, buf[8:8+count])
	return 1, st, err
}

func handleReadMem(s *swd.Session, buf []byte) (int, swd.Status, error) {
	if len(buf) < 8 {
		return 1, swd.IllegalParams, nil
	}
	size := swd.ElementSize(buf[2])
	count := int(buf[3])
	var addr [4]byte
	copy(addr[:], buf[4:8])
	// Mirrors f_CMD_SWD_READ_MEM's `count > MAX_COMMAND_SIZE-1` check: the
	// reply (status byte + count data bytes) must fit in the buffer.
	if count+1 > len(buf) {
		return 1, swd.IllegalParams, nil
	}
	st, err := s.ReadBlock(size, count, addr, buf[1:1+count], MaxCommandSize)
	if err != nil || st != swd.OK {
		return 1, st, err
	}
	return count + 1, st, err
}

func handleReadReg(s *swd.Session, buf []byte) (int, swd.Status, error) {
	val, st, err := s.ReadCoreReg(buf[3])
	if err != nil || st != swd.OK {
		return 1, st, err
	}
	copy(buf[1:5], val[:])
	return 5, st, err
}

func handleWriteReg(s *swd.Session, buf []byte) (int, swd.Status, error) {
	if len(buf) < 8 {
		return 1, swd.IllegalParams, nil
	}
	var val [4]byte
	copy(val[:], buf[4:8])
	st, err := s.WriteCoreReg(buf[3], val)
	return 1, st, err
}

func handleTargetHalt(s *swd.Session, buf []byte) (int, swd.Status, error) {
	st, err := s.Halt()
	return 1, st, err
}

func handleTargetGo(s *swd.Session, buf []byte) (int, swd.Status, error) {
	st, err := s.Go()
	return 1, st, err
}

func handleTargetStep(s *swd.Session, buf []byte) (int, swd.Status, error) {
	st, err := s.Step()
	return 1, st, err
}
