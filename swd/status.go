// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import "strconv"

// Status is the outcome of an SWD transaction, surfaced to the host in the
// command buffer's status byte.
type Status uint8

// Status codes. Values match the ones enumerated in the command buffer
// protocol; IllegalParams and ArmAccess are not given explicit numbers
// there (see DESIGN.md), so they are assigned the next free codes after
// ArmFault.
const (
	OK             Status = 0
	NoConnection   Status = 5
	AckTimeout     Status = 30
	ArmParityError Status = 51
	ArmFaultError  Status = 52
	ArmAccessError Status = 53
	IllegalParams  Status = 54
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case NoConnection:
		return "NO_CONNECTION"
	case AckTimeout:
		return "ACK_TIMEOUT"
	case ArmParityError:
		return "ARM_PARITY_ERROR"
	case ArmFaultError:
		return "ARM_FAULT_ERROR"
	case ArmAccessError:
		return "ARM_ACCESS_ERROR"
	case IllegalParams:
		return "ILLEGAL_PARAMS"
	default:
		return "STATUS(" + strconv.Itoa(int(s)) + ")"
	}
}

// Error implements the error interface so a non-OK Status can be returned
// and compared directly with errors.Is/errors.As callers that only care
// about the code.
func (s Status) Error() string {
	return "swd: " + s.String()
}

// Ok reports whether s is the success status.
func (s Status) Ok() bool {
	return s == OK
}
