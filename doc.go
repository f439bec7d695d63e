// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package goswd implements the ARM Serial Wire Debug command processor of a
// USB-attached background-debug-mode probe.
//
// It bridges a host command buffer protocol to the SWD two-wire debug
// protocol spoken by an ARM Cortex-M target: the line protocol engine lives
// in package swd, hardware backends in swdhal/bitbang and swdhal/mpsse, and
// the host command buffer protocol in package dispatch. Package swdprobe
// registers a backend's pins with periph's host-wide gpioreg/pinreg
// registries so other periph-aware tools can discover a connected probe.
//
// # More details
//
// See the ARM Debug Interface Architecture Specification for the wire
// protocol this package implements.
package goswd
