// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// +build !goswd_debug

package swd

// logf is disabled when the build tag goswd_debug is not specified.
func logf(fmt string, v ...interface{}) {
}
