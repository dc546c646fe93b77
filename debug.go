// go-ikey2k
// Copyright (c) 2025 The ifdtools Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ikey2k.
//
// go-ikey2k is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ikey2k is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ikey2k; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package ikey2k

import (
	"log"
	"os"
	"sync/atomic"
)

var debugEnabled atomic.Bool

func init() {
	if os.Getenv("IKEY2K_DEBUG") == "1" {
		debugEnabled.Store(true)
	}
}

// SetDebugEnabled enables or disables debug logging. Debug output is purely
// informational and never affects control flow. It can also be enabled by
// setting IKEY2K_DEBUG=1 in the environment.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

func debugf(format string, args ...any) {
	if debugEnabled.Load() {
		log.Printf("ikey2k: "+format, args...)
	}
}

func debugln(args ...any) {
	if debugEnabled.Load() {
		log.Println(append([]any{"ikey2k:"}, args...)...)
	}
}
