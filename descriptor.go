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
	"encoding/binary"
	"fmt"
)

// Descriptor is the self-description blob the token returns on reset.
//
// Known layout (example 0d 63 00 06 2d 2d c0 80 80 60 80 01 19):
//
//	[0]    total length, 6 <= x <= 0x40, must equal the blob's own length
//	[1]    version/type tag, 0x60 <= x <= 0x6F
//	[2:4]  firmware version
//	[4:6]  unknown
//	[6]    unknown (optional from here on)
//	[7]    flags; bit 2 indicates auto-flashing LED availability
//	[8:C]  unknown
//	[C]    ATR length hint, 9 or 25
//
// Bytes marked unknown are preserved opaque; only the documented ones are
// exposed through accessors.
type Descriptor []byte

// Descriptor layout constants
const (
	descriptorMinLen     = 6
	descriptorMaxLen     = 0x40
	descriptorTagMin     = 0x60
	descriptorTagMax     = 0x6F
	descriptorFlagOffset = 0x07
	descriptorHintOffset = 0x0C

	descriptorFlagAutoFlashLED = 0x04

	// ATR lengths the token can produce
	atrLenLong  = 25
	atrLenShort = 9
)

// Validate checks the descriptor against its structural constraints. It is
// a pure function: no I/O, no side effects. All errors wrap
// ErrMalformedDescriptor.
func (d Descriptor) Validate() error {
	n := len(d)
	if n < descriptorMinLen || n > descriptorMaxLen {
		return fmt.Errorf("%w: length %d outside [%d, %#x]",
			ErrMalformedDescriptor, n, descriptorMinLen, descriptorMaxLen)
	}
	if int(d[0]) != n {
		return fmt.Errorf("%w: length byte %#02x does not match actual length %d",
			ErrMalformedDescriptor, d[0], n)
	}
	if d[1] < descriptorTagMin || d[1] > descriptorTagMax {
		return fmt.Errorf("%w: tag byte %#02x outside [%#02x, %#02x]",
			ErrMalformedDescriptor, d[1], descriptorTagMin, descriptorTagMax)
	}
	if n > descriptorHintOffset &&
		d[descriptorHintOffset] != atrLenShort && d[descriptorHintOffset] != atrLenLong {
		return fmt.Errorf("%w: ATR length hint %d is neither %d nor %d",
			ErrMalformedDescriptor, d[descriptorHintOffset], atrLenShort, atrLenLong)
	}
	return nil
}

// FirmwareVersion returns the firmware version word, or 0 if the descriptor
// is too short to carry one.
func (d Descriptor) FirmwareVersion() uint16 {
	if len(d) < 4 {
		return 0
	}
	return binary.BigEndian.Uint16(d[2:4])
}

// HasAutoFlashLED reports whether the token advertises an auto-flashing LED.
func (d Descriptor) HasAutoFlashLED() bool {
	if len(d) <= descriptorFlagOffset {
		return false
	}
	return d[descriptorFlagOffset]&descriptorFlagAutoFlashLED != 0
}

// ATRLengthHint returns the ATR length the token expects to produce (9 or
// 25), or 0 if the descriptor is too short to carry the hint.
func (d Descriptor) ATRLengthHint() int {
	if len(d) <= descriptorHintOffset {
		return 0
	}
	return int(d[descriptorHintOffset])
}
