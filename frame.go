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

import "encoding/binary"

// Control transfer constants
const (
	// requestTypeOut is the bmRequestType for host-to-device transfers.
	requestTypeOut = 0x41
	// requestTypeIn is the bmRequestType for device-to-host transfers.
	requestTypeIn = 0xC1

	// headerLen is the number of leading bytes of an outgoing buffer that
	// travel in the wValue/wIndex fields instead of the payload.
	headerLen = 4

	// cardCtlFrameSize is the size of the card-control envelope.
	cardCtlFrameSize = 256
	// CardCtlMaxData is the maximum payload a card-control envelope can
	// carry after its two header bytes. Longer input is truncated; see
	// buildCardCtlFrame.
	CardCtlMaxData = cardCtlFrameSize - 2
)

// packHeader folds up to the first four bytes of data into the control
// transfer's value and index fields, low byte first, value before index.
// The remaining bytes, if any, are returned as the transfer payload; the
// consumed bytes are never transmitted again.
func packHeader(data []byte) (value, index uint16, payload []byte) {
	var hdr [headerLen]byte
	n := copy(hdr[:], data)
	value = binary.LittleEndian.Uint16(hdr[0:2])
	index = binary.LittleEndian.Uint16(hdr[2:4])
	return value, index, data[n:]
}

// buildCardCtlFrame builds the CmdCardControl envelope: sub-command byte,
// argument byte, then the payload. Payload beyond CardCtlMaxData is dropped;
// the device cannot accept a larger envelope, and the original device design
// clips rather than rejects. Callers that must not lose bytes check
// len(data) <= CardCtlMaxData first.
func buildCardCtlFrame(cmd CardCommand, arg byte, data []byte) []byte {
	n := len(data)
	if n > CardCtlMaxData {
		debugf("card-control payload truncated from %d to %d bytes", n, CardCtlMaxData)
		n = CardCtlMaxData
	}
	frame := make([]byte, 2+n)
	frame[0] = byte(cmd)
	frame[1] = arg
	copy(frame[2:], data[:n])
	return frame
}
