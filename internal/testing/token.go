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

// Package testing provides a simulated iKey 2032 token for tests.
package testing

// Request codes and frame constants, mirrored locally so the package can be
// imported by the parent package's tests without a cycle.
const (
	CmdReset       = 0x00
	CmdGetResponse = 0x01
	CmdGetStatus   = 0x02
	CmdLEDControl  = 0x03
	CmdGenRandom   = 0x12
	CmdCardControl = 0x16
	CmdCardIO      = 0x17

	CardReset    = 0x00
	CardGetATR   = 0x01
	CardExchange = 0x03

	requestTypeOut = 0x41
	requestTypeIn  = 0xC1

	atrLenLong  = 25
	atrLenShort = 9
)

// Canned fixtures
var (
	// TestDescriptor is a captured 13-byte token descriptor: length 0x0d,
	// tag 0x63, firmware 0x0006, ATR length hint 25.
	TestDescriptor = []byte{
		0x0d, 0x63, 0x00, 0x06, 0x2d, 0x2d, 0xc0,
		0x80, 0x80, 0x60, 0x80, 0x01, 0x19,
	}

	// TestLongATR is a 25-byte ATR
	TestLongATR = []byte{
		0x3B, 0xBF, 0x18, 0x00, 0x80, 0x31, 0x70, 0x35,
		0x53, 0x54, 0x41, 0x52, 0x43, 0x4F, 0x53, 0x20,
		0x53, 0x32, 0x31, 0x20, 0x43, 0x90, 0x00, 0x74, 0x21,
	}

	// TestShortATR is a 9-byte ATR
	TestShortATR = []byte{0x3B, 0x05, 0x41, 0x42, 0x43, 0x44, 0x45, 0x90, 0x00}
)

// VirtualToken simulates the device side of the iKey 2032 command protocol.
// Wire it to a transport mock via HandleControl and configure fields to
// exercise failure paths.
type VirtualToken struct {
	// Descriptor is returned for a device reset
	Descriptor []byte
	// LongATR and ShortATR are the 25- and 9-byte ATRs
	LongATR  []byte
	ShortATR []byte
	// CardResetStatus is the response to a card reset; a successful reset
	// produces the single byte 0x00
	CardResetStatus []byte
	// StatusBlock is the response to a device status read
	StatusBlock []byte
	// ExchangeFunc produces the card's answer to raw card I/O. The default
	// answers 90 00.
	ExchangeFunc func(data []byte) []byte
	// GetATRCalls records the argument byte of every ATR request
	GetATRCalls []byte
	// LEDMode is the last mode set through LED control
	LEDMode byte
	// SupportsLongATR selects whether a 25-byte ATR request is honored;
	// when false the token answers with the short ATR, forcing the host's
	// fallback
	SupportsLongATR bool
	// FailCardReset makes card resets produce an empty response
	FailCardReset bool

	pending []byte
}

// NewVirtualToken creates a token with the canned fixtures and a working
// card
func NewVirtualToken() *VirtualToken {
	return &VirtualToken{
		Descriptor:      TestDescriptor,
		LongATR:         TestLongATR,
		ShortATR:        TestShortATR,
		SupportsLongATR: true,
		CardResetStatus: []byte{0x00},
		StatusBlock:     []byte{0x01, 0x00, 0x00, 0x00},
	}
}

// HandleControl implements the device side of one control transfer. Its
// signature matches the transport mock's ControlFunc.
func (v *VirtualToken) HandleControl(requestType, request byte, value, index uint16,
	buf []byte,
) (int, error) {
	if requestType == requestTypeIn {
		switch request {
		case CmdReset:
			return copy(buf, v.Descriptor), nil
		case CmdGetResponse:
			n := copy(buf, v.pending)
			v.pending = nil
			return n, nil
		}
		return 0, nil
	}

	switch request {
	case CmdCardControl:
		// The envelope's first two bytes travel in wValue
		v.handleCardControl(byte(value), byte(value>>8), index, buf)
	case CmdCardIO:
		v.pending = v.exchange(rebuildFrame(value, index, buf))
	case CmdLEDControl:
		v.LEDMode = byte(value)
	case CmdGenRandom:
		n := int(byte(value))
		out := make([]byte, n)
		for i := range out {
			out[i] = byte(i*7 + 3)
		}
		v.pending = out
	case CmdGetStatus:
		v.pending = v.StatusBlock
	}
	return len(buf), nil
}

func (v *VirtualToken) handleCardControl(sub, arg byte, index uint16, payload []byte) {
	switch sub {
	case CardReset:
		if v.FailCardReset {
			v.pending = nil
		} else {
			v.pending = v.CardResetStatus
		}
	case CardGetATR:
		v.GetATRCalls = append(v.GetATRCalls, arg)
		if arg == atrLenLong && v.SupportsLongATR {
			v.pending = v.LongATR
		} else {
			v.pending = v.ShortATR
		}
	case CardExchange:
		// Envelope payload continues in wIndex and the transfer payload
		data := append([]byte{byte(index), byte(index >> 8)}, payload...)
		v.pending = v.exchange(data)
	}
}

func (v *VirtualToken) exchange(data []byte) []byte {
	if v.ExchangeFunc != nil {
		return v.ExchangeFunc(data)
	}
	return []byte{0x90, 0x00}
}

// rebuildFrame reassembles the logical outgoing buffer from the header
// fields and the transfer payload
func rebuildFrame(value, index uint16, payload []byte) []byte {
	frame := make([]byte, 0, 4+len(payload))
	frame = append(frame,
		byte(value), byte(value>>8),
		byte(index), byte(index>>8))
	return append(frame, payload...)
}
