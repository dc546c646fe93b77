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

// DeviceCommand identifies a device-level operation. It travels as the
// bRequest byte of a control transfer. The set is closed; values 17, 19, 20
// and 21 are reserved by the device and have no declared constant.
type DeviceCommand byte

// iKey 2032 device command codes
const (
	// CmdReset resets the token; the response is the token descriptor.
	CmdReset DeviceCommand = 0
	// CmdGetResponse fetches the pending result of the previous command.
	// Every command's output, when it has any, is pulled through this code.
	CmdGetResponse DeviceCommand = 1
	// CmdGetStatus reads the device status block.
	CmdGetStatus DeviceCommand = 2
	// CmdLEDControl sets the token LED mode.
	CmdLEDControl DeviceCommand = 3
	// CmdDirectory lists the on-token file system. Wire contract unknown.
	CmdDirectory DeviceCommand = 4
	// CmdOpenFile through CmdDeleteFile operate on the on-token file
	// system. Their wire contracts are undocumented; the constants exist
	// so captured traffic can be named, but no method drives them.
	CmdOpenFile   DeviceCommand = 5
	CmdCloseFile  DeviceCommand = 6
	CmdReadFile   DeviceCommand = 7
	CmdWriteFile  DeviceCommand = 8
	CmdDecrement  DeviceCommand = 9
	CmdCreateDir  DeviceCommand = 10
	CmdCreateFile DeviceCommand = 11
	CmdDeleteDir  DeviceCommand = 12
	CmdDeleteFile DeviceCommand = 13
	// CmdVerify1, CmdVerify2 and CmdHash relate to PIN verification and
	// hashing. Wire contracts unknown.
	CmdVerify1 DeviceCommand = 14
	CmdVerify2 DeviceCommand = 15
	CmdHash    DeviceCommand = 16
	// CmdGenRandom asks the token for random bytes.
	CmdGenRandom DeviceCommand = 18
	// CmdCardControl carries a card sub-command envelope (see CardCommand).
	CmdCardControl DeviceCommand = 22
	// CmdCardIO transmits raw bytes to the card, bypassing the sub-command
	// envelope.
	CmdCardIO DeviceCommand = 23
)

// CardCommand identifies a card-level operation nested inside a
// CmdCardControl envelope. It occupies the first byte of the envelope,
// followed by a single argument byte.
type CardCommand byte

// Card sub-command codes
const (
	// CardReset powers the card down and back up. A successful reset
	// produces a single zero status byte.
	CardReset CardCommand = 0x00
	// CardGetATR retrieves the card's Answer-To-Reset. The argument byte
	// selects the expected ATR length (25 or 9).
	CardGetATR CardCommand = 0x01
	// CardUnknown is implemented by the device but its purpose is unknown.
	CardUnknown CardCommand = 0x02
	// CardExchange exchanges data with the card through the envelope.
	CardExchange CardCommand = 0x03
)
