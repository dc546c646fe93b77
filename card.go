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

// cardExec runs one card sub-command: the (sub-command, argument) header and
// the payload are wrapped in a CmdCardControl envelope and dispatched as a
// regular device command. The response, if requested, is fetched via
// CmdGetResponse like any other.
func (d *Device) cardExec(cmd CardCommand, arg byte, in, out []byte) (int, error) {
	frame := buildCardCtlFrame(cmd, arg, in)
	return d.execute(CmdCardControl, frame, out)
}

// CardSend transmits raw bytes to the card through CmdCardIO, bypassing the
// sub-command envelope. The matching response is read with CardRecv.
func (d *Device) CardSend(data []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.send(CmdCardIO, data)
}

// CardRecv reads the card's pending response into buf.
func (d *Device) CardRecv(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recv(CmdGetResponse, buf)
}
