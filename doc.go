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

/*
Package ikey2k provides a pure Go library for the Rainbow iKey 2032 USB
smart-card token.

The iKey 2032 exposes a single fixed smart-card slot behind a vendor-specific
command protocol carried over USB control transfers. This library implements
that protocol: device commands, the nested card-control sub-commands, token
descriptor validation, and the reader session lifecycle a card framework
expects (activate, card reset and ATR retrieval, raw APDU exchange,
deactivate).

Basic Usage:

	import (
	    ikey2k "github.com/ifdtools/go-ikey2k"
	    "github.com/ifdtools/go-ikey2k/transport/usb"
	)

	transport, err := usb.New("/dev/bus/usb/001/004")
	if err != nil {
	    log.Fatal(err)
	}

	reader, err := ikey2k.NewReader(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer reader.Close()

	if err := reader.Activate(); err != nil {
	    log.Fatal(err)
	}

	atr := make([]byte, 33)
	n, err := reader.ResetCard(atr)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("ATR: % X\n", atr[:n])

	// Raw APDU exchange
	if _, err := reader.Send([]byte{0x00, 0xA4, 0x04, 0x00, 0x00}); err != nil {
	    log.Fatal(err)
	}
	resp := make([]byte, 256)
	n, err = reader.Recv(resp)

Or use ConnectReader for transport creation, auto-detection and activation in
one call:

	reader, err := ikey2k.ConnectReader("", ikey2k.WithAutoDetection(),
	    ikey2k.WithTransportFromDeviceFactory(
	        func(d detection.DeviceInfo) (ikey2k.Transport, error) { return usb.NewFromDevice(d) }))

Protocol Model:

Every device command is a host-to-device control transfer whose first four
logical bytes travel in the wValue/wIndex fields; a command's result, when it
has one, must be fetched with a follow-up GET_RESPONSE transfer. The two
steps form one atomic operation per session: interleaving two commands'
response fetches would return the wrong response, so the library serializes
them internally.

Error Handling:

All operations return errors that can be inspected with errors.Is:

	if errors.Is(err, ikey2k.ErrATRUnavailable) {
	    // card did not produce an acceptable ATR
	}

Thread Safety:

A Reader owns its transport exclusively. Individual command sequences are
serialized internally, but the session lifecycle (Activate, ResetCard,
Deactivate, Close) is not thread-safe; drive a Reader from a single
goroutine.
*/
package ikey2k
