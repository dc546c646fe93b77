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
	"fmt"
)

// ReaderName is the product name of the device this library drives
const ReaderName = "Rainbow Technologies iKey 2032"

// NumSlots is the number of card slots the device exposes
const NumSlots = 1

// State is the reader session lifecycle state
type State int

// Session states. The only legal forward path is
// Closed -> Opened -> Activated -> CardReady; Deactivate falls back to
// Opened, Close ends the session from anywhere.
const (
	StateClosed State = iota
	StateOpened
	StateActivated
	StateCardReady
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpened:
		return "opened"
	case StateActivated:
		return "activated"
	case StateCardReady:
		return "card-ready"
	default:
		return "unknown"
	}
}

// CardStatus describes the card presence in a slot
type CardStatus int

// CardPresent is the only status the device can report: the card is part of
// the token and never removable.
const CardPresent CardStatus = 1

// Reader is the session a card framework drives: activate the token,
// reset the card and read its ATR, exchange raw bytes, deactivate.
//
// The lifecycle state is checked explicitly: calling an operation out of
// order fails fast with ErrBadState instead of returning stale bytes from a
// previous exchange.
type Reader struct {
	device     *Device
	descriptor Descriptor
	state      State
}

// NewReader creates a reader session on an already-open transport. The
// session starts in the Opened state; call Activate before any card
// operation.
func NewReader(transport Transport, opts ...Option) (*Reader, error) {
	device, err := New(transport, opts...)
	if err != nil {
		return nil, err
	}
	return &Reader{
		device: device,
		state:  StateOpened,
	}, nil
}

// Device returns the underlying device command layer
func (r *Reader) Device() *Device {
	return r.device
}

// State returns the current session state
func (r *Reader) State() State {
	return r.state
}

// Descriptor returns the token descriptor captured by Activate, or nil
// before activation.
func (r *Reader) Descriptor() Descriptor {
	return r.descriptor
}

// Activate powers up the token: it resets the device, reads the token
// descriptor and validates it. On success the session moves to Activated
// and the descriptor is available through Descriptor().
func (r *Reader) Activate() error {
	if r.state != StateOpened {
		return fmt.Errorf("%w: activate in state %s", ErrBadState, r.state)
	}

	buf := make([]byte, 256)
	n, err := r.device.Reset(buf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrActivationFailed, err)
	}
	if n <= 0 {
		return fmt.Errorf("%w: empty descriptor", ErrActivationFailed)
	}

	desc := Descriptor(buf[:n])
	if err := desc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrActivationFailed, err)
	}

	r.descriptor = desc
	r.state = StateActivated
	debugf("activated: descriptor % x", []byte(desc))
	return nil
}

// resetCard powers the card down and back up. A successful reset returns
// exactly one status byte, zero.
func (r *Reader) resetCard() error {
	var status [2]byte
	n, err := r.device.cardExec(CardReset, 0, nil, status[:])
	if err != nil {
		return err
	}
	if n != 1 || status[0] != 0 {
		return fmt.Errorf("unexpected reset status (%d bytes, % x)", n, status[:min(n, len(status))])
	}
	return nil
}

// ResetCard resets the card and reads its ATR into atr, returning the ATR
// length. The token is asked for a 25-byte ATR first; if it produces
// anything else, a single fallback request for a 9-byte ATR is made. The
// result is accepted only if it fits atr and is at least 9 bytes. On
// success the session moves to CardReady.
func (r *Reader) ResetCard(atr []byte) (int, error) {
	if r.state != StateActivated && r.state != StateCardReady {
		return 0, fmt.Errorf("%w: card reset in state %s", ErrBadState, r.state)
	}

	if err := r.resetCard(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCardResetFailed, err)
	}

	buf := make([]byte, atrLenLong)
	n, err := r.device.cardExec(CardGetATR, atrLenLong, nil, buf)
	if err != nil || n != atrLenLong {
		debugf("long ATR unavailable (%d bytes, err=%v), requesting short ATR", n, err)
		n, err = r.device.cardExec(CardGetATR, atrLenShort, nil, buf[:atrLenShort])
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrATRUnavailable, err)
		}
	}
	if n < atrLenShort {
		return 0, fmt.Errorf("%w: %d-byte response", ErrATRUnavailable, n)
	}
	if n > len(atr) {
		return 0, fmt.Errorf("%w: %d-byte ATR exceeds %d-byte buffer", ErrATRUnavailable, n, len(atr))
	}

	copy(atr, buf[:n])
	r.state = StateCardReady
	debugf("card ready: ATR % x", buf[:n])
	return n, nil
}

// Send transmits raw bytes to the card. The content is opaque to the
// reader; the matching response is read with Recv. Legal only in the
// CardReady state.
func (r *Reader) Send(data []byte) (int, error) {
	if r.state != StateCardReady {
		return 0, fmt.Errorf("%w: send in state %s", ErrBadState, r.state)
	}
	return r.device.CardSend(data)
}

// Recv reads the card's response to a previous Send into buf. Legal only in
// the CardReady state.
func (r *Reader) Recv(buf []byte) (int, error) {
	if r.state != StateCardReady {
		return 0, fmt.Errorf("%w: recv in state %s", ErrBadState, r.state)
	}
	return r.device.CardRecv(buf)
}

// Deactivate powers the card down by resetting it. The session falls back
// to Opened; a fresh Activate is required before further card operations.
// Card reset is idempotent at the protocol level, so deactivating an
// already-deactivated session succeeds.
func (r *Reader) Deactivate() error {
	if r.state == StateClosed {
		return fmt.Errorf("%w: deactivate in state %s", ErrBadState, r.state)
	}
	if err := r.resetCard(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeactivationFailed, err)
	}
	r.state = StateOpened
	debugln("deactivated")
	return nil
}

// CardStatus reports the card presence for a slot. The card is part of the
// token, so it is always present; the device has no removal detection.
func (r *Reader) CardStatus(_ int) CardStatus {
	return CardPresent
}

// Close ends the session and releases the transport
func (r *Reader) Close() error {
	r.state = StateClosed
	return r.device.Close()
}
