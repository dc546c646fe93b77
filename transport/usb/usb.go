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

// Package usb provides the USB control-transfer transport for the iKey 2032.
package usb

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	ikey2k "github.com/ifdtools/go-ikey2k"
	"github.com/ifdtools/go-ikey2k/detection"
	usb "github.com/kevmo314/go-usb"
	"golang.org/x/sys/unix"
)

// interfaceNumber is the sole interface the token exposes
const interfaceNumber = 0

// Transport implements the ikey2k.Transport interface over usbfs control
// transfers.
type Transport struct {
	handle  *usb.DeviceHandle
	path    string
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
}

// New opens the device at a usbfs path (e.g. /dev/bus/usb/001/004),
// verifies it is an iKey 2032 and claims its interface.
func New(path string) (*Transport, error) {
	if !usb.IsValidDevicePath(path) {
		return nil, fmt.Errorf("%w: %s", ikey2k.ErrNotUSBDevice, path)
	}

	handle, err := openDeviceWithPath(path)
	if err != nil {
		return nil, ikey2k.NewTransportError("open", path, err, ikey2k.ErrorTypePermanent)
	}

	desc := handle.Descriptor()
	if desc.VendorID != detection.VendorRainbow || desc.ProductID != detection.ProductIKey2032 {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: %04x:%04x at %s is not an iKey 2032",
			ikey2k.ErrDeviceNotFound, desc.VendorID, desc.ProductID, path)
	}

	if err := handle.ClaimInterface(interfaceNumber); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: claim interface %d: %w",
			ikey2k.ErrInvalidParameter, interfaceNumber, err)
	}

	return &Transport{
		handle:  handle,
		path:    path,
		timeout: time.Second,
	}, nil
}

// openDeviceWithPath opens a device by its usbfs path. Current go-usb only
// provides OpenDeviceWithPath on darwin; this mirrors its linux behavior.
func openDeviceWithPath(path string) (*usb.DeviceHandle, error) {
	devices, err := usb.DeviceList()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Path == path {
			return dev.Open()
		}
	}
	return nil, usb.ErrDeviceNotFound
}

// NewFromDevice opens a detected token
func NewFromDevice(device detection.DeviceInfo) (*Transport, error) {
	return New(device.Path)
}

// Control performs a single control transfer
func (t *Transport) Control(requestType, request byte, value, index uint16,
	buf []byte, timeout time.Duration,
) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ikey2k.NewTransportError("control", t.path,
			ikey2k.ErrTransportRead, ikey2k.ErrorTypePermanent)
	}
	if timeout <= 0 {
		timeout = t.timeout
	}

	n, err := t.handle.ControlTransfer(requestType, request, value, index, buf, timeout)
	if err != nil {
		return n, t.wrapControlError("control", err)
	}
	return n, nil
}

// wrapControlError classifies a usbfs error into the transport error
// taxonomy
func (t *Transport) wrapControlError(op string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.ETIMEDOUT:
			return ikey2k.NewTimeoutError(op, t.path)
		case unix.EPIPE:
			return ikey2k.NewStallError(op, t.path)
		case unix.ENODEV, unix.ESHUTDOWN:
			return ikey2k.NewTransportError(op, t.path, err, ikey2k.ErrorTypePermanent)
		}
	}
	return ikey2k.NewTransportError(op, t.path, err, ikey2k.ErrorTypeTransient)
}

// SetTimeout sets the default transfer timeout
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close releases the interface and closes the device handle
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	_ = t.handle.ReleaseInterface(interfaceNumber)
	if err := t.handle.Close(); err != nil {
		return fmt.Errorf("failed to close USB handle: %w", err)
	}
	return nil
}

// IsConnected returns true until the transport is closed
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Type returns the transport type
func (*Transport) Type() ikey2k.TransportType {
	return ikey2k.TransportUSB
}
