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
	"sync"
	"time"
)

// defaultTimeout is the per-transfer timeout the device protocol specifies.
const defaultTimeout = 1000 * time.Millisecond

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for callers that wrap the
	// transport with NewTransportWithRetry. The device itself never
	// retries a command sequence.
	RetryConfig *RetryConfig
	// Timeout is the per-transfer timeout
	Timeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     defaultTimeout,
	}
}

// Device represents an iKey 2032 token and implements its device command
// layer. Every command is a host-to-device control transfer; a command's
// result, when it has one, must be pulled with a follow-up CmdGetResponse
// transfer. The two steps form one atomic sequence: Device serializes them
// under an internal mutex so that no interleaved command can steal another's
// response.
type Device struct {
	transport Transport
	config    *DeviceConfig
	mu        sync.Mutex
}

// New creates a new iKey 2032 device on the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the per-transfer timeout
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// SetRetryConfig updates the retry configuration
func (d *Device) SetRetryConfig(config *RetryConfig) {
	d.config.RetryConfig = config
	if tr, ok := d.transport.(*TransportWithRetry); ok {
		tr.SetRetryConfig(config)
	}
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// send issues one host-to-device transfer for cmd. The first four bytes of
// data travel in the wValue/wIndex fields, the rest as payload.
func (d *Device) send(cmd DeviceCommand, data []byte) (int, error) {
	value, index, payload := packHeader(data)
	return d.transport.Control(requestTypeOut, byte(cmd), value, index, payload, d.config.Timeout)
}

// recv issues one device-to-host transfer for cmd into buf.
func (d *Device) recv(cmd DeviceCommand, buf []byte) (int, error) {
	return d.transport.Control(requestTypeIn, byte(cmd), 0, 0, buf, d.config.Timeout)
}

// executeLocked runs the send-then-fetch sequence. The response, when
// requested, is always fetched via CmdGetResponse, never via cmd itself.
// A failed send skips the fetch. Callers hold d.mu.
func (d *Device) executeLocked(cmd DeviceCommand, in, out []byte) (int, error) {
	n, err := d.send(cmd, in)
	if err != nil {
		return n, err
	}
	if len(out) == 0 {
		return n, nil
	}
	return d.recv(CmdGetResponse, out)
}

// execute runs one complete device command as an atomic sequence: send cmd
// with in, then, if out is non-empty, fetch the response into out. Returns
// the number of response bytes when output was requested, otherwise the
// number of payload bytes the device accepted.
func (d *Device) execute(cmd DeviceCommand, in, out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.executeLocked(cmd, in, out)
}

// Reset resets the token and reads its self-description into buf. Unlike
// other commands the descriptor is read directly with CmdReset, not via
// CmdGetResponse. Returns the descriptor length.
func (d *Device) Reset(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recv(CmdReset, buf)
}

// Status reads the device status block into buf. The block's contents are
// undocumented and returned opaque.
func (d *Device) Status(buf []byte) (int, error) {
	return d.execute(CmdGetStatus, nil, buf)
}

// SetLED sets the token LED mode. Auto-flashing modes are only honored on
// tokens whose descriptor advertises the capability (Descriptor.HasAutoFlashLED).
func (d *Device) SetLED(mode byte) error {
	if _, err := d.execute(CmdLEDControl, []byte{mode}, nil); err != nil {
		return fmt.Errorf("LED control failed: %w", err)
	}
	return nil
}

// Random asks the token for n random bytes, n in [1, 255].
func (d *Device) Random(n int) ([]byte, error) {
	if n < 1 || n > 255 {
		return nil, fmt.Errorf("%w: random length %d", ErrInvalidParameter, n)
	}
	buf := make([]byte, n)
	got, err := d.execute(CmdGenRandom, []byte{byte(n)}, buf)
	if err != nil {
		return nil, fmt.Errorf("random generation failed: %w", err)
	}
	if got < n {
		return nil, fmt.Errorf("%w: short random response (%d of %d bytes)", ErrCommunicationFailed, got, n)
	}
	return buf[:n], nil
}
