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
	"context"
	"fmt"
	"time"
)

// Transport defines the interface for communication with an iKey 2032.
// The device speaks only over USB control transfers; implementations wrap a
// USB backend or a test double.
type Transport interface {
	// Control performs a single control transfer and returns the number of
	// bytes transferred. requestType is the bmRequestType byte (0x41 for
	// host-to-device, 0xC1 for device-to-host), request the vendor command
	// code. For OUT transfers buf is the payload; for IN transfers it is
	// filled with the response. A non-positive timeout selects the
	// transport's default.
	Control(requestType, request byte, value, index uint16, buf []byte,
		timeout time.Duration) (int, error)

	// Close closes the transport connection
	Close() error

	// SetTimeout sets the default transfer timeout for the transport
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUSB represents a USB control-transfer transport.
	TransportUSB TransportType = "usb"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportWithRetry wraps a Transport with retry capabilities.
//
// The Reader never installs this wrapper: the device's send-then-fetch
// idiom makes a blind resend unsafe once the device has executed the
// command. It exists for callers driving stateless probes (detection,
// status reads) over a flaky bus.
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a new transport wrapper with retry logic
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

// Control performs a control transfer with retry logic
func (t *TransportWithRetry) Control(requestType, request byte, value, index uint16,
	buf []byte, timeout time.Duration,
) (int, error) {
	var result int
	err := RetryWithConfig(context.Background(), t.config, func() error {
		var err error
		result, err = t.transport.Control(requestType, request, value, index, buf, timeout)
		if err != nil {
			return &TransportError{
				Op:        "Control",
				Err:       err,
				Type:      GetErrorType(err),
				Retryable: IsRetryable(err),
			}
		}
		return nil
	})
	return result, err
}

// Close closes the transport connection
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// SetTimeout sets the default transfer timeout for the transport
func (t *TransportWithRetry) SetTimeout(timeout time.Duration) error {
	if err := t.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on underlying transport: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *TransportWithRetry) IsConnected() bool {
	return t.transport.IsConnected()
}

// Type returns the transport type
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// SetRetryConfig updates the retry configuration
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}
