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
	"errors"
	"fmt"
	"time"

	"github.com/ifdtools/go-ikey2k/detection"
)

// TransportFactory is a function type for creating transports from a path
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports
// from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// ConnectOption represents a functional option for ConnectReader
type ConnectOption func(*connectConfig) error

// connectConfig holds configuration options for reader connection
type connectConfig struct {
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	deviceOptions          []Option
	timeout                time.Duration
	autoDetect             bool
}

// WithAutoDetection enables automatic device detection instead of using a
// specific path
func WithAutoDetection() ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout overrides the per-transfer timeout for the connected
// reader
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportFromDeviceFactory sets the transport from device factory
// function
func WithTransportFromDeviceFactory(factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportDeviceFactory = factory
		return nil
	}
}

func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}

	return config, nil
}

func createTransport(path string, config *connectConfig) (Transport, error) {
	if config.autoDetect || path == "" {
		return createAutoDetectedTransport(config.transportDeviceFactory)
	}
	return createManualTransport(path, config.transportFactory)
}

// createManualTransport handles creation of transport for a specific path
func createManualTransport(path string, factory TransportFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport factory not provided")
	}

	transport, err := factory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %s: %w", path, err)
	}

	return transport, nil
}

// createAutoDetectedTransport handles auto-detection of tokens
func createAutoDetectedTransport(factory TransportFromDeviceFactory) (Transport, error) {
	opts := detection.DefaultOptions()

	devices, err := detection.DetectAll(&opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no iKey 2032 tokens found", ErrDeviceNotFound)
	}

	// Use the first detected token
	device := devices[0]
	if factory == nil {
		return nil, errors.New("transport device factory not provided")
	}
	return factory(device)
}

// ConnectReader creates and activates a reader session from a path or
// auto-detection. This is a high-level convenience that handles transport
// creation and token activation in one call.
//
// Example usage:
//
//	newTransport := func(p string) (ikey2k.Transport, error) { return usb.New(p) }
//
//	// Connect to a specific device
//	reader, err := ikey2k.ConnectReader("/dev/bus/usb/001/004",
//	    ikey2k.WithTransportFactory(newTransport))
//
//	// Auto-detect a token
//	reader, err := ikey2k.ConnectReader("", ikey2k.WithAutoDetection(),
//	    ikey2k.WithTransportFromDeviceFactory(
//	        func(d detection.DeviceInfo) (ikey2k.Transport, error) { return usb.NewFromDevice(d) }))
func ConnectReader(path string, opts ...ConnectOption) (*Reader, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to apply connect options: %w", err)
	}

	transport, err := createTransport(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	reader, err := NewReader(transport, config.deviceOptions...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}

	if config.timeout > 0 {
		if err := reader.device.SetTimeout(config.timeout); err != nil {
			_ = reader.Close()
			return nil, fmt.Errorf("failed to set timeout: %w", err)
		}
	}

	if err := reader.Activate(); err != nil {
		_ = reader.Close()
		return nil, err
	}

	return reader, nil
}
