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
	"sync"
	"time"
)

// ControlCall records one control transfer seen by a MockTransport
type ControlCall struct {
	// Payload is a copy of the outgoing payload (OUT transfers only)
	Payload []byte
	// Capacity is the response buffer size (IN transfers only)
	Capacity    int
	Value       uint16
	Index       uint16
	RequestType byte
	Request     byte
}

// In reports whether the call was a device-to-host transfer
func (c *ControlCall) In() bool {
	return c.RequestType == requestTypeIn
}

// MockTransport is a scriptable transport for testing. Responses and errors
// are keyed by request code; a ControlFunc takes full control when more
// protocol state is needed (see the internal testing VirtualToken).
type MockTransport struct {
	ControlFunc func(requestType, request byte, value, index uint16, buf []byte) (int, error)
	responses   map[byte][]byte
	errs        map[byte]error
	calls       []ControlCall
	timeout     time.Duration
	mu          sync.Mutex
	closed      bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errs:      make(map[byte]error),
		timeout:   defaultTimeout,
	}
}

// NewMockTransportWithFunc creates a mock transport driven entirely by fn
func NewMockTransportWithFunc(
	fn func(requestType, request byte, value, index uint16, buf []byte) (int, error),
) *MockTransport {
	mock := NewMockTransport()
	mock.ControlFunc = fn
	return mock
}

// SetResponse configures the bytes returned for IN transfers with the given
// request code
func (m *MockTransport) SetResponse(request DeviceCommand, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[byte(request)] = append([]byte(nil), data...)
}

// SetError configures an error for transfers with the given request code
func (m *MockTransport) SetError(request DeviceCommand, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[byte(request)] = err
}

// Control records the transfer and replies from the configured script
func (m *MockTransport) Control(requestType, request byte, value, index uint16,
	buf []byte, _ time.Duration,
) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrTransportRead
	}

	call := ControlCall{
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
	}
	if requestType == requestTypeIn {
		call.Capacity = len(buf)
	} else {
		call.Payload = append([]byte(nil), buf...)
	}
	m.calls = append(m.calls, call)

	if err, ok := m.errs[request]; ok {
		return 0, err
	}
	if m.ControlFunc != nil {
		return m.ControlFunc(requestType, request, value, index, buf)
	}
	if requestType == requestTypeIn {
		if data, ok := m.responses[request]; ok {
			return copy(buf, data), nil
		}
		return 0, nil
	}
	return len(buf), nil
}

// Calls returns a copy of all recorded control transfers
func (m *MockTransport) Calls() []ControlCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ControlCall(nil), m.calls...)
}

// CallsFor returns the recorded transfers with the given request code
func (m *MockTransport) CallsFor(request DeviceCommand) []ControlCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ControlCall
	for _, c := range m.calls {
		if c.Request == byte(request) {
			out = append(out, c)
		}
	}
	return out
}

// LastCall returns the most recent transfer, or nil if none were made
func (m *MockTransport) LastCall() *ControlCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears the recorded transfers
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Close marks the transport as closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout stores the default timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected returns true until the transport is closed
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}
