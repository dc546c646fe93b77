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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout sentinel", err: ErrTransportTimeout, want: true},
		{name: "read sentinel", err: ErrTransportRead, want: true},
		{name: "write sentinel", err: ErrTransportWrite, want: true},
		{name: "stall sentinel", err: ErrEndpointStall, want: true},
		{name: "communication sentinel", err: ErrCommunicationFailed, want: true},
		{name: "wrapped sentinel", err: fmt.Errorf("op: %w", ErrTransportTimeout), want: true},
		{name: "device not found", err: ErrDeviceNotFound, want: false},
		{name: "invalid parameter", err: ErrInvalidParameter, want: false},
		{name: "unrelated error", err: errors.New("boom"), want: false},
		{
			name: "transport error carries its own verdict",
			err:  NewTransportError("control", "/dev/bus/usb/001/004", errors.New("efault"), ErrorTypePermanent),
			want: false,
		},
		{
			name: "transient transport error",
			err:  NewTransportError("control", "", errors.New("eagain"), ErrorTypeTransient),
			want: true,
		},
		{
			name: "timeout constructor",
			err:  NewTimeoutError("control", "/dev/bus/usb/001/004"),
			want: true,
		},
		{
			name: "stall constructor",
			err:  NewStallError("control", ""),
			want: true,
		},
		{
			name: "data too large constructor",
			err:  NewDataTooLargeError("send", ""),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypePermanent},
		{name: "timeout sentinel", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "read sentinel", err: ErrTransportRead, want: ErrorTypeTransient},
		{name: "stall sentinel", err: ErrEndpointStall, want: ErrorTypeTransient},
		{name: "unknown error", err: errors.New("boom"), want: ErrorTypePermanent},
		{
			name: "transport error type wins",
			err:  NewTimeoutError("control", ""),
			want: ErrorTypeTimeout,
		},
		{
			name: "wrapped transport error",
			err:  fmt.Errorf("reset: %w", NewStallError("control", "")),
			want: ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	t.Run("message includes op and port", func(t *testing.T) {
		t.Parallel()

		err := NewTransportError("control", "/dev/bus/usb/001/004", ErrTransportRead, ErrorTypeTransient)
		assert.Contains(t, err.Error(), "control")
		assert.Contains(t, err.Error(), "/dev/bus/usb/001/004")
	})

	t.Run("message without port", func(t *testing.T) {
		t.Parallel()

		err := NewTransportError("control", "", ErrTransportRead, ErrorTypeTransient)
		assert.Equal(t, "control: transport read failed", err.Error())
	})

	t.Run("unwraps to the underlying error", func(t *testing.T) {
		t.Parallel()

		inner := errors.New("epipe")
		err := NewTransportError("control", "", inner, ErrorTypeTransient)
		assert.ErrorIs(t, err, inner)
	})

	t.Run("retryable derived from type", func(t *testing.T) {
		t.Parallel()

		permanent := NewTransportError("open", "", errors.New("enodev"), ErrorTypePermanent)
		assert.False(t, permanent.Retryable)

		transient := NewTransportError("control", "", errors.New("eagain"), ErrorTypeTransient)
		assert.True(t, transient.Retryable)

		timeout := NewTransportError("control", "", errors.New("etimedout"), ErrorTypeTimeout)
		assert.True(t, timeout.Retryable)
	})

	t.Run("timeout constructor wraps the timeout sentinel", func(t *testing.T) {
		t.Parallel()

		err := NewTimeoutError("control", "")
		require.ErrorIs(t, err, ErrTransportTimeout)
		assert.Equal(t, ErrorTypeTimeout, err.Type)
	})

	t.Run("stall constructor wraps the stall sentinel", func(t *testing.T) {
		t.Parallel()

		err := NewStallError("control", "")
		require.ErrorIs(t, err, ErrEndpointStall)
		assert.Equal(t, ErrorTypeTransient, err.Type)
	})
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "permanent", ErrorTypePermanent.String())
	assert.Equal(t, "transient", ErrorTypeTransient.String())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
	assert.Equal(t, "unknown", ErrorType(42).String())
}
