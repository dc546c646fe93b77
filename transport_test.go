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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetryConfig keeps retry tests quick.
func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestTransportWithRetryRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	mock := NewMockTransportWithFunc(
		func(_, _ byte, _, _ uint16, buf []byte) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, NewStallError("control", "")
			}
			return copy(buf, []byte{0x90, 0x00}), nil
		})

	transport := NewTransportWithRetry(mock, fastRetryConfig())
	buf := make([]byte, 2)
	n, err := transport.Control(requestTypeIn, byte(CmdGetResponse), 0, 0, buf, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, attempts)
}

func TestTransportWithRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	attempts := 0
	permanent := NewTransportError("control", "", errors.New("enodev"), ErrorTypePermanent)
	mock := NewMockTransportWithFunc(
		func(_, _ byte, _, _ uint16, _ []byte) (int, error) {
			attempts++
			return 0, permanent
		})

	transport := NewTransportWithRetry(mock, fastRetryConfig())
	_, err := transport.Control(requestTypeOut, byte(CmdGetStatus), 0, 0, nil, time.Second)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestTransportWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	mock := NewMockTransportWithFunc(
		func(_, _ byte, _, _ uint16, _ []byte) (int, error) {
			attempts++
			return 0, ErrTransportTimeout
		})

	transport := NewTransportWithRetry(mock, fastRetryConfig())
	_, err := transport.Control(requestTypeIn, byte(CmdGetResponse), 0, 0, make([]byte, 2), time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportTimeout)
	assert.Equal(t, 3, attempts)
}

func TestTransportWithRetryDelegates(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	transport := NewTransportWithRetry(mock, nil)

	assert.Equal(t, TransportMock, transport.Type())
	assert.True(t, transport.IsConnected())
	require.NoError(t, transport.SetTimeout(time.Second))
	require.NoError(t, transport.Close())
	assert.False(t, transport.IsConnected())
}

func TestRetryWithConfig(t *testing.T) {
	t.Parallel()

	t.Run("succeeds without retry", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := RetryWithConfig(context.Background(), fastRetryConfig(), func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		t.Parallel()

		calls := 0
		boom := errors.New("boom")
		err := RetryWithConfig(context.Background(), fastRetryConfig(), func() error {
			calls++
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		t.Parallel()

		err := RetryWithConfig(context.Background(), nil, func() error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := RetryWithConfig(ctx, fastRetryConfig(), func() error {
			return ErrTransportTimeout
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestMockTransportRecording(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(CmdGetResponse, []byte{0x01})

	_, err := mock.Control(requestTypeOut, byte(CmdCardIO), 0x1234, 0x5678, []byte{0xFF}, time.Second)
	require.NoError(t, err)
	_, err = mock.Control(requestTypeIn, byte(CmdGetResponse), 0, 0, make([]byte, 4), time.Second)
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].In())
	assert.Equal(t, []byte{0xFF}, calls[0].Payload)
	assert.True(t, calls[1].In())
	assert.Equal(t, 4, calls[1].Capacity)

	mock.Reset()
	assert.Empty(t, mock.Calls())
	assert.Nil(t, mock.LastCall())
}
