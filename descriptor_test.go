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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ikeytest "github.com/ifdtools/go-ikey2k/internal/testing"
)

func TestDescriptorValidate(t *testing.T) {
	t.Parallel()

	shortValid := []byte{0x06, 0x60, 0x00, 0x01, 0x00, 0x00}

	tests := []struct {
		name    string
		desc    []byte
		wantErr bool
	}{
		{
			name: "captured descriptor",
			desc: ikeytest.TestDescriptor,
		},
		{
			name: "minimum length without hint byte",
			desc: shortValid,
		},
		{
			name: "hint byte nine",
			desc: []byte{
				0x0d, 0x6f, 0x00, 0x06, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x09,
			},
		},
		{
			name:    "too short",
			desc:    []byte{0x05, 0x60, 0x00, 0x01, 0x00},
			wantErr: true,
		},
		{
			name:    "too long",
			desc:    append([]byte{0x41, 0x60}, make([]byte, 0x3f)...),
			wantErr: true,
		},
		{
			name:    "length byte disagrees with actual length",
			desc:    []byte{0x07, 0x60, 0x00, 0x01, 0x00, 0x00},
			wantErr: true,
		},
		{
			name:    "tag below range",
			desc:    []byte{0x06, 0x5f, 0x00, 0x01, 0x00, 0x00},
			wantErr: true,
		},
		{
			name:    "tag above range",
			desc:    []byte{0x06, 0x70, 0x00, 0x01, 0x00, 0x00},
			wantErr: true,
		},
		{
			name: "bad ATR length hint",
			desc: []byte{
				0x0d, 0x63, 0x00, 0x06, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x10,
			},
			wantErr: true,
		},
		{
			name: "hint offset exactly at length boundary is not checked",
			desc: []byte{
				0x0c, 0x63, 0x00, 0x06, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			name:    "empty",
			desc:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Descriptor(tt.desc).Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedDescriptor)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// Validate must not mutate the descriptor.
func TestDescriptorValidateIsPure(t *testing.T) {
	t.Parallel()

	desc := append(Descriptor(nil), ikeytest.TestDescriptor...)
	before := append([]byte(nil), desc...)

	_ = desc.Validate()
	_ = desc.Validate()

	assert.Equal(t, before, []byte(desc))
}

func TestDescriptorAccessors(t *testing.T) {
	t.Parallel()

	desc := Descriptor(ikeytest.TestDescriptor)

	assert.Equal(t, uint16(0x0006), desc.FirmwareVersion())
	// Byte 7 of the captured descriptor is 0x80: the auto-flash bit is clear.
	assert.False(t, desc.HasAutoFlashLED())
	assert.Equal(t, 25, desc.ATRLengthHint())
}

func TestDescriptorAccessorsShortBlob(t *testing.T) {
	t.Parallel()

	desc := Descriptor([]byte{0x06, 0x60, 0x12, 0x34, 0x00, 0x00})

	assert.Equal(t, uint16(0x1234), desc.FirmwareVersion())
	assert.False(t, desc.HasAutoFlashLED())
	assert.Equal(t, 0, desc.ATRLengthHint())

	empty := Descriptor(nil)
	assert.Equal(t, uint16(0), empty.FirmwareVersion())
}

func TestDescriptorAutoFlashFlag(t *testing.T) {
	t.Parallel()

	desc := append(Descriptor(nil), ikeytest.TestDescriptor...)
	desc[descriptorFlagOffset] |= descriptorFlagAutoFlashLED

	assert.True(t, desc.HasAutoFlashLED())
}
