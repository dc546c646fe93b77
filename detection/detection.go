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

// Package detection discovers iKey 2032 tokens on the USB bus.
package detection

import (
	"fmt"

	usb "github.com/kevmo314/go-usb"
)

// USB identity of the iKey 2032
const (
	// VendorRainbow is the Rainbow Technologies USB vendor ID
	VendorRainbow = 0x04B9
	// ProductIKey2032 is the iKey 2032 product ID
	ProductIKey2032 = 0x1202
)

// productName is the display name used for detected tokens
const productName = "Rainbow iKey 2032"

// Mode selects how intrusive detection is
type Mode int

const (
	// Safe enumerates devices without opening them
	Safe Mode = iota
	// Verify additionally opens each candidate to confirm access
	Verify
)

// Options configures detection
type Options struct {
	Mode Mode
}

// DefaultOptions returns the default detection options
func DefaultOptions() Options {
	return Options{Mode: Safe}
}

// DeviceInfo describes a detected token
type DeviceInfo struct {
	// Path is the usbfs device node, e.g. /dev/bus/usb/001/004
	Path string
	// Name is a human-readable product name
	Name      string
	VendorID  uint16
	ProductID uint16
	Bus       uint8
	Address   uint8
}

// DetectAll returns every iKey 2032 present on the USB bus
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}

	devices, err := usb.DeviceList()
	if err != nil {
		return nil, fmt.Errorf("failed to list USB devices: %w", err)
	}

	infos := filterTokens(devices)
	if opts.Mode == Verify {
		infos = verifyAccessible(devices, infos)
	}
	return infos, nil
}

// filterTokens keeps only devices with the iKey 2032 USB identity
func filterTokens(devices []*usb.Device) []DeviceInfo {
	var infos []DeviceInfo
	for _, dev := range devices {
		if dev.Descriptor.VendorID != VendorRainbow ||
			dev.Descriptor.ProductID != ProductIKey2032 {
			continue
		}
		infos = append(infos, DeviceInfo{
			Path:      dev.Path,
			Name:      productName,
			VendorID:  dev.Descriptor.VendorID,
			ProductID: dev.Descriptor.ProductID,
			Bus:       dev.Bus,
			Address:   dev.Address,
		})
	}
	return infos
}

// verifyAccessible drops candidates that cannot actually be opened
func verifyAccessible(devices []*usb.Device, infos []DeviceInfo) []DeviceInfo {
	byPath := make(map[string]*usb.Device, len(devices))
	for _, dev := range devices {
		byPath[dev.Path] = dev
	}

	var accessible []DeviceInfo
	for _, info := range infos {
		dev, ok := byPath[info.Path]
		if !ok {
			continue
		}
		handle, err := dev.Open()
		if err != nil {
			continue
		}
		_ = handle.Close()
		accessible = append(accessible, info)
	}
	return accessible
}
