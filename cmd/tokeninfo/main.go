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

// Command tokeninfo activates an iKey 2032, prints its descriptor and card
// ATR, and optionally exchanges a raw APDU with the card.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	ikey2k "github.com/ifdtools/go-ikey2k"
	"github.com/ifdtools/go-ikey2k/detection"
	"github.com/ifdtools/go-ikey2k/transport/usb"
)

type config struct {
	devicePath *string
	apduHex    *string
	timeout    *time.Duration
	led        *int
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"usbfs device path (e.g. /dev/bus/usb/001/004). Leave empty for auto-detection."),
		apduHex: flag.String("apdu", "", "Hex-encoded APDU to exchange with the card"),
		timeout: flag.Duration("timeout", time.Second, "Per-transfer timeout (default: 1s)"),
		led:     flag.Int("led", -1, "LED mode to set (0-255, -1 to leave unchanged)"),
		debug:   flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		ikey2k.SetDebugEnabled(true)
	}

	return cfg
}

func newTransport(path string) (ikey2k.Transport, error) {
	transport, err := usb.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create USB transport: %w", err)
	}
	return transport, nil
}

func newTransportFromDevice(device detection.DeviceInfo) (ikey2k.Transport, error) {
	fmt.Printf("Using %s at %s\n", device.Name, device.Path)
	transport, err := usb.NewFromDevice(device)
	if err != nil {
		return nil, fmt.Errorf("failed to create USB transport: %w", err)
	}
	return transport, nil
}

func connect(cfg *config) (*ikey2k.Reader, error) {
	opts := []ikey2k.ConnectOption{
		ikey2k.WithTransportFactory(newTransport),
		ikey2k.WithTransportFromDeviceFactory(newTransportFromDevice),
		ikey2k.WithConnectTimeout(*cfg.timeout),
	}
	if *cfg.devicePath == "" {
		opts = append(opts, ikey2k.WithAutoDetection())
	}
	return ikey2k.ConnectReader(*cfg.devicePath, opts...)
}

func printDescriptor(desc ikey2k.Descriptor) {
	fmt.Printf("Token:            %s\n", ikey2k.ReaderName)
	fmt.Printf("Descriptor:       % X\n", []byte(desc))
	fmt.Printf("Firmware version: %04X\n", desc.FirmwareVersion())
	fmt.Printf("Auto-flash LED:   %v\n", desc.HasAutoFlashLED())
	fmt.Printf("ATR length hint:  %d\n", desc.ATRLengthHint())
}

func exchangeAPDU(reader *ikey2k.Reader, apduHex string) error {
	apdu, err := hex.DecodeString(apduHex)
	if err != nil {
		return fmt.Errorf("invalid APDU hex: %w", err)
	}

	if _, err := reader.Send(apdu); err != nil {
		return fmt.Errorf("APDU send failed: %w", err)
	}
	resp := make([]byte, 256)
	n, err := reader.Recv(resp)
	if err != nil {
		return fmt.Errorf("APDU recv failed: %w", err)
	}
	fmt.Printf("APDU response:    % X\n", resp[:n])
	return nil
}

func run(cfg *config) error {
	reader, err := connect(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	printDescriptor(reader.Descriptor())

	if *cfg.led >= 0 && *cfg.led <= 255 {
		if err := reader.Device().SetLED(byte(*cfg.led)); err != nil {
			return err
		}
		fmt.Printf("LED mode set to:  %d\n", *cfg.led)
	}

	atr := make([]byte, 33)
	n, err := reader.ResetCard(atr)
	if err != nil {
		return err
	}
	fmt.Printf("ATR:              % X\n", atr[:n])

	if *cfg.apduHex != "" {
		if err := exchangeAPDU(reader, *cfg.apduHex); err != nil {
			return err
		}
	}

	if err := reader.Deactivate(); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "tokeninfo: %v\n", err)
		os.Exit(1)
	}
}
