// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command tagemu turns an NXP-style NFC controller into a standalone
// tag emulator: it scans for a real tag on demand, then impersonates it
// against any reader that shows up, replaying a captured application
// session from a response template table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/capture"
	"github.com/ZaparooProject/go-tagemu/gpio"
	"github.com/ZaparooProject/go-tagemu/standalone"
	"github.com/ZaparooProject/go-tagemu/transport/uart"
	"github.com/ZaparooProject/go-tagemu/watchdog"
)

type config struct {
	devicePath      string
	templatesPath   string
	captureDir      string
	buttonPin       string
	ledPins         string
	watchdogPath    string
	watchdogTimeout time.Duration
	debug           bool
}

// Package-level flag variables
var (
	flagDevicePath      string
	flagTemplatesPath   string
	flagCaptureDir      string
	flagButtonPin       string
	flagLEDPins         string
	flagWatchdogPath    string
	flagWatchdogTimeout time.Duration
	flagDebug           bool
)

func init() {
	flag.StringVar(&flagDevicePath, "device", "", "Serial port of the NFC controller (e.g. /dev/ttyUSB0)")
	flag.StringVar(&flagTemplatesPath, "templates", "", "Response template file (built-in session if empty)")
	flag.StringVar(&flagCaptureDir, "capture", "", "Directory for the captured-target log (disabled if empty)")
	flag.StringVar(&flagButtonPin, "button", "", "GPIO pin of the operator button (stdin input if empty)")
	flag.StringVar(&flagLEDPins, "leds", "", "Three GPIO lamp pins: scan,emulate,activity")
	flag.StringVar(&flagWatchdogPath, "watchdog", "", "Watchdog device to arm (e.g. "+watchdog.DefaultDevice+")")
	flag.DurationVar(&flagWatchdogTimeout, "watchdog-timeout", 30*time.Second, "Hardware watchdog timeout")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
}

func parseConfig() *config {
	cfg := &config{
		devicePath:      flagDevicePath,
		templatesPath:   flagTemplatesPath,
		captureDir:      flagCaptureDir,
		buttonPin:       flagButtonPin,
		ledPins:         flagLEDPins,
		watchdogPath:    flagWatchdogPath,
		watchdogTimeout: flagWatchdogTimeout,
		debug:           flagDebug,
	}

	if cfg.debug {
		tagemu.SetDebugEnabled(true)
	}

	return cfg
}

// loadTemplates reads the response table for the emulated session,
// falling back to the built-in capture when no file is given.
func loadTemplates(path string) ([]tagemu.ResponseTemplate, error) {
	if path == "" {
		return tagemu.DefaultTemplates(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer func() { _ = file.Close() }()

	templates, err := tagemu.ParseTemplates(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return templates, nil
}

// parseLampPins splits the -leds value into the three lamp pin names.
func parseLampPins(spec string) (scanPin, emulatePin, activityPin string, err error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("-leds wants three comma-separated pin names, got %q", spec)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

// buildRunnerOptions wires the optional operator hardware. The returned
// cleanup releases whatever was opened and must run after the loop.
func buildRunnerOptions(cfg *config) (opts []standalone.RunnerOption,
	responderOpts []tagemu.ResponderOption, cleanup func(), err error,
) {
	var cleanups []func()
	cleanup = func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(failErr error) ([]standalone.RunnerOption, []tagemu.ResponderOption, func(), error) {
		cleanup()
		return nil, nil, func() {}, failErr
	}

	if cfg.ledPins != "" {
		scanPin, emulatePin, activityPin, pinErr := parseLampPins(cfg.ledPins)
		if pinErr != nil {
			return fail(pinErr)
		}
		panel, panelErr := gpio.NewPanel(scanPin, emulatePin, activityPin)
		if panelErr != nil {
			return fail(fmt.Errorf("failed to open lamp pins: %w", panelErr))
		}
		opts = append(opts, standalone.WithIndicators(panel))
		responderOpts = append(responderOpts, tagemu.WithActivityFunc(panel.Activity))
	}

	if cfg.buttonPin != "" {
		button, buttonErr := gpio.NewButton(cfg.buttonPin)
		if buttonErr != nil {
			return fail(fmt.Errorf("failed to open button pin: %w", buttonErr))
		}
		cleanups = append(cleanups, func() { _ = button.Close() })
		opts = append(opts, standalone.WithButton(button))
	} else {
		_, _ = fmt.Println("No button pin configured: press Enter to scan, q+Enter to quit.")
		opts = append(opts, standalone.WithButton(newStdinButton(os.Stdin)))
	}

	if cfg.watchdogPath != "" {
		dog, dogErr := watchdog.Open(cfg.watchdogPath, cfg.watchdogTimeout)
		if dogErr != nil {
			return fail(fmt.Errorf("failed to arm watchdog: %w", dogErr))
		}
		cleanups = append(cleanups, func() {
			if closeErr := dog.Close(); closeErr != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Failed to disarm watchdog: %v\n", closeErr)
			}
		})
		opts = append(opts, standalone.WithWatchdog(dog))
	}

	if cfg.captureDir != "" {
		store, storeErr := capture.NewDirStore(cfg.captureDir)
		if storeErr != nil {
			return fail(fmt.Errorf("failed to open capture directory: %w", storeErr))
		}
		opts = append(opts, standalone.WithRecorder(capture.NewLog(store, "")))
	}

	return opts, responderOpts, cleanup, nil
}

func run(ctx context.Context, cfg *config) error {
	if cfg.devicePath == "" {
		return errors.New("-device is required (e.g. /dev/ttyUSB0)")
	}

	templates, err := loadTemplates(cfg.templatesPath)
	if err != nil {
		return err
	}

	opts, responderOpts, cleanup, err := buildRunnerOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	device, err := uart.Open(cfg.devicePath)
	if err != nil {
		return fmt.Errorf("failed to open controller on %s: %w", cfg.devicePath, err)
	}
	defer func() {
		if closeErr := device.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", closeErr)
		}
	}()

	table := tagemu.NewResponseTable(templates)
	responder := tagemu.NewResponder(device, device, table, responderOpts...)

	runner := standalone.NewRunner(responder, device, nil, opts...)
	runner.OnModeChange = func(from, to standalone.Mode) {
		_, _ = fmt.Printf("Mode: %s -> %s\n", from, to)
	}
	runner.OnTargetFound = func(sel *tagemu.SelectedTarget) {
		_, _ = fmt.Printf("Captured %s tag %s\n", tagemu.IdentifyTarget(sel), sel)
	}

	_, _ = fmt.Printf("Emulating with %d response templates. Press Ctrl+C to stop...\n", table.Len())
	return runner.Run(ctx)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	if cfg.debug {
		if path, err := tagemu.InitSessionLog(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to open session log: %v\n", err)
		} else {
			_, _ = fmt.Printf("Debug session log: %s\n", path)
			defer func() { _ = tagemu.CloseSessionLog() }()
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			// User requested shutdown, exit cleanly
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
