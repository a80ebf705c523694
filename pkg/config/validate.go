// Copyright 2026 Ewout Prangsma
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
//
// Author Ewout Prangsma
//

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate the configuration.
func (c Config) Validate() error {
	if err := ValidateStreamURL(c.Stream.URL); err != nil {
		return err
	}
	if err := c.Audio.Validate(); err != nil {
		return err
	}
	if err := c.Buffer.Validate(); err != nil {
		return err
	}
	if err := c.Reconnect.Validate(); err != nil {
		return err
	}
	switch c.WiFi.Link {
	case LinkNMCLI, LinkVirtual:
	default:
		return invalid("wifi.link", "unknown link type '%s' (%s|%s)", c.WiFi.Link, LinkNMCLI, LinkVirtual)
	}
	switch c.Bridge {
	case BridgeRaspberryPi, BridgeVirtual, BridgeAuto:
	default:
		return invalid("bridge", "unknown bridge type '%s' (%s|%s|%s)", c.Bridge, BridgeRaspberryPi, BridgeVirtual, BridgeAuto)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return invalid("logging.format", "unknown format '%s' (console|json)", c.Logging.Format)
	}
	return nil
}

// ValidateCredentials checks the WiFi credentials.
// Credentials are only needed when the worker manages the WiFi link itself.
func (c Config) ValidateCredentials() error {
	if c.WiFi.Link != LinkNMCLI {
		return nil
	}
	if c.WiFi.SSID == "" || c.WiFi.SSID == PlaceholderSSID {
		return invalid("wifi.ssid", "SSID is required")
	}
	if c.WiFi.Password == PlaceholderPassword {
		return invalid("wifi.password", "password is still the template placeholder")
	}
	if c.WiFi.Interface == "" {
		return invalid("wifi.interface", "interface is required")
	}
	return nil
}

// ValidateStreamURL checks that the given stream URL is a well-formed
// HTTP URL with scheme, host and path.
func ValidateStreamURL(raw string) error {
	if raw == "" {
		return invalid("stream.url", "stream URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return invalid("stream.url", "malformed URL: %v", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return invalid("stream.url", "unsupported scheme '%s'", u.Scheme)
	}
	if u.Hostname() == "" {
		return invalid("stream.url", "host is missing")
	}
	if u.Path == "" || u.Path == "/" {
		return invalid("stream.url", "path is missing")
	}
	return nil
}

// Validate the audio pin assignments.
func (c AudioConfig) Validate() error {
	if c.DataPin < 0 {
		return invalid("audio.data_pin", "data pin is required")
	}
	clocksUnused := c.BCLKPin == PinUnused && c.LRCLKPin == PinUnused
	clocksUsed := c.BCLKPin >= 0 && c.LRCLKPin >= 0
	if !clocksUnused && !clocksUsed {
		return invalid("audio.bclk_pin", "BCLK (%d) and LRCLK (%d) must both be -1 or both be set", c.BCLKPin, c.LRCLKPin)
	}
	if clocksUsed && (c.BCLKPin == c.LRCLKPin || c.BCLKPin == c.DataPin || c.LRCLKPin == c.DataPin) {
		return invalid("audio.bclk_pin", "I2S pins must be distinct")
	}
	if pin := c.AmpEnablePin; pin != nil {
		if *pin < 0 {
			return invalid("audio.amp_enable_pin", "invalid pin %d", *pin)
		}
		if *pin == c.DataPin || *pin == c.BCLKPin || *pin == c.LRCLKPin {
			return invalid("audio.amp_enable_pin", "pin %d is already used for audio", *pin)
		}
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return invalid("audio.sample_rate", "sample rate %d out of range", c.SampleRate)
	}
	if c.Volume < 0 || c.Volume > 100 {
		return invalid("audio.volume", "volume %d out of range 0-100", c.Volume)
	}
	return nil
}

// Validate the buffer sizes.
func (c BufferConfig) Validate() error {
	if c.Capacity <= 0 {
		return invalid("buffer.capacity", "capacity must be positive")
	}
	if c.LowWatermark <= 0 || c.LowWatermark > c.HighWatermark {
		return invalid("buffer.low_watermark", "low watermark must be in 1..high watermark")
	}
	if c.HighWatermark > c.Capacity {
		return invalid("buffer.high_watermark", "high watermark exceeds capacity")
	}
	if c.FrameQueue <= 0 {
		return invalid("buffer.frame_queue", "frame queue must be positive")
	}
	return nil
}

// Validate the reconnect settings.
func (c ReconnectConfig) Validate() error {
	if c.InitialBackoff <= 0 {
		return invalid("reconnect.initial_backoff", "must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return invalid("reconnect.max_backoff", "must be >= initial backoff")
	}
	if c.Factor < 1 {
		return invalid("reconnect.factor", "must be >= 1")
	}
	return nil
}
