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
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func intPtr(v int) *int { return &v }

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, OutputModeDAC, c.Audio.Mode())
	assert.False(t, c.Audio.HasAmpEnablePin())
	// Template credentials must be replaced before managing WiFi.
	assert.Error(t, c.ValidateCredentials())
}

func TestProfilesAreConsistent(t *testing.T) {
	names := Profiles()
	require.Len(t, names, 5)

	withAmp := 0
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			c, err := LoadProfile(name)
			require.NoError(t, err)
			require.NoError(t, c.Validate())

			assert.Equal(t, 25, c.Audio.DataPin)
			assert.Equal(t, -1, c.Audio.BCLKPin)
			assert.Equal(t, -1, c.Audio.LRCLKPin)
			assert.Equal(t, OutputModeDAC, c.Audio.Mode())
			if c.Audio.HasAmpEnablePin() {
				assert.Equal(t, 4, *c.Audio.AmpEnablePin)
				withAmp++
			}

			u, err := url.Parse(c.Stream.URL)
			require.NoError(t, err)
			assert.Equal(t, "http", u.Scheme)
			assert.NotEmpty(t, u.Hostname())
			assert.NotEmpty(t, u.Path)
		})
	}
	assert.Equal(t, 2, withAmp)
}

func TestProfilesOnlyOverrideTemplate(t *testing.T) {
	base := viper.New()
	setDefaults(base, Default())
	for _, name := range Profiles() {
		data, err := readProfile(name)
		require.NoError(t, err)
		var sections map[string]map[string]interface{}
		require.NoError(t, yaml.Unmarshal(data, &sections))
		assert.NotContains(t, sections, "wifi", name)
		for section, values := range sections {
			for key, value := range values {
				full := section + "." + key
				if full == "stream.url" {
					// Every profile names its stream
					continue
				}
				assert.NotEqual(t, fmt.Sprint(base.Get(full)), fmt.Sprint(value), "%s repeats %s", name, full)
			}
		}
	}
}

func TestProfilesDifferInStreamURL(t *testing.T) {
	seen := map[string]bool{}
	for _, name := range Profiles() {
		c, err := LoadProfile(name)
		require.NoError(t, err)
		seen[c.Stream.URL] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestUnknownProfile(t *testing.T) {
	_, err := LoadProfile("does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "airband-local")
}

func TestMode(t *testing.T) {
	tests := []struct {
		name  string
		audio AudioConfig
		want  OutputMode
	}{
		{"internal dac", AudioConfig{BCLKPin: -1, LRCLKPin: -1, DataPin: 25}, OutputModeDAC},
		{"true i2s", AudioConfig{BCLKPin: 26, LRCLKPin: 27, DataPin: 25}, OutputModeI2S},
		{"only bclk", AudioConfig{BCLKPin: 26, LRCLKPin: -1, DataPin: 25}, OutputModeDAC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.audio.Mode())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"valid i2s", func(c *Config) { c.Audio.BCLKPin, c.Audio.LRCLKPin = 26, 27 }, ""},
		{"valid amp", func(c *Config) { c.Audio.AmpEnablePin = intPtr(4) }, ""},
		{"valid https", func(c *Config) { c.Stream.URL = "https://radio.example.net/live" }, ""},
		{"empty url", func(c *Config) { c.Stream.URL = "" }, "stream.url"},
		{"ftp url", func(c *Config) { c.Stream.URL = "ftp://192.168.50.4/airband.mp3" }, "stream.url"},
		{"no host", func(c *Config) { c.Stream.URL = "http:///airband.mp3" }, "stream.url"},
		{"no path", func(c *Config) { c.Stream.URL = "http://192.168.50.4:8000" }, "stream.url"},
		{"no data pin", func(c *Config) { c.Audio.DataPin = -1 }, "audio.data_pin"},
		{"mixed clocks", func(c *Config) { c.Audio.BCLKPin = 26 }, "audio.bclk_pin"},
		{"clock on data pin", func(c *Config) { c.Audio.BCLKPin, c.Audio.LRCLKPin = 25, 27 }, "audio.bclk_pin"},
		{"negative amp pin", func(c *Config) { c.Audio.AmpEnablePin = intPtr(-1) }, "audio.amp_enable_pin"},
		{"amp on data pin", func(c *Config) { c.Audio.AmpEnablePin = intPtr(25) }, "audio.amp_enable_pin"},
		{"volume", func(c *Config) { c.Audio.Volume = 101 }, "audio.volume"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 0 }, "audio.sample_rate"},
		{"watermarks", func(c *Config) { c.Buffer.LowWatermark = c.Buffer.HighWatermark + 1 }, "buffer.low_watermark"},
		{"high above capacity", func(c *Config) { c.Buffer.HighWatermark = c.Buffer.Capacity + 1 }, "buffer.high_watermark"},
		{"frame queue", func(c *Config) { c.Buffer.FrameQueue = 0 }, "buffer.frame_queue"},
		{"backoff", func(c *Config) { c.Reconnect.MaxBackoff = time.Millisecond }, "reconnect.max_backoff"},
		{"link", func(c *Config) { c.WiFi.Link = "wpa" }, "wifi.link"},
		{"bridge", func(c *Config) { c.Bridge = "opz" }, "bridge"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	c := Default()
	c.WiFi.SSID = "radio-net"
	c.WiFi.Password = "secret"
	assert.NoError(t, c.ValidateCredentials())

	c.WiFi.Password = PlaceholderPassword
	assert.Error(t, c.ValidateCredentials())

	c = Default()
	c.WiFi.Link = LinkVirtual
	assert.NoError(t, c.ValidateCredentials())
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "radioworker.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
wifi:
  ssid: radio-net
stream:
  url: http://stream.example.org/live.mp3
buffer:
  frame_queue: 16
`), 0644))

	t.Setenv("RADIOWORKER_AUDIO_VOLUME", "42")
	t.Setenv("RADIOWORKER_AUDIO_AMP_ENABLE_PIN", "4")

	c, err := Load(viper.New(), LoadOptions{Profile: "airband-local", ConfigFile: file})
	require.NoError(t, err)
	assert.Equal(t, "radio-net", c.WiFi.SSID)
	assert.Equal(t, "http://stream.example.org/live.mp3", c.Stream.URL)
	assert.Equal(t, 16, c.Buffer.FrameQueue)
	assert.Equal(t, 42, c.Audio.Volume)
	require.NotNil(t, c.Audio.AmpEnablePin)
	assert.Equal(t, 4, *c.Audio.AmpEnablePin)
	// Defaults survive
	assert.Equal(t, 25, c.Audio.DataPin)
	assert.Equal(t, 5*time.Second, c.Stream.ReadTimeout)
}
