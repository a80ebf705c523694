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
	"time"
)

const (
	// PlaceholderSSID is the SSID shipped in the template configuration.
	PlaceholderSSID = "YOUR-SSID"
	// PlaceholderPassword is the password shipped in the template configuration.
	PlaceholderPassword = "YOUR-PASSWORD"

	// PinUnused marks an I2S clock pin as not connected.
	PinUnused = -1
	// DefaultDataPin is the GPIO of the board's internal DAC output.
	DefaultDataPin = 25
	// DefaultAmpEnablePin is the GPIO used by boards with a switchable amplifier.
	DefaultAmpEnablePin = 4

	// LinkNMCLI drives the WiFi station through NetworkManager.
	LinkNMCLI = "nmcli"
	// LinkVirtual assumes the network is always available.
	LinkVirtual = "virtual"

	// BridgeRaspberryPi uses the GPIO header of a Raspberry Pi.
	BridgeRaspberryPi = "rpi"
	// BridgeVirtual has no hardware attached.
	BridgeVirtual = "virtual"
	// BridgeAuto detects the bridge from the environment.
	BridgeAuto = "auto"
)

// Config holds all configuration of the radio worker.
type Config struct {
	WiFi      WiFiConfig      `mapstructure:"wifi"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Server    ServerConfig    `mapstructure:"server"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	// Type of bridge to use (rpi|virtual|auto)
	Bridge string `mapstructure:"bridge"`
}

// WiFiConfig holds the station credentials.
type WiFiConfig struct {
	SSID      string `mapstructure:"ssid"`
	Password  string `mapstructure:"password"`
	Interface string `mapstructure:"interface"`
	// Link implementation (nmcli|virtual)
	Link string `mapstructure:"link"`
}

// StreamConfig holds the HTTP audio stream endpoint.
type StreamConfig struct {
	URL            string        `mapstructure:"url"`
	UserAgent      string        `mapstructure:"user_agent"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

// AudioConfig holds the audio output pin assignments.
// A BCLK/LRCLK pin of -1 disables true I2S mode, in which case
// the data pin is the internal DAC output.
type AudioConfig struct {
	AmpEnablePin *int `mapstructure:"amp_enable_pin"`
	BCLKPin      int  `mapstructure:"bclk_pin"`
	LRCLKPin     int  `mapstructure:"lrclk_pin"`
	DataPin      int  `mapstructure:"data_pin"`
	SampleRate   int  `mapstructure:"sample_rate"`
	// Initial volume in percent (0-100)
	Volume int `mapstructure:"volume"`
}

// BufferConfig holds the sizes of the decode/buffer pipeline.
type BufferConfig struct {
	Capacity      int `mapstructure:"capacity"`
	HighWatermark int `mapstructure:"high_watermark"`
	LowWatermark  int `mapstructure:"low_watermark"`
	FrameQueue    int `mapstructure:"frame_queue"`
}

// ReconnectConfig controls the reconnect backoff of the supervisor.
type ReconnectConfig struct {
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Factor         float64       `mapstructure:"factor"`
	StableAfter    time.Duration `mapstructure:"stable_after"`
}

// ServerConfig holds the listener configuration of the control servers.
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	HTTPPort int    `mapstructure:"http_port"`
	GRPCPort int    `mapstructure:"grpc_port"`
	// SSH port, 0 disables the SSH status UI
	SSHPort int `mapstructure:"ssh_port"`
}

// MQTTConfig holds the optional MQTT bridge configuration.
type MQTTConfig struct {
	// Broker URL (e.g. tcp://host:1883), empty disables MQTT
	Broker      string `mapstructure:"broker"`
	UserName    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	// Forward logs to MQTT
	Logs bool `mapstructure:"logs"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Default returns the canonical configuration template.
// Per-device profiles override parts of it.
func Default() Config {
	return Config{
		WiFi: WiFiConfig{
			SSID:      PlaceholderSSID,
			Password:  PlaceholderPassword,
			Interface: "wlan0",
			Link:      LinkNMCLI,
		},
		Stream: StreamConfig{
			URL:            "http://192.168.50.4:8000/airband.mp3",
			UserAgent:      "RadioWorker",
			ConnectTimeout: 10 * time.Second,
			ReadTimeout:    5 * time.Second,
		},
		Audio: AudioConfig{
			BCLKPin:    PinUnused,
			LRCLKPin:   PinUnused,
			DataPin:    DefaultDataPin,
			SampleRate: 44100,
			Volume:     80,
		},
		Buffer: BufferConfig{
			Capacity:      256 * 1024,
			HighWatermark: 32 * 1024,
			LowWatermark:  16 * 1024,
			FrameQueue:    64,
		},
		Reconnect: ReconnectConfig{
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
			Factor:         2.0,
			StableAfter:    30 * time.Second,
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 7129,
			GRPCPort: 7130,
			SSHPort:  7122,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "radioworker",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Bridge: BridgeAuto,
	}
}

// HasAmpEnablePin returns true when an amplifier enable GPIO is configured.
func (c AudioConfig) HasAmpEnablePin() bool {
	return c.AmpEnablePin != nil
}
