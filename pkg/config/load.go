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
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of all environment variables.
	EnvPrefix = "RADIOWORKER"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// LoadOptions selects the optional sources of a configuration.
type LoadOptions struct {
	// Name of an embedded profile or path of a profile file
	Profile string
	// Path of a configuration file
	ConfigFile string
}

// Profiles returns the names of all embedded device profiles.
func Profiles() []string {
	entries, err := profileFS.ReadDir("profiles")
	if err != nil {
		return nil
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && strings.HasSuffix(name, ".yaml") {
			result = append(result, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(result)
	return result
}

// LoadProfile returns the template configuration with the given
// embedded profile applied.
func LoadProfile(name string) (Config, error) {
	return Load(viper.New(), LoadOptions{Profile: name})
}

// Load builds the configuration from (in increasing priority):
// the template defaults, the profile, the config file,
// environment variables and flags bound to v.
func Load(v *viper.Viper, opts LoadOptions) (Config, error) {
	setDefaults(v, Default())
	v.SetConfigType("yaml")

	if opts.Profile != "" {
		data, err := readProfile(opts.Profile)
		if err != nil {
			return Config{}, err
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return Config{}, errors.Wrapf(err, "failed to parse profile '%s'", opts.Profile)
		}
	}
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "failed to read config file '%s'", opts.ConfigFile)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Optional keys have no default, so they must be bound explicitly.
	if err := v.BindEnv("audio.amp_enable_pin"); err != nil {
		return Config{}, errors.Wrap(err, "BindEnv failed")
	}

	var result Config
	if err := v.Unmarshal(&result); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode configuration")
	}
	return result, nil
}

// readProfile reads an embedded profile, or a profile file when
// the name refers to an existing file.
func readProfile(name string) ([]byte, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		if data, err := os.ReadFile(name); err == nil {
			return data, nil
		}
	}
	data, err := profileFS.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown profile '%s' (available: %s)", name, strings.Join(Profiles(), ", "))
	}
	return data, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("wifi.ssid", c.WiFi.SSID)
	v.SetDefault("wifi.password", c.WiFi.Password)
	v.SetDefault("wifi.interface", c.WiFi.Interface)
	v.SetDefault("wifi.link", c.WiFi.Link)

	v.SetDefault("stream.url", c.Stream.URL)
	v.SetDefault("stream.user_agent", c.Stream.UserAgent)
	v.SetDefault("stream.connect_timeout", c.Stream.ConnectTimeout)
	v.SetDefault("stream.read_timeout", c.Stream.ReadTimeout)

	v.SetDefault("audio.bclk_pin", c.Audio.BCLKPin)
	v.SetDefault("audio.lrclk_pin", c.Audio.LRCLKPin)
	v.SetDefault("audio.data_pin", c.Audio.DataPin)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.volume", c.Audio.Volume)

	v.SetDefault("buffer.capacity", c.Buffer.Capacity)
	v.SetDefault("buffer.high_watermark", c.Buffer.HighWatermark)
	v.SetDefault("buffer.low_watermark", c.Buffer.LowWatermark)
	v.SetDefault("buffer.frame_queue", c.Buffer.FrameQueue)

	v.SetDefault("reconnect.initial_backoff", c.Reconnect.InitialBackoff)
	v.SetDefault("reconnect.max_backoff", c.Reconnect.MaxBackoff)
	v.SetDefault("reconnect.factor", c.Reconnect.Factor)
	v.SetDefault("reconnect.stable_after", c.Reconnect.StableAfter)

	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.http_port", c.Server.HTTPPort)
	v.SetDefault("server.grpc_port", c.Server.GRPCPort)
	v.SetDefault("server.ssh_port", c.Server.SSHPort)

	v.SetDefault("mqtt.broker", c.MQTT.Broker)
	v.SetDefault("mqtt.username", c.MQTT.UserName)
	v.SetDefault("mqtt.password", c.MQTT.Password)
	v.SetDefault("mqtt.topic_prefix", c.MQTT.TopicPrefix)
	v.SetDefault("mqtt.logs", c.MQTT.Logs)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)

	v.SetDefault("bridge", c.Bridge)
}
