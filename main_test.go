//    Copyright 2026 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/service/bridge"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
)

func TestWriteSettingsMasksSecrets(t *testing.T) {
	all := map[string]interface{}{
		"wifi": map[string]interface{}{"ssid": "airband", "password": "secret"},
		"mqtt": map[string]interface{}{"password": ""},
		"reconnect": map[string]interface{}{
			"max_backoff": 30 * time.Second,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, all))
	out := buf.String()
	assert.Contains(t, out, "ssid: airband")
	assert.Contains(t, out, "password: '***'")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "max_backoff: 30s")
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(config.LoggingConfig{Level: "DEBUG", Format: "json"}, nil)
	require.NoError(t, err)

	_, err = newLogger(config.LoggingConfig{Level: "loud"}, nil)
	assert.Error(t, err)
}

func TestNewBridgeAndLink(t *testing.T) {
	br, err := newBridge(config.BridgeVirtual, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &bridge.VirtualBridge{}, br)

	_, err = newBridge("opz", zerolog.Nop())
	assert.Error(t, err)

	assert.IsType(t, &netlink.VirtualLink{}, newLink(config.LinkVirtual, zerolog.Nop()))
}

func TestBindFlags(t *testing.T) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("stream-url", "", "")
	require.NoError(t, bindFlags(v, fs, map[string]string{"stream-url": "stream.url"}))
	require.NoError(t, fs.Parse([]string{"--stream-url", "http://192.168.50.4:8000/scanner.mp3"}))

	cfg, err := config.Load(v, config.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.50.4:8000/scanner.mp3", cfg.Stream.URL)

	assert.Error(t, bindFlags(v, fs, map[string]string{"missing": "stream.url"}))
}
