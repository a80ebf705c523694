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

package netlink

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	nmcliBinary = "nmcli"
	// NetworkManager device state "connected"
	nmDeviceStateConnected = 100
)

// commandRunner runs an external command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, errors.Wrap(err, msg)
		}
		return out, err
	}
	return out, nil
}

type nmcliLink struct {
	log zerolog.Logger
	run commandRunner
}

// NewNMCLILink creates a link that manages the WiFi station
// through NetworkManager.
func NewNMCLILink(log zerolog.Logger) Link {
	return &nmcliLink{
		log: log.With().Str("component", "nmcli").Logger(),
		run: execRunner,
	}
}

// Connect the interface to the network with given credentials.
func (l *nmcliLink) Connect(ctx context.Context, creds Credentials) error {
	args := []string{"device", "wifi", "connect", creds.SSID}
	if creds.Password != "" {
		args = append(args, "password", creds.Password)
	}
	if creds.Interface != "" {
		args = append(args, "ifname", creds.Interface)
	}
	l.log.Debug().
		Str("ssid", creds.SSID).
		Str("interface", creds.Interface).
		Msg("Connecting WiFi station")
	if _, err := l.run(ctx, nmcliBinary, args...); err != nil {
		return errors.Wrapf(err, "failed to connect to '%s'", creds.SSID)
	}
	return nil
}

// Status returns the current status of the given interface.
func (l *nmcliLink) Status(ctx context.Context, iface string) (LinkStatus, error) {
	out, err := l.run(ctx, nmcliBinary, "-t", "-f", "GENERAL.STATE,GENERAL.CONNECTION,IP4.ADDRESS", "device", "show", iface)
	if err != nil {
		return LinkStatus{}, errors.Wrapf(err, "failed to query device '%s'", iface)
	}
	return parseDeviceShow(out), nil
}

// Disconnect the given interface.
func (l *nmcliLink) Disconnect(ctx context.Context, iface string) error {
	if _, err := l.run(ctx, nmcliBinary, "device", "disconnect", iface); err != nil {
		return errors.Wrapf(err, "failed to disconnect '%s'", iface)
	}
	return nil
}

// parseDeviceShow parses the terse output of `nmcli device show`.
//
//	GENERAL.STATE:100 (connected)
//	GENERAL.CONNECTION:radio-net
//	IP4.ADDRESS[1]:192.168.50.23/24
func parseDeviceShow(out []byte) LinkStatus {
	var result LinkStatus
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		switch {
		case key == "GENERAL.STATE":
			code, _, _ := strings.Cut(value, " ")
			if state, err := strconv.Atoi(code); err == nil {
				result.Connected = state == nmDeviceStateConnected
			}
		case key == "GENERAL.CONNECTION":
			if value != "--" {
				result.SSID = value
			}
		case strings.HasPrefix(key, "IP4.ADDRESS") && result.Address == "":
			addr, _, _ := strings.Cut(value, "/")
			result.Address = addr
		}
	}
	return result
}
