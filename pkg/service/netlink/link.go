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
	"context"
)

// Credentials of a WiFi station connection.
type Credentials struct {
	SSID     string
	Password string
	// Network interface (e.g. wlan0)
	Interface string
}

// LinkStatus is the status of a network interface.
type LinkStatus struct {
	Connected bool   `json:"connected"`
	SSID      string `json:"ssid,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Link is the API of an implementation of a WiFi station link.
type Link interface {
	// Connect the interface to the network with given credentials.
	Connect(ctx context.Context, creds Credentials) error
	// Status returns the current status of the given interface.
	Status(ctx context.Context, iface string) (LinkStatus, error)
	// Disconnect the given interface.
	Disconnect(ctx context.Context, iface string) error
}

// State of the link as seen by the manager.
type State int

const (
	StateDown State = iota
	StateConnecting
	StateUp
)

func (s State) String() string {
	switch s {
	case StateDown:
		return "down"
	case StateConnecting:
		return "connecting"
	case StateUp:
		return "up"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
