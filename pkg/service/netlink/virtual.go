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
	"sync"
)

// VirtualLink is a link that is connected unless told otherwise.
// It is used on hosts where the network is managed elsewhere.
type VirtualLink struct {
	mutex     sync.Mutex
	connected bool
	connects  int
}

// NewVirtualLink creates a link that is connected.
func NewVirtualLink() *VirtualLink {
	return &VirtualLink{connected: true}
}

// Connect the interface to the network with given credentials.
func (l *VirtualLink) Connect(ctx context.Context, creds Credentials) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.connected = true
	l.connects++
	return nil
}

// Status returns the current status of the given interface.
func (l *VirtualLink) Status(ctx context.Context, iface string) (LinkStatus, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return LinkStatus{Connected: l.connected}, nil
}

// Disconnect the given interface.
func (l *VirtualLink) Disconnect(ctx context.Context, iface string) error {
	l.SetConnected(false)
	return nil
}

// SetConnected forces the connection state.
func (l *VirtualLink) SetConnected(connected bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.connected = connected
}

// Connects returns the number of Connect calls.
func (l *VirtualLink) Connects() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.connects
}
