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
	"time"

	"github.com/mattn/go-pubsub"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/RadioWorker/pkg/service/util"
)

const (
	defaultPollInterval   = 5 * time.Second
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	disconnectTimeout     = 5 * time.Second
)

var (
	errLinkDown = errors.New("link is down")
)

// Config of the link manager.
type Config struct {
	Credentials
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// If set, the link is disconnected when Run returns.
	DisconnectOnExit bool
}

// Dependencies of the link manager.
type Dependencies struct {
	Log  zerolog.Logger
	Link Link
}

// Manager keeps a single WiFi station connection up.
type Manager struct {
	Config
	Dependencies

	mutex   sync.Mutex
	state   State
	status  LinkStatus
	upCh    chan struct{}
	changes *pubsub.PubSub
}

// NewManager creates a new link manager.
func NewManager(cfg Config, deps Dependencies) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	deps.Log = deps.Log.With().Str("component", "netlink").Logger()
	return &Manager{
		Config:       cfg,
		Dependencies: deps,
		state:        StateDown,
		upCh:         make(chan struct{}),
		changes:      util.NewPubSub(deps.Log),
	}
}

// Run the manager until the given context is canceled.
func (m *Manager) Run(ctx context.Context) error {
	log := m.Log
	backoff := util.NewBackoff(m.InitialBackoff, m.MaxBackoff, 2)
	log.Info().
		Str("ssid", m.SSID).
		Str("interface", m.Interface).
		Msg("Starting link manager")
	defer func() {
		if m.DisconnectOnExit {
			dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			defer cancel()
			if err := m.Link.Disconnect(dctx, m.Interface); err != nil {
				log.Warn().Err(err).Msg("Failed to disconnect link")
			}
		}
		m.setState(StateDown, LinkStatus{})
	}()

	util.UntilCanceled(ctx, log, "link check", m.PollInterval, backoff, func() error {
		if !m.poll(ctx) {
			return errLinkDown
		}
		return nil
	})
	return nil
}

// poll checks the link and connects it when needed.
// Returns true when the link is up.
func (m *Manager) poll(ctx context.Context) bool {
	log := m.Log
	status, err := m.Link.Status(ctx, m.Interface)
	if err == nil && status.Connected {
		m.setState(StateUp, status)
		return true
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		statusErrorsTotal.Inc()
		log.Warn().Err(err).Msg("Failed to query link status")
	}

	m.setState(StateConnecting, status)
	connectAttemptsTotal.Inc()
	if err := m.Link.Connect(ctx, m.Credentials); err != nil {
		if ctx.Err() == nil {
			connectFailuresTotal.Inc()
			log.Warn().Err(err).Str("ssid", m.SSID).Msg("Failed to connect link")
		}
		m.setState(StateDown, LinkStatus{})
		return false
	}
	status, err = m.Link.Status(ctx, m.Interface)
	if err != nil || !status.Connected {
		m.setState(StateDown, status)
		return false
	}
	log.Info().
		Str("ssid", status.SSID).
		Str("address", status.Address).
		Msg("Link connected")
	m.setState(StateUp, status)
	return true
}

func (m *Manager) setState(state State, status LinkStatus) {
	m.mutex.Lock()
	changed := m.state != state
	m.status = status
	if changed {
		if state == StateUp {
			close(m.upCh)
		} else if m.state == StateUp {
			m.upCh = make(chan struct{})
		}
		m.state = state
	}
	m.mutex.Unlock()

	if changed {
		linkUpGauge.Set(boolToFloat(state == StateUp))
		m.Log.Debug().Str("state", state.String()).Msg("Link state changed")
		m.changes.Pub(state)
	}
}

// State returns the current state of the link.
func (m *Manager) State() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

// Status returns the last known status of the link.
func (m *Manager) Status() LinkStatus {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.status
}

// WaitUp blocks until the link is up or the given context is canceled.
func (m *Manager) WaitUp(ctx context.Context) error {
	m.mutex.Lock()
	ch := m.upCh
	up := m.state == StateUp
	m.mutex.Unlock()
	if up {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe to state changes.
// Callbacks are called asynchronously and are identified by their
// function, so subscribe every function only once.
func (m *Manager) Subscribe(cb func(State)) (cancel func()) {
	m.changes.Sub(cb)
	return func() {
		m.changes.Leave(cb)
	}
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
