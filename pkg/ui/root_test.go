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

package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/binkynet/RadioWorker/pkg/service"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/pipeline"
	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

type fakeService struct {
	calls  []string
	status supervisor.Status
}

func (f *fakeService) HostID() string            { return "0123456789" }
func (f *fakeService) Version() string           { return "1.2.3" }
func (f *fakeService) StartedAt() time.Time      { return time.Now() }
func (f *fakeService) Status() supervisor.Status { return f.status }
func (f *fakeService) LinkStatus() netlink.LinkStatus {
	return netlink.LinkStatus{Connected: true, SSID: "airband"}
}
func (f *fakeService) Play()      { f.calls = append(f.calls, "play") }
func (f *fakeService) Stop()      { f.calls = append(f.calls, "stop") }
func (f *fakeService) Reconnect() { f.calls = append(f.calls, "reconnect") }

func (f *fakeService) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return errors.Wrap(service.ErrInvalidArgument, "out of range")
	}
	f.status.Volume = percent
	return nil
}

func (f *fakeService) Subscribe(func(supervisor.Status)) func() { return func() {} }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(r Root, msg tea.Msg) Root {
	m, _ := r.Update(msg)
	return m.(Root)
}

func TestKeys(t *testing.T) {
	svc := &fakeService{status: supervisor.Status{State: supervisor.StatePlaying, Volume: 98}}
	r := NewRoot(svc, "xterm")

	r = update(r, key("+"))
	assert.Equal(t, 100, svc.status.Volume, "volume is capped")
	r = update(r, key("-"))
	r = update(r, key("-"))
	assert.Equal(t, 90, svc.status.Volume)
	assert.NoError(t, r.err)

	r = update(r, key("r"))
	r = update(r, key("s"))
	svc.status.State = supervisor.StateStopped
	r = update(r, statusMsg{status: svc.status})
	r = update(r, key("s"))
	assert.Equal(t, []string{"reconnect", "stop", "play"}, svc.calls)

	_, cmd := r.Update(key("q"))
	assert.NotNil(t, cmd)
}

func TestView(t *testing.T) {
	svc := &fakeService{status: supervisor.Status{
		State:     supervisor.StateReconnecting,
		StreamURL: "http://192.168.50.4:8000/airband.mp3",
		Title:     "Tower 118.100",
		Attempt:   3,
		LastError: "read timeout",
		Volume:    60,
		Buffer:    pipeline.Stats{Ring: pipeline.RingStats{Capacity: 256 * 1024, Filled: 64 * 1024}},
	}}
	r := NewRoot(svc, "xterm")
	view := r.View()
	assert.Contains(t, view, "reconnecting")
	assert.Contains(t, view, "attempt 3")
	assert.Contains(t, view, "Tower 118.100")
	assert.Contains(t, view, "read timeout")
	assert.Contains(t, view, "66 kB / 262 kB")
	assert.Contains(t, view, "60%")
	assert.Contains(t, view, "airband")
}
