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

package mqtt

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

type recordingController struct {
	calls  []string
	volume int
}

func (c *recordingController) Status() supervisor.Status { return supervisor.Status{Volume: c.volume} }
func (c *recordingController) Play()                     { c.calls = append(c.calls, "play") }
func (c *recordingController) Stop()                     { c.calls = append(c.calls, "stop") }
func (c *recordingController) Reconnect()                { c.calls = append(c.calls, "reconnect") }
func (c *recordingController) Subscribe(func(supervisor.Status)) func() {
	return func() {}
}

func (c *recordingController) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return errors.Errorf("volume %d out of range", percent)
	}
	c.calls = append(c.calls, "volume")
	c.volume = percent
	return nil
}

func TestHandleCommand(t *testing.T) {
	ctrl := &recordingController{}
	require.NoError(t, HandleCommand(ctrl, []byte(`{"action":"stop"}`)))
	require.NoError(t, HandleCommand(ctrl, []byte(`{"action":"play"}`)))
	require.NoError(t, HandleCommand(ctrl, []byte(`{"action":"reconnect"}`)))
	require.NoError(t, HandleCommand(ctrl, []byte(`{"action":"volume","volume":40}`)))
	assert.Equal(t, []string{"stop", "play", "reconnect", "volume"}, ctrl.calls)
	assert.Equal(t, 40, ctrl.volume)
}

func TestHandleCommandErrors(t *testing.T) {
	ctrl := &recordingController{}
	assert.Error(t, HandleCommand(ctrl, []byte(`not json`)))
	assert.Error(t, HandleCommand(ctrl, []byte(`{"action":"dance"}`)))
	assert.Error(t, HandleCommand(ctrl, []byte(`{"action":"volume"}`)))
	assert.Error(t, HandleCommand(ctrl, []byte(`{"action":"volume","volume":140}`)))
	assert.Empty(t, ctrl.calls)
}

func TestTopics(t *testing.T) {
	s := New(Config{Broker: "tcp://127.0.0.1:1883", TopicPrefix: "radioworker", HostID: "abc123"}, zerolog.Nop())
	assert.Equal(t, "radioworker/abc123/status", s.StatusTopic())
	assert.Equal(t, "radioworker/abc123/command", s.CommandTopic())
	assert.Equal(t, "radioworker/abc123/logs", s.LogTopic())
	assert.Equal(t, "radioworker/abc123/online", s.OnlineTopic())
}

func TestPublishWithoutConnection(t *testing.T) {
	s := New(Config{Broker: "tcp://127.0.0.1:1883", HostID: "abc123"}, zerolog.Nop())
	assert.Error(t, s.Publish(context.Background(), s.StatusTopic(), []byte("{}"), false))
}

// statusController holds a current state and hands out its subscriber.
type statusController struct {
	recordingController
	state    supervisor.State
	cb       func(supervisor.Status)
	canceled bool
}

func (c *statusController) Status() supervisor.Status {
	return supervisor.Status{State: c.state}
}

func (c *statusController) Subscribe(cb func(supervisor.Status)) func() {
	c.cb = cb
	return func() { c.canceled = true }
}

func TestSubscribeChangesIgnoresStaleStatus(t *testing.T) {
	ctrl := &statusController{state: supervisor.StatePlaying}
	changes, cancel := subscribeChanges(ctrl)
	require.NotNil(t, ctrl.cb)

	// Notifications overtake each other
	ctrl.cb(supervisor.Status{State: supervisor.StatePlaying})
	ctrl.cb(supervisor.Status{State: supervisor.StateBuffering})

	select {
	case <-changes:
	default:
		t.Fatal("expected a change signal")
	}
	assert.Equal(t, supervisor.StatePlaying, ctrl.Status().State)

	// Coalesced into a single signal
	select {
	case <-changes:
		t.Fatal("unexpected second signal")
	default:
	}

	cancel()
	assert.True(t, ctrl.canceled)
}
