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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mutex    sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.payloads)
}

func TestMQTTWriterForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewMQTTWriter(ctx)
	pub := &recordingPublisher{}
	w.SetDestination("radioworker/abc/logs", pub)
	w.Enable(true)

	buf := []byte(`{"level":"info","message":"hello"}`)
	_, err := w.Write(buf)
	require.NoError(t, err)
	// The caller may reuse its buffer
	copy(buf, bytes.Repeat([]byte("x"), len(buf)))

	require.Eventually(t, func() bool { return pub.count() == 1 }, 5*time.Second, time.Millisecond)
	var msg logMsg
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, `{"level":"info","message":"hello"}`, msg.Message)
	assert.Equal(t, "radioworker/abc/logs", pub.topics[0])
}

func TestMQTTWriterDropsOldest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewMQTTWriter(ctx)
	for i := 0; i < mqttQueueSize+10; i++ {
		w.Write([]byte("line"))
	}
	assert.Equal(t, 10, w.Dropped())
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := NewMultiWriter(&a, &b)
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", a.String())
	assert.Equal(t, "abc", b.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, assert.AnError }

func TestMultiWriterContinuesAfterError(t *testing.T) {
	var a bytes.Buffer
	w := NewMultiWriter(failingWriter{}, nil, &a)
	_, err := w.Write([]byte("abc"))
	assert.Error(t, err)
	assert.Equal(t, "abc", a.String())
}
