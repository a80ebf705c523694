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

package util

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

func TestPubSubLogsPanics(t *testing.T) {
	var out syncBuffer
	ps := NewPubSub(zerolog.New(&out))

	var calls atomic.Int32
	ps.Sub(func(v int) {
		panic("bad subscriber")
	})
	ps.Sub(func(v string) {
		calls.Add(1)
	})

	for i := 0; i < 3; i++ {
		ps.Pub(i)
		ps.Pub("next")
	}
	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "Subscriber panicked") == 3
	}, 5*time.Second, time.Millisecond)
	assert.Contains(t, out.String(), "bad subscriber")
	require.Eventually(t, func() bool { return calls.Load() == 3 }, 5*time.Second, time.Millisecond)
}
