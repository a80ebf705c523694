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

package server

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSession records what the middleware does with a session.
type testSession struct {
	ssh.Session
	stderr   bytes.Buffer
	exitCode int
}

func (s *testSession) User() string          { return "radio" }
func (s *testSession) Stderr() io.ReadWriter { return &s.stderr }
func (s *testSession) Exit(code int) error   { s.exitCode = code; return nil }

func TestSessionLimit(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	handler := sessionLimit(1, zerolog.Nop())(func(ssh.Session) {
		entered <- struct{}{}
		<-release
	})

	first := &testSession{}
	firstDone := make(chan struct{})
	go func() {
		handler(first)
		close(firstDone)
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first session not served")
	}

	// Over the limit
	second := &testSession{}
	handler(second)
	assert.Equal(t, 1, second.exitCode)
	assert.Contains(t, second.stderr.String(), "Too many sessions")

	close(release)
	<-firstDone
	assert.Equal(t, 0, first.exitCode)

	// Slot is free again
	third := &testSession{}
	handler(third)
	require.Len(t, entered, 1)
	assert.Equal(t, 0, third.exitCode)
}
