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
	"fmt"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxSSHSessions = 4
)

// sessionLimit rejects SSH sessions once limit sessions are active.
func sessionLimit(limit int64, log zerolog.Logger) wish.Middleware {
	sem := semaphore.NewWeighted(limit)
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			if !sem.TryAcquire(1) {
				log.Warn().
					Str("user", sess.User()).
					Int64("limit", limit).
					Msg("Rejecting SSH session")
				fmt.Fprintln(sess.Stderr(), "Too many sessions, try again later")
				sess.Exit(1)
				return
			}
			defer sem.Release(1)
			next(sess)
		}
	}
}
