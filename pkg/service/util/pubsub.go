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
	"github.com/mattn/go-pubsub"
	"github.com/rs/zerolog"
)

// NewPubSub creates a pubsub that logs panics of its subscribers.
// Unread, such a panic blocks the goroutine of the subscriber forever.
func NewPubSub(log zerolog.Logger) *pubsub.PubSub {
	ps := pubsub.New()
	go func() {
		for err := range ps.Error() {
			log.Error().Err(err).Msg("Subscriber panicked")
		}
	}()
	return ps
}
