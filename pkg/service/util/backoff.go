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

package util

import (
	"sync"
	"time"
)

// Backoff yields exponentially growing delays.
type Backoff struct {
	mutex   sync.Mutex
	initial time.Duration
	max     time.Duration
	factor  float64
	next    time.Duration
	attempt int
}

// NewBackoff creates a backoff that starts at initial, grows by factor
// and is capped at max.
func NewBackoff(initial, max time.Duration, factor float64) *Backoff {
	if factor < 1 {
		factor = 1
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		factor:  factor,
		next:    initial,
	}
}

// Next returns the delay to use for the current attempt and
// advances to the next one.
func (b *Backoff) Next() time.Duration {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	d := b.next
	b.attempt++
	b.next = time.Duration(float64(b.next) * b.factor)
	if b.next > b.max {
		b.next = b.max
	}
	return d
}

// Max returns the maximum delay.
func (b *Backoff) Max() time.Duration {
	return b.max
}

// Attempt returns the number of delays handed out since the last reset.
func (b *Backoff) Attempt() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.attempt
}

// Reset the backoff to its initial delay.
func (b *Backoff) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.next = b.initial
	b.attempt = 0
}
