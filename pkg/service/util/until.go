// Copyright 2021 Ewout Prangsma
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
	"context"
	"time"

	"github.com/rs/zerolog"
)

// UntilCanceled continues to call the given callback
// until the given context is canceled.
// After a failure, the next call is delayed by the given backoff.
// After a success, the next call is delayed by interval.
func UntilCanceled(ctx context.Context, log zerolog.Logger, description string, interval time.Duration, backoff *Backoff, cb func() error) {
	for {
		if ctx.Err() != nil {
			// Context canceled
			return
		}
		delay := interval
		if err := cb(); err != nil {
			delay = backoff.Next()
			log.Warn().Err(err).Dur("retry-in", delay).Msgf("%s failed", description)
		} else {
			backoff.Reset()
		}
		if !Sleep(ctx, delay) {
			log.Debug().Msgf("Stopping %s; context canceled", description)
			return
		}
	}
}

// Sleep waits for the given duration.
// Returns false when the context was canceled before that.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		// Context canceled
		return false
	case <-t.C:
		return true
	}
}
