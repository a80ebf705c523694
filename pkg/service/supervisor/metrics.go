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

package supervisor

import "github.com/binkynet/RadioWorker/pkg/metrics"

const (
	subSystem = "supervisor"
)

var (
	sessionsTotal   = metrics.MustRegisterCounter(subSystem, "sessions_total", "Number of playback sessions")
	reconnectsTotal = metrics.MustRegisterCounter(subSystem, "reconnects_total", "Number of reconnects after a failed session")
	failuresTotal   = metrics.MustRegisterCounter(subSystem, "failures_total", "Number of sessions that failed with a non-retryable error")
	stateGauge      = metrics.MustRegisterGaugeVec(subSystem, "state", "1 for the current state, 0 otherwise", "state")
)
