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

package fetcher

import "github.com/binkynet/RadioWorker/pkg/metrics"

const (
	subSystem = "fetcher"
)

var (
	openAttemptsTotal  = metrics.MustRegisterCounter(subSystem, "open_attempts_total", "Number of stream open attempts")
	openFailuresTotal  = metrics.MustRegisterCounter(subSystem, "open_failures_total", "Number of failed stream open attempts")
	bytesReceivedTotal = metrics.MustRegisterCounter(subSystem, "bytes_received_total", "Number of encoded audio bytes received")
	readTimeoutsTotal  = metrics.MustRegisterCounter(subSystem, "read_timeouts_total", "Number of stream read timeouts")
	titleChangesTotal  = metrics.MustRegisterCounter(subSystem, "title_changes_total", "Number of stream title changes")
)
