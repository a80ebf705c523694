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

package netlink

import "github.com/binkynet/RadioWorker/pkg/metrics"

const (
	subSystem = "netlink"
)

var (
	connectAttemptsTotal = metrics.MustRegisterCounter(subSystem, "connect_attempts_total", "Number of link connect attempts")
	connectFailuresTotal = metrics.MustRegisterCounter(subSystem, "connect_failures_total", "Number of failed link connect attempts")
	statusErrorsTotal    = metrics.MustRegisterCounter(subSystem, "status_errors_total", "Number of failed link status queries")
	linkUpGauge          = metrics.MustRegisterGauge(subSystem, "up", "1 when the link is up, 0 otherwise")
)
