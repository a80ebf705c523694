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

package mqtt

import "github.com/binkynet/RadioWorker/pkg/metrics"

const (
	subSystem = "mqtt"
)

var (
	publishedTotal       = metrics.MustRegisterCounter(subSystem, "published_total", "Number of messages published")
	publishFailuresTotal = metrics.MustRegisterCounter(subSystem, "publish_failures_total", "Number of failed publications")
	commandsTotal        = metrics.MustRegisterCounter(subSystem, "commands_total", "Number of commands received")
	commandErrorsTotal   = metrics.MustRegisterCounter(subSystem, "command_errors_total", "Number of invalid commands received")
	connectionLostTotal  = metrics.MustRegisterCounter(subSystem, "connection_lost_total", "Number of times the broker connection was lost")
)
