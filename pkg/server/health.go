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
	"context"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

const (
	// HealthServiceName is the GRPC health service name of the radio.
	HealthServiceName = "radioworker"
	healthInterval    = time.Second
)

// servingStatus maps a supervisor state to a GRPC health status.
// The radio is only healthy while audio is playing.
func servingStatus(state supervisor.State) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if state == supervisor.StatePlaying {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}

// updateHealth copies the supervisor state into the GRPC health
// server until the given context is canceled.
func (s *Server) updateHealth(ctx context.Context) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		status := servingStatus(s.service.Status().State)
		s.health.SetServingStatus("", status)
		s.health.SetServingStatus(HealthServiceName, status)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
