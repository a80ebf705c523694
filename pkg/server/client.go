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

	"github.com/pkg/errors"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/binkynet/RadioWorker/pkg/service/util"
)

// CheckHealth asks the GRPC health service of a radio at the given
// address whether it is playing.
func CheckHealth(ctx context.Context, address string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	conn, err := util.DialConn(address)
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, errors.Wrapf(err, "failed to dial '%s'", address)
	}
	defer conn.Close()
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{
		Service: HealthServiceName,
	})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, errors.Wrap(err, "health check failed")
	}
	return resp.GetStatus(), nil
}
