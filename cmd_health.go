//    Copyright 2026 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/server"
)

var (
	healthCmd = &cobra.Command{
		Use:   "health [address]",
		Short: "Check whether a radio is playing",
		Long:  "Query the GRPC health service of a radio. Exits with an error unless it is playing.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHealth,
	}
	healthArgs struct {
		timeout time.Duration
	}
)

func init() {
	healthCmd.Flags().DurationVar(&healthArgs.timeout, "timeout", 5*time.Second, "Timeout of the health check")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	address := fmt.Sprintf("127.0.0.1:%d", config.Default().Server.GRPCPort)
	if len(args) > 0 {
		address = args[0]
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthArgs.timeout)
	defer cancel()
	status, err := server.CheckHealth(ctx, address)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), status.String())
	if status != grpc_health_v1.HealthCheckResponse_SERVING {
		return errors.Errorf("radio at %s is not playing", address)
	}
	return nil
}
