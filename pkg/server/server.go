// Copyright 2023 Ewout Prangsma
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

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/binkynet/RadioWorker/pkg/service"
)

const (
	shutdownTimeout = 5 * time.Second
)

// Config for the HTTP server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	HTTPPort int
	// Port to listen on for SSH requests (0 disables SSH)
	SSHPort int
	// Port to listen on for GRPC requests
	GRPCPort int
	// Path of the SSH host key, created when it does not exist
	HostKeyPath string
	// Maximum number of concurrent SSH sessions
	MaxSSHSessions int
}

// Server runs the HTTP, GRPC and SSH servers for the service.
type Server struct {
	Config
	log     zerolog.Logger
	ui      UI
	service service.API
	health  *health.Server
}

type UI interface {
	// Handler creates a Bubble Tea model for an incoming SSH session.
	Handler(s ssh.Session) (tea.Model, []tea.ProgramOption)
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, ui UI, svc service.API) (*Server, error) {
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = ".ssh/id_ed25519"
	}
	if cfg.MaxSSHSessions <= 0 {
		cfg.MaxSSHSessions = defaultMaxSSHSessions
	}
	return &Server{
		Config:  cfg,
		log:     log.With().Str("component", "server").Logger(),
		ui:      ui,
		service: svc,
		health:  health.NewServer(),
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	// Prepare HTTP listener
	log := s.log
	httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on address %s", httpAddr)
	}

	// Prepare HTTP server
	httpSrv := http.Server{
		Handler: s.newRouter(),
	}

	// Prepare GRPC listener
	grpcAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.GRPCPort))
	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		httpLis.Close()
		return errors.Wrapf(err, "failed to listen on address %s", grpcAddr)
	}

	// Prepare GRPC server
	grpcSrv := grpc.NewServer(
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
			grpc_prometheus.StreamServerInterceptor,
			grpc_recovery.StreamServerInterceptor(),
		)),
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_prometheus.UnaryServerInterceptor,
			grpc_recovery.UnaryServerInterceptor(),
		)),
	)
	grpc_health_v1.RegisterHealthServer(grpcSrv, s.health)
	// Register reflection service on gRPC server.
	reflection.Register(grpcSrv)
	grpc_prometheus.Register(grpcSrv)

	// Prepare SSH server
	var sshServer *ssh.Server
	sshAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.SSHPort))
	if s.SSHPort != 0 && s.ui != nil {
		sshServer, err = wish.NewServer(
			wish.WithAddress(sshAddr),
			// The SSH server needs its own keys, an ED25519 keypair is
			// created in the given path if it doesn't exist yet.
			wish.WithHostKeyPath(s.HostKeyPath),
			// The last item in the chain is the first to be called.
			wish.WithMiddleware(
				bubbletea.Middleware(s.ui.Handler),
				sessionLimit(int64(s.MaxSSHSessions), log),
				activeterm.Middleware(),
				logging.Middleware(),
			),
		)
		if err != nil {
			httpLis.Close()
			grpcLis.Close()
			return fmt.Errorf("could not start SSH server: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
	g.Go(func() error {
		if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "failed to serve HTTP server")
		}
		log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
		return nil
	})
	log.Debug().Str("address", grpcAddr).Msg("Serving GRPC")
	g.Go(func() error {
		if err := grpcSrv.Serve(grpcLis); err != nil {
			return errors.Wrap(err, "failed to serve GRPC server")
		}
		log.Debug().Str("address", grpcAddr).Msg("Done Serving GRPC")
		return nil
	})
	if sshServer != nil {
		// Serve UI
		log.Debug().Str("address", sshAddr).Msg("Serving SSH")
		g.Go(func() error {
			if err := sshServer.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				return errors.Wrap(err, "failed to serve SSH server")
			}
			log.Debug().Str("address", sshAddr).Msg("Done Serving SSH")
			return nil
		})
	}
	g.Go(func() error {
		s.updateHealth(ctx)
		return nil
	})
	g.Go(func() error {
		// Wait until context closed
		<-ctx.Done()

		log.Info().Msg("Closing servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.health.Shutdown()
		httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		if sshServer != nil {
			sshServer.Shutdown(shutdownCtx)
		}
		return nil
	})
	return g.Wait()
}
