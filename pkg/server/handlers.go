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
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/binkynet/RadioWorker/pkg/service"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

// StatusResponse is returned by the status and control endpoints.
type StatusResponse struct {
	HostID  string             `json:"host_id"`
	Version string             `json:"version"`
	Uptime  string             `json:"uptime"`
	Radio   supervisor.Status  `json:"radio"`
	Link    netlink.LinkStatus `json:"wifi"`
}

// VolumeRequest is the body of a volume change.
type VolumeRequest struct {
	Percent *int `json:"percent"`
}

func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/health", healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/status", s.getStatus)

	api := e.Group("/api")
	api.POST("/play", s.action(s.service.Play))
	api.POST("/stop", s.action(s.service.Stop))
	api.POST("/reconnect", s.action(s.service.Reconnect))
	api.PUT("/volume", s.putVolume)

	e.GET("/debug/pprof/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	e.GET("/debug/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	e.GET("/debug/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	e.GET("/debug/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	e.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	return e
}

func healthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) statusResponse() StatusResponse {
	return StatusResponse{
		HostID:  s.service.HostID(),
		Version: s.service.Version(),
		Uptime:  time.Since(s.service.StartedAt()).Round(time.Second).String(),
		Radio:   s.service.Status(),
		Link:    s.service.LinkStatus(),
	}
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.statusResponse())
}

// action wraps a control function that is handled asynchronously
// by the supervisor.
func (s *Server) action(fn func()) echo.HandlerFunc {
	return func(c echo.Context) error {
		fn()
		return c.JSON(http.StatusAccepted, s.statusResponse())
	}
}

func (s *Server) putVolume(c echo.Context) error {
	var req VolumeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Percent == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "percent is required")
	}
	if err := s.service.SetVolume(*req.Percent); err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, s.statusResponse())
}
