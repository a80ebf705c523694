//    Copyright 2017-2022 Ewout Prangsma
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

package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

var (
	// ErrInvalidArgument is returned for requests with arguments out of range.
	ErrInvalidArgument = errors.New("invalid argument")
)

// API is the control surface used by the HTTP, gRPC, SSH and MQTT frontends.
type API interface {
	HostID() string
	Version() string
	StartedAt() time.Time
	// Status of the playback supervisor
	Status() supervisor.Status
	// LinkStatus returns the last known WiFi status
	LinkStatus() netlink.LinkStatus
	Play()
	Stop()
	Reconnect()
	// SetVolume sets the volume in percent (0-100)
	SetVolume(percent int) error
	Subscribe(cb func(supervisor.Status)) (cancel func())
}

func (s *service) HostID() string       { return s.hostID }
func (s *service) Version() string      { return s.ProgramVersion }
func (s *service) StartedAt() time.Time { return s.startedAt }

func (s *service) Status() supervisor.Status {
	return s.supervisor.Status()
}

func (s *service) LinkStatus() netlink.LinkStatus {
	return s.link.Status()
}

// Play resumes playback after a Stop.
func (s *service) Play() {
	apiRequestsTotal.WithLabelValues("play").Inc()
	s.Logger.Info().Msg("Play requested")
	s.supervisor.Play()
}

// Stop playback until Play is called.
func (s *service) Stop() {
	apiRequestsTotal.WithLabelValues("stop").Inc()
	s.Logger.Info().Msg("Stop requested")
	s.supervisor.Stop()
}

// Reconnect drops the current stream and connects again.
func (s *service) Reconnect() {
	apiRequestsTotal.WithLabelValues("reconnect").Inc()
	s.Logger.Info().Msg("Reconnect requested")
	s.supervisor.Reconnect()
}

func (s *service) SetVolume(percent int) error {
	apiRequestsTotal.WithLabelValues("volume").Inc()
	if percent < 0 || percent > 100 {
		apiErrorsTotal.WithLabelValues("volume").Inc()
		return errors.Wrapf(ErrInvalidArgument, "volume %d out of range 0-100", percent)
	}
	s.Logger.Debug().Int("percent", percent).Msg("Volume change requested")
	s.supervisor.SetVolume(percent)
	return nil
}

func (s *service) Subscribe(cb func(supervisor.Status)) (cancel func()) {
	return s.supervisor.Subscribe(cb)
}
