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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/logging"
	"github.com/binkynet/RadioWorker/pkg/mqtt"
	"github.com/binkynet/RadioWorker/pkg/service/bridge"
	"github.com/binkynet/RadioWorker/pkg/service/fetcher"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/output"
	"github.com/binkynet/RadioWorker/pkg/service/pipeline"
	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

type Service interface {
	// Run the radio until the given context is cancelled.
	Run(ctx context.Context) error
	API
}

type Config struct {
	ProgramVersion string
	HostID         string // Only used if not empty
	Radio          config.Config
}

type Dependencies struct {
	Logger zerolog.Logger
	Bridge bridge.API
	Link   netlink.Link
	Sink   output.Sink
	// Optional log forwarder, enabled when MQTT logging is configured
	LogWriter logging.MQTTWriter
}

type service struct {
	Config
	Dependencies

	hostID     string
	startedAt  time.Time
	link       *netlink.Manager
	driver     *output.Driver
	supervisor *supervisor.Supervisor
	mqtt       *mqtt.Service
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	// Create host ID
	hostID := conf.HostID
	if hostID == "" {
		var err error
		hostID, err = createHostID()
		if err != nil {
			return nil, errors.Wrap(err, "Failed to create host ID")
		}
	}
	radio := conf.Radio
	deps.Logger = deps.Logger.With().Str("host-id", hostID).Logger()
	log := deps.Logger

	link := netlink.NewManager(netlink.Config{
		Credentials: netlink.Credentials{
			SSID:      radio.WiFi.SSID,
			Password:  radio.WiFi.Password,
			Interface: radio.WiFi.Interface,
		},
		InitialBackoff:   radio.Reconnect.InitialBackoff,
		MaxBackoff:       radio.Reconnect.MaxBackoff,
		DisconnectOnExit: true,
	}, netlink.Dependencies{
		Log:  log,
		Link: deps.Link,
	})
	driver := output.NewDriver(output.Config{
		Audio: radio.Audio,
	}, output.Dependencies{
		Log:    log,
		Bridge: deps.Bridge,
		Sink:   deps.Sink,
	})
	f := fetcher.New(fetcher.Config{
		URL:            radio.Stream.URL,
		UserAgent:      radio.Stream.UserAgent,
		ConnectTimeout: radio.Stream.ConnectTimeout,
		ReadTimeout:    radio.Stream.ReadTimeout,
	}, log)
	sup := supervisor.New(supervisor.Config{
		StreamURL: radio.Stream.URL,
		Reconnect: radio.Reconnect,
		Pipeline: pipeline.Config{
			Capacity:      radio.Buffer.Capacity,
			HighWatermark: radio.Buffer.HighWatermark,
			LowWatermark:  radio.Buffer.LowWatermark,
			FrameQueue:    radio.Buffer.FrameQueue,
		},
	}, supervisor.Dependencies{
		Log:     log,
		Link:    link,
		Fetcher: supervisor.NewFetcher(f),
		Output:  driver,
		Bridge:  deps.Bridge,
	})

	s := &service{
		Config:       conf,
		Dependencies: deps,
		hostID:       hostID,
		startedAt:    time.Now(),
		link:         link,
		driver:       driver,
		supervisor:   sup,
	}
	if radio.MQTT.Broker != "" {
		s.mqtt = mqtt.New(mqtt.Config{
			Broker:      radio.MQTT.Broker,
			UserName:    radio.MQTT.UserName,
			Password:    radio.MQTT.Password,
			TopicPrefix: radio.MQTT.TopicPrefix,
			HostID:      hostID,
		}, log)
	}
	s.Logger = log.With().Str("component", "service").Logger()
	return s, nil
}

// Run opens the audio output, then runs the link manager,
// the supervisor and the optional MQTT bridge until the given
// context is canceled.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	defer s.Bridge.Close()

	log.Info().
		Str("version", s.ProgramVersion).
		Str("stream", s.Radio.Stream.URL).
		Msg("Starting radio")

	// Signal startup until the supervisor takes over the LEDs
	s.Bridge.BlinkGreenLED(time.Millisecond * 250)
	s.Bridge.BlinkRedLED(time.Millisecond * 250)

	if err := s.driver.Open(); err != nil {
		s.Bridge.SetGreenLED(false)
		s.Bridge.SetRedLED(true)
		return errors.Wrap(err, "Failed to open audio output")
	}
	defer func() {
		if err := s.driver.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close audio output")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(s.link.Run(ctx), "link manager failed")
	})
	g.Go(func() error {
		return errors.Wrap(s.supervisor.Run(ctx), "supervisor failed")
	})
	if s.mqtt != nil {
		g.Go(func() error {
			s.runMQTT(ctx)
			return nil
		})
	}
	err := g.Wait()
	log.Info().Err(err).Msg("Radio stopped")
	return err
}

// runMQTT runs the MQTT bridge. Failures are logged, the radio
// keeps playing without it.
func (s *service) runMQTT(ctx context.Context) {
	if s.LogWriter != nil && s.Radio.MQTT.Logs {
		s.LogWriter.SetDestination(s.mqtt.LogTopic(), s.mqtt)
		s.LogWriter.Enable(true)
		defer s.LogWriter.Enable(false)
	}
	if err := s.mqtt.Run(ctx, s); err != nil {
		s.Logger.Error().Err(err).Msg("MQTT bridge failed")
	}
}
