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
// Author Ewout Prangsma
//

package mqtt

import (
	"context"
	"encoding/json"
	"path"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

const (
	qosAtLeastOnce  = 1
	connectTimeout  = 10 * time.Second
	publishTimeout  = 5 * time.Second
	statusInterval  = 30 * time.Second
	disconnectQuiet = 250 // ms
)

// Config of the MQTT bridge.
type Config struct {
	// Broker URL (e.g. tcp://host:1883)
	Broker      string
	UserName    string
	Password    string
	TopicPrefix string
	HostID      string
}

// Controller is the part of the service that MQTT commands act on.
type Controller interface {
	Status() supervisor.Status
	Play()
	Stop()
	Reconnect()
	SetVolume(percent int) error
	Subscribe(cb func(supervisor.Status)) (cancel func())
}

// Service publishes status and receives commands over MQTT.
type Service struct {
	Config
	log    zerolog.Logger
	client paho.Client
	ctrl   atomic.Pointer[controllerHolder]
}

// New creates a new MQTT bridge.
// The connection is made by Run.
func New(cfg Config, log zerolog.Logger) *Service {
	s := &Service{
		Config: cfg,
		log:    log.With().Str("component", "mqtt").Logger(),
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("radioworker-"+cfg.HostID).
		SetUsername(cfg.UserName).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetWill(s.OnlineTopic(), "false", qosAtLeastOnce, true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			connectionLostTotal.Inc()
			s.log.Warn().Err(err).Msg("MQTT connection lost")
		})
	s.client = paho.NewClient(opts)
	return s
}

// StatusTopic returns the topic status is published on.
func (s *Service) StatusTopic() string { return s.topic("status") }

// CommandTopic returns the topic commands are received on.
func (s *Service) CommandTopic() string { return s.topic("command") }

// LogTopic returns the topic logs are forwarded to.
func (s *Service) LogTopic() string { return s.topic("logs") }

// OnlineTopic returns the topic holding the online flag.
func (s *Service) OnlineTopic() string { return s.topic("online") }

func (s *Service) topic(name string) string {
	return path.Join(s.TopicPrefix, s.HostID, name)
}

// Run the bridge until the given context is canceled.
func (s *Service) Run(ctx context.Context, ctrl Controller) error {
	log := s.log.With().Str("broker", s.Broker).Logger()
	log.Info().Msg("Connecting to MQTT broker")

	changes, cancel := subscribeChanges(ctrl)
	defer cancel()

	s.setController(ctrl)
	// With ConnectRetry the token completes once connected
	token := s.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return errors.Wrap(err, "failed to connect to MQTT broker")
		}
	case <-ctx.Done():
		s.client.Disconnect(disconnectQuiet)
		return nil
	}
	defer func() {
		s.publish(s.OnlineTopic(), []byte("false"), true)
		s.client.Disconnect(disconnectQuiet)
	}()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	s.publishStatus(ctrl.Status())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			s.publishStatus(ctrl.Status())
		case <-ticker.C:
			s.publishStatus(ctrl.Status())
		}
	}
}

// subscribeChanges returns a channel that is signaled when the status
// of the controller changes.
// Notifications may arrive out of order, so they carry no status.
func subscribeChanges(ctrl Controller) (<-chan struct{}, func()) {
	changes := make(chan struct{}, 1)
	cancel := ctrl.Subscribe(func(supervisor.Status) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	return changes, cancel
}

func (s *Service) publishStatus(status supervisor.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode status")
		return
	}
	s.publish(s.StatusTopic(), payload, true)
}

func (s *Service) publish(topic string, payload []byte, retained bool) {
	if err := s.Publish(context.Background(), topic, payload, retained); err != nil {
		s.log.Debug().Err(err).Str("topic", topic).Msg("Publish failed")
	}
}

// Publish a message on the given topic.
func (s *Service) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	if !s.client.IsConnectionOpen() {
		return errors.New("not connected")
	}
	token := s.client.Publish(topic, qosAtLeastOnce, retained, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			publishFailuresTotal.Inc()
			return errors.Wrapf(err, "failed to publish on '%s'", topic)
		}
		publishedTotal.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		publishFailuresTotal.Inc()
		return errors.Errorf("timeout publishing on '%s'", topic)
	}
}

// onConnect (re)subscribes to commands.
func (s *Service) onConnect(c paho.Client) {
	s.log.Info().Msg("Connected to MQTT broker")
	c.Publish(s.OnlineTopic(), qosAtLeastOnce, true, []byte("true"))
	token := c.Subscribe(s.CommandTopic(), qosAtLeastOnce, func(_ paho.Client, msg paho.Message) {
		commandsTotal.Inc()
		ctrl := s.controller()
		if ctrl == nil {
			return
		}
		if err := HandleCommand(ctrl, msg.Payload()); err != nil {
			commandErrorsTotal.Inc()
			s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Invalid command")
		}
	})
	go func() {
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			s.log.Warn().Err(token.Error()).Msg("Failed to subscribe to commands")
		}
	}()
}
