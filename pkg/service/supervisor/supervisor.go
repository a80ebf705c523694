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

package supervisor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/mattn/go-pubsub"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/service/bridge"
	"github.com/binkynet/RadioWorker/pkg/service/fetcher"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/pipeline"
	"github.com/binkynet/RadioWorker/pkg/service/util"
)

const (
	connectingBlinkDelay   = 250 * time.Millisecond
	reconnectingBlinkDelay = 500 * time.Millisecond
)

var (
	errStopRequested      = errors.New("stop requested")
	errReconnectRequested = errors.New("reconnect requested")
	errLinkDown           = errors.New("network link down")
	errStreamEnded        = errors.New("stream ended")
)

// Stream is an opened audio stream.
type Stream interface {
	io.ReadCloser
	Info() fetcher.StreamInfo
	Title() string
	OnTitle(func(string))
}

// Fetcher opens the audio stream.
type Fetcher interface {
	Open(ctx context.Context) (Stream, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context) (Stream, error)

// Open implements Fetcher.
func (f FetcherFunc) Open(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// NewFetcher wraps a stream fetcher.
func NewFetcher(f *fetcher.Fetcher) Fetcher {
	return FetcherFunc(func(ctx context.Context) (Stream, error) {
		s, err := f.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Link is the network link as seen by the supervisor.
type Link interface {
	WaitUp(ctx context.Context) error
	State() netlink.State
	Subscribe(cb func(netlink.State)) (cancel func())
}

// Output plays decoded audio.
type Output interface {
	Start(streamer beep.Streamer, format beep.Format) error
	Stop()
	SetVolume(percent int)
	Volume() int
	OutputMode() config.OutputMode
}

// Config of the supervisor.
type Config struct {
	StreamURL string
	Reconnect config.ReconnectConfig
	Pipeline  pipeline.Config
}

// Dependencies of the supervisor.
type Dependencies struct {
	Log     zerolog.Logger
	Link    Link
	Fetcher Fetcher
	Output  Output
	Bridge  bridge.API
}

// Supervisor runs playback sessions and recovers from failures.
type Supervisor struct {
	Config
	Dependencies

	changes   *pubsub.PubSub
	reconnect chan struct{}
	wake      chan struct{}
	linkCh    chan struct{}

	mutex     sync.Mutex
	stopped   bool
	state     State
	since     time.Time
	attempt   int
	lastError string
	title     string
	info      fetcher.StreamInfo
	pipeline  *pipeline.Pipeline
}

// New creates a new supervisor.
func New(cfg Config, deps Dependencies) *Supervisor {
	deps.Log = deps.Log.With().Str("component", "supervisor").Logger()
	return &Supervisor{
		Config:       cfg,
		Dependencies: deps,
		changes:      util.NewPubSub(deps.Log),
		reconnect:    make(chan struct{}, 1),
		wake:         make(chan struct{}, 1),
		linkCh:       make(chan struct{}, 1),
		state:        StateIdle,
		since:        time.Now(),
	}
}

// Run playback sessions until the given context is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	log := s.Log
	backoff := util.NewBackoff(s.Config.Reconnect.InitialBackoff, s.Config.Reconnect.MaxBackoff, s.Config.Reconnect.Factor)
	unsubscribe := s.Link.Subscribe(s.onLinkState)
	defer unsubscribe()
	defer s.setState(StateIdle, nil)

	log.Info().Str("url", s.StreamURL).Msg("Starting supervisor")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.isStopped() {
			s.setState(StateStopped, nil)
			if !s.waitForPlay(ctx) {
				return nil
			}
			backoff.Reset()
			continue
		}

		s.setState(StateWaitingForNetwork, nil)
		if err := s.waitForLink(ctx); err != nil {
			if errors.Is(err, errStopRequested) {
				continue
			}
			return nil
		}

		played, err := s.session(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, errStopRequested):
			log.Info().Msg("Playback stopped on request")
			continue
		case errors.Is(err, errLinkDown):
			log.Warn().Msg("Network link went down")
			continue
		case errors.Is(err, errReconnectRequested):
			log.Info().Msg("Reconnecting on request")
			backoff.Reset()
			s.setState(StateReconnecting, nil)
			continue
		}

		delay, state := s.retryDelay(backoff, played, err)
		if state == StateFailed {
			failuresTotal.Inc()
		}
		s.setAttempt(backoff.Attempt())
		s.setState(state, err)
		reconnectsTotal.Inc()
		log.Warn().
			Err(err).
			Dur("played", played).
			Dur("retry-in", delay).
			Int("attempt", backoff.Attempt()).
			Msg("Playback session ended")
		if !s.waitBackoff(ctx, delay) {
			return nil
		}
	}
}

// retryDelay returns how long to wait before the next session and
// the state to wait in.
// A session that played for at least StableAfter resets the backoff.
func (s *Supervisor) retryDelay(backoff *util.Backoff, played time.Duration, err error) (time.Duration, State) {
	if played >= s.Config.Reconnect.StableAfter {
		backoff.Reset()
	}
	delay := backoff.Next()
	if !fetcher.IsRetryable(err) {
		return backoff.Max(), StateFailed
	}
	return delay, StateReconnecting
}

// waitForLink waits until the network link is up.
// Returns errStopRequested when playback is stopped meanwhile.
func (s *Supervisor) waitForLink(ctx context.Context) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		for {
			select {
			case <-wctx.Done():
				return
			case <-s.wake:
				if s.isStopped() {
					cancel()
					return
				}
			}
		}
	}()
	err := s.Link.WaitUp(wctx)
	cancel()
	<-watchDone
	if s.isStopped() {
		return errStopRequested
	}
	return err
}

// session runs a single playback session.
// Returns how long audio was played and why the session ended.
func (s *Supervisor) session(ctx context.Context) (time.Duration, error) {
	// Requests made before this session do not apply to it
	drain(s.reconnect)
	drain(s.wake)
	if s.isStopped() {
		return 0, errStopRequested
	}
	sessionsTotal.Inc()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Watch for interruptions
	var interrupt error
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		for {
			select {
			case <-sctx.Done():
				return
			case <-s.reconnect:
				interrupt = errReconnectRequested
			case <-s.wake:
				if !s.isStopped() {
					continue
				}
				interrupt = errStopRequested
			case <-s.linkCh:
				if s.Link.State() == netlink.StateUp {
					continue
				}
				interrupt = errLinkDown
			}
			cancel()
			return
		}
	}()

	played, err := s.play(sctx)
	cancel()
	<-watchDone
	if interrupt != nil {
		return played, interrupt
	}
	return played, err
}

// play opens the stream and plays it until it ends or ctx is canceled.
func (s *Supervisor) play(ctx context.Context) (time.Duration, error) {
	log := s.Log
	s.setState(StateConnecting, nil)
	stream, err := s.Fetcher.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	info := stream.Info()
	s.setStream(info, stream.Title())
	stream.OnTitle(s.setTitle)

	s.setState(StateBuffering, nil)
	p, err := pipeline.Open(ctx, stream, info.Codec, s.Pipeline, s.Log)
	if err != nil {
		return 0, err
	}
	s.setPipeline(p)
	defer func() {
		// Silence the output before tearing down the pipeline
		s.Output.Stop()
		p.Close()
		s.setPipeline(nil)
	}()
	if err := s.Output.Start(p.Streamer(), p.Format()); err != nil {
		return 0, errors.Wrap(err, "failed to start output")
	}

	start := time.Now()
	s.setAttempt(0)
	s.setState(StatePlaying, nil)
	log.Info().
		Str("codec", info.Codec).
		Int("sample-rate", int(p.Format().SampleRate)).
		Msg("Playing")

	select {
	case <-p.Done():
		if err := p.Err(); err != nil {
			return time.Since(start), err
		}
		return time.Since(start), errStreamEnded
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}
}

// waitForPlay blocks until playback is requested again.
func (s *Supervisor) waitForPlay(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.wake:
			if !s.isStopped() {
				return true
			}
		}
	}
}

// waitBackoff waits for the given delay.
// A reconnect or stop request ends the wait early.
func (s *Supervisor) waitBackoff(ctx context.Context, delay time.Duration) bool {
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	case <-s.reconnect:
	case <-s.wake:
	}
	return true
}

func (s *Supervisor) onLinkState(state netlink.State) {
	select {
	case s.linkCh <- struct{}{}:
	default:
	}
	s.publish()
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

// Reconnect ends the current session and starts a new one.
func (s *Supervisor) Reconnect() {
	s.Log.Debug().Msg("Reconnect requested")
	signal(s.reconnect)
}

// Stop playback until Play is called.
func (s *Supervisor) Stop() {
	s.mutex.Lock()
	s.stopped = true
	s.mutex.Unlock()
	signal(s.wake)
}

// Play resumes playback after Stop.
func (s *Supervisor) Play() {
	s.mutex.Lock()
	s.stopped = false
	s.mutex.Unlock()
	signal(s.wake)
}

// SetVolume sets the output volume in percent.
func (s *Supervisor) SetVolume(percent int) {
	s.Output.SetVolume(percent)
	s.publish()
}

func (s *Supervisor) isStopped() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stopped
}

func (s *Supervisor) setState(state State, err error) {
	s.mutex.Lock()
	changed := s.state != state
	s.state = state
	if changed {
		s.since = time.Now()
	}
	if err != nil {
		s.lastError = err.Error()
	} else if state == StatePlaying {
		s.lastError = ""
	}
	if state != StatePlaying && state != StateBuffering {
		s.title = ""
	}
	s.mutex.Unlock()

	if changed {
		for _, st := range stateNames {
			stateGauge.WithLabelValues(st).Set(0)
		}
		stateGauge.WithLabelValues(state.String()).Set(1)
		s.Log.Debug().Str("state", state.String()).Msg("State changed")
		s.updateLEDs(state)
		s.publish()
	}
}

func (s *Supervisor) setAttempt(attempt int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.attempt = attempt
}

func (s *Supervisor) setStream(info fetcher.StreamInfo, title string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.info = info
	s.title = title
}

func (s *Supervisor) setTitle(title string) {
	s.mutex.Lock()
	s.title = title
	s.mutex.Unlock()
	s.publish()
}

func (s *Supervisor) setPipeline(p *pipeline.Pipeline) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pipeline = p
}

// updateLEDs shows the state on the status leds.
func (s *Supervisor) updateLEDs(state State) {
	if s.Bridge == nil {
		return
	}
	var green, red func() error
	switch state {
	case StatePlaying:
		green = func() error { return s.Bridge.SetGreenLED(true) }
		red = func() error { return s.Bridge.SetRedLED(false) }
	case StateConnecting, StateBuffering:
		green = func() error { return s.Bridge.BlinkGreenLED(connectingBlinkDelay) }
		red = func() error { return s.Bridge.SetRedLED(false) }
	case StateReconnecting:
		green = func() error { return s.Bridge.SetGreenLED(false) }
		red = func() error { return s.Bridge.BlinkRedLED(reconnectingBlinkDelay) }
	case StateWaitingForNetwork, StateFailed:
		green = func() error { return s.Bridge.SetGreenLED(false) }
		red = func() error { return s.Bridge.SetRedLED(true) }
	default:
		green = func() error { return s.Bridge.SetGreenLED(false) }
		red = func() error { return s.Bridge.SetRedLED(false) }
	}
	if err := green(); err != nil {
		s.Log.Debug().Err(err).Msg("Failed to set green led")
	}
	if err := red(); err != nil {
		s.Log.Debug().Err(err).Msg("Failed to set red led")
	}
}

// Status returns a snapshot of the supervisor.
func (s *Supervisor) Status() Status {
	s.mutex.Lock()
	status := Status{
		State:     s.state,
		StreamURL: s.StreamURL,
		Title:     s.title,
		Info:      s.info,
		Since:     s.since,
		Attempt:   s.attempt,
		LastError: s.lastError,
	}
	p := s.pipeline
	s.mutex.Unlock()

	if p != nil {
		status.Buffer = p.Stats()
		status.Underruns = status.Buffer.Underruns
	}
	status.Volume = s.Output.Volume()
	status.Mode = s.Output.OutputMode()
	status.Link = s.Link.State()
	return status
}

func (s *Supervisor) publish() {
	s.changes.Pub(s.Status())
}

// Subscribe to status changes.
// Callbacks are called asynchronously and not necessarily in order,
// so use them as a trigger to fetch the latest Status.
// Callbacks are identified by their function, so subscribe every
// function only once.
func (s *Supervisor) Subscribe(cb func(Status)) (cancel func()) {
	s.changes.Sub(cb)
	return func() {
		s.changes.Leave(cb)
	}
}
