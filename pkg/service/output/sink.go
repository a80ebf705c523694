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

package output

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Sink is the hardware audio endpoint.
type Sink interface {
	// Init the sink at given sample rate and buffer size (in samples).
	Init(sampleRate beep.SampleRate, bufferSize int) error
	// Play the given streamer, replacing nothing.
	Play(s beep.Streamer)
	// Clear removes all streamers.
	Clear()
	// Lock the sink, stopping it from pulling samples.
	Lock()
	// Unlock the sink.
	Unlock()
	// Close the sink.
	Close()
}

type speakerSink struct{}

// NewSpeakerSink creates a sink that plays on the default
// audio device of the host.
func NewSpeakerSink() Sink {
	return speakerSink{}
}

func (speakerSink) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}
func (speakerSink) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerSink) Clear()               { speaker.Clear() }
func (speakerSink) Lock()                { speaker.Lock() }
func (speakerSink) Unlock()              { speaker.Unlock() }
func (speakerSink) Close()               { speaker.Close() }

// NullSink pulls samples in real time and discards them.
type NullSink struct {
	mutex      sync.Mutex
	streamers  []beep.Streamer
	bufferSize int
	interval   time.Duration
	stop       chan struct{}
	samples    int64
	last       [2]float64
}

// NewNullSink creates a sink without audio device.
func NewNullSink() *NullSink {
	return &NullSink{}
}

// Init starts pulling samples.
func (s *NullSink) Init(sampleRate beep.SampleRate, bufferSize int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stop != nil {
		close(s.stop)
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	s.bufferSize = bufferSize
	s.interval = sampleRate.D(bufferSize)
	if s.interval <= 0 {
		s.interval = time.Millisecond
	}
	s.stop = make(chan struct{})
	go s.run(s.stop, s.interval)
	return nil
}

func (s *NullSink) run(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Pull()
		}
	}
}

// Pull one buffer of samples from all streamers.
func (s *NullSink) Pull() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.streamers) == 0 {
		return
	}
	size := s.bufferSize
	if size < 1 {
		size = 1
	}
	buf := make([][2]float64, size)
	remaining := s.streamers[:0]
	for _, st := range s.streamers {
		n, ok := st.Stream(buf)
		s.samples += int64(n)
		if n > 0 {
			s.last = buf[n-1]
		}
		if ok {
			remaining = append(remaining, st)
		}
	}
	s.streamers = remaining
}

// Play adds a streamer.
func (s *NullSink) Play(st beep.Streamer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.streamers = append(s.streamers, st)
}

// Clear removes all streamers.
func (s *NullSink) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.streamers = nil
}

// Lock the sink.
func (s *NullSink) Lock() { s.mutex.Lock() }

// Unlock the sink.
func (s *NullSink) Unlock() { s.mutex.Unlock() }

// Close stops pulling samples.
func (s *NullSink) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.streamers = nil
}

// Active returns the number of streamers being played.
func (s *NullSink) Active() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.streamers)
}

// Samples returns the number of samples pulled.
func (s *NullSink) Samples() int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.samples
}

// Last returns the last sample pulled.
func (s *NullSink) Last() [2]float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.last
}
