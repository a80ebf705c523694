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

package pipeline

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFrameSize = 512
	networkReadSize  = 4096
)

// Config of a pipeline.
type Config struct {
	// Ring capacity in bytes
	Capacity int
	// Bytes to buffer before decoding starts
	HighWatermark int
	// Bytes to buffer after an underrun before decoding resumes
	LowWatermark int
	// Number of decoded frames that can be queued
	FrameQueue int
	// Number of samples per decoded frame
	FrameSize int
}

// Frame is a chunk of decoded stereo samples.
type Frame [][2]float64

// Stats is a snapshot of a pipeline.
type Stats struct {
	Ring          RingStats `json:"ring"`
	QueuedFrames  int       `json:"queued_frames"`
	FrameQueue    int       `json:"frame_queue"`
	Underruns     int64     `json:"underruns"`
	SamplesPlayed int64     `json:"samples_played"`
}

// Pipeline moves an encoded stream through a ring buffer and a decoder
// into a bounded queue of decoded frames.
type Pipeline struct {
	log     zerolog.Logger
	src     io.ReadCloser
	ring    *Ring
	format  beep.Format
	decoded beep.StreamSeekCloser
	frames  chan Frame

	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	errMutex  sync.Mutex
	err       error

	underruns     atomic.Int64
	samplesPlayed atomic.Int64
	started       atomic.Bool
}

// Open a pipeline for the given source, decoding with the decoder
// of the given codec.
func Open(ctx context.Context, src io.ReadCloser, codec string, cfg Config, log zerolog.Logger) (*Pipeline, error) {
	decoder, err := DecoderFor(codec)
	if err != nil {
		src.Close()
		return nil, err
	}
	return OpenWithDecoder(ctx, src, decoder, cfg, log)
}

// OpenWithDecoder opens a pipeline for the given source and decoder.
// It returns once the decoder parsed the stream header.
func OpenWithDecoder(ctx context.Context, src io.ReadCloser, decoder Decoder, cfg Config, log zerolog.Logger) (*Pipeline, error) {
	if cfg.FrameQueue < 1 {
		cfg.FrameQueue = 1
	}
	if cfg.FrameSize < 1 {
		cfg.FrameSize = defaultFrameSize
	}
	p := &Pipeline{
		log:     log.With().Str("component", "pipeline").Logger(),
		src:     src,
		ring:    NewRing(cfg.Capacity, cfg.HighWatermark, cfg.LowWatermark),
		frames:  make(chan Frame, cfg.FrameQueue),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	g := &errgroup.Group{}
	g.Go(p.fill)

	// Parse the stream header
	type result struct {
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	}
	headerCh := make(chan result, 1)
	go func() {
		s, format, err := decoder(ringReader{p.ring})
		headerCh <- result{s, format, err}
	}()
	var header result
	select {
	case header = <-headerCh:
	case <-ctx.Done():
		p.abort()
		g.Wait()
		if header = <-headerCh; header.err == nil {
			header.s.Close()
		}
		return nil, ctx.Err()
	}
	if header.err != nil {
		p.abort()
		g.Wait()
		return nil, errors.Wrap(header.err, "failed to decode stream header")
	}
	p.decoded = header.s
	p.format = header.format
	p.log.Debug().
		Int("sample-rate", int(p.format.SampleRate)).
		Int("channels", p.format.NumChannels).
		Msg("Stream header decoded")

	g.Go(func() error {
		return p.decode(cfg.FrameSize)
	})
	go func() {
		err := g.Wait()
		p.errMutex.Lock()
		p.err = err
		p.errMutex.Unlock()
		close(p.done)
	}()
	go func() {
		select {
		case <-ctx.Done():
			p.abort()
		case <-p.done:
		}
	}()
	return p, nil
}

// fill copies the source into the ring.
func (p *Pipeline) fill() error {
	buf := make([]byte, networkReadSize)
	for {
		n, err := p.src.Read(buf)
		if n > 0 {
			if _, werr := p.ring.Write(buf[:n]); werr != nil {
				if p.isClosing() {
					return nil
				}
				return werr
			}
			ringFillGauge.Set(float64(p.ring.Stats().Filled))
		}
		if err != nil {
			if err == io.EOF {
				p.ring.CloseWithError(nil)
				return nil
			}
			if p.isClosing() {
				p.ring.CloseWithError(ErrClosed)
				return nil
			}
			p.ring.CloseWithError(err)
			// Decode may be blocked on a full frame queue
			p.abort()
			return errors.Wrap(err, "failed to read stream")
		}
	}
}

// decode moves decoded samples into the frame queue.
func (p *Pipeline) decode(frameSize int) error {
	defer func() {
		p.decoded.Close()
		close(p.frames)
		// Stop the fill task
		p.abort()
	}()
	for {
		frame := make(Frame, frameSize)
		n, ok := p.decoded.Stream(frame)
		if n > 0 {
			decodedSamplesTotal.Add(float64(n))
			select {
			case p.frames <- frame[:n]:
			case <-p.closing:
				return nil
			}
		}
		if !ok {
			if err := p.decoded.Err(); err != nil && !p.isClosing() && !errors.Is(err, ErrClosed) {
				return errors.Wrap(err, "failed to decode stream")
			}
			return nil
		}
		if p.isClosing() {
			return nil
		}
	}
}

func (p *Pipeline) isClosing() bool {
	select {
	case <-p.closing:
		return true
	default:
		return false
	}
}

// abort stops both tasks.
func (p *Pipeline) abort() {
	p.closeOnce.Do(func() {
		close(p.closing)
		p.ring.Close()
		p.src.Close()
	})
}

// Format returns the format of the decoded samples.
func (p *Pipeline) Format() beep.Format {
	return p.format
}

// Streamer returns a streamer that consumes the decoded frames.
// It never blocks: when no frame is available, silence is produced.
func (p *Pipeline) Streamer() beep.Streamer {
	return &frameStreamer{p: p}
}

// Done is closed once both tasks have finished.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Err returns the first error of the fill or decode task.
// Returns nil while running and after a clean end of stream.
func (p *Pipeline) Err() error {
	p.errMutex.Lock()
	defer p.errMutex.Unlock()
	return p.err
}

// Stats returns a snapshot of the pipeline.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Ring:          p.ring.Stats(),
		QueuedFrames:  len(p.frames),
		FrameQueue:    cap(p.frames),
		Underruns:     p.underruns.Load(),
		SamplesPlayed: p.samplesPlayed.Load(),
	}
}

// Close the pipeline and wait for its tasks to finish.
func (p *Pipeline) Close() error {
	p.abort()
	<-p.done
	return nil
}

// ringReader lets a decoder close the ring.
type ringReader struct {
	r *Ring
}

func (rr ringReader) Read(p []byte) (int, error) { return rr.r.Read(p) }
func (rr ringReader) Close() error               { return rr.r.Close() }

// frameStreamer is the consumer side of the frame queue.
type frameStreamer struct {
	p        *Pipeline
	current  Frame
	ended    bool
	underrun bool
}

// Stream fills samples from queued frames, padding with silence.
func (s *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.ended {
		return 0, false
	}
	filled := 0
	for filled < len(samples) {
		if len(s.current) == 0 {
			select {
			case frame, ok := <-s.p.frames:
				if !ok {
					s.ended = true
					s.p.samplesPlayed.Add(int64(filled))
					return filled, filled > 0
				}
				s.current = frame
				s.underrun = false
				s.p.started.Store(true)
			default:
				// Underrun
				for i := filled; i < len(samples); i++ {
					samples[i] = [2]float64{}
				}
				// Count once per gap, not per callback
				if s.p.started.Load() && !s.underrun {
					s.underrun = true
					s.p.underruns.Add(1)
					outputUnderrunsTotal.Inc()
				}
				s.p.samplesPlayed.Add(int64(filled))
				return len(samples), true
			}
		}
		n := copy(samples[filled:], s.current)
		s.current = s.current[n:]
		filled += n
	}
	s.p.samplesPlayed.Add(int64(filled))
	return filled, true
}

// Err implements beep.Streamer.
func (s *frameStreamer) Err() error {
	return nil
}
