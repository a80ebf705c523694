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

package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// byteStreamer decodes every byte into one sample.
type byteStreamer struct {
	r   io.ReadCloser
	err error
	pos int
}

func byteDecoder(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	// Header of a single byte
	header := make([]byte, 1)
	if _, err := io.ReadFull(rc, header); err != nil {
		return nil, beep.Format{}, err
	}
	return &byteStreamer{r: rc}, beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 1}, nil
}

func (s *byteStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	buf := make([]byte, len(samples))
	n, err := s.r.Read(buf)
	for i := 0; i < n; i++ {
		v := float64(buf[i]) / 255
		samples[i] = [2]float64{v, v}
	}
	s.pos += n
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return n, n > 0
	}
	return n, true
}

func (s *byteStreamer) Err() error       { return s.err }
func (s *byteStreamer) Len() int         { return 0 }
func (s *byteStreamer) Position() int    { return s.pos }
func (s *byteStreamer) Seek(p int) error { return errors.New("not seekable") }
func (s *byteStreamer) Close() error     { return s.r.Close() }

// blockingSource yields data, then blocks until closed.
type blockingSource struct {
	mutex  sync.Mutex
	data   []byte
	closed chan struct{}
	once   sync.Once
}

func newBlockingSource(data []byte) *blockingSource {
	return &blockingSource{data: data, closed: make(chan struct{})}
}

func (s *blockingSource) Read(p []byte) (int, error) {
	s.mutex.Lock()
	if len(s.data) > 0 {
		n := copy(p, s.data)
		s.data = s.data[n:]
		s.mutex.Unlock()
		return n, nil
	}
	s.mutex.Unlock()
	<-s.closed
	return 0, errors.New("use of closed connection")
}

func (s *blockingSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func testConfig() Config {
	return Config{
		Capacity:      64,
		HighWatermark: 8,
		LowWatermark:  4,
		FrameQueue:    4,
		FrameSize:     16,
	}
}

// drain reads from the streamer until it ends, skipping silence.
func drain(t *testing.T, s beep.Streamer, timeout time.Duration) []float64 {
	var result []float64
	deadline := time.Now().Add(timeout)
	buf := make([][2]float64, 7)
	for time.Now().Before(deadline) {
		n, ok := s.Stream(buf)
		if !ok {
			return result
		}
		for _, sample := range buf[:n] {
			assert.Equal(t, sample[0], sample[1])
			if sample[0] != 0 {
				result = append(result, sample[0])
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("streamer did not end")
	return nil
}

func TestPipelineDecodesAll(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(1 + i%200)
	}
	src := io.NopCloser(bytes.NewReader(data))
	p, err := OpenWithDecoder(context.Background(), src, byteDecoder, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, beep.SampleRate(8000), p.Format().SampleRate)
	samples := drain(t, p.Streamer(), 5*time.Second)
	require.Len(t, samples, len(data)-1)
	for i, v := range samples {
		assert.Equal(t, float64(data[i+1])/255, v)
	}

	<-p.Done()
	assert.NoError(t, p.Err())
	assert.Equal(t, int64(len(data)-1), p.Stats().SamplesPlayed)
}

func TestPipelineStreamerNeverBlocks(t *testing.T) {
	src := newBlockingSource(bytes.Repeat([]byte{9}, 10))
	p, err := OpenWithDecoder(context.Background(), src, byteDecoder, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	s := p.Streamer()
	buf := make([][2]float64, 64)
	require.Eventually(t, func() bool {
		n, ok := s.Stream(buf)
		return ok && n == len(buf) && buf[0][0] != 0
	}, 5*time.Second, time.Millisecond)

	// Network stalls: silence is produced and counted as underrun
	start := time.Now()
	n, ok := s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, len(buf), n)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, [2]float64{}, buf[len(buf)-1])
	assert.Greater(t, p.Stats().Underruns, int64(0))
}

func TestPipelineReportsSourceError(t *testing.T) {
	src := &failingSource{data: bytes.Repeat([]byte{5}, 32), err: errors.New("connection reset")}
	p, err := OpenWithDecoder(context.Background(), src, byteDecoder, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	drain(t, p.Streamer(), 5*time.Second)
	<-p.Done()
	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "connection reset")
}

func TestPipelineHeaderError(t *testing.T) {
	src := io.NopCloser(bytes.NewReader(nil))
	_, err := OpenWithDecoder(context.Background(), src, byteDecoder, testConfig(), zerolog.Nop())
	require.Error(t, err)
}

func TestPipelineCanceledDuringHeader(t *testing.T) {
	src := newBlockingSource(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := OpenWithDecoder(ctx, src, byteDecoder, testConfig(), zerolog.Nop())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipelineCloseStopsTasks(t *testing.T) {
	src := newBlockingSource(bytes.Repeat([]byte{7}, 100))
	p, err := OpenWithDecoder(context.Background(), src, byteDecoder, testConfig(), zerolog.Nop())
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}
	assert.NoError(t, p.Err())
}

func TestPipelineDecodesMP3(t *testing.T) {
	data, err := os.ReadFile("testdata/tone_44100hz.mp3")
	require.NoError(t, err)
	src := &chunkedSource{data: data, chunk: 1000}
	cfg := Config{
		Capacity:      4096,
		HighWatermark: 1024,
		LowWatermark:  512,
		FrameQueue:    8,
		FrameSize:     512,
	}
	p, err := Open(context.Background(), src, "mp3", cfg, zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, beep.SampleRate(44100), p.Format().SampleRate)
	assert.Equal(t, 2, p.Format().NumChannels)

	s := p.Streamer()
	buf := make([][2]float64, 512)
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "streamer did not end")
		if _, ok := s.Stream(buf); !ok {
			break
		}
	}
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish")
	}
	assert.NoError(t, p.Err())
	assert.Greater(t, p.Stats().SamplesPlayed, int64(0))
	assert.Greater(t, src.reads, len(data)/1000)
}

func TestPipelineSourceErrorWithoutConsumer(t *testing.T) {
	// Fits in the ring, but not in the frame queue
	src := &failingSource{data: bytes.Repeat([]byte{5}, 48), err: errors.New("connection reset")}
	cfg := testConfig()
	cfg.FrameQueue = 1
	cfg.FrameSize = 4
	p, err := OpenWithDecoder(context.Background(), src, byteDecoder, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish")
	}
	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "connection reset")
}

func TestStreamerCountsUnderrunOncePerGap(t *testing.T) {
	p := &Pipeline{frames: make(chan Frame, 4)}
	s := &frameStreamer{p: p}
	buf := make([][2]float64, 8)

	// Silence before the first frame is buffering, not an underrun
	s.Stream(buf)
	assert.Equal(t, int64(0), p.underruns.Load())

	p.frames <- make(Frame, 8)
	s.Stream(buf)
	for i := 0; i < 5; i++ {
		n, ok := s.Stream(buf)
		assert.True(t, ok)
		assert.Equal(t, len(buf), n)
	}
	assert.Equal(t, int64(1), p.underruns.Load())

	p.frames <- make(Frame, 4)
	s.Stream(buf)
	s.Stream(buf)
	assert.Equal(t, int64(2), p.underruns.Load())
}

func TestOpenUnknownCodec(t *testing.T) {
	_, err := Open(context.Background(), io.NopCloser(bytes.NewReader(nil)), "ogg", testConfig(), zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, []string{"mp3", "wav"}, Codecs())
}

type failingSource struct {
	data []byte
	err  error
}

func (s *failingSource) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, s.err
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *failingSource) Close() error { return nil }

// chunkedSource returns at most chunk bytes per read.
type chunkedSource struct {
	data  []byte
	chunk int
	reads int
}

func (s *chunkedSource) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	if len(p) > s.chunk {
		p = p[:s.chunk]
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	s.reads++
	return n, nil
}

func (s *chunkedSource) Close() error { return nil }
