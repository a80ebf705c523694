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

package fetcher

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// CodecMP3 is the codec name of MPEG layer 3 streams.
	CodecMP3 = "mp3"
	// CodecWAV is the codec name of RIFF/WAVE streams.
	CodecWAV = "wav"

	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 5 * time.Second
	defaultUserAgent      = "RadioWorker"
)

// Config of the fetcher.
type Config struct {
	URL            string
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// StreamInfo describes an opened stream.
type StreamInfo struct {
	ContentType string `json:"content_type,omitempty"`
	Codec       string `json:"codec"`
	Name        string `json:"name,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Bitrate     int    `json:"bitrate,omitempty"`
	MetaInt     int    `json:"metaint,omitempty"`
}

// Fetcher opens HTTP audio streams.
type Fetcher struct {
	Config
	log    zerolog.Logger
	client *http.Client
}

// New creates a new fetcher for the given configuration.
func New(cfg Config, log zerolog.Logger) *Fetcher {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		Config: cfg,
		log:    log.With().Str("component", "fetcher").Logger(),
		client: &http.Client{
			// No overall timeout, streams are long-lived
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   cfg.ConnectTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   cfg.ConnectTimeout,
				ResponseHeaderTimeout: cfg.ConnectTimeout,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Open the stream.
// The returned stream must be closed by the caller.
func (f *Fetcher) Open(ctx context.Context) (*Stream, error) {
	log := f.log.With().Str("url", f.URL).Logger()
	u, err := url.Parse(f.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidURL, "'%s'", f.URL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidURL, "'%s': %s", f.URL, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Icy-MetaData", "1")

	log.Debug().Msg("Connecting to stream")
	openAttemptsTotal.Inc()
	resp, err := f.client.Do(req)
	if err != nil {
		openFailuresTotal.Inc()
		return nil, errors.Wrap(err, "failed to fetch stream")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		openFailuresTotal.Inc()
		return nil, maskAny(&StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	info := StreamInfo{
		ContentType: resp.Header.Get("Content-Type"),
		Name:        resp.Header.Get("icy-name"),
		Genre:       resp.Header.Get("icy-genre"),
	}
	info.Bitrate, _ = strconv.Atoi(resp.Header.Get("icy-br"))
	info.MetaInt, _ = strconv.Atoi(resp.Header.Get("icy-metaint"))
	if info.MetaInt < 0 {
		info.MetaInt = 0
	}
	var known bool
	info.Codec, known = codecFromContentType(info.ContentType)
	if !known {
		log.Warn().
			Str("content-type", info.ContentType).
			Str("codec", info.Codec).
			Msg("Unknown stream content type")
	}
	log.Info().
		Str("codec", info.Codec).
		Str("name", info.Name).
		Int("bitrate", info.Bitrate).
		Int("metaint", info.MetaInt).
		Msg("Stream opened")

	s := &Stream{
		log:     log,
		info:    info,
		body:    resp.Body,
		timeout: f.ReadTimeout,
	}
	s.watchdog = time.AfterFunc(f.ReadTimeout, s.expire)
	s.demux = newICYDemuxer(resp.Body, info.MetaInt, s.setTitle)
	return s, nil
}

// codecFromContentType selects the codec for the given content type.
// Returns false when the type is unknown, in which case mp3 is assumed.
func codecFromContentType(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return CodecMP3, false
	}
	switch strings.ToLower(mediaType) {
	case "audio/mpeg", "audio/mp3", "audio/mpeg3":
		return CodecMP3, true
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return CodecWAV, true
	default:
		return CodecMP3, false
	}
}

// Stream is an opened audio stream with ICY metadata removed.
type Stream struct {
	log      zerolog.Logger
	info     StreamInfo
	body     io.ReadCloser
	demux    *icyDemuxer
	timeout  time.Duration
	watchdog *time.Timer
	expired  atomic.Bool
	closed   atomic.Bool

	mutex   sync.Mutex
	title   string
	onTitle []func(string)
}

// Info returns information of the stream.
func (s *Stream) Info() StreamInfo {
	return s.info
}

// Title returns the last received stream title.
func (s *Stream) Title() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.title
}

// OnTitle registers a callback that is called on every title change.
func (s *Stream) OnTitle(cb func(string)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onTitle = append(s.onTitle, cb)
}

func (s *Stream) setTitle(title string) {
	s.mutex.Lock()
	if s.title == title {
		s.mutex.Unlock()
		return
	}
	s.title = title
	callbacks := append([]func(string){}, s.onTitle...)
	s.mutex.Unlock()

	titleChangesTotal.Inc()
	s.log.Info().Str("title", title).Msg("Stream title changed")
	for _, cb := range callbacks {
		cb(title)
	}
}

// expire is called by the watchdog when no data arrived in time.
func (s *Stream) expire() {
	if s.closed.Load() {
		return
	}
	s.expired.Store(true)
	readTimeoutsTotal.Inc()
	// Closing the body unblocks a pending read
	s.body.Close()
}

// Read encoded audio bytes.
func (s *Stream) Read(p []byte) (int, error) {
	if s.expired.Load() {
		return 0, maskAny(ErrReadTimeout)
	}
	n, err := s.demux.Read(p)
	if n > 0 {
		bytesReceivedTotal.Add(float64(n))
	}
	if s.expired.Load() {
		return n, maskAny(ErrReadTimeout)
	}
	if n > 0 || err == nil {
		s.watchdog.Reset(s.timeout)
	}
	return n, err
}

// Close the stream.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.watchdog.Stop()
	return s.body.Close()
}
