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

package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// icyBody interleaves audio with metadata blocks every metaInt bytes.
func icyBody(audio []byte, metaInt int, titles ...string) []byte {
	var buf bytes.Buffer
	for i := 0; len(audio) > 0; i++ {
		n := metaInt
		if n > len(audio) {
			n = len(audio)
		}
		buf.Write(audio[:n])
		audio = audio[n:]
		if n < metaInt {
			break
		}
		if i < len(titles) {
			meta := []byte("StreamTitle='" + titles[i] + "';")
			blocks := (len(meta) + icyBlockSize - 1) / icyBlockSize
			padded := make([]byte, blocks*icyBlockSize)
			copy(padded, meta)
			buf.WriteByte(byte(blocks))
			buf.Write(padded)
		} else {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

func TestOpenStripsMetadata(t *testing.T) {
	audio := make([]byte, 1000)
	for i := range audio {
		audio[i] = byte(i % 251)
	}
	const metaInt = 64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.Header.Get("Icy-MetaData"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("icy-metaint", strconv.Itoa(metaInt))
		w.Header().Set("icy-name", "Airband")
		w.Header().Set("icy-br", "128")
		w.Write(icyBody(audio, metaInt, "", "Tower 118.1", "Approach 119.4"))
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL + "/airband.mp3", UserAgent: "test-agent"}, zerolog.Nop())
	s, err := f.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	var titles []string
	s.OnTitle(func(title string) { titles = append(titles, title) })

	info := s.Info()
	assert.Equal(t, CodecMP3, info.Codec)
	assert.Equal(t, "Airband", info.Name)
	assert.Equal(t, 128, info.Bitrate)
	assert.Equal(t, metaInt, info.MetaInt)

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, audio, got)
	assert.Equal(t, "Approach 119.4", s.Title())
	assert.Equal(t, []string{"Tower 118.1", "Approach 119.4"}, titles)
}

func TestOpenStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL + "/missing.mp3"}, zerolog.Nop()).Open(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.False(t, IsRetryable(err))
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := New(Config{URL: "ftp://example.net/a.mp3"}, zerolog.Nop()).Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidURL))
	assert.False(t, IsRetryable(err))
}

func TestReadTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := New(Config{URL: srv.URL + "/stall.mp3", ReadTimeout: 50 * time.Millisecond}, zerolog.Nop())
	s, err := f.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	_, err = io.ReadAll(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadTimeout))
	assert.True(t, IsRetryable(err))
}

func TestCodecFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		codec       string
		known       bool
	}{
		{"audio/mpeg", CodecMP3, true},
		{"audio/MPEG; charset=binary", CodecMP3, true},
		{"audio/wav", CodecWAV, true},
		{"audio/x-wav", CodecWAV, true},
		{"audio/wave", CodecWAV, true},
		{"application/octet-stream", CodecMP3, false},
		{"", CodecMP3, false},
	}
	for _, test := range tests {
		codec, known := codecFromContentType(test.contentType)
		assert.Equal(t, test.codec, codec, test.contentType)
		assert.Equal(t, test.known, known, test.contentType)
	}
}

func TestParseStreamTitle(t *testing.T) {
	title, found := parseStreamTitle("StreamTitle='Ground 121.9';StreamUrl='';\x00\x00")
	assert.True(t, found)
	assert.Equal(t, "Ground 121.9", title)

	title, found = parseStreamTitle("StreamTitle='It''s here'\x00")
	assert.True(t, found)
	assert.Equal(t, "It''s here", title)

	_, found = parseStreamTitle("StreamUrl='x';")
	assert.False(t, found)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("connection refused")))
	assert.True(t, IsRetryable(&StatusError{Code: http.StatusServiceUnavailable}))
	for _, code := range []int{401, 403, 404, 410} {
		assert.False(t, IsRetryable(errors.Wrap(&StatusError{Code: code}, "open")), code)
	}
}
