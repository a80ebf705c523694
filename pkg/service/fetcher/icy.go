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
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Metadata length is sent as a single byte, counted in 16 byte blocks.
	icyBlockSize = 16
	streamTitle  = "StreamTitle='"
)

// icyDemuxer strips ICY metadata blocks from an audio byte stream.
// Every metaInt audio bytes, a length byte and a metadata block follow.
type icyDemuxer struct {
	r         *bufio.Reader
	metaInt   int
	remaining int
	onMeta    func(string)
}

func newICYDemuxer(r io.Reader, metaInt int, onMeta func(string)) *icyDemuxer {
	return &icyDemuxer{
		r:         bufio.NewReader(r),
		metaInt:   metaInt,
		remaining: metaInt,
		onMeta:    onMeta,
	}
}

// Read audio bytes only.
func (d *icyDemuxer) Read(p []byte) (int, error) {
	if d.metaInt <= 0 {
		return d.r.Read(p)
	}
	if d.remaining == 0 {
		if err := d.readMeta(); err != nil {
			return 0, err
		}
		d.remaining = d.metaInt
	}
	if len(p) > d.remaining {
		p = p[:d.remaining]
	}
	n, err := d.r.Read(p)
	d.remaining -= n
	return n, err
}

func (d *icyDemuxer) readMeta() error {
	lenByte, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	size := int(lenByte) * icyBlockSize
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrap(err, "failed to read metadata block")
	}
	if title, found := parseStreamTitle(string(buf)); found && d.onMeta != nil {
		d.onMeta(title)
	}
	return nil
}

// parseStreamTitle extracts the title from a metadata block such as
// "StreamTitle='Tower 118.1';".
func parseStreamTitle(meta string) (string, bool) {
	meta = strings.TrimRight(meta, "\x00")
	start := strings.Index(meta, streamTitle)
	if start < 0 {
		return "", false
	}
	rest := meta[start+len(streamTitle):]
	end := strings.Index(rest, "';")
	if end < 0 {
		// Last field may lack the terminator
		end = strings.LastIndex(rest, "'")
		if end < 0 {
			return "", false
		}
	}
	return rest[:end], true
}
