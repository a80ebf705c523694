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
	"io"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned when using a closed ring or pipeline.
	ErrClosed = errors.New("closed")
)

// RingState is the fill state of a ring.
type RingState int

const (
	// RingBuffering until the high watermark is reached for the first time.
	RingBuffering RingState = iota
	// RingHealthy when reads are served.
	RingHealthy
	// RingUnderrun after running empty, until the low watermark is reached.
	RingUnderrun
	// RingClosed once the writer side closed.
	RingClosed
)

func (s RingState) String() string {
	switch s {
	case RingBuffering:
		return "buffering"
	case RingHealthy:
		return "healthy"
	case RingUnderrun:
		return "underrun"
	case RingClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RingStats is a snapshot of a ring.
type RingStats struct {
	Capacity  int       `json:"capacity"`
	Filled    int       `json:"filled"`
	State     RingState `json:"state"`
	Underruns int       `json:"underruns"`
}

// Ring is a bounded byte buffer between a single writer (network)
// and a single reader (decoder).
// Reads are held back until the high watermark is reached, and
// after running empty until the low watermark is reached again.
type Ring struct {
	mutex     sync.Mutex
	cond      *sync.Cond
	buf       []byte
	start     int
	filled    int
	high      int
	low       int
	state     RingState
	underruns int
	// Set when the writer is done (err == nil means EOF)
	writeDone bool
	writeErr  error
	// Set when the reader is gone
	readDone bool
}

// NewRing creates a ring with given capacity and watermarks.
func NewRing(capacity, high, low int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	if high > capacity {
		high = capacity
	}
	if high < 1 {
		high = 1
	}
	if low > high {
		low = high
	}
	if low < 1 {
		low = 1
	}
	r := &Ring{
		buf:  make([]byte, capacity),
		high: high,
		low:  low,
	}
	r.cond = sync.NewCond(&r.mutex)
	return r
}

// Write all of p into the ring, blocking while the ring is full.
func (r *Ring) Write(p []byte) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	written := 0
	for len(p) > 0 {
		for r.filled == len(r.buf) && !r.readDone && !r.writeDone {
			r.cond.Wait()
		}
		if r.readDone || r.writeDone {
			return written, ErrClosed
		}
		end := (r.start + r.filled) % len(r.buf)
		space := len(r.buf) - r.filled
		if end+space > len(r.buf) {
			space = len(r.buf) - end
		}
		n := copy(r.buf[end:end+space], p)
		r.filled += n
		written += n
		p = p[n:]
		r.updateState()
		r.cond.Broadcast()
	}
	return written, nil
}

// Read from the ring, blocking until data is available according
// to the watermarks. After the writer closed, remaining data is drained
// before the close error (or io.EOF) is returned.
func (r *Ring) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for {
		if r.readDone {
			return 0, ErrClosed
		}
		if r.state == RingHealthy && r.filled > 0 {
			break
		}
		if r.writeDone {
			if r.filled > 0 {
				break
			}
			if r.writeErr != nil {
				return 0, r.writeErr
			}
			return 0, io.EOF
		}
		if r.state == RingHealthy && r.filled == 0 {
			r.state = RingUnderrun
			r.underruns++
			ringUnderrunsTotal.Inc()
		}
		r.cond.Wait()
	}

	n := 0
	for n < len(p) && r.filled > 0 {
		chunk := len(r.buf) - r.start
		if chunk > r.filled {
			chunk = r.filled
		}
		c := copy(p[n:], r.buf[r.start:r.start+chunk])
		r.start = (r.start + c) % len(r.buf)
		r.filled -= c
		n += c
	}
	r.cond.Broadcast()
	return n, nil
}

// updateState moves to healthy once the relevant watermark is reached.
// Must be called with the mutex held.
func (r *Ring) updateState() {
	switch r.state {
	case RingBuffering:
		if r.filled >= r.high {
			r.state = RingHealthy
		}
	case RingUnderrun:
		if r.filled >= r.low {
			r.state = RingHealthy
		}
	}
}

// CloseWithError closes the writer side.
// A nil error results in io.EOF once the ring is drained.
func (r *Ring) CloseWithError(err error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if !r.writeDone {
		r.writeDone = true
		r.writeErr = err
		r.state = RingClosed
	}
	r.cond.Broadcast()
	return nil
}

// Close the reader side.
// Blocked writers and readers return ErrClosed.
func (r *Ring) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.readDone = true
	r.state = RingClosed
	r.cond.Broadcast()
	return nil
}

// Stats returns a snapshot of the ring.
func (r *Ring) Stats() RingStats {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return RingStats{
		Capacity:  len(r.buf),
		Filled:    r.filled,
		State:     r.state,
		Underruns: r.underruns,
	}
}
