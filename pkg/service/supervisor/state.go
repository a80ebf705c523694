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

package supervisor

import (
	"time"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/service/fetcher"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/pipeline"
)

// State of the supervisor.
type State int

const (
	StateIdle State = iota
	StateWaitingForNetwork
	StateConnecting
	StateBuffering
	StatePlaying
	StateReconnecting
	StateStopped
	StateFailed
)

var stateNames = []string{
	StateIdle:              "idle",
	StateWaitingForNetwork: "waiting-for-network",
	StateConnecting:        "connecting",
	StateBuffering:         "buffering",
	StatePlaying:           "playing",
	StateReconnecting:      "reconnecting",
	StateStopped:           "stopped",
	StateFailed:            "failed",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a snapshot of the supervisor.
type Status struct {
	State     State              `json:"state"`
	StreamURL string             `json:"stream_url"`
	Title     string             `json:"title,omitempty"`
	Info      fetcher.StreamInfo `json:"info"`
	Since     time.Time          `json:"since"`
	Attempt   int                `json:"attempt"`
	LastError string             `json:"last_error,omitempty"`
	Buffer    pipeline.Stats     `json:"buffer"`
	Underruns int64              `json:"underruns"`
	Volume    int                `json:"volume"`
	Mode      config.OutputMode  `json:"mode"`
	Link      netlink.State      `json:"link"`
}

// BufferFill returns the fill level of the ring buffer (0..1).
func (s Status) BufferFill() float64 {
	if s.Buffer.Ring.Capacity == 0 {
		return 0
	}
	return float64(s.Buffer.Ring.Filled) / float64(s.Buffer.Ring.Capacity)
}
