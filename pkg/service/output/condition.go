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
	"math"

	"github.com/gopxl/beep/v2"

	"github.com/binkynet/RadioWorker/pkg/config"
)

const (
	// Largest level of the signed 8-bit internal DAC
	dacMaxLevel = 127
)

// condition prepares samples for the given output mode.
func condition(s beep.Streamer, mode config.OutputMode) beep.Streamer {
	if mode == config.OutputModeDAC {
		return &dacStreamer{Streamer: s}
	}
	return s
}

// dacStreamer downmixes to mono and quantizes to the resolution
// of the internal DAC. Both channels carry the same signal.
type dacStreamer struct {
	beep.Streamer
}

func (d *dacStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.Streamer.Stream(samples)
	for i := range samples[:n] {
		v := quantize((samples[i][0] + samples[i][1]) / 2)
		samples[i] = [2]float64{v, v}
	}
	return n, ok
}

// quantize a sample in [-1, 1] to the DAC levels.
// Silence stays exactly 0.
func quantize(v float64) float64 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return math.Round(v*dacMaxLevel) / dacMaxLevel
}
