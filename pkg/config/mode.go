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

package config

// OutputMode selects the audio output path.
type OutputMode string

const (
	// OutputModeDAC drives the internal DAC through the data pin only.
	OutputModeDAC OutputMode = "dac"
	// OutputModeI2S drives an external I2S amplifier (BCLK, LRCLK and data).
	OutputModeI2S OutputMode = "i2s"
)

// Mode returns the output mode implied by the pin assignments.
// True I2S mode requires all three pins.
func (c AudioConfig) Mode() OutputMode {
	if c.BCLKPin >= 0 && c.LRCLKPin >= 0 && c.DataPin >= 0 {
		return OutputModeI2S
	}
	return OutputModeDAC
}
