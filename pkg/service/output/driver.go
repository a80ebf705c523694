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

package output

import (
	"math"
	"sync"
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/service/bridge"
)

const (
	defaultBufferDuration = 250 * time.Millisecond
	resampleQuality       = 4
	// Volume curve
	minVolumeExponent   = -10.0
	volumeCurveExponent = 0.5
)

var (
	maskAny = errors.WithStack
)

// Config of the output driver.
type Config struct {
	Audio config.AudioConfig
	Mode  config.OutputMode
	// Duration of the sink buffer
	BufferDuration time.Duration
}

// Dependencies of the output driver.
type Dependencies struct {
	Log    zerolog.Logger
	Bridge bridge.API
	Sink   Sink
}

// Driver plays decoded audio on the sink and controls the amplifier.
type Driver struct {
	Config
	Dependencies

	mutex      sync.Mutex
	sampleRate beep.SampleRate
	opened     bool
	ampPin     bridge.OutputPin
	volume     *effects.Volume
	percent    int
	playing    bool
}

// NewDriver creates a new output driver.
func NewDriver(cfg Config, deps Dependencies) *Driver {
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = defaultBufferDuration
	}
	if cfg.Mode == "" {
		cfg.Mode = cfg.Audio.Mode()
	}
	deps.Log = deps.Log.With().Str("component", "output").Logger()
	return &Driver{
		Config:       cfg,
		Dependencies: deps,
		sampleRate:   beep.SampleRate(cfg.Audio.SampleRate),
		percent:      clampPercent(cfg.Audio.Volume),
	}
}

// Open initializes the sink and claims the amplifier pin.
func (d *Driver) Open() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.opened {
		return nil
	}
	if err := d.Sink.Init(d.sampleRate, d.sampleRate.N(d.BufferDuration)); err != nil {
		return errors.Wrap(err, "failed to initialize audio sink")
	}
	if d.Audio.HasAmpEnablePin() {
		pinNr := *d.Audio.AmpEnablePin
		pin, err := d.Bridge.Output(pinNr, false, false)
		if err != nil {
			d.Sink.Close()
			return errors.Wrapf(err, "failed to claim amplifier pin %d", pinNr)
		}
		d.ampPin = pin
	}
	d.opened = true
	d.Log.Info().
		Str("mode", string(d.Mode)).
		Int("sample-rate", int(d.sampleRate)).
		Bool("amplifier", d.ampPin != nil).
		Msg("Audio output opened")
	return nil
}

// Start playing the given streamer.
// Any current playback is stopped first.
func (d *Driver) Start(streamer beep.Streamer, format beep.Format) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.opened {
		return maskAny(errors.New("output not opened"))
	}
	if d.playing {
		d.stop()
	}

	s := streamer
	if format.SampleRate != d.sampleRate && format.SampleRate > 0 {
		d.Log.Debug().
			Int("from", int(format.SampleRate)).
			Int("to", int(d.sampleRate)).
			Msg("Resampling stream")
		s = beep.Resample(resampleQuality, format.SampleRate, d.sampleRate, s)
	}
	d.volume = &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   percentToExponent(d.percent),
		Silent:   d.percent == 0,
	}
	// Conditioning comes last, the DAC sees the final levels
	d.Sink.Play(condition(d.volume, d.Mode))

	if d.ampPin != nil {
		if err := d.ampPin.Write(true); err != nil {
			d.Sink.Clear()
			d.volume = nil
			return errors.Wrap(err, "failed to enable amplifier")
		}
	}
	d.playing = true
	startsTotal.Inc()
	playingGauge.Set(1)
	return nil
}

// Stop playback. The amplifier is disabled before the sink is cleared.
func (d *Driver) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.stop()
}

func (d *Driver) stop() error {
	var err error
	if d.ampPin != nil {
		if err = d.ampPin.Write(false); err != nil {
			d.Log.Warn().Err(err).Msg("Failed to disable amplifier")
		}
	}
	if d.opened {
		d.Sink.Clear()
	}
	d.volume = nil
	if d.playing {
		d.playing = false
		playingGauge.Set(0)
	}
	return err
}

// SetVolume sets the volume in percent (0-100).
func (d *Driver) SetVolume(percent int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.percent = clampPercent(percent)
	volumeGauge.Set(float64(d.percent))
	if d.volume == nil {
		return
	}
	d.Sink.Lock()
	d.volume.Volume = percentToExponent(d.percent)
	d.volume.Silent = d.percent == 0
	d.Sink.Unlock()
	d.Log.Debug().Int("volume", d.percent).Msg("Volume changed")
}

// Volume returns the volume in percent.
func (d *Driver) Volume() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.percent
}

// Playing returns true while a streamer is being played.
func (d *Driver) Playing() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.playing
}

// OutputMode returns the mode of the output.
func (d *Driver) OutputMode() config.OutputMode {
	return d.Mode
}

// Close stops playback, releases the amplifier and closes the sink.
func (d *Driver) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	var ae aerr.AggregateError
	if err := d.stop(); err != nil {
		ae.Add(err)
	}
	d.ampPin = nil
	if d.opened {
		d.Sink.Close()
		d.opened = false
	}
	return ae.AsError()
}

func clampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// percentToExponent maps a percentage onto the exponent of
// effects.Volume (base 2).
func percentToExponent(percent int) float64 {
	if percent <= 0 {
		return minVolumeExponent
	}
	if percent >= 100 {
		return 0
	}
	adjusted := math.Pow(float64(percent)/100, volumeCurveExponent)
	return (1 - adjusted) * minVolumeExponent
}
