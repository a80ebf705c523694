//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package bridge

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
)

const (
	greenLedPin = 23
	redLedPin   = 24
	rpiPinCount = 28
)

type statusLed struct {
	sync.Mutex
	name        string
	pin         gpio.OutputPin
	cancelBlink func()
}

// Turn led on/off, cancel blink
func (l *statusLed) Set(on bool) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	gpioWritesTotal.WithLabelValues(l.name).Inc()
	if err := l.pin.Write(on); err != nil {
		return errors.Wrap(err, "Write failed")
	}
	return nil
}

// Blink led on/off
func (l *statusLed) Blink(delay time.Duration) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelBlink = cancel
	go func() {
		value := true
		for {
			l.Mutex.Lock()
			if ctx.Err() == nil {
				l.pin.Write(value)
				value = !value
			}
			l.Mutex.Unlock()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop blinking and turn off
func (l *statusLed) Close() error {
	return l.Set(false)
}

type piBridge struct {
	mutex    sync.Mutex
	greenLed statusLed
	redLed   statusLed
	outputs  map[int]gpio.OutputPin
}

// NewRaspberryPiBridge implements the bridge for Raspberry PI's
func NewRaspberryPiBridge() (API, error) {
	activeLow := true
	initialValue := false
	greenLed, err := gpio.Output(greenLedPin, activeLow, initialValue)
	if err != nil {
		return nil, errors.Wrap(err, "Output[greenLed] failed")
	}
	redLed, err := gpio.Output(redLedPin, activeLow, initialValue)
	if err != nil {
		return nil, errors.Wrap(err, "Output[redLed] failed")
	}
	return &piBridge{
		greenLed: statusLed{name: "green-led", pin: greenLed},
		redLed:   statusLed{name: "red-led", pin: redLed},
		outputs:  make(map[int]gpio.OutputPin),
	}, nil
}

// Returns number of local pins
func (p *piBridge) PinCount() int {
	return rpiPinCount
}

// Output initializes a GPIO output pin with the given pin number
// and initial logical value.
func (p *piBridge) Output(pinNumber int, activeLow bool, initialValue bool) (OutputPin, error) {
	if pinNumber < 0 || pinNumber >= rpiPinCount {
		return nil, fmt.Errorf("invalid pin %d", pinNumber)
	}
	if pinNumber == greenLedPin || pinNumber == redLedPin {
		return nil, fmt.Errorf("pin %d is reserved for a status led", pinNumber)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, found := p.outputs[pinNumber]; found {
		return nil, fmt.Errorf("pin %d is already in use", pinNumber)
	}
	pin, err := gpio.Output(pinNumber, activeLow, initialValue)
	if err != nil {
		return nil, errors.Wrapf(err, "Output[%d] failed", pinNumber)
	}
	p.outputs[pinNumber] = pin
	return &countingPin{label: "gpio" + strconv.Itoa(pinNumber), pin: pin}, nil
}

// Turn Green status led on/off
func (p *piBridge) SetGreenLED(on bool) error {
	if err := p.greenLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[greenLed] failed")
	}
	return nil
}

// Turn Red status led on/off
func (p *piBridge) SetRedLED(on bool) error {
	if err := p.redLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[redLed] failed")
	}
	return nil
}

// Blink Green status led with given duration between on/off
func (p *piBridge) BlinkGreenLED(delay time.Duration) error {
	if err := p.greenLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[greenLed] failed")
	}
	return nil
}

// Blink Red status led with given duration between on/off
func (p *piBridge) BlinkRedLED(delay time.Duration) error {
	if err := p.redLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[redLed] failed")
	}
	return nil
}

// Close turns off the status leds and drives all claimed
// outputs to their inactive state.
func (p *piBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var firstErr error
	for nr, pin := range p.outputs {
		if err := pin.Write(false); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "Reset[%d] failed", nr)
		}
		delete(p.outputs, nr)
	}
	if err := p.greenLed.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.redLed.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// countingPin counts writes to a GPIO output.
type countingPin struct {
	label string
	pin   OutputPin
}

func (c *countingPin) Write(value bool) error {
	gpioWritesTotal.WithLabelValues(c.label).Inc()
	if err := c.pin.Write(value); err != nil {
		gpioWriteErrorsTotal.WithLabelValues(c.label).Inc()
		return err
	}
	return nil
}
