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
	"fmt"
	"sync"
	"time"
)

// LEDState describes the state of a virtual status led.
type LEDState struct {
	On       bool
	Blinking bool
	Delay    time.Duration
}

// VirtualBridge is a bridge without hardware.
// It remembers the state of leds and pins so it can be inspected.
type VirtualBridge struct {
	mutex    sync.Mutex
	pinCount int
	greenLed LEDState
	redLed   LEDState
	pins     map[int]*virtualPin
}

type virtualPin struct {
	bridge *VirtualBridge
	value  bool
	writes int
}

// NewVirtualBridge implements the bridge for a worker without GPIO hardware.
func NewVirtualBridge() *VirtualBridge {
	return &VirtualBridge{
		pinCount: 40,
		pins:     make(map[int]*virtualPin),
	}
}

var _ API = &VirtualBridge{}

// Returns number of local pins
func (p *VirtualBridge) PinCount() int {
	return p.pinCount
}

// Output initializes a GPIO output pin with the given pin number
// and initial logical value.
func (p *VirtualBridge) Output(pinNumber int, activeLow bool, initialValue bool) (OutputPin, error) {
	if pinNumber < 0 || pinNumber >= p.pinCount {
		return nil, fmt.Errorf("Invalid pin %d", pinNumber)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, found := p.pins[pinNumber]; found {
		return nil, fmt.Errorf("pin %d is already in use", pinNumber)
	}
	pin := &virtualPin{bridge: p, value: initialValue}
	p.pins[pinNumber] = pin
	return pin, nil
}

// Pin returns the current value of the given pin and the number of writes to it.
// Returns false for found if the pin was not claimed.
func (p *VirtualBridge) Pin(pinNumber int) (value bool, writes int, found bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if pin, ok := p.pins[pinNumber]; ok {
		return pin.value, pin.writes, true
	}
	return false, 0, false
}

// GreenLED returns the state of the green led
func (p *VirtualBridge) GreenLED() LEDState {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.greenLed
}

// RedLED returns the state of the red led
func (p *VirtualBridge) RedLED() LEDState {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.redLed
}

// Turn Green status led on/off
func (p *VirtualBridge) SetGreenLED(on bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.greenLed = LEDState{On: on}
	return nil
}

// Turn Red status led on/off
func (p *VirtualBridge) SetRedLED(on bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.redLed = LEDState{On: on}
	return nil
}

// Blink Green status led with given duration between on/off
func (p *VirtualBridge) BlinkGreenLED(delay time.Duration) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.greenLed = LEDState{Blinking: true, Delay: delay}
	return nil
}

// Blink Red status led with given duration between on/off
func (p *VirtualBridge) BlinkRedLED(delay time.Duration) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.redLed = LEDState{Blinking: true, Delay: delay}
	return nil
}

func (p *VirtualBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for _, pin := range p.pins {
		pin.value = false
	}
	p.greenLed = LEDState{}
	p.redLed = LEDState{}
	return nil
}

func (v *virtualPin) Write(value bool) error {
	v.bridge.mutex.Lock()
	defer v.bridge.mutex.Unlock()
	v.value = value
	v.writes++
	return nil
}
