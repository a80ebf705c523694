//    Copyright 2026 Ewout Prangsma
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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualBridgePins(t *testing.T) {
	b := NewVirtualBridge()
	pin, err := b.Output(4, false, false)
	require.NoError(t, err)

	_, err = b.Output(4, false, false)
	assert.Error(t, err, "pin may only be claimed once")
	_, err = b.Output(-1, false, false)
	assert.Error(t, err)

	require.NoError(t, pin.Write(true))
	value, writes, found := b.Pin(4)
	assert.True(t, found)
	assert.True(t, value)
	assert.Equal(t, 1, writes)

	require.NoError(t, b.Close())
	value, _, _ = b.Pin(4)
	assert.False(t, value, "close resets outputs")
}

func TestVirtualBridgeLeds(t *testing.T) {
	b := NewVirtualBridge()
	require.NoError(t, b.BlinkGreenLED(250*time.Millisecond))
	assert.Equal(t, LEDState{Blinking: true, Delay: 250 * time.Millisecond}, b.GreenLED())
	require.NoError(t, b.SetGreenLED(true))
	assert.Equal(t, LEDState{On: true}, b.GreenLED())
	require.NoError(t, b.SetRedLED(true))
	assert.True(t, b.RedLED().On)
}
