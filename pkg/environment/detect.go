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

package environment

import (
	"strings"

	"github.com/binkynet/RadioWorker/pkg/config"
)

// bridgeTypeFor maps the kernel machine and release to a bridge type.
// Only Raspberry Pi kernels on ARM get the GPIO bridge.
func bridgeTypeFor(machine, release string) string {
	machine = strings.TrimSpace(machine)
	release = strings.TrimSpace(release)
	if strings.Contains(release, "sunxi") {
		// Allwinner boards have a different GPIO layout
		return config.BridgeVirtual
	}
	if strings.HasPrefix(machine, "arm") || machine == "aarch64" {
		return config.BridgeRaspberryPi
	}
	return config.BridgeVirtual
}

// ResolveBridgeType returns the given bridge type, or the detected
// bridge type when it is auto.
func ResolveBridgeType(bridgeType string, detect func() string) string {
	if bridgeType == "" || bridgeType == config.BridgeAuto {
		return detect()
	}
	return bridgeType
}
