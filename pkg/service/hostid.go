//    Copyright 2017-2022 Ewout Prangsma
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

package service

import (
	"crypto/sha1"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	machineIDPath = "/etc/machine-id"
)

var (
	maskAny = errors.WithStack
)

// createHostID returns a stable ID for this host.
func createHostID() (string, error) {
	if content, err := os.ReadFile(machineIDPath); err == nil {
		return hostIDFromMachineID(content), nil
	}

	ifs, err := net.Interfaces()
	if err != nil {
		return "", maskAny(err)
	}
	return hostIDFromInterfaces(ifs), nil
}

func hostIDFromMachineID(content []byte) string {
	content = []byte(strings.TrimSpace(string(content)))
	id := fmt.Sprintf("%x", sha1.Sum(content))
	return id[:10]
}

func hostIDFromInterfaces(ifs []net.Interface) string {
	list := make([]string, 0, len(ifs))
	for _, v := range ifs {
		f := v.Flags
		if f&net.FlagUp != 0 && f&net.FlagLoopback == 0 {
			if h := v.HardwareAddr.String(); len(h) > 0 {
				list = append(list, h)
			}
		}
	}
	sort.Strings(list) // sort host IDs
	list = append(list, runtime.GOOS, runtime.GOARCH)
	data := []byte(strings.Join(list, ","))
	id := fmt.Sprintf("%x", sha1.Sum(data))
	return id[:10]
}
