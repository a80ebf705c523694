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

package mqtt

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Command received on the command topic.
type Command struct {
	Action string `json:"action"`
	Volume *int   `json:"volume,omitempty"`
}

const (
	ActionPlay      = "play"
	ActionStop      = "stop"
	ActionReconnect = "reconnect"
	ActionVolume    = "volume"
)

// HandleCommand decodes a command and applies it to the controller.
func HandleCommand(ctrl Controller, payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return errors.Wrap(err, "failed to decode command")
	}
	switch cmd.Action {
	case ActionPlay:
		ctrl.Play()
	case ActionStop:
		ctrl.Stop()
	case ActionReconnect:
		ctrl.Reconnect()
	case ActionVolume:
		if cmd.Volume == nil {
			return errors.New("volume command without volume")
		}
		return ctrl.SetVolume(*cmd.Volume)
	default:
		return errors.Errorf("unknown action '%s'", cmd.Action)
	}
	return nil
}

type controllerHolder struct {
	ctrl Controller
}

func (s *Service) setController(ctrl Controller) {
	s.ctrl.Store(&controllerHolder{ctrl: ctrl})
}

func (s *Service) controller() Controller {
	if h := s.ctrl.Load(); h != nil {
		return h.ctrl
	}
	return nil
}
