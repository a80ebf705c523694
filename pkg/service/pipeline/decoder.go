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

package pipeline

import (
	"io"
	"sort"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	"github.com/pkg/errors"
)

// Decoder turns an encoded byte stream into PCM samples.
type Decoder func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]Decoder{
	"mp3": mp3.Decode,
	"wav": decodeWAV,
}

func decodeWAV(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(rc)
}

// DecoderFor returns the decoder for the given codec name.
func DecoderFor(codec string) (Decoder, error) {
	if d, found := decoders[codec]; found {
		return d, nil
	}
	return nil, errors.Errorf("unsupported codec '%s'", codec)
}

// Codecs returns the names of all supported codecs.
func Codecs() []string {
	result := make([]string, 0, len(decoders))
	for name := range decoders {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
