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

import "github.com/binkynet/RadioWorker/pkg/metrics"

const (
	subSystem = "pipeline"
)

var (
	ringUnderrunsTotal   = metrics.MustRegisterCounter(subSystem, "ring_underruns_total", "Number of times the ring buffer ran empty")
	ringFillGauge        = metrics.MustRegisterGauge(subSystem, "ring_filled_bytes", "Number of bytes in the ring buffer")
	decodedSamplesTotal  = metrics.MustRegisterCounter(subSystem, "decoded_samples_total", "Number of decoded samples")
	outputUnderrunsTotal = metrics.MustRegisterCounter(subSystem, "output_underruns_total", "Number of times silence was played for lack of decoded frames")
)
