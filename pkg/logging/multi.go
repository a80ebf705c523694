// Copyright 2018 Ewout Prangsma
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

package logging

import (
	"io"

	aerr "github.com/ewoutp/go-aggregate-error"
)

type multiWriter struct {
	writers []io.Writer
}

// NewMultiWriter creates an output that writes logs to all given
// writers. Nil writers are skipped.
func NewMultiWriter(writers ...io.Writer) io.Writer {
	l := &multiWriter{}
	for _, w := range writers {
		if w != nil {
			l.writers = append(l.writers, w)
		}
	}
	return l
}

// Write to all writers, even when one of them fails.
func (l *multiWriter) Write(p []byte) (int, error) {
	var ae aerr.AggregateError
	for _, w := range l.writers {
		if _, err := w.Write(p); err != nil {
			ae.Add(err)
		}
	}
	return len(p), ae.AsError()
}
