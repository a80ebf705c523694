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

package fetcher

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrReadTimeout is returned by Stream.Read when no data arrived in time.
	ErrReadTimeout = errors.New("stream read timeout")
	// ErrInvalidURL is returned by Open when the stream URL cannot be used.
	ErrInvalidURL = errors.New("invalid stream url")

	maskAny = errors.WithStack
)

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream returned status %d: %s", e.Code, e.Status)
}

// IsRetryable returns true if opening the stream again may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrInvalidURL) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
			return false
		}
	}
	return true
}
