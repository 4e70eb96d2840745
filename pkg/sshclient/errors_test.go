/*
 * Copyright (c) 2020 Joseph Saylor <doug@saylorsolutions.com>
 * Copyright (c) 2023 Lorenzo Delgado <lnsdev@proton.me>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sshclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEMFILE(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain emfile message", errors.New("too many open files"), true},
		{"wrapped emfile message", fmt.Errorf("dial tcp: %w", errors.New("accept4: too many open files")), true},
		{"mixed case", errors.New("Too Many Open Files"), true},
		{"unrelated error", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isEMFILE(tc.err))
		})
	}
}

func TestAuthenticationErrorUnwrap(t *testing.T) {
	inner := errors.New("no supported methods remain")
	err := &AuthenticationError{Host: "example.com", Err: inner}
	assert.Equal(t, inner, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "example.com")
}

func TestResourceExhaustedErrorUnwrap(t *testing.T) {
	inner := errors.New("too many open files")
	err := &ResourceExhaustedError{Err: inner}
	assert.Equal(t, inner, errors.Unwrap(err))
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Operation: "execute", Timeout: "5s"}
	assert.Equal(t, "execute timed out after 5s", err.Error())
}
