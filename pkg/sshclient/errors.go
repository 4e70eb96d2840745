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
	"strings"
)

// ErrNotConnected is returned by any Session operation attempted before
// Connect or after Close.
var ErrNotConnected = errors.New("session is not connected")

// ErrShellFinalized is returned by Shell.Send once Shell.Read has already
// drained the shell's output.
var ErrShellFinalized = errors.New("shell has already been read and finalized")

// AuthenticationError wraps a failure to authenticate against a host,
// keeping the host around so callers (and the fan-out controller) can
// report which connection failed.
type AuthenticationError struct {
	Host string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Host, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TimeoutError marks an operation that was aborted because it exceeded its
// configured deadline.
type TimeoutError struct {
	Operation string
	Timeout   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Timeout)
}

// ResourceExhaustedError signals that the host ran out of file descriptors
// (EMFILE) or a similar resource while fanning out a connection attempt.
// Fan-out operations treat this as fatal for the whole batch rather than a
// single host failure.
type ResourceExhaustedError struct {
	Err error
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: %v", e.Err)
}

func (e *ResourceExhaustedError) Unwrap() error {
	return e.Err
}

// isEMFILE reports whether err is (or wraps) a file-descriptor exhaustion
// failure. syscall.EMFILE ends up wrapped inside *net.OpError or
// *os.SyscallError depending on whether it surfaced from dialing or from a
// file-descriptor-heavy SFTP/SCP path, so matching on the message is more
// reliable than a single errors.Is target.
func isEMFILE(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "too many open files")
}
