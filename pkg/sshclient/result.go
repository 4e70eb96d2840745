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

import "fmt"

// Result is the outcome of a single command execution or shell read:
// everything collected from stdout, everything collected from stderr, and
// the remote exit status. A synthetic Result with Status -1 marks a
// per-task timeout inside a fan-out operation rather than a real exit code.
type Result struct {
	Stdout string
	Stderr string
	Status int
}

// TimedOutResult builds the synthetic Result a fan-out Execute substitutes
// for a host whose task exceeded its per-task timeout, instead of failing
// the whole batch.
func TimedOutResult(timeout string) Result {
	return Result{
		Status: -1,
		Stderr: fmt.Sprintf("Operation timed out after %s", timeout),
	}
}

func (r Result) String() string {
	return fmt.Sprintf("stdout:\n%s\nstderr:\n%s\nstatus: %d", r.Stdout, r.Stderr, r.Status)
}
