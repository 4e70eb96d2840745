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

package fanout

import "fmt"

// PartialFailureError is raised by MultiResult.RaiseIfAnyFailed when at
// least one host in a fan-out operation failed. It carries both the
// succeeded and failed sub-results so callers can decide how to proceed
// without re-querying hosts.
type PartialFailureError[T any] struct {
	Succeeded *MultiResult[T]
	Failed    *MultiResult[T]
}

func (e *PartialFailureError[T]) Error() string {
	total := e.Failed.Len() + e.Succeeded.Len()
	return fmt.Sprintf("Operation failed on %d of %d host(s)", e.Failed.Len(), total)
}
