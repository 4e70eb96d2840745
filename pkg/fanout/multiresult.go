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

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JacobCallahan/Hussh/pkg/sshclient"
)

// HostOutcome is one host's outcome within a MultiResult: either Value is
// meaningful and Err is nil, or the host failed and Err explains why.
type HostOutcome[T any] struct {
	Host  string
	Value T
	Err   error
}

// MultiResult is an immutable, host-keyed view over the outcome of a
// fan-out operation. It is built once by the Controller and never mutated
// afterward.
type MultiResult[T any] struct {
	order   []string
	results map[string]HostOutcome[T]
}

func newMultiResult[T any](outcomes []HostOutcome[T]) *MultiResult[T] {
	mr := &MultiResult[T]{
		order:   make([]string, 0, len(outcomes)),
		results: make(map[string]HostOutcome[T], len(outcomes)),
	}
	for _, o := range outcomes {
		mr.order = append(mr.order, o.Host)
		mr.results[o.Host] = o
	}
	return mr
}

// Len returns the number of hosts represented.
func (mr *MultiResult[T]) Len() int {
	if mr == nil {
		return 0
	}
	return len(mr.order)
}

// Hosts returns the host keys in dispatch order.
func (mr *MultiResult[T]) Hosts() []string {
	if mr == nil {
		return nil
	}
	out := make([]string, len(mr.order))
	copy(out, mr.order)
	return out
}

// Contains reports whether host is present in this result.
func (mr *MultiResult[T]) Contains(host string) bool {
	if mr == nil {
		return false
	}
	_, ok := mr.results[host]
	return ok
}

// Get returns host's outcome, if present.
func (mr *MultiResult[T]) Get(host string) (HostOutcome[T], bool) {
	if mr == nil {
		return HostOutcome[T]{}, false
	}
	o, ok := mr.results[host]
	return o, ok
}

// GetOrDefault returns host's value, or def if the host is absent or its
// task returned an error. A host whose sshclient.Result has a nonzero
// status still returns that Result, although Failed lists it.
func (mr *MultiResult[T]) GetOrDefault(host string, def T) T {
	o, ok := mr.Get(host)
	if !ok || o.Err != nil {
		return def
	}
	return o.Value
}

// Values returns the value of every host whose task returned no error, in
// dispatch order (including sshclient.Results with a nonzero status).
func (mr *MultiResult[T]) Values() []T {
	if mr == nil {
		return nil
	}
	out := make([]T, 0, len(mr.order))
	for _, host := range mr.order {
		if o := mr.results[host]; o.Err == nil {
			out = append(out, o.Value)
		}
	}
	return out
}

// Items returns every outcome, in dispatch order.
func (mr *MultiResult[T]) Items() []HostOutcome[T] {
	if mr == nil {
		return nil
	}
	out := make([]HostOutcome[T], 0, len(mr.order))
	for _, host := range mr.order {
		out = append(out, mr.results[host])
	}
	return out
}

// hostFailed reports whether o counts as a failure: an error always does,
// and for sshclient.Result values a nonzero exit status does too, even
// though the command ran and produced no Go error of its own.
func hostFailed[T any](o HostOutcome[T]) bool {
	if o.Err != nil {
		return true
	}
	if result, ok := any(o.Value).(sshclient.Result); ok {
		return result.Status != 0
	}
	return false
}

// Succeeded returns the subset of hosts that did not fail, or nil if none
// succeeded.
func (mr *MultiResult[T]) Succeeded() *MultiResult[T] {
	var out []HostOutcome[T]
	for _, o := range mr.Items() {
		if !hostFailed(o) {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return newMultiResult(out)
}

// Failed returns the subset of hosts that failed, or nil if none failed.
func (mr *MultiResult[T]) Failed() *MultiResult[T] {
	var out []HostOutcome[T]
	for _, o := range mr.Items() {
		if hostFailed(o) {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return newMultiResult(out)
}

// RaiseIfAnyFailed returns a *PartialFailureError if any host failed, nil
// otherwise.
func (mr *MultiResult[T]) RaiseIfAnyFailed() error {
	failed := mr.Failed()
	if failed == nil {
		return nil
	}
	return &PartialFailureError[T]{Succeeded: mr.Succeeded(), Failed: failed}
}

// Prune returns a new MultiResult containing only hosts that succeeded,
// preserving dispatch order. Unlike Succeeded, it never returns nil: an
// all-failed input prunes down to an empty, non-nil MultiResult.
func (mr *MultiResult[T]) Prune() *MultiResult[T] {
	succeeded := mr.Succeeded()
	if succeeded == nil {
		return newMultiResult[T](nil)
	}
	return succeeded
}

func (mr *MultiResult[T]) String() string {
	if mr == nil {
		return "MultiResult{}"
	}
	hosts := mr.Hosts()
	sort.Strings(hosts)
	var b strings.Builder
	b.WriteString("MultiResult{\n")
	for _, host := range hosts {
		o := mr.results[host]
		if o.Err != nil {
			fmt.Fprintf(&b, "  %s: error: %v\n", host, o.Err)
		} else {
			fmt.Fprintf(&b, "  %s: %v\n", host, o.Value)
		}
	}
	b.WriteString("}")
	return b.String()
}
