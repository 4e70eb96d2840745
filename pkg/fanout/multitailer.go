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
	"sync"

	"github.com/JacobCallahan/Hussh/pkg/tailer"
)

// MultiTailer follows a remote file across every host in a Controller at
// once. It is normally driven through MultiTailerScope rather than used
// directly.
type MultiTailer struct {
	hosts    []string
	tailers  map[string]*tailer.Tailer
	lastPos  map[string]int64
	posMu    sync.Mutex
}

// Open seeks every host's tailer to its current end of file concurrently.
// Any host failing to open is fatal for the whole operation: a scope with
// one unreachable host never starts tailing the others either, matching
// the documented entry semantics.
func (mt *MultiTailer) Open() error {
	errs := make([]error, len(mt.hosts))
	positions := make([]int64, len(mt.hosts))

	var wg sync.WaitGroup
	for i, host := range mt.hosts {
		i, host := i, host
		t, ok := mt.tailers[host]
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			pos, err := t.SeekEnd()
			positions[i] = pos
			errs[i] = err
		}()
	}
	wg.Wait()

	if err := combineErrors(errs); err != nil {
		return fmt.Errorf("opening multi-tailer: %w", err)
	}

	mt.posMu.Lock()
	mt.lastPos = make(map[string]int64, len(mt.hosts))
	for i, host := range mt.hosts {
		mt.lastPos[host] = positions[i]
	}
	mt.posMu.Unlock()
	return nil
}

// Read reads newly appended bytes from every host concurrently, each
// starting from that host's last recorded position, and returns a map of
// host to the text read.
func (mt *MultiTailer) Read() (map[string]string, error) {
	out := make(map[string]string, len(mt.hosts))
	var mu sync.Mutex
	errs := make([]error, len(mt.hosts))

	var wg sync.WaitGroup
	for i, host := range mt.hosts {
		i, host := i, host
		t, ok := mt.tailers[host]
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			mt.posMu.Lock()
			pos := mt.lastPos[host]
			mt.posMu.Unlock()

			text, err := t.Read(&pos)
			if err != nil {
				errs[i] = err
				return
			}

			mt.posMu.Lock()
			mt.lastPos[host] = pos
			mt.posMu.Unlock()

			mu.Lock()
			out[host] = text
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := combineErrors(errs); err != nil {
		return out, fmt.Errorf("reading multi-tailer: %w", err)
	}
	return out, nil
}

// finalizeRead drains every host one last time, capturing a per-host
// failure as an "Error: <message>" string in place of the read text rather
// than raising, since this runs on scope exit.
func (mt *MultiTailer) finalizeRead() map[string]string {
	out := make(map[string]string, len(mt.hosts))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, host := range mt.hosts {
		host := host
		t, ok := mt.tailers[host]
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			mt.posMu.Lock()
			pos := mt.lastPos[host]
			mt.posMu.Unlock()

			text, err := t.Read(&pos)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out[host] = fmt.Sprintf("Error: %s", err.Error())
				return
			}
			out[host] = text
		}()
	}
	wg.Wait()
	return out
}

// Close releases every host's tailer handle concurrently.
func (mt *MultiTailer) Close() error {
	errs := make([]error, len(mt.hosts))
	var wg sync.WaitGroup
	for i, host := range mt.hosts {
		i, host := i, host
		t, ok := mt.tailers[host]
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = t.Close()
		}()
	}
	wg.Wait()
	return combineErrors(errs)
}

// MultiTailerScope opens mt, runs fn, then always performs one last
// per-host read (capturing any per-host failure as an "Error: ..." string
// rather than raising) and closes every tailer, returning the final
// host-to-text map.
func MultiTailerScope(mt *MultiTailer, fn func(*MultiTailer) error) (map[string]string, error) {
	if err := mt.Open(); err != nil {
		return nil, err
	}
	defer func() { _ = mt.Close() }()

	fnErr := fn(mt)
	contents := mt.finalizeRead()
	if fnErr != nil {
		return contents, fnErr
	}
	return contents, nil
}
