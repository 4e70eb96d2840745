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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JacobCallahan/Hussh/pkg/sshclient"
	"github.com/JacobCallahan/Hussh/pkg/tailer"
)

// DefaultBatchSize bounds how many hosts are dispatched concurrently when a
// Controller is built without an explicit batch size.
const DefaultBatchSize = 100

// Controller fans a Session operation out across many hosts at once,
// bounded by a batch size, joining every per-host goroutine before
// returning.
type Controller struct {
	hosts     []string
	sessions  []*sshclient.Session
	batchSize int
	timeout   time.Duration
}

// FromSessions builds a Controller from already-constructed sessions and
// their host labels. hosts and sessions must be index-aligned.
func FromSessions(sessions []*sshclient.Session, hosts []string, batchSize int, timeout time.Duration) *Controller {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Controller{hosts: hosts, sessions: sessions, batchSize: batchSize, timeout: timeout}
}

// FromSharedAuth builds a Controller that connects to every host in hosts
// using the same credentials, only varying the host field of auth. Sessions
// built this way use the default-key search order as an additional
// fallback, per the documented asymmetry between a standalone Session and
// one a Controller constructs internally.
func FromSharedAuth(hosts []string, auth sshclient.Config, batchSize int, timeout time.Duration) *Controller {
	sessions := make([]*sshclient.Session, len(hosts))
	for i, host := range hosts {
		cfg := auth
		cfg.Host = host
		sessions[i] = sshclient.NewWithAutoKeySearch(cfg)
	}
	return FromSessions(sessions, hosts, batchSize, timeout)
}

// FromConnections builds a Controller that dispatches on the given sessions
// themselves. It does not copy their connection parameters into new
// sessions: the controller and the caller share the same Session values, so
// Controller.Close closes the caller's sessions too.
func FromConnections(sessions []*sshclient.Session, hosts []string, batchSize int, timeout time.Duration) (*Controller, error) {
	return FromSessions(sessions, hosts, batchSize, timeout), nil
}

// Hosts returns the controller's host labels in dispatch order.
func (c *Controller) Hosts() []string {
	out := make([]string, len(c.hosts))
	copy(out, c.hosts)
	return out
}

func (c *Controller) String() string {
	return fmt.Sprintf("MultiConnection(%d hosts, batch_size=%d)", len(c.hosts), c.batchSize)
}

// dispatch runs task against every session, bounded by the controller's
// batch size, and collects one HostOutcome per host. If any task's error is
// a *sshclient.ResourceExhaustedError (EMFILE), the whole operation is
// aborted rather than recorded as a single host's failure.
func dispatch[T any](ctx context.Context, c *Controller, task func(ctx context.Context, host string, s *sshclient.Session) (T, error)) (*MultiResult[T], error) {
	sem := newSemaphore(c.batchSize)
	outcomes := make([]HostOutcome[T], len(c.hosts))

	var wg sync.WaitGroup
	var abortOnce sync.Once
	var abortErr error

	for i := range c.hosts {
		i := i
		wg.Add(1)
		sem.acquire()
		go func() {
			defer wg.Done()
			defer sem.release()

			host := c.hosts[i]
			value, err := func() (value T, err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("panic dispatching %s: %v", host, r)
					}
				}()
				return task(ctx, host, c.sessions[i])
			}()

			var exhausted *sshclient.ResourceExhaustedError
			if err != nil && asResourceExhausted(err, &exhausted) {
				abortOnce.Do(func() { abortErr = err })
			}
			outcomes[i] = HostOutcome[T]{Host: host, Value: value, Err: err}
		}()
	}
	wg.Wait()

	if abortErr != nil {
		return nil, abortErr
	}
	return newMultiResult(outcomes), nil
}

func asResourceExhausted(err error, target **sshclient.ResourceExhaustedError) bool {
	re, ok := err.(*sshclient.ResourceExhaustedError)
	if ok {
		*target = re
	}
	return ok
}

// Connect dials every host concurrently. When pruneFailures is true, hosts
// that failed to connect are dropped from the controller's own host list
// afterward, so later operations only dispatch against the hosts that
// succeeded.
func (c *Controller) Connect(ctx context.Context, pruneFailures bool, timeout time.Duration) (*MultiResult[struct{}], error) {
	runCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	result, err := dispatch(runCtx, c, func(ctx context.Context, host string, s *sshclient.Session) (struct{}, error) {
		return struct{}{}, s.Connect(ctx)
	})
	if err != nil {
		return nil, err
	}

	if pruneFailures {
		c.pruneTo(result.Prune().Hosts())
	}
	return result, nil
}

// pruneTo keeps only the hosts (and their index-aligned sessions) present
// in keep, preserving the controller's original order.
func (c *Controller) pruneTo(keep []string) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, h := range keep {
		keepSet[h] = struct{}{}
	}

	hosts := make([]string, 0, len(keep))
	sessions := make([]*sshclient.Session, 0, len(keep))
	for i, h := range c.hosts {
		if _, ok := keepSet[h]; ok {
			hosts = append(hosts, h)
			sessions = append(sessions, c.sessions[i])
		}
	}
	c.hosts = hosts
	c.sessions = sessions
}

// Execute runs command against every host concurrently. A per-host task
// that exceeds timeout contributes a synthetic Result (status -1) instead
// of failing the batch.
func (c *Controller) Execute(ctx context.Context, command string, timeout time.Duration) (*MultiResult[sshclient.Result], error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	return dispatch(ctx, c, func(ctx context.Context, host string, s *sshclient.Session) (sshclient.Result, error) {
		result, err := s.Execute(ctx, command, timeout)
		if err != nil {
			if te, ok := err.(*sshclient.TimeoutError); ok {
				return sshclient.TimedOutResult(te.Timeout), nil
			}
			return result, err
		}
		return result, nil
	})
}

// ExecuteMap runs a distinct command per host concurrently.
func (c *Controller) ExecuteMap(ctx context.Context, commands map[string]string, timeout time.Duration) (*MultiResult[sshclient.Result], error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	return dispatch(ctx, c, func(ctx context.Context, host string, s *sshclient.Session) (sshclient.Result, error) {
		command, ok := commands[host]
		if !ok {
			return sshclient.Result{}, fmt.Errorf("no command provided for host %s", host)
		}
		result, err := s.Execute(ctx, command, timeout)
		if err != nil {
			if te, ok := err.(*sshclient.TimeoutError); ok {
				return sshclient.TimedOutResult(te.Timeout), nil
			}
			return result, err
		}
		return result, nil
	})
}

// SftpWrite uploads localPath to remotePath on every host concurrently.
func (c *Controller) SftpWrite(ctx context.Context, localPath, remotePath string) (*MultiResult[struct{}], error) {
	return dispatch(ctx, c, func(ctx context.Context, host string, s *sshclient.Session) (struct{}, error) {
		return struct{}{}, s.SftpWrite(localPath, remotePath)
	})
}

// SftpWriteData uploads data to remotePath on every host concurrently.
func (c *Controller) SftpWriteData(ctx context.Context, data []byte, remotePath string) (*MultiResult[struct{}], error) {
	return dispatch(ctx, c, func(ctx context.Context, host string, s *sshclient.Session) (struct{}, error) {
		return struct{}{}, s.SftpWriteData(data, remotePath)
	})
}

// SftpRead downloads remotePath from every host concurrently.
func (c *Controller) SftpRead(ctx context.Context, remotePath, localDir string) (*MultiResult[string], error) {
	return dispatch(ctx, c, func(ctx context.Context, host string, s *sshclient.Session) (string, error) {
		var localPath string
		if localDir != "" {
			localPath = localDir + "/" + host
		}
		return s.SftpRead(remotePath, localPath)
	})
}

// Tail returns a MultiTailer following remotePath on every host.
func (c *Controller) Tail(remotePath string) *MultiTailer {
	paths := make(map[string]string, len(c.hosts))
	for _, h := range c.hosts {
		paths[h] = remotePath
	}
	return c.TailMap(paths)
}

// TailMap returns a MultiTailer following a distinct remote path per host.
func (c *Controller) TailMap(hostPaths map[string]string) *MultiTailer {
	tailers := make(map[string]*tailer.Tailer, len(c.hosts))
	for i, host := range c.hosts {
		if path, ok := hostPaths[host]; ok {
			tailers[host] = tailer.New(c.sessions[i], path)
		}
	}
	return &MultiTailer{hosts: c.Hosts(), tailers: tailers}
}

// Close closes every session concurrently, aggregating any per-host close
// errors into a multierror rather than stopping at the first one.
func (c *Controller) Close() error {
	var wg sync.WaitGroup
	errs := make([]error, len(c.sessions))
	for i, s := range c.sessions {
		i, s := i, s
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Close()
		}()
	}
	wg.Wait()
	return combineErrors(errs)
}

// Scope connects every host (without pruning failures), runs fn, and
// always closes every session afterward.
func Scope(ctx context.Context, c *Controller, fn func(*Controller) error) error {
	defer func() { _ = c.Close() }()
	if _, err := c.Connect(ctx, false, c.timeout); err != nil {
		return err
	}
	return fn(c)
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
