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

// Package tailer implements incremental reads of a remote file over SFTP,
// the building block both a single Session and the fan-out MultiTailer use
// to follow a growing log file.
package tailer

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/sftp"
)

// SFTPProvider is satisfied by sshclient.Session. A Tailer holds the SFTP
// handle it reads from directly rather than going back through the
// provider on every read; the provider is only consulted lazily, the first
// time a handle is needed.
type SFTPProvider interface {
	SFTPClient() (*sftp.Client, error)
}

// Tailer incrementally reads new bytes appended to a remote file.
type Tailer struct {
	provider SFTPProvider
	path     string

	file    *sftp.File
	lastPos int64
	content string
}

// New creates a Tailer for remotePath. The SFTP handle isn't opened until
// SeekEnd or Read is first called.
func New(provider SFTPProvider, remotePath string) *Tailer {
	return &Tailer{provider: provider, path: remotePath}
}

func (t *Tailer) ensureOpen() error {
	if t.file != nil {
		return nil
	}
	client, err := t.provider.SFTPClient()
	if err != nil {
		return fmt.Errorf("acquiring sftp client: %w", err)
	}
	f, err := client.Open(t.path)
	if err != nil {
		return fmt.Errorf("opening remote file %s: %w", t.path, err)
	}
	t.file = f
	return nil
}

// SeekEnd positions the tailer at the current end of the file and returns
// that offset, without reading anything. Subsequent Read calls report only
// bytes appended after this point.
func (t *Tailer) SeekEnd() (int64, error) {
	if err := t.ensureOpen(); err != nil {
		return 0, err
	}
	info, err := t.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat remote file %s: %w", t.path, err)
	}
	t.lastPos = info.Size()
	return t.lastPos, nil
}

// Read reads everything appended to the file since *fromPos, updating
// *fromPos to the new end-of-file offset. If the file has shrunk below
// *fromPos (the remote log was truncated or rotated), the tailer resets to
// the new end of file and returns an empty string rather than erroring or
// reading stale data.
func (t *Tailer) Read(fromPos *int64) (string, error) {
	if err := t.ensureOpen(); err != nil {
		return "", err
	}

	info, err := t.file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat remote file %s: %w", t.path, err)
	}
	size := info.Size()

	readLen, truncated := readWindow(*fromPos, size)
	if truncated {
		*fromPos = size
		t.lastPos = size
		return "", nil
	}
	if readLen == 0 {
		return "", nil
	}

	if _, err := t.file.Seek(*fromPos, io.SeekStart); err != nil {
		return "", fmt.Errorf("seeking remote file %s: %w", t.path, err)
	}

	buf := make([]byte, readLen)
	if _, err := io.ReadFull(t.file, buf); err != nil {
		return "", fmt.Errorf("reading remote file %s: %w", t.path, err)
	}

	*fromPos = size
	t.lastPos = size
	text := strings.ToValidUTF8(string(buf), "�")
	t.content += text
	return text, nil
}

// readWindow decides how much new data a Read should pull given the
// caller's last-seen offset and the file's current size. If the file has
// shrunk below fromPos (truncated or rotated out from under the tailer),
// truncated is true and the caller should reset rather than read stale
// data.
func readWindow(fromPos, size int64) (readLen int64, truncated bool) {
	if fromPos > size {
		return 0, true
	}
	return size - fromPos, false
}

// LastPos returns the offset of the last successful SeekEnd or Read.
func (t *Tailer) LastPos() int64 {
	return t.lastPos
}

// Contents returns everything this tailer has accumulated via Read since it
// was created.
func (t *Tailer) Contents() string {
	return t.content
}

// Close releases the underlying SFTP file handle.
func (t *Tailer) Close() error {
	if t.file == nil {
		return nil
	}
	return t.file.Close()
}

// Scope opens a Tailer rooted at the current end of remotePath, runs fn,
// then performs one final read up to the file's current end of file before
// returning everything accumulated over [initial position, final position),
// always closing the tailer's handle. The final read means fn doesn't need
// to call Read itself to observe bytes appended while fn was running.
func Scope(provider SFTPProvider, remotePath string, fn func(*Tailer) error) (string, error) {
	t := New(provider, remotePath)
	if _, err := t.SeekEnd(); err != nil {
		return "", err
	}
	defer func() { _ = t.Close() }()

	if err := fn(t); err != nil {
		return "", err
	}

	pos := t.LastPos()
	if _, err := t.Read(&pos); err != nil {
		return "", err
	}
	return t.Contents(), nil
}
