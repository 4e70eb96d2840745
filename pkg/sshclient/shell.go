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
	"context"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// DefaultTermType, DefaultTermWidth and DefaultTermHeight are the PTY
// parameters requested when Shell is opened with pty=true.
const (
	DefaultTermType   = "xterm"
	DefaultTermWidth  = 80
	DefaultTermHeight = 24
)

type shellState int

const (
	shellOpen shellState = iota
	shellReadFinalized
	shellClosed
)

// Shell is an interactive remote shell opened on a raw session channel. It
// can only be meaningfully read once: Read sends EOF on the write side,
// drains the output with the shell timing contract (first-packet wait, then
// idle-drain) and transitions the shell to a finalized state that accepts
// no further Send.
type Shell struct {
	ch    ssh.Channel
	reqs  <-chan *ssh.Request
	state shellState
	pty   bool
}

// Shell opens an interactive shell channel on the session, optionally
// allocating a PTY with the documented xterm/80x24 defaults.
func (s *Session) Shell(pty bool) (*Shell, error) {
	ch, reqs, err := s.openChannel()
	if err != nil {
		return nil, fmt.Errorf("opening shell channel: %w", err)
	}

	if pty {
		modes := ssh.TerminalModes{
			ssh.ECHO:          1,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		payload := ssh.Marshal(struct {
			Term                                   string
			Width, Height, WidthPx, HeightPx        uint32
			Modes                                   string
		}{DefaultTermType, DefaultTermWidth, DefaultTermHeight, 0, 0, string(modes.Data())})
		if _, err := ch.SendRequest("pty-req", true, payload); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("requesting pty: %w", err)
		}
	}

	if _, err := ch.SendRequest("shell", true, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("starting shell: %w", err)
	}

	return &Shell{ch: ch, reqs: reqs, pty: pty}, nil
}

// Send writes data to the shell's stdin, optionally appending a trailing
// newline so callers can pass bare commands.
func (sh *Shell) Send(data string, addNewline bool) error {
	if sh.state != shellOpen {
		return ErrShellFinalized
	}
	if addNewline {
		data += "\n"
	}
	_, err := sh.ch.Write([]byte(data))
	return err
}

// Read sends EOF on the write side and drains whatever output has
// accumulated using the interactive-shell timing contract (first-packet
// wait, then idle-drain). After Read returns, the shell can no longer be
// written to.
func (sh *Shell) Read() (Result, error) {
	return sh.ReadContext(context.Background())
}

// ReadContext is Read with an explicit context for cancellation.
func (sh *Shell) ReadContext(ctx context.Context) (Result, error) {
	if sh.state == shellClosed {
		return Result{}, ErrNotConnected
	}
	if sh.state == shellOpen {
		_ = sh.ch.CloseWrite()
		sh.state = shellReadFinalized
	}
	return drainShell(ctx, sh.ch, sh.reqs)
}

// Close releases the shell channel. If the shell was opened with a PTY and
// hasn't been read yet, it first sends "exit\n" and reads the remaining
// output so the remote shell process has a chance to terminate cleanly.
func (sh *Shell) Close() error {
	if sh.state == shellClosed {
		return nil
	}
	if sh.pty && sh.state == shellOpen {
		_ = sh.Send("exit", true)
		_, _ = sh.Read()
	}
	sh.state = shellClosed
	return sh.ch.Close()
}

// ShellScope opens a shell on s, runs fn, and always reads and closes it
// afterward, returning the final drained Result.
func ShellScope(s *Session, pty bool, fn func(*Shell) error) (Result, error) {
	sh, err := s.Shell(pty)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = sh.Close() }()

	fnErr := fn(sh)
	result, err := sh.Read()
	if fnErr != nil {
		return result, fnErr
	}
	return result, err
}
