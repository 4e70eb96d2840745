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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// ScpWriteData uploads data to remotePath using the scp -t wire protocol
// directly over an exec channel, rather than going through the SFTP
// subsystem. Permission preservation beyond DefaultSCPMode remains a TODO.
func (s *Session) ScpWriteData(data []byte, remotePath string) error {
	if s.state != stateConnected {
		return ErrNotConnected
	}

	ch, reqs, err := s.openChannel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	cmd := fmt.Sprintf("scp -t %s", remotePath)
	if _, err := ch.SendRequest("exec", true, marshalCommand(cmd)); err != nil {
		return fmt.Errorf("sending scp exec request: %w", err)
	}

	if err := scpExpectAck(ch); err != nil {
		return fmt.Errorf("waiting for scp ack: %w", err)
	}

	name := filepath.Base(remotePath)
	header := fmt.Sprintf("C%04o %d %s\n", DefaultSCPMode, len(data), name)
	if _, err := io.WriteString(ch, header); err != nil {
		return fmt.Errorf("writing scp header: %w", err)
	}
	if err := scpExpectAck(ch); err != nil {
		return fmt.Errorf("waiting for scp header ack: %w", err)
	}

	if _, err := ch.Write(data); err != nil {
		return fmt.Errorf("writing scp payload: %w", err)
	}
	if _, err := ch.Write([]byte{0}); err != nil {
		return fmt.Errorf("writing scp trailer: %w", err)
	}
	if err := scpExpectAck(ch); err != nil {
		return fmt.Errorf("waiting for scp trailer ack: %w", err)
	}

	return scpFinalize(ch, reqs)
}

// ScpWrite uploads the contents of localPath to remotePath.
func (s *Session) ScpWrite(localPath, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading local file %s: %w", localPath, err)
	}
	return s.ScpWriteData(data, remotePath)
}

// ScpRead downloads remotePath using scp -f. With a non-empty localPath it
// writes the file there and returns "Ok"; otherwise it returns the file's
// contents.
func (s *Session) ScpRead(remotePath, localPath string) (string, error) {
	if s.state != stateConnected {
		return "", ErrNotConnected
	}

	ch, reqs, err := s.openChannel()
	if err != nil {
		return "", fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	cmd := fmt.Sprintf("scp -f %s", remotePath)
	if _, err := ch.SendRequest("exec", true, marshalCommand(cmd)); err != nil {
		return "", fmt.Errorf("sending scp exec request: %w", err)
	}

	if _, err := ch.Write([]byte{0}); err != nil {
		return "", fmt.Errorf("sending initial scp ack: %w", err)
	}

	reader := bufio.NewReader(ch)
	header, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading scp header: %w", err)
	}

	var mode uint32
	var size int64
	var name string
	if _, err := fmt.Sscanf(header, "C%o %d %s", &mode, &size, &name); err != nil {
		return "", fmt.Errorf("parsing scp header %q: %w", header, err)
	}

	if _, err := ch.Write([]byte{0}); err != nil {
		return "", fmt.Errorf("acking scp header: %w", err)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return "", fmt.Errorf("reading scp payload: %w", err)
	}

	trailer := make([]byte, 1)
	if _, err := io.ReadFull(reader, trailer); err != nil {
		return "", fmt.Errorf("reading scp trailer: %w", err)
	}
	if _, err := ch.Write([]byte{0}); err != nil {
		return "", fmt.Errorf("acking scp trailer: %w", err)
	}

	if localPath != "" {
		if err := os.WriteFile(localPath, data, os.FileMode(mode)); err != nil {
			return "", fmt.Errorf("writing local file %s: %w", localPath, err)
		}
	}

	if err := scpFinalize(ch, reqs); err != nil {
		return "", err
	}
	if localPath != "" {
		return "Ok", nil
	}
	return string(data), nil
}

// marshalCommand wraps a command string the way ssh.Session.Start does
// internally; the exec request payload is just a length-prefixed string.
func marshalCommand(cmd string) []byte {
	l := len(cmd)
	buf := make([]byte, 4+l)
	buf[0] = byte(l >> 24)
	buf[1] = byte(l >> 16)
	buf[2] = byte(l >> 8)
	buf[3] = byte(l)
	copy(buf[4:], cmd)
	return buf
}

func scpExpectAck(r io.Reader) error {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	switch buf[0] {
	case 0:
		return nil
	case 1, 2:
		return fmt.Errorf("scp reported an error (code %d)", buf[0])
	default:
		return fmt.Errorf("unexpected scp ack byte %d", buf[0])
	}
}

// scpFinalize performs the close handshake the channel reader's exec path
// relies on: flush, send EOF, wait for the remote EOF/close, then close our
// side.
func scpFinalize(ch interface {
	CloseWrite() error
	Close() error
}, reqs <-chan *ssh.Request) error {
	_ = ch.CloseWrite()
	for range reqs {
		// Drain any trailing exit-status / exit-signal requests so the
		// remote side can finish tearing the channel down cleanly.
	}
	return ch.Close()
}
