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

// Package sshclient implements a single-host SSH session: command
// execution, SCP and SFTP file transfer, interactive shells and remote file
// tailing, all over golang.org/x/crypto/ssh.
package sshclient

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/JacobCallahan/Hussh/pkg/tailer"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/terminal"
)

type sessionState int

const (
	stateUnconnected sessionState = iota
	stateConnected
	stateClosed
)

// Session is a single, stateful connection to one host. It is not safe for
// concurrent use by multiple goroutines; the fan-out controller in package
// fanout gives each Session its own goroutine instead of sharing one.
type Session struct {
	cfg   Config
	state sessionState

	client *ssh.Client

	sftpOnce   sync.Once
	sftpClient *sftp.Client
	sftpErr    error
}

// New creates a Session from cfg. The session is unconnected until Connect
// succeeds.
func New(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// NewWithAutoKeySearch is New, but the resulting Session additionally walks
// DefaultKeySearchOrder as a fallback before the agent. Package fanout's
// FromSharedAuth and package specfile's BuildController use it; a Session
// built with New never searches default keys on its own.
func NewWithAutoKeySearch(cfg Config) *Session {
	cfg.autoKeySearch = true
	return &Session{cfg: cfg}
}

func (s *Session) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.port()))
}

func noOpBanner(_ string) error { return nil }

// authMethods builds the ssh.AuthMethod list in the documented order: an
// explicit private key, then a password, then (only for sessions built with
// NewWithAutoKeySearch) the default key search order, finally the local
// ssh-agent.
func (s *Session) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if s.cfg.PrivateKeyPath != "" {
		keyPath, err := homedir.Expand(s.cfg.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding private key path %s", s.cfg.PrivateKeyPath)
		}
		method, err := loadKeyAuth(keyPath, s.cfg.Passphrase)
		if err != nil {
			return nil, errors.Wrapf(err, "loading private key %s", s.cfg.PrivateKeyPath)
		}
		methods = append(methods, method)
	} else if s.cfg.Password != "" {
		methods = append(methods, ssh.Password(s.cfg.Password))
	}

	if s.cfg.autoKeySearch {
		for _, path := range expandDefaultKeyPaths() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if method, err := loadKeyAuth(path, ""); err == nil {
				methods = append(methods, method)
			}
		}
	}

	if agentMethod, err := agentAuthMethod(); err == nil && agentMethod != nil {
		methods = append(methods, agentMethod)
	}

	if len(methods) == 0 {
		return nil, errors.New("no authentication method available: set a private key, password, or run an ssh-agent")
	}
	return methods, nil
}

// loadKeyAuth reads a private key from disk, prompting for a passphrase on
// the terminal if the key is encrypted and none was supplied.
func loadKeyAuth(path, passphrase string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt key %s: %w", path, err)
		}
		return ssh.PublicKeys(signer), nil
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err == nil {
		return ssh.PublicKeys(signer), nil
	}

	if _, ok := err.(*ssh.PassphraseMissingError); !ok {
		return nil, err
	}

	fmt.Printf("Key %s requires a passphrase\n", path)
	fmt.Print("Enter passphrase: ")
	passwd, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	signer, err = ssh.ParsePrivateKeyWithPassphrase(key, passwd)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key %s", path)
	}
	return ssh.PublicKeys(signer), nil
}

// Connect dials the host and authenticates. ctx bounds the dial and
// handshake; Config.Timeout is used when ctx carries no deadline of its
// own.
func (s *Session) Connect(ctx context.Context) error {
	if s.state == stateConnected {
		return nil
	}

	methods, err := s.authMethods()
	if err != nil {
		return &AuthenticationError{Host: s.cfg.Host, Err: err}
	}

	clientConfig := &ssh.ClientConfig{
		User:            s.cfg.username(),
		Auth:            methods,
		BannerCallback:  noOpBanner,
		HostKeyCallback: s.cfg.hostKeyCallback(),
		Timeout:         s.cfg.Timeout,
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline && s.cfg.Timeout > 0 {
		deadline, hasDeadline = time.Now().Add(s.cfg.Timeout), true
	}
	dialer := net.Dialer{}
	if hasDeadline {
		dialer.Deadline = deadline
	}

	conn, err := dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		if isEMFILE(err) {
			return &ResourceExhaustedError{Err: err}
		}
		return errors.Wrapf(err, "dialing %s", s.addr())
	}

	if hasDeadline {
		_ = conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, s.addr(), clientConfig)
	if err != nil {
		_ = conn.Close()
		return &AuthenticationError{Host: s.cfg.Host, Err: err}
	}
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(sshConn, chans, reqs)
	if s.cfg.KeepAlive > 0 {
		go keepAlive(client, s.cfg.KeepAlive)
	}

	s.client = client
	s.state = stateConnected
	return nil
}

func keepAlive(client *ssh.Client, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		if _, _, err := client.SendRequest("keepalive@golang.org", true, nil); err != nil {
			return
		}
	}
}

// openChannel opens a fresh raw "session" channel, ready for exec/shell/pty
// requests, and the request stream alongside it.
func (s *Session) openChannel() (ssh.Channel, <-chan *ssh.Request, error) {
	if s.state != stateConnected {
		return nil, nil, ErrNotConnected
	}
	return s.client.OpenChannel("session", nil)
}

// Execute runs command on the remote host and waits for it to finish,
// draining the exec-path channel reader (no idle timeout). A non-zero
// timeout bounds the whole call and surfaces as a *TimeoutError.
func (s *Session) Execute(ctx context.Context, command string, timeout time.Duration) (Result, error) {
	if s.state != stateConnected {
		return Result{}, ErrNotConnected
	}

	ch, reqs, err := s.openChannel()
	if err != nil {
		return Result{}, fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.SendRequest("exec", true, ssh.Marshal(struct{ Command string }{command})); err != nil {
		return Result{}, fmt.Errorf("sending exec request: %w", err)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := drainExec(runCtx, ch, reqs)
	if err != nil {
		if timeout > 0 && runCtx.Err() != nil {
			return result, &TimeoutError{Operation: "execute", Timeout: timeout.String()}
		}
		return result, err
	}
	return result, nil
}

// Close releases the underlying SSH connection (and the cached SFTP
// subsystem client, if one was created). A second call to Close is a no-op,
// not an error.
func (s *Session) Close() error {
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed

	var errStrings []string
	if s.sftpClient != nil {
		if err := s.sftpClient.Close(); err != nil {
			errStrings = append(errStrings, err.Error())
		}
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			errStrings = append(errStrings, err.Error())
		}
	}
	if len(errStrings) > 0 {
		return fmt.Errorf("error(s) closing session: %s", joinErrors(errStrings))
	}
	return nil
}

func joinErrors(errs []string) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}

// String renders the session in the documented repr format, redacting the
// password.
func (s *Session) String() string {
	redacted := ""
	if s.cfg.Password != "" {
		redacted = "*****"
	}
	return fmt.Sprintf("Connection(host=%s, port=%d, username=%s, password=%s)",
		s.cfg.Host, s.cfg.port(), s.cfg.username(), redacted)
}

// SFTPClient lazily creates and caches the SFTP subsystem client for this
// session, satisfying the tailer.SFTPProvider interface.
func (s *Session) SFTPClient() (*sftp.Client, error) {
	if s.state != stateConnected {
		return nil, ErrNotConnected
	}
	s.sftpOnce.Do(func() {
		s.sftpClient, s.sftpErr = sftp.NewClient(s.client)
	})
	return s.sftpClient, s.sftpErr
}

// TailScope follows remotePath on this session from its current end of
// file, running fn, and returns everything appended by the time the scope
// exits. See tailer.Scope.
func (s *Session) TailScope(remotePath string, fn func(*tailer.Tailer) error) (string, error) {
	return tailer.Scope(s, remotePath, fn)
}

// Use connects a Session built from cfg, runs fn, and always closes the
// session afterward, even if fn returns an error.
func Use(ctx context.Context, cfg Config, fn func(*Session) error) error {
	sess := New(cfg)
	if err := sess.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return fn(sess)
}
