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
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
)

// DefaultSSHPort is used when Config.Port is left at zero.
const DefaultSSHPort = 22

// DefaultUsername is used when Config.Username is left blank.
const DefaultUsername = "root"

// DefaultBufferSize bounds a single read from a channel or SFTP file.
const DefaultBufferSize = 64 * 1024

// DefaultSCPMode is the permission bits applied to files written via SCP
// when the caller hasn't overridden them. Preserving the source file's
// actual mode bits is left as a TODO, matching upstream.
const DefaultSCPMode = 0o644

// DefaultKeySearchOrder is walked, in order, by sessions that opt into
// automatic key discovery (see Config.autoKeySearch).
var DefaultKeySearchOrder = []string{
	"id_rsa",
	"id_ed25519",
	"id_ecdsa",
	"id_dsa",
}

// shellFirstPacketWait and shellIdleDrain implement the two timing
// constants an interactive Shell's read uses: how long to wait for any
// output at all, and how long to keep draining once output starts.
const (
	shellFirstPacketWait = 2 * time.Second
	shellIdleDrain       = 50 * time.Millisecond
)

// Config describes how to reach and authenticate against a single host.
// Zero values pick the documented defaults.
type Config struct {
	Host     string
	Port     int
	Username string

	Password       string
	PrivateKeyPath string
	Passphrase     string

	// Timeout bounds the TCP dial and handshake. Zero means no deadline.
	Timeout time.Duration
	// KeepAlive, when non-zero, sends a keepalive request on this interval.
	KeepAlive time.Duration

	// HostKeyCallback verifies the server's host key. Nil defaults to
	// ssh.InsecureIgnoreHostKey(), the documented MVP default; use
	// KnownHostsCallback for a real deployment.
	HostKeyCallback ssh.HostKeyCallback

	// autoKeySearch adds the default-key search order as a fallback after
	// an explicit key or password and ahead of the agent. Only
	// NewWithAutoKeySearch sets this (package fanout's FromSharedAuth and
	// package specfile's BuildController use it); a Session built with New
	// never searches default keys, it only falls back to the agent.
	autoKeySearch bool
}

func (c Config) port() int {
	if c.Port == 0 {
		return DefaultSSHPort
	}
	return c.Port
}

func (c Config) username() string {
	if c.Username == "" {
		return DefaultUsername
	}
	return c.Username
}

func (c Config) hostKeyCallback() ssh.HostKeyCallback {
	if c.HostKeyCallback != nil {
		return c.HostKeyCallback
	}
	return ssh.InsecureIgnoreHostKey()
}

func expandDefaultKeyPaths() []string {
	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(DefaultKeySearchOrder))
	for _, name := range DefaultKeySearchOrder {
		paths = append(paths, filepath.Join(home, ".ssh", name))
	}
	return paths
}
