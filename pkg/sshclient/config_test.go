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
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ssh"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.Equal(t, DefaultSSHPort, c.port())
	assert.Equal(t, DefaultUsername, c.username())
}

func TestConfigOverrides(t *testing.T) {
	c := Config{Port: 2222, Username: "deploy"}
	assert.Equal(t, 2222, c.port())
	assert.Equal(t, "deploy", c.username())
}

func TestConfigHostKeyCallbackDefaultsToInsecure(t *testing.T) {
	var c Config
	cb := c.hostKeyCallback()
	assert.NotNil(t, cb)
	assert.NoError(t, cb("example.com:22", nil, nil))
}

func TestConfigHostKeyCallbackHonorsOverride(t *testing.T) {
	sentinel := errors.New("custom callback invoked")
	c := Config{
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			return sentinel
		},
	}
	assert.Equal(t, sentinel, c.hostKeyCallback()("example.com:22", nil, nil))
}

func TestExpandDefaultKeyPaths(t *testing.T) {
	paths := expandDefaultKeyPaths()
	assert.Len(t, paths, len(DefaultKeySearchOrder))
	for i, name := range DefaultKeySearchOrder {
		assert.Contains(t, paths[i], filepath.Join(".ssh", name))
	}
}
