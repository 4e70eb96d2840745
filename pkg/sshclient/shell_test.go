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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func newTestShell(stdout string) *Shell {
	reqs := make(chan *ssh.Request)
	close(reqs)
	return &Shell{ch: newFakeChannel(stdout, ""), reqs: reqs}
}

func TestShellSendFailsOnceFinalized(t *testing.T) {
	sh := newTestShell("")
	sh.state = shellReadFinalized

	err := sh.Send("echo hi", true)
	assert.ErrorIs(t, err, ErrShellFinalized)
}

func TestShellReadFinalizesState(t *testing.T) {
	sh := newTestShell("output\n")
	assert.Equal(t, shellOpen, sh.state)

	result, err := sh.Read()
	require.NoError(t, err)
	assert.Equal(t, "output\n", result.Stdout)
	assert.Equal(t, shellReadFinalized, sh.state)

	assert.ErrorIs(t, sh.Send("too late", true), ErrShellFinalized)
}

func TestShellReadAfterCloseReturnsNotConnected(t *testing.T) {
	sh := newTestShell("")
	sh.state = shellClosed

	_, err := sh.Read()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestShellCloseIsIdempotent(t *testing.T) {
	sh := newTestShell("")
	require.NoError(t, sh.Close())
	assert.Equal(t, shellClosed, sh.state)
	require.NoError(t, sh.Close())
}
