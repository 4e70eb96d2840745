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

package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/JacobCallahan/Hussh/internal/itlib"
	"github.com/JacobCallahan/Hussh/pkg/fanout"
	"github.com/JacobCallahan/Hussh/pkg/sshclient"
	"github.com/JacobCallahan/Hussh/pkg/tailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionConfig(server *itlib.TestServer) sshclient.Config {
	return sshclient.Config{
		Host:           server.Hostname,
		Port:           server.Port,
		Username:       server.Username,
		PrivateKeyPath: server.IdentityFile,
	}
}

// TestSessionExecute covers connect + execute round-tripping stdout,
// stderr and the exit status.
func TestSessionExecute(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	server := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, server)

	err := sshclient.Use(ctx, sessionConfig(server), func(s *sshclient.Session) error {
		result, err := s.Execute(ctx, "echo hello; echo world 1>&2; exit 3", 0)
		require.NoError(t, err)
		assert.Equal(t, "hello\n", result.Stdout)
		assert.Equal(t, "world\n", result.Stderr)
		assert.Equal(t, 3, result.Status)
		return nil
	})
	require.NoError(t, err)
}

// TestSessionScpRoundTrip covers ScpWriteData followed by ScpRead.
func TestSessionScpRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	server := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, server)

	err := sshclient.Use(ctx, sessionConfig(server), func(s *sshclient.Session) error {
		payload := []byte("scp round trip payload\n")
		require.NoError(t, s.ScpWriteData(payload, "/tmp/hussh-scp-test.txt"))

		text, err := s.ScpRead("/tmp/hussh-scp-test.txt", "")
		require.NoError(t, err)
		assert.Equal(t, string(payload), text)
		return nil
	})
	require.NoError(t, err)
}

// TestSessionSftpRoundTrip covers SftpWriteData, SftpRead and SftpList.
func TestSessionSftpRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	server := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, server)

	err := sshclient.Use(ctx, sessionConfig(server), func(s *sshclient.Session) error {
		payload := []byte("sftp round trip payload\n")
		require.NoError(t, s.SftpWriteData(payload, "/tmp/hussh-sftp-test.txt"))

		text, err := s.SftpRead("/tmp/hussh-sftp-test.txt", "")
		require.NoError(t, err)
		assert.Equal(t, string(payload), text)

		names, err := s.SftpList("/tmp")
		require.NoError(t, err)
		assert.Contains(t, names, "hussh-sftp-test.txt")
		return nil
	})
	require.NoError(t, err)
}

// TestSessionShell covers an interactive shell sending two commands before
// being read once.
func TestSessionShell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	server := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, server)

	err := sshclient.Use(ctx, sessionConfig(server), func(s *sshclient.Session) error {
		result, err := sshclient.ShellScope(s, false, func(sh *sshclient.Shell) error {
			if err := sh.Send("echo first", true); err != nil {
				return err
			}
			return sh.Send("echo second", true)
		})
		require.NoError(t, err)
		assert.Contains(t, result.Stdout, "first")
		assert.Contains(t, result.Stdout, "second")
		return nil
	})
	require.NoError(t, err)
}

// TestSessionTailScope covers tailing a single session's file across a
// scope that appends to it, without the callback itself calling Read.
func TestSessionTailScope(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	server := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, server)

	err := sshclient.Use(ctx, sessionConfig(server), func(s *sshclient.Session) error {
		const remote = "/app/logs/test.log"
		_, err := s.Execute(ctx, fmt.Sprintf("echo start > %s", remote), 0)
		require.NoError(t, err)

		contents, err := s.TailScope(remote, func(*tailer.Tailer) error {
			_, err := s.Execute(ctx, fmt.Sprintf("echo appended >> %s", remote), 0)
			return err
		})
		require.NoError(t, err)
		assert.Contains(t, contents, "appended")
		return nil
	})
	require.NoError(t, err)
}

// TestFanoutExecute covers the fan-out controller executing the same
// command against two hosts concurrently and aggregating the results.
func TestFanoutExecute(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	serverA := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, serverA)
	serverB := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, serverB)

	hosts := []string{"serverA", "serverB"}
	sessions := []*sshclient.Session{
		sshclient.NewWithAutoKeySearch(sessionConfig(serverA)),
		sshclient.NewWithAutoKeySearch(sessionConfig(serverB)),
	}
	controller := fanout.FromSessions(sessions, hosts, 10, 0)

	err := fanout.Scope(ctx, controller, func(c *fanout.Controller) error {
		results, err := c.Execute(ctx, "hostname -f; echo done", 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 2, results.Len())
		require.NoError(t, results.RaiseIfAnyFailed())

		for _, host := range hosts {
			outcome, ok := results.Get(host)
			require.True(t, ok)
			assert.Contains(t, outcome.Value.Stdout, "done")
		}
		return nil
	})
	require.NoError(t, err)
}

// TestMultiTailer covers tailing the same file across two hosts
// concurrently, the scenario the original consolidated tail command was
// built around.
func TestMultiTailer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	serverA := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, serverA)
	serverB := itlib.StartTestServer(t, ctx)
	defer itlib.StopTestServer(t, ctx, serverB)

	hosts := []string{"serverA", "serverB"}
	sessions := []*sshclient.Session{
		sshclient.NewWithAutoKeySearch(sessionConfig(serverA)),
		sshclient.NewWithAutoKeySearch(sessionConfig(serverB)),
	}
	controller := fanout.FromSessions(sessions, hosts, 10, 0)

	err := fanout.Scope(ctx, controller, func(c *fanout.Controller) error {
		const remote = "/app/logs/test.log"
		for _, host := range hosts {
			_, err := c.ExecuteMap(ctx, map[string]string{host: fmt.Sprintf("echo start > %s", remote)}, 5*time.Second)
			require.NoError(t, err)
		}

		mt := c.Tail(remote)
		require.NoError(t, mt.Open())
		defer func() { _ = mt.Close() }()

		for _, host := range hosts {
			_, err := c.ExecuteMap(ctx, map[string]string{host: fmt.Sprintf("echo appended-%s >> %s", host, remote)}, 5*time.Second)
			require.NoError(t, err)
		}

		time.Sleep(200 * time.Millisecond)
		lines, err := mt.Read()
		require.NoError(t, err)
		assert.Contains(t, lines["serverA"], "appended-serverA")
		assert.Contains(t, lines["serverB"], "appended-serverB")
		return nil
	})
	require.NoError(t, err)
}
