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

package specfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostEntry(t *testing.T) {
	cases := []struct {
		name     string
		entry    string
		wantHost string
		wantPort int
		wantUser string
		wantErr  bool
	}{
		{"bare hostname", "web1.internal", "web1.internal", 0, "", false},
		{"with user", "deploy@web1.internal", "web1.internal", 0, "deploy", false},
		{"with port", "web1.internal:2222", "web1.internal", 2222, "", false},
		{"with user and port", "deploy@web1.internal:2222", "web1.internal", 2222, "deploy", false},
		{"empty entry", "", "", 0, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host, err := parseHostEntry(tc.entry)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, host.Hostname)
			assert.Equal(t, tc.wantPort, host.Port)
			assert.Equal(t, tc.wantUser, host.Username)
		})
	}
}

func TestLoadPropertiesHostList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.properties")
	content := "host.web1=deploy@web1.internal:2222\n" +
		"key.web1=/home/deploy/.ssh/id_ed25519\n" +
		"host.web2=web2.internal\n" +
		"batch_size=10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	spec, err := LoadPropertiesHostList(path)
	require.NoError(t, err)

	require.Contains(t, spec.Hosts, "web1")
	web1 := spec.Hosts["web1"]
	assert.Equal(t, "web1.internal", web1.Hostname)
	assert.Equal(t, 2222, web1.Port)
	assert.Equal(t, "deploy", web1.Username)
	assert.Equal(t, "/home/deploy/.ssh/id_ed25519", web1.IdentityFile)

	require.Contains(t, spec.Hosts, "web2")
	assert.Equal(t, "web2.internal", spec.Hosts["web2"].Hostname)

	assert.Equal(t, 10, spec.BatchSize)
}

func TestLoadPropertiesHostListMissingFile(t *testing.T) {
	_, err := LoadPropertiesHostList("/nonexistent/hosts.properties")
	assert.Error(t, err)
}
