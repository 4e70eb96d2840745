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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSpecDataAppliesDefaults(t *testing.T) {
	doc := `
hosts:
  web1:
    hostname: web1.internal
`
	spec, err := LoadSpecData(strings.NewReader(doc))
	require.NoError(t, err)

	require.Contains(t, spec.Hosts, "web1")
	host := spec.Hosts["web1"]
	assert.Equal(t, DefaultSshPort, host.Port)
	assert.NotEmpty(t, host.Username)
	assert.NotEmpty(t, host.IdentityFile)
	assert.Equal(t, DefaultBatchSize, spec.BatchSize)
}

func TestLoadSpecDataRejectsEmptyHosts(t *testing.T) {
	_, err := LoadSpecData(strings.NewReader("hosts: {}"))
	assert.Error(t, err)
}

func TestLoadSpecDataRejectsBlankHostname(t *testing.T) {
	doc := `
hosts:
  web1:
    hostname: ""
`
	_, err := LoadSpecData(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestLoadSpecDataPreservesExplicitValues(t *testing.T) {
	doc := `
hosts:
  web1:
    hostname: web1.internal
    port: 2222
    username: deploy
    identity_file: /home/deploy/.ssh/id_ed25519
    password: hunter2
batch_size: 5
timeout_seconds: 30
`
	spec, err := LoadSpecData(strings.NewReader(doc))
	require.NoError(t, err)

	host := spec.Hosts["web1"]
	assert.Equal(t, 2222, host.Port)
	assert.Equal(t, "deploy", host.Username)
	assert.Equal(t, "/home/deploy/.ssh/id_ed25519", host.IdentityFile)
	assert.Equal(t, "hunter2", host.Password)
	assert.Equal(t, 5, spec.BatchSize)
	assert.Equal(t, 30*time.Second, spec.Timeout())
}

func TestLoadSpecDataRejectsInvalidYAML(t *testing.T) {
	_, err := LoadSpecData(strings.NewReader("not: [valid"))
	assert.Error(t, err)
}
