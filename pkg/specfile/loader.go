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

// Package specfile parses the YAML (and flat properties) files describing
// which hosts a fan-out operation should target.
package specfile

import (
	"errors"
	"fmt"
	"io"
	"os/user"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSshPort is used when a HostSpec doesn't specify a port.
const DefaultSshPort int = 22

// DefaultBatchSize bounds fan-out concurrency when SpecData doesn't
// specify one.
const DefaultBatchSize int = 100

func defaultUsername() string {
	u, err := user.Current()
	if err != nil {
		fmt.Println("Warning: Unable to determine current user")
		return "root"
	}

	split := strings.Split(u.Username, "\\")
	return split[len(split)-1]
}

func defaultIdentityFile() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return path.Join(u.HomeDir, ".ssh", "id_rsa")
}

// HostSpec encapsulates the connection parameters for a single host.
type HostSpec struct {
	Hostname     string `yaml:"hostname"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	IdentityFile string `yaml:"identity_file"`
	Password     string `yaml:"password,omitempty"`
	// File is the remote path tailed when this host list is driven through
	// a MultiTailer; it's optional when the spec is only used for execute
	// or SFTP fan-out.
	File string `yaml:"file,omitempty"`
}

// Validate checks the HostSpec for errors and sets reasonable defaults.
func (h *HostSpec) Validate() error {
	if h.Hostname == "" {
		return errors.New("cannot have a blank hostname")
	}

	if h.Port == 0 {
		h.Port = DefaultSshPort
	}

	if h.Username == "" {
		h.Username = defaultUsername()
	}

	if h.IdentityFile == "" && h.Password == "" {
		h.IdentityFile = defaultIdentityFile()
	}

	return nil
}

// SpecData encapsulates the runtime parameters for a fan-out operation
// across a set of hosts.
type SpecData struct {
	Hosts map[string]*HostSpec `yaml:"hosts"`
	// BatchSize bounds how many hosts are dispatched concurrently; zero
	// picks DefaultBatchSize.
	BatchSize int `yaml:"batch_size"`
	// TimeoutSeconds bounds each per-host task; zero means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (s *SpecData) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Validate checks the SpecData for errors and sets reasonable defaults.
func (s *SpecData) Validate() error {
	if len(s.Hosts) == 0 {
		return errors.New("hosts must have at least one definition")
	}

	for k, v := range s.Hosts {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("host spec %s: %w", k, err)
		}
	}

	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}

	return nil
}

// LoadSpecData reads and validates a YAML spec document.
func LoadSpecData(reader io.Reader) (*SpecData, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to read spec data: %w", err)
	}

	specData := &SpecData{}
	if err = yaml.Unmarshal(data, specData); err != nil {
		return nil, fmt.Errorf("invalid spec data format: %w", err)
	}

	if err = specData.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spec data: %w", err)
	}

	return specData, nil
}
