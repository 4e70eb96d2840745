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
	"sort"

	"github.com/JacobCallahan/Hussh/pkg/fanout"
	"github.com/JacobCallahan/Hussh/pkg/sshclient"
)

// BuildController turns a validated SpecData into a ready-to-connect
// fanout.Controller, one session per host, sorted by host tag for
// deterministic dispatch order.
func BuildController(spec *SpecData) *fanout.Controller {
	tags := make([]string, 0, len(spec.Hosts))
	for tag := range spec.Hosts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	hosts := make([]string, 0, len(tags))
	sessions := make([]*sshclient.Session, 0, len(tags))
	for _, tag := range tags {
		h := spec.Hosts[tag]
		cfg := sshclient.Config{
			Host:           h.Hostname,
			Port:           h.Port,
			Username:       h.Username,
			Password:       h.Password,
			PrivateKeyPath: h.IdentityFile,
		}
		hosts = append(hosts, tag)
		sessions = append(sessions, sshclient.NewWithAutoKeySearch(cfg))
	}

	return fanout.FromSessions(sessions, hosts, spec.BatchSize, spec.Timeout())
}

// TailPaths returns each host's configured File field, for driving
// Controller.TailMap.
func TailPaths(spec *SpecData) map[string]string {
	paths := make(map[string]string, len(spec.Hosts))
	for tag, h := range spec.Hosts {
		if h.File != "" {
			paths[tag] = h.File
		}
	}
	return paths
}
