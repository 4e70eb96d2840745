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
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
)

// LoadPropertiesHostList parses a flat "host.<tag>=[user@]hostname[:port]"
// properties file into a SpecData, as a quicker alternative to the full
// YAML spec format for simple fan-out host lists. Every host uses the
// current user's default identity file unless an explicit "key.<tag>"
// property overrides it.
func LoadPropertiesHostList(path string) (*SpecData, error) {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("loading properties file %s: %w", path, err)
	}

	specData := &SpecData{Hosts: map[string]*HostSpec{}}
	for _, key := range props.Keys() {
		if !strings.HasPrefix(key, "host.") {
			continue
		}
		tag := strings.TrimPrefix(key, "host.")
		value := props.MustGetString(key)

		host, err := parseHostEntry(value)
		if err != nil {
			return nil, fmt.Errorf("host.%s: %w", tag, err)
		}
		if identity, ok := props.Get("key." + tag); ok {
			host.IdentityFile = identity
		}
		specData.Hosts[tag] = host
	}

	if batchSize, ok := props.Get("batch_size"); ok {
		if n, err := strconv.Atoi(batchSize); err == nil {
			specData.BatchSize = n
		}
	}

	if err := specData.Validate(); err != nil {
		return nil, fmt.Errorf("invalid host list: %w", err)
	}
	return specData, nil
}

// parseHostEntry parses "[user@]hostname[:port]" into a HostSpec.
func parseHostEntry(entry string) (*HostSpec, error) {
	username := ""
	rest := entry
	if at := strings.IndexByte(entry, '@'); at >= 0 {
		username = entry[:at]
		rest = entry[at+1:]
	}

	hostname := rest
	port := 0
	if h, p, err := net.SplitHostPort(rest); err == nil {
		hostname = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	if hostname == "" {
		return nil, fmt.Errorf("empty hostname in entry %q", entry)
	}

	return &HostSpec{Hostname: hostname, Port: port, Username: username}, nil
}
