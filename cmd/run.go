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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/JacobCallahan/Hussh/pkg/specfile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd connects to every host in a spec file and tails each one's
// configured file, printing lines to stdout as they arrive until
// interrupted.
var runCmd = &cobra.Command{
	Use:   "run <spec-file>",
	Args:  cobra.ExactArgs(1),
	Short: "Connects to every host in a spec file and tails the configured file on each",
	Long: `Spec files have the .yml suffix. A template can be created with
	hussh spec init your-spec-name-here`,
	RunE: func(cmd *cobra.Command, args []string) error {
		specFile, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open spec file '%s': %w", args[0], err)
		}
		defer specFile.Close()

		specData, err := specfile.LoadSpecData(specFile)
		if err != nil {
			return fmt.Errorf("unable to parse spec file '%s': %w", args[0], err)
		}

		if v := viper.GetInt("batch_size"); v > 0 {
			specData.BatchSize = v
		}
		if v := viper.GetInt("timeout"); v > 0 {
			specData.TimeoutSeconds = v
		}

		controller := specfile.BuildController(specData)
		paths := specfile.TailPaths(specData)
		if len(paths) == 0 {
			return fmt.Errorf("spec file '%s' has no hosts with a file to tail", args[0])
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			fmt.Fprintln(os.Stderr, "Signal received, closing sessions")
			cancel()
		}()

		if _, err := controller.Connect(ctx, false, specData.Timeout()); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer func() { _ = controller.Close() }()

		mt := controller.TailMap(paths)
		if err := mt.Open(); err != nil {
			return fmt.Errorf("failed to start tailing: %w", err)
		}
		defer func() { _ = mt.Close() }()

		fmt.Fprintln(os.Stderr, "Started tailing, send interrupt signal to exit")
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(os.Stderr, "Shutdown complete")
				return nil
			case <-ticker.C:
				lines, err := mt.Read()
				if err != nil {
					fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
					continue
				}
				printSorted(lines)
			}
		}
	},
}

func printSorted(lines map[string]string) {
	hosts := make([]string, 0, len(lines))
	for h := range lines {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	for _, host := range hosts {
		text := lines[host]
		if text == "" {
			continue
		}
		fmt.Printf("[ %s ] %s", host, text)
	}
}

func init() {
	specCmd.AddCommand(runCmd)
}
