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

// Package cmd implements the hussh command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd is the entry point for the hussh CLI.
var rootCmd = &cobra.Command{
	Use:   "hussh",
	Short: "hussh drives SSH sessions, file tails and fan-out operations across one or many hosts",
}

// specCmd groups the spec-file management subcommands (init, run).
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Manage and run fan-out spec files",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(specCmd)

	rootCmd.PersistentFlags().Int("batch-size", 0, "Override the batch_size from the spec file (env HUSSH_BATCH_SIZE)")
	rootCmd.PersistentFlags().Int("timeout", 0, "Override the per-task timeout in seconds (env HUSSH_TIMEOUT)")
	_ = viper.BindPFlag("batch_size", rootCmd.PersistentFlags().Lookup("batch-size"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

// initConfig wires viper's environment-variable overrides (HUSSH_BATCH_SIZE,
// HUSSH_TIMEOUT, ...) on top of whatever the spec file itself declares.
func initConfig() {
	viper.SetEnvPrefix("hussh")
	viper.AutomaticEnv()
}

// Execute runs the CLI, exiting the process with a non-zero status on
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
