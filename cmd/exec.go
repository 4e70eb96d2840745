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

	"github.com/JacobCallahan/Hussh/pkg/sshclient"
	"github.com/spf13/cobra"
)

var (
	execHost     string
	execPort     int
	execUser     string
	execIdentity string
)

// execCmd runs a single command on a single host, printing its Result.
var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Args:  cobra.ExactArgs(1),
	Short: "Runs a single command on a single host over SSH",
	RunE: func(cmd *cobra.Command, args []string) error {
		if execHost == "" {
			return fmt.Errorf("--host is required")
		}

		cfg := sshclient.Config{
			Host:           execHost,
			Port:           execPort,
			Username:       execUser,
			PrivateKeyPath: execIdentity,
		}

		var result sshclient.Result
		err := sshclient.Use(context.Background(), cfg, func(s *sshclient.Session) error {
			var err error
			result, err = s.Execute(context.Background(), args[0], 0)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Print(result.Stdout)
		fmt.Fprint(os.Stderr, result.Stderr)
		if result.Status != 0 {
			os.Exit(result.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVar(&execHost, "host", "", "Remote host to connect to")
	execCmd.Flags().IntVar(&execPort, "port", 0, "Remote SSH port (default 22)")
	execCmd.Flags().StringVar(&execUser, "user", "", "Remote username (default root)")
	execCmd.Flags().StringVar(&execIdentity, "identity", "", "Path to a private key")
}
