/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cargo-gremlins/gremlins/internal/configuration"
)

type listCmd struct {
	cmd *cobra.Command
}

const listCommandName = "list"

// newListCmd wires the supplementary `list` subcommand, grounded on
// original_source/src/list.rs: discovery and filtering only, no scenario
// execution, for fast CI dry-runs.
func newListCmd(ctx context.Context) (*listCmd, error) {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [path]", listCommandName),
		Args:  cobra.MaximumNArgs(1),
		Short: "List discovered mutants without running them",
		RunE:  runList(ctx),
	}

	if err := setMutantsFlags(cmd); err != nil {
		return nil, err
	}

	return &listCmd{cmd: cmd}, nil
}

func runList(ctx context.Context) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := bindMutantsFlags(cmd); err != nil {
			return err
		}

		path, _ := os.Getwd()
		if len(args) > 0 {
			path = args[0]
		}

		filterOpts, err := buildFilterOptions(path)
		if err != nil {
			return err
		}

		mutants, _, err := discoverMutants(ctx, path, configuration.GetStringSlice(configuration.PackagesKey), filterOpts)
		if err != nil {
			return err
		}

		for _, m := range mutants {
			fmt.Fprintln(os.Stdout, m.Name())
		}

		return nil
	}
}
