/*
 * Copyright 2024 The Gojumble Authors
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

// Package cmd wires gojumble's cobra command tree: a root command
// carrying ambient flags (--config, --silent) and a mutate subcommand
// implementing SPEC_FULL.md §8's CLI surface.
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/go-jumble/gojumble/cmd/internal/flags"
	"github.com/go-jumble/gojumble/internal/configuration"
	"github.com/go-jumble/gojumble/internal/log"
)

const paramConfigFile = "config"

// Execute builds the root command tree and runs it. version is shown by
// the -v flag.
func Execute(ctx context.Context, version string) error {
	rootCmd, err := newRootCmd(ctx, version)
	if err != nil {
		return err
	}

	return rootCmd.execute()
}

type gojumbleCmd struct {
	cmd *cobra.Command
}

func (gc gojumbleCmd) execute() error {
	var cfgFile string
	cobra.OnInitialize(func() {
		if err := configuration.Init([]string{cfgFile}); err != nil {
			log.Errorf("initialization error: %s\n", err)
			os.Exit(1)
		}
	})
	gc.cmd.PersistentFlags().StringVar(&cfgFile, paramConfigFile, "", "override config file")

	return gc.cmd.Execute()
}

func newRootCmd(ctx context.Context, version string) (*gojumbleCmd, error) {
	if version == "" {
		return nil, errors.New("expected a version string")
	}

	cmd := &cobra.Command{
		Hidden:        true,
		SilenceUsage:  true,
		SilenceErrors: true,
		Use:           "gojumble",
		Short:         shortExplainer(),
		Version:       version,
	}

	mc, err := newMutateCmd(ctx)
	if err != nil {
		return nil, err
	}
	cmd.AddCommand(mc.cmd)

	flag := &flags.Flag{Name: "silent", CfgKey: configuration.SilentKey, Shorthand: "s", DefaultV: false, Usage: "suppress output and run in silent mode"}
	if err := flags.SetPersistent(cmd, flag); err != nil {
		return nil, err
	}

	return &gojumbleCmd{cmd: cmd}, nil
}

func shortExplainer() string {
	return heredoc.Doc(`
		Gojumble is a class-level mutation testing engine for managed-runtime
		class files.
	`)
}
