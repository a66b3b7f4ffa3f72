// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli provides the Cobra command tree of the ccpp tool.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/EngFlow/ccsnapshot/internal/config"
	"github.com/EngFlow/ccsnapshot/internal/logging"
)

// ErrPreprocessingFailed is returned when error diagnostics were reported.
var ErrPreprocessingFailed = errors.New("preprocessing failed")

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type globalOptions struct {
	debug      bool
	configPath string
	color      string
	root       string
}

// loadConfig reads the configuration of the workspace root and applies the
// configured log level unless debug logging was requested.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, path, err := config.Load(o.root, o.configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(cmd.Context())
	if !o.debug {
		logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	}
	if path != "" {
		logger.Debug("Loaded configuration", logging.FieldConfig, path)
	}
	return cfg, nil
}

// NewRootCommand creates the root ccpp command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ccpp",
		Short: "C and C++ preprocessor with an incremental document model",
		Long: `ccpp preprocesses C, C++ and Objective-C sources the way an IDE code model
does: it records every include, macro definition and macro use, skipped
conditional blocks and include guards, and reuses unchanged headers.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), "info")
			if opts.debug {
				logger.SetLevel(logging.ParseLevel("debug"))
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&opts.color, "color", "auto", "colorize output: auto, always, never")
	rootCmd.PersistentFlags().StringVarP(&opts.root, "root", "C", ".", "workspace root; file arguments and include paths are relative to it")

	rootCmd.AddCommand(newPreprocessCommand(opts))
	rootCmd.AddCommand(newDepsCommand(opts))
	rootCmd.AddCommand(newMacrosCommand(opts))
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}
