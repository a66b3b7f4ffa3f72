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

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EngFlow/ccsnapshot/internal/logging"
	"github.com/EngFlow/ccsnapshot/internal/report"
)

type preprocessOptions struct {
	processFlags
	keepComments         bool
	noExpandFunctionLike bool
	output               string
	lineMarkers          bool
}

func newPreprocessCommand(global *globalOptions) *cobra.Command {
	opts := &preprocessOptions{}
	cmd := &cobra.Command{
		Use:   "preprocess FILE...",
		Short: "Preprocess source files and print the result",
		Long: `Preprocess source files and print the preprocessed text.

Diagnostics are printed to stderr. Output paths ending in .xz are written
xz-compressed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreprocess(cmd, global, opts, args)
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.keepComments, "keep-comments", false, "keep comments in the output")
	cmd.Flags().BoolVar(&opts.noExpandFunctionLike, "no-expand-function-like", false, "leave function-like macro invocations unexpanded")
	cmd.Flags().StringVarP(&opts.output, "output", "o", report.Stdout, "output file, - for stdout")
	cmd.Flags().BoolVar(&opts.lineMarkers, "line-markers", true, "precede every file with a # 1 \"FILE\" marker")
	return cmd
}

func runPreprocess(cmd *cobra.Command, global *globalOptions, opts *preprocessOptions, files []string) (err error) {
	cfg, err := global.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("keep-comments") {
		cfg.KeepComments = opts.keepComments
	}
	if opts.noExpandFunctionLike {
		cfg.ExpandFunctionLikeMacros = false
	}

	sp, err := newSourceProcessor(cmd, global, cfg)
	if err != nil {
		return err
	}
	docs, err := processFiles(cmd, sp, global.root, files)
	if err != nil {
		return err
	}

	out, err := report.CreateOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	for _, doc := range docs {
		if opts.lineMarkers {
			if _, err := fmt.Fprintf(out, "# 1 %q\n", doc.FileName()); err != nil {
				return err
			}
		}
		if _, err := out.Write(doc.Source()); err != nil {
			return err
		}
	}
	if opts.output != report.Stdout {
		logging.FromContext(cmd.Context()).Info("Wrote preprocessed output", logging.FieldOutput, opts.output, logging.FieldFiles, len(docs))
	}

	return writeDiagnostics(cmd, global, sp.Snapshot())
}
