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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/EngFlow/ccsnapshot/internal/index"
	"github.com/EngFlow/ccsnapshot/internal/logging"
	"github.com/EngFlow/ccsnapshot/internal/report"
)

type depsOptions struct {
	processFlags
	dependentsOf string
	json         bool
	output       string
	from         string
}

func newDepsCommand(global *globalOptions) *cobra.Command {
	opts := &depsOptions{}
	cmd := &cobra.Command{
		Use:   "deps [FILE...]",
		Short: "Print the include dependencies of source files",
		Long: `Preprocess source files and print which files every processed file
includes. With --dependents-of, print the files including the given path
directly or transitively instead.

The include index may be written as JSON (optionally xz-compressed) and read
back with --from instead of preprocessing sources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, global, opts, args)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.dependentsOf, "dependents-of", "", "print the files depending on PATH")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the include index as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", report.Stdout, "output file, - for stdout")
	cmd.Flags().StringVar(&opts.from, "from", "", "read a JSON include index instead of preprocessing sources")
	return cmd
}

func loadIndex(path string) (index.IncludeIndex, error) {
	in, err := report.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var result index.IncludeIndex
	if err := json.NewDecoder(in).Decode(&result); err != nil {
		return nil, fmt.Errorf("read include index %s: %w", path, err)
	}
	return result, nil
}

func (opts *depsOptions) buildIndex(cmd *cobra.Command, global *globalOptions, files []string) (index.IncludeIndex, error) {
	if opts.from != "" {
		if len(files) > 0 {
			return nil, errors.New("--from cannot be combined with FILE arguments")
		}
		return loadIndex(opts.from)
	}
	if len(files) == 0 {
		return nil, errors.New("requires at least 1 FILE argument or --from")
	}

	cfg, err := global.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := opts.apply(cfg); err != nil {
		return nil, err
	}
	sp, err := newSourceProcessor(cmd, global, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := processFiles(cmd, sp, global.root, files); err != nil {
		return nil, err
	}
	snapshot := sp.Snapshot()
	logger := logging.FromContext(cmd.Context())
	for _, cycle := range snapshot.DependencyTable().IncludeCycles() {
		logger.Warn("Include cycle", logging.FieldFiles, cycle)
	}
	return index.FromSnapshot(snapshot), nil
}

func runDeps(cmd *cobra.Command, global *globalOptions, opts *depsOptions, files []string) (err error) {
	includes, err := opts.buildIndex(cmd, global, files)
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

	if opts.dependentsOf != "" {
		path, err := workspacePath(global.root, opts.dependentsOf)
		if err != nil {
			return err
		}
		return writeDependents(out, includes.Dependents(path), opts.json)
	}
	if opts.json {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(includes)
	}
	_, err = io.WriteString(out, includes.Summary())
	return err
}

func writeDependents(out io.Writer, dependents []string, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(dependents)
	}
	for _, file := range dependents {
		if _, err := fmt.Fprintln(out, file); err != nil {
			return err
		}
	}
	return nil
}
