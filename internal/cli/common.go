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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EngFlow/ccsnapshot/internal/config"
	"github.com/EngFlow/ccsnapshot/internal/logging"
	"github.com/EngFlow/ccsnapshot/language/cc"
)

// processFlags are the preprocessing flags shared by every command reading
// sources. They extend the values of the configuration file.
type processFlags struct {
	includePaths       []string
	quoteIncludePaths  []string
	systemIncludePaths []string
	exclude            []string
	defines            []string
	undefines          []string
	platform           string
}

func (f *processFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.includePaths, "include", "I", nil, "add a directory (or glob) to the include search path")
	flags.StringArrayVar(&f.quoteIncludePaths, "iquote", nil, "add a directory searched only for quoted includes")
	flags.StringArrayVar(&f.systemIncludePaths, "isystem", nil, "add a system include directory")
	flags.StringArrayVar(&f.exclude, "exclude", nil, "glob of directories excluded from include search")
	flags.StringArrayVarP(&f.defines, "define", "D", nil, "predefine a macro: NAME, NAME= or NAME=VALUE")
	flags.StringArrayVarP(&f.undefines, "undefine", "U", nil, "undefine a predefined macro")
	flags.StringVar(&f.platform, "platform", "", "target platform selecting predefined macros, e.g. linux/x86_64")
}

func (f *processFlags) apply(cfg *config.Config) error {
	cfg.IncludePaths = append(cfg.IncludePaths, f.includePaths...)
	cfg.QuoteIncludePaths = append(cfg.QuoteIncludePaths, f.quoteIncludePaths...)
	cfg.SystemIncludePaths = append(cfg.SystemIncludePaths, f.systemIncludePaths...)
	cfg.Exclude = append(cfg.Exclude, f.exclude...)
	cfg.Defines = append(cfg.Defines, f.defines...)
	cfg.Undefines = append(cfg.Undefines, f.undefines...)
	if f.platform != "" {
		cfg.Platform = f.platform
	}
	return cfg.Validate()
}

// newSourceProcessor creates a processor reading sources below the workspace
// root.
func newSourceProcessor(cmd *cobra.Command, opts *globalOptions, cfg *config.Config) (*cc.SourceProcessor, error) {
	logger := logging.FromContext(cmd.Context())
	resolver, err := cc.NewIncludeResolver(os.DirFS(opts.root), cfg.SearchPaths())
	if err != nil {
		return nil, err
	}
	options, err := cfg.ProcessorOptions()
	if err != nil {
		return nil, err
	}
	options.Logger = logger
	logger.Debug("Include search paths", logging.FieldSearchPaths, resolver.SearchDirs())
	if options.Platform != nil {
		logger.Debug("Target platform", logging.FieldPlatform, options.Platform.String())
	}
	return cc.NewSourceProcessor(cc.Snapshot{}, resolver, options), nil
}

// workspacePath converts a file argument to a slash separated path relative
// to the workspace root.
func workspacePath(root, file string) (string, error) {
	if filepath.IsAbs(file) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return "", err
		}
		if file, err = filepath.Rel(absRoot, file); err != nil {
			return "", err
		}
	}
	rel := filepath.ToSlash(filepath.Clean(file))
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("%s is outside of the workspace root %s", file, root)
	}
	return rel, nil
}

// processFiles preprocesses every file argument with a single processor, so
// that headers are processed once.
func processFiles(cmd *cobra.Command, sp *cc.SourceProcessor, root string, files []string) ([]*cc.Document, error) {
	logger := logging.FromContext(cmd.Context())
	docs := make([]*cc.Document, 0, len(files))
	for _, file := range files {
		path, err := workspacePath(root, file)
		if err != nil {
			return nil, err
		}
		doc, err := sp.Run(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	logger.Debug("Processed files", logging.FieldFiles, len(files), logging.FieldDocuments, sp.Snapshot().Len())
	return docs, nil
}
