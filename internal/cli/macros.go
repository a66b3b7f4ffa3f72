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
	"github.com/spf13/cobra"

	"github.com/EngFlow/ccsnapshot/internal/report"
)

func newMacrosCommand(global *globalOptions) *cobra.Command {
	flags := &processFlags{}
	cmd := &cobra.Command{
		Use:   "macros FILE...",
		Short: "Print the macros defined and used by source files",
		Long: `Preprocess source files and print, per file, the include guard, the
includes, the defined macros, the macro uses, the checks of undefined macros
and the skipped conditional blocks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := flags.apply(cfg); err != nil {
				return err
			}
			sp, err := newSourceProcessor(cmd, global, cfg)
			if err != nil {
				return err
			}
			docs, err := processFiles(cmd, sp, global.root, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			styles := report.NewStyles(report.IsColorEnabled(global.color, out))
			for _, doc := range docs {
				if err := report.WriteDocument(out, styles, doc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
