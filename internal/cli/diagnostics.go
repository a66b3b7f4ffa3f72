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

	"github.com/spf13/cobra"

	"github.com/EngFlow/ccsnapshot/internal/report"
	"github.com/EngFlow/ccsnapshot/language/cc"
)

// writeDiagnostics prints the diagnostics of the snapshot to stderr and
// fails when any of them is an error.
func writeDiagnostics(cmd *cobra.Command, global *globalOptions, snapshot cc.Snapshot) error {
	stderr := cmd.ErrOrStderr()
	styles := report.NewStyles(report.IsColorEnabled(global.color, stderr))
	counts, err := report.WriteDiagnostics(stderr, styles, snapshot)
	if err != nil {
		return err
	}
	if counts.Errors > 0 {
		return fmt.Errorf("%w: %s", ErrPreprocessingFailed, counts)
	}
	return nil
}
