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

// Command ccpp preprocesses C and C++ sources and reports their includes,
// macros and diagnostics.
package main

import (
	"errors"
	"os"

	"github.com/EngFlow/ccsnapshot/internal/cli"
	"github.com/EngFlow/ccsnapshot/internal/logging"
)

// Set via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := cli.NewRootCommand(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	if err := rootCmd.Execute(); err != nil {
		// Diagnostics were already printed.
		if !errors.Is(err, cli.ErrPreprocessingFailed) {
			logging.Default().Error("command failed", logging.FieldError, err)
		}
		return 1
	}
	return 0
}
