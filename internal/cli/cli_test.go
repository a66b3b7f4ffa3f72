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

package cli_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EngFlow/ccsnapshot/internal/cli"
	"github.com/EngFlow/ccsnapshot/internal/index"
	"github.com/EngFlow/ccsnapshot/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "test-version", Commit: "test-commit", Date: "test-date"})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

var workspace = map[string]string{
	"src/main.c":   "#include <lib.h>\n#include \"local.h\"\nint v = X + LIB + LOCAL;\n",
	"src/other.c":  "#include <lib.h>\nint o = LIB;\n",
	"src/local.h":  "#define LOCAL 4\n",
	"inc/lib.h":    "#pragma once\n#include \"base.h\"\n#define LIB 2\n",
	"inc/base.h":   "#define BASE 1\n",
	"src/broken.c": "#error broken on purpose\n",
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := cli.NewRootCommand(cli.BuildInfo{})
	assert.Equal(t, "ccpp", cmd.Use)
	for _, name := range []string{"preprocess", "deps", "macros", "version"} {
		subCmd, _, err := cmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, subCmd.Name())
		}
	}
	for _, flag := range []string{"debug", "config", "color", "root"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestPreprocess(t *testing.T) {
	root := writeWorkspace(t, workspace)

	stdout, stderr, err := execute(t, "preprocess", "-C", root, "-I", "inc", "-D", "X=3", "src/main.c")
	require.NoError(t, err, stderr)
	assert.True(t, strings.HasPrefix(stdout, "# 1 \"src/main.c\"\n"), stdout)
	assert.Contains(t, stdout, "int v = 3 + 2 + 4;")
	assert.Empty(t, stderr)
}

func TestPreprocessReportsDiagnostics(t *testing.T) {
	root := writeWorkspace(t, workspace)

	_, stderr, err := execute(t, "preprocess", "-C", root, "--color", "never", "src/main.c", "src/broken.c")
	assert.ErrorIs(t, err, cli.ErrPreprocessingFailed)
	assert.Contains(t, stderr, "src/broken.c:1:1: error: #error broken on purpose")
	assert.Contains(t, stderr, "warning: lib.h: No such file or directory")
}

func TestPreprocessCompressedOutput(t *testing.T) {
	root := writeWorkspace(t, workspace)
	output := filepath.Join(t.TempDir(), "main.i.xz")

	stdout, stderr, err := execute(t, "preprocess", "-C", root, "-I", "inc", "-D", "X=1", "--line-markers=false", "-o", output, "src/main.c")
	require.NoError(t, err, stderr)
	assert.Empty(t, stdout)

	in, err := report.OpenInput(output)
	require.NoError(t, err)
	defer in.Close()
	data, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "int v = 1 + 2 + 4;")
	assert.NotContains(t, string(data), "# 1")
}

func TestPreprocessUsesConfigFile(t *testing.T) {
	files := map[string]string{
		".ccpp.yaml": "include_paths: [inc]\ndefines: [\"X=5\"]\n",
	}
	for name, content := range workspace {
		files[name] = content
	}
	root := writeWorkspace(t, files)

	stdout, stderr, err := execute(t, "preprocess", "-C", root, "src/main.c")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "int v = 5 + 2 + 4;")
}

func TestPreprocessRejectsFilesOutsideRoot(t *testing.T) {
	root := writeWorkspace(t, workspace)

	_, _, err := execute(t, "preprocess", "-C", root, "../escape.c")
	assert.ErrorContains(t, err, "outside of the workspace root")
}

func TestDeps(t *testing.T) {
	root := writeWorkspace(t, workspace)

	stdout, stderr, err := execute(t, "deps", "-C", root, "-I", "inc", "--json", "src/main.c", "src/other.c")
	require.NoError(t, err, stderr)

	var result index.IncludeIndex
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, index.IncludeIndex{
		"src/main.c":  {"inc/lib.h", "src/local.h"},
		"src/other.c": {"inc/lib.h"},
		"src/local.h": {},
		"inc/lib.h":   {"inc/base.h"},
		"inc/base.h":  {},
	}, result)

	stdout, stderr, err = execute(t, "deps", "-C", root, "-I", "inc", "--dependents-of", "inc/base.h", "src/main.c", "src/other.c")
	require.NoError(t, err, stderr)
	assert.Equal(t, "inc/lib.h\nsrc/main.c\nsrc/other.c\n", stdout)

	stdout, stderr, err = execute(t, "deps", "-C", root, "-I", "inc", "src/other.c")
	require.NoError(t, err, stderr)
	assert.True(t, strings.HasPrefix(stdout, "Include index:\n"), stdout)
}

func TestDepsIndexRoundTrip(t *testing.T) {
	root := writeWorkspace(t, workspace)
	indexFile := filepath.Join(t.TempDir(), "index.json.xz")

	_, stderr, err := execute(t, "deps", "-C", root, "-I", "inc", "--json", "-o", indexFile, "src/main.c")
	require.NoError(t, err, stderr)

	stdout, stderr, err := execute(t, "deps", "-C", root, "--from", indexFile, "--dependents-of", "src/local.h")
	require.NoError(t, err, stderr)
	assert.Equal(t, "src/main.c\n", stdout)

	_, _, err = execute(t, "deps", "-C", root, "--from", indexFile, "src/main.c")
	assert.Error(t, err)
	_, _, err = execute(t, "deps", "-C", root)
	assert.Error(t, err)
}

func TestMacros(t *testing.T) {
	root := writeWorkspace(t, workspace)

	stdout, stderr, err := execute(t, "macros", "-C", root, "--color", "never", "-I", "inc", "src/main.c")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "src/main.c revision 1\n")
	assert.Contains(t, stdout, "  1: lib.h -> inc/lib.h\n")
	assert.Contains(t, stdout, "  2: local.h -> src/local.h\n")
	assert.Contains(t, stdout, "Macro uses: (2)\n")
	assert.Contains(t, stdout, "Undefined macro uses: (0)\n")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ccpp")
	assert.Contains(t, stdout, "version=test-version")
	assert.Contains(t, stdout, "commit=test-commit")
}
