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

package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/EngFlow/ccsnapshot/language/cc"
	"github.com/EngFlow/ccsnapshot/language/cc/pp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func processForTest(t *testing.T, files fstest.MapFS, fileName string) (cc.Snapshot, *cc.Document) {
	resolver, err := cc.NewIncludeResolver(files, cc.SearchPaths{})
	require.NoError(t, err)
	sp := cc.NewSourceProcessor(cc.Snapshot{}, resolver, cc.SourceProcessorOptions{ExpandFunctionLikeMacros: true})
	doc, err := sp.Run(fileName)
	require.NoError(t, err)
	return sp.Snapshot(), doc
}

func TestFormatDiagnostic(t *testing.T) {
	styles := NewStyles(false)
	testCases := []struct {
		diagnostic pp.Diagnostic
		expected   string
	}{
		{
			diagnostic: pp.Diagnostic{Level: pp.Warning, FileName: "a.c", Line: 3, Column: 10, Text: "missing.h: No such file or directory"},
			expected:   "a.c:3:10: warning: missing.h: No such file or directory",
		},
		{
			diagnostic: pp.Diagnostic{Level: pp.Error, FileName: "b.h", Line: 1, Column: 1, Text: "#error boom"},
			expected:   "b.h:1:1: error: #error boom",
		},
		{
			diagnostic: pp.Diagnostic{Level: pp.Fatal, FileName: "c.h", Line: 7, Column: 2, Text: "include depth exceeded"},
			expected:   "c.h:7:2: fatal: include depth exceeded",
		},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, styles.FormatDiagnostic(tc.diagnostic))
	}
}

func TestWriteDiagnostics(t *testing.T) {
	snapshot, _ := processForTest(t, fstest.MapFS{
		"main.c": {Data: []byte("#include \"gone.h\"\n#include \"bad.h\"\n")},
		"bad.h":  {Data: []byte("#error bad header\n")},
	}, "main.c")

	var out bytes.Buffer
	counts, err := WriteDiagnostics(&out, NewStyles(false), snapshot)
	require.NoError(t, err)
	assert.Equal(t, DiagnosticCounts{Warnings: 1, Errors: 1}, counts)
	assert.Equal(t, "1 warning, 1 error", counts.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "bad.h:1:1: error: #error bad header", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "main.c:1:"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], "warning: gone.h: No such file or directory"), lines[1])
}

func TestWriteDocument(t *testing.T) {
	_, doc := processForTest(t, fstest.MapFS{
		"lib.h": {Data: []byte("#ifndef LIB_H\n#define LIB_H\n#include \"missing.h\"\n#define SQUARE(x) ((x) * (x))\nint v = SQUARE(2);\n#if defined(NOPE)\nint hidden;\n#endif\n#endif\n")},
	}, "lib.h")

	var out bytes.Buffer
	require.NoError(t, WriteDocument(&out, NewStyles(false), doc))
	text := out.String()

	assert.Contains(t, text, "lib.h revision 1\n")
	assert.Contains(t, text, "include guard: LIB_H\n")
	assert.Contains(t, text, "Includes: (1)\n  3: missing.h (unresolved)\n")
	assert.Contains(t, text, "Defined macros: (2)\n  2: #define LIB_H\n  4: #define SQUARE(x) ((x) * (x))\n")
	assert.Contains(t, text, "  5: SQUARE [")
	assert.Contains(t, text, "Undefined macro uses: (2)\n")
	assert.Contains(t, text, "  NOPE [")
	assert.Contains(t, text, "Skipped blocks: (1)\n")
}

func TestCreateOutput(t *testing.T) {
	const content = "int x = 1;\n"

	t.Run("stdout", func(t *testing.T) {
		var stdout bytes.Buffer
		w, err := CreateOutput(Stdout, &stdout)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, content, stdout.String())
	})

	t.Run("plain file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.i")
		w, err := CreateOutput(path, nil)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("xz file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.i.xz")
		w, err := CreateOutput(path, nil)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()
		xzr, err := xz.NewReader(file)
		require.NoError(t, err)
		data, err := io.ReadAll(xzr)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))

		r, err := OpenInput(path)
		require.NoError(t, err)
		defer r.Close()
		data, err = io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})
}

func TestIsColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, IsColorEnabled("always", &buf))
	assert.False(t, IsColorEnabled("never", os.Stdout))
	assert.False(t, IsColorEnabled("auto", &buf))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, IsColorEnabled("auto", os.Stdout))
}
