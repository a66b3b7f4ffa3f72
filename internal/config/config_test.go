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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/EngFlow/ccsnapshot/language/cc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name     string
		fileName string
		content  string
		expected func(*Config)
	}{
		{
			name:     "empty yaml keeps defaults",
			fileName: ".ccpp.yaml",
			content:  "",
			expected: func(*Config) {},
		},
		{
			name:     "yaml",
			fileName: ".ccpp.yml",
			content: `include_paths: [include, "third_party/**/include"]
system_include_paths: [/usr/include]
defines: [DEBUG, "VERSION=2"]
undefines: [NDEBUG]
platform: linux/x86_64
keep_comments: true
expand_function_like_macros: false
max_include_depth: 64
log_level: debug
`,
			expected: func(c *Config) {
				c.IncludePaths = []string{"include", "third_party/**/include"}
				c.SystemIncludePaths = []string{"/usr/include"}
				c.Defines = []string{"DEBUG", "VERSION=2"}
				c.Undefines = []string{"NDEBUG"}
				c.Platform = "linux/x86_64"
				c.KeepComments = true
				c.ExpandFunctionLikeMacros = false
				c.MaxIncludeDepth = 64
				c.LogLevel = "debug"
			},
		},
		{
			name:     "toml",
			fileName: ".ccpp.toml",
			content: `include_paths = ["include"]
quote_include_paths = ["src"]
exclude = ["include/internal/**"]
platform = "macos/arm64"
`,
			expected: func(c *Config) {
				c.IncludePaths = []string{"include"}
				c.QuoteIncludePaths = []string{"src"}
				c.Exclude = []string{"include/internal/**"}
				c.Platform = "macos/arm64"
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expected := Defaults()
			tc.expected(expected)

			result, err := Decode(tc.fileName, []byte(tc.content))
			require.NoError(t, err)
			assert.Equal(t, expected, result)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		fileName      string
		content       string
		errorContains string
	}{
		{fileName: ".ccpp.yaml", content: "include_paths: {", errorContains: "parse yaml"},
		{fileName: ".ccpp.toml", content: "include_paths = [", errorContains: "parse toml"},
		{fileName: ".ccpp.json", content: "{}", errorContains: "unsupported configuration format"},
		{fileName: ".ccpp.yaml", content: "platform: plan9/x86_64", errorContains: "'platform' tag"},
		{fileName: ".ccpp.yaml", content: "log_level: verbose", errorContains: "'oneof' tag"},
		{fileName: ".ccpp.yaml", content: "max_include_depth: -1", errorContains: "'gte' tag"},
		{fileName: ".ccpp.yaml", content: `include_paths: [""]`, errorContains: "'required' tag"},
		{fileName: ".ccpp.yaml", content: `defines: ["1BAD"]`, errorContains: `invalid macro name "1BAD"`},
		{fileName: ".ccpp.yaml", content: `undefines: ["A=B"]`, errorContains: `invalid macro name "A=B"`},
	}

	for _, tc := range testCases {
		_, err := Decode(tc.fileName, []byte(tc.content))
		assert.ErrorContains(t, err, tc.errorContains, "content: %s", tc.content)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults without config file", func(t *testing.T) {
		cfg, path, err := Load(t.TempDir(), "")
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, Defaults(), cfg)
	})

	t.Run("discovers yaml before toml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".ccpp.toml"), []byte(`platform = "windows"`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".ccpp.yml"), []byte("platform: linux\n"), 0o644))

		cfg, path, err := Load(dir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ".ccpp.yml"), path)
		assert.Equal(t, "linux", cfg.Platform)
	})

	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		explicit := filepath.Join(dir, "custom.toml")
		require.NoError(t, os.WriteFile(explicit, []byte(`defines = ["X"]`), 0o644))

		cfg, path, err := Load(t.TempDir(), explicit)
		require.NoError(t, err)
		assert.Equal(t, explicit, path)
		assert.Equal(t, []string{"X"}, cfg.Defines)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		_, _, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "read config")
	})
}

func TestProcessorOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Defines = []string{"A", "B=2"}
	cfg.Undefines = []string{"C"}
	cfg.Platform = "linux/x86_64"
	cfg.IncludePaths = []string{"include"}
	cfg.SystemIncludePaths = []string{"sys"}

	options, err := cfg.ProcessorOptions()
	require.NoError(t, err)
	assert.Equal(t, []cc.MacroDefinition{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}, options.Defines)
	assert.Equal(t, []string{"C"}, options.Undefines)
	require.NotNil(t, options.Platform)
	assert.Equal(t, "linux/x86_64", options.Platform.String())
	assert.True(t, options.ExpandFunctionLikeMacros)
	assert.Equal(t, 200, options.MaxIncludeDepth)

	assert.Equal(t, cc.SearchPaths{
		Quote:   []string{},
		User:    []string{"include"},
		System:  []string{"sys"},
		Exclude: []string{},
	}, cfg.SearchPaths())

	cfg.Platform = ""
	options, err = cfg.ProcessorOptions()
	require.NoError(t, err)
	assert.Nil(t, options.Platform)
}
