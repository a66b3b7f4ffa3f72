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

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngFlow/ccsnapshot/language/internal/cc/parser"
)

func macroNames(macros []parser.MacroDefinition) []string {
	var names []string
	for _, m := range macros {
		names = append(names, m.Name)
	}
	return names
}

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected Platform
	}{
		{input: "linux/x86_64", expected: Platform{OS: linux, Arch: x86_64}},
		{input: "macos/arm64", expected: Platform{OS: osx, Arch: aarch64}},
		{input: "windows/amd64", expected: Platform{OS: windows, Arch: x86_64}},
		{input: "linux", expected: Platform{OS: linux}},
		{input: "/riscv64", expected: Platform{Arch: riscv64}},
	}
	for _, tc := range testCases {
		platform, err := Parse(tc.input)
		require.NoError(t, err, "input: %q", tc.input)
		assert.Equal(t, tc.expected, platform, "input: %q", tc.input)
	}

	for _, input := range []string{"plan9/x86_64", "linux/z80"} {
		_, err := Parse(input)
		assert.Error(t, err, "input: %q", input)
	}
}

func TestPredefinedMacros(t *testing.T) {
	linuxMacros := macroNames(PredefinedMacros(Platform{OS: linux, Arch: x86_64}))
	assert.Contains(t, linuxMacros, "__linux__")
	assert.Contains(t, linuxMacros, "__x86_64__")
	assert.Contains(t, linuxMacros, "__LP64__")
	assert.Contains(t, linuxMacros, "unix")
	assert.NotContains(t, linuxMacros, "_WIN32")
	assert.IsIncreasing(t, linuxMacros)

	windowsMacros := PredefinedMacros(Platform{OS: windows, Arch: x86_64})
	assert.Contains(t, windowsMacros, parser.MacroDefinition{Name: "_WIN64", Value: "1"})
	assert.Contains(t, windowsMacros, parser.MacroDefinition{Name: "__SIZEOF_POINTER__", Value: "8"})
	assert.NotContains(t, macroNames(windowsMacros), "__LP64__")

	armMacros := macroNames(PredefinedMacros(Platform{OS: linux, Arch: aarch64}))
	assert.Contains(t, armMacros, "__aarch64__")
	assert.NotContains(t, armMacros, "__x86_64__")

	assert.Empty(t, PredefinedMacros(Platform{OS: "plan9"}))
}

func TestLanguageMacros(t *testing.T) {
	testCases := []struct {
		dialect  Dialect
		expected []parser.MacroDefinition
	}{
		{
			dialect: Dialect{},
			expected: []parser.MacroDefinition{
				{Name: "__STDC__", Value: "1"},
				{Name: "__STDC_VERSION__", Value: "201710L"},
			},
		},
		{
			dialect:  Dialect{CStandard: "c89"},
			expected: []parser.MacroDefinition{{Name: "__STDC__", Value: "1"}},
		},
		{
			dialect: Dialect{CXX: true, CXXStandard: "c++20"},
			expected: []parser.MacroDefinition{
				{Name: "__STDC__", Value: "1"},
				{Name: "__cplusplus", Value: "202002L"},
			},
		},
		{
			dialect: Dialect{CXX: true, ObjC: true},
			expected: []parser.MacroDefinition{
				{Name: "__STDC__", Value: "1"},
				{Name: "__cplusplus", Value: "201703L"},
				{Name: "__OBJC__", Value: "1"},
			},
		},
	}
	for _, tc := range testCases {
		macros, err := LanguageMacros(tc.dialect)
		require.NoError(t, err, "dialect: %+v", tc.dialect)
		assert.Equal(t, tc.expected, macros, "dialect: %+v", tc.dialect)
	}

	_, err := LanguageMacros(Dialect{CXX: true, CXXStandard: "c++99"})
	assert.Error(t, err)
}
