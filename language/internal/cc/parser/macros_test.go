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

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMacros(t *testing.T) {
	type testCase struct {
		defs     []string
		expected []MacroDefinition
	}

	validTestCases := []testCase{
		{
			defs:     []string{"FOO"},
			expected: []MacroDefinition{{Name: "FOO", Value: "1"}},
		},
		{
			defs: []string{"DEC=123", "HEX=0x2A", "EMPTY="},
			expected: []MacroDefinition{
				{Name: "DEC", Value: "123"},
				{Name: "HEX", Value: "0x2A"},
				{Name: "EMPTY", Value: ""},
			},
		},
		{
			defs: []string{"-D__ANDROID__", "STR=\"abc\"", "FLT=3.14"},
			expected: []MacroDefinition{
				{Name: "__ANDROID__", Value: "1"},
				{Name: "STR", Value: `"abc"`},
				{Name: "FLT", Value: "3.14"},
			},
		},
		{
			defs:     []string{"MAX(a,b)=((a)>(b)?(a):(b))"},
			expected: []MacroDefinition{{Name: "MAX(a,b)", Value: "((a)>(b)?(a):(b))"}},
		},
	}

	for _, tc := range validTestCases {
		got, err := ParseMacros(tc.defs)
		if err != nil {
			t.Fatalf("ParseMacros(%v) unexpected error: %v", tc.defs, err)
		}
		assert.Equal(t, tc.expected, got)
	}

	unparsableTestCases := []string{
		"-DBAD-NAME=1",
		"1ABC",
		"=1",
		"F(x=1",
		"MULTI=a\nb",
	}

	for _, def := range unparsableTestCases {
		if _, err := ParseMacro(def); err == nil {
			t.Errorf("ParseMacro(%v) expected error, got nil", def)
		}
	}
}

func TestParseMacrosJoinsErrors(t *testing.T) {
	got, err := ParseMacros([]string{"OK", "1BAD", "2BAD"})
	assert.Equal(t, []MacroDefinition{{Name: "OK", Value: "1"}}, got)
	assert.ErrorContains(t, err, "1BAD")
	assert.ErrorContains(t, err, "2BAD")
}

func TestParseUndefine(t *testing.T) {
	name, err := ParseUndefine("-UNDEBUG")
	assert.NoError(t, err)
	assert.Equal(t, "NDEBUG", name)

	_, err = ParseUndefine("F(x)")
	assert.Error(t, err)
}

func TestCommandLineSource(t *testing.T) {
	source := CommandLineSource(
		[]MacroDefinition{{Name: "A", Value: "1"}, {Name: "F(x)", Value: "x"}, {Name: "E", Value: ""}},
		[]string{"B"},
	)
	assert.Equal(t, "#define A 1\n#define F(x) x\n#define E\n#undef B\n", string(source))
}
