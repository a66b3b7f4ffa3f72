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
	"github.com/stretchr/testify/require"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
)

// Tokens of a directive line, without the introducing '#'.
func directiveTokens(input string) []lexer.Token {
	return tokenize(input)
}

func contents(tokens []lexer.Token) []string {
	var result []string
	for _, token := range tokens {
		if !token.Type.IsBlank() {
			result = append(result, token.Content)
		}
	}
	return result
}

func TestParseIncludeDirective(t *testing.T) {
	testCases := []struct {
		input    string
		expected IncludeDirective
	}{
		{input: "include <stdio.h>", expected: IncludeDirective{Path: "stdio.h", IsSystem: true}},
		{input: `include "myheader.h"`, expected: IncludeDirective{Path: "myheader.h"}},
		{input: " include <sys/my file.h> // comment", expected: IncludeDirective{Path: "sys/my file.h", IsSystem: true}},
		{input: `include_next "next.h"`, expected: IncludeDirective{Kind: IncludeNext, Path: "next.h"}},
		{input: `import <Foundation/Foundation.h>`, expected: IncludeDirective{Kind: Import, Path: "Foundation/Foundation.h", IsSystem: true}},
	}

	for _, tc := range testCases {
		directive, err := ParseDirective(directiveTokens(tc.input))
		require.NoError(t, err, "input: %q", tc.input)
		assert.Equal(t, tc.expected, directive, "input: %q", tc.input)
	}
}

func TestParseComputedInclude(t *testing.T) {
	directive, err := ParseDirective(directiveTokens("include HEADER(config)"))
	require.NoError(t, err)
	include := directive.(IncludeDirective)
	assert.Empty(t, include.Path)
	assert.Equal(t, []string{"HEADER", "(", "config", ")"}, contents(include.Tokens))
	assert.Equal(t, "#include HEADER(config)", include.String())
}

func TestParseMalformedIncludes(t *testing.T) {
	testCases := []string{
		"include",
		`include "stdio.h`,
		"include <math.h",
		"include <>",
		`include ""`,
		"include 42",
	}

	for _, input := range testCases {
		directive, err := ParseDirective(directiveTokens(input))
		assert.Error(t, err, "input: %q", input)
		assert.IsType(t, IncludeDirective{}, directive, "input: %q", input)
	}
}

func TestParseDefineDirective(t *testing.T) {
	testCases := []struct {
		input        string
		name         string
		functionLike bool
		params       []string
		variadic     bool
		body         []string
		str          string
	}{
		{
			input: "define EMPTY",
			name:  "EMPTY",
			str:   "#define EMPTY",
		},
		{
			input: "define TWO 2",
			name:  "TWO",
			body:  []string{"2"},
			str:   "#define TWO 2",
		},
		{
			input: "define PAREN (x)",
			name:  "PAREN",
			body:  []string{"(", "x", ")"},
			str:   "#define PAREN (x)",
		},
		{
			input:        "define F() f()",
			name:         "F",
			functionLike: true,
			body:         []string{"f", "(", ")"},
			str:          "#define F() f()",
		},
		{
			input:        "define MAX(a, b) ((a) > (b) ? (a) : (b))",
			name:         "MAX",
			functionLike: true,
			params:       []string{"a", "b"},
			body:         []string{"(", "(", "a", ")", ">", "(", "b", ")", "?", "(", "a", ")", ":", "(", "b", ")", ")"},
			str:          "#define MAX(a, b) ((a) > (b) ? (a) : (b))",
		},
		{
			input:        "define LOG(fmt, ...) printf(fmt, __VA_ARGS__)",
			name:         "LOG",
			functionLike: true,
			params:       []string{"fmt", "__VA_ARGS__"},
			variadic:     true,
			body:         []string{"printf", "(", "fmt", ",", "__VA_ARGS__", ")"},
			str:          "#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)",
		},
		{
			input:        "define GNU(args...) f(args)",
			name:         "GNU",
			functionLike: true,
			params:       []string{"args"},
			variadic:     true,
			body:         []string{"f", "(", "args", ")"},
			str:          "#define GNU(args...) f(args)",
		},
		{
			input:        "define STR(x) #x /* trailing */",
			name:         "STR",
			functionLike: true,
			params:       []string{"x"},
			body:         []string{"#", "x"},
			str:          "#define STR(x) #x",
		},
		{
			input: "define MULTI a \\\n b",
			name:  "MULTI",
			body:  []string{"a", "b"},
		},
	}

	for _, tc := range testCases {
		directive, err := ParseDirective(directiveTokens(tc.input))
		require.NoError(t, err, "input: %q", tc.input)
		define, ok := directive.(DefineDirective)
		require.True(t, ok, "input: %q", tc.input)
		assert.Equal(t, tc.name, define.Name.Content, "input: %q", tc.input)
		assert.Equal(t, tc.functionLike, define.FunctionLike, "input: %q", tc.input)
		assert.Equal(t, tc.params, define.Params, "input: %q", tc.input)
		assert.Equal(t, tc.variadic, define.Variadic, "input: %q", tc.input)
		assert.Equal(t, tc.body, contents(define.Body), "input: %q", tc.input)
		if tc.str != "" {
			assert.Equal(t, tc.str, define.String(), "input: %q", tc.input)
		}
	}
}

func TestParseMalformedDefines(t *testing.T) {
	testCases := []string{
		"define",
		"define 123",
		"define defined 1",
		"define F(a, a) a",
		"define F(a",
		"define F(a,) a",
		"define F(1) a",
		"define F(... , x) a",
		"define F(x) #y",
		"define X ## y",
		"define X y ##",
	}

	for _, input := range testCases {
		_, err := ParseDirective(directiveTokens(input))
		assert.Error(t, err, "input: %q", input)
	}
}

func TestParseConditionalDirectives(t *testing.T) {
	testCases := []struct {
		input     string
		keyword   string
		kind      BranchKind
		name      string
		condition []string
	}{
		{input: "if defined(A) && B > 1", keyword: "if", kind: IfBranch, condition: []string{"defined", "(", "A", ")", "&&", "B", ">", "1"}},
		{input: "ifdef GUARD", keyword: "ifdef", kind: IfBranch, name: "GUARD"},
		{input: "ifndef GUARD // comment", keyword: "ifndef", kind: IfBranch, name: "GUARD"},
		{input: "elif 0", keyword: "elif", kind: ElifBranch, condition: []string{"0"}},
		{input: "elifdef X", keyword: "elifdef", kind: ElifBranch, name: "X"},
		{input: "elifndef X", keyword: "elifndef", kind: ElifBranch, name: "X"},
		{input: "else", keyword: "else", kind: ElseBranch},
		{input: "endif /* GUARD */", keyword: "endif", kind: EndBranch},
	}

	for _, tc := range testCases {
		directive, err := ParseDirective(directiveTokens(tc.input))
		require.NoError(t, err, "input: %q", tc.input)
		conditional, ok := directive.(ConditionalDirective)
		require.True(t, ok, "input: %q", tc.input)
		assert.Equal(t, tc.keyword, conditional.Keyword, "input: %q", tc.input)
		assert.Equal(t, tc.kind, conditional.Kind, "input: %q", tc.input)
		assert.Equal(t, tc.name, conditional.Name.Content, "input: %q", tc.input)
		assert.Equal(t, tc.condition, contents(conditional.Condition), "input: %q", tc.input)
	}

	for _, input := range []string{"if", "ifdef", "ifdef 1", "ifndef A B", "endif X"} {
		directive, err := ParseDirective(directiveTokens(input))
		assert.Error(t, err, "input: %q", input)
		assert.IsType(t, ConditionalDirective{}, directive, "input: %q", input)
	}
}

func TestParseOtherDirectives(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "", expected: "#"},
		{input: "   ", expected: "#"},
		{input: "undef FOO", expected: "#undef FOO"},
		{input: "pragma once", expected: "#pragma once"},
		{input: "pragma  pack(push, 1)", expected: "#pragma pack(push, 1)"},
		{input: "error  this /* c */ is   bad", expected: "#error this is bad"},
		{input: "warning deprecated", expected: "#warning deprecated"},
		{input: `line 10 "file.c"`, expected: `#line 10 "file.c"`},
		{input: `33 "file.c" 1`, expected: `#line 33 "file.c" 1`},
		{input: "ident \"v1\"", expected: "#ident"},
	}

	for _, tc := range testCases {
		directive, err := ParseDirective(directiveTokens(tc.input))
		require.NoError(t, err, "input: %q", tc.input)
		assert.Equal(t, tc.expected, directive.String(), "input: %q", tc.input)
	}

	_, err := ParseDirective(directiveTokens("! bad"))
	assert.Error(t, err)
}
