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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToken(t *testing.T) {
	testCases := []struct {
		input    string
		expected Token
	}{
		{
			input:    "",
			expected: TokenEOF,
		},
		{
			input:    "&&",
			expected: Token{Type: TokenType_Punctuator, Location: CursorInit, Content: "&&"},
		},
		{
			input:    "<<= 1",
			expected: Token{Type: TokenType_Punctuator, Location: CursorInit, Content: "<<="},
		},
		{
			input:    "...)",
			expected: Token{Type: TokenType_Punctuator, Location: CursorInit, Content: "..."},
		},
		{
			input:    "##x",
			expected: Token{Type: TokenType_Punctuator, Location: CursorInit, Content: "##"},
		},
		{
			input:    "\n\n",
			expected: Token{Type: TokenType_Newline, Location: CursorInit, Content: "\n"},
		},
		{
			input:    "\t\t abc",
			expected: Token{Type: TokenType_Whitespace, Location: CursorInit, Content: "\t\t "},
		},
		{
			input:    "\\\n MACRO_CONTINUED",
			expected: Token{Type: TokenType_ContinueLine, Location: CursorInit, Content: "\\\n"},
		},
		{
			input:    "\\    \n MACRO_CONTINUED",
			expected: Token{Type: TokenType_ContinueLine, Location: CursorInit, Content: "\\    \n"},
		},
		{
			input:    "\\ unexpected \n MACRO_CONTINUED",
			expected: Token{Type: TokenType_Unassigned, Location: CursorInit, Content: "\\"},
		},
		{
			input:    "// This is a single line comment",
			expected: Token{Type: TokenType_CommentSingleLine, Location: CursorInit, Content: "// This is a single line comment"},
		},
		{
			input:    "// This is a single line comment\nint main()",
			expected: Token{Type: TokenType_CommentSingleLine, Location: CursorInit, Content: "// This is a single line comment"},
		},
		{
			input:    "// continued \\\n comment\nint",
			expected: Token{Type: TokenType_CommentSingleLine, Location: CursorInit, Content: "// continued \\\n comment"},
		},
		{
			input:    "/*\n  This is a multi line comment\n*/\nint main()",
			expected: Token{Type: TokenType_CommentMultiLine, Location: CursorInit, Content: "/*\n  This is a multi line comment\n*/"},
		},
		{
			input:    "/* never closed",
			expected: Token{Type: TokenType_CommentMultiLine, Location: CursorInit, Content: "/* never closed", Unterminated: true},
		},
		{
			input:    `"This is a string literal" x`,
			expected: Token{Type: TokenType_LiteralString, Location: CursorInit, Content: `"This is a string literal"`},
		},
		{
			input:    `"escaped \" quote"`,
			expected: Token{Type: TokenType_LiteralString, Location: CursorInit, Content: `"escaped \" quote"`},
		},
		{
			input:    "\"unterminated\nnext",
			expected: Token{Type: TokenType_LiteralString, Location: CursorInit, Content: `"unterminated`, Unterminated: true},
		},
		{
			input:    `u8"utf-8"`,
			expected: Token{Type: TokenType_LiteralString, Location: CursorInit, Content: `u8"utf-8"`},
		},
		{
			input:    `L'x'`,
			expected: Token{Type: TokenType_LiteralChar, Location: CursorInit, Content: `L'x'`},
		},
		{
			input:    "R\"delim(raw \" \n string)delim\";",
			expected: Token{Type: TokenType_LiteralString, Location: CursorInit, Content: "R\"delim(raw \" \n string)delim\""},
		},
		{
			input:    `'\''`,
			expected: Token{Type: TokenType_LiteralChar, Location: CursorInit, Content: `'\''`},
		},
		{
			input:    "identifier_123 rest",
			expected: Token{Type: TokenType_Identifier, Location: CursorInit, Content: "identifier_123"},
		},
		{
			input:    "Ustate",
			expected: Token{Type: TokenType_Identifier, Location: CursorInit, Content: "Ustate"},
		},
		{
			input:    "Rx",
			expected: Token{Type: TokenType_Identifier, Location: CursorInit, Content: "Rx"},
		},
		{
			input:    "1.5e+10f;",
			expected: Token{Type: TokenType_Number, Location: CursorInit, Content: "1.5e+10f"},
		},
		{
			input:    "0x1p-3",
			expected: Token{Type: TokenType_Number, Location: CursorInit, Content: "0x1p-3"},
		},
		{
			input:    "10'000'000ULL",
			expected: Token{Type: TokenType_Number, Location: CursorInit, Content: "10'000'000ULL"},
		},
		{
			input:    ".5+1",
			expected: Token{Type: TokenType_Number, Location: CursorInit, Content: ".5"},
		},
		{
			input:    "1+2",
			expected: Token{Type: TokenType_Number, Location: CursorInit, Content: "1"},
		},
		{
			input:    "@x",
			expected: Token{Type: TokenType_Unassigned, Location: CursorInit, Content: "@"},
		},
	}

	for _, tc := range testCases {
		lx := NewLexer([]byte(tc.input))
		assert.Equal(t, tc.expected, lx.NextToken(), "input: %q", tc.input)
	}
}

func TestTokenize(t *testing.T) {
	input := "#define X(a) a\nX(1) /* c */ \"s\"\n"
	lx := NewLexer([]byte(input))
	tokens := lx.Tokenize()

	var contents []string
	for _, token := range tokens {
		contents = append(contents, token.Content)
	}
	assert.Equal(t, []string{
		"#", "define", " ", "X", "(", "a", ")", " ", "a", "\n",
		"X", "(", "1", ")", " ", "/* c */", " ", `"s"`, "\n",
	}, contents)

	assert.Equal(t, Cursor{Line: 2, Column: 1, Offset: 15, UTF16Offset: 15}, tokens[10].Location)
	assert.Equal(t, TokenEOF, lx.NextToken())
}

func TestTokenizeLocationsAfterMultiLineTokens(t *testing.T) {
	input := "/* a\n b */ x\ny"
	tokens := NewLexer([]byte(input)).Tokenize()

	assert.Len(t, tokens, 5)
	assert.Equal(t, "x", tokens[2].Content)
	assert.Equal(t, Cursor{Line: 2, Column: 7, Offset: 11, UTF16Offset: 11}, tokens[2].Location)
	assert.Equal(t, "y", tokens[4].Content)
	assert.Equal(t, Cursor{Line: 3, Column: 1, Offset: 13, UTF16Offset: 13}, tokens[4].Location)
	assert.Equal(t, 1, tokens[0].Newlines())
}

func TestTokenPredicates(t *testing.T) {
	assert.True(t, Token{Type: TokenType_Punctuator, Content: "("}.Is("("))
	assert.False(t, Token{Type: TokenType_LiteralString, Content: "("}.Is("("))
	assert.True(t, TokenType_CommentMultiLine.IsComment())
	assert.True(t, TokenType_ContinueLine.IsBlank())
	assert.False(t, TokenType_Newline.IsBlank())
	assert.Equal(t, Cursor{Line: 1, Column: 4, Offset: 3, UTF16Offset: 3}, Token{Location: CursorInit, Content: "abc"}.End())
}

func BenchmarkTokenize(b *testing.B) {
	source := []byte(`#include <stdio.h>
#define MAX(a, b) ((a) > (b) ? (a) : (b))
/* block
   comment */
int main(int argc, char** argv) {
    printf("%d\n", MAX(argc, 10'000)); // trailing
    return 0;
}
`)
	b.SetBytes(int64(len(source)))
	for b.Loop() {
		NewLexer(source).Tokenize()
	}
}
