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

import "strings"

type TokenType int

const (
	// Special token type indicating the end of the input stream.
	TokenType_EOF TokenType = iota

	// Every character that does not start any other token, e.g. '@' or '`'.
	TokenType_Unassigned

	// Single newline character '\n'. Newlines require special handling because
	// they mark the end of a preprocessor directive.
	TokenType_Newline

	// One or more whitespace characters, other than newlines.
	TokenType_Whitespace

	// Line continuation sequence, a backslash '\' followed by a newline
	// character '\n' (with optional whitespace characters between).
	TokenType_ContinueLine

	// Identifier or keyword, a letter or underscore followed by letters, digits
	// or underscores. Non-ASCII bytes are accepted as identifier characters.
	TokenType_Identifier

	// Preprocessing number, e.g. 123, 0x1A3F, 1.5e+10, 10'000, 42ULL.
	TokenType_Number

	// String literal with optional encoding prefix, e.g. "example", u8"x",
	// R"delim(raw)delim".
	TokenType_LiteralString

	// Character literal with optional encoding prefix, e.g. 'a', L'\n'.
	TokenType_LiteralChar

	// Operator or punctuator, e.g. '(', '##', '<<=', '...'.
	TokenType_Punctuator

	// Single-line comment, starting with // and ending at the end of the line.
	TokenType_CommentSingleLine

	// Multi-line comment, starting with /* and ending with */.
	TokenType_CommentMultiLine
)

func (t TokenType) String() string {
	switch t {
	case TokenType_EOF:
		return "end of file"
	case TokenType_Unassigned:
		return "unassigned character"
	case TokenType_Newline:
		return "newline"
	case TokenType_Whitespace:
		return "whitespace"
	case TokenType_ContinueLine:
		return `line continuation backslash '\'`
	case TokenType_Identifier:
		return "identifier"
	case TokenType_Number:
		return "number"
	case TokenType_LiteralString:
		return `"string literal"`
	case TokenType_LiteralChar:
		return "'character literal'"
	case TokenType_Punctuator:
		return "punctuator"
	case TokenType_CommentSingleLine:
		return "single-line comment"
	case TokenType_CommentMultiLine:
		return "multi-line comment"
	default:
		return "unknown token"
	}
}

// IsComment reports whether the type is one of the comment types.
func (t TokenType) IsComment() bool {
	return t == TokenType_CommentSingleLine || t == TokenType_CommentMultiLine
}

// IsBlank reports whether tokens of this type separate other tokens without carrying meaning: whitespace, line
// continuations and comments.
func (t TokenType) IsBlank() bool {
	return t == TokenType_Whitespace || t == TokenType_ContinueLine || t.IsComment()
}

type Token struct {
	Type     TokenType
	Location Cursor
	Content  string

	// Set for string/character literals missing the closing quote and for
	// multi-line comments missing the closing "*/".
	Unterminated bool
}

var TokenEOF = Token{Type: TokenType_EOF}

// End returns the cursor right after the token.
func (t Token) End() Cursor {
	return t.Location.AdvancedBy(t.Content)
}

// Is reports whether the token is a punctuator with the given spelling.
func (t Token) Is(punctuator string) bool {
	return t.Type == TokenType_Punctuator && t.Content == punctuator
}

// Newlines returns the number of newline characters inside the token.
func (t Token) Newlines() int {
	return strings.Count(t.Content, "\n")
}
