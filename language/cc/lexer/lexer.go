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

// Package lexer provides a lexical analyzer for C/C++ source code at the preprocessing-token level. It breaks the
// input into a sequence of tokens which can then be processed by the preprocessor.
//
// Lexer classifies tokens into several types (for e.g., easier filtering comments or whitespace) and tracks their
// location in the source code, both as line/column and as byte and UTF-16 offsets.
//
// The lexer never fails. Malformed input (unterminated literals or comments) still produces tokens, flagged as
// Unterminated, so that editor tooling always gets a result.
package lexer

import (
	"bytes"
)

// Lexer breaks the input C/C++ source code into a sequence of tokens.
type Lexer struct {
	dataLeft []byte
	cursor   Cursor
}

func NewLexer(sourceCode []byte) *Lexer {
	return &Lexer{dataLeft: sourceCode, cursor: CursorInit}
}

// Punctuators ordered from the longest to the shortest, so the first match is the longest one.
var punctuators = []string{
	"<<=", ">>=", "...", "->*", "<=>",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=",
	"##", "::", ".*",
	"{", "}", "[", "]", "(", ")", "#", ";", ":", "?", ".", ",", "+", "-", "*", "/", "%", "^", "&", "|", "~", "!", "=",
	"<", ">",
}

func isIdentifierStart(char byte) bool {
	return char == '_' || char == '$' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || char >= 0x80
}

func isIdentifierChar(char byte) bool {
	return isIdentifierStart(char) || isDigit(char)
}

func isDigit(char byte) bool { return char >= '0' && char <= '9' }

func isHorizontalSpace(char byte) bool {
	switch char {
	case ' ', '\t', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// Length of the encoding prefix of a string or character literal (L, u, U, u8, optionally followed by R for raw
// strings), or -1 if data does not start with a literal.
func literalPrefixLength(data []byte) int {
	i := 0
	switch {
	case bytes.HasPrefix(data, []byte("u8")):
		i = 2
	case len(data) > 0 && (data[0] == 'L' || data[0] == 'u' || data[0] == 'U'):
		i = 1
	}
	if i < len(data) && data[i] == 'R' {
		if i+1 < len(data) && data[i+1] == '"' {
			return i + 1
		}
		return -1
	}
	if i < len(data) && (data[i] == '"' || data[i] == '\'') {
		return i
	}
	return -1
}

// determine token type basing on the first few characters of the data
func prequalifyToken(data []byte) TokenType {
	switch char := data[0]; {
	case char == '\n':
		return TokenType_Newline
	case isHorizontalSpace(char):
		return TokenType_Whitespace
	case char == '\\':
		if extractContinueLineToken(data) > 0 {
			return TokenType_ContinueLine
		}
		return TokenType_Unassigned
	case bytes.HasPrefix(data, []byte("//")):
		return TokenType_CommentSingleLine
	case bytes.HasPrefix(data, []byte("/*")):
		return TokenType_CommentMultiLine
	case char == '"':
		return TokenType_LiteralString
	case char == '\'':
		return TokenType_LiteralChar
	case isDigit(char) || (char == '.' && len(data) > 1 && isDigit(data[1])):
		return TokenType_Number
	case isIdentifierStart(char):
		if prefix := literalPrefixLength(data); prefix > 0 {
			return prequalifyToken(data[prefix:])
		}
		return TokenType_Identifier
	default:
		if extractPunctuatorToken(data) > 0 {
			return TokenType_Punctuator
		}
		return TokenType_Unassigned
	}
}

// ignore characters between the backslash and the newline; whitespace characters usually trigger warnings in compilers
func extractContinueLineToken(data []byte) int {
	for i := 1; i < len(data); i++ {
		if data[i] == '\n' {
			return i + 1
		}
		if !isHorizontalSpace(data[i]) {
			return 0
		}
	}
	return 0
}

func extractWhitespaceToken(data []byte) int {
	i := 0
	for i < len(data) && isHorizontalSpace(data[i]) {
		i++
	}
	return i
}

func extractIdentifierToken(data []byte) int {
	i := 0
	for i < len(data) && isIdentifierChar(data[i]) {
		i++
	}
	return i
}

func extractNumberToken(data []byte) int {
	i := 1
	for i < len(data) {
		char := data[i]
		switch {
		case isIdentifierChar(char) || char == '.':
			i++
		case (char == '+' || char == '-') && (data[i-1] == 'e' || data[i-1] == 'E' || data[i-1] == 'p' || data[i-1] == 'P'):
			i++
		case char == '\'' && i+1 < len(data) && isIdentifierChar(data[i+1]):
			i += 2
		default:
			return i
		}
	}
	return i
}

func extractPunctuatorToken(data []byte) int {
	for _, punctuator := range punctuators {
		if bytes.HasPrefix(data, []byte(punctuator)) {
			return len(punctuator)
		}
	}
	return 0
}

func extractSingleLineCommentToken(data []byte) int {
	for i := 2; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		// a backslash right before the newline continues the comment on the next line
		j := i - 1
		for j > 1 && isHorizontalSpace(data[j]) {
			j--
		}
		if data[j] != '\\' {
			return i
		}
	}
	return len(data)
}

func extractMultiLineCommentToken(data []byte) (int, bool) {
	if endIndex := bytes.Index(data[2:], []byte("*/")); endIndex >= 0 {
		return endIndex + 4, true
	}
	return len(data), false
}

// Quoted literal, starting at data[0] == quote. A literal must fit in one line unless the newline is escaped.
func extractQuotedToken(data []byte, quote byte) (int, bool) {
	for i := 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			if continued := extractContinueLineToken(data[i:]); continued > 0 {
				i += continued - 1
			} else {
				i++
			}
		case quote:
			return i + 1, true
		case '\n':
			return i, false
		}
	}
	return len(data), false
}

// Raw string literal, starting at data[0] == '"' (the R prefix is already consumed).
func extractRawStringLiteralToken(data []byte) (int, bool) {
	start := bytes.IndexByte(data, '(')
	if start < 0 || bytes.IndexByte(data[:start], '\n') >= 0 {
		return extractQuotedToken(data, '"')
	}

	customDelimiterName := data[1:start]
	endDelimiter := make([]byte, 0, len(customDelimiterName)+len(`)"`))
	endDelimiter = append(endDelimiter, ')')
	endDelimiter = append(endDelimiter, customDelimiterName...)
	endDelimiter = append(endDelimiter, '"')

	endIndex := bytes.Index(data[start:], endDelimiter)
	if endIndex < 0 {
		return len(data), false
	}
	return start + endIndex + len(endDelimiter), true
}

func extractLiteralToken(data []byte) (int, bool) {
	prefix := max(literalPrefixLength(data), 0)
	var length int
	var terminated bool
	switch {
	case prefix > 0 && data[prefix-1] == 'R':
		length, terminated = extractRawStringLiteralToken(data[prefix:])
	default:
		length, terminated = extractQuotedToken(data[prefix:], data[prefix])
	}
	return prefix + length, terminated
}

// Return the length of the token at the beginning of data, its type and whether it is properly terminated.
func extractToken(data []byte) (int, TokenType, bool) {
	tokenType := prequalifyToken(data)
	switch tokenType {
	case TokenType_Newline:
		return 1, tokenType, true
	case TokenType_Whitespace:
		return extractWhitespaceToken(data), tokenType, true
	case TokenType_ContinueLine:
		return extractContinueLineToken(data), tokenType, true
	case TokenType_CommentSingleLine:
		return extractSingleLineCommentToken(data), tokenType, true
	case TokenType_CommentMultiLine:
		length, terminated := extractMultiLineCommentToken(data)
		return length, tokenType, terminated
	case TokenType_LiteralString, TokenType_LiteralChar:
		length, terminated := extractLiteralToken(data)
		return length, tokenType, terminated
	case TokenType_Number:
		return extractNumberToken(data), tokenType, true
	case TokenType_Identifier:
		return extractIdentifierToken(data), tokenType, true
	case TokenType_Punctuator:
		return extractPunctuatorToken(data), tokenType, true
	default:
		return 1, TokenType_Unassigned, true
	}
}

// Return the next token extracted from the beginning of the input data left to process. If no more tokens are left,
// returns TokenEOF.
func (lx *Lexer) NextToken() Token {
	if len(lx.dataLeft) == 0 {
		return TokenEOF
	}

	length, tokenType, terminated := extractToken(lx.dataLeft)
	result := Token{
		Type:         tokenType,
		Location:     lx.cursor,
		Content:      string(lx.dataLeft[:length]),
		Unterminated: !terminated,
	}

	lx.dataLeft = lx.dataLeft[length:]
	lx.cursor = lx.cursor.AdvancedBy(result.Content)
	return result
}

// Return all tokens extracted from the input data.
func (lx *Lexer) Tokenize() []Token {
	var tokens []Token
	for len(lx.dataLeft) > 0 {
		tokens = append(tokens, lx.NextToken())
	}
	return tokens
}
