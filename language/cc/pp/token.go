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

package pp

import (
	"strings"

	"github.com/EngFlow/ccsnapshot/internal/collections"
	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
)

// ppToken is a token flowing through macro expansion.
type ppToken struct {
	lexer.Token

	// Preceded by whitespace; blanks themselves never enter the expansion stream.
	space bool
	// Output line. Tokens produced by an expansion are placed on the line of the invocation.
	line int
	// Names of the macros whose expansion produced this token. A name in its own hideset is never expanded again.
	hideset collections.Set[string]
	// Produced by an expansion, so Location does not point into the source being preprocessed.
	generated bool
	// Empty argument marker used while pasting; removed before rescanning.
	placemarker bool
}

func (t ppToken) isIdentifier() bool {
	return t.Type == lexer.TokenType_Identifier && !t.placemarker
}

var placemarker = ppToken{Token: lexer.Token{Type: lexer.TokenType_Unassigned}, placemarker: true, generated: true}

// streamTokens converts lexer tokens into expansion tokens. Blanks become the space flag of the following token.
// Comments are kept as tokens only when keepComments is set.
func streamTokens(tokens []lexer.Token, keepComments bool) []ppToken {
	var result []ppToken
	space := false
	for _, token := range tokens {
		switch {
		case token.Type.IsComment() && keepComments:
			result = append(result, ppToken{Token: token, space: space, line: token.Location.Line})
			space = true
		case token.Type.IsBlank() || token.Type == lexer.TokenType_Newline:
			space = true
		default:
			result = append(result, ppToken{Token: token, space: space, line: token.Location.Line})
			space = false
		}
	}
	return result
}

// lexerTokens strips expansion state.
func lexerTokens(tokens []ppToken) []lexer.Token {
	return collections.MapSlice(tokens, func(token ppToken) lexer.Token { return token.Token })
}

func significant(tokens []ppToken) []ppToken {
	return collections.FilterSlice(tokens, func(token ppToken) bool { return !token.Type.IsComment() })
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// stringify implements the `#` operator: the spelling of the argument with whitespace between tokens collapsed to a
// single space, as a string literal.
func stringify(arg []ppToken) string {
	var sb strings.Builder
	sb.WriteByte('"')
	first := true
	for _, token := range significant(arg) {
		if token.placemarker {
			continue
		}
		if token.space && !first {
			sb.WriteByte(' ')
		}
		first = false
		if token.Type == lexer.TokenType_LiteralString || token.Type == lexer.TokenType_LiteralChar {
			sb.WriteString(literalEscaper.Replace(token.Content))
		} else {
			sb.WriteString(token.Content)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// pasteTokens implements the `##` operator. The result must lex as exactly one preprocessing token.
func pasteTokens(left, right ppToken) (ppToken, bool) {
	spelling := left.Content + right.Content
	tokens := lexer.NewLexer([]byte(spelling)).Tokenize()
	if len(tokens) != 1 || tokens[0].Type.IsBlank() || tokens[0].Unterminated {
		return ppToken{}, false
	}
	result := left
	result.Type = tokens[0].Type
	result.Content = spelling
	result.hideset = left.hideset.Intersect(right.hideset)
	result.generated = true
	return result, true
}

// looksLikeMacro reports whether an identifier is spelled like a macro name: upper-case letters, digits and
// underscores, with at least two characters and one letter.
func looksLikeMacro(name string) bool {
	letters := 0
	for _, char := range name {
		switch {
		case char >= 'A' && char <= 'Z':
			letters++
		case char == '_' || (char >= '0' && char <= '9'):
		default:
			return false
		}
	}
	return letters > 0 && len(name) >= 2
}
