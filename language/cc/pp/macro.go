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
	"fmt"
	"slices"
	"strings"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
	"github.com/EngFlow/ccsnapshot/language/internal/cc/parser"
)

// Macro is a single macro definition, as created by one #define directive (or recorded by #undef, in which case the
// macro is hidden). Macros are values: a redefinition creates a new Macro, and copies can be stamped with the revision
// of the file that defined them.
type Macro struct {
	name           string
	definitionText string
	definition     []lexer.Token
	formals        []string

	fileName     string
	fileRevision int
	line         int

	bytesOffset int
	length      int
	utf16Offset int
	utf16Length int

	hidden       bool
	functionLike bool
	variadic     bool

	// previous definition of the same name, linked by the Environment
	next *Macro
}

// NewMacro builds a macro from the text following `#define`, e.g. "MAX(a, b) ((a) > (b) ? (a) : (b))".
func NewMacro(definition string) (Macro, error) {
	tokens := lexer.NewLexer([]byte("define " + definition)).Tokenize()
	directive, err := parser.ParseDirective(tokens)
	if err != nil {
		return Macro{}, err
	}
	define, ok := directive.(parser.DefineDirective)
	if !ok {
		return Macro{}, fmt.Errorf("not a macro definition: %q", definition)
	}
	return macroFromDirective(define, strings.TrimSpace(definition)), nil
}

func macroFromDirective(define parser.DefineDirective, definitionText string) Macro {
	var body []lexer.Token
	for _, token := range define.Body {
		if token.Type.IsBlank() {
			// blanks collapse to a single space
			if len(body) == 0 || body[len(body)-1].Type != lexer.TokenType_Whitespace {
				body = append(body, lexer.Token{Type: lexer.TokenType_Whitespace, Location: token.Location, Content: " "})
			}
			continue
		}
		body = append(body, token)
	}
	return Macro{
		name:           define.Name.Content,
		definitionText: definitionText,
		definition:     body,
		formals:        define.Params,
		line:           define.Name.Location.Line,
		bytesOffset:    define.Name.Location.Offset,
		length:         len(define.Name.Content),
		utf16Offset:    define.Name.Location.UTF16Offset,
		utf16Length:    lexer.UTF16Len(define.Name.Content),
		functionLike:   define.FunctionLike,
		variadic:       define.Variadic,
	}
}

func (m Macro) Name() string { return m.name }

// DefinitionText is the source text of the definition, starting at the macro name, e.g. "TWO 2".
func (m Macro) DefinitionText() string { return m.definitionText }

// DefinitionTokens returns the replacement list. Whitespace between tokens is kept as single whitespace tokens.
func (m Macro) DefinitionTokens() []lexer.Token { return slices.Clone(m.definition) }

// Formals returns parameter names. The variadic parameter `...` is named __VA_ARGS__.
func (m Macro) Formals() []string { return slices.Clone(m.formals) }

func (m Macro) FileName() string  { return m.fileName }
func (m Macro) FileRevision() int { return m.fileRevision }
func (m Macro) Line() int         { return m.line }

// BytesOffset and Length locate the macro name of the #define in its file.
func (m Macro) BytesOffset() int { return m.bytesOffset }
func (m Macro) Length() int      { return m.length }
func (m Macro) UTF16Offset() int { return m.utf16Offset }
func (m Macro) UTF16Length() int { return m.utf16Length }

func (m Macro) IsHidden() bool       { return m.hidden }
func (m Macro) IsFunctionLike() bool { return m.functionLike }
func (m Macro) IsVariadic() bool     { return m.variadic }

// WithFileRevision returns a copy of the macro stamped with the given revision of its defining file.
func (m Macro) WithFileRevision(revision int) Macro {
	m.fileRevision = revision
	return m
}

// WithFileName returns a copy of the macro attributed to the given file.
func (m Macro) WithFileName(fileName string) Macro {
	m.fileName = fileName
	return m
}

func (m Macro) hasFormal(name string) bool {
	return slices.Contains(m.formals, name)
}

// String renders the macro as a directive, e.g. "#define MAX(a, b) ((a) > (b) ? (a) : (b))".
func (m Macro) String() string {
	if m.hidden {
		return "#undef " + m.name
	}
	var sb strings.Builder
	sb.WriteString("#define ")
	sb.WriteString(m.name)
	if m.functionLike {
		formals := slices.Clone(m.formals)
		if m.variadic && len(formals) > 0 {
			if last := formals[len(formals)-1]; last == "__VA_ARGS__" {
				formals[len(formals)-1] = "..."
			} else {
				formals[len(formals)-1] = last + "..."
			}
		}
		sb.WriteString("(" + strings.Join(formals, ", ") + ")")
	}
	if body := m.body(); body != "" {
		sb.WriteString(" ")
		sb.WriteString(body)
	}
	return sb.String()
}

func (m Macro) body() string {
	var sb strings.Builder
	for _, token := range m.definition {
		sb.WriteString(token.Content)
	}
	return strings.TrimSpace(sb.String())
}

// Equal reports whether both macros have the same definition: name, kind, parameters and replacement list, with
// whitespace separations compared by presence only. Locations and revisions are ignored.
func (m Macro) Equal(other Macro) bool {
	return m.name == other.name &&
		m.hidden == other.hidden &&
		m.functionLike == other.functionLike &&
		m.variadic == other.variadic &&
		slices.Equal(m.formals, other.formals) &&
		m.body() == other.body()
}
