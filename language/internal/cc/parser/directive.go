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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
)

type (
	// Directive represents a single preprocessor directive line in a C/C++ source file.
	// Token slices stored in directives keep blank tokens, so spacing can be reproduced.
	Directive interface {
		fmt.Stringer
	}
	// IncludeDirective represents a `#include`, `#include_next` or `#import` preprocessor directive.
	// If IsSystem is true, angle brackets were used (<...>), otherwise quotes ("...").
	// A computed include (`#include MACRO`) has an empty Path and the operand tokens in Tokens; it must be macro
	// expanded and passed to ParseHeaderName.
	IncludeDirective struct {
		Kind     IncludeKind
		Path     string        // Path of the included file
		IsSystem bool          // True if system include (angle brackets), false if user include (quotes)
		Tokens   []lexer.Token // Operand of a computed include
	}
	// DefineDirective represents a `#define` preprocessor directive, including
	// the macro name, parameters and replacement tokens.
	DefineDirective struct {
		Name         lexer.Token   // Identifier token of the macro name
		FunctionLike bool          // Parameter list present, possibly empty
		Params       []string      // Names of parameters; `...` is stored as __VA_ARGS__
		Variadic     bool          // Last parameter is variadic
		Body         []lexer.Token // Replacement list, without leading and trailing blanks
	}
	// UndefineDirective represents a `#undef` preprocessor directive i.e., the removal of a macro definition.
	UndefineDirective struct {
		Name lexer.Token // Identifier token of the macro to undefine
	}
	// ConditionalDirective represents one line of a conditional block: #if, #ifdef, #ifndef, #elif, #elifdef,
	// #elifndef, #else or #endif.
	ConditionalDirective struct {
		Keyword   string        // Directive name, e.g. "ifdef"
		Kind      BranchKind    // The branch type (If, Elif, Else, End)
		Name      lexer.Token   // Macro tested by the #ifdef family
		Condition []lexer.Token // Unexpanded condition of #if / #elif
	}
	// LineDirective represents `#line N "file"` or the GNU line marker `# N "file"`. Operands are unexpanded.
	LineDirective struct {
		Tokens []lexer.Token
	}
	// PragmaDirective represents `#pragma`. Tokens are the unexpanded operands.
	PragmaDirective struct {
		Tokens []lexer.Token
	}
	// DiagnosticDirective represents `#error` and `#warning`.
	DiagnosticDirective struct {
		IsError bool
		Message string
	}
	// NullDirective is a lone `#` on a line.
	NullDirective struct{}
	// UnknownDirective represents any other directive, e.g. `#ident` or `#assert`.
	UnknownDirective struct {
		Name string
	}
	// BranchKind identifies which kind of branch in a conditional preprocessor block.
	BranchKind int
	// IncludeKind identifies which flavour of the include directive was used.
	IncludeKind int
)

const (
	IfBranch   BranchKind = iota // #if, #ifdef, #ifndef
	ElifBranch                   // #elif, #elifdef, #elifndef
	ElseBranch                   // #else
	EndBranch                    // #endif
)

const (
	Include     IncludeKind = iota // #include
	IncludeNext                    // #include_next
	Import                         // #import
)

func (k IncludeKind) String() string {
	switch k {
	case IncludeNext:
		return "include_next"
	case Import:
		return "import"
	default:
		return "include"
	}
}

func tokensString(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, token := range tokens {
		sb.WriteString(token.Content)
	}
	return strings.TrimSpace(sb.String())
}

func (d IncludeDirective) String() string {
	switch {
	case d.Path == "":
		return fmt.Sprintf("#%s %s", d.Kind, tokensString(d.Tokens))
	case d.IsSystem:
		return fmt.Sprintf("#%s <%s>", d.Kind, d.Path)
	default:
		return fmt.Sprintf("#%s \"%s\"", d.Kind, d.Path)
	}
}
func (d DefineDirective) String() string {
	name := d.Name.Content
	if d.FunctionLike {
		params := slices.Clone(d.Params)
		if d.Variadic && len(params) > 0 {
			if last := params[len(params)-1]; last == "__VA_ARGS__" {
				params[len(params)-1] = "..."
			} else {
				params[len(params)-1] = last + "..."
			}
		}
		name += "(" + strings.Join(params, ", ") + ")"
	}
	return strings.TrimSpace(fmt.Sprintf("#define %s %s", name, tokensString(d.Body)))
}
func (d UndefineDirective) String() string { return fmt.Sprintf("#undef %s", d.Name.Content) }
func (d ConditionalDirective) String() string {
	switch {
	case d.Name.Content != "":
		return fmt.Sprintf("#%s %s", d.Keyword, d.Name.Content)
	case len(d.Condition) > 0:
		return fmt.Sprintf("#%s %s", d.Keyword, tokensString(d.Condition))
	default:
		return "#" + d.Keyword
	}
}
func (d LineDirective) String() string   { return "#line " + tokensString(d.Tokens) }
func (d PragmaDirective) String() string { return strings.TrimSpace("#pragma " + tokensString(d.Tokens)) }
func (d DiagnosticDirective) String() string {
	if d.IsError {
		return "#error " + d.Message
	}
	return "#warning " + d.Message
}
func (NullDirective) String() string      { return "#" }
func (d UnknownDirective) String() string { return "#" + d.Name }

// line is a cursor over the tokens of a single directive line.
type line struct {
	tokens []lexer.Token
}

// Skip blank tokens and return the next significant token without consuming it.
func (l *line) peek() lexer.Token {
	for len(l.tokens) > 0 && l.tokens[0].Type.IsBlank() {
		l.tokens = l.tokens[1:]
	}
	if len(l.tokens) == 0 {
		return lexer.TokenEOF
	}
	return l.tokens[0]
}

func (l *line) next() lexer.Token {
	token := l.peek()
	if token != lexer.TokenEOF {
		l.tokens = l.tokens[1:]
	}
	return token
}

// Remaining tokens with leading and trailing blanks removed.
func (l *line) rest() []lexer.Token {
	l.peek()
	return trimBlanks(l.tokens)
}

func trimBlanks(tokens []lexer.Token) []lexer.Token {
	start, end := 0, len(tokens)
	for start < end && tokens[start].Type.IsBlank() {
		start++
	}
	for end > start && tokens[end-1].Type.IsBlank() {
		end--
	}
	return tokens[start:end]
}

// ParseDirective parses a directive line. Tokens start right after the introducing `#` and end before the newline;
// line continuations may appear anywhere and are treated as blanks.
//
// The returned error describes a malformed directive. A directive value may still be returned alongside the error
// when the directive kind was recognised (e.g. a #define with a bad parameter list), so callers can report and skip.
func ParseDirective(tokens []lexer.Token) (Directive, error) {
	l := &line{tokens: tokens}
	keyword := l.next()
	switch keyword.Type {
	case lexer.TokenType_EOF:
		return NullDirective{}, nil
	case lexer.TokenType_Number:
		// GNU line marker: # 33 "file.c" 1
		return LineDirective{Tokens: trimBlanks(append([]lexer.Token{keyword}, l.tokens...))}, nil
	case lexer.TokenType_Identifier:
	default:
		return UnknownDirective{Name: keyword.Content}, fmt.Errorf("invalid preprocessing directive #%s", keyword.Content)
	}

	switch keyword.Content {
	case "define":
		return parseDefineDirective(l)
	case "undef":
		return parseUndefineDirective(l)
	case "include":
		return parseIncludeDirective(l, Include)
	case "include_next":
		return parseIncludeDirective(l, IncludeNext)
	case "import":
		return parseIncludeDirective(l, Import)
	case "if", "elif":
		directive := ConditionalDirective{Keyword: keyword.Content, Kind: branchKind(keyword.Content), Condition: l.rest()}
		if len(directive.Condition) == 0 {
			return directive, fmt.Errorf("#%s with no expression", keyword.Content)
		}
		return directive, nil
	case "ifdef", "ifndef", "elifdef", "elifndef":
		directive := ConditionalDirective{Keyword: keyword.Content, Kind: branchKind(keyword.Content)}
		name := l.next()
		if name.Type != lexer.TokenType_Identifier {
			return directive, fmt.Errorf("macro name missing in #%s", keyword.Content)
		}
		directive.Name = name
		if extra := l.peek(); extra != lexer.TokenEOF {
			return directive, fmt.Errorf("extra tokens at end of #%s directive", keyword.Content)
		}
		return directive, nil
	case "else", "endif":
		directive := ConditionalDirective{Keyword: keyword.Content, Kind: branchKind(keyword.Content)}
		if extra := l.peek(); extra != lexer.TokenEOF {
			return directive, fmt.Errorf("extra tokens at end of #%s directive", keyword.Content)
		}
		return directive, nil
	case "line":
		return LineDirective{Tokens: l.rest()}, nil
	case "pragma":
		return PragmaDirective{Tokens: l.rest()}, nil
	case "error", "warning":
		return DiagnosticDirective{IsError: keyword.Content == "error", Message: messageText(l.rest())}, nil
	default:
		return UnknownDirective{Name: keyword.Content}, nil
	}
}

func branchKind(keyword string) BranchKind {
	switch keyword {
	case "if", "ifdef", "ifndef":
		return IfBranch
	case "elif", "elifdef", "elifndef":
		return ElifBranch
	case "else":
		return ElseBranch
	default:
		return EndBranch
	}
}

// Text of #error / #warning with comments and line continuations collapsed to single spaces.
func messageText(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, token := range tokens {
		if token.Type.IsBlank() {
			if !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteString(token.Content)
	}
	return strings.TrimSpace(sb.String())
}

// parseIncludeDirective parses an #include, #include_next or #import directive, extracting its path and kind
// (system/user).
func parseIncludeDirective(l *line, kind IncludeKind) (Directive, error) {
	operand := l.rest()
	directive := IncludeDirective{Kind: kind}
	if len(operand) == 0 {
		return directive, fmt.Errorf("#%s expects \"FILENAME\" or <FILENAME>", kind)
	}
	if operand[0].Type == lexer.TokenType_Identifier {
		directive.Tokens = operand
		return directive, nil
	}
	path, isSystem, err := ParseHeaderName(operand)
	if err != nil {
		return directive, fmt.Errorf("#%s: %w", kind, err)
	}
	directive.Path, directive.IsSystem = path, isSystem
	return directive, nil
}

// ErrMalformedHeaderName is returned by ParseHeaderName when the tokens do not form "FILENAME" or <FILENAME>.
var ErrMalformedHeaderName = errors.New(`expects "FILENAME" or <FILENAME>`)

// ParseHeaderName extracts the file name from the operand of an include directive: either a single string literal,
// or everything between `<` and the first `>` taken verbatim. Tokens after the header name are ignored.
func ParseHeaderName(tokens []lexer.Token) (path string, isSystem bool, err error) {
	tokens = trimBlanks(tokens)
	if len(tokens) == 0 {
		return "", false, ErrMalformedHeaderName
	}
	switch first := tokens[0]; {
	case first.Type == lexer.TokenType_LiteralString:
		if first.Unterminated || !strings.HasPrefix(first.Content, `"`) || len(first.Content) < 2 {
			return "", false, ErrMalformedHeaderName
		}
		path = first.Content[1 : len(first.Content)-1]
		if path == "" {
			return "", false, errors.New("empty filename")
		}
		return path, false, nil
	case first.Is("<"):
		var sb strings.Builder
		for _, token := range tokens[1:] {
			if token.Is(">") {
				if sb.Len() == 0 {
					return "", false, errors.New("empty filename")
				}
				return sb.String(), true, nil
			}
			sb.WriteString(token.Content)
		}
		return "", false, errors.New("missing terminating > character")
	default:
		return "", false, ErrMalformedHeaderName
	}
}

// parseUndefineDirective parses a #undef directive and its macro name.
func parseUndefineDirective(l *line) (Directive, error) {
	name := l.next()
	switch {
	case name.Type == lexer.TokenType_EOF:
		return UndefineDirective{}, errors.New("macro name missing in #undef")
	case name.Type != lexer.TokenType_Identifier:
		return UndefineDirective{}, errors.New("macro names must be identifiers")
	}
	directive := UndefineDirective{Name: name}
	if extra := l.peek(); extra != lexer.TokenEOF {
		return directive, errors.New("extra tokens at end of #undef directive")
	}
	return directive, nil
}

// parseDefineDirective parses a #define directive, capturing the macro name, parameters and body tokens.
func parseDefineDirective(l *line) (Directive, error) {
	var directive DefineDirective
	name := l.next()
	switch {
	case name.Type == lexer.TokenType_EOF:
		return directive, errors.New("macro name missing")
	case name.Type != lexer.TokenType_Identifier:
		return directive, errors.New("macro names must be identifiers")
	case name.Content == "defined":
		return directive, errors.New(`"defined" cannot be used as a macro name`)
	}
	directive.Name = name

	// A function-like macro requires '(' immediately after the name, without whitespace.
	if len(l.tokens) > 0 && l.tokens[0].Is("(") {
		l.next()
		directive.FunctionLike = true
		if err := parseDefineParams(l, &directive); err != nil {
			return directive, err
		}
	}

	directive.Body = l.rest()
	return directive, validateDefineBody(directive)
}

func parseDefineParams(l *line, directive *DefineDirective) error {
	expectParam := true
	for {
		token := l.next()
		switch {
		case token.Type == lexer.TokenType_EOF:
			return errors.New("missing ')' in macro parameter list")
		case token.Is(")") && (!expectParam || len(directive.Params) == 0):
			return nil
		case directive.Variadic:
			return errors.New("missing ')' after \"...\"")
		case expectParam && token.Is("..."):
			directive.Params = append(directive.Params, "__VA_ARGS__")
			directive.Variadic = true
			expectParam = false
		case expectParam && token.Type == lexer.TokenType_Identifier:
			if slices.Contains(directive.Params, token.Content) {
				return fmt.Errorf("duplicate macro parameter %q", token.Content)
			}
			if token.Content == "__VA_ARGS__" {
				return errors.New("__VA_ARGS__ can not be used as a parameter name")
			}
			directive.Params = append(directive.Params, token.Content)
			if l.peek().Is("...") {
				l.next()
				directive.Variadic = true
			}
			expectParam = false
		case !expectParam && token.Is(","):
			expectParam = true
		default:
			return fmt.Errorf("%q may not appear in macro parameter list", token.Content)
		}
	}
}

func validateDefineBody(directive DefineDirective) error {
	body := directive.Body
	if len(body) == 0 {
		return nil
	}
	if body[0].Is("##") || body[len(body)-1].Is("##") {
		return errors.New("'##' cannot appear at either end of a macro expansion")
	}
	if !directive.FunctionLike {
		return nil
	}
	for i, token := range body {
		if !token.Is("#") {
			continue
		}
		next := (&line{tokens: body[i+1:]}).peek()
		if next.Type != lexer.TokenType_Identifier || !isParam(directive, next.Content) {
			return errors.New("'#' is not followed by a macro parameter")
		}
	}
	return nil
}

func isParam(directive DefineDirective, name string) bool {
	if slices.Contains(directive.Params, name) {
		return true
	}
	return directive.Variadic && (name == "__VA_ARGS__" || name == "__VA_OPT__")
}
