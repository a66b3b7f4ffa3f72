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
	"strconv"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
	"github.com/EngFlow/ccsnapshot/language/internal/cc/parser"
)

// Directives accepted silently in active code.
var ignoredDirectives = map[string]bool{
	"ident":    true,
	"sccs":     true,
	"assert":   true,
	"unassert": true,
}

func isConditionalKeyword(keyword string) bool {
	switch keyword {
	case "if", "ifdef", "ifndef", "elif", "elifdef", "elifndef", "else", "endif":
		return true
	}
	return false
}

func (s *runState) handleDirective(line sourceLine) {
	hash, tokens := line.directiveTokens()
	keyword := ""
	if operands := streamTokens(tokens, false); len(operands) > 0 {
		keyword = operands[0].Content
	}
	if isConditionalKeyword(keyword) {
		s.handleConditional(line, hash, keyword, tokens)
		return
	}
	if s.skipping {
		return
	}

	s.reportLexical(line)
	directive, err := parser.ParseDirective(tokens)
	if define, ok := directive.(parser.DefineDirective); ok && err == nil {
		s.guard.define(define.Name.Content)
	} else {
		s.guard.directive()
	}
	if err != nil {
		s.diagnoseLexer(Error, hash, err.Error())
		return
	}

	switch d := directive.(type) {
	case parser.DefineDirective:
		s.define(line, d)
	case parser.UndefineDirective:
		s.undefine(d)
	case parser.IncludeDirective:
		s.include(line, hash, d)
	case parser.LineDirective:
		s.lineDirective(line, hash, d)
	case parser.PragmaDirective:
		s.pragma(line, d)
	case parser.DiagnosticDirective:
		if d.IsError {
			s.diagnoseLexer(Error, hash, "#error "+d.Message)
		} else {
			s.diagnoseLexer(Warning, hash, "#warning "+d.Message)
		}
	case parser.UnknownDirective:
		if !ignoredDirectives[d.Name] {
			s.diagnoseLexer(Warning, hash, fmt.Sprintf("invalid preprocessing directive #%s", d.Name))
		}
	}
}

// handleConditional tracks the nesting of conditional blocks and decides which branches are active. In skipped
// regions only the balance of nested blocks is tracked; their conditions are never parsed nor evaluated.
func (s *runState) handleConditional(line sourceLine, hash lexer.Token, keyword string, tokens []lexer.Token) {
	var top *conditional
	if len(s.conditionals) > 0 {
		top = &s.conditionals[len(s.conditionals)-1]
	}

	switch branchOf(keyword) {
	case parser.IfBranch:
		if s.skipping {
			s.conditionals = append(s.conditionals, conditional{keyword: keyword, line: line.start.Line, parentSkipping: true})
			return
		}
		s.reportLexical(line)
		value := s.evaluate(hash, tokens)
		s.conditionals = append(s.conditionals, conditional{keyword: keyword, line: line.start.Line, taken: value})
		s.guard.open(keyword, tokens, value, len(s.conditionals))
		s.setSkipping(!value, line)

	case parser.ElifBranch:
		switch {
		case top == nil:
			s.diagnoseLexer(Error, hash, fmt.Sprintf("#%s without #if", keyword))
			return
		case top.parentSkipping:
			return
		case top.sawElse:
			s.diagnoseLexer(Error, hash, fmt.Sprintf("#%s after #else", keyword))
			s.setSkipping(true, line)
			return
		}
		s.guard.branch(len(s.conditionals))
		if top.taken {
			s.setSkipping(true, line)
			return
		}
		value := s.evaluate(hash, tokens)
		top.taken = value
		s.setSkipping(!value, line)

	case parser.ElseBranch:
		switch {
		case top == nil:
			s.diagnoseLexer(Error, hash, "#else without #if")
			return
		case top.parentSkipping:
			return
		case top.sawElse:
			s.diagnoseLexer(Error, hash, "#else after #else")
			s.setSkipping(true, line)
			return
		}
		s.guard.branch(len(s.conditionals))
		top.sawElse = true
		s.setSkipping(top.taken, line)
		top.taken = true

	case parser.EndBranch:
		if top == nil {
			s.diagnoseLexer(Error, hash, "#endif without #if")
			return
		}
		s.guard.close(len(s.conditionals))
		s.conditionals = s.conditionals[:len(s.conditionals)-1]
		if !top.parentSkipping {
			s.setSkipping(false, line)
		}
	}
}

func branchOf(keyword string) parser.BranchKind {
	switch keyword {
	case "if", "ifdef", "ifndef":
		return parser.IfBranch
	case "elif", "elifdef", "elifndef":
		return parser.ElifBranch
	case "else":
		return parser.ElseBranch
	default:
		return parser.EndBranch
	}
}

// setSkipping reports transitions between active and skipped code. A skipped block starts after the directive line
// that opens it and ends where the directive closing it begins.
func (s *runState) setSkipping(skipping bool, line sourceLine) {
	if skipping == s.skipping {
		return
	}
	s.skipping = skipping
	if skipping {
		s.client.StartSkippingBlocks(line.end.Offset, line.end.UTF16Offset)
	} else {
		s.client.StopSkippingBlocks(line.start.Offset, line.start.UTF16Offset)
	}
}

// evaluate computes the condition of #if, #elif and the #ifdef family. Malformed conditions are reported and false.
func (s *runState) evaluate(hash lexer.Token, tokens []lexer.Token) bool {
	directive, err := parser.ParseDirective(tokens)
	if err != nil {
		s.diagnoseLexer(Error, hash, err.Error())
		return false
	}
	d := directive.(parser.ConditionalDirective)
	switch d.Keyword {
	case "ifdef", "elifdef":
		return s.checkDefined(d.Name)
	case "ifndef", "elifndef":
		return !s.checkDefined(d.Name)
	}

	expanded := s.expandOperand(s.resolveDefined(streamTokens(d.Condition, false)))
	s.reportUndefinedIdentifiers(expanded)
	value, err := parser.EvalCondition(lexerTokens(expanded), s.env)
	if err != nil {
		s.diagnoseLexer(Error, hash, fmt.Sprintf("#%s: %v", d.Keyword, err))
		return false
	}
	return value
}

// checkDefined answers `defined NAME` and reports the check to the client. Built-in macros and `__has_include`-like
// operators count as defined.
func (s *runState) checkDefined(name lexer.Token) bool {
	macro, defined := s.env.Lookup(name.Content)
	switch {
	case defined:
		s.client.PassedMacroDefinitionCheck(name.Location.Offset, name.Location.UTF16Offset, name.Location.Line, macro)
		return true
	case isBuiltin(name.Content) || parser.IsProbeOperator(name.Content):
		return true
	default:
		s.client.FailedMacroDefinitionCheck(name.Location.Offset, name.Location.UTF16Offset, name.Content)
		return false
	}
}

// resolveDefined replaces `defined NAME` and `defined(NAME)` by 1 or 0 before the condition is expanded, so that
// the operand is never replaced by its own expansion. Malformed uses are kept for the expression parser to report.
func (s *runState) resolveDefined(tokens []ppToken) []ppToken {
	var result []ppToken
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if !token.isIdentifier() || token.Content != "defined" {
			result = append(result, token)
			continue
		}
		j := i + 1
		parens := j < len(tokens) && tokens[j].Is("(")
		if parens {
			j++
		}
		if j >= len(tokens) || !tokens[j].isIdentifier() {
			result = append(result, token)
			continue
		}
		name := tokens[j]
		j++
		if parens {
			if j >= len(tokens) || !tokens[j].Is(")") {
				result = append(result, token)
				continue
			}
			j++
		}
		value := "0"
		if s.checkDefined(name.Token) {
			value = "1"
		}
		token.Type, token.Content = lexer.TokenType_Number, value
		result = append(result, token)
		i = j - 1
	}
	return result
}

// reportUndefinedIdentifiers reports identifiers left in an expanded condition, which evaluate to 0. Operands of
// `__has_include`-like operators are not identifiers of the condition.
func (s *runState) reportUndefinedIdentifiers(tokens []ppToken) {
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		switch {
		case !token.isIdentifier():
		case parser.IsProbeOperator(token.Content):
			if i+1 >= len(tokens) || !tokens[i+1].Is("(") {
				continue
			}
			depth := 0
			for i+1 < len(tokens) {
				i++
				if tokens[i].Is("(") {
					depth++
				} else if tokens[i].Is(")") {
					depth--
					if depth <= 0 {
						break
					}
				}
			}
		case token.generated, token.Content == "defined", token.Content == "true", token.Content == "false":
		default:
			s.client.FailedMacroDefinitionCheck(token.Location.Offset, token.Location.UTF16Offset, token.Content)
		}
	}
}

func (s *runState) define(line sourceLine, d parser.DefineDirective) {
	start := d.Name.Location.Offset
	end := d.Name.End().Offset
	if last, ok := line.lastSignificant(); ok {
		end = last.End().Offset
	}
	macro := macroFromDirective(d, string(s.source[start:end]))
	macro.fileName = s.fileName

	if previous, exists := s.env.Lookup(macro.name); exists && !previous.Equal(macro) {
		s.diagnoseLexer(Warning, d.Name, fmt.Sprintf("%q redefined", macro.name))
	}
	s.env.AddMacro(macro)
	s.client.MacroAdded(macro)
}

func (s *runState) undefine(d parser.UndefineDirective) {
	name := d.Name
	if macro, defined := s.env.Lookup(name.Content); defined {
		s.client.NotifyMacroReference(name.Location.Offset, name.Location.UTF16Offset, name.Location.Line, macro)
	}
	hidden := s.env.Remove(name.Content)
	s.client.MacroAdded(hidden)
}

func (s *runState) include(line sourceLine, hash lexer.Token, d parser.IncludeDirective) {
	path, isSystem := d.Path, d.IsSystem
	if path == "" {
		expanded := s.expandOperand(streamTokens(d.Tokens, false))
		var err error
		if path, isSystem, err = parser.ParseHeaderName(lexerTokens(expanded)); err != nil {
			s.diagnoseLexer(Error, hash, fmt.Sprintf("#%s %v", d.Kind, err))
			return
		}
	}

	mode := IncludeLocal
	switch {
	case d.Kind == parser.IncludeNext:
		mode = IncludeNext
	case isSystem:
		mode = IncludeGlobal
	}
	if s.pp.depth >= s.pp.maxIncludeDepth {
		s.diagnoseLexer(Error, hash, fmt.Sprintf("include depth exceeded: %q nested more than %d levels", path, s.pp.maxIncludeDepth))
		return
	}

	s.pp.depth++
	s.client.SourceNeeded(line.start.Line, path, mode, nil)
	s.pp.depth--
}

// lineDirective handles `#line N "file"` and GNU line markers. N becomes the line number of the next source line.
func (s *runState) lineDirective(line sourceLine, hash lexer.Token, d parser.LineDirective) {
	operands := s.expandOperand(streamTokens(d.Tokens, false))
	if len(operands) == 0 || operands[0].Type != lexer.TokenType_Number {
		s.diagnoseLexer(Error, hash, "#line directive requires a simple digit sequence")
		return
	}
	number, err := strconv.Atoi(operands[0].Content)
	if err != nil || number < 0 {
		s.diagnoseLexer(Error, hash, fmt.Sprintf("%q after #line is not a positive integer", operands[0].Content))
		return
	}
	s.lineDelta = number - line.end.Line
	if len(operands) > 1 {
		name := operands[1]
		if name.Type != lexer.TokenType_LiteralString || name.Unterminated || len(name.Content) < 2 {
			s.diagnoseLexer(Error, hash, fmt.Sprintf("invalid filename %s", name.Content))
			return
		}
		if unquoted, err := strconv.Unquote(name.Content); err == nil {
			s.env.CurrentFile = unquoted
		} else {
			s.env.CurrentFile = name.Content[1 : len(name.Content)-1]
		}
	}
}

func (s *runState) pragma(line sourceLine, d parser.PragmaDirective) {
	var words []string
	for _, token := range streamTokens(d.Tokens, false) {
		words = append(words, token.Content)
	}
	if len(words) == 1 && words[0] == "once" {
		s.client.MarkAsIncludeGuard(PragmaOnceGuard)
	}
	if client, ok := s.client.(PragmaClient); ok {
		client.PragmaSeen(Pragma{Tokens: words, Line: line.start.Line})
	}
}

type guardState int

const (
	guardExpected guardState = iota // nothing significant seen yet
	guardOpened                     // #ifndef G seen, #define G expected
	guardDefined                    // inside the guarded block
	guardClosed                     // matching #endif seen
	guardNone
)

// includeGuard recognizes the include guard idiom: the first directive is `#ifndef G` (or `#if !defined(G)`), the
// next one `#define G`, and the matching `#endif` is the last significant token of the file.
type includeGuard struct {
	state guardState
	name  string
	depth int
}

func (g *includeGuard) open(keyword string, tokens []lexer.Token, value bool, depth int) {
	if g.state != guardExpected {
		g.directive()
		return
	}
	name, ok := guardName(keyword, tokens)
	if !ok {
		g.state = guardNone
		return
	}
	g.name, g.depth = name, depth
	g.state = guardOpened
	if !value {
		// Already defined: the #define is in the skipped block.
		g.state = guardDefined
	}
}

func guardName(keyword string, tokens []lexer.Token) (string, bool) {
	operands := streamTokens(tokens, false)
	if len(operands) == 0 {
		return "", false
	}
	operands = operands[1:]
	switch {
	case keyword == "ifndef" && len(operands) == 1 && operands[0].isIdentifier():
		return operands[0].Content, true
	case keyword != "if" || len(operands) < 3 || !operands[0].Is("!") || operands[1].Content != "defined":
		return "", false
	case len(operands) == 3 && operands[2].isIdentifier():
		return operands[2].Content, true
	case len(operands) == 5 && operands[2].Is("(") && operands[3].isIdentifier() && operands[4].Is(")"):
		return operands[3].Content, true
	}
	return "", false
}

func (g *includeGuard) define(name string) {
	if g.state == guardOpened && name == g.name {
		g.state = guardDefined
		return
	}
	g.directive()
}

func (g *includeGuard) directive() {
	if g.state != guardDefined {
		g.state = guardNone
	}
}

func (g *includeGuard) text() {
	if g.state != guardDefined {
		g.state = guardNone
	}
}

func (g *includeGuard) branch(depth int) {
	if depth == g.depth {
		g.state = guardNone
	}
}

func (g *includeGuard) close(depth int) {
	switch {
	case g.state == guardDefined && depth == g.depth:
		g.state = guardClosed
	case g.state != guardDefined:
		g.state = guardNone
	}
}

func (g *includeGuard) result() (string, bool) {
	return g.name, g.state == guardClosed
}
