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

// Package pp implements the C/C++ preprocessor: directive handling, conditional compilation and macro expansion.
//
// The Preprocessor does not read files. Everything it learns is reported to a Client, which is also asked for
// included files and may preprocess them with the same Preprocessor, sharing the macro Environment.
package pp

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
)

// DefaultMaxIncludeDepth bounds the nesting of #include.
const DefaultMaxIncludeDepth = 200

type Preprocessor struct {
	client Client
	env    *Environment

	expandFunctionLikeMacros bool
	keepComments             bool
	maxIncludeDepth          int
	initialIncludes          []string

	depth   int
	counter int
	now     func() time.Time
}

// New creates a preprocessor reporting to client and defining macros in env. Nil arguments are replaced by a NopClient
// and an empty Environment.
func New(client Client, env *Environment) *Preprocessor {
	if client == nil {
		client = NopClient{}
	}
	if env == nil {
		env = NewEnvironment()
	}
	return &Preprocessor{
		client:                   client,
		env:                      env,
		expandFunctionLikeMacros: true,
		maxIncludeDepth:          DefaultMaxIncludeDepth,
		now:                      time.Now,
	}
}

func (pp *Preprocessor) Environment() *Environment { return pp.env }

// SetExpandFunctionLikeMacros controls whether function-like macro invocations are replaced in the output. When
// disabled, invocations are still reported to the client.
func (pp *Preprocessor) SetExpandFunctionLikeMacros(expand bool) { pp.expandFunctionLikeMacros = expand }

// SetKeepComments keeps comments of active code in the output.
func (pp *Preprocessor) SetKeepComments(keep bool) { pp.keepComments = keep }

func (pp *Preprocessor) SetMaxIncludeDepth(depth int) { pp.maxIncludeDepth = depth }

// SetInitialIncludes sets files requested from the client before the next top-level run, as if included at its top
// (like the -include compiler option).
func (pp *Preprocessor) SetInitialIncludes(fileNames []string) {
	pp.initialIncludes = slices.Clone(fileNames)
}

// SetClock sets the time source of __DATE__ and __TIME__.
func (pp *Preprocessor) SetClock(now func() time.Time) { pp.now = now }

// Run preprocesses source, returning the output text. Output keeps the line structure of the source: every token is
// written on the line it comes from (an expansion on the line of its invocation), directives and skipped lines are
// left empty.
//
// Run never fails. Problems are reported to clients implementing DiagnosticClient and preprocessing continues.
func (pp *Preprocessor) Run(fileName string, source []byte) []byte {
	previousFile, previousLine := pp.env.CurrentFile, pp.env.CurrentLine
	defer func() {
		pp.env.CurrentFile, pp.env.CurrentLine = previousFile, previousLine
	}()
	pp.env.CurrentFile, pp.env.CurrentLine = fileName, 1

	if pp.depth == 0 && len(pp.initialIncludes) > 0 {
		includes := pp.initialIncludes
		pp.initialIncludes = nil
		pp.depth++
		for _, include := range includes {
			pp.client.SourceNeeded(0, include, IncludeLocal, includes)
		}
		pp.depth--
		pp.env.CurrentFile, pp.env.CurrentLine = fileName, 1
	}

	s := newRunState(pp, fileName, source)
	s.run()
	return s.out.buf.Bytes()
}

// sourceLine is one logical line: tokens up to the next newline, line continuations included.
type sourceLine struct {
	tokens    []lexer.Token
	start     lexer.Cursor
	end       lexer.Cursor // after the terminating newline
	directive bool
}

func splitLines(tokens []lexer.Token) ([]sourceLine, lexer.Cursor) {
	var lines []sourceLine
	start := lexer.CursorInit
	first := 0
	for i, token := range tokens {
		if token.Type != lexer.TokenType_Newline {
			continue
		}
		lines = append(lines, newSourceLine(tokens[first:i], start, token.End()))
		start, first = token.End(), i+1
	}
	end := start
	if first < len(tokens) {
		end = tokens[len(tokens)-1].End()
		lines = append(lines, newSourceLine(tokens[first:], start, end))
	}
	return lines, end
}

func newSourceLine(tokens []lexer.Token, start, end lexer.Cursor) sourceLine {
	line := sourceLine{tokens: tokens, start: start, end: end}
	for _, token := range tokens {
		if !token.Type.IsBlank() {
			line.directive = token.Is("#") || token.Is("%:")
			break
		}
	}
	return line
}

// directiveTokens returns the `#` token and the rest of the line.
func (l sourceLine) directiveTokens() (lexer.Token, []lexer.Token) {
	for i, token := range l.tokens {
		if !token.Type.IsBlank() {
			return token, l.tokens[i+1:]
		}
	}
	return lexer.TokenEOF, nil
}

func (l sourceLine) lastSignificant() (lexer.Token, bool) {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		if !l.tokens[i].Type.IsBlank() {
			return l.tokens[i], true
		}
	}
	return lexer.Token{}, false
}

// conditional is an open #if block.
type conditional struct {
	keyword string
	line    int
	// The enclosing region is skipped; no branch of this block can become active.
	parentSkipping bool
	// A branch of this block was already active.
	taken   bool
	sawElse bool
}

// runState is the state of a single Run, i.e. of one file.
type runState struct {
	pp     *Preprocessor
	client Client
	env    *Environment

	fileName string
	source   []byte
	lines    []sourceLine
	next     int
	end      lexer.Cursor

	conditionals []conditional
	skipping     bool
	// #line adjustment of __LINE__
	lineDelta int
	guard     includeGuard

	out outputWriter
}

func newRunState(pp *Preprocessor, fileName string, source []byte) *runState {
	lines, end := splitLines(lexer.NewLexer(source).Tokenize())
	return &runState{
		pp:       pp,
		client:   pp.client,
		env:      pp.env,
		fileName: fileName,
		source:   source,
		lines:    lines,
		end:      end,
		out:      outputWriter{line: 1, lineStart: true},
	}
}

func (s *runState) run() {
	for s.next < len(s.lines) {
		line := s.lines[s.next]
		s.next++
		s.env.CurrentLine = line.start.Line
		switch {
		case line.directive:
			s.handleDirective(line)
		case !s.skipping:
			s.handleText(line)
		}
	}
	s.finish()
}

func (s *runState) finish() {
	if len(s.conditionals) > 0 {
		open := s.conditionals[len(s.conditionals)-1]
		s.diagnose(Error, open.line, 1, 0, fmt.Sprintf("unterminated #%s", open.keyword))
		if s.skipping {
			s.client.StopSkippingBlocks(s.end.Offset, s.end.UTF16Offset)
		}
	}
	s.out.advanceTo(s.end.Line)
	if name, ok := s.guard.result(); ok {
		s.client.MarkAsIncludeGuard(name)
	}
}

func (s *runState) handleText(line sourceLine) {
	tokens := streamTokens(line.tokens, s.pp.keepComments)
	if len(tokens) == 0 {
		return
	}
	s.reportLexical(line)
	if len(significant(tokens)) > 0 {
		s.guard.text()
	}
	e := &expander{s: s, input: tokens, more: s.pullTextLine}
	for _, token := range e.expandAll() {
		s.out.emit(token)
	}
}

// pullTextLine continues a macro invocation on the following lines. Directives end the invocation.
func (s *runState) pullTextLine() []ppToken {
	for s.next < len(s.lines) && !s.lines[s.next].directive {
		line := s.lines[s.next]
		s.next++
		s.env.CurrentLine = line.start.Line
		tokens := streamTokens(line.tokens, s.pp.keepComments)
		if len(tokens) == 0 {
			continue
		}
		s.reportLexical(line)
		if len(significant(tokens)) > 0 {
			s.guard.text()
		}
		tokens[0].space = true
		return tokens
	}
	return nil
}

func (s *runState) reportLexical(line sourceLine) {
	for _, token := range line.tokens {
		if !token.Unterminated {
			continue
		}
		switch token.Type {
		case lexer.TokenType_LiteralChar:
			s.diagnoseLexer(Warning, token, "missing terminating ' character")
		case lexer.TokenType_LiteralString:
			s.diagnoseLexer(Warning, token, `missing terminating " character`)
		case lexer.TokenType_CommentMultiLine:
			s.diagnoseLexer(Error, token, "unterminated comment")
		}
	}
}

func (s *runState) diagnose(level DiagnosticLevel, line, column, length int, text string) {
	if client, ok := s.client.(DiagnosticClient); ok {
		client.ReportDiagnostic(Diagnostic{
			Level:    level,
			FileName: s.fileName,
			Line:     line,
			Column:   column,
			Length:   length,
			Text:     text,
		})
	}
}

func (s *runState) diagnoseLexer(level DiagnosticLevel, token lexer.Token, text string) {
	s.diagnose(level, token.Location.Line, token.Location.Column, len(token.Content), text)
}

func (s *runState) diagnoseToken(level DiagnosticLevel, token ppToken, text string) {
	if token.generated {
		s.diagnose(level, token.line, 1, 0, text)
		return
	}
	s.diagnoseLexer(level, token.Token, text)
}

func (s *runState) startExpanding(token ppToken, macro Macro, actuals []MacroArgumentReference) {
	if !token.generated {
		s.client.StartExpandingMacro(token.Location.Offset, token.Location.UTF16Offset, token.Location.Line, macro, actuals)
	}
}

func (s *runState) stopExpanding(token ppToken, macro Macro) {
	if !token.generated {
		s.client.StopExpandingMacro(token.Location.Offset, macro)
	}
}

func (s *runState) notifyReference(token ppToken, macro Macro) {
	if !token.generated {
		s.client.NotifyMacroReference(token.Location.Offset, token.Location.UTF16Offset, token.Location.Line, macro)
	}
}

func isBuiltin(name string) bool {
	switch name {
	case "__FILE__", "__LINE__", "__COUNTER__", "__DATE__", "__TIME__":
		return true
	}
	return false
}

// builtin returns the value of a built-in macro.
func (s *runState) builtin(token ppToken) (ppToken, bool) {
	value := token
	value.generated = true
	switch token.Content {
	case "__FILE__":
		value.Type, value.Content = lexer.TokenType_LiteralString, `"`+literalEscaper.Replace(s.env.CurrentFile)+`"`
	case "__LINE__":
		value.Type, value.Content = lexer.TokenType_Number, strconv.Itoa(token.line+s.lineDelta)
	case "__COUNTER__":
		value.Type, value.Content = lexer.TokenType_Number, strconv.Itoa(s.pp.counter)
		s.pp.counter++
	case "__DATE__":
		value.Type, value.Content = lexer.TokenType_LiteralString, s.pp.now().Format(`"Jan _2 2006"`)
	case "__TIME__":
		value.Type, value.Content = lexer.TokenType_LiteralString, s.pp.now().Format(`"15:04:05"`)
	default:
		return ppToken{}, false
	}
	return value, true
}

// expandOperand macro-expands the operand of a directive.
func (s *runState) expandOperand(tokens []ppToken) []ppToken {
	return (&expander{s: s, input: tokens}).expandAll()
}

// outputWriter writes tokens keeping them on their source lines.
type outputWriter struct {
	buf       bytes.Buffer
	line      int
	lineStart bool
}

func (w *outputWriter) advanceTo(line int) {
	for w.line < line {
		w.buf.WriteByte('\n')
		w.line++
		w.lineStart = true
	}
}

func (w *outputWriter) emit(token ppToken) {
	w.advanceTo(token.line)
	if token.space && !w.lineStart {
		w.buf.WriteByte(' ')
	}
	w.buf.WriteString(token.Content)
	w.line += strings.Count(token.Content, "\n")
	w.lineStart = false
}
