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

	"github.com/EngFlow/ccsnapshot/internal/collections"
	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
)

// expander rescans a token stream, replacing macro invocations by their expansions until no expandable identifier is
// left. Recursion is prevented with hidesets (Prosser's algorithm): each token remembers the macros whose expansion
// produced it and is never expanded by one of them again.
type expander struct {
	s     *runState
	input []ppToken
	// more returns the tokens of the following source line(s) when an invocation continues past the end of the
	// input. Nil when the input is bounded, e.g. a directive operand or a macro argument.
	more func() []ppToken
}

func (e *expander) pushFront(tokens []ppToken) {
	e.input = append(slices.Clip(tokens), e.input...)
}

func (e *expander) pop() (ppToken, bool) {
	if len(e.input) == 0 && e.more != nil {
		e.input = e.more()
	}
	if len(e.input) == 0 {
		return ppToken{}, false
	}
	token := e.input[0]
	e.input = e.input[1:]
	return token, true
}

// nextIsParen reports whether the next significant token is `(`, without consuming anything. Following lines are
// pulled in only when pull is set.
func (e *expander) nextIsParen(pull bool) bool {
	for i := 0; ; i++ {
		for i >= len(e.input) {
			if !pull || e.more == nil {
				return false
			}
			more := e.more()
			if len(more) == 0 {
				return false
			}
			e.input = append(e.input, more...)
		}
		if e.input[i].Type.IsComment() {
			continue
		}
		return e.input[i].Is("(")
	}
}

// expandAll returns the fully expanded input.
func (e *expander) expandAll() []ppToken {
	var output []ppToken
	for {
		token, ok := e.pop()
		if !ok {
			return output
		}
		if !token.isIdentifier() {
			output = append(output, token)
			continue
		}
		output = append(output, e.expandIdentifier(token)...)
	}
}

// expandIdentifier handles one identifier: either returns it (or a built-in's value) for output, or pushes its
// expansion back to the input for rescanning and returns nothing.
func (e *expander) expandIdentifier(token ppToken) []ppToken {
	name := token.Content
	macro, defined := e.s.env.Lookup(name)
	if !defined {
		if value, ok := e.s.builtin(token); ok {
			return []ppToken{value}
		}
		if !token.generated && looksLikeMacro(name) && e.nextIsParen(false) {
			e.s.client.FailedMacroDefinitionCheck(token.Location.Offset, token.Location.UTF16Offset, name)
		}
		return []ppToken{token}
	}
	if token.hideset.Contains(name) {
		e.s.notifyReference(token, macro)
		return []ppToken{token}
	}

	if !macro.functionLike {
		e.s.startExpanding(token, macro, nil)
		e.pushFront(e.substitute(macro, nil, token, token.hideset.With(name)))
		e.s.stopExpanding(token, macro)
		return nil
	}

	if !e.nextIsParen(true) {
		e.s.notifyReference(token, macro)
		return []ppToken{token}
	}
	var consumed []ppToken
	for {
		next, _ := e.pop()
		consumed = append(consumed, next)
		if next.Is("(") {
			break
		}
	}
	args, delimiters, rest, ok := e.collectArgs(macro)
	consumed = append(consumed, rest...)
	if !ok {
		e.s.diagnoseToken(Error, token, fmt.Sprintf("unterminated argument list invoking macro %q", name))
		return append([]ppToken{token}, consumed...)
	}
	args, err := checkArgumentCount(macro, args)
	if err != nil {
		e.s.diagnoseToken(Error, token, err.Error())
		return append([]ppToken{token}, consumed...)
	}

	e.s.startExpanding(token, macro, argumentReferences(args, delimiters))
	defer e.s.stopExpanding(token, macro)
	if !e.s.pp.expandFunctionLikeMacros {
		// Reported, but kept verbatim. The arguments are still rescanned.
		e.pushFront(consumed)
		return []ppToken{token}
	}
	rparen := delimiters[len(delimiters)-1]
	hideset := token.hideset.Intersect(rparen.hideset).With(name)
	e.pushFront(e.substitute(macro, args, token, hideset))
	return nil
}

// collectArgs reads the arguments of an invocation, after the opening parenthesis. Commas nested in parentheses do
// not separate arguments, and neither do commas in the variadic argument. Delimiters holds the comma or closing
// parenthesis ending each argument; consumed holds every token read, for passing an invalid invocation through.
func (e *expander) collectArgs(macro Macro) (args [][]ppToken, delimiters, consumed []ppToken, ok bool) {
	depth := 0
	var current []ppToken
	for {
		token, more := e.pop()
		if !more {
			return nil, nil, consumed, false
		}
		consumed = append(consumed, token)
		switch {
		case token.Type.IsComment():
			continue
		case token.Is("("):
			depth++
		case token.Is(")") && depth > 0:
			depth--
		case token.Is(")"):
			args = append(args, current)
			delimiters = append(delimiters, token)
			return args, delimiters, consumed, true
		case token.Is(",") && depth == 0 && !(macro.variadic && len(args) == len(macro.formals)-1):
			args = append(args, current)
			delimiters = append(delimiters, token)
			current = nil
			continue
		}
		current = append(current, token)
	}
}

// checkArgumentCount matches collected arguments with the formals. `F()` passes no argument to a macro without
// parameters, and the variadic argument may be omitted entirely.
func checkArgumentCount(macro Macro, args [][]ppToken) ([][]ppToken, error) {
	formals := len(macro.formals)
	if formals == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil, nil
	}
	if macro.variadic && len(args) == formals-1 {
		args = append(args, nil)
	}
	switch {
	case len(args) < formals:
		return nil, fmt.Errorf("macro %q requires %d arguments, but only %d given", macro.name, formals, len(args))
	case len(args) > formals:
		return nil, fmt.Errorf("macro %q passed %d arguments, but takes just %d", macro.name, len(args), formals)
	}
	return args, nil
}

func argumentReferences(args [][]ppToken, delimiters []ppToken) []MacroArgumentReference {
	var references []MacroArgumentReference
	for i, arg := range args {
		arg = significant(arg)
		if len(arg) == 0 {
			if i < len(delimiters) && !delimiters[i].generated {
				location := delimiters[i].Location
				references = append(references, MacroArgumentReference{BytesOffset: location.Offset, UTF16Offset: location.UTF16Offset})
			}
			continue
		}
		first, last := arg[0], arg[len(arg)-1]
		if first.generated || last.generated {
			continue
		}
		end := last.End()
		references = append(references, MacroArgumentReference{
			BytesOffset: first.Location.Offset,
			BytesLength: end.Offset - first.Location.Offset,
			UTF16Offset: first.Location.UTF16Offset,
			UTF16Length: end.UTF16Offset - first.Location.UTF16Offset,
		})
	}
	return references
}

// substitute returns the replacement of one invocation, ready for rescanning: parameters replaced by arguments,
// `#` and `##` applied, every token placed on the invocation line with the hideset added.
func (e *expander) substitute(macro Macro, args [][]ppToken, invocation ppToken, hideset collections.Set[string]) []ppToken {
	sub := &substitution{e: e, macro: macro, args: args, invocation: invocation, expanded: make(map[int][]ppToken)}
	replaced := sub.run(bodyTokens(macro))
	result := make([]ppToken, 0, len(replaced))
	for _, token := range replaced {
		if token.placemarker {
			continue
		}
		token.hideset = token.hideset.Union(hideset)
		token.line = invocation.line
		result = append(result, token)
	}
	if len(result) > 0 {
		result[0].space = invocation.space
	}
	return result
}

func bodyTokens(macro Macro) []ppToken {
	tokens := streamTokens(macro.definition, false)
	for i := range tokens {
		tokens[i].generated = true
	}
	return tokens
}

type substitution struct {
	e          *expander
	macro      Macro
	args       [][]ppToken
	invocation ppToken
	// fully expanded arguments by parameter index, computed on first use
	expanded map[int][]ppToken
}

// param returns the parameter index named by the token, or -1.
func (s *substitution) param(token ppToken) int {
	if !s.macro.functionLike || !token.isIdentifier() {
		return -1
	}
	if s.macro.variadic && token.Content == "__VA_ARGS__" {
		return len(s.macro.formals) - 1
	}
	return slices.Index(s.macro.formals, token.Content)
}

func (s *substitution) isVariadic(param int) bool {
	return s.macro.variadic && param == len(s.macro.formals)-1
}

func (s *substitution) expandedArg(param int) []ppToken {
	if expanded, ok := s.expanded[param]; ok {
		return expanded
	}
	expanded := (&expander{s: s.e.s, input: slices.Clone(s.args[param])}).expandAll()
	// Uses inside the argument were reported while expanding it.
	for i := range expanded {
		expanded[i].generated = true
	}
	s.expanded[param] = expanded
	return expanded
}

func (s *substitution) literal(spelling string, space bool) ppToken {
	return ppToken{
		Token:     lexer.Token{Type: lexer.TokenType_LiteralString, Location: s.invocation.Location, Content: spelling},
		space:     space,
		generated: true,
	}
}

// withSpace copies tokens, giving the first one the spacing of the parameter it replaces.
func withSpace(tokens []ppToken, space bool) []ppToken {
	result := slices.Clone(tokens)
	if len(result) > 0 {
		result[0].space = space
	}
	return result
}

func (s *substitution) isStringification(body []ppToken, i int) bool {
	return body[i].Is("#") && i+1 < len(body) && s.param(body[i+1]) >= 0
}

func (s *substitution) run(body []ppToken) []ppToken {
	var output []ppToken
	for i := 0; i < len(body); i++ {
		token := body[i]
		switch param := s.param(token); {
		case s.isStringification(body, i):
			output = append(output, s.literal(stringify(s.args[s.param(body[i+1])]), token.space))
			i++

		case token.Is("##") && i+1 < len(body):
			i++
			right := body[i]
			var operand []ppToken
			switch rightParam := s.param(right); {
			case s.isStringification(body, i):
				operand = []ppToken{s.literal(stringify(s.args[s.param(body[i+1])]), right.space)}
				i++
			case right.Content == "__VA_OPT__" && s.macro.variadic:
				var n int
				operand, n = s.vaOpt(body[i:])
				i += n - 1
			case rightParam >= 0 && s.isVariadic(rightParam) && len(output) > 0 && output[len(output)-1].Is(","):
				// GNU: `, ## __VA_ARGS__` drops the comma when the variadic argument is empty.
				if len(significant(s.args[rightParam])) == 0 {
					output = output[:len(output)-1]
				} else {
					output = append(output, withSpace(s.args[rightParam], right.space)...)
				}
				continue
			case rightParam >= 0:
				operand = s.args[rightParam]
			default:
				operand = []ppToken{right}
			}
			output = s.paste(output, operand)

		case token.isIdentifier() && token.Content == "__VA_OPT__" && s.macro.variadic:
			optional, n := s.vaOpt(body[i:])
			i += n - 1
			if len(optional) == 0 {
				output = append(output, placemarker)
			} else {
				output = append(output, withSpace(optional, token.space)...)
			}

		case param >= 0 && i+1 < len(body) && body[i+1].Is("##"):
			if raw := significant(s.args[param]); len(raw) > 0 {
				output = append(output, withSpace(raw, token.space)...)
			} else {
				output = append(output, placemarker)
			}

		case param >= 0:
			output = append(output, withSpace(s.expandedArg(param), token.space)...)

		default:
			output = append(output, token)
		}
	}
	return output
}

// paste glues the last output token with the first operand token.
func (s *substitution) paste(output, operand []ppToken) []ppToken {
	operand = significant(operand)
	if len(operand) == 0 {
		return output
	}
	if len(output) == 0 {
		return append(output, operand...)
	}
	last := len(output) - 1
	left := output[last]
	if left.placemarker {
		return append(output[:last], operand...)
	}
	pasted, ok := pasteTokens(left, operand[0])
	if !ok {
		s.e.s.diagnoseToken(Error, s.invocation, fmt.Sprintf("pasting %q and %q does not give a valid preprocessing token", left.Content, operand[0].Content))
		return append(output, operand...)
	}
	output[last] = pasted
	return append(output, operand[1:]...)
}

// vaOpt handles `__VA_OPT__(content)` at the start of tokens, returning the replacement and the number of tokens
// used. The content is kept only when the variadic argument expands to at least one token.
func (s *substitution) vaOpt(tokens []ppToken) ([]ppToken, int) {
	if len(tokens) < 2 || !tokens[1].Is("(") {
		return tokens[:1], 1
	}
	depth := 0
	for j := 1; j < len(tokens); j++ {
		switch {
		case tokens[j].Is("("):
			depth++
		case tokens[j].Is(")"):
			depth--
			if depth > 0 {
				continue
			}
			if len(s.expandedArg(len(s.macro.formals)-1)) == 0 {
				return nil, j + 1
			}
			return s.run(tokens[2:j]), j + 1
		}
	}
	return tokens[:1], 1
}
