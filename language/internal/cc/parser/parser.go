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

// Package parser implements the parsing layer of the C/C++ preprocessor: it splits a directive line into a structured
// Directive, parses `#if`/`#elif` conditions into an Expr AST which can be evaluated, and parses command line macro
// definitions (-D/-U).
//
// The package knows nothing about macro expansion. Callers expand the condition tokens first (resolving `defined`
// operators before expansion) and only then hand them over to ParseExpr.
package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/EngFlow/ccsnapshot/language/cc/lexer"
)

type (
	parseRule struct {
		precedence   precedence
		prefixParser prefixParseFn
		infixParser  infixParserFn
	}
	prefixParseFn func(p *parser, token lexer.Token) (Expr, error)
	infixParserFn func(p *parser, token lexer.Token, left Expr) (Expr, error)
	precedence    int
)

const (
	precedenceLowest      precedence = iota
	precedenceComma                  // ,
	precedenceConditional            // ?:
	precedenceOr                     // ||
	precedenceAnd                    // &&
	precedenceBitOr                  // |
	precedenceBitXor                 // ^
	precedenceBitAnd                 // &
	precedenceEquality               // ==, !=
	precedenceCompare                // <, <=, >, >=
	precedenceShift                  // <<, >>
	precedenceAdditive               // +, -
	precedenceMultiplicative         // *, /, %
	precedenceUnary                  // !, ~, - (prefix)
	precedenceParens                 // (
)

// exprKeywordsPrecedence maps operator tokens to their precedence and parser functions.
// This is initialized in init() to avoid cyclic reference errors at package init time.
var exprKeywordsPrecedence map[string]parseRule

func init() {
	exprKeywordsPrecedence = map[string]parseRule{
		"!":       {precedence: precedenceUnary, prefixParser: parseUnaryBangOperator},
		"~":       {precedence: precedenceUnary, prefixParser: parseUnaryArithmeticOperator},
		"(":       {precedence: precedenceParens, prefixParser: parseUnaryOpenParenthesis, infixParser: parseBinaryApplyOperator},
		"defined": {precedence: precedenceLowest, prefixParser: parseDefinedExpr},
		",":       {precedence: precedenceComma, infixParser: parseBinaryCommaOperator},
		"?":       {precedence: precedenceConditional, infixParser: parseTernaryOperator},
		"||":      {precedence: precedenceOr, infixParser: parseBinaryLogicOrOperator},
		"&&":      {precedence: precedenceAnd, infixParser: parseBinaryLogicAndOperator},
		"|":       {precedence: precedenceBitOr, infixParser: parseBinaryArithmeticOperator},
		"^":       {precedence: precedenceBitXor, infixParser: parseBinaryArithmeticOperator},
		"&":       {precedence: precedenceBitAnd, infixParser: parseBinaryArithmeticOperator},
		"==":      {precedence: precedenceEquality, infixParser: parseBinaryCompareOperator},
		"!=":      {precedence: precedenceEquality, infixParser: parseBinaryCompareOperator},
		">":       {precedence: precedenceCompare, infixParser: parseBinaryCompareOperator},
		">=":      {precedence: precedenceCompare, infixParser: parseBinaryCompareOperator},
		"<":       {precedence: precedenceCompare, infixParser: parseBinaryCompareOperator},
		"<=":      {precedence: precedenceCompare, infixParser: parseBinaryCompareOperator},
		"<<":      {precedence: precedenceShift, infixParser: parseBinaryArithmeticOperator},
		">>":      {precedence: precedenceShift, infixParser: parseBinaryArithmeticOperator},
		"+":       {precedence: precedenceAdditive, prefixParser: parseUnaryArithmeticOperator, infixParser: parseBinaryArithmeticOperator},
		"-":       {precedence: precedenceAdditive, prefixParser: parseUnaryArithmeticOperator, infixParser: parseBinaryArithmeticOperator},
		"*":       {precedence: precedenceMultiplicative, infixParser: parseBinaryArithmeticOperator},
		"/":       {precedence: precedenceMultiplicative, infixParser: parseBinaryArithmeticOperator},
		"%":       {precedence: precedenceMultiplicative, infixParser: parseBinaryArithmeticOperator},
	}
}

// Feature-checking operators; their argument lists are consumed verbatim and the probe evaluates to 0.
var probeOperators = map[string]bool{
	"__has_include":                true,
	"__has_include_next":           true,
	"__has_attribute":              true,
	"__has_cpp_attribute":          true,
	"__has_c_attribute":            true,
	"__has_builtin":                true,
	"__has_feature":                true,
	"__has_extension":              true,
	"__has_warning":                true,
	"__has_declspec_attribute":     true,
	"__has_embed":                  true,
	"__is_identifier":              true,
	"__building_module":            true,
}

// IsProbeOperator reports whether name is a feature-checking operator, such as __has_include.
func IsProbeOperator(name string) bool {
	return probeOperators[name]
}

func isOperatorToken(token lexer.Token) bool {
	return token.Type == lexer.TokenType_Punctuator || token.Type == lexer.TokenType_Identifier
}

// getPrefixParseFn returns a prefix parser for a token, or a default parser for identifiers/literals.
func getPrefixParseFn(token lexer.Token) prefixParseFn {
	if rule, exists := exprKeywordsPrecedence[token.Content]; exists && rule.prefixParser != nil && isOperatorToken(token) {
		return rule.prefixParser
	}
	if token.Type == lexer.TokenType_Identifier && IsProbeOperator(token.Content) {
		return parseProbeExpr
	}
	// Fallback: treat as identifier or literal
	return func(p *parser, token lexer.Token) (Expr, error) {
		return parseValue(token)
	}
}

// ParseExpr parses the tokens of a preprocessor condition (#if/#elif) as an Expr AST. Blank tokens are ignored. The
// whole input must form a single expression.
func ParseExpr(tokens []lexer.Token) (Expr, error) {
	p := parser{tokensLeft: significantTokens(tokens)}
	if len(p.tokensLeft) == 0 {
		return nil, errors.New("#if with no expression")
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if token := p.peek(); token != lexer.TokenEOF {
		return nil, fmt.Errorf("token %q is not valid in preprocessor expressions", token.Content)
	}
	return expr, nil
}

// EvalCondition parses and evaluates a preprocessor condition. Any failure, including internal invariant violations
// of the parser, is returned as an error; callers treat the condition as false in that case.
func EvalCondition(tokens []lexer.Token, macros Macros) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = false, fmt.Errorf("invalid preprocessor expression: %v", r)
		}
	}()
	expr, err := ParseExpr(tokens)
	if err != nil {
		return false, err
	}
	value, err := expr.Eval(macros)
	if err != nil {
		return false, err
	}
	return value.IsTrue(), nil
}

// parseExprPrecedence implements Pratt parsing for expressions, handling C preprocessor conditionals.
// minPrecedence controls operator binding (precedence climbing).
func (p *parser) parseExprPrecedence(minPrecedence precedence) (Expr, error) {
	token, err := p.nextExprToken()
	if err != nil {
		return nil, err
	}

	parsePrefix := getPrefixParseFn(token)
	result, err := parsePrefix(p, token)
	if err != nil {
		return nil, err
	}

	for {
		token := p.peek()
		if token == lexer.TokenEOF {
			return result, nil // end of input
		}

		rule, exists := exprKeywordsPrecedence[token.Content]
		if !exists || rule.infixParser == nil || !isOperatorToken(token) || rule.precedence < minPrecedence {
			return result, nil // current operator binds less – stop and return
		}
		p.next()
		result, err = rule.infixParser(p, token, result)
		if err != nil {
			return nil, err
		}
	}
}

func parseBinaryCommaOperator(p *parser, _ lexer.Token, lhs Expr) (Expr, error) {
	rhs, err := p.parseExprPrecedence(precedenceComma + 1)
	if err != nil {
		return nil, err
	}
	return Comma{lhs, rhs}, nil
}

// The middle operand may contain commas; the conditional operator is right-associative.
func parseTernaryOperator(p *parser, _ lexer.Token, cond Expr) (Expr, error) {
	then, err := p.parseExprPrecedence(precedenceComma)
	if err != nil {
		return nil, err
	}
	if err := p.expectNext(":"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseExprPrecedence(precedenceConditional)
	if err != nil {
		return nil, err
	}
	return Conditional{Cond: cond, Then: then, Else: otherwise}, nil
}

func parseBinaryLogicOrOperator(p *parser, _ lexer.Token, lhs Expr) (Expr, error) {
	rhs, err := p.parseExprPrecedence(precedenceOr + 1)
	if err != nil {
		return nil, err
	}
	return Or{lhs, rhs}, nil
}

func parseBinaryLogicAndOperator(p *parser, _ lexer.Token, lhs Expr) (Expr, error) {
	rhs, err := p.parseExprPrecedence(precedenceAnd + 1)
	if err != nil {
		return nil, err
	}
	return And{lhs, rhs}, nil
}

func parseBinaryCompareOperator(p *parser, token lexer.Token, lhs Expr) (Expr, error) {
	op := token.Content
	switch op {
	case "==", "!=", ">", ">=", "<", "<=":
		rhs, err := p.parseExprPrecedence(exprKeywordsPrecedence[op].precedence + 1)
		if err != nil {
			return nil, err
		}
		return Compare{lhs, op, rhs}, nil
	default:
		panic(fmt.Sprintf("unknown binary compare operator %q", op))
	}
}

func parseBinaryArithmeticOperator(p *parser, token lexer.Token, lhs Expr) (Expr, error) {
	rhs, err := p.parseExprPrecedence(exprKeywordsPrecedence[token.Content].precedence + 1)
	if err != nil {
		return nil, err
	}
	return Binary{Left: lhs, Op: token.Content, Right: rhs}, nil
}

func parseBinaryApplyOperator(p *parser, _ lexer.Token, lhs Expr) (Expr, error) {
	ident, ok := lhs.(Ident)
	if !ok {
		return nil, fmt.Errorf("missing binary operator before '(' after %s", lhs)
	}

	args := []Expr{}
	for {
		token := p.peek()
		switch {
		case token == lexer.TokenEOF:
			return nil, fmt.Errorf("unexpected end of input while parsing call of %q", ident)
		case token.Is(","):
			p.next()
			continue
		case token.Is(")"):
			p.next()
			return Apply{Name: ident, Args: args}, nil
		default:
			arg, err := p.parseExprPrecedence(precedenceComma + 1)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
}

func parseUnaryBangOperator(p *parser, _ lexer.Token) (Expr, error) {
	inner, err := p.parseExprPrecedence(precedenceUnary)
	if err != nil {
		return nil, err
	}
	return Not{inner}, nil
}

func parseUnaryArithmeticOperator(p *parser, token lexer.Token) (Expr, error) {
	inner, err := p.parseExprPrecedence(precedenceUnary)
	if err != nil {
		return nil, err
	}
	return Unary{Op: token.Content, X: inner}, nil
}

func parseUnaryOpenParenthesis(p *parser, _ lexer.Token) (Expr, error) {
	expr, err := p.parseExprPrecedence(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectNext(")"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseDefinedExpr parses the `defined` operator for macro checks in #if expressions.
func parseDefinedExpr(p *parser, _ lexer.Token) (Expr, error) {
	var name Ident
	var err error
	switch {
	case p.peek().Is("("):
		p.next()
		name, err = p.parseIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectNext(")"); err != nil {
			return nil, err
		}
	default:
		name, err = p.parseIdent()
		if err != nil {
			return nil, err
		}
	}
	return Defined{Name: name}, nil
}

// parseProbeExpr consumes the balanced argument list of a feature-checking operator.
func parseProbeExpr(p *parser, token lexer.Token) (Expr, error) {
	if err := p.expectNext("("); err != nil {
		return nil, fmt.Errorf("missing '(' after %s", token.Content)
	}
	var args strings.Builder
	depth := 1
	for {
		next := p.next()
		switch {
		case next == lexer.TokenEOF:
			return nil, fmt.Errorf("unterminated %s", token.Content)
		case next.Is("("):
			depth++
		case next.Is(")"):
			depth--
			if depth == 0 {
				return Probe{Name: token.Content, Args: args.String()}, nil
			}
		}
		args.WriteString(next.Content)
	}
}

type parser struct {
	tokensLeft []lexer.Token // Tokens yet to be processed
}

// significantTokens drops whitespace, comments, line continuations and newlines.
func significantTokens(tokens []lexer.Token) []lexer.Token {
	result := make([]lexer.Token, 0, len(tokens))
	for _, token := range tokens {
		if !token.Type.IsBlank() && token.Type != lexer.TokenType_Newline {
			result = append(result, token)
		}
	}
	return result
}

// Drop n tokens from the front of the input stream (or all if number of tokens < n).
func (p *parser) drop(n int) {
	p.tokensLeft = p.tokensLeft[min(n, len(p.tokensLeft)):]
}

// Return the next token without consuming it, or TokenEOF if no tokens are left.
func (p *parser) peek() lexer.Token {
	if len(p.tokensLeft) == 0 {
		return lexer.TokenEOF
	}
	return p.tokensLeft[0]
}

// Return the next token and consume it, or TokenEOF if no tokens are left.
func (p *parser) next() lexer.Token {
	token := p.peek()
	p.drop(1)
	return token
}

// Check if the next token matches the expected content, returning error otherwise.
func (p *parser) expectNext(expected string) error {
	token := p.next()
	if token == lexer.TokenEOF {
		return fmt.Errorf("expected %q but reached end of input", expected)
	}
	if token.Content != expected {
		return fmt.Errorf("expected %q but found %q", expected, token.Content)
	}
	return nil
}

// parseExpr parses a preprocessor expression (#if/#elif condition) as an Expr AST.
func (p *parser) parseExpr() (Expr, error) {
	return p.parseExprPrecedence(precedenceLowest)
}

// Similar to next(), but returns an error if no tokens are left, which means an unexpected end of the expression.
func (p *parser) nextExprToken() (lexer.Token, error) {
	token := p.next()
	if token == lexer.TokenEOF {
		return lexer.TokenEOF, errors.New("expected value in expression, found end of line")
	}
	return token, nil
}

// parseIdent reads the next identifier token.
func (p *parser) parseIdent() (Ident, error) {
	token, err := p.nextExprToken()
	if err != nil {
		return "", err
	}
	if token.Type != lexer.TokenType_Identifier {
		return "", fmt.Errorf("expected identifier, found %q", token.Content)
	}
	return Ident(token.Content), nil
}

// A valid macro identifier must follow these rules:
// * First character must be ‘_’ or a letter.
// * Subsequent characters may be ‘_’, letters, or decimal digits.
var macroIdentifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// An integer literal in decimal, octal, hex or binary form with an optional C/C++ suffix. Digit separators are removed
// before matching.
var integerLiteralRegex = regexp.MustCompile(`^(0[xX][0-9A-Fa-f]+|0[bB][01]+|0[0-7]*|[1-9][0-9]*)([uU](?:ll|LL|l|L|z|Z)?|(?:ll|LL|l|L|z|Z)[uU]?)?$`)

// parseValue parses a token as an identifier or literal, for use in #if/#elif expressions.
func parseValue(token lexer.Token) (Expr, error) {
	switch token.Type {
	case lexer.TokenType_Number:
		value, err := parseIntLiteral(token.Content)
		if err != nil {
			return nil, err
		}
		return ConstantInt(value), nil
	case lexer.TokenType_LiteralChar:
		value, err := parseCharLiteral(token.Content)
		if err != nil {
			return nil, err
		}
		return ConstantInt(value), nil
	case lexer.TokenType_Identifier:
		switch token.Content {
		case "true":
			return ConstantInt(signed(1)), nil
		case "false":
			return ConstantInt(signed(0)), nil
		}
		return Ident(token.Content), nil
	default:
		return nil, fmt.Errorf("token %q is not valid in preprocessor expressions", token.Content)
	}
}

// parseIntLiteral parses an integer literal in decimal, octal, hex or binary form. A `u` suffix, or a value which does
// not fit into a signed 64-bit integer, makes the literal unsigned.
func parseIntLiteral(text string) (Number, error) {
	match := integerLiteralRegex.FindStringSubmatch(strings.ReplaceAll(text, "'", ""))
	if match == nil {
		hex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
		if strings.Contains(text, ".") || (hex && strings.ContainsAny(text, "pP")) || (!hex && strings.ContainsAny(text, "eE")) {
			return Number{}, fmt.Errorf("floating constant %q in preprocessor expression", text)
		}
		return Number{}, fmt.Errorf("invalid integer constant %q in preprocessor expression", text)
	}

	digits, base := match[1], 10
	switch {
	case len(digits) > 1 && (digits[1] == 'x' || digits[1] == 'X'):
		digits, base = digits[2:], 16
	case len(digits) > 1 && (digits[1] == 'b' || digits[1] == 'B'):
		digits, base = digits[2:], 2
	case len(digits) > 1 && digits[0] == '0':
		digits, base = digits[1:], 8
	}

	value, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Number{}, fmt.Errorf("integer constant %q is too large", text)
	}
	unsigned := strings.ContainsAny(match[2], "uU") || value > math.MaxInt64
	return Number{Value: int64(value), Unsigned: unsigned}, nil
}

var simpleEscapes = map[byte]int64{
	'n': '\n', 't': '\t', 'r': '\r', 'a': '\a', 'b': '\b', 'f': '\f', 'v': '\v',
	'\\': '\\', '\'': '\'', '"': '"', '?': '?', 'e': 0x1b,
}

// parseCharLiteral computes the value of a character literal. Plain multi-character literals combine their
// characters, most significant first, into an int; a plain single character is sign-extended as a signed char.
// Prefixed literals (L, u, U, u8) yield the code point of their first character.
func parseCharLiteral(text string) (Number, error) {
	quote := strings.IndexByte(text, '\'')
	if quote < 0 || len(text) < quote+2 || text[len(text)-1] != '\'' {
		return Number{}, fmt.Errorf("malformed character constant %s", text)
	}
	prefix, body := text[:quote], text[quote+1:len(text)-1]
	if body == "" {
		return Number{}, errors.New("empty character constant")
	}

	var chars []int64
	for i := 0; i < len(body); {
		if body[i] != '\\' {
			if prefix == "" {
				chars = append(chars, int64(body[i]))
				i++
				continue
			}
			r, size := utf8.DecodeRuneInString(body[i:])
			chars = append(chars, int64(r))
			i += size
			continue
		}
		if i+1 >= len(body) {
			return Number{}, fmt.Errorf("malformed escape sequence in %s", text)
		}
		escape := body[i+1]
		i += 2
		switch {
		case simpleEscapes[escape] != 0:
			chars = append(chars, simpleEscapes[escape])
		case escape >= '0' && escape <= '7':
			end := i - 1
			for end < len(body) && end < i+2 && body[end] >= '0' && body[end] <= '7' {
				end++
			}
			value, _ := strconv.ParseInt(body[i-1:end], 8, 64)
			chars = append(chars, value)
			i = end
		case escape == 'x' || escape == 'u' || escape == 'U':
			end := i
			for end < len(body) && strings.IndexByte("0123456789abcdefABCDEF", body[end]) >= 0 {
				end++
			}
			value, err := strconv.ParseUint(body[i:end], 16, 64)
			if err != nil {
				return Number{}, fmt.Errorf("malformed escape sequence in %s", text)
			}
			chars = append(chars, int64(value))
			i = end
		default:
			chars = append(chars, int64(escape))
		}
	}

	if prefix != "" {
		return signed(chars[0]), nil
	}
	if len(chars) == 1 {
		return signed(int64(int8(chars[0]))), nil
	}
	var value int32
	for _, char := range chars {
		value = value<<8 | int32(char&0xff)
	}
	return signed(int64(value)), nil
}
