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
	"log"
	"strconv"
)

// Macros answers the `defined` operator while evaluating an expression.
type Macros interface {
	IsDefined(name string) bool
}

// ErrDivisionByZero is returned when the right operand of '/' or '%' evaluates to zero.
var ErrDivisionByZero = errors.New("division by zero in preprocessor expression")

// Number is the result of evaluating an expression: a 64-bit integer which is either signed (intmax_t) or unsigned
// (uintmax_t). Unsigned values are stored as their two's complement bit pattern.
type Number struct {
	Value    int64
	Unsigned bool
}

func signed(v int64) Number { return Number{Value: v} }

func boolean(b bool) Number {
	if b {
		return signed(1)
	}
	return signed(0)
}

func (n Number) IsTrue() bool { return n.Value != 0 }

func (n Number) String() string {
	if n.Unsigned {
		return strconv.FormatUint(uint64(n.Value), 10) + "u"
	}
	return strconv.FormatInt(n.Value, 10)
}

// Both operands are converted to unsigned when either of them is unsigned.
func usualArithmeticConversion(l, r Number) (Number, Number) {
	unsigned := l.Unsigned || r.Unsigned
	l.Unsigned, r.Unsigned = unsigned, unsigned
	return l, r
}

type (
	// Expr represents an abstract syntax tree (AST) node for a C/C++ preprocessor #if condition.
	// Each Expr node implements fmt.Stringer for debugging and round-tripping.
	Expr interface {
		// Eval computes the value of the expression. Operands not needed for the result (the right side of a
		// short-circuited && or ||, the branch of ?: not taken) are never evaluated.
		Eval(macros Macros) (Number, error)
		String() string
	}

	// Defined represents the defined(X) operator in #if expressions,
	// checking if a macro identifier is defined.
	Defined struct {
		Name Ident
	}

	// Not represents logical negation of a condition: !X
	Not struct {
		X Expr
	}

	// And represents a logical AND (X && Y) in #if expressions.
	And struct {
		L, R Expr
	}

	// Or represents a logical OR (X || Y) in #if expressions.
	Or struct {
		L, R Expr
	}

	// Compare represents a comparison between two values, e.g. A == B, A < B.
	Compare struct {
		Left  Expr   // Left-hand side of the comparison
		Op    string // Comparison operator: "==", "!=", "<", "<=", ">", ">="
		Right Expr   // Right-hand side of the comparison
	}

	// Unary represents the arithmetic prefix operators: +X, -X, ~X
	Unary struct {
		Op string
		X  Expr
	}

	// Binary represents an arithmetic or bitwise operation: * / % + - << >> & ^ |
	Binary struct {
		Left  Expr
		Op    string
		Right Expr
	}

	// Conditional represents the ternary operator: Cond ? Then : Else
	Conditional struct {
		Cond, Then, Else Expr
	}

	// Comma represents the comma operator, evaluating both sides and yielding the right one.
	Comma struct {
		L, R Expr
	}

	// Apply represents a call of an identifier which is not a defined function-like macro, e.g. FOO(1) in
	// `#if FOO(1)` when FOO is unknown. Evaluating it is an error.
	Apply struct {
		Name Ident
		Args []Expr
	}

	// Probe represents a feature-checking operator such as __has_include(<file.h>) or __has_builtin(x). Probes
	// always evaluate to 0.
	Probe struct {
		Name string
		Args string
	}
)

type (
	// Ident is an identifier left after macro expansion, such as _WIN32. It evaluates to 0.
	Ident string
	// ConstantInt is an integer constant literal (e.g., 42, 0x10u, 'a').
	ConstantInt Number
)

func (expr Defined) String() string     { return fmt.Sprintf("defined(%s)", expr.Name) }
func (expr Compare) String() string     { return fmt.Sprintf("%s %s %s", expr.Left, expr.Op, expr.Right) }
func (expr Not) String() string         { return "!(" + expr.X.String() + ")" }
func (expr And) String() string         { return expr.L.String() + " && " + expr.R.String() }
func (expr Or) String() string          { return expr.L.String() + " || " + expr.R.String() }
func (expr Unary) String() string       { return expr.Op + "(" + expr.X.String() + ")" }
func (expr Binary) String() string      { return fmt.Sprintf("(%s %s %s)", expr.Left, expr.Op, expr.Right) }
func (expr Comma) String() string       { return expr.L.String() + ", " + expr.R.String() }
func (expr Ident) String() string       { return string(expr) }
func (expr ConstantInt) String() string { return Number(expr).String() }
func (expr Probe) String() string       { return expr.Name + "(" + expr.Args + ")" }
func (expr Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", expr.Cond, expr.Then, expr.Else)
}
func (expr Apply) String() string {
	result := string(expr.Name) + "("
	for i, arg := range expr.Args {
		if i > 0 {
			result += ", "
		}
		result += arg.String()
	}
	return result + ")"
}

func (expr Defined) Eval(macros Macros) (Number, error) {
	return boolean(macros != nil && macros.IsDefined(string(expr.Name))), nil
}

func (expr Ident) Eval(Macros) (Number, error)       { return signed(0), nil }
func (expr ConstantInt) Eval(Macros) (Number, error) { return Number(expr), nil }
func (expr Probe) Eval(Macros) (Number, error)       { return signed(0), nil }

func (expr Apply) Eval(Macros) (Number, error) {
	return Number{}, fmt.Errorf("function-like macro %q is not defined", string(expr.Name))
}

func (expr Not) Eval(macros Macros) (Number, error) {
	x, err := expr.X.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	return boolean(!x.IsTrue()), nil
}

func (expr And) Eval(macros Macros) (Number, error) {
	l, err := expr.L.Eval(macros)
	if err != nil || !l.IsTrue() {
		return signed(0), err
	}
	r, err := expr.R.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	return boolean(r.IsTrue()), nil
}

func (expr Or) Eval(macros Macros) (Number, error) {
	l, err := expr.L.Eval(macros)
	if err != nil || l.IsTrue() {
		return boolean(l.IsTrue()), err
	}
	r, err := expr.R.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	return boolean(r.IsTrue()), nil
}

func (expr Conditional) Eval(macros Macros) (Number, error) {
	cond, err := expr.Cond.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	if cond.IsTrue() {
		return expr.Then.Eval(macros)
	}
	return expr.Else.Eval(macros)
}

func (expr Comma) Eval(macros Macros) (Number, error) {
	if _, err := expr.L.Eval(macros); err != nil {
		return Number{}, err
	}
	return expr.R.Eval(macros)
}

func (expr Unary) Eval(macros Macros) (Number, error) {
	x, err := expr.X.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	switch expr.Op {
	case "+":
		return x, nil
	case "-":
		return Number{Value: -x.Value, Unsigned: x.Unsigned}, nil
	case "~":
		return Number{Value: ^x.Value, Unsigned: x.Unsigned}, nil
	default:
		log.Panicf("Unknown unary operation type: %v", expr)
		return Number{}, nil
	}
}

func (expr Compare) Eval(macros Macros) (Number, error) {
	lv, err := expr.Left.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	rv, err := expr.Right.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	lv, rv = usualArithmeticConversion(lv, rv)
	if lv.Unsigned {
		return boolean(compare(uint64(lv.Value), uint64(rv.Value), expr.Op)), nil
	}
	return boolean(compare(lv.Value, rv.Value, expr.Op)), nil
}

func compare[T int64 | uint64](lv, rv T, op string) bool {
	switch op {
	case "==":
		return lv == rv
	case "!=":
		return lv != rv
	case "<":
		return lv < rv
	case "<=":
		return lv <= rv
	case ">":
		return lv > rv
	case ">=":
		return lv >= rv
	default:
		log.Panicf("Unknown compare operation type: %v", op)
		return false
	}
}

func (expr Binary) Eval(macros Macros) (Number, error) {
	lv, err := expr.Left.Eval(macros)
	if err != nil {
		return Number{}, err
	}
	rv, err := expr.Right.Eval(macros)
	if err != nil {
		return Number{}, err
	}

	switch expr.Op {
	case "<<", ">>":
		// the result has the type of the left operand
		return shift(lv, rv, expr.Op == "<<"), nil
	}

	lv, rv = usualArithmeticConversion(lv, rv)
	result := Number{Unsigned: lv.Unsigned}
	switch expr.Op {
	case "*":
		result.Value = lv.Value * rv.Value
	case "+":
		result.Value = lv.Value + rv.Value
	case "-":
		result.Value = lv.Value - rv.Value
	case "&":
		result.Value = lv.Value & rv.Value
	case "^":
		result.Value = lv.Value ^ rv.Value
	case "|":
		result.Value = lv.Value | rv.Value
	case "/", "%":
		if rv.Value == 0 {
			return Number{}, ErrDivisionByZero
		}
		result.Value = divide(lv, rv, expr.Op == "%")
	default:
		log.Panicf("Unknown binary operation type: %v", expr)
	}
	return result, nil
}

func divide(lv, rv Number, remainder bool) int64 {
	if lv.Unsigned {
		if remainder {
			return int64(uint64(lv.Value) % uint64(rv.Value))
		}
		return int64(uint64(lv.Value) / uint64(rv.Value))
	}
	if remainder {
		return lv.Value % rv.Value
	}
	return lv.Value / rv.Value
}

// A negative shift count shifts in the opposite direction; counts of 64 or more shift every bit out.
func shift(lv, rv Number, left bool) Number {
	count := rv.Value
	if rv.Unsigned && count < 0 {
		count = 64
	}
	if count < 0 {
		count, left = -count, !left
	}
	result := Number{Unsigned: lv.Unsigned}
	switch {
	case left && count >= 64:
		result.Value = 0
	case left:
		result.Value = lv.Value << count
	case lv.Unsigned:
		result.Value = int64(uint64(lv.Value) >> min(count, 63))
		if count >= 64 {
			result.Value = 0
		}
	default:
		result.Value = lv.Value >> min(count, 63)
	}
	return result
}
