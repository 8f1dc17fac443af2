package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// The rule grammar is a small, non-Turing-complete expression language over
// scalar bindings: comparisons, boolean combinators, arithmetic, and a
// whitelist of pure functions. Expressions are parsed to an AST once and
// evaluated against a binding map; there is no attribute access, no
// assignment, and no way to call anything outside the whitelist.
//
//	expr     := or
//	or       := and (("or" | "||") and)*
//	and      := not (("and" | "&&") not)*
//	not      := ("not" | "!") not | cmp
//	cmp      := sum (("==" | "!=" | "<" | "<=" | ">" | ">=") sum)?
//	sum      := term (("+" | "-") term)*
//	term     := unary (("*" | "/") unary)*
//	unary    := "-" unary | primary
//	primary  := NUMBER | IDENT | IDENT "(" args ")" | "(" expr ")" | "true" | "false"
//
// Values are float64; comparisons and boolean operators yield 1 or 0, and
// any nonzero value is truthy.

// Expr is a parsed rule expression.
type Expr interface {
	Eval(bindings map[string]float64) (float64, error)
}

type numberExpr struct {
	value float64
}

func (e numberExpr) Eval(map[string]float64) (float64, error) {
	return e.value, nil
}

type identExpr struct {
	name string
}

func (e identExpr) Eval(bindings map[string]float64) (float64, error) {
	value, ok := bindings[e.name]
	if !ok {
		return 0, fmt.Errorf("unknown identifier %q", e.name)
	}
	return value, nil
}

type unaryExpr struct {
	op      string
	operand Expr
}

func (e unaryExpr) Eval(bindings map[string]float64) (float64, error) {
	value, err := e.operand.Eval(bindings)
	if err != nil {
		return 0, err
	}
	switch e.op {
	case "-":
		return -value, nil
	case "not":
		return boolToFloat(value == 0), nil
	}
	return 0, fmt.Errorf("unknown unary operator %q", e.op)
}

type binaryExpr struct {
	op          string
	left, right Expr
}

func (e binaryExpr) Eval(bindings map[string]float64) (float64, error) {
	left, err := e.left.Eval(bindings)
	if err != nil {
		return 0, err
	}

	// short-circuit before touching the right side
	switch e.op {
	case "and":
		if left == 0 {
			return 0, nil
		}
	case "or":
		if left != 0 {
			return 1, nil
		}
	}

	right, err := e.right.Eval(bindings)
	if err != nil {
		return 0, err
	}

	switch e.op {
	case "and", "or":
		return boolToFloat(right != 0), nil
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case "==":
		return boolToFloat(left == right), nil
	case "!=":
		return boolToFloat(left != right), nil
	case "<":
		return boolToFloat(left < right), nil
	case "<=":
		return boolToFloat(left <= right), nil
	case ">":
		return boolToFloat(left > right), nil
	case ">=":
		return boolToFloat(left >= right), nil
	}
	return 0, fmt.Errorf("unknown operator %q", e.op)
}

type callExpr struct {
	name string
	args []Expr
}

func (e callExpr) Eval(bindings map[string]float64) (float64, error) {
	args := make([]float64, len(e.args))
	for i, arg := range e.args {
		value, err := arg.Eval(bindings)
		if err != nil {
			return 0, err
		}
		args[i] = value
	}

	switch e.name {
	case "abs":
		if len(args) != 1 {
			return 0, fmt.Errorf("abs expects 1 argument, got %d", len(args))
		}
		return math.Abs(args[0]), nil
	case "round":
		if len(args) != 1 {
			return 0, fmt.Errorf("round expects 1 argument, got %d", len(args))
		}
		return math.Round(args[0]), nil
	case "min":
		if len(args) == 0 {
			return 0, fmt.Errorf("min expects at least 1 argument")
		}
		result := args[0]
		for _, v := range args[1:] {
			result = math.Min(result, v)
		}
		return result, nil
	case "max":
		if len(args) == 0 {
			return 0, fmt.Errorf("max expects at least 1 argument")
		}
		result := args[0]
		for _, v := range args[1:] {
			result = math.Max(result, v)
		}
		return result, nil
	}
	return 0, fmt.Errorf("function %q is not allowed", e.name)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Parse compiles an expression string into an AST.
func Parse(input string) (Expr, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected token %q", p.peek().text)
	}
	return expr, nil
}

// EvalBool parses and evaluates an expression, interpreting the result as a
// truth value.
func EvalBool(input string, bindings map[string]float64) (bool, error) {
	expr, err := Parse(input)
	if err != nil {
		return false, err
	}
	value, err := expr.Eval(bindings)
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOp
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, fmt.Errorf("invalid number %q", text)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[start:i])})
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ","})
			i++
		case strings.ContainsRune("=!<>&|+-*/", r):
			start := i
			i++
			if i < len(runes) && isOpPair(string(runes[start:i+1])) {
				i++
			}
			text := string(runes[start:i])
			if !isKnownOp(text) {
				return nil, fmt.Errorf("invalid operator %q", text)
			}
			tokens = append(tokens, token{kind: tokenOp, text: text})
		default:
			return nil, fmt.Errorf("unexpected character %q", string(r))
		}
	}
	return tokens, nil
}

func isOpPair(candidate string) bool {
	switch candidate {
	case "==", "!=", "<=", ">=", "&&", "||":
		return true
	}
	return false
}

func isKnownOp(candidate string) bool {
	switch candidate {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||", "!", "+", "-", "*", "/":
		return true
	}
	return false
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) matchOp(ops ...string) (string, bool) {
	if p.done() {
		return "", false
	}
	t := p.peek()
	for _, op := range ops {
		if (t.kind == tokenOp || t.kind == tokenIdent) && t.text == op {
			p.pos++
			return t.text, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		_, ok := p.matchOp("or", "||")
		if !ok {
			break
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		_, ok := p.matchOp("and", "&&")
		if !ok {
			break
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if _, ok := p.matchOp("not", "!"); ok {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: "not", operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if op, ok := p.matchOp("==", "!=", "<", "<=", ">", ">="); ok {
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return binaryExpr{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("+", "-")
		if !ok {
			break
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp("*", "/")
		if !ok {
			break
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if _, ok := p.matchOp("-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: "-", operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	t := p.next()
	switch t.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return numberExpr{value: value}, nil

	case tokenIdent:
		switch t.text {
		case "true":
			return numberExpr{value: 1}, nil
		case "false":
			return numberExpr{value: 0}, nil
		}
		if !p.done() && p.peek().kind == tokenLParen {
			p.next()
			var args []Expr
			if p.peek().kind != tokenRParen {
				for {
					arg, err := p.parseOr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.peek().kind == tokenComma {
						p.next()
						continue
					}
					break
				}
			}
			if p.done() || p.peek().kind != tokenRParen {
				return nil, fmt.Errorf("missing closing parenthesis in call to %q", t.text)
			}
			p.next()
			return callExpr{name: t.text, args: args}, nil
		}
		return identExpr{name: t.text}, nil

	case tokenLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.done() || p.peek().kind != tokenRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return expr, nil
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}
