// Package expr compiles rule strings into condition predicates so dependency
// rules can be expressed in serialised form models.
//
// Supported grammar:
//   - truthiness: `value`
//   - comparisons: `value == true`, `value != "inactive"`, `value >= 18`
//   - dot-paths into structured values: `value.city == "Berlin"`
//   - boolean composition: `value > 0 && value < 100`, `!value`, parentheses
//
// The identifier `value` is bound to the watched sibling's current value.
// A dotted identifier traverses nested maps; a missing segment yields nil.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formconf/pkg/condition"
)

// ValueIdentifier is the name bound to the watched sibling's value.
const ValueIdentifier = "value"

// Compile parses a rule string and returns the condition it denotes. An
// empty rule compiles to a condition that always holds. Parse errors are
// returned; evaluation never errors, mismatched operands simply fail the
// condition.
func Compile(rule string) (condition.Condition, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return func(any) bool { return true }, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return func(any) bool { return true }, nil
	}

	node, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	return func(value any) bool {
		return node.eval(value)
	}, nil
}

// MustCompile is Compile for statically known rules; it panics on error.
func MustCompile(rule string) condition.Condition {
	cond, err := Compile(rule)
	if err != nil {
		panic(fmt.Sprintf("condition/expr: %v", err))
	}
	return cond
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenGt
	tokenGte
	tokenLt
	tokenLte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := peek()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
		case ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
		case '!':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
			} else {
				tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			}
		case '=':
			i++
			if peek() != '=' {
				return nil, errors.New("condition/expr: unexpected '='; use '=='")
			}
			i++
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
		case '>':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
			} else {
				tokens = append(tokens, token{kind: tokenGt, raw: ">"})
			}
		case '<':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
			} else {
				tokens = append(tokens, token{kind: tokenLt, raw: "<"})
			}
		case '&':
			i++
			if peek() != '&' {
				return nil, errors.New("condition/expr: unexpected '&'; use '&&'")
			}
			i++
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
		case '|':
			i++
			if peek() != '|' {
				return nil, errors.New("condition/expr: unexpected '|'; use '||'")
			}
			i++
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
		case '"', '\'':
			literal, consumed, err := scanString(input[i:])
			if err != nil {
				return nil, err
			}
			i += consumed
			tokens = append(tokens, token{kind: tokenString, raw: literal})
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := strings.TrimSpace(input[start:i])
			if raw == "" {
				continue
			}
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}

	return tokens, nil
}

func scanString(input string) (string, int, error) {
	quote := input[0]
	var out strings.Builder
	escaped := false
	for i := 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			switch c {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			default:
				out.WriteByte(c)
			}
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == quote {
			return out.String(), i + 1, nil
		}
		out.WriteByte(c)
	}
	return "", 0, errors.New("condition/expr: unterminated string literal")
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	default:
		return false
	}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+'
}

type exprNode interface {
	eval(value any) bool
}

type exprOr struct{ left, right exprNode }

func (n exprOr) eval(value any) bool {
	return n.left.eval(value) || n.right.eval(value)
}

type exprAnd struct{ left, right exprNode }

func (n exprAnd) eval(value any) bool {
	return n.left.eval(value) && n.right.eval(value)
}

type exprNot struct{ inner exprNode }

func (n exprNot) eval(value any) bool {
	return !n.inner.eval(value)
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind literalKind
	raw  string
}

type exprCompare struct {
	identifier string
	op         tokenKind
	literal    literal
}

func (n exprCompare) eval(value any) bool {
	resolved := resolve(value, n.identifier)

	switch n.op {
	case tokenEq, tokenNeq:
		equal := n.literalEquals(resolved)
		if n.op == tokenEq {
			return equal
		}
		return !equal
	case tokenGt, tokenGte, tokenLt, tokenLte:
		if n.literal.kind != litNumber {
			return false
		}
		want, err := strconv.ParseFloat(n.literal.raw, 64)
		if err != nil {
			return false
		}
		got, ok := condition.ToNumber(resolved)
		if !ok {
			return false
		}
		switch n.op {
		case tokenGt:
			return got > want
		case tokenGte:
			return got >= want
		case tokenLt:
			return got < want
		default:
			return got <= want
		}
	default:
		return false
	}
}

func (n exprCompare) literalEquals(resolved any) bool {
	switch n.literal.kind {
	case litNull:
		return resolved == nil
	case litBool:
		want := n.literal.raw == "true"
		got := condition.IsTruthy(resolved)
		if b, ok := resolved.(bool); ok {
			got = b
		}
		return got == want
	case litNumber:
		want, err := strconv.ParseFloat(n.literal.raw, 64)
		if err != nil {
			return false
		}
		got, ok := condition.ToNumber(resolved)
		return ok && got == want
	default:
		got, ok := resolved.(string)
		if !ok {
			if resolved == nil {
				return false
			}
			got = fmt.Sprint(resolved)
		}
		return got == n.literal.raw
	}
}

type exprTruthy struct{ identifier string }

func (n exprTruthy) eval(value any) bool {
	return condition.IsTruthy(resolve(value, n.identifier))
}

// resolve maps an identifier onto the watched value. `value` is the value
// itself; `value.a.b` and bare `a.b` traverse nested maps.
func resolve(value any, identifier string) any {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || identifier == ValueIdentifier {
		return value
	}
	path := strings.TrimPrefix(identifier, ValueIdentifier+".")

	current := value
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil
			}
			current = next
		default:
			return nil
		}
	}
	return current
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("condition/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("condition/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("condition/expr: empty expression")
		}
		return nil, fmt.Errorf("condition/expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for _, op := range []tokenKind{tokenEq, tokenNeq, tokenGte, tokenGt, tokenLte, tokenLt} {
		if stream.match(op) {
			lit, err := stream.consumeLiteral()
			if err != nil {
				return nil, err
			}
			return exprCompare{identifier: ident.raw, op: op, literal: lit}, nil
		}
	}

	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	if s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	if s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("condition/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return literal{kind: litString, raw: tok.raw}, nil
	case tokenNumber:
		return literal{kind: litNumber, raw: tok.raw}, nil
	case tokenBool:
		return literal{kind: litBool, raw: tok.raw}, nil
	case tokenNull:
		return literal{kind: litNull, raw: "null"}, nil
	case tokenIdentifier:
		// Bare identifiers compare as strings to keep rule strings forgiving.
		return literal{kind: litString, raw: tok.raw}, nil
	default:
		return literal{}, fmt.Errorf("condition/expr: expected literal, got %q", tok.raw)
	}
}
