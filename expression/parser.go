package expression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elphick/df-eval/ecode"
)

// Operator precedence, lowest first
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precSum
	precProduct
	precUnary
	precPower
)

var binaryPrecedence = map[string]int{
	"or":  precOr,
	"and": precAnd,
	"==":  precCompare,
	"!=":  precCompare,
	"<":   precCompare,
	"<=":  precCompare,
	">":   precCompare,
	">=":  precCompare,
	"+":   precSum,
	"-":   precSum,
	"*":   precProduct,
	"/":   precProduct,
	"%":   precProduct,
	"**":  precPower,
}

// IsComparison reports whether op is a comparison operator
func IsComparison(op string) bool {
	return binaryPrecedence[op] == precCompare
}

// LookupFunction is the name of the lookup call form
const LookupFunction = "lookup"

// parser represents an expression parser
type parser struct {
	source  string
	tokens  []*Token
	current int
	depth   int
	config  *Config
}

func newParseError(source string, line, col int, message string) error {
	return &ecode.ParseError{Source: source, Message: message, Line: line, Col: col}
}

func (p *parser) peek() *Token {
	return p.tokens[p.current]
}

func (p *parser) next() *Token {
	token := p.tokens[p.current]
	if token.Type != TokenEOF {
		p.current++
	}
	return token
}

func (p *parser) errorAt(token *Token, format string, args ...any) error {
	return newParseError(p.source, token.Line, token.Col, fmt.Sprintf(format, args...))
}

// parse parses the whole token stream
func (p *parser) parse() (Node, error) {
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	token := p.peek()
	switch token.Type {
	case TokenEOF:
		return root, nil
	case TokenRParen:
		return nil, p.errorAt(token, "unbalanced parentheses")
	case TokenAssign:
		return nil, p.errorAt(token, "assignment is not allowed")
	default:
		return nil, p.errorAt(token, "unexpected token %q", token.Value)
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.config.MaxDepth > 0 && p.depth > p.config.MaxDepth {
		return p.errorAt(p.peek(), "max expression depth %d exceeded", p.config.MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpression() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.parseBinaryExpression(precOr)
}

// parseBinaryExpression parses infix operators binding at least as tightly
// as precedence. Comparisons chain: a < b < c means a < b and b < c.
func (p *parser) parseBinaryExpression(precedence int) (Node, error) {
	left, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}

	var lastCompared Node
	for {
		token := p.peek()
		if token.Type != TokenOperator {
			break
		}
		prec, ok := binaryPrecedence[token.Value]
		if !ok || prec < precedence {
			break
		}
		p.next()

		var right Node
		if token.Value == "**" {
			// right-associative, and the exponent may carry a sign
			right, err = p.parseBinaryExpression(precUnary)
		} else {
			right, err = p.parseBinaryExpression(prec + 1)
		}
		if err != nil {
			return nil, err
		}

		if prec == precCompare && lastCompared != nil {
			left = &Binary{Op: "and", Left: left, Right: &Binary{Op: token.Value, Left: lastCompared, Right: right}}
		} else {
			left = &Binary{Op: token.Value, Left: left, Right: right}
		}
		if prec == precCompare {
			lastCompared = right
		} else {
			lastCompared = nil
		}
	}

	return left, nil
}

// parseUnaryExpression parses prefix operators
func (p *parser) parseUnaryExpression() (Node, error) {
	token := p.peek()
	if token.Type != TokenOperator {
		return p.parsePostfix()
	}

	var operandPrec int
	switch token.Value {
	case "not":
		operandPrec = precNot
	case "-", "+":
		operandPrec = precUnary
	default:
		return nil, p.errorAt(token, "unexpected operator %q", token.Value)
	}
	p.next()

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.parseBinaryExpression(operandPrec)
	if err != nil {
		return nil, err
	}
	return &Unary{Op: token.Value, Operand: operand}, nil
}

// parsePostfix parses a primary expression and rejects attribute access,
// subscripts and calls on anything but a plain name
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}

	token := p.peek()
	switch token.Type {
	case TokenDot:
		return nil, p.errorAt(token, "attribute access is not allowed")
	case TokenLBracket:
		return nil, p.errorAt(token, "subscripts are not allowed")
	case TokenLParen:
		return nil, p.errorAt(token, "call target must be a plain function name")
	}
	return node, nil
}

// parsePrimaryExpression parses a primary expression
func (p *parser) parsePrimaryExpression() (Node, error) {
	token := p.next()

	switch token.Type {
	case TokenNumber:
		return p.parseNumber(token)

	case TokenString:
		return &Literal{Value: token.Value}, nil

	case TokenIdentifier:
		switch token.Value {
		case "True", "true":
			return &Literal{Value: true}, nil
		case "False", "false":
			return &Literal{Value: false}, nil
		case "None", "null":
			return &Literal{Value: nil}, nil
		}
		if p.peek().Type == TokenLParen {
			return p.parseFunctionCall(token)
		}
		return &Identifier{Name: token.Value}, nil

	case TokenLParen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.Type != TokenRParen {
			return nil, p.errorAt(closing, "unbalanced parentheses: expected )")
		}
		return expr, nil

	case TokenRParen:
		return nil, p.errorAt(token, "unbalanced parentheses")

	case TokenAssign:
		return nil, p.errorAt(token, "assignment is not allowed")

	case TokenEOF:
		return nil, p.errorAt(token, "unexpected end of expression")

	default:
		return nil, p.errorAt(token, "unexpected token %q", token.Value)
	}
}

func (p *parser) parseNumber(token *Token) (Node, error) {
	if !strings.ContainsAny(token.Value, ".eE") {
		if n, err := strconv.ParseInt(token.Value, 10, 64); err == nil {
			return &Literal{Value: n}, nil
		}
	}
	f, err := strconv.ParseFloat(token.Value, 64)
	if err != nil {
		return nil, p.errorAt(token, "invalid number %q", token.Value)
	}
	return &Literal{Value: f}, nil
}

// parseFunctionCall parses the argument list of a call
func (p *parser) parseFunctionCall(name *Token) (Node, error) {
	p.next() // skip (
	call := &Call{Name: name.Value}
	seen := make(map[string]bool)

	for {
		token := p.peek()
		if token.Type == TokenEOF {
			return nil, p.errorAt(token, "unbalanced parentheses: unexpected end of input in call to %s", name.Value)
		}
		if token.Type == TokenRParen {
			p.next()
			break
		}

		if len(call.Args) > 0 || len(call.Keywords) > 0 {
			if token.Type != TokenComma {
				return nil, p.errorAt(token, "expected , or ) in call to %s", name.Value)
			}
			p.next()
			if p.peek().Type == TokenRParen {
				p.next()
				break
			}
		}

		if p.peek().Type == TokenIdentifier && p.tokens[p.current+1].Type == TokenAssign {
			kwName := p.next()
			p.next() // skip =
			if seen[kwName.Value] {
				return nil, p.errorAt(kwName, "duplicate keyword argument %q", kwName.Value)
			}
			seen[kwName.Value] = true
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, Keyword{Name: kwName.Value, Value: value})
			continue
		}

		if len(call.Keywords) > 0 {
			return nil, p.errorAt(p.peek(), "positional argument follows keyword argument")
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}

	if call.Name == LookupFunction {
		return p.lookupCall(name, call)
	}
	return call, nil
}

// lookupCall converts lookup(key, resolver, on_missing, default) into a
// Lookup node. The resolver is a name, not a column reference.
func (p *parser) lookupCall(name *Token, call *Call) (Node, error) {
	args := call.Args
	if len(args) < 2 || len(args) > 4 {
		return nil, p.errorAt(name, "lookup takes a key expression and a resolver name, got %d positional argument(s)", len(args))
	}

	lookup := &Lookup{Key: args[0]}
	switch r := args[1].(type) {
	case *Identifier:
		lookup.Resolver = r.Name
	case *Literal:
		s, ok := r.Value.(string)
		if !ok {
			return nil, p.errorAt(name, "lookup resolver must be a name or string literal")
		}
		lookup.Resolver = s
	default:
		return nil, p.errorAt(name, "lookup resolver must be a name or string literal")
	}

	onMissing := func(n Node) error {
		lit, ok := n.(*Literal)
		if !ok {
			return p.errorAt(name, "lookup on_missing must be a string literal")
		}
		s, ok := lit.Value.(string)
		if !ok {
			return p.errorAt(name, "lookup on_missing must be a string literal")
		}
		lookup.OnMissing = s
		return nil
	}

	if len(args) > 2 {
		if err := onMissing(args[2]); err != nil {
			return nil, err
		}
	}
	if len(args) > 3 {
		lookup.Default = args[3]
	}

	for _, kw := range call.Keywords {
		switch kw.Name {
		case "on_missing":
			if len(args) > 2 {
				return nil, p.errorAt(name, "lookup got multiple values for on_missing")
			}
			if err := onMissing(kw.Value); err != nil {
				return nil, err
			}
		case "default":
			if len(args) > 3 {
				return nil, p.errorAt(name, "lookup got multiple values for default")
			}
			lookup.Default = kw.Value
		default:
			return nil, p.errorAt(name, "lookup got an unexpected keyword argument %q", kw.Name)
		}
	}

	return lookup, nil
}
