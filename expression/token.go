package expression

import (
	"fmt"
	"strings"
)

// TokenType represents expression token type
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenIdentifier
	TokenOperator
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenDot
	TokenComma
	TokenAssign
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// word operators and their symbolic aliases share one canonical spelling
var wordOperators = map[string]string{
	"and": "and",
	"or":  "or",
	"not": "not",
}

var symbolAliases = map[string]string{
	"&": "and",
	"|": "or",
	"~": "not",
}

// lexer splits an expression into tokens
type lexer struct {
	source string
	pos    int
	line   int
	col    int
}

// tokenize splits the expression into tokens
func tokenize(source string) ([]*Token, error) {
	l := &lexer{source: source, line: 1, col: 1}
	var tokens []*Token

	for l.pos < len(l.source) {
		char := l.source[l.pos]

		switch {
		case isWhitespace(char):
			l.advance(1)

		case isDigit(char) || (char == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])):
			tokens = append(tokens, l.readNumber())

		case isLetter(char) || char == '_':
			tokens = append(tokens, l.readIdentifier())

		case char == '"' || char == '\'':
			token, err := l.readString()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)

		case isOperator(char):
			token, err := l.readOperator()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)

		case strings.IndexByte("()[].,", char) >= 0:
			tokens = append(tokens, &Token{Type: punctuation(char), Value: string(char), Line: l.line, Col: l.col})
			l.advance(1)

		default:
			return nil, l.errorf("unknown operator or character %q", char)
		}
	}

	tokens = append(tokens, &Token{Type: TokenEOF, Line: l.line, Col: l.col})
	return tokens, nil
}

// advance moves forward n bytes, tracking line and column
func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.source); i++ {
		if l.source[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *lexer) errorf(format string, args ...any) error {
	return newParseError(l.source, l.line, l.col, fmt.Sprintf(format, args...))
}

// readNumber reads an integer or float literal, with optional exponent
func (l *lexer) readNumber() *Token {
	start := l.pos
	token := &Token{Type: TokenNumber, Line: l.line, Col: l.col}
	current := l.pos
	hasDot := false

	for current < len(l.source) {
		char := l.source[current]
		if isDigit(char) {
			current++
		} else if char == '.' && !hasDot {
			hasDot = true
			current++
		} else {
			break
		}
	}

	if current < len(l.source) && (l.source[current] == 'e' || l.source[current] == 'E') {
		next := current + 1
		if next < len(l.source) && (l.source[next] == '+' || l.source[next] == '-') {
			next++
		}
		if next < len(l.source) && isDigit(l.source[next]) {
			for next < len(l.source) && isDigit(l.source[next]) {
				next++
			}
			current = next
		}
	}

	token.Value = l.source[start:current]
	l.advance(current - start)
	return token
}

// readIdentifier reads an identifier; word operators become operator tokens
func (l *lexer) readIdentifier() *Token {
	start := l.pos
	token := &Token{Type: TokenIdentifier, Line: l.line, Col: l.col}
	current := l.pos

	for current < len(l.source) {
		char := l.source[current]
		if isLetter(char) || isDigit(char) || char == '_' {
			current++
		} else {
			break
		}
	}

	token.Value = l.source[start:current]
	if op, ok := wordOperators[token.Value]; ok {
		token.Type = TokenOperator
		token.Value = op
	}
	l.advance(current - start)
	return token
}

// readString reads a single or double quoted string literal
func (l *lexer) readString() (*Token, error) {
	var value strings.Builder
	token := &Token{Type: TokenString, Line: l.line, Col: l.col}
	quote := l.source[l.pos]
	current := l.pos + 1

	for current < len(l.source) {
		char := l.source[current]
		if char == quote {
			token.Value = value.String()
			l.advance(current + 1 - l.pos)
			return token, nil
		}
		if char == '\\' && current+1 < len(l.source) {
			current++
			char = l.source[current]
			switch char {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case '\\', '"', '\'':
				value.WriteByte(char)
			default:
				return nil, newParseError(l.source, token.Line, token.Col, fmt.Sprintf("invalid escape sequence \\%c", char))
			}
		} else {
			value.WriteByte(char)
		}
		current++
	}

	return nil, newParseError(l.source, token.Line, token.Col, "unterminated string")
}

// readOperator reads a one or two character operator
func (l *lexer) readOperator() (*Token, error) {
	token := &Token{Type: TokenOperator, Line: l.line, Col: l.col}

	if l.pos+1 < len(l.source) {
		compound := l.source[l.pos : l.pos+2]
		switch compound {
		case "**", "==", "!=", ">=", "<=":
			token.Value = compound
			l.advance(2)
			return token, nil
		}
	}

	op := l.source[l.pos : l.pos+1]
	switch op {
	case "+", "-", "*", "/", "%", "<", ">":
		token.Value = op
	case "&", "|", "~":
		token.Value = symbolAliases[op]
	case "=":
		token.Type = TokenAssign
		token.Value = op
	default:
		return nil, l.errorf("unknown operator %q", op)
	}
	l.advance(1)
	return token, nil
}

// punctuation returns the token type for the given character
func punctuation(c byte) TokenType {
	switch c {
	case '(':
		return TokenLParen
	case ')':
		return TokenRParen
	case '[':
		return TokenLBracket
	case ']':
		return TokenRBracket
	case '.':
		return TokenDot
	default:
		return TokenComma
	}
}

// isWhitespace returns true if the given character is whitespace
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isDigit returns true if the given character is a digit
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isLetter returns true if the given character is a letter
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isOperator returns true if the given character starts an operator
func isOperator(c byte) bool {
	return strings.IndexByte("+-*/%=!<>|&~^@$;:?", c) >= 0
}
