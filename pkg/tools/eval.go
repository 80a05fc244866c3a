package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// evaluate parses and computes an arithmetic expression. Supported:
// + - * / % ^, parentheses, the constants pi and e, and the functions
// sqrt sin cos tan log log10 exp abs pow min max round floor ceil.
func evaluate(expression string) (float64, error) {
	p := &exprParser{input: expression}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("expression is not a finite number")
	}
	return value, nil
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

var unaryFuncs = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"abs":   math.Abs,
	"round": math.Round,
	"floor": math.Floor,
	"ceil":  math.Ceil,
}

var binaryFuncs = map[string]func(float64, float64) float64{
	"pow": math.Pow,
	"min": math.Min,
	"max": math.Max,
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.accept('+'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case p.accept('-'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.accept('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.accept('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case p.accept('%'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.accept('-') {
		value, err := p.parseUnary()
		return -value, err
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.accept('^') {
		// Right-associative
		exponent, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exponent), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	if p.accept('(') {
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if !p.accept(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return value, nil
	}

	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case unicode.IsLetter(rune(c)):
		return p.parseIdent()
	default:
		return 0, fmt.Errorf("unexpected %q at position %d", c, p.pos)
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		break
	}

	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value, nil
}

func (p *exprParser) parseIdent() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			p.pos++
			continue
		}
		break
	}
	name := strings.ToLower(p.input[start:p.pos])

	if value, ok := constants[name]; ok {
		return value, nil
	}

	p.skipSpaces()
	if !p.accept('(') {
		return 0, fmt.Errorf("unknown identifier %q", name)
	}

	first, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	if fn, ok := binaryFuncs[name]; ok {
		p.skipSpaces()
		if !p.accept(',') {
			return 0, fmt.Errorf("%s expects two arguments", name)
		}
		second, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if !p.accept(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return fn(first, second), nil
	}

	if fn, ok := unaryFuncs[name]; ok {
		if !p.accept(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return fn(first), nil
	}

	return 0, fmt.Errorf("unknown function %q", name)
}

func (p *exprParser) accept(c byte) bool {
	p.skipSpaces()
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}
