package expr

import (
	"github.com/arloliu/emreg/errs"
)

// Grammar, lowest precedence first:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | power
//	power  = atom [ "^" unary ]
//	atom   = number | "#" name | func "(" expr ")" | "(" expr ")"
//
// Exponentiation is right-associative and binds tighter than unary minus on
// its left operand, so -2^2 is -4.
type parser struct {
	input  string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return errs.NewParseError(p.input, t.pos, format, args...)
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text[0], l: left, r: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text[0], l: left, r: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && t.text == "-" {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return negNode{x: x}, nil
	}

	return p.parsePower()
}

func (p *parser) parsePower() (node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind != tokOp || t.text != "^" {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return binaryNode{op: '^', l: base, r: exp}, nil
}

func (p *parser) parseAtom() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{v: t.num}, nil
	case tokField:
		return fieldNode{name: t.text}, nil
	case tokIdent:
		fn, ok := functions[t.text]
		if !ok {
			return nil, p.errorf(t, "unknown function %q", t.text)
		}
		if open := p.next(); open.kind != tokLParen {
			return nil, p.errorf(open, "expected ( after %s", t.text)
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected )")
		}

		return callNode{name: t.text, fn: fn, arg: arg}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected )")
		}

		return inner, nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
}
