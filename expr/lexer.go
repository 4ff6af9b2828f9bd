package expr

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/arloliu/emreg/errs"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokField
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

// FieldMarker prefixes field references inside expressions.
const FieldMarker = '#'

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r >= '0' && r <= '9' || r == '.':
			start := i
			i = scanNumber(input, i)
			v, err := strconv.ParseFloat(input[start:i], 64)
			if err != nil {
				return nil, errs.NewParseError(input, start, "bad number %q", input[start:i]).WithCause(err)
			}
			tokens = append(tokens, token{kind: tokNumber, text: input[start:i], num: v, pos: start})
		case r == FieldMarker:
			start := i
			i += size
			end := scanName(input, i)
			if end == i {
				return nil, errs.NewParseError(input, start, "field marker without a name")
			}
			tokens = append(tokens, token{kind: tokField, text: input[i:end], pos: start})
			i = end
		case isNameStart(r):
			start := i
			i = scanName(input, i)
			tokens = append(tokens, token{kind: tokIdent, text: input[start:i], pos: start})
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			tokens = append(tokens, token{kind: tokOp, text: string(r), pos: i})
			i += size
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i += size
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i += size
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i += size
		default:
			return nil, errs.NewParseError(input, i, "unexpected character %q", r)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(input)})

	return tokens, nil
}

// scanNumber accepts digits, one decimal point and an optional exponent.
func scanNumber(s string, i int) int {
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}

	return i
}

func scanName(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isNameStart(r) && !unicode.IsDigit(r) && r != '.' {
			break
		}
		i += size
	}

	return i
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
