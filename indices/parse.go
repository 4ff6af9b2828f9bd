package indices

import (
	"errors"
	"strconv"
	"strings"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/expr"
)

// segment is a slice of the input with its byte offset.
type segment struct {
	text string
	pos  int
}

// Parse parses an index specification. Errors match errs.ErrParse.
func Parse(spec string) (*Indices, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, errs.NewParseError(spec, 0, "empty index specification")
	}

	var groups [][]segment
	var err error
	if strings.HasPrefix(trimmed, "{") {
		groups, err = splitGroups(spec)
	} else {
		var entries []segment
		entries, err = splitTop(spec, segment{text: spec})
		for _, e := range entries {
			groups = append(groups, []segment{e})
		}
	}
	if err != nil {
		return nil, err
	}

	parsed := make([][]Index, len(groups))
	for g, group := range groups {
		parsed[g] = make([]Index, len(group))
		for e, seg := range group {
			idx, err := parseEntry(spec, seg)
			if err != nil {
				return nil, err
			}
			parsed[g][e] = idx
		}
	}

	last := len(parsed) - 1
	regressors := make([]Index, 0, last)
	for _, group := range parsed[:last] {
		regressors = append(regressors, group[0])
	}
	ix := New(parsed[last][0], regressors...)
	ix.Groups = parsed

	return ix, nil
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) *Indices {
	ix, err := Parse(spec)
	if err != nil {
		panic(err)
	}

	return ix
}

func parseEntry(spec string, seg segment) (Index, error) {
	text := strings.TrimSpace(seg.text)
	lead := seg.pos + strings.Index(seg.text, text)
	if text == "" {
		return Index{}, errs.NewParseError(spec, seg.pos, "empty entry")
	}

	if isInteger(text) {
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			return Index{}, errs.NewParseError(spec, lead, "field position %q must be a positive integer", text)
		}

		return Field(n - 1), nil
	}

	e, err := expr.Compile(text)
	if err != nil {
		var pe *errs.ParseError
		if errors.As(err, &pe) {
			return Index{}, errs.NewParseError(spec, lead+pe.Pos, "%s", pe.Msg).WithCause(err)
		}

		return Index{}, err
	}
	if len(e.Fields()) == 0 {
		return Index{}, errs.NewParseError(spec, lead, "expression %q references no field", text)
	}

	return Expression(e), nil
}

func isInteger(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return len(s) > 0
}

// splitTop splits seg on commas outside parentheses.
func splitTop(spec string, seg segment) ([]segment, error) {
	var out []segment
	depth, start := 0, 0
	for i := 0; i < len(seg.text); i++ {
		switch seg.text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errs.NewParseError(spec, seg.pos+i, "unbalanced )")
			}
		case ',':
			if depth == 0 {
				out = append(out, segment{text: seg.text[start:i], pos: seg.pos + start})
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errs.NewParseError(spec, seg.pos+len(seg.text), "unbalanced (")
	}

	return append(out, segment{text: seg.text[start:], pos: seg.pos + start}), nil
}

// splitGroups splits "{a, b}, {c}" into groups of entry segments.
func splitGroups(spec string) ([][]segment, error) {
	var groups [][]segment
	i := 0
	skipSpace := func() {
		for i < len(spec) && (spec[i] == ' ' || spec[i] == '\t' || spec[i] == '\n' || spec[i] == '\r') {
			i++
		}
	}

	for {
		skipSpace()
		if i >= len(spec) || spec[i] != '{' {
			return nil, errs.NewParseError(spec, i, "expected {")
		}
		closing := strings.IndexByte(spec[i+1:], '}')
		if closing < 0 {
			return nil, errs.NewParseError(spec, len(spec), "unterminated group")
		}
		body := segment{text: spec[i+1 : i+1+closing], pos: i + 1}
		if strings.ContainsRune(body.text, '{') {
			return nil, errs.NewParseError(spec, i+1+strings.IndexByte(body.text, '{'), "nested group")
		}
		entries, err := splitTop(spec, body)
		if err != nil {
			return nil, err
		}
		groups = append(groups, entries)
		i += closing + 2

		skipSpace()
		if i >= len(spec) {
			return groups, nil
		}
		if spec[i] != ',' {
			return nil, errs.NewParseError(spec, i, "expected , between groups")
		}
		i++
	}
}
