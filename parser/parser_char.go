package parser

import (
	"unicode/utf8"

	"github.com/coregx/rex/ast"
)

func litClass(c rune) *ast.Node {
	return ast.CharClass([]ast.Range{{Lo: c, Hi: c}}, false)
}

// charParser is a recursive-descent parser over the CHAR grammar:
// expression -> sequence ('|' sequence)*
// sequence   -> term*
// term       -> factor ('*' | '+' | '?' | '{' m (',' n?)? '}')?
// factor     -> group | class | '.' | '^' | '$' | escape | literal
type charParser struct {
	input    []rune
	pos      int
	captures int
}

// ParseChar parses a CHAR-dialect pattern into an AST. Backreference
// index validation against the capture count happens in the compiler,
// not here — the parser only checks grammar shape.
func ParseChar(pattern string) (*ast.Node, error) {
	p := &charParser{input: []rune(pattern)}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.input) {
		return nil, newErrChar(ErrUnexpectedChar, p.pos, p.input[p.pos])
	}
	return node, nil
}

func (p *charParser) parseExpression() (*ast.Node, error) {
	left, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.input) && p.input[p.pos] == '|' {
		p.pos++
		right, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		left = ast.Alternate(left, right)
	}
	return left, nil
}

func (p *charParser) parseSequence() (*ast.Node, error) {
	var seq []*ast.Node
	for p.pos < len(p.input) && p.input[p.pos] != '|' && p.input[p.pos] != ')' {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		seq = append(seq, term)
	}
	return foldSeq(seq), nil
}

func (p *charParser) parseTerm() (*ast.Node, error) {
	factor, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.input) {
		return factor, nil
	}
	switch p.input[p.pos] {
	case '*':
		p.pos++
		if p.lazyMarker() {
			return nil, newErr(ErrInvalidRepeatOp, p.pos)
		}
		return ast.ZeroOrMore(factor, true), nil
	case '+':
		p.pos++
		if p.lazyMarker() {
			return nil, newErr(ErrInvalidRepeatOp, p.pos)
		}
		return ast.OneOrMore(factor, true), nil
	case '?':
		p.pos++
		if p.lazyMarker() {
			return nil, newErr(ErrInvalidRepeatOp, p.pos)
		}
		return ast.ZeroOrOne(factor, true), nil
	case '{':
		min, max, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		if p.lazyMarker() {
			return nil, newErr(ErrInvalidRepeatOp, p.pos)
		}
		return ast.Repeat(factor, true, min, max), nil
	default:
		return factor, nil
	}
}

func (p *charParser) lazyMarker() bool {
	return p.pos < len(p.input) && p.input[p.pos] == '?'
}

func (p *charParser) parseFactor() (*ast.Node, error) {
	if p.pos >= len(p.input) {
		return nil, newErr(ErrUnexpectedEnd, p.pos)
	}
	c := p.input[p.pos]
	switch c {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseCharClass()
	case '.':
		p.pos++
		return ast.CharClass([]ast.Range{{Lo: 0, Hi: utf8.MaxRune}}, false), nil
	case '^':
		p.pos++
		return ast.Assertion(ast.StartOfLine), nil
	case '$':
		p.pos++
		return ast.Assertion(ast.EndOfLine), nil
	case '\\':
		p.pos++
		return p.parseEscape()
	case ')', '|', '*', '+', '?', ']', '{', '}':
		return nil, newErrChar(ErrUnexpectedChar, p.pos, c)
	default:
		p.pos++
		return ast.CharClass([]ast.Range{{Lo: c, Hi: c}}, false), nil
	}
}

func (p *charParser) parseGroup() (*ast.Node, error) {
	start := p.pos
	p.pos++ // consume '('
	if p.pos < len(p.input) && p.input[p.pos] == '?' {
		return nil, newErrChar(ErrUnexpectedChar, p.pos, '?')
	}
	p.captures++
	index := p.captures
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.input) || p.input[p.pos] != ')' {
		return nil, newErr(ErrMissingParenthesis, start)
	}
	p.pos++
	return ast.Capture(expr, index), nil
}

// parseEscape handles a backslash outside a character class. A digit
// begins a greedily-consumed decimal backreference index; anything else
// passes through as a single-character literal class — this dialect has
// no \d/\w/\s shortcuts and no \n/\t-style control escapes.
func (p *charParser) parseEscape() (*ast.Node, error) {
	start := p.pos
	if p.pos >= len(p.input) {
		return nil, newErr(ErrTrailingBackslash, start)
	}
	c := p.input[p.pos]
	if c >= '0' && c <= '9' {
		idx := 0
		for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			idx = idx*10 + int(p.input[p.pos]-'0')
			p.pos++
		}
		return ast.Backreference(idx), nil
	}
	p.pos++
	return litClass(c), nil
}

// parseCharClass parses a `[...]` bracket expression. A leading `]`
// (right after `[` or `[^`) is a literal, as is a trailing `-` right
// before the closing `]`.
func (p *charParser) parseCharClass() (*ast.Node, error) {
	start := p.pos
	p.pos++ // consume '['
	negated := false
	if p.pos < len(p.input) && p.input[p.pos] == '^' {
		negated = true
		p.pos++
	}
	var ranges []ast.Range
	first := true
	for {
		if p.pos >= len(p.input) {
			return nil, newErr(ErrMissingBracket, start)
		}
		c := p.input[p.pos]
		if c == ']' && !first {
			p.pos++
			break
		}
		first = false
		if c == ']' {
			p.pos++
			ranges = append(ranges, ast.Range{Lo: ']', Hi: ']'})
			continue
		}
		lo, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if p.pos < len(p.input) && p.input[p.pos] == '-' && p.pos+1 < len(p.input) && p.input[p.pos+1] != ']' {
			p.pos++ // consume '-'
			hi, err := p.parseClassAtom()
			if err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, newErr(ErrInvalidCharClass, p.pos)
			}
			ranges = append(ranges, ast.Range{Lo: lo, Hi: hi})
		} else {
			ranges = append(ranges, ast.Range{Lo: lo, Hi: lo})
		}
	}
	if len(ranges) == 0 {
		return nil, newErr(ErrInvalidCharClass, start)
	}
	return ast.CharClass(ranges, negated), nil
}

// parseClassAtom reads one class member: a plain character, or a
// backslash followed by whatever character comes next, taken literally
// (no \n/\t-style translation — the escape just protects the following
// character from being read as '-' or ']').
func (p *charParser) parseClassAtom() (rune, error) {
	if p.pos >= len(p.input) {
		return 0, newErr(ErrMissingBracket, p.pos)
	}
	c := p.input[p.pos]
	if c != '\\' {
		p.pos++
		return c, nil
	}
	p.pos++
	if p.pos >= len(p.input) {
		return 0, newErr(ErrTrailingBackslash, p.pos)
	}
	ec := p.input[p.pos]
	p.pos++
	return ec, nil
}

// parseRepeat parses a `{m}`, `{m,}`, or `{m,n}` bound, assuming the
// current position is at the opening `{`.
func (p *charParser) parseRepeat() (uint32, *uint32, error) {
	p.pos++ // consume '{'
	min, err := p.parseRepeatNumber()
	if err != nil {
		return 0, nil, err
	}
	if p.pos >= len(p.input) {
		return 0, nil, newErr(ErrUnexpectedEnd, p.pos)
	}
	switch p.input[p.pos] {
	case '}':
		p.pos++
		max := min
		return min, &max, nil
	case ',':
		p.pos++
		if p.pos < len(p.input) && p.input[p.pos] == '}' {
			p.pos++
			return min, nil, nil
		}
		max, err := p.parseRepeatNumber()
		if err != nil {
			return 0, nil, err
		}
		if p.pos >= len(p.input) || p.input[p.pos] != '}' {
			return 0, nil, newErr(ErrInvalidRepeatOp, p.pos)
		}
		p.pos++
		if max < min {
			return 0, nil, newErr(ErrInvalidRepeatSize, p.pos)
		}
		return min, &max, nil
	default:
		return 0, nil, newErr(ErrInvalidRepeatOp, p.pos)
	}
}

func (p *charParser) parseRepeatNumber() (uint32, error) {
	start := p.pos
	var val uint32
	digits := 0
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		val = val*10 + uint32(p.input[p.pos]-'0')
		p.pos++
		digits++
	}
	if digits == 0 {
		return 0, newErr(ErrMissingRepeatArgument, start)
	}
	return val, nil
}
