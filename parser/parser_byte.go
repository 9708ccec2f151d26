package parser

import (
	"strings"

	"github.com/coregx/rex/ast"
)

// isByteEscapable reports whether c is in the fixed set of characters
// '\' may precede in the BYTE grammar. Anything else after a backslash is InvalidEscape — the BYTE
// dialect has no general-purpose escaping.
func isByteEscapable(c byte) bool {
	switch c {
	case '\\', '(', ')', '|', '+', '*', '?', '.':
		return true
	default:
		return false
	}
}

type byteFrame struct {
	seq   []*ast.Node
	seqOr []*ast.Node
}

// ParseByte parses a BYTE-dialect pattern. '^' and '$' are stripped as
// line anchors before the grammar runs; caret/dollar report which were
// present so the façade can apply them outside the compiled program. A
// pattern that is empty after stripping anchors parses to ast.Empty
// rather than failing — the compiler turns that into a bare Match
// program. A pattern with no anchors and no content is ErrEmptyPattern.
func ParseByte(pattern string) (node *ast.Node, caret, dollar bool, err error) {
	s := pattern
	offset := 0
	if strings.HasPrefix(s, "^") {
		caret = true
		s = s[1:]
		offset = 1
	}
	if strings.HasSuffix(s, "$") {
		dollar = true
		s = s[:len(s)-1]
	}
	if s == "" {
		if caret || dollar {
			return ast.Empty(), caret, dollar, nil
		}
		return nil, false, false, newErr(ErrEmptyPattern, 0)
	}
	node, err = parseByteCore(s)
	if err != nil {
		pe := err.(*ParseError)
		pe.Pos += offset
		return nil, false, false, pe
	}
	return node, caret, dollar, nil
}

// parseByteCore runs the BYTE grammar's state machine: a running
// sequence (seq), a list of completed alternation branches at the
// current nesting level (seqOr), and a stack of (seq, seqOr) pairs for
// enclosing groups.
func parseByteCore(s string) (*ast.Node, error) {
	b := []byte(s)
	var seq []*ast.Node
	var seqOr []*ast.Node
	var stack []byteFrame
	isEscape := false

	for i := 0; i < len(b); i++ {
		c := b[i]

		if isEscape {
			isEscape = false
			if !isByteEscapable(c) {
				return nil, newErrChar(ErrInvalidEscape, i, rune(c))
			}
			seq = append(seq, ast.Char(c))
			continue
		}

		switch c {
		case '\\':
			isEscape = true
		case '+':
			if len(seq) == 0 {
				return nil, newErr(ErrNoPrev, i)
			}
			seq[len(seq)-1] = ast.OneOrMore(seq[len(seq)-1], true)
		case '*':
			if len(seq) == 0 {
				return nil, newErr(ErrNoPrev, i)
			}
			seq[len(seq)-1] = ast.ZeroOrMore(seq[len(seq)-1], true)
		case '?':
			if len(seq) == 0 {
				return nil, newErr(ErrNoPrev, i)
			}
			seq[len(seq)-1] = ast.ZeroOrOne(seq[len(seq)-1], true)
		case '(':
			stack = append(stack, byteFrame{seq: seq, seqOr: seqOr})
			seq = nil
			seqOr = nil
		case ')':
			if len(stack) == 0 {
				return nil, newErr(ErrInvalidRightParen, i)
			}
			if len(seq) > 0 {
				seqOr = append(seqOr, foldSeq(seq))
			}
			group := foldAlternate(seqOr)
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			seq, seqOr = top.seq, top.seqOr
			if group != nil {
				seq = append(seq, group)
			}
		case '|':
			seqOr = append(seqOr, foldSeq(seq))
			seq = nil
		case '.':
			seq = append(seq, ast.AnyByte())
		default:
			seq = append(seq, ast.Char(c))
		}
	}

	if isEscape {
		return nil, newErr(ErrTrailingBackslash, len(b))
	}
	if len(stack) > 0 {
		return nil, newErr(ErrNoRightParen, len(b))
	}
	if len(seq) > 0 {
		seqOr = append(seqOr, foldSeq(seq))
	}
	result := foldAlternate(seqOr)
	if result == nil {
		return nil, newErr(ErrEmptyPattern, 0)
	}
	return result, nil
}
