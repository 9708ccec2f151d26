package parser

import (
	"testing"

	"github.com/coregx/rex/ast"
)

func TestParseCharLiteralClass(t *testing.T) {
	node, err := ParseChar("a")
	if err != nil {
		t.Fatalf("ParseChar: %v", err)
	}
	if node.Kind() != ast.KindCharClass {
		t.Fatalf("kind = %s, want CharClass", node.Kind())
	}
	ranges, negated := node.CharClass()
	if negated || len(ranges) != 1 || ranges[0] != (ast.Range{Lo: 'a', Hi: 'a'}) {
		t.Fatalf("ranges = %v negated = %v, want [{a,a}] false", ranges, negated)
	}
}

func TestParseCharCaptureNumbering(t *testing.T) {
	node, err := ParseChar("(a(b)c)")
	if err != nil {
		t.Fatalf("ParseChar: %v", err)
	}
	if node.Kind() != ast.KindCapture || node.Index() != 1 {
		t.Fatalf("outer = %s, want Capture(1, ...)", node)
	}
	inner := node.Expr()
	if inner.Kind() != ast.KindConcat {
		t.Fatalf("inner = %s, want Concat", inner)
	}
	exprs := inner.Exprs()
	if exprs[1].Kind() != ast.KindCapture || exprs[1].Index() != 2 {
		t.Fatalf("exprs[1] = %s, want Capture(2, ...)", exprs[1])
	}
}

func TestParseCharBoundedRepeat(t *testing.T) {
	tests := []struct {
		pattern string
		min     uint32
		max     *uint32
	}{
		{"a{2}", 2, u32ptr(2)},
		{"a{2,}", 2, nil},
		{"a{2,3}", 2, u32ptr(3)},
	}
	for _, tt := range tests {
		node, err := ParseChar(tt.pattern)
		if err != nil {
			t.Fatalf("ParseChar(%q): %v", tt.pattern, err)
		}
		if node.Kind() != ast.KindRepeat {
			t.Fatalf("ParseChar(%q) kind = %s, want Repeat", tt.pattern, node.Kind())
		}
		min, max := node.Bounds()
		if min != tt.min || !equalPtr(max, tt.max) {
			t.Errorf("ParseChar(%q) bounds = (%d,%v), want (%d,%v)", tt.pattern, min, max, tt.min, tt.max)
		}
	}
}

func TestParseCharInvalidRepeatSize(t *testing.T) {
	_, err := ParseChar("a{3,2}")
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrInvalidRepeatSize {
		t.Fatalf("err = %v, want ErrInvalidRepeatSize", err)
	}
}

func TestParseCharLazyQuantifierRejected(t *testing.T) {
	for _, pattern := range []string{"a*?", "a+?", "a??", "a{1,2}?"} {
		_, err := ParseChar(pattern)
		pe, ok := err.(*ParseError)
		if !ok || pe.Kind != ErrInvalidRepeatOp {
			t.Errorf("ParseChar(%q) err = %v, want ErrInvalidRepeatOp", pattern, err)
		}
	}
}

func TestParseCharClassNegationAndRange(t *testing.T) {
	node, err := ParseChar("[^a-z0-9]")
	if err != nil {
		t.Fatalf("ParseChar: %v", err)
	}
	ranges, negated := node.CharClass()
	if !negated {
		t.Fatalf("negated = false, want true")
	}
	want := []ast.Range{{Lo: 'a', Hi: 'z'}, {Lo: '0', Hi: '9'}}
	if len(ranges) != len(want) {
		t.Fatalf("ranges = %v, want %v", ranges, want)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("ranges[%d] = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestParseCharClassLeadingBracketLiteral(t *testing.T) {
	node, err := ParseChar("[]a]")
	if err != nil {
		t.Fatalf("ParseChar: %v", err)
	}
	ranges, _ := node.CharClass()
	if len(ranges) != 2 || ranges[0] != (ast.Range{Lo: ']', Hi: ']'}) {
		t.Fatalf("ranges = %v, want [{],]},{a,a}]", ranges)
	}
}

func TestParseCharClassInvertedRange(t *testing.T) {
	_, err := ParseChar("[z-a]")
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrInvalidCharClass {
		t.Fatalf("err = %v, want ErrInvalidCharClass", err)
	}
}

func TestParseCharBackreference(t *testing.T) {
	node, err := ParseChar(`(a)\1`)
	if err != nil {
		t.Fatalf("ParseChar: %v", err)
	}
	exprs := node.Exprs()
	if exprs[1].Kind() != ast.KindBackreference || exprs[1].Index() != 1 {
		t.Fatalf("exprs[1] = %s, want Backreference(1)", exprs[1])
	}
}

func TestParseCharAssertions(t *testing.T) {
	tests := []struct {
		pattern string
		want    ast.AssertKind
	}{
		{"^", ast.StartOfLine},
		{"$", ast.EndOfLine},
	}
	for _, tt := range tests {
		node, err := ParseChar(tt.pattern)
		if err != nil {
			t.Fatalf("ParseChar(%q): %v", tt.pattern, err)
		}
		if node.Kind() != ast.KindAssertion || node.Assert() != tt.want {
			t.Errorf("ParseChar(%q) = %s, want Assertion(%s)", tt.pattern, node, tt.want)
		}
	}
}

// Backslash in the CHAR dialect has no \A/\z/\b/\B shortcuts: every
// non-digit escape passes the following character through as a
// single-char literal class.
func TestParseCharEscapeIsLiteralNotShortcut(t *testing.T) {
	tests := []struct {
		pattern string
		want    rune
	}{
		{`\A`, 'A'},
		{`\z`, 'z'},
		{`\b`, 'b'},
		{`\B`, 'B'},
		{`\d`, 'd'},
		{`\w`, 'w'},
		{`\s`, 's'},
		{`\n`, 'n'},
	}
	for _, tt := range tests {
		node, err := ParseChar(tt.pattern)
		if err != nil {
			t.Fatalf("ParseChar(%q): %v", tt.pattern, err)
		}
		if node.Kind() != ast.KindCharClass {
			t.Fatalf("ParseChar(%q) kind = %s, want CharClass", tt.pattern, node.Kind())
		}
		ranges, negated := node.CharClass()
		if negated || len(ranges) != 1 || ranges[0] != (ast.Range{Lo: tt.want, Hi: tt.want}) {
			t.Errorf("ParseChar(%q) ranges = %v negated=%v, want [{%c,%c}] false", tt.pattern, ranges, negated, tt.want, tt.want)
		}
	}
}

// Inside a bracket expression, a backslash only protects the following
// character from being read as '-' or ']' — it does not translate
// \n/\t-style escapes to control characters.
func TestParseCharClassEscapeIsLiteral(t *testing.T) {
	node, err := ParseChar(`[\n\]]`)
	if err != nil {
		t.Fatalf("ParseChar: %v", err)
	}
	ranges, _ := node.CharClass()
	want := []ast.Range{{Lo: 'n', Hi: 'n'}, {Lo: ']', Hi: ']'}}
	if len(ranges) != len(want) {
		t.Fatalf("ranges = %v, want %v", ranges, want)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("ranges[%d] = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestParseCharUnexpectedCloseParen(t *testing.T) {
	_, err := ParseChar("a)")
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrUnexpectedChar {
		t.Fatalf("err = %v, want ErrUnexpectedChar", err)
	}
}

func TestParseCharMissingParenthesis(t *testing.T) {
	_, err := ParseChar("(a")
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrMissingParenthesis {
		t.Fatalf("err = %v, want ErrMissingParenthesis", err)
	}
}

func u32ptr(v uint32) *uint32 { return &v }

func equalPtr(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
