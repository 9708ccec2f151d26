// Package ast defines the abstract syntax tree produced by the parser
// and consumed by the compiler.
//
// A single Kind-tagged Node type covers every variant either dialect
// needs: the BYTE dialect only ever constructs a subset (Empty, Char,
// AnyByte, Concat, Alternate, ZeroOrMore/OneOrMore/ZeroOrOne); the CHAR
// dialect can construct all of them. Subtrees are exclusively owned by
// their parent — there are no shared references.
package ast

import "fmt"

// Kind identifies which AST variant a Node represents.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindChar          // BYTE only: a single literal byte
	KindAnyByte       // BYTE only: '.', matches exactly one byte
	KindCharClass     // CHAR only
	KindAssertion     // CHAR only: zero-width assertion
	KindCapture
	KindZeroOrMore
	KindOneOrMore
	KindZeroOrOne
	KindRepeat
	KindConcat
	KindAlternate
	KindBackreference
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindChar:
		return "Char"
	case KindAnyByte:
		return "AnyByte"
	case KindCharClass:
		return "CharClass"
	case KindAssertion:
		return "Assertion"
	case KindCapture:
		return "Capture"
	case KindZeroOrMore:
		return "ZeroOrMore"
	case KindOneOrMore:
		return "OneOrMore"
	case KindZeroOrOne:
		return "ZeroOrOne"
	case KindRepeat:
		return "Repeat"
	case KindConcat:
		return "Concat"
	case KindAlternate:
		return "Alternate"
	case KindBackreference:
		return "Backreference"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// AssertKind identifies a zero-width assertion (CHAR dialect only).
type AssertKind uint8

const (
	StartOfLine AssertKind = iota
	EndOfLine
	StartOfText
	EndOfText
	WordBoundary
	NonWordBoundary
)

func (a AssertKind) String() string {
	switch a {
	case StartOfLine:
		return "StartOfLine"
	case EndOfLine:
		return "EndOfLine"
	case StartOfText:
		return "StartOfText"
	case EndOfText:
		return "EndOfText"
	case WordBoundary:
		return "WordBoundary"
	case NonWordBoundary:
		return "NonWordBoundary"
	default:
		return fmt.Sprintf("AssertKind(%d)", uint8(a))
	}
}

// Range is an inclusive codepoint range; Lo == Hi is a degenerate
// single-codepoint range.
type Range struct {
	Lo, Hi rune
}

// Node is a single AST node. Its Kind determines which fields are valid.
type Node struct {
	kind Kind

	char byte // KindChar

	ranges   []Range // KindCharClass
	negated  bool    // KindCharClass

	assert AssertKind // KindAssertion

	index int // KindCapture, KindBackreference

	expr   *Node // KindCapture, KindZeroOrMore, KindOneOrMore, KindZeroOrOne, KindRepeat
	greedy bool  // KindZeroOrMore, KindOneOrMore, KindZeroOrOne, KindRepeat

	min uint32  // KindRepeat
	max *uint32 // KindRepeat; nil means unbounded

	exprs []*Node // KindConcat

	left, right *Node // KindAlternate
}

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Empty constructs an Empty node.
func Empty() *Node { return &Node{kind: KindEmpty} }

// Char constructs a literal-byte node (BYTE only).
func Char(b byte) *Node { return &Node{kind: KindChar, char: b} }

// AnyByte constructs a wildcard node matching exactly one byte (BYTE only).
func AnyByte() *Node { return &Node{kind: KindAnyByte} }

// CharClass constructs a character class node (CHAR only).
func CharClass(ranges []Range, negated bool) *Node {
	return &Node{kind: KindCharClass, ranges: ranges, negated: negated}
}

// Assertion constructs a zero-width assertion node (CHAR only).
func Assertion(kind AssertKind) *Node {
	return &Node{kind: KindAssertion, assert: kind}
}

// Capture constructs a numbered capture-group node (CHAR only).
func Capture(expr *Node, index int) *Node {
	return &Node{kind: KindCapture, expr: expr, index: index}
}

// ZeroOrMore constructs an `e*` node.
func ZeroOrMore(expr *Node, greedy bool) *Node {
	return &Node{kind: KindZeroOrMore, expr: expr, greedy: greedy}
}

// OneOrMore constructs an `e+` node.
func OneOrMore(expr *Node, greedy bool) *Node {
	return &Node{kind: KindOneOrMore, expr: expr, greedy: greedy}
}

// ZeroOrOne constructs an `e?` node.
func ZeroOrOne(expr *Node, greedy bool) *Node {
	return &Node{kind: KindZeroOrOne, expr: expr, greedy: greedy}
}

// Repeat constructs a bounded-repetition node `e{min,max}` (CHAR only).
// A nil max means unbounded (`e{min,}`).
func Repeat(expr *Node, greedy bool, min uint32, max *uint32) *Node {
	return &Node{kind: KindRepeat, expr: expr, greedy: greedy, min: min, max: max}
}

// Concat constructs a sequence node; exprs must have length >= 2.
func Concat(exprs []*Node) *Node {
	return &Node{kind: KindConcat, exprs: exprs}
}

// Alternate constructs a binary alternation node `l|r`.
func Alternate(left, right *Node) *Node {
	return &Node{kind: KindAlternate, left: left, right: right}
}

// Backreference constructs a backreference node `\i` (CHAR only).
func Backreference(index int) *Node {
	return &Node{kind: KindBackreference, index: index}
}

// Char returns the literal byte for a KindChar node.
func (n *Node) Char() byte { return n.char }

// CharClass returns the ranges and negation flag for a KindCharClass node.
func (n *Node) CharClass() ([]Range, bool) { return n.ranges, n.negated }

// Assert returns the assertion kind for a KindAssertion node.
func (n *Node) Assert() AssertKind { return n.assert }

// Index returns the capture/backreference index for KindCapture or
// KindBackreference nodes.
func (n *Node) Index() int { return n.index }

// Expr returns the child expression for unary-quantifier-shaped nodes.
func (n *Node) Expr() *Node { return n.expr }

// Greedy returns the greediness flag for quantifier nodes.
func (n *Node) Greedy() bool { return n.greedy }

// Bounds returns the min/max repetition counts for a KindRepeat node.
// A nil max means unbounded.
func (n *Node) Bounds() (min uint32, max *uint32) { return n.min, n.max }

// Exprs returns the child list for a KindConcat node.
func (n *Node) Exprs() []*Node { return n.exprs }

// Alternate returns the two branches for a KindAlternate node.
func (n *Node) Alternate() (left, right *Node) { return n.left, n.right }

// MaxCaptureIndex walks n and returns the largest capture index used by
// any KindCapture node, or 0 if there are none.
func MaxCaptureIndex(n *Node) int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindCapture:
		childMax := MaxCaptureIndex(n.expr)
		if n.index > childMax {
			return n.index
		}
		return childMax
	case KindZeroOrMore, KindOneOrMore, KindZeroOrOne, KindRepeat:
		return MaxCaptureIndex(n.expr)
	case KindConcat:
		max := 0
		for _, e := range n.exprs {
			if m := MaxCaptureIndex(e); m > max {
				max = m
			}
		}
		return max
	case KindAlternate:
		l, r := MaxCaptureIndex(n.left), MaxCaptureIndex(n.right)
		if l > r {
			return l
		}
		return r
	default:
		return 0
	}
}

// String renders a debugging form of the node, recursing into children.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case KindEmpty:
		return "Empty"
	case KindChar:
		return fmt.Sprintf("Char(%q)", n.char)
	case KindAnyByte:
		return "AnyByte"
	case KindCharClass:
		return fmt.Sprintf("CharClass(negated=%v, ranges=%v)", n.negated, n.ranges)
	case KindAssertion:
		return fmt.Sprintf("Assertion(%s)", n.assert)
	case KindCapture:
		return fmt.Sprintf("Capture(%d, %s)", n.index, n.expr)
	case KindZeroOrMore:
		return fmt.Sprintf("ZeroOrMore(%s, greedy=%v)", n.expr, n.greedy)
	case KindOneOrMore:
		return fmt.Sprintf("OneOrMore(%s, greedy=%v)", n.expr, n.greedy)
	case KindZeroOrOne:
		return fmt.Sprintf("ZeroOrOne(%s, greedy=%v)", n.expr, n.greedy)
	case KindRepeat:
		if n.max != nil {
			return fmt.Sprintf("Repeat(%s, greedy=%v, min=%d, max=%d)", n.expr, n.greedy, n.min, *n.max)
		}
		return fmt.Sprintf("Repeat(%s, greedy=%v, min=%d, max=inf)", n.expr, n.greedy, n.min)
	case KindConcat:
		return fmt.Sprintf("Concat(%v)", n.exprs)
	case KindAlternate:
		return fmt.Sprintf("Alternate(%s, %s)", n.left, n.right)
	case KindBackreference:
		return fmt.Sprintf("Backreference(%d)", n.index)
	default:
		return "<invalid>"
	}
}
