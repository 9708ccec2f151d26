package parser

import "github.com/coregx/rex/ast"

// foldSeq collapses a parsed sequence of terms into a single node: an
// empty sequence becomes Empty, a single term is returned unwrapped, and
// two or more fold into Concat.
func foldSeq(seq []*ast.Node) *ast.Node {
	switch len(seq) {
	case 0:
		return ast.Empty()
	case 1:
		return seq[0]
	default:
		return ast.Concat(seq)
	}
}

// foldAlternate folds a list of alternation branches into a single
// left-associative Alternate chain: a|b|c becomes Alternate(Alternate(a,
// b), c). Returns nil for an empty branch list — the caller decides
// whether that means "empty pattern" or "nothing to push".
func foldAlternate(branches []*ast.Node) *ast.Node {
	if len(branches) == 0 {
		return nil
	}
	acc := branches[0]
	for _, br := range branches[1:] {
		acc = ast.Alternate(acc, br)
	}
	return acc
}
