package compiler

import (
	"math"

	"github.com/coregx/rex/ast"
	"github.com/coregx/rex/program"
)

// Compile lowers an AST into a Program for the given dialect. Capture
// and backreference nodes only ever appear in CHAR trees; the compiler
// doesn't special-case the dialect beyond that — it emits whatever
// instructions the node kinds it's handed call for.
func Compile(n *ast.Node, dialect program.Dialect) (program.Program, error) {
	if err := validateBackreferences(n, ast.MaxCaptureIndex(n)); err != nil {
		return program.Program{}, err
	}
	c := &compiler{}
	if err := c.genExpr(n); err != nil {
		return program.Program{}, err
	}
	if _, err := c.push(program.Match()); err != nil {
		return program.Program{}, err
	}
	return program.Program{Instrs: c.instrs, Dialect: dialect}, nil
}

type compiler struct {
	instrs []program.Instr
}

// push appends instr and returns its address.
func (c *compiler) push(instr program.Instr) (int, error) {
	if len(c.instrs) >= math.MaxInt32 {
		return 0, newErr(ErrPCOverflow)
	}
	pc := len(c.instrs)
	c.instrs = append(c.instrs, instr)
	return pc, nil
}

// patchSplitLeft rewrites the left target of the Split at idx, leaving
// its right target untouched.
func (c *compiler) patchSplitLeft(idx, target int) error {
	instr := c.instrs[idx]
	if instr.Kind() != program.KindSplit {
		return newErr(ErrPCOverflow)
	}
	_, right := instr.SplitAddrs()
	c.instrs[idx] = program.Split(target, right)
	return nil
}

// patchSplitRight rewrites the right target of the Split at idx, leaving
// its left target untouched.
func (c *compiler) patchSplitRight(idx, target int) error {
	instr := c.instrs[idx]
	if instr.Kind() != program.KindSplit {
		return newErr(ErrPCOverflow)
	}
	left, _ := instr.SplitAddrs()
	c.instrs[idx] = program.Split(left, target)
	return nil
}

func (c *compiler) patchJump(idx, target int) error {
	if c.instrs[idx].Kind() != program.KindJump {
		return newErr(ErrPCOverflow)
	}
	c.instrs[idx] = program.Jump(target)
	return nil
}

func (c *compiler) genExpr(n *ast.Node) error {
	switch n.Kind() {
	case ast.KindEmpty:
		return nil
	case ast.KindChar:
		_, err := c.push(program.Char(n.Char()))
		return err
	case ast.KindAnyByte:
		_, err := c.push(program.AnyByte())
		return err
	case ast.KindCharClass:
		ranges, negated := n.CharClass()
		_, err := c.push(program.CharClass(ranges, negated))
		return err
	case ast.KindAssertion:
		_, err := c.push(program.Assert(n.Assert()))
		return err
	case ast.KindCapture:
		return c.genCapture(n)
	case ast.KindBackreference:
		_, err := c.push(program.Backref(n.Index()))
		return err
	case ast.KindZeroOrMore:
		return c.genZeroOrMore(n.Expr(), n.Greedy())
	case ast.KindOneOrMore:
		return c.genOneOrMore(n.Expr(), n.Greedy())
	case ast.KindZeroOrOne:
		return c.genZeroOrOne(n.Expr(), n.Greedy())
	case ast.KindRepeat:
		return c.genRepeat(n)
	case ast.KindConcat:
		for _, e := range n.Exprs() {
			if err := c.genExpr(e); err != nil {
				return err
			}
		}
		return nil
	case ast.KindAlternate:
		left, right := n.Alternate()
		return c.genAlternate(left, right)
	default:
		return nil
	}
}

func (c *compiler) genCapture(n *ast.Node) error {
	if _, err := c.push(program.SaveStart(n.Index())); err != nil {
		return err
	}
	if err := c.genExpr(n.Expr()); err != nil {
		return err
	}
	_, err := c.push(program.SaveEnd(n.Index()))
	return err
}

// genZeroOrMore emits `split entry, out` followed by the body and a
// jump back to the split, patching whichever split arm isn't the body
// entry to land on the instruction after the loop.
func (c *compiler) genZeroOrMore(expr *ast.Node, greedy bool) error {
	entry := len(c.instrs) + 1
	var split program.Instr
	if greedy {
		split = program.Split(entry, 0)
	} else {
		split = program.Split(0, entry)
	}
	splitIdx, err := c.push(split)
	if err != nil {
		return err
	}
	if err := c.genExpr(expr); err != nil {
		return err
	}
	if _, err := c.push(program.Jump(splitIdx)); err != nil {
		return err
	}
	out := len(c.instrs)
	if greedy {
		return c.patchSplitRight(splitIdx, out)
	}
	return c.patchSplitLeft(splitIdx, out)
}

// genOneOrMore emits the body once, followed by a split back to the
// body's entry or forward past it — the body always runs at least once
// since the split comes after it.
func (c *compiler) genOneOrMore(expr *ast.Node, greedy bool) error {
	loopEntry := len(c.instrs)
	if err := c.genExpr(expr); err != nil {
		return err
	}
	out := len(c.instrs) + 1
	if greedy {
		_, err := c.push(program.Split(loopEntry, out))
		return err
	}
	_, err := c.push(program.Split(out, loopEntry))
	return err
}

// genZeroOrOne emits `split entry, out` followed by the body, with no
// jump back — this is genZeroOrMore without the loop.
func (c *compiler) genZeroOrOne(expr *ast.Node, greedy bool) error {
	entry := len(c.instrs) + 1
	var split program.Instr
	if greedy {
		split = program.Split(entry, 0)
	} else {
		split = program.Split(0, entry)
	}
	splitIdx, err := c.push(split)
	if err != nil {
		return err
	}
	if err := c.genExpr(expr); err != nil {
		return err
	}
	out := len(c.instrs)
	if greedy {
		return c.patchSplitRight(splitIdx, out)
	}
	return c.patchSplitLeft(splitIdx, out)
}

// genRepeat unrolls the mandatory min copies, then either unrolls
// (max-min) optional copies or, for an unbounded upper end, closes with
// a trailing zero-or-more of the body.
func (c *compiler) genRepeat(n *ast.Node) error {
	expr := n.Expr()
	greedy := n.Greedy()
	min, max := n.Bounds()
	for i := uint32(0); i < min; i++ {
		if err := c.genExpr(expr); err != nil {
			return err
		}
	}
	if max == nil {
		return c.genZeroOrMore(expr, greedy)
	}
	if *max <= min {
		return nil
	}
	for i := min; i < *max; i++ {
		if err := c.genZeroOrOne(expr, greedy); err != nil {
			return err
		}
	}
	return nil
}

// genAlternate emits `split leftEntry, 0`, the left branch, a jump past
// the right branch, then the right branch — patching the split's right
// arm and the jump's target once each side's extent is known.
func (c *compiler) genAlternate(left, right *ast.Node) error {
	leftEntry := len(c.instrs) + 1
	splitIdx, err := c.push(program.Split(leftEntry, 0))
	if err != nil {
		return err
	}
	if err := c.genExpr(left); err != nil {
		return err
	}
	jumpIdx, err := c.push(program.Jump(0))
	if err != nil {
		return err
	}
	rightEntry := len(c.instrs)
	if err := c.patchSplitRight(splitIdx, rightEntry); err != nil {
		return err
	}
	if err := c.genExpr(right); err != nil {
		return err
	}
	out := len(c.instrs)
	return c.patchJump(jumpIdx, out)
}

// validateBackreferences rejects any \N whose index isn't defined by
// some Capture node reachable in n — a forward reference to a capture
// that appears later in the pattern is fine, one that never appears at
// all is not.
func validateBackreferences(n *ast.Node, maxCapture int) error {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case ast.KindBackreference:
		idx := n.Index()
		if idx < 1 || idx > maxCapture {
			return newErrIndex(ErrInvalidBackreference, idx)
		}
		return nil
	case ast.KindCapture, ast.KindZeroOrMore, ast.KindOneOrMore, ast.KindZeroOrOne, ast.KindRepeat:
		return validateBackreferences(n.Expr(), maxCapture)
	case ast.KindConcat:
		for _, e := range n.Exprs() {
			if err := validateBackreferences(e, maxCapture); err != nil {
				return err
			}
		}
		return nil
	case ast.KindAlternate:
		left, right := n.Alternate()
		if err := validateBackreferences(left, maxCapture); err != nil {
			return err
		}
		return validateBackreferences(right, maxCapture)
	default:
		return nil
	}
}
