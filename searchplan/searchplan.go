// Package searchplan builds a cheap prefilter over a compiled program so
// the façade can skip start positions that provably cannot match before
// handing them to the VM.
package searchplan

import (
	"unicode/utf8"

	"github.com/coregx/rex/ast"
	"github.com/coregx/rex/program"
)

// Plan is the prefilter computed once per compiled program and reused
// across every search over a line.
type Plan struct {
	// CanMatchEmpty is true if the program can reach Match without
	// consuming a byte from some reachable start state.
	CanMatchEmpty bool
	// HasAnyFirstByte is true if no first-byte restriction applies —
	// AcceptsFirstByte always returns true once this is set.
	HasAnyFirstByte bool
	// FirstByteMask is a 256-bit set of bytes the program could start
	// matching on, packed 64 bits per uint64.
	FirstByteMask [4]uint64
	// LeadingLiteral is the fixed byte run every match must begin with,
	// or nil if the program doesn't start with one.
	LeadingLiteral []byte
}

// Build computes a Plan for a compiled program. The instruction walk is
// a bounded DFS over Jump/Split epsilon edges — visited tracks which
// addresses have already been explored so cyclic programs (from a
// leading `(a*)*`-style construct) terminate.
func Build(p program.Program) *Plan {
	plan := &Plan{LeadingLiteral: detectLeadingLiteral(p.Instrs)}
	collectFirstBytes(p.Instrs, plan)
	return plan
}

// detectLeadingLiteral walks straight-line Char/CharClass instructions
// from the entry point. A CharClass only extends the literal when it's a
// non-negated single-codepoint class — anything else (a real class, a
// negation, AnyByte, Assert, a branch) ends the literal run.
func detectLeadingLiteral(instrs []program.Instr) []byte {
	var lit []byte
	pc := 0
	for pc < len(instrs) {
		instr := instrs[pc]
		switch instr.Kind() {
		case program.KindChar:
			lit = append(lit, instr.CharByte())
			pc++
		case program.KindCharClass:
			ranges, negated := instr.Class()
			if negated || len(ranges) != 1 || ranges[0].Lo != ranges[0].Hi {
				return nonEmpty(lit)
			}
			lit = utf8.AppendRune(lit, ranges[0].Lo)
			pc++
		default:
			return nonEmpty(lit)
		}
	}
	return nonEmpty(lit)
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// collectFirstBytes does an explicit-stack DFS over every reachable
// instruction from address 0, following Jump/Split epsilon edges and
// falling through zero-width instructions (Assert/SaveStart/SaveEnd) to
// the next address, recording what could be the first consumed byte.
func collectFirstBytes(instrs []program.Instr, plan *Plan) {
	if len(instrs) == 0 {
		plan.CanMatchEmpty = true
		return
	}

	stack := []int{0}
	visited := make([]bool, len(instrs))

	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pc < 0 || pc >= len(instrs) || visited[pc] {
			continue
		}
		visited[pc] = true

		instr := instrs[pc]
		switch instr.Kind() {
		case program.KindMatch:
			plan.CanMatchEmpty = true
		case program.KindAnyByte:
			plan.HasAnyFirstByte = true
		case program.KindChar:
			plan.addFirstByte(instr.CharByte())
		case program.KindCharClass:
			ranges, negated := instr.Class()
			if negated {
				// The complement of a class can include high or
				// multi-byte codepoints the mask can't cheaply
				// represent; fall back to accepting anything.
				plan.HasAnyFirstByte = true
				continue
			}
			for _, r := range ranges {
				plan.addRange(r)
			}
		case program.KindBackref:
			// The matched width depends on a capture whose value isn't
			// known until run time.
			plan.HasAnyFirstByte = true
		case program.KindAssert, program.KindSaveStart, program.KindSaveEnd:
			if pc+1 < len(instrs) {
				stack = append(stack, pc+1)
			}
		case program.KindJump:
			stack = append(stack, instr.JumpAddr())
		case program.KindSplit:
			left, right := instr.SplitAddrs()
			stack = append(stack, left, right)
		}
	}
}

func (p *Plan) addFirstByte(b byte) {
	idx := int(b) / 64
	bit := uint64(1) << (uint(b) % 64)
	p.FirstByteMask[idx] |= bit
}

// addRange adds every byte-representable codepoint in r, truncating the
// high end to 255 and skipping ranges entirely above it. A class that
// only matches multi-byte codepoints contributes nothing to the mask;
// the CHAR façade doesn't use the mask for exactly this reason.
func (p *Plan) addRange(r ast.Range) {
	if r.Lo > 255 {
		return
	}
	hi := r.Hi
	if hi > 255 {
		hi = 255
	}
	for c := r.Lo; c <= hi; c++ {
		p.addFirstByte(byte(c))
	}
}

func (p *Plan) containsFirstByte(b byte) bool {
	idx := int(b) / 64
	bit := uint64(1) << (uint(b) % 64)
	return p.FirstByteMask[idx]&bit != 0
}

// AcceptsFirstByte reports whether b could be the first byte consumed by
// a match starting here. ignoreCaseASCII folds b to lowercase before the
// membership test, matching the façade's ASCII-only case-fold.
func (p *Plan) AcceptsFirstByte(b byte, ignoreCaseASCII bool) bool {
	if p.HasAnyFirstByte {
		return true
	}
	if ignoreCaseASCII {
		return p.containsFirstByte(asciiLower(b))
	}
	return p.containsFirstByte(b)
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
