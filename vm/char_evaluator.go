package vm

import (
	"fmt"
	"math"

	"github.com/coregx/rex/ast"
	"github.com/coregx/rex/program"
)

// CharEvaluator runs a CHAR-dialect program against a rune slice. Unlike
// ByteEvaluator it tracks capture slots, so the loop-guard key can't be
// packed into a single int — it snapshots (pc, char index, capture
// slots) and serializes the snapshot into a visited set.
type CharEvaluator struct {
	prog         program.Program
	captureSlots int
}

// NewCharEvaluator wraps a compiled CHAR program for repeated matching.
func NewCharEvaluator(prog program.Program) *CharEvaluator {
	return &CharEvaluator{
		prog:         prog,
		captureSlots: maxSlotIndex(prog.Instrs) + 1,
	}
}

// Eval tries every start position in input in order, returning true on
// the first one that reaches Match. No prefilter applies here: the
// search-plan byte mask truncates character classes to Latin-1 and
// would silently reject start positions for a leading non-Latin-1
// class, and CanMatchEmpty says nothing about whether a zero-width
// path's assertions actually hold for a given line.
func (e *CharEvaluator) Eval(input string) (bool, error) {
	chars := []rune(input)
	for start := 0; start <= len(chars); start++ {
		ok, err := e.evalFromStart(chars, start)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// EvalFrom tries only the given start position, for callers that have
// already fixed it.
func (e *CharEvaluator) EvalFrom(input string, start int) (bool, error) {
	return e.evalFromStart([]rune(input), start)
}

// charState is a single snapshot of evaluation progress: program
// counter, position in chars, and the capture boundaries seen so far.
// -1 in a capture slot means unset (Go's analogue of Option<usize>::None).
type charState struct {
	pc, charIndex int
	captureStart  []int
	captureEnd    []int
}

func newCharState(captureSlots int) charState {
	s := charState{captureStart: make([]int, captureSlots), captureEnd: make([]int, captureSlots)}
	for i := range s.captureStart {
		s.captureStart[i] = -1
		s.captureEnd[i] = -1
	}
	return s
}

func (s charState) clone() charState {
	clone := charState{pc: s.pc, charIndex: s.charIndex}
	clone.captureStart = append([]int(nil), s.captureStart...)
	clone.captureEnd = append([]int(nil), s.captureEnd...)
	return clone
}

func stateKey(s charState) string {
	return fmt.Sprintf("%d|%d|%v|%v", s.pc, s.charIndex, s.captureStart, s.captureEnd)
}

// evalFromStart runs a stack-based depth-first search from a single
// start position. Split clones the current state, points the clone at
// the right branch, pushes it, and continues inline with the left
// branch — the stack's LIFO order preserves greedy left-before-right
// backtracking without recursion.
func (e *CharEvaluator) evalFromStart(chars []rune, start int) (bool, error) {
	init := newCharState(e.captureSlots)
	init.charIndex = start
	stack := []charState{init}
	visited := make(map[string]struct{})

outer:
	for len(stack) > 0 {
		state := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for {
			if state.pc < 0 || state.pc >= len(e.prog.Instrs) {
				return false, newErr(ErrInvalidPC)
			}
			instr := e.prog.Instrs[state.pc]

			switch instr.Kind() {
			case program.KindCharClass:
				if state.charIndex >= len(chars) {
					continue outer
				}
				ranges, negated := instr.Class()
				if !matchesClass(chars[state.charIndex], ranges, negated) {
					continue outer
				}
				next, err := incrementChar(state.pc, state.charIndex)
				if err != nil {
					return false, err
				}
				state.pc, state.charIndex = next.pc, next.charIndex

			case program.KindAssert:
				if !evalAssert(instr.AssertKind(), chars, state.charIndex) {
					continue outer
				}
				pc, err := incrementPC(state.pc)
				if err != nil {
					return false, err
				}
				state.pc = pc

			case program.KindSaveStart:
				state.captureStart[instr.SlotIndex()] = state.charIndex
				pc, err := incrementPC(state.pc)
				if err != nil {
					return false, err
				}
				state.pc = pc

			case program.KindSaveEnd:
				state.captureEnd[instr.SlotIndex()] = state.charIndex
				pc, err := incrementPC(state.pc)
				if err != nil {
					return false, err
				}
				state.pc = pc

			case program.KindBackref:
				ok, newIndex, err := evalBackref(instr.SlotIndex(), state, chars)
				if err != nil {
					return false, err
				}
				if !ok {
					continue outer
				}
				pc, err := incrementPC(state.pc)
				if err != nil {
					return false, err
				}
				state.pc, state.charIndex = pc, newIndex

			case program.KindMatch:
				return true, nil

			case program.KindJump:
				state.pc = instr.JumpAddr()

			case program.KindSplit:
				left, right := instr.SplitAddrs()
				clone := state.clone()
				clone.pc = right
				state.pc = left

				key := stateKey(clone)
				if _, seen := visited[key]; !seen {
					visited[key] = struct{}{}
					stack = append(stack, clone)
				}

			default:
				return false, newErr(ErrInvalidPC)
			}

			key := stateKey(state)
			if _, seen := visited[key]; seen {
				continue outer
			}
			visited[key] = struct{}{}
		}
	}
	return false, nil
}

func matchesClass(c rune, ranges []ast.Range, negated bool) bool {
	in := false
	for _, r := range ranges {
		if c >= r.Lo && c <= r.Hi {
			in = true
			break
		}
	}
	if negated {
		return !in
	}
	return in
}

func evalAssert(kind ast.AssertKind, chars []rune, charIndex int) bool {
	switch kind {
	case ast.StartOfText:
		return charIndex == 0
	case ast.EndOfText:
		return charIndex == len(chars)
	case ast.StartOfLine:
		return charIndex == 0 || chars[charIndex-1] == '\n'
	case ast.EndOfLine:
		return charIndex == len(chars) || chars[charIndex] == '\n'
	case ast.WordBoundary:
		return isWordChar(charBefore(chars, charIndex)) != isWordChar(charAt(chars, charIndex))
	case ast.NonWordBoundary:
		return isWordChar(charBefore(chars, charIndex)) == isWordChar(charAt(chars, charIndex))
	default:
		return false
	}
}

func charBefore(chars []rune, i int) (rune, bool) {
	if i <= 0 {
		return 0, false
	}
	return chars[i-1], true
}

func charAt(chars []rune, i int) (rune, bool) {
	if i >= len(chars) {
		return 0, false
	}
	return chars[i], true
}

func isWordChar(c rune, present bool) bool {
	if !present {
		return false
	}
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// evalBackref compares the text already captured by slot index against
// the text starting at the current position. An unset capture (either
// boundary is -1) fails the branch rather than matching zero-width or
// erroring: an unresolved backreference is an ordinary backtrack.
func evalBackref(index int, state charState, chars []rune) (matched bool, newCharIndex int, err error) {
	if index < 0 || index >= len(state.captureStart) {
		return false, 0, newErr(ErrInvalidPC)
	}
	start, end := state.captureStart[index], state.captureEnd[index]
	if start < 0 || end < 0 {
		return false, 0, nil
	}
	length := end - start
	if length < 0 || state.charIndex+length > len(chars) {
		return false, 0, nil
	}
	for i := 0; i < length; i++ {
		if chars[start+i] != chars[state.charIndex+i] {
			return false, 0, nil
		}
	}
	return true, state.charIndex + length, nil
}

func maxSlotIndex(instrs []program.Instr) int {
	max := -1
	for _, instr := range instrs {
		switch instr.Kind() {
		case program.KindSaveStart, program.KindSaveEnd, program.KindBackref:
			if instr.SlotIndex() > max {
				max = instr.SlotIndex()
			}
		}
	}
	if max < 0 {
		return 0
	}
	return max
}

type charPos struct {
	pc, charIndex int
}

func incrementChar(pc, charIndex int) (charPos, error) {
	if pc == math.MaxInt {
		return charPos{}, newErr(ErrPCOverflow)
	}
	if charIndex == math.MaxInt {
		return charPos{}, newErr(ErrCharIndexOverflow)
	}
	return charPos{pc: pc + 1, charIndex: charIndex + 1}, nil
}

func incrementPC(pc int) (int, error) {
	if pc == math.MaxInt {
		return 0, newErr(ErrPCOverflow)
	}
	return pc + 1, nil
}
