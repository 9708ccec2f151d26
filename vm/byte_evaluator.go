package vm

import (
	"math"

	"github.com/coregx/rex/internal/sparse"
	"github.com/coregx/rex/program"
)

// ByteEvaluator runs a BYTE-dialect program against a byte slice. It
// reuses one sparse.Set across every start position the façade tries,
// since a fresh visited-set per position would allocate on every
// attempt over a long line.
type ByteEvaluator struct {
	prog    program.Program
	visited *sparse.Set
}

// NewByteEvaluator wraps a compiled BYTE program for repeated matching.
func NewByteEvaluator(prog program.Program) *ByteEvaluator {
	return &ByteEvaluator{prog: prog}
}

// EvalFrom attempts a match of e's program against input starting
// exactly at byte position start, returning whether the program reaches
// Match. endDollar requires the match to run to the end of input.
func (e *ByteEvaluator) EvalFrom(input []byte, start int, endDollar bool) (bool, error) {
	capacity := uint64(len(e.prog.Instrs)) * uint64(len(input)+1)
	if capacity > math.MaxUint32 {
		return false, newErr(ErrPCOverflow)
	}
	if e.visited == nil {
		e.visited = sparse.NewSet(uint32(capacity))
	} else {
		e.visited.Reset(uint32(capacity))
	}
	return evalByteDepth(e.prog.Instrs, input, 0, start, endDollar, e.visited)
}

// evalByteDepth runs the program from pc/charIndex to completion,
// recursing only at Split (one recursive call per branch) — every other
// instruction advances pc/charIndex in the same stack frame.
func evalByteDepth(instrs []program.Instr, input []byte, pc, charIndex int, endDollar bool, visited *sparse.Set) (bool, error) {
	for {
		if pc < 0 || pc >= len(instrs) {
			return false, newErr(ErrInvalidPC)
		}
		instr := instrs[pc]

		switch instr.Kind() {
		case program.KindChar:
			if charIndex >= len(input) || input[charIndex] != instr.CharByte() {
				return false, nil
			}
			next, err := incrementByte(pc, charIndex)
			if err != nil {
				return false, err
			}
			pc, charIndex = next.pc, next.charIndex
		case program.KindAnyByte:
			if charIndex >= len(input) {
				return false, nil
			}
			next, err := incrementByte(pc, charIndex)
			if err != nil {
				return false, err
			}
			pc, charIndex = next.pc, next.charIndex
		case program.KindMatch:
			if endDollar {
				return charIndex == len(input), nil
			}
			return true, nil
		case program.KindJump:
			pc = instr.JumpAddr()
		case program.KindSplit:
			left, right := instr.SplitAddrs()
			key := uint32(left)*uint32(len(input)+1) + uint32(charIndex)
			if !visited.Insert(key) {
				return false, nil
			}
			ok, err := evalByteDepth(instrs, input, left, charIndex, endDollar, visited)
			if err != nil || ok {
				return ok, err
			}
			return evalByteDepth(instrs, input, right, charIndex, endDollar, visited)
		default:
			return false, newErr(ErrInvalidPC)
		}
	}
}

type bytePos struct {
	pc, charIndex int
}

func incrementByte(pc, charIndex int) (bytePos, error) {
	if pc == math.MaxInt {
		return bytePos{}, newErr(ErrPCOverflow)
	}
	if charIndex == math.MaxInt {
		return bytePos{}, newErr(ErrCharIndexOverflow)
	}
	return bytePos{pc: pc + 1, charIndex: charIndex + 1}, nil
}
