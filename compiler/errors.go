// Package compiler turns an ast.Node tree into a program.Program by
// Thompson construction: each AST node emits a small instruction
// fragment, and quantifiers patch forward-referenced Jump/Split targets
// once their body has been emitted.
package compiler

import "fmt"

// ErrorKind identifies why compilation failed.
type ErrorKind uint8

const (
	// ErrPCOverflow means the program grew past math.MaxInt32
	// instructions, or a patch targeted a non-Jump/non-Split
	// instruction — both are compiler bugs rather than pattern errors.
	ErrPCOverflow ErrorKind = iota
	// ErrInvalidBackreference means a \N referenced a capture index
	// that isn't defined anywhere in the pattern.
	ErrInvalidBackreference
)

func (k ErrorKind) String() string {
	switch k {
	case ErrPCOverflow:
		return "program counter overflow"
	case ErrInvalidBackreference:
		return "invalid backreference"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// CompileError reports a single compilation failure. Index holds the
// offending backreference number for ErrInvalidBackreference, and is
// zero otherwise.
type CompileError struct {
	Kind  ErrorKind
	Index int
}

func (e *CompileError) Error() string {
	if e.Kind == ErrInvalidBackreference {
		return fmt.Sprintf("compile error: %s \\%d", e.Kind, e.Index)
	}
	return fmt.Sprintf("compile error: %s", e.Kind)
}

func newErr(kind ErrorKind) *CompileError {
	return &CompileError{Kind: kind}
}

func newErrIndex(kind ErrorKind, index int) *CompileError {
	return &CompileError{Kind: kind, Index: index}
}
