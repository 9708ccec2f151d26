// Package rex provides a Thompson-construction regular-expression engine
// with a backtracking evaluator, in two dialects: BYTE (ASCII-centric,
// grep-like) and CHAR (character classes, bounded repetition, captures,
// and backreferences).
//
// Unlike stdlib regexp, rex answers only "does this line match" — it has
// no Find/FindAll API and no guaranteed linear-time bound, since the
// CHAR dialect's backreferences make pure NFA simulation impossible.
//
// Basic usage:
//
//	re, err := rex.Compile(`ab(c|d)`, false, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, err := re.IsMatch("abc")
//
// A *Regexp is safe to use concurrently from multiple goroutines: each
// IsMatch call allocates its own evaluator scratch, so the handle itself
// is never mutated.
package rex

import (
	"fmt"

	"github.com/coregx/rex/compiler"
	"github.com/coregx/rex/parser"
	"github.com/coregx/rex/program"
	"github.com/coregx/rex/searchplan"
	"github.com/coregx/rex/vm"
)

// CompileError wraps a parse or compile failure with the pattern that
// produced it. Callers recover the original category with errors.As
// against the wrapped *parser.ParseError or *compiler.CompileError.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("rex: error compiling %q: %s", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Regexp is a compiled pattern bound to a dialect and a set of match
// options. It is immutable once built; Compile/CompileChar are the only
// ways to construct one.
type Regexp struct {
	pattern    string
	prog       program.Program
	plan       *searchplan.Plan
	ignoreCase bool
	invert     bool

	// BYTE only.
	caret, dollar bool
}

// Compile compiles a BYTE-dialect pattern. ignoreCase folds both the
// pattern and every matched line to ASCII lowercase before evaluation;
// invert XORs the final verdict, so IsMatch reports "this line does NOT
// match" when set.
func Compile(pattern string, ignoreCase, invert bool) (*Regexp, error) {
	src := pattern
	if ignoreCase {
		src = toASCIILower(pattern)
	}
	node, caret, dollar, err := parser.ParseByte(src)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	prog, err := compiler.Compile(node, program.DialectByte)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	return &Regexp{
		pattern:    pattern,
		prog:       prog,
		plan:       searchplan.Build(prog),
		ignoreCase: ignoreCase,
		invert:     invert,
		caret:      caret,
		dollar:     dollar,
	}, nil
}

// MustCompile compiles a BYTE-dialect pattern and panics if it fails.
// Intended for patterns known to be valid at init time.
func MustCompile(pattern string, ignoreCase, invert bool) *Regexp {
	re, err := Compile(pattern, ignoreCase, invert)
	if err != nil {
		panic("rex: Compile(" + pattern + "): " + err.Error())
	}
	return re
}

// CompileChar compiles a CHAR-dialect pattern: character classes,
// bounded repetition, captures, backreferences, and `^`/`$` assertions.
func CompileChar(pattern string, ignoreCase, invert bool) (*Regexp, error) {
	src := pattern
	if ignoreCase {
		src = toASCIILower(pattern)
	}
	node, err := parser.ParseChar(src)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	prog, err := compiler.Compile(node, program.DialectChar)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	return &Regexp{
		pattern:    pattern,
		prog:       prog,
		plan:       searchplan.Build(prog),
		ignoreCase: ignoreCase,
		invert:     invert,
	}, nil
}

// MustCompileChar compiles a CHAR-dialect pattern and panics if it fails.
func MustCompileChar(pattern string, ignoreCase, invert bool) *Regexp {
	re, err := CompileChar(pattern, ignoreCase, invert)
	if err != nil {
		panic("rex: CompileChar(" + pattern + "): " + err.Error())
	}
	return re
}

// String returns the source pattern the Regexp was compiled from
// (before any case-folding).
func (r *Regexp) String() string { return r.pattern }

// IsMatch reports whether line matches the compiled pattern, XORed with
// the invert flag set at compile time. A non-nil error means evaluation
// aborted (a VM bug, not an ordinary no-match) — the Regexp itself
// remains usable for later calls.
func (r *Regexp) IsMatch(line string) (bool, error) {
	if r.ignoreCase {
		line = toASCIILower(line)
	}
	var matched bool
	var err error
	if r.prog.Dialect == program.DialectChar {
		matched, err = r.isMatchChar(line)
	} else {
		matched, err = r.isMatchByte(line)
	}
	if err != nil {
		return false, err
	}
	return matched != r.invert, nil
}

// isMatchByte implements the BYTE façade's AttemptStart -> RunProgram
// state machine over candidate start positions, skipping positions the
// search plan proves can't begin a match.
func (r *Regexp) isMatchByte(line string) (bool, error) {
	input := []byte(line)
	if r.plan.CanMatchEmpty && !r.dollar {
		return true, nil
	}
	ev := vm.NewByteEvaluator(r.prog)
	if r.caret {
		return ev.EvalFrom(input, 0, r.dollar)
	}
	for start := 0; start <= len(input); start++ {
		if start < len(input) {
			if !r.acceptsStart(input, start) {
				continue
			}
		} else if !r.plan.CanMatchEmpty {
			continue
		}
		ok, err := ev.EvalFrom(input, start, r.dollar)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// acceptsStart applies the search plan's first-byte and leading-literal
// filters at a single start position.
func (r *Regexp) acceptsStart(input []byte, start int) bool {
	if len(r.plan.LeadingLiteral) > 0 {
		return hasPrefixFold(input[start:], r.plan.LeadingLiteral, r.ignoreCase)
	}
	return r.plan.AcceptsFirstByte(input[start], r.ignoreCase)
}

// isMatchChar implements the CHAR façade's search. The per-line prefilter
// is skipped here — searchplan's byte mask truncates to Latin-1 and
// would produce false negatives for non-Latin-1 leading classes (see
// searchplan's addRange). CanMatchEmpty isn't reused as a BYTE-style
// success shortcut either: unlike BYTE, a CHAR program's zero-width path
// to Match can run through Assert instructions (`^$` is exactly this
// shape), and CanMatchEmpty only reports that the path exists, not that
// its assertions hold for a given line — so every start position still
// has to go through the evaluator.
func (r *Regexp) isMatchChar(line string) (bool, error) {
	ev := vm.NewCharEvaluator(r.prog)
	return ev.Eval(line)
}

func hasPrefixFold(b, prefix []byte, ignoreCase bool) bool {
	if len(b) < len(prefix) {
		return false
	}
	if !ignoreCase {
		for i := range prefix {
			if b[i] != prefix[i] {
				return false
			}
		}
		return true
	}
	for i := range prefix {
		if asciiLowerByte(b[i]) != asciiLowerByte(prefix[i]) {
			return false
		}
	}
	return true
}

func asciiLowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func toASCIILower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
