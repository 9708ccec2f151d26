// Package prescreen builds an optional Aho-Corasick literal prescreen
// for rexgrep's multi-pattern (-e) case: before running every pattern's
// full rex.Regexp.IsMatch against a line, it first asks a single
// multi-substring automaton whether any pattern's leading literal could
// possibly occur in that line at all. This is pure CLI-side glue — the
// core's own per-pattern prefilter (searchplan.Plan) only ever looks at
// one pattern at a time.
package prescreen

import (
	"github.com/coregx/ahocorasick"

	"github.com/coregx/rex/compiler"
	"github.com/coregx/rex/parser"
	"github.com/coregx/rex/program"
	"github.com/coregx/rex/searchplan"
)

// Screen wraps a built automaton over every compiled pattern's leading
// literal. A nil *Screen (returned when any pattern has no usable
// leading literal) means the caller must fall back to checking every
// pattern's IsMatch directly.
type Screen struct {
	automaton *ahocorasick.Automaton
}

// Build extracts each BYTE pattern's leading literal via the same
// parser/compiler/searchplan pipeline rex.Compile uses internally, and
// multiplexes them into one Aho-Corasick automaton. It returns nil if
// any pattern lacks a non-empty leading literal — a pattern like `.*` or
// `a|b` can start a match anywhere, so no single automaton hit/miss
// would be a sound prefilter across the whole pattern set. It also
// returns nil when ignoreCase is set: the automaton matches exact
// bytes, so a case-insensitive run would need both sides folded, and
// folding only the patterns (or only the haystack) silently drops
// mixed-case matches. Disabling the prescreen under -i keeps it a pure
// speedup.
func Build(patterns []string, ignoreCase bool) *Screen {
	if len(patterns) == 0 || ignoreCase {
		return nil
	}
	builder := ahocorasick.NewBuilder()
	for _, pat := range patterns {
		lit, ok := leadingLiteral(pat)
		if !ok {
			return nil
		}
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &Screen{automaton: auto}
}

func leadingLiteral(pattern string) ([]byte, bool) {
	node, _, _, err := parser.ParseByte(pattern)
	if err != nil {
		return nil, false
	}
	prog, err := compiler.Compile(node, program.DialectByte)
	if err != nil {
		return nil, false
	}
	plan := searchplan.Build(prog)
	if len(plan.LeadingLiteral) == 0 {
		return nil, false
	}
	return plan.LeadingLiteral, true
}

// MayMatch reports whether line could possibly satisfy any screened
// pattern. False means the caller may safely skip the line without
// calling any pattern's IsMatch.
func (s *Screen) MayMatch(line string) bool {
	if s == nil {
		return true
	}
	return s.automaton.IsMatch([]byte(line))
}
