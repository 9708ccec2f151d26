package compiler

import (
	"testing"

	"github.com/coregx/rex/ast"
	"github.com/coregx/rex/parser"
	"github.com/coregx/rex/program"
)

func mustParseByte(t *testing.T, pattern string) *ast.Node {
	t.Helper()
	node, _, _, err := parser.ParseByte(pattern)
	if err != nil {
		t.Fatalf("ParseByte(%q): %v", pattern, err)
	}
	return node
}

func mustParseChar(t *testing.T, pattern string) *ast.Node {
	t.Helper()
	node, err := parser.ParseChar(pattern)
	if err != nil {
		t.Fatalf("ParseChar(%q): %v", pattern, err)
	}
	return node
}

func TestCompileByteLiteralConcat(t *testing.T) {
	prog, err := Compile(mustParseByte(t, "ab"), program.DialectByte)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []string{"char a", "char b", "match"}
	if len(prog.Instrs) != len(want) {
		t.Fatalf("len(instrs) = %d, want %d", len(prog.Instrs), len(want))
	}
	for i, w := range want {
		if got := prog.Instrs[i].String(); got != w {
			t.Errorf("instrs[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestCompileBoundedRepeatLayout(t *testing.T) {
	prog, err := Compile(mustParseChar(t, "a{2,3}"), program.DialectChar)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []string{
		"charclass [a-a]",
		"charclass [a-a]",
		"split 0003, 0004",
		"charclass [a-a]",
		"match",
	}
	if len(prog.Instrs) != len(want) {
		t.Fatalf("len(instrs) = %d, want %d: %v", len(prog.Instrs), len(want), prog.Instrs)
	}
	for i, w := range want {
		if got := prog.Instrs[i].String(); got != w {
			t.Errorf("instrs[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestCompileZeroOrMoreLoopsBack(t *testing.T) {
	prog, err := Compile(mustParseByte(t, "a*"), program.DialectByte)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if prog.Instrs[0].Kind() != program.KindSplit {
		t.Fatalf("instrs[0] = %s, want split", prog.Instrs[0])
	}
	left, right := prog.Instrs[0].SplitAddrs()
	if left != 1 {
		t.Errorf("split left = %d, want 1 (body entry)", left)
	}
	if prog.Instrs[1].Kind() != program.KindChar {
		t.Fatalf("instrs[1] = %s, want char a", prog.Instrs[1])
	}
	if prog.Instrs[2].Kind() != program.KindJump || prog.Instrs[2].JumpAddr() != 0 {
		t.Fatalf("instrs[2] = %s, want jump 0000", prog.Instrs[2])
	}
	if right != 3 || prog.Instrs[3].Kind() != program.KindMatch {
		t.Fatalf("split right = %d, instrs[3] = %s, want 3 and match", right, prog.Instrs[3])
	}
}

func TestCompileAlternateLayout(t *testing.T) {
	prog, err := Compile(mustParseByte(t, "a|b"), program.DialectByte)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if prog.Instrs[0].Kind() != program.KindSplit {
		t.Fatalf("instrs[0] = %s, want split", prog.Instrs[0])
	}
	left, right := prog.Instrs[0].SplitAddrs()
	if left != 1 {
		t.Errorf("split left = %d, want 1", left)
	}
	if prog.Instrs[1].Kind() != program.KindChar || prog.Instrs[1].CharByte() != 'a' {
		t.Fatalf("instrs[1] = %s, want char a", prog.Instrs[1])
	}
	if prog.Instrs[2].Kind() != program.KindJump {
		t.Fatalf("instrs[2] = %s, want jump", prog.Instrs[2])
	}
	if right != 3 || prog.Instrs[3].Kind() != program.KindChar || prog.Instrs[3].CharByte() != 'b' {
		t.Fatalf("split right = %d, instrs[3] = %s, want 3 and char b", right, prog.Instrs[3])
	}
	jumpTarget := prog.Instrs[2].JumpAddr()
	if jumpTarget != 4 || prog.Instrs[4].Kind() != program.KindMatch {
		t.Fatalf("jump target = %d, instrs[4] = %s, want 4 and match", jumpTarget, prog.Instrs[4])
	}
}

func TestCompileCaptureEmitsSaveBoundaries(t *testing.T) {
	prog, err := Compile(mustParseChar(t, "(a)"), program.DialectChar)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if prog.Instrs[0].Kind() != program.KindSaveStart || prog.Instrs[0].SlotIndex() != 1 {
		t.Fatalf("instrs[0] = %s, want save_start 1", prog.Instrs[0])
	}
	if prog.Instrs[2].Kind() != program.KindSaveEnd || prog.Instrs[2].SlotIndex() != 1 {
		t.Fatalf("instrs[2] = %s, want save_end 1", prog.Instrs[2])
	}
}

func TestCompileBackreferenceRoundtrip(t *testing.T) {
	prog, err := Compile(mustParseChar(t, `(a)\1`), program.DialectChar)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var sawBackref bool
	for _, instr := range prog.Instrs {
		if instr.Kind() == program.KindBackref {
			sawBackref = true
			if instr.SlotIndex() != 1 {
				t.Errorf("backref slot = %d, want 1", instr.SlotIndex())
			}
		}
	}
	if !sawBackref {
		t.Fatalf("no backref instruction emitted")
	}
}

func TestCompileInvalidBackreferenceRejected(t *testing.T) {
	_, err := Compile(mustParseChar(t, `a\1`), program.DialectChar)
	ce, ok := err.(*CompileError)
	if !ok || ce.Kind != ErrInvalidBackreference || ce.Index != 1 {
		t.Fatalf("err = %v, want ErrInvalidBackreference(1)", err)
	}
}

func TestCompileValidatesEndsWithMatch(t *testing.T) {
	prog, err := Compile(mustParseByte(t, "abc"), program.DialectByte)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := prog.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
