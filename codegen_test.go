package main

import (
	"strings"
	"testing"
)

func newTestCodegen(t *testing.T) (*Universe, *Chunk, *CodeGenerator) {
	t.Helper()
	u := NewUniverse()
	chunk := NewChunk()
	cfg := &Config{}
	return u, chunk, NewCodeGenerator(u, chunk, cfg)
}

func TestCodegenPrintEmitsDumpCall(t *testing.T) {
	u, chunk, g := newTestCodegen(t)
	idx := chunk.AddConst(Constant{Kind: ConstInt, Int: 7})
	chunk.Emit(OpPushInt, idx, 0, tok(TOKEN_INT))
	chunk.Emit(OpPrint, 0, 0, tok(TOKEN_PRINT))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))
	_ = u

	asm, _ := g.Generate()
	if !containsAll(asm, "mov rax, 7", "call dump", "dump:") {
		t.Fatalf("expected literal push, dump call and dump routine; got:\n%s", asm)
	}
}

func TestCodegenPrintDispatchesOnTaggedOperandType(t *testing.T) {
	u, chunk, g := newTestCodegen(t)
	idx := chunk.AddConst(Constant{Kind: ConstInt, Int: 1})
	chunk.Emit(OpPushInt, idx, 0, tok(TOKEN_INT))
	// PRINT's instr.A is set by the typechecker (typecheck.go); tagged
	// directly here to exercise codegen's dispatch in isolation.
	chunk.Emit(OpPrint, int(TypeBool), 0, tok(TOKEN_PRINT))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))
	_ = u

	asm, _ := g.Generate()
	if !containsAll(asm, "call bool_println", "bool_println:", `.string "true\n"`, `.string "false\n"`) {
		t.Fatalf("expected a bool_println call and routine, got:\n%s", asm)
	}
	if containsAll(asm, "call dump") {
		t.Fatalf("did not expect a bool print to fall back to the integer dump, got:\n%s", asm)
	}
}

func TestCodegenPrintOnStringWritesDirectly(t *testing.T) {
	u, chunk, g := newTestCodegen(t)
	id := u.Interner.Intern("hi")
	idx := chunk.AddConst(Constant{Kind: ConstStrRef, StrID: id})
	chunk.Emit(OpPushStr, idx, 0, tok(TOKEN_STR))
	chunk.Emit(OpPrint, int(TypeStr), 0, tok(TOKEN_PRINT))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	asm, _ := g.Generate()
	if !containsAll(asm, "mov rax, 1\n\tsyscall") {
		t.Fatalf("expected a direct write(2) syscall for string print, got:\n%s", asm)
	}
	if containsAll(asm, "call dump") || containsAll(asm, "call bool_println") {
		t.Fatalf("did not expect a string print to reuse the int/bool print routines, got:\n%s", asm)
	}
}

func TestCodegenUnusedFunctionBodyOmitted(t *testing.T) {
	u, chunk, g := newTestCodegen(t)
	idx := u.Funcs.add("helper", FuncEntry{Name: "helper"})
	start := chunk.Emit(OpDefineFunction, idx, 0, tok(TOKEN_FUNCTION))
	u.Funcs.at(idx).StartIP = start
	chunk.Emit(OpReturn, 0, 0, tok(TOKEN_END))
	end := chunk.Emit(OpFunctionEnd, idx, 0, tok(TOKEN_END))
	u.Funcs.at(idx).EndIP = end
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))
	// helper.Called left false.

	asm, _ := g.Generate()
	if containsAll(asm, "helper_start:") {
		t.Fatalf("expected an uncalled function's body to be omitted, got:\n%s", asm)
	}
}

func TestCodegenClibsProduceLinkerFlags(t *testing.T) {
	u := NewUniverse()
	chunk := NewChunk()
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))
	cfg := &Config{CLibraries: []string{"m", "c"}}
	g := NewCodeGenerator(u, chunk, cfg)

	_, flags := g.Generate()
	if len(flags) != 2 || flags[0] != "-lm" || flags[1] != "-lc" {
		t.Fatalf("expected [-lm -lc], got %v", flags)
	}
}

func TestCodegenMemoryEmitsBssEntry(t *testing.T) {
	u, chunk, g := newTestCodegen(t)
	u.Memories.add("buf", MemoryEntry{Name: "buf", Size: 32})
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	asm, _ := g.Generate()
	if !containsAll(asm, ".comm buf, 32") {
		t.Fatalf("expected a .comm directive for buf, got:\n%s", asm)
	}
}

func TestCodegenStringEscapeRoundTrip(t *testing.T) {
	u, chunk, g := newTestCodegen(t)
	id := u.Interner.Intern(`line one\nline two`)
	idx := chunk.AddConst(Constant{Kind: ConstStrRef, StrID: id})
	chunk.Emit(OpPushStr, idx, 0, tok(TOKEN_STR))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	asm, _ := g.Generate()
	if !containsAll(asm, `.string "line one\nline two"`) {
		t.Fatalf("expected the escaped string literal in .data, got:\n%s", asm)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
