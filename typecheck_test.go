package main

import "testing"

func newTestChunk() (*Universe, *Chunk, *Reporter) {
	u := NewUniverse()
	chunk := NewChunk()
	rep := NewReporter(NewFileStore(&Config{}))
	return u, chunk, rep
}

func tok(k TokenKind) Token { return Token{Kind: k, Lexeme: k.String()} }

func TestTypecheckStackUnderflow(t *testing.T) {
	u, chunk, rep := newTestChunk()
	chunk.Emit(OpAdd, 0, 0, tok(TOKEN_PLUS))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	NewTypechecker(u, chunk, rep).Run()
	if !rep.Erred() {
		t.Fatalf("expected a stack underflow error")
	}
}

func TestTypecheckBalancedProgram(t *testing.T) {
	u, chunk, rep := newTestChunk()
	idx := chunk.AddConst(Constant{Kind: ConstInt, Int: 2})
	chunk.Emit(OpPushInt, idx, 0, tok(TOKEN_INT))
	chunk.Emit(OpPushInt, idx, 0, tok(TOKEN_INT))
	chunk.Emit(OpAdd, 0, 0, tok(TOKEN_PLUS))
	chunk.Emit(OpPrint, 0, 0, tok(TOKEN_PRINT))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	NewTypechecker(u, chunk, rep).Run()
	if rep.Erred() {
		t.Fatalf("unexpected errors on a balanced program")
	}
}

func TestTypecheckNonZeroResidualStack(t *testing.T) {
	u, chunk, rep := newTestChunk()
	idx := chunk.AddConst(Constant{Kind: ConstInt, Int: 1})
	chunk.Emit(OpPushInt, idx, 0, tok(TOKEN_INT))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	NewTypechecker(u, chunk, rep).Run()
	if !rep.Erred() {
		t.Fatalf("expected a non-zero residual stack error")
	}
}

func TestTypecheckIfElseBalance(t *testing.T) {
	u, chunk, rep := newTestChunk()
	core := newEmitCore(u, chunk, rep)

	// emitToken has already consumed the leading "if" by the time
	// emitIf runs, so the cursor here starts right after it.
	c := newCursor(lexAll(0, "1 2 < do 2 else 3 ."))
	core.emitIf(tok(TOKEN_IF), c)
	chunk.Emit(OpDrop, 0, 0, tok(TOKEN_DROP))
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	NewTypechecker(u, chunk, rep).Run()
	if rep.Erred() {
		t.Fatalf("unexpected errors on a balanced if/else")
	}
}

func TestTypecheckIfElseImbalance(t *testing.T) {
	u, chunk, rep := newTestChunk()
	core := newEmitCore(u, chunk, rep)

	// then-branch leaves an Int on the stack, else-branch leaves nothing:
	// the two branches must regain the same depth.
	c := newCursor(lexAll(0, "1 2 < do 2 else ."))
	core.emitIf(tok(TOKEN_IF), c)
	chunk.Emit(OpEnd, 0, 0, tok(TOKEN_DOT))

	NewTypechecker(u, chunk, rep).Run()
	if !rep.Erred() {
		t.Fatalf("expected a block-imbalance error")
	}
}
