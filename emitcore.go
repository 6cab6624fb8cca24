package main

import "strings"

// emitCore is the token-dispatch table shared by the preprocessor's
// function-body emission and the emitter pass's top-level emission
// (spec §9: "function-before-call resolution ... split emission into
// (a) function body emission during the first pass, (b) top-level body
// emission during the second pass ... either way every CALL must be
// emittable by the time it is parsed"). Both passes construct one of
// these around the same Universe and Chunk.
type emitCore struct {
	u      *Universe
	chunk  *Chunk
	rep    *Reporter
}

func newEmitCore(u *Universe, chunk *Chunk, rep *Reporter) *emitCore {
	return &emitCore{u: u, chunk: chunk, rep: rep}
}

// emitBody dispatches tokens from c until it reaches TOKEN_END or EOF,
// leaving that terminator unconsumed so the caller (fn/memory/etc.)
// decides what to do with it. This is the statement loop for both a
// function body and a macro expansion.
func (e *emitCore) emitBody(c *tokenCursor) {
	for {
		tok := c.peek()
		if tok.Kind == TOKEN_END || tok.Kind == TOKEN_EOF {
			return
		}
		c.advance()
		e.emitToken(tok, c)
	}
}

func (e *emitCore) emitToken(tok Token, c *tokenCursor) {
	switch tok.Kind {
	case TOKEN_IF:
		e.emitIf(tok, c)
	case TOKEN_LOOP:
		e.emitLoop(tok, c)
	case TOKEN_STATIC:
		e.emitMemory(tok, c)
	case TOKEN_WORD:
		e.emitWord(tok, c)
	default:
		e.emitIntrinsic(tok)
	}
}

// emitIf implements the if/do/else/. rule from spec §4.5. A JUMP past
// the else region is emitted unconditionally, even when the source has
// no `else`, so both branches patch against the same pair of targets.
func (e *emitCore) emitIf(tok Token, c *tokenCursor) {
	for !c.at(TOKEN_DO) && !c.at(TOKEN_EOF) {
		e.emitToken(c.advance(), c)
	}
	c.expect(e.rep, TOKEN_DO, "if ... do ... .")

	jumpIfFalse := e.chunk.Emit(OpJumpIfFalse, -1, 0, tok)

	for !c.at(TOKEN_ELSE) && !c.at(TOKEN_DOT) && !c.at(TOKEN_EOF) {
		e.emitToken(c.advance(), c)
	}

	hasElse := c.at(TOKEN_ELSE)
	if hasElse {
		c.advance()
	}

	jumpEnd := e.chunk.Emit(OpJump, -1, 0, tok)
	e.chunk.PatchJump(jumpIfFalse, e.chunk.Here())

	if hasElse {
		for !c.at(TOKEN_DOT) && !c.at(TOKEN_EOF) {
			e.emitToken(c.advance(), c)
		}
	}

	c.expect(e.rep, TOKEN_DOT, "if ... do ... .")
	e.chunk.PatchJump(jumpEnd, e.chunk.Here())
}

// emitLoop implements the loop/do/. rule from spec §4.5.
func (e *emitCore) emitLoop(tok Token, c *tokenCursor) {
	startIP := e.chunk.Here()

	for !c.at(TOKEN_DO) && !c.at(TOKEN_EOF) {
		e.emitToken(c.advance(), c)
	}
	c.expect(e.rep, TOKEN_DO, "loop ... do ... .")

	exit := e.chunk.Emit(OpJumpIfFalse, -1, 0, tok)

	for !c.at(TOKEN_DOT) && !c.at(TOKEN_EOF) {
		e.emitToken(c.advance(), c)
	}
	c.expect(e.rep, TOKEN_DOT, "loop ... do ... .")

	e.chunk.Emit(OpLoop, startIP, 0, tok)
	e.chunk.PatchJump(exit, e.chunk.Here())
}

// emitMemory implements `memory <word> <int-or-const-word> end`.
func (e *emitCore) emitMemory(tok Token, c *tokenCursor) {
	nameTok := c.expect(e.rep, TOKEN_WORD, "memory <name> <size> end")
	size := e.resolveMemorySize(c)
	c.expect(e.rep, TOKEN_END, "memory <name> <size> end")

	if e.u.NameInUse(nameTok.Lexeme) {
		e.rep.Panic(newDiagnostic(nameTok, errNameInUse, nameTok.Lexeme))
	}

	nameID := e.u.Interner.Intern(nameTok.Lexeme)
	e.u.Memories.add(nameTok.Lexeme, MemoryEntry{Name: nameTok.Lexeme, Size: size})
	e.chunk.Emit(OpDefinePtr, nameID, int(size), tok)
}

func (e *emitCore) resolveMemorySize(c *tokenCursor) int64 {
	sizeTok := c.advance()
	switch sizeTok.Kind {
	case TOKEN_INT:
		return parseIntLiteral(sizeTok.Lexeme)
	case TOKEN_WORD:
		entry, _, ok := e.u.Macros.get(sizeTok.Lexeme)
		if !ok || len(entry.Body) != 1 || entry.Body[0].Kind != TOKEN_INT {
			e.rep.Panic(newDiagnostic(sizeTok, "malformed memory size"))
		}
		return parseIntLiteral(entry.Body[0].Lexeme)
	default:
		e.rep.Panic(newDiagnostic(sizeTok, "malformed memory size"))
		return 0
	}
}

// emitWord resolves a bare identifier against the four declaration
// tables; exactly one must contain it (spec §4.5 word rule).
func (e *emitCore) emitWord(tok Token, c *tokenCursor) {
	kind, idx := e.u.resolve(tok.Lexeme)
	switch kind {
	case wordMacro:
		e.expandMacro(e.u.Macros.at(idx))
	case wordMemory:
		mem := e.u.Memories.at(idx)
		nameID := e.u.Interner.Intern(mem.Name)
		constIdx := e.chunk.AddConst(Constant{Kind: ConstPtrRef, PtrName: mem.Name, Int: int64(nameID)})
		e.chunk.Emit(OpPushPtr, constIdx, 0, tok)
	case wordCFunc:
		e.chunk.Emit(OpCallCFunc, idx, 0, tok)
	case wordFunc:
		e.u.Funcs.at(idx).Called = true
		e.chunk.Emit(OpCall, idx, 0, tok)
	default:
		e.rep.Panic(newDiagnostic(tok, errUnknownWord, tok.Lexeme))
	}
}

// expandMacro re-enters the dispatch table for every token of a macro's
// stored body (spec invariant 4: re-enter, don't special-case).
func (e *emitCore) expandMacro(entry *MacroEntry) {
	mc := newCursor(entry.Body)
	e.emitBody(mc)
}

func (e *emitCore) emitIntrinsic(tok Token) {
	switch tok.Kind {
	case TOKEN_INT:
		idx := e.chunk.AddConst(Constant{Kind: ConstInt, Int: parseIntLiteral(tok.Lexeme)})
		e.chunk.Emit(OpPushInt, idx, 0, tok)
	case TOKEN_FLOAT:
		idx := e.chunk.AddConst(Constant{Kind: ConstFloat, Float: parseFloatLiteral(tok.Lexeme)})
		e.chunk.Emit(OpPushFloat, idx, 0, tok)
	case TOKEN_HEX:
		idx := e.chunk.AddConst(Constant{Kind: ConstHex, Hex: strings.TrimPrefix(strings.TrimPrefix(tok.Lexeme, "0x"), "0X")})
		e.chunk.Emit(OpPushHex, idx, 0, tok)
	case TOKEN_STR:
		// Raw bytes are interned as scanned; \t/\n escape substitution
		// happens in codegen when the .string directive is built (spec §6).
		id := e.u.Interner.Intern(tok.Lexeme)
		idx := e.chunk.AddConst(Constant{Kind: ConstStrRef, StrID: id})
		e.chunk.Emit(OpPushStr, idx, 0, tok)

	case TOKEN_DUP:
		e.chunk.Emit(OpDup, 0, 0, tok)
	case TOKEN_DROP:
		e.chunk.Emit(OpDrop, 0, 0, tok)
	case TOKEN_OVER:
		e.chunk.Emit(OpOver, 0, 0, tok)
	case TOKEN_SWAP:
		e.chunk.Emit(OpSwap, 0, 0, tok)

	case TOKEN_PLUS, TOKEN_SYS_ADD:
		e.chunk.Emit(OpAdd, 0, 0, tok)
	case TOKEN_MINUS, TOKEN_SYS_SUB:
		e.chunk.Emit(OpSubtract, 0, 0, tok)
	case TOKEN_STAR, TOKEN_SYS_MUL:
		e.chunk.Emit(OpMultiply, 0, 0, tok)
	case TOKEN_SLASH, TOKEN_SYS_DIVMOD:
		e.chunk.Emit(OpDivide, 0, 0, tok)
	case TOKEN_PERCENT:
		e.chunk.Emit(OpModulo, 0, 0, tok)
	case TOKEN_INC:
		e.chunk.Emit(OpInc, 0, 0, tok)
	case TOKEN_DEC:
		e.chunk.Emit(OpDec, 0, 0, tok)

	case TOKEN_EQ:
		e.chunk.Emit(OpEqual, 0, 0, tok)
	case TOKEN_NEQ:
		e.chunk.Emit(OpNotEqual, 0, 0, tok)
	case TOKEN_LT:
		e.chunk.Emit(OpLess, 0, 0, tok)
	case TOKEN_LE:
		e.chunk.Emit(OpLessEqual, 0, 0, tok)
	case TOKEN_GT:
		e.chunk.Emit(OpGreater, 0, 0, tok)
	case TOKEN_GE:
		e.chunk.Emit(OpGreaterEqual, 0, 0, tok)

	case TOKEN_AND:
		e.chunk.Emit(OpAnd, 0, 0, tok)
	case TOKEN_OR:
		e.chunk.Emit(OpOr, 0, 0, tok)

	case TOKEN_LOAD8:
		e.chunk.Emit(OpLoad8, 0, 0, tok)
	case TOKEN_SAVE8:
		e.chunk.Emit(OpSave8, 0, 0, tok)
	case TOKEN_PRINT:
		e.chunk.Emit(OpPrint, 0, 0, tok)

	case TOKEN_SYSCALL0:
		e.chunk.Emit(OpSys0, 0, 0, tok)
	case TOKEN_SYSCALL1:
		e.chunk.Emit(OpSys1, 0, 0, tok)
	case TOKEN_SYSCALL2:
		e.chunk.Emit(OpSys2, 0, 0, tok)
	case TOKEN_SYSCALL3:
		e.chunk.Emit(OpSys3, 0, 0, tok)
	case TOKEN_SYSCALL4:
		e.chunk.Emit(OpSys4, 0, 0, tok)
	case TOKEN_SYSCALL5:
		e.chunk.Emit(OpSys5, 0, 0, tok)
	case TOKEN_SYSCALL6:
		e.chunk.Emit(OpSys6, 0, 0, tok)

	default:
		e.rep.Panic(newDiagnostic(tok, errUnexpectedToken, tok.Lexeme))
	}
}
