package main

// Typechecker is a symbolic stack executor (spec §4.6). It never walks
// the chunk as one flat sequence: pass 1 and pass 2 together lay out
// every function body contiguously before any top-level code (pass 1
// emits nothing but bodies; pass 2 emits nothing but top-level
// statements), so each function's range is checked in isolation from a
// stack seeded with its argument types, and the top-level range is
// checked separately starting from an empty stack.
type Typechecker struct {
	u     *Universe
	chunk *Chunk
	rep   *Reporter
}

func NewTypechecker(u *Universe, chunk *Chunk, rep *Reporter) *Typechecker {
	return &Typechecker{u: u, chunk: chunk, rep: rep}
}

func (tc *Typechecker) Run() {
	topStart := 0
	for i := range tc.u.Funcs.entries {
		tc.checkFunction(i)
		if end := tc.u.Funcs.entries[i].EndIP; end+1 > topStart {
			topStart = end + 1
		}
	}
	tc.checkTopLevel(topStart)
}

func (tc *Typechecker) checkFunction(idx int) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*Diagnostic); ok {
				return
			}
			panic(r)
		}
	}()

	fn := tc.u.Funcs.at(idx)
	stack := append([]DataType{}, fn.Args...)
	// body occupies (StartIP, EndIP-1): StartIP is DEFINE_FUNCTION itself,
	// EndIP-1 is the synthesized RETURN, EndIP is FUNCTION_END.
	result := tc.checkRange(fn.StartIP+1, fn.EndIP-1, stack, tc.tok(fn.StartIP))

	want := 0
	if fn.Return != TypeNull {
		want = 1
	}
	if len(result) != want {
		tc.rep.Panic(newDiagnostic(tc.tok(fn.EndIP), errNonEmptyAtEnd, len(result)))
	}
	if want == 1 && result[0] != fn.Return {
		tc.rep.Panic(newDiagnostic(tc.tok(fn.EndIP), errTypeMismatch, "fn "+fn.Name, fn.Return.String(), result[0].String()))
	}
}

func (tc *Typechecker) checkTopLevel(start int) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*Diagnostic); ok {
				return
			}
			panic(r)
		}
	}()

	var endTok Token
	if start < len(tc.chunk.Code) {
		endTok = tc.chunk.Code[len(tc.chunk.Code)-1].Tok
	}
	result := tc.checkRange(start, len(tc.chunk.Code), nil, endTok)
	if len(result) != 0 {
		tc.rep.Panic(newDiagnostic(endTok, errNonEmptyAtEnd, len(result)))
	}
}

func (tc *Typechecker) tok(ip int) Token {
	if ip < 0 || ip >= len(tc.chunk.Code) {
		return Token{}
	}
	return tc.chunk.Code[ip].Tok
}

// checkRange symbolically executes chunk.Code[start:end], recursing into
// nested if/loop structures when a JUMP_IF_FALSE is found, and returns
// the stack shape at end. Block balance is depth-only (spec §4.6): the
// then/else arms of an if must leave the same depth, and a loop body
// must leave the chunk at the same depth it had entering the body.
func (tc *Typechecker) checkRange(start, end int, stack []DataType, _ Token) []DataType {
	ip := start
	for ip < end {
		instr := tc.chunk.Code[ip]

		if instr.Op == OpJumpIfFalse {
			stack = tc.pop(stack, instr.Tok, TypeBool)
			target := instr.A
			prev := tc.chunk.Code[target-1]

			switch prev.Op {
			case OpJump: // if/else: then=[ip+1,target-1), else=[target,prev.A)
				thenEnd := target - 1
				elseEnd := prev.A
				thenStack := tc.checkRange(ip+1, thenEnd, cloneStack(stack), instr.Tok)
				elseStack := tc.checkRange(thenEnd+1, elseEnd, cloneStack(stack), instr.Tok)
				if len(thenStack) != len(elseStack) {
					tc.rep.Panic(newDiagnostic(instr.Tok, errStackImbalance, "if"))
				}
				stack = thenStack
				ip = elseEnd
				continue

			case OpLoop: // loop: body=[ip+1, target-1), exit at target
				bodyEnd := target - 1
				enterDepth := len(stack)
				bodyStack := tc.checkRange(ip+1, bodyEnd, cloneStack(stack), instr.Tok)
				if len(bodyStack) != enterDepth {
					tc.rep.Panic(newDiagnostic(instr.Tok, errStackImbalance, "loop"))
				}
				ip = target
				continue

			default:
				tc.rep.Panic(newDiagnostic(instr.Tok, "malformed jump target"))
			}
		}

		stack = tc.applyOp(ip, instr, stack)
		ip++
	}
	return stack
}

func cloneStack(s []DataType) []DataType {
	out := make([]DataType, len(s))
	copy(out, s)
	return out
}

func (tc *Typechecker) pop(stack []DataType, tok Token, want ...DataType) []DataType {
	if len(stack) == 0 {
		tc.rep.Panic(newDiagnostic(tok, errStackUnderflow, tok.Lexeme, 1))
	}
	top := stack[len(stack)-1]
	if len(want) > 0 && !containsType(want, top) {
		tc.rep.Panic(newDiagnostic(tok, errTypeMismatch, tok.Lexeme, typesString(want), top.String()))
	}
	return stack[:len(stack)-1]
}

func containsType(want []DataType, got DataType) bool {
	for _, w := range want {
		if w == got {
			return true
		}
	}
	return false
}

func typesString(ts []DataType) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += " or "
		}
		s += t.String()
	}
	return s
}

func (tc *Typechecker) applyOp(ip int, instr Instruction, stack []DataType) []DataType {
	tok := instr.Tok
	switch instr.Op {
	case OpPushInt:
		return append(stack, TypeInt)
	case OpPushFloat:
		return append(stack, TypeFloat)
	case OpPushHex:
		return append(stack, TypeHex)
	case OpPushStr:
		return append(stack, TypeInt, TypeStr)
	case OpPushPtr:
		return append(stack, TypePtr)

	case OpAdd, OpSubtract:
		if len(stack) < 2 {
			tc.rep.Panic(newDiagnostic(tok, errStackUnderflow, tok.Lexeme, 2))
		}
		top := stack[len(stack)-1]
		second := stack[len(stack)-2]
		if !containsType([]DataType{TypeInt, TypePtr}, top) || !containsType([]DataType{TypeInt, TypePtr}, second) {
			tc.rep.Panic(newDiagnostic(tok, errTypeMismatch, tok.Lexeme, "int or ptr", top.String()))
		}
		stack = stack[:len(stack)-2]
		result := TypeInt
		if top == TypePtr || second == TypePtr {
			result = TypePtr
		}
		return append(stack, result)

	case OpMultiply, OpModulo:
		stack = tc.pop(stack, tok, TypeInt)
		stack = tc.pop(stack, tok, TypeInt)
		return append(stack, TypeInt)

	case OpDivide:
		stack = tc.pop(stack, tok, TypeInt)
		stack = tc.pop(stack, tok, TypeInt)
		return append(stack, TypeInt, TypeInt)

	case OpInc, OpDec:
		stack = tc.pop(stack, tok, TypeInt)
		return append(stack, TypeInt)

	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		stack = tc.pop(stack, tok, TypeInt, TypeBool, TypeFloat, TypePtr)
		stack = tc.pop(stack, tok, TypeInt, TypeBool, TypeFloat, TypePtr)
		return append(stack, TypeBool)

	case OpAnd, OpOr:
		stack = tc.pop(stack, tok, TypeBool)
		stack = tc.pop(stack, tok, TypeBool)
		return append(stack, TypeBool)

	case OpDrop:
		return tc.pop(stack, tok)

	case OpDup:
		stack2 := tc.pop(stack, tok)
		top := stack[len(stack)-1]
		return append(stack2, top, top)

	case OpOver:
		if len(stack) < 2 {
			tc.rep.Panic(newDiagnostic(tok, errStackUnderflow, tok.Lexeme, 2))
		}
		b := stack[len(stack)-2] // second-from-top gets duplicated onto the top
		return append(stack, b)

	case OpSwap:
		if len(stack) < 2 {
			tc.rep.Panic(newDiagnostic(tok, errStackUnderflow, tok.Lexeme, 2))
		}
		a := stack[len(stack)-1]
		b := stack[len(stack)-2]
		out := stack[:len(stack)-2]
		return append(out, a, b)

	case OpTake:
		return tc.pop(stack, tok)

	case OpLoad8:
		stack = tc.pop(stack, tok, TypePtr)
		return append(stack, TypeInt)

	case OpSave8:
		stack = tc.pop(stack, tok, TypeInt, TypeBool)
		stack = tc.pop(stack, tok, TypePtr)
		return stack

	case OpPrint:
		// PRINT dispatches to a different runtime routine per operand
		// type (dump/bool_println/string write); codegen needs to know
		// which, so the resolved type is tagged onto the instruction
		// itself here rather than re-derived during codegen.
		if len(stack) == 0 {
			tc.rep.Panic(newDiagnostic(tok, errStackUnderflow, tok.Lexeme, 1))
		}
		top := stack[len(stack)-1]
		switch top {
		case TypeStr:
			stack = tc.pop(stack, tok, TypeStr)
			stack = tc.pop(stack, tok, TypeInt) // the length word beneath it
		case TypeInt, TypeBool, TypeFloat:
			stack = tc.pop(stack, tok, TypeInt, TypeBool, TypeFloat)
		default:
			tc.rep.Panic(newDiagnostic(tok, errTypeMismatch, tok.Lexeme, "int, bool, float or str", top.String()))
		}
		tc.chunk.Code[ip].A = int(top)
		return stack

	case OpSys0, OpSys1, OpSys2, OpSys3, OpSys4, OpSys5, OpSys6:
		n := sysArgCount(instr.Op)
		for i := 0; i < n; i++ {
			stack = tc.pop(stack, tok, TypeInt, TypePtr)
		}
		return append(stack, TypeInt)

	case OpDefinePtr, OpDefineFunction, OpFunctionEnd, OpReturn, OpEnd:
		return stack

	case OpCallCFunc:
		cf := tc.u.CFuncs.at(instr.A)
		for i := len(cf.Args) - 1; i >= 0; i-- {
			stack = tc.pop(stack, tok, cf.Args[i])
		}
		if cf.Return != TypeNull {
			stack = append(stack, cf.Return)
		}
		return stack

	case OpCall:
		fn := tc.u.Funcs.at(instr.A)
		for i := len(fn.Args) - 1; i >= 0; i-- {
			stack = tc.pop(stack, tok, fn.Args[i])
		}
		if fn.Return != TypeNull {
			stack = append(stack, fn.Return)
		}
		return stack

	default:
		return stack
	}
}

func sysArgCount(op Op) int {
	switch op {
	case OpSys0:
		return 1
	case OpSys1:
		return 2
	case OpSys2:
		return 3
	case OpSys3:
		return 4
	case OpSys4:
		return 5
	case OpSys5:
		return 6
	case OpSys6:
		return 7
	default:
		return 0
	}
}
