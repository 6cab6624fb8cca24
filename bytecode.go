package main

// Op is a tagged bytecode instruction opcode. The bytecode is a slice of
// Instruction values, never a byte-stream with a parallel constants
// array (DESIGN NOTES §9) — there is nothing to decode, only to switch
// on.
type Op int

const (
	OpPushInt Op = iota
	OpPushFloat
	OpPushHex
	OpPushStr
	OpPushPtr

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpInc
	OpDec

	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	OpDrop
	OpDup
	OpOver
	OpSwap
	OpTake

	OpAnd
	OpOr

	OpLoad8
	OpSave8
	OpDefinePtr

	OpJump
	OpJumpIfFalse
	OpLoop
	OpPrint

	OpSys0
	OpSys1
	OpSys2
	OpSys3
	OpSys4
	OpSys5
	OpSys6

	OpDefineFunction
	OpFunctionEnd
	OpCall
	OpCallCFunc
	OpReturn

	OpEnd
)

// Instruction is a single bytecode op plus up to two integer operands.
// The meaning of A and B is op-dependent:
//
//	PUSH_*           A = index into Chunk.Consts
//	JUMP/JUMP_IF_FALSE/LOOP  A = target instruction index (back-patched)
//	DEFINE_PTR       A = name id (interner), B = byte size
//	CALL             A = index into Universe.Funcs
//	CALL_CFUNC       A = index into Universe.CFuncs
//	DEFINE_FUNCTION  A = index into Universe.Funcs
type Instruction struct {
	Op  Op
	A   int
	B   int
	Tok Token
}

// Chunk is the flat instruction stream for an entire program, shared
// across every source file and every function body (spec §4: function
// bodies are emitted into the same chunk as top-level code, reached only
// via CALL). Pass 1 (preprocessor) and pass 2 (emitter) both append to
// one Chunk so that a CALL recorded in pass 2 always resolves against a
// StartIP recorded in pass 1.
type Chunk struct {
	Code   []Instruction
	Consts []Constant
}

func NewChunk() *Chunk {
	return &Chunk{}
}

// Emit appends an instruction and returns its index, for callers that
// need to patch A/B later (e.g. jump targets).
func (c *Chunk) Emit(op Op, a, b int, tok Token) int {
	idx := len(c.Code)
	c.Code = append(c.Code, Instruction{Op: op, A: a, B: b, Tok: tok})
	return idx
}

// PatchJump rewrites the A operand of a previously emitted JUMP,
// JUMP_IF_FALSE or LOOP instruction to point at target (callers pass
// Here() to patch to the current end of the chunk).
func (c *Chunk) PatchJump(at int, target int) {
	c.Code[at].A = target
}

// Here returns the index the next Emit call will use, i.e. the jump
// target for "patch to here".
func (c *Chunk) Here() int {
	return len(c.Code)
}

// AddConst interns a constant into the pool and returns its index.
// Unlike string/name interning, constants are not deduplicated: two
// identical integer literals at different call sites get distinct pool
// entries, matching how the original emits one immediate per occurrence.
func (c *Chunk) AddConst(v Constant) int {
	idx := len(c.Consts)
	c.Consts = append(c.Consts, v)
	return idx
}
