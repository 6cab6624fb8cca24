package main

// TokenKind enumerates every lexeme the scanner can produce.
type TokenKind int

const (
	TOKEN_EOF TokenKind = iota
	TOKEN_ERROR

	// structural
	TOKEN_DOT        // .
	TOKEN_SET        // set
	TOKEN_DO         // do
	TOKEN_ELSE       // else
	TOKEN_END        // end
	TOKEN_RIGHT_ARROW // ->

	// literals
	TOKEN_INT
	TOKEN_FLOAT
	TOKEN_HEX
	TOKEN_STR
	TOKEN_WORD

	// intrinsics: stack manipulation
	TOKEN_DUP
	TOKEN_DROP
	TOKEN_OVER
	TOKEN_SWAP

	// intrinsics: arithmetic
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_PERCENT
	TOKEN_INC
	TOKEN_DEC

	// intrinsics: comparison
	TOKEN_EQ
	TOKEN_NEQ
	TOKEN_LT
	TOKEN_LE
	TOKEN_GT
	TOKEN_GE

	// intrinsics: logic
	TOKEN_AND
	TOKEN_OR

	// intrinsics: memory access
	TOKEN_LOAD8  // @8
	TOKEN_SAVE8  // !8

	// intrinsics: output
	TOKEN_PRINT

	// intrinsics: syscalls
	TOKEN_SYSCALL0
	TOKEN_SYSCALL1
	TOKEN_SYSCALL2
	TOKEN_SYSCALL3
	TOKEN_SYSCALL4
	TOKEN_SYSCALL5
	TOKEN_SYSCALL6
	TOKEN_SYS_ADD
	TOKEN_SYS_SUB
	TOKEN_SYS_MUL
	TOKEN_SYS_DIVMOD

	// block starters
	TOKEN_IF
	TOKEN_LOOP
	TOKEN_STATIC // memory

	// declarative
	TOKEN_CONST
	TOKEN_MACRO
	TOKEN_FUNCTION    // fn
	TOKEN_C_FUNCTION  // cfn
	TOKEN_HASH_INCLUDE
	TOKEN_HASH_CLIB

	// type keywords
	TOKEN_DATATYPE_INT
	TOKEN_DATATYPE_STR
	TOKEN_DATATYPE_BOOL
	TOKEN_DATATYPE_PTR
	TOKEN_DATATYPE_FLOAT
	TOKEN_DATATYPE_HEX
)

var tokenNames = map[TokenKind]string{
	TOKEN_EOF: "end of file", TOKEN_ERROR: "error",
	TOKEN_DOT: ".", TOKEN_SET: "set", TOKEN_DO: "do", TOKEN_ELSE: "else",
	TOKEN_END: "end", TOKEN_RIGHT_ARROW: "->",
	TOKEN_INT: "integer", TOKEN_FLOAT: "float", TOKEN_HEX: "hex", TOKEN_STR: "string", TOKEN_WORD: "word",
	TOKEN_DUP: "dup", TOKEN_DROP: "drop", TOKEN_OVER: "over", TOKEN_SWAP: "swap",
	TOKEN_PLUS: "+", TOKEN_MINUS: "-", TOKEN_STAR: "*", TOKEN_SLASH: "/", TOKEN_PERCENT: "%",
	TOKEN_INC: "inc", TOKEN_DEC: "dec",
	TOKEN_EQ: "==", TOKEN_NEQ: "!=", TOKEN_LT: "<", TOKEN_LE: "<=", TOKEN_GT: ">", TOKEN_GE: ">=",
	TOKEN_AND: "and", TOKEN_OR: "or",
	TOKEN_LOAD8: "@8", TOKEN_SAVE8: "!8", TOKEN_PRINT: "print",
	TOKEN_SYSCALL0: "__sys_call0", TOKEN_SYSCALL1: "__sys_call1", TOKEN_SYSCALL2: "__sys_call2",
	TOKEN_SYSCALL3: "__sys_call3", TOKEN_SYSCALL4: "__sys_call4", TOKEN_SYSCALL5: "__sys_call5",
	TOKEN_SYSCALL6:   "__sys_call6",
	TOKEN_SYS_ADD:    "__sys_add",
	TOKEN_SYS_SUB:    "__sys_sub",
	TOKEN_SYS_MUL:    "__sys_mul",
	TOKEN_SYS_DIVMOD: "__sys_divmod",
	TOKEN_IF:         "if", TOKEN_LOOP: "loop", TOKEN_STATIC: "memory",
	TOKEN_CONST: "const", TOKEN_MACRO: "macro", TOKEN_FUNCTION: "fn", TOKEN_C_FUNCTION: "cfn",
	TOKEN_HASH_INCLUDE: "#include", TOKEN_HASH_CLIB: "#clib",
	TOKEN_DATATYPE_INT: "int", TOKEN_DATATYPE_STR: "str", TOKEN_DATATYPE_BOOL: "bool",
	TOKEN_DATATYPE_PTR: "ptr", TOKEN_DATATYPE_FLOAT: "float", TOKEN_DATATYPE_HEX: "hex",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "unknown"
}

// keywords maps every reserved word to its token kind. Anything not in
// this table and starting with a letter or underscore lexes as TOKEN_WORD.
var keywords = map[string]TokenKind{
	"do": TOKEN_DO, "else": TOKEN_ELSE, "end": TOKEN_END, "set": TOKEN_SET,
	"if": TOKEN_IF, "loop": TOKEN_LOOP,
	"memory": TOKEN_STATIC, "static": TOKEN_STATIC,
	"const": TOKEN_CONST, "macro": TOKEN_MACRO, "fn": TOKEN_FUNCTION, "cfn": TOKEN_C_FUNCTION,
	"dup": TOKEN_DUP, "drop": TOKEN_DROP, "over": TOKEN_OVER, "swap": TOKEN_SWAP,
	"inc": TOKEN_INC, "dec": TOKEN_DEC, "print": TOKEN_PRINT,
	"and": TOKEN_AND, "or": TOKEN_OR,
	"__sys_call0": TOKEN_SYSCALL0, "__sys_call1": TOKEN_SYSCALL1, "__sys_call2": TOKEN_SYSCALL2,
	"__sys_call3": TOKEN_SYSCALL3, "__sys_call4": TOKEN_SYSCALL4, "__sys_call5": TOKEN_SYSCALL5,
	"__sys_call6": TOKEN_SYSCALL6,
	"__sys_add":   TOKEN_SYS_ADD, "__sys_sub": TOKEN_SYS_SUB, "__sys_mul": TOKEN_SYS_MUL,
	"__sys_divmod": TOKEN_SYS_DIVMOD,
	"int":         TOKEN_DATATYPE_INT, "str": TOKEN_DATATYPE_STR, "bool": TOKEN_DATATYPE_BOOL,
	"ptr": TOKEN_DATATYPE_PTR, "float": TOKEN_DATATYPE_FLOAT, "hex": TOKEN_DATATYPE_HEX,
}

// Token is an immutable scanned lexeme plus its precise source location.
type Token struct {
	Kind   TokenKind
	Lexeme string
	File   FileID
	Line   int
	Col    int
}

func (t Token) is(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}
