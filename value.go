package main

import "fmt"

// DataType is the fixed, closed set of types the typechecker reasons
// about. There is no inference beyond this vocabulary (spec Non-goals).
type DataType int

const (
	TypeNull DataType = iota
	TypeInt
	TypeStr
	TypeBool
	TypePtr
	TypeFloat
	TypeHex
)

func (d DataType) String() string {
	switch d {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeStr:
		return "str"
	case TypeBool:
		return "bool"
	case TypePtr:
		return "ptr"
	case TypeFloat:
		return "float"
	case TypeHex:
		return "hex"
	default:
		return "?"
	}
}

// tokenToDataType maps a DATATYPE_* token kind to its DataType, used
// when parsing cfn/fn signatures.
func tokenToDataType(k TokenKind) (DataType, bool) {
	switch k {
	case TOKEN_DATATYPE_INT:
		return TypeInt, true
	case TOKEN_DATATYPE_STR:
		return TypeStr, true
	case TOKEN_DATATYPE_BOOL:
		return TypeBool, true
	case TOKEN_DATATYPE_PTR:
		return TypePtr, true
	case TOKEN_DATATYPE_FLOAT:
		return TypeFloat, true
	case TOKEN_DATATYPE_HEX:
		return TypeHex, true
	default:
		return TypeNull, false
	}
}

// ConstKind tags which field of Constant is meaningful.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstHex
	ConstStrRef
	ConstPtrRef
	ConstFnRef
	ConstCFnRef
	ConstDataType
)

// Constant is the tagged variant stored in a Chunk's constant pool.
// Exactly one of the payload fields is meaningful, selected by Kind.
type Constant struct {
	Kind    ConstKind
	Int     int64
	Float   float64
	Hex     string // digits only, no "0x" prefix
	StrID   int    // index into the interner
	PtrName string
	FnIdx   int
	CFnIdx  int
	Type    DataType
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstHex:
		return "0x" + c.Hex
	case ConstStrRef:
		return fmt.Sprintf("str#%d", c.StrID)
	case ConstPtrRef:
		return "&" + c.PtrName
	case ConstFnRef:
		return fmt.Sprintf("fn#%d", c.FnIdx)
	case ConstCFnRef:
		return fmt.Sprintf("cfn#%d", c.CFnIdx)
	case ConstDataType:
		return c.Type.String()
	default:
		return "?"
	}
}
