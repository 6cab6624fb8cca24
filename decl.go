package main

import "github.com/samber/lo"

// MacroEntry is a named token-slice substituted at its call site. Macros
// are pure token-level substitution, never an AST (DESIGN NOTES §9);
// const declarations are stored as a macro whose body is one literal
// token, so the const/macro distinction disappears after pass 1.
type MacroEntry struct {
	Name string
	Body []Token
}

// MemoryEntry is a named, statically allocated, uninitialised buffer.
type MemoryEntry struct {
	Name string
	Size int64
}

// CFuncEntry is an extern C function signature declared with `cfn`.
type CFuncEntry struct {
	Name       string // name used from source
	LinkerName string // symbol the linker resolves
	Args       []DataType
	Return     DataType // TypeNull if void
}

// FuncEntry is a source-defined function.
type FuncEntry struct {
	Name     string
	Args     []DataType
	Return   DataType
	StartIP  int
	EndIP    int
	Called   bool
}

// declTable is an owned arena of entries plus a name index, replacing
// pointer-chained dictionaries (DESIGN NOTES §9). Declaration order is
// preserved so diagnostics and codegen can walk entries deterministically.
type declTable[T any] struct {
	entries []T
	index   map[string]int
}

func newDeclTable[T any]() declTable[T] {
	return declTable[T]{index: make(map[string]int)}
}

func (t *declTable[T]) add(name string, entry T) int {
	idx := len(t.entries)
	t.entries = append(t.entries, entry)
	t.index[name] = idx
	return idx
}

func (t *declTable[T]) get(name string) (*T, int, bool) {
	idx, ok := t.index[name]
	if !ok {
		return nil, -1, false
	}
	return &t.entries[idx], idx, true
}

func (t *declTable[T]) at(idx int) *T {
	return &t.entries[idx]
}

func (t *declTable[T]) has(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *declTable[T]) names() []string {
	return lo.Keys(t.index)
}

// Universe owns every declaration table plus the string interner for a
// single compile. Invariant §3.1 (every interned name is unique across
// the union of macro/memory/cfunc/func) is enforced only here.
type Universe struct {
	Interner *Interner
	Macros   declTable[MacroEntry]
	Memories declTable[MemoryEntry]
	CFuncs   declTable[CFuncEntry]
	Funcs    declTable[FuncEntry]
}

func NewUniverse() *Universe {
	return &Universe{
		Interner: NewInterner(),
		Macros:   newDeclTable[MacroEntry](),
		Memories: newDeclTable[MemoryEntry](),
		CFuncs:   newDeclTable[CFuncEntry](),
		Funcs:    newDeclTable[FuncEntry](),
	}
}

// NameInUse reports whether name is already declared in any of the four
// tables (spec invariant §3.1).
func (u *Universe) NameInUse(name string) bool {
	return lo.ContainsBy([]bool{u.Macros.has(name), u.Memories.has(name), u.CFuncs.has(name), u.Funcs.has(name)},
		func(used bool) bool { return used })
}

// wordKind describes which table a resolved word belongs to, for the
// emitter's word rule (spec §4.5): exactly one table may contain it.
type wordKind int

const (
	wordNone wordKind = iota
	wordMacro
	wordMemory
	wordCFunc
	wordFunc
)

func (u *Universe) resolve(name string) (wordKind, int) {
	if _, idx, ok := u.Macros.get(name); ok {
		return wordMacro, idx
	}
	if _, idx, ok := u.Memories.get(name); ok {
		return wordMemory, idx
	}
	if _, idx, ok := u.CFuncs.get(name); ok {
		return wordCFunc, idx
	}
	if _, idx, ok := u.Funcs.get(name); ok {
		return wordFunc, idx
	}
	return wordNone, -1
}
