package main

// Preprocessor is pass 1 (spec §4.4): it walks every file's top-level
// forms, populating the four declaration tables and, critically, also
// emitting every function body into the shared Chunk so that a CALL
// parsed anywhere in pass 2 (any file, any order) already has a
// resolvable target (spec §9, function-before-call resolution).
type Preprocessor struct {
	fs        *FileStore
	cfg       *Config
	u         *Universe
	chunk     *Chunk
	rep       *Reporter
	core      *emitCore
	queue     []FileID
	scheduled map[FileID]bool
}

func NewPreprocessor(fs *FileStore, cfg *Config, u *Universe, chunk *Chunk, rep *Reporter) *Preprocessor {
	return &Preprocessor{
		fs:        fs,
		cfg:       cfg,
		u:         u,
		chunk:     chunk,
		rep:       rep,
		core:      newEmitCore(u, chunk, rep),
		scheduled: make(map[FileID]bool),
	}
}

// Enqueue schedules id for processing if it hasn't been scheduled yet.
// #include resolution is breadth-first against a work list (spec §4.4:
// "appending to the work list so it is processed in turn"), not a
// recursive depth-first walk.
func (p *Preprocessor) Enqueue(id FileID) {
	if p.scheduled[id] {
		return
	}
	p.scheduled[id] = true
	p.queue = append(p.queue, id)
}

// Files returns every file that was scheduled, in processing order —
// this becomes the Emitter pass's file list too, so pass 2 walks
// exactly the set of files pass 1 discovered.
func (p *Preprocessor) Files() []FileID {
	return p.queue
}

// Run drains the work queue. Enqueue calls made while processing file i
// (from #include directives) extend the queue in place, so the loop
// bound is re-read each iteration.
func (p *Preprocessor) Run() {
	for i := 0; i < len(p.queue); i++ {
		p.processFile(p.queue[i])
	}
}

func (p *Preprocessor) processFile(id FileID) {
	file := p.fs.Get(id)
	toks := lexAll(id, file.Source)
	c := newCursor(toks)

	for {
		tok := c.peek()
		if tok.Kind == TOKEN_EOF {
			return
		}
		p.dispatch(c)
	}
}

func (p *Preprocessor) dispatch(c *tokenCursor) {
	defer recoverInto(p.rep, c)

	tok := c.advance()
	switch tok.Kind {
	case TOKEN_HASH_INCLUDE:
		p.parseInclude(tok, c)
	case TOKEN_HASH_CLIB:
		p.parseClib(tok, c)
	case TOKEN_MACRO:
		p.parseMacro(tok, c)
	case TOKEN_CONST:
		p.parseConst(tok, c)
	case TOKEN_C_FUNCTION:
		p.parseCFunc(tok, c)
	case TOKEN_FUNCTION:
		p.parseFunc(tok, c)
	default:
		// Everything else belongs to pass 2; pass 1 ignores it (spec §4.4).
	}
}

func (p *Preprocessor) parseInclude(tok Token, c *tokenCursor) {
	nameTok := c.expect(p.rep, TOKEN_STR, `#include "name"`)
	id, err := p.fs.LoadInclude(nameTok.Lexeme)
	if err != nil {
		p.rep.Panic(newDiagnostic(nameTok, errUnknownInclude, nameTok.Lexeme))
		return
	}
	p.Enqueue(id)
}

func (p *Preprocessor) parseClib(tok Token, c *tokenCursor) {
	nameTok := c.expect(p.rep, TOKEN_STR, `#clib "name"`)
	for _, existing := range p.cfg.CLibraries {
		if existing == nameTok.Lexeme {
			return
		}
	}
	p.cfg.CLibraries = append(p.cfg.CLibraries, nameTok.Lexeme)
}

// parseMacro handles `macro <word> set ... end`. Block tokens are
// rejected inside the body (spec invariant: macros are pure token
// slices, never control flow).
func (p *Preprocessor) parseMacro(tok Token, c *tokenCursor) {
	nameTok := c.expect(p.rep, TOKEN_WORD, "macro <name> set ... end")
	c.expect(p.rep, TOKEN_SET, "macro <name> set ... end")

	var body []Token
	for !c.at(TOKEN_END) && !c.at(TOKEN_EOF) {
		t := c.advance()
		if t.Kind == TOKEN_IF || t.Kind == TOKEN_LOOP || t.Kind == TOKEN_STATIC {
			p.rep.Panic(newDiagnostic(t, errMacroNestedBlock))
		}
		body = append(body, t)
	}
	c.expect(p.rep, TOKEN_END, "macro <name> set ... end")

	if len(body) == 0 {
		p.rep.Panic(newDiagnostic(nameTok, "macro '%s' has an empty body", nameTok.Lexeme))
	}
	if p.u.NameInUse(nameTok.Lexeme) {
		p.rep.Panic(newDiagnostic(nameTok, errNameInUse, nameTok.Lexeme))
	}
	p.u.Macros.add(nameTok.Lexeme, MacroEntry{Name: nameTok.Lexeme, Body: body})
}

// parseConst handles `const <word> <literal> end`, stored as a
// single-token macro per spec §3 ("Constant entry — stored as a single
// macro").
func (p *Preprocessor) parseConst(tok Token, c *tokenCursor) {
	nameTok := c.expect(p.rep, TOKEN_WORD, "const <name> <literal> end")
	litTok := c.advance()
	if litTok.Kind != TOKEN_INT && litTok.Kind != TOKEN_STR {
		p.rep.Panic(newDiagnostic(litTok, "const '%s' requires an int or string literal", nameTok.Lexeme))
	}
	c.expect(p.rep, TOKEN_END, "const <name> <literal> end")

	if p.u.NameInUse(nameTok.Lexeme) {
		p.rep.Panic(newDiagnostic(nameTok, errNameInUse, nameTok.Lexeme))
	}
	p.u.Macros.add(nameTok.Lexeme, MacroEntry{Name: nameTok.Lexeme, Body: []Token{litTok}})
}

// parseCFunc handles `cfn <source-name> <c-name> <arg-type>* [-> <ret>] end`.
func (p *Preprocessor) parseCFunc(tok Token, c *tokenCursor) {
	srcNameTok := c.expect(p.rep, TOKEN_WORD, "cfn <name> <cname> <types>* [-> <type>] end")
	linkerNameTok := c.expect(p.rep, TOKEN_WORD, "cfn <name> <cname> <types>* [-> <type>] end")

	var args []DataType
	for {
		t := c.peek()
		dt, ok := tokenToDataType(t.Kind)
		if !ok {
			break
		}
		args = append(args, dt)
		c.advance()
	}

	ret := TypeNull
	if c.at(TOKEN_RIGHT_ARROW) {
		c.advance()
		t := c.advance()
		dt, ok := tokenToDataType(t.Kind)
		if !ok {
			p.rep.Panic(newDiagnostic(t, "expected a return type after '->'"))
		}
		ret = dt
	}
	c.expect(p.rep, TOKEN_END, "cfn <name> <cname> <types>* [-> <type>] end")

	if p.u.NameInUse(srcNameTok.Lexeme) {
		p.rep.Panic(newDiagnostic(srcNameTok, errNameInUse, srcNameTok.Lexeme))
	}
	p.u.CFuncs.add(srcNameTok.Lexeme, CFuncEntry{
		Name:       srcNameTok.Lexeme,
		LinkerName: linkerNameTok.Lexeme,
		Args:       args,
		Return:     ret,
	})
}

// parseFunc handles `fn <word> <arg-type>* [-> <ret-type>] set ... end`
// and emits the body into the chunk right here (spec §9).
func (p *Preprocessor) parseFunc(tok Token, c *tokenCursor) {
	nameTok := c.expect(p.rep, TOKEN_WORD, "fn <name> <types>* [-> <type>] set ... end")

	var args []DataType
	for {
		t := c.peek()
		dt, ok := tokenToDataType(t.Kind)
		if !ok {
			break
		}
		args = append(args, dt)
		c.advance()
	}

	ret := TypeNull
	if c.at(TOKEN_RIGHT_ARROW) {
		c.advance()
		t := c.advance()
		dt, ok := tokenToDataType(t.Kind)
		if !ok {
			p.rep.Panic(newDiagnostic(t, "expected a return type after '->'"))
		}
		ret = dt
	}
	c.expect(p.rep, TOKEN_SET, "fn <name> <types>* [-> <type>] set ... end")

	if p.u.NameInUse(nameTok.Lexeme) {
		p.rep.Panic(newDiagnostic(nameTok, errNameInUse, nameTok.Lexeme))
	}
	idx := p.u.Funcs.add(nameTok.Lexeme, FuncEntry{Name: nameTok.Lexeme, Args: args, Return: ret})

	defIdx := p.chunk.Emit(OpDefineFunction, idx, 0, tok)
	p.u.Funcs.at(idx).StartIP = defIdx

	p.core.emitBody(c)

	c.expect(p.rep, TOKEN_END, "fn <name> <types>* [-> <type>] set ... end")

	p.chunk.Emit(OpReturn, 0, 0, nameTok)
	endIdx := p.chunk.Emit(OpFunctionEnd, idx, 0, nameTok)
	p.u.Funcs.at(idx).EndIP = endIdx
}
