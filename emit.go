package main

// Emitter is pass 2 (spec §4.5): it re-tokenises each file the
// preprocessor discovered and emits bytecode for every top-level
// statement. Declaration headers (#include, #clib, const, macro, fn,
// cfn) were already consumed by pass 1, so here they are only skipped.
type Emitter struct {
	fs    *FileStore
	u     *Universe
	chunk *Chunk
	rep   *Reporter
	core  *emitCore
	files []FileID
}

func NewEmitter(fs *FileStore, u *Universe, chunk *Chunk, rep *Reporter, files []FileID) *Emitter {
	return &Emitter{
		fs:    fs,
		u:     u,
		chunk: chunk,
		rep:   rep,
		core:  newEmitCore(u, chunk, rep),
		files: files,
	}
}

func (e *Emitter) Run() {
	for _, id := range e.files {
		e.emitFile(id)
	}
}

func (e *Emitter) emitFile(id FileID) {
	file := e.fs.Get(id)
	toks := lexAll(id, file.Source)
	c := newCursor(toks)

	for {
		tok := c.peek()
		if tok.Kind == TOKEN_EOF {
			return
		}
		e.dispatch(c)
	}
}

func (e *Emitter) dispatch(c *tokenCursor) {
	defer recoverInto(e.rep, c)

	tok := c.peek()
	switch tok.Kind {
	case TOKEN_HASH_INCLUDE, TOKEN_HASH_CLIB:
		c.advance()
		c.expect(e.rep, TOKEN_STR, "directive argument")
	case TOKEN_MACRO:
		skipMacroHeader(c)
	case TOKEN_CONST:
		skipConstHeader(c)
	case TOKEN_C_FUNCTION:
		skipCFuncHeader(c)
	case TOKEN_FUNCTION:
		skipFuncHeader(c)
	default:
		c.advance()
		e.core.emitToken(tok, c)
	}
}

// The skip* helpers advance past a declaration header already consumed
// by pass 1 (spec §4.5 "ignore/skip rules"), without re-validating it —
// any malformed header was already reported once, in pass 1.

func skipMacroHeader(c *tokenCursor) {
	c.advance() // macro
	c.advance() // name
	c.advance() // set
	for !c.at(TOKEN_END) && !c.at(TOKEN_EOF) {
		c.advance()
	}
	if c.at(TOKEN_END) {
		c.advance()
	}
}

func skipConstHeader(c *tokenCursor) {
	c.advance() // const
	c.advance() // name
	c.advance() // literal
	if c.at(TOKEN_END) {
		c.advance()
	}
}

func skipCFuncHeader(c *tokenCursor) {
	c.advance() // cfn
	c.advance() // source name
	c.advance() // linker name
	for {
		if _, ok := tokenToDataType(c.peek().Kind); ok {
			c.advance()
			continue
		}
		break
	}
	if c.at(TOKEN_RIGHT_ARROW) {
		c.advance()
		c.advance()
	}
	if c.at(TOKEN_END) {
		c.advance()
	}
}

func skipFuncHeader(c *tokenCursor) {
	c.advance() // fn
	c.advance() // name
	for {
		if _, ok := tokenToDataType(c.peek().Kind); ok {
			c.advance()
			continue
		}
		break
	}
	if c.at(TOKEN_RIGHT_ARROW) {
		c.advance()
		c.advance()
	}
	if c.at(TOKEN_SET) {
		c.advance()
	}
	// The body may itself contain nested if/loop/memory forms (the only
	// other constructs with an internal "end" or "."), so a flat scan for
	// the next TOKEN_END would stop early at an inner memory's "end".
	skipTokensUntil(c, TOKEN_END)
	if c.at(TOKEN_END) {
		c.advance()
	}
}

// skipTokensUntil advances c, recursively skipping over nested
// if/loop/memory structures as it goes, stopping (without consuming)
// at the first token whose kind is in stop, or at EOF. This mirrors
// emitCore's traversal shape without emitting anything — used to
// re-locate a function body's closing "end" in pass 2 after pass 1
// already emitted its bytecode.
func skipTokensUntil(c *tokenCursor, stop ...TokenKind) {
	for {
		tok := c.peek()
		if tok.Kind == TOKEN_EOF {
			return
		}
		for _, s := range stop {
			if tok.Kind == s {
				return
			}
		}
		c.advance()
		switch tok.Kind {
		case TOKEN_IF:
			skipIfBlock(c)
		case TOKEN_LOOP:
			skipLoopBlock(c)
		case TOKEN_STATIC:
			c.advance() // name
			c.advance() // size
			if c.at(TOKEN_END) {
				c.advance()
			}
		}
	}
}

func skipIfBlock(c *tokenCursor) {
	skipTokensUntil(c, TOKEN_DO)
	if c.at(TOKEN_DO) {
		c.advance()
	}
	skipTokensUntil(c, TOKEN_ELSE, TOKEN_DOT)
	if c.at(TOKEN_ELSE) {
		c.advance()
		skipTokensUntil(c, TOKEN_DOT)
	}
	if c.at(TOKEN_DOT) {
		c.advance()
	}
}

func skipLoopBlock(c *tokenCursor) {
	skipTokensUntil(c, TOKEN_DO)
	if c.at(TOKEN_DO) {
		c.advance()
	}
	skipTokensUntil(c, TOKEN_DOT)
	if c.at(TOKEN_DOT) {
		c.advance()
	}
}
