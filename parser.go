package main

// lexAll drains a Lexer into a token slice terminated by (and including)
// a TOKEN_EOF. Both compiler passes re-tokenise a file independently
// (spec §4.5: "re-tokenises each file") rather than sharing one token
// slice, so each pass owns its own cursor state.
func lexAll(file FileID, src string) []Token {
	lx := NewLexer(file, src)
	var toks []Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == TOKEN_EOF {
			break
		}
	}
	return toks
}

// tokenCursor is a forward-only view over a token slice. It backs both a
// whole file's token stream and, transiently, a macro body's token
// slice during expansion — the emitter dispatch logic doesn't need to
// know which.
type tokenCursor struct {
	toks []Token
	pos  int
}

func newCursor(toks []Token) *tokenCursor {
	return &tokenCursor{toks: toks}
}

func (c *tokenCursor) peek() Token {
	if c.pos >= len(c.toks) {
		return Token{Kind: TOKEN_EOF}
	}
	return c.toks[c.pos]
}

func (c *tokenCursor) advance() Token {
	t := c.peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *tokenCursor) at(kind TokenKind) bool {
	return c.peek().Kind == kind
}

// expect consumes the next token, panicking a *Diagnostic through rep if
// it isn't of kind. context names the construct being parsed, for the
// "E.g.:" style message spec §7 calls for.
func (c *tokenCursor) expect(rep *Reporter, kind TokenKind, context string) Token {
	tok := c.peek()
	if tok.Kind != kind {
		rep.Panic(newDiagnostic(tok, errExpectedToken+" (in %s)", kind.String(), tok.Lexeme, context))
	}
	return c.advance()
}

// syncStarters are the token kinds that the synchronization scan treats
// as a fresh statement/declaration boundary: it stops *before* consuming
// one of these, so the caller's next iteration picks it up normally.
var syncStarters = map[TokenKind]bool{
	TOKEN_IF: true, TOKEN_LOOP: true, TOKEN_STATIC: true,
	TOKEN_CONST: true, TOKEN_MACRO: true, TOKEN_FUNCTION: true, TOKEN_C_FUNCTION: true,
	TOKEN_HASH_INCLUDE: true, TOKEN_HASH_CLIB: true,
}

// synchronize advances past the current error site to the next '.' or
// 'end' (consumed) or the next declaration/block starter keyword (left
// unconsumed), per the recovery rule in spec §4.8/§7.
func synchronize(c *tokenCursor) {
	for {
		tok := c.peek()
		switch {
		case tok.Kind == TOKEN_EOF:
			return
		case tok.Kind == TOKEN_DOT || tok.Kind == TOKEN_END:
			c.advance()
			return
		case syncStarters[tok.Kind]:
			return
		default:
			c.advance()
		}
	}
}

// recoverInto turns a panicked *Diagnostic (or *CompileError) into a
// recorded report instead of letting it unwind past the phase, then
// synchronizes the cursor so the phase can keep looking for more errors
// in the same file.
func recoverInto(rep *Reporter, c *tokenCursor) {
	if r := recover(); r != nil {
		switch v := r.(type) {
		case *Diagnostic:
			// already recorded by Reporter.Panic
		case *CompileError:
			rep.ReportError(v)
		default:
			panic(r)
		}
		synchronize(c)
	}
}
