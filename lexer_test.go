package main

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	toks := lexAll(0, `2 2 + print`)
	want := []TokenKind{TOKEN_INT, TOKEN_INT, TOKEN_PLUS, TOKEN_PRINT, TOKEN_EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexerStringAndColumns(t *testing.T) {
	toks := lexAll(0, `"hi" dup`)
	if toks[0].Kind != TOKEN_STR || toks[0].Lexeme != "hi" {
		t.Fatalf("expected string token 'hi', got %+v", toks[0])
	}
	if toks[0].Col != 1 {
		t.Fatalf("expected column 1 for first token, got %d", toks[0].Col)
	}
	if toks[1].Col != 6 {
		t.Fatalf("expected column 6 for second token, got %d", toks[1].Col)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	toks := lexAll(0, `"oops`)
	if toks[0].Kind != TOKEN_ERROR {
		t.Fatalf("expected an error token for an unterminated string")
	}
}

func TestLexerHashDirectives(t *testing.T) {
	toks := lexAll(0, `#include "io" #clib "c"`)
	if toks[0].Kind != TOKEN_HASH_INCLUDE || toks[2].Kind != TOKEN_HASH_CLIB {
		t.Fatalf("expected #include/#clib directive tokens, got %+v", toks[:3])
	}
}

func TestLexerHexAndFloat(t *testing.T) {
	toks := lexAll(0, `0xFF 3.14`)
	if toks[0].Kind != TOKEN_HEX || toks[0].Lexeme != "0xFF" {
		t.Fatalf("expected hex literal, got %+v", toks[0])
	}
	if toks[1].Kind != TOKEN_FLOAT || toks[1].Lexeme != "3.14" {
		t.Fatalf("expected float literal, got %+v", toks[1])
	}
}

func TestLexerKeywordVsWord(t *testing.T) {
	toks := lexAll(0, `loop loopy`)
	if toks[0].Kind != TOKEN_LOOP {
		t.Fatalf("expected 'loop' to lex as TOKEN_LOOP")
	}
	if toks[1].Kind != TOKEN_WORD {
		t.Fatalf("expected 'loopy' to lex as TOKEN_WORD, not a keyword prefix match")
	}
}
