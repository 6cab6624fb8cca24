package main

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestPipeline wires a Universe/Chunk/Reporter/FileStore together
// without going through Pipeline.Run, so the preprocessor and emitter
// passes can be driven and inspected directly.
func newTestPipeline(t *testing.T, src string) (*Universe, *Chunk, *Reporter, *FileStore, FileID) {
	t.Helper()
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.sk")
	if err := os.WriteFile(entry, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write entry file: %v", err)
	}

	cfg := &Config{ProjectDir: dir}
	fs := NewFileStore(cfg)
	id, err := fs.LoadEntry(entry)
	if err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}
	u := NewUniverse()
	chunk := NewChunk()
	rep := NewReporter(fs)
	return u, chunk, rep, fs, id
}

func TestPreprocessorEmitsFunctionBodyBeforeTopLevel(t *testing.T) {
	u, chunk, rep, fs, id := newTestPipeline(t, "fn double int -> int set dup + end\n5 double print\n")

	pre := NewPreprocessor(fs, &Config{}, u, chunk, rep)
	pre.Enqueue(id)
	pre.Run()
	if rep.Erred() {
		t.Fatalf("unexpected preprocessor errors")
	}

	fn, _, ok := u.Funcs.get("double")
	if !ok {
		t.Fatalf("expected 'double' to be registered")
	}
	if chunk.Code[fn.StartIP].Op != OpDefineFunction {
		t.Fatalf("expected OpDefineFunction at StartIP, got %v", chunk.Code[fn.StartIP].Op)
	}
	if chunk.Code[fn.EndIP].Op != OpFunctionEnd {
		t.Fatalf("expected OpFunctionEnd at EndIP, got %v", chunk.Code[fn.EndIP].Op)
	}

	emitter := NewEmitter(fs, u, chunk, rep, pre.Files())
	emitter.Run()
	if rep.Erred() {
		t.Fatalf("unexpected emitter errors")
	}

	// Everything after EndIP is top-level code; the only CALL in the
	// whole chunk must live out there, not inside the function body.
	sawCall := false
	for i := fn.EndIP + 1; i < len(chunk.Code); i++ {
		if chunk.Code[i].Op == OpCall {
			sawCall = true
		}
	}
	if !sawCall {
		t.Fatalf("expected the top-level CALL to double to follow the function body")
	}
	for i := fn.StartIP; i <= fn.EndIP; i++ {
		if chunk.Code[i].Op == OpCall {
			t.Fatalf("did not expect a CALL inside double's own body range")
		}
	}
}

func TestEmitterSkipsNestedMemoryInsideFunctionBody(t *testing.T) {
	// The function body contains its own `memory` declaration; a naive
	// flat scan for the next "end" would stop at the memory's "end"
	// instead of the function's.
	src := `
fn useBuf set
  memory buf 8 end
  buf 1 !8
end
useBuf
`
	u, chunk, rep, fs, id := newTestPipeline(t, src)
	pre := NewPreprocessor(fs, &Config{}, u, chunk, rep)
	pre.Enqueue(id)
	pre.Run()
	if rep.Erred() {
		t.Fatalf("unexpected preprocessor errors")
	}

	emitter := NewEmitter(fs, u, chunk, rep, pre.Files())
	emitter.Run()
	if rep.Erred() {
		t.Fatalf("unexpected emitter errors: %v", rep.diags)
	}

	fn, _, ok := u.Funcs.get("useBuf")
	if !ok {
		t.Fatalf("expected 'useBuf' to be registered")
	}
	sawCall := false
	for i := fn.EndIP + 1; i < len(chunk.Code); i++ {
		if chunk.Code[i].Op == OpCall {
			sawCall = true
		}
	}
	if !sawCall {
		t.Fatalf("expected the top-level call to useBuf to be emitted after its body")
	}
}

func TestEmitIfAlwaysEmitsUnconditionalJump(t *testing.T) {
	u, chunk, rep := newTestChunk()
	core := newEmitCore(u, chunk, rep)

	// No `else` branch in source; emitIf must still emit an
	// unconditional JUMP past the (empty) else region.
	c := newCursor(lexAll(0, "1 2 < do 7 ."))
	core.emitIf(tok(TOKEN_IF), c)

	sawJump := false
	for _, instr := range chunk.Code {
		if instr.Op == OpJump {
			sawJump = true
		}
	}
	if !sawJump {
		t.Fatalf("expected an unconditional JUMP even without an else branch")
	}
}

func TestMacroExpansionReentersDispatch(t *testing.T) {
	u, chunk, rep := newTestChunk()
	core := newEmitCore(u, chunk, rep)
	u.Macros.add("twice", MacroEntry{Name: "twice", Body: lexAll(0, "dup +")[:2]})

	c := newCursor(lexAll(0, "twice"))
	core.emitToken(c.advance(), c)

	if len(chunk.Code) != 2 || chunk.Code[0].Op != OpDup || chunk.Code[1].Op != OpAdd {
		t.Fatalf("expected macro body to be inlined as dup, add; got %+v", chunk.Code)
	}
}
