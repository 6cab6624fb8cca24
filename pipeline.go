package main

import (
	"fmt"
	"os"
	"time"
)

// Pipeline orchestrates the fixed phase order (spec §5): FileStore ->
// Preprocessor -> Emitter -> Typechecker -> CodeGenerator -> write-out.
// A cumulative error flag gates later phases: if the frontend erred,
// typecheck is skipped; if typecheck erred, codegen is skipped (spec
// §4.8).
type Pipeline struct {
	cfg *Config
	fs  *FileStore
	rep *Reporter
	u   *Universe

	timings map[string]time.Duration
}

func NewPipeline(cfg *Config) *Pipeline {
	fs := NewFileStore(cfg)
	return &Pipeline{
		cfg:     cfg,
		fs:      fs,
		rep:     NewReporter(fs),
		u:       NewUniverse(),
		timings: make(map[string]time.Duration),
	}
}

// Result is what a successful compile produces for the driver to write
// to disk / hand to `as`/`gcc`.
type Result struct {
	AssemblyText string
	LinkerFlags  []string
}

func (p *Pipeline) time(name string, fn func()) {
	start := time.Now()
	fn()
	p.timings[name] = time.Since(start)
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "[skc] %s: %s\n", name, p.timings[name])
	}
}

// Run executes every phase in order and returns the assembly artifact,
// or nil with p.rep carrying every diagnostic if compilation failed.
func (p *Pipeline) Run() *Result {
	chunk := NewChunk()

	var basicsID, entryID FileID
	p.time("ingest", func() {
		var err error
		basicsID, err = p.fs.LoadInclude("basics")
		if err != nil {
			p.rep.ReportError(&CompileError{Message: err.Error()})
			return
		}
		entryID, err = p.fs.LoadEntry(p.cfg.EntryFile)
		if err != nil {
			p.rep.ReportError(&CompileError{Message: err.Error()})
		}
	})
	if p.rep.Erred() {
		return nil
	}

	pre := NewPreprocessor(p.fs, p.cfg, p.u, chunk, p.rep)
	pre.Enqueue(basicsID)
	pre.Enqueue(entryID)
	p.time("preprocess", pre.Run)
	if p.rep.Erred() {
		return nil
	}

	emitter := NewEmitter(p.fs, p.u, chunk, p.rep, pre.Files())
	p.time("emit", emitter.Run)
	chunk.Emit(OpEnd, 0, 0, Token{File: entryID})
	if p.rep.Erred() {
		return nil
	}

	tc := NewTypechecker(p.u, chunk, p.rep)
	p.time("typecheck", tc.Run)
	if p.rep.Erred() {
		return nil
	}

	p.warnUnusedFunctions()

	var result Result
	p.time("codegen", func() {
		gen := NewCodeGenerator(p.u, chunk, p.cfg)
		asm, flags := gen.Generate()
		result = Result{AssemblyText: asm, LinkerFlags: flags}
	})
	if p.rep.Erred() {
		return nil
	}
	return &result
}

func (p *Pipeline) warnUnusedFunctions() {
	if p.cfg.Silent {
		return
	}
	for _, fn := range p.u.Funcs.entries {
		if !fn.Called {
			fmt.Fprintf(os.Stderr, "warning: unused function %s\n", fn.Name)
		}
	}
}
