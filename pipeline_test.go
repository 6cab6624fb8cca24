package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// compile writes src to a temp entry file and runs the full pipeline,
// mirroring flapc's compiler_test.go style of driving the public API
// directly rather than mocking internals.
func compile(t *testing.T, src string) (*Pipeline, *Result) {
	t.Helper()
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.sk")
	if err := os.WriteFile(entry, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write entry file: %v", err)
	}

	cfg, err := NewConfig(entry)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	pipe := NewPipeline(cfg)
	result := pipe.Run()
	return pipe, result
}

func TestLiteralPrint(t *testing.T) {
	pipe, result := compile(t, "2 2 + print")
	if pipe.rep.Erred() {
		t.Fatalf("unexpected errors")
	}
	if !strings.Contains(result.AssemblyText, "call dump") {
		t.Fatalf("expected a dump call in generated assembly")
	}
}

func TestIntegerComparison(t *testing.T) {
	// spec scenario 2: "equal\n" print 2 2 == print -> "equal\ntrue\n",
	// with bool_println mapping 1 -> "true". The string print and the
	// boolean print must each reach a different runtime routine than
	// the plain integer dump TestLiteralPrint exercises.
	pipe, result := compile(t, `"equal\n" print 2 2 == print`)
	if pipe.rep.Erred() {
		t.Fatalf("unexpected errors")
	}
	if !strings.Contains(result.AssemblyText, "call bool_println") {
		t.Fatalf("expected the boolean print to call bool_println, got:\n%s", result.AssemblyText)
	}
	if strings.Contains(result.AssemblyText, "call dump") {
		t.Fatalf("did not expect either print in this program to fall back to the integer dump, got:\n%s", result.AssemblyText)
	}
}

func TestIfElse(t *testing.T) {
	src := `if 5 3 > do "yes" print else "no" print .`
	pipe, _ := compile(t, src)
	if pipe.rep.Erred() {
		t.Fatalf("unexpected errors")
	}
}

func TestLoop(t *testing.T) {
	src := `
memory i 8 end
i 0 !8
loop i @8 10 < do
  i @8 print
  i i @8 1 + !8
.
`
	pipe, _ := compile(t, src)
	if pipe.rep.Erred() {
		t.Fatalf("unexpected errors")
	}
}

func TestMacroExpansion(t *testing.T) {
	src := `
macro inc2 set 1 + 1 + end
3 inc2 print
`
	pipe, result := compile(t, src)
	if pipe.rep.Erred() {
		t.Fatalf("unexpected errors")
	}
	if strings.Count(result.AssemblyText, "add rax, rbx") != 2 {
		t.Fatalf("expected macro body to be inlined twice, got assembly:\n%s", result.AssemblyText)
	}
}

func TestDuplicateName(t *testing.T) {
	src := `
macro a set 1 end
macro a set 2 end
`
	pipe, result := compile(t, src)
	if !pipe.rep.Erred() {
		t.Fatalf("expected a duplicate-name error")
	}
	if result != nil {
		t.Fatalf("expected no assembly output on failure")
	}
}

func TestEmptySourceEmitsOnlyEnd(t *testing.T) {
	_, result := compile(t, "")
	if result == nil {
		t.Fatalf("expected empty source to compile successfully")
	}
	if !strings.Contains(result.AssemblyText, "syscall") {
		t.Fatalf("expected the exit syscall in an otherwise empty program")
	}
}

func TestMemoryOnlyProgram(t *testing.T) {
	_, result := compile(t, "memory buf 64 end")
	if result == nil {
		t.Fatalf("expected memory-only source to compile")
	}
	if !strings.Contains(result.AssemblyText, ".comm buf, 64") {
		t.Fatalf("expected a .comm directive for buf, got:\n%s", result.AssemblyText)
	}
}

func TestUnusedFunctionOmittedFromOutput(t *testing.T) {
	src := `
fn unused set 1 drop end
2 2 + print
`
	pipe, result := compile(t, src)
	if pipe.rep.Erred() {
		t.Fatalf("unexpected errors")
	}
	if strings.Contains(result.AssemblyText, "unused_start:") {
		t.Fatalf("expected unused function body to be omitted")
	}
}

func TestDigitSeparatorTransparency(t *testing.T) {
	_, plain := compile(t, "1000000 print")
	_, separated := compile(t, "1_000_000 print")
	if plain.AssemblyText != separated.AssemblyText {
		t.Fatalf("digit separators should not affect generated assembly")
	}
}
