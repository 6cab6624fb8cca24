package main

import (
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
)

// Config is the fully resolved configuration for a single invocation,
// merged from CLI flags and environment overrides in that priority
// order (flags win). Grounded on the teacher's ArchParser/env-var
// override pattern.
type Config struct {
	EntryFile   string // path passed on the command line
	ProjectDir  string // directory containing EntryFile
	CompilerDir string // directory holding the compiler binary, for on-disk libs override
	LibsPath    string // SKC_LIBS override root searched before CompilerDir/libs
	OutputPath  string // -o/--out
	Run         bool   // -r/--run
	Clean       bool   // -C/--clean, skip writing the binary, object files only
	Debug       bool   // -d/--debug, verbose phase tracing + per-phase timing
	Silent      bool   // -s/--silent, suppress non-error stdout

	CLibraries []string // accumulated from every #clib directive seen
}

// NewConfig resolves a Config for entryFile, applying environment
// overrides from SKC_HOME, SKC_LIBS and SKC_DEBUG. SKC_HOME overrides
// CompilerDir (useful for running against an in-tree libs/ during
// development without reinstalling); SKC_LIBS overrides the stdlib
// search path itself (FileStore.LoadInclude consults it ahead of
// <CompilerDir>/libs and the embedded fallback); SKC_DEBUG forces
// verbose tracing even when -d was not passed.
func NewConfig(entryFile string) (*Config, error) {
	abs, err := filepath.Abs(entryFile)
	if err != nil {
		return nil, err
	}

	compilerDir := env.Str("SKC_HOME", "")
	if compilerDir == "" {
		exe, err := os.Executable()
		if err == nil {
			compilerDir = filepath.Dir(exe)
		}
	}

	cfg := &Config{
		EntryFile:   abs,
		ProjectDir:  filepath.Dir(abs),
		CompilerDir: compilerDir,
		LibsPath:    env.Str("SKC_LIBS", ""),
		OutputPath:  defaultOutputPath(abs),
		Debug:       env.Bool("SKC_DEBUG", false),
	}

	return cfg, nil
}

func defaultOutputPath(entryAbs string) string {
	base := filepath.Base(entryAbs)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// VerboseMode gates the stderr tracing the driver emits between phases,
// following the teacher's VerboseMode global rather than threading a
// logger through every call site.
var VerboseMode bool
