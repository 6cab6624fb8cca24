package main

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

//go:embed libs/*.sk
var embeddedLibs embed.FS

// FileID identifies a loaded, preprocessed source file. Reading the same
// canonical path twice returns the same FileID and does not re-read disk.
type FileID int

// SourceFile is one preprocessed source buffer plus its canonical path.
type SourceFile struct {
	ID     FileID
	Path   string // canonical, for diagnostics
	Source string // stripped of comments and digit separators
}

// FileStore owns every source buffer for the lifetime of a compile.
// Tokens and lexeme slices borrow into these buffers, so the FileStore
// must outlive every consumer (spec §5).
type FileStore struct {
	cfg   *Config
	files []*SourceFile
	index map[string]FileID // canonical path -> id
}

func NewFileStore(cfg *Config) *FileStore {
	return &FileStore{cfg: cfg, index: make(map[string]FileID)}
}

func (fs *FileStore) Get(id FileID) *SourceFile {
	return fs.files[id]
}

func (fs *FileStore) Name(id FileID) string {
	if int(id) < 0 || int(id) >= len(fs.files) {
		return "<unknown>"
	}
	return fs.files[id].Path
}

// LoadEntry loads the root entry file, which is always resolved relative
// to the current working directory / as given on the command line.
func (fs *FileStore) LoadEntry(path string) (FileID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	return fs.load(abs, func() ([]byte, error) { return os.ReadFile(abs) })
}

// LoadInclude resolves and loads the target of a #include directive.
// If the name ends in .sk it is resolved relative to the project root;
// otherwise it names a standard library file under <compiler_dir>/libs.
func (fs *FileStore) LoadInclude(name string) (FileID, error) {
	if strings.HasSuffix(name, ".sk") {
		abs := filepath.Join(fs.cfg.ProjectDir, name)
		abs, err := filepath.Abs(abs)
		if err != nil {
			return 0, err
		}
		return fs.load(abs, func() ([]byte, error) { return os.ReadFile(abs) })
	}

	canonical := "lib:" + name
	return fs.load(canonical, func() ([]byte, error) {
		if fs.cfg.LibsPath != "" {
			if b, err := os.ReadFile(filepath.Join(fs.cfg.LibsPath, name+".sk")); err == nil {
				return b, nil
			}
		}
		diskPath := filepath.Join(fs.cfg.CompilerDir, "libs", name+".sk")
		if b, err := os.ReadFile(diskPath); err == nil {
			return b, nil
		}
		return embeddedLibs.ReadFile("libs/" + name + ".sk")
	})
}

func (fs *FileStore) load(canonical string, read func() ([]byte, error)) (FileID, error) {
	if id, ok := fs.index[canonical]; ok {
		return id, nil
	}

	raw, err := read()
	if err != nil {
		return 0, &CompileError{Message: "failed to find library: " + canonical}
	}

	id := FileID(len(fs.files))
	fs.files = append(fs.files, &SourceFile{
		ID:     id,
		Path:   canonical,
		Source: preprocessSource(string(raw)),
	})
	fs.index[canonical] = id
	return id, nil
}

// preprocessSource strips ';'-to-end-of-line comments (the newline is
// preserved so token line numbers stay aligned) and removes '_' digit
// separators from inside runs of digits. Every other byte is copied
// unchanged and nothing is ever reordered or joined across these two
// passes, so offsets still line up with the original file for humans
// reading a compiler error against their editor.
func preprocessSource(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	inComment := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inComment {
			if c == '\n' {
				inComment = false
				b.WriteByte(c)
			}
			continue
		}
		if c == ';' {
			inComment = true
			continue
		}
		b.WriteByte(c)
	}

	return stripDigitSeparators(b.String())
}

func stripDigitSeparators(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	inDigitRun := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case isDigit(c):
			inDigitRun = true
			b.WriteByte(c)
		case c == '_' && inDigitRun && i+1 < len(src) && isDigit(src[i+1]):
			// drop separator, stay inside the run
		default:
			inDigitRun = false
			b.WriteByte(c)
		}
	}
	return b.String()
}

// knownLibraries lists the names of the embedded standard library files
// (the .sk stems under libs/).
func knownLibraries() []string {
	entries, err := embeddedLibs.ReadDir("libs")
	if err != nil {
		return nil
	}
	return lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		name := strings.TrimSuffix(e.Name(), ".sk")
		return name, strings.HasSuffix(e.Name(), ".sk")
	})
}
