package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Exit codes distinguish the stage a build failed at (spec §6).
const (
	exitOK = iota
	exitInputError
	exitFrontendError
	exitTypecheckError
	exitCodegenError
	exitBackendError
)

var (
	flagRun    bool
	flagClean  bool
	flagDebug  bool
	flagOut    string
	flagSilent bool
)

func main() {
	root := &cobra.Command{
		Use:   "skc",
		Short: "compiler for the stack-oriented source language",
	}

	build := &cobra.Command{
		Use:   "build <entry.sk>",
		Short: "compile an entry file to a native executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], false)
		},
	}
	run := &cobra.Command{
		Use:   "run <entry.sk>",
		Short: "compile and immediately execute an entry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flagRun = true
			return runBuild(args[0], true)
		},
	}

	for _, c := range []*cobra.Command{build, run} {
		c.Flags().BoolVarP(&flagRun, "run", "r", false, "run the produced executable immediately")
		c.Flags().BoolVarP(&flagClean, "clean", "C", false, "stop after the object file; skip linking")
		c.Flags().BoolVarP(&flagDebug, "debug", "d", false, "verbose phase tracing and per-phase timing")
		c.Flags().StringVarP(&flagOut, "out", "o", "", "output executable path")
		c.Flags().BoolVarP(&flagSilent, "silent", "s", false, "suppress non-error stdout")
	}

	root.AddCommand(build, run)
	if err := root.Execute(); err != nil {
		os.Exit(exitInputError)
	}
}

func runBuild(entryFile string, execAfter bool) error {
	cfg, err := NewConfig(entryFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitInputError)
	}
	cfg.Run = execAfter || flagRun
	cfg.Clean = flagClean
	cfg.Silent = flagSilent
	if flagOut != "" {
		cfg.OutputPath = flagOut
	}
	if flagDebug {
		cfg.Debug = true
	}
	VerboseMode = cfg.Debug

	pipe := NewPipeline(cfg)
	result := pipe.Run()
	if pipe.rep.Erred() {
		pipe.rep.Print(func(s string) { fmt.Fprintln(os.Stderr, s) })
		// A phase's timing is recorded only once it has run, and each
		// phase runs only if every earlier one succeeded.
		code := exitInputError
		if _, ran := pipe.timings["preprocess"]; ran {
			code = exitFrontendError
		}
		if _, ran := pipe.timings["typecheck"]; ran {
			code = exitTypecheckError
		}
		os.Exit(code)
	}

	asmPath := filepath.Join(cfg.ProjectDir, "output.s")
	if err := os.WriteFile(asmPath, []byte(result.AssemblyText), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "error writing assembly:", err)
		os.Exit(exitBackendError)
	}
	if !cfg.Silent {
		fmt.Println("wrote", asmPath)
	}

	objPath := filepath.Join(cfg.ProjectDir, "output.o")
	if err := runTool("as", "-o", objPath, asmPath); err != nil {
		fmt.Fprintln(os.Stderr, "assembler failed:", err)
		os.Exit(exitBackendError)
	}

	if cfg.Clean {
		return nil
	}

	linkArgs := append([]string{"-o", cfg.OutputPath, objPath}, result.LinkerFlags...)
	if err := runTool("gcc", linkArgs...); err != nil {
		fmt.Fprintln(os.Stderr, "linker failed:", err)
		os.Exit(exitBackendError)
	}

	if cfg.Run {
		bin, _ := filepath.Abs(cfg.OutputPath)
		return runTool(bin)
	}
	return nil
}

func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
