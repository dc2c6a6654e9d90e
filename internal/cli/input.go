package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	ExitSuccess           = 0
	ExitPipelineFailure   = 1
	ExitInvalidInvocation = 2
	ExitInputError        = 3
	ExitInternalError     = 4
)

// Invocation is the fully canonicalized, deterministic description of a
// pipeline run.
//
// All paths are normalized (Clean) and all relative paths are resolved
// relative to WorkDir.
//
// NOTE: WorkDir is required and must be absolute; this prevents any
// dependency on the process current working directory.
type Invocation struct {
	WorkDir    string
	InputPath  string
	OutputPath string
	StoreDir   string
	TracePath  string
	Slug       string
	Quiet      bool

	OriginalInput  string
	OriginalOutput string
	OriginalStore  string
	OriginalTrace  string
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into a canonical Invocation.
//
// Determinism goals:
//   - Does not read env vars.
//   - Does not read/assume the process CWD.
//   - Requires WorkDir to be explicit and absolute.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("pageforge", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var workDir string
	var inputPath string
	var outputPath string
	var storeDir string
	var tracePath string
	var slug string
	var quiet bool

	fs.StringVar(&workDir, "workdir", "", "Absolute working directory. Required.")
	fs.StringVar(&inputPath, "in", "", "Input definition path (.json, .yaml, .yml). Required.")
	fs.StringVar(&outputPath, "out", "", "Output path for the migrated definition (optional; stdout when empty).")
	fs.StringVar(&storeDir, "store-dir", "", "Definition store base directory (optional).")
	fs.StringVar(&tracePath, "trace", "", "Trace output path (optional).")
	fs.StringVar(&slug, "slug", "", "Definition slug (optional; derived from the input basename).")
	fs.BoolVar(&quiet, "quiet", false, "Log errors only.")

	// We intentionally do not accept environment-derived defaults.
	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	workDir = filepath.Clean(workDir)
	if workDir == "" || workDir == "." {
		return Invocation{}, invalidInvocationf("--workdir is required")
	}
	if !filepath.IsAbs(workDir) {
		return Invocation{}, invalidInvocationf("--workdir must be an absolute path (got %q)", workDir)
	}

	if inputPath == "" {
		return Invocation{}, invalidInvocationf("--in is required")
	}

	resolvedInput, err := resolveUnderWorkDir(workDir, inputPath)
	if err != nil {
		return Invocation{}, err
	}

	inv := Invocation{
		WorkDir:        workDir,
		InputPath:      resolvedInput,
		Slug:           strings.TrimSpace(slug),
		Quiet:          quiet,
		OriginalInput:  inputPath,
		OriginalOutput: outputPath,
		OriginalStore:  storeDir,
		OriginalTrace:  tracePath,
	}

	if inv.Slug == "" {
		base := filepath.Base(resolvedInput)
		inv.Slug = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if strings.TrimSpace(inv.Slug) == "" {
		return Invocation{}, invalidInvocationf("cannot derive a slug from %q; pass --slug", inputPath)
	}

	if strings.TrimSpace(outputPath) != "" {
		resolved, err := resolveUnderWorkDir(workDir, outputPath)
		if err != nil {
			return Invocation{}, err
		}
		inv.OutputPath = resolved
	}
	if strings.TrimSpace(storeDir) != "" {
		resolved, err := resolveUnderWorkDir(workDir, storeDir)
		if err != nil {
			return Invocation{}, err
		}
		inv.StoreDir = resolved
	}
	if strings.TrimSpace(tracePath) != "" {
		resolved, err := resolveUnderWorkDir(workDir, tracePath)
		if err != nil {
			return Invocation{}, err
		}
		inv.TracePath = resolved
	}

	return inv, nil
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if clean == "." {
		return "", invalidInvocationf("path must not be '.'")
	}

	// If absolute, accept as-is; it is still deterministic.
	// If relative, resolve under WorkDir.
	if filepath.IsAbs(clean) {
		return clean, nil
	}

	// WorkDir is required to be absolute, so Join does not consult the
	// process CWD.
	return filepath.Clean(filepath.Join(workDir, clean)), nil
}

// ExitCode extracts a semantic exit code from a ParseInvocation error.
// If the error is not a known invocation error, it returns
// ExitInternalError.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitInternalError
}
