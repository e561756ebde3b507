// Package tools is the single narrow gateway to external build tooling.
// Every external call site (quilt import/push/refresh, patch, debuild,
// rpmbuild) goes through one Runner so failure reporting stays uniform:
// captured streams, the tool's exit code, and a *domain.ToolError.
package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/pkgpatch/pkgpatch/domain"
)

// Command describes one external tool invocation.
type Command struct {
	// Step is the logical name used in failure reports, e.g. "quilt push".
	Step string
	Name string
	Args []string
	// Dir is the working directory for the invocation; empty means the
	// current directory.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
}

// Result holds the captured streams of a finished invocation.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes external tools. The interface exists so tests can inject
// a double instead of spawning processes.
type Runner interface {
	// Run executes the command to completion, capturing both streams.
	// A non-zero exit returns a *domain.ToolError with the captured output.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// RunStreaming executes the command with stdout/stderr forwarded live
	// to the calling process, with no post-processing. A non-zero exit
	// returns a *domain.ToolError carrying the exit code verbatim.
	RunStreaming(ctx context.Context, cmd Command) error
}

// ExecRunner is the production Runner backed by os/exec. External tools
// block the calling goroutine with no timeout: a hung tool hangs the whole
// operation, which is a documented limitation, not a retried condition.
type ExecRunner struct{}

// NewExecRunner creates the production runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	logger.Debugf("Exec: [%s %s] (dir: %s)", cmd.Name, strings.Join(cmd.Args, " "), cmd.Dir)

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		return result, toolError(cmd, result.Stdout, result.Stderr, err)
	}

	return result, nil
}

func (r *ExecRunner) RunStreaming(ctx context.Context, cmd Command) error {
	logger.Debugf("Exec: [%s %s] (dir: %s, streaming)", cmd.Name, strings.Join(cmd.Args, " "), cmd.Dir)

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = append(os.Environ(), cmd.Env...)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr

	if err := execCmd.Run(); err != nil {
		return toolError(cmd, "", "", err)
	}

	return nil
}

// toolError normalizes an exec failure into a *domain.ToolError. Exit code
// -1 means the tool never ran (e.g. binary not found).
func toolError(cmd Command, stdout, stderr string, err error) *domain.ToolError {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	step := cmd.Step
	if step == "" {
		step = cmd.Name
	}

	return &domain.ToolError{
		Tool:     cmd.Name,
		Step:     step,
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(stdout),
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}
}
