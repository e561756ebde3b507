package domain

import (
	"errors"
	"fmt"
)

// Umbrella errors classify every failure for exit-code mapping. Specific
// errors wrap one of these so callers can classify with errors.Is without
// enumerating every failure site.
var (
	// ErrEnvironmentNotPrepared means a required artifact, spec file or
	// source folder is absent. The operator must fix the build environment;
	// nothing is retried. Exit code 127.
	ErrEnvironmentNotPrepared = errors.New("build environment not prepared")

	// ErrMalformedInput means an artifact filename or supplied patch could
	// not be understood. Exit code 1.
	ErrMalformedInput = errors.New("malformed input")

	// ErrModeUnresolved means no build mode could be determined at startup.
	ErrModeUnresolved = errors.New("build mode not resolved (set --mode, the config file, or BUILD_MODE)")
)

// Specific failures, each wrapping its umbrella.
var (
	ErrNoArtifactFound       = fmt.Errorf("%w: no build artifact found", ErrEnvironmentNotPrepared)
	ErrSpecFileNotFound      = fmt.Errorf("%w: spec file not found", ErrEnvironmentNotPrepared)
	ErrSourceFolderNotFound  = fmt.Errorf("%w: source folder not found", ErrEnvironmentNotPrepared)
	ErrMalformedArtifactName = fmt.Errorf("%w: artifact filename does not match the expected grammar", ErrMalformedInput)
	ErrMissingInput          = fmt.Errorf("%w: missing input", ErrMalformedInput)
	ErrExportFailed          = errors.New("patch export failed")
	ErrNoPatchDirective      = errors.New("spec file has no Patch directive to anchor on")
	ErrUnknownMode           = errors.New("unknown build mode")
)

// ToolError records a failed external tool invocation with its captured
// streams so the caller can diagnose without re-running.
type ToolError struct {
	Tool     string // binary name, e.g. "quilt"
	Step     string // logical step, e.g. "quilt push"
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed (exit %d)", e.Step, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Stdout != "" {
		msg += ": " + e.Stdout
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Process exit codes. External build-tool codes are forwarded verbatim and
// take precedence over these.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitEnvNotPrepared = 127
)

// ExitCodeFor maps an error to the process exit code mandated by the error
// taxonomy: 127 for an unprepared environment, 2 for an unresolvable mode,
// the external tool's own code for a build-tool failure, 1 otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var toolErr *ToolError
	switch {
	case errors.Is(err, ErrEnvironmentNotPrepared):
		return ExitEnvNotPrepared
	case errors.Is(err, ErrModeUnresolved):
		return ExitUsage
	case errors.As(err, &toolErr):
		if toolErr.ExitCode > 0 {
			return toolErr.ExitCode
		}
		return ExitFailure
	default:
		return ExitFailure
	}
}
