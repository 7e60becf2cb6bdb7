// Package apperrors defines the error-kind taxonomy used across
// vibe-validate. Each kind is its own struct rather than an error-code
// enum, so callers can branch with errors.As and attach kind-specific
// context (file path, exit code, step name) without a side-channel.
package apperrors

import "fmt"

// ExitCode is the process exit code an error kind maps to at the CLI
// boundary (spec §6).
type ExitCode int

const (
	ExitPassed       ExitCode = 0
	ExitFailed       ExitCode = 1
	ExitPrecondition ExitCode = 2
	ExitCancelled    ExitCode = 130
)

// ConfigError reports an invalid or schema-violating configuration file.
type ConfigError struct {
	Path    string // config file path
	Field   string // JSON-pointer-ish field path, e.g. "/phases/0/steps/1/command"
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s at %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Path, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ExitCode implements the Kinded interface.
func (e *ConfigError) ExitCode() ExitCode { return ExitPrecondition }

// GitUnavailable reports that git is missing, too old, or the working
// directory is not inside a git repository.
type GitUnavailable struct {
	Reason string
	Err    error
}

func (e *GitUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("git unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("git unavailable: %s", e.Reason)
}

func (e *GitUnavailable) Unwrap() error  { return e.Err }
func (e *GitUnavailable) ExitCode() ExitCode { return ExitPrecondition }

// GitExecError reports a non-zero exit from a git invocation.
type GitExecError struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *GitExecError) Error() string {
	return fmt.Sprintf("git %v: exit %d: %s", e.Argv, e.ExitCode, firstLine(e.Stderr))
}

// Kinded is implemented by error kinds that map to a specific CLI exit
// code. Kinds without a Kinded implementation (GitExecError, Unstable,
// ExtractionIssue) carry no exit code of their own; main.go exits with
// ExitFailed when one of them reaches it.
type Kinded interface {
	error
	ExitCode() ExitCode
}

// StepFailure reports a user command that exited non-zero.
type StepFailure struct {
	StepName string
	Command  string
	Code     int
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %q (%s) failed: exit %d", e.StepName, e.Command, e.Code)
}

func (e *StepFailure) ExitCode() ExitCode { return ExitFailed }

// StepTimeout reports a step that exceeded its budget. It is a distinct
// kind from StepFailure (spec §7) even though it is treated as a failure
// for fail-fast purposes. It carries no subprocess exit status; its
// ExitCode method maps it to ExitFailed, the same code as StepFailure.
type StepTimeout struct {
	StepName string
	Command  string
	Budget   string // human-readable timeout, e.g. "30s"
}

func (e *StepTimeout) Error() string {
	return fmt.Sprintf("step %q (%s) timed out after %s", e.StepName, e.Command, e.Budget)
}

func (e *StepTimeout) ExitCode() ExitCode { return ExitFailed }

// Unstable reports that the tree hash changed during a pipeline run; the
// result is reported to the user but never cached.
type Unstable struct {
	Before string
	After  string
}

func (e *Unstable) Error() string {
	return fmt.Sprintf("worktree unstable: tree hash changed %s -> %s during run", e.Before, e.After)
}

// Cancelled reports a user- or signal-initiated cancellation.
type Cancelled struct {
	Reason string
}

func (e *Cancelled) Error() string { return fmt.Sprintf("cancelled: %s", e.Reason) }

func (e *Cancelled) ExitCode() ExitCode { return ExitCancelled }

// ExtractionIssue reports a non-fatal problem encountered while parsing
// subprocess output; it is recorded in ExtractionResult.Metadata.Issues
// and never aborts a pipeline.
type ExtractionIssue struct {
	Extractor string
	Message   string
}

func (e *ExtractionIssue) Error() string {
	return fmt.Sprintf("extraction issue (%s): %s", e.Extractor, e.Message)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
