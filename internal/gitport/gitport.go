// Package gitport is the sole owner of subprocess invocations to git.
// Every other package that needs git talks to it through this package;
// centralizing the boundary makes command injection a compile-time
// non-issue rather than a per-callsite audit.
package gitport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/jdutton/vibe-validate/internal/apperrors"
)

const (
	// DefaultTimeout is applied to every git invocation unless overridden.
	DefaultTimeout = 30 * time.Second

	// MaxStdoutBytes bounds how much of a git command's stdout is buffered.
	MaxStdoutBytes = 10 * 1 << 20 // 10 MiB

	// MinGitVersion is the oldest git release this package trusts for
	// worktree-safe temporary-index manipulation and `ls-files
	// --exclude-standard` semantics.
	MinGitVersion = "2.25.0"
)

// Port spawns git as a subprocess and exposes the high-level operations
// the rest of vibe-validate needs. It never invokes a shell: every
// argument reaches exec.Command as a distinct argv entry.
type Port struct {
	// Dir is the repository root git commands run against (via "-C").
	// Empty means the process's current working directory.
	Dir string

	// Timeout overrides DefaultTimeout when non-zero.
	Timeout time.Duration

	// runner abstracts process execution for testing.
	runner commandRunner
}

// commandRunner is the seam tests substitute to avoid spawning real git.
type commandRunner interface {
	Run(ctx context.Context, dir string, argv []string, stdin io.Reader, timeout time.Duration) (stdout, stderr []byte, exitErr error)
}

// New returns a Port rooted at dir (pass "" for the current directory).
func New(dir string) *Port {
	return &Port{Dir: dir, runner: execRunner{}}
}

// Ignore controls whether Exec treats a non-zero git exit as a Go error.
type Ignore bool

const (
	FailOnError Ignore = false
	IgnoreError Ignore = true
)

// Exec runs `git <argv...>` after validating every argument, returning
// trimmed stdout. On non-zero exit it returns *apperrors.GitExecError
// unless ignore is IgnoreError, in which case the partial stdout (which
// may be empty) is returned alongside the error so best-effort callers
// can still inspect what came back.
func (p *Port) Exec(ctx context.Context, ignore Ignore, argv ...string) (string, error) {
	for _, a := range argv {
		if err := ValidateArg(a); err != nil {
			return "", fmt.Errorf("gitport: invalid argument %q: %w", a, err)
		}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	stdout, stderr, err := p.runner.Run(ctx, p.Dir, argv, nil, timeout)
	if err != nil {
		execErr := toExecError(argv, stdout, stderr, err)
		if ignore == IgnoreError {
			return strings.TrimSpace(string(stdout)), execErr
		}
		return "", execErr
	}
	return strings.TrimSpace(string(stdout)), nil
}

// ExecWithIndex runs `git <argv...>` against an alternate index file via
// GIT_INDEX_FILE, used by treehash to build a throwaway index without
// disturbing the repository's real one. Falls back to a plain Exec
// against runners that don't support environment overrides.
func (p *Port) ExecWithIndex(ctx context.Context, indexPath string, argv ...string) (string, error) {
	for _, a := range argv {
		if err := ValidateArg(a); err != nil {
			return "", fmt.Errorf("gitport: invalid argument %q: %w", a, err)
		}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	er, ok := p.runner.(envRunner)
	if !ok {
		return p.Exec(ctx, FailOnError, argv...)
	}

	stdout, stderr, err := er.RunEnv(ctx, p.Dir, argv, nil, timeout, []string{"GIT_INDEX_FILE=" + indexPath})
	if err != nil {
		return "", toExecError(argv, stdout, stderr, err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// ExecStdin is like Exec but pipes stdin to the subprocess (used by
// `notes add -F -`).
func (p *Port) ExecStdin(ctx context.Context, stdin io.Reader, argv ...string) (string, error) {
	for _, a := range argv {
		if err := ValidateArg(a); err != nil {
			return "", fmt.Errorf("gitport: invalid argument %q: %w", a, err)
		}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	stdout, stderr, err := p.runner.Run(ctx, p.Dir, argv, stdin, timeout)
	if err != nil {
		return "", toExecError(argv, stdout, stderr, err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

func toExecError(argv []string, stdout, stderr []byte, err error) error {
	code := -1
	var exitErr *exec.ExitError
	if errAs(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &apperrors.GitExecError{
		Argv:     append([]string{"git"}, argv...),
		ExitCode: code,
		Stdout:   string(stdout),
		Stderr:   string(stderr),
	}
}

// errAs is a tiny local errors.As to avoid importing "errors" just for
// this one call site's readability; kept as a named helper for clarity
// at callsites above.
func errAs(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}

// --- High level operations -------------------------------------------------

// IsRepo reports whether Dir is inside a git working tree.
func (p *Port) IsRepo(ctx context.Context) bool {
	_, err := p.Exec(ctx, FailOnError, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// GitDir returns the absolute path to the repository's .git directory.
func (p *Port) GitDir(ctx context.Context) (string, error) {
	return p.Exec(ctx, FailOnError, "rev-parse", "--absolute-git-dir")
}

// Root returns the absolute path to the top-level working directory.
func (p *Port) Root(ctx context.Context) (string, error) {
	return p.Exec(ctx, FailOnError, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch, or "(HEAD detached)".
func (p *Port) CurrentBranch(ctx context.Context) string {
	out, err := p.Exec(ctx, FailOnError, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "(HEAD detached)"
	}
	return out
}

// HeadSHA returns the full SHA of HEAD.
func (p *Port) HeadSHA(ctx context.Context) (string, error) {
	return p.Exec(ctx, FailOnError, "rev-parse", "HEAD")
}

// HeadTreeSHA returns the tree object id HEAD points at.
func (p *Port) HeadTreeSHA(ctx context.Context) (string, error) {
	// "HEAD:" names HEAD's root tree without the braces of "HEAD^{tree}",
	// which ValidateArg rejects.
	return p.Exec(ctx, FailOnError, "rev-parse", "HEAD:")
}

// VerifyRef reports whether ref resolves to an object.
func (p *Port) VerifyRef(ctx context.Context, ref string) bool {
	_, err := p.Exec(ctx, FailOnError, "rev-parse", "--verify", "--quiet", ref)
	return err == nil
}

// LsFiles lists tracked ("--cached") and untracked-but-not-ignored
// ("--others --exclude-standard") files, NUL-separated to survive
// filenames with embedded newlines.
func (p *Port) LsFiles(ctx context.Context) ([]string, error) {
	out, err := p.execRaw(ctx, "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitNUL(out), nil
}

// execRaw is like Exec but returns raw (untrimmed) stdout, for callers
// that split on NUL or need to preserve trailing content.
func (p *Port) execRaw(ctx context.Context, argv ...string) ([]byte, error) {
	for _, a := range argv {
		if err := ValidateArg(a); err != nil {
			return nil, fmt.Errorf("gitport: invalid argument %q: %w", a, err)
		}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	stdout, stderr, err := p.runner.Run(ctx, p.Dir, argv, nil, timeout)
	if err != nil {
		return nil, toExecError(argv, stdout, stderr, err)
	}
	return stdout, nil
}

func splitNUL(b []byte) []string {
	b = bytes.TrimSuffix(b, []byte{0})
	if len(b) == 0 {
		return nil
	}
	parts := bytes.Split(b, []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

// DiffNumstat returns numstat lines between two refs (used by doctor-ish
// callers outside the core; exposed here since it is still a read-only
// git operation behind this single boundary).
func (p *Port) DiffNumstat(ctx context.Context, a, b string) (string, error) {
	return p.Exec(ctx, FailOnError, "diff", "--numstat", a, b)
}

// RevListCount returns the number of commits reachable from ref.
func (p *Port) RevListCount(ctx context.Context, ref string) (int, error) {
	out, err := p.Exec(ctx, FailOnError, "rev-list", "--count", ref)
	if err != nil {
		return 0, err
	}
	var n int
	if _, scanErr := fmt.Sscanf(out, "%d", &n); scanErr != nil {
		return 0, fmt.Errorf("gitport: unexpected rev-list --count output %q", out)
	}
	return n, nil
}

// LastModified returns the author date of the most recent commit on ref,
// or the zero time if ref has no commits / does not exist.
func (p *Port) LastModified(ctx context.Context, ref string) (time.Time, bool) {
	out, err := p.Exec(ctx, FailOnError, "log", "-1", "--format=%aI", ref)
	if err != nil || out == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// EnsureUsable verifies git is on PATH and meets MinGitVersion, returning
// *apperrors.GitUnavailable otherwise.
func (p *Port) EnsureUsable(ctx context.Context) error {
	out, err := p.Exec(ctx, FailOnError, "--version")
	if err != nil {
		return &apperrors.GitUnavailable{Reason: "git not found on PATH", Err: err}
	}
	v, ok := parseGitVersion(out)
	if !ok {
		// Unparseable version string: don't block, just proceed.
		return nil
	}
	min := semver.MustParse(MinGitVersion)
	if v.LessThan(min) {
		return &apperrors.GitUnavailable{
			Reason: fmt.Sprintf("git %s is older than the minimum supported version %s", v, min),
		}
	}
	return nil
}

func parseGitVersion(out string) (*semver.Version, bool) {
	// "git version 2.43.0" or "git version 2.43.0.windows.1"
	fields := strings.Fields(out)
	for _, f := range fields {
		if v, err := semver.NewVersion(f); err == nil {
			return v, true
		}
	}
	return nil, false
}
