package gitport

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdutton/vibe-validate/internal/apperrors"
)

// fakeRunner lets tests script git's behavior without spawning the real
// binary.
type fakeRunner struct {
	stdout  []byte
	stderr  []byte
	exit    int
	failure bool
	argv    []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, argv []string, _ io.Reader, _ time.Duration) ([]byte, []byte, error) {
	f.argv = argv
	if f.failure {
		return f.stdout, f.stderr, &exec.ExitError{}
	}
	return f.stdout, f.stderr, nil
}

func newPort(r commandRunner) *Port {
	return &Port{runner: r}
}

func TestExec_TrimsStdout(t *testing.T) {
	r := &fakeRunner{stdout: []byte("abc123\n")}
	p := newPort(r)

	out, err := p.Exec(context.Background(), FailOnError, "rev-parse", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "abc123", out)
}

func TestExec_RejectsShellMetacharacters(t *testing.T) {
	r := &fakeRunner{}
	p := newPort(r)

	_, err := p.Exec(context.Background(), FailOnError, "rev-parse", "HEAD; rm -rf /")
	require.Error(t, err)
	assert.Nil(t, r.argv, "git must never be invoked with an unvalidated argument")
}

func TestExec_ReturnsGitExecErrorOnFailure(t *testing.T) {
	r := &fakeRunner{failure: true, stderr: []byte("fatal: not a git repository\n")}
	p := newPort(r)

	_, err := p.Exec(context.Background(), FailOnError, "rev-parse", "--git-dir")
	require.Error(t, err)

	var execErr *apperrors.GitExecError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Stderr, "not a git repository")
}

func TestExec_IgnoreErrorReturnsPartialStdout(t *testing.T) {
	r := &fakeRunner{failure: true, stdout: []byte("partial"), stderr: []byte("warn")}
	p := newPort(r)

	out, err := p.Exec(context.Background(), IgnoreError, "status")
	require.Error(t, err)
	assert.Equal(t, "partial", out)
}

func TestIsRepo(t *testing.T) {
	p := newPort(&fakeRunner{stdout: []byte("true")})
	assert.True(t, p.IsRepo(context.Background()))

	p = newPort(&fakeRunner{failure: true})
	assert.False(t, p.IsRepo(context.Background()))
}

func TestCurrentBranch_DetachedHead(t *testing.T) {
	p := newPort(&fakeRunner{failure: true})
	assert.Equal(t, "(HEAD detached)", p.CurrentBranch(context.Background()))
}

func TestRevListCount(t *testing.T) {
	p := newPort(&fakeRunner{stdout: []byte("42\n")})
	n, err := p.RevListCount(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestLastModified_ParsesRFC3339(t *testing.T) {
	p := newPort(&fakeRunner{stdout: []byte("2026-01-15T10:30:00-08:00\n")})
	ts, ok := p.LastModified(context.Background(), "HEAD")
	require.True(t, ok)
	assert.Equal(t, 2026, ts.Year())
}

func TestLastModified_NoCommits(t *testing.T) {
	p := newPort(&fakeRunner{failure: true})
	_, ok := p.LastModified(context.Background(), "refs/heads/empty")
	assert.False(t, ok)
}

func TestLsFiles_SplitsOnNUL(t *testing.T) {
	p := newPort(&fakeRunner{stdout: []byte("a.go\x00b/c.go\x00")})
	files, err := p.LsFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b/c.go"}, files)
}

func TestEnsureUsable_RejectsOldGit(t *testing.T) {
	p := newPort(&fakeRunner{stdout: []byte("git version 2.10.0\n")})
	err := p.EnsureUsable(context.Background())
	require.Error(t, err)

	var unavailable *apperrors.GitUnavailable
	require.True(t, errors.As(err, &unavailable))
}

func TestEnsureUsable_AcceptsCurrentGit(t *testing.T) {
	p := newPort(&fakeRunner{stdout: []byte("git version 2.43.0\n")})
	require.NoError(t, p.EnsureUsable(context.Background()))
}

func TestValidateRef(t *testing.T) {
	cases := []struct {
		ref string
		ok  bool
	}{
		{"HEAD", true},
		{"refs/heads/main", true},
		{"-rf", false},
		{"a..b", false},
		{"a//b", false},
		{"; rm -rf /", false},
		{"", false},
	}
	for _, c := range cases {
		err := ValidateRef(c.ref)
		if c.ok {
			assert.NoErrorf(t, err, "ref %q should be valid", c.ref)
		} else {
			assert.Errorf(t, err, "ref %q should be rejected", c.ref)
		}
	}
}

func TestValidateArg_RejectsBackslash(t *testing.T) {
	assert.Error(t, ValidateArg(`a\b`))
}

func TestValidateArg_AllowsSingleQuote(t *testing.T) {
	// Spec's forbidden set names backslash but not single-quote; git
	// refs containing one are rare but not unsafe since git is never
	// invoked through a shell.
	assert.NoError(t, ValidateArg("it's-a-branch"))
}

func TestValidateNotesRef_RejectsWhitespace(t *testing.T) {
	assert.NoError(t, ValidateNotesRef("refs/notes/vibe-validate/validate"))
	assert.Error(t, ValidateNotesRef("refs/notes/vibe validate"))
}
