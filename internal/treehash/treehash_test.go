package treehash

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCompute_SameContentSameHash(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")

	h := New(dir)
	first, err := h.Compute(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := h.Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_ChangesOnEdit(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")

	h := New(dir)
	before, err := h.Compute(context.Background())
	require.NoError(t, err)

	writeFile(t, dir, "a.txt", "goodbye\n")
	after, err := h.Compute(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestCompute_IncludesUntrackedFiles(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")

	h := New(dir)
	before, err := h.Compute(context.Background())
	require.NoError(t, err)

	writeFile(t, dir, "b.txt", "new file, never added or committed\n")
	after, err := h.Compute(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, before, after, "untracked non-ignored files must affect the hash")
}

func TestCompute_NotARepo(t *testing.T) {
	dir := t.TempDir()
	h := New(dir)
	_, err := h.Compute(context.Background())
	assert.ErrorIs(t, err, ErrNotARepo)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "vendor/lib", joinPath("vendor", "lib"))
	assert.Equal(t, "vendor/lib", joinPath("vendor/", "lib"))
	assert.Equal(t, "lib", joinPath("", "lib"))
}

func TestCompute_IgnoreGlobsExcludeMatchingFiles(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "a.txt", "hello\n")

	h := New(dir).WithIgnoreGlobs([]string{"**/*.generated.go"})
	before, err := h.Compute(context.Background())
	require.NoError(t, err)

	writeFile(t, dir, "x.generated.go", "package x\n")
	after, err := h.Compute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, after, "ignored glob must not affect the hash")
}

func TestEmptyTreeHashConstant(t *testing.T) {
	// Git's well-known empty tree object id; a regression here would
	// silently break HasWorkingTreeChanges for brand-new repositories.
	assert.Len(t, emptyTreeHash, 40)
	assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", emptyTreeHash)
}
