package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdutton/vibe-validate/internal/config"
)

// initRepo creates a throwaway git repository and returns its root,
// skipping the test if git isn't on PATH.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		c := exec.Command("git", args...)
		c.Dir = dir
		c.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		out, err := c.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hi"), 0o644))
	run("add", "f.txt")
	run("commit", "-m", "initial")
	return dir
}

// withResolved points the package-level resolved config at repoRoot for
// the duration of a test, restoring whatever was there before.
func withResolved(t *testing.T, repoRoot string) {
	t.Helper()
	prev := resolved
	resolved = &config.Resolved{
		RepoRoot:  repoRoot,
		Retention: config.DefaultRetention,
	}
	t.Cleanup(func() { resolved = prev })
}
