package health

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdutton/vibe-validate/internal/notesstore"
)

func initRepo(t *testing.T) *notesstore.Store {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hi"), 0o644))
	run("add", "f.txt")
	run("commit", "-m", "initial")
	return notesstore.New(dir)
}

func TestCheck_NoHistoryYet(t *testing.T) {
	store := initRepo(t)
	m := New(store)

	report, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasHistory)
	assert.False(t, report.Stale())
	assert.Contains(t, report.String(), "no validation history")
}

func TestCheck_CountsEntriesAfterStore(t *testing.T) {
	store := initRepo(t)
	require.NoError(t, store.Put(context.Background(), notesstore.ValidateRef, "deadbeef", map[string]string{"treeHash": "deadbeef"}))

	m := New(store)
	report, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasHistory)
	assert.Equal(t, 1, report.TotalNotes)
	assert.False(t, report.Stale())
}

func TestCheck_FlagsStaleWhenOverNoteBudget(t *testing.T) {
	store := initRepo(t)
	require.NoError(t, store.Put(context.Background(), notesstore.ValidateRef, "deadbeef", map[string]string{"treeHash": "deadbeef"}))

	m := New(store).WithMaxNotes(0)
	report, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OverNoteBudget)
	assert.True(t, report.Stale())
}

func TestCheck_FlagsStaleWhenPastRetention(t *testing.T) {
	store := initRepo(t)
	require.NoError(t, store.Put(context.Background(), notesstore.ValidateRef, "deadbeef", map[string]string{"treeHash": "deadbeef"}))

	m := New(store).WithRetention(-time.Hour) // force "last modified" to be before cutoff
	report, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.OldNotesCount, 0)
	assert.True(t, report.Stale())
}
