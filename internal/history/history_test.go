package history

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdutton/vibe-validate/internal/cache"
	"github.com/jdutton/vibe-validate/internal/gitport"
	"github.com/jdutton/vibe-validate/internal/model"
	"github.com/jdutton/vibe-validate/internal/notesstore"
)

func initRepo(t *testing.T) string {
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
	return dir
}

func TestRecord_StampsIDAndGitMetadata(t *testing.T) {
	dir := initRepo(t)
	store := notesstore.New(dir)
	r := New(cache.New(store), gitport.New(dir), filepath.Join(dir, ".vibe-validate-spill"))

	record := model.ValidationRecord{
		TreeHash:  "abc123",
		Passed:    true,
		Timestamp: time.Now().UTC(),
		Summary:   "all 1 phase(s) passed",
		Phases: []model.PhaseRecord{
			{Name: "build", Passed: true, Steps: []model.StepRecord{
				{Name: "echo", Command: "echo ok", ExitCode: 0, Passed: true},
			}},
		},
	}

	id, err := r.Record(context.Background(), record, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var note model.HistoryNote
	found, err := store.Get(context.Background(), notesstore.ValidateRef, "abc123", &note)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, note.Runs, 1)
	assert.Equal(t, id, note.Runs[0].ID)
	assert.NotEmpty(t, note.Runs[0].Branch)
	assert.NotEmpty(t, note.Runs[0].HeadCommit)
	assert.False(t, note.Runs[0].UncommittedChanges)
}

func TestRecord_SpillsOversizedStepOutput(t *testing.T) {
	dir := initRepo(t)
	store := notesstore.New(dir)
	spillDir := filepath.Join(dir, ".vibe-validate-spill")
	r := New(cache.New(store), gitport.New(dir), spillDir)

	record := model.ValidationRecord{
		TreeHash:  "def456",
		Passed:    false,
		Timestamp: time.Now().UTC(),
		Phases: []model.PhaseRecord{
			{Name: "test", Steps: []model.StepRecord{
				{Name: "big", Command: "run-big-thing"},
			}},
		},
	}

	big := make([]byte, 200*1024)
	for i := range big {
		big[i] = 'x'
	}

	_, err := r.Record(context.Background(), record, []StepOutput{
		{PhaseIndex: 0, StepIndex: 0, Combined: big},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.Phases[0].Steps[0].FullOutputFile)
}
