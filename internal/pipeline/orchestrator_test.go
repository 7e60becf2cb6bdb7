package pipeline

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
	"github.com/jdutton/vibe-validate/internal/extract"
	"github.com/jdutton/vibe-validate/internal/notesstore"
	"github.com/jdutton/vibe-validate/internal/runner"
)

// fakeHasher returns a scripted sequence of tree hashes, one per call,
// repeating the last value once exhausted. Lets tests simulate a
// worktree that changes mid-run without touching a real git repo.
type fakeHasher struct {
	hashes []string
	calls  int
}

func (f *fakeHasher) Compute(ctx context.Context) (string, error) {
	i := f.calls
	if i >= len(f.hashes) {
		i = len(f.hashes) - 1
	}
	f.calls++
	return f.hashes[i], nil
}

func initCacheRepo(t *testing.T) *cache.Engine {
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

	return cache.New(notesstore.New(dir))
}

func newTestOrchestrator(t *testing.T, h Hasher) *Orchestrator {
	t.Helper()
	return NewWithDeps(h, initCacheRepo(t), runner.New(), extract.DefaultRegistry())
}

func shellStep(name, command string) StepConfig {
	return StepConfig{Name: name, Command: command, Timeout: 5 * time.Second}
}

func TestRun_CachesPassingResultAndShortCircuitsSecondRun(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeA"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "build", FailFast: true, Steps: []StepConfig{shellStep("echo", "echo ok")}},
	}}

	rec1, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	assert.True(t, rec1.Passed)

	rec2, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	assert.True(t, rec2.Passed)
	assert.Equal(t, rec1.Summary, rec2.Summary)
}

func TestRun_ForceSkipsCacheShortCircuit(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeA"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "build", FailFast: true, Steps: []StepConfig{shellStep("echo", "echo ok")}},
	}}

	_, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)

	rec, err := o.Run(context.Background(), cfg, RunOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, rec.Passed)
}

func TestRun_FailFastSkipsLaterSequentialPhases(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeB"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "lint", FailFast: true, Steps: []StepConfig{shellStep("fail", "exit 1")}},
		{Name: "test", FailFast: true, Steps: []StepConfig{shellStep("never", "echo should-not-run")}},
	}}

	rec, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	assert.False(t, rec.Passed)
	assert.Equal(t, "fail", rec.FailedStep)
	require.Len(t, rec.Phases, 2)
	assert.True(t, rec.Phases[0].Steps[0].Passed == false)
	assert.False(t, rec.Phases[1].Passed)
}

func TestRun_SequentialFailFastSkipsLaterStepsInPhase(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeC"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "checks", FailFast: true, Steps: []StepConfig{
			shellStep("a", "exit 1"),
			shellStep("b", "echo should-not-run"),
		}},
	}}

	rec, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	require.Len(t, rec.Phases[0].Steps, 2)
	assert.False(t, rec.Phases[0].Steps[0].Passed)
	assert.False(t, rec.Phases[0].Steps[1].Passed)
	assert.Equal(t, 0, rec.Phases[0].Steps[1].ExitCode)
}

func TestRun_ParallelPhaseReportsStepsInConfigOrder(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeD"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "parallel", Parallel: true, Steps: []StepConfig{
			shellStep("slow", `sh -c "sleep 0.05 && echo slow"`),
			shellStep("fast", "echo fast"),
		}},
	}}

	rec, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	require.Len(t, rec.Phases[0].Steps, 2)
	assert.Equal(t, "slow", rec.Phases[0].Steps[0].Name)
	assert.Equal(t, "fast", rec.Phases[0].Steps[1].Name)
	assert.True(t, rec.Passed)
}

func TestRun_RetryFailedResumesFromFailedStep(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeE"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "checks", FailFast: true, Steps: []StepConfig{
			shellStep("first", "echo ok"),
			shellStep("second", "exit 1"),
		}},
	}}

	_, err := o.Run(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)

	rec, err := o.Run(context.Background(), cfg, RunOptions{RetryFailed: true})
	require.NoError(t, err)
	assert.False(t, rec.Passed)
	assert.Equal(t, "second", rec.FailedStep)
	assert.True(t, rec.Phases[0].Steps[0].Passed, "earlier passed step should be treated as cached-pass, not rerun")
}

func TestRun_UnstableWorktreeReportsButDoesNotCache(t *testing.T) {
	h := &fakeHasher{hashes: []string{"treeF1", "treeF2"}}
	o := newTestOrchestrator(t, h)
	cfg := Config{Phases: []PhaseConfig{
		{Name: "build", FailFast: true, Steps: []StepConfig{shellStep("echo", "echo ok")}},
	}}

	rec, err := o.Run(context.Background(), cfg, RunOptions{})
	require.Error(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Passed)
}
