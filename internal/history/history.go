// Package history wraps cache.Engine.StoreValidationEntry with the fields a
// ValidationRecord doesn't carry itself: a sortable run ID, the
// branch/commit/dirty-worktree context a run happened under, and
// output spilling for any step whose combined output exceeds the
// inline byte budget.
package history

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/jdutton/vibe-validate/internal/cache"
	"github.com/jdutton/vibe-validate/internal/gitport"
	"github.com/jdutton/vibe-validate/internal/model"
	"github.com/jdutton/vibe-validate/internal/runner"
)

// Recorder persists completed ValidationRecords through cache.Engine.
type Recorder struct {
	cache *cache.Engine
	git   *gitport.Port
	spill *runner.SpillWriter
}

// New returns a Recorder that mints IDs, tags entries with git
// metadata, and spills oversized step output under spillDir.
func New(cacheEngine *cache.Engine, git *gitport.Port, spillDir string) *Recorder {
	return &Recorder{cache: cacheEngine, git: git, spill: runner.NewSpillWriter(spillDir)}
}

// StepOutput carries a step's raw combined output alongside its
// position (phase index, step index) so Record can spill it before
// the record is written, without StepRecord itself needing to carry
// unbounded output.
type StepOutput struct {
	PhaseIndex int
	StepIndex  int
	Combined   []byte
}

// Record stamps record with a new ULID and the current git context,
// spills any step output in outputs that exceeds the inline budget,
// and persists the result through the cache engine's bounded fan-out.
func (r *Recorder) Record(ctx context.Context, record model.ValidationRecord, outputs []StepOutput) (string, error) {
	id := ulid.Make().String()

	for _, o := range outputs {
		if !runner.NeedsSpill(o.Combined) {
			continue
		}
		path, err := r.spill.Write(o.Combined)
		if err != nil {
			return "", fmt.Errorf("history: spilling step output: %w", err)
		}
		if o.PhaseIndex < 0 || o.PhaseIndex >= len(record.Phases) {
			continue
		}
		steps := record.Phases[o.PhaseIndex].Steps
		if o.StepIndex < 0 || o.StepIndex >= len(steps) {
			continue
		}
		steps[o.StepIndex].FullOutputFile = path
	}

	branch := ""
	headCommit := ""
	dirty := false
	if r.git != nil {
		branch = r.git.CurrentBranch(ctx)
		if sha, err := r.git.HeadSHA(ctx); err == nil {
			headCommit = sha
		}
		if changed, err := hasUncommittedChanges(ctx, r.git); err == nil {
			dirty = changed
		}
	}

	entry := model.ValidationEntry{
		ID:                 id,
		Timestamp:          record.Timestamp,
		DurationMs:         record.DurationMs,
		Passed:             record.Passed,
		Branch:             branch,
		HeadCommit:         headCommit,
		UncommittedChanges: dirty,
		Record:             record,
	}

	if err := r.cache.StoreValidationEntry(ctx, entry); err != nil {
		return "", fmt.Errorf("history: storing validation entry: %w", err)
	}
	return id, nil
}

// hasUncommittedChanges reports whether the worktree has any staged or
// unstaged changes, via a plain status check rather than a full tree
// hash recomputation (the orchestrator already does that for the
// stability guard; this is a cheaper yes/no for the metadata field).
func hasUncommittedChanges(ctx context.Context, git *gitport.Port) (bool, error) {
	out, err := git.Exec(ctx, gitport.FailOnError, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}
