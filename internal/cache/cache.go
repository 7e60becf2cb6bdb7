// Package cache implements the two read-through, write-on-success cache
// faces over notesstore: ValidationCache for whole-pipeline results and
// RunCache for single-command results.
package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"golang.org/x/sync/singleflight"

	"github.com/jdutton/vibe-validate/internal/model"
	"github.com/jdutton/vibe-validate/internal/notesstore"
)

// DefaultMaxRunsPerTree bounds how many entries a single tree hash's
// HistoryNote.Runs retains before the oldest is truncated.
const DefaultMaxRunsPerTree = 10

// shellMetacharacters mirrors the normalization rule in spec §4.4: a
// command containing any of these is treated as shell-significant and
// its internal spacing is preserved verbatim.
const shellMetacharacters = `"'` + "`" + `\|><&;$`

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeCommand collapses internal whitespace runs to a single space
// when the command contains no shell metacharacters, and always trims
// leading/trailing whitespace. A command with metacharacters is returned
// trimmed but otherwise untouched, since its internal spacing and
// quoting are semantically significant.
func NormalizeCommand(command string) string {
	trimmed := strings.TrimSpace(command)
	if strings.ContainsAny(trimmed, shellMetacharacters) {
		return trimmed
	}
	return whitespaceRun.ReplaceAllString(trimmed, " ")
}

// NormalizeKey builds the run-cache key for a (command, workdir) pair:
// trim both, normalize the command, then join as "workdir:command" (or
// bare command when workdir is empty) before percent-encoding.
func NormalizeKey(command, workdir string) string {
	nc := NormalizeCommand(command)
	nw := strings.TrimSpace(workdir)
	return notesstore.EncodeRunKey(nc, nw)
}

// Engine is the combined ValidationCache/RunCache face used by the
// pipeline orchestrator and command runner. In-process lookups are
// coalesced with singleflight so concurrent callers asking about the
// same key share one `git notes show` round trip.
type Engine struct {
	store          *notesstore.Store
	maxRunsPerTree int
	group          singleflight.Group
}

// New returns an Engine backed by store.
func New(store *notesstore.Store) *Engine {
	return &Engine{store: store, maxRunsPerTree: DefaultMaxRunsPerTree}
}

// WithMaxRunsPerTree overrides the default retention cap.
func (e *Engine) WithMaxRunsPerTree(n int) *Engine {
	e.maxRunsPerTree = n
	return e
}

// LookupValidation returns the cached validation record for treeHash.
// If the latest run passed, it is always returned. If it failed, it is
// returned only when retryFailed is false; when retryFailed is true the
// caller gets (nil, failedRecord, nil) so the orchestrator can re-run
// only the failing steps.
func (e *Engine) LookupValidation(ctx context.Context, treeHash string, retryFailed bool) (hit *model.ValidationRecord, previousFailure *model.ValidationRecord, err error) {
	v, err, _ := e.group.Do("validate:"+treeHash, func() (any, error) {
		var note model.HistoryNote
		found, err := e.store.Get(ctx, notesstore.ValidateRef, treeHash, &note)
		if err != nil || !found {
			return nil, err
		}
		return &note, nil
	})
	if err != nil {
		return nil, nil, err
	}
	if v == nil {
		return nil, nil, nil
	}
	note := v.(*model.HistoryNote)
	latest, ok := note.Latest()
	if !ok {
		return nil, nil, nil
	}
	rec := latest.Record
	if rec.Passed {
		return &rec, nil, nil
	}
	if retryFailed {
		return nil, &rec, nil
	}
	return &rec, nil, nil
}

// StoreValidation reads the existing HistoryNote for record.TreeHash (if
// any), prepends record newest-first, truncates to maxRunsPerTree, and
// writes the result back.
func (e *Engine) StoreValidation(ctx context.Context, id string, record model.ValidationRecord) error {
	return e.StoreValidationEntry(ctx, model.ValidationEntry{
		ID:         id,
		Timestamp:  record.Timestamp,
		DurationMs: record.DurationMs,
		Passed:     record.Passed,
		Record:     record,
	})
}

// StoreValidationEntry is the full-fidelity counterpart to
// StoreValidation, used by HistoryRecorder to persist the branch/head
// commit/uncommitted-changes metadata alongside the record. It applies
// the same newest-first, capped-at-maxRunsPerTree fan-out policy.
func (e *Engine) StoreValidationEntry(ctx context.Context, entry model.ValidationEntry) error {
	var note model.HistoryNote
	found, err := e.store.Get(ctx, notesstore.ValidateRef, entry.Record.TreeHash, &note)
	if err != nil {
		return fmt.Errorf("cache: reading existing history for store: %w", err)
	}
	if !found {
		note = model.HistoryNote{TreeHash: entry.Record.TreeHash}
	}

	note.Runs = append([]model.ValidationEntry{entry}, note.Runs...)
	if len(note.Runs) > e.maxRunsPerTree {
		note.Runs = note.Runs[:e.maxRunsPerTree]
	}

	return e.store.Put(ctx, notesstore.ValidateRef, entry.Record.TreeHash, note)
}

// LookupRun returns the cached run record for (treeHash, command,
// workdir), or nil if no successful run is cached for that composite
// key.
func (e *Engine) LookupRun(ctx context.Context, treeHash, command, workdir string) (*model.RunRecord, error) {
	ref, err := notesstore.RunRef(treeHash)
	if err != nil {
		return nil, err
	}
	key := NormalizeKey(command, workdir)

	v, err, _ := e.group.Do("run:"+treeHash+":"+key, func() (any, error) {
		var rec model.RunRecord
		found, err := e.store.Get(ctx, ref, key, &rec)
		if err != nil || !found {
			return nil, err
		}
		return &rec, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*model.RunRecord), nil
}

// StoreRun writes record under its composite key. The caller must
// ensure record.ExitCode == 0; StoreRun refuses to cache a failure since
// a failed command's output is often environment- or timing-sensitive.
func (e *Engine) StoreRun(ctx context.Context, record model.RunRecord) error {
	if record.ExitCode != 0 {
		return fmt.Errorf("cache: refusing to store a failed run (exit %d) for %q", record.ExitCode, record.Command)
	}
	ref, err := notesstore.RunRef(record.TreeHash)
	if err != nil {
		return err
	}
	key := NormalizeKey(record.Command, record.Workdir)
	return e.store.Put(ctx, ref, key, record)
}

// PruneOlderThan deletes every validation-cache entry whose newest run
// predates cutoff, returning the number of entries removed.
func (e *Engine) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return e.store.PruneOlderThan(ctx, notesstore.ValidateRef, cutoff, func(raw string) (time.Time, bool) {
		var note model.HistoryNote
		if err := yaml.Unmarshal([]byte(raw), &note); err != nil {
			return time.Time{}, false
		}
		return note.NewestTimestamp()
	})
}

// PruneAll deletes every note vibe-validate has ever written.
func (e *Engine) PruneAll(ctx context.Context) (int, error) {
	return e.store.PruneAll(ctx)
}

// CountEntries returns the number of distinct tree-hash validation
// entries currently cached, used by HealthMonitor.
func (e *Engine) CountEntries(ctx context.Context) (int, error) {
	entries, err := e.store.List(ctx, notesstore.ValidateRef)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
