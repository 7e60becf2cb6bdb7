// Package health reports coarse, O(1)-in-the-number-of-notes signals
// about the validation cache's size and staleness, used by the `health`
// CLI command and any dashboard built on top of it.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jdutton/vibe-validate/internal/notesstore"
)

// DefaultRetention is the age past which the whole cache is flagged as
// stale, matching the cache engine's default prune cutoff.
const DefaultRetention = 30 * 24 * time.Hour

// DefaultMaxNotes is the note-count budget used alongside DefaultRetention
// to decide whether a prune is recommended.
const DefaultMaxNotes = 1000

// Report summarizes the validation cache's health.
type Report struct {
	TotalNotes      int
	OldNotesCount   int
	LastModified    time.Time
	HasHistory      bool
	OverNoteBudget  bool
	RetentionCutoff time.Time
}

// Stale reports whether either the age or count thresholds are
// exceeded, a signal worth surfacing to the user as "you should prune."
func (r Report) Stale() bool {
	return r.OldNotesCount > 0 || r.OverNoteBudget
}

// String renders a short human-readable summary, e.g. for CLI output.
func (r Report) String() string {
	if !r.HasHistory {
		return "no validation history recorded yet"
	}
	age := humanize.Time(r.LastModified)
	if !r.Stale() {
		return fmt.Sprintf("%d cached result(s), last updated %s", r.TotalNotes, age)
	}
	return fmt.Sprintf("%d cached result(s), last updated %s (stale: consider running cache prune)", r.TotalNotes, age)
}

// Monitor computes Reports against a Store, touching at most three git
// spawns regardless of how many notes exist.
type Monitor struct {
	store     *notesstore.Store
	retention time.Duration
	maxNotes  int
}

// New returns a Monitor with the default retention and note-count budget.
func New(store *notesstore.Store) *Monitor {
	return &Monitor{store: store, retention: DefaultRetention, maxNotes: DefaultMaxNotes}
}

// WithRetention overrides the staleness threshold.
func (m *Monitor) WithRetention(d time.Duration) *Monitor {
	m.retention = d
	return m
}

// WithMaxNotes overrides the note-count budget.
func (m *Monitor) WithMaxNotes(n int) *Monitor {
	m.maxNotes = n
	return m
}

// Check produces a Report. The ref-existence check costs one
// `git rev-parse` spawn; totalNotes costs one `git notes list` spawn;
// the last-modified check costs one `git log` spawn against the
// validation ref. Neither scales with the number of stored entries.
func (m *Monitor) Check(ctx context.Context) (Report, error) {
	if !m.store.HasRef(ctx, notesstore.ValidateRef) {
		return Report{}, nil
	}

	entries, err := m.store.List(ctx, notesstore.ValidateRef)
	if err != nil {
		return Report{}, fmt.Errorf("health: listing validation notes: %w", err)
	}
	total := len(entries)

	cutoff := time.Now().Add(-m.retention)
	lastMod, found := m.store.RefLastModifiedAt(ctx, notesstore.ValidateRef)

	oldCount := 0
	if found && lastMod.Before(cutoff) {
		oldCount = total
	}

	return Report{
		TotalNotes:      total,
		OldNotesCount:   oldCount,
		LastModified:    lastMod,
		HasHistory:      found,
		OverNoteBudget:  total > m.maxNotes,
		RetentionCutoff: cutoff,
	}, nil
}
