// Package model holds the data shapes persisted to and read from the
// notes store: validation records, run records, extraction results, and
// the history note that wraps a tree hash's run list. These are the
// types (de)serialized as YAML by notesstore.
package model

import "time"

// MaxErrorsInArray bounds how many structured errors an ExtractionResult
// carries inline; totalErrors may exceed this.
const MaxErrorsInArray = 10

// ValidationRecord is the cache value for a whole-pipeline run.
type ValidationRecord struct {
	ID          string        `yaml:"id"`
	TreeHash    string        `yaml:"treeHash"`
	Passed      bool          `yaml:"passed"`
	Timestamp   time.Time     `yaml:"timestamp"`
	DurationMs  int64         `yaml:"durationMs"`
	Summary     string        `yaml:"summary"`
	FailedStep  string        `yaml:"failedStep,omitempty"`
	Phases      []PhaseRecord `yaml:"phases"`
}

// PhaseRecord is one phase's outcome within a ValidationRecord.
type PhaseRecord struct {
	Name         string       `yaml:"name"`
	Passed       bool         `yaml:"passed"`
	DurationSecs float64      `yaml:"durationSecs"`
	Steps        []StepRecord `yaml:"steps"`
}

// StepRecord is one step's outcome within a PhaseRecord.
type StepRecord struct {
	Name           string            `yaml:"name"`
	Command        string            `yaml:"command"`
	ExitCode       int               `yaml:"exitCode"`
	DurationSecs   float64           `yaml:"durationSecs"`
	Passed         bool              `yaml:"passed"`
	Extraction     *ExtractionResult `yaml:"extraction,omitempty"`
	FullOutputFile string            `yaml:"fullOutputFile,omitempty"`
}

// RunRecord is the cache value for a single successful command.
type RunRecord struct {
	TreeHash       string            `yaml:"treeHash"`
	Command        string            `yaml:"command"`
	Workdir        string            `yaml:"workdir,omitempty"`
	Timestamp      time.Time         `yaml:"timestamp"`
	ExitCode       int               `yaml:"exitCode"`
	DurationMs     int64             `yaml:"durationMs"`
	Extraction     *ExtractionResult `yaml:"extraction,omitempty"`
	FullOutputFile string            `yaml:"fullOutputFile,omitempty"`
}

// HistoryNote is the value stored at refs/notes/vibe-validate/validate
// for a given tree hash: an append-mostly, capped list of runs.
type HistoryNote struct {
	TreeHash string            `yaml:"treeHash"`
	Runs     []ValidationEntry `yaml:"runs"`
}

// ValidationEntry is one entry in HistoryNote.Runs, identified by a
// sortable ULID minted at persist time.
type ValidationEntry struct {
	ID                 string           `yaml:"id"`
	Timestamp          time.Time        `yaml:"timestamp"`
	DurationMs         int64            `yaml:"durationMs"`
	Passed             bool             `yaml:"passed"`
	Branch             string           `yaml:"branch,omitempty"`
	HeadCommit         string           `yaml:"headCommit,omitempty"`
	UncommittedChanges bool             `yaml:"uncommittedChanges"`
	Record             ValidationRecord `yaml:"record"`
}

// Latest returns the newest entry (index 0, since runs are stored
// newest-first) or false if the note is empty.
func (h HistoryNote) Latest() (ValidationEntry, bool) {
	if len(h.Runs) == 0 {
		return ValidationEntry{}, false
	}
	return h.Runs[0], true
}

// NewestTimestamp returns the timestamp of the newest run, used by
// prune policies to decide whether an entire tree-hash entry is stale.
func (h HistoryNote) NewestTimestamp() (time.Time, bool) {
	entry, ok := h.Latest()
	if !ok {
		return time.Time{}, false
	}
	return entry.Record.Timestamp, true
}

// ExtractedError is one structured error surfaced by an extractor.
type ExtractedError struct {
	File     string `yaml:"file,omitempty"`
	Line     int    `yaml:"line,omitempty"`
	Column   int    `yaml:"column,omitempty"`
	Message  string `yaml:"message"`
	Code     string `yaml:"code,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	Context  string `yaml:"context,omitempty"`
	Guidance string `yaml:"guidance,omitempty"`
}

// Detection records which extractor handled a given output and why.
type Detection struct {
	Extractor  string   `yaml:"extractor"`
	Confidence int      `yaml:"confidence"`
	Patterns   []string `yaml:"patterns,omitempty"`
	Reason     string   `yaml:"reason,omitempty"`
}

// ExtractionMetadata carries confidence/completeness scoring and any
// issues encountered while extracting structured errors from output.
type ExtractionMetadata struct {
	Confidence  int        `yaml:"confidence"`
	Completeness int       `yaml:"completeness"`
	Issues      []string   `yaml:"issues,omitempty"`
	Suggestions []string   `yaml:"suggestions,omitempty"`
	Detection   *Detection `yaml:"detection,omitempty"`
}

// ExtractionResult is the structured, token-bounded summary of a
// subprocess's raw output.
type ExtractionResult struct {
	Summary      string              `yaml:"summary"`
	TotalErrors  int                 `yaml:"totalErrors"`
	Errors       []ExtractedError    `yaml:"errors,omitempty"`
	Guidance     string              `yaml:"guidance,omitempty"`
	ErrorSummary string              `yaml:"errorSummary,omitempty"`
	Metadata     ExtractionMetadata  `yaml:"metadata"`
}
