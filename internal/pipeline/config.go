// Package pipeline implements PipelineOrchestrator: a phase/step state
// machine that runs validation commands in parallel or sequence with
// fail-fast semantics, stability guards, and retry-of-failed-only.
package pipeline

import "time"

// StepConfig describes one command to run within a phase.
type StepConfig struct {
	Name            string
	Command         string
	Workdir         string
	Env             []string
	ContinueOnError bool
	Timeout         time.Duration
}

// PhaseConfig describes an ordered or parallel group of steps.
type PhaseConfig struct {
	Name     string
	Parallel bool
	FailFast bool // default true; caller sets explicitly since Go's zero value is false
	Timeout  time.Duration
	Steps    []StepConfig
}

// Config is the full validation pipeline: an ordered list of phases.
type Config struct {
	Phases []PhaseConfig

	// IgnoreGlobs are doublestar patterns excluded from the tree hash
	// beyond what .gitignore already covers.
	IgnoreGlobs []string
}

// RunOptions controls a single orchestration invocation.
type RunOptions struct {
	Force       bool // skip the validation-cache short-circuit entirely
	RetryFailed bool // run only from the previously failed step onward
	UseRunCache bool // consult CacheEngine.LookupRun per step; cmd/run.go sets it unless --no-run-cache

	// CancelGrace is how long a cancelled phase waits for in-flight
	// steps to exit before they're force-killed. Defaults to 5s.
	CancelGrace time.Duration
}
