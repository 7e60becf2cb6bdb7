package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jdutton/vibe-validate/internal/apperrors"
	"github.com/jdutton/vibe-validate/internal/cache"
	"github.com/jdutton/vibe-validate/internal/extract"
	"github.com/jdutton/vibe-validate/internal/gitport"
	"github.com/jdutton/vibe-validate/internal/history"
	"github.com/jdutton/vibe-validate/internal/model"
	"github.com/jdutton/vibe-validate/internal/runner"
	"github.com/jdutton/vibe-validate/internal/treehash"
)

// DefaultCancelGrace is how long a cancelled phase waits for in-flight
// steps to exit before force-kill.
const DefaultCancelGrace = 5 * time.Second

// Hasher is the subset of treehash.Hasher the orchestrator needs,
// narrowed to ease testing with a fake.
type Hasher interface {
	Compute(ctx context.Context) (string, error)
}

// Orchestrator runs a Config's phases against a repository, consulting
// the cache for reads and handing completed records to a
// history.Recorder for the final write.
type Orchestrator struct {
	repoRoot   string
	hasher     Hasher
	cache      *cache.Engine
	recorder   *history.Recorder
	runner     *runner.Runner
	extractors *extract.Registry
}

// New returns an Orchestrator wired to the given repository root, with
// oversized step output spilled under <gitDir>/vibe-validate/spill.
func New(repoRoot string, cacheEngine *cache.Engine) *Orchestrator {
	git := gitport.New(repoRoot)
	spillDir := filepath.Join(repoRoot, ".git", "vibe-validate", "spill")
	return &Orchestrator{
		repoRoot:   repoRoot,
		hasher:     treehash.New(repoRoot),
		cache:      cacheEngine,
		recorder:   history.New(cacheEngine, git, spillDir),
		runner:     runner.New(),
		extractors: extract.DefaultRegistry(),
	}
}

// NewWithDeps is the fully-injectable constructor used by tests.
func NewWithDeps(hasher Hasher, cacheEngine *cache.Engine, r *runner.Runner, extractors *extract.Registry) *Orchestrator {
	return &Orchestrator{
		hasher:     hasher,
		cache:      cacheEngine,
		recorder:   history.New(cacheEngine, nil, ""),
		runner:     r,
		extractors: extractors,
	}
}

// Run executes cfg's phases, short-circuiting on a validation-cache hit
// unless opts.Force is set. With opts.RetryFailed, a cached passing
// result still short-circuits; a cached failure resumes from its failed
// step.
func (o *Orchestrator) Run(ctx context.Context, cfg Config, opts RunOptions) (*model.ValidationRecord, error) {
	grace := opts.CancelGrace
	if grace <= 0 {
		grace = DefaultCancelGrace
	}

	hasher := o.hasher
	if o.repoRoot != "" && len(cfg.IgnoreGlobs) > 0 {
		hasher = treehash.New(o.repoRoot).WithIgnoreGlobs(cfg.IgnoreGlobs)
	}

	startHash, err := hasher.Compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: computing tree hash: %w", err)
	}

	var previousFailure *model.ValidationRecord
	if !opts.Force {
		hit, prevFail, err := o.cache.LookupValidation(ctx, startHash, opts.RetryFailed)
		if err != nil {
			return nil, fmt.Errorf("pipeline: consulting validation cache: %w", err)
		}
		if hit != nil {
			return hit, nil
		}
		previousFailure = prevFail
	}

	resumeFrom := ""
	if opts.RetryFailed && previousFailure != nil {
		resumeFrom = previousFailure.FailedStep
	}

	run := &runState{
		o:           o,
		ctx:         ctx,
		treeHash:    startHash,
		opts:        opts,
		grace:       grace,
		resumeFrom:  resumeFrom,
		previous:    previousFailure,
		skipRest:    false,
	}

	start := time.Now()
	record := run.execute(cfg)
	record.DurationMs = time.Since(start).Milliseconds()
	record.TreeHash = startHash

	endHash, err := hasher.Compute(ctx)
	unstable := err == nil && endHash != startHash
	if err != nil {
		unstable = true
	}

	if unstable {
		return &record, &apperrors.Unstable{Before: startHash, After: endHash}
	}

	if _, recErr := o.recorder.Record(ctx, record, run.outputs); recErr != nil {
		return &record, fmt.Errorf("pipeline: recording validation history: %w", recErr)
	}
	return &record, nil
}

// runState carries per-invocation mutable state through phase/step
// execution.
type runState struct {
	o          *Orchestrator
	ctx        context.Context
	treeHash   string
	opts       RunOptions
	grace      time.Duration
	resumeFrom string // step name to resume from in retry mode; "" means run everything
	previous   *model.ValidationRecord
	seenResume bool // becomes true once resumeFrom has been encountered
	skipRest   bool

	outputsMu sync.Mutex
	outputs   []history.StepOutput
}

func (r *runState) recordOutput(phaseIdx, stepIdx int, combined string) {
	if combined == "" {
		return
	}
	r.outputsMu.Lock()
	defer r.outputsMu.Unlock()
	r.outputs = append(r.outputs, history.StepOutput{PhaseIndex: phaseIdx, StepIndex: stepIdx, Combined: []byte(combined)})
}

func (r *runState) execute(cfg Config) model.ValidationRecord {
	var phases []model.PhaseRecord
	overallPassed := true
	failedStep := ""

	for phaseIdx, phaseCfg := range cfg.Phases {
		if r.skipRest {
			phases = append(phases, r.skippedPhase(phaseCfg))
			continue
		}

		phaseStart := time.Now()
		steps, phasePassed, phaseFailedStep := r.runPhase(phaseIdx, phaseCfg)
		phases = append(phases, model.PhaseRecord{
			Name:         phaseCfg.Name,
			Passed:       phasePassed,
			DurationSecs: time.Since(phaseStart).Seconds(),
			Steps:        steps,
		})

		if !phasePassed {
			overallPassed = false
			if failedStep == "" {
				failedStep = phaseFailedStep
			}
			if phaseCfg.FailFast {
				r.skipRest = true
			}
		}
	}

	summary := summarize(overallPassed, failedStep, phases)
	return model.ValidationRecord{
		Passed:     overallPassed,
		Timestamp:  time.Now().UTC(),
		Summary:    summary,
		FailedStep: failedStep,
		Phases:     phases,
	}
}

func (r *runState) skippedPhase(cfg PhaseConfig) model.PhaseRecord {
	steps := make([]model.StepRecord, len(cfg.Steps))
	for i, s := range cfg.Steps {
		steps[i] = model.StepRecord{Name: s.Name, Command: s.Command, Passed: false}
	}
	return model.PhaseRecord{Name: cfg.Name, Passed: false, Steps: steps}
}

// runPhase runs every step in cfg, sequentially or in parallel per
// cfg.Parallel, returning the ordered step records (always in config
// order regardless of completion order) and whether the phase passed.
func (r *runState) runPhase(phaseIdx int, cfg PhaseConfig) ([]model.StepRecord, bool, string) {
	if cfg.Parallel {
		return r.runParallel(phaseIdx, cfg)
	}
	return r.runSequential(phaseIdx, cfg)
}

func (r *runState) runSequential(phaseIdx int, cfg PhaseConfig) ([]model.StepRecord, bool, string) {
	records := make([]model.StepRecord, len(cfg.Steps))
	passed := true
	failedStep := ""
	skipping := false

	for i, step := range cfg.Steps {
		if skipping {
			records[i] = model.StepRecord{Name: step.Name, Command: step.Command, Passed: false}
			continue
		}
		if r.shouldSkipForResume(step.Name) {
			records[i] = model.StepRecord{Name: step.Name, Command: step.Command, Passed: true}
			continue
		}

		rec := r.runStepCtx(r.ctx, phaseIdx, i, step)
		records[i] = rec
		if !rec.Passed && !step.ContinueOnError {
			passed = false
			if failedStep == "" {
				failedStep = step.Name
			}
			if cfg.FailFast {
				skipping = true
			}
		}
	}
	return records, passed, failedStep
}

func (r *runState) runParallel(phaseIdx int, cfg PhaseConfig) ([]model.StepRecord, bool, string) {
	records := make([]model.StepRecord, len(cfg.Steps))
	var mu sync.Mutex
	failedStep := ""
	passed := true

	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Resume decisions are made in config order before any goroutine
	// starts, so which steps are skipped never depends on scheduling.
	skip := make([]bool, len(cfg.Steps))
	for i, step := range cfg.Steps {
		skip[i] = r.shouldSkipForResume(step.Name)
	}

	for i, step := range cfg.Steps {
		i, step := i, step
		g.Go(func() error {
			if skip[i] {
				mu.Lock()
				records[i] = model.StepRecord{Name: step.Name, Command: step.Command, Passed: true}
				mu.Unlock()
				return nil
			}

			rec := r.runStepCtx(gctx, phaseIdx, i, step)

			mu.Lock()
			records[i] = rec
			failed := !rec.Passed && !step.ContinueOnError
			if failed {
				passed = false
				if failedStep == "" {
					failedStep = step.Name
				}
			}
			mu.Unlock()

			if failed && cfg.FailFast {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	return records, passed, failedStep
}

// shouldSkipForResume reports whether stepName should be treated as
// PASSED-from-cache because retry mode is resuming from a later step.
func (r *runState) shouldSkipForResume(stepName string) bool {
	if r.resumeFrom == "" || r.seenResume {
		return false
	}
	if stepName == r.resumeFrom {
		r.seenResume = true
		return false
	}
	return true
}

func (r *runState) runStepCtx(ctx context.Context, phaseIdx, stepIdx int, step StepConfig) model.StepRecord {
	start := time.Now()

	if r.opts.UseRunCache {
		if cached, err := r.o.cache.LookupRun(ctx, r.treeHash, step.Command, step.Workdir); err == nil && cached != nil {
			return model.StepRecord{
				Name:         step.Name,
				Command:      step.Command,
				ExitCode:     0,
				Passed:       true,
				DurationSecs: time.Since(start).Seconds(),
				Extraction:   cached.Extraction,
			}
		}
	}

	result, runErr := r.o.runner.Run(ctx, runner.Options{
		Command:     step.Command,
		Workdir:     step.Workdir,
		Timeout:     step.Timeout,
		Env:         step.Env,
		CancelGrace: r.grace,
	})

	rec := model.StepRecord{
		Name:         step.Name,
		Command:      step.Command,
		DurationSecs: time.Since(start).Seconds(),
	}

	if result == nil {
		rec.ExitCode = -1
		rec.Passed = false
		return rec
	}

	rec.ExitCode = result.ExitCode
	rec.Passed = result.ExitCode == 0 && !result.TimedOut && runErr == nil

	extraction := r.o.extractors.AutoDetectAndExtract(result.Combined, step.Command)
	rec.Extraction = &extraction
	r.recordOutput(phaseIdx, stepIdx, result.Combined)

	if rec.Passed && r.opts.UseRunCache {
		_ = r.o.cache.StoreRun(ctx, model.RunRecord{
			TreeHash:   r.treeHash,
			Command:    step.Command,
			Workdir:    step.Workdir,
			Timestamp:  time.Now().UTC(),
			ExitCode:   0,
			DurationMs: result.Duration.Milliseconds(),
			Extraction: &extraction,
		})
	}

	return rec
}

func summarize(passed bool, failedStep string, phases []model.PhaseRecord) string {
	if passed {
		return fmt.Sprintf("all %d phase(s) passed", len(phases))
	}
	return fmt.Sprintf("failed at step %q", failedStep)
}
