package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdutton/vibe-validate/internal/apperrors"
	"github.com/jdutton/vibe-validate/internal/cache"
	"github.com/jdutton/vibe-validate/internal/notesstore"
	"github.com/jdutton/vibe-validate/internal/pipeline"
	"github.com/jdutton/vibe-validate/internal/render"
	"github.com/jdutton/vibe-validate/internal/signal"
)

var (
	runForce       bool
	runRetryFailed bool
	runNoRunCache  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the validation pipeline, reusing cached results where possible",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runForce, "force", "f", false, "ignore cached results and re-run everything")
	runCmd.Flags().BoolVar(&runRetryFailed, "retry-failed", false, "resume from the previously failed step")
	runCmd.Flags().BoolVar(&runNoRunCache, "no-run-cache", false, "disable per-step result caching")
}

func runRun(cmd *cobra.Command, _ []string) error {
	store := notesstore.New(resolved.RepoRoot)
	cacheEngine := cache.New(store).WithMaxRunsPerTree(cache.DefaultMaxRunsPerTree)
	orch := pipeline.New(resolved.RepoRoot, cacheEngine)

	opts := pipeline.RunOptions{
		Force:       runForce,
		RetryFailed: runRetryFailed,
		UseRunCache: !runNoRunCache,
	}

	record, err := orch.Run(cmd.Context(), resolved.Pipeline, opts)

	if record != nil {
		render.NewForFile(os.Stdout, os.Stdout).Record(*record)
	}

	if errors.Is(cmd.Context().Err(), context.Canceled) {
		signal.PrintCancellationNotice("run")
		return &apperrors.Cancelled{Reason: "run interrupted"}
	}

	var unstable *apperrors.Unstable
	if errors.As(err, &unstable) {
		return err
	}
	if err != nil {
		return err
	}

	if record != nil && !record.Passed {
		return &apperrors.StepFailure{StepName: record.FailedStep, Code: 1}
	}
	return nil
}
