package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdutton/vibe-validate/internal/cache"
	"github.com/jdutton/vibe-validate/internal/notesstore"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the validation cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show how many validation results are cached",
	RunE:  runCacheShow,
}

var pruneOlderThan time.Duration

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached results older than the retention window",
	RunE:  runCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	RunE:  runCacheClear,
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "override the configured retention window (e.g. 720h)")
	cacheCmd.AddCommand(cacheShowCmd, cachePruneCmd, cacheClearCmd)
}

func runCacheShow(cmd *cobra.Command, _ []string) error {
	store := notesstore.New(resolved.RepoRoot)
	engine := cache.New(store)
	count, err := engine.CountEntries(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("%d cached validation result(s)\n", count)
	return nil
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	store := notesstore.New(resolved.RepoRoot)
	engine := cache.New(store)

	maxAge := resolved.Retention.MaxAge
	if pruneOlderThan > 0 {
		maxAge = pruneOlderThan
	}
	cutoff := time.Now().Add(-maxAge)

	removed, err := engine.PruneOlderThan(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d entr(ies) older than %s\n", removed, maxAge)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	store := notesstore.New(resolved.RepoRoot)
	engine := cache.New(store)
	removed, err := engine.PruneAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("cleared %d entr(ies)\n", removed)
	return nil
}
