package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCommand_Use(t *testing.T) {
	assert.Equal(t, "cache", cacheCmd.Use)
}

func TestCacheCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"show", "prune", "clear"} {
		assert.True(t, names[name], "expected cache subcommand %q", name)
	}
}

func TestCachePruneCommand_OlderThanFlag(t *testing.T) {
	flag := cachePruneCmd.Flags().Lookup("older-than")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "duration", flag.Value.Type())
	}
}

func TestRunCacheShow_ReportsZeroOnFreshRepo(t *testing.T) {
	repo := initRepo(t)
	withResolved(t, repo)
	cacheShowCmd.SetContext(context.Background())

	require.NoError(t, runCacheShow(cacheShowCmd, nil))
}

func TestRunCachePrune_NoopOnFreshRepo(t *testing.T) {
	repo := initRepo(t)
	withResolved(t, repo)
	cachePruneCmd.SetContext(context.Background())

	require.NoError(t, runCachePrune(cachePruneCmd, nil))
}

func TestRunCacheClear_NoopOnFreshRepo(t *testing.T) {
	repo := initRepo(t)
	withResolved(t, repo)
	cacheClearCmd.SetContext(context.Background())

	require.NoError(t, runCacheClear(cacheClearCmd, nil))
}
