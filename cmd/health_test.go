package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCommand_Use(t *testing.T) {
	assert.Equal(t, "health", healthCmd.Use)
}

func TestHealthCommand_HasRunE(t *testing.T) {
	assert.NotNil(t, healthCmd.RunE)
}

func TestRunHealth_ReportsNoHistoryOnFreshRepo(t *testing.T) {
	repo := initRepo(t)
	withResolved(t, repo)
	healthCmd.SetContext(context.Background())

	require.NoError(t, runHealth(healthCmd, nil))
}
