package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdutton/vibe-validate/internal/config"
)

func TestConfigCommand_Use(t *testing.T) {
	assert.Equal(t, "config", configCmd.Use)
}

func TestConfigCommand_HasValidateSubcommand(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["validate"])
}

func TestRunConfigValidate_AcceptsWellFormedConfig(t *testing.T) {
	repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, config.FileName), []byte(`
phases:
  - name: build
    steps:
      - name: compile
        command: "make build"
`), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(repo))

	require.NoError(t, runConfigValidate(configValidateCmd, nil))
}

func TestRunConfigValidate_RejectsMalformedConfig(t *testing.T) {
	repo := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(repo, config.FileName), []byte(`
bogusField: true
`), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(repo))

	assert.Error(t, runConfigValidate(configValidateCmd, nil))
}
