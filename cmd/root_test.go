package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_Use(t *testing.T) {
	assert.Equal(t, "vibe-validate", rootCmd.Use)
}

func TestRootCommand_SilencesUsage(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCommand_HasPersistentPreRunE(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentPreRunE)
}

func TestRootCommand_Subcommands(t *testing.T) {
	expected := []string{"run", "cache", "health", "config"}
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q", name)
	}
}

func TestRootCommand_DebugFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("debug")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "bool", flag.Value.Type())
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestPersistentPreRun_SkipsConfigLoadForConfigSubtree(t *testing.T) {
	prevResolved := resolved
	resolved = nil
	defer func() { resolved = prevResolved }()
	configValidateCmd.SetContext(context.Background())

	err := persistentPreRun(configValidateCmd, nil)
	assert.NoError(t, err)
	assert.Nil(t, resolved, "config subtree must not trigger the upward config-discovery walk")
}
