package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCommand_Use(t *testing.T) {
	assert.Equal(t, "run", runCmd.Use)
}

func TestRunCommand_HasRunE(t *testing.T) {
	assert.NotNil(t, runCmd.RunE)
}

func TestRunCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		flagName  string
		shorthand string
		wantType  string
	}{
		{"force flag", "force", "f", "bool"},
		{"retry-failed flag", "retry-failed", "", "bool"},
		{"no-run-cache flag", "no-run-cache", "", "bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := runCmd.Flags().Lookup(tt.flagName)
			if assert.NotNil(t, flag) {
				assert.Equal(t, tt.wantType, flag.Value.Type())
				assert.Equal(t, "false", flag.DefValue)
				if tt.shorthand != "" {
					assert.Equal(t, tt.shorthand, flag.Shorthand)
				}
			}
		})
	}
}
