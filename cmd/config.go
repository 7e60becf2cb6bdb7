package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdutton/vibe-validate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or validate vibe-validate.config.yaml",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file without running the pipeline",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving current directory: %w", err)
	}

	path, repoRoot, err := config.FindUpward(cwd)
	if err != nil {
		return err
	}

	loaded, err := config.Load(path, repoRoot)
	if err != nil {
		return err
	}

	fmt.Printf("%s is valid: %d phase(s)\n", path, len(loaded.Pipeline.Phases))
	return nil
}
