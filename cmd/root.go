// Package cmd wires vibe-validate's cobra surface: run, cache, health,
// and config validate. PersistentPreRunE initializes the process-wide
// logger, checks the git version, and loads and schema-validates the
// config file; Execute installs signal-based cancellation, mirroring the teacher's rootCmd shape
// (agent detection and repo-trust prompts are teacher-specific and not
// carried forward).
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdutton/vibe-validate/internal/config"
	"github.com/jdutton/vibe-validate/internal/gitport"
	"github.com/jdutton/vibe-validate/internal/obslog"
	"github.com/jdutton/vibe-validate/internal/signal"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// StartTime holds the command start time, set in PersistentPreRunE.
var StartTime time.Time

// resolved holds the config loaded once in PersistentPreRunE, available
// to every subcommand's RunE.
var resolved *config.Resolved

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "vibe-validate",
	Short: "Memoize expensive repo validation against git tree content",
	Long: `vibe-validate runs type-checking, linting, tests, and builds and
remembers their results by the git tree hash that produced them, so an
unchanged tree never pays for the same check twice.

Results are stored as git notes, shared the same way any other git ref
can be pushed and fetched.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	StartTime = time.Now()

	debug := debugFlag || os.Getenv("VV_DEBUG") != ""
	logger, err := obslog.New(debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	cmd.SetContext(obslog.WithContext(cmd.Context(), logger))

	// config subcommand validates a path of its own choosing, so it
	// skips the upward config-discovery walk every other command needs.
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving current directory: %w", err)
	}
	path, repoRoot, err := config.FindUpward(cwd)
	if err != nil {
		return err
	}
	if err := gitport.New(repoRoot).EnsureUsable(cmd.Context()); err != nil {
		return err
	}
	resolved, err = config.Load(path, repoRoot)
	return err
}

// Execute runs the root command with signal-based cancellation
// installed on its context.
func Execute() error {
	ctx := signal.SetupHandler(context.Background())
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging (also set by VV_DEBUG)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}
