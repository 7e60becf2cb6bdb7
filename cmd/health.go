package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdutton/vibe-validate/internal/health"
	"github.com/jdutton/vibe-validate/internal/notesstore"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report the validation cache's size and staleness",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	store := notesstore.New(resolved.RepoRoot)
	monitor := health.New(store).
		WithRetention(resolved.Retention.MaxAge).
		WithMaxNotes(resolved.Retention.MaxNotes)

	report, err := monitor.Check(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(report.String())
	return nil
}
