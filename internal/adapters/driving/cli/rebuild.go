package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-index all content",
	Long: `Re-runs the full pipeline for every known content ID, for example
after switching embedding models. Items that fail are reported and
skipped; the rest of the rebuild continues.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if indexerService == nil || recordStore == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()

	ids, err := recordStore.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate content: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("Nothing to rebuild.")
		return nil
	}

	cmd.Printf("Rebuilding %d items...\n", len(ids))

	report, err := indexerService.Rebuild(ctx, ids)
	if report != nil {
		cmd.Printf("Rebuilt: %d ok, %d degraded, %d failed\n",
			report.Succeeded, report.Skipped, report.Failed)
		for _, failure := range report.Failures {
			cmd.Printf("  %s: %s\n", shortID(failure.ContentID), failure.Reason)
		}
	}
	if err != nil {
		return fmt.Errorf("rebuild aborted: %w", err)
	}
	return nil
}
