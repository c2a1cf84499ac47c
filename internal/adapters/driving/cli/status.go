package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and embedding provider status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if recordStore == nil || embedService == nil {
		return errors.New("services not configured")
	}

	ctx := context.Background()

	summaries, err := recordStore.ListSummaries(ctx)
	if err != nil {
		return err
	}
	chunks := 0
	for i := range summaries {
		chunks += summaries[i].ChunkCount
	}

	dim, err := recordStore.Dimension(ctx)
	if err != nil {
		return err
	}

	cmd.Println("[Index]")
	cmd.Printf("  Items:      %d\n", len(summaries))
	cmd.Printf("  Chunks:     %d\n", chunks)
	if dim > 0 {
		cmd.Printf("  Dimension:  %d\n", dim)
	} else {
		cmd.Printf("  Dimension:  (unpinned, index empty)\n")
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Model:      %s\n", embedService.ModelName())
	cmd.Printf("  Dimension:  %d\n", embedService.Dimensions())
	if err := embedService.Ping(context.Background()); err != nil {
		cmd.Printf("  Status:     unreachable (%v)\n", err)
	} else {
		cmd.Printf("  Status:     ok\n")
	}

	if dim > 0 && embedService.Dimensions() != dim {
		cmd.Println()
		cmd.Println("Warning: provider dimension differs from the index.")
		cmd.Println("New writes will be rejected; run 'lodestone rebuild' after")
		cmd.Println("clearing the index to switch models.")
	}

	return nil
}
