package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed content",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [content-id]",
	Short: "Show an indexed record",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var removeCmd = &cobra.Command{
	Use:   "remove [content-id]",
	Short: "Remove content from the index",
	Long: `Removes the record and all its chunks. The original bytes stay in
the content store, so the item can be re-indexed later.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(removeCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	summaries, err := indexerService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list content: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summaries: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(summaries) == 0 {
		cmd.Println("No content indexed.")
		return nil
	}

	for i := range summaries {
		name := summaries[i].SourceName
		if name == "" {
			name = "(unnamed)"
		}
		cmd.Printf("  %s  %s\n", shortID(summaries[i].ContentID), name)
		cmd.Printf("    Type: %s, Chunks: %d, Indexed: %s\n",
			summaries[i].MIMEType, summaries[i].ChunkCount,
			summaries[i].IndexedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("\nTotal: %d items\n", len(summaries))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	rec, err := indexerService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	cmd.Printf("Content: %s\n\n", rec.ContentID)
	cmd.Printf("  Source:   %s\n", rec.SourceName)
	cmd.Printf("  Type:     %s\n", rec.MIMEType)
	cmd.Printf("  Chunks:   %d\n", len(rec.Chunks))
	cmd.Printf("  Indexed:  %s\n", rec.IndexedAt.Format("2006-01-02 15:04:05"))

	if len(rec.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %s\n", k, rec.Metadata[k])
		}
	}

	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	if err := indexerService.Remove(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove content: %w", err)
	}

	cmd.Printf("Removed %s from the index.\n", args[0])
	return nil
}
