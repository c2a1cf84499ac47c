package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
)

var indexMIMEType string

var indexCmd = &cobra.Command{
	Use:   "index [file...]",
	Short: "Index files for semantic search",
	Long: `Stores each file's bytes in the content store, then extracts,
chunks and embeds the text into the index. A sidecar file named
<file>.meta supplies user metadata that wins over extracted fields.

Re-indexing an unchanged file is a no-op at the record level: the same
bytes always produce the same content ID and the same chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexMIMEType, "mime-type", "", "override MIME type detection")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexerService == nil || contentStore == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()
	var failed int
	for _, path := range args {
		if err := indexOne(ctx, cmd, path); err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func indexOne(ctx context.Context, cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	contentID, err := contentStore.Store(ctx, data)
	if err != nil {
		return fmt.Errorf("storing content: %w", err)
	}

	hints := driving.IndexHints{
		SourceName: filepath.Base(path),
		MIMEType:   indexMIMEType,
	}
	if sidecarReader != nil {
		meta, err := sidecarReader.Read(path)
		if err != nil {
			return fmt.Errorf("reading sidecar: %w", err)
		}
		hints.Sidecar = meta
	}

	report, err := indexerService.IndexWithHints(ctx, contentID, hints)
	if err != nil {
		return err
	}

	status := ""
	if report.Degraded {
		status = " (degraded)"
	}
	cmd.Printf("  %s -> %s: %d chunks%s\n", path, shortID(contentID), report.ChunkCount, status)
	for _, chunkID := range report.SkippedChunks {
		cmd.Printf("    skipped %s\n", chunkID)
	}
	return nil
}

// shortID abbreviates a content ID for display.
func shortID(contentID string) string {
	if len(contentID) > 12 {
		return contentID[:12]
	}
	return contentID
}
