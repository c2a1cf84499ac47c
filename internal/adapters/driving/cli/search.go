package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index by meaning",
	Long: `Embeds the query and returns the most similar indexed chunks,
ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(context.Background(), query, searchLimit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			return err
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Metadata["title"]
		if title == "" {
			title = results[i].ContentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		if source := results[i].Metadata["source_name"]; source != "" {
			cmd.Printf("      Source: %s\n", source)
		}
		if results[i].Snippet != "" {
			cmd.Printf("      %s\n", results[i].Snippet)
		}
		cmd.Println()
	}

	return nil
}
