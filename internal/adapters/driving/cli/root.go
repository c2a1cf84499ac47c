// Package cli provides the Lodestone command-line interface. Commands talk
// to the core services through the driving ports; wiring happens once in
// initServices so tests can inject mocks through the package-level vars.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/lodestone-labs/lodestone/internal/adapters/driven/config/file"
	contentfile "github.com/lodestone-labs/lodestone/internal/adapters/driven/contentstore/file"
	"github.com/lodestone-labs/lodestone/internal/adapters/driven/embedding/ollama"
	"github.com/lodestone-labs/lodestone/internal/adapters/driven/embedding/openai"
	"github.com/lodestone-labs/lodestone/internal/adapters/driven/storage/sqlite"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
	"github.com/lodestone-labs/lodestone/internal/core/services"
	"github.com/lodestone-labs/lodestone/internal/logger"
	"github.com/lodestone-labs/lodestone/internal/normalisers"
	"github.com/lodestone-labs/lodestone/internal/postprocessors/chunker"
	"github.com/lodestone-labs/lodestone/internal/sidecar"
)

// version is set at build time via ldflags.
var version = "dev"

// envAPIKey overrides the configured embedding API key.
const envAPIKey = "LODESTONE_API_KEY"

// Services wired by initServices. Tests replace these with mocks.
var (
	indexerService driving.IndexerService
	searchService  driving.SearchService
	contentStore   driven.ContentStore
	embedService   driven.EmbeddingService
	recordStore    driven.RecordStore
	configStore    driven.ConfigStore
	sidecarReader  driven.SidecarReader
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "lodestone",
	Short: "Semantic content index",
	Long: `Lodestone indexes local content for semantic search.
Files are extracted, chunked, embedded and stored in a local index
that can be queried by meaning rather than by keyword.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
}

// Execute wires the services and runs the root command.
func Execute() error {
	if err := initServices(); err != nil {
		return err
	}
	defer closeServices()
	return rootCmd.Execute()
}

// initServices wires the adapters into the core services. Already-set
// services are left alone so tests can pre-inject mocks.
func initServices() error {
	if indexerService != nil && searchService != nil {
		return nil
	}

	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = cfg

	contents, err := contentfile.NewStore("")
	if err != nil {
		return fmt.Errorf("opening content store: %w", err)
	}
	contentStore = contents

	records, err := sqlite.NewStore(cfg.GetString(driven.ConfigKeyDataDir))
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	recordStore = records

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	embedService = embedder

	var chunkOpts []chunker.Option
	if size := cfg.GetInt(driven.ConfigKeyChunkSize); size > 0 {
		chunkOpts = append(chunkOpts, chunker.WithMaxSize(size))
	}

	sidecarReader = sidecar.NewReader()
	indexerService = services.NewIndexer(contents, records, embedder,
		normalisers.Defaults(), chunker.New(chunkOpts...))
	searchService = services.NewSearcher(records, embedder)

	return nil
}

// buildEmbedder creates the configured embedding client. The default is a
// local Ollama instance, which needs no credentials.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		apiKey = cfg.GetString(driven.ConfigKeyAPIKey)
	}

	provider := cfg.GetString(driven.ConfigKeyProvider)
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.GetString(driven.ConfigKeyBaseURL),
			Model:      cfg.GetString(driven.ConfigKeyModel),
			Dimensions: cfg.GetInt(driven.ConfigKeyDimensions),
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString(driven.ConfigKeyBaseURL),
			Model:      cfg.GetString(driven.ConfigKeyModel),
			Dimensions: cfg.GetInt(driven.ConfigKeyDimensions),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

func closeServices() {
	if embedService != nil {
		_ = embedService.Close()
	}
	if recordStore != nil {
		_ = recordStore.Close()
	}
}
