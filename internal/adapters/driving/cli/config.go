package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value. Well-known keys:

  embedding.provider    openai or ollama (default: ollama)
  embedding.api_key     provider API key
  embedding.base_url    provider endpoint override
  embedding.model       embedding model name
  embedding.dimensions  embedding vector size
  index.chunk_size      chunk size limit in bytes
  index.data_dir        index database directory`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Config file: %s\n\n", configStore.Path())

	keys := []string{
		driven.ConfigKeyProvider,
		driven.ConfigKeyAPIKey,
		driven.ConfigKeyBaseURL,
		driven.ConfigKeyModel,
		driven.ConfigKeyDimensions,
		driven.ConfigKeyChunkSize,
		driven.ConfigKeyDataDir,
	}
	sort.Strings(keys)

	for _, key := range keys {
		val, ok := configStore.Get(key)
		if !ok {
			cmd.Printf("  %s = (unset)\n", key)
			continue
		}
		if key == driven.ConfigKeyAPIKey {
			val = maskSecret(fmt.Sprintf("%v", val))
		}
		cmd.Printf("  %s = %v\n", key, val)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]

	// Store integers natively so GetInt works after reload.
	var value any = raw
	if n, err := strconv.Atoi(raw); err == nil {
		value = n
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("Set %s.\n", key)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Printf("%v\n", val)
	return nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
