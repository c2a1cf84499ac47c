package driven

// ConfigStore persists engine configuration as key-value pairs.
// Keys use dot notation for nesting (e.g., "embedding.model").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value, or "" when unset.
	GetString(key string) string

	// GetInt retrieves an integer configuration value, or 0 when unset.
	GetInt(key string) int

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Path returns the backing file path, for diagnostics.
	Path() string
}

// Well-known configuration keys.
const (
	// ConfigKeyProvider selects the embedding provider ("openai" or "ollama").
	ConfigKeyProvider = "embedding.provider"

	// ConfigKeyAPIKey holds the embedding provider API key.
	ConfigKeyAPIKey = "embedding.api_key"

	// ConfigKeyBaseURL overrides the embedding provider endpoint.
	ConfigKeyBaseURL = "embedding.base_url"

	// ConfigKeyModel selects the embedding model.
	ConfigKeyModel = "embedding.model"

	// ConfigKeyDimensions overrides the embedding dimension.
	ConfigKeyDimensions = "embedding.dimensions"

	// ConfigKeyChunkSize sets the chunker size limit in bytes.
	ConfigKeyChunkSize = "index.chunk_size"

	// ConfigKeyDataDir overrides the data directory.
	ConfigKeyDataDir = "index.data_dir"
)
