package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore reads and writes config.toml under the Lodestone config
// directory. Every Set persists immediately.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens the config store rooted at configDir, creating the
// directory if needed. An empty configDir defaults to ~/.lodestone.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".lodestone")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string value, or "" when unset or not a string.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer value, or 0 when unset or not an integer.
// TOML decodes integers as int64.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Set stores a value and persists the whole configuration immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// save writes the TOML file; the caller holds the lock. The file may carry
// an API key, hence the restricted mode.
func (s *ConfigStore) save() error {
	out, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, out, 0600)
}

// load reads configuration from disk. A missing file starts the store
// empty; a file that exists but does not parse is an error.
func (s *ConfigStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var parsed map[string]any
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return err
	}

	s.data = make(map[string]any)
	flattenInto(s.data, "", parsed)
	return nil
}

// flattenInto walks nested tables, writing leaves into dst under
// dot-joined keys.
func flattenInto(dst map[string]any, prefix string, m map[string]any) {
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			flattenInto(dst, full, nested)
			continue
		}
		dst[full] = value
	}
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
