// Package file provides a content-addressed store on the local filesystem.
// Bytes are stored under the hex SHA-256 of their content, so identical
// bytes always resolve to the same identifier.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Store is a filesystem-backed content-addressed store.
type Store struct {
	root string
}

// NewStore creates a content store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".lodestone", "objects")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating object directory: %w", err)
	}

	return &Store{root: dir}, nil
}

// ContentID returns the deterministic identifier for a byte sequence.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store writes bytes and returns their content identifier. The write goes
// through a temp file and rename so a crash never leaves a partial object
// under a valid identifier.
func (s *Store) Store(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := ContentID(data)
	path := s.objectPath(id)

	// Content addressing makes the write idempotent.
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("creating fan-out directory: %w", err)
	}

	tmp := filepath.Join(s.root, "tmp-"+uuid.New().String())
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publishing object: %w", err)
	}

	return id, nil
}

// Fetch returns the bytes for a content identifier.
func (s *Store) Fetch(ctx context.Context, contentID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(contentID) < 3 {
		return nil, fmt.Errorf("%w: %q", domain.ErrContentNotFound, contentID)
	}

	data, err := os.ReadFile(s.objectPath(contentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, contentID)
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}

	return data, nil
}

// objectPath fans objects out by their first two hex characters.
func (s *Store) objectPath(id string) string {
	return filepath.Join(s.root, id[:2], id)
}
