// Package sqlite provides the durable record store backing the index.
// Records are replaced transactionally so readers observe either the old
// or the new version of a content item, never a mix, and every successful
// write is flushed before the call returns.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lodestone-labs/lodestone/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// metaKeyDimension pins the store's vector dimension after the first write.
const metaKeyDimension = "dimension"

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// Store is a SQLite-backed record store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a record store at the specified data directory.
// If dataDir is empty, defaults to ~/.lodestone/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lodestone", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL for concurrent readers during writes; synchronous=FULL so a
	// committed write survives a crash immediately after the call returns.
	// foreign_keys is per-connection in SQLite, so it lives in the DSN where
	// every pooled connection picks it up.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ReplaceRecord atomically swaps in a full record for its content ID.
func (s *Store) ReplaceRecord(ctx context.Context, rec *domain.ContentRecord) error {
	if rec == nil || rec.ContentID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.checkDimension(ctx, tx, rec); err != nil {
		return err
	}

	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	// Clear the prior chunk set explicitly, not just via the cascade, so the
	// swap holds even on a connection without foreign keys enabled.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE content_id = ?", rec.ContentID); err != nil {
		return fmt.Errorf("removing prior chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM content_records WHERE content_id = ?", rec.ContentID); err != nil {
		return fmt.Errorf("removing prior record: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_records (content_id, source_name, mime_type, metadata, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ContentID, rec.SourceName, rec.MIMEType, string(metadataJSON),
		len(rec.Chunks), rec.IndexedAt)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, content_id, position, text, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range rec.Chunks {
		blob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, rec.ContentID,
			chunk.Position, chunk.Text, blob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record: %w", err)
	}
	return nil
}

// checkDimension enforces the store's single fixed vector dimension,
// pinning it on the first vector-bearing write.
func (s *Store) checkDimension(ctx context.Context, tx *sql.Tx, rec *domain.ContentRecord) error {
	want := 0
	var stored string
	err := tx.QueryRowContext(ctx,
		"SELECT value FROM index_meta WHERE key = ?", metaKeyDimension).Scan(&stored)
	switch {
	case err == nil:
		want, err = strconv.Atoi(stored)
		if err != nil {
			return fmt.Errorf("%w: bad dimension value %q", domain.ErrStoreCorruption, stored)
		}
	case errors.Is(err, sql.ErrNoRows):
		// Unpinned store.
	default:
		return fmt.Errorf("reading dimension: %w", err)
	}

	for _, chunk := range rec.Chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if want == 0 {
			want = len(chunk.Embedding)
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO index_meta (key, value) VALUES (?, ?)",
				metaKeyDimension, strconv.Itoa(want)); err != nil {
				return fmt.Errorf("pinning dimension: %w", err)
			}
			continue
		}
		if len(chunk.Embedding) != want {
			return fmt.Errorf("%w: chunk %s has %d, store has %d",
				domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), want)
		}
	}

	return nil
}

// GetRecord retrieves a record by content ID, including its chunks. The
// record row and its chunk rows are read inside one transaction so a
// concurrent replace can never produce a record paired with the wrong
// chunk set.
func (s *Store) GetRecord(ctx context.Context, contentID string) (*domain.ContentRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT content_id, source_name, mime_type, metadata, indexed_at
		FROM content_records WHERE content_id = ?
	`, contentID)

	var rec domain.ContentRecord
	var metadataJSON string
	if err := row.Scan(&rec.ContentID, &rec.SourceName, &rec.MIMEType,
		&metadataJSON, &rec.IndexedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", domain.ErrStoreCorruption, contentID, err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, content_id, position, text, embedding
		FROM chunks WHERE content_id = ?
		ORDER BY position
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", domain.ErrStoreCorruption, contentID, err)
		}
		rec.Chunks = append(rec.Chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return &rec, nil
}

// DeleteRecord removes a record and its chunks.
func (s *Store) DeleteRecord(ctx context.Context, contentID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM content_records WHERE content_id = ?", contentID)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// ListSummaries returns the manifest of all records.
func (s *Store) ListSummaries(ctx context.Context) ([]domain.ContentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_id, source_name, mime_type, chunk_count, indexed_at
		FROM content_records ORDER BY content_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ContentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.ContentSummary
		if err := rows.Scan(&sum.ContentID, &sum.SourceName, &sum.MIMEType,
			&sum.ChunkCount, &sum.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}

	return summaries, nil
}

// ListIDs returns every known content identifier.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT content_id FROM content_records ORDER BY content_id")
	if err != nil {
		return nil, fmt.Errorf("querying identifiers: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning identifier: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identifiers: %w", err)
	}

	return ids, nil
}

// AllChunks returns every stored chunk with its vector.
func (s *Store) AllChunks(ctx context.Context) ([]domain.ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content_id, position, text, embedding FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ChunkRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreCorruption, err)
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// Dimension returns the store's pinned vector dimension, or 0 when unpinned.
func (s *Store) Dimension(ctx context.Context) (int, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM index_meta WHERE key = ?", metaKeyDimension).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimension: %w", err)
	}

	dim, err := strconv.Atoi(stored)
	if err != nil {
		return 0, fmt.Errorf("%w: bad dimension value %q", domain.ErrStoreCorruption, stored)
	}
	return dim, nil
}

// scanChunk scans one chunk row.
func scanChunk(rows *sql.Rows) (*domain.ChunkRecord, error) {
	var chunk domain.ChunkRecord
	var blob []byte
	if err := rows.Scan(&chunk.ID, &chunk.ContentID, &chunk.Position,
		&chunk.Text, &blob); err != nil {
		return nil, err
	}

	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("chunk %s: embedding blob length %d not a multiple of 4",
			chunk.ID, len(blob))
	}
	chunk.Embedding = bytesToFloat32Slice(blob)

	return &chunk, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
