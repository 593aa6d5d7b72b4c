package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// PostgresStore implements Store using github.com/jackc/pgx/v5.
// It shares its pgxpool with the River client when both are configured.
type PostgresStore struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewPostgresStore creates a new Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool, tableName string) *PostgresStore {
	if tableName == "" {
		tableName = DefaultTableName
	}
	return &PostgresStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			store_key TEXT PRIMARY KEY,
			value BYTEA,
			created_at TIMESTAMPTZ,
			expires_at TIMESTAMPTZ,
			metadata JSONB
		);
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	query := fmt.Sprintf(`
		SELECT value, created_at, expires_at, metadata
		FROM %s
		WHERE store_key = $1
		  AND (expires_at IS NULL OR expires_at > $2)
	`, s.tableName)

	var value []byte
	var createdAt, expiresAt *time.Time
	var metadataJSON []byte

	err := s.pool.QueryRow(ctx, query, key, time.Now()).Scan(
		&value, &createdAt, &expiresAt, &metadataJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Cause: err}
	}

	entry := &Entry{}
	if len(value) > 0 {
		v := &structpb.Value{}
		if err := proto.Unmarshal(value, v); err != nil {
			return nil, &Error{Op: "get", Key: key, Cause: fmt.Errorf("unmarshal value: %w", err)}
		}
		entry.Value = v
	}
	if createdAt != nil {
		entry.CreatedAt = *createdAt
	}
	if expiresAt != nil {
		entry.ExpiresAt = *expiresAt
	}
	if len(metadataJSON) > 0 {
		var meta map[string]string
		if err := json.Unmarshal(metadataJSON, &meta); err != nil {
			return nil, &Error{Op: "get", Key: key, Cause: fmt.Errorf("unmarshal metadata: %w", err)}
		}
		entry.Metadata = meta
	}

	return entry, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, entry *Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (store_key, value, created_at, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(store_key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			metadata = excluded.metadata
	`, s.tableName)

	valueBytes, metaJSON, err := encodeColumns(entry)
	if err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}

	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var expires *time.Time
	if !entry.ExpiresAt.IsZero() {
		expires = &entry.ExpiresAt
	}

	if _, err := s.pool.Exec(ctx, query, key, valueBytes, created, expires, metaJSON); err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE store_key = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return &Error{Op: "delete", Key: key, Cause: err}
	}
	return nil
}
