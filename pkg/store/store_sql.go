package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// SQLDialect defines the SQL syntax variant.
type SQLDialect string

const (
	DialectSQLite   SQLDialect = "sqlite"
	DialectPostgres SQLDialect = "postgres"
	DialectMySQL    SQLDialect = "mysql"
)

// DefaultTableName is used when no table name is given.
const DefaultTableName = "widget_store"

// SQLStore implements Store using database/sql.
// It supports SQLite, Postgres, and MySQL.
type SQLStore struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
}

// NewSQLStore creates a new SQL-backed store.
// The user is responsible for opening the *sql.DB with their preferred driver.
func NewSQLStore(db *sql.DB, tableName string, dialect SQLDialect) *SQLStore {
	if tableName == "" {
		tableName = DefaultTableName
	}
	return &SQLStore{
		db:        db,
		tableName: tableName,
		dialect:   dialect,
	}
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	keyType := "TEXT"
	blobType := "BLOB"
	timestampType := "TIMESTAMP"

	switch s.dialect {
	case DialectPostgres:
		blobType = "BYTEA"
		timestampType = "TIMESTAMPTZ"
	case DialectMySQL:
		keyType = "VARCHAR(255)"
		timestampType = "DATETIME(6)"
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			store_key %s PRIMARY KEY,
			value %s,
			created_at %s,
			expires_at %s NULL,
			metadata TEXT
		)
	`, s.tableName, keyType, blobType, timestampType, timestampType)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *SQLStore) placeholders(n int) []string {
	out := make([]string, n)
	for i := range out {
		if s.dialect == DialectPostgres {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

func (s *SQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	p := s.placeholders(2)
	query := fmt.Sprintf(`
		SELECT value, created_at, expires_at, metadata
		FROM %s
		WHERE store_key = %s
		  AND (expires_at IS NULL OR expires_at > %s)
	`, s.tableName, p[0], p[1])

	var value []byte
	var createdAt, expiresAt sql.NullTime
	var metadataJSON sql.NullString

	err := s.db.QueryRowContext(ctx, query, key, time.Now().UTC()).Scan(
		&value, &createdAt, &expiresAt, &metadataJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
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
	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}
	if expiresAt.Valid {
		entry.ExpiresAt = expiresAt.Time
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		var meta map[string]string
		if err := json.Unmarshal([]byte(metadataJSON.String), &meta); err != nil {
			return nil, &Error{Op: "get", Key: key, Cause: fmt.Errorf("unmarshal metadata: %w", err)}
		}
		entry.Metadata = meta
	}

	return entry, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, entry *Entry) error {
	phStr := strings.Join(s.placeholders(5), ", ")

	var query string
	if s.dialect == DialectMySQL {
		query = fmt.Sprintf(`
			INSERT INTO %s (store_key, value, created_at, expires_at, metadata)
			VALUES (%s)
			ON DUPLICATE KEY UPDATE
				value = VALUES(value),
				created_at = VALUES(created_at),
				expires_at = VALUES(expires_at),
				metadata = VALUES(metadata)
		`, s.tableName, phStr)
	} else {
		// SQLite and Postgres use ON CONFLICT
		query = fmt.Sprintf(`
			INSERT INTO %s (store_key, value, created_at, expires_at, metadata)
			VALUES (%s)
			ON CONFLICT(store_key) DO UPDATE SET
				value = excluded.value,
				created_at = excluded.created_at,
				expires_at = excluded.expires_at,
				metadata = excluded.metadata
		`, s.tableName, phStr)
	}

	valueBytes, metaJSON, err := encodeColumns(entry)
	if err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}

	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var expires any
	if !entry.ExpiresAt.IsZero() {
		expires = entry.ExpiresAt.UTC()
	}

	if _, err := s.db.ExecContext(ctx, query, key, valueBytes, created.UTC(), expires, string(metaJSON)); err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	p := s.placeholders(1)
	query := fmt.Sprintf("DELETE FROM %s WHERE store_key = %s", s.tableName, p[0])
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return &Error{Op: "delete", Key: key, Cause: err}
	}
	return nil
}

// encodeColumns marshals the value and metadata columns shared by the SQL backends.
func encodeColumns(entry *Entry) (value []byte, metadata []byte, err error) {
	if entry.Value != nil {
		value, err = proto.Marshal(entry.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal value: %w", err)
		}
	}
	if len(entry.Metadata) > 0 {
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	return value, metadata, nil
}
