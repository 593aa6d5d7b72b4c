package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// RedisStore implements Store using github.com/redis/go-redis/v9.
// Entries are written as a protobuf-encoded envelope and expire through
// Redis TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string // Optional key prefix (e.g., "sitewidgets:")
}

// NewRedisStore creates a new Redis-backed store.
// If prefix is empty, "sitewidgets:" is used.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sitewidgets:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// NewRedisStoreFromURL creates a Redis store from a connection URL.
// Example: "redis://localhost:6379/0" or "redis://:password@localhost:6379/1"
func NewRedisStoreFromURL(url string, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), prefix), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Cause: err}
	}

	entry, err := decodeEnvelope(data)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Cause: err}
	}

	// Redis TTL granularity is coarser than ours
	if entry.Expired(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		clone := *entry
		clone.CreatedAt = time.Now()
		entry = &clone
	}

	data, err := encodeEnvelope(entry)
	if err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}

	var ttl time.Duration
	if !entry.ExpiresAt.IsZero() {
		ttl = time.Until(entry.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Millisecond
		}
	}

	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return &Error{Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return &Error{Op: "delete", Key: key, Cause: err}
	}
	return nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Envelope field names.
const (
	fieldValue     = "value"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
	fieldMetadata  = "metadata"
)

// encodeEnvelope packs an entry into a structpb.Struct and marshals it.
func encodeEnvelope(entry *Entry) ([]byte, error) {
	env := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCreatedAt: structpb.NewStringValue(entry.CreatedAt.UTC().Format(time.RFC3339Nano)),
	}}
	if entry.Value != nil {
		env.Fields[fieldValue] = entry.Value
	}
	if !entry.ExpiresAt.IsZero() {
		env.Fields[fieldExpiresAt] = structpb.NewStringValue(entry.ExpiresAt.UTC().Format(time.RFC3339Nano))
	}
	if len(entry.Metadata) > 0 {
		meta := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(entry.Metadata))}
		for k, v := range entry.Metadata {
			meta.Fields[k] = structpb.NewStringValue(v)
		}
		env.Fields[fieldMetadata] = structpb.NewStructValue(meta)
	}

	data, err := proto.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (*Entry, error) {
	env := &structpb.Struct{}
	if err := proto.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	entry := &Entry{Value: env.Fields[fieldValue]}

	var err error
	if v, ok := env.Fields[fieldCreatedAt]; ok {
		if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, v.GetStringValue()); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
	}
	if v, ok := env.Fields[fieldExpiresAt]; ok {
		if entry.ExpiresAt, err = time.Parse(time.RFC3339Nano, v.GetStringValue()); err != nil {
			return nil, fmt.Errorf("parse expires_at: %w", err)
		}
	}
	if v, ok := env.Fields[fieldMetadata]; ok && v.GetStructValue() != nil {
		entry.Metadata = make(map[string]string, len(v.GetStructValue().Fields))
		for k, mv := range v.GetStructValue().Fields {
			entry.Metadata[k] = mv.GetStringValue()
		}
	}
	return entry, nil
}
