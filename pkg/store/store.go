// Package store provides the key/value persistence shared by the widget
// session flags, the cached widget payloads and the branding feature flags.
//
// Values are protobuf well-known values (structpb.Value) so every backend
// serializes them the same way.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is a stored value with its bookkeeping.
type Entry struct {
	// Value is the stored value. Booleans, numbers, strings and JSON-like
	// objects are all representable.
	Value *structpb.Value

	// CreatedAt is set by the store on write when zero.
	CreatedAt time.Time

	// ExpiresAt is the instant after which the entry reads as not found.
	// Zero means the entry never expires.
	ExpiresAt time.Time

	// Metadata is free-form string data carried alongside the value.
	Metadata map[string]string
}

// Expired reports whether the entry has expired at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !e.ExpiresAt.After(now)
}

// Store is the interface for key/value persistence.
// Implementations (SQL, Postgres, Redis, Memory) must be thread-safe.
type Store interface {
	// Get retrieves a stored entry.
	// Returns (nil, nil) if key not found or expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes an entry.
	Delete(ctx context.Context, key string) error
}

// ErrUnexpectedType is returned when a stored value does not have the kind
// the caller asked for.
var ErrUnexpectedType = errors.New("unexpected value type")

// Error wraps a backend failure with the operation and key it concerned.
type Error struct {
	Op    string
	Key   string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewEntry builds an entry for value that expires after ttl (0 = never).
func NewEntry(value *structpb.Value, ttl time.Duration) *Entry {
	now := time.Now()
	entry := &Entry{Value: value, CreatedAt: now}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	return entry
}

// SetBool stores a boolean flag under key without expiry.
func SetBool(ctx context.Context, s Store, key string, v bool) error {
	return s.Set(ctx, key, NewEntry(structpb.NewBoolValue(v), 0))
}

// GetBool reads a boolean flag. found is false when the key is absent.
func GetBool(ctx context.Context, s Store, key string) (value bool, found bool, err error) {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return false, false, err
	}
	if entry == nil || entry.Value == nil {
		return false, false, nil
	}
	b, ok := entry.Value.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, true, &Error{Op: "get", Key: key, Cause: ErrUnexpectedType}
	}
	return b.BoolValue, true, nil
}
