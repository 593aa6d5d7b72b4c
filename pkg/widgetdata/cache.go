package widgetdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"sitewidgets/pkg/store"
)

// Cache reads cached widget payloads.
type Cache[T Payload] interface {
	// Get returns the payload for siteID. found is false on a miss.
	Get(ctx context.Context, siteID string) (payload T, found bool, err error)
}

// StoreCache keeps widget payloads in a store, one entry per site and kind.
type StoreCache[T Payload] struct {
	store  store.Store
	prefix string
}

// NewStoreCache creates a cache for payloads of type T in s.
func NewStoreCache[T Payload](s store.Store) *StoreCache[T] {
	return &StoreCache[T]{store: s, prefix: "widget."}
}

// Key returns the store key for siteID.
func (c *StoreCache[T]) Key(siteID string) string {
	var zero T
	return fmt.Sprintf("%s%s.%s", c.prefix, zero.WidgetKind(), siteID)
}

func (c *StoreCache[T]) Get(ctx context.Context, siteID string) (T, bool, error) {
	var zero T
	entry, err := c.store.Get(ctx, c.Key(siteID))
	if err != nil {
		return zero, false, err
	}
	if entry == nil || entry.Value == nil {
		return zero, false, nil
	}

	payload, err := decodePayload[T](entry.Value)
	if err != nil {
		return zero, false, fmt.Errorf("decode %s payload for site %s: %w", zero.WidgetKind(), siteID, err)
	}
	return payload, true, nil
}

// Put caches payload for siteID. ttl of 0 keeps it until replaced.
func (c *StoreCache[T]) Put(ctx context.Context, siteID string, payload T, ttl time.Duration) error {
	value, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload for site %s: %w", payload.WidgetKind(), siteID, err)
	}
	entry := store.NewEntry(value, ttl)
	entry.Metadata = map[string]string{"kind": string(payload.WidgetKind())}
	return c.store.Set(ctx, c.Key(siteID), entry)
}

// Delete evicts the payload for siteID.
func (c *StoreCache[T]) Delete(ctx context.Context, siteID string) error {
	return c.store.Delete(ctx, c.Key(siteID))
}

func encodePayload[T Payload](payload T) (*structpb.Value, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	value := &structpb.Value{}
	if err := protojson.Unmarshal(data, value); err != nil {
		return nil, err
	}
	return value, nil
}

func decodePayload[T Payload](value *structpb.Value) (T, error) {
	var payload T
	data, err := protojson.Marshal(value)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
