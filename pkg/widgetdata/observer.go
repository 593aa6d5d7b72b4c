package widgetdata

import (
	"context"
	"time"
)

// Observer is the interface for observing widget data resolution.
// Implementations can emit metrics, logs, or traces to their observability backend.
//
// Observer methods are called synchronously from Reader.WidgetData, so
// implementations should be fast and non-blocking.
type Observer interface {
	// OnResolve is called once per WidgetData call with the outcome.
	OnResolve(ctx context.Context, event *ResolveEvent)

	// OnCacheCheck is called when the payload cache is consulted.
	OnCacheCheck(ctx context.Context, event *CacheCheckEvent)
}

// ResolveEvent is emitted when a widget data request completes.
type ResolveEvent struct {
	RequestID string
	Widget    string // Reader name
	Kind      Kind
	SiteID    string // Effective site id, empty when none resolved
	IsJetpack bool
	Outcome   FailureKind
	StartTime time.Time
	Duration  time.Duration

	// SessionError is set when the session store could not be read.
	SessionError error
}

// CacheCheckEvent is emitted when the payload cache is consulted.
type CacheCheckEvent struct {
	RequestID string
	Widget    string
	Kind      Kind
	SiteID    string
	Hit       bool
	Latency   time.Duration
	Error     error // nil if the lookup succeeded
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) OnResolve(ctx context.Context, event *ResolveEvent)       {}
func (NoOpObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {}

// MultiObserver combines multiple observers into one.
// Events are sent to all observers in order.
type MultiObserver struct {
	Observers []Observer
}

func (m *MultiObserver) OnResolve(ctx context.Context, event *ResolveEvent) {
	for _, obs := range m.Observers {
		obs.OnResolve(ctx, event)
	}
}

func (m *MultiObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	for _, obs := range m.Observers {
		obs.OnCacheCheck(ctx, event)
	}
}
