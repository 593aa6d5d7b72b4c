// Package refresh keeps the widget payload cache fresh.
//
// A Refresher fetches stats for one widget kind and writes them to the cache
// the widgets read from. RefreshWorker runs refreshers as River jobs.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sitewidgets/pkg/widgetdata"
)

// Fetcher loads current stats for a site.
type Fetcher[T widgetdata.Payload] interface {
	Fetch(ctx context.Context, siteID string) (T, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T widgetdata.Payload] func(ctx context.Context, siteID string) (T, error)

func (f FetcherFunc[T]) Fetch(ctx context.Context, siteID string) (T, error) {
	return f(ctx, siteID)
}

// SiteRefresher refreshes one site's cached payload.
type SiteRefresher interface {
	Refresh(ctx context.Context, siteID string) error
}

// Refresher fetches payloads of type T and caches them. It refuses to
// refresh when the widgets would not show the data anyway.
type Refresher[T widgetdata.Payload] struct {
	Sessions  widgetdata.SessionSource
	Fetcher   Fetcher[T]
	Cache     *widgetdata.StoreCache[T]
	TTL       time.Duration
	IsJetpack bool
}

// Refresh fetches and caches the payload for siteID. Session gating returns
// the widgetdata failure sentinels.
func (r *Refresher[T]) Refresh(ctx context.Context, siteID string) error {
	if siteID == "" {
		return widgetdata.ErrNoSite
	}

	var session *widgetdata.SessionState
	if r.Sessions != nil {
		var err error
		session, err = r.Sessions.Session(ctx)
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
	}
	switch {
	case session == nil:
		return widgetdata.ErrNoData
	case r.IsJetpack && session.JetpackFeaturesDisabled:
		return widgetdata.ErrFeatureDisabled
	case !session.LoggedIn:
		return widgetdata.ErrLoggedOut
	}

	payload, err := r.Fetcher.Fetch(ctx, siteID)
	if err != nil {
		return fmt.Errorf("fetch %s stats for site %s: %w", payload.WidgetKind(), siteID, err)
	}
	if err := r.Cache.Put(ctx, siteID, payload, r.TTL); err != nil {
		return fmt.Errorf("cache %s stats for site %s: %w", payload.WidgetKind(), siteID, err)
	}
	return nil
}

// ErrNotFound is returned by FileFetcher when no file exists for a site.
var ErrNotFound = errors.New("stats not found")

// FileFetcher reads payloads from <Dir>/<kind>/<siteID>.json.
type FileFetcher[T widgetdata.Payload] struct {
	Dir string
}

// Path returns the file read for siteID.
func (f FileFetcher[T]) Path(siteID string) string {
	var zero T
	return filepath.Join(f.Dir, string(zero.WidgetKind()), filepath.Base(siteID)+".json")
}

func (f FileFetcher[T]) Fetch(ctx context.Context, siteID string) (T, error) {
	var payload T
	data, err := os.ReadFile(f.Path(siteID))
	if errors.Is(err, os.ErrNotExist) {
		return payload, fmt.Errorf("%w: %s", ErrNotFound, f.Path(siteID))
	}
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse %s: %w", f.Path(siteID), err)
	}
	return payload, nil
}
