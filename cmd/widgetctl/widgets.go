package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sitewidgets/internal/config"
	"sitewidgets/pkg/refresh"
	"sitewidgets/pkg/store"
	"sitewidgets/pkg/widgetdata"
)

// resolution is the printed result of resolving one widget.
type resolution struct {
	Widget  widgetdata.Kind `json:"widget"`
	Outcome string          `json:"outcome"`
	Payload any             `json:"payload,omitempty"`
}

func resolveWidget(ctx context.Context, s store.Store, kind widgetdata.Kind, selection widgetdata.SiteSelection, defaultSite *int, isJetpack bool, observer widgetdata.Observer) (resolution, error) {
	switch kind.PayloadKind() {
	case widgetdata.KindToday:
		return resolveAs[widgetdata.TodayData](ctx, s, kind, selection, defaultSite, isJetpack, observer), nil
	case widgetdata.KindThisWeek:
		return resolveAs[widgetdata.ThisWeekData](ctx, s, kind, selection, defaultSite, isJetpack, observer), nil
	case widgetdata.KindAllTime:
		return resolveAs[widgetdata.AllTimeData](ctx, s, kind, selection, defaultSite, isJetpack, observer), nil
	}
	return resolution{}, fmt.Errorf("unknown widget kind %q", kind)
}

func resolveAs[T widgetdata.Payload](ctx context.Context, s store.Store, kind widgetdata.Kind, selection widgetdata.SiteSelection, defaultSite *int, isJetpack bool, observer widgetdata.Observer) resolution {
	reader := widgetdata.NewReader[T](
		widgetdata.NewStoreSessionSource(s),
		widgetdata.NewStoreCache[T](s),
		widgetdata.WithKind(kind),
		widgetdata.WithObserver(observer),
	)
	outcome := reader.WidgetData(ctx, selection, defaultSite, isJetpack)

	res := resolution{Widget: kind, Outcome: outcome.String()}
	if payload, ok := outcome.Payload(); ok {
		res.Payload = payload
	}
	return res
}

// putPayload decodes data as the payload for kind and caches it.
func putPayload(ctx context.Context, s store.Store, kind widgetdata.Kind, siteID string, data []byte, ttl time.Duration) error {
	switch kind.PayloadKind() {
	case widgetdata.KindToday:
		return putAs[widgetdata.TodayData](ctx, s, siteID, data, ttl)
	case widgetdata.KindThisWeek:
		return putAs[widgetdata.ThisWeekData](ctx, s, siteID, data, ttl)
	case widgetdata.KindAllTime:
		return putAs[widgetdata.AllTimeData](ctx, s, siteID, data, ttl)
	}
	return fmt.Errorf("unknown widget kind %q", kind)
}

func putAs[T widgetdata.Payload](ctx context.Context, s store.Store, siteID string, data []byte, ttl time.Duration) error {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse %s payload: %w", payload.WidgetKind(), err)
	}
	return widgetdata.NewStoreCache[T](s).Put(ctx, siteID, payload, ttl)
}

func deletePayload(ctx context.Context, s store.Store, kind widgetdata.Kind, siteID string) error {
	switch kind.PayloadKind() {
	case widgetdata.KindToday:
		return widgetdata.NewStoreCache[widgetdata.TodayData](s).Delete(ctx, siteID)
	case widgetdata.KindThisWeek:
		return widgetdata.NewStoreCache[widgetdata.ThisWeekData](s).Delete(ctx, siteID)
	case widgetdata.KindAllTime:
		return widgetdata.NewStoreCache[widgetdata.AllTimeData](s).Delete(ctx, siteID)
	}
	return fmt.Errorf("unknown widget kind %q", kind)
}

// refreshers builds a file-backed refresher for every payload kind.
func refreshers(s store.Store, cfg *config.Config) map[widgetdata.Kind]refresh.SiteRefresher {
	sessions := widgetdata.NewStoreSessionSource(s)
	return map[widgetdata.Kind]refresh.SiteRefresher{
		widgetdata.KindToday:    newRefresher[widgetdata.TodayData](s, sessions, cfg),
		widgetdata.KindThisWeek: newRefresher[widgetdata.ThisWeekData](s, sessions, cfg),
		widgetdata.KindAllTime:  newRefresher[widgetdata.AllTimeData](s, sessions, cfg),
	}
}

func newRefresher[T widgetdata.Payload](s store.Store, sessions widgetdata.SessionSource, cfg *config.Config) *refresh.Refresher[T] {
	return &refresh.Refresher[T]{
		Sessions:  sessions,
		Fetcher:   refresh.FileFetcher[T]{Dir: cfg.Refresh.FetchDir},
		Cache:     widgetdata.NewStoreCache[T](s),
		TTL:       cfg.Cache.TTL,
		IsJetpack: cfg.Jetpack,
	}
}
