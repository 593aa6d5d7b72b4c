package widgetdata

import (
	"context"
	"log/slog"
)

// SlogObserver implements Observer using Go's structured logging (log/slog).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	reader := widgetdata.NewReader(sessions, cache,
//		widgetdata.WithObserver(widgetdata.NewSlogObserver(logger, slog.LevelInfo)))
type SlogObserver struct {
	logger   *slog.Logger
	minLevel slog.Level
}

// NewSlogObserver creates an observer that logs to the given slog.Logger.
// Only events at or above minLevel will be logged.
func NewSlogObserver(logger *slog.Logger, minLevel slog.Level) *SlogObserver {
	return &SlogObserver{
		logger:   logger,
		minLevel: minLevel,
	}
}

func (o *SlogObserver) OnResolve(ctx context.Context, event *ResolveEvent) {
	attrs := []any{
		slog.String("request_id", event.RequestID),
		slog.String("widget", event.Widget),
		slog.String("kind", string(event.Kind)),
		slog.String("site_id", event.SiteID),
		slog.Bool("jetpack", event.IsJetpack),
		slog.String("outcome", event.Outcome.String()),
		slog.Duration("duration", event.Duration),
	}

	if event.SessionError != nil {
		if o.minLevel <= slog.LevelWarn {
			attrs = append(attrs, slog.String("error", event.SessionError.Error()))
			o.logger.WarnContext(ctx, "session store unreadable", attrs...)
		}
		return
	}

	if o.minLevel <= slog.LevelInfo {
		o.logger.InfoContext(ctx, "widget data resolved", attrs...)
	}
}

func (o *SlogObserver) OnCacheCheck(ctx context.Context, event *CacheCheckEvent) {
	if event.Error != nil {
		if o.minLevel <= slog.LevelWarn {
			o.logger.WarnContext(ctx, "cache check failed",
				slog.String("request_id", event.RequestID),
				slog.String("kind", string(event.Kind)),
				slog.String("site_id", event.SiteID),
				slog.String("error", event.Error.Error()),
			)
		}
		return
	}

	if o.minLevel <= slog.LevelDebug {
		o.logger.DebugContext(ctx, "cache check",
			slog.String("request_id", event.RequestID),
			slog.String("kind", string(event.Kind)),
			slog.String("site_id", event.SiteID),
			slog.Bool("hit", event.Hit),
			slog.Duration("latency", event.Latency),
		)
	}
}
