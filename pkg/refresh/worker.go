package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"sitewidgets/pkg/widgetdata"
)

// RefreshArgs asks for one widget's payload to be refreshed for one site.
type RefreshArgs struct {
	Widget widgetdata.Kind `json:"widget"`
	SiteID string          `json:"site_id"`
}

func (RefreshArgs) Kind() string { return "widget_refresh" }

// InsertOpts collapses duplicate refreshes of the same widget and site
// queued within a minute.
func (RefreshArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: time.Minute,
		},
	}
}

// RefreshWorker is a River worker that dispatches RefreshArgs jobs to the
// refresher registered for the job's widget kind.
type RefreshWorker struct {
	river.WorkerDefaults[RefreshArgs]

	// Refreshers maps payload kinds to their refresher.
	Refreshers map[widgetdata.Kind]SiteRefresher

	// JobTimeout bounds one refresh. Zero uses River's default.
	JobTimeout time.Duration
}

// NewRefreshWorker creates a worker with the given refreshers.
func NewRefreshWorker(refreshers map[widgetdata.Kind]SiteRefresher) *RefreshWorker {
	return &RefreshWorker{Refreshers: refreshers}
}

// Work refreshes the payload named by the job.
func (w *RefreshWorker) Work(ctx context.Context, job *river.Job[RefreshArgs]) error {
	kind := job.Args.Widget.PayloadKind()
	refresher, ok := w.Refreshers[kind]
	if !ok {
		return river.JobCancel(fmt.Errorf("no refresher for widget %q", job.Args.Widget))
	}

	if err := refresher.Refresh(ctx, job.Args.SiteID); err != nil {
		return classifyError(err)
	}
	return nil
}

func (w *RefreshWorker) Timeout(job *river.Job[RefreshArgs]) time.Duration {
	return w.JobTimeout
}

// classifyError converts refresh errors to River-appropriate errors.
// Session gating failures will not change by retrying, so the job is cancelled.
func classifyError(err error) error {
	if _, ok := widgetdata.FailureKindOf(err); ok {
		return river.JobCancel(err)
	}

	if errors.Is(err, ErrNotFound) {
		return river.JobCancel(err)
	}

	// Context cancellation - don't retry, job was cancelled
	if errors.Is(err, context.Canceled) {
		return river.JobCancel(err)
	}

	// Default: return error as-is, let River retry
	return err
}

// Register adds the worker to a River worker bundle.
func Register(workers *river.Workers, worker *RefreshWorker) {
	river.AddWorker(workers, worker)
}

// EnqueueSite queues a refresh of every given widget for siteID. Widgets
// sharing a payload are refreshed once.
func EnqueueSite[TTx any](ctx context.Context, client *river.Client[TTx], siteID string, kinds []widgetdata.Kind) error {
	params := make([]river.InsertManyParams, 0, len(kinds))
	for _, kind := range PayloadKinds(kinds) {
		params = append(params, river.InsertManyParams{Args: RefreshArgs{Widget: kind, SiteID: siteID}})
	}
	if _, err := client.InsertMany(ctx, params); err != nil {
		return fmt.Errorf("enqueue refresh for site %s: %w", siteID, err)
	}
	return nil
}

// PayloadKinds maps widgets to the distinct payload kinds behind them,
// keeping first-seen order.
func PayloadKinds(kinds []widgetdata.Kind) []widgetdata.Kind {
	seen := make(map[widgetdata.Kind]bool, len(kinds))
	out := make([]widgetdata.Kind, 0, len(kinds))
	for _, kind := range kinds {
		pk := kind.PayloadKind()
		if seen[pk] {
			continue
		}
		seen[pk] = true
		out = append(out, pk)
	}
	return out
}
