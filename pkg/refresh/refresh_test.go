package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"sitewidgets/pkg/store"
	"sitewidgets/pkg/widgetdata"
)

// newTestJob creates a test job with the given ID and args.
func newTestJob[T river.JobArgs](id int64, args T) *river.Job[T] {
	return &river.Job[T]{
		JobRow: &rivertype.JobRow{
			ID: id,
		},
		Args: args,
	}
}

func todayPayload(siteID int) widgetdata.TodayData {
	return widgetdata.TodayData{
		Site: widgetdata.Site{
			SiteID:   siteID,
			SiteName: "Refreshed",
			TimeZone: "UTC",
			Date:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		Stats: widgetdata.TodayStats{Views: 10, Visitors: 5},
	}
}

func newRefresher(t *testing.T, s store.Store, session widgetdata.SessionState, fetch FetcherFunc[widgetdata.TodayData]) *Refresher[widgetdata.TodayData] {
	t.Helper()
	if err := widgetdata.WriteSession(context.Background(), s, session); err != nil {
		t.Fatal(err)
	}
	return &Refresher[widgetdata.TodayData]{
		Sessions:  widgetdata.NewStoreSessionSource(s),
		Fetcher:   fetch,
		Cache:     widgetdata.NewStoreCache[widgetdata.TodayData](s),
		TTL:       time.Hour,
		IsJetpack: true,
	}
}

func TestRefresher_WritesCache(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	r := newRefresher(t, s, widgetdata.SessionState{LoggedIn: true},
		func(ctx context.Context, siteID string) (widgetdata.TodayData, error) {
			return todayPayload(123), nil
		})

	if err := r.Refresh(ctx, "123"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	reader := widgetdata.NewReader[widgetdata.TodayData](r.Sessions, r.Cache)
	got, ok := reader.WidgetData(ctx, widgetdata.Identifier("123"), nil, true).Payload()
	if !ok {
		t.Fatal("expected refreshed payload to be readable")
	}
	if diff := cmp.Diff(todayPayload(123), got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestRefresher_Gating(t *testing.T) {
	fetched := 0
	fetch := func(ctx context.Context, siteID string) (widgetdata.TodayData, error) {
		fetched++
		return todayPayload(1), nil
	}

	tests := []struct {
		name    string
		session widgetdata.SessionState
		siteID  string
		want    error
	}{
		{"logged out", widgetdata.SessionState{LoggedIn: false}, "1", widgetdata.ErrLoggedOut},
		{"disabled", widgetdata.SessionState{LoggedIn: true, JetpackFeaturesDisabled: true}, "1", widgetdata.ErrFeatureDisabled},
		{"no site", widgetdata.SessionState{LoggedIn: true}, "", widgetdata.ErrNoSite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRefresher(t, store.NewInMemoryStore(), tt.session, fetch)
			if err := r.Refresh(context.Background(), tt.siteID); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if fetched != 0 {
		t.Errorf("fetcher called %d times for gated refreshes", fetched)
	}

	r := &Refresher[widgetdata.TodayData]{Fetcher: FetcherFunc[widgetdata.TodayData](fetch)}
	if err := r.Refresh(context.Background(), "1"); !errors.Is(err, widgetdata.ErrNoData) {
		t.Errorf("expected ErrNoData without a session source, got %v", err)
	}
}

func TestRefreshWorker_Work(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	r := newRefresher(t, s, widgetdata.SessionState{LoggedIn: true},
		func(ctx context.Context, siteID string) (widgetdata.TodayData, error) {
			return todayPayload(7), nil
		})
	worker := NewRefreshWorker(map[widgetdata.Kind]SiteRefresher{widgetdata.KindToday: r})

	// Lock screen jobs refresh today's payload.
	job := newTestJob(1, RefreshArgs{Widget: widgetdata.KindLockScreen, SiteID: "7"})
	if err := worker.Work(ctx, job); err != nil {
		t.Fatalf("Work failed: %v", err)
	}
	if _, found, _ := r.Cache.Get(ctx, "7"); !found {
		t.Error("expected payload to be cached")
	}
}

func TestRefreshWorker_GatingCancelsJob(t *testing.T) {
	r := newRefresher(t, store.NewInMemoryStore(), widgetdata.SessionState{LoggedIn: false},
		func(ctx context.Context, siteID string) (widgetdata.TodayData, error) {
			return todayPayload(7), nil
		})
	worker := NewRefreshWorker(map[widgetdata.Kind]SiteRefresher{widgetdata.KindToday: r})

	err := worker.Work(context.Background(), newTestJob(2, RefreshArgs{Widget: widgetdata.KindToday, SiteID: "7"}))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err == widgetdata.ErrLoggedOut || !errors.Is(err, widgetdata.ErrLoggedOut) {
		t.Errorf("expected cancelled job wrapping ErrLoggedOut, got: %v", err)
	}
}

func TestRefreshWorker_FetchErrorIsRetried(t *testing.T) {
	fetchErr := errors.New("stats api unavailable")
	r := newRefresher(t, store.NewInMemoryStore(), widgetdata.SessionState{LoggedIn: true},
		func(ctx context.Context, siteID string) (widgetdata.TodayData, error) {
			return widgetdata.TodayData{}, fetchErr
		})
	worker := NewRefreshWorker(map[widgetdata.Kind]SiteRefresher{widgetdata.KindToday: r})

	err := worker.Work(context.Background(), newTestJob(3, RefreshArgs{Widget: widgetdata.KindToday, SiteID: "7"}))
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Expected fetch error in chain, got: %v", err)
	}
	if _, ok := widgetdata.FailureKindOf(err); ok {
		t.Errorf("fetch error should not look like a gating failure: %v", err)
	}
}

func TestRefreshWorker_UnknownWidget(t *testing.T) {
	worker := NewRefreshWorker(map[widgetdata.Kind]SiteRefresher{})
	err := worker.Work(context.Background(), newTestJob(4, RefreshArgs{Widget: widgetdata.KindAllTime, SiteID: "7"}))
	if err == nil {
		t.Fatal("Expected error for unregistered widget")
	}
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	want := widgetdata.AllTimeData{
		Site:  widgetdata.Site{SiteID: 5, SiteName: "From disk", TimeZone: "UTC", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Stats: widgetdata.AllTimeStats{Views: 1000, Visitors: 400, Posts: 12, BestViews: 90},
	}
	fetcher := FileFetcher[widgetdata.AllTimeData]{Dir: dir}

	if err := os.MkdirAll(filepath.Dir(fetcher.Path("5")), 0o755); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(want)
	if err := os.WriteFile(fetcher.Path("5"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := fetcher.Fetch(context.Background(), "5")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	if _, err := fetcher.Fetch(context.Background(), "6"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPayloadKinds(t *testing.T) {
	got := PayloadKinds(widgetdata.Kinds(true))
	want := []widgetdata.Kind{widgetdata.KindToday, widgetdata.KindThisWeek, widgetdata.KindAllTime}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload kinds (-want +got):\n%s", diff)
	}
}
