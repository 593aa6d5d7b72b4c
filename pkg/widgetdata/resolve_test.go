package widgetdata

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func intPtr(v int) *int { return &v }

func mockTodayData() TodayData {
	return TodayData{
		Site: Site{
			SiteID:   0,
			SiteName: "My WordPress Site",
			TimeZone: "UTC",
			Date:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		Stats: TodayStats{Views: 649, Visitors: 572, Likes: 16, Comments: 8},
	}
}

// countingLookup records calls so tests can assert the cache is untouched
// when an earlier check decides the outcome.
type countingLookup struct {
	MapLookup[TodayData]
	calls int
}

func (c *countingLookup) HasPayload(siteID string) bool {
	c.calls++
	return c.MapLookup.HasPayload(siteID)
}

func TestResolve_Scenarios(t *testing.T) {
	cached := MapLookup[TodayData]{"test": mockTodayData(), "123": mockTodayData()}

	tests := []struct {
		name      string
		selection SiteSelection
		defaultID *int
		isJetpack bool
		session   *SessionState
		cache     Lookup[TodayData]
		want      FailureKind
	}{
		{
			name:      "no session store",
			selection: Identifier("test"),
			defaultID: intPtr(123),
			isJetpack: true,
			session:   nil,
			cache:     cached,
			want:      FailureNoData,
		},
		{
			name:      "jetpack features disabled",
			selection: Unspecified(),
			defaultID: intPtr(123),
			isJetpack: true,
			session:   &SessionState{LoggedIn: true, JetpackFeaturesDisabled: true},
			cache:     cached,
			want:      FailureFeatureDisabled,
		},
		{
			name:      "logged out",
			selection: Unspecified(),
			isJetpack: true,
			session:   &SessionState{LoggedIn: false},
			cache:     cached,
			want:      FailureLoggedOut,
		},
		{
			name:      "no site",
			selection: Unspecified(),
			isJetpack: true,
			session:   &SessionState{LoggedIn: true},
			cache:     cached,
			want:      FailureNoSite,
		},
		{
			name:      "nothing cached",
			selection: Identifier("test"),
			defaultID: intPtr(123),
			isJetpack: true,
			session:   &SessionState{LoggedIn: true},
			cache:     MapLookup[TodayData]{},
			want:      FailureNoData,
		},
		{
			name:      "site selected",
			selection: Identifier("test"),
			defaultID: intPtr(123),
			isJetpack: true,
			session:   &SessionState{LoggedIn: true},
			cache:     cached,
			want:      FailureNone,
		},
		{
			name:      "default site used",
			selection: Unspecified(),
			defaultID: intPtr(123),
			isJetpack: false,
			session:   &SessionState{LoggedIn: true},
			cache:     cached,
			want:      FailureNone,
		},
		{
			name:      "nil cache",
			selection: Identifier("test"),
			session:   &SessionState{LoggedIn: true},
			cache:     nil,
			want:      FailureNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.selection, tt.defaultID, tt.isJetpack, tt.session, tt.cache)
			if got.Failure() != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got.Failure())
			}
			if got.OK() != (tt.want == FailureNone) {
				t.Errorf("OK() = %v for %v", got.OK(), got.Failure())
			}
			if !errors.Is(got.Err(), tt.want.Err()) {
				t.Errorf("Err() = %v, want %v", got.Err(), tt.want.Err())
			}
		})
	}
}

func TestResolve_FeatureDisabledIgnoredOutsideJetpack(t *testing.T) {
	// The WordPress app never reports the Jetpack-disabled state.
	session := &SessionState{LoggedIn: true, JetpackFeaturesDisabled: true}
	cache := MapLookup[TodayData]{"test": mockTodayData()}

	got := Resolve[TodayData](Identifier("test"), nil, false, session, cache)
	if !got.OK() {
		t.Fatalf("expected success, got %v", got)
	}

	loggedOut := &SessionState{LoggedIn: false, JetpackFeaturesDisabled: true}
	got = Resolve[TodayData](Identifier("test"), nil, false, loggedOut, cache)
	if got.Failure() != FailureLoggedOut {
		t.Errorf("expected logged_out, got %v", got)
	}
}

func TestResolve_ReturnsCachedPayloadUnchanged(t *testing.T) {
	want := mockTodayData()
	want.SiteID = 42
	want.URL = "https://example.wordpress.com"

	got, ok := Resolve[TodayData](Identifier("42"), nil, true, &SessionState{LoggedIn: true},
		MapLookup[TodayData]{"42": want}).Payload()
	if !ok {
		t.Fatal("expected success")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SelectionWinsOverDefault(t *testing.T) {
	selected := mockTodayData()
	selected.SiteName = "selected"
	fallback := mockTodayData()
	fallback.SiteName = "default"

	cache := MapLookup[TodayData]{"7": selected, "123": fallback}
	got, ok := Resolve[TodayData](Identifier("7"), intPtr(123), true, &SessionState{LoggedIn: true}, cache).Payload()
	if !ok || got.SiteName != "selected" {
		t.Errorf("expected selected site payload, got %+v (ok=%v)", got, ok)
	}

	// A selected site with no cached data does not fall back to the default.
	outcome := Resolve[TodayData](Identifier("8"), intPtr(123), true, &SessionState{LoggedIn: true}, cache)
	if outcome.Failure() != FailureNoData {
		t.Errorf("expected no_data, got %v", outcome)
	}
}

func TestResolve_EarlyFailuresSkipCache(t *testing.T) {
	sessions := []*SessionState{
		nil,
		{LoggedIn: true, JetpackFeaturesDisabled: true},
		{LoggedIn: false},
	}
	for _, session := range sessions {
		lookup := &countingLookup{MapLookup: MapLookup[TodayData]{"test": mockTodayData()}}
		Resolve[TodayData](Identifier("test"), nil, true, session, lookup)
		if lookup.calls != 0 {
			t.Errorf("session %+v: cache consulted %d times", session, lookup.calls)
		}
	}
}

// TestResolve_Precedence walks every combination of inputs and checks the
// first matching rule decides the outcome.
func TestResolve_Precedence(t *testing.T) {
	sessions := []*SessionState{
		nil,
		{LoggedIn: false, JetpackFeaturesDisabled: false},
		{LoggedIn: false, JetpackFeaturesDisabled: true},
		{LoggedIn: true, JetpackFeaturesDisabled: false},
		{LoggedIn: true, JetpackFeaturesDisabled: true},
	}
	selections := []SiteSelection{Unspecified(), Identifier("test")}
	defaults := []*int{nil, intPtr(123)}
	caches := []MapLookup[TodayData]{
		{},
		{"test": mockTodayData()},
		{"123": mockTodayData()},
	}

	for _, session := range sessions {
		for _, selection := range selections {
			for _, defaultID := range defaults {
				for _, isJetpack := range []bool{false, true} {
					for _, cache := range caches {
						got := Resolve[TodayData](selection, defaultID, isJetpack, session, cache)
						want := expectedFailure(selection, defaultID, isJetpack, session, cache)
						if got.Failure() != want {
							t.Errorf("session=%+v selection=%v default=%v jetpack=%v cache=%d: got %v want %v",
								session, selection, defaultID, isJetpack, len(cache), got.Failure(), want)
						}

						again := Resolve[TodayData](selection, defaultID, isJetpack, session, cache)
						if again.Failure() != got.Failure() {
							t.Errorf("resolution is not deterministic: %v then %v", got, again)
						}
					}
				}
			}
		}
	}
}

func expectedFailure(selection SiteSelection, defaultID *int, isJetpack bool, session *SessionState, cache MapLookup[TodayData]) FailureKind {
	if session == nil {
		return FailureNoData
	}
	if isJetpack && session.JetpackFeaturesDisabled {
		return FailureFeatureDisabled
	}
	if !session.LoggedIn {
		return FailureLoggedOut
	}
	id, ok := EffectiveSiteID(selection, defaultID)
	if !ok {
		return FailureNoSite
	}
	if _, ok := cache[id]; !ok {
		return FailureNoData
	}
	return FailureNone
}

func TestEffectiveSiteID(t *testing.T) {
	if id, ok := EffectiveSiteID(Identifier("abc"), intPtr(5)); !ok || id != "abc" {
		t.Errorf("expected abc, got %q (%v)", id, ok)
	}
	if id, ok := EffectiveSiteID(Unspecified(), intPtr(5)); !ok || id != "5" {
		t.Errorf("expected 5, got %q (%v)", id, ok)
	}
	if id, ok := EffectiveSiteID(Identifier(""), nil); ok {
		t.Errorf("expected no site for empty identifier, got %q", id)
	}
}

func TestFailureKindOf(t *testing.T) {
	for _, kind := range []FailureKind{FailureNoData, FailureNoSite, FailureLoggedOut, FailureFeatureDisabled} {
		got, ok := FailureKindOf(kind.Err())
		if !ok || got != kind {
			t.Errorf("FailureKindOf(%v) = %v, %v", kind.Err(), got, ok)
		}
	}
	if _, ok := FailureKindOf(errors.New("other")); ok {
		t.Error("expected unrelated error not to map to a failure kind")
	}
}

func TestKinds(t *testing.T) {
	if diff := cmp.Diff([]Kind{KindToday, KindThisWeek, KindAllTime}, Kinds(false)); diff != "" {
		t.Errorf("wordpress kinds (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Kind{KindToday, KindThisWeek, KindAllTime, KindLockScreen}, Kinds(true)); diff != "" {
		t.Errorf("jetpack kinds (-want +got):\n%s", diff)
	}
	if KindLockScreen.PayloadKind() != KindToday {
		t.Errorf("lock screen should read today payloads")
	}
}
