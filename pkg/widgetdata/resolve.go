package widgetdata

// Lookup answers whether a payload is cached for a site and returns it.
type Lookup[T any] interface {
	HasPayload(siteID string) bool
	Payload(siteID string) (T, bool)
}

// Resolve decides what a widget shows. Checks run in order and the first
// match wins:
//
//  1. no session: NoData
//  2. Jetpack app with features disabled: FeatureDisabled
//  3. logged out: LoggedOut
//  4. no selection and no default site: NoSite
//  5. nothing cached for the site: NoData
//  6. otherwise the cached payload, unchanged
//
// Resolve has no side effects beyond calling cache.
func Resolve[T any](
	selection SiteSelection,
	defaultSiteID *int,
	isJetpack bool,
	session *SessionState,
	cache Lookup[T],
) Outcome[T] {
	if session == nil {
		return Failure[T](FailureNoData)
	}
	if isJetpack && session.JetpackFeaturesDisabled {
		return Failure[T](FailureFeatureDisabled)
	}
	if !session.LoggedIn {
		return Failure[T](FailureLoggedOut)
	}

	siteID, ok := EffectiveSiteID(selection, defaultSiteID)
	if !ok {
		return Failure[T](FailureNoSite)
	}

	if cache == nil || !cache.HasPayload(siteID) {
		return Failure[T](FailureNoData)
	}
	payload, ok := cache.Payload(siteID)
	if !ok {
		return Failure[T](FailureNoData)
	}
	return Success(payload)
}

// MapLookup is an in-process Lookup keyed by site id.
type MapLookup[T any] map[string]T

func (m MapLookup[T]) HasPayload(siteID string) bool {
	_, ok := m[siteID]
	return ok
}

func (m MapLookup[T]) Payload(siteID string) (T, bool) {
	p, ok := m[siteID]
	return p, ok
}
