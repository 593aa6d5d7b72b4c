package widgetdata

import "errors"

// Failure sentinels, one per FailureKind.
var (
	// ErrNoData is returned when nothing is cached for the site or the
	// session store is missing.
	ErrNoData = errors.New("widget data: no data")

	// ErrNoSite is returned when neither a selection nor a default site exists.
	ErrNoSite = errors.New("widget data: no site")

	// ErrLoggedOut is returned when the session is not authenticated.
	ErrLoggedOut = errors.New("widget data: logged out")

	// ErrFeatureDisabled is returned when Jetpack features are turned off.
	ErrFeatureDisabled = errors.New("widget data: jetpack features disabled")
)

// FailureKind classifies why no payload could be produced.
type FailureKind int

const (
	// FailureNone marks a successful outcome.
	FailureNone FailureKind = iota
	FailureNoData
	FailureNoSite
	FailureLoggedOut
	FailureFeatureDisabled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "success"
	case FailureNoData:
		return "no_data"
	case FailureNoSite:
		return "no_site"
	case FailureLoggedOut:
		return "logged_out"
	case FailureFeatureDisabled:
		return "feature_disabled"
	}
	return "unknown"
}

// Err returns the sentinel error for the kind, nil for FailureNone.
func (k FailureKind) Err() error {
	switch k {
	case FailureNoData:
		return ErrNoData
	case FailureNoSite:
		return ErrNoSite
	case FailureLoggedOut:
		return ErrLoggedOut
	case FailureFeatureDisabled:
		return ErrFeatureDisabled
	}
	return nil
}

// FailureKindOf maps an error back to its kind. Errors that wrap none of the
// sentinels report FailureNone and false.
func FailureKindOf(err error) (FailureKind, bool) {
	switch {
	case errors.Is(err, ErrNoData):
		return FailureNoData, true
	case errors.Is(err, ErrNoSite):
		return FailureNoSite, true
	case errors.Is(err, ErrLoggedOut):
		return FailureLoggedOut, true
	case errors.Is(err, ErrFeatureDisabled):
		return FailureFeatureDisabled, true
	}
	return FailureNone, false
}
