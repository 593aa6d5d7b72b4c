// Package widgetdata resolves what a home screen stats widget shows for a
// site: the cached stats payload, or the reason it cannot show one.
package widgetdata

import (
	"context"
	"fmt"

	"sitewidgets/pkg/store"
)

// Keys of the session flags in the shared store.
const (
	LoggedInKey                = "widget.stats.logged_in"
	JetpackFeaturesDisabledKey = "widget.stats.jetpack_features_disabled"
)

// SessionState is the app session as seen by the widgets.
type SessionState struct {
	LoggedIn                bool `json:"loggedIn" yaml:"logged_in"`
	JetpackFeaturesDisabled bool `json:"jetpackFeaturesDisabled" yaml:"jetpack_features_disabled"`
}

// SessionSource reads the current session. A nil state with a nil error
// means there is no session store at all.
type SessionSource interface {
	Session(ctx context.Context) (*SessionState, error)
}

// StoreSessionSource reads the session flags from a store. Missing flags
// read as false. A nil Store means the session store is unavailable.
type StoreSessionSource struct {
	Store store.Store
}

// NewStoreSessionSource creates a session source backed by s.
func NewStoreSessionSource(s store.Store) *StoreSessionSource {
	return &StoreSessionSource{Store: s}
}

func (s *StoreSessionSource) Session(ctx context.Context) (*SessionState, error) {
	if s == nil || s.Store == nil {
		return nil, nil
	}

	loggedIn, _, err := store.GetBool(ctx, s.Store, LoggedInKey)
	if err != nil {
		return nil, fmt.Errorf("read logged-in flag: %w", err)
	}
	disabled, _, err := store.GetBool(ctx, s.Store, JetpackFeaturesDisabledKey)
	if err != nil {
		return nil, fmt.Errorf("read jetpack-disabled flag: %w", err)
	}

	return &SessionState{LoggedIn: loggedIn, JetpackFeaturesDisabled: disabled}, nil
}

// WriteSession stores both session flags. The app calls this whenever the
// account or feature state changes.
func WriteSession(ctx context.Context, s store.Store, state SessionState) error {
	if err := store.SetBool(ctx, s, LoggedInKey, state.LoggedIn); err != nil {
		return fmt.Errorf("write logged-in flag: %w", err)
	}
	if err := store.SetBool(ctx, s, JetpackFeaturesDisabledKey, state.JetpackFeaturesDisabled); err != nil {
		return fmt.Errorf("write jetpack-disabled flag: %w", err)
	}
	return nil
}

// StaticSessionSource always returns the same state. A nil State behaves
// like a missing store.
type StaticSessionSource struct {
	State *SessionState
}

func (s StaticSessionSource) Session(ctx context.Context) (*SessionState, error) {
	if s.State == nil {
		return nil, nil
	}
	state := *s.State
	return &state, nil
}
