// Package branding picks the Jetpack badge text shown under stats widgets
// and other Jetpack-powered surfaces of the WordPress app.
package branding

import (
	"context"

	"sitewidgets/pkg/store"
)

// Phase is a step of the Jetpack features removal rollout.
type Phase int

const (
	PhaseNormal Phase = iota
	PhaseOne
	PhaseTwo
	PhaseThree
	PhaseFour
	PhaseNewUsers
)

func (p Phase) String() string {
	switch p {
	case PhaseOne:
		return "one"
	case PhaseTwo:
		return "two"
	case PhaseThree:
		return "three"
	case PhaseFour:
		return "four"
	case PhaseNewUsers:
		return "new_users"
	}
	return "normal"
}

// Remote feature flag keys, highest phase first.
const (
	FlagPhaseFour     = "jp_removal_four"
	FlagPhaseThree    = "jp_removal_three"
	FlagPhaseTwo      = "jp_removal_two"
	FlagPhaseOne      = "jp_removal_one"
	FlagPhaseNewUsers = "jp_removal_new_users"
)

// PhaseSource reports the current rollout phase.
type PhaseSource interface {
	GeneralPhase(ctx context.Context) (Phase, error)
}

// FlagPhaseSource derives the phase from feature flags in a store. The
// highest enabled phase wins.
type FlagPhaseSource struct {
	Flags store.Store
}

func (s FlagPhaseSource) GeneralPhase(ctx context.Context) (Phase, error) {
	ordered := []struct {
		key   string
		phase Phase
	}{
		{FlagPhaseFour, PhaseFour},
		{FlagPhaseThree, PhaseThree},
		{FlagPhaseTwo, PhaseTwo},
		{FlagPhaseOne, PhaseOne},
		{FlagPhaseNewUsers, PhaseNewUsers},
	}
	for _, f := range ordered {
		on, _, err := store.GetBool(ctx, s.Flags, f.key)
		if err != nil {
			return PhaseNormal, err
		}
		if on {
			return f.phase, nil
		}
	}
	return PhaseNormal, nil
}

// Badge titles.
const (
	DefaultText  = "Jetpack powered"
	PhaseTwoText = "Get the Jetpack app"
)

// Provider returns the badge text for the current phase.
type Provider struct {
	Phases PhaseSource
}

// Text returns the badge title. Unreadable flags fall back to the default.
func (p Provider) Text(ctx context.Context) string {
	if p.Phases == nil {
		return DefaultText
	}
	phase, err := p.Phases.GeneralPhase(ctx)
	if err != nil {
		return DefaultText
	}
	switch phase {
	case PhaseTwo:
		return PhaseTwoText
	default:
		return DefaultText
	}
}
