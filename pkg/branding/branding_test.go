package branding

import (
	"context"
	"errors"
	"testing"

	"sitewidgets/pkg/store"
)

type brokenFlags struct{ store.Store }

func (brokenFlags) Get(ctx context.Context, key string) (*store.Entry, error) {
	return nil, errors.New("flags unavailable")
}

func TestProvider_Text(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  string
	}{
		{"no flags", nil, DefaultText},
		{"phase one", []string{FlagPhaseOne}, DefaultText},
		{"phase two", []string{FlagPhaseOne, FlagPhaseTwo}, PhaseTwoText},
		{"phase three", []string{FlagPhaseTwo, FlagPhaseThree}, DefaultText},
		{"new users", []string{FlagPhaseNewUsers}, DefaultText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			flags := store.NewInMemoryStore()
			for _, key := range tt.flags {
				if err := store.SetBool(ctx, flags, key, true); err != nil {
					t.Fatal(err)
				}
			}

			p := Provider{Phases: FlagPhaseSource{Flags: flags}}
			if got := p.Text(ctx); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFlagPhaseSource_HighestWins(t *testing.T) {
	ctx := context.Background()
	flags := store.NewInMemoryStore()
	store.SetBool(ctx, flags, FlagPhaseOne, true)
	store.SetBool(ctx, flags, FlagPhaseFour, true)
	store.SetBool(ctx, flags, FlagPhaseTwo, false)

	phase, err := FlagPhaseSource{Flags: flags}.GeneralPhase(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if phase != PhaseFour {
		t.Errorf("expected phase four, got %v", phase)
	}
}

func TestProvider_FallsBackOnError(t *testing.T) {
	p := Provider{Phases: FlagPhaseSource{Flags: brokenFlags{}}}
	if got := p.Text(context.Background()); got != DefaultText {
		t.Errorf("expected default text, got %q", got)
	}
	if got := (Provider{}).Text(context.Background()); got != DefaultText {
		t.Errorf("expected default text without a phase source, got %q", got)
	}
}
