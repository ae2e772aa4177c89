package virtual

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Settings is the add-on's stored configuration.
type Settings struct {
	Lights []LightSettings `json:"lights"`

	// OverheatAt is the simulated temperature, in °C, above which a light
	// raises its overheated event.
	OverheatAt float64 `json:"overheatAt"`

	// FadeStepMS is the interval between fade steps.
	FadeStepMS int `json:"fadeStepMs"`

	// Pin, when set, is required to pair lights added during pairing.
	Pin string `json:"pin,omitempty"`
}

// LightSettings describes one simulated light.
type LightSettings struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DefaultSettings is used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{
		Lights: []LightSettings{
			{ID: "virtual-light-1", Title: "Virtual Light"},
		},
		OverheatAt: 45,
		FadeStepMS: 100,
	}
}

func (s Settings) fadeStep() time.Duration {
	if s.FadeStepMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(s.FadeStepMS) * time.Millisecond
}

func (s Settings) validate() error {
	seen := make(map[string]bool, len(s.Lights))
	for i, l := range s.Lights {
		if l.ID == "" {
			return fmt.Errorf("lights[%d]: id is required", i)
		}
		if seen[l.ID] {
			return fmt.Errorf("lights[%d]: duplicate id %q", i, l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

// SettingsLoader reads stored configuration. *settings.Store implements it.
type SettingsLoader interface {
	LoadConfig(ctx context.Context, v any) (bool, error)
}

// LoadSettings reads stored settings over the defaults. A nil loader or an
// add-on with nothing stored yields the defaults.
func LoadSettings(ctx context.Context, loader SettingsLoader) (Settings, error) {
	s := DefaultSettings()
	if loader == nil {
		return s, nil
	}

	found, err := loader.LoadConfig(ctx, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	if !found {
		return DefaultSettings(), nil
	}
	if err := s.validate(); err != nil {
		return Settings{}, errors.Join(ErrInvalidSettings, err)
	}
	return s, nil
}

// ErrInvalidSettings marks stored settings that cannot be used.
var ErrInvalidSettings = errors.New("virtual: invalid settings")
