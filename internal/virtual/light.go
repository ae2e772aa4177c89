package virtual

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Property, action and event names of a virtual light.
const (
	PropOn          = "on"
	PropLevel       = "level"
	PropTemperature = "temperature"

	ActionFade = "fade"

	EventOverheated = "overheated"
)

// ambient is the temperature of a light that is off.
const ambient = 20.0

func pinDescription(s Settings) protocol.PinDescription {
	if s.Pin == "" {
		return protocol.PinDescription{}
	}
	return protocol.PinDescription{Required: true, Pattern: `^\d{4}$`}
}

func ptr(f float64) *float64 { return &f }

// fadeInput is the JSON schema for the fade action's input.
var fadeInput = map[string]any{
	"type":     "object",
	"required": []any{"level"},
	"properties": map[string]any{
		"level":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"duration": map[string]any{"type": "number", "minimum": 0, "maximum": 3600},
	},
}

// light drives one simulated dimmable light.
type light struct {
	settings Settings
	logger   addon.Logger

	device      *addon.Device
	on          *addon.Property
	level       *addon.Property
	temperature *addon.Property

	// stateMu guards the simulated hardware state. Lock order: property
	// lock, then stateMu, then the temperature property's lock.
	stateMu    sync.Mutex
	lit        bool
	brightness float64
	temp       float64

	mu     sync.Mutex
	fades  map[string]context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// newLight builds the device. The caller announces it with
// HandleDeviceAdded.
func newLight(a *addon.Adapter, cfg LightSettings, settings Settings) (*light, error) {
	l := &light{
		settings: settings,
		logger:   a.Logger(),
		fades:    make(map[string]context.CancelFunc),
		temp:     ambient,
	}

	title := cfg.Title
	if title == "" {
		title = cfg.ID
	}
	d, err := addon.NewDevice(a, addon.DeviceOptions{
		ID:          cfg.ID,
		Title:       title,
		Types:       []string{"Light", "OnOffSwitch"},
		Description: "Simulated dimmable light",
		Pin:         pinDescription(settings),
		Handler:     l,
	})
	if err != nil {
		return nil, fmt.Errorf("creating light %s: %w", cfg.ID, err)
	}
	l.device = d

	l.on = d.AddProperty(PropOn, protocol.PropertyDescription{
		Title:  "On/Off",
		Type:   "boolean",
		AtType: "OnOffProperty",
	}, addon.WithInitialValue(false), addon.WithWriter(l.writeOn))

	l.level = d.AddProperty(PropLevel, protocol.PropertyDescription{
		Title:   "Brightness",
		Type:    "integer",
		AtType:  "BrightnessProperty",
		Unit:    "percent",
		Minimum: ptr(0),
		Maximum: ptr(100),
	}, addon.WithInitialValue(0.0), addon.WithWriter(l.writeLevel))

	l.temperature = d.AddProperty(PropTemperature, protocol.PropertyDescription{
		Title:    "Temperature",
		Type:     "number",
		AtType:   "TemperatureProperty",
		Unit:     "degree celsius",
		ReadOnly: true,
	}, addon.WithInitialValue(ambient))

	d.AddAction(ActionFade, protocol.ActionMetadata{
		Title:       "Fade",
		Description: "Fade to a brightness over a duration in seconds",
		AtType:      "FadeAction",
		Input:       fadeInput,
	})

	d.AddEvent(EventOverheated, protocol.EventMetadata{
		Title:  "Overheated",
		AtType: "OverheatedEvent",
		Type:   "number",
		Unit:   "degree celsius",
	})

	return l, nil
}

// writeOn runs under the on property's lock.
func (l *light) writeOn(ctx context.Context, _ *addon.Property, value any) error {
	on, _ := value.(bool)
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.lit = on
	l.heatLocked(ctx)
	return nil
}

// writeLevel runs under the level property's lock.
func (l *light) writeLevel(ctx context.Context, _ *addon.Property, value any) error {
	lvl, ok := value.(float64)
	if !ok {
		return fmt.Errorf("level %v is not a number", value)
	}
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.brightness = lvl
	l.heatLocked(ctx)
	return nil
}

// heatLocked moves the simulated temperature and raises overheated when
// it crosses the configured limit. stateMu must be held.
func (l *light) heatLocked(ctx context.Context) {
	temp := ambient
	if l.lit {
		temp += l.brightness * 3 / 10
	}
	prev := l.temp
	l.temp = temp

	if err := l.temperature.SetCachedValue(ctx, temp); err != nil {
		l.logger.Warn("failed to report temperature", "device_id", l.device.ID(), "error", err)
	}
	if temp > l.settings.OverheatAt && prev <= l.settings.OverheatAt {
		if err := l.device.EmitEvent(ctx, EventOverheated, temp); err != nil {
			l.logger.Warn("failed to raise overheated event", "device_id", l.device.ID(), "error", err)
		}
	}
}

// PerformAction starts a fade on its own goroutine and returns at once.
func (l *light) PerformAction(ctx context.Context, action *addon.Action) error {
	if action.Name() != ActionFade {
		return &addon.ActionError{Action: action.Name(), ID: action.ID(), Reason: "unsupported action"}
	}

	target, duration, err := parseFade(action.Input())
	if err != nil {
		return &addon.ActionError{Action: action.Name(), ID: action.ID(), Reason: err.Error()}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return &addon.ActionError{Action: action.Name(), ID: action.ID(), Reason: "light unloaded"}
	}
	fadeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.fades[action.ID()] = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	if err := action.Start(ctx); err != nil {
		l.logger.Warn("failed to report fade start", "action_id", action.ID(), "error", err)
	}

	go l.fade(fadeCtx, action, target, duration)
	return nil
}

func (l *light) fade(ctx context.Context, action *addon.Action, target float64, duration time.Duration) {
	defer l.wg.Done()
	defer l.forget(action.ID())

	if err := l.on.SetValue(ctx, true); err != nil {
		l.logger.Warn("fade could not switch light on", "device_id", l.device.ID(), "error", err)
	}

	start, _ := l.level.Value().(float64)
	step := l.settings.fadeStep()
	steps := int(duration / step)
	if steps < 1 {
		steps = 1
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		if i > 1 || steps > 1 {
			select {
			case <-ctx.Done():
				l.logger.Info("fade cancelled", "device_id", l.device.ID(), "action_id", action.ID())
				return
			case <-ticker.C:
			}
		}
		v := math.Round(start + (target-start)*float64(i)/float64(steps))
		if err := l.level.SetValue(ctx, v); err != nil {
			l.logger.Warn("fade step failed", "device_id", l.device.ID(), "level", v, "error", err)
		}
	}

	if err := action.Finish(ctx); err != nil {
		l.logger.Warn("failed to report fade completion", "action_id", action.ID(), "error", err)
	}
}

func (l *light) forget(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cancel, ok := l.fades[id]; ok {
		cancel()
		delete(l.fades, id)
	}
}

// CancelAction stops an in-flight fade where it is.
func (l *light) CancelAction(_ context.Context, action *addon.Action) error {
	l.mu.Lock()
	cancel, ok := l.fades[action.ID()]
	l.mu.Unlock()
	if !ok {
		return &addon.ActionError{Action: action.Name(), ID: action.ID(), Reason: "not running"}
	}
	cancel()
	return nil
}

// close cancels running fades and waits for them.
func (l *light) close() {
	l.mu.Lock()
	l.closed = true
	for _, cancel := range l.fades {
		cancel()
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func parseFade(input any) (float64, time.Duration, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return 0, 0, errors.New("input must be an object")
	}
	level, ok := m["level"].(float64)
	if !ok {
		return 0, 0, errors.New("level is required")
	}
	var seconds float64
	if d, ok := m["duration"].(float64); ok {
		seconds = d
	}
	return level, time.Duration(seconds * float64(time.Second)), nil
}
