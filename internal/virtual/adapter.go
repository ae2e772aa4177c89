package virtual

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
)

// adapterHandler simulates discovery: pairing finds one new light.
type adapterHandler struct {
	addon.BaseAdapterHandler

	settings Settings

	mu      sync.Mutex
	lights  map[string]*light
	next    int
	pairing context.CancelFunc
	pairGen int
	wg      sync.WaitGroup
}

func newAdapterHandler(s Settings) *adapterHandler {
	return &adapterHandler{
		settings: s,
		lights:   make(map[string]*light),
		next:     len(s.Lights) + 1,
	}
}

// addLight builds and announces a light.
func (h *adapterHandler) addLight(ctx context.Context, a *addon.Adapter, cfg LightSettings) error {
	l, err := newLight(a, cfg, h.settings)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.lights[cfg.ID] = l
	h.mu.Unlock()
	return a.HandleDeviceAdded(ctx, l.device)
}

func (h *adapterHandler) light(id string) (*light, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.lights[id]
	return l, ok
}

// StartPairing "discovers" a light after a short delay unless pairing is
// cancelled or times out first.
func (h *adapterHandler) StartPairing(ctx context.Context, a *addon.Adapter, timeout time.Duration) error {
	h.mu.Lock()
	if h.pairing != nil {
		h.mu.Unlock()
		return nil
	}
	pairCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	h.pairing = cancel
	h.pairGen++
	gen := h.pairGen
	id := fmt.Sprintf("virtual-light-%d", h.next)
	h.next++
	h.wg.Add(1)
	h.mu.Unlock()

	if err := a.SendPairingPrompt(ctx, addon.Prompt{Message: "Looking for virtual lights"}); err != nil {
		a.Logger().Warn("failed to send pairing prompt", "error", err)
	}

	go func() {
		defer h.wg.Done()
		defer h.endPairing(gen)

		select {
		case <-pairCtx.Done():
			return
		case <-time.After(discoveryDelay(timeout)):
		}
		if err := h.addLight(pairCtx, a, LightSettings{ID: id, Title: "Discovered Light"}); err != nil {
			a.Logger().Warn("failed to add discovered light", "device_id", id, "error", err)
		}
	}()
	return nil
}

func discoveryDelay(timeout time.Duration) time.Duration {
	if d := timeout / 4; d < time.Second {
		return d
	}
	return time.Second
}

// endPairing stops pairing run gen. Zero stops whichever is running.
func (h *adapterHandler) endPairing(gen int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pairing != nil && (gen == 0 || gen == h.pairGen) {
		h.pairing()
		h.pairing = nil
	}
}

func (h *adapterHandler) CancelPairing(context.Context, *addon.Adapter) error {
	h.endPairing(0)
	return nil
}

func (h *adapterHandler) RemoveDevice(ctx context.Context, a *addon.Adapter, d *addon.Device) error {
	h.mu.Lock()
	l, ok := h.lights[d.ID()]
	delete(h.lights, d.ID())
	h.mu.Unlock()
	if ok {
		l.close()
	}
	return a.HandleDeviceRemoved(ctx, d)
}

// SetPin accepts the configured PIN.
func (h *adapterHandler) SetPin(_ context.Context, _ *addon.Adapter, d *addon.Device, pin string) error {
	if h.settings.Pin == "" || pin != h.settings.Pin {
		return fmt.Errorf("%w: wrong pin for %s", addon.ErrSetPin, d.ID())
	}
	d.SetPin(pinDescription(Settings{}))
	return nil
}

// Unload stops pairing and every running fade.
func (h *adapterHandler) Unload(context.Context, *addon.Adapter) error {
	h.endPairing(0)
	h.wg.Wait()

	h.mu.Lock()
	lights := make([]*light, 0, len(h.lights))
	for _, l := range h.lights {
		lights = append(lights, l)
	}
	h.mu.Unlock()

	for _, l := range lights {
		l.close()
	}
	return nil
}
