package virtual

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
)

// AdapterID and NotifierID identify the add-on's entities.
const (
	AdapterID  = "virtual-adapter"
	NotifierID = "virtual-notifier"
)

// Registrar adds entities to the gateway. *bridge.Session implements it.
type Registrar interface {
	AddAdapter(ctx context.Context, a *addon.Adapter) error
	AddNotifier(ctx context.Context, n *addon.Notifier) error
	AddAPIHandler(ctx context.Context, h addon.APIHandler) error
}

// Options configures the add-on.
type Options struct {
	PackageName string

	// Manager carries entity messages to the gateway; usually the bridge
	// session, possibly wrapped by a history.Recorder.
	Manager  addon.Manager
	Settings Settings
	Logger   addon.Logger
}

// Addon is the assembled virtual add-on.
type Addon struct {
	settings Settings
	handler  *adapterHandler

	Adapter    *addon.Adapter
	Notifier   *addon.Notifier
	APIHandler *addon.RoutedAPIHandler
}

// New builds the add-on's entities. Nothing is sent until Register.
func New(opts Options) (*Addon, error) {
	if opts.PackageName == "" {
		return nil, errors.New("package name is required")
	}
	if err := opts.Settings.validate(); err != nil {
		return nil, errors.Join(ErrInvalidSettings, err)
	}

	h := newAdapterHandler(opts.Settings)
	a, err := addon.NewAdapter(addon.AdapterOptions{
		ID:          AdapterID,
		Name:        "Virtual Lights",
		PackageName: opts.PackageName,
		Manager:     opts.Manager,
		Handler:     h,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating adapter: %w", err)
	}

	n, err := addon.NewNotifier(addon.NotifierOptions{
		ID:          NotifierID,
		Name:        "Virtual Notifier",
		PackageName: opts.PackageName,
		Manager:     opts.Manager,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	api, err := addon.NewRoutedAPIHandler(opts.PackageName, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating api handler: %w", err)
	}
	routes(api.Router(), a)

	return &Addon{
		settings:   opts.Settings,
		handler:    h,
		Adapter:    a,
		Notifier:   n,
		APIHandler: api,
	}, nil
}

// Register announces the entities to the gateway, then the configured
// lights and the log outlet, and marks the adapter and notifier ready.
func (v *Addon) Register(ctx context.Context, r Registrar) error {
	if err := r.AddAdapter(ctx, v.Adapter); err != nil {
		return fmt.Errorf("registering adapter: %w", err)
	}
	for _, cfg := range v.settings.Lights {
		if err := v.handler.addLight(ctx, v.Adapter, cfg); err != nil {
			return err
		}
	}
	v.Adapter.SetReady(true)

	if err := r.AddNotifier(ctx, v.Notifier); err != nil {
		return fmt.Errorf("registering notifier: %w", err)
	}
	outlet, err := addon.NewOutlet(v.Notifier, LogOutletID, "Add-on log", logOutlet{logger: v.Adapter.Logger()})
	if err != nil {
		return fmt.Errorf("creating outlet: %w", err)
	}
	if err := v.Notifier.HandleOutletAdded(ctx, outlet); err != nil {
		return fmt.Errorf("adding outlet: %w", err)
	}
	v.Notifier.SetReady(true)

	if err := r.AddAPIHandler(ctx, v.APIHandler); err != nil {
		return fmt.Errorf("registering api handler: %w", err)
	}
	return nil
}

// Close stops background work without involving the gateway.
func (v *Addon) Close(ctx context.Context) error {
	return v.handler.Unload(ctx, v.Adapter)
}
