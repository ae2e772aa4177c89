package addon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// OutletHandler delivers a notification through one outlet.
type OutletHandler interface {
	Notify(ctx context.Context, title, message string, level protocol.NotificationLevel) error
}

// OutletHandlerFunc adapts a function to OutletHandler.
type OutletHandlerFunc func(ctx context.Context, title, message string, level protocol.NotificationLevel) error

func (f OutletHandlerFunc) Notify(ctx context.Context, title, message string, level protocol.NotificationLevel) error {
	return f(ctx, title, message, level)
}

// Outlet is one notification destination owned by a notifier.
type Outlet struct {
	notifier *Notifier
	id       string
	name     string
	handler  OutletHandler
}

// NewOutlet creates an outlet owned by n.
func NewOutlet(n *Notifier, id, name string, handler OutletHandler) (*Outlet, error) {
	if n == nil {
		return nil, errors.New("notifier is required")
	}
	if id == "" {
		return nil, errors.New("outlet id is required")
	}
	if handler == nil {
		return nil, errors.New("outlet handler is required")
	}
	if name == "" {
		name = id
	}
	return &Outlet{notifier: n, id: id, name: name, handler: handler}, nil
}

// ID returns the outlet identifier.
func (o *Outlet) ID() string { return o.id }

// Name returns the display name.
func (o *Outlet) Name() string { return o.name }

// Notifier returns the owning notifier.
func (o *Outlet) Notifier() *Notifier { return o.notifier }

// Notify delivers a notification. Every failure wraps ErrNotify.
func (o *Outlet) Notify(ctx context.Context, title, message string, level protocol.NotificationLevel) error {
	if err := o.handler.Notify(ctx, title, message, level); err != nil {
		if !errors.Is(err, ErrNotify) {
			err = fmt.Errorf("%w: outlet %s: %w", ErrNotify, o.id, err)
		}
		return err
	}
	return nil
}

// Describe returns the outlet's wire state.
func (o *Outlet) Describe() protocol.OutletDescription {
	return protocol.OutletDescription{ID: o.id, Name: o.name}
}

// NotifierOptions configures a new Notifier.
type NotifierOptions struct {
	ID          string
	Name        string
	PackageName string
	Manager     Manager
	Logger      Logger

	// OnUnload runs when the gateway unloads the notifier.
	OnUnload func(ctx context.Context) error
}

// Notifier owns a set of outlets.
type Notifier struct {
	id          string
	name        string
	packageName string
	manager     Manager
	logger      Logger
	onUnload    func(ctx context.Context) error

	mu      sync.RWMutex
	ready   bool
	outlets map[string]*Outlet
}

// NewNotifier creates a notifier. It is not visible to the gateway until
// it is added to the bridge.
func NewNotifier(opts NotifierOptions) (*Notifier, error) {
	if opts.ID == "" {
		return nil, errors.New("notifier id is required")
	}
	if opts.PackageName == "" {
		return nil, errors.New("package name is required")
	}
	if opts.Manager == nil {
		return nil, errors.New("manager is required")
	}

	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	name := opts.Name
	if name == "" {
		name = opts.ID
	}

	return &Notifier{
		id:          opts.ID,
		name:        name,
		packageName: opts.PackageName,
		manager:     opts.Manager,
		logger:      logger,
		onUnload:    opts.OnUnload,
		outlets:     make(map[string]*Outlet),
	}, nil
}

// ID returns the notifier identifier.
func (n *Notifier) ID() string { return n.id }

// Name returns the display name.
func (n *Notifier) Name() string { return n.name }

// PackageName returns the owning package.
func (n *Notifier) PackageName() string { return n.packageName }

// Ready reports whether the notifier has finished starting.
func (n *Notifier) Ready() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ready
}

// SetReady marks the notifier as started.
func (n *Notifier) SetReady(ready bool) {
	n.mu.Lock()
	n.ready = ready
	n.mu.Unlock()
}

// Outlet returns the outlet with the given id.
func (n *Notifier) Outlet(id string) (*Outlet, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	o, ok := n.outlets[id]
	return o, ok
}

// Outlets returns the outlets sorted by id.
func (n *Notifier) Outlets() []*Outlet {
	n.mu.RLock()
	outlets := make([]*Outlet, 0, len(n.outlets))
	for _, o := range n.outlets {
		outlets = append(outlets, o)
	}
	n.mu.RUnlock()

	sort.Slice(outlets, func(i, j int) bool { return outlets[i].id < outlets[j].id })
	return outlets
}

// HandleOutletAdded registers o and announces it to the gateway.
func (n *Notifier) HandleOutletAdded(ctx context.Context, o *Outlet) error {
	if o.notifier != n {
		return fmt.Errorf("outlet %s belongs to another notifier", o.id)
	}

	n.mu.Lock()
	n.outlets[o.id] = o
	n.mu.Unlock()

	n.logger.Debug("outlet added", "notifier_id", n.id, "outlet_id", o.id)
	return n.manager.SendOutletAdded(ctx, n.id, o.Describe())
}

// HandleOutletRemoved unregisters o and tells the gateway it is gone.
func (n *Notifier) HandleOutletRemoved(ctx context.Context, o *Outlet) error {
	n.mu.Lock()
	delete(n.outlets, o.id)
	n.mu.Unlock()

	n.logger.Debug("outlet removed", "notifier_id", n.id, "outlet_id", o.id)
	return n.manager.SendOutletRemoved(ctx, n.id, o.id)
}

// Unload runs the teardown hook.
func (n *Notifier) Unload(ctx context.Context) error {
	n.SetReady(false)
	if n.onUnload == nil {
		return nil
	}
	return n.onUnload(ctx)
}
