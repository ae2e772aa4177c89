package addon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
	"github.com/nerrad567/gray-logic-addon/internal/schema"
)

// DefaultContext is the semantic context stamped on device descriptions
// that do not set one.
const DefaultContext = "https://webthings.io/schemas"

// DeviceHandler supplies the hardware behaviour behind a device.
type DeviceHandler interface {
	// PerformAction runs a requested action. The handler owns the action's
	// lifecycle: it calls Start when work begins and Finish when done,
	// either before returning or later from its own goroutine. An
	// *ActionError return rejects the request.
	PerformAction(ctx context.Context, action *Action) error

	// CancelAction stops an in-flight action. A nil return removes it.
	CancelAction(ctx context.Context, action *Action) error
}

// BaseDeviceHandler completes actions immediately and refuses to cancel.
// Embed it to override only what a device needs.
type BaseDeviceHandler struct{}

func (BaseDeviceHandler) PerformAction(ctx context.Context, action *Action) error {
	if err := action.Start(ctx); err != nil {
		return err
	}
	return action.Finish(ctx)
}

func (BaseDeviceHandler) CancelAction(_ context.Context, action *Action) error {
	return &ActionError{Action: action.Name(), ID: action.ID(), Reason: "cancel not supported"}
}

// DeviceOptions configures a new Device.
type DeviceOptions struct {
	ID          string
	Title       string
	Context     string
	Types       []string
	Description string
	BaseHref    string
	Pin         protocol.PinDescription

	CredentialsRequired bool

	Handler DeviceHandler
}

// Device is a physical or virtual thing managed by an adapter.
//
// Thread Safety: membership of properties, declared actions and in-flight
// actions is guarded by mu. Property values have their own locks.
type Device struct {
	adapter *Adapter
	id      string
	handler DeviceHandler
	logger  Logger
	now     func() time.Time

	mu          sync.RWMutex
	title       string
	context     string
	types       []string
	description string
	baseHref    string
	pin         protocol.PinDescription
	credentials bool
	properties  map[string]*Property
	actions     map[string]protocol.ActionMetadata
	events      map[string]protocol.EventMetadata
	inflight    map[string]*Action
}

// NewDevice creates a device owned by a. The device is not visible to the
// gateway until a.HandleDeviceAdded is called.
func NewDevice(a *Adapter, opts DeviceOptions) (*Device, error) {
	if a == nil {
		return nil, errors.New("adapter is required")
	}
	if opts.ID == "" {
		return nil, errors.New("device id is required")
	}

	handler := opts.Handler
	if handler == nil {
		handler = BaseDeviceHandler{}
	}

	ctxURL := opts.Context
	if ctxURL == "" {
		ctxURL = DefaultContext
	}

	return &Device{
		adapter:     a,
		id:          opts.ID,
		handler:     handler,
		logger:      a.logger,
		now:         a.now,
		title:       opts.Title,
		context:     ctxURL,
		types:       append([]string(nil), opts.Types...),
		description: opts.Description,
		baseHref:    opts.BaseHref,
		pin:         opts.Pin,
		credentials: opts.CredentialsRequired,
		properties:  make(map[string]*Property),
		actions:     make(map[string]protocol.ActionMetadata),
		events:      make(map[string]protocol.EventMetadata),
		inflight:    make(map[string]*Action),
	}, nil
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

// Adapter returns the owning adapter.
func (d *Device) Adapter() *Adapter { return d.adapter }

// Title returns the display name.
func (d *Device) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// SetTitle changes the display name.
func (d *Device) SetTitle(title string) {
	d.mu.Lock()
	d.title = title
	d.mu.Unlock()
}

// SetPin replaces the PIN descriptor.
func (d *Device) SetPin(pin protocol.PinDescription) {
	d.mu.Lock()
	d.pin = pin
	d.mu.Unlock()
}

// SetCredentialsRequired marks whether the device needs credentials.
func (d *Device) SetCredentialsRequired(required bool) {
	d.mu.Lock()
	d.credentials = required
	d.mu.Unlock()
}

// AddProperty declares a property. Redeclaring a name replaces it.
func (d *Device) AddProperty(name string, desc protocol.PropertyDescription, opts ...PropertyOption) *Property {
	p := &Property{device: d, name: name, description: desc}
	for _, opt := range opts {
		opt(p)
	}

	d.mu.Lock()
	d.properties[name] = p
	d.mu.Unlock()
	return p
}

// AddAction declares an action the gateway may request.
func (d *Device) AddAction(name string, meta protocol.ActionMetadata) {
	d.mu.Lock()
	d.actions[name] = meta
	d.mu.Unlock()
}

// AddEvent declares an event the device may raise.
func (d *Device) AddEvent(name string, meta protocol.EventMetadata) {
	d.mu.Lock()
	d.events[name] = meta
	d.mu.Unlock()
}

// Property returns the named property.
func (d *Device) Property(name string) (*Property, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.properties[name]
	return p, ok
}

// Properties returns the declared properties sorted by name.
func (d *Device) Properties() []*Property {
	d.mu.RLock()
	props := make([]*Property, 0, len(d.properties))
	for _, p := range d.properties {
		props = append(props, p)
	}
	d.mu.RUnlock()

	sort.Slice(props, func(i, j int) bool { return props[i].name < props[j].name })
	return props
}

// SetProperty applies a gateway write to the named property.
//
// A refused write sends the unchanged cached value back so the gateway can
// revert an optimistic update. A fire-and-forget property that accepts a
// write is always announced, even when the value did not change.
func (d *Device) SetProperty(ctx context.Context, name string, value any) error {
	p, ok := d.Property(name)
	if !ok {
		return &PropertyError{Property: name, Reason: "no such property"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.value
	err := p.setValueLocked(ctx, value)

	var perr *PropertyError
	switch {
	case errors.As(err, &perr):
		if nerr := p.notifyLocked(ctx); nerr != nil {
			d.logger.Warn("failed to send property state after refused write",
				"device_id", d.id, "property", name, "error", nerr)
		}
		return err
	case err != nil:
		return err
	}

	if p.fireAndForget && valuesEqual(before, p.value) {
		return p.notifyLocked(ctx)
	}
	return nil
}

// Action returns the in-flight action with the given id.
func (d *Device) Action(id string) (*Action, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.inflight[id]
	return a, ok
}

// RequestAction creates an action and hands it to the device handler.
//
// The name must be declared with AddAction, and input must satisfy the
// declared input schema if there is one. Otherwise no action is created.
func (d *Device) RequestAction(ctx context.Context, id, name string, input any) (*Action, error) {
	d.mu.RLock()
	meta, declared := d.actions[name]
	d.mu.RUnlock()

	if !declared {
		return nil, &ActionError{Action: name, ID: id, Reason: "action not declared"}
	}

	if meta.Input != nil {
		if err := schema.ValidateValue(meta.Input, input); err != nil {
			return nil, &ActionError{Action: name, ID: id, Reason: "invalid input", Err: err}
		}
	}

	action := newAction(d, id, name, input, d.now)

	d.mu.Lock()
	if _, exists := d.inflight[id]; exists {
		d.mu.Unlock()
		return nil, &ActionError{Action: name, ID: id, Reason: "action id already in flight"}
	}
	d.inflight[id] = action
	d.mu.Unlock()

	if err := d.handler.PerformAction(ctx, action); err != nil {
		d.forgetAction(id)
		var aerr *ActionError
		if !errors.As(err, &aerr) {
			err = &ActionError{Action: name, ID: id, Reason: "perform failed", Err: err}
		}
		return nil, err
	}

	return action, nil
}

// RemoveAction cancels an in-flight action matched by id and name.
func (d *Device) RemoveAction(ctx context.Context, id, name string) error {
	action, ok := d.Action(id)
	if !ok || action.name != name {
		return &ActionError{Action: name, ID: id, Reason: "no such action"}
	}

	if err := d.handler.CancelAction(ctx, action); err != nil {
		var aerr *ActionError
		if !errors.As(err, &aerr) {
			err = &ActionError{Action: name, ID: id, Reason: "cancel failed", Err: err}
		}
		return err
	}

	d.forgetAction(id)
	return nil
}

func (d *Device) forgetAction(id string) {
	d.mu.Lock()
	delete(d.inflight, id)
	d.mu.Unlock()
}

// EmitEvent sends an event to the gateway. The name must be declared.
func (d *Device) EmitEvent(ctx context.Context, name string, data any) error {
	d.mu.RLock()
	_, declared := d.events[name]
	d.mu.RUnlock()

	if !declared {
		return fmt.Errorf("event %s not declared on device %s", name, d.id)
	}

	ev := Event{Name: name, Data: data, Time: d.now()}
	return d.adapter.manager.SendEvent(ctx, d.adapter.id, d.id, ev.Describe())
}

// SetConnected reports the device's reachability.
func (d *Device) SetConnected(ctx context.Context, connected bool) error {
	return d.adapter.manager.SendConnectedState(ctx, d.adapter.id, d.id, connected)
}

// Describe returns the device with current property values.
func (d *Device) Describe() protocol.DeviceDescription {
	d.mu.RLock()
	desc := protocol.DeviceDescription{
		ID:                  d.id,
		Title:               d.title,
		Context:             d.context,
		Type:                append([]string{}, d.types...),
		Description:         d.description,
		Properties:          make(map[string]protocol.PropertyState, len(d.properties)),
		Actions:             make(map[string]protocol.ActionMetadata, len(d.actions)),
		Events:              make(map[string]protocol.EventMetadata, len(d.events)),
		BaseHref:            d.baseHref,
		Pin:                 d.pin,
		CredentialsRequired: d.credentials,
	}
	props := make([]*Property, 0, len(d.properties))
	for _, p := range d.properties {
		props = append(props, p)
	}
	for name, meta := range d.actions {
		desc.Actions[name] = meta
	}
	for name, meta := range d.events {
		desc.Events[name] = meta
	}
	d.mu.RUnlock()

	for _, p := range props {
		desc.Properties[p.name] = p.State()
	}
	return desc
}

// AsThing returns the value-free description of the device.
func (d *Device) AsThing() protocol.ThingDescription {
	full := d.Describe()
	thing := protocol.ThingDescription{
		ID:                  full.ID,
		Title:               full.Title,
		Context:             full.Context,
		Type:                full.Type,
		Description:         full.Description,
		Properties:          make(map[string]protocol.PropertyDescription, len(full.Properties)),
		Actions:             full.Actions,
		Events:              full.Events,
		BaseHref:            full.BaseHref,
		Pin:                 full.Pin,
		CredentialsRequired: full.CredentialsRequired,
	}
	for name, state := range full.Properties {
		thing.Properties[name] = state.PropertyDescription
	}
	return thing
}
