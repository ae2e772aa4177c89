package addon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// AdapterHandler supplies the protocol-specific behaviour behind an adapter.
// Every method runs on a bridge worker, so it may block.
type AdapterHandler interface {
	// StartPairing looks for new devices for up to timeout.
	StartPairing(ctx context.Context, a *Adapter, timeout time.Duration) error

	// CancelPairing stops a running pairing.
	CancelPairing(ctx context.Context, a *Adapter) error

	// RemoveDevice unpairs d. Implementations call a.HandleDeviceRemoved
	// once the device is gone.
	RemoveDevice(ctx context.Context, a *Adapter, d *Device) error

	// CancelRemoveDevice aborts an unpairing in progress.
	CancelRemoveDevice(ctx context.Context, a *Adapter, d *Device) error

	// SetPin applies a pairing PIN to d.
	SetPin(ctx context.Context, a *Adapter, d *Device, pin string) error

	// SetCredentials applies a username and password to d.
	SetCredentials(ctx context.Context, a *Adapter, d *Device, username, password string) error

	// Unload releases adapter resources before it leaves the registry.
	Unload(ctx context.Context, a *Adapter) error
}

// BaseAdapterHandler removes devices immediately and refuses PINs and
// credentials. Embed it to override only what an adapter needs.
type BaseAdapterHandler struct{}

func (BaseAdapterHandler) StartPairing(context.Context, *Adapter, time.Duration) error { return nil }

func (BaseAdapterHandler) CancelPairing(context.Context, *Adapter) error { return nil }

func (BaseAdapterHandler) RemoveDevice(ctx context.Context, a *Adapter, d *Device) error {
	return a.HandleDeviceRemoved(ctx, d)
}

func (BaseAdapterHandler) CancelRemoveDevice(context.Context, *Adapter, *Device) error { return nil }

func (BaseAdapterHandler) SetPin(context.Context, *Adapter, *Device, string) error {
	return fmt.Errorf("%w: not supported", ErrSetPin)
}

func (BaseAdapterHandler) SetCredentials(context.Context, *Adapter, *Device, string, string) error {
	return fmt.Errorf("%w: not supported", ErrSetCredentials)
}

func (BaseAdapterHandler) Unload(context.Context, *Adapter) error { return nil }

// AdapterOptions configures a new Adapter.
type AdapterOptions struct {
	ID          string
	Name        string
	PackageName string
	Manager     Manager
	Handler     AdapterHandler
	Logger      Logger

	// Now overrides the clock used for action and event timestamps.
	Now func() time.Time
}

// Adapter owns a set of devices reachable through one protocol.
//
// Thread Safety: device membership is guarded by mu. HandleDeviceAdded and
// HandleDeviceRemoved are the only ways a device enters or leaves it.
type Adapter struct {
	id          string
	name        string
	packageName string
	manager     Manager
	handler     AdapterHandler
	logger      Logger
	now         func() time.Time

	mu      sync.RWMutex
	ready   bool
	devices map[string]*Device
}

// NewAdapter creates an adapter. It is not visible to the gateway until it
// is added to the bridge.
func NewAdapter(opts AdapterOptions) (*Adapter, error) {
	if opts.ID == "" {
		return nil, errors.New("adapter id is required")
	}
	if opts.PackageName == "" {
		return nil, errors.New("package name is required")
	}
	if opts.Manager == nil {
		return nil, errors.New("manager is required")
	}

	handler := opts.Handler
	if handler == nil {
		handler = BaseAdapterHandler{}
	}

	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	name := opts.Name
	if name == "" {
		name = opts.ID
	}

	return &Adapter{
		id:          opts.ID,
		name:        name,
		packageName: opts.PackageName,
		manager:     opts.Manager,
		handler:     handler,
		logger:      logger,
		now:         now,
		devices:     make(map[string]*Device),
	}, nil
}

// ID returns the adapter identifier.
func (a *Adapter) ID() string { return a.id }

// Name returns the display name.
func (a *Adapter) Name() string { return a.name }

// PackageName returns the owning package.
func (a *Adapter) PackageName() string { return a.packageName }

// Manager returns the gateway handle.
func (a *Adapter) Manager() Manager { return a.manager }

// Logger returns the adapter logger.
func (a *Adapter) Logger() Logger { return a.logger }

// Ready reports whether the adapter has finished starting.
func (a *Adapter) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ready
}

// SetReady marks the adapter as started.
func (a *Adapter) SetReady(ready bool) {
	a.mu.Lock()
	a.ready = ready
	a.mu.Unlock()
}

// Device returns the device with the given id.
func (a *Adapter) Device(id string) (*Device, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	d, ok := a.devices[id]
	return d, ok
}

// Devices returns the managed devices sorted by id.
func (a *Adapter) Devices() []*Device {
	a.mu.RLock()
	devices := make([]*Device, 0, len(a.devices))
	for _, d := range a.devices {
		devices = append(devices, d)
	}
	a.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool { return devices[i].id < devices[j].id })
	return devices
}

// HandleDeviceAdded registers d and announces it to the gateway.
func (a *Adapter) HandleDeviceAdded(ctx context.Context, d *Device) error {
	if d.adapter != a {
		return fmt.Errorf("device %s belongs to another adapter", d.id)
	}

	a.mu.Lock()
	a.devices[d.id] = d
	a.mu.Unlock()

	a.logger.Debug("device added", "adapter_id", a.id, "device_id", d.id)
	return a.manager.SendDeviceAdded(ctx, a.id, d.Describe())
}

// HandleDeviceRemoved unregisters d and tells the gateway it is gone.
func (a *Adapter) HandleDeviceRemoved(ctx context.Context, d *Device) error {
	a.mu.Lock()
	delete(a.devices, d.id)
	a.mu.Unlock()

	a.logger.Debug("device removed", "adapter_id", a.id, "device_id", d.id)
	return a.manager.SendDeviceRemoved(ctx, a.id, d.id)
}

// SendPairingPrompt shows a message to the user during pairing.
func (a *Adapter) SendPairingPrompt(ctx context.Context, p Prompt) error {
	return a.manager.SendPairingPrompt(ctx, a.id, p)
}

// SendUnpairingPrompt shows a message to the user during unpairing.
func (a *Adapter) SendUnpairingPrompt(ctx context.Context, p Prompt) error {
	return a.manager.SendUnpairingPrompt(ctx, a.id, p)
}

// StartPairing runs the handler's pairing for timeout.
func (a *Adapter) StartPairing(ctx context.Context, timeout time.Duration) error {
	return a.handler.StartPairing(ctx, a, timeout)
}

// CancelPairing stops the handler's pairing.
func (a *Adapter) CancelPairing(ctx context.Context) error {
	return a.handler.CancelPairing(ctx, a)
}

// RemoveDevice asks the handler to unpair a device. An unknown device is
// ignored.
func (a *Adapter) RemoveDevice(ctx context.Context, deviceID string) error {
	d, ok := a.Device(deviceID)
	if !ok {
		return nil
	}
	return a.handler.RemoveDevice(ctx, a, d)
}

// CancelRemoveDevice aborts unpairing of a device. An unknown device is
// ignored.
func (a *Adapter) CancelRemoveDevice(ctx context.Context, deviceID string) error {
	d, ok := a.Device(deviceID)
	if !ok {
		return nil
	}
	return a.handler.CancelRemoveDevice(ctx, a, d)
}

// SetPin applies a PIN and returns the refreshed device description.
// Every failure wraps ErrSetPin.
func (a *Adapter) SetPin(ctx context.Context, deviceID, pin string) (protocol.DeviceDescription, error) {
	d, ok := a.Device(deviceID)
	if !ok {
		return protocol.DeviceDescription{}, fmt.Errorf("%w: %w: %s", ErrSetPin, ErrDeviceNotFound, deviceID)
	}

	if err := a.handler.SetPin(ctx, a, d, pin); err != nil {
		if !errors.Is(err, ErrSetPin) {
			err = fmt.Errorf("%w: %w", ErrSetPin, err)
		}
		return protocol.DeviceDescription{}, err
	}

	if d, ok = a.Device(deviceID); !ok {
		return protocol.DeviceDescription{}, fmt.Errorf("%w: %w: %s", ErrSetPin, ErrDeviceNotFound, deviceID)
	}
	return d.Describe(), nil
}

// SetCredentials applies credentials and returns the refreshed device
// description. Every failure wraps ErrSetCredentials.
func (a *Adapter) SetCredentials(ctx context.Context, deviceID, username, password string) (protocol.DeviceDescription, error) {
	d, ok := a.Device(deviceID)
	if !ok {
		return protocol.DeviceDescription{}, fmt.Errorf("%w: %w: %s", ErrSetCredentials, ErrDeviceNotFound, deviceID)
	}

	if err := a.handler.SetCredentials(ctx, a, d, username, password); err != nil {
		if !errors.Is(err, ErrSetCredentials) {
			err = fmt.Errorf("%w: %w", ErrSetCredentials, err)
		}
		return protocol.DeviceDescription{}, err
	}

	if d, ok = a.Device(deviceID); !ok {
		return protocol.DeviceDescription{}, fmt.Errorf("%w: %w: %s", ErrSetCredentials, ErrDeviceNotFound, deviceID)
	}
	return d.Describe(), nil
}

// Unload runs the handler's teardown.
func (a *Adapter) Unload(ctx context.Context) error {
	a.SetReady(false)
	return a.handler.Unload(ctx, a)
}
