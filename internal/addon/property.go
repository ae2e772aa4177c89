package addon

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// PropertyWriter pushes an accepted value to the physical device before it
// is cached. An error refuses the write.
type PropertyWriter func(ctx context.Context, p *Property, value any) error

// PropertyOption configures a Property at creation.
type PropertyOption func(*Property)

// WithFireAndForget marks a property whose writes are announced with an
// unsolicited propertyChanged instead of being polled by the gateway.
func WithFireAndForget() PropertyOption {
	return func(p *Property) { p.fireAndForget = true }
}

// WithWriter installs a hardware write hook.
func WithWriter(w PropertyWriter) PropertyOption {
	return func(p *Property) { p.writer = w }
}

// WithInitialValue seeds the cached value without constraint checks or a
// change notification.
func WithInitialValue(v any) PropertyOption {
	return func(p *Property) { p.value = v }
}

// Property is a single named value on a device.
//
// Thread Safety: all value reads and writes hold the property's mutex, and
// change notifications are sent while it is held, so notifications for one
// property leave in the same order as the writes that caused them.
type Property struct {
	device        *Device
	name          string
	description   protocol.PropertyDescription
	fireAndForget bool
	writer        PropertyWriter

	mu    sync.Mutex
	value any
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Device returns the owning device.
func (p *Property) Device() *Device {
	return p.device
}

// Description returns the property's static metadata.
func (p *Property) Description() protocol.PropertyDescription {
	return p.description
}

// FireAndForget reports whether writes are announced unsolicited.
func (p *Property) FireAndForget() bool {
	return p.fireAndForget
}

// Value returns the cached value.
func (p *Property) Value() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// State returns the property's name, cached value and description.
func (p *Property) State() protocol.PropertyState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Property) stateLocked() protocol.PropertyState {
	return protocol.PropertyState{
		Name:                p.name,
		Value:               p.value,
		PropertyDescription: p.description,
	}
}

// SetValue validates value against the description, runs the writer hook
// and caches the result. A refused write returns a *PropertyError and
// leaves the cached value untouched.
//
// Checks run in order: readOnly, minimum, maximum, multipleOf, enum.
func (p *Property) SetValue(ctx context.Context, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setValueLocked(ctx, value)
}

func (p *Property) setValueLocked(ctx context.Context, value any) error {
	if err := p.check(value); err != nil {
		return err
	}

	if p.writer != nil {
		if err := p.writer(ctx, p, value); err != nil {
			return &PropertyError{Property: p.name, Reason: "write failed", Err: err}
		}
	}

	return p.setCachedLocked(ctx, value)
}

// SetCachedValue records a value reported by the device itself. No
// constraint checks run; the gateway is notified if the value changed.
func (p *Property) SetCachedValue(ctx context.Context, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setCachedLocked(ctx, value)
}

// Notify sends the current cached value to the gateway regardless of
// whether it changed.
func (p *Property) Notify(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notifyLocked(ctx)
}

func (p *Property) setCachedLocked(ctx context.Context, value any) error {
	if p.description.Type == "boolean" {
		value = truthy(value)
	}

	old := p.value
	p.value = value

	if valuesEqual(old, value) {
		return nil
	}
	return p.notifyLocked(ctx)
}

func (p *Property) notifyLocked(ctx context.Context) error {
	d := p.device
	return d.adapter.manager.SendPropertyChanged(ctx, d.adapter.id, d.id, p.stateLocked())
}

func (p *Property) check(value any) error {
	desc := p.description

	if desc.ReadOnly {
		return &PropertyError{Property: p.name, Reason: "read-only property"}
	}

	needsNumber := desc.Minimum != nil || desc.Maximum != nil || desc.MultipleOf != nil
	num, isNum := toFloat(value)
	if needsNumber && !isNum {
		return &PropertyError{Property: p.name, Reason: fmt.Sprintf("value %v is not a number", value)}
	}

	if desc.Minimum != nil && num < *desc.Minimum {
		return &PropertyError{Property: p.name, Reason: fmt.Sprintf("value %v below minimum %v", value, *desc.Minimum)}
	}

	if desc.Maximum != nil && num > *desc.Maximum {
		return &PropertyError{Property: p.name, Reason: fmt.Sprintf("value %v above maximum %v", value, *desc.Maximum)}
	}

	if desc.MultipleOf != nil && !isMultipleOf(num, *desc.MultipleOf) {
		return &PropertyError{Property: p.name, Reason: fmt.Sprintf("value %v is not a multiple of %v", value, *desc.MultipleOf)}
	}

	if len(desc.Enum) > 0 {
		for _, allowed := range desc.Enum {
			if valuesEqual(allowed, value) {
				return nil
			}
		}
		return &PropertyError{Property: p.name, Reason: fmt.Sprintf("value %v not in enum %v", value, desc.Enum)}
	}

	return nil
}
