package addon

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// Action status values.
const (
	ActionCreated   = "created"
	ActionPending   = "pending"
	ActionCompleted = "completed"
)

// Action is one requested invocation of a device action.
//
// Status only moves forward: created → pending → completed. Each transition
// is sent to the gateway as an actionStatus message.
type Action struct {
	device *Device
	id     string
	name   string
	input  any

	mu            sync.Mutex
	status        string
	timeRequested time.Time
	timeCompleted *time.Time
	now           func() time.Time
}

func newAction(d *Device, id, name string, input any, now func() time.Time) *Action {
	return &Action{
		device:        d,
		id:            id,
		name:          name,
		input:         input,
		status:        ActionCreated,
		timeRequested: now(),
		now:           now,
	}
}

// ID returns the action identifier assigned by the gateway.
func (a *Action) ID() string { return a.id }

// Name returns the declared action name.
func (a *Action) Name() string { return a.name }

// Input returns the validated request input.
func (a *Action) Input() any { return a.input }

// Device returns the device the action runs on.
func (a *Action) Device() *Device { return a.device }

// Status returns the current status.
func (a *Action) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Start moves a created action to pending and notifies the gateway. It is
// a no-op for an action that has already started.
func (a *Action) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != ActionCreated {
		return nil
	}
	a.status = ActionPending
	return a.notifyLocked(ctx)
}

// Finish completes the action and removes it from the device's in-flight
// set. An action finished straight from created reports pending first so
// the gateway sees both transitions.
func (a *Action) Finish(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == ActionCompleted {
		return nil
	}

	if a.status == ActionCreated {
		a.status = ActionPending
		if err := a.notifyLocked(ctx); err != nil {
			a.device.logger.Warn("failed to send action status",
				"action", a.name, "action_id", a.id, "status", ActionPending, "error", err)
		}
	}

	done := a.now()
	a.status = ActionCompleted
	a.timeCompleted = &done
	a.device.forgetAction(a.id)

	return a.notifyLocked(ctx)
}

// Describe returns the action's wire state.
func (a *Action) Describe() protocol.ActionDescription {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.describeLocked()
}

func (a *Action) describeLocked() protocol.ActionDescription {
	desc := protocol.ActionDescription{
		ID:            a.id,
		Name:          a.name,
		Input:         a.input,
		Status:        a.status,
		TimeRequested: protocol.Timestamp(a.timeRequested),
	}
	if a.timeCompleted != nil {
		ts := protocol.Timestamp(*a.timeCompleted)
		desc.TimeCompleted = &ts
	}
	return desc
}

func (a *Action) notifyLocked(ctx context.Context) error {
	d := a.device
	return d.adapter.manager.SendActionStatus(ctx, d.adapter.id, d.id, a.describeLocked())
}
