package addon

import (
	"errors"
	"fmt"
)

// Domain errors. The bridge turns each of these into a rejected response
// for the message that caused it.
var (
	// ErrProperty indicates a property write was refused.
	ErrProperty = errors.New("addon: property error")

	// ErrAction indicates an action could not be requested or removed.
	ErrAction = errors.New("addon: action error")

	// ErrSetPin indicates a PIN was refused.
	ErrSetPin = errors.New("addon: set pin failed")

	// ErrSetCredentials indicates credentials were refused.
	ErrSetCredentials = errors.New("addon: set credentials failed")

	// ErrNotify indicates an outlet could not deliver a notification.
	ErrNotify = errors.New("addon: notify failed")

	// ErrAPIHandler indicates an API handler could not serve a request.
	ErrAPIHandler = errors.New("addon: api handler error")

	// ErrDeviceNotFound indicates an operation named a device the adapter
	// does not manage.
	ErrDeviceNotFound = errors.New("addon: device not found")
)

// PropertyError describes a refused property write.
type PropertyError struct {
	Property string
	Reason   string
	Err      error
}

func (e *PropertyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("property %s: %s: %v", e.Property, e.Reason, e.Err)
	}
	return fmt.Sprintf("property %s: %s", e.Property, e.Reason)
}

func (e *PropertyError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProperty, e.Err}
	}
	return []error{ErrProperty}
}

// ActionError describes a refused action request or removal.
type ActionError struct {
	Action string
	ID     string
	Reason string
	Err    error
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("action %s", e.Action)
	if e.ID != "" {
		msg += fmt.Sprintf(" (%s)", e.ID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ActionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAction, e.Err}
	}
	return []error{ErrAction}
}
