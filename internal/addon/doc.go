// Package addon provides the entity model an add-on builds on: adapters
// own devices, devices own properties, actions and events, notifiers own
// outlets, and API handlers serve proxied HTTP requests.
//
// Entities never touch the transport. Every outbound notification goes
// through the Manager they were created with, which the bridge supplies.
//
// Lock order, outermost first:
//
//	bridge registries → Adapter.mu → Device.mu → Property.mu
//	Action.mu → Device.mu
//
// Property change notifications are sent while Property.mu is held, so a
// Manager must not take registry locks while sending.
package addon
