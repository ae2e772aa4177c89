// Package virtual is a self-contained add-on with simulated hardware.
//
// It registers one adapter of dimmable lights, a notifier whose outlet
// writes to the log, and an API handler listing the lights. It exercises
// every entity type the bridge supports and is what cmd/virtual-addon runs.
//
// Light settings come from the gateway's settings database when the add-on
// has saved any; otherwise DefaultSettings applies.
package virtual
