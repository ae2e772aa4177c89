package protocol

import "sort"

//go:generate go run ../../cmd/msgtypegen -schemas ../schema/schemas/messages -out message_types.go

// MessageType is the value of an envelope's messageType field.
type MessageType string

// String returns the wire value.
func (t MessageType) String() string {
	return string(t)
}

// Known reports whether t has a schema document.
func (t MessageType) Known() bool {
	_, ok := schemaFiles[t]
	return ok
}

// SchemaFile returns the schema document name for t, or "" when unknown.
func (t MessageType) SchemaFile() string {
	return schemaFiles[t]
}

// AllMessageTypes returns every known message type in wire-value order.
func AllMessageTypes() []MessageType {
	types := make([]MessageType, 0, len(schemaFiles))
	for t := range schemaFiles {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
