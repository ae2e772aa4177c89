// Package schema validates add-on protocol messages against JSON Schema
// (draft 7) documents.
//
// The schema set lives in schemas/ and is embedded in the binary:
//
//	schemas/schema.json          envelope; enumerates every messageType
//	schemas/definitions.json     shared definitions ($ref targets)
//	schemas/messages/<name>.json one document per message type
//
// The root document is compiled by New. A message document is compiled the
// first time a message of that type is validated. References are resolved
// from the local set by their last path segment; anything that cannot be
// found there yields ErrSchemaNotFound, which Validate logs and treats as
// "root validation only".
//
// Validation is advisory: callers drop a failing message and keep the
// connection alive.
package schema
