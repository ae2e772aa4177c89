package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Domain-specific errors for schema validation.
var (
	// ErrValidation indicates a message does not match its schema.
	ErrValidation = errors.New("schema: validation failed")

	// ErrSchemaNotFound indicates a schema document could not be resolved
	// from the local schema set. Callers treat it as non-fatal.
	ErrSchemaNotFound = errors.New("schema: schema not found")

	// ErrSchemaInvalid indicates a local schema document failed to compile.
	ErrSchemaInvalid = errors.New("schema: schema invalid")
)

// ValidationError describes why a document failed validation.
type ValidationError struct {
	// MessageType is empty for action input validation.
	MessageType string

	// Location is the JSON pointer of the offending value.
	Location string

	// Reason is the validator's description of the failure.
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	if e.MessageType != "" {
		fmt.Fprintf(&b, " for %s", e.MessageType)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, " at %s", e.Location)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// convertError maps a jsonschema failure onto ValidationError, reporting
// the deepest cause since that is the one that names the bad field.
func convertError(messageType string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{MessageType: messageType, Reason: err.Error()}
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return &ValidationError{
		MessageType: messageType,
		Location:    location,
		Reason:      leaf.Message,
	}
}
