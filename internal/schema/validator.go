package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// BaseURL is the $id prefix of every schema document in the set.
const BaseURL = "https://schemas.graylogic.io/addon-ipc/"

const (
	rootDocument = "schema.json"
	messagesDir  = "messages"
)

//go:embed schemas
var embedded embed.FS

// Logger is the logging interface used by the validator.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures a Validator.
type Options struct {
	// Dir overrides the embedded schema set with a directory holding
	// schema.json, definitions.json and messages/.
	Dir string

	Logger Logger
}

// Validator checks envelopes against the root schema and the per-message
// schema named by their messageType.
//
// Thread Safety: Validate may be called from any goroutine.
type Validator struct {
	fsys   fs.FS
	logger Logger

	root *jsonschema.Schema

	// mu guards compiler and messages. The compiler caches every resource
	// it has loaded, so definitions.json is read once.
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	messages map[protocol.MessageType]*jsonschema.Schema
	missing  map[protocol.MessageType]error
}

// New loads and compiles the root schema. Per-message schemas are compiled
// on first use.
func New(opts Options) (*Validator, error) {
	fsys, err := schemaFS(opts.Dir)
	if err != nil {
		return nil, err
	}

	v := &Validator{
		fsys:     fsys,
		logger:   opts.Logger,
		messages: make(map[protocol.MessageType]*jsonschema.Schema),
		missing:  make(map[protocol.MessageType]error),
	}
	if v.logger == nil {
		v.logger = noopLogger{}
	}

	v.compiler = jsonschema.NewCompiler()
	v.compiler.Draft = jsonschema.Draft7
	v.compiler.LoadURL = v.loadURL

	root, err := v.compiler.Compile(BaseURL + rootDocument)
	if err != nil {
		return nil, fmt.Errorf("compiling root schema: %w", err)
	}
	v.root = root

	return v, nil
}

func schemaFS(dir string) (fs.FS, error) {
	if dir == "" {
		sub, err := fs.Sub(embedded, "schemas")
		if err != nil {
			return nil, fmt.Errorf("opening embedded schemas: %w", err)
		}
		return sub, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening schema directory: %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// loadURL resolves every reference from the local schema set by its last
// path segment. Nothing is ever fetched over the network.
func (v *Validator) loadURL(u string) (io.ReadCloser, error) {
	name := path.Base(strings.SplitN(u, "#", 2)[0])
	for _, candidate := range []string{path.Join(messagesDir, name), name} {
		f, err := v.fsys.Open(candidate)
		if err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, u)
}

// Validate checks raw against the root schema and, when one can be
// resolved, the schema for its messageType. A missing or broken
// per-message schema is logged and the message passes on the root check
// alone.
func (v *Validator) Validate(raw []byte) error {
	doc, err := decodeInstance(raw)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}

	if err := v.root.Validate(doc); err != nil {
		return convertError(messageTypeOf(doc), err)
	}

	mt := protocol.MessageType(messageTypeOf(doc))
	sch, err := v.messageSchema(mt)
	if err != nil {
		return nil
	}

	if err := sch.Validate(doc); err != nil {
		return convertError(string(mt), err)
	}
	return nil
}

// messageSchema returns the compiled schema for mt, compiling it on first
// use. Failures are remembered so each one is logged at warn level once.
func (v *Validator) messageSchema(mt protocol.MessageType) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if sch, ok := v.messages[mt]; ok {
		return sch, nil
	}
	if err, ok := v.missing[mt]; ok {
		v.logger.Debug("no message schema, root validation only", "message_type", mt, "error", err)
		return nil, err
	}

	sch, err := v.compileMessage(mt)
	if err != nil {
		v.missing[mt] = err
		v.logger.Warn("no message schema, root validation only", "message_type", mt, "error", err)
		return nil, err
	}

	v.messages[mt] = sch
	return sch, nil
}

func (v *Validator) compileMessage(mt protocol.MessageType) (*jsonschema.Schema, error) {
	file := mt.SchemaFile()
	if file == "" {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, mt)
	}
	if _, err := fs.Stat(v.fsys, path.Join(messagesDir, file)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, file)
	}

	sch, err := v.compiler.Compile(BaseURL + messagesDir + "/" + file)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrSchemaNotFound, file, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, file, err)
	}
	return sch, nil
}

// Preload compiles every known message schema. Used at startup to surface
// a broken schema directory early.
func (v *Validator) Preload() error {
	var errs []string
	for _, mt := range protocol.AllMessageTypes() {
		if _, err := v.messageSchema(mt); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("preloading schemas: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateValue checks value against an inline JSON schema document, such
// as an action's declared input. References outside the document are not
// resolved.
func ValidateValue(schemaDoc any, value any) error {
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return fmt.Errorf("%w: encoding inline schema: %v", ErrSchemaInvalid, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.LoadURL = func(u string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, u)
	}

	const url = "inline.json"
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	// Round-trip so Go-constructed values (ints, structs) take the same
	// shape as decoded wire data.
	encoded, err := json.Marshal(value)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	instance, err := decodeInstance(encoded)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}

	if err := sch.Validate(instance); err != nil {
		return convertError("", err)
	}
	return nil
}

func decodeInstance(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding instance: %w", err)
	}
	return doc, nil
}

func messageTypeOf(doc any) string {
	m, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	mt, _ := m["messageType"].(string)
	return mt
}

// isNotFound reports whether a compile failure came from loadURL. The
// compiler does not always keep the loader error in its wrap chain, so the
// message is checked too.
func isNotFound(err error) bool {
	return errors.Is(err, ErrSchemaNotFound) || strings.Contains(err.Error(), ErrSchemaNotFound.Error())
}
