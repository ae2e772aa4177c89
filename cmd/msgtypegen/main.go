// Command msgtypegen generates the protocol message type constants from the
// per-message schema documents.
//
// Usage (via go generate in internal/protocol):
//
//	go run ../../cmd/msgtypegen -schemas ../schema/schemas/messages -out message_types.go
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

// messageSchema is the subset of a message schema document the generator reads.
type messageSchema struct {
	Properties struct {
		MessageType struct {
			Const string `json:"const"`
		} `json:"messageType"`
	} `json:"properties"`
}

type messageType struct {
	Const string
	Value string
	File  string
}

var initialisms = map[string]string{
	"Api": "API",
	"Id":  "ID",
	"Ipc": "IPC",
	"Url": "URL",
}

var fileTemplate = template.Must(template.New("types").Parse(`// Code generated by msgtypegen from internal/schema/schemas/messages; DO NOT EDIT.

package protocol

// Message types, one per schema document.
const (
{{- range .}}
	{{.Const}} MessageType = {{printf "%q" .Value}}
{{- end}}
)

// schemaFiles maps each message type to its schema document under messages/.
var schemaFiles = map[MessageType]string{
{{- range .}}
	{{.Const}}: {{printf "%q" .File}},
{{- end}}
}
`))

func main() {
	schemaDir := flag.String("schemas", "../schema/schemas/messages", "directory holding the message schema documents")
	out := flag.String("out", "message_types.go", "output file")
	flag.Parse()

	if err := run(*schemaDir, *out); err != nil {
		fmt.Fprintf(os.Stderr, "msgtypegen: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaDir, out string) error {
	types, err := collect(schemaDir)
	if err != nil {
		return err
	}

	src, err := render(types)
	if err != nil {
		return err
	}

	return os.WriteFile(out, src, 0o644) //nolint:gosec // generated source is world-readable
}

// collect reads every *.json document in dir and returns the message types
// they declare, sorted by constant name.
func collect(dir string) ([]messageType, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no schema documents in %s", dir)
	}

	seen := make(map[string]string, len(paths))
	types := make([]messageType, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}

		var doc messageSchema
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}

		value := doc.Properties.MessageType.Const
		if value == "" {
			return nil, fmt.Errorf("%s: properties.messageType.const is missing", p)
		}
		if prev, ok := seen[value]; ok {
			return nil, fmt.Errorf("message type %q declared by both %s and %s", value, prev, p)
		}
		seen[value] = p

		types = append(types, messageType{
			Const: constName(value),
			Value: value,
			File:  filepath.Base(p),
		})
	}

	sort.Slice(types, func(i, j int) bool { return types[i].Const < types[j].Const })
	return types, nil
}

func render(types []messageType) ([]byte, error) {
	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, types); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("formatting output: %w", err), errors.New(buf.String()))
	}
	return src, nil
}

// constName turns a camelCase wire value into an exported Go identifier
// prefixed with Msg, upper-casing common initialisms.
func constName(value string) string {
	words := splitCamel(value)
	var b strings.Builder
	b.WriteString("Msg")
	for _, w := range words {
		w = strings.ToUpper(w[:1]) + w[1:]
		if up, ok := initialisms[w]; ok {
			w = up
		}
		b.WriteString(w)
	}
	return b.String()
}

// splitCamel splits "unloadAPIHandler" into ["unload", "API", "Handler"].
func splitCamel(s string) []string {
	var words []string
	start := 0
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		prevUpper := isUpper(runes[i-1])
		curUpper := isUpper(runes[i])
		nextLower := i+1 < len(runes) && !isUpper(runes[i+1])
		if (curUpper && !prevUpper) || (curUpper && prevUpper && nextLower) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
