// Package tools exposes local functions as callable tools: each tool carries
// a JSON Schema for its arguments, which are validated before the function
// runs.
package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// ErrUnknownTool is returned by Call for unregistered names.
var ErrUnknownTool = errors.New("unknown tool")

// ArgumentError reports arguments that do not satisfy a tool's schema.
type ArgumentError struct {
	Tool     string
	Problems []string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// Func runs a tool with already-validated arguments and returns its output.
type Func func(args map[string]any) (string, error)

// Tool is a named function with a JSON Schema describing its parameters.
type Tool struct {
	Name        string
	Description string
	Parameters  string
	Func        Func
}

// FunctionDefinition is the function-calling shape advertised to a model.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Definition wraps a FunctionDefinition as a chat-completions tool entry.
type Definition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type entry struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry holds the callable tools.
type Registry struct {
	tools map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register compiles the tool's schema and adds it.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Func == nil {
		return errors.New("tool needs a name and a function")
	}
	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("tool %q already registered", t.Name)
	}

	var doc any
	if err := json.Unmarshal([]byte(t.Parameters), &doc); err != nil {
		return fmt.Errorf("parsing schema for %s: %w", t.Name, err)
	}
	resource := t.Name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, doc); err != nil {
		return fmt.Errorf("adding schema for %s: %w", t.Name, err)
	}
	sch, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("compiling schema for %s: %w", t.Name, err)
	}

	r.tools[t.Name] = &entry{tool: t, schema: sch}
	return nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the function-calling definitions, sorted by name.
func (r *Registry) Definitions() []Definition {
	var defs []Definition
	for _, n := range r.Names() {
		t := r.tools[n].tool
		defs = append(defs, Definition{
			Type: "function",
			Function: FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.Parameters),
			},
		})
	}
	return defs
}

// Call validates argsJSON against the tool's schema and invokes it.
func (r *Registry) Call(name string, argsJSON []byte) (string, error) {
	e, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if len(bytes.TrimSpace(argsJSON)) == 0 {
		argsJSON = []byte("{}")
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(argsJSON))
	if err != nil {
		return "", fmt.Errorf("parsing arguments for %s: %w", name, err)
	}
	if problems := validate(e.schema, instance); len(problems) > 0 {
		return "", &ArgumentError{Tool: name, Problems: problems}
	}

	var args map[string]any
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return "", fmt.Errorf("decoding arguments for %s: %w", name, err)
	}
	return e.tool.Func(args)
}

func validate(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
