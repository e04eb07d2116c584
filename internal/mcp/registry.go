package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolHandler executes one named tool. The returned error is reserved for
// backend failures; domain-level failures are encoded in the result via
// IsError.
type ToolHandler interface {
	Invoke(ctx context.Context, args M) (*ToolsCallResponse, error)
}

// ToolHandlerFunc adapts a function to ToolHandler.
type ToolHandlerFunc func(ctx context.Context, args M) (*ToolsCallResponse, error)

func (f ToolHandlerFunc) Invoke(ctx context.Context, args M) (*ToolsCallResponse, error) {
	return f(ctx, args)
}

// Registry holds the static tool table. It is populated once at startup
// and never mutated afterwards, so lookups need no locking.
type Registry struct {
	tools    []Tool
	handlers map[string]ToolHandler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]ToolHandler),
	}
}

// Register adds a tool descriptor with its handler. A duplicate name or a
// nil handler is a configuration error and panics; the process should
// never come up with a broken tool table.
func (r *Registry) Register(tool Tool, h ToolHandler) {
	if h == nil {
		panic(fmt.Sprintf("mcp: nil handler for tool %q", tool.Name))
	}
	if _, ok := r.handlers[tool.Name]; ok {
		panic(fmt.Sprintf("mcp: duplicate tool %q", tool.Name))
	}
	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = h
}

// List returns the descriptors in registration order. The slice is a copy;
// callers cannot disturb the table.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

func (r *Registry) Lookup(name string) (ToolHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// ValidateArguments checks the supplied arguments against the tool's input
// schema: every required property must be present, and any supplied known
// property must match its declared primitive type. Unknown extra
// properties are tolerated.
func (r *Registry) ValidateArguments(name string, args M) *Error {
	var tool *Tool
	for i := range r.tools {
		if r.tools[i].Name == name {
			tool = &r.tools[i]
			break
		}
	}
	if tool == nil {
		return Errorf(CodeMethodNotFound, "Unknown tool: %s", name)
	}

	var missing, mistyped []string
	for _, req := range tool.InputSchema.Required {
		if _, ok := args[req]; !ok {
			missing = append(missing, req)
		}
	}
	for key, prop := range tool.InputSchema.Properties {
		val, ok := args[key]
		if !ok || val == nil {
			continue
		}
		if !typeMatches(prop.Type, val) {
			mistyped = append(mistyped, key)
		}
	}

	if len(missing) == 0 && len(mistyped) == 0 {
		return nil
	}

	data := M{}
	if len(missing) > 0 {
		data["missing"] = missing
	}
	if len(mistyped) > 0 {
		data["mistyped"] = mistyped
	}
	return ErrInvalidParams.WithData(data)
}

// typeMatches maps JSON Schema primitive names onto the types produced by
// encoding/json when decoding into interface{}.
func typeMatches(schemaType string, val interface{}) bool {
	switch schemaType {
	case "string":
		_, ok := val.(string)
		return ok
	case "number", "integer":
		switch val.(type) {
		case float64, json.Number:
			return true
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	default:
		// Unknown schema type: stay permissive.
		return true
	}
}
