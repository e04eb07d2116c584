package mcp

import (
	"context"
	"testing"
)

func echoTool(name string) Tool {
	return Tool{
		Name: name,
		InputSchema: ToolSchema{
			Type: "object",
			Properties: map[string]Property{
				"message": {Type: "string"},
			},
			Required: []string{"message"},
		},
	}
}

func noopHandler() ToolHandler {
	return ToolHandlerFunc(func(ctx context.Context, args M) (*ToolsCallResponse, error) {
		return TextResult("ok"), nil
	})
}

func TestRegistryListOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		r.Register(echoTool(name), noopHandler())
	}

	want := []string{"charlie", "alpha", "bravo"}
	for i := 0; i < 3; i++ {
		list := r.List()
		if len(list) != len(want) {
			t.Fatalf("List() returned %d tools, want %d", len(list), len(want))
		}
		for j, tool := range list {
			if tool.Name != want[j] {
				t.Errorf("List()[%d] = %q, want %q", j, tool.Name, want[j])
			}
		}
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"), noopHandler())

	defer func() {
		if recover() == nil {
			t.Error("Register() did not panic on duplicate tool name")
		}
	}()
	r.Register(echoTool("echo"), noopHandler())
}

func TestRegistryNilHandlerPanics(t *testing.T) {
	r := NewRegistry()
	defer func() {
		if recover() == nil {
			t.Error("Register() did not panic on nil handler")
		}
	}()
	r.Register(echoTool("echo"), nil)
}

func TestValidateArguments(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{
		Name: "query",
		InputSchema: ToolSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {Type: "string"},
				"limit": {Type: "integer"},
			},
			Required: []string{"query"},
		},
	}, noopHandler())

	if rpcErr := r.ValidateArguments("query", M{"query": "SELECT 1"}); rpcErr != nil {
		t.Errorf("ValidateArguments() rejected valid arguments: %v", rpcErr)
	}

	// Unknown extras are tolerated.
	if rpcErr := r.ValidateArguments("query", M{"query": "SELECT 1", "bogus": 42}); rpcErr != nil {
		t.Errorf("ValidateArguments() rejected unknown extra property: %v", rpcErr)
	}

	rpcErr := r.ValidateArguments("query", M{})
	if rpcErr == nil || rpcErr.Code != CodeInvalidParams {
		t.Fatalf("ValidateArguments() = %v, want -32602 for missing required", rpcErr)
	}
	data, ok := rpcErr.Data.(M)
	if !ok {
		t.Fatalf("error data = %T, want M", rpcErr.Data)
	}
	missing, _ := data["missing"].([]string)
	if len(missing) != 1 || missing[0] != "query" {
		t.Errorf("missing = %v, want [query]", data["missing"])
	}

	rpcErr = r.ValidateArguments("query", M{"query": 7, "limit": "ten"})
	if rpcErr == nil || rpcErr.Code != CodeInvalidParams {
		t.Fatalf("ValidateArguments() = %v, want -32602 for mistyped", rpcErr)
	}
	data = rpcErr.Data.(M)
	mistyped, _ := data["mistyped"].([]string)
	if len(mistyped) != 2 {
		t.Errorf("mistyped = %v, want both query and limit", data["mistyped"])
	}

	rpcErr = r.ValidateArguments("nope", M{})
	if rpcErr == nil || rpcErr.Code != CodeMethodNotFound {
		t.Errorf("ValidateArguments() for unknown tool = %v, want -32601", rpcErr)
	}
}

func TestTypeMatches(t *testing.T) {
	tests := []struct {
		schemaType string
		val        interface{}
		want       bool
	}{
		{"string", "hi", true},
		{"string", 1.0, false},
		{"number", 1.5, true},
		{"integer", float64(2), true},
		{"integer", "2", false},
		{"boolean", true, true},
		{"array", []interface{}{1.0}, true},
		{"array", "not array", false},
		{"object", map[string]interface{}{}, true},
		{"unknown", struct{}{}, true},
	}
	for _, tt := range tests {
		if got := typeMatches(tt.schemaType, tt.val); got != tt.want {
			t.Errorf("typeMatches(%q, %v) = %v, want %v", tt.schemaType, tt.val, got, tt.want)
		}
	}
}
