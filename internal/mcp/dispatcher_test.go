package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func testDispatcher(t *testing.T) (*Dispatcher, *Registry) {
	t.Helper()
	r := NewRegistry()
	r.Register(Tool{
		Name: "echo",
		InputSchema: ToolSchema{
			Type: "object",
			Properties: map[string]Property{
				"message": {Type: "string"},
			},
			Required: []string{"message"},
		},
	}, ToolHandlerFunc(func(ctx context.Context, args M) (*ToolsCallResponse, error) {
		message, _ := args["message"].(string)
		return TextResult("Echo: " + message), nil
	}))
	d := NewDispatcher(r, ServerInfo{Name: "pgmcp", Version: "test"})
	return d, r
}

func TestDispatchEcho(t *testing.T) {
	d, _ := testDispatcher(t)

	raw := []byte(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`)
	resp := d.HandleRaw(context.Background(), raw)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if id, ok := resp.ID.(float64); !ok || id != 7 {
		t.Errorf("id = %v, want 7", resp.ID)
	}
	result, ok := resp.Result.(*ToolsCallResponse)
	if !ok {
		t.Fatalf("result = %T, want *ToolsCallResponse", resp.Result)
	}
	if result.IsError {
		t.Error("echo result has isError set")
	}
	if len(result.Content) != 1 || result.Content[0].Text != "Echo: hi" {
		t.Errorf("content = %+v, want single text 'Echo: hi'", result.Content)
	}
}

func TestDispatchParseError(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.HandleRaw(context.Background(), []byte(`{nope`))
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Fatalf("error = %v, want -32700", resp.Error)
	}
	if resp.ID != nil {
		t.Errorf("id = %v, want null", resp.ID)
	}
}

func TestDispatchInvalidEnvelope(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`))
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Fatalf("error = %v, want -32600", resp.Error)
	}
}

func TestDispatchMethodNotFound(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":3,"method":"unknown/method"}`))
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("error = %v, want -32601", resp.Error)
	}
	if resp.Error.Message != "Method not found: unknown/method" {
		t.Errorf("message = %q", resp.Error.Message)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"data":null`) {
		t.Errorf("response does not carry explicit null data: %s", b)
	}
}

func TestDispatchInitialize(t *testing.T) {
	d, _ := testDispatcher(t)

	first := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocol_version":"2024-11-05","client_info":{"name":"test","version":"0.0.1"}}}`))
	second := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocol_version":"2024-11-05","client_info":{"name":"test","version":"0.0.1"}}}`))

	if first.Error != nil || second.Error != nil {
		t.Fatalf("initialize failed: %v %v", first.Error, second.Error)
	}
	if !reflect.DeepEqual(first.Result, second.Result) {
		t.Error("initialize is not idempotent")
	}

	result, ok := first.Result.(InitializeResponse)
	if !ok {
		t.Fatalf("result = %T, want InitializeResponse", first.Result)
	}
	if result.ProtocolVersion != ProtocolVersion {
		t.Errorf("protocol_version = %q, want %q", result.ProtocolVersion, ProtocolVersion)
	}
	if result.ServerInfo.Name != "pgmcp" {
		t.Errorf("server name = %q, want pgmcp", result.ServerInfo.Name)
	}
}

func TestDispatchPing(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":"p1","method":"ping"}`))
	if resp.Error != nil {
		t.Fatalf("ping failed: %v", resp.Error)
	}
	if resp.ID != "p1" {
		t.Errorf("id = %v, want p1", resp.ID)
	}
}

func TestDispatchToolsList(t *testing.T) {
	d, r := testDispatcher(t)
	r.Register(Tool{Name: "second", InputSchema: ToolSchema{Type: "object", Properties: map[string]Property{}}}, ToolHandlerFunc(func(ctx context.Context, args M) (*ToolsCallResponse, error) {
		return TextResult("ok"), nil
	}))

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	if resp.Error != nil {
		t.Fatalf("tools/list failed: %v", resp.Error)
	}
	result, ok := resp.Result.(ToolsListResponse)
	if !ok {
		t.Fatalf("result = %T, want ToolsListResponse", resp.Result)
	}
	if len(result.Tools) != 2 || result.Tools[0].Name != "echo" || result.Tools[1].Name != "second" {
		t.Errorf("tools = %+v, want [echo second]", result.Tools)
	}
}

func TestDispatchToolsCallValidation(t *testing.T) {
	r := NewRegistry()
	invoked := 0
	r.Register(Tool{
		Name: "query",
		InputSchema: ToolSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {Type: "string"},
			},
			Required: []string{"query"},
		},
	}, ToolHandlerFunc(func(ctx context.Context, args M) (*ToolsCallResponse, error) {
		invoked++
		return TextResult("ok"), nil
	}))
	d := NewDispatcher(r, ServerInfo{Name: "pgmcp", Version: "test"})

	tests := []struct {
		name string
		raw  string
		code int
	}{
		{"no params", `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, CodeInvalidParams},
		{"missing name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`, CodeInvalidParams},
		{"missing arguments", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"query"}}`, CodeInvalidParams},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`, CodeMethodNotFound},
		{"missing required arg", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"query","arguments":{}}}`, CodeInvalidParams},
		{"mistyped arg", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"query","arguments":{"query":42}}}`, CodeInvalidParams},
	}
	for _, tt := range tests {
		resp := d.HandleRaw(context.Background(), []byte(tt.raw))
		if resp.Error == nil || resp.Error.Code != tt.code {
			t.Errorf("%s: error = %v, want code %d", tt.name, resp.Error, tt.code)
		}
	}
	if invoked != 0 {
		t.Errorf("handler invoked %d times during validation failures, want 0", invoked)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{Name: "broken", InputSchema: ToolSchema{Type: "object", Properties: map[string]Property{}}},
		ToolHandlerFunc(func(ctx context.Context, args M) (*ToolsCallResponse, error) {
			return nil, fmt.Errorf("connection refused")
		}))
	d := NewDispatcher(r, ServerInfo{Name: "pgmcp", Version: "test"})

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"broken","arguments":{}}}`))
	if resp.Error != nil {
		t.Fatalf("backend failure must not become a protocol error: %v", resp.Error)
	}
	result, ok := resp.Result.(*ToolsCallResponse)
	if !ok {
		t.Fatalf("result = %T, want *ToolsCallResponse", resp.Result)
	}
	if !result.IsError {
		t.Error("backend failure result is missing isError")
	}
	if len(result.Content) != 1 || result.Content[0].Text != "backend error: connection refused" {
		t.Errorf("content = %+v", result.Content)
	}
}

func TestDispatchPanicRecovery(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{Name: "panicky", InputSchema: ToolSchema{Type: "object", Properties: map[string]Property{}}},
		ToolHandlerFunc(func(ctx context.Context, args M) (*ToolsCallResponse, error) {
			panic("boom")
		}))
	d := NewDispatcher(r, ServerInfo{Name: "pgmcp", Version: "test"})

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"panicky","arguments":{}}}`))
	if resp.Error == nil || resp.Error.Code != CodeInternalError {
		t.Fatalf("error = %v, want -32603", resp.Error)
	}
	if id, ok := resp.ID.(float64); !ok || id != 5 {
		t.Errorf("id = %v, want 5", resp.ID)
	}
}

func TestDispatchResourcesList(t *testing.T) {
	d, _ := testDispatcher(t)

	resp := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":6,"method":"resources/list"}`))
	if resp.Error != nil {
		t.Fatalf("resources/list failed: %v", resp.Error)
	}
	result, ok := resp.Result.(ResourcesListResponse)
	if !ok {
		t.Fatalf("result = %T, want ResourcesListResponse", resp.Result)
	}
	if result.Resources == nil || len(result.Resources) != 0 {
		t.Errorf("resources = %v, want empty non-nil list", result.Resources)
	}
}
