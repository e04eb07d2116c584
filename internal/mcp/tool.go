package mcp

import "fmt"

// Document: https://modelcontextprotocol.io/docs/concepts/tools

const (
	// Client => Server
	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"
)

type M map[string]interface{}

// Tool
//
//	{
//		name: string;          // Unique identifier for the tool
//		description?: string;  // Human-readable description
//		inputSchema: {         // JSON Schema for the tool's parameters
//			type: "object",
//			properties: { ... }  // Tool-specific parameters
//		}
//	}
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	InputSchema ToolSchema `json:"inputSchema"`
}

type ToolSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

//	{
//		"method": "tools/call",
//		"params": {
//		  "name": "postgres_query",
//		  "arguments": {
//			"query": "SELECT 1"
//		  }
//		},
//		"jsonrpc": "2.0",
//		"id": 3
//	  }
type ToolsCallRequest struct {
	Name      string `json:"name"`
	Arguments M      `json:"arguments"`
}

type ToolsListResponse struct {
	Tools []Tool `json:"tools"`
}

//	{
//		"jsonrpc": "2.0",
//		"id": 2,
//		"result": {
//		  "content": [
//			{
//			  "type": "text",
//			  "text": "Connection successful"
//			}
//		  ],
//		  "isError": false
//		}
//	  }
type ToolsCallResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextResult wraps plain text into a successful tool result.
func TextResult(text string) *ToolsCallResponse {
	return &ToolsCallResponse{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// ErrorResult reports a tool-level (domain) failure. It is delivered as an
// RPC success with isError set, never as a JSON-RPC error object.
func ErrorResult(format string, args ...interface{}) *ToolsCallResponse {
	return &ToolsCallResponse{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
