package mcp

import (
	"encoding/json"
	"errors"
)

const (
	JsonRPCVersion = "2.0"
)

// Documents: https://modelcontextprotocol.io/docs/concepts/transports

// Request
//
//	{
//		jsonrpc: "2.0",
//		id: number | string,
//		method: string,
//		params?: object
//	}
type Request struct {
	JsonRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response
//
//	{
//		jsonrpc: "2.0",
//		id: number | string,
//		result?: object,
//		error?: {
//			code: number,
//			message: string,
//			data?: unknown
//		}
//	}
//
// Exactly one of Result and Error is set; the constructors below are the
// only way responses are built.
type Response struct {
	JsonRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

func NewResponse(id interface{}, result interface{}) *Response {
	return &Response{
		JsonRPC: JsonRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// Parse decodes a raw JSON-RPC envelope. Malformed JSON maps to
// ErrParseError; well-formed JSON with mistyped envelope fields maps to
// ErrInvalidRequest. Method semantics are not inspected here.
func Parse(raw []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrInvalidRequest
		}
		return nil, ErrParseError
	}
	return &req, nil
}

// ValidateStructure checks the envelope against JSON-RPC 2.0: the version
// literal, a non-empty method, and an id that is a string, a number or
// absent.
func (r *Request) ValidateStructure() *Error {
	if r.JsonRPC != JsonRPCVersion {
		return ErrInvalidRequest
	}
	if r.Method == "" {
		return ErrInvalidRequest
	}
	switch r.ID.(type) {
	case nil, string, float64, json.Number:
	default:
		return ErrInvalidRequest
	}
	return nil
}

// Notifications
//
//	{
//		jsonrpc: "2.0",
//		method: string,
//		params?: object
//	}
type Notification struct {
	JsonRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}
