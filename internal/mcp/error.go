package mcp

import (
	"fmt"
)

// enum ErrorCode {
// 	// Standard JSON-RPC error codes
// 	ParseError = -32700,
// 	InvalidRequest = -32600,
// 	MethodNotFound = -32601,
// 	InvalidParams = -32602,
// 	InternalError = -32603
// }
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Error is the JSON-RPC error object. Data carries no omitempty: clients
// of the original service receive an explicit "data": null when there is
// no structured detail.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

var (
	ErrParseError     = &Error{Code: CodeParseError, Message: "Parse error"}
	ErrInvalidRequest = &Error{Code: CodeInvalidRequest, Message: "Invalid Request"}
	ErrMethodNotFound = &Error{Code: CodeMethodNotFound, Message: "Method not found"}
	ErrInvalidParams  = &Error{Code: CodeInvalidParams, Message: "Invalid params"}
	ErrInternalError  = &Error{Code: CodeInternalError, Message: "Internal error"}
)

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// WithData returns a copy of the error carrying structured detail, so the
// shared sentinel values above are never mutated.
func (e *Error) WithData(data interface{}) *Error {
	return &Error{Code: e.Code, Message: e.Message, Data: data}
}

func (e *Error) JsonRPC() Response {
	return Response{
		JsonRPC: JsonRPCVersion,
		Error:   e,
	}
}

func Errorf(code int, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewErrorResponse(id interface{}, err *Error) *Response {
	return &Response{
		JsonRPC: JsonRPCVersion,
		ID:      id,
		Error:   err,
	}
}
