package mcp

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Dispatcher is the protocol state machine. Each envelope is handled
// independently; no state survives a request except what the tool handlers
// themselves own.
type Dispatcher struct {
	registry *Registry
	server   ServerInfo
}

func NewDispatcher(registry *Registry, server ServerInfo) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		server:   server,
	}
}

// HandleRaw parses, validates and dispatches one envelope. It always
// returns a response; the id is null when it could not be determined.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) *Response {
	req, rpcErr := Parse(raw)
	if rpcErr != nil {
		return NewErrorResponse(nil, rpcErr)
	}
	if rpcErr := req.ValidateStructure(); rpcErr != nil {
		return NewErrorResponse(req.ID, rpcErr)
	}
	return d.Handle(ctx, req)
}

// Handle routes a validated envelope. Panics anywhere below are converted
// to a -32603 response so a single bad request cannot take down the
// handling task.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("method", req.Method).Msg("dispatch panic recovered")
			resp = NewErrorResponse(req.ID, ErrInternalError)
		}
	}()

	switch req.Method {
	case MethodInitialize:
		return NewResponse(req.ID, d.initializeResult())
	case MethodPing:
		return NewResponse(req.ID, M{})
	case MethodToolsList:
		return NewResponse(req.ID, ToolsListResponse{Tools: d.registry.List()})
	case MethodResourcesList:
		return NewResponse(req.ID, ResourcesListResponse{Resources: []Resource{}})
	case MethodToolsCall:
		return d.handleToolsCall(ctx, req)
	default:
		return NewErrorResponse(req.ID, Errorf(CodeMethodNotFound, "Method not found: %s", req.Method))
	}
}

// initializeResult is stateless: two initialize calls with identical input
// produce structurally identical results and nothing is retained.
func (d *Dispatcher) initializeResult() InitializeResponse {
	return InitializeResponse{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    DefaultCapabilities,
		ServerInfo:      d.server,
	}
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *Request) *Response {
	if len(req.Params) == 0 {
		return NewErrorResponse(req.ID, ErrInvalidParams.WithData(M{"missing": []string{"name", "arguments"}}))
	}

	var call ToolsCallRequest
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return NewErrorResponse(req.ID, ErrInvalidParams)
	}
	if call.Name == "" {
		return NewErrorResponse(req.ID, ErrInvalidParams.WithData(M{"missing": []string{"name"}}))
	}
	if call.Arguments == nil {
		return NewErrorResponse(req.ID, ErrInvalidParams.WithData(M{"missing": []string{"arguments"}}))
	}

	handler, ok := d.registry.Lookup(call.Name)
	if !ok {
		return NewErrorResponse(req.ID, Errorf(CodeMethodNotFound, "Unknown tool: %s", call.Name))
	}

	// Arguments are validated before the backend is ever touched: a bad
	// request must not look like a backend problem.
	if rpcErr := d.registry.ValidateArguments(call.Name, call.Arguments); rpcErr != nil {
		return NewErrorResponse(req.ID, rpcErr)
	}

	result, err := handler.Invoke(ctx, call.Arguments)
	if err != nil {
		// Both backends failed. Still a tool-level failure, not a
		// protocol error.
		log.Error().Err(err).Str("tool", call.Name).Msg("tool invocation failed")
		return NewResponse(req.ID, ErrorResult("backend error: %v", err))
	}
	return NewResponse(req.ID, result)
}
