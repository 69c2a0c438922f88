// Package mcp implements the Model Context Protocol server surface:
// JSON-RPC 2.0 message types, the method dispatcher, and the stdio and
// HTTP transports that carry it.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/guidomitolo/my-home-assistant/internal/buildinfo"
	"github.com/guidomitolo/my-home-assistant/internal/tools"
)

// protocolVersion is the MCP protocol version we advertise during
// initialization.
const protocolVersion = "2024-11-05"

// serverName identifies this server in the initialize handshake.
const serverName = "hamcp"

// ToolDefinition is an MCP tool as returned by tools/list.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentBlock is a single content item in a tools/call response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// callToolResult is the result payload of a tools/call response.
type callToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// callToolParams is the params payload of a tools/call request.
type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// toolsListResult is the result payload of a tools/list response.
type toolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// serverInfo is returned in the initialize response.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// serverCapabilities describes what this server supports.
type serverCapabilities struct {
	Tools *struct{} `json:"tools,omitempty"`
}

// initializeResult is the full initialize response result.
type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      serverInfo         `json:"serverInfo"`
	Capabilities    serverCapabilities `json:"capabilities"`
}

// ToolSource is the tool surface the server dispatches to. Satisfied
// by tools.Registry.
type ToolSource interface {
	All() []*tools.Tool
	Execute(ctx context.Context, name string, argsJSON string) (string, error)
}

// Server dispatches MCP protocol operations (initialize, tools/list,
// tools/call) to the tool registry. It is transport-agnostic; the
// stdio and HTTP transports feed it one request at a time.
type Server struct {
	registry ToolSource
	logger   *slog.Logger
}

// NewServer creates an MCP server backed by the given tool registry.
func NewServer(registry ToolSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry: registry,
		logger:   logger,
	}
}

// Handle processes a single JSON-RPC request and returns the response,
// or nil when the request is a notification.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != jsonrpcVersion {
		return NewErrorResponse(req.ID, codeInvalidRequest, "unsupported jsonrpc version")
	}

	if req.IsNotification() {
		// notifications/initialized and friends require no reply.
		s.logger.Debug("MCP notification", "method", req.Method)
		return nil
	}

	s.logger.Debug("MCP request", "method", req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return NewResponse(req.ID, struct{}{})
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return NewErrorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return NewResponse(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo: serverInfo{
			Name:    serverName,
			Version: buildinfo.Version,
		},
		Capabilities: serverCapabilities{
			Tools: &struct{}{},
		},
	})
}

func (s *Server) handleToolsList(req *Request) *Response {
	all := s.registry.All()
	defs := make([]ToolDefinition, 0, len(all))
	for _, t := range all {
		defs = append(defs, ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return NewResponse(req.ID, toolsListResult{Tools: defs})
}

// handleToolsCall runs a tool. Handler failures come back as isError
// tool results so the calling model can read them; only malformed
// requests surface as JSON-RPC errors.
func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, codeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
	}
	if params.Name == "" {
		return NewErrorResponse(req.ID, codeInvalidParams, "tool name is required")
	}

	out, err := s.registry.Execute(ctx, params.Name, string(params.Arguments))
	if err != nil {
		var unavailable *tools.ErrToolUnavailable
		if errors.As(err, &unavailable) {
			return NewErrorResponse(req.ID, codeInvalidParams, err.Error())
		}
		s.logger.Warn("tool execution failed", "tool", params.Name, "error", err)
		return NewResponse(req.ID, callToolResult{
			Content: []ContentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}

	return NewResponse(req.ID, callToolResult{
		Content: []ContentBlock{{Type: "text", Text: out}},
	})
}
