package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/guidomitolo/my-home-assistant/internal/tools"
)

// fakeRegistry is a minimal ToolSource double.
type fakeRegistry struct {
	tools  []*tools.Tool
	output string
	err    error

	lastName string
	lastArgs string
}

func (f *fakeRegistry) All() []*tools.Tool { return f.tools }

func (f *fakeRegistry) Execute(ctx context.Context, name string, argsJSON string) (string, error) {
	f.lastName = name
	f.lastArgs = argsJSON
	if f.err != nil {
		return "", f.err
	}
	for _, t := range f.tools {
		if t.Name == name {
			return f.output, nil
		}
	}
	return "", &tools.ErrToolUnavailable{ToolName: name}
}

func newTestServer(reg ToolSource) *Server {
	return NewServer(reg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func request(id, method, params string) *Request {
	req := &Request{JSONRPC: jsonrpcVersion, Method: method}
	if id != "" {
		req.ID = json.RawMessage(id)
	}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

func TestHandle_Initialize(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	resp := srv.Handle(context.Background(), request("1", "initialize", `{"protocolVersion": "2024-11-05"}`))
	if resp == nil || resp.Error != nil {
		t.Fatalf("resp = %+v", resp)
	}

	result, ok := resp.Result.(initializeResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if result.ProtocolVersion != protocolVersion {
		t.Errorf("protocol version = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != serverName {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	if result.Capabilities.Tools == nil {
		t.Error("tools capability should be advertised")
	}
}

func TestHandle_ToolsList(t *testing.T) {
	reg := &fakeRegistry{tools: []*tools.Tool{
		{Name: "get_areas", Description: "List areas", Parameters: map[string]any{"type": "object"}},
	}}
	srv := newTestServer(reg)

	resp := srv.Handle(context.Background(), request("2", "tools/list", ""))
	result, ok := resp.Result.(toolsListResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if len(result.Tools) != 1 || result.Tools[0].Name != "get_areas" {
		t.Errorf("tools = %+v", result.Tools)
	}
	if result.Tools[0].InputSchema["type"] != "object" {
		t.Errorf("inputSchema = %v", result.Tools[0].InputSchema)
	}
}

func TestHandle_ToolsCall(t *testing.T) {
	reg := &fakeRegistry{
		tools:  []*tools.Tool{{Name: "get_areas"}},
		output: `[{"id":"kitchen"}]`,
	}
	srv := newTestServer(reg)

	resp := srv.Handle(context.Background(), request("3", "tools/call",
		`{"name": "get_areas", "arguments": {"x": 1}}`))
	if resp.Error != nil {
		t.Fatalf("error = %v", resp.Error)
	}

	result, ok := resp.Result.(callToolResult)
	if !ok {
		t.Fatalf("result type = %T", resp.Result)
	}
	if result.IsError {
		t.Error("IsError should be false")
	}
	if len(result.Content) != 1 || result.Content[0].Text != reg.output {
		t.Errorf("content = %+v", result.Content)
	}
	if reg.lastArgs != `{"x": 1}` {
		t.Errorf("arguments forwarded as %q", reg.lastArgs)
	}
}

func TestHandle_ToolsCall_HandlerFailureIsToolError(t *testing.T) {
	// Execution failures go back as isError content so the calling
	// model can read them, not as protocol errors.
	reg := &fakeRegistry{
		tools: []*tools.Tool{{Name: "get_areas"}},
		err:   errors.New("hub unreachable"),
	}
	srv := newTestServer(reg)

	resp := srv.Handle(context.Background(), request("4", "tools/call", `{"name": "get_areas"}`))
	if resp.Error != nil {
		t.Fatalf("protocol error = %v, want tool-level error", resp.Error)
	}
	result := resp.Result.(callToolResult)
	if !result.IsError {
		t.Error("IsError should be set")
	}
	if result.Content[0].Text != "hub unreachable" {
		t.Errorf("content = %+v", result.Content)
	}
}

func TestHandle_ToolsCall_UnknownTool(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	resp := srv.Handle(context.Background(), request("5", "tools/call", `{"name": "nope"}`))
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Errorf("resp = %+v, want invalid params error", resp)
	}
}

func TestHandle_ToolsCall_MissingName(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	resp := srv.Handle(context.Background(), request("6", "tools/call", `{}`))
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandle_MethodNotFound(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	resp := srv.Handle(context.Background(), request("7", "resources/list", ""))
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandle_Notification(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	if resp := srv.Handle(context.Background(), request("", "notifications/initialized", "")); resp != nil {
		t.Errorf("notification got a response: %+v", resp)
	}
}

func TestHandle_StringIDRoundTrips(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	resp := srv.Handle(context.Background(), request(`"abc-123"`, "ping", ""))
	if string(resp.ID) != `"abc-123"` {
		t.Errorf("ID = %s, string IDs must round-trip unchanged", resp.ID)
	}
}

func TestHandle_WrongJSONRPCVersion(t *testing.T) {
	srv := newTestServer(&fakeRegistry{})

	req := request("8", "ping", "")
	req.JSONRPC = "1.0"
	resp := srv.Handle(context.Background(), req)
	if resp.Error == nil || resp.Error.Code != codeInvalidRequest {
		t.Errorf("resp = %+v", resp)
	}
}
