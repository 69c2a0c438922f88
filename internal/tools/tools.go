// Package tools defines the tool surface exposed to the agent: the
// registry plus one handler per hub operation.
//
// Handlers are the only layer that downgrades typed failures to display
// strings. Everything below them returns errors and typed outcomes so
// that failure kinds stay distinguishable for tests and diagnostics.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/guidomitolo/my-home-assistant/internal/action"
	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Retriever is the read side of the hub the handlers consume.
// Satisfied by retrieval.Service.
type Retriever interface {
	GetAreas(ctx context.Context) ([]schema.Area, error)
	GetLabels(ctx context.Context) ([]schema.Label, error)
	GetAreaDevices(ctx context.Context, areaName string) ([]schema.Device, error)
	GetLabelDevices(ctx context.Context, labelName string) ([]schema.Device, error)
	GetAreaEntities(ctx context.Context, areaName string) ([]schema.Entity, error)
	GetLabelEntities(ctx context.Context, labelName string) ([]schema.Entity, error)
	GetAllEntities(ctx context.Context) ([]schema.Entity, error)
	GetDeviceEntities(ctx context.Context, deviceID string) ([]schema.Entity, error)
	GetEntityInfo(ctx context.Context, entityID string) (*schema.Entity, error)
	GetEntityState(ctx context.Context, entityID string) (*schema.State, error)
	GetStatesCore(ctx context.Context) ([]schema.StateCore, error)
	GetStatesByCondition(ctx context.Context, condition string) ([]schema.StateCore, error)
	GetHistory(ctx context.Context, entityID, start, end string, limit int) (*schema.HistorySeries, error)
}

// Actor is the write side of the hub. Satisfied by action.Service.
type Actor interface {
	Trigger(ctx context.Context, entityID string, cmd action.Command) (*action.Result, error)
}

// Registry holds available tools.
type Registry struct {
	tools     map[string]*Tool
	retrieval Retriever
	actions   Actor
	logger    *slog.Logger
}

// NewRegistry creates a tool registry wired to the hub services.
func NewRegistry(r Retriever, a Actor, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	reg := &Registry{
		tools:     make(map[string]*Tool),
		retrieval: r,
		actions:   a,
		logger:    logger,
	}
	reg.registerLookupTools()
	reg.registerSearchTool()
	reg.registerTrendTools()
	reg.registerActionTool()
	return reg
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// All returns every registered tool, sorted by name for stable listings.
func (r *Registry) All() []*Tool {
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs a tool by name with the given JSON-encoded arguments.
func (r *Registry) Execute(ctx context.Context, name string, argsJSON string) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", &ErrToolUnavailable{ToolName: name}
	}

	var args map[string]any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	return tool.Handler(ctx, args)
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// requireString extracts a mandatory string argument.
func requireString(args map[string]any, key string) (string, error) {
	s := stringArg(args, key)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// toJSON renders a structured result for the agent.
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Should never happen with our result types.
		return `{"error":"json encoding failed"}`
	}
	return string(b)
}
