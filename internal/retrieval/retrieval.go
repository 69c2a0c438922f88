// Package retrieval orchestrates hub queries and turns their raw JSON
// into canonical model instances.
//
// Every list operation shares one resilience contract: a malformed
// record is logged with its identifier and skipped, and the rest of the
// batch is still returned. A batch of fifty entities where one has an
// unexpected shape yields the other forty-nine, never an error.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guidomitolo/my-home-assistant/internal/homeassistant"
	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// DefaultHistoryLimit caps how many history records a fetch keeps when
// the caller does not say otherwise.
const DefaultHistoryLimit = 20

// Hub is the slice of the Home Assistant client the retrieval service
// uses. Narrowed to an interface so tests can substitute a double.
type Hub interface {
	RenderTemplate(ctx context.Context, source string) (any, error)
	GetState(ctx context.Context, entityID string) (json.RawMessage, error)
	GetStates(ctx context.Context) (json.RawMessage, error)
	GetHistory(ctx context.Context, entityID, start, end string) (json.RawMessage, error)
}

// Service exposes the typed read operations of the tool surface.
type Service struct {
	hub    Hub
	logger *slog.Logger
}

// NewService creates a retrieval service on top of a hub client.
func NewService(hub Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{hub: hub, logger: logger}
}

// GetAreas lists every area defined on the hub.
func (s *Service) GetAreas(ctx context.Context) ([]schema.Area, error) {
	result, err := s.hub.RenderTemplate(ctx, homeassistant.ListAreasQuery())
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}

	var areas []schema.Area
	for _, raw := range asMaps(result) {
		a, err := schema.ParseArea(raw)
		if err != nil {
			s.skip("area", raw["area_id"], err)
			continue
		}
		areas = append(areas, *a)
	}
	return areas, nil
}

// GetLabels lists every user-defined label.
func (s *Service) GetLabels(ctx context.Context) ([]schema.Label, error) {
	result, err := s.hub.RenderTemplate(ctx, homeassistant.ListLabelsQuery())
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	var labels []schema.Label
	for _, raw := range asMaps(result) {
		l, err := schema.ParseLabel(raw)
		if err != nil {
			s.skip("label", raw["label_id"], err)
			continue
		}
		labels = append(labels, *l)
	}
	return labels, nil
}

// GetAreaDevices lists the devices located in an area, with their
// entities and labels.
func (s *Service) GetAreaDevices(ctx context.Context, areaName string) ([]schema.Device, error) {
	return s.deviceQuery(ctx, homeassistant.AreaDevicesQuery(areaName), "area devices")
}

// GetLabelDevices lists the devices tagged with a label, regardless of area.
func (s *Service) GetLabelDevices(ctx context.Context, labelName string) ([]schema.Device, error) {
	return s.deviceQuery(ctx, homeassistant.LabelDevicesQuery(labelName), "label devices")
}

func (s *Service) deviceQuery(ctx context.Context, query, op string) ([]schema.Device, error) {
	result, err := s.hub.RenderTemplate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var devices []schema.Device
	for _, raw := range asMaps(result) {
		d, err := schema.ParseDevice(raw)
		if err != nil {
			s.skip("device", raw["device_id"], err)
			continue
		}
		devices = append(devices, *d)
	}
	return devices, nil
}

// GetAreaEntities lists the entities of every device in an area.
func (s *Service) GetAreaEntities(ctx context.Context, areaName string) ([]schema.Entity, error) {
	return s.entityQuery(ctx, homeassistant.AreaEntitiesQuery(areaName), "area entities")
}

// GetLabelEntities lists the entities of every device tagged with a label.
func (s *Service) GetLabelEntities(ctx context.Context, labelName string) ([]schema.Entity, error) {
	return s.entityQuery(ctx, homeassistant.LabelEntitiesQuery(labelName), "label entities")
}

// GetDeviceEntities lists the entities belonging to one physical device.
func (s *Service) GetDeviceEntities(ctx context.Context, deviceID string) ([]schema.Entity, error) {
	return s.entityQuery(ctx, homeassistant.DeviceEntitiesQuery(deviceID), "device entities")
}

// GetAllEntities lists every entity on the hub with its area and labels.
func (s *Service) GetAllEntities(ctx context.Context) ([]schema.Entity, error) {
	return s.entityQuery(ctx, homeassistant.AllEntitiesQuery(), "all entities")
}

func (s *Service) entityQuery(ctx context.Context, query, op string) ([]schema.Entity, error) {
	result, err := s.hub.RenderTemplate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var entities []schema.Entity
	for _, raw := range asMaps(result) {
		e, err := schema.ParseEntity(raw)
		if err != nil {
			s.skip("entity", raw["entity_id"], err)
			continue
		}
		entities = append(entities, *e)
	}
	return entities, nil
}

// GetEntityInfo fetches the comprehensive view of one entity: state,
// attributes, device relationship, area and labels. A schema failure on
// this single-record call propagates to the caller.
func (s *Service) GetEntityInfo(ctx context.Context, entityID string) (*schema.Entity, error) {
	result, err := s.hub.RenderTemplate(ctx, homeassistant.SingleEntityInfoQuery(entityID))
	if err != nil {
		return nil, fmt.Errorf("entity info %s: %w", entityID, err)
	}

	raw, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("entity info %s: unexpected response shape %T", entityID, result)
	}
	return schema.ParseEntity(raw)
}

// GetEntityState fetches the live state of one entity. A missing entity
// is a semantic absence, reported as (nil, nil); transport failures stay
// errors so "doesn't exist" and "couldn't ask" remain distinguishable.
func (s *Service) GetEntityState(ctx context.Context, entityID string) (*schema.State, error) {
	raw, err := s.hub.GetState(ctx, entityID)
	if err != nil {
		if errors.Is(err, homeassistant.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("entity state %s: %w", entityID, err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("entity state %s: %w", entityID, err)
	}
	return schema.ParseState(m)
}

// GetStates snapshots the full state of every entity.
func (s *Service) GetStates(ctx context.Context) ([]schema.State, error) {
	maps, err := s.stateSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var states []schema.State
	for _, raw := range maps {
		st, err := schema.ParseState(raw)
		if err != nil {
			s.skip("state", raw["entity_id"], err)
			continue
		}
		states = append(states, *st)
	}
	return states, nil
}

// GetStatesCore snapshots every entity using the lightweight schema,
// trading attributes and context for a much smaller payload. Bulk
// callers pick this variant up front rather than re-deciding per record.
func (s *Service) GetStatesCore(ctx context.Context) ([]schema.StateCore, error) {
	maps, err := s.stateSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var states []schema.StateCore
	for _, raw := range maps {
		st, err := schema.ParseStateCore(raw)
		if err != nil {
			s.skip("state", raw["entity_id"], err)
			continue
		}
		states = append(states, *st)
	}
	return states, nil
}

func (s *Service) stateSnapshot(ctx context.Context) ([]map[string]any, error) {
	raw, err := s.hub.GetStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("state snapshot: %w", err)
	}

	var maps []map[string]any
	if err := json.Unmarshal(raw, &maps); err != nil {
		return nil, fmt.Errorf("state snapshot: %w", err)
	}
	return maps, nil
}

// GetStatesByCondition lists the entities whose current state equals
// condition (e.g. every entity that is "on"). An empty condition is
// rejected before any network call.
func (s *Service) GetStatesByCondition(ctx context.Context, condition string) ([]schema.StateCore, error) {
	if condition == "" {
		return nil, fmt.Errorf("states by condition: condition must not be empty")
	}

	result, err := s.hub.RenderTemplate(ctx, homeassistant.StatesByConditionQuery(condition))
	if err != nil {
		return nil, fmt.Errorf("states by condition: %w", err)
	}

	var states []schema.StateCore
	for _, raw := range asMaps(result) {
		st, err := schema.ParseStateCore(raw)
		if err != nil {
			s.skip("state", raw["entity_id"], err)
			continue
		}
		states = append(states, *st)
	}
	return states, nil
}

// skip logs a malformed record and moves on. This is the partial-failure
// policy shared by every batch operation.
func (s *Service) skip(kind string, id any, err error) {
	s.logger.Warn("skipping malformed record",
		"kind", kind,
		"id", id,
		"error", err,
	)
}

// asMaps extracts the object elements of a decoded template result.
// Anything that is not a list of objects (template misfires render as
// plain strings) yields an empty slice.
func asMaps(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// validTimestamp reports whether ts parses as ISO 8601 with an explicit
// timezone offset. Malformed timestamps are dropped rather than
// forwarded so the hub falls back to its own period default.
func validTimestamp(ts string) bool {
	_, err := time.Parse(time.RFC3339, ts)
	return err == nil
}
