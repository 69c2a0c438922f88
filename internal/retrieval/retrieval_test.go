package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/guidomitolo/my-home-assistant/internal/homeassistant"
)

// fakeHub is a canned-response double for the Hub interface.
type fakeHub struct {
	template    any
	templateErr error
	state       json.RawMessage
	stateErr    error
	states      json.RawMessage
	statesErr   error
	history     json.RawMessage
	historyErr  error

	calls        int
	lastQuery    string
	historyStart string
	historyEnd   string
}

func (f *fakeHub) RenderTemplate(ctx context.Context, source string) (any, error) {
	f.calls++
	f.lastQuery = source
	return f.template, f.templateErr
}

func (f *fakeHub) GetState(ctx context.Context, entityID string) (json.RawMessage, error) {
	f.calls++
	return f.state, f.stateErr
}

func (f *fakeHub) GetStates(ctx context.Context) (json.RawMessage, error) {
	f.calls++
	return f.states, f.statesErr
}

func (f *fakeHub) GetHistory(ctx context.Context, entityID, start, end string) (json.RawMessage, error) {
	f.calls++
	f.historyStart = start
	f.historyEnd = end
	return f.history, f.historyErr
}

func newTestService(hub Hub) *Service {
	return NewService(hub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetAreas(t *testing.T) {
	hub := &fakeHub{template: []any{
		map[string]any{"area_id": "kitchen", "area_name": "Kitchen"},
		map[string]any{"area_id": "garage", "area_name": "Garage"},
	}}

	areas, err := newTestService(hub).GetAreas(context.Background())
	if err != nil {
		t.Fatalf("GetAreas: %v", err)
	}
	if len(areas) != 2 {
		t.Fatalf("got %d areas, want 2", len(areas))
	}
	if areas[0].ID != "kitchen" || areas[0].Name != "Kitchen" {
		t.Errorf("areas[0] = %+v", areas[0])
	}
}

func TestGetLabels_SkipsMalformedRecords(t *testing.T) {
	hub := &fakeHub{template: []any{
		map[string]any{"label_id": "energy", "label_name": "Energy"},
		map[string]any{"label_id": "nameless"}, // missing required name
		map[string]any{"label_id": "security", "label_name": "Security"},
	}}

	labels, err := newTestService(hub).GetLabels(context.Background())
	if err != nil {
		t.Fatalf("GetLabels: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("got %d labels, want 2 (malformed one skipped)", len(labels))
	}
	if labels[0].ID != "energy" || labels[1].ID != "security" {
		t.Errorf("labels = %+v", labels)
	}
}

func TestGetAllEntities_SkipsMalformedRecords(t *testing.T) {
	hub := &fakeHub{template: []any{
		map[string]any{"entity_id": "light.hall", "entity_state": "on"},
		map[string]any{"entity_name": "no id here"},
		map[string]any{"entity_id": "switch.heater"},
	}}

	entities, err := newTestService(hub).GetAllEntities(context.Background())
	if err != nil {
		t.Fatalf("GetAllEntities: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].Domain != "light" {
		t.Errorf("entities[0].Domain = %q, want light", entities[0].Domain)
	}
	if entities[1].State != "unknown" {
		t.Errorf("entities[1].State = %q, want unknown fallback", entities[1].State)
	}
}

func TestEntityQuery_TemplateMisfire(t *testing.T) {
	// A broken template renders as a plain string; that is an empty
	// result, not an error.
	hub := &fakeHub{template: "TemplateError: ..."}

	entities, err := newTestService(hub).GetAllEntities(context.Background())
	if err != nil {
		t.Fatalf("GetAllEntities: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("got %d entities, want 0", len(entities))
	}
}

func TestEntityQuery_TransportError(t *testing.T) {
	hub := &fakeHub{templateErr: errors.New("connection refused")}

	if _, err := newTestService(hub).GetAllEntities(context.Background()); err == nil {
		t.Error("transport failure should propagate as an error")
	}
}

func TestGetEntityState_NotFound(t *testing.T) {
	hub := &fakeHub{stateErr: homeassistant.ErrNotFound}

	st, err := newTestService(hub).GetEntityState(context.Background(), "light.ghost")
	if err != nil {
		t.Fatalf("a missing entity should not be an error, got %v", err)
	}
	if st != nil {
		t.Errorf("state = %+v, want nil for a missing entity", st)
	}
}

func TestGetEntityState_TransportError(t *testing.T) {
	hub := &fakeHub{stateErr: errors.New("connection refused")}

	if _, err := newTestService(hub).GetEntityState(context.Background(), "light.hall"); err == nil {
		t.Error("transport failure should remain distinguishable from a missing entity")
	}
}

func TestGetEntityState(t *testing.T) {
	hub := &fakeHub{state: json.RawMessage(`{
		"entity_id": "light.hall",
		"state": "on",
		"last_changed": "2026-01-10T10:00:00+00:00",
		"last_reported": "2026-01-10T10:00:00+00:00",
		"last_updated": "2026-01-10T10:00:00+00:00",
		"attributes": {"friendly_name": "Hall Light"}
	}`)}

	st, err := newTestService(hub).GetEntityState(context.Background(), "light.hall")
	if err != nil {
		t.Fatalf("GetEntityState: %v", err)
	}
	if st.EntityID != "light.hall" || st.State != "on" {
		t.Errorf("state = %+v", st)
	}
	if st.EntityName != "Hall Light" {
		t.Errorf("EntityName = %q, want friendly_name", st.EntityName)
	}
}

func TestGetEntityState_RepeatedReadsEqual(t *testing.T) {
	// Reading the same entity twice without an intervening state change
	// must yield structurally equal results.
	hub := &fakeHub{state: json.RawMessage(`{
		"entity_id": "sensor.temp",
		"state": "21.5",
		"last_changed": "2026-01-10T10:00:00+00:00",
		"last_reported": "2026-01-10T10:00:00+00:00",
		"last_updated": "2026-01-10T10:00:00+00:00",
		"attributes": {"friendly_name": "Temperature", "unit_of_measurement": "°C"}
	}`)}
	svc := newTestService(hub)

	first, err := svc.GetEntityState(context.Background(), "sensor.temp")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := svc.GetEntityState(context.Background(), "sensor.temp")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestGetStates(t *testing.T) {
	hub := &fakeHub{states: json.RawMessage(`[
		{
			"entity_id": "light.hall",
			"state": "on",
			"last_changed": "2026-01-10T10:00:00+00:00",
			"last_reported": "2026-01-10T10:00:00+00:00",
			"last_updated": "2026-01-10T10:00:00+00:00",
			"attributes": {"friendly_name": "Hall Light"},
			"context": {"id": "ctx-1"}
		},
		{"entity_id": "light.bad", "state": "on"},
		{
			"entity_id": "sensor.temp",
			"state": "21.5",
			"last_changed": "2026-01-10T10:00:00+00:00",
			"last_reported": "2026-01-10T10:00:00+00:00",
			"last_updated": "2026-01-10T10:00:00+00:00"
		}
	]`)}

	states, err := newTestService(hub).GetStates(context.Background())
	if err != nil {
		t.Fatalf("GetStates: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2 (record without timestamps skipped)", len(states))
	}
	if states[0].EntityName != "Hall Light" {
		t.Errorf("EntityName = %q, want friendly_name", states[0].EntityName)
	}
	if states[0].Attributes == nil || states[0].Attributes.FriendlyName != "Hall Light" {
		t.Errorf("Attributes = %+v, full schema should keep attributes", states[0].Attributes)
	}
	if states[0].Context == nil || states[0].Context.ID != "ctx-1" {
		t.Errorf("Context = %+v, full schema should keep context", states[0].Context)
	}
}

func TestGetStatesCore(t *testing.T) {
	hub := &fakeHub{states: json.RawMessage(`[
		{"entity_id": "light.hall", "state": "on", "last_changed": "2026-01-10T10:00:00+00:00"},
		{"entity_id": "light.bad", "state": "on"},
		{"entity_id": "sensor.temp", "state": "21.5", "last_changed": "2026-01-10T10:00:00+00:00"}
	]`)}

	states, err := newTestService(hub).GetStatesCore(context.Background())
	if err != nil {
		t.Fatalf("GetStatesCore: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2 (record without last_changed skipped)", len(states))
	}
}

func TestGetStatesByCondition_EmptyCondition(t *testing.T) {
	hub := &fakeHub{}

	_, err := newTestService(hub).GetStatesByCondition(context.Background(), "")
	if err == nil {
		t.Fatal("empty condition should be rejected")
	}
	if hub.calls != 0 {
		t.Errorf("hub called %d times, validation should happen before any network call", hub.calls)
	}
}

func TestGetEntityInfo_ParseErrorPropagates(t *testing.T) {
	// Single-record calls have no batch to protect; a schema failure is
	// the caller's problem.
	hub := &fakeHub{template: map[string]any{"entity_name": "no id"}}

	if _, err := newTestService(hub).GetEntityInfo(context.Background(), "light.hall"); err == nil {
		t.Error("schema failure on a single-record call should propagate")
	}
}
