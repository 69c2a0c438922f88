package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ValidationError reports a raw record that could not be mapped onto a
// schema type. Field names the offending field when it can be determined.
type ValidationError struct {
	Type  string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid field %q: %s", e.Type, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Msg)
}

// timeLayouts covers the two timestamp shapes the hub produces: RFC 3339
// from the REST endpoints and a space-separated variant from template
// renderings of datetime values.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

// stringToTimeHook converts string timestamps to time.Time during decode.
func stringToTimeHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	var lastErr error
	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// decode maps a normalized raw map onto out. Unknown keys are ignored;
// scalar mismatches are weakly coerced (the hub renders numbers as
// strings in several template paths); any remaining failure becomes a
// ValidationError naming the schema type and first offending field.
func decode(typeName string, raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFunc(stringToTimeHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build decoder for %s: %w", typeName, err)
	}
	if err := dec.Decode(raw); err != nil {
		return toValidationError(typeName, err)
	}
	return nil
}

// toValidationError extracts the offending field from a mapstructure
// error. mapstructure quotes the field name in single quotes.
func toValidationError(typeName string, err error) *ValidationError {
	msg := err.Error()
	if merr, ok := err.(*mapstructure.Error); ok && len(merr.Errors) > 0 {
		msg = merr.Errors[0]
	}
	field := ""
	if i := strings.Index(msg, "'"); i >= 0 {
		if j := strings.Index(msg[i+1:], "'"); j >= 0 {
			field = msg[i+1 : i+1+j]
		}
	}
	return &ValidationError{Type: typeName, Field: field, Msg: msg}
}

// missingField builds the ValidationError for a required field that was
// absent or empty after decoding.
func missingField(typeName, field string) *ValidationError {
	return &ValidationError{Type: typeName, Field: field, Msg: "required field is missing"}
}

// ParseArea builds an Area from a raw hub map. Both fields are optional.
func ParseArea(raw map[string]any) (*Area, error) {
	var a Area
	if err := decode("Area", NormalizeArea(raw), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ParseLabel builds a Label from a raw hub map.
func ParseLabel(raw map[string]any) (*Label, error) {
	var l Label
	if err := decode("Label", NormalizeLabel(raw), &l); err != nil {
		return nil, err
	}
	if l.ID == "" {
		return nil, missingField("Label", "id")
	}
	if l.Name == "" {
		return nil, missingField("Label", "name")
	}
	return &l, nil
}

// ParseEntity builds a full Entity from a raw hub map.
func ParseEntity(raw map[string]any) (*Entity, error) {
	var e Entity
	if err := decode("Entity", NormalizeEntity(raw), &e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, missingField("Entity", "id")
	}
	finishEntityCore(&e.EntityCore)
	return &e, nil
}

// ParseStateCore builds the lightweight state snapshot from a raw hub map.
func ParseStateCore(raw map[string]any) (*StateCore, error) {
	var s StateCore
	if err := decode("StateCore", NormalizeState(raw), &s); err != nil {
		return nil, err
	}
	if err := requireStateCore("StateCore", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseState builds the comprehensive state object from a raw hub map.
func ParseState(raw map[string]any) (*State, error) {
	var s State
	if err := decode("State", NormalizeState(raw), &s); err != nil {
		return nil, err
	}
	if err := requireStateCore("State", &s.StateCore); err != nil {
		return nil, err
	}
	if s.LastReported.IsZero() {
		return nil, missingField("State", "last_reported")
	}
	if s.LastUpdated.IsZero() {
		return nil, missingField("State", "last_updated")
	}
	return &s, nil
}

// ParseDevice builds a Device, including its nested entity references,
// from a raw hub map.
func ParseDevice(raw map[string]any) (*Device, error) {
	var d Device
	if err := decode("Device", NormalizeDevice(raw), &d); err != nil {
		return nil, err
	}
	if d.ID == "" {
		return nil, missingField("Device", "id")
	}
	if d.Name == "" {
		return nil, missingField("Device", "name")
	}
	for i := range d.Entities {
		finishEntityCore(&d.Entities[i])
	}
	return &d, nil
}

func requireStateCore(typeName string, s *StateCore) error {
	if s.EntityID == "" {
		return missingField(typeName, "entity_id")
	}
	if s.State == "" {
		return missingField(typeName, "state")
	}
	if s.LastChanged.IsZero() {
		return missingField(typeName, "last_changed")
	}
	return nil
}

// finishEntityCore derives the computed fields that must never be
// trusted from upstream data: the domain prefix and the "unknown"
// fallback for missing states.
func finishEntityCore(e *EntityCore) {
	e.Domain = EntityDomain(e.ID)
	if e.Domain == "" {
		e.Domain = "unknown"
	}
	if e.State == "" {
		e.State = "unknown"
	}
}
