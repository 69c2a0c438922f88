package tools

import (
	"context"
	"fmt"
)

// schemaObject builds a JSON Schema object definition for tool parameters.
func schemaObject(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func (r *Registry) registerLookupTools() {
	r.Register(&Tool{
		Name:        "get_areas",
		Description: "List all defined areas (rooms or zones), e.g. 'kitchen', 'living_room', 'garage'.",
		Parameters:  schemaObject(map[string]any{}),
		Handler:     r.handleGetAreas,
	})

	r.Register(&Tool{
		Name:        "get_labels",
		Description: "List all user-defined labels. Labels categorize devices or entities across areas (e.g. 'Security', 'Energy').",
		Parameters:  schemaObject(map[string]any{}),
		Handler:     r.handleGetLabels,
	})

	r.Register(&Tool{
		Name:        "get_area_devices",
		Description: "List all hardware devices located in an area, with their entities and current states.",
		Parameters: schemaObject(map[string]any{
			"area_name": stringProp("The area to query, e.g. 'living_room'"),
		}, "area_name"),
		Handler: r.handleGetAreaDevices,
	})

	r.Register(&Tool{
		Name:        "get_label_devices",
		Description: "List all devices tagged with a label, regardless of area.",
		Parameters: schemaObject(map[string]any{
			"label_name": stringProp("The label to filter by, e.g. 'lights'"),
		}, "label_name"),
		Handler: r.handleGetLabelDevices,
	})

	r.Register(&Tool{
		Name:        "get_device_entities",
		Description: "List all sensors and controls (entities) belonging to one physical device. Use when a user asks about a specific piece of hardware.",
		Parameters: schemaObject(map[string]any{
			"device_id": stringProp("The unique hardware device ID"),
		}, "device_id"),
		Handler: r.handleGetDeviceEntities,
	})

	r.Register(&Tool{
		Name:        "get_all_entity_states",
		Description: "Snapshot the current state of every entity in the house. Use for global checks like 'Is anything on?'. In large installations this returns a lot of data; prefer get_states_by_condition when only one state value matters.",
		Parameters:  schemaObject(map[string]any{}),
		Handler:     r.handleGetAllEntityStates,
	})

	r.Register(&Tool{
		Name:        "get_states_by_condition",
		Description: "List all entities currently in a given state, e.g. every light that is 'on' or every sensor that is 'unavailable'.",
		Parameters: schemaObject(map[string]any{
			"condition": stringProp("The state value to filter by, e.g. 'on', 'off', 'unavailable'"),
		}, "condition"),
		Handler: r.handleGetStatesByCondition,
	})

	r.Register(&Tool{
		Name:        "get_entity_information",
		Description: "Retrieve detailed metadata for one entity: its parent device, area assignment, labels and attributes.",
		Parameters: schemaObject(map[string]any{
			"entity_id": stringProp("The full entity ID, e.g. 'light.kitchen_main'"),
		}, "entity_id"),
		Handler: r.handleGetEntityInformation,
	})

	r.Register(&Tool{
		Name:        "get_entity_state",
		Description: "Get the current live state and attributes of a single entity. Use for precision checks like brightness or battery level.",
		Parameters: schemaObject(map[string]any{
			"entity_id": stringProp("The full entity ID, e.g. 'sensor.bedroom_humidity'"),
		}, "entity_id"),
		Handler: r.handleGetEntityState,
	})
}

func (r *Registry) handleGetAreas(ctx context.Context, args map[string]any) (string, error) {
	areas, err := r.retrieval.GetAreas(ctx)
	if err != nil {
		return "", err
	}
	if len(areas) == 0 {
		return "No areas found.", nil
	}
	return toJSON(areas), nil
}

func (r *Registry) handleGetLabels(ctx context.Context, args map[string]any) (string, error) {
	labels, err := r.retrieval.GetLabels(ctx)
	if err != nil {
		return "", err
	}
	if len(labels) == 0 {
		return "No labels found.", nil
	}
	return toJSON(labels), nil
}

func (r *Registry) handleGetAreaDevices(ctx context.Context, args map[string]any) (string, error) {
	area, err := requireString(args, "area_name")
	if err != nil {
		return "", err
	}
	devices, err := r.retrieval.GetAreaDevices(ctx, area)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return fmt.Sprintf("No devices found in area %q.", area), nil
	}
	return toJSON(devices), nil
}

func (r *Registry) handleGetLabelDevices(ctx context.Context, args map[string]any) (string, error) {
	label, err := requireString(args, "label_name")
	if err != nil {
		return "", err
	}
	devices, err := r.retrieval.GetLabelDevices(ctx, label)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return fmt.Sprintf("No devices found with label %q.", label), nil
	}
	return toJSON(devices), nil
}

func (r *Registry) handleGetDeviceEntities(ctx context.Context, args map[string]any) (string, error) {
	deviceID, err := requireString(args, "device_id")
	if err != nil {
		return "", err
	}
	entities, err := r.retrieval.GetDeviceEntities(ctx, deviceID)
	if err != nil {
		return "", err
	}
	if len(entities) == 0 {
		return fmt.Sprintf("No entities found for device %s.", deviceID), nil
	}
	return toJSON(entities), nil
}

func (r *Registry) handleGetAllEntityStates(ctx context.Context, args map[string]any) (string, error) {
	// The lightweight schema keeps the payload manageable for bulk reads.
	states, err := r.retrieval.GetStatesCore(ctx)
	if err != nil {
		return "", err
	}
	if len(states) == 0 {
		return "No entities found.", nil
	}
	return toJSON(states), nil
}

func (r *Registry) handleGetStatesByCondition(ctx context.Context, args map[string]any) (string, error) {
	condition, err := requireString(args, "condition")
	if err != nil {
		return "", err
	}
	states, err := r.retrieval.GetStatesByCondition(ctx, condition)
	if err != nil {
		return "", err
	}
	if len(states) == 0 {
		return fmt.Sprintf("No entities are currently %q.", condition), nil
	}
	return toJSON(states), nil
}

func (r *Registry) handleGetEntityInformation(ctx context.Context, args map[string]any) (string, error) {
	entityID, err := requireString(args, "entity_id")
	if err != nil {
		return "", err
	}
	entity, err := r.retrieval.GetEntityInfo(ctx, entityID)
	if err != nil {
		return "", err
	}
	return toJSON(entity), nil
}

func (r *Registry) handleGetEntityState(ctx context.Context, args map[string]any) (string, error) {
	entityID, err := requireString(args, "entity_id")
	if err != nil {
		return "", err
	}
	state, err := r.retrieval.GetEntityState(ctx, entityID)
	if err != nil {
		return "", err
	}
	if state == nil {
		return fmt.Sprintf("Could not find state for %s.", entityID), nil
	}
	return toJSON(state), nil
}
