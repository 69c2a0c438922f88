package schema

// Normalization rewrites a raw hub response map into the one canonical
// shape the decoder understands. The hub's template and REST paths
// disagree on field names (entity_id vs id, entity_state vs state,
// label_name vs name) and on whether an area arrives nested or as flat
// area_id/area_name keys; these functions settle all of that before any
// field-by-field validation runs.
//
// All functions return a rewritten copy; the input map is not mutated.

// NormalizeArea maps area_id/area_name aliases onto id/name.
func NormalizeArea(raw map[string]any) map[string]any {
	m := clone(raw)
	alias(m, "id", "area_id")
	alias(m, "name", "area_name")
	return m
}

// NormalizeLabel maps label_id/label_name/label_description aliases
// onto id/name/description.
func NormalizeLabel(raw map[string]any) map[string]any {
	m := clone(raw)
	alias(m, "id", "label_id")
	alias(m, "name", "label_name")
	alias(m, "description", "label_description")
	return m
}

// NormalizeEntity canonicalizes an entity map: id from entity_id, name
// from entity_name, state from entity_state, nested labels and area
// normalized, and flat area keys folded into a nested area object.
func NormalizeEntity(raw map[string]any) map[string]any {
	m := clone(raw)
	alias(m, "id", "entity_id")
	alias(m, "name", "entity_name")
	alias(m, "state", "entity_state")
	normalizeLabels(m)
	foldArea(m)
	return m
}

// NormalizeState canonicalizes a state map: entity_name is derived from
// attributes.friendly_name when present, and flat area keys are folded.
// entity_id stays as-is; states are keyed by the full dotted ID.
func NormalizeState(raw map[string]any) map[string]any {
	m := clone(raw)
	if attrs, ok := m["attributes"].(map[string]any); ok {
		if fn := stringVal(attrs["friendly_name"]); fn != "" {
			m["entity_name"] = fn
		}
	}
	foldArea(m)
	return m
}

// NormalizeDevice canonicalizes a device map including its nested
// entity and label lists.
func NormalizeDevice(raw map[string]any) map[string]any {
	m := clone(raw)
	alias(m, "id", "device_id")
	alias(m, "name", "device_name")
	normalizeLabels(m)
	if entities, ok := m["entities"].([]any); ok {
		out := make([]any, 0, len(entities))
		for _, e := range entities {
			if em, ok := e.(map[string]any); ok {
				out = append(out, NormalizeEntity(em))
			} else {
				out = append(out, e)
			}
		}
		m["entities"] = out
	}
	foldArea(m)
	return m
}

// foldArea bundles flat area_id/area_name keys into a nested area
// object unless one is already present. When neither flat nor nested
// form exists the area key stays absent.
func foldArea(m map[string]any) {
	areaID := stringVal(m["area_id"])
	areaName := stringVal(m["area_name"])

	if _, has := m["area"]; !has {
		if areaID != "" || areaName != "" {
			m["area"] = map[string]any{"id": areaID, "name": areaName}
		}
	} else if am, ok := m["area"].(map[string]any); ok {
		m["area"] = NormalizeArea(am)
	}
	delete(m, "area_id")
	delete(m, "area_name")
}

func normalizeLabels(m map[string]any) {
	labels, ok := m["labels"].([]any)
	if !ok {
		return
	}
	out := make([]any, 0, len(labels))
	for _, l := range labels {
		if lm, ok := l.(map[string]any); ok {
			out = append(out, NormalizeLabel(lm))
		} else {
			out = append(out, l)
		}
	}
	m["labels"] = out
}

// alias copies src to dst when dst is absent, nil, or an empty string.
// A canonical value of any other type counts as present; templates
// render numeric states as numbers and those must not lose to an
// alias. The aliased key is removed either way so the decoder sees one
// canonical name.
func alias(m map[string]any, dst, src string) {
	v, ok := m[src]
	if !ok {
		return
	}
	if d, has := m[dst]; !has || d == nil || emptyString(d) {
		m[dst] = v
	}
	delete(m, src)
}

func emptyString(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringVal(v any) string {
	s, _ := v.(string)
	return s
}
