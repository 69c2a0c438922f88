package homeassistant

import "strings"

// The hub's REST surface has no endpoints for the area/label/device
// graph, so those queries are expressed as templates evaluated by the
// hub's template engine and rendered to JSON with the tojson filter.
//
// Each parameterized template carries a single $target placeholder.
// Substitution happens client-side (the hub only ever sees finished
// template source); the value is escaped so it stays inside its quoted
// string in the template.

// TargetPlaceholder is the substitution marker in parameterized templates.
const TargetPlaceholder = "$target"

// escapeTarget makes a value safe to splice into a single-quoted
// template string literal.
func escapeTarget(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return v
}

// renderTarget substitutes the placeholder and trims the template body.
func renderTarget(tmpl, target string) string {
	return strings.TrimSpace(strings.ReplaceAll(tmpl, TargetPlaceholder, escapeTarget(target)))
}

const listAreasTemplate = `
{% set ns_areas = namespace(all=[]) %}
{% for area in areas() %}
    {% set ns_areas.all = ns_areas.all + [{
        'area_id': area,
        'area_name': area_name(area),
    }] %}
{% endfor %}
{{ ns_areas.all | tojson }}
`

const listLabelsTemplate = `
{% set ns_labels = namespace(all=[]) %}
{% for label in labels() %}
    {% set ns_labels.all = ns_labels.all + [{
        'label_id': label,
        'label_name': label_name(label),
        'label_description': label_description(label)
    }] %}
{% endfor %}
{{ ns_labels.all | tojson }}
`

const areaDevicesTemplate = `
{% set ns_devices = namespace(all=[]) %}
{% for device in area_devices('$target') %}
    {% set ns_entities = namespace(current=[]) %}
    {% for entity in device_entities(device) %}
        {% set ns_entities.current = ns_entities.current + [{
            'entity_id': entity,
            'entity_state': states(entity)
        }] %}
    {% endfor %}
    {% set ns_labels = namespace(current=[]) %}
    {% for label in labels(device) %}
        {% set ns_labels.current = ns_labels.current + [{
            'label_id': label,
            'label_name': label_name(label),
            'label_description': label_description(label)
        }] %}
    {% endfor %}
    {% set ns_devices.all = ns_devices.all + [{
        'device_name': device_name(device),
        'device_id': device,
        'area_id': '$target',
        'area_name': area_name('$target'),
        'entities': ns_entities.current,
        'labels': ns_labels.current,
    }] %}
{% endfor %}
{{ ns_devices.all | tojson }}
`

const labelDevicesTemplate = `
{% set ns_devices = namespace(all=[]) %}
{% for device in label_devices('$target') %}
    {% set ns_entities = namespace(current=[]) %}
    {% for entity in device_entities(device) %}
        {% set ns_entities.current = ns_entities.current + [{
            'entity_id': entity,
            'entity_state': states(entity)
        }] %}
    {% endfor %}
    {% set ns_labels = namespace(current=[]) %}
    {% for label in labels(device) %}
        {% set ns_labels.current = ns_labels.current + [{
            'label_id': label,
            'label_name': label_name(label),
            'label_description': label_description(label)
        }] %}
    {% endfor %}
    {% set ns_devices.all = ns_devices.all + [{
        'device_name': device_name(device),
        'device_id': device,
        'labels': ns_labels.current,
        'entities': ns_entities.current,
        'area_name': area_name(device),
        'area_id': area_id(device)
    }] %}
{% endfor %}
{{ ns_devices.all | tojson }}
`

const areaEntitiesTemplate = `
{% set ns_entities = namespace(current=[]) %}
{% for device in area_devices('$target') %}
    {% for entity in device_entities(device) %}
        {% set ns_labels = namespace(current=[]) %}
        {% for label in labels(entity) %}
            {% set ns_labels.current = ns_labels.current + [{
                'label_id': label,
                'label_name': label_name(label),
                'label_description': label_description(label)
            }] %}
        {% endfor %}
        {% set ns_entities.current = ns_entities.current + [{
            'device_id': device,
            'device_name': device_name(device),
            'entity_id': entity,
            'entity_state': states(entity),
            'name': state_attr(entity, 'friendly_name'),
            'area_id': area_id(entity),
            'area_name': area_name(entity),
            'labels': ns_labels.current
        }] %}
    {% endfor %}
{% endfor %}
{{ ns_entities.current | tojson }}
`

const labelEntitiesTemplate = `
{% set ns_entities = namespace(all=[]) %}
{% for device in label_devices('$target') %}
    {% for entity in device_entities(device) %}
        {% set ns_labels = namespace(current=[]) %}
        {% for label in labels(entity) %}
            {% set ns_labels.current = ns_labels.current + [{
                'label_id': label,
                'label_name': label_name(label),
                'label_description': label_description(label)
            }] %}
        {% endfor %}
        {% set ns_entities.all = ns_entities.all + [{
            'device_id': device,
            'device_name': device_name(device),
            'entity_id': entity,
            'entity_state': states(entity),
            'name': state_attr(entity, 'friendly_name'),
            'area_id': area_id(entity),
            'area_name': area_name(entity),
            'labels': ns_labels.current
        }] %}
    {% endfor %}
{% endfor %}
{{ ns_entities.all | tojson }}
`

const deviceEntitiesTemplate = `
{% set ns_entities = namespace(all=[]) %}
{% for entity in device_entities('$target') %}
    {% set ns_entities.all = ns_entities.all + [{
        'device_id': '$target',
        'device_name': device_name('$target'),
        'entity_id': entity,
        'entity_state': states(entity),
        'area_id': area_id(entity),
        'area_name': area_name(entity)
    }] %}
{% endfor %}
{{ ns_entities.all | tojson }}
`

const allEntitiesTemplate = `
{% set ns = namespace(on_entities=[]) %}
{% for state in states %}
    {% set device_id = device_id(state.entity_id) %}
    {% set ns_labels = namespace(current=[]) %}
    {% for label in labels(device_id) %}
        {% set ns_labels.current = ns_labels.current + [{
            'label_id': label,
            'label_name': label_name(label),
            'label_description': label_description(label)
        }] %}
    {% endfor %}
    {% set ns.on_entities = ns.on_entities + [{
        'entity_id': state.entity_id,
        'name': state.attributes.friendly_name,
        'area_name': area_name(state.entity_id),
        'area_id': area_id(state.entity_id),
        'labels': ns_labels.current
    }] %}
{% endfor %}
{{ ns.on_entities | tojson }}
`

const statesByConditionTemplate = `
{% set ns = namespace(on_entities=[]) %}
{% for state in states %}
    {% if state.state == '$target' %}
        {% set ns.on_entities = ns.on_entities + [{
            'entity_id': state.entity_id,
            'name': state.attributes.friendly_name | default(state.entity_id),
            'area_name': area_name(state.entity_id) | default('Unassigned'),
            'area_id': area_id(state.entity_id) | default('Unassigned'),
            'last_changed': state.last_changed | string,
            'state': state.state
        }] %}
    {% endif %}
{% endfor %}
{{ ns.on_entities | tojson }}
`

const singleEntityInfoTemplate = `
{% set ent = '$target' %}
{% set dev_id = device_id(ent) %}
{% set ns_labels = namespace(current=[]) %}
{% for label in labels(dev_id) %}
    {% set ns_labels.current = ns_labels.current + [{
        'id': label,
        'name': label_name(label),
        'description': label_description(label)
    }] %}
{% endfor %}
{{ {
    'id': ent,
    'name': state_attr(ent, 'friendly_name') or ent,
    'state': states(ent),
    'area_id': area_id(ent),
    'area_name': area_name(ent),
    'labels': ns_labels.current,
    'device_id': dev_id,
    'device_name': device_name(dev_id),
    'last_changed': states[ent].last_changed | string if states[ent] else 'unknown',
    'attributes': states[ent].attributes if states[ent] else {}
} | tojson }}
`

// ListAreasQuery returns the template source listing every area.
func ListAreasQuery() string { return strings.TrimSpace(listAreasTemplate) }

// ListLabelsQuery returns the template source listing every label.
func ListLabelsQuery() string { return strings.TrimSpace(listLabelsTemplate) }

// AreaDevicesQuery returns the template source listing devices in an area.
func AreaDevicesQuery(area string) string { return renderTarget(areaDevicesTemplate, area) }

// LabelDevicesQuery returns the template source listing devices with a label.
func LabelDevicesQuery(label string) string { return renderTarget(labelDevicesTemplate, label) }

// AreaEntitiesQuery returns the template source listing entities in an area.
func AreaEntitiesQuery(area string) string { return renderTarget(areaEntitiesTemplate, area) }

// LabelEntitiesQuery returns the template source listing entities with a label.
func LabelEntitiesQuery(label string) string { return renderTarget(labelEntitiesTemplate, label) }

// DeviceEntitiesQuery returns the template source listing a device's entities.
func DeviceEntitiesQuery(deviceID string) string { return renderTarget(deviceEntitiesTemplate, deviceID) }

// AllEntitiesQuery returns the template source listing every entity with
// its area and labels.
func AllEntitiesQuery() string { return strings.TrimSpace(allEntitiesTemplate) }

// StatesByConditionQuery returns the template source listing entities
// whose current state equals condition.
func StatesByConditionQuery(condition string) string {
	return renderTarget(statesByConditionTemplate, condition)
}

// SingleEntityInfoQuery returns the template source assembling the full
// entity view (device, area, labels, attributes) for one entity.
func SingleEntityInfoQuery(entityID string) string {
	return renderTarget(singleEntityInfoTemplate, entityID)
}
