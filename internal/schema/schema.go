// Package schema defines the canonical data model for Home Assistant
// areas, devices, entities, states and history records.
//
// The hub returns the same logical data under different shapes depending
// on the query path: flat area_id/area_name fields next to nested area
// objects, entity_state vs state, label_id vs id, and so on. Parsing is
// therefore a two-stage affair: a normalization pass rewrites a raw JSON
// map into one canonical shape (see normalize.go), and a strict decode
// pass maps the canonical shape onto these types (see decode.go).
//
// Every instance is a snapshot constructed from one query response and
// discarded after the call that requested it; nothing here is cached or
// mutated in place.
package schema

import "time"

// Area is a physical or logical zone (room, floor, outdoor area).
type Area struct {
	ID   string `mapstructure:"id" json:"id"`
	Name string `mapstructure:"name" json:"name"`
}

// Label is a user-defined cross-cutting tag, many-to-many with devices
// and entities (e.g. "Security", "Energy").
type Label struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description,omitempty"`
}

// Attributes is the open bag of device-class-specific metadata attached
// to a state. All fields are optional; absent fields keep their zero value.
type Attributes struct {
	FriendlyName      string `mapstructure:"friendly_name" json:"friendly_name,omitempty"`
	DeviceClass       string `mapstructure:"device_class" json:"device_class,omitempty"`
	StateClass        string `mapstructure:"state_class" json:"state_class,omitempty"`
	UnitOfMeasurement string `mapstructure:"unit_of_measurement" json:"unit_of_measurement,omitempty"`
	AutoUpdate        bool   `mapstructure:"auto_update" json:"auto_update,omitempty"`
	DisplayPrecision  int    `mapstructure:"display_precision" json:"display_precision,omitempty"`
	InstalledVersion  string `mapstructure:"installed_version" json:"installed_version,omitempty"`
	InProgress        bool   `mapstructure:"in_progress" json:"in_progress,omitempty"`
	LatestVersion     string `mapstructure:"latest_version" json:"latest_version,omitempty"`
	ReleaseSummary    string `mapstructure:"release_summary" json:"release_summary,omitempty"`
	ReleaseURL        string `mapstructure:"release_url" json:"release_url,omitempty"`
	SkippedVersion    string `mapstructure:"skipped_version" json:"skipped_version,omitempty"`
	Title             string `mapstructure:"title" json:"title,omitempty"`
	UpdatePercentage  int    `mapstructure:"update_percentage" json:"update_percentage,omitempty"`
	EntityPicture     string `mapstructure:"entity_picture" json:"entity_picture,omitempty"`
	SupportedFeatures int    `mapstructure:"supported_features" json:"supported_features,omitempty"`
}

// Context carries the provenance of a state change.
type Context struct {
	ID       string `mapstructure:"id" json:"id"`
	ParentID string `mapstructure:"parent_id" json:"parent_id,omitempty"`
	UserID   string `mapstructure:"user_id" json:"user_id,omitempty"`
}

// EntityCore is a minimal entity reference used in lists and device
// membership. Domain is always derived from the prefix of ID before the
// first dot; it is recomputed during parsing and never trusted from
// upstream data.
type EntityCore struct {
	ID     string `mapstructure:"id" json:"id"`
	Name   string `mapstructure:"name" json:"name,omitempty"`
	Domain string `mapstructure:"-" json:"domain"`
	State  string `mapstructure:"state" json:"state"`
}

// Entity is the full entity view including area, labels, attributes and
// device relationship.
type Entity struct {
	EntityCore  `mapstructure:",squash"`
	LastChanged time.Time   `mapstructure:"last_changed" json:"last_changed,omitzero"`
	Area        *Area       `mapstructure:"area" json:"area,omitempty"`
	Labels      []Label     `mapstructure:"labels" json:"labels,omitempty"`
	Attributes  *Attributes `mapstructure:"attributes" json:"attributes,omitempty"`
	DeviceID    string      `mapstructure:"device_id" json:"device_id,omitempty"`
	DeviceName  string      `mapstructure:"device_name" json:"device_name,omitempty"`
}

// StateCore is a minimal snapshot of an entity's status. State is kept
// as text; numeric sensor values are not parsed at this layer.
type StateCore struct {
	EntityID    string    `mapstructure:"entity_id" json:"entity_id"`
	State       string    `mapstructure:"state" json:"state"`
	LastChanged time.Time `mapstructure:"last_changed" json:"last_changed"`
	Area        *Area     `mapstructure:"area" json:"area,omitempty"`
}

// State is the comprehensive state object including attributes and
// context. EntityName is filled from attributes.friendly_name during
// normalization when present.
type State struct {
	StateCore    `mapstructure:",squash"`
	EntityName   string      `mapstructure:"entity_name" json:"entity_name,omitempty"`
	Attributes   *Attributes `mapstructure:"attributes" json:"attributes,omitempty"`
	LastReported time.Time   `mapstructure:"last_reported" json:"last_reported"`
	LastUpdated  time.Time   `mapstructure:"last_updated" json:"last_updated"`
	Context      *Context    `mapstructure:"context" json:"context,omitempty"`
}

// Device is a hardware or service container grouping multiple entities.
type Device struct {
	ID       string       `mapstructure:"id" json:"id"`
	Name     string       `mapstructure:"name" json:"name"`
	Entities []EntityCore `mapstructure:"entities" json:"entities,omitempty"`
	Labels   []Label      `mapstructure:"labels" json:"labels,omitempty"`
	Area     *Area        `mapstructure:"area" json:"area,omitempty"`
}

// EntityDomain returns the domain prefix of a dotted entity ID, or an
// empty string when the ID has no domain separator.
func EntityDomain(entityID string) string {
	for i := 0; i < len(entityID); i++ {
		if entityID[i] == '.' {
			return entityID[:i]
		}
	}
	return ""
}
