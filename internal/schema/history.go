package schema

import "time"

// HistoryState carries the fields shared by every history record. The
// classification attributes travel with each record because the hub's
// minimal history response only includes them on the first one; the
// retrieval layer merges them in before parsing.
type HistoryState struct {
	LastChanged       time.Time `mapstructure:"last_changed" json:"last_changed"`
	DeviceClass       string    `mapstructure:"device_class" json:"device_class,omitempty"`
	UnitOfMeasurement string    `mapstructure:"unit_of_measurement" json:"unit_of_measurement,omitempty"`
	StateClass        string    `mapstructure:"state_class" json:"state_class,omitempty"`
}

// HistoryNumericState is a history record whose state parses as a
// number. Construction fails with a ValidationError when it does not.
type HistoryNumericState struct {
	HistoryState `mapstructure:",squash"`
	State        float64 `mapstructure:"state" json:"state"`
}

// HistoryCategoricalState is a history record whose state is an opaque
// label ("on", "open", "home"). No numeric coercion is attempted.
type HistoryCategoricalState struct {
	HistoryState `mapstructure:",squash"`
	State        string `mapstructure:"state" json:"state"`
}

// SeriesKind tags a history series as numeric or categorical. A series
// is entirely one or the other, decided once from the first record's
// attributes and never re-inspected per record.
type SeriesKind int

const (
	SeriesNumeric SeriesKind = iota
	SeriesCategorical
)

func (k SeriesKind) String() string {
	if k == SeriesNumeric {
		return "numeric"
	}
	return "categorical"
}

// HistorySeries is the tagged result of a history fetch. Exactly one of
// Numeric or Categorical is populated, according to Kind.
type HistorySeries struct {
	EntityID    string
	Kind        SeriesKind
	Numeric     []HistoryNumericState
	Categorical []HistoryCategoricalState
}

// Len returns the number of records in the series.
func (s *HistorySeries) Len() int {
	if s.Kind == SeriesNumeric {
		return len(s.Numeric)
	}
	return len(s.Categorical)
}

// ClassifySeries decides whether a history series is numeric from the
// first record's attributes: a state_class of "measurement" or the
// presence of a unit_of_measurement means numeric.
func ClassifySeries(attrs map[string]any) SeriesKind {
	if sc, _ := attrs["state_class"].(string); sc == "measurement" {
		return SeriesNumeric
	}
	if unit, ok := attrs["unit_of_measurement"]; ok && unit != nil {
		return SeriesNumeric
	}
	return SeriesCategorical
}

// ParseHistoryNumeric builds a numeric history record from a raw map.
func ParseHistoryNumeric(raw map[string]any) (*HistoryNumericState, error) {
	var h HistoryNumericState
	if err := decode("HistoryNumericState", raw, &h); err != nil {
		return nil, err
	}
	if h.LastChanged.IsZero() {
		return nil, missingField("HistoryNumericState", "last_changed")
	}
	return &h, nil
}

// ParseHistoryCategorical builds a categorical history record from a raw map.
func ParseHistoryCategorical(raw map[string]any) (*HistoryCategoricalState, error) {
	var h HistoryCategoricalState
	if err := decode("HistoryCategoricalState", raw, &h); err != nil {
		return nil, err
	}
	if h.LastChanged.IsZero() {
		return nil, missingField("HistoryCategoricalState", "last_changed")
	}
	return &h, nil
}
