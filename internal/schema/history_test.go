package schema

import "testing"

func TestClassifySeries(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		want  SeriesKind
	}{
		{
			name:  "measurement state class",
			attrs: map[string]any{"state_class": "measurement"},
			want:  SeriesNumeric,
		},
		{
			name:  "unit without state class",
			attrs: map[string]any{"unit_of_measurement": "kWh"},
			want:  SeriesNumeric,
		},
		{
			name:  "nil unit is not a unit",
			attrs: map[string]any{"unit_of_measurement": nil},
			want:  SeriesCategorical,
		},
		{
			name:  "total state class without unit",
			attrs: map[string]any{"state_class": "total"},
			want:  SeriesCategorical,
		},
		{
			name:  "no classification attributes",
			attrs: map[string]any{"friendly_name": "Front Door"},
			want:  SeriesCategorical,
		},
		{
			name:  "empty attributes",
			attrs: map[string]any{},
			want:  SeriesCategorical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySeries(tt.attrs); got != tt.want {
				t.Errorf("ClassifySeries() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseHistoryNumeric(t *testing.T) {
	h, err := ParseHistoryNumeric(map[string]any{
		"state":               "21.5",
		"last_changed":        "2026-01-10T10:00:00+00:00",
		"unit_of_measurement": "°C",
		"state_class":         "measurement",
	})
	if err != nil {
		t.Fatalf("ParseHistoryNumeric: %v", err)
	}
	if h.State != 21.5 {
		t.Errorf("State = %v, want 21.5", h.State)
	}
	if h.UnitOfMeasurement != "°C" {
		t.Errorf("UnitOfMeasurement = %q", h.UnitOfMeasurement)
	}
}

func TestParseHistoryNumeric_NonNumericState(t *testing.T) {
	_, err := ParseHistoryNumeric(map[string]any{
		"state":        "unavailable",
		"last_changed": "2026-01-10T10:00:00+00:00",
	})
	if err == nil {
		t.Fatal("ParseHistoryNumeric should reject a non-numeric state")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("error type = %T, want *ValidationError", err)
	}
}

func TestParseHistoryCategorical(t *testing.T) {
	h, err := ParseHistoryCategorical(map[string]any{
		"state":        "on",
		"last_changed": "2026-01-10T10:00:00+00:00",
	})
	if err != nil {
		t.Fatalf("ParseHistoryCategorical: %v", err)
	}
	if h.State != "on" {
		t.Errorf("State = %q, want on", h.State)
	}
}

func TestParseHistory_RequiresLastChanged(t *testing.T) {
	if _, err := ParseHistoryNumeric(map[string]any{"state": "1"}); err == nil {
		t.Error("numeric record without last_changed should be rejected")
	}
	if _, err := ParseHistoryCategorical(map[string]any{"state": "on"}); err == nil {
		t.Error("categorical record without last_changed should be rejected")
	}
}

func TestHistorySeriesLen(t *testing.T) {
	num := &HistorySeries{Kind: SeriesNumeric, Numeric: make([]HistoryNumericState, 3)}
	if num.Len() != 3 {
		t.Errorf("numeric Len() = %d, want 3", num.Len())
	}
	cat := &HistorySeries{Kind: SeriesCategorical, Categorical: make([]HistoryCategoricalState, 2)}
	if cat.Len() != 2 {
		t.Errorf("categorical Len() = %d, want 2", cat.Len())
	}
}
