// Package analytics summarizes history series: statistical summaries
// for numeric measurements, frequency and time-weighted durations for
// categorical states.
package analytics

import (
	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// NumericSummary holds the statistics of a numeric series.
type NumericSummary struct {
	Avg  float64 `json:"avg"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
	Unit string  `json:"unit"`
}

// CategoricalSummary holds the frequency analysis of a categorical
// series, plus the time-weighted durations when requested.
type CategoricalSummary struct {
	MostCommon   string             `json:"most_common"`
	TotalChanges int                `json:"total_changes"`
	Distribution map[string]int     `json:"distribution"`
	Durations    map[string]float64 `json:"durations,omitempty"`
}

// Summarize dispatches on the series' established kind; the records are
// not re-inspected. Categorical results include durations. An empty or
// nil series returns nil.
func Summarize(series *schema.HistorySeries) any {
	if series == nil || series.Len() == 0 {
		return nil
	}
	switch series.Kind {
	case schema.SeriesNumeric:
		return NumericSeriesSummary(series.Numeric)
	default:
		sum := CategoricalSeriesSummary(series.Categorical)
		sum.Durations = StateDurations(series.Categorical)
		return sum
	}
}

// NumericSeriesSummary computes mean, max and min of the states; the
// unit comes from the first record. An empty series returns nil.
func NumericSeriesSummary(records []schema.HistoryNumericState) *NumericSummary {
	if len(records) == 0 {
		return nil
	}

	sum := NumericSummary{
		Max:  records[0].State,
		Min:  records[0].State,
		Unit: records[0].UnitOfMeasurement,
	}
	total := 0.0
	for _, r := range records {
		total += r.State
		if r.State > sum.Max {
			sum.Max = r.State
		}
		if r.State < sum.Min {
			sum.Min = r.State
		}
	}
	sum.Avg = total / float64(len(records))
	return &sum
}

// CategoricalSeriesSummary counts the occurrences of each state value.
// MostCommon is the mode, ties broken by first encounter. An empty
// series returns nil.
func CategoricalSeriesSummary(records []schema.HistoryCategoricalState) *CategoricalSummary {
	if len(records) == 0 {
		return nil
	}

	counts := make(map[string]int, 8)
	var order []string
	for _, r := range records {
		if counts[r.State] == 0 {
			order = append(order, r.State)
		}
		counts[r.State]++
	}

	// Mode with ties broken by first encounter.
	mostCommon := order[0]
	for _, state := range order[1:] {
		if counts[state] > counts[mostCommon] {
			mostCommon = state
		}
	}

	return &CategoricalSummary{
		MostCommon:   mostCommon,
		TotalChanges: len(records),
		Distribution: counts,
	}
}

// StateDurations accrues, for each adjacent record pair in chronological
// order, the seconds between them to the bucket of the earlier state.
// The final record contributes nothing; its end is unknown. The series
// must already be chronologically ordered; no sorting happens here.
func StateDurations(records []schema.HistoryCategoricalState) map[string]float64 {
	durations := make(map[string]float64)
	for i := 0; i+1 < len(records); i++ {
		secs := records[i+1].LastChanged.Sub(records[i].LastChanged).Seconds()
		durations[records[i].State] += secs
	}
	return durations
}
