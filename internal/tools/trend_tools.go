package tools

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/guidomitolo/my-home-assistant/internal/analytics"
	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// trendHistoryLimit is how many records trend analysis works over;
// deeper than the raw-history default so durations and averages have
// enough samples.
const trendHistoryLimit = 100

// deltaWindow is how far past an instant the delta calculation looks
// for the nearest history record.
const deltaWindow = 1 * time.Second

func (r *Registry) registerTrendTools() {
	r.Register(&Tool{
		Name:        "get_entity_state_history",
		Description: "Retrieve the raw chronological history of state changes for an entity. Use for questions like 'When was the front door last opened?' or 'Show me the temperature logs for the last 4 hours.'",
		Parameters: schemaObject(map[string]any{
			"entity_id":  stringProp("The full entity ID, e.g. 'sensor.living_room_temp'"),
			"start_time": stringProp("ISO 8601 timestamp with offset, e.g. '2026-01-10T10:00:00Z'. Omit for the last 24 hours."),
			"end_time":   stringProp("ISO 8601 timestamp with offset. Omit for now."),
		}, "entity_id"),
		Handler: r.handleGetEntityStateHistory,
	})

	r.Register(&Tool{
		Name:        "analyze_entity_trends",
		Description: "Analyze historical patterns for an entity. Numeric sensors (power, voltage, temperature) get average/peak/sag statistics; stateful entities (lights, doors, switches) get change counts and time spent in each state.",
		Parameters: schemaObject(map[string]any{
			"entity_id":  stringProp("The full entity ID, e.g. 'sensor.main_power', 'light.kitchen'"),
			"start_time": stringProp("ISO 8601 timestamp with offset. Omit for the start of available history."),
			"end_time":   stringProp("ISO 8601 timestamp with offset. Omit for now."),
		}, "entity_id"),
		Handler: r.handleAnalyzeEntityTrends,
	})

	r.Register(&Tool{
		Name:        "calculate_electrical_delta",
		Description: "Calculate the change in an electrical sensor (energy, power or voltage) between two points in time, e.g. consumption in kWh over an hour.",
		Parameters: schemaObject(map[string]any{
			"entity_id":  stringProp("The sensor entity ID, e.g. 'sensor.fridge_energy'"),
			"start_time": stringProp("ISO 8601 timestamp with offset for the period start"),
			"end_time":   stringProp("ISO 8601 timestamp with offset for the period end"),
		}, "entity_id", "start_time", "end_time"),
		Handler: r.handleCalculateElectricalDelta,
	})
}

func (r *Registry) handleGetEntityStateHistory(ctx context.Context, args map[string]any) (string, error) {
	entityID, err := requireString(args, "entity_id")
	if err != nil {
		return "", err
	}

	series, err := r.retrieval.GetHistory(ctx, entityID, stringArg(args, "start_time"), stringArg(args, "end_time"), 0)
	if err != nil {
		return "", err
	}
	if series == nil {
		return fmt.Sprintf("No history records found for %s in that range.", entityID), nil
	}

	if series.Kind == schema.SeriesNumeric {
		return toJSON(series.Numeric), nil
	}
	return toJSON(series.Categorical), nil
}

func (r *Registry) handleAnalyzeEntityTrends(ctx context.Context, args map[string]any) (string, error) {
	entityID, err := requireString(args, "entity_id")
	if err != nil {
		return "", err
	}

	series, err := r.retrieval.GetHistory(ctx, entityID, stringArg(args, "start_time"), stringArg(args, "end_time"), trendHistoryLimit)
	if err != nil {
		return "", err
	}
	if series == nil {
		return fmt.Sprintf("Could not find enough data to analyze %s.", entityID), nil
	}

	return toJSON(analytics.Summarize(series)), nil
}

func (r *Registry) handleCalculateElectricalDelta(ctx context.Context, args map[string]any) (string, error) {
	entityID, err := requireString(args, "entity_id")
	if err != nil {
		return "", err
	}

	// Both instants are mandatory and validated before any network call.
	start, err := instantArg(args, "start_time")
	if err != nil {
		return "", err
	}
	end, err := instantArg(args, "end_time")
	if err != nil {
		return "", err
	}

	startRec, err := r.nearestNumericRecord(ctx, entityID, start)
	if err != nil {
		return "", err
	}
	endRec, err := r.nearestNumericRecord(ctx, entityID, end)
	if err != nil {
		return "", err
	}
	if startRec == nil || endRec == nil {
		return fmt.Sprintf("Not enough history for %s to calculate a delta.", entityID), nil
	}

	delta := endRec.State - startRec.State
	return fmt.Sprintf("%s %s", strconv.FormatFloat(delta, 'f', -1, 64), endRec.UnitOfMeasurement), nil
}

// nearestNumericRecord fetches the single history record at or just
// after an instant, within deltaWindow. Returns nil when the window is
// empty or the series turns out not to be numeric.
func (r *Registry) nearestNumericRecord(ctx context.Context, entityID string, at time.Time) (*schema.HistoryNumericState, error) {
	series, err := r.retrieval.GetHistory(ctx, entityID,
		at.Format(time.RFC3339),
		at.Add(deltaWindow).Format(time.RFC3339),
		1,
	)
	if err != nil {
		return nil, err
	}
	if series == nil || series.Kind != schema.SeriesNumeric || len(series.Numeric) == 0 {
		return nil, nil
	}
	return &series.Numeric[0], nil
}

// instantArg parses a mandatory ISO 8601 timestamp argument. The
// timezone offset is required.
func instantArg(args map[string]any, key string) (time.Time, error) {
	s, err := requireString(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an ISO 8601 timestamp with timezone offset: %w", key, err)
	}
	return t, nil
}
