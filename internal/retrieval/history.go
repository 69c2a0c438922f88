package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// GetHistory fetches the state history of one entity and returns it as
// a classified series. start and end are optional ISO 8601 timestamps
// with a timezone offset; a malformed timestamp is dropped (logged, not
// forwarded) so the hub applies its own last-24-hours default. Only the
// most recent limit records are kept.
//
// The series is classified numeric or categorical from the first
// record's attributes and the whole series parses under that one type;
// a later record that fails the numeric parse is skipped per the batch
// policy, never silently reclassified. An empty history returns
// (nil, nil).
func (s *Service) GetHistory(ctx context.Context, entityID, start, end string, limit int) (*schema.HistorySeries, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if start != "" && !validTimestamp(start) {
		s.logger.Warn("dropping malformed start_time", "entity_id", entityID, "start_time", start)
		start = ""
	}
	if end != "" && !validTimestamp(end) {
		s.logger.Warn("dropping malformed end_time", "entity_id", entityID, "end_time", end)
		end = ""
	}

	raw, err := s.hub.GetHistory(ctx, entityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", entityID, err)
	}

	// The endpoint returns one record list per requested entity.
	var outer [][]map[string]any
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("history %s: %w", entityID, err)
	}
	if len(outer) == 0 || len(outer[0]) == 0 {
		return nil, nil
	}
	records := outer[0]

	// With minimal_response set, the hub only attaches attributes to the
	// first record; they carry the classification fields for the series.
	attrs, _ := records[0]["attributes"].(map[string]any)
	kind := schema.ClassifySeries(attrs)

	// Tail slice: the most recent records win when over limit.
	if len(records) > limit {
		records = records[len(records)-limit:]
	}

	series := &schema.HistorySeries{EntityID: entityID, Kind: kind}
	for _, record := range records {
		merged := mergeAttrs(record, attrs)
		switch kind {
		case schema.SeriesNumeric:
			h, err := schema.ParseHistoryNumeric(merged)
			if err != nil {
				s.skip("history record", entityID, err)
				continue
			}
			series.Numeric = append(series.Numeric, *h)
		case schema.SeriesCategorical:
			h, err := schema.ParseHistoryCategorical(merged)
			if err != nil {
				s.skip("history record", entityID, err)
				continue
			}
			series.Categorical = append(series.Categorical, *h)
		}
	}

	if series.Len() == 0 {
		return nil, nil
	}
	return series, nil
}

// mergeAttrs flattens the first record's attributes into a record map,
// attributes winning on key collisions (they never collide with the
// state/last_changed keys in practice).
func mergeAttrs(record, attrs map[string]any) map[string]any {
	merged := make(map[string]any, len(record)+len(attrs))
	for k, v := range record {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	return merged
}
