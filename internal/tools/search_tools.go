package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/guidomitolo/my-home-assistant/internal/entsearch"
	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// maxSearchResults caps the ranked list handed back to the agent.
const maxSearchResults = 10

func (r *Registry) registerSearchTool() {
	r.Register(&Tool{
		Name:        "search_entities",
		Description: "Find entities by a free-text description when the exact entity ID is unknown, e.g. 'kitchen lamp' or 'garage door sensor'. Optionally narrow the search to an area or a label.",
		Parameters: schemaObject(map[string]any{
			"description": stringProp("Words describing the entity, e.g. 'kitchen lamp'"),
			"area":        stringProp("Optional area name to narrow the search"),
			"label":       stringProp("Optional label name to narrow the search"),
		}, "description"),
		Handler: r.handleSearchEntities,
	})
}

func (r *Registry) handleSearchEntities(ctx context.Context, args map[string]any) (string, error) {
	description, err := requireString(args, "description")
	if err != nil {
		return "", err
	}

	candidates, err := r.searchCandidates(ctx, stringArg(args, "area"), stringArg(args, "label"))
	if err != nil {
		return "", err
	}

	results := entsearch.Search(candidates, description)
	if len(results) == 0 {
		return "No matching entities found.", nil
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	var b strings.Builder
	b.WriteString("Found matching entities:\n")
	for i, res := range results {
		fmt.Fprintf(&b, "%d. Score: %d - Entity ID: %s - Entity Name: %s\n",
			i+1, res.Score, res.Entity.ID, res.Entity.Name)
	}
	return b.String(), nil
}

// searchCandidates collects the entity pool to rank. Area and label
// scopes are additive; with neither set the whole registry is searched.
func (r *Registry) searchCandidates(ctx context.Context, area, label string) ([]schema.Entity, error) {
	var candidates []schema.Entity

	if label != "" {
		entities, err := r.retrieval.GetLabelEntities(ctx, label)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entities...)
	}
	if area != "" {
		entities, err := r.retrieval.GetAreaEntities(ctx, area)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entities...)
	}
	if label == "" && area == "" {
		return r.retrieval.GetAllEntities(ctx)
	}
	return candidates, nil
}
