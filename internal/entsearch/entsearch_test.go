package entsearch

import (
	"reflect"
	"testing"

	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

func entity(id, name string) schema.Entity {
	return schema.Entity{
		EntityCore: schema.EntityCore{
			ID:     id,
			Name:   name,
			Domain: schema.EntityDomain(id),
		},
	}
}

func TestTokenize(t *testing.T) {
	e := entity("light.kitchen_lamp", "Kitchen Lamp")
	e.Labels = []schema.Label{{ID: "lights", Name: "Lights"}}
	e.Area = &schema.Area{ID: "kitchen", Name: "Kitchen"}

	got := Tokenize(&e)
	want := []string{
		"light",
		"light.kitchen", "lamp", // id splits on underscore, not on the dot
		"kitchen", "lamp",
		"lights", "lights",
		"kitchen", "kitchen",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	e := entity("tv.lg", "TV in den")
	for _, tok := range Tokenize(&e) {
		if len(tok) <= 2 {
			t.Errorf("Tokenize kept short token %q", tok)
		}
	}
}

func TestSearch_Ranking(t *testing.T) {
	entities := []schema.Entity{
		entity("sensor.kitchen_temp", "Kitchen Temperature"),
		entity("light.kitchen_lamp", "Kitchen Lamp"),
		entity("light.bedroom", "Bedroom Light"),
	}

	results := Search(entities, "kitchen lamp")
	if len(results) != 2 {
		t.Fatalf("Search returned %d results, want 2 (bedroom should not match)", len(results))
	}
	if results[0].Entity.ID != "light.kitchen_lamp" {
		t.Errorf("top result = %s, want light.kitchen_lamp", results[0].Entity.ID)
	}
	if results[1].Entity.ID != "sensor.kitchen_temp" {
		t.Errorf("second result = %s, want sensor.kitchen_temp", results[1].Entity.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %d, %d", results[0].Score, results[1].Score)
	}
}

func TestSearch_SubstringDirection(t *testing.T) {
	// A keyword inside a longer entity token scores; the reverse does not.
	e := []schema.Entity{entity("light.nightstand", "Nightstand")}

	if res := Search(e, "night"); len(res) == 0 {
		t.Error("keyword contained in entity token should match")
	}
	if res := Search(e, "nightstands"); len(res) != 0 {
		t.Error("entity token contained in longer keyword should not match")
	}
}

func TestSearch_DuplicateKeywordsDoNotInflate(t *testing.T) {
	e := []schema.Entity{entity("light.hall", "Hall")}

	once := Search(e, "hall")
	twice := Search(e, "hall hall")
	if len(once) != 1 || len(twice) != 1 {
		t.Fatalf("expected one match in both searches")
	}
	if once[0].Score != twice[0].Score {
		t.Errorf("repeated keyword changed score: %d vs %d", once[0].Score, twice[0].Score)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	e := []schema.Entity{entity("light.hall", "Hall")}
	if res := Search(e, ""); res != nil {
		t.Errorf("empty query should return nil, got %v", res)
	}
	if res := Search(e, " ;, "); res != nil {
		t.Errorf("delimiter-only query should return nil, got %v", res)
	}
}

func TestSearch_TiesKeepInputOrder(t *testing.T) {
	entities := []schema.Entity{
		entity("light.porch", "Porch"),
		entity("switch.porch", "Porch"),
	}

	results := Search(entities, "porch")
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if results[0].Entity.ID != "light.porch" {
		t.Errorf("tie should keep input order, got %s first", results[0].Entity.ID)
	}
}
