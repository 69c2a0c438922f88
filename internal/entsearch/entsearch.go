// Package entsearch ranks entities against free-text descriptions by
// keyword overlap with their metadata.
package entsearch

import (
	"regexp"
	"sort"
	"strings"

	"github.com/guidomitolo/my-home-assistant/internal/schema"
)

// SearchEntity pairs an entity with its relevance score. It is a
// transient ranking wrapper, rebuilt on every search.
type SearchEntity struct {
	Entity schema.Entity `json:"entity"`
	Score  int           `json:"score"`
}

// Score weights. A keyword equal to an entity token scores exactMatch;
// a keyword contained inside a longer entity token scores partialMatch.
// The reverse direction (an entity token inside a longer keyword) does
// not score: a query for "lamps" should not light up every entity whose
// tokens include "lamp"-unrelated fragments, and keeping one direction
// keeps the scoring explainable.
const (
	exactMatch   = 2
	partialMatch = 1
)

// minTokenLength drops tokens of two characters or fewer; stopwords and
// abbreviations at that length add noise, not signal.
const minTokenLength = 2

var (
	// splitRe separates metadata strings on the delimiters the hub uses
	// inside identifiers and names.
	splitRe = regexp.MustCompile(`[;,|\s_-]+`)

	// wordRe extracts word tokens from free-text queries.
	wordRe = regexp.MustCompile(`\w+`)
)

// Tokenize flattens an entity's metadata into a lower-cased token list:
// its domain, id, name, each label's id/name/description, and its
// area's id/name. Repeated tokens are kept; an entity mentioning
// "kitchen" in both name and area legitimately weighs more for kitchen
// queries.
func Tokenize(e *schema.Entity) []string {
	var tokens []string
	add := func(s string) {
		if s == "" {
			return
		}
		for _, t := range splitRe.Split(strings.ToLower(s), -1) {
			if len(t) > minTokenLength {
				tokens = append(tokens, t)
			}
		}
	}

	add(e.Domain)
	add(e.ID)
	add(e.Name)
	for _, l := range e.Labels {
		add(l.ID)
		add(l.Name)
		add(l.Description)
	}
	if e.Area != nil {
		add(e.Area.ID)
		add(e.Area.Name)
	}
	return tokens
}

// queryKeywords extracts the deduplicated lower-cased word set of a
// free-text description. Deduplicated because repeating a word in the
// query should not inflate scores.
func queryKeywords(description string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range wordRe.FindAllString(strings.ToLower(description), -1) {
		if !seen[w] {
			seen[w] = true
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// score sums the keyword hits of one entity's token list.
func score(keywords, tokens []string) int {
	total := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			switch {
			case kw == tok:
				total += exactMatch
			case strings.Contains(tok, kw):
				total += partialMatch
			}
		}
	}
	return total
}

// Search ranks entities against a natural-language description.
// Entities that match nothing are excluded; the rest are sorted by
// descending score, ties keeping their input order. The result is not
// truncated; display limits belong to the caller.
func Search(entities []schema.Entity, description string) []SearchEntity {
	keywords := queryKeywords(description)
	if len(keywords) == 0 {
		return nil
	}

	var matches []SearchEntity
	for i := range entities {
		sc := score(keywords, Tokenize(&entities[i]))
		if sc > 0 {
			matches = append(matches, SearchEntity{Entity: entities[i], Score: sc})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
