// Package match implements deterministic lookups over the hospital index.
// Every operation is a pure, synchronous function over in-memory records:
// no I/O, no ranking, no scoring.
package match

import (
	"strings"

	"hospital-assistant/internal/cityalias"
	"hospital-assistant/internal/directory"
	"hospital-assistant/internal/models"
)

// DefaultMaxResults caps result lists when the caller supplies no bound.
const DefaultMaxResults = 5

// minTokenLen drops tokens too short to be selective ("of", "dr", "rd").
const minTokenLen = 3

// Engine resolves free-text name fragments against the directory.
type Engine struct {
	index  *directory.Index
	cities *cityalias.Resolver
}

func NewEngine(index *directory.Index, cities *cityalias.Resolver) *Engine {
	return &Engine{index: index, cities: cities}
}

// FindExact returns every record where each name token appears in the
// record's name+address, filtered by city when one is given. Order follows
// index iteration order; there is no relevance ranking.
func (e *Engine) FindExact(name, city string, maxResults int) []*models.Hospital {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	tokens := tokenize(name)
	var out []*models.Hospital
	for _, h := range e.index.All() {
		if city != "" && !e.cities.Match(h.City, city) {
			continue
		}
		if !containsAll(h.NameAndAddress(), tokens) {
			continue
		}
		out = append(out, h)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

// FindOne returns the first record matching name (and city, when given),
// or nil.
func (e *Engine) FindOne(name, city string) *models.Hospital {
	tokens := tokenize(name)
	for _, h := range e.index.All() {
		if city != "" && !e.cities.Match(h.City, city) {
			continue
		}
		if containsAll(h.NameAndAddress(), tokens) {
			return h
		}
	}
	return nil
}

// GroupByCity returns every record matching name, ignoring city, grouped by
// the record's own city. Records with no city group under the Unknown
// bucket. The returned slice holds city keys in first-seen order. Used for
// ambiguity detection only, never for direct answers.
func (e *Engine) GroupByCity(name string) (map[string][]*models.Hospital, []string) {
	tokens := tokenize(name)
	byCity := make(map[string][]*models.Hospital)
	var cities []string

	for _, h := range e.index.All() {
		if !containsAll(h.NameAndAddress(), tokens) {
			continue
		}
		city := h.City
		if city == "" {
			city = models.UnknownCityKey
		}
		if _, seen := byCity[city]; !seen {
			cities = append(cities, city)
		}
		byCity[city] = append(byCity[city], h)
	}
	return byCity, cities
}

// ByCity returns records located in the given city, no name filter.
func (e *Engine) ByCity(city string, maxResults int) []*models.Hospital {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var out []*models.Hospital
	for _, h := range e.index.All() {
		if !e.cities.Match(h.City, city) {
			continue
		}
		out = append(out, h)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

// KeywordSearch is the loose fallback path: a record matches when any token
// appears in its name, city, address or specialties.
func (e *Engine) KeywordSearch(freeText string, maxResults int) []*models.Hospital {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	tokens := tokenize(freeText)
	if len(tokens) == 0 {
		return nil
	}

	var out []*models.Hospital
	for _, h := range e.index.All() {
		haystack := strings.ToLower(h.Name + " " + h.City + " " + h.Address + " " + h.Specialties)
		if !containsAny(haystack, tokens) {
			continue
		}
		out = append(out, h)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

// Resolve combines the lookup operations into one tagged result. With a
// city it tries the exact path first and falls back to reporting where the
// name actually exists; without a city it reports everywhere the name
// exists and leaves disambiguation to the policy layer.
func (e *Engine) Resolve(name, city string) models.MatchResult {
	if city != "" {
		if h := e.FindOne(name, city); h != nil {
			return models.Found(h)
		}
		byCity, cities := e.GroupByCity(name)
		if len(cities) == 0 {
			return models.NotFound()
		}
		return models.FoundElsewhere(byCity[cities[0]][0], city)
	}

	byCity, cities := e.GroupByCity(name)
	if len(cities) == 0 {
		return models.NotFound()
	}
	return models.Ambiguous(byCity, cities)
}

// tokenize splits on whitespace and commas, lowercases, and drops tokens
// shorter than minTokenLen.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

func containsAll(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

func containsAny(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}
