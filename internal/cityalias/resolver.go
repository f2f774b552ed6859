// Package cityalias decides whether two city strings denote the same place.
package cityalias

import (
	"fmt"
	"strings"

	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/models"
)

// Resolver matches city names against an immutable alias table. Matching is
// deliberately lenient: bidirectional substring containment tolerates the
// partial and misspelled city names speech recognition produces.
type Resolver struct {
	groups []group
}

type group struct {
	aliases []string
}

// NewResolver builds a Resolver from an alias table. The table is validated
// for overlap: an alias string appearing in two groups would make Match
// depend on iteration order, so such tables are rejected outright.
func NewResolver(table []models.CityAliasGroup) (*Resolver, error) {
	seen := make(map[string]string) // alias -> canonical of first group claiming it
	groups := make([]group, 0, len(table))

	for _, g := range table {
		aliases := make([]string, 0, len(g.Aliases))
		for _, a := range g.Aliases {
			alias := normalize(a)
			if alias == "" {
				continue
			}
			if owner, dup := seen[alias]; dup && owner != g.Canonical {
				return nil, commonerrors.NewAliasTableInvalidError(
					fmt.Sprintf("alias %q belongs to both %q and %q", alias, owner, g.Canonical))
			}
			seen[alias] = g.Canonical
			aliases = append(aliases, alias)
		}
		groups = append(groups, group{aliases: aliases})
	}

	return &Resolver{groups: groups}, nil
}

// MustNewResolver is NewResolver for hand-curated tables known to be valid.
func MustNewResolver(table []models.CityAliasGroup) *Resolver {
	r, err := NewResolver(table)
	if err != nil {
		panic(err)
	}
	return r
}

// Match reports whether two city strings denote the same place. It is
// symmetric. Direct containment in either direction matches; otherwise both
// inputs must hit aliases of the same group, first configured group wins.
// Empty strings never match here: "absent city means no filter" is the
// caller's decision, not this package's.
func (r *Resolver) Match(cityA, cityB string) bool {
	a := normalize(cityA)
	b := normalize(cityB)
	if a == "" || b == "" {
		return false
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	for _, g := range r.groups {
		if g.hits(a) && g.hits(b) {
			return true
		}
	}
	return false
}

func (g group) hits(city string) bool {
	for _, a := range g.aliases {
		if strings.Contains(city, a) || strings.Contains(a, city) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
