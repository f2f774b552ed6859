package models

// CityAliasGroup maps a canonical city spelling to the alias strings that
// denote the same place. Alias sets must be disjoint across groups.
type CityAliasGroup struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

// DefaultCityAliasGroups is the hand-curated production table. It is data,
// not behavior: construct a cityalias.Resolver from it (or a custom table)
// at startup instead of reaching for it directly.
func DefaultCityAliasGroups() []CityAliasGroup {
	return []CityAliasGroup{
		{Canonical: "bengaluru", Aliases: []string{"bangalore", "bengaluru", "blr"}},
		{Canonical: "mumbai", Aliases: []string{"mumbai", "bombay"}},
		{Canonical: "chennai", Aliases: []string{"chennai", "madras"}},
		{Canonical: "kolkata", Aliases: []string{"kolkata", "calcutta"}},
		{Canonical: "delhi", Aliases: []string{"delhi", "new delhi", "newdelhi"}},
		{Canonical: "pune", Aliases: []string{"pune", "poona"}},
		{Canonical: "hyderabad", Aliases: []string{"hyderabad", "hyd"}},
		{Canonical: "gurugram", Aliases: []string{"gurugram", "gurgaon"}},
		{Canonical: "ghaziabad", Aliases: []string{"ghaziabad", "gzb"}},
	}
}
