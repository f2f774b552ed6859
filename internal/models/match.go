package models

// MatchKind discriminates the variants of a MatchResult.
type MatchKind string

const (
	// MatchFound means a single record satisfied both name and city.
	MatchFound MatchKind = "FOUND"
	// MatchFoundElsewhere means the name matched but only in a city other
	// than the one requested.
	MatchFoundElsewhere MatchKind = "FOUND_ELSEWHERE"
	// MatchAmbiguous means the name matched records in one or more cities
	// and no city filter narrowed them down.
	MatchAmbiguous MatchKind = "AMBIGUOUS"
	// MatchNotFound means no record matched at all.
	MatchNotFound MatchKind = "NOT_FOUND"
)

// UnknownCityKey groups records whose source row carried no city.
const UnknownCityKey = "Unknown"

// MatchResult is the tagged result of a directory lookup. Exactly the
// fields relevant to Kind are populated.
type MatchResult struct {
	Kind MatchKind

	// Record is set for MatchFound and MatchFoundElsewhere.
	Record *Hospital

	// RequestedCity is the city the caller asked for, set for
	// MatchFoundElsewhere.
	RequestedCity string

	// ByCity maps city name to the ordered records matched there, set for
	// MatchAmbiguous. Cities holds the keys in first-seen order.
	ByCity map[string][]*Hospital
	Cities []string
}

// Found builds the single-record success variant.
func Found(h *Hospital) MatchResult {
	return MatchResult{Kind: MatchFound, Record: h}
}

// FoundElsewhere builds the wrong-city variant.
func FoundElsewhere(h *Hospital, requestedCity string) MatchResult {
	return MatchResult{Kind: MatchFoundElsewhere, Record: h, RequestedCity: requestedCity}
}

// Ambiguous builds the multi-city variant. cities preserves grouping order.
func Ambiguous(byCity map[string][]*Hospital, cities []string) MatchResult {
	return MatchResult{Kind: MatchAmbiguous, ByCity: byCity, Cities: cities}
}

// NotFound builds the empty variant.
func NotFound() MatchResult {
	return MatchResult{Kind: MatchNotFound}
}
