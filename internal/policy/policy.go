// Package policy maps match results onto response intents. It is a pure
// decision table: no state, no I/O, and it never returns an error.
package policy

import (
	"fmt"
	"strings"

	"hospital-assistant/internal/models"
)

// Intent classifies what kind of reply the caller should speak.
type Intent string

const (
	IntentAnswer          Intent = "ANSWER"
	IntentAnswerOtherCity Intent = "ANSWER_OTHER_CITY"
	IntentAskForCity      Intent = "ASK_FOR_CITY"
	IntentNotFound        Intent = "NOT_FOUND"
	IntentNeedName        Intent = "NEED_NAME"
	IntentNeedCity        Intent = "NEED_CITY"
)

// Response is a resolved intent plus the text to speak.
type Response struct {
	Intent Intent
	Text   string
}

// cityPlaceholders are values the language model emits when the user never
// named a city. They must be treated as "no city", never as a real filter.
var cityPlaceholders = map[string]struct{}{
	"":              {},
	"unknown":       {},
	"not specified": {},
	"not provided":  {},
	"unspecified":   {},
	"null":          {},
}

// CitySupplied reports whether city is a real filter value.
func CitySupplied(city string) bool {
	_, placeholder := cityPlaceholders[strings.ToLower(strings.TrimSpace(city))]
	return !placeholder
}

// NeedName is the fixed clarifying question for a missing hospital name.
func NeedName() Response {
	return Response{
		Intent: IntentNeedName,
		Text:   "I need the hospital name to get details. Which hospital are you interested in?",
	}
}

// NeedCity is the fixed clarifying question for a missing city.
func NeedCity() Response {
	return Response{
		Intent: IntentNeedCity,
		Text:   "I need to know which city you're interested in. Could you please specify the city?",
	}
}

// Decide turns a lookup result for name into a network-confirmation reply.
//
//	Found            -> Answer with the record's detail
//	FoundElsewhere   -> Answer noting the city mismatch
//	Ambiguous, 1 city -> collapses to Answer with that city's first record
//	Ambiguous, >1    -> AskForCity listing city names only
//	NotFound         -> unknown entity, named back to the user
func Decide(name string, res models.MatchResult) Response {
	switch res.Kind {
	case models.MatchFound:
		return answer(res.Record)

	case models.MatchFoundElsewhere:
		h := res.Record
		return Response{
			Intent: IntentAnswerOtherCity,
			Text: fmt.Sprintf("Yes, %s is in your network but in %s, not %s. The address is %s.",
				h.Name, h.City, res.RequestedCity, addressOr(h, "not available")),
		}

	case models.MatchAmbiguous:
		if len(res.Cities) == 1 {
			return answer(res.ByCity[res.Cities[0]][0])
		}
		return Response{
			Intent: IntentAskForCity,
			Text: fmt.Sprintf("'%s' exists in multiple cities: %s. Which city do you need?",
				name, strings.Join(res.Cities, ", ")),
		}

	default:
		return Response{
			Intent: IntentNotFound,
			Text:   fmt.Sprintf("Sorry, '%s' is not in the network database.", name),
		}
	}
}

// DecideLocation turns a lookup result into a "which city is it in" reply.
// Location queries never carry a city filter, so only the Ambiguous and
// NotFound variants occur.
func DecideLocation(name string, res models.MatchResult) Response {
	switch res.Kind {
	case models.MatchAmbiguous:
		if len(res.Cities) == 1 {
			return Response{
				Intent: IntentAnswer,
				Text:   fmt.Sprintf("%s is located in %s.", name, res.Cities[0]),
			}
		}
		return Response{
			Intent: IntentAskForCity,
			Text: fmt.Sprintf("'%s' exists in multiple cities: %s. Which city do you need?",
				name, strings.Join(res.Cities, ", ")),
		}

	default:
		return Response{
			Intent: IntentNotFound,
			Text:   fmt.Sprintf("I dont have '%s' in my database.", name),
		}
	}
}

func answer(h *models.Hospital) Response {
	return Response{
		Intent: IntentAnswer,
		Text: fmt.Sprintf("Yes, %s is in your network. Located in %s. The address is %s.",
			h.Name, h.City, addressOr(h, "not available")),
	}
}

func addressOr(h *models.Hospital, fallback string) string {
	if h.Address == "" {
		return fallback
	}
	return h.Address
}
