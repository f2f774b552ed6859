// Package tools maps language-model tool invocations onto the match engine
// and the disambiguation policy. Arguments are validated against each
// tool's JSON schema before dispatch; invalid arguments resolve to a
// clarifying question, never to an error the model has to interpret.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/common/metrics"
	"hospital-assistant/internal/match"
	"hospital-assistant/internal/models"
	"hospital-assistant/internal/policy"
)

// Arguments is a decoded tool-call argument object.
type Arguments map[string]interface{}

// String returns the trimmed string value for key, or "".
func (a Arguments) String(key string) string {
	if v, ok := a[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Int returns the integer value for key, or 0. JSON numbers decode as
// float64.
func (a Arguments) Int(key string) int {
	if v, ok := a[key].(float64); ok {
		return int(v)
	}
	return 0
}

// Handler executes one tool call and returns the response text.
type Handler func(ctx context.Context, args Arguments) string

// Tool is one registered tool: its model-facing definition plus handler.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]interface{}

	handler Handler
}

// Registry holds the assistant's tool set keyed by name.
type Registry struct {
	engine *match.Engine
	tools  map[string]*Tool
	order  []string
	log    logger.Logger
}

func NewRegistry(engine *match.Engine, log logger.Logger) *Registry {
	r := &Registry{
		engine: engine,
		tools:  make(map[string]*Tool),
		log:    log,
	}
	r.register(searchHospitals(engine))
	r.register(findHospitalLocation(engine))
	r.register(confirmHospitalInNetwork(engine))
	r.register(getHospitalsByCity(engine))
	r.register(getHospitalDetails(engine))
	r.register(getEmergencyInfo(engine))
	return r
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// All returns the registered tools in registration order, for advertising
// to the chat model.
func (r *Registry) All() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Dispatch validates rawArgs against the named tool's schema and runs its
// handler. Schema violations return a clarifying question as the response
// text; only an unknown tool name is an error.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", commonerrors.NewToolUnknownError(name)
	}

	start := time.Now()
	defer func() {
		metrics.LookupDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	if rawArgs == "" {
		rawArgs = "{}"
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(tool.Schema),
		gojsonschema.NewStringLoader(rawArgs),
	)
	if err != nil || !result.Valid() {
		details := "malformed arguments"
		if err == nil {
			violations := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				violations = append(violations, e.String())
			}
			details = strings.Join(violations, "; ")
		}
		r.log.WithError(commonerrors.NewToolArgumentsInvalidError(name, details)).Warn(
			"tool arguments rejected", map[string]interface{}{"tool": name})
		metrics.LookupsTotal.WithLabelValues(name, "invalid_arguments").Inc()
		return clarifyFor(name), nil
	}

	var args Arguments
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		metrics.LookupsTotal.WithLabelValues(name, "invalid_arguments").Inc()
		return clarifyFor(name), nil
	}

	text := tool.handler(ctx, args)
	metrics.LookupsTotal.WithLabelValues(name, "ok").Inc()
	return text, nil
}

// clarifyFor picks the clarifying question matching what the tool is
// missing.
func clarifyFor(toolName string) string {
	if toolName == "get_hospitals_by_city" {
		return policy.NeedCity().Text
	}
	return policy.NeedName().Text
}

func searchHospitals(engine *match.Engine) *Tool {
	return &Tool{
		Name:        "search_hospitals",
		Description: "Search for hospitals by name or service. Optionally filter by city.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":       map[string]interface{}{"type": "string", "description": "What hospital or service the user is looking for"},
				"city":        map[string]interface{}{"type": "string", "description": "Optional city filter, empty for all cities"},
				"max_results": map[string]interface{}{"type": "integer", "description": "Maximum results, default 5"},
			},
			"required": []interface{}{"query"},
		},
		handler: func(_ context.Context, args Arguments) string {
			query := args.String("query")
			if query == "" {
				return policy.NeedName().Text
			}
			city := args.String("city")
			if !policy.CitySupplied(city) {
				city = ""
			}
			maxResults := args.Int("max_results")

			results := engine.FindExact(query, city, maxResults)
			if len(results) == 0 && city == "" {
				// Keyword fallback carries no city filter, so it only
				// applies to unscoped searches.
				results = engine.KeywordSearch(query, maxResults)
			}
			if len(results) == 0 {
				if city != "" {
					return fmt.Sprintf("No hospitals found in %s.", city)
				}
				return "No hospitals found."
			}
			return renderList(results, "")
		},
	}
}

func findHospitalLocation(engine *match.Engine) *Tool {
	return &Tool{
		Name:        "find_hospital_location",
		Description: "Find which city a hospital is in. Only for 'which city is X in' questions, not address requests.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"hospital_name": map[string]interface{}{"type": "string", "description": "The name of the hospital to find"},
			},
			"required": []interface{}{"hospital_name"},
		},
		handler: func(_ context.Context, args Arguments) string {
			name := args.String("hospital_name")
			if name == "" {
				return policy.NeedName().Text
			}
			return policy.DecideLocation(name, engine.Resolve(name, "")).Text
		},
	}
}

func confirmHospitalInNetwork(engine *match.Engine) *Tool {
	return &Tool{
		Name:        "confirm_hospital_in_network",
		Description: "Confirm whether a specific hospital is in the network. Ask the user for the city if not provided.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"hospital_name": map[string]interface{}{"type": "string", "description": "Exact or partial hospital name"},
				"city":          map[string]interface{}{"type": "string", "description": "City where the hospital is located, empty if the user did not say"},
			},
			"required": []interface{}{"hospital_name"},
		},
		handler: resolveAndDecide(engine),
	}
}

func getHospitalsByCity(engine *match.Engine) *Tool {
	return &Tool{
		Name:        "get_hospitals_by_city",
		Description: "List hospitals in a specific city.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"city":        map[string]interface{}{"type": "string", "description": "The city to list hospitals for"},
				"max_results": map[string]interface{}{"type": "integer", "description": "Maximum results, default 5"},
			},
			"required": []interface{}{"city"},
		},
		handler: func(_ context.Context, args Arguments) string {
			city := args.String("city")
			if !policy.CitySupplied(city) {
				return policy.NeedCity().Text
			}
			results := engine.ByCity(city, args.Int("max_results"))
			if len(results) == 0 {
				return fmt.Sprintf("No hospitals found in '%s'.", city)
			}
			return renderList(results, fmt.Sprintf("Hospitals in %s: ", city))
		},
	}
}

func getHospitalDetails(engine *match.Engine) *Tool {
	return &Tool{
		Name:        "get_hospital_details",
		Description: "Get detailed information about a specific hospital by name. Ask the user which city if not provided.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"hospital_name": map[string]interface{}{"type": "string", "description": "The hospital to get details for"},
				"city":          map[string]interface{}{"type": "string", "description": "City where the hospital is located, empty if the user did not say"},
			},
			"required": []interface{}{"hospital_name"},
		},
		handler: resolveAndDecide(engine),
	}
}

func getEmergencyInfo(engine *match.Engine) *Tool {
	return &Tool{
		Name:        "get_emergency_info",
		Description: "Get emergency contact numbers and nearby emergency facilities.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"city": map[string]interface{}{"type": "string", "description": "Optional city to find nearby facilities"},
			},
		},
		handler: func(_ context.Context, args Arguments) string {
			var sb strings.Builder
			sb.WriteString("Emergency: 112 (India), 911 (US), Ambulance: 108. ")

			city := args.String("city")
			if policy.CitySupplied(city) {
				nearby := engine.ByCity(city, 3)
				if len(nearby) > 0 {
					sb.WriteString("Hospitals in ")
					sb.WriteString(city)
					sb.WriteString(": ")
					for i, h := range nearby {
						sb.WriteString(h.Name)
						if i < len(nearby)-1 {
							sb.WriteString(", ")
						}
					}
					sb.WriteString(".")
				}
			}

			sb.WriteString(" For emergencies, call 112 immediately.")
			return sb.String()
		},
	}
}

// resolveAndDecide is the shared confirm/details path: placeholder cities
// mean no filter, and a name absent from the whole directory answers as
// unknown rather than asking for a city.
func resolveAndDecide(engine *match.Engine) Handler {
	return func(_ context.Context, args Arguments) string {
		name := args.String("hospital_name")
		if name == "" {
			return policy.NeedName().Text
		}
		city := args.String("city")
		if !policy.CitySupplied(city) {
			city = ""
		}
		return policy.Decide(name, engine.Resolve(name, city)).Text
	}
}

// renderList formats results as a compact numbered list for speech.
func renderList(results []*models.Hospital, prefix string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for i, h := range results {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, h.Name))
		if h.Address != "" {
			sb.WriteString(" - ")
			sb.WriteString(h.Address)
		}
		if i < len(results)-1 {
			sb.WriteString("; ")
		}
	}
	return sb.String()
}
