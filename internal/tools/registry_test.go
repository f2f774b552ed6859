package tools

import (
	"context"
	"testing"

	"hospital-assistant/internal/cityalias"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/directory"
	"hospital-assistant/internal/match"
	"hospital-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	idx := directory.NewIndex()
	idx.Load([]*models.Hospital{
		{ID: "1", Name: "Apollo Hospital", City: "Bangalore", Address: "Sarjapur Road", Specialties: "Cardiology"},
		{ID: "2", Name: "Apollo Hospital", City: "Chennai", Address: "Greams Road"},
		{ID: "3", Name: "Fortis Hospital", City: "Mumbai", Address: "Mulund West"},
	})
	resolver, err := cityalias.NewResolver(models.DefaultCityAliasGroups())
	require.NoError(t, err)
	return NewRegistry(match.NewEngine(idx, resolver), logger.NewTestLogger(t))
}

func TestRegistry_AllToolsRegistered(t *testing.T) {
	r := newTestRegistry(t)

	names := make([]string, 0)
	for _, tool := range r.All() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.Schema)
	}
	assert.Equal(t, []string{
		"search_hospitals",
		"find_hospital_location",
		"confirm_hospital_in_network",
		"get_hospitals_by_city",
		"get_hospital_details",
		"get_emergency_info",
	}, names)
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Dispatch(context.Background(), "no_such_tool", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOOL_UNKNOWN")
}

func TestDispatch_InvalidArgumentsAskToClarify(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	// Missing required property.
	text, err := r.Dispatch(ctx, "confirm_hospital_in_network", `{}`)
	require.NoError(t, err)
	assert.Contains(t, text, "hospital name")

	// Wrong type.
	text, err = r.Dispatch(ctx, "search_hospitals", `{"query": 42}`)
	require.NoError(t, err)
	assert.Contains(t, text, "hospital name")

	// Not JSON at all.
	text, err = r.Dispatch(ctx, "get_hospitals_by_city", `not json`)
	require.NoError(t, err)
	assert.Contains(t, text, "city")
}

func TestDispatch_SearchHospitals(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.Dispatch(ctx, "search_hospitals", `{"query": "Apollo", "city": "Chennai"}`)
	require.NoError(t, err)
	assert.Equal(t, "1. Apollo Hospital - Greams Road", text)

	// Keyword fallback when the exact path finds nothing.
	text, err = r.Dispatch(ctx, "search_hospitals", `{"query": "cardiology care"}`)
	require.NoError(t, err)
	assert.Contains(t, text, "Apollo Hospital")

	text, err = r.Dispatch(ctx, "search_hospitals", `{"query": "zzz qqq"}`)
	require.NoError(t, err)
	assert.Equal(t, "No hospitals found.", text)
}

func TestDispatch_SearchHospitals_CityScopeBindsFallback(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	// Fortis exists only in Mumbai; a Delhi-scoped search must not surface
	// it through the keyword fallback.
	text, err := r.Dispatch(ctx, "search_hospitals", `{"query": "Fortis", "city": "Delhi"}`)
	require.NoError(t, err)
	assert.Equal(t, "No hospitals found in Delhi.", text)
	assert.NotContains(t, text, "Fortis")

	// The same query without a city still finds it.
	text, err = r.Dispatch(ctx, "search_hospitals", `{"query": "Fortis"}`)
	require.NoError(t, err)
	assert.Contains(t, text, "Fortis Hospital")
}

func TestDispatch_FindHospitalLocation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.Dispatch(ctx, "find_hospital_location", `{"hospital_name": "Fortis"}`)
	require.NoError(t, err)
	assert.Equal(t, "Fortis is located in Mumbai.", text)

	text, err = r.Dispatch(ctx, "find_hospital_location", `{"hospital_name": "Apollo"}`)
	require.NoError(t, err)
	assert.Equal(t, "'Apollo' exists in multiple cities: Bangalore, Chennai. Which city do you need?", text)
}

func TestDispatch_ConfirmHospitalInNetwork(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.Dispatch(ctx, "confirm_hospital_in_network", `{"hospital_name": "Fortis", "city": "Mumbai"}`)
	require.NoError(t, err)
	assert.Equal(t, "Yes, Fortis Hospital is in your network. Located in Mumbai. The address is Mulund West.", text)

	// Placeholder city means no filter; a single-city name answers directly.
	text, err = r.Dispatch(ctx, "confirm_hospital_in_network", `{"hospital_name": "Fortis", "city": "not specified"}`)
	require.NoError(t, err)
	assert.Contains(t, text, "Fortis Hospital is in your network")

	// Wrong city reports where it actually is.
	text, err = r.Dispatch(ctx, "confirm_hospital_in_network", `{"hospital_name": "Fortis", "city": "Delhi"}`)
	require.NoError(t, err)
	assert.Equal(t, "Yes, Fortis Hospital is in your network but in Mumbai, not Delhi. The address is Mulund West.", text)

	// Unknown entity never asks for a city.
	text, err = r.Dispatch(ctx, "confirm_hospital_in_network", `{"hospital_name": "Nonexistent Hospital Zzz"}`)
	require.NoError(t, err)
	assert.Equal(t, "Sorry, 'Nonexistent Hospital Zzz' is not in the network database.", text)
}

func TestDispatch_GetHospitalsByCity(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.Dispatch(ctx, "get_hospitals_by_city", `{"city": "Bengaluru"}`)
	require.NoError(t, err)
	assert.Equal(t, "Hospitals in Bengaluru: 1. Apollo Hospital - Sarjapur Road", text)

	text, err = r.Dispatch(ctx, "get_hospitals_by_city", `{"city": "Kolkata"}`)
	require.NoError(t, err)
	assert.Equal(t, "No hospitals found in 'Kolkata'.", text)

	// Placeholder city asks the fixed clarifying question.
	text, err = r.Dispatch(ctx, "get_hospitals_by_city", `{"city": "unknown"}`)
	require.NoError(t, err)
	assert.Contains(t, text, "which city")
}

func TestDispatch_GetHospitalDetails(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.Dispatch(ctx, "get_hospital_details", `{"hospital_name": "Apollo", "city": ""}`)
	require.NoError(t, err)
	assert.Equal(t, "'Apollo' exists in multiple cities: Bangalore, Chennai. Which city do you need?", text)

	text, err = r.Dispatch(ctx, "get_hospital_details", `{"hospital_name": "Apollo", "city": "Madras"}`)
	require.NoError(t, err)
	assert.Contains(t, text, "Greams Road")
}

func TestDispatch_GetEmergencyInfo(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.Dispatch(ctx, "get_emergency_info", `{}`)
	require.NoError(t, err)
	assert.Contains(t, text, "112")
	assert.Contains(t, text, "108")

	text, err = r.Dispatch(ctx, "get_emergency_info", `{"city": "Mumbai"}`)
	require.NoError(t, err)
	assert.Contains(t, text, "Hospitals in Mumbai: Fortis Hospital")

	// Empty arguments payload is accepted.
	text, err = r.Dispatch(ctx, "get_emergency_info", "")
	require.NoError(t, err)
	assert.Contains(t, text, "call 112 immediately")
}
