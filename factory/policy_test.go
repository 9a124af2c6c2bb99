package factory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/vacation-engine/factory"
	"github.com/atlashr/vacation-engine/vacation"
	"github.com/atlashr/vacation-engine/vacation/store"
)

var testNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

// =============================================================================
// JSON PARSING
// =============================================================================

func TestParsePolicy_RepeatDefinition(t *testing.T) {
	// GIVEN: A JSON definition of a yearly repeat policy
	// WHEN: Parsing it
	// THEN: Every field lands on the PolicyInput

	jsonStr := `{
		"name": "Annual Leave",
		"vacation_type": "annual",
		"grant_method": "repeat",
		"grant_time": "15",
		"expiration_type": "end_of_year",
		"repeat": {
			"unit": "yearly",
			"interval": 1,
			"specific_month": 1,
			"specific_day": 1,
			"first_grant_date": "2025-01-01",
			"recurring": true
		}
	}`

	in, err := factory.ParsePolicy(jsonStr)
	require.NoError(t, err)

	assert.Equal(t, "Annual Leave", in.Name)
	assert.Equal(t, vacation.GrantRepeat, in.GrantMethod)
	require.NotNil(t, in.GrantTime)
	assert.True(t, in.GrantTime.Equal(vacation.DaysInt(15)))
	assert.Equal(t, vacation.RepeatYearly, in.RepeatUnit)
	require.NotNil(t, in.SpecificMonth)
	assert.Equal(t, 1, *in.SpecificMonth)
	assert.Equal(t, vacation.NewDate(2025, time.January, 1), in.FirstGrantDate)
	assert.True(t, in.Recurring)
	assert.True(t, in.CanDelete)
}

func TestParsePolicy_InvalidInputs(t *testing.T) {
	// GIVEN: Broken JSON definitions
	// WHEN: Parsing them
	// THEN: Each fails with a descriptive error

	cases := []struct {
		name    string
		jsonStr string
	}{
		{"malformed json", `{"name":`},
		{"bad amount", `{"name": "X", "grant_method": "manual", "grant_time": "lots"}`},
		{"negative amount", `{"name": "X", "grant_method": "manual", "grant_time": "-3"}`},
		{"bad first grant date", `{
			"name": "X", "grant_method": "repeat", "grant_time": "1",
			"repeat": {"unit": "yearly", "first_grant_date": "01/01/2025", "recurring": true}
		}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.ParsePolicy(tc.jsonStr)
			assert.Error(t, err)
		})
	}
}

func TestToJSON_RoundTrip(t *testing.T) {
	// GIVEN: A parsed repeat definition registered and read back
	// WHEN: Converting the policy to JSON and parsing again
	// THEN: The second parse matches the first

	in, err := factory.ParsePolicy(factory.AnnualLeaveJSON("Annual Leave", 15, vacation.NewDate(2025, time.January, 1)))
	require.NoError(t, err)

	users := vacation.NewStaticDirectory()
	engine := vacation.NewEngine(store.NewMemory(), vacation.FixedClock{At: testNow}, users)
	ctx := context.Background()

	id, err := engine.RegisterPolicy(ctx, in)
	require.NoError(t, err)
	p, err := engine.GetPolicy(ctx, id)
	require.NoError(t, err)

	again, err := factory.ParsePolicy(mustString(t, factory.ToJSON(p)))
	require.NoError(t, err)
	assert.Equal(t, in.Name, again.Name)
	assert.Equal(t, in.RepeatUnit, again.RepeatUnit)
	assert.Equal(t, in.FirstGrantDate, again.FirstGrantDate)
	assert.True(t, in.GrantTime.Equal(*again.GrantTime))
}

// =============================================================================
// PRESETS
// =============================================================================

func TestSeedPresets_RegistersAndIsIdempotent(t *testing.T) {
	// GIVEN: An empty catalog
	// WHEN: Seeding presets twice
	// THEN: All presets exist exactly once

	users := vacation.NewStaticDirectory()
	engine := vacation.NewEngine(store.NewMemory(), vacation.FixedClock{At: testNow}, users)
	ctx := context.Background()
	first := vacation.NewDate(2025, time.January, 1)

	require.NoError(t, factory.SeedPresets(ctx, engine, first))
	require.NoError(t, factory.SeedPresets(ctx, engine, first))

	policies, err := engine.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, policies, 3)

	names := make(map[string]bool)
	for _, p := range policies {
		names[p.Name] = true
	}
	assert.True(t, names["Annual Leave"])
	assert.True(t, names["Sick Leave"])
	assert.True(t, names["Refresh Leave"])
}

func mustString(t *testing.T, pj factory.PolicyJSON) string {
	t.Helper()
	b, err := json.Marshal(pj)
	require.NoError(t, err)
	return string(b)
}
