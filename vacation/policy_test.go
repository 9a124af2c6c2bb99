package vacation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/vacation-engine/vacation"
	"github.com/atlashr/vacation-engine/vacation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func newTestCatalog(t *testing.T) *vacation.PolicyCatalog {
	t.Helper()
	return vacation.NewPolicyCatalog(store.NewMemory(), vacation.FixedClock{At: testNow})
}

func manualPolicyInput(name string) vacation.PolicyInput {
	amt := vacation.DaysInt(3)
	return vacation.PolicyInput{
		Name:           name,
		VacationType:   "refresh",
		GrantMethod:    vacation.GrantManual,
		GrantTime:      &amt,
		EffectiveType:  vacation.EffectiveImmediate,
		ExpirationType: vacation.ExpireEndOfYear,
		CanDelete:      true,
	}
}

func repeatPolicyInput(name string) vacation.PolicyInput {
	amt := vacation.DaysInt(15)
	return vacation.PolicyInput{
		Name:           name,
		VacationType:   "annual",
		GrantMethod:    vacation.GrantRepeat,
		GrantTime:      &amt,
		ExpirationType: vacation.ExpireEndOfYear,
		RepeatUnit:     vacation.RepeatYearly,
		RepeatInterval: 1,
		FirstGrantDate: vacation.NewDate(2025, time.January, 1),
		Recurring:      true,
		CanDelete:      true,
	}
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestPolicyCatalog_Register_Manual(t *testing.T) {
	// GIVEN: A valid manual policy definition
	// WHEN: Registering it
	// THEN: The policy is retrievable with its fields intact

	catalog := newTestCatalog(t)
	ctx := context.Background()

	id, err := catalog.Register(ctx, manualPolicyInput("Refresh Leave"))
	require.NoError(t, err)

	p, err := catalog.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Refresh Leave", p.Name)
	assert.Equal(t, vacation.GrantManual, p.GrantMethod)
	require.NotNil(t, p.GrantTime)
	assert.True(t, p.GrantTime.Equal(vacation.DaysInt(3)))
}

func TestPolicyCatalog_Register_DuplicateName_Rejected(t *testing.T) {
	// GIVEN: A policy named "Refresh Leave" already exists
	// WHEN: Registering a second policy with the same name
	// THEN: Registration fails with ErrDuplicateName

	catalog := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Register(ctx, manualPolicyInput("Refresh Leave"))
	require.NoError(t, err)

	_, err = catalog.Register(ctx, manualPolicyInput("Refresh Leave"))
	assert.ErrorIs(t, err, vacation.ErrDuplicateName)

	// The refused registration writes nothing.
	policies, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
}

func TestPolicyCatalog_Register_NameReusableAfterDelete(t *testing.T) {
	// GIVEN: A policy was registered and then soft-deleted
	// WHEN: Registering a new policy with the same name
	// THEN: Registration succeeds

	catalog := newTestCatalog(t)
	ctx := context.Background()

	id, err := catalog.Register(ctx, manualPolicyInput("Refresh Leave"))
	require.NoError(t, err)
	require.NoError(t, catalog.SoftDelete(ctx, id))

	_, err = catalog.Register(ctx, manualPolicyInput("Refresh Leave"))
	assert.NoError(t, err)
}

// =============================================================================
// VALIDATION MATRIX
// =============================================================================

func TestPolicyCatalog_Register_ValidationFailures(t *testing.T) {
	// GIVEN: Policy definitions each violating one rule
	// WHEN: Registering them
	// THEN: Each fails with ErrInvalidValue and nothing is stored

	cases := []struct {
		name   string
		mutate func(*vacation.PolicyInput)
	}{
		{"blank name", func(in *vacation.PolicyInput) { in.Name = "  " }},
		{"blank vacation type", func(in *vacation.PolicyInput) { in.VacationType = "" }},
		{"unknown grant method", func(in *vacation.PolicyInput) { in.GrantMethod = "magic" }},
		{"fixed amount missing", func(in *vacation.PolicyInput) { in.GrantTime = nil }},
		{"flexible with amount", func(in *vacation.PolicyInput) { in.FlexibleGrant = true }},
		{"fractional without minute grant", func(in *vacation.PolicyInput) {
			amt := vacation.Days(2.5)
			in.GrantTime = &amt
		}},
		{"approvals on manual policy", func(in *vacation.PolicyInput) { in.ApprovalRequiredCount = 1 }},
		{"missing effective type", func(in *vacation.PolicyInput) { in.EffectiveType = "" }},
		{"missing expiration type", func(in *vacation.PolicyInput) { in.ExpirationType = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := newTestCatalog(t)
			in := manualPolicyInput("Broken")
			tc.mutate(&in)

			_, err := catalog.Register(context.Background(), in)
			assert.ErrorIs(t, err, vacation.ErrInvalidValue)
		})
	}
}

func TestPolicyCatalog_Register_RepeatValidation(t *testing.T) {
	// GIVEN: Repeat policy definitions each violating one recurrence rule
	// WHEN: Registering them
	// THEN: Each fails with ErrInvalidValue

	five := 5
	thirteen := 13
	one := 1

	cases := []struct {
		name   string
		mutate func(*vacation.PolicyInput)
	}{
		{"flexible repeat", func(in *vacation.PolicyInput) {
			in.FlexibleGrant = true
			in.GrantTime = nil
		}},
		{"unknown repeat unit", func(in *vacation.PolicyInput) { in.RepeatUnit = "fortnightly" }},
		{"interval zero", func(in *vacation.PolicyInput) { in.RepeatInterval = 0 }},
		{"interval too large", func(in *vacation.PolicyInput) { in.RepeatInterval = 101 }},
		{"missing first grant date", func(in *vacation.PolicyInput) { in.FirstGrantDate = vacation.Date{} }},
		{"specific month on monthly", func(in *vacation.PolicyInput) {
			in.RepeatUnit = vacation.RepeatMonthly
			in.SpecificMonth = &five
		}},
		{"specific month out of range", func(in *vacation.PolicyInput) { in.SpecificMonth = &thirteen }},
		{"specific day without month", func(in *vacation.PolicyInput) { in.SpecificDay = &five }},
		{"specific day on daily", func(in *vacation.PolicyInput) {
			in.RepeatUnit = vacation.RepeatDaily
			in.SpecificDay = &five
		}},
		{"recurring with max count", func(in *vacation.PolicyInput) { in.MaxGrantCount = &one }},
		{"non-recurring without max count", func(in *vacation.PolicyInput) { in.Recurring = false }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := newTestCatalog(t)
			in := repeatPolicyInput("Broken")
			tc.mutate(&in)

			_, err := catalog.Register(context.Background(), in)
			assert.ErrorIs(t, err, vacation.ErrInvalidValue)
		})
	}
}

// =============================================================================
// DELETION
// =============================================================================

func TestPolicyCatalog_SoftDelete_HidesPolicy(t *testing.T) {
	// GIVEN: A registered deletable policy
	// WHEN: Soft-deleting it
	// THEN: Get reports not found and List omits it

	catalog := newTestCatalog(t)
	ctx := context.Background()

	id, err := catalog.Register(ctx, manualPolicyInput("Refresh Leave"))
	require.NoError(t, err)

	require.NoError(t, catalog.SoftDelete(ctx, id))

	_, err = catalog.Get(ctx, id)
	assert.ErrorIs(t, err, vacation.ErrNotFound)

	policies, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestPolicyCatalog_SoftDelete_ProtectedPolicy_Refused(t *testing.T) {
	// GIVEN: A policy registered with CanDelete = false
	// WHEN: Attempting to delete it
	// THEN: Deletion fails with ErrIllegalState

	catalog := newTestCatalog(t)
	ctx := context.Background()

	in := manualPolicyInput("Statutory Leave")
	in.CanDelete = false
	id, err := catalog.Register(ctx, in)
	require.NoError(t, err)

	err = catalog.SoftDelete(ctx, id)
	assert.ErrorIs(t, err, vacation.ErrIllegalState)
}

// =============================================================================
// AMOUNT RESOLUTION
// =============================================================================

func TestResolveGrantAmount_FixedPolicy_IgnoresSupplied(t *testing.T) {
	// GIVEN: A fixed-amount policy granting 3 days
	// WHEN: Resolving with a supplied amount
	// THEN: The policy's amount wins

	amt := vacation.DaysInt(3)
	p := &vacation.VacationPolicy{GrantTime: &amt}

	supplied := vacation.DaysInt(10)
	got, err := vacation.ResolveGrantAmount(p, &supplied)

	require.NoError(t, err)
	assert.True(t, got.Equal(vacation.DaysInt(3)))
}

func TestResolveGrantAmount_FlexiblePolicy_RequiresAmount(t *testing.T) {
	// GIVEN: A flexible-amount policy
	// WHEN: Resolving without a supplied amount
	// THEN: Resolution fails with ErrInvalidValue

	p := &vacation.VacationPolicy{FlexibleGrant: true}

	_, err := vacation.ResolveGrantAmount(p, nil)
	assert.ErrorIs(t, err, vacation.ErrInvalidValue)
}

func TestResolveGrantAmount_FlexiblePolicy_WholeDayRule(t *testing.T) {
	// GIVEN: A flexible policy without minute granularity
	// WHEN: Supplying a fractional-day amount
	// THEN: Resolution fails; with minute granularity it succeeds

	p := &vacation.VacationPolicy{FlexibleGrant: true}
	half := vacation.Days(0.5)

	_, err := vacation.ResolveGrantAmount(p, &half)
	assert.ErrorIs(t, err, vacation.ErrInvalidValue)

	p.MinuteGrant = true
	got, err := vacation.ResolveGrantAmount(p, &half)
	require.NoError(t, err)
	assert.True(t, got.Equal(half))
}
