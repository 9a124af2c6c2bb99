package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/vacation-engine/store/sqlite"
	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestEngine(t *testing.T) (*vacation.Engine, *sqlite.Store) {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()
	for _, u := range []sqlite.User{
		{ID: "emp-1", Name: "Mina Park", Email: "mina@example.com", CreatedAt: testNow},
		{ID: "mgr-1", Name: "Jonas Wei", Email: "jonas@example.com", CreatedAt: testNow},
	} {
		require.NoError(t, store.SaveUser(ctx, u))
	}
	return vacation.NewEngine(store, vacation.FixedClock{At: testNow}, store), store
}

func date(y int, m time.Month, d int) vacation.Date { return vacation.NewDate(y, m, d) }

// =============================================================================
// USERS
// =============================================================================

func TestStore_Users_SaveAndLookup(t *testing.T) {
	// GIVEN: A saved user
	// WHEN: Checking existence and display name
	// THEN: Both resolve; unknown ids do not

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, sqlite.User{
		ID: "emp-1", Name: "Mina Park", CreatedAt: testNow,
	}))

	ok, err := store.Exists(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, ok)

	name, err := store.DisplayName(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Mina Park", name)

	ok, err = store.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.DisplayName(ctx, "ghost")
	assert.ErrorIs(t, err, vacation.ErrNotFound)
}

// =============================================================================
// PERSISTENCE ROUND TRIPS
// =============================================================================

func TestStore_Policy_RoundTrip(t *testing.T) {
	// GIVEN: A repeat policy with every optional field set
	// WHEN: Saving and reading it back
	// THEN: All fields survive the decimal/date/string encoding

	store := newTestStore(t)
	ctx := context.Background()

	amt := vacation.Days(12.5)
	month, day, max := 4, 15, 3
	p := &vacation.VacationPolicy{
		ID:             "pol-1",
		Name:           "Tenure Leave",
		Description:    "extra days every other year",
		VacationType:   "tenure",
		GrantMethod:    vacation.GrantRepeat,
		GrantTime:      &amt,
		MinuteGrant:    true,
		ExpirationType: vacation.ExpireAfterOneYear,
		RepeatUnit:     vacation.RepeatYearly,
		RepeatInterval: 2,
		SpecificMonth:  &month,
		SpecificDay:    &day,
		FirstGrantDate: date(2025, time.April, 15),
		MaxGrantCount:  &max,
		CanDelete:      true,
		CreatedAt:      testNow,
	}
	require.NoError(t, store.SavePolicy(ctx, p))

	got, err := store.GetPolicy(ctx, "pol-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Name, got.Name)
	require.NotNil(t, got.GrantTime)
	assert.True(t, got.GrantTime.Equal(amt))
	assert.Equal(t, &month, got.SpecificMonth)
	assert.Equal(t, &day, got.SpecificDay)
	assert.Equal(t, date(2025, time.April, 15), got.FirstGrantDate)
	assert.Equal(t, &max, got.MaxGrantCount)
	assert.Equal(t, 2, got.RepeatInterval)
}

func TestStore_Policy_GetByName_SkipsDeleted(t *testing.T) {
	// GIVEN: A soft-deleted policy
	// WHEN: Looking it up by name
	// THEN: Nothing comes back and the name is free for reuse

	store := newTestStore(t)
	ctx := context.Background()

	p := &vacation.VacationPolicy{
		ID: "pol-1", Name: "Refresh Leave", VacationType: "refresh",
		GrantMethod: vacation.GrantManual, CreatedAt: testNow,
	}
	require.NoError(t, store.SavePolicy(ctx, p))
	p.Deleted = true
	require.NoError(t, store.UpdatePolicy(ctx, p))

	got, err := store.GetPolicyByName(ctx, "Refresh Leave")
	require.NoError(t, err)
	assert.Nil(t, got)

	p2 := &vacation.VacationPolicy{
		ID: "pol-2", Name: "Refresh Leave", VacationType: "refresh",
		GrantMethod: vacation.GrantManual, CreatedAt: testNow,
	}
	assert.NoError(t, store.SavePolicy(ctx, p2))
}

func TestStore_Grant_RoundTrip(t *testing.T) {
	// GIVEN: A grant with a policy reference and decimal amounts
	// WHEN: Saving, updating and reading back
	// THEN: Amounts and dates survive intact

	store := newTestStore(t)
	ctx := context.Background()

	pid := vacation.PolicyID("pol-1")
	g := &vacation.VacationGrant{
		ID:           "grant-1",
		UserID:       "emp-1",
		PolicyID:     &pid,
		VacationType: "annual",
		GrantDate:    date(2025, time.January, 1),
		ExpiryDate:   date(2025, time.December, 31),
		GrantTime:    vacation.DaysInt(15),
		RemainTime:   vacation.DaysInt(15),
		CreatedAt:    testNow,
	}
	require.NoError(t, store.SaveGrant(ctx, g))

	g.RemainTime = vacation.Days(11.5)
	require.NoError(t, store.UpdateGrant(ctx, g))

	got, err := store.GetGrant(ctx, "grant-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.PolicyID)
	assert.Equal(t, pid, *got.PolicyID)
	assert.True(t, got.GrantTime.Equal(vacation.DaysInt(15)))
	assert.True(t, got.RemainTime.Equal(vacation.Days(11.5)))
	assert.Equal(t, date(2025, time.December, 31), got.ExpiryDate)
}

func TestStore_ListEligibleGrants_FiltersAndOrders(t *testing.T) {
	// GIVEN: Grants with mixed expiry, type, balance and deletion state
	// WHEN: Listing eligible grants for an annual usage starting June 1
	// THEN: Only live, unexpired, funded annual grants return, soonest expiry first

	store := newTestStore(t)
	ctx := context.Background()

	mk := func(id string, vtype string, expiry vacation.Date, remain vacation.Amount, deleted bool) {
		g := &vacation.VacationGrant{
			ID:           vacation.GrantID(id),
			UserID:       "emp-1",
			VacationType: vtype,
			GrantDate:    date(2025, time.January, 1),
			ExpiryDate:   expiry,
			GrantTime:    vacation.DaysInt(5),
			RemainTime:   remain,
			Deleted:      deleted,
			CreatedAt:    testNow,
		}
		require.NoError(t, store.SaveGrant(ctx, g))
	}

	mk("g-late", "annual", date(2025, time.December, 31), vacation.DaysInt(5), false)
	mk("g-soon", "annual", date(2025, time.June, 30), vacation.DaysInt(2), false)
	mk("g-expired", "annual", date(2025, time.May, 31), vacation.DaysInt(5), false)
	mk("g-empty", "annual", date(2025, time.December, 31), vacation.ZeroAmount(), false)
	mk("g-sick", "sick", date(2025, time.December, 31), vacation.DaysInt(5), false)
	mk("g-deleted", "annual", date(2025, time.December, 31), vacation.DaysInt(5), true)

	got, err := store.ListEligibleGrants(ctx, "emp-1", "annual", date(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, vacation.GrantID("g-soon"), got[0].ID)
	assert.Equal(t, vacation.GrantID("g-late"), got[1].ID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that saves a grant and then fails
	// WHEN: WithTx returns the error
	// THEN: The grant is not visible afterwards

	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s vacation.Store) error {
		g := &vacation.VacationGrant{
			ID:           "grant-1",
			UserID:       "emp-1",
			VacationType: "annual",
			GrantDate:    date(2025, time.January, 1),
			ExpiryDate:   date(2025, time.December, 31),
			GrantTime:    vacation.DaysInt(5),
			RemainTime:   vacation.DaysInt(5),
			CreatedAt:    testNow,
		}
		if err := s.SaveGrant(ctx, g); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetGrant(ctx, "grant-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	// GIVEN: A transaction saving two records
	// WHEN: The function returns nil
	// THEN: Both records are visible afterwards

	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s vacation.Store) error {
		for _, id := range []string{"grant-1", "grant-2"} {
			g := &vacation.VacationGrant{
				ID:           vacation.GrantID(id),
				UserID:       "emp-1",
				VacationType: "annual",
				GrantDate:    date(2025, time.January, 1),
				ExpiryDate:   date(2025, time.December, 31),
				GrantTime:    vacation.DaysInt(5),
				RemainTime:   vacation.DaysInt(5),
				CreatedAt:    testNow,
			}
			if err := s.SaveGrant(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	grants, err := store.ListGrantsByUser(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, grants, 2)
}

// =============================================================================
// ENGINE OVER SQLITE - The same flows the memory store covers
// =============================================================================

func TestEngine_OverSQLite_UsageFlow(t *testing.T) {
	// GIVEN: An engine backed by SQLite with a 15-day scheduled grant
	// WHEN: Using 4 days and canceling the usage
	// THEN: Balances reconcile exactly as with the memory store

	e, _ := newTestEngine(t)
	ctx := context.Background()

	amt := vacation.DaysInt(15)
	id, err := e.RegisterPolicy(ctx, vacation.PolicyInput{
		Name:           "Annual Leave",
		VacationType:   "annual",
		GrantMethod:    vacation.GrantRepeat,
		GrantTime:      &amt,
		ExpirationType: vacation.ExpireEndOfYear,
		RepeatUnit:     vacation.RepeatYearly,
		RepeatInterval: 1,
		FirstGrantDate: date(2025, time.January, 1),
		Recurring:      true,
		CanDelete:      true,
	})
	require.NoError(t, err)

	_, err = e.EnrollUser(ctx, "emp-1", id)
	require.NoError(t, err)

	issued, err := e.IssueScheduledGrants(ctx, date(2025, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 1, issued)

	usage, err := e.RequestUsage(ctx, vacation.UsageInput{
		UserID:       "emp-1",
		VacationType: "annual",
		TimeType:     vacation.TimeFullDay,
		StartDate:    date(2025, time.July, 7),
		EndDate:      date(2025, time.July, 10),
		UsedTime:     vacation.DaysInt(4),
	})
	require.NoError(t, err)

	balances, err := e.Balances(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Remaining.Equal(vacation.DaysInt(11)))

	require.NoError(t, e.CancelUsage(ctx, usage.ID))

	balances, err = e.Balances(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, balances[0].Remaining.Equal(vacation.DaysInt(15)))
}

func TestEngine_OverSQLite_ApprovalFlow(t *testing.T) {
	// GIVEN: An engine backed by SQLite and an on-request policy
	// WHEN: Submitting and approving a request
	// THEN: The grant materializes in the same transaction as the approval

	e, _ := newTestEngine(t)
	ctx := context.Background()

	amt := vacation.DaysInt(3)
	id, err := e.RegisterPolicy(ctx, vacation.PolicyInput{
		Name:                  "Sick Leave",
		VacationType:          "sick",
		GrantMethod:           vacation.GrantOnRequest,
		GrantTime:             &amt,
		ApprovalRequiredCount: 1,
		EffectiveType:         vacation.EffectiveImmediate,
		ExpirationType:        vacation.ExpireAfterThreeMonths,
		CanDelete:             true,
	})
	require.NoError(t, err)

	req, err := e.SubmitGrantRequest(ctx, "emp-1", id, nil, "flu", []string{"mgr-1"})
	require.NoError(t, err)

	rows, err := e.RequestApprovals(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	done, err := e.Approve(ctx, rows[0].ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, vacation.RequestApproved, done.Status)
	require.NotNil(t, done.GrantID)

	g, err := e.GetGrant(ctx, *done.GrantID)
	require.NoError(t, err)
	assert.True(t, g.GrantTime.Equal(vacation.DaysInt(3)))
}

func TestEngine_OverSQLite_InsufficientBalance_RollsBack(t *testing.T) {
	// GIVEN: 3 available days in SQLite
	// WHEN: Requesting 5 days
	// THEN: The transaction rolls back and no usage row survives

	e, _ := newTestEngine(t)
	ctx := context.Background()

	amt := vacation.DaysInt(3)
	_, err := e.ManualGrant(ctx, vacation.ManualGrantInput{
		UserID:       "emp-1",
		VacationType: "annual",
		GrantDate:    date(2025, time.January, 1),
		ExpiryDate:   date(2025, time.December, 31),
		Amount:       &amt,
	})
	require.NoError(t, err)

	_, err = e.RequestUsage(ctx, vacation.UsageInput{
		UserID:       "emp-1",
		VacationType: "annual",
		TimeType:     vacation.TimeFullDay,
		StartDate:    date(2025, time.June, 2),
		EndDate:      date(2025, time.June, 6),
		UsedTime:     vacation.DaysInt(5),
	})
	require.ErrorIs(t, err, vacation.ErrInsufficientBalance)

	usages, err := e.ListUsages(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, usages)

	balances, err := e.Balances(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Remaining.Equal(vacation.DaysInt(3)))
}
