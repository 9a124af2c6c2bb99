package vacation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func repeatPolicy(unit vacation.RepeatUnit, interval int, first vacation.Date, recurring bool) *vacation.VacationPolicy {
	amt := vacation.DaysInt(15)
	return &vacation.VacationPolicy{
		ID:             "policy-1",
		Name:           "Annual Leave",
		VacationType:   "annual",
		GrantMethod:    vacation.GrantRepeat,
		GrantTime:      &amt,
		ExpirationType: vacation.ExpireEndOfYear,
		RepeatUnit:     unit,
		RepeatInterval: interval,
		FirstGrantDate: first,
		Recurring:      recurring,
	}
}

func date(y int, m time.Month, d int) vacation.Date { return vacation.NewDate(y, m, d) }

// =============================================================================
// FIRST OCCURRENCE
// =============================================================================

func TestNextGrantDate_BeforeFirstGrant_ReturnsFirstGrantDate(t *testing.T) {
	// GIVEN: A yearly policy whose first grant falls on 2025-01-01
	// WHEN: Asking for the next occurrence from mid-2024
	// THEN: The first grant date itself is due next

	p := repeatPolicy(vacation.RepeatYearly, 1, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2024, time.June, 1))

	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 1), next)
}

func TestNextGrantDate_NonRepeatPolicy_NoOccurrence(t *testing.T) {
	// GIVEN: A manual policy
	// WHEN: Asking for the next occurrence
	// THEN: There is none

	amt := vacation.DaysInt(3)
	p := &vacation.VacationPolicy{
		GrantMethod: vacation.GrantManual,
		GrantTime:   &amt,
	}

	_, ok := vacation.NextGrantDate(p, date(2025, time.June, 1))
	assert.False(t, ok)
}

func TestNextGrantDate_NonRecurring_SingleOccurrence(t *testing.T) {
	// GIVEN: A non-recurring policy with first grant on 2025-01-01
	// WHEN: Asking from a reference on or after the first grant
	// THEN: No further occurrence exists

	p := repeatPolicy(vacation.RepeatYearly, 1, date(2025, time.January, 1), false)

	_, ok := vacation.NextGrantDate(p, date(2025, time.January, 1))
	assert.False(t, ok)

	_, ok = vacation.NextGrantDate(p, date(2027, time.March, 9))
	assert.False(t, ok)
}

// =============================================================================
// RECURRING OCCURRENCES
// =============================================================================

func TestNextGrantDate_Yearly_NextYear(t *testing.T) {
	// GIVEN: A recurring yearly policy anchored at 2025-01-01
	// WHEN: Asking from 2025-06-01
	// THEN: The next occurrence is 2026-01-01

	p := repeatPolicy(vacation.RepeatYearly, 1, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.June, 1))

	require.True(t, ok)
	assert.Equal(t, date(2026, time.January, 1), next)
}

func TestNextGrantDate_Yearly_SpecificMonthAndDay(t *testing.T) {
	// GIVEN: A yearly policy granting every April 15
	// WHEN: Asking from just after an occurrence
	// THEN: The next occurrence is April 15 of the following year

	month, day := 4, 15
	p := repeatPolicy(vacation.RepeatYearly, 1, date(2025, time.April, 15), true)
	p.SpecificMonth = &month
	p.SpecificDay = &day

	next, ok := vacation.NextGrantDate(p, date(2025, time.April, 15))

	require.True(t, ok)
	assert.Equal(t, date(2026, time.April, 15), next)
}

func TestNextGrantDate_Yearly_Feb29ClampsOnCommonYears(t *testing.T) {
	// GIVEN: A yearly policy granting every February 29
	// WHEN: The target year is not a leap year
	// THEN: The occurrence clamps to February 28

	month, day := 2, 29
	p := repeatPolicy(vacation.RepeatYearly, 1, date(2024, time.February, 29), true)
	p.SpecificMonth = &month
	p.SpecificDay = &day

	next, ok := vacation.NextGrantDate(p, date(2024, time.March, 1))

	require.True(t, ok)
	assert.Equal(t, date(2025, time.February, 28), next)
}

func TestNextGrantDate_Yearly_IntervalSkipsYears(t *testing.T) {
	// GIVEN: A yearly policy with a 2-year interval anchored at 2025-01-01
	// WHEN: Asking from various references
	// THEN: Occurrences fall on 2027, 2029, ... only

	p := repeatPolicy(vacation.RepeatYearly, 2, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.January, 1))
	require.True(t, ok)
	assert.Equal(t, date(2027, time.January, 1), next)

	next, ok = vacation.NextGrantDate(p, date(2027, time.June, 30))
	require.True(t, ok)
	assert.Equal(t, date(2029, time.January, 1), next)
}

func TestNextGrantDate_Monthly_FirstOfNextMonth(t *testing.T) {
	// GIVEN: A recurring monthly policy anchored at 2025-01-01
	// WHEN: Asking from 2025-06-15
	// THEN: The next occurrence is 2025-07-01

	p := repeatPolicy(vacation.RepeatMonthly, 1, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.June, 15))

	require.True(t, ok)
	assert.Equal(t, date(2025, time.July, 1), next)
}

func TestNextGrantDate_Monthly_IntervalSteps(t *testing.T) {
	// GIVEN: A monthly policy with a 3-month interval anchored at January
	// WHEN: Stepping through occurrences
	// THEN: They fall on Apr 1, Jul 1, Oct 1, ...

	p := repeatPolicy(vacation.RepeatMonthly, 3, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.January, 1))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.April, 1), next)

	next, ok = vacation.NextGrantDate(p, next)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.July, 1), next)
}

func TestNextGrantDate_Quarterly_CalendarAligned(t *testing.T) {
	// GIVEN: A quarterly policy first granted mid-quarter (2025-02-10)
	// WHEN: Asking from the first grant date
	// THEN: The next occurrence is the following calendar quarter start

	p := repeatPolicy(vacation.RepeatQuarterly, 1, date(2025, time.February, 10), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.February, 10))

	require.True(t, ok)
	assert.Equal(t, date(2025, time.April, 1), next)
}

func TestNextGrantDate_HalfYear_JanAndJul(t *testing.T) {
	// GIVEN: A half-yearly policy anchored in the first half of 2025
	// WHEN: Stepping through occurrences
	// THEN: They fall on Jul 1 then Jan 1

	p := repeatPolicy(vacation.RepeatHalfYear, 1, date(2025, time.March, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.March, 1))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.July, 1), next)

	next, ok = vacation.NextGrantDate(p, next)
	require.True(t, ok)
	assert.Equal(t, date(2026, time.January, 1), next)
}

func TestNextGrantDate_Daily_IntervalInDays(t *testing.T) {
	// GIVEN: A daily policy with a 10-day interval anchored at 2025-01-01
	// WHEN: Asking from references inside and past the first step
	// THEN: Occurrences fall every 10 days from the anchor

	p := repeatPolicy(vacation.RepeatDaily, 10, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.January, 1))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 11), next)

	next, ok = vacation.NextGrantDate(p, date(2025, time.January, 15))
	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 21), next)
}

func TestNextGrantDate_StrictlyAfterReference(t *testing.T) {
	// GIVEN: A monthly policy
	// WHEN: The reference is exactly an occurrence date
	// THEN: The returned occurrence is strictly later

	p := repeatPolicy(vacation.RepeatMonthly, 1, date(2025, time.January, 1), true)

	next, ok := vacation.NextGrantDate(p, date(2025, time.July, 1))

	require.True(t, ok)
	assert.True(t, next.After(date(2025, time.July, 1)))
	assert.Equal(t, date(2025, time.August, 1), next)
}
