/*
Package vacation provides the vacation balance and approval engine.

PURPOSE:
  This package contains the core domain logic for an HR vacation system:
  reusable vacation policies, ledger-style grants with expiry windows,
  deterministic allocation of usage requests across grants, a sequential
  approval workflow gating request-based grants, and the recurrence
  calculator for scheduled grants.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of vacation time in days (decimal, never float)
  - Typed identifiers for policies, grants, usages, requests, approvals
  - GrantMethod / RepeatUnit / EffectiveType / ExpirationType enums
  - TimeType: usage granularity with a table-driven day conversion

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing grant/usage IDs
  3. Conservation: remainTime on a grant always reconciles with its deductions
  4. Soft deletion: ledger rows are flagged, never physically removed

SEE ALSO:
  - policy.go: Policy definitions and method-specific validation
  - grant.go: Grant ledger (credit/debit/revoke)
  - usage.go: Usage allocation across grants
  - approval.go: Sequential approval state machine
*/
package vacation

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Vacation time in days
// =============================================================================

// Amount is a quantity of vacation time expressed in days.
// Fractional values (half days, hour fractions) are allowed only for
// policies with minute-level granularity enabled.
type Amount struct {
	Value decimal.Decimal
}

func Days(v float64) Amount    { return Amount{Value: decimal.NewFromFloat(v)} }
func DaysInt(v int) Amount     { return Amount{Value: decimal.NewFromInt(int64(v))} }
func ZeroAmount() Amount       { return Amount{Value: decimal.Zero} }

// ParseAmount parses a decimal day amount. Invalid input yields zero.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Value: decimal.Zero}
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) String() string            { return a.Value.String() }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// IsWholeDays reports whether the amount has no fractional-day component.
func (a Amount) IsWholeDays() bool { return a.Value.Equal(a.Value.Truncate(0)) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PolicyID string
type GrantID string
type UsageID string
type DeductionID string
type RequestID string
type ApprovalID string

// =============================================================================
// GRANT METHOD - How grants of a policy come into existence
// =============================================================================

type GrantMethod string

const (
	// GrantManual: an administrator grants on demand.
	GrantManual GrantMethod = "manual"

	// GrantOnRequest: the user requests, subject to sequential approval.
	GrantOnRequest GrantMethod = "on_request"

	// GrantRepeat: the system grants on a recurring schedule.
	GrantRepeat GrantMethod = "repeat"
)

func (m GrantMethod) Valid() bool {
	switch m {
	case GrantManual, GrantOnRequest, GrantRepeat:
		return true
	}
	return false
}

// =============================================================================
// RECURRENCE ENUMS
// =============================================================================

type RepeatUnit string

const (
	RepeatDaily     RepeatUnit = "daily"
	RepeatMonthly   RepeatUnit = "monthly"
	RepeatQuarterly RepeatUnit = "quarterly"
	RepeatHalfYear  RepeatUnit = "half_year"
	RepeatYearly    RepeatUnit = "yearly"
)

func (u RepeatUnit) Valid() bool {
	switch u {
	case RepeatDaily, RepeatMonthly, RepeatQuarterly, RepeatHalfYear, RepeatYearly:
		return true
	}
	return false
}

// =============================================================================
// GRANT WINDOW ENUMS - Derive grantDate/expiryDate at the moment of granting
// =============================================================================

type EffectiveType string

const (
	EffectiveImmediate      EffectiveType = "immediate"
	EffectiveNextDay        EffectiveType = "next_day"
	EffectiveNextMonthStart EffectiveType = "next_month_start"
)

func (t EffectiveType) Valid() bool {
	switch t {
	case EffectiveImmediate, EffectiveNextDay, EffectiveNextMonthStart:
		return true
	}
	return false
}

type ExpirationType string

const (
	ExpireEndOfYear        ExpirationType = "end_of_year"
	ExpireAfterOneMonth    ExpirationType = "after_one_month"
	ExpireAfterThreeMonths ExpirationType = "after_three_months"
	ExpireAfterSixMonths   ExpirationType = "after_six_months"
	ExpireAfterOneYear     ExpirationType = "after_one_year"
)

func (t ExpirationType) Valid() bool {
	switch t {
	case ExpireEndOfYear, ExpireAfterOneMonth, ExpireAfterThreeMonths,
		ExpireAfterSixMonths, ExpireAfterOneYear:
		return true
	}
	return false
}

// =============================================================================
// TIME TYPE - Usage granularity with table-driven day conversion
// =============================================================================

// TimeType is how a usage is measured. Each type carries a fraction-of-day
// conversion factor, held in a lookup table rather than behavior on the
// enum values themselves.
type TimeType string

const (
	TimeFullDay TimeType = "full_day"
	TimeHalfDay TimeType = "half_day"
	TimeHourly  TimeType = "hourly" // one unit = one hour of an 8-hour day
)

func (t TimeType) Valid() bool {
	switch t {
	case TimeFullDay, TimeHalfDay, TimeHourly:
		return true
	}
	return false
}

// dayFraction maps a TimeType to the day value of a single unit.
var dayFraction = map[TimeType]decimal.Decimal{
	TimeFullDay: decimal.NewFromInt(1),
	TimeHalfDay: decimal.New(5, -1),
	TimeHourly:  decimal.NewFromInt(1).Div(decimal.NewFromInt(8)),
}

// ConvertToDays converts n units of the given TimeType to a day Amount.
// One full-day unit is 1, one half-day unit is 0.5, one hourly unit is 1/8.
func ConvertToDays(t TimeType, units int) (Amount, error) {
	frac, ok := dayFraction[t]
	if !ok {
		return Amount{}, &InvalidValueError{Field: "timeType", Reason: "unknown time type " + string(t)}
	}
	if units <= 0 {
		return Amount{}, &InvalidValueError{Field: "units", Reason: "must be positive"}
	}
	return Amount{Value: decimal.NewFromInt(int64(units)).Mul(frac)}, nil
}
