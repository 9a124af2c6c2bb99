/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into vacation.PolicyInput values. This
  enables policy configuration without code changes - HR can define
  policies in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify policies
  - Easy integration with admin UI
  - Version control for policy definitions

JSON SCHEMA:
  {
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
  }

USAGE:
  in, err := factory.ParsePolicy(jsonStr)
  id, err := engine.RegisterPolicy(ctx, in)

  // Or register the standard presets in one call:
  err := factory.SeedPresets(ctx, engine, firstGrantDate)

SEE ALSO:
  - vacation/policy.go: PolicyInput and validation rules
*/
package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy definition.
type PolicyJSON struct {
	Name                  string      `json:"name"`
	Description           string      `json:"description,omitempty"`
	VacationType          string      `json:"vacation_type"`
	GrantMethod           string      `json:"grant_method"`
	FlexibleGrant         bool        `json:"flexible_grant,omitempty"`
	GrantTime             string      `json:"grant_time,omitempty"`
	MinuteGrant           bool        `json:"minute_grant,omitempty"`
	ApprovalRequiredCount int         `json:"approval_required_count,omitempty"`
	EffectiveType         string      `json:"effective_type,omitempty"`
	ExpirationType        string      `json:"expiration_type,omitempty"`
	Repeat                *RepeatJSON `json:"repeat,omitempty"`
	CanDelete             *bool       `json:"can_delete,omitempty"`
}

// RepeatJSON represents the recurrence configuration of a repeat policy.
type RepeatJSON struct {
	Unit           string `json:"unit"`
	Interval       int    `json:"interval,omitempty"`
	SpecificMonth  *int   `json:"specific_month,omitempty"`
	SpecificDay    *int   `json:"specific_day,omitempty"`
	FirstGrantDate string `json:"first_grant_date"`
	Recurring      bool   `json:"recurring"`
	MaxGrantCount  *int   `json:"max_grant_count,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// ParsePolicy parses a JSON policy definition into a PolicyInput. The
// result still goes through the catalog's full validation on registration.
func ParsePolicy(jsonStr string) (vacation.PolicyInput, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return vacation.PolicyInput{}, fmt.Errorf("parse policy JSON: %w", err)
	}
	return FromJSON(pj)
}

// FromJSON converts a PolicyJSON into a PolicyInput.
func FromJSON(pj PolicyJSON) (vacation.PolicyInput, error) {
	in := vacation.PolicyInput{
		Name:                  pj.Name,
		Description:           pj.Description,
		VacationType:          pj.VacationType,
		GrantMethod:           vacation.GrantMethod(pj.GrantMethod),
		FlexibleGrant:         pj.FlexibleGrant,
		MinuteGrant:           pj.MinuteGrant,
		ApprovalRequiredCount: pj.ApprovalRequiredCount,
		EffectiveType:         vacation.EffectiveType(pj.EffectiveType),
		ExpirationType:        vacation.ExpirationType(pj.ExpirationType),
		CanDelete:             true,
	}
	if pj.CanDelete != nil {
		in.CanDelete = *pj.CanDelete
	}
	if pj.GrantTime != "" {
		amt := vacation.ParseAmount(pj.GrantTime)
		if !amt.IsPositive() {
			return vacation.PolicyInput{}, fmt.Errorf("grant_time %q: must be a positive decimal", pj.GrantTime)
		}
		in.GrantTime = &amt
	}
	if pj.Repeat != nil {
		in.RepeatUnit = vacation.RepeatUnit(pj.Repeat.Unit)
		in.RepeatInterval = pj.Repeat.Interval
		in.SpecificMonth = pj.Repeat.SpecificMonth
		in.SpecificDay = pj.Repeat.SpecificDay
		in.Recurring = pj.Repeat.Recurring
		in.MaxGrantCount = pj.Repeat.MaxGrantCount
		if pj.Repeat.FirstGrantDate != "" {
			d, err := vacation.ParseDate(pj.Repeat.FirstGrantDate)
			if err != nil {
				return vacation.PolicyInput{}, fmt.Errorf("first_grant_date %q: %w", pj.Repeat.FirstGrantDate, err)
			}
			in.FirstGrantDate = d
		}
	}
	return in, nil
}

// ToJSON converts a registered policy back to its JSON definition.
func ToJSON(p *vacation.VacationPolicy) PolicyJSON {
	pj := PolicyJSON{
		Name:                  p.Name,
		Description:           p.Description,
		VacationType:          p.VacationType,
		GrantMethod:           string(p.GrantMethod),
		FlexibleGrant:         p.FlexibleGrant,
		MinuteGrant:           p.MinuteGrant,
		ApprovalRequiredCount: p.ApprovalRequiredCount,
		EffectiveType:         string(p.EffectiveType),
		ExpirationType:        string(p.ExpirationType),
	}
	if p.GrantTime != nil {
		pj.GrantTime = p.GrantTime.String()
	}
	if !p.CanDelete {
		f := false
		pj.CanDelete = &f
	}
	if p.GrantMethod == vacation.GrantRepeat {
		pj.Repeat = &RepeatJSON{
			Unit:          string(p.RepeatUnit),
			Interval:      p.RepeatInterval,
			SpecificMonth: p.SpecificMonth,
			SpecificDay:   p.SpecificDay,
			Recurring:     p.Recurring,
			MaxGrantCount: p.MaxGrantCount,
		}
		if !p.FirstGrantDate.IsZero() {
			pj.Repeat.FirstGrantDate = p.FirstGrantDate.String()
		}
	}
	return pj
}

// =============================================================================
// PRESET POLICIES
// =============================================================================

// AnnualLeaveJSON builds a yearly repeat policy that grants the given
// number of days every January 1st starting from firstGrantDate's year.
func AnnualLeaveJSON(name string, days int, firstGrantDate vacation.Date) string {
	month, day := 1, 1
	pj := PolicyJSON{
		Name:           name,
		Description:    "Yearly paid leave, granted every January 1st",
		VacationType:   "annual",
		GrantMethod:    string(vacation.GrantRepeat),
		GrantTime:      vacation.DaysInt(days).String(),
		ExpirationType: string(vacation.ExpireEndOfYear),
		Repeat: &RepeatJSON{
			Unit:           string(vacation.RepeatYearly),
			Interval:       1,
			SpecificMonth:  &month,
			SpecificDay:    &day,
			FirstGrantDate: firstGrantDate.String(),
			Recurring:      true,
		},
	}
	return mustMarshal(pj)
}

// SickLeaveJSON builds an on-request policy requiring one approval.
func SickLeaveJSON(name string, days int) string {
	pj := PolicyJSON{
		Name:                  name,
		Description:           "Paid sick leave, granted on request",
		VacationType:          "sick",
		GrantMethod:           string(vacation.GrantOnRequest),
		GrantTime:             vacation.DaysInt(days).String(),
		ApprovalRequiredCount: 1,
		EffectiveType:         string(vacation.EffectiveImmediate),
		ExpirationType:        string(vacation.ExpireAfterThreeMonths),
	}
	return mustMarshal(pj)
}

// RefreshLeaveJSON builds a manual flexible-amount policy for ad-hoc
// compensatory time, admin-granted in whole days.
func RefreshLeaveJSON(name string) string {
	pj := PolicyJSON{
		Name:           name,
		Description:    "Compensatory leave, granted manually by an administrator",
		VacationType:   "refresh",
		GrantMethod:    string(vacation.GrantManual),
		FlexibleGrant:  true,
		MinuteGrant:    true,
		EffectiveType:  string(vacation.EffectiveImmediate),
		ExpirationType: string(vacation.ExpireAfterSixMonths),
	}
	return mustMarshal(pj)
}

// SeedPresets registers the standard preset policies. Already-registered
// names are skipped, so seeding is safe to run on every startup.
func SeedPresets(ctx context.Context, engine *vacation.Engine, firstGrantDate vacation.Date) error {
	presets := []string{
		AnnualLeaveJSON("Annual Leave", 15, firstGrantDate),
		SickLeaveJSON("Sick Leave", 3),
		RefreshLeaveJSON("Refresh Leave"),
	}
	for _, jsonStr := range presets {
		in, err := ParsePolicy(jsonStr)
		if err != nil {
			return err
		}
		if _, err := engine.RegisterPolicy(ctx, in); err != nil {
			if errors.Is(err, vacation.ErrDuplicateName) {
				continue
			}
			return fmt.Errorf("seed policy %q: %w", in.Name, err)
		}
	}
	return nil
}

func mustMarshal(pj PolicyJSON) string {
	b, err := json.Marshal(pj)
	if err != nil {
		panic(err)
	}
	return string(b)
}
