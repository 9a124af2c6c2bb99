/*
policy.go - Vacation policies and method-specific validation

PURPOSE:
  A VacationPolicy is the reusable rule set that parameterizes how grants of
  a given kind are created: manually by an administrator, on request behind a
  sequential approval chain, or on a recurring schedule.

VALIDATION:
  Each grant method has its own validation rules. The rules are plain
  functions dispatched on the GrantMethod discriminant; there is no
  per-method type hierarchy.

LIFECYCLE:
  Policies are never hard-deleted. Soft deletion is refused for policies
  registered with CanDelete = false (system-seeded policies).

SEE ALSO:
  - recurrence.go: Next occurrence date for repeat policies
  - engine.go: Grant-method strategies consuming the policy
*/
package vacation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// POLICY - Reusable grant rule set
// =============================================================================

type VacationPolicy struct {
	ID           PolicyID
	Name         string
	Description  string
	VacationType string // category tag grouping grants/usages (annual, sick, ...)
	GrantMethod  GrantMethod

	// FlexibleGrant: the amount is supplied at grant time (e.g. bereavement
	// days vary). When false, GrantTime is the fixed amount.
	FlexibleGrant bool
	GrantTime     *Amount

	// MinuteGrant: sub-day granularity allowed on amounts.
	MinuteGrant bool

	// On-request only: number of sequential approvers required.
	ApprovalRequiredCount int

	// Grant window derivation.
	EffectiveType  EffectiveType
	ExpirationType ExpirationType

	// Repeat only.
	RepeatUnit     RepeatUnit
	RepeatInterval int
	SpecificMonth  *int // 1..12, yearly only
	SpecificDay    *int // 1..31, needs a month context
	FirstGrantDate Date
	Recurring      bool
	MaxGrantCount  *int // required when not recurring

	CanDelete bool
	Deleted   bool
	CreatedAt time.Time
}

// PolicyInput carries the fields of a policy registration.
type PolicyInput struct {
	Name                  string
	Description           string
	VacationType          string
	GrantMethod           GrantMethod
	FlexibleGrant         bool
	GrantTime             *Amount
	MinuteGrant           bool
	ApprovalRequiredCount int
	EffectiveType         EffectiveType
	ExpirationType        ExpirationType
	RepeatUnit            RepeatUnit
	RepeatInterval        int
	SpecificMonth         *int
	SpecificDay           *int
	FirstGrantDate        Date
	Recurring             bool
	MaxGrantCount         *int
	CanDelete             bool
}

// =============================================================================
// VALIDATION - Method-independent rules plus one validator per grant method
// =============================================================================

func validatePolicyInput(in PolicyInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &InvalidValueError{Field: "name", Reason: "must not be blank"}
	}
	if strings.TrimSpace(in.VacationType) == "" {
		return &InvalidValueError{Field: "vacationType", Reason: "must not be blank"}
	}
	if !in.GrantMethod.Valid() {
		return &InvalidValueError{Field: "grantMethod", Reason: fmt.Sprintf("unknown method %q", in.GrantMethod)}
	}
	if in.GrantTime != nil {
		if !in.GrantTime.IsPositive() {
			return &InvalidValueError{Field: "grantTime", Reason: "must be positive"}
		}
		if !in.MinuteGrant && !in.GrantTime.IsWholeDays() {
			return &InvalidValueError{Field: "grantTime", Reason: "fractional days require minute granularity"}
		}
	}
	if in.GrantMethod != GrantOnRequest && in.ApprovalRequiredCount != 0 {
		return &InvalidValueError{Field: "approvalRequiredCount", Reason: "only allowed for on-request policies"}
	}

	switch in.GrantMethod {
	case GrantManual:
		return validateManualPolicy(in)
	case GrantOnRequest:
		return validateOnRequestPolicy(in)
	case GrantRepeat:
		return validateRepeatPolicy(in)
	}
	return nil
}

// validateManualPolicy checks rules shared by manual grants: a fixed policy
// must carry grantTime, a flexible one must not, and the grant window
// derivation must be fully specified.
func validateManualPolicy(in PolicyInput) error {
	if err := validateAmountMode(in); err != nil {
		return err
	}
	return validateWindowTypes(in)
}

func validateOnRequestPolicy(in PolicyInput) error {
	if err := validateAmountMode(in); err != nil {
		return err
	}
	if err := validateWindowTypes(in); err != nil {
		return err
	}
	if in.ApprovalRequiredCount < 1 {
		return &InvalidValueError{Field: "approvalRequiredCount", Reason: "must be at least 1"}
	}
	return nil
}

func validateRepeatPolicy(in PolicyInput) error {
	// Repeat policies always carry a fixed amount.
	if in.FlexibleGrant {
		return &InvalidValueError{Field: "isFlexibleGrant", Reason: "repeat policies cannot be flexible-amount"}
	}
	if in.GrantTime == nil {
		return &InvalidValueError{Field: "grantTime", Reason: "required for repeat policies"}
	}
	if !in.RepeatUnit.Valid() {
		return &InvalidValueError{Field: "repeatUnit", Reason: fmt.Sprintf("unknown unit %q", in.RepeatUnit)}
	}
	if in.RepeatInterval < 1 || in.RepeatInterval > 100 {
		return &InvalidValueError{Field: "repeatInterval", Reason: "must be between 1 and 100"}
	}
	if in.FirstGrantDate.IsZero() {
		return &InvalidValueError{Field: "firstGrantDate", Reason: "required for repeat policies"}
	}
	if !in.ExpirationType.Valid() {
		return &InvalidValueError{Field: "expirationType", Reason: "required for repeat policies"}
	}
	if in.EffectiveType != "" && !in.EffectiveType.Valid() {
		return &InvalidValueError{Field: "effectiveType", Reason: fmt.Sprintf("unknown type %q", in.EffectiveType)}
	}

	// Unit/field coupling.
	if in.SpecificMonth != nil {
		if in.RepeatUnit != RepeatYearly {
			return &InvalidValueError{Field: "specificMonth", Reason: "only allowed for yearly repeat"}
		}
		if *in.SpecificMonth < 1 || *in.SpecificMonth > 12 {
			return &InvalidValueError{Field: "specificMonth", Reason: "must be between 1 and 12"}
		}
	}
	if in.SpecificDay != nil {
		if in.RepeatUnit == RepeatMonthly || in.RepeatUnit == RepeatDaily {
			return &InvalidValueError{Field: "specificDay", Reason: "not allowed for " + string(in.RepeatUnit) + " repeat"}
		}
		if in.RepeatUnit == RepeatYearly && in.SpecificMonth == nil {
			return &InvalidValueError{Field: "specificDay", Reason: "requires specificMonth for yearly repeat"}
		}
		if *in.SpecificDay < 1 || *in.SpecificDay > 31 {
			return &InvalidValueError{Field: "specificDay", Reason: "must be between 1 and 31"}
		}
	}

	if in.Recurring {
		if in.MaxGrantCount != nil {
			return &InvalidValueError{Field: "maxGrantCount", Reason: "not allowed for recurring policies"}
		}
	} else {
		if in.MaxGrantCount == nil {
			return &InvalidValueError{Field: "maxGrantCount", Reason: "required for non-recurring policies"}
		}
		if *in.MaxGrantCount < 1 {
			return &InvalidValueError{Field: "maxGrantCount", Reason: "must be at least 1"}
		}
	}
	return nil
}

func validateAmountMode(in PolicyInput) error {
	if in.FlexibleGrant {
		if in.GrantTime != nil {
			return &InvalidValueError{Field: "grantTime", Reason: "must be absent for flexible-amount policies"}
		}
	} else {
		if in.GrantTime == nil {
			return &InvalidValueError{Field: "grantTime", Reason: "required for fixed-amount policies"}
		}
	}
	return nil
}

func validateWindowTypes(in PolicyInput) error {
	if !in.EffectiveType.Valid() {
		return &InvalidValueError{Field: "effectiveType", Reason: "required"}
	}
	if !in.ExpirationType.Valid() {
		return &InvalidValueError{Field: "expirationType", Reason: "required"}
	}
	return nil
}

// =============================================================================
// AMOUNT RESOLUTION - How much an on-request/manual grant is worth
// =============================================================================

// ResolveGrantAmount applies the policy's amount rule: fixed policies return
// their configured grantTime, flexible policies require a positive supplied
// amount.
func ResolveGrantAmount(p *VacationPolicy, supplied *Amount) (Amount, error) {
	if !p.FlexibleGrant {
		// Unreachable for a validated policy; guarded anyway.
		if p.GrantTime == nil || !p.GrantTime.IsPositive() {
			return Amount{}, &InvalidValueError{Field: "grantTime", Reason: "fixed-amount policy without a positive grantTime"}
		}
		return *p.GrantTime, nil
	}
	if supplied == nil || !supplied.IsPositive() {
		return Amount{}, &InvalidValueError{Field: "amount", Reason: "flexible-amount policy requires a positive amount"}
	}
	if !p.MinuteGrant && !supplied.IsWholeDays() {
		return Amount{}, &InvalidValueError{Field: "amount", Reason: "fractional days require minute granularity"}
	}
	return *supplied, nil
}

// =============================================================================
// POLICY CATALOG
// =============================================================================

// PolicyCatalog validates and stores policy definitions.
type PolicyCatalog struct {
	store Store
	clock Clock
}

func NewPolicyCatalog(store Store, clock Clock) *PolicyCatalog {
	return &PolicyCatalog{store: store, clock: clock}
}

// Register validates and persists a new policy. Validation failures leave
// nothing written. The name check and the save run in one transaction so
// two concurrent registrations cannot both claim the same name.
func (c *PolicyCatalog) Register(ctx context.Context, in PolicyInput) (PolicyID, error) {
	if err := validatePolicyInput(in); err != nil {
		return "", err
	}

	p := c.build(in)
	err := c.store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetPolicyByName(ctx, in.Name)
		if err != nil {
			return fmt.Errorf("failed to check policy name: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("policy %q: %w", in.Name, ErrDuplicateName)
		}
		if err := s.SavePolicy(ctx, p); err != nil {
			return fmt.Errorf("failed to save policy: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (c *PolicyCatalog) build(in PolicyInput) *VacationPolicy {
	return &VacationPolicy{
		ID:                    PolicyID(uuid.NewString()),
		Name:                  in.Name,
		Description:           in.Description,
		VacationType:          in.VacationType,
		GrantMethod:           in.GrantMethod,
		FlexibleGrant:         in.FlexibleGrant,
		GrantTime:             in.GrantTime,
		MinuteGrant:           in.MinuteGrant,
		ApprovalRequiredCount: in.ApprovalRequiredCount,
		EffectiveType:         in.EffectiveType,
		ExpirationType:        in.ExpirationType,
		RepeatUnit:            in.RepeatUnit,
		RepeatInterval:        in.RepeatInterval,
		SpecificMonth:         in.SpecificMonth,
		SpecificDay:           in.SpecificDay,
		FirstGrantDate:        in.FirstGrantDate,
		Recurring:             in.Recurring,
		MaxGrantCount:         in.MaxGrantCount,
		CanDelete:             in.CanDelete,
		CreatedAt:             c.clock.Now(),
	}
}

// Get returns a policy or NotFound when missing or soft-deleted.
func (c *PolicyCatalog) Get(ctx context.Context, id PolicyID) (*VacationPolicy, error) {
	p, err := c.store.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Deleted {
		return nil, &NotFoundError{Kind: "policy", ID: string(id)}
	}
	return p, nil
}

// List returns all active policies.
func (c *PolicyCatalog) List(ctx context.Context) ([]VacationPolicy, error) {
	return c.store.ListPolicies(ctx)
}

// SoftDelete marks a policy deleted. Protected policies (CanDelete = false)
// are refused.
func (c *PolicyCatalog) SoftDelete(ctx context.Context, id PolicyID) error {
	p, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanDelete {
		return &IllegalStateError{Op: "delete policy", Reason: "policy is protected"}
	}
	p.Deleted = true
	if err := c.store.UpdatePolicy(ctx, p); err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return nil
}
