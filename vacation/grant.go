/*
grant.go - The grant ledger

PURPOSE:
  A VacationGrant is one ledger credit: an amount of vacation made usable
  between grantDate and expiryDate. GrantLedger creates grants, moves balance
  in and out of them, and summarizes what a user currently holds.

INVARIANTS:
  - 0 <= remainTime <= grantTime at rest.
  - grantDate <= expiryDate.
  - grantTime - remainTime equals the sum of deductedTime over the grant's
    active deductions (enforced jointly with usage.go inside one transaction).

SEE ALSO:
  - usage.go: greedy allocation that debits grants
  - engine.go: grant-method strategies that decide when to grant
*/
package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// GRANT - One ledger credit
// =============================================================================

type VacationGrant struct {
	ID           GrantID
	UserID       string
	PolicyID     *PolicyID // nil for ad-hoc manual entries
	Description  string
	VacationType string
	GrantDate    Date
	ExpiryDate   Date
	GrantTime    Amount // amount originally credited
	RemainTime   Amount // amount still usable
	Deleted      bool
	CreatedAt    time.Time
}

// UsedTime returns how much of the grant has been consumed.
func (g *VacationGrant) UsedTime() Amount { return g.GrantTime.Sub(g.RemainTime) }

// ExpiredOn reports whether the grant can no longer cover a usage starting
// on the given date.
func (g *VacationGrant) ExpiredOn(d Date) bool { return g.ExpiryDate.Before(d) }

// Debit removes amount from the grant's remaining balance.
func (g *VacationGrant) Debit(amount Amount) error {
	if !amount.IsPositive() {
		return &InvalidValueError{Field: "amount", Reason: "debit must be positive"}
	}
	if amount.GreaterThan(g.RemainTime) {
		return &InsufficientBalanceError{
			UserID:       g.UserID,
			VacationType: g.VacationType,
			Available:    g.RemainTime,
			Requested:    amount,
			Shortfall:    amount.Sub(g.RemainTime),
		}
	}
	g.RemainTime = g.RemainTime.Sub(amount)
	return nil
}

// Credit returns amount to the grant's remaining balance. The balance can
// never exceed what was originally granted; top-ups are new grants.
func (g *VacationGrant) Credit(amount Amount) error {
	if !amount.IsPositive() {
		return &InvalidValueError{Field: "amount", Reason: "credit must be positive"}
	}
	next := g.RemainTime.Add(amount)
	if next.GreaterThan(g.GrantTime) {
		return &IllegalStateError{
			Op:     "credit grant",
			Reason: fmt.Sprintf("credit of %v would exceed granted %v", amount, g.GrantTime),
		}
	}
	g.RemainTime = next
	return nil
}

// =============================================================================
// GRANT WINDOW DERIVATION - Pure helpers
// =============================================================================

// EffectiveDateFor derives a grant's start date from the moment of granting.
func EffectiveDateFor(t EffectiveType, grantedOn Date) Date {
	switch t {
	case EffectiveNextDay:
		return grantedOn.AddDays(1)
	case EffectiveNextMonthStart:
		return grantedOn.StartOfNextMonth()
	default: // EffectiveImmediate
		return grantedOn
	}
}

// ExpiryDateFor derives a grant's last usable date from its start date.
// Month and year windows are inclusive: "after one month" from Jan 15 runs
// through Feb 14, and from Jan 31 through Feb 28 (clamped, never rolling
// into the next month).
func ExpiryDateFor(t ExpirationType, effective Date) Date {
	switch t {
	case ExpireAfterOneMonth:
		return inclusiveMonthsEnd(effective, 1)
	case ExpireAfterThreeMonths:
		return inclusiveMonthsEnd(effective, 3)
	case ExpireAfterSixMonths:
		return inclusiveMonthsEnd(effective, 6)
	case ExpireAfterOneYear:
		return effective.AddYears(1).AddDays(-1)
	default: // ExpireEndOfYear
		return effective.EndOfYear()
	}
}

// inclusiveMonthsEnd returns the last day of an n-month window starting at
// effective. When the start day has no counterpart in the target month the
// clamped date is already inside the window, so nothing is subtracted.
func inclusiveMonthsEnd(effective Date, months int) Date {
	end := effective.AddMonthsClamped(months)
	if end.Day() == effective.Day() {
		return end.AddDays(-1)
	}
	return end
}

// GrantWindow derives both dates for a policy-backed grant.
func GrantWindow(p *VacationPolicy, grantedOn Date) (grantDate, expiryDate Date) {
	grantDate = EffectiveDateFor(p.EffectiveType, grantedOn)
	expiryDate = ExpiryDateFor(p.ExpirationType, grantDate)
	return grantDate, expiryDate
}

// =============================================================================
// GRANT LEDGER
// =============================================================================

// BalanceSummary is a per-vacation-type rollup of a user's grants.
type BalanceSummary struct {
	UserID       string
	VacationType string
	Granted      Amount // total credited, active grants only
	Remaining    Amount // total still usable
	Usable       Amount // remaining on grants not yet expired
}

// GrantLedger creates and mutates grants.
type GrantLedger struct {
	store Store
	clock Clock
	users UserDirectory
}

func NewGrantLedger(store Store, clock Clock, users UserDirectory) *GrantLedger {
	return &GrantLedger{store: store, clock: clock, users: users}
}

// GrantInput carries the fields of a direct grant creation.
type GrantInput struct {
	UserID       string
	PolicyID     *PolicyID
	Description  string
	VacationType string
	GrantDate    Date
	ExpiryDate   Date
	Amount       Amount
}

// Grant validates and persists a new grant with remainTime = grantTime.
// It writes through whatever store it is handed, so callers composing a
// larger operation pass their transaction view.
func (l *GrantLedger) Grant(ctx context.Context, store Store, in GrantInput) (*VacationGrant, error) {
	if in.UserID == "" {
		return nil, &InvalidValueError{Field: "userId", Reason: "must not be blank"}
	}
	if in.VacationType == "" {
		return nil, &InvalidValueError{Field: "vacationType", Reason: "must not be blank"}
	}
	if !in.Amount.IsPositive() {
		return nil, &InvalidValueError{Field: "amount", Reason: "must be positive"}
	}
	if in.GrantDate.IsZero() || in.ExpiryDate.IsZero() {
		return nil, &InvalidValueError{Field: "grantDate", Reason: "grant and expiry dates are required"}
	}
	if in.ExpiryDate.Before(in.GrantDate) {
		return nil, &InvalidValueError{Field: "expiryDate", Reason: "must not precede grantDate"}
	}

	ok, err := l.users.Exists(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !ok {
		return nil, &NotFoundError{Kind: "user", ID: in.UserID}
	}

	g := &VacationGrant{
		ID:           GrantID(uuid.NewString()),
		UserID:       in.UserID,
		PolicyID:     in.PolicyID,
		Description:  in.Description,
		VacationType: in.VacationType,
		GrantDate:    in.GrantDate,
		ExpiryDate:   in.ExpiryDate,
		GrantTime:    in.Amount,
		RemainTime:   in.Amount,
		CreatedAt:    l.clock.Now(),
	}
	if err := store.SaveGrant(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save grant: %w", err)
	}
	return g, nil
}

// Debit removes amount from a grant and persists the change.
func (l *GrantLedger) Debit(ctx context.Context, store Store, g *VacationGrant, amount Amount) error {
	if err := g.Debit(amount); err != nil {
		return err
	}
	if err := store.UpdateGrant(ctx, g); err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}
	return nil
}

// Credit returns amount to a grant and persists the change.
func (l *GrantLedger) Credit(ctx context.Context, store Store, g *VacationGrant, amount Amount) error {
	if err := g.Credit(amount); err != nil {
		return err
	}
	if err := store.UpdateGrant(ctx, g); err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}
	return nil
}

// Revoke soft-deletes a grant. A grant that has been partially used cannot
// be revoked; the usages drawing on it must be canceled first.
func (l *GrantLedger) Revoke(ctx context.Context, id GrantID) error {
	return l.store.WithTx(ctx, func(s Store) error {
		g, err := s.GetGrant(ctx, id)
		if err != nil {
			return err
		}
		if g == nil || g.Deleted {
			return &NotFoundError{Kind: "grant", ID: string(id)}
		}
		if !g.RemainTime.Equal(g.GrantTime) {
			return fmt.Errorf("revoke grant %s: %w", id, ErrGrantInUse)
		}
		g.Deleted = true
		if err := s.UpdateGrant(ctx, g); err != nil {
			return fmt.Errorf("failed to revoke grant: %w", err)
		}
		return nil
	})
}

// ListGrants returns a user's active grants.
func (l *GrantLedger) ListGrants(ctx context.Context, userID string) ([]VacationGrant, error) {
	return l.store.ListGrantsByUser(ctx, userID)
}

// GetGrant returns a grant or NotFound when missing or revoked.
func (l *GrantLedger) GetGrant(ctx context.Context, id GrantID) (*VacationGrant, error) {
	g, err := l.store.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil || g.Deleted {
		return nil, &NotFoundError{Kind: "grant", ID: string(id)}
	}
	return g, nil
}

// BalanceSummaries rolls up the user's active grants per vacation type.
// Usable counts only balance on grants whose expiry has not passed asOf.
func (l *GrantLedger) BalanceSummaries(ctx context.Context, userID string, asOf Date) ([]BalanceSummary, error) {
	grants, err := l.store.ListGrantsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]*BalanceSummary)
	var order []string
	for i := range grants {
		g := &grants[i]
		s, ok := byType[g.VacationType]
		if !ok {
			s = &BalanceSummary{UserID: userID, VacationType: g.VacationType}
			byType[g.VacationType] = s
			order = append(order, g.VacationType)
		}
		s.Granted = s.Granted.Add(g.GrantTime)
		s.Remaining = s.Remaining.Add(g.RemainTime)
		if !g.ExpiredOn(asOf) {
			s.Usable = s.Usable.Add(g.RemainTime)
		}
	}

	out := make([]BalanceSummary, 0, len(order))
	for _, t := range order {
		out = append(out, *byType[t])
	}
	return out, nil
}
