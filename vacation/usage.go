/*
usage.go - Usage requests and balance allocation

PURPOSE:
  A VacationUsage is one user-facing consumption event. UsageAllocator turns
  a usage request into debits against the user's eligible grants, spending
  the soonest-expiring balance first, and reverses the whole set of debits
  on cancellation.

ALLOCATION ORDER:
  Eligible grants are walked ascending by (expiryDate, grantDate, id). Ties
  on expiry go to the earliest grant, then to the smaller id, so a given
  ledger state always allocates the same way.

ATOMICITY:
  Allocation and cancellation run inside a single transaction. Either every
  debit (or reversal) and its deduction row lands, or none do.
*/
package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// USAGE ENTITIES
// =============================================================================

type VacationUsage struct {
	ID           UsageID
	UserID       string
	Description  string
	VacationType string
	TimeType     TimeType
	StartDate    Date
	EndDate      Date
	UsedTime     Amount
	Deleted      bool
	CreatedAt    time.Time
}

// UsageDeduction records how much of a usage one grant covered.
type UsageDeduction struct {
	ID           DeductionID
	UsageID      UsageID
	GrantID      GrantID
	DeductedTime Amount
	Deleted      bool
	CreatedAt    time.Time
}

// =============================================================================
// USAGE ALLOCATOR
// =============================================================================

type UsageAllocator struct {
	store  Store
	ledger *GrantLedger
	clock  Clock
	users  UserDirectory
}

func NewUsageAllocator(store Store, ledger *GrantLedger, clock Clock, users UserDirectory) *UsageAllocator {
	return &UsageAllocator{store: store, ledger: ledger, clock: clock, users: users}
}

// UsageInput carries the fields of a usage request. UsedTime is the total
// amount in days, precomputed by the caller from calendar and working-time
// rules (ConvertToDays covers the unit conversion).
type UsageInput struct {
	UserID       string
	Description  string
	VacationType string
	TimeType     TimeType
	StartDate    Date
	EndDate      Date
	UsedTime     Amount
}

func (a *UsageAllocator) validate(ctx context.Context, in UsageInput) error {
	if in.UserID == "" {
		return &InvalidValueError{Field: "userId", Reason: "must not be blank"}
	}
	if in.VacationType == "" {
		return &InvalidValueError{Field: "vacationType", Reason: "must not be blank"}
	}
	if !in.TimeType.Valid() {
		return &InvalidValueError{Field: "timeType", Reason: fmt.Sprintf("unknown type %q", in.TimeType)}
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return &InvalidValueError{Field: "startDate", Reason: "start and end dates are required"}
	}
	if in.EndDate.Before(in.StartDate) {
		return &InvalidValueError{Field: "endDate", Reason: "must not precede startDate"}
	}
	if !in.UsedTime.IsPositive() {
		return &InvalidValueError{Field: "usedTime", Reason: "must be positive"}
	}
	if in.TimeType == TimeFullDay && !in.UsedTime.IsWholeDays() {
		return &InvalidValueError{Field: "usedTime", Reason: "full-day usage must be whole days"}
	}
	ok, err := a.users.Exists(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !ok {
		return &NotFoundError{Kind: "user", ID: in.UserID}
	}
	return nil
}

// RequestUsage allocates in.UsedTime across the user's eligible grants and
// persists the usage with one deduction row per debited grant. If the
// eligible balance cannot cover the request, nothing is written and the call
// fails with InsufficientBalance.
func (a *UsageAllocator) RequestUsage(ctx context.Context, in UsageInput) (*VacationUsage, error) {
	if err := a.validate(ctx, in); err != nil {
		return nil, err
	}

	usage := &VacationUsage{
		ID:           UsageID(uuid.NewString()),
		UserID:       in.UserID,
		Description:  in.Description,
		VacationType: in.VacationType,
		TimeType:     in.TimeType,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		UsedTime:     in.UsedTime,
		CreatedAt:    a.clock.Now(),
	}

	err := a.store.WithTx(ctx, func(s Store) error {
		grants, err := s.ListEligibleGrants(ctx, in.UserID, in.VacationType, in.StartDate)
		if err != nil {
			return fmt.Errorf("failed to list eligible grants: %w", err)
		}

		toAllocate := in.UsedTime
		available := ZeroAmount()
		for i := range grants {
			available = available.Add(grants[i].RemainTime)
		}
		if available.LessThan(toAllocate) {
			return &InsufficientBalanceError{
				UserID:       in.UserID,
				VacationType: in.VacationType,
				Available:    available,
				Requested:    toAllocate,
				Shortfall:    toAllocate.Sub(available),
			}
		}

		if err := s.SaveUsage(ctx, usage); err != nil {
			return fmt.Errorf("failed to save usage: %w", err)
		}

		for i := range grants {
			if toAllocate.IsZero() {
				break
			}
			g := &grants[i]
			take := toAllocate.Min(g.RemainTime)
			if !take.IsPositive() {
				continue
			}
			if err := a.ledger.Debit(ctx, s, g, take); err != nil {
				return err
			}
			d := &UsageDeduction{
				ID:           DeductionID(uuid.NewString()),
				UsageID:      usage.ID,
				GrantID:      g.ID,
				DeductedTime: take,
				CreatedAt:    a.clock.Now(),
			}
			if err := s.SaveDeduction(ctx, d); err != nil {
				return fmt.Errorf("failed to save deduction: %w", err)
			}
			toAllocate = toAllocate.Sub(take)
		}

		if !toAllocate.IsZero() {
			// Balance moved under us between the sum check and the debits.
			return &InsufficientBalanceError{
				UserID:       in.UserID,
				VacationType: in.VacationType,
				Available:    in.UsedTime.Sub(toAllocate),
				Requested:    in.UsedTime,
				Shortfall:    toAllocate,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// CancelUsage reverses every deduction of the usage and soft-deletes the
// usage and its deductions. Grants are credited back even when they have
// since expired or been revoked; the ledger stays balanced even if the
// returned amount is no longer practically usable.
func (a *UsageAllocator) CancelUsage(ctx context.Context, id UsageID) error {
	return a.store.WithTx(ctx, func(s Store) error {
		usage, err := s.GetUsage(ctx, id)
		if err != nil {
			return err
		}
		if usage == nil || usage.Deleted {
			return &NotFoundError{Kind: "usage", ID: string(id)}
		}

		deductions, err := s.ListDeductionsByUsage(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list deductions: %w", err)
		}

		for i := range deductions {
			d := &deductions[i]
			g, err := s.GetGrant(ctx, d.GrantID)
			if err != nil {
				return err
			}
			if g == nil {
				return &NotFoundError{Kind: "grant", ID: string(d.GrantID)}
			}
			if err := a.ledger.Credit(ctx, s, g, d.DeductedTime); err != nil {
				return err
			}
			d.Deleted = true
			if err := s.UpdateDeduction(ctx, d); err != nil {
				return fmt.Errorf("failed to update deduction: %w", err)
			}
		}

		usage.Deleted = true
		if err := s.UpdateUsage(ctx, usage); err != nil {
			return fmt.Errorf("failed to update usage: %w", err)
		}
		return nil
	})
}

// GetUsage returns a usage or NotFound when missing or canceled.
func (a *UsageAllocator) GetUsage(ctx context.Context, id UsageID) (*VacationUsage, error) {
	u, err := a.store.GetUsage(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Deleted {
		return nil, &NotFoundError{Kind: "usage", ID: string(id)}
	}
	return u, nil
}

// ListUsages returns a user's active usages.
func (a *UsageAllocator) ListUsages(ctx context.Context, userID string) ([]VacationUsage, error) {
	return a.store.ListUsagesByUser(ctx, userID)
}

// Deductions returns the active deduction rows of a usage.
func (a *UsageAllocator) Deductions(ctx context.Context, id UsageID) ([]UsageDeduction, error) {
	return a.store.ListDeductionsByUsage(ctx, id)
}
