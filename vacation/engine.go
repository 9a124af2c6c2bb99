/*
engine.go - Engine facade and grant-method strategies

PURPOSE:
  Engine wires PolicyCatalog, GrantLedger, UsageAllocator and
  ApprovalWorkflow together and selects the strategy per grant method:
  manual grants go straight to the ledger, on-request grants go through the
  approval chain, repeat grants are issued from enrollment cursors by the
  scheduled pass.

SCHEDULED ISSUANCE:
  Each (user, policy) pairing of a repeat policy is an Enrollment carrying a
  cursor: the last granted occurrence date and how many grants have been
  issued. IssueScheduledGrants walks each enrollment's due occurrences and
  advances the cursor in the same transaction as the grant, so re-running the
  pass for the same date never double-grants.
*/
package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENROLLMENT - Per user-policy issuance cursor
// =============================================================================

type Enrollment struct {
	ID            string
	UserID        string
	PolicyID      PolicyID
	LastGrantDate *Date // last occurrence granted, nil before the first
	GrantCount    int
	Deleted       bool
	CreatedAt     time.Time
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store    Store
	clock    Clock
	users    UserDirectory
	catalog  *PolicyCatalog
	ledger   *GrantLedger
	usages   *UsageAllocator
	workflow *ApprovalWorkflow
}

func NewEngine(store Store, clock Clock, users UserDirectory) *Engine {
	ledger := NewGrantLedger(store, clock, users)
	return &Engine{
		store:    store,
		clock:    clock,
		users:    users,
		catalog:  NewPolicyCatalog(store, clock),
		ledger:   ledger,
		usages:   NewUsageAllocator(store, ledger, clock, users),
		workflow: NewApprovalWorkflow(store, ledger, clock, users),
	}
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// Today returns the engine clock's current date.
func (e *Engine) Today() Date { return DateOf(e.clock.Now()) }

// -----------------------------------------------------------------------------
// Policies
// -----------------------------------------------------------------------------

func (e *Engine) RegisterPolicy(ctx context.Context, in PolicyInput) (PolicyID, error) {
	return e.catalog.Register(ctx, in)
}

func (e *Engine) GetPolicy(ctx context.Context, id PolicyID) (*VacationPolicy, error) {
	return e.catalog.Get(ctx, id)
}

func (e *Engine) ListPolicies(ctx context.Context) ([]VacationPolicy, error) {
	return e.catalog.List(ctx)
}

func (e *Engine) DeletePolicy(ctx context.Context, id PolicyID) error {
	return e.catalog.SoftDelete(ctx, id)
}

// -----------------------------------------------------------------------------
// Manual grants
// -----------------------------------------------------------------------------

// ManualGrantInput describes an administrator-initiated grant. PolicyID is
// optional: without one, VacationType, GrantDate, ExpiryDate and Amount must
// all be supplied explicitly.
type ManualGrantInput struct {
	UserID      string
	PolicyID    *PolicyID
	Description string

	// Ad-hoc fields, used when no policy backs the grant.
	VacationType string
	GrantDate    Date
	ExpiryDate   Date

	// Amount, required for ad-hoc grants and for flexible-amount policies.
	Amount *Amount
}

// ManualGrant creates a grant on demand. Policy-backed grants take their
// vacation type, amount rule and window derivation from the policy; ad-hoc
// grants carry everything explicitly.
func (e *Engine) ManualGrant(ctx context.Context, in ManualGrantInput) (*VacationGrant, error) {
	gi := GrantInput{
		UserID:      in.UserID,
		Description: in.Description,
	}

	if in.PolicyID != nil {
		p, err := e.catalog.Get(ctx, *in.PolicyID)
		if err != nil {
			return nil, err
		}
		if p.GrantMethod != GrantManual {
			return nil, &IllegalStateError{Op: "manual grant", Reason: "policy is not manual-grant"}
		}
		amount, err := ResolveGrantAmount(p, in.Amount)
		if err != nil {
			return nil, err
		}
		gi.PolicyID = &p.ID
		gi.VacationType = p.VacationType
		gi.Amount = amount
		gi.GrantDate, gi.ExpiryDate = GrantWindow(p, e.Today())
	} else {
		if in.Amount == nil {
			return nil, &InvalidValueError{Field: "amount", Reason: "required for ad-hoc grants"}
		}
		gi.VacationType = in.VacationType
		gi.Amount = *in.Amount
		gi.GrantDate = in.GrantDate
		gi.ExpiryDate = in.ExpiryDate
	}

	var out *VacationGrant
	err := e.store.WithTx(ctx, func(s Store) error {
		g, err := e.ledger.Grant(ctx, s, gi)
		if err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) RevokeGrant(ctx context.Context, id GrantID) error {
	return e.ledger.Revoke(ctx, id)
}

func (e *Engine) GetGrant(ctx context.Context, id GrantID) (*VacationGrant, error) {
	return e.ledger.GetGrant(ctx, id)
}

func (e *Engine) ListGrants(ctx context.Context, userID string) ([]VacationGrant, error) {
	return e.ledger.ListGrants(ctx, userID)
}

func (e *Engine) Balances(ctx context.Context, userID string) ([]BalanceSummary, error) {
	return e.ledger.BalanceSummaries(ctx, userID, e.Today())
}

// -----------------------------------------------------------------------------
// Usages
// -----------------------------------------------------------------------------

func (e *Engine) RequestUsage(ctx context.Context, in UsageInput) (*VacationUsage, error) {
	return e.usages.RequestUsage(ctx, in)
}

func (e *Engine) CancelUsage(ctx context.Context, id UsageID) error {
	return e.usages.CancelUsage(ctx, id)
}

func (e *Engine) GetUsage(ctx context.Context, id UsageID) (*VacationUsage, error) {
	return e.usages.GetUsage(ctx, id)
}

func (e *Engine) ListUsages(ctx context.Context, userID string) ([]VacationUsage, error) {
	return e.usages.ListUsages(ctx, userID)
}

func (e *Engine) UsageDeductions(ctx context.Context, id UsageID) ([]UsageDeduction, error) {
	return e.usages.Deductions(ctx, id)
}

// -----------------------------------------------------------------------------
// On-request grants
// -----------------------------------------------------------------------------

// SubmitGrantRequest opens the approval chain for an on-request policy.
func (e *Engine) SubmitGrantRequest(ctx context.Context, userID string, policyID PolicyID, amount *Amount, description string, approverIDs []string) (*GrantRequest, error) {
	p, err := e.catalog.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	return e.workflow.Submit(ctx, SubmitInput{
		UserID:      userID,
		Policy:      p,
		Amount:      amount,
		Description: description,
		ApproverIDs: approverIDs,
	})
}

func (e *Engine) Approve(ctx context.Context, id ApprovalID, byUser string) (*GrantRequest, error) {
	return e.workflow.Approve(ctx, id, byUser)
}

func (e *Engine) Reject(ctx context.Context, id ApprovalID, byUser, reason string) (*GrantRequest, error) {
	return e.workflow.Reject(ctx, id, byUser, reason)
}

func (e *Engine) CancelRequest(ctx context.Context, id RequestID, byUser string) error {
	return e.workflow.Cancel(ctx, id, byUser)
}

func (e *Engine) GetRequest(ctx context.Context, id RequestID) (*GrantRequest, error) {
	return e.workflow.GetRequest(ctx, id)
}

func (e *Engine) ListRequests(ctx context.Context, userID string) ([]GrantRequest, error) {
	return e.workflow.ListRequests(ctx, userID)
}

func (e *Engine) PendingApprovals(ctx context.Context, approverID string) ([]VacationApproval, error) {
	return e.workflow.PendingFor(ctx, approverID)
}

func (e *Engine) RequestApprovals(ctx context.Context, id RequestID) ([]VacationApproval, error) {
	return e.workflow.Approvals(ctx, id)
}

// -----------------------------------------------------------------------------
// Repeat grants
// -----------------------------------------------------------------------------

// EnrollUser subscribes a user to a repeat policy. Enrolling twice is a
// no-op returning the existing enrollment.
func (e *Engine) EnrollUser(ctx context.Context, userID string, policyID PolicyID) (*Enrollment, error) {
	p, err := e.catalog.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if p.GrantMethod != GrantRepeat {
		return nil, &IllegalStateError{Op: "enroll user", Reason: "policy is not repeat-grant"}
	}
	ok, err := e.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !ok {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}

	existing, err := e.store.GetEnrollment(ctx, userID, policyID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.Deleted {
		return existing, nil
	}

	enr := &Enrollment{
		ID:        uuid.NewString(),
		UserID:    userID,
		PolicyID:  policyID,
		CreatedAt: e.clock.Now(),
	}
	if err := e.store.SaveEnrollment(ctx, enr); err != nil {
		return nil, fmt.Errorf("failed to save enrollment: %w", err)
	}
	return enr, nil
}

func (e *Engine) ListEnrollments(ctx context.Context) ([]Enrollment, error) {
	return e.store.ListEnrollments(ctx)
}

// IssueScheduledGrants grants every occurrence due up to and including asOf
// for every enrollment, and returns how many grants were issued. Each
// enrollment is processed in its own transaction; the cursor advances with
// the grant, so a re-run for the same date issues nothing new.
func (e *Engine) IssueScheduledGrants(ctx context.Context, asOf Date) (int, error) {
	enrollments, err := e.store.ListEnrollments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	issued := 0
	for i := range enrollments {
		n, err := e.issueForEnrollment(ctx, enrollments[i].ID, asOf)
		if err != nil {
			return issued, err
		}
		issued += n
	}
	return issued, nil
}

func (e *Engine) issueForEnrollment(ctx context.Context, enrollmentID string, asOf Date) (int, error) {
	issued := 0
	err := e.store.WithTx(ctx, func(s Store) error {
		enr, err := s.GetEnrollmentByID(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if enr == nil || enr.Deleted {
			return nil
		}

		policy, err := s.GetPolicy(ctx, enr.PolicyID)
		if err != nil {
			return err
		}
		if policy == nil || policy.Deleted {
			return nil
		}

		// Cursor: the reference for the next occurrence is the last granted
		// date, or the day before the first occurrence when none yet.
		ref := policy.FirstGrantDate.AddDays(-1)
		if enr.LastGrantDate != nil {
			ref = *enr.LastGrantDate
		}

		for {
			next, ok := NextGrantDate(policy, ref)
			if !ok || next.After(asOf) {
				break
			}
			if policy.MaxGrantCount != nil && enr.GrantCount >= *policy.MaxGrantCount {
				break
			}

			policyID := policy.ID
			_, err := e.ledger.Grant(ctx, s, GrantInput{
				UserID:       enr.UserID,
				PolicyID:     &policyID,
				Description:  policy.Name,
				VacationType: policy.VacationType,
				GrantDate:    next,
				ExpiryDate:   ExpiryDateFor(policy.ExpirationType, next),
				Amount:       *policy.GrantTime,
			})
			if err != nil {
				return err
			}

			occurred := next
			enr.LastGrantDate = &occurred
			enr.GrantCount++
			if err := s.UpdateEnrollment(ctx, enr); err != nil {
				return fmt.Errorf("failed to advance enrollment cursor: %w", err)
			}
			issued++
			ref = next
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return issued, nil
}
