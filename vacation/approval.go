/*
approval.go - Sequential approval workflow for on-request grants

PURPOSE:
  An on-request policy gates grant creation behind a chain of approvers.
  Submitting a request creates one VacationApproval row per approver; each
  row transitions at most once from pending to a terminal state, and only
  the lowest-order pending row is actionable ("current approver only").

STATE MACHINE:
  Approval row: pending -> approved | rejected | skipped (terminal).
  Request:      in_progress -> approved (all rows approved)
                            -> rejected (any row rejected)
                            -> canceled (requester withdrew).

GRANT MATERIALIZATION:
  No grant exists while a request is in progress. The final approval creates
  the grant in the same transaction that flips the last row, so a request is
  never observed approved without its grant (or vice versa).
*/
package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// STATUSES
// =============================================================================

type RequestStatus string

const (
	RequestInProgress RequestStatus = "in_progress"
	RequestApproved   RequestStatus = "approved"
	RequestRejected   RequestStatus = "rejected"
	RequestCanceled   RequestStatus = "canceled"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"

	// ApprovalSkipped marks rows voided by a cancellation. Kept for audit.
	ApprovalSkipped ApprovalStatus = "skipped"
)

// =============================================================================
// ENTITIES
// =============================================================================

// GrantRequest is the pending-grant record preceding materialization.
type GrantRequest struct {
	ID              RequestID
	UserID          string
	PolicyID        PolicyID
	RequestedAmount *Amount // supplied amount, flexible-grant policies only
	Description     string
	Status          RequestStatus
	GrantID         *GrantID // set once the final approval materializes
	CreatedAt       time.Time
}

// VacationApproval is one approver's slot in the chain.
type VacationApproval struct {
	ID              ApprovalID
	RequestID       RequestID
	ApproverID      string
	ApprovalOrder   int // 1-based, smaller acts earlier
	Status          ApprovalStatus
	ApprovalDate    *time.Time
	RejectionReason string
	Deleted         bool
	CreatedAt       time.Time
}

func (a *VacationApproval) terminal() bool { return a.Status != ApprovalPending }

// =============================================================================
// WORKFLOW
// =============================================================================

type ApprovalWorkflow struct {
	store  Store
	ledger *GrantLedger
	clock  Clock
	users  UserDirectory
}

func NewApprovalWorkflow(store Store, ledger *GrantLedger, clock Clock, users UserDirectory) *ApprovalWorkflow {
	return &ApprovalWorkflow{store: store, ledger: ledger, clock: clock, users: users}
}

// SubmitInput carries the fields of a grant request submission.
type SubmitInput struct {
	UserID      string
	Policy      *VacationPolicy
	Amount      *Amount // required iff the policy is flexible-amount
	Description string
	ApproverIDs []string
}

// Submit creates a request with one pending approval row per approver.
// No grant is created yet.
func (w *ApprovalWorkflow) Submit(ctx context.Context, in SubmitInput) (*GrantRequest, error) {
	p := in.Policy
	if p == nil {
		return nil, &InvalidValueError{Field: "policy", Reason: "required"}
	}
	if p.GrantMethod != GrantOnRequest {
		return nil, &IllegalStateError{Op: "submit request", Reason: "policy is not on-request"}
	}
	if in.UserID == "" {
		return nil, &InvalidValueError{Field: "userId", Reason: "must not be blank"}
	}
	if len(in.ApproverIDs) == 0 {
		return nil, &InvalidValueError{Field: "approverIds", Reason: "must not be empty"}
	}
	if len(in.ApproverIDs) != p.ApprovalRequiredCount {
		return nil, &InvalidValueError{
			Field:  "approverIds",
			Reason: fmt.Sprintf("policy requires %d approvers, got %d", p.ApprovalRequiredCount, len(in.ApproverIDs)),
		}
	}

	// Resolve the amount now so a bad submission fails before any write.
	if _, err := ResolveGrantAmount(p, in.Amount); err != nil {
		return nil, err
	}

	ok, err := w.users.Exists(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !ok {
		return nil, &NotFoundError{Kind: "user", ID: in.UserID}
	}
	for _, approver := range in.ApproverIDs {
		ok, err := w.users.Exists(ctx, approver)
		if err != nil {
			return nil, fmt.Errorf("failed to look up approver: %w", err)
		}
		if !ok {
			return nil, &NotFoundError{Kind: "user", ID: approver}
		}
	}

	req := &GrantRequest{
		ID:              RequestID(uuid.NewString()),
		UserID:          in.UserID,
		PolicyID:        p.ID,
		RequestedAmount: in.Amount,
		Description:     in.Description,
		Status:          RequestInProgress,
		CreatedAt:       w.clock.Now(),
	}

	err = w.store.WithTx(ctx, func(s Store) error {
		if err := s.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}
		for i, approver := range in.ApproverIDs {
			row := &VacationApproval{
				ID:            ApprovalID(uuid.NewString()),
				RequestID:     req.ID,
				ApproverID:    approver,
				ApprovalOrder: i + 1,
				Status:        ApprovalPending,
				CreatedAt:     w.clock.Now(),
			}
			if err := s.SaveApproval(ctx, row); err != nil {
				return fmt.Errorf("failed to save approval row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// loadActionable fetches the approval row, its request and all sibling rows,
// and checks the "current approver only" precondition shared by Approve and
// Reject.
func (w *ApprovalWorkflow) loadActionable(ctx context.Context, s Store, id ApprovalID, byUser string) (*VacationApproval, *GrantRequest, []VacationApproval, error) {
	row, err := s.GetApproval(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if row == nil || row.Deleted {
		return nil, nil, nil, &NotFoundError{Kind: "approval", ID: string(id)}
	}
	if row.terminal() {
		return nil, nil, nil, &IllegalStateError{Op: "act on approval", Reason: "already processed"}
	}
	if row.ApproverID != byUser {
		return nil, nil, nil, &IllegalStateError{Op: "act on approval", Reason: "not the assigned approver"}
	}

	req, err := s.GetRequest(ctx, row.RequestID)
	if err != nil {
		return nil, nil, nil, err
	}
	if req == nil {
		return nil, nil, nil, &NotFoundError{Kind: "request", ID: string(row.RequestID)}
	}
	if req.Status != RequestInProgress {
		return nil, nil, nil, &IllegalStateError{Op: "act on approval", Reason: fmt.Sprintf("request is %s", req.Status)}
	}

	siblings, err := s.ListApprovalsByRequest(ctx, row.RequestID)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := range siblings {
		sib := &siblings[i]
		if sib.Status == ApprovalPending && sib.ApprovalOrder < row.ApprovalOrder {
			return nil, nil, nil, &IllegalStateError{
				Op:     "act on approval",
				Reason: fmt.Sprintf("approver %d has not acted yet", sib.ApprovalOrder),
			}
		}
	}
	return row, req, siblings, nil
}

// Approve records the current approver's approval. When every row is
// approved the request is marked approved and the grant is created in the
// same transaction.
func (w *ApprovalWorkflow) Approve(ctx context.Context, id ApprovalID, byUser string) (*GrantRequest, error) {
	var out *GrantRequest
	err := w.store.WithTx(ctx, func(s Store) error {
		row, req, siblings, err := w.loadActionable(ctx, s, id, byUser)
		if err != nil {
			return err
		}

		now := w.clock.Now()
		row.Status = ApprovalApproved
		row.ApprovalDate = &now
		if err := s.UpdateApproval(ctx, row); err != nil {
			return fmt.Errorf("failed to update approval row: %w", err)
		}

		allApproved := true
		for i := range siblings {
			sib := &siblings[i]
			if sib.ID == row.ID {
				continue
			}
			if sib.Status != ApprovalApproved {
				allApproved = false
				break
			}
		}

		if allApproved {
			policy, err := s.GetPolicy(ctx, req.PolicyID)
			if err != nil {
				return err
			}
			if policy == nil {
				return &NotFoundError{Kind: "policy", ID: string(req.PolicyID)}
			}
			amount, err := ResolveGrantAmount(policy, req.RequestedAmount)
			if err != nil {
				return err
			}
			grantDate, expiryDate := GrantWindow(policy, DateOf(now))
			policyID := policy.ID
			g, err := w.ledger.Grant(ctx, s, GrantInput{
				UserID:       req.UserID,
				PolicyID:     &policyID,
				Description:  req.Description,
				VacationType: policy.VacationType,
				GrantDate:    grantDate,
				ExpiryDate:   expiryDate,
				Amount:       amount,
			})
			if err != nil {
				return err
			}
			req.Status = RequestApproved
			req.GrantID = &g.ID
			if err := s.UpdateRequest(ctx, req); err != nil {
				return fmt.Errorf("failed to update request: %w", err)
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject records the current approver's rejection and terminates the whole
// request. Later pending rows are left as-is for audit but are no longer
// actionable.
func (w *ApprovalWorkflow) Reject(ctx context.Context, id ApprovalID, byUser, reason string) (*GrantRequest, error) {
	var out *GrantRequest
	err := w.store.WithTx(ctx, func(s Store) error {
		row, req, _, err := w.loadActionable(ctx, s, id, byUser)
		if err != nil {
			return err
		}

		now := w.clock.Now()
		row.Status = ApprovalRejected
		row.ApprovalDate = &now
		row.RejectionReason = reason
		if err := s.UpdateApproval(ctx, row); err != nil {
			return fmt.Errorf("failed to update approval row: %w", err)
		}

		req.Status = RequestRejected
		if err := s.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel withdraws an in-progress request. Only the original requester may
// cancel; remaining pending rows are marked skipped and no grant is created.
func (w *ApprovalWorkflow) Cancel(ctx context.Context, id RequestID, byUser string) error {
	return w.store.WithTx(ctx, func(s Store) error {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return &NotFoundError{Kind: "request", ID: string(id)}
		}
		if req.UserID != byUser {
			return &IllegalStateError{Op: "cancel request", Reason: "only the requester may cancel"}
		}
		if req.Status != RequestInProgress {
			return &IllegalStateError{Op: "cancel request", Reason: fmt.Sprintf("request is %s", req.Status)}
		}

		rows, err := s.ListApprovalsByRequest(ctx, id)
		if err != nil {
			return err
		}
		for i := range rows {
			row := &rows[i]
			if row.Status != ApprovalPending {
				continue
			}
			row.Status = ApprovalSkipped
			if err := s.UpdateApproval(ctx, row); err != nil {
				return fmt.Errorf("failed to void approval row: %w", err)
			}
		}

		req.Status = RequestCanceled
		if err := s.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return nil
	})
}

// GetRequest returns a request or NotFound when missing.
func (w *ApprovalWorkflow) GetRequest(ctx context.Context, id RequestID) (*GrantRequest, error) {
	req, err := w.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Kind: "request", ID: string(id)}
	}
	return req, nil
}

// ListRequests returns a user's requests, newest first.
func (w *ApprovalWorkflow) ListRequests(ctx context.Context, userID string) ([]GrantRequest, error) {
	return w.store.ListRequestsByUser(ctx, userID)
}

// PendingFor returns the approval rows currently awaiting the approver.
func (w *ApprovalWorkflow) PendingFor(ctx context.Context, approverID string) ([]VacationApproval, error) {
	return w.store.ListPendingApprovalsByApprover(ctx, approverID)
}

// Approvals returns every row of a request in order.
func (w *ApprovalWorkflow) Approvals(ctx context.Context, id RequestID) ([]VacationApproval, error) {
	return w.store.ListApprovalsByRequest(ctx, id)
}
