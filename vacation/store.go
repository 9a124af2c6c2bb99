/*
store.go - Persistence boundary for the vacation engine

PURPOSE:
  Defines the interface between the engine and the database. The engine does
  not mandate a storage technology; the only hard requirement is that
  grant-debit and deduction-insert happen in one transaction, and likewise
  approval-row-update and grant-creation on final approval. WithTx provides
  that boundary.

SOFT DELETION:
  Nothing is physically removed. Every record carries a Deleted flag; list
  operations exclude deleted rows, point lookups return them so callers can
  distinguish "never existed" from "revoked/canceled".

IMPLEMENTATIONS:
  - vacation/store: in-memory (tests, dev)
  - store/sqlite: production SQLite
*/
package vacation

import "context"

// =============================================================================
// SUB-STORES
// =============================================================================

type PolicyStore interface {
	SavePolicy(ctx context.Context, p *VacationPolicy) error
	UpdatePolicy(ctx context.Context, p *VacationPolicy) error

	// GetPolicy returns (nil, nil) when the id is unknown.
	GetPolicy(ctx context.Context, id PolicyID) (*VacationPolicy, error)

	// GetPolicyByName matches the exact name, case-sensitive, among
	// non-deleted policies. Returns (nil, nil) when absent.
	GetPolicyByName(ctx context.Context, name string) (*VacationPolicy, error)

	// ListPolicies returns non-deleted policies ordered by name.
	ListPolicies(ctx context.Context) ([]VacationPolicy, error)
}

type GrantStore interface {
	SaveGrant(ctx context.Context, g *VacationGrant) error
	UpdateGrant(ctx context.Context, g *VacationGrant) error
	GetGrant(ctx context.Context, id GrantID) (*VacationGrant, error)

	// ListGrantsByUser returns non-deleted grants for the user, all types.
	ListGrantsByUser(ctx context.Context, userID string) ([]VacationGrant, error)

	// ListEligibleGrants returns non-deleted grants for the user and vacation
	// type with remainTime > 0 and expiryDate >= coverStart, ordered ascending
	// by (expiryDate, grantDate, id).
	ListEligibleGrants(ctx context.Context, userID, vacationType string, coverStart Date) ([]VacationGrant, error)
}

type UsageStore interface {
	SaveUsage(ctx context.Context, u *VacationUsage) error
	UpdateUsage(ctx context.Context, u *VacationUsage) error
	GetUsage(ctx context.Context, id UsageID) (*VacationUsage, error)
	ListUsagesByUser(ctx context.Context, userID string) ([]VacationUsage, error)

	SaveDeduction(ctx context.Context, d *UsageDeduction) error
	UpdateDeduction(ctx context.Context, d *UsageDeduction) error

	// ListDeductionsByUsage returns non-deleted deductions in insertion order.
	ListDeductionsByUsage(ctx context.Context, id UsageID) ([]UsageDeduction, error)
	ListDeductionsByGrant(ctx context.Context, id GrantID) ([]UsageDeduction, error)
}

type ApprovalStore interface {
	SaveRequest(ctx context.Context, r *GrantRequest) error
	UpdateRequest(ctx context.Context, r *GrantRequest) error
	GetRequest(ctx context.Context, id RequestID) (*GrantRequest, error)
	ListRequestsByUser(ctx context.Context, userID string) ([]GrantRequest, error)

	SaveApproval(ctx context.Context, a *VacationApproval) error
	UpdateApproval(ctx context.Context, a *VacationApproval) error
	GetApproval(ctx context.Context, id ApprovalID) (*VacationApproval, error)

	// ListApprovalsByRequest returns rows ordered ascending by approvalOrder.
	ListApprovalsByRequest(ctx context.Context, id RequestID) ([]VacationApproval, error)

	// ListPendingApprovalsByApprover returns PENDING rows assigned to the
	// approver whose request is still in progress.
	ListPendingApprovalsByApprover(ctx context.Context, approverID string) ([]VacationApproval, error)
}

type EnrollmentStore interface {
	SaveEnrollment(ctx context.Context, e *Enrollment) error
	UpdateEnrollment(ctx context.Context, e *Enrollment) error

	// GetEnrollment returns (nil, nil) when the pairing is unknown.
	GetEnrollment(ctx context.Context, userID string, policyID PolicyID) (*Enrollment, error)
	GetEnrollmentByID(ctx context.Context, id string) (*Enrollment, error)
	ListEnrollments(ctx context.Context) ([]Enrollment, error)
}

// =============================================================================
// STORE - Everything, plus the transaction boundary
// =============================================================================

// Store bundles all persistence operations with transactional execution.
type Store interface {
	PolicyStore
	GrantStore
	UsageStore
	ApprovalStore
	EnrollmentStore

	// WithTx executes fn against a transactional view of the store.
	// If fn returns an error the transaction is rolled back and nothing
	// written inside fn survives.
	WithTx(ctx context.Context, fn func(Store) error) error
}
