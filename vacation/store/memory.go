// Package store provides the in-memory Store implementation used by tests
// and local development.
package store

import (
	"context"
	"sync"

	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every record in plain slices. All access goes through a
// single mutex; WithTx snapshots the state and restores it when fn fails.
type Memory struct {
	mu sync.RWMutex
	st *state
}

type state struct {
	policies    []vacation.VacationPolicy
	grants      []vacation.VacationGrant
	usages      []vacation.VacationUsage
	deductions  []vacation.UsageDeduction
	requests    []vacation.GrantRequest
	approvals   []vacation.VacationApproval
	enrollments []vacation.Enrollment
}

func NewMemory() *Memory {
	return &Memory{st: &state{}}
}

// -----------------------------------------------------------------------------
// Locked facade
// -----------------------------------------------------------------------------

func (m *Memory) SavePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SavePolicy(ctx, p)
}

func (m *Memory) UpdatePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdatePolicy(ctx, p)
}

func (m *Memory) GetPolicy(ctx context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetPolicy(ctx, id)
}

func (m *Memory) GetPolicyByName(ctx context.Context, name string) (*vacation.VacationPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetPolicyByName(ctx, name)
}

func (m *Memory) ListPolicies(ctx context.Context) ([]vacation.VacationPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListPolicies(ctx)
}

func (m *Memory) SaveGrant(ctx context.Context, g *vacation.VacationGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveGrant(ctx, g)
}

func (m *Memory) UpdateGrant(ctx context.Context, g *vacation.VacationGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateGrant(ctx, g)
}

func (m *Memory) GetGrant(ctx context.Context, id vacation.GrantID) (*vacation.VacationGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetGrant(ctx, id)
}

func (m *Memory) ListGrantsByUser(ctx context.Context, userID string) ([]vacation.VacationGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListGrantsByUser(ctx, userID)
}

func (m *Memory) ListEligibleGrants(ctx context.Context, userID, vacationType string, coverStart vacation.Date) ([]vacation.VacationGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListEligibleGrants(ctx, userID, vacationType, coverStart)
}

func (m *Memory) SaveUsage(ctx context.Context, u *vacation.VacationUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveUsage(ctx, u)
}

func (m *Memory) UpdateUsage(ctx context.Context, u *vacation.VacationUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateUsage(ctx, u)
}

func (m *Memory) GetUsage(ctx context.Context, id vacation.UsageID) (*vacation.VacationUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetUsage(ctx, id)
}

func (m *Memory) ListUsagesByUser(ctx context.Context, userID string) ([]vacation.VacationUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListUsagesByUser(ctx, userID)
}

func (m *Memory) SaveDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveDeduction(ctx, d)
}

func (m *Memory) UpdateDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateDeduction(ctx, d)
}

func (m *Memory) ListDeductionsByUsage(ctx context.Context, id vacation.UsageID) ([]vacation.UsageDeduction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListDeductionsByUsage(ctx, id)
}

func (m *Memory) ListDeductionsByGrant(ctx context.Context, id vacation.GrantID) ([]vacation.UsageDeduction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListDeductionsByGrant(ctx, id)
}

func (m *Memory) SaveRequest(ctx context.Context, r *vacation.GrantRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveRequest(ctx, r)
}

func (m *Memory) UpdateRequest(ctx context.Context, r *vacation.GrantRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateRequest(ctx, r)
}

func (m *Memory) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.GrantRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetRequest(ctx, id)
}

func (m *Memory) ListRequestsByUser(ctx context.Context, userID string) ([]vacation.GrantRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListRequestsByUser(ctx, userID)
}

func (m *Memory) SaveApproval(ctx context.Context, a *vacation.VacationApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveApproval(ctx, a)
}

func (m *Memory) UpdateApproval(ctx context.Context, a *vacation.VacationApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateApproval(ctx, a)
}

func (m *Memory) GetApproval(ctx context.Context, id vacation.ApprovalID) (*vacation.VacationApproval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetApproval(ctx, id)
}

func (m *Memory) ListApprovalsByRequest(ctx context.Context, id vacation.RequestID) ([]vacation.VacationApproval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListApprovalsByRequest(ctx, id)
}

func (m *Memory) ListPendingApprovalsByApprover(ctx context.Context, approverID string) ([]vacation.VacationApproval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListPendingApprovalsByApprover(ctx, approverID)
}

func (m *Memory) SaveEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveEnrollment(ctx, e)
}

func (m *Memory) UpdateEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpdateEnrollment(ctx, e)
}

func (m *Memory) GetEnrollment(ctx context.Context, userID string, policyID vacation.PolicyID) (*vacation.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetEnrollment(ctx, userID, policyID)
}

func (m *Memory) GetEnrollmentByID(ctx context.Context, id string) (*vacation.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetEnrollmentByID(ctx, id)
}

func (m *Memory) ListEnrollments(ctx context.Context) ([]vacation.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListEnrollments(ctx)
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback
// =============================================================================

// WithTx executes fn against the live state under the write lock, with a
// snapshot taken first. If fn fails the snapshot is restored, discarding
// every write fn made.
func (m *Memory) WithTx(ctx context.Context, fn func(vacation.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(&txView{st: m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// txView exposes the unlocked state as a Store. The parent holds the write
// lock for the duration of the transaction.
type txView struct {
	st *state
}

func (tv *txView) WithTx(ctx context.Context, fn func(vacation.Store) error) error {
	// Already inside a transaction; run against the same view.
	return fn(tv)
}

func (s *state) clone() *state {
	return &state{
		policies:    append([]vacation.VacationPolicy{}, s.policies...),
		grants:      append([]vacation.VacationGrant{}, s.grants...),
		usages:      append([]vacation.VacationUsage{}, s.usages...),
		deductions:  append([]vacation.UsageDeduction{}, s.deductions...),
		requests:    append([]vacation.GrantRequest{}, s.requests...),
		approvals:   append([]vacation.VacationApproval{}, s.approvals...),
		enrollments: append([]vacation.Enrollment{}, s.enrollments...),
	}
}

// txView delegation.

func (tv *txView) SavePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	return tv.st.SavePolicy(ctx, p)
}
func (tv *txView) UpdatePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	return tv.st.UpdatePolicy(ctx, p)
}
func (tv *txView) GetPolicy(ctx context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	return tv.st.GetPolicy(ctx, id)
}
func (tv *txView) GetPolicyByName(ctx context.Context, name string) (*vacation.VacationPolicy, error) {
	return tv.st.GetPolicyByName(ctx, name)
}
func (tv *txView) ListPolicies(ctx context.Context) ([]vacation.VacationPolicy, error) {
	return tv.st.ListPolicies(ctx)
}
func (tv *txView) SaveGrant(ctx context.Context, g *vacation.VacationGrant) error {
	return tv.st.SaveGrant(ctx, g)
}
func (tv *txView) UpdateGrant(ctx context.Context, g *vacation.VacationGrant) error {
	return tv.st.UpdateGrant(ctx, g)
}
func (tv *txView) GetGrant(ctx context.Context, id vacation.GrantID) (*vacation.VacationGrant, error) {
	return tv.st.GetGrant(ctx, id)
}
func (tv *txView) ListGrantsByUser(ctx context.Context, userID string) ([]vacation.VacationGrant, error) {
	return tv.st.ListGrantsByUser(ctx, userID)
}
func (tv *txView) ListEligibleGrants(ctx context.Context, userID, vacationType string, coverStart vacation.Date) ([]vacation.VacationGrant, error) {
	return tv.st.ListEligibleGrants(ctx, userID, vacationType, coverStart)
}
func (tv *txView) SaveUsage(ctx context.Context, u *vacation.VacationUsage) error {
	return tv.st.SaveUsage(ctx, u)
}
func (tv *txView) UpdateUsage(ctx context.Context, u *vacation.VacationUsage) error {
	return tv.st.UpdateUsage(ctx, u)
}
func (tv *txView) GetUsage(ctx context.Context, id vacation.UsageID) (*vacation.VacationUsage, error) {
	return tv.st.GetUsage(ctx, id)
}
func (tv *txView) ListUsagesByUser(ctx context.Context, userID string) ([]vacation.VacationUsage, error) {
	return tv.st.ListUsagesByUser(ctx, userID)
}
func (tv *txView) SaveDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	return tv.st.SaveDeduction(ctx, d)
}
func (tv *txView) UpdateDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	return tv.st.UpdateDeduction(ctx, d)
}
func (tv *txView) ListDeductionsByUsage(ctx context.Context, id vacation.UsageID) ([]vacation.UsageDeduction, error) {
	return tv.st.ListDeductionsByUsage(ctx, id)
}
func (tv *txView) ListDeductionsByGrant(ctx context.Context, id vacation.GrantID) ([]vacation.UsageDeduction, error) {
	return tv.st.ListDeductionsByGrant(ctx, id)
}
func (tv *txView) SaveRequest(ctx context.Context, r *vacation.GrantRequest) error {
	return tv.st.SaveRequest(ctx, r)
}
func (tv *txView) UpdateRequest(ctx context.Context, r *vacation.GrantRequest) error {
	return tv.st.UpdateRequest(ctx, r)
}
func (tv *txView) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.GrantRequest, error) {
	return tv.st.GetRequest(ctx, id)
}
func (tv *txView) ListRequestsByUser(ctx context.Context, userID string) ([]vacation.GrantRequest, error) {
	return tv.st.ListRequestsByUser(ctx, userID)
}
func (tv *txView) SaveApproval(ctx context.Context, a *vacation.VacationApproval) error {
	return tv.st.SaveApproval(ctx, a)
}
func (tv *txView) UpdateApproval(ctx context.Context, a *vacation.VacationApproval) error {
	return tv.st.UpdateApproval(ctx, a)
}
func (tv *txView) GetApproval(ctx context.Context, id vacation.ApprovalID) (*vacation.VacationApproval, error) {
	return tv.st.GetApproval(ctx, id)
}
func (tv *txView) ListApprovalsByRequest(ctx context.Context, id vacation.RequestID) ([]vacation.VacationApproval, error) {
	return tv.st.ListApprovalsByRequest(ctx, id)
}
func (tv *txView) ListPendingApprovalsByApprover(ctx context.Context, approverID string) ([]vacation.VacationApproval, error) {
	return tv.st.ListPendingApprovalsByApprover(ctx, approverID)
}
func (tv *txView) SaveEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	return tv.st.SaveEnrollment(ctx, e)
}
func (tv *txView) UpdateEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	return tv.st.UpdateEnrollment(ctx, e)
}
func (tv *txView) GetEnrollment(ctx context.Context, userID string, policyID vacation.PolicyID) (*vacation.Enrollment, error) {
	return tv.st.GetEnrollment(ctx, userID, policyID)
}
func (tv *txView) GetEnrollmentByID(ctx context.Context, id string) (*vacation.Enrollment, error) {
	return tv.st.GetEnrollmentByID(ctx, id)
}
func (tv *txView) ListEnrollments(ctx context.Context) ([]vacation.Enrollment, error) {
	return tv.st.ListEnrollments(ctx)
}
