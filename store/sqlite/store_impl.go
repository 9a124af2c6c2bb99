package sqlite

import (
	"context"

	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// LOCKED FACADE (vacation.Store on *Store)
// =============================================================================

func (s *Store) SavePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePolicy(ctx, s.db, p)
}

func (s *Store) UpdatePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePolicy(ctx, s.db, p)
}

func (s *Store) GetPolicy(ctx context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPolicy(ctx, s.db, id)
}

func (s *Store) GetPolicyByName(ctx context.Context, name string) (*vacation.VacationPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPolicyByName(ctx, s.db, name)
}

func (s *Store) ListPolicies(ctx context.Context) ([]vacation.VacationPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPolicies(ctx, s.db)
}

func (s *Store) SaveGrant(ctx context.Context, g *vacation.VacationGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveGrant(ctx, s.db, g)
}

func (s *Store) UpdateGrant(ctx context.Context, g *vacation.VacationGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateGrant(ctx, s.db, g)
}

func (s *Store) GetGrant(ctx context.Context, id vacation.GrantID) (*vacation.VacationGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getGrant(ctx, s.db, id)
}

func (s *Store) ListGrantsByUser(ctx context.Context, userID string) ([]vacation.VacationGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listGrantsByUser(ctx, s.db, userID)
}

func (s *Store) ListEligibleGrants(ctx context.Context, userID, vacationType string, coverStart vacation.Date) ([]vacation.VacationGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEligibleGrants(ctx, s.db, userID, vacationType, coverStart)
}

func (s *Store) SaveUsage(ctx context.Context, u *vacation.VacationUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUsage(ctx, s.db, u)
}

func (s *Store) UpdateUsage(ctx context.Context, u *vacation.VacationUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateUsage(ctx, s.db, u)
}

func (s *Store) GetUsage(ctx context.Context, id vacation.UsageID) (*vacation.VacationUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUsage(ctx, s.db, id)
}

func (s *Store) ListUsagesByUser(ctx context.Context, userID string) ([]vacation.VacationUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsagesByUser(ctx, s.db, userID)
}

func (s *Store) SaveDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveDeduction(ctx, s.db, d)
}

func (s *Store) UpdateDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDeduction(ctx, s.db, d)
}

func (s *Store) ListDeductionsByUsage(ctx context.Context, id vacation.UsageID) ([]vacation.UsageDeduction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDeductionsByUsage(ctx, s.db, id)
}

func (s *Store) ListDeductionsByGrant(ctx context.Context, id vacation.GrantID) ([]vacation.UsageDeduction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDeductionsByGrant(ctx, s.db, id)
}

func (s *Store) SaveRequest(ctx context.Context, r *vacation.GrantRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

func (s *Store) UpdateRequest(ctx context.Context, r *vacation.GrantRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequest(ctx, s.db, r)
}

func (s *Store) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.GrantRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID string) ([]vacation.GrantRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequestsByUser(ctx, s.db, userID)
}

func (s *Store) SaveApproval(ctx context.Context, a *vacation.VacationApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveApproval(ctx, s.db, a)
}

func (s *Store) UpdateApproval(ctx context.Context, a *vacation.VacationApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateApproval(ctx, s.db, a)
}

func (s *Store) GetApproval(ctx context.Context, id vacation.ApprovalID) (*vacation.VacationApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getApproval(ctx, s.db, id)
}

func (s *Store) ListApprovalsByRequest(ctx context.Context, id vacation.RequestID) ([]vacation.VacationApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listApprovalsByRequest(ctx, s.db, id)
}

func (s *Store) ListPendingApprovalsByApprover(ctx context.Context, approverID string) ([]vacation.VacationApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPendingApprovalsByApprover(ctx, s.db, approverID)
}

func (s *Store) SaveEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEnrollment(ctx, s.db, e)
}

func (s *Store) UpdateEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateEnrollment(ctx, s.db, e)
}

func (s *Store) GetEnrollment(ctx context.Context, userID string, policyID vacation.PolicyID) (*vacation.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEnrollment(ctx, s.db, userID, policyID)
}

func (s *Store) GetEnrollmentByID(ctx context.Context, id string) (*vacation.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEnrollmentByID(ctx, s.db, id)
}

func (s *Store) ListEnrollments(ctx context.Context) ([]vacation.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEnrollments(ctx, s.db)
}

// =============================================================================
// TRANSACTION VIEW (vacation.Store on *txStore)
// =============================================================================

func (ts *txStore) SavePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	return savePolicy(ctx, ts.tx, p)
}

func (ts *txStore) UpdatePolicy(ctx context.Context, p *vacation.VacationPolicy) error {
	return updatePolicy(ctx, ts.tx, p)
}

func (ts *txStore) GetPolicy(ctx context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	return getPolicy(ctx, ts.tx, id)
}

func (ts *txStore) GetPolicyByName(ctx context.Context, name string) (*vacation.VacationPolicy, error) {
	return getPolicyByName(ctx, ts.tx, name)
}

func (ts *txStore) ListPolicies(ctx context.Context) ([]vacation.VacationPolicy, error) {
	return listPolicies(ctx, ts.tx)
}

func (ts *txStore) SaveGrant(ctx context.Context, g *vacation.VacationGrant) error {
	return saveGrant(ctx, ts.tx, g)
}

func (ts *txStore) UpdateGrant(ctx context.Context, g *vacation.VacationGrant) error {
	return updateGrant(ctx, ts.tx, g)
}

func (ts *txStore) GetGrant(ctx context.Context, id vacation.GrantID) (*vacation.VacationGrant, error) {
	return getGrant(ctx, ts.tx, id)
}

func (ts *txStore) ListGrantsByUser(ctx context.Context, userID string) ([]vacation.VacationGrant, error) {
	return listGrantsByUser(ctx, ts.tx, userID)
}

func (ts *txStore) ListEligibleGrants(ctx context.Context, userID, vacationType string, coverStart vacation.Date) ([]vacation.VacationGrant, error) {
	return listEligibleGrants(ctx, ts.tx, userID, vacationType, coverStart)
}

func (ts *txStore) SaveUsage(ctx context.Context, u *vacation.VacationUsage) error {
	return saveUsage(ctx, ts.tx, u)
}

func (ts *txStore) UpdateUsage(ctx context.Context, u *vacation.VacationUsage) error {
	return updateUsage(ctx, ts.tx, u)
}

func (ts *txStore) GetUsage(ctx context.Context, id vacation.UsageID) (*vacation.VacationUsage, error) {
	return getUsage(ctx, ts.tx, id)
}

func (ts *txStore) ListUsagesByUser(ctx context.Context, userID string) ([]vacation.VacationUsage, error) {
	return listUsagesByUser(ctx, ts.tx, userID)
}

func (ts *txStore) SaveDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	return saveDeduction(ctx, ts.tx, d)
}

func (ts *txStore) UpdateDeduction(ctx context.Context, d *vacation.UsageDeduction) error {
	return updateDeduction(ctx, ts.tx, d)
}

func (ts *txStore) ListDeductionsByUsage(ctx context.Context, id vacation.UsageID) ([]vacation.UsageDeduction, error) {
	return listDeductionsByUsage(ctx, ts.tx, id)
}

func (ts *txStore) ListDeductionsByGrant(ctx context.Context, id vacation.GrantID) ([]vacation.UsageDeduction, error) {
	return listDeductionsByGrant(ctx, ts.tx, id)
}

func (ts *txStore) SaveRequest(ctx context.Context, r *vacation.GrantRequest) error {
	return saveRequest(ctx, ts.tx, r)
}

func (ts *txStore) UpdateRequest(ctx context.Context, r *vacation.GrantRequest) error {
	return updateRequest(ctx, ts.tx, r)
}

func (ts *txStore) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.GrantRequest, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListRequestsByUser(ctx context.Context, userID string) ([]vacation.GrantRequest, error) {
	return listRequestsByUser(ctx, ts.tx, userID)
}

func (ts *txStore) SaveApproval(ctx context.Context, a *vacation.VacationApproval) error {
	return saveApproval(ctx, ts.tx, a)
}

func (ts *txStore) UpdateApproval(ctx context.Context, a *vacation.VacationApproval) error {
	return updateApproval(ctx, ts.tx, a)
}

func (ts *txStore) GetApproval(ctx context.Context, id vacation.ApprovalID) (*vacation.VacationApproval, error) {
	return getApproval(ctx, ts.tx, id)
}

func (ts *txStore) ListApprovalsByRequest(ctx context.Context, id vacation.RequestID) ([]vacation.VacationApproval, error) {
	return listApprovalsByRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListPendingApprovalsByApprover(ctx context.Context, approverID string) ([]vacation.VacationApproval, error) {
	return listPendingApprovalsByApprover(ctx, ts.tx, approverID)
}

func (ts *txStore) SaveEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	return saveEnrollment(ctx, ts.tx, e)
}

func (ts *txStore) UpdateEnrollment(ctx context.Context, e *vacation.Enrollment) error {
	return updateEnrollment(ctx, ts.tx, e)
}

func (ts *txStore) GetEnrollment(ctx context.Context, userID string, policyID vacation.PolicyID) (*vacation.Enrollment, error) {
	return getEnrollment(ctx, ts.tx, userID, policyID)
}

func (ts *txStore) GetEnrollmentByID(ctx context.Context, id string) (*vacation.Enrollment, error) {
	return getEnrollmentByID(ctx, ts.tx, id)
}

func (ts *txStore) ListEnrollments(ctx context.Context) ([]vacation.Enrollment, error) {
	return listEnrollments(ctx, ts.tx)
}
