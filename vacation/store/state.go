package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// STATE - Unlocked record operations
// =============================================================================

// Records are held by value; save and update copy in, reads copy out, so
// callers never alias live state.

func (s *state) SavePolicy(_ context.Context, p *vacation.VacationPolicy) error {
	for i := range s.policies {
		if s.policies[i].ID == p.ID {
			return fmt.Errorf("policy %s already exists", p.ID)
		}
	}
	s.policies = append(s.policies, *p)
	return nil
}

func (s *state) UpdatePolicy(_ context.Context, p *vacation.VacationPolicy) error {
	for i := range s.policies {
		if s.policies[i].ID == p.ID {
			s.policies[i] = *p
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "policy", ID: string(p.ID)}
}

func (s *state) GetPolicy(_ context.Context, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	for i := range s.policies {
		if s.policies[i].ID == id {
			p := s.policies[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *state) GetPolicyByName(_ context.Context, name string) (*vacation.VacationPolicy, error) {
	for i := range s.policies {
		if s.policies[i].Name == name && !s.policies[i].Deleted {
			p := s.policies[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *state) ListPolicies(_ context.Context) ([]vacation.VacationPolicy, error) {
	var out []vacation.VacationPolicy
	for i := range s.policies {
		if !s.policies[i].Deleted {
			out = append(out, s.policies[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *state) SaveGrant(_ context.Context, g *vacation.VacationGrant) error {
	for i := range s.grants {
		if s.grants[i].ID == g.ID {
			return fmt.Errorf("grant %s already exists", g.ID)
		}
	}
	s.grants = append(s.grants, *g)
	return nil
}

func (s *state) UpdateGrant(_ context.Context, g *vacation.VacationGrant) error {
	for i := range s.grants {
		if s.grants[i].ID == g.ID {
			s.grants[i] = *g
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "grant", ID: string(g.ID)}
}

func (s *state) GetGrant(_ context.Context, id vacation.GrantID) (*vacation.VacationGrant, error) {
	for i := range s.grants {
		if s.grants[i].ID == id {
			g := s.grants[i]
			return &g, nil
		}
	}
	return nil, nil
}

func (s *state) ListGrantsByUser(_ context.Context, userID string) ([]vacation.VacationGrant, error) {
	var out []vacation.VacationGrant
	for i := range s.grants {
		g := &s.grants[i]
		if g.UserID == userID && !g.Deleted {
			out = append(out, *g)
		}
	}
	sortGrantsForAllocation(out)
	return out, nil
}

func (s *state) ListEligibleGrants(_ context.Context, userID, vacationType string, coverStart vacation.Date) ([]vacation.VacationGrant, error) {
	var out []vacation.VacationGrant
	for i := range s.grants {
		g := &s.grants[i]
		if g.UserID != userID || g.VacationType != vacationType || g.Deleted {
			continue
		}
		if g.ExpiryDate.Before(coverStart) || !g.RemainTime.IsPositive() {
			continue
		}
		out = append(out, *g)
	}
	sortGrantsForAllocation(out)
	return out, nil
}

// sortGrantsForAllocation orders ascending by (expiryDate, grantDate, id).
func sortGrantsForAllocation(grants []vacation.VacationGrant) {
	sort.Slice(grants, func(i, j int) bool {
		a, b := &grants[i], &grants[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.GrantDate.Equal(b.GrantDate) {
			return a.GrantDate.Before(b.GrantDate)
		}
		return a.ID < b.ID
	})
}

func (s *state) SaveUsage(_ context.Context, u *vacation.VacationUsage) error {
	for i := range s.usages {
		if s.usages[i].ID == u.ID {
			return fmt.Errorf("usage %s already exists", u.ID)
		}
	}
	s.usages = append(s.usages, *u)
	return nil
}

func (s *state) UpdateUsage(_ context.Context, u *vacation.VacationUsage) error {
	for i := range s.usages {
		if s.usages[i].ID == u.ID {
			s.usages[i] = *u
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "usage", ID: string(u.ID)}
}

func (s *state) GetUsage(_ context.Context, id vacation.UsageID) (*vacation.VacationUsage, error) {
	for i := range s.usages {
		if s.usages[i].ID == id {
			u := s.usages[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *state) ListUsagesByUser(_ context.Context, userID string) ([]vacation.VacationUsage, error) {
	var out []vacation.VacationUsage
	for i := range s.usages {
		u := &s.usages[i]
		if u.UserID == userID && !u.Deleted {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *state) SaveDeduction(_ context.Context, d *vacation.UsageDeduction) error {
	s.deductions = append(s.deductions, *d)
	return nil
}

func (s *state) UpdateDeduction(_ context.Context, d *vacation.UsageDeduction) error {
	for i := range s.deductions {
		if s.deductions[i].ID == d.ID {
			s.deductions[i] = *d
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "deduction", ID: string(d.ID)}
}

func (s *state) ListDeductionsByUsage(_ context.Context, id vacation.UsageID) ([]vacation.UsageDeduction, error) {
	var out []vacation.UsageDeduction
	for i := range s.deductions {
		d := &s.deductions[i]
		if d.UsageID == id && !d.Deleted {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *state) ListDeductionsByGrant(_ context.Context, id vacation.GrantID) ([]vacation.UsageDeduction, error) {
	var out []vacation.UsageDeduction
	for i := range s.deductions {
		d := &s.deductions[i]
		if d.GrantID == id && !d.Deleted {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *state) SaveRequest(_ context.Context, r *vacation.GrantRequest) error {
	for i := range s.requests {
		if s.requests[i].ID == r.ID {
			return fmt.Errorf("request %s already exists", r.ID)
		}
	}
	s.requests = append(s.requests, *r)
	return nil
}

func (s *state) UpdateRequest(_ context.Context, r *vacation.GrantRequest) error {
	for i := range s.requests {
		if s.requests[i].ID == r.ID {
			s.requests[i] = *r
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "request", ID: string(r.ID)}
}

func (s *state) GetRequest(_ context.Context, id vacation.RequestID) (*vacation.GrantRequest, error) {
	for i := range s.requests {
		if s.requests[i].ID == id {
			r := s.requests[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (s *state) ListRequestsByUser(_ context.Context, userID string) ([]vacation.GrantRequest, error) {
	var out []vacation.GrantRequest
	for i := range s.requests {
		if s.requests[i].UserID == userID {
			out = append(out, s.requests[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *state) SaveApproval(_ context.Context, a *vacation.VacationApproval) error {
	for i := range s.approvals {
		row := &s.approvals[i]
		if row.ID == a.ID {
			return fmt.Errorf("approval %s already exists", a.ID)
		}
		if row.RequestID == a.RequestID && row.ApprovalOrder == a.ApprovalOrder {
			return fmt.Errorf("approval order %d already taken for request %s", a.ApprovalOrder, a.RequestID)
		}
	}
	s.approvals = append(s.approvals, *a)
	return nil
}

func (s *state) UpdateApproval(_ context.Context, a *vacation.VacationApproval) error {
	for i := range s.approvals {
		if s.approvals[i].ID == a.ID {
			s.approvals[i] = *a
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "approval", ID: string(a.ID)}
}

func (s *state) GetApproval(_ context.Context, id vacation.ApprovalID) (*vacation.VacationApproval, error) {
	for i := range s.approvals {
		if s.approvals[i].ID == id {
			a := s.approvals[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (s *state) ListApprovalsByRequest(_ context.Context, id vacation.RequestID) ([]vacation.VacationApproval, error) {
	var out []vacation.VacationApproval
	for i := range s.approvals {
		a := &s.approvals[i]
		if a.RequestID == id && !a.Deleted {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApprovalOrder < out[j].ApprovalOrder })
	return out, nil
}

func (s *state) ListPendingApprovalsByApprover(_ context.Context, approverID string) ([]vacation.VacationApproval, error) {
	inProgress := make(map[vacation.RequestID]bool)
	for i := range s.requests {
		if s.requests[i].Status == vacation.RequestInProgress {
			inProgress[s.requests[i].ID] = true
		}
	}
	var out []vacation.VacationApproval
	for i := range s.approvals {
		a := &s.approvals[i]
		if a.ApproverID == approverID && a.Status == vacation.ApprovalPending && inProgress[a.RequestID] && !a.Deleted {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *state) SaveEnrollment(_ context.Context, e *vacation.Enrollment) error {
	for i := range s.enrollments {
		en := &s.enrollments[i]
		if en.ID == e.ID {
			return fmt.Errorf("enrollment %s already exists", e.ID)
		}
		if en.UserID == e.UserID && en.PolicyID == e.PolicyID && !en.Deleted {
			return fmt.Errorf("user %s is already enrolled in policy %s", e.UserID, e.PolicyID)
		}
	}
	s.enrollments = append(s.enrollments, *e)
	return nil
}

func (s *state) UpdateEnrollment(_ context.Context, e *vacation.Enrollment) error {
	for i := range s.enrollments {
		if s.enrollments[i].ID == e.ID {
			s.enrollments[i] = *e
			return nil
		}
	}
	return &vacation.NotFoundError{Kind: "enrollment", ID: e.ID}
}

func (s *state) GetEnrollment(_ context.Context, userID string, policyID vacation.PolicyID) (*vacation.Enrollment, error) {
	for i := range s.enrollments {
		en := &s.enrollments[i]
		if en.UserID == userID && en.PolicyID == policyID {
			e := *en
			return &e, nil
		}
	}
	return nil, nil
}

func (s *state) GetEnrollmentByID(_ context.Context, id string) (*vacation.Enrollment, error) {
	for i := range s.enrollments {
		if s.enrollments[i].ID == id {
			e := s.enrollments[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (s *state) ListEnrollments(_ context.Context) ([]vacation.Enrollment, error) {
	var out []vacation.Enrollment
	for i := range s.enrollments {
		if !s.enrollments[i].Deleted {
			out = append(out, s.enrollments[i])
		}
	}
	return out, nil
}
