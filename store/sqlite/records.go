package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlashr/vacation-engine/vacation"
)

// The record operations are written once against querier and shared by the
// locked *Store facade and the in-transaction txStore view.

// =============================================================================
// POLICIES
// =============================================================================

const policyColumns = `id, name, description, vacation_type, grant_method, flexible_grant,
	grant_time, minute_grant, approval_required_count, effective_type, expiration_type,
	repeat_unit, repeat_interval, specific_month, specific_day, first_grant_date,
	recurring, max_grant_count, can_delete, deleted, created_at`

func savePolicy(ctx context.Context, q querier, p *vacation.VacationPolicy) error {
	query := `
		INSERT INTO policies (` + policyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var firstGrantDate sql.NullString
	if !p.FirstGrantDate.IsZero() {
		firstGrantDate = sql.NullString{String: formatDate(p.FirstGrantDate), Valid: true}
	}

	_, err := q.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.VacationType, p.GrantMethod, p.FlexibleGrant,
		formatAmountPtr(p.GrantTime), p.MinuteGrant, p.ApprovalRequiredCount,
		string(p.EffectiveType), string(p.ExpirationType),
		string(p.RepeatUnit), p.RepeatInterval, nullInt(p.SpecificMonth), nullInt(p.SpecificDay),
		firstGrantDate, p.Recurring, nullInt(p.MaxGrantCount), p.CanDelete, p.Deleted,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

func updatePolicy(ctx context.Context, q querier, p *vacation.VacationPolicy) error {
	query := `
		UPDATE policies SET
			name = ?, description = ?, grant_time = ?, deleted = ?
		WHERE id = ?
	`

	res, err := q.ExecContext(ctx, query,
		p.Name, p.Description, formatAmountPtr(p.GrantTime), p.Deleted, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "policy", ID: string(p.ID)}
	}
	return nil
}

func scanPolicy(scan func(...any) error) (*vacation.VacationPolicy, error) {
	var (
		p              vacation.VacationPolicy
		description    sql.NullString
		grantTime      sql.NullString
		effectiveType  sql.NullString
		expirationType sql.NullString
		repeatUnit     sql.NullString
		specificMonth  sql.NullInt64
		specificDay    sql.NullInt64
		firstGrantDate sql.NullString
		maxGrantCount  sql.NullInt64
		createdAt      string
	)

	err := scan(
		&p.ID, &p.Name, &description, &p.VacationType, &p.GrantMethod, &p.FlexibleGrant,
		&grantTime, &p.MinuteGrant, &p.ApprovalRequiredCount, &effectiveType, &expirationType,
		&repeatUnit, &p.RepeatInterval, &specificMonth, &specificDay, &firstGrantDate,
		&p.Recurring, &maxGrantCount, &p.CanDelete, &p.Deleted, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.GrantTime = parseAmountPtr(grantTime)
	p.EffectiveType = vacation.EffectiveType(effectiveType.String)
	p.ExpirationType = vacation.ExpirationType(expirationType.String)
	p.RepeatUnit = vacation.RepeatUnit(repeatUnit.String)
	p.SpecificMonth = intPtr(specificMonth)
	p.SpecificDay = intPtr(specificDay)
	if firstGrantDate.Valid && firstGrantDate.String != "" {
		p.FirstGrantDate = parseDate(firstGrantDate.String)
	}
	p.MaxGrantCount = intPtr(maxGrantCount)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func getPolicy(ctx context.Context, q querier, id vacation.PolicyID) (*vacation.VacationPolicy, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM policies WHERE id = ?", id)
	p, err := scanPolicy(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return p, nil
}

func getPolicyByName(ctx context.Context, q querier, name string) (*vacation.VacationPolicy, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM policies WHERE name = ? AND deleted = FALSE", name)
	p, err := scanPolicy(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return p, nil
}

func listPolicies(ctx context.Context, q querier) ([]vacation.VacationPolicy, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+policyColumns+" FROM policies WHERE deleted = FALSE ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []vacation.VacationPolicy
	for rows.Next() {
		p, err := scanPolicy(rows.Scan)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

// =============================================================================
// GRANTS
// =============================================================================

const grantColumns = `id, user_id, policy_id, description, vacation_type,
	grant_date, expiry_date, grant_time, remain_time, deleted, created_at`

func saveGrant(ctx context.Context, q querier, g *vacation.VacationGrant) error {
	query := `
		INSERT INTO grants (` + grantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var policyID sql.NullString
	if g.PolicyID != nil {
		policyID = sql.NullString{String: string(*g.PolicyID), Valid: true}
	}

	_, err := q.ExecContext(ctx, query,
		g.ID, g.UserID, policyID, g.Description, g.VacationType,
		formatDate(g.GrantDate), formatDate(g.ExpiryDate),
		g.GrantTime.String(), g.RemainTime.String(), g.Deleted,
		g.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save grant: %w", err)
	}
	return nil
}

func updateGrant(ctx context.Context, q querier, g *vacation.VacationGrant) error {
	res, err := q.ExecContext(ctx,
		"UPDATE grants SET remain_time = ?, description = ?, deleted = ? WHERE id = ?",
		g.RemainTime.String(), g.Description, g.Deleted, g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "grant", ID: string(g.ID)}
	}
	return nil
}

func scanGrant(scan func(...any) error) (*vacation.VacationGrant, error) {
	var (
		g           vacation.VacationGrant
		policyID    sql.NullString
		description sql.NullString
		grantDate   string
		expiryDate  string
		grantTime   string
		remainTime  string
		createdAt   string
	)

	err := scan(
		&g.ID, &g.UserID, &policyID, &description, &g.VacationType,
		&grantDate, &expiryDate, &grantTime, &remainTime, &g.Deleted, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if policyID.Valid {
		id := vacation.PolicyID(policyID.String)
		g.PolicyID = &id
	}
	g.Description = description.String
	g.GrantDate = parseDate(grantDate)
	g.ExpiryDate = parseDate(expiryDate)
	g.GrantTime = vacation.ParseAmount(grantTime)
	g.RemainTime = vacation.ParseAmount(remainTime)
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &g, nil
}

func getGrant(ctx context.Context, q querier, id vacation.GrantID) (*vacation.VacationGrant, error) {
	row := q.QueryRowContext(ctx, "SELECT "+grantColumns+" FROM grants WHERE id = ?", id)
	g, err := scanGrant(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load grant: %w", err)
	}
	return g, nil
}

func queryGrants(ctx context.Context, q querier, query string, args ...any) ([]vacation.VacationGrant, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []vacation.VacationGrant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

func listGrantsByUser(ctx context.Context, q querier, userID string) ([]vacation.VacationGrant, error) {
	query := `
		SELECT ` + grantColumns + ` FROM grants
		WHERE user_id = ? AND deleted = FALSE
		ORDER BY expiry_date ASC, grant_date ASC, id ASC
	`
	return queryGrants(ctx, q, query, userID)
}

func listEligibleGrants(ctx context.Context, q querier, userID, vacationType string, coverStart vacation.Date) ([]vacation.VacationGrant, error) {
	// Amounts are stored as decimal strings, so the remain_time > 0 cut is
	// applied in Go rather than SQL.
	query := `
		SELECT ` + grantColumns + ` FROM grants
		WHERE user_id = ? AND vacation_type = ? AND deleted = FALSE
		  AND expiry_date >= ?
		ORDER BY expiry_date ASC, grant_date ASC, id ASC
	`
	grants, err := queryGrants(ctx, q, query, userID, vacationType, formatDate(coverStart))
	if err != nil {
		return nil, err
	}

	out := grants[:0]
	for i := range grants {
		if grants[i].RemainTime.IsPositive() {
			out = append(out, grants[i])
		}
	}
	return out, nil
}

// =============================================================================
// USAGES & DEDUCTIONS
// =============================================================================

const usageColumns = `id, user_id, description, vacation_type, time_type,
	start_date, end_date, used_time, deleted, created_at`

func saveUsage(ctx context.Context, q querier, u *vacation.VacationUsage) error {
	query := `
		INSERT INTO usages (` + usageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		u.ID, u.UserID, u.Description, u.VacationType, string(u.TimeType),
		formatDate(u.StartDate), formatDate(u.EndDate), u.UsedTime.String(),
		u.Deleted, u.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save usage: %w", err)
	}
	return nil
}

func updateUsage(ctx context.Context, q querier, u *vacation.VacationUsage) error {
	res, err := q.ExecContext(ctx,
		"UPDATE usages SET description = ?, deleted = ? WHERE id = ?",
		u.Description, u.Deleted, u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update usage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "usage", ID: string(u.ID)}
	}
	return nil
}

func scanUsage(scan func(...any) error) (*vacation.VacationUsage, error) {
	var (
		u           vacation.VacationUsage
		description sql.NullString
		startDate   string
		endDate     string
		usedTime    string
		createdAt   string
	)

	err := scan(
		&u.ID, &u.UserID, &description, &u.VacationType, &u.TimeType,
		&startDate, &endDate, &usedTime, &u.Deleted, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	u.Description = description.String
	u.StartDate = parseDate(startDate)
	u.EndDate = parseDate(endDate)
	u.UsedTime = vacation.ParseAmount(usedTime)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

func getUsage(ctx context.Context, q querier, id vacation.UsageID) (*vacation.VacationUsage, error) {
	row := q.QueryRowContext(ctx, "SELECT "+usageColumns+" FROM usages WHERE id = ?", id)
	u, err := scanUsage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	return u, nil
}

func listUsagesByUser(ctx context.Context, q querier, userID string) ([]vacation.VacationUsage, error) {
	query := `
		SELECT ` + usageColumns + ` FROM usages
		WHERE user_id = ? AND deleted = FALSE
		ORDER BY start_date ASC
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []vacation.VacationUsage
	for rows.Next() {
		u, err := scanUsage(rows.Scan)
		if err != nil {
			return nil, err
		}
		usages = append(usages, *u)
	}
	return usages, rows.Err()
}

const deductionColumns = `id, usage_id, grant_id, deducted_time, deleted, created_at`

func saveDeduction(ctx context.Context, q querier, d *vacation.UsageDeduction) error {
	query := `
		INSERT INTO usage_deductions (` + deductionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		d.ID, d.UsageID, d.GrantID, d.DeductedTime.String(),
		d.Deleted, d.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save deduction: %w", err)
	}
	return nil
}

func updateDeduction(ctx context.Context, q querier, d *vacation.UsageDeduction) error {
	res, err := q.ExecContext(ctx,
		"UPDATE usage_deductions SET deleted = ? WHERE id = ?",
		d.Deleted, d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deduction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "deduction", ID: string(d.ID)}
	}
	return nil
}

func queryDeductions(ctx context.Context, q querier, query string, args ...any) ([]vacation.UsageDeduction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deductions []vacation.UsageDeduction
	for rows.Next() {
		var d vacation.UsageDeduction
		var deductedTime, createdAt string
		if err := rows.Scan(&d.ID, &d.UsageID, &d.GrantID, &deductedTime, &d.Deleted, &createdAt); err != nil {
			return nil, err
		}
		d.DeductedTime = vacation.ParseAmount(deductedTime)
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		deductions = append(deductions, d)
	}
	return deductions, rows.Err()
}

func listDeductionsByUsage(ctx context.Context, q querier, id vacation.UsageID) ([]vacation.UsageDeduction, error) {
	query := `
		SELECT ` + deductionColumns + ` FROM usage_deductions
		WHERE usage_id = ? AND deleted = FALSE
		ORDER BY created_at ASC, id ASC
	`
	return queryDeductions(ctx, q, query, id)
}

func listDeductionsByGrant(ctx context.Context, q querier, id vacation.GrantID) ([]vacation.UsageDeduction, error) {
	query := `
		SELECT ` + deductionColumns + ` FROM usage_deductions
		WHERE grant_id = ? AND deleted = FALSE
		ORDER BY created_at ASC, id ASC
	`
	return queryDeductions(ctx, q, query, id)
}

// =============================================================================
// REQUESTS & APPROVALS
// =============================================================================

const requestColumns = `id, user_id, policy_id, requested_amount, description, status, grant_id, created_at`

func saveRequest(ctx context.Context, q querier, r *vacation.GrantRequest) error {
	query := `
		INSERT INTO grant_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var grantID sql.NullString
	if r.GrantID != nil {
		grantID = sql.NullString{String: string(*r.GrantID), Valid: true}
	}

	_, err := q.ExecContext(ctx, query,
		r.ID, r.UserID, r.PolicyID, formatAmountPtr(r.RequestedAmount),
		r.Description, string(r.Status), grantID,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func updateRequest(ctx context.Context, q querier, r *vacation.GrantRequest) error {
	var grantID sql.NullString
	if r.GrantID != nil {
		grantID = sql.NullString{String: string(*r.GrantID), Valid: true}
	}

	res, err := q.ExecContext(ctx,
		"UPDATE grant_requests SET status = ?, grant_id = ? WHERE id = ?",
		string(r.Status), grantID, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "request", ID: string(r.ID)}
	}
	return nil
}

func scanRequest(scan func(...any) error) (*vacation.GrantRequest, error) {
	var (
		r               vacation.GrantRequest
		requestedAmount sql.NullString
		description     sql.NullString
		grantID         sql.NullString
		createdAt       string
	)

	err := scan(
		&r.ID, &r.UserID, &r.PolicyID, &requestedAmount,
		&description, &r.Status, &grantID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	r.RequestedAmount = parseAmountPtr(requestedAmount)
	r.Description = description.String
	if grantID.Valid {
		id := vacation.GrantID(grantID.String)
		r.GrantID = &id
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

func getRequest(ctx context.Context, q querier, id vacation.RequestID) (*vacation.GrantRequest, error) {
	row := q.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM grant_requests WHERE id = ?", id)
	r, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return r, nil
}

func listRequestsByUser(ctx context.Context, q querier, userID string) ([]vacation.GrantRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM grant_requests
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []vacation.GrantRequest
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

const approvalColumns = `id, request_id, approver_id, approval_order, status,
	approval_date, rejection_reason, deleted, created_at`

func saveApproval(ctx context.Context, q querier, a *vacation.VacationApproval) error {
	query := `
		INSERT INTO approvals (` + approvalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		a.ID, a.RequestID, a.ApproverID, a.ApprovalOrder, string(a.Status),
		nullTime(a.ApprovalDate), a.RejectionReason, a.Deleted,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save approval: %w", err)
	}
	return nil
}

func updateApproval(ctx context.Context, q querier, a *vacation.VacationApproval) error {
	res, err := q.ExecContext(ctx,
		"UPDATE approvals SET status = ?, approval_date = ?, rejection_reason = ?, deleted = ? WHERE id = ?",
		string(a.Status), nullTime(a.ApprovalDate), a.RejectionReason, a.Deleted, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "approval", ID: string(a.ID)}
	}
	return nil
}

func scanApproval(scan func(...any) error) (*vacation.VacationApproval, error) {
	var (
		a               vacation.VacationApproval
		approvalDate    sql.NullString
		rejectionReason sql.NullString
		createdAt       string
	)

	err := scan(
		&a.ID, &a.RequestID, &a.ApproverID, &a.ApprovalOrder, &a.Status,
		&approvalDate, &rejectionReason, &a.Deleted, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	a.ApprovalDate = timePtr(approvalDate)
	a.RejectionReason = rejectionReason.String
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func getApproval(ctx context.Context, q querier, id vacation.ApprovalID) (*vacation.VacationApproval, error) {
	row := q.QueryRowContext(ctx, "SELECT "+approvalColumns+" FROM approvals WHERE id = ?", id)
	a, err := scanApproval(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load approval: %w", err)
	}
	return a, nil
}

func queryApprovals(ctx context.Context, q querier, query string, args ...any) ([]vacation.VacationApproval, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []vacation.VacationApproval
	for rows.Next() {
		a, err := scanApproval(rows.Scan)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, *a)
	}
	return approvals, rows.Err()
}

func listApprovalsByRequest(ctx context.Context, q querier, id vacation.RequestID) ([]vacation.VacationApproval, error) {
	query := `
		SELECT ` + approvalColumns + ` FROM approvals
		WHERE request_id = ? AND deleted = FALSE
		ORDER BY approval_order ASC
	`
	return queryApprovals(ctx, q, query, id)
}

func listPendingApprovalsByApprover(ctx context.Context, q querier, approverID string) ([]vacation.VacationApproval, error) {
	query := `
		SELECT a.id, a.request_id, a.approver_id, a.approval_order, a.status,
		       a.approval_date, a.rejection_reason, a.deleted, a.created_at
		FROM approvals a
		JOIN grant_requests r ON r.id = a.request_id
		WHERE a.approver_id = ? AND a.status = ? AND a.deleted = FALSE
		  AND r.status = ?
		ORDER BY a.created_at ASC
	`
	return queryApprovals(ctx, q, query, approverID,
		string(vacation.ApprovalPending), string(vacation.RequestInProgress))
}

// =============================================================================
// ENROLLMENTS
// =============================================================================

const enrollmentColumns = `id, user_id, policy_id, last_grant_date, grant_count, deleted, created_at`

func saveEnrollment(ctx context.Context, q querier, e *vacation.Enrollment) error {
	query := `
		INSERT INTO enrollments (` + enrollmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		e.ID, e.UserID, e.PolicyID, formatDatePtr(e.LastGrantDate),
		e.GrantCount, e.Deleted, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save enrollment: %w", err)
	}
	return nil
}

func updateEnrollment(ctx context.Context, q querier, e *vacation.Enrollment) error {
	res, err := q.ExecContext(ctx,
		"UPDATE enrollments SET last_grant_date = ?, grant_count = ?, deleted = ? WHERE id = ?",
		formatDatePtr(e.LastGrantDate), e.GrantCount, e.Deleted, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &vacation.NotFoundError{Kind: "enrollment", ID: e.ID}
	}
	return nil
}

func scanEnrollment(scan func(...any) error) (*vacation.Enrollment, error) {
	var (
		e             vacation.Enrollment
		lastGrantDate sql.NullString
		createdAt     string
	)

	err := scan(&e.ID, &e.UserID, &e.PolicyID, &lastGrantDate, &e.GrantCount, &e.Deleted, &createdAt)
	if err != nil {
		return nil, err
	}

	e.LastGrantDate = parseDatePtr(lastGrantDate)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func getEnrollment(ctx context.Context, q querier, userID string, policyID vacation.PolicyID) (*vacation.Enrollment, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE user_id = ? AND policy_id = ? AND deleted = FALSE",
		userID, policyID)
	e, err := scanEnrollment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	return e, nil
}

func getEnrollmentByID(ctx context.Context, q querier, id string) (*vacation.Enrollment, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE id = ?", id)
	e, err := scanEnrollment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	return e, nil
}

func listEnrollments(ctx context.Context, q querier) ([]vacation.Enrollment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE deleted = FALSE ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []vacation.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows.Scan)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments, rows.Err()
}
