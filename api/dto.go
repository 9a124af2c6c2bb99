/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Format-level checks (date parsing, amount parsing) happen while decoding
  here; domain rules stay in the vacation package.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/atlashr/vacation-engine/vacation"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UserDTO represents a directory user.
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// CreateUserRequest is the request to register a user.
type CreateUserRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PolicyDTO represents a policy in API responses.
type PolicyDTO struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Description           string  `json:"description,omitempty"`
	VacationType          string  `json:"vacation_type"`
	GrantMethod           string  `json:"grant_method"`
	FlexibleGrant         bool    `json:"flexible_grant"`
	GrantTime             *string `json:"grant_time,omitempty"`
	MinuteGrant           bool    `json:"minute_grant"`
	ApprovalRequiredCount int     `json:"approval_required_count,omitempty"`
	EffectiveType         string  `json:"effective_type,omitempty"`
	ExpirationType        string  `json:"expiration_type,omitempty"`
	RepeatUnit            string  `json:"repeat_unit,omitempty"`
	RepeatInterval        int     `json:"repeat_interval,omitempty"`
	SpecificMonth         *int    `json:"specific_month,omitempty"`
	SpecificDay           *int    `json:"specific_day,omitempty"`
	FirstGrantDate        string  `json:"first_grant_date,omitempty"`
	Recurring             bool    `json:"recurring"`
	MaxGrantCount         *int    `json:"max_grant_count,omitempty"`
	CanDelete             bool    `json:"can_delete"`
	CreatedAt             string  `json:"created_at,omitempty"`
}

// CreatePolicyRequest is the request to register a policy.
type CreatePolicyRequest struct {
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	VacationType          string  `json:"vacation_type"`
	GrantMethod           string  `json:"grant_method"`
	FlexibleGrant         bool    `json:"flexible_grant"`
	GrantTime             *string `json:"grant_time"`
	MinuteGrant           bool    `json:"minute_grant"`
	ApprovalRequiredCount int     `json:"approval_required_count"`
	EffectiveType         string  `json:"effective_type"`
	ExpirationType        string  `json:"expiration_type"`
	RepeatUnit            string  `json:"repeat_unit"`
	RepeatInterval        int     `json:"repeat_interval"`
	SpecificMonth         *int    `json:"specific_month"`
	SpecificDay           *int    `json:"specific_day"`
	FirstGrantDate        string  `json:"first_grant_date"`
	Recurring             bool    `json:"recurring"`
	MaxGrantCount         *int    `json:"max_grant_count"`
	CanDelete             *bool   `json:"can_delete"`
}

// GrantDTO represents a ledger credit.
type GrantDTO struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	PolicyID     string `json:"policy_id,omitempty"`
	Description  string `json:"description,omitempty"`
	VacationType string `json:"vacation_type"`
	GrantDate    string `json:"grant_date"`
	ExpiryDate   string `json:"expiry_date"`
	GrantTime    string `json:"grant_time"`
	RemainTime   string `json:"remain_time"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// CreateGrantRequest is the request for a manual grant. Policy-backed
// grants send policy_id (+ amount when flexible); ad-hoc grants send
// vacation_type, dates and amount.
type CreateGrantRequest struct {
	UserID       string  `json:"user_id"`
	PolicyID     *string `json:"policy_id"`
	Description  string  `json:"description"`
	VacationType string  `json:"vacation_type"`
	GrantDate    string  `json:"grant_date"`
	ExpiryDate   string  `json:"expiry_date"`
	Amount       *string `json:"amount"`
}

// BalanceDTO is a per-type balance rollup.
type BalanceDTO struct {
	UserID       string `json:"user_id"`
	VacationType string `json:"vacation_type"`
	Granted      string `json:"granted"`
	Remaining    string `json:"remaining"`
	Usable       string `json:"usable"`
}

// UsageDTO represents a consumption event.
type UsageDTO struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Description  string `json:"description,omitempty"`
	VacationType string `json:"vacation_type"`
	TimeType     string `json:"time_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	UsedTime     string `json:"used_time"`
}

// CreateUsageRequest is the request to consume balance. used_time is a
// decimal day amount; alternatively units can be sent and the server
// converts via time_type.
type CreateUsageRequest struct {
	UserID       string  `json:"user_id"`
	Description  string  `json:"description"`
	VacationType string  `json:"vacation_type"`
	TimeType     string  `json:"time_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	UsedTime     *string `json:"used_time"`
	Units        *int    `json:"units"`
}

// RequestDTO represents an on-request grant request.
type RequestDTO struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	PolicyID        string        `json:"policy_id"`
	RequestedAmount *string       `json:"requested_amount,omitempty"`
	Description     string        `json:"description,omitempty"`
	Status          string        `json:"status"`
	GrantID         *string       `json:"grant_id,omitempty"`
	Approvals       []ApprovalDTO `json:"approvals,omitempty"`
	CreatedAt       string        `json:"created_at,omitempty"`
}

// SubmitRequestRequest is the request to open an approval chain.
type SubmitRequestRequest struct {
	UserID      string   `json:"user_id"`
	PolicyID    string   `json:"policy_id"`
	Amount      *string  `json:"amount"`
	Description string   `json:"description"`
	ApproverIDs []string `json:"approver_ids"`
}

// ApprovalDTO represents one approver slot.
type ApprovalDTO struct {
	ID              string `json:"id"`
	RequestID       string `json:"request_id"`
	ApproverID      string `json:"approver_id"`
	ApprovalOrder   int    `json:"approval_order"`
	Status          string `json:"status"`
	ApprovalDate    string `json:"approval_date,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ApprovalActionRequest identifies the acting approver.
type ApprovalActionRequest struct {
	ByUser string `json:"by_user"`
	Reason string `json:"reason"`
}

// EnrollmentDTO represents a user x repeat-policy pairing.
type EnrollmentDTO struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	PolicyID      string `json:"policy_id"`
	LastGrantDate string `json:"last_grant_date,omitempty"`
	GrantCount    int    `json:"grant_count"`
}

// CreateEnrollmentRequest subscribes a user to a repeat policy.
type CreateEnrollmentRequest struct {
	UserID   string `json:"user_id"`
	PolicyID string `json:"policy_id"`
}

// IssueGrantsResponse summarizes a scheduled issuance pass.
type IssueGrantsResponse struct {
	AsOf   string `json:"as_of"`
	Issued int    `json:"issued"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toPolicyDTO(p *vacation.VacationPolicy) PolicyDTO {
	dto := PolicyDTO{
		ID:                    string(p.ID),
		Name:                  p.Name,
		Description:           p.Description,
		VacationType:          p.VacationType,
		GrantMethod:           string(p.GrantMethod),
		FlexibleGrant:         p.FlexibleGrant,
		MinuteGrant:           p.MinuteGrant,
		ApprovalRequiredCount: p.ApprovalRequiredCount,
		EffectiveType:         string(p.EffectiveType),
		ExpirationType:        string(p.ExpirationType),
		RepeatUnit:            string(p.RepeatUnit),
		RepeatInterval:        p.RepeatInterval,
		SpecificMonth:         p.SpecificMonth,
		SpecificDay:           p.SpecificDay,
		Recurring:             p.Recurring,
		MaxGrantCount:         p.MaxGrantCount,
		CanDelete:             p.CanDelete,
		CreatedAt:             p.CreatedAt.Format(time.RFC3339),
	}
	if p.GrantTime != nil {
		s := p.GrantTime.String()
		dto.GrantTime = &s
	}
	if !p.FirstGrantDate.IsZero() {
		dto.FirstGrantDate = p.FirstGrantDate.String()
	}
	return dto
}

func toGrantDTO(g *vacation.VacationGrant) GrantDTO {
	dto := GrantDTO{
		ID:           string(g.ID),
		UserID:       g.UserID,
		Description:  g.Description,
		VacationType: g.VacationType,
		GrantDate:    g.GrantDate.String(),
		ExpiryDate:   g.ExpiryDate.String(),
		GrantTime:    g.GrantTime.String(),
		RemainTime:   g.RemainTime.String(),
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
	}
	if g.PolicyID != nil {
		dto.PolicyID = string(*g.PolicyID)
	}
	return dto
}

func toBalanceDTO(b vacation.BalanceSummary) BalanceDTO {
	return BalanceDTO{
		UserID:       b.UserID,
		VacationType: b.VacationType,
		Granted:      b.Granted.String(),
		Remaining:    b.Remaining.String(),
		Usable:       b.Usable.String(),
	}
}

func toUsageDTO(u *vacation.VacationUsage) UsageDTO {
	return UsageDTO{
		ID:           string(u.ID),
		UserID:       u.UserID,
		Description:  u.Description,
		VacationType: u.VacationType,
		TimeType:     string(u.TimeType),
		StartDate:    u.StartDate.String(),
		EndDate:      u.EndDate.String(),
		UsedTime:     u.UsedTime.String(),
	}
}

func toRequestDTO(r *vacation.GrantRequest, approvals []vacation.VacationApproval) RequestDTO {
	dto := RequestDTO{
		ID:          string(r.ID),
		UserID:      r.UserID,
		PolicyID:    string(r.PolicyID),
		Description: r.Description,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.RequestedAmount != nil {
		s := r.RequestedAmount.String()
		dto.RequestedAmount = &s
	}
	if r.GrantID != nil {
		s := string(*r.GrantID)
		dto.GrantID = &s
	}
	for i := range approvals {
		dto.Approvals = append(dto.Approvals, toApprovalDTO(&approvals[i]))
	}
	return dto
}

func toApprovalDTO(a *vacation.VacationApproval) ApprovalDTO {
	dto := ApprovalDTO{
		ID:              string(a.ID),
		RequestID:       string(a.RequestID),
		ApproverID:      a.ApproverID,
		ApprovalOrder:   a.ApprovalOrder,
		Status:          string(a.Status),
		RejectionReason: a.RejectionReason,
	}
	if a.ApprovalDate != nil {
		dto.ApprovalDate = a.ApprovalDate.Format(time.RFC3339)
	}
	return dto
}

func toEnrollmentDTO(e *vacation.Enrollment) EnrollmentDTO {
	dto := EnrollmentDTO{
		ID:         e.ID,
		UserID:     e.UserID,
		PolicyID:   string(e.PolicyID),
		GrantCount: e.GrantCount,
	}
	if e.LastGrantDate != nil {
		dto.LastGrantDate = e.LastGrantDate.String()
	}
	return dto
}
