/*
handlers.go - HTTP handlers for the vacation engine API

PURPOSE:
  Implements the HTTP endpoints. Each handler decodes its request body,
  calls into the engine, and maps domain errors to HTTP status codes:

    invalid value / insufficient balance  -> 400
    not found                             -> 404
    duplicate name / illegal state        -> 409
    anything else                         -> 500

SEE ALSO:
  - dto.go: Request/response types
  - server.go: Route registration
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atlashr/vacation-engine/store/sqlite"
	"github.com/atlashr/vacation-engine/vacation"
)

// Handler bundles the engine and its dependencies for HTTP serving.
type Handler struct {
	Engine *vacation.Engine
	Users  *sqlite.Store
	Logger *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(engine *vacation.Engine, users *sqlite.Store, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Users: users, Logger: logger}
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, vacation.ErrInvalidValue),
		errors.Is(err, vacation.ErrInsufficientBalance):
		status = http.StatusBadRequest
	case errors.Is(err, vacation.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, vacation.ErrDuplicateName),
		errors.Is(err, vacation.ErrIllegalState):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// parseDateField parses a required YYYY-MM-DD field.
func parseDateField(field, value string) (vacation.Date, error) {
	if value == "" {
		return vacation.Date{}, &vacation.InvalidValueError{Field: field, Reason: "must not be blank"}
	}
	d, err := vacation.ParseDate(value)
	if err != nil {
		return vacation.Date{}, &vacation.InvalidValueError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

func parseAmountPtr(field string, value *string) (*vacation.Amount, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	a := vacation.ParseAmount(*value)
	if !a.IsPositive() {
		return nil, &vacation.InvalidValueError{Field: field, Reason: "must be a positive decimal"}
	}
	return &a, nil
}

// =============================================================================
// USERS
// =============================================================================

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ID == "" || req.Name == "" {
		h.writeError(w, &vacation.InvalidValueError{Field: "id", Reason: "id and name are required"})
		return
	}
	u := sqlite.User{ID: req.ID, Name: req.Name, Email: req.Email, CreatedAt: h.Engine.Now()}
	if err := h.Users.SaveUser(r.Context(), u); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, UserDTO{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, UserDTO{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// POLICIES
// =============================================================================

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := vacation.PolicyInput{
		Name:                  req.Name,
		Description:           req.Description,
		VacationType:          req.VacationType,
		GrantMethod:           vacation.GrantMethod(req.GrantMethod),
		FlexibleGrant:         req.FlexibleGrant,
		MinuteGrant:           req.MinuteGrant,
		ApprovalRequiredCount: req.ApprovalRequiredCount,
		EffectiveType:         vacation.EffectiveType(req.EffectiveType),
		ExpirationType:        vacation.ExpirationType(req.ExpirationType),
		RepeatUnit:            vacation.RepeatUnit(req.RepeatUnit),
		RepeatInterval:        req.RepeatInterval,
		SpecificMonth:         req.SpecificMonth,
		SpecificDay:           req.SpecificDay,
		Recurring:             req.Recurring,
		MaxGrantCount:         req.MaxGrantCount,
		CanDelete:             true,
	}
	if req.CanDelete != nil {
		in.CanDelete = *req.CanDelete
	}
	amt, err := parseAmountPtr("grantTime", req.GrantTime)
	if err != nil {
		h.writeError(w, err)
		return
	}
	in.GrantTime = amt
	if req.FirstGrantDate != "" {
		d, err := parseDateField("firstGrantDate", req.FirstGrantDate)
		if err != nil {
			h.writeError(w, err)
			return
		}
		in.FirstGrantDate = d
	}
	id, err := h.Engine.RegisterPolicy(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.Engine.GetPolicy(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPolicyDTO(p))
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := vacation.PolicyID(chi.URLParam(r, "id"))
	p, err := h.Engine.GetPolicy(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Engine.ListPolicies(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]PolicyDTO, 0, len(policies))
	for i := range policies {
		dtos = append(dtos, toPolicyDTO(&policies[i]))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := vacation.PolicyID(chi.URLParam(r, "id"))
	if err := h.Engine.DeletePolicy(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GRANTS
// =============================================================================

func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	var req CreateGrantRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := vacation.ManualGrantInput{
		UserID:       req.UserID,
		Description:  req.Description,
		VacationType: req.VacationType,
	}
	if req.PolicyID != nil && *req.PolicyID != "" {
		pid := vacation.PolicyID(*req.PolicyID)
		in.PolicyID = &pid
	} else {
		gd, err := parseDateField("grantDate", req.GrantDate)
		if err != nil {
			h.writeError(w, err)
			return
		}
		ed, err := parseDateField("expiryDate", req.ExpiryDate)
		if err != nil {
			h.writeError(w, err)
			return
		}
		in.GrantDate, in.ExpiryDate = gd, ed
	}
	amt, err := parseAmountPtr("amount", req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	in.Amount = amt
	g, err := h.Engine.ManualGrant(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toGrantDTO(g))
}

func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	id := vacation.GrantID(chi.URLParam(r, "id"))
	if err := h.Engine.RevokeGrant(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUserGrants(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	grants, err := h.Engine.ListGrants(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]GrantDTO, 0, len(grants))
	for i := range grants {
		dtos = append(dtos, toGrantDTO(&grants[i]))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetUserBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	balances, err := h.Engine.Balances(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	typeFilter := r.URL.Query().Get("type")
	dtos := make([]BalanceDTO, 0, len(balances))
	for _, b := range balances {
		if typeFilter != "" && b.VacationType != typeFilter {
			continue
		}
		dtos = append(dtos, toBalanceDTO(b))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// USAGES
// =============================================================================

func (h *Handler) CreateUsage(w http.ResponseWriter, r *http.Request) {
	var req CreateUsageRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, err := parseDateField("startDate", req.StartDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	end, err := parseDateField("endDate", req.EndDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	timeType := vacation.TimeType(req.TimeType)
	var used vacation.Amount
	switch {
	case req.UsedTime != nil && *req.UsedTime != "":
		used = vacation.ParseAmount(*req.UsedTime)
	case req.Units != nil:
		used, err = vacation.ConvertToDays(timeType, *req.Units)
		if err != nil {
			h.writeError(w, err)
			return
		}
	default:
		h.writeError(w, &vacation.InvalidValueError{Field: "usedTime", Reason: "either used_time or units is required"})
		return
	}
	usage, err := h.Engine.RequestUsage(r.Context(), vacation.UsageInput{
		UserID:       req.UserID,
		Description:  req.Description,
		VacationType: req.VacationType,
		TimeType:     timeType,
		StartDate:    start,
		EndDate:      end,
		UsedTime:     used,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toUsageDTO(usage))
}

func (h *Handler) CancelUsage(w http.ResponseWriter, r *http.Request) {
	id := vacation.UsageID(chi.URLParam(r, "id"))
	if err := h.Engine.CancelUsage(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUserUsages(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	usages, err := h.Engine.ListUsages(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]UsageDTO, 0, len(usages))
	for i := range usages {
		dtos = append(dtos, toUsageDTO(&usages[i]))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// GRANT REQUESTS & APPROVALS
// =============================================================================

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestRequest
	if !h.decode(w, r, &req) {
		return
	}
	amt, err := parseAmountPtr("amount", req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	gr, err := h.Engine.SubmitGrantRequest(r.Context(), req.UserID,
		vacation.PolicyID(req.PolicyID), amt, req.Description, req.ApproverIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondRequest(w, r, http.StatusCreated, gr)
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var req ApprovalActionRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := vacation.ApprovalID(chi.URLParam(r, "id"))
	gr, err := h.Engine.Approve(r.Context(), id, req.ByUser)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondRequest(w, r, http.StatusOK, gr)
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var req ApprovalActionRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := vacation.ApprovalID(chi.URLParam(r, "id"))
	gr, err := h.Engine.Reject(r.Context(), id, req.ByUser, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondRequest(w, r, http.StatusOK, gr)
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	var req ApprovalActionRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := vacation.RequestID(chi.URLParam(r, "id"))
	if err := h.Engine.CancelRequest(r.Context(), id, req.ByUser); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := vacation.RequestID(chi.URLParam(r, "id"))
	gr, err := h.Engine.GetRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondRequest(w, r, http.StatusOK, gr)
}

func (h *Handler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	requests, err := h.Engine.ListRequests(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]RequestDTO, 0, len(requests))
	for i := range requests {
		dtos = append(dtos, toRequestDTO(&requests[i], nil))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	approverID := chi.URLParam(r, "id")
	approvals, err := h.Engine.PendingApprovals(r.Context(), approverID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]ApprovalDTO, 0, len(approvals))
	for i := range approvals {
		dtos = append(dtos, toApprovalDTO(&approvals[i]))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// respondRequest writes a request with its full approval chain attached.
func (h *Handler) respondRequest(w http.ResponseWriter, r *http.Request, status int, gr *vacation.GrantRequest) {
	approvals, err := h.Engine.RequestApprovals(r.Context(), gr.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, status, toRequestDTO(gr, approvals))
}

// =============================================================================
// ENROLLMENTS & SCHEDULED ISSUANCE
// =============================================================================

func (h *Handler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req CreateEnrollmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.Engine.EnrollUser(r.Context(), req.UserID, vacation.PolicyID(req.PolicyID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toEnrollmentDTO(e))
}

func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.Engine.ListEnrollments(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]EnrollmentDTO, 0, len(enrollments))
	for i := range enrollments {
		dtos = append(dtos, toEnrollmentDTO(&enrollments[i]))
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// IssueGrants runs a scheduled issuance pass immediately. An optional
// as_of query parameter overrides today's date.
func (h *Handler) IssueGrants(w http.ResponseWriter, r *http.Request) {
	asOf := h.Engine.Today()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		d, err := parseDateField("as_of", raw)
		if err != nil {
			h.writeError(w, err)
			return
		}
		asOf = d
	}
	issued, err := h.Engine.IssueScheduledGrants(r.Context(), asOf)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, IssueGrantsResponse{AsOf: asOf.String(), Issued: issued})
}
