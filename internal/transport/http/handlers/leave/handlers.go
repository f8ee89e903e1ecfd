package leavehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/leave"
	"timekeep/internal/domain/notifications"
	"timekeep/internal/domain/profile"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Notify  *notifications.Service
	Audit   *audit.Service
	Idem    *middleware.IdempotencyStore
}

func NewHandler(service *leave.Service, notify *notifications.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Notify: notify, Audit: auditSvc, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequireUser).Post("/requests", h.handleFile)
		r.With(middleware.RequireUser).Get("/requests", h.handleList)
		r.With(middleware.RequireUser).Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequireAdmin).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequireAdmin).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequireAdmin).Post("/balances/adjust", h.handleAdjust)
	})
}

type filePayload struct {
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsHalfDay bool   `json:"isHalfDay"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload filePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("leaveType", payload.LeaveType, "leave type is required")
	v.Enum("leaveType", payload.LeaveType, []string{leave.TypeVacation, leave.TypeSick}, "leave type must be VL or SL")
	v.Required("startDate", payload.StartDate, "start date is required")
	v.Required("endDate", payload.EndDate, "end date is required")
	start, startOK := v.Date("startDate", payload.StartDate)
	end, endOK := v.Date("endDate", payload.EndDate)
	if startOK && endOK {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	requestID, err := h.Service.File(r.Context(), user.UserID, payload.LeaveType, start, end, payload.IsHalfDay, payload.Reason)
	if err != nil {
		h.failLeave(w, r, err)
		return
	}

	req, err := h.Service.Get(r.Context(), requestID)
	if err != nil {
		h.failLeave(w, r, err)
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit, offset := shared.Pagination(r)

	if user.IsAdmin() {
		requests, err := h.Service.ListAll(r.Context(), r.URL.Query().Get("status"), limit, offset)
		if err != nil {
			h.failLeave(w, r, err)
			return
		}
		api.Success(w, requests, middleware.GetRequestID(r.Context()))
		return
	}

	requests, err := h.Service.ListByEmployee(r.Context(), user.UserID, limit, offset)
	if err != nil {
		h.failLeave(w, r, err)
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.failLeave(w, r, err)
		return
	}
	if !user.IsAdmin() && req.EmployeeID != user.UserID {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	requestHash := middleware.RequestHash([]byte(requestID))
	if h.Idem.Replay(w, r, user.UserID, "leave.approve", requestHash) {
		return
	}

	req, err := h.Service.Approve(r.Context(), user.UserID, requestID)
	if err != nil {
		h.failLeave(w, r, err)
		return
	}

	h.notifyDecision(r, req, notifications.KindLeaveApproved, "Leave request approved")
	h.audit(r, user.UserID, "leave.approve", req)
	h.Idem.Persist(r, user.UserID, "leave.approve", requestHash, req)
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	requestHash := middleware.RequestHash([]byte(requestID))
	if h.Idem.Replay(w, r, user.UserID, "leave.reject", requestHash) {
		return
	}

	req, err := h.Service.Reject(r.Context(), user.UserID, requestID)
	if err != nil {
		h.failLeave(w, r, err)
		return
	}

	h.notifyDecision(r, req, notifications.KindLeaveRejected, "Leave request rejected")
	h.audit(r, user.UserID, "leave.reject", req)
	h.Idem.Persist(r, user.UserID, "leave.reject", requestHash, req)
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type adjustPayload struct {
	EmployeeID string  `json:"employeeId"`
	LeaveType  string  `json:"leaveType"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee id is required")
	v.Required("leaveType", payload.LeaveType, "leave type is required")
	v.Enum("leaveType", payload.LeaveType, []string{leave.TypeVacation, leave.TypeSick}, "leave type must be VL or SL")
	if payload.Amount == 0 {
		v.Add("amount", "amount must be non-zero")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	requestHash := middleware.RequestHash(raw)
	if h.Idem.Replay(w, r, user.UserID, "leave.adjust", requestHash) {
		return
	}

	newBalance, err := h.Service.Adjust(r.Context(), payload.EmployeeID, payload.LeaveType, payload.Amount, payload.Reason)
	if err != nil {
		h.failLeave(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "leave.adjust", "profile", payload.EmployeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"leaveType": payload.LeaveType, "amount": payload.Amount, "reason": payload.Reason, "newBalance": newBalance,
	}); err != nil {
		slog.Warn("audit leave.adjust failed", "err", err)
	}

	result := map[string]any{
		"employeeId": payload.EmployeeID,
		"leaveType":  payload.LeaveType,
		"newBalance": newBalance,
	}
	h.Idem.Persist(r, user.UserID, "leave.adjust", requestHash, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) notifyDecision(r *http.Request, req leave.Request, kind, title string) {
	body := fmt.Sprintf("Your %s request for %s to %s has been %s.",
		req.LeaveType,
		req.StartDate.Format("2006-01-02"),
		req.EndDate.Format("2006-01-02"),
		req.Status,
	)
	if err := h.Notify.Create(r.Context(), req.EmployeeID, kind, title, body); err != nil {
		slog.Warn("notification create failed", "kind", kind, "err", err)
	}
}

func (h *Handler) audit(r *http.Request, actorID, action string, req leave.Request) {
	if err := h.Audit.Record(r.Context(), actorID, action, "leave_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"employeeId": req.EmployeeID, "leaveType": req.LeaveType, "status": req.Status,
	}); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func (h *Handler) failLeave(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrUnknownType):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidRange):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_range", err.Error(), requestID)
	case errors.Is(err, leave.ErrOverlap):
		api.Fail(w, http.StatusConflict, "overlap", err.Error(), requestID)
	case errors.Is(err, leave.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "already_processed", err.Error(), requestID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, leave.ErrNegativeBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "negative_balance", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), requestID)
	}
}
