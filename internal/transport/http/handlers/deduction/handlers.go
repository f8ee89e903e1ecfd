package deductionhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/deduction"
	"timekeep/internal/domain/notifications"
	"timekeep/internal/domain/profile"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *deduction.Service
	Notify  *notifications.Service
	Audit   *audit.Service
	Idem    *middleware.IdempotencyStore
}

func NewHandler(service *deduction.Service, notify *notifications.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Notify: notify, Audit: auditSvc, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deductions", func(r chi.Router) {
		r.With(middleware.RequireAdmin).Get("/preview", h.handlePreview)
		r.With(middleware.RequireAdmin).Post("/", h.handleApply)
		r.With(middleware.RequireUser).Get("/history", h.handleHistory)
	})
}

// handlePreview returns the computed penalty without writing anything, so the
// admin can see the charge before applying it.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("minutes")
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "minutes must be a non-negative integer", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"minutes":   minutes,
		"deduction": deduction.Compute(minutes),
	}, middleware.GetRequestID(r.Context()))
}

type applyPayload struct {
	EmployeeID string `json:"employeeId"`
	Minutes    int    `json:"minutes"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload applyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee id is required")
	if payload.Minutes <= 0 {
		v.Add("minutes", "minutes must be a positive integer")
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
	if h.Idem.Replay(w, r, user.UserID, "deduction.apply", requestHash) {
		return
	}

	rec, err := h.Service.Apply(r.Context(), payload.EmployeeID, payload.Minutes)
	switch {
	case errors.Is(err, deduction.ErrZeroDeduction):
		api.Fail(w, http.StatusUnprocessableEntity, "zero_deduction", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, deduction.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, profile.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Notify.Create(r.Context(), rec.EmployeeID, notifications.KindLateDeduction,
		"Tardiness deduction applied",
		"A deduction of "+rec.Deduction.StringFixed(3)+" days was charged against your vacation leave balance.",
	); err != nil {
		slog.Warn("notification create failed", "kind", notifications.KindLateDeduction, "err", err)
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "deduction.apply", "late_deduction", rec.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"employeeId": rec.EmployeeID, "minutes": rec.Minutes, "deduction": rec.Deduction,
	}); err != nil {
		slog.Warn("audit deduction.apply failed", "err", err)
	}
	h.Idem.Persist(r, user.UserID, "deduction.apply", requestHash, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit, offset := shared.Pagination(r)

	employeeID := user.UserID
	if user.IsAdmin() {
		if requested := r.URL.Query().Get("employeeId"); requested != "" {
			employeeID = requested
		}
	}

	records, err := h.Service.History(r.Context(), employeeID, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}
