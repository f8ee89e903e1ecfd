package reportshandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/profile"
	"timekeep/internal/domain/reports"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequireAdmin).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequireAdmin).Get("/reconciliation", h.handleReconciliation)
		r.With(middleware.RequireUser).Get("/statement", h.handleStatement)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.Dashboard(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Reconcile(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	drifted := 0
	for _, row := range rows {
		if !row.InBalance() {
			drifted++
		}
	}
	api.Success(w, map[string]any{"rows": rows, "drifted": drifted}, middleware.GetRequestID(r.Context()))
}

// handleStatement streams the caller's leave ledger as a PDF. Admins may pass
// employeeId to pull any employee's statement.
func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	employeeID := user.UserID
	if user.IsAdmin() {
		if requested := r.URL.Query().Get("employeeId"); requested != "" {
			employeeID = requested
		}
	}

	emp, err := h.Service.Profiles.Get(r.Context(), employeeID)
	if errors.Is(err, profile.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	transactions, err := h.Service.Ledger.ListByEmployee(r.Context(), employeeID, 500, 0)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	pdfBytes, err := reports.Statement(emp, transactions)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "render_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-statement.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
}
