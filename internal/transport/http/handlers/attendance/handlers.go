package attendancehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/attendance"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Idem    *middleware.IdempotencyStore
}

func NewHandler(service *attendance.Service, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/clock-in", h.handleClockIn)
		r.Post("/clock-out", h.handleClockOut)
		r.Get("/logs", h.handleListLogs)
	})
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requestHash := middleware.RequestHash([]byte(user.UserID))
	if h.Idem.Replay(w, r, user.UserID, "attendance.clock-in", requestHash) {
		return
	}

	entry, err := h.Service.ClockIn(r.Context(), user.UserID)
	if errors.Is(err, attendance.ErrAlreadyClockedIn) {
		api.Fail(w, http.StatusConflict, "already_clocked_in", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	h.Idem.Persist(r, user.UserID, "attendance.clock-in", requestHash, entry)
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	entry, err := h.Service.ClockOut(r.Context(), user.UserID)
	if errors.Is(err, attendance.ErrNoOpenEntry) {
		api.Fail(w, http.StatusConflict, "no_open_entry", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit, offset := shared.Pagination(r)

	employeeID := user.UserID
	if user.IsAdmin() {
		if requested := r.URL.Query().Get("employeeId"); requested != "" {
			employeeID = requested
		}
	}

	entries, err := h.Service.ListByEmployee(r.Context(), employeeID, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}
