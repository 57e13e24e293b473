package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/halcyon-studio/slotbook/libs/httpx"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/storage"
)

type AppointmentStore interface {
	List(ctx context.Context, limit int) ([]model.Appointment, error)
	Cancel(ctx context.Context, id, reason string) (model.Appointment, error)
}

type AvailabilityStore interface {
	List(ctx context.Context) ([]availability.Window, error)
}

// AdminHandler serves the dashboard API. Routes are expected to sit behind
// httpx.RequireAPIKey.
type AdminHandler struct {
	appointments AppointmentStore
	availability AvailabilityStore
	loc          *time.Location
	logger       *slog.Logger
}

func NewAdminHandler(appointments AppointmentStore, avail AvailabilityStore, loc *time.Location, logger *slog.Logger) *AdminHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{appointments: appointments, availability: avail, loc: loc, logger: logger}
}

const maxListLimit = 500

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type windowResponse struct {
	Weekday   int    `json:"day_of_week"`
	Day       string `json:"day"`
	IsActive  bool   `json:"is_active"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	appts, err := h.appointments.List(ctx, limit)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "failed to list appointments")
		return
	}
	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentResponse(a, h.loc))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "invalid request", Fields: map[string]string{"appointment_id": "is required"}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	appt, err := h.appointments.Cancel(ctx, req.AppointmentID, strings.TrimSpace(req.Reason))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("cancel appointment failed", "appointment_id", req.AppointmentID, "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "failed to cancel appointment")
		return
	}
	h.logger.Info("appointment cancelled", "appointment_id", appt.ID)
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(appt, h.loc))
}

func (h *AdminHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	windows, err := h.availability.List(ctx)
	if err != nil {
		h.logger.Error("list availability failed", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "failed to list availability")
		return
	}
	items := make([]windowResponse, 0, len(windows))
	for _, win := range windows {
		items = append(items, windowResponse{
			Weekday:   int(win.Weekday),
			Day:       win.Weekday.String(),
			IsActive:  win.IsActive,
			StartTime: win.Open.String(),
			EndTime:   win.Close.String(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items, "timezone": h.loc.String()})
}
