package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/halcyon-studio/slotbook/libs/httpx"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
)

// BookingHandler serves the public slot listing and booking endpoints.
type BookingHandler struct {
	svc     *booking.Service
	logger  *slog.Logger
	timeout time.Duration
}

func NewBookingHandler(svc *booking.Service, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger, timeout: 10 * time.Second}
}

type slotsResponse struct {
	Date                string   `json:"date"`
	Available           bool     `json:"available"`
	Slots               []string `json:"slots"`
	SlotDurationMinutes int      `json:"slot_duration_minutes"`
	Timezone            string   `json:"timezone"`
}

type appointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Message       string `json:"message,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeValidation(w, &booking.ValidationError{Fields: map[string]string{"date": "is required"}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cfg := h.svc.Config()
	resp := slotsResponse{
		Date:                dateStr,
		Slots:               []string{},
		SlotDurationMinutes: cfg.SlotDurationMinutes,
		Timezone:            cfg.Loc().String(),
	}
	res, err := h.svc.Slots(ctx, dateStr)
	switch {
	case err == nil:
		resp.Available = true
		resp.Slots = availability.Labels(res.Slots)
	case errors.Is(err, booking.ErrNoAvailability):
	default:
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	appt, err := h.svc.Book(ctx, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAppointmentResponse(appt, h.svc.Config().Loc()))
}

// writeError maps booking errors to status codes. Store and configuration
// details stay in the log.
func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, booking.ErrSlotTaken):
		httpx.WriteError(w, http.StatusConflict, "this time slot is no longer available, please choose another")
	case errors.Is(err, booking.ErrNoAvailability):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "no availability on the requested date")
	case errors.Is(err, booking.ErrStoreUnavailable):
		h.logger.Error("booking store unavailable", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable, please try again")
	case errors.Is(err, booking.ErrConfiguration):
		h.logger.Error("booking configuration error", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable, please try again later")
	default:
		h.logger.Error("booking failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeValidation(w http.ResponseWriter, verr *booking.ValidationError) {
	httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "invalid request", Fields: verr.Fields})
}

func toAppointmentResponse(appt model.Appointment, loc *time.Location) appointmentResponse {
	local := appt.StartTime.In(loc)
	resp := appointmentResponse{
		AppointmentID: appt.ID,
		Name:          appt.Name,
		Email:         appt.Email,
		Message:       appt.Message,
		Date:          local.Format(booking.DateLayout),
		Time:          local.Format(availability.LabelLayout),
		StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
		Status:        string(appt.Status),
		CancelReason:  appt.CancelReason,
	}
	if appt.CancelledAt != nil {
		resp.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
	}
	if !appt.CreatedAt.IsZero() {
		resp.CreatedAt = appt.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
