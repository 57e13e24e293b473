package outbox

import (
	"encoding/json"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
)

const (
	AggregateAppointment = "appointment"

	// Topic names equal the event type.
	EventAppointmentConfirmed = "booking.appointment.confirmed.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
)

// Event is the envelope written to outbox_events alongside the state change.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload is what the notifier receives.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Message       string    `json:"message,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func AppointmentEvent(eventType string, appt model.Appointment, occurredAt time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: appt.ID,
		Name:          appt.Name,
		Email:         appt.Email,
		Message:       appt.Message,
		StartTime:     appt.StartTime.UTC(),
		EndTime:       appt.EndTime.UTC(),
		Status:        string(appt.Status),
		Reason:        appt.CancelReason,
		OccurredAt:    occurredAt.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
