package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a committed reservation. Rows with any status other than
// cancelled occupy [StartTime, EndTime) exclusively.
type Appointment struct {
	ID           string
	CreatedAt    time.Time
	Name         string
	Email        string
	Message      string
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	CancelledAt  *time.Time
	CancelReason string
}

func (a Appointment) Blocking() bool {
	return a.Status != StatusCancelled
}
