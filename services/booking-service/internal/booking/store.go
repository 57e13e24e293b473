package booking

import (
	"context"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
)

// Store is the persistence collaborator for committed appointments.
type Store interface {
	// ListBooked returns non-cancelled appointments overlapping [from, to).
	ListBooked(ctx context.Context, from, to time.Time) ([]availability.Interval, error)
	// HasOverlap reports whether any non-cancelled appointment overlaps [start, end).
	HasOverlap(ctx context.Context, start, end time.Time) (bool, error)
	// Insert persists appt atomically and fills in its ID and CreatedAt. When the
	// store itself refuses an overlapping row the error wraps ErrOverlapRejected.
	Insert(ctx context.Context, appt *model.Appointment) error
	// ExclusionGuard reports whether Insert is protected by a store-side
	// non-overlap constraint.
	ExclusionGuard(ctx context.Context) (bool, error)
}
