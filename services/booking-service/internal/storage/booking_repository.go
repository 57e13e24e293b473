package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/halcyon-studio/slotbook/libs/db"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/outbox"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound    = errors.New("appointment not found")
	ErrDuplicateID = errors.New("appointment id already exists")
)

const appointmentColumns = `id::text, created_at, name, email, message, start_time, end_time, status,
	cancelled_at, COALESCE(cancellation_reason, '')`

// BookingRepository is the Postgres booking.Store. Every state change writes
// its outbox event in the same transaction.
type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

var _ booking.Store = (*BookingRepository)(nil)

func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: outboxRepo}
}

func (r *BookingRepository) ListBooked(ctx context.Context, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE status <> 'cancelled'
			AND start_time < $2
			AND end_time > $1
		ORDER BY start_time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (r *BookingRepository) HasOverlap(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE status <> 'cancelled'
				AND start_time < $2
				AND end_time > $1
		)
	`, start, end).Scan(&exists)
	return exists, err
}

func (r *BookingRepository) Insert(ctx context.Context, appt *model.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, name, email, message, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, id, appt.Name, appt.Email, appt.Message, appt.StartTime, appt.EndTime, string(appt.Status)).Scan(&createdAt)
	if err != nil {
		return insertError(id, err)
	}

	stored := *appt
	stored.ID = id
	stored.CreatedAt = createdAt
	evt, err := outbox.AppointmentEvent(outbox.EventAppointmentConfirmed, stored, createdAt)
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return fmt.Errorf("write outbox event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	*appt = stored
	return nil
}

// insertError classifies a failed appointment insert. A unique violation means
// the generated id collided; the caller sees it as a retryable store failure.
func insertError(id string, err error) error {
	switch {
	case db.IsExclusionViolation(err):
		return fmt.Errorf("insert appointment: %w", booking.ErrOverlapRejected)
	case db.IsUniqueViolation(err):
		return fmt.Errorf("insert appointment %s: %w", id, ErrDuplicateID)
	default:
		return fmt.Errorf("insert appointment: %w", err)
	}
}

func (r *BookingRepository) ExclusionGuard(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_constraint
			WHERE conrelid = 'appointments'::regclass
				AND contype = 'x'
				AND conname = $1
		)
	`, ExclusionConstraint).Scan(&exists)
	return exists, err
}

// List returns the most recent appointments first.
func (r *BookingRepository) List(ctx context.Context, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY start_time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// Cancel marks an appointment cancelled, which releases its time range.
// Cancelling an already cancelled appointment returns it unchanged.
func (r *BookingRepository) Cancel(ctx context.Context, id, reason string) (model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Appointment{}, ErrNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return model.Appointment{}, ErrNotFound
		}
		return model.Appointment{}, err
	}
	if appt.Status == model.StatusCancelled {
		return appt, tx.Commit(ctx)
	}

	var cancelledAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $2
		WHERE id = $1
		RETURNING cancelled_at
	`, id, reason).Scan(&cancelledAt)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.StatusCancelled
	appt.CancelledAt = &cancelledAt
	appt.CancelReason = reason

	evt, err := outbox.AppointmentEvent(outbox.EventAppointmentCancelled, appt, cancelledAt)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, fmt.Errorf("write outbox event: %w", err)
	}
	return appt, tx.Commit(ctx)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.CreatedAt,
		&appt.Name,
		&appt.Email,
		&appt.Message,
		&appt.StartTime,
		&appt.EndTime,
		&status,
		&appt.CancelledAt,
		&appt.CancelReason,
	)
	appt.Status = model.Status(status)
	return appt, err
}
