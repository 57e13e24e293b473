package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyon-studio/slotbook/libs/db"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/jackc/pgx/v5"
)

// AvailabilityRepository reads and writes the weekly plan in availability_settings.
type AvailabilityRepository struct {
	pool *db.Pool
}

var _ availability.Provider = (*AvailabilityRepository)(nil)

func NewAvailabilityRepository(pool *db.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// Window returns the plan for weekday. A missing row is an inactive day.
func (r *AvailabilityRepository) Window(ctx context.Context, weekday time.Weekday) (availability.Window, error) {
	w, err := scanWindow(r.pool.QueryRow(ctx, `
		SELECT day_of_week, is_active, start_time::text, end_time::text
		FROM availability_settings
		WHERE day_of_week = $1
	`, int(weekday)))
	if err != nil {
		if db.IsNotFound(err) {
			return availability.Window{Weekday: weekday}, nil
		}
		return availability.Window{}, err
	}
	return w, nil
}

func (r *AvailabilityRepository) List(ctx context.Context) ([]availability.Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day_of_week, is_active, start_time::text, end_time::text
		FROM availability_settings
		ORDER BY day_of_week ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *AvailabilityRepository) Upsert(ctx context.Context, w availability.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	open, closeAt := w.Open, w.Close
	if !w.IsActive && open >= closeAt {
		open, closeAt = 9*60, 17*60
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_settings (day_of_week, is_active, start_time, end_time, updated_at)
		VALUES ($1, $2, $3::time, $4::time, now())
		ON CONFLICT (day_of_week) DO UPDATE
		SET is_active = EXCLUDED.is_active,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			updated_at = now()
	`, int(w.Weekday), w.IsActive, open.String(), closeAt.String())
	return err
}

func scanWindow(row pgx.Row) (availability.Window, error) {
	var (
		day             int
		active          bool
		openAt, closeAt string
	)
	if err := row.Scan(&day, &active, &openAt, &closeAt); err != nil {
		return availability.Window{}, err
	}
	w := availability.Window{Weekday: time.Weekday(day), IsActive: active}
	var err error
	if w.Open, err = availability.ParseClock(openAt); err != nil {
		return availability.Window{}, fmt.Errorf("availability_settings day %d: %w", day, err)
	}
	if w.Close, err = availability.ParseClock(closeAt); err != nil {
		return availability.Window{}, fmt.Errorf("availability_settings day %d: %w", day, err)
	}
	return w, nil
}
