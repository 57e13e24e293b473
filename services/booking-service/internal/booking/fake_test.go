package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
)

// memStore is an in-memory Store. With guard set, Insert refuses overlapping rows
// the way the Postgres exclusion constraint does.
type memStore struct {
	mu      sync.Mutex
	appts   []model.Appointment
	guard   bool
	seq     int
	err     error
	inserts int

	// overlapHook runs after each pre-check returns.
	overlapHook func()
}

func (m *memStore) ListBooked(ctx context.Context, from, to time.Time) ([]availability.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []availability.Interval
	for _, a := range m.appts {
		if a.Blocking() && availability.Overlaps(a.StartTime, a.EndTime, from, to) {
			out = append(out, availability.Interval{Start: a.StartTime, End: a.EndTime})
		}
	}
	return out, nil
}

func (m *memStore) HasOverlap(ctx context.Context, start, end time.Time) (bool, error) {
	m.mu.Lock()
	taken, err := m.overlapLocked(start, end), m.err
	hook := m.overlapHook
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return taken, err
}

func (m *memStore) Insert(ctx context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.guard && m.overlapLocked(appt.StartTime, appt.EndTime) {
		return fmt.Errorf("insert appointment: %w", ErrOverlapRejected)
	}
	m.seq++
	m.inserts++
	appt.ID = fmt.Sprintf("appt-%d", m.seq)
	appt.CreatedAt = time.Now()
	m.appts = append(m.appts, *appt)
	return nil
}

func (m *memStore) ExclusionGuard(ctx context.Context) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.guard, nil
}

func (m *memStore) overlapLocked(start, end time.Time) bool {
	for _, a := range m.appts {
		if a.Blocking() && availability.Overlaps(a.StartTime, a.EndTime, start, end) {
			return true
		}
	}
	return false
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}

type failingProvider struct{ err error }

func (p failingProvider) Window(context.Context, time.Weekday) (availability.Window, error) {
	return availability.Window{}, p.err
}

var errBoom = errors.New("connection refused")
