package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/halcyon-studio/slotbook/libs/db"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/outbox"
)

// Appointments in these tests live far in the future so they never collide
// with real data in a shared database.
var testDay = time.Date(2099, 3, 4, 0, 0, 0, 0, time.UTC)

func openTestPool(t *testing.T) *db.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, url)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cleanup := func() {
		_, _ = pool.Exec(context.Background(), `
			DELETE FROM outbox_events WHERE aggregate_id IN (
				SELECT id::text FROM appointments WHERE start_time >= $1
			)`, testDay)
		_, _ = pool.Exec(context.Background(), `DELETE FROM appointments WHERE start_time >= $1`, testDay)
	}
	cleanup()
	t.Cleanup(cleanup)
	return pool
}

func testAppointment(start time.Time) *model.Appointment {
	return &model.Appointment{
		Name:      "Integration",
		Email:     "it@example.com",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    model.StatusConfirmed,
	}
}

func TestBookingRepository_ExclusionGuard(t *testing.T) {
	pool := openTestPool(t)
	repo := NewBookingRepository(pool, outbox.NewRepository(pool))
	ok, err := repo.ExclusionGuard(context.Background())
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if !ok {
		t.Fatalf("expected %s to be installed", ExclusionConstraint)
	}
}

func TestBookingRepository_ConcurrentInsert(t *testing.T) {
	pool := openTestPool(t)
	repo := NewBookingRepository(pool, outbox.NewRepository(pool))
	start := testDay.Add(10 * time.Hour)

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Insert(context.Background(), testAppointment(start))
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, booking.ErrOverlapRejected):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != n-1 {
		t.Fatalf("expected 1 insert and %d rejections, got %d and %d", n-1, ok, rejected)
	}

	booked, err := repo.ListBooked(context.Background(), testDay, testDay.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list booked: %v", err)
	}
	if len(booked) != 1 {
		t.Fatalf("expected 1 booked interval, got %d", len(booked))
	}
}

func TestBookingRepository_AdjacentAndCancel(t *testing.T) {
	pool := openTestPool(t)
	repo := NewBookingRepository(pool, outbox.NewRepository(pool))
	ctx := context.Background()
	start := testDay.Add(11 * time.Hour)

	first := testAppointment(start)
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Insert(ctx, testAppointment(start.Add(30*time.Minute))); err != nil {
		t.Fatalf("adjacent insert should succeed: %v", err)
	}

	taken, err := repo.HasOverlap(ctx, start.Add(15*time.Minute), start.Add(45*time.Minute))
	if err != nil || !taken {
		t.Fatalf("expected overlap, got %v %v", taken, err)
	}

	cancelled, err := repo.Cancel(ctx, first.ID, "customer request")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled appointment: %+v", cancelled)
	}
	if err := repo.Insert(ctx, testAppointment(start)); err != nil {
		t.Fatalf("cancelled slot should be bookable again: %v", err)
	}

	var events int
	if err := pool.QueryRow(ctx, `
		SELECT count(*) FROM outbox_events WHERE aggregate_id = $1
	`, first.ID).Scan(&events); err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if events != 2 {
		t.Fatalf("expected confirmed and cancelled events, got %d", events)
	}

	if _, err := repo.Cancel(ctx, "00000000-0000-0000-0000-000000000000", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAvailabilityRepository_Upsert(t *testing.T) {
	pool := openTestPool(t)
	repo := NewAvailabilityRepository(pool)
	ctx := context.Background()

	orig, err := repo.Window(ctx, time.Saturday)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	t.Cleanup(func() { _ = repo.Upsert(context.Background(), orig) })

	want := availability.Window{Weekday: time.Saturday, IsActive: true, Open: availability.MustParseClock("10:00"), Close: availability.MustParseClock("14:30")}
	if err := repo.Upsert(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.Window(ctx, time.Saturday)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("expected 7 weekdays, got %d", len(all))
	}
}
