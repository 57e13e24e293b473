package booking

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
)

// 2026-01-28 is a Wednesday.
var (
	wednesday = time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	earlier   = time.Date(2026, 1, 27, 8, 0, 0, 0, time.UTC)
)

func newTestService(t *testing.T, store Store, now time.Time) *Service {
	t.Helper()
	provider, err := availability.NewStaticProvider([]availability.Window{
		{Weekday: time.Wednesday, IsActive: true, Open: availability.MustParseClock("09:00"), Close: availability.MustParseClock("12:00")},
		{Weekday: time.Thursday, IsActive: false},
	})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	svc, err := NewService(Options{
		Store:        store,
		Availability: provider,
		Config:       availability.Config{SlotDurationMinutes: 30},
		Now:          func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func candidateAt(hour, minute int) Candidate {
	return Candidate{
		Start: wednesday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	}
}

func TestNewService_RejectsBadConfig(t *testing.T) {
	_, err := NewService(Options{
		Store:        &memStore{},
		Availability: failingProvider{},
		Config:       availability.Config{SlotDurationMinutes: 0},
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSlots_Basic(t *testing.T) {
	svc := newTestService(t, &memStore{}, earlier)
	res, err := svc.Slots(context.Background(), "2026-01-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if got := availability.Labels(res.Slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSlots_HidesBookedAndPast(t *testing.T) {
	store := &memStore{guard: true}
	store.appts = append(store.appts, model.Appointment{
		StartTime: wednesday.Add(10 * time.Hour),
		EndTime:   wednesday.Add(10*time.Hour + 30*time.Minute),
		Status:    model.StatusConfirmed,
	}, model.Appointment{
		StartTime: wednesday.Add(11 * time.Hour),
		EndTime:   wednesday.Add(11*time.Hour + 30*time.Minute),
		Status:    model.StatusCancelled,
	})
	svc := newTestService(t, store, wednesday.Add(9*time.Hour+45*time.Minute))
	res, err := svc.Slots(context.Background(), "2026-01-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"10:30", "11:00", "11:30"}
	if got := availability.Labels(res.Slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSlots_InactiveDay(t *testing.T) {
	svc := newTestService(t, &memStore{}, earlier)
	res, err := svc.Slots(context.Background(), "2026-01-29")
	if !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("expected ErrNoAvailability, got %v", err)
	}
	if len(res.Slots) != 0 {
		t.Fatalf("expected no slots, got %v", res.Slots)
	}
}

func TestSlotsForDate_KeepsCalendarDate(t *testing.T) {
	eastern := time.FixedZone("EST", -5*60*60)
	provider, err := availability.NewStaticProvider([]availability.Window{
		{Weekday: time.Wednesday, IsActive: true, Open: availability.MustParseClock("09:00"), Close: availability.MustParseClock("12:00")},
	})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	svc, err := NewService(Options{
		Store:        &memStore{},
		Availability: provider,
		Config:       availability.Config{SlotDurationMinutes: 30, Location: eastern},
		Now:          func() time.Time { return earlier },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.SlotsForDate(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 1, 28, 0, 0, 0, 0, eastern); !res.Date.Equal(want) {
		t.Fatalf("expected day %v, got %v", want, res.Date)
	}
	if len(res.Slots) != 6 || res.Slots[0].Start.In(eastern).Hour() != 9 {
		t.Fatalf("unexpected slots: %v", availability.Labels(res.Slots))
	}

	// Thursday at UTC midnight is still Thursday, which has no window.
	if _, err := svc.SlotsForDate(context.Background(), wednesday.AddDate(0, 0, 1)); !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("expected ErrNoAvailability, got %v", err)
	}
}

func TestSlots_BadDate(t *testing.T) {
	svc := newTestService(t, &memStore{}, earlier)
	_, err := svc.Slots(context.Background(), "28/01/2026")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["date"] == "" {
		t.Fatalf("expected date validation error, got %v", err)
	}
}

func TestSlots_StoreUnavailable(t *testing.T) {
	svc := newTestService(t, &memStore{err: errBoom}, earlier)
	if _, err := svc.Slots(context.Background(), "2026-01-28"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSlots_ProviderFailure(t *testing.T) {
	svc, err := NewService(Options{
		Store:        &memStore{},
		Availability: failingProvider{err: errors.New("bad row")},
		Config:       availability.Config{SlotDurationMinutes: 30},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Slots(context.Background(), "2026-01-28"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestCommit_Confirms(t *testing.T) {
	store := &memStore{guard: true}
	svc := newTestService(t, store, earlier)
	appt, err := svc.Commit(context.Background(), candidateAt(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != model.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", appt.Status)
	}
	if appt.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if appt.EndTime.Sub(appt.StartTime) != 30*time.Minute {
		t.Fatalf("expected 30m appointment, got %s", appt.EndTime.Sub(appt.StartTime))
	}

	res, err := svc.Slots(context.Background(), "2026-01-28")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for _, label := range availability.Labels(res.Slots) {
		if label == "10:00" {
			t.Fatalf("booked slot is still offered")
		}
	}
}

func TestCommit_PreCheckRejects(t *testing.T) {
	store := &memStore{guard: true}
	svc := newTestService(t, store, earlier)
	if _, err := svc.Commit(context.Background(), candidateAt(10, 0)); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	_, err := svc.Commit(context.Background(), candidateAt(10, 0))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if store.inserts != 1 {
		t.Fatalf("expected no second insert, got %d inserts", store.inserts)
	}
}

func TestCommit_AdjacentSlotsBothSucceed(t *testing.T) {
	svc := newTestService(t, &memStore{guard: true}, earlier)
	if _, err := svc.Commit(context.Background(), candidateAt(10, 0)); err != nil {
		t.Fatalf("10:00: %v", err)
	}
	if _, err := svc.Commit(context.Background(), candidateAt(10, 30)); err != nil {
		t.Fatalf("10:30: %v", err)
	}
}

func TestCommit_ConcurrentSameSlot(t *testing.T) {
	store := &memStore{guard: true}
	var barrier sync.WaitGroup
	barrier.Add(2)
	// Hold both callers after the pre-check so they race on Insert.
	store.overlapHook = func() {
		barrier.Done()
		barrier.Wait()
	}
	svc := newTestService(t, store, earlier)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Commit(context.Background(), candidateAt(10, 0))
		}(i)
	}
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Fatalf("expected one success and one ErrSlotTaken, got %d and %d", ok, taken)
	}
	if store.count() != 1 {
		t.Fatalf("expected exactly one stored appointment, got %d", store.count())
	}
}

func TestCommit_Validation(t *testing.T) {
	svc := newTestService(t, &memStore{guard: true}, earlier)
	cases := []struct {
		name  string
		edit  func(*Candidate)
		field string
	}{
		{"missing name", func(c *Candidate) { c.Name = "  " }, "name"},
		{"long name", func(c *Candidate) { c.Name = strings.Repeat("a", 101) }, "name"},
		{"bad email", func(c *Candidate) { c.Email = "not-an-email" }, "email"},
		{"long email", func(c *Candidate) { c.Email = strings.Repeat("é", 250) + "@example.com" }, "email"},
		{"long message", func(c *Candidate) { c.Message = strings.Repeat("m", 5001) }, "message"},
		{"tampered end", func(c *Candidate) { c.End = c.Start.Add(2 * time.Hour) }, "end"},
		{"off grid", func(c *Candidate) { c.Start = c.Start.Add(10 * time.Minute) }, "time"},
		{"after close", func(c *Candidate) { c.Start = wednesday.Add(11*time.Hour + 45*time.Minute) }, "time"},
		{"closed day", func(c *Candidate) { c.Start = c.Start.Add(24 * time.Hour) }, "date"},
	}
	for _, tc := range cases {
		c := candidateAt(10, 0)
		tc.edit(&c)
		_, err := svc.Commit(context.Background(), c)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if verr.Fields[tc.field] == "" {
			t.Fatalf("%s: expected field %q in %v", tc.name, tc.field, verr.Fields)
		}
	}
}

func TestBook_MultibyteEmailCountsCharacters(t *testing.T) {
	svc := newTestService(t, &memStore{guard: true}, earlier)
	// 253 characters, 494 bytes.
	email := strings.Repeat("é", 241) + "@example.com"
	req := Request{Name: "Ada", Email: email, Date: "2026-01-28", Time: "10:00"}
	if err := req.Validate(); err != nil {
		t.Fatalf("request validation: %v", err)
	}
	appt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Email != email {
		t.Fatalf("email changed: %q", appt.Email)
	}
}

func TestCommit_MatchingEndAccepted(t *testing.T) {
	svc := newTestService(t, &memStore{guard: true}, earlier)
	c := candidateAt(9, 30)
	c.End = c.Start.Add(30 * time.Minute)
	if _, err := svc.Commit(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCommit_PastSlotRejected(t *testing.T) {
	svc := newTestService(t, &memStore{guard: true}, wednesday.Add(10*time.Hour+5*time.Minute))
	_, err := svc.Commit(context.Background(), candidateAt(10, 0))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for past slot, got %v", err)
	}
}

func TestCommit_StoreUnavailable(t *testing.T) {
	svc := newTestService(t, &memStore{err: errBoom}, earlier)
	_, err := svc.Commit(context.Background(), candidateAt(10, 0))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestBook_ParsesRequest(t *testing.T) {
	store := &memStore{guard: true}
	svc := newTestService(t, store, earlier)
	appt, err := svc.Book(context.Background(), Request{
		Name:    " Grace Hopper ",
		Email:   "grace@example.com",
		Message: "first visit",
		Date:    "2026-01-28",
		Time:    "11:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Name != "Grace Hopper" {
		t.Fatalf("expected trimmed name, got %q", appt.Name)
	}
	if want := wednesday.Add(11*time.Hour + 30*time.Minute); !appt.StartTime.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, appt.StartTime)
	}
}

func TestBook_ReportsAllFields(t *testing.T) {
	svc := newTestService(t, &memStore{guard: true}, earlier)
	_, err := svc.Book(context.Background(), Request{Email: "x@y", Date: "2026-1-28", Time: "9:00"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"name", "email", "date", "time"} {
		if verr.Fields[f] == "" {
			t.Fatalf("expected field %q in %v", f, verr.Fields)
		}
	}
}

func TestCheckGuard(t *testing.T) {
	svc := newTestService(t, &memStore{guard: false}, earlier)
	ok, err := svc.CheckGuard(context.Background())
	if err != nil || ok {
		t.Fatalf("expected missing guard, got %v %v", ok, err)
	}
	svc = newTestService(t, &memStore{guard: true}, earlier)
	if ok, _ := svc.CheckGuard(context.Background()); !ok {
		t.Fatalf("expected guard to be reported")
	}
	svc = newTestService(t, &memStore{err: errBoom}, earlier)
	if _, err := svc.CheckGuard(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
