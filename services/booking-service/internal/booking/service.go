package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultStoreTimeout = 3 * time.Second

type Options struct {
	Store        Store
	Availability availability.Provider
	Config       availability.Config
	Logger       *slog.Logger
	// StoreTimeout bounds each store call. Zero means DefaultStoreTimeout.
	StoreTimeout time.Duration
	// Now is the clock used to hide past slots. Nil means time.Now.
	Now func() time.Time
}

type Service struct {
	store        Store
	availability availability.Provider
	cfg          availability.Config
	logger       *slog.Logger
	storeTimeout time.Duration
	now          func() time.Time
	tracer       trace.Tracer
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil || opts.Availability == nil {
		return nil, fmt.Errorf("%w: store and availability provider are required", ErrConfiguration)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	s := &Service{
		store:        opts.Store,
		availability: opts.Availability,
		cfg:          opts.Config,
		logger:       opts.Logger,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
		tracer:       otel.Tracer("booking-service/booking"),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = DefaultStoreTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) Config() availability.Config { return s.cfg }

// DayResult is the slot listing for one calendar day.
type DayResult struct {
	Date  time.Time
	Slots []availability.Slot
}

// Slots lists bookable slots for a YYYY-MM-DD date in the configured location.
func (s *Service) Slots(ctx context.Context, dateStr string) (DayResult, error) {
	date, err := time.ParseInLocation(DateLayout, dateStr, s.cfg.Loc())
	if err != nil {
		return DayResult{}, invalid("date", "must be YYYY-MM-DD")
	}
	return s.SlotsForDate(ctx, date)
}

// SlotsForDate lists bookable slots for the calendar day of date. Only the
// year, month and day of date are used; its location is ignored.
func (s *Service) SlotsForDate(ctx context.Context, date time.Time) (DayResult, error) {
	ctx, span := s.tracer.Start(ctx, "booking.slots")
	defer span.End()

	from, to := availability.DayBounds(date, s.cfg.Loc())
	span.SetAttributes(attribute.String("booking.date", from.Format(DateLayout)))

	window, err := s.window(ctx, from.Weekday())
	if err != nil {
		recordErr(span, err)
		return DayResult{}, err
	}
	if !window.IsActive {
		return DayResult{Date: from}, ErrNoAvailability
	}

	booked, err := s.listBooked(ctx, from, to)
	if err != nil {
		recordErr(span, err)
		return DayResult{}, err
	}
	slots := availability.GenerateSlots(from, window, booked, s.cfg, s.now())
	span.SetAttributes(attribute.Int("booking.slots", len(slots)))
	return DayResult{Date: from, Slots: slots}, nil
}

// CheckGuard probes the store once at startup. Without a store-side guard two
// concurrent commits for the same slot can both pass the pre-check.
func (s *Service) CheckGuard(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	ok, err := s.store.ExclusionGuard(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		s.logger.Warn("appointment store has no exclusion guard; concurrent bookings for one slot may both succeed")
	}
	return ok, nil
}

func (s *Service) window(ctx context.Context, weekday time.Weekday) (availability.Window, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	w, err := s.availability.Window(ctx, weekday)
	if err != nil {
		if isTransient(ctx, err) {
			return availability.Window{}, fmt.Errorf("%w: availability: %v", ErrStoreUnavailable, err)
		}
		return availability.Window{}, fmt.Errorf("%w: availability for %s: %v", ErrConfiguration, weekday, err)
	}
	if err := w.Validate(); err != nil {
		return availability.Window{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return w, nil
}

func (s *Service) listBooked(ctx context.Context, from, to time.Time) ([]availability.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	booked, err := s.store.ListBooked(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: list booked: %v", ErrStoreUnavailable, err)
	}
	return booked, nil
}

// isTransient treats cancellation and deadlines as store outages.
func isTransient(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, ErrStoreUnavailable)
}

func recordErr(span trace.Span, err error) {
	if errors.Is(err, ErrNoAvailability) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
