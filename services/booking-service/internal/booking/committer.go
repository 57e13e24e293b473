package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

// Book validates an external request and commits it.
func (s *Service) Book(ctx context.Context, req Request) (model.Appointment, error) {
	c, err := req.Normalize().Candidate(s.cfg.Loc())
	if err != nil {
		return model.Appointment{}, err
	}
	return s.Commit(ctx, c)
}

// Commit turns a candidate into a confirmed appointment, or explains why not.
//
// The overlap pre-check gives a fast answer in the common case; the store's
// exclusion guard decides the race between concurrent commits. Nothing is retried.
func (s *Service) Commit(ctx context.Context, c Candidate) (model.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.commit")
	defer span.End()

	appt, err := s.commit(ctx, c)
	if err != nil {
		recordErr(span, err)
		s.logger.Info("booking rejected", "start", c.Start, "err", err)
		return model.Appointment{}, err
	}
	span.SetAttributes(attribute.String("appointment.id", appt.ID))
	s.logger.Info("booking confirmed", "appointment_id", appt.ID, "start", appt.StartTime, "end", appt.EndTime)
	return appt, nil
}

func (s *Service) commit(ctx context.Context, c Candidate) (model.Appointment, error) {
	if err := c.validate(); err != nil {
		return model.Appointment{}, err
	}
	loc := s.cfg.Loc()
	start := c.Start.In(loc)
	end := start.Add(s.cfg.Duration())
	if !c.End.IsZero() && !c.End.Equal(end) {
		return model.Appointment{}, invalid("end", fmt.Sprintf("must be %d minutes after start", s.cfg.SlotDurationMinutes))
	}

	if err := s.ensureOffered(ctx, start); err != nil {
		return model.Appointment{}, err
	}

	taken, err := s.hasOverlap(ctx, start, end)
	if err != nil {
		return model.Appointment{}, err
	}
	if taken {
		return model.Appointment{}, ErrSlotTaken
	}

	appt := model.Appointment{
		Name:      strings.TrimSpace(c.Name),
		Email:     strings.TrimSpace(c.Email),
		Message:   strings.TrimSpace(c.Message),
		StartTime: start,
		EndTime:   end,
		Status:    model.StatusConfirmed,
	}
	if err := s.insert(ctx, &appt); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// ensureOffered checks that start is one of the day's published slots,
// ignoring existing bookings (those are the overlap check's job).
func (s *Service) ensureOffered(ctx context.Context, start time.Time) error {
	loc := s.cfg.Loc()
	from, _ := availability.DayBounds(start, loc)
	window, err := s.window(ctx, from.Weekday())
	if err != nil {
		return err
	}
	if !window.IsActive {
		return invalid("date", "has no availability")
	}
	for _, slot := range availability.GenerateSlots(from, window, nil, s.cfg, s.now()) {
		if slot.Start.Equal(start) {
			return nil
		}
	}
	return invalid("time", "is not an offered slot")
}

func (s *Service) hasOverlap(ctx context.Context, start, end time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	taken, err := s.store.HasOverlap(ctx, start, end)
	if err != nil {
		return false, fmt.Errorf("%w: overlap check: %v", ErrStoreUnavailable, err)
	}
	return taken, nil
}

func (s *Service) insert(ctx context.Context, appt *model.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	err := s.store.Insert(ctx, appt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOverlapRejected):
		return ErrSlotTaken
	default:
		return fmt.Errorf("%w: insert: %v", ErrStoreUnavailable, err)
	}
}
