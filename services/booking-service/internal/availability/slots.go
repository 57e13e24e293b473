package availability

import (
	"errors"
	"fmt"
	"time"
)

const LabelLayout = "15:04"

// Window is the published opening for one weekday.
type Window struct {
	Weekday  time.Weekday
	IsActive bool
	Open     Clock
	Close    Clock
}

func (w Window) Validate() error {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return fmt.Errorf("weekday %d out of range", w.Weekday)
	}
	if !w.IsActive {
		return nil
	}
	if !w.Open.Valid() || !w.Close.Valid() {
		return fmt.Errorf("%s: open/close out of range", w.Weekday)
	}
	if w.Open >= w.Close {
		return fmt.Errorf("%s: open %s must be before close %s", w.Weekday, w.Open, w.Close)
	}
	return nil
}

// Interval is a half-open occupied range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

type Slot struct {
	Start time.Time
	End   time.Time
	Label string
}

// Config holds the generation parameters shared by slot listing and booking.
type Config struct {
	SlotDurationMinutes int
	BufferMinutes       int
	// Location the availability windows are published in. Nil means UTC.
	Location *time.Location
}

func (c Config) Validate() error {
	if c.SlotDurationMinutes <= 0 {
		return errors.New("slot duration must be positive")
	}
	if c.BufferMinutes < 0 {
		return errors.New("buffer must not be negative")
	}
	return nil
}

func (c Config) Duration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

// Step is the distance between consecutive slot starts.
func (c Config) Step() time.Duration {
	return time.Duration(c.SlotDurationMinutes+c.BufferMinutes) * time.Minute
}

func (c Config) Loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Overlaps is the half-open overlap test: touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func overlapsAny(start, end time.Time, booked []Interval) bool {
	for _, b := range booked {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// At returns the instant of clock c on the calendar day of date, in loc.
func At(date time.Time, c Clock, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc)
}

// DayBounds returns [midnight, next midnight) of date's calendar day in loc.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// GenerateSlots expands window into bookable slots on date's calendar day.
//
// A slot is emitted only if it fits entirely before the window closes, does not start
// before now, and does not overlap any booked interval. The cursor always advances by
// duration+buffer, so the output is chronological and never contains buffer time.
// An inactive window yields no slots.
func GenerateSlots(date time.Time, window Window, booked []Interval, cfg Config, now time.Time) []Slot {
	if !window.IsActive || cfg.Validate() != nil || window.Open >= window.Close {
		return nil
	}
	loc := cfg.Loc()
	duration := cfg.Duration()
	step := cfg.Step()

	windowEnd := At(date, window.Close, loc)
	var slots []Slot
	for cursor := At(date, window.Open, loc); !cursor.Add(duration).After(windowEnd); cursor = cursor.Add(step) {
		slotEnd := cursor.Add(duration)
		if cursor.Before(now) {
			continue
		}
		if overlapsAny(cursor, slotEnd, booked) {
			continue
		}
		slots = append(slots, Slot{
			Start: cursor,
			End:   slotEnd,
			Label: cursor.In(loc).Format(LabelLayout),
		})
	}
	return slots
}

func Labels(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Label)
	}
	return out
}
