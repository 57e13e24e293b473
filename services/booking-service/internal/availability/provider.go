package availability

import (
	"context"
	"fmt"
	"time"
)

// Provider resolves the published window for a weekday.
type Provider interface {
	Window(ctx context.Context, weekday time.Weekday) (Window, error)
}

// StaticProvider serves a fixed weekly plan.
type StaticProvider struct {
	week [7]Window
}

// DefaultWeek is Mon-Fri 09:00-17:00, weekends closed.
func DefaultWeek() []Window {
	out := make([]Window, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		w := Window{Weekday: wd}
		if wd >= time.Monday && wd <= time.Friday {
			w.IsActive = true
			w.Open = 9 * 60
			w.Close = 17 * 60
		}
		out = append(out, w)
	}
	return out
}

// NewStaticProvider builds a provider from windows; weekdays not listed are inactive.
func NewStaticProvider(windows []Window) (*StaticProvider, error) {
	p := &StaticProvider{}
	for wd := range p.week {
		p.week[wd] = Window{Weekday: time.Weekday(wd)}
	}
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("static availability: %w", err)
		}
		p.week[w.Weekday] = w
	}
	return p, nil
}

func (p *StaticProvider) Window(_ context.Context, weekday time.Weekday) (Window, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return Window{}, fmt.Errorf("weekday %d out of range", weekday)
	}
	return p.week[weekday], nil
}
