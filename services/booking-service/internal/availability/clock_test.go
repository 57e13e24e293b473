package availability

import (
	"context"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := map[string]Clock{
		"09:00":    540,
		"17:30":    1050,
		"00:00":    0,
		"23:59":    1439,
		"09:00:00": 540,
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %d, got %d", in, want, got)
		}
	}
	for _, in := range []string{"", "9:00", "24:00", "12:60", "12:00:30", "aa:bb", "12-00"} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestClockString(t *testing.T) {
	if got := Clock(545).String(); got != "09:05" {
		t.Fatalf("expected 09:05, got %s", got)
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider(DefaultWeek())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mon, _ := p.Window(context.Background(), time.Monday)
	if !mon.IsActive || mon.Open.String() != "09:00" || mon.Close.String() != "17:00" {
		t.Fatalf("unexpected monday window: %+v", mon)
	}
	sun, _ := p.Window(context.Background(), time.Sunday)
	if sun.IsActive {
		t.Fatalf("expected sunday inactive")
	}

	if _, err := NewStaticProvider([]Window{{Weekday: time.Monday, IsActive: true, Open: 600, Close: 540}}); err == nil {
		t.Fatalf("expected invalid window to be rejected")
	}
}
