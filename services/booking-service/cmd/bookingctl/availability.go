package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/storage"
	"github.com/spf13/cobra"
)

func newAvailabilityCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Manage the weekly availability plan",
	}
	cmd.AddCommand(newAvailabilityListCmd(g))
	cmd.AddCommand(newAvailabilitySetCmd(g))
	return cmd
}

func newAvailabilityListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the window for every weekday",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.context(cmd)
			defer cancel()
			pool, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			windows, err := storage.NewAvailabilityRepository(pool).List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tACTIVE\tOPEN\tCLOSE")
			for _, w := range windows {
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", w.Weekday, w.IsActive, w.Open, w.Close)
			}
			return tw.Flush()
		},
	}
}

func newAvailabilitySetCmd(g *globalFlags) *cobra.Command {
	var open, closeAt string
	var inactive bool

	c := &cobra.Command{
		Use:     "set <weekday>",
		Short:   "Set or close the window for one weekday",
		Example: "  bookingctl availability set monday --open 09:00 --close 17:00\n  bookingctl availability set sunday --inactive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWindow(args[0], open, closeAt, inactive)
			if err != nil {
				return err
			}
			ctx, cancel := g.context(cmd)
			defer cancel()
			pool, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := storage.NewAvailabilityRepository(pool).Upsert(ctx, w); err != nil {
				return err
			}
			if w.IsActive {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s-%s\n", w.Weekday, w.Open, w.Close)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: closed\n", w.Weekday)
			}
			return nil
		},
	}
	c.Flags().StringVar(&open, "open", "09:00", "opening time (HH:mm)")
	c.Flags().StringVar(&closeAt, "close", "17:00", "closing time (HH:mm)")
	c.Flags().BoolVar(&inactive, "inactive", false, "close the day")
	return c
}

func parseWindow(day, open, closeAt string, inactive bool) (availability.Window, error) {
	wd, err := parseWeekday(day)
	if err != nil {
		return availability.Window{}, err
	}
	w := availability.Window{Weekday: wd, IsActive: !inactive}
	if w.Open, err = availability.ParseClock(open); err != nil {
		return availability.Window{}, err
	}
	if w.Close, err = availability.ParseClock(closeAt); err != nil {
		return availability.Window{}, err
	}
	return w, w.Validate()
}

// parseWeekday accepts names ("monday", "mon") and numbers (0=Sunday).
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] || s == fmt.Sprint(int(wd)) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
