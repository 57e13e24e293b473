package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/booking"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/outbox"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/storage"
	"github.com/spf13/cobra"
)

func newSlotsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "slots <YYYY-MM-DD>",
		Short: "Preview the slots the service would offer for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := availability.ConfigFromEnv()
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

			svc, err := booking.NewService(booking.Options{
				Store:        storage.NewBookingRepository(pool, outbox.NewRepository(pool)),
				Availability: storage.NewAvailabilityRepository(pool),
				Config:       cfg,
			})
			if err != nil {
				return err
			}
			res, err := svc.Slots(ctx, args[0])
			if errors.Is(err, booking.ErrNoAvailability) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no availability\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			labels := availability.Labels(res.Slots)
			if len(labels) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: fully booked\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", args[0], cfg.Loc(), strings.Join(labels, " "))
			return nil
		},
	}
}
