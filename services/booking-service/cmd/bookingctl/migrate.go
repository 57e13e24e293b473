package main

import (
	"fmt"

	"github.com/halcyon-studio/slotbook/services/booking-service/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the booking schema (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.context(cmd)
			defer cancel()
			pool, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := storage.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
