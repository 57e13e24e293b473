package main

import (
	"context"
	"time"

	"github.com/halcyon-studio/slotbook/libs/config"
	"github.com/halcyon-studio/slotbook/libs/db"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	envFile     string
	databaseURL string
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Operate the booking service: schema, weekly availability, slot previews and health",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(g.envFile)
		},
	}
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&g.databaseURL, "database-url", "", "postgres url (defaults to DATABASE_URL)")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 10*time.Second, "timeout for each command")

	root.AddCommand(newMigrateCmd(g))
	root.AddCommand(newAvailabilityCmd(g))
	root.AddCommand(newSlotsCmd(g))
	root.AddCommand(newPingCmd(g))
	root.AddCommand(newHashKeyCmd())
	return root
}

func (g *globalFlags) open(ctx context.Context) (*db.Pool, error) {
	url := g.databaseURL
	if url == "" {
		var err error
		if url, err = config.RequiredString("DATABASE_URL"); err != nil {
			return nil, err
		}
	}
	return db.Open(ctx, url)
}

func (g *globalFlags) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), g.timeout)
}
