package main

import (
	"fmt"

	"github.com/halcyon-studio/slotbook/libs/config"
	"github.com/halcyon-studio/slotbook/libs/grpcx"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newPingCmd(g *globalFlags) *cobra.Command {
	var addr, service string
	c := &cobra.Command{
		Use:   "ping",
		Short: "Query the gRPC health service of a running booking-service",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := grpcx.CheckHealth(cmd.Context(), addr, service, g.timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", addr, status)
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service %q is %s", service, status)
			}
			return nil
		},
	}
	c.Flags().StringVar(&addr, "addr", "localhost:"+config.String("GRPC_PORT", "9093"), "grpc address")
	c.Flags().StringVar(&service, "service", "slotbook.booking", "health service name")
	return c
}
