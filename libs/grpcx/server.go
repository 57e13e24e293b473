package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server is a gRPC server exposing the standard health service. Service status follows a
// readiness probe that is re-evaluated every ProbeEvery.
type Server struct {
	srv        *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	service    string
	probe      func(context.Context) error
	probeEvery time.Duration
}

type ServerConfig struct {
	Service    string
	Probe      func(context.Context) error
	ProbeEvery time.Duration
}

func NewServer(logger *slog.Logger, cfg ServerConfig, extra ...grpc.ServerOption) *Server {
	if cfg.ProbeEvery <= 0 {
		cfg.ProbeEvery = 5 * time.Second
	}
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLoggingInterceptor(logger),
		),
	}
	opts = append(opts, extra...)

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		srv:        srv,
		health:     hs,
		logger:     logger,
		service:    cfg.Service,
		probe:      cfg.Probe,
		probeEvery: cfg.ProbeEvery,
	}
}

// Serve blocks until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.srv.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.probeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.probe(probeCtx)
		cancel()
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("grpc health probe failed", "err", err)
		}
	}
	s.health.SetServingStatus("", st)
	if s.service != "" {
		s.health.SetServingStatus(s.service, st)
	}
}
