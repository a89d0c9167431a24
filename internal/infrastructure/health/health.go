package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Server exposes the standard gRPC health service. It reports NOT_SERVING
// until SetServing is called and again once shutdown starts.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	service    string
}

func NewServer(service string) *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		service:    service,
	}

	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return s
}

func (s *Server) SetServing(serving bool) {
	if serving {
		s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
		return
	}

	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		slog.DebugContext(ctx, "stopping health server")
		s.SetServing(false)
		s.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("grpcServer.Serve: %w", err)
		}

		return nil
	}
}

func (s *Server) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}
