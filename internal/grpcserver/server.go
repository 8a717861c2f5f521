package grpcserver

import (
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"order-realtime/internal/observability"
)

// AgingService is the health service name reflecting the aging monitor state.
const AgingService = "orders.aging"

// Server exposes the standard gRPC health protocol.
type Server struct {
	srv    *grpc.Server
	health *health.Server
}

func New() *Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(AgingService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{srv: srv, health: hs}
}

// SetAgingServing flips the aging service status.
func (s *Server) SetAgingServing(running bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if running {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(AgingService, status)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
