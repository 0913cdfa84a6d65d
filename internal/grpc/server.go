package grpcserver

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"adminBackend/internal/auth"
	"adminBackend/internal/logger"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// ServiceName is the health service name reported next to the overall status.
const ServiceName = "admin.v1.AdminBackend"

// Server is the gRPC endpoint: health checks and reflection behind the JWT interceptor.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	lis    net.Listener
	log    logger.Logger
}

// StartGRPC starts the gRPC server on addr and serves in the background.
func StartGRPC(addr, jwtSecret string, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	// Plaintext; TLS is terminated in front of the service.
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(jwtSecret, healthCheckMethod)))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{srv: srv, health: hs, lis: lis, log: log}
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Error(fmt.Sprintf("[gRPC] serve: %v", err))
		}
	}()
	return s, nil
}

// Addr is the bound listen address.
func (s *Server) Addr() string { return s.lis.Addr().String() }

// SetServing flips the reported status, e.g. when the database stops answering.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Shutdown stops gracefully, or hard when ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() { s.srv.GracefulStop(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}
