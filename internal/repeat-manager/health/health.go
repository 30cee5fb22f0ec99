// Package health exposes the sync's state over the standard gRPC health
// protocol.
package health

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"repeat-task-service/internal/repeat-manager/services"
)

// SyncService is the health service name that tracks the last sync cycle.
const SyncService = "repeat.sync"

type Server struct {
	health *grpchealth.Server
	grpc   *grpc.Server
	log    zerolog.Logger
}

func NewServer(log zerolog.Logger) *Server {
	hs := grpchealth.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(SyncService, healthpb.HealthCheckResponse_SERVING)
	return &Server{health: hs, grpc: gs, log: log}
}

// ObserveCycle marks the sync NOT_SERVING while templates cannot be read.
// It is meant to be installed with services.WithCycleHook.
func (s *Server) ObserveCycle(r services.Report) {
	status := healthpb.HealthCheckResponse_SERVING
	if r.QueryFailed() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(SyncService, status)
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
	return s.grpc.Serve(lis)
}

func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Stop flips every service to NOT_SERVING and stops the gRPC server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
