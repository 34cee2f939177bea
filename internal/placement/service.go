package placement

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Service runs the placement server on a gRPC listener.
type Service struct {
	serviceID  string
	listenAddr string
	server     *Server
	health     *health.Server

	mu         sync.Mutex
	grpcServer *grpc.Server
	stopped    bool
}

// NewService creates a service for pool, listening on listenAddr once started.
func NewService(serviceID, listenAddr string, pool *Pool) *Service {
	return &Service{
		serviceID:  serviceID,
		listenAddr: listenAddr,
		server:     NewServer(pool, serviceID),
		health:     health.NewServer(),
	}
}

// Start listens on the configured address and serves until Stop is called.
func (s *Service) Start() error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis until Stop is called.
func (s *Service) Serve(lis net.Listener) error {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))
	RegisterPlacementServer(gs, s.server)
	healthpb.RegisterHealthServer(gs, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return lis.Close()
	}
	s.grpcServer = gs
	s.mu.Unlock()

	log.WithField("caller", "placement").
		WithField("service", s.serviceID).
		WithField("addr", lis.Addr().String()).
		Info("Starting placement service")

	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the service.
func (s *Service) Stop() {
	s.mu.Lock()
	gs := s.grpcServer
	s.stopped = true
	s.mu.Unlock()

	if gs == nil {
		return
	}
	log.WithField("caller", "placement").WithField("service", s.serviceID).Info("Stopping placement service")
	s.health.Shutdown()
	gs.GracefulStop()
}

// logUnary logs every placement call at debug level.
func (s *Service) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	entry := log.WithField("caller", "placement").
		WithField("method", info.FullMethod).
		WithField("code", status.Code(err).String()).
		WithField("elapsed", time.Since(start))
	if err != nil {
		entry.WithError(err).Debug("Request failed")
	} else {
		entry.Debug("Request served")
	}
	return resp, err
}
