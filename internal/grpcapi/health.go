// Package grpcapi exposes the standard grpc.health.v1 service so load
// balancers and kiosks can see when the durable audit store goes away.
package grpcapi

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the per-service entry reported alongside the overall "".
const ServiceName = "frontdesk.CheckIn"

const DefaultCheckInterval = 10 * time.Second

// PingFunc reports whether the durable store answers.
type PingFunc func(ctx context.Context) error

// Checker flips the health status between SERVING and NOT_SERVING based on
// PingFunc.  A nil ping means fallback-only mode, which is always SERVING.
type Checker struct {
	health   *health.Server
	ping     PingFunc
	interval time.Duration
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	serving bool
}

func NewChecker(hs *health.Server, ping PingFunc, interval time.Duration, logger *zap.SugaredLogger) *Checker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Checker{health: hs, ping: ping, interval: interval, logger: logger, serving: true}
}

// Check runs one probe and publishes the result.
func (c *Checker) Check(ctx context.Context) bool {
	ok := true
	if c.ping != nil {
		pctx, cancel := context.WithTimeout(ctx, c.interval)
		err := c.ping(pctx)
		cancel()
		if err != nil {
			ok = false
			c.logger.Warnw("durable store ping failed", "err", err)
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.health.SetServingStatus("", status)
	c.health.SetServingStatus(ServiceName, status)

	c.mu.Lock()
	changed := c.serving != ok
	c.serving = ok
	c.mu.Unlock()
	if changed {
		c.logger.Infow("health status changed", "status", status.String())
	}
	return ok
}

// Run probes every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	checker *Checker
	logger  *zap.SugaredLogger
}

func NewServer(ping PingFunc, interval time.Duration, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpc:    gs,
		health:  hs,
		checker: NewChecker(hs, ping, interval, logger),
		logger:  logger,
	}
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go s.checker.Run(ctx)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	s.logger.Infow("grpc health listening", "addr", lis.Addr().String())
	err := s.grpc.Serve(lis)
	if ctx.Err() != nil {
		<-stopped
		return nil
	}
	return err
}
