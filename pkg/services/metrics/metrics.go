package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/glowsphere/glowsphere/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
}

// NewService creates a new Service for the given servers.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Name returns the service name.
func (ms *Service) Name() string {
	return ms.serviceType
}

// Addresses returns the addresses the service listens on, the actual ones
// after Start.
func (ms *Service) Addresses() []string {
	res := make([]string, len(ms.http))
	for i, srv := range ms.http {
		res[i] = srv.Addr
	}
	return res
}

// Start runs http service with the exposed endpoint on the configured port.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	for _, srv := range ms.http {
		ms.log.Info("starting service", zap.String("endpoint", srv.Addr))

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return err
		}
		srv.Addr = ln.Addr().String() // set Addr to the actual address
		go func(s *http.Server) {
			err := s.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to start service", zap.String("endpoint", s.Addr), zap.Error(err))
			}
		}(srv)
	}
	return nil
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
}
