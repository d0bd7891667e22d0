package metrics

import (
	"net/http"
	"time"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

// NewPrometheusService creates a new service for gathering prometheus metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	addrs := cfg.GetAddresses()
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:              addr,
			Handler:           promhttp.Handler(), // share metrics between multiple prometheus handlers
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}
	return NewService("Prometheus", srvs, cfg, log)
}
