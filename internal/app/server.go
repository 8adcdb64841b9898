package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/batchby/pkg/metrics"
)

// ShutdownTimeout is the maximum time to wait for the metrics server to stop.
const ShutdownTimeout = 5 * time.Second

type metricsServer struct {
	srv *http.Server
}

func newMetricsServer(addr string, g prometheus.Gatherer) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	return &metricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *metricsServer) serve() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (s *metricsServer) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
