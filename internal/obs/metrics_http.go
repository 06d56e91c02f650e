package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BootstrapMetricsServer serves /metrics and /healthz on a dedicated listener so probes
// and scrapes never queue behind API traffic.
func BootstrapMetricsServer(addr string, health func(context.Context) error, l *zap.Logger) *http.Server {
	ms := createMetricsServer(addr, health)

	go func() {
		l.Info("metrics listening", zap.String("addr", addr))
		if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server error", zap.Error(err))
		}
	}()

	return ms
}

func createMetricsServer(addr string, health func(context.Context) error) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      MetricsMux(health),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func MetricsMux(health func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := health(ctx); err != nil {
			http.Error(w, "unhealthy: db", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
