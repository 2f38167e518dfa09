// Package metrics exposes the recorder's Prometheus counters.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	ProcessesMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_monitor_processes_matched_total",
			Help: "New processes whose name matched the pattern.",
		})

	ResolveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_monitor_resolve_failures_total",
			Help: "Matched processes whose command line could not be resolved.",
		})

	CapturesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_monitor_captures_written_total",
			Help: "Capture records written to the cache directory.",
		})

	CaptureWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_monitor_capture_write_failures_total",
			Help: "Capture records that could not be written.",
		})

	ResponseFilesArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_monitor_response_files_archived_total",
			Help: "Response files copied into the cache directory.",
		})

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_monitor_scan_errors_total",
			Help: "Scan ticks that failed to enumerate processes.",
		})
)

const shutdownTimeout = 5 * time.Second

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, log logrus.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
		return nil
	}
}
