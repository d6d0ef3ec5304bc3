// Package metrics counts API calls made by the client and can expose them
// on a Prometheus /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns its own registry so tests and multiple clients never collide
// on the global one. A nil *Recorder records nothing.
type Recorder struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rejected *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_client_requests_total",
				Help: "Total number of API requests by operation and status",
			},
			[]string{"op", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_client_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_client_validation_rejections_total",
				Help: "Submissions rejected before any request was sent",
			},
			[]string{"reason"},
		),
	}
	r.reg.MustRegister(r.requests, r.duration, r.rejected)
	return r
}

// Observe records one finished request. status 0 means the request never got a response.
func (r *Recorder) Observe(op string, status int, d time.Duration) {
	if r == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(op, label).Inc()
	r.duration.WithLabelValues(op).Observe(d.Seconds())
}

// Rejected records a submission stopped by input validation.
func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
