// Package metrics exports use-case and HTTP telemetry to Prometheus.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/alexanderramin/timeline/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer is a service.UseCaseObserver backed by Prometheus collectors.
type Observer struct {
	useCases        *prometheus.CounterVec
	useCaseDuration *prometheus.HistogramVec
	changedItems    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewObserver registers the timeline collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		useCases: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_use_case_total",
				Help: "Service use cases executed, by name and outcome",
			},
			[]string{"use_case", "outcome"},
		),
		useCaseDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeline_use_case_duration_seconds",
				Help:    "Service use case duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"use_case"},
		),
		changedItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_changed_items_total",
				Help: "Schedule items whose dates moved, by use case",
			},
			[]string{"use_case"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeline_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (o *Observer) ObserveUseCase(_ context.Context, event service.UseCaseEvent) {
	outcome := "success"
	if !event.Success {
		outcome = "error"
	}
	o.useCases.WithLabelValues(event.Name, outcome).Inc()
	o.useCaseDuration.WithLabelValues(event.Name).Observe(event.Duration.Seconds())
	if n, ok := event.Fields["changed_count"].(int); ok && n > 0 {
		o.changedItems.WithLabelValues(event.Name).Add(float64(n))
	}
}

// RecordHTTPRequest records one served request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (o *Observer) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	o.httpDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

type multiObserver []service.UseCaseObserver

// NewMultiObserver fans each event out to every non-nil observer.
func NewMultiObserver(observers ...service.UseCaseObserver) service.UseCaseObserver {
	var out multiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return service.NoopUseCaseObserver{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiObserver) ObserveUseCase(ctx context.Context, event service.UseCaseEvent) {
	for _, o := range m {
		o.ObserveUseCase(ctx, event)
	}
}
