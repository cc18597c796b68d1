// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
)

// HTTP request metrics, labelled by route template rather than raw path so
// /shows/1 and /shows/2 share a series.
var (
    HTTPRequestsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "http_requests_total",
            Help: "Total number of HTTP requests handled.",
        },
        []string{"method", "route", "code"},
    )

    HTTPRequestDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "http_request_duration_seconds",
            Help:    "HTTP request latency.",
            Buckets: prometheus.DefBuckets,
        },
        []string{"method", "route"},
    )
)

// Show store metrics
var (
    ShowMutationsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "show_mutations_total",
            Help: "Total number of successful show mutations.",
        },
        []string{"op"},
    )

    ShowEventsPublishedTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "show_events_published_total",
            Help: "Total number of show events handed to the broker.",
        },
        []string{"status"},
    )
)

func init() {
    prometheus.MustRegister(
        HTTPRequestsTotal,
        HTTPRequestDuration,
        ShowMutationsTotal,
        ShowEventsPublishedTotal,
    )
}
