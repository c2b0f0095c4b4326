package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// List of metrics
var (
	// Counter: Total number of errors
	totalErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gqlgate_service_errors_total",
			Help: "Total number of errors occurred in the gqlgate service.",
		})

	// Counter: Errors by types
	errorTypeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gqlgate_service_errors_by_type",
			Help: "Total number of errors by type and operation.",
		},
		[]string{"error_type", "operation"},
	)

	// Counter: Total number of HTTP requests
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gqlgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"operation", "status_code"},
	)

	// Histogram: HTTP request duration
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gqlgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .025, .05, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// Counter: upstream dispatches. Compared against the request total it
	// shows the cache/dedup hit rate.
	upstreamDispatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gqlgate_upstream_dispatches_total",
			Help: "Total number of requests forwarded to the upstream",
		})
)

// Options configure the standalone metrics listener.
type Options struct {
	EndpointName string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PrometheusMetrics implements Metrics; a disabled instance is a nop.
type PrometheusMetrics struct {
	enabled bool
}

func NewPrometheusMetrics(enabled bool) *PrometheusMetrics {
	if enabled {
		prometheus.MustRegister(totalErrors, errorTypeCounter, httpRequestsTotal, httpRequestDuration, upstreamDispatchesTotal)
	}
	return &PrometheusMetrics{enabled: enabled}
}

// StartService serves the metrics endpoint until the listener fails.
func (m *PrometheusMetrics) StartService(logger *zerolog.Logger, options *Options) error {
	if !m.enabled {
		return nil
	}

	promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	endpointPath := "/" + options.EndpointName

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case endpointPath:
			promHandler(ctx)
		default:
			ctx.Error("Unsupported path", fasthttp.StatusNotFound)
		}
	}

	server := fasthttp.Server{
		Handler:               handler,
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		NoDefaultServerHeader: true,
	}

	logger.Info().Msgf("metrics: listening on %s%s", options.Host, endpointPath)
	return server.ListenAndServe(options.Host)
}

func (m *PrometheusMetrics) IncErrorTypeCounter(errType string, operation string) {
	if !m.enabled {
		return
	}
	totalErrors.Add(1)
	errorTypeCounter.WithLabelValues(errType, operation).Inc()
}

func (m *PrometheusMetrics) IncHTTPRequestStat(start time.Time, operation string, statusCode int) {
	if !m.enabled {
		return
	}
	httpRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	httpRequestsTotal.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
}

func (m *PrometheusMetrics) IncUpstreamDispatch() {
	if !m.enabled {
		return
	}
	upstreamDispatchesTotal.Inc()
}
