// Package metrics exposes gutensearch's Prometheus registry and HTTP
// instrumentation middleware.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the process-wide Prometheus registry, kept explicit rather
// than the global default registry so main can wire it into HTTP
// instrumentation without relying on package-init ordering.
type Registry struct {
	reg  *prometheus.Registry
	hist *prometheus.HistogramVec
}

// New builds a Registry with the Go/process collectors and an HTTP request
// duration histogram pre-registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gutensearch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies by method, route, and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	reg.MustRegister(hist)

	return &Registry{reg: reg, hist: hist}
}

// Prometheus returns the underlying registry, for registering additional
// collectors (e.g. a pgx pool collector).
func (r *Registry) Prometheus() *prometheus.Registry { return r.reg }

// Handler serves the registry's metrics in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

var pathParamRE = regexp.MustCompile(`\{[^}]+\}`)

// Middleware records request duration by method/route/status, using chi's
// matched route pattern (falling back to the raw path) as the route label.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, req)

		route := routeLabel(req)
		r.hist.WithLabelValues(req.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

func routeLabel(req *http.Request) string {
	if rc := chi.RouteContext(req.Context()); rc != nil && rc.RoutePattern() != "" {
		return normalizePattern(rc.RoutePattern())
	}
	return normalizePattern(req.URL.Path)
}

func normalizePattern(pattern string) string {
	p := strings.TrimSuffix(pattern, "/")
	p = pathParamRE.ReplaceAllString(p, "")
	p = strings.ReplaceAll(p, "//", "/")
	if p == "" {
		return "/"
	}
	return p
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
