package http

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/integrationhub/internal/metrics"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
)

// RegisterMetrics inicializa las métricas HTTP y las del dominio, y devuelve
// el handler para /metrics.
func RegisterMetrics(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		for _, c := range []prometheus.Collector{httpRequestsTotal, httpRequestDuration, httpInflight} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	metrics.RegisterFlows(registry)

	// Usamos el gatherer global por compatibilidad, ya que las métricas se registran allí.
	return promhttp.Handler(), nil
}

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
func WithMetrics(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &metricsRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (m *metricsRecorder) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

// normalizePath colapsa segmentos dinámicos para acotar la cardinalidad de
// los labels. Los paths de este servicio solo varían en {provider}.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	segments := strings.Split(strings.Trim(clean, "/"), "/")

	if len(segments) >= 3 && segments[0] == "v1" && segments[1] == "integrations" && segments[2] != "providers" {
		segments[2] = ":provider"
	}
	if len(segments) == 1 && segments[0] == "" {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}
