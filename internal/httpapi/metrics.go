// Package httpapi arma el servidor HTTP del bridge: router, métricas y
// ciclo de vida del http.Server.
package httpapi

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Domain metrics
	authzDecisionsTotal       *prometheus.CounterVec
	consentVerificationsTotal *prometheus.CounterVec
	breakGlassTotal           prometheus.Counter
)

// RegisterMetrics inicializa las métricas y devuelve el handler para /metrics.
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

		authzDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Decisiones del motor de acceso por veredicto",
		}, []string{"decision"})

		consentVerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_verifications_total",
			Help: "Verificaciones de consent por resultado",
		}, []string{"outcome"})

		breakGlassTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "break_glass_total",
			Help: "Accesos break-glass concedidos",
		})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			authzDecisionsTotal, consentVerificationsTotal, breakGlassTotal,
		} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	// Usamos el gatherer global por compatibilidad, ya que las métricas se registran allí.
	return promhttp.Handler(), nil
}

func registerCollector(registry prometheus.Registerer, c prometheus.Collector) error {
	if err := registry.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ObserveDecision cuenta una decisión del motor.
func ObserveDecision(decision string, breakGlass bool) {
	if authzDecisionsTotal != nil {
		authzDecisionsTotal.WithLabelValues(decision).Inc()
	}
	if breakGlass && breakGlassTotal != nil {
		breakGlassTotal.Inc()
	}
}

// ObserveVerification cuenta una verificación de consent.
func ObserveVerification(outcome string) {
	if consentVerificationsTotal != nil {
		consentVerificationsTotal.WithLabelValues(outcome).Inc()
	}
}

// WithMetrics instrumenta requests HTTP con métricas Prometheus.
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

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			duration := time.Since(start).Seconds()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(duration)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

var idSegment = regexp.MustCompile(`^(PAT|ORG|PROXY|AUTH|RBAC|TEFCA)-[A-Za-z0-9-]+$`)

// normalizePath colapsa segmentos con identificadores para acotar la
// cardinalidad de las labels.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if idSegment.MatchString(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
