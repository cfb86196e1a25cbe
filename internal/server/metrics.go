package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	evaluations   *prometheus.CounterVec
	evalDuration  *prometheus.HistogramVec
	registrations prometheus.Counter
	transcripts   *prometheus.CounterVec
	sessions      *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cefrquiz_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cefrquiz_evaluations_total",
			Help: "Total number of graded answers",
		}, []string{"mode", "source"}),
		evalDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cefrquiz_evaluation_duration_seconds",
			Help:    "Time spent grading an answer",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "cefrquiz_registrations_total",
			Help: "Total number of registered learners",
		}),
		transcripts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cefrquiz_transcriptions_total",
			Help: "Total number of transcription requests",
		}, []string{"status"}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cefrquiz_session_events_total",
			Help: "Total number of session lifecycle events",
		}, []string{"action"}),
	}
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *metrics) handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
