package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "pressure_"

	ResultSuccess     = "success"
	ResultError       = "error"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"

	TransportHTTP = "http"
	TransportGRPC = "grpc"
	TransportMQTT = "mqtt"
)

var (
	registerOnce sync.Once

	ingestTotal   *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Every observe
// helper calls it, so explicit calls are only needed to expose empty series.
func Init() {
	registerOnce.Do(func() {
		ingestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_total",
				Help: "Total ingested readings by transport and result",
			},
			[]string{"transport", "result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport"},
		)
		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_total",
				Help: "Total queries by action and result",
			},
			[]string{"action", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		)

		prometheus.MustRegister(
			ingestTotal,
			ingestLatency,
			queryTotal,
			queryLatency,
			httpRequests,
		)
	})
}

func ObserveIngest(transport, result string, started time.Time) {
	Init()
	ingestTotal.WithLabelValues(transport, result).Inc()
	ingestLatency.WithLabelValues(transport).Observe(time.Since(started).Seconds())
}

func ObserveQuery(action, result string, started time.Time) {
	Init()
	queryTotal.WithLabelValues(action, result).Inc()
	queryLatency.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

// GinMiddleware counts every request by its route template, unmatched routes
// are grouped under "unmatched".
func GinMiddleware() gin.HandlerFunc {
	Init()
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
