package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Current number of active websocket connections",
	})
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total number of chat messages posted",
	}, []string{"kind"})
	CallsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_calls_active",
		Help: "Current number of live calls",
	})
	CallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_calls_total",
		Help: "Total number of calls by terminal outcome",
	}, []string{"mode", "outcome"})
	SignalsRelayedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_signals_relayed_total",
		Help: "Total number of relayed WebRTC signaling payloads",
	}, []string{"kind"})
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_uploads_total",
		Help: "Total number of media uploads",
	}, []string{"kind", "result"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, MessagesTotal, CallsActive, CallsTotal,
		SignalsRelayedTotal, UploadsTotal, HttpRequestsTotal, HttpRequestDuration)
}

// GinMiddleware 统计基础请求指标,供 Prometheus 拉取。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
