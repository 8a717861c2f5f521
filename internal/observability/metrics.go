package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_http_requests_total",
			Help: "Total number of HTTP requests processed by the realtime service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orders_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcServerHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of gRPC requests handled by the server.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orders_ws_active_connections",
			Help: "Number of active websocket connections by role.",
		},
		[]string{"role"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_ws_events_total",
			Help: "Total number of websocket lifecycle and inbound events.",
		},
		[]string{"role", "event"},
	)
	wsEmitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_ws_emits_total",
			Help: "Per-recipient outbound deliveries by event and result.",
		},
		[]string{"event", "result"},
	)
	agingTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_aging_ticks_total",
			Help: "Aging monitor ticks by result.",
		},
		[]string{"result"},
	)
	agingTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orders_aging_tick_duration_seconds",
			Help:    "Duration of aging monitor ticks in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	agingOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_aging_orders_total",
			Help: "Active orders evaluated by the aging monitor by priority.",
		},
		[]string{"priority"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	amqpConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_amqp_consumed_total",
			Help: "Order lifecycle messages consumed by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcServerHandledTotal,
		wsActiveConnections,
		wsEventsTotal,
		wsEmitsTotal,
		agingTicksTotal,
		agingTickDuration,
		agingOrdersTotal,
		amqpPublishErrorsTotal,
		amqpConsumedTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		statusInfo := status.Convert(err)
		service, method := splitFullMethod(info.FullMethod)
		grpcServerHandledTotal.WithLabelValues(service, method, statusInfo.Code().String()).Inc()
		return resp, err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncWSActive(role string) {
	wsActiveConnections.WithLabelValues(role).Inc()
}

func DecWSActive(role string) {
	wsActiveConnections.WithLabelValues(role).Dec()
}

func IncWSEvent(role, event string) {
	wsEventsTotal.WithLabelValues(role, event).Inc()
}

// AddEmitResult records per-recipient outbound results for one emitted event.
func AddEmitResult(event string, sent, failed int) {
	if sent > 0 {
		wsEmitsTotal.WithLabelValues(event, "sent").Add(float64(sent))
	}
	if failed > 0 {
		wsEmitsTotal.WithLabelValues(event, "failed").Add(float64(failed))
	}
}

func ObserveAgingTick(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	agingTicksTotal.WithLabelValues(result).Inc()
	agingTickDuration.Observe(d.Seconds())
}

func IncAgingOrder(priority string) {
	agingOrdersTotal.WithLabelValues(priority).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncAMQPConsumed(result string) {
	amqpConsumedTotal.WithLabelValues(result).Inc()
}
