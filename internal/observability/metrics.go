package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	idempotencyCounter    *prometheus.CounterVec
	quoteCounter          *prometheus.CounterVec
	orderPlacedCounter    *prometheus.CounterVec
	orderStatusCounter    *prometheus.CounterVec
	resyncCounter         *prometheus.CounterVec
	dispatchCounter       *prometheus.CounterVec
	dispatchQueueGauge    prometheus.Gauge
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		quoteCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_quotes_total",
			Help: "Quotes computed by trade type and outcome",
		}, []string{"type", "result"})

		orderPlacedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_orders_placed_total",
			Help: "Orders persisted by trade type",
		}, []string{"type"})

		orderStatusCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_order_status_changes_total",
			Help: "Admin order status changes by target status",
		}, []string{"status"})

		resyncCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchange_commission_resync_total",
			Help: "Per-currency commission resync outcomes",
		}, []string{"result"})

		dispatchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_jobs_total",
			Help: "Async dispatcher job outcomes",
		}, []string{"job", "result"})

		dispatchQueueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Jobs waiting in the async dispatcher queue",
		})

		prometheus.MustRegister(
			httpDurationHistogram,
			idempotencyCounter,
			quoteCounter,
			orderPlacedCounter,
			orderStatusCounter,
			resyncCounter,
			dispatchCounter,
			dispatchQueueGauge,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementQuote(orderType, result string) {
	if quoteCounter == nil {
		return
	}
	quoteCounter.WithLabelValues(orderType, result).Inc()
}

func IncrementOrderPlaced(orderType string) {
	if orderPlacedCounter == nil {
		return
	}
	orderPlacedCounter.WithLabelValues(orderType).Inc()
}

func IncrementOrderStatusChange(status string) {
	if orderStatusCounter == nil {
		return
	}
	orderStatusCounter.WithLabelValues(status).Inc()
}

func IncrementResync(result string) {
	if resyncCounter == nil {
		return
	}
	resyncCounter.WithLabelValues(result).Inc()
}

func IncrementDispatch(job, result string) {
	if dispatchCounter == nil {
		return
	}
	dispatchCounter.WithLabelValues(job, result).Inc()
}

func SetDispatchQueueDepth(depth int) {
	if dispatchQueueGauge == nil {
		return
	}
	dispatchQueueGauge.Set(float64(depth))
}
