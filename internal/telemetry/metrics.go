package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blagajna"

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Sales          prometheus.Counter
	UnitsSold      prometheus.Counter
	Revenue        prometheus.Counter
	SellRejections *prometheus.CounterVec
	ImageFailures  prometheus.Counter
	StoreRetries   *prometheus.CounterVec
	OrphanedSales  prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_total",
			Help:      "Number of completed sales.",
		}),
		UnitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_sold_total",
			Help:      "Number of units sold.",
		}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of sale totals.",
		}),
		SellRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sell_rejections_total",
			Help:      "Sells that did not complete, by reason.",
		}, []string{"reason"}),
		ImageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_failures_total",
			Help:      "Items created without an identifier image.",
		}),
		StoreRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Store operations retried after a transient failure.",
		}, []string{"op"}),
		OrphanedSales: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphaned_sales",
			Help:      "Sales referencing deleted items, as of the last report.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.Sales,
		m.UnitsSold,
		m.Revenue,
		m.SellRejections,
		m.ImageFailures,
		m.StoreRetries,
		m.OrphanedSales,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}
